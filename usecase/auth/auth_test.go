package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/google"
	"github.com/fastygo/planner/repository/memory"
)

type fakeProvider struct {
	profile     *google.Profile
	exchangeErr error
	codes       []string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	p.codes = append(p.codes, code)
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) UserInfo(context.Context, *oauth2.Token) (*google.Profile, error) {
	return p.profile, nil
}

type fixture struct {
	uc       *UseCase
	store    *memory.Store
	provider *fakeProvider
	signer   *Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	provider := &fakeProvider{profile: &google.Profile{Email: "Ada@Example.com", Name: "Ada", Picture: "https://img/ada.png"}}
	signer := NewSigner("test-secret", "planner")
	uc := New(Deps{
		Users:      store.Users(),
		Sessions:   store.Sessions(time.Hour),
		States:     store.States(),
		Tokens:     store.Tokens(),
		Google:     provider,
		Signer:     signer,
		SessionTTL: time.Hour,
	}, nil)
	return &fixture{uc: uc, store: store, provider: provider, signer: signer}
}

func stateFrom(t *testing.T, rawURL string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	return parsed.Query().Get("state")
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.uc.Register(ctx, RegisterInput{Email: " Bob@Example.com ", Password: "correct horse", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	result, err := f.uc.Login(ctx, "bob@example.com", "correct horse", "curl/8")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, domain.ProviderCredentials, result.Session.Provider())
	assert.Equal(t, "curl/8", result.Session.Metadata[domain.SessionMetaUserAgent])

	claims, err := f.signer.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, result.Session.ID, claims.SessionID)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing email", in: RegisterInput{Password: "long enough"}},
		{name: "missing password", in: RegisterInput{Email: "a@example.com"}},
		{name: "bad email", in: RegisterInput{Email: "not-an-email", Password: "long enough"}},
		{name: "short password", in: RegisterInput{Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Register(ctx, tt.in)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), "got %v", err)
		})
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.uc.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "password2"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, RegisterInput{Email: "eve@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, "eve@example.com", "wrong-password", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.uc.Login(ctx, "nobody@example.com", "password1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestGoogleFlowCreatesUserAndStoresToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.uc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	state := stateFrom(t, authURL)
	require.NotEmpty(t, state)

	result, err := f.uc.GoogleCallback(ctx, state, "code-1", "browser")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, "Ada", result.User.Name)
	assert.Equal(t, domain.ProviderGoogle, result.Session.Provider())
	assert.Equal(t, []string{"code-1"}, f.provider.codes)

	token, err := f.store.Tokens().Get(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-code-1", token.AccessToken)

	// the state is single use
	_, err = f.uc.GoogleCallback(ctx, state, "code-2", "browser")
	assert.ErrorIs(t, err, domain.ErrInvalidOAuthState)
}

func TestGoogleCallbackLinksExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.uc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	authURL, err := f.uc.GoogleAuthURL(ctx)
	require.NoError(t, err)

	result, err := f.uc.GoogleCallback(ctx, stateFrom(t, authURL), "code", "")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.User.ID)
	assert.Equal(t, "Ada", result.User.Name)
	assert.True(t, result.User.HasPassword())
}

func TestGoogleCallbackExchangeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.provider.exchangeErr = errors.New("bad code")

	authURL, err := f.uc.GoogleAuthURL(ctx)
	require.NoError(t, err)

	_, err = f.uc.GoogleCallback(ctx, stateFrom(t, authURL), "code", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestGoogleNotConfigured(t *testing.T) {
	store := memory.New()
	uc := New(Deps{Users: store.Users(), Sessions: store.Sessions(time.Hour)}, nil)

	_, err := uc.GoogleAuthURL(context.Background())
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.uc.Register(ctx, RegisterInput{Email: "kim@example.com", Password: "password1"})
	require.NoError(t, err)

	session, err := f.uc.CreateSession(ctx, user.ID, time.Minute)
	require.NoError(t, err)

	current, err := f.uc.CurrentUser(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	refreshed, err := f.uc.RefreshSession(ctx, session.ID, 2*time.Hour)
	require.NoError(t, err)
	assert.True(t, refreshed.Session.ExpiresAt.After(session.ExpiresAt))
	assert.NotEmpty(t, refreshed.Token)

	require.NoError(t, f.uc.RevokeSession(ctx, session.ID))
	_, err = f.uc.CurrentUser(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreateSessionUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateSession(context.Background(), "missing", time.Minute)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSignerRejectsForeignTokens(t *testing.T) {
	session := &domain.Session{
		ID:        "s-1",
		UserID:    "u-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	token, err := NewSigner("other-secret", "planner").Sign(session)
	require.NoError(t, err)

	_, err = NewSigner("test-secret", "planner").Parse(token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	_, err = NewSigner("other-secret", "someone-else").Parse(token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	expired := *session
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	token, err = NewSigner("test-secret", "planner").Sign(&expired)
	require.NoError(t, err)
	_, err = NewSigner("test-secret", "planner").Parse(token)
	assert.Error(t, err)
}
