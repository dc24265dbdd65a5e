package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/google"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

const (
	minPasswordLength = 8
	stateTTL          = 10 * time.Minute
)

// IdentityProvider is the external OAuth sign-in provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (*google.Profile, error)
}

// Deps wires the auth use case. Google, States and Tokens are optional together.
type Deps struct {
	Users      repository.UserRepository
	Sessions   repository.SessionRepository
	States     repository.StateRepository
	Tokens     repository.TokenRepository
	Google     IdentityProvider
	Signer     *Signer
	Metrics    usecase.Recorder
	SessionTTL time.Duration
}

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	states     repository.StateRepository
	tokens     repository.TokenRepository
	google     IdentityProvider
	signer     *Signer
	metrics    usecase.Recorder
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// Result is returned by every successful sign-in.
type Result struct {
	Token   string          `json:"token"`
	Session *domain.Session `json:"session"`
	User    *domain.User    `json:"user"`
}

// RegisterInput carries a local account signup.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func New(deps Deps, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = usecase.NopRecorder
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 24 * time.Hour
	}
	return &UseCase{
		users:      deps.Users,
		sessions:   deps.Sessions,
		states:     deps.States,
		tokens:     deps.Tokens,
		google:     deps.Google,
		signer:     deps.Signer,
		metrics:    deps.Metrics,
		sessionTTL: deps.SessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a local account with a bcrypt password hash.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "unusable password", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		uc.metrics.AuthAttempt("register", "error")
		return nil, err
	}

	uc.metrics.AuthAttempt("register", "ok")
	logger.WithRequestID(ctx, uc.logger).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies local credentials and opens a session.
func (uc *UseCase) Login(ctx context.Context, email, password, userAgent string) (*Result, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.metrics.AuthAttempt(domain.ProviderCredentials, "rejected")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword() {
		uc.metrics.AuthAttempt(domain.ProviderCredentials, "rejected")
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.metrics.AuthAttempt(domain.ProviderCredentials, "rejected")
		return nil, domain.ErrInvalidCredentials
	}

	return uc.open(ctx, user, domain.ProviderCredentials, userAgent)
}

// GoogleAuthURL starts the OAuth flow and returns the consent URL with a fresh state.
func (uc *UseCase) GoogleAuthURL(ctx context.Context) (string, error) {
	if uc.google == nil || uc.states == nil {
		return "", domain.NewError(domain.ErrCodeForbidden, "google sign-in is not configured")
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}
	if err := uc.states.Save(ctx, state, stateTTL); err != nil {
		return "", err
	}
	return uc.google.AuthCodeURL(state), nil
}

// GoogleCallback completes the OAuth flow: the state is single use, the user is created on
// first sign-in and the token is kept for calendar sync.
func (uc *UseCase) GoogleCallback(ctx context.Context, state, code, userAgent string) (*Result, error) {
	if uc.google == nil || uc.states == nil {
		return nil, domain.NewError(domain.ErrCodeForbidden, "google sign-in is not configured")
	}

	ok, err := uc.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		uc.metrics.AuthAttempt(domain.ProviderGoogle, "rejected")
		return nil, domain.ErrInvalidOAuthState
	}
	if code == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "missing authorization code")
	}

	token, err := uc.google.Exchange(ctx, code)
	if err != nil {
		uc.metrics.AuthAttempt(domain.ProviderGoogle, "error")
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "google sign-in failed", err)
	}
	profile, err := uc.google.UserInfo(ctx, token)
	if err != nil {
		uc.metrics.AuthAttempt(domain.ProviderGoogle, "error")
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "google sign-in failed", err)
	}
	if profile.Email == "" {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "google account has no email")
	}

	user, err := uc.linkGoogleUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	if uc.tokens != nil {
		if err := uc.tokens.Save(ctx, user.ID, token); err != nil {
			logger.WithRequestID(ctx, uc.logger).Warn("failed to store google token",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return uc.open(ctx, user, domain.ProviderGoogle, userAgent)
}

// CreateSession opens a session for an existing user.
func (uc *UseCase) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return uc.createSession(ctx, userID, ttl, nil)
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession extends the session and returns a token carrying the new expiry.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*Result, error) {
	if ttl <= 0 {
		ttl = uc.sessionTTL
	}
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = expiry(uc.now(), ttl)

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	token, err := uc.sign(session)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, Session: session, User: user}, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// CurrentUser resolves the user behind a live session.
func (uc *UseCase) CurrentUser(ctx context.Context, sessionID string) (*domain.User, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) linkGoogleUser(ctx context.Context, profile *google.Profile) (*domain.User, error) {
	user, err := uc.users.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		changed := false
		if user.Name == "" && profile.Name != "" {
			user.Name = profile.Name
			changed = true
		}
		if user.Image == "" && profile.Picture != "" {
			user.Image = profile.Picture
			changed = true
		}
		if changed {
			if err := uc.users.Update(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	case errors.Is(err, domain.ErrUserNotFound):
		user = &domain.User{
			Email: profile.Email,
			Name:  profile.Name,
			Image: profile.Picture,
		}
		if err := uc.users.Create(ctx, user); err != nil {
			return nil, err
		}
		logger.WithRequestID(ctx, uc.logger).Info("user created from google sign-in", zap.String("user_id", user.ID))
		return user, nil
	default:
		return nil, err
	}
}

func (uc *UseCase) open(ctx context.Context, user *domain.User, provider, userAgent string) (*Result, error) {
	meta := map[string]string{domain.SessionMetaProvider: provider}
	if userAgent != "" {
		meta[domain.SessionMetaUserAgent] = userAgent
	}

	session, err := uc.createSession(ctx, user.ID, uc.sessionTTL, meta)
	if err != nil {
		uc.metrics.AuthAttempt(provider, "error")
		return nil, err
	}
	token, err := uc.sign(session)
	if err != nil {
		uc.metrics.AuthAttempt(provider, "error")
		return nil, err
	}

	uc.metrics.AuthAttempt(provider, "ok")
	logger.WithRequestID(ctx, uc.logger).Info("session opened",
		zap.String("user_id", user.ID),
		zap.String("provider", provider))
	return &Result{Token: token, Session: session, User: user}, nil
}

func (uc *UseCase) createSession(ctx context.Context, userID string, ttl time.Duration, meta map[string]string) (*domain.Session, error) {
	if ttl <= 0 {
		ttl = uc.sessionTTL
	}
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: expiry(now, ttl),
		Metadata:  meta,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *UseCase) sign(session *domain.Session) (string, error) {
	if uc.signer == nil {
		return "", nil
	}
	return uc.signer.Sign(session)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
