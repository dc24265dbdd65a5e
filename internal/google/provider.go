// Package google wraps the Google OAuth2 endpoints used for sign-in and for calendar access.
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Scopes requested at consent: identity plus calendar event writes.
var Scopes = []string{
	oauth2api.OpenIDScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
	calendar.CalendarEventsScope,
}

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Profile is the subset of Google userinfo the planner keeps.
type Profile struct {
	ID            string
	Email         string
	Name          string
	Picture       string
	VerifiedEmail bool
}

// Provider performs the authorization code flow against Google.
type Provider struct {
	conf *oauth2.Config
}

// NewProvider returns nil when the client id or secret is missing.
func NewProvider(cfg Config) *Provider {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	return &Provider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       Scopes,
		},
	}
}

// AuthCodeURL asks for offline access so a refresh token is issued for calendar sync.
func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// TokenSource refreshes token as needed.
func (p *Provider) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return p.conf.TokenSource(ctx, token)
}

// UserInfo fetches the signed-in user's profile.
func (p *Provider) UserInfo(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(p.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}

	profile := &Profile{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}
	if info.VerifiedEmail != nil {
		profile.VerifiedEmail = *info.VerifiedEmail
	}
	return profile, nil
}
