package domain

import "time"

// Session metadata keys.
const (
	SessionMetaProvider  = "provider"
	SessionMetaUserAgent = "user_agent"

	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// Session represents an authenticated login cached in Redis.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Provider returns how the session was established.
func (s *Session) Provider() string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	return s.Metadata[SessionMetaProvider]
}
