package domain

import "time"

// User represents an authenticated identity in the planner.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the user can sign in with local credentials.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
