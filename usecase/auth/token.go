package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/planner/domain"
)

// Claims is the JWT payload handed to clients.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	issuer string
}

func NewSigner(secret, issuer string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer}
}

// Sign binds a token to the session and its expiry.
func (s *Signer) Sign(session *domain.Session) (string, error) {
	claims := Claims{
		UserID:    session.UserID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.UserID,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates signature, expiry and issuer.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid token issuer")
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "incomplete token claims")
	}
	return claims, nil
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}
