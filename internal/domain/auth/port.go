package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidToken wraps any rejection of a sign-in credential.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoSession is returned for unknown or expired sessions.
	ErrNoSession = errors.New("session not found")
)

// TokenVerifier checks a Google ID token and extracts the user.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (*User, error)
}

// SessionStore keeps signed-in users keyed by session id.
type SessionStore interface {
	Create(ctx context.Context, u *User, ttl time.Duration) (SessionID, error)
	Get(ctx context.Context, id SessionID) (*User, error)
	Delete(ctx context.Context, id SessionID) error
}
