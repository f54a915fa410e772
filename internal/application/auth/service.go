// Package auth signs users in with Google and tracks their sessions.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domain "github.com/bryanwahyu/clausecode/internal/domain/auth"
)

// DefaultSessionTTL is how long a sign-in lasts.
const DefaultSessionTTL = 7 * 24 * time.Hour

type Service struct {
	Verifier domain.TokenVerifier
	Sessions domain.SessionStore
	TTL      time.Duration
	Logger   *slog.Logger
}

func NewService(verifier domain.TokenVerifier, sessions domain.SessionStore, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Verifier: verifier, Sessions: sessions, TTL: ttl, Logger: logger}
}

// Login verifies a Google credential and opens a session for its user.
func (s *Service) Login(ctx context.Context, credential string) (domain.SessionID, *domain.User, error) {
	u, err := s.Verifier.Verify(ctx, credential)
	if err != nil {
		return "", nil, err
	}
	id, err := s.Sessions.Create(ctx, u, s.TTL)
	if err != nil {
		return "", nil, err
	}
	s.Logger.Info("user signed in", "user_id", u.ID)
	return id, u, nil
}

// Me resolves a session id to a status. Unknown or expired sessions are unauthenticated, not errors.
func (s *Service) Me(ctx context.Context, id domain.SessionID) (domain.Status, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return domain.Status{}, err
	}
	if u == nil {
		return domain.Status{Authenticated: false}, nil
	}
	return domain.Status{Authenticated: true, User: u}, nil
}

// User returns the signed-in user for id, or nil.
func (s *Service) User(ctx context.Context, id domain.SessionID) (*domain.User, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.Sessions.Get(ctx, id)
	if errors.Is(err, domain.ErrNoSession) {
		return nil, nil
	}
	return u, err
}

func (s *Service) Logout(ctx context.Context, id domain.SessionID) error {
	if id == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, id)
}
