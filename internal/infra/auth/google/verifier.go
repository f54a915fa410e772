// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/auth"
)

// ErrNoClientID is returned when sign-in is attempted without GOOGLE_CLIENT_ID.
var ErrNoClientID = &analysis.NotConfiguredError{Message: "Google sign-in is not configured"}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier implements auth.TokenVerifier.
type Verifier struct {
	clientID string
	validate validateFunc
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks signature, audience and expiry, then maps the claims onto a user.
func (v *Verifier) Verify(ctx context.Context, credential string) (*auth.User, error) {
	if v.clientID == "" {
		return nil, ErrNoClientID
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: missing credential", auth.ErrInvalidToken)
	}
	p, err := v.validate(ctx, credential, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	return userFromPayload(p), nil
}

func userFromPayload(p *idtoken.Payload) *auth.User {
	u := &auth.User{ID: p.Subject}
	u.Email, _ = p.Claims["email"].(string)
	u.Name, _ = p.Claims["name"].(string)
	u.Picture, _ = p.Claims["picture"].(string)
	switch v := p.Claims["email_verified"].(type) {
	case bool:
		u.EmailVerified = v
	case string:
		u.EmailVerified = v == "true"
	}
	return u
}
