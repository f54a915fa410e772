package client

import (
	"context"

	"github.com/bryanwahyu/clausecode/internal/domain/auth"
)

// Me calls GET /auth/me.
func (c *Client) Me(ctx context.Context) (auth.Status, error) {
	var out auth.Status
	if err := c.get(ctx, "/auth/me", &out); err != nil {
		return auth.Status{}, err
	}
	return out, nil
}

// GoogleLogin exchanges a Google ID token for a backend session via POST /auth/google.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (*auth.User, error) {
	var out struct {
		User *auth.User `json:"user"`
	}
	if err := c.postJSON(ctx, "/auth/google", map[string]string{"credential": credential}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout calls POST /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/auth/logout", struct{}{}, nil)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}
