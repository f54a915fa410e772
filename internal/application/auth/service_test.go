package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/clausecode/internal/domain/auth"
	"github.com/bryanwahyu/clausecode/internal/infra/session"
)

type fakeVerifier map[string]*domain.User

func (f fakeVerifier) Verify(_ context.Context, credential string) (*domain.User, error) {
	u, ok := f[credential]
	if !ok {
		return nil, fmt.Errorf("%w: unknown", domain.ErrInvalidToken)
	}
	return u, nil
}

func TestLoginMeLogout(t *testing.T) {
	ctx := context.Background()
	svc := NewService(fakeVerifier{"good": {ID: "sub", Email: "a@b.c"}}, session.NewMemoryStore(), time.Hour, nil)

	st, err := svc.Me(ctx, "")
	require.NoError(t, err)
	assert.False(t, st.Authenticated)

	id, u, err := svc.Login(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", u.Email)

	st, err = svc.Me(ctx, id)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "sub", st.User.ID)

	require.NoError(t, svc.Logout(ctx, id))
	st, err = svc.Me(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
}

func TestLoginRejectsBadToken(t *testing.T) {
	svc := NewService(fakeVerifier{}, session.NewMemoryStore(), 0, nil)
	assert.Equal(t, DefaultSessionTTL, svc.TTL)

	_, _, err := svc.Login(context.Background(), "forged")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
