// Package session keeps login sessions keyed by an opaque cookie value.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/clausecode/internal/domain/auth"
)

const keyPrefix = "clausecode:session:"

// RedisStore implements auth.SessionStore on redis with native key expiry.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore takes any redis client; closing it stays with the caller.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, u *auth.User, ttl time.Duration) (auth.SessionID, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	id := newID()
	if err := s.client.Set(ctx, keyPrefix+string(id), data, ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id auth.SessionID) (*auth.User, error) {
	data, err := s.client.Get(ctx, keyPrefix+string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, auth.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var u auth.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *RedisStore) Delete(ctx context.Context, id auth.SessionID) error {
	return s.client.Del(ctx, keyPrefix+string(id)).Err()
}

// Ping is used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func newID() auth.SessionID {
	return auth.SessionID(uuid.NewString())
}
