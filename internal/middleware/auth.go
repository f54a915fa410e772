package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bryanwahyu/clausecode/internal/domain/auth"
)

type contextKey string

const (
	UserKey    contextKey = "user"
	SessionKey contextKey = "session"
	ClientKey  contextKey = "api_client"
)

// SessionCookie carries the opaque session id.
const SessionCookie = "clausecode_session"

// UserResolver looks up the user behind a session id; nil user means signed out.
type UserResolver interface {
	User(ctx context.Context, id auth.SessionID) (*auth.User, error)
}

// Sessions attaches the session id and, when the session is live, its user to the request
// context. It never rejects a request.
func Sessions(resolver UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			id := auth.SessionID(c.Value)
			ctx := context.WithValue(r.Context(), SessionKey, id)
			u, err := resolver.User(ctx, id)
			if err != nil {
				logger.Warn("session lookup failed", "error", err)
			}
			if u != nil {
				ctx = context.WithValue(ctx, UserKey, u)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	u, _ := ctx.Value(UserKey).(*auth.User)
	return u
}

// SessionFromContext returns the session cookie value, or "".
func SessionFromContext(ctx context.Context) auth.SessionID {
	id, _ := ctx.Value(SessionKey).(auth.SessionID)
	return id
}

// APIKeyAuth validates API key from Authorization header. validKeys maps a client name to its key;
// an empty map disables the check.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			// constant-time comparison
			var client string
			for name, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					client = name
					break
				}
			}
			if client == "" {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromContext returns the name of the API key used, or "".
func ClientFromContext(ctx context.Context) string {
	name, _ := ctx.Value(ClientKey).(string)
	return name
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": msg})
}
