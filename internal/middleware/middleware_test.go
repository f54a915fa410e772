package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/auth"
	"github.com/bryanwahyu/clausecode/internal/domain/history"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNormalizeScrapeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr string
	}{
		{"example.com/terms", "https://example.com/terms", ""},
		{"  http://example.com ", "http://example.com", ""},
		{"", "", "URL is required"},
		{"line one\nline two", "", "pasted content"},
		{strings.Repeat("a", 201), "", "pasted content"},
		{"a b c d e f g h i j k l", "", "pasted content"},
		{"not a url", "", "Invalid URL format"},
		{"localhost:8080", "", "Invalid URL format"},
		{"http://localhost:8080", "", "localhost"},
		{"http://127.0.0.1/admin", "", "localhost"},
		{"http://10.0.0.5", "", "private IP"},
		{"http://169.254.169.254/latest", "", "private IP"},
		{"http://[::1]/", "", "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeScrapeURL(tt.in)
			if tt.wantErr != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Contains(t, verr.Message, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateLimitAndRecordID(t *testing.T) {
	assert.Equal(t, history.DefaultLimit, ValidateLimit(""))
	assert.Equal(t, history.DefaultLimit, ValidateLimit("abc"))
	assert.Equal(t, 7, ValidateLimit("7"))
	assert.Equal(t, history.MaxLimit, ValidateLimit("99999"))

	assert.NoError(t, ValidateRecordID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
	assert.Error(t, ValidateRecordID("../etc"))
	assert.Error(t, ValidateRecordID(""))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "ab\tc", SanitizeString(" a\x00b\tc\x07 "))
}

func TestTokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	tb := newTokenBucket(2, 1, func() time.Time { return now })
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(time.Second)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestRateLimitKeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	defer rl.Close()
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	call := func(u *auth.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		if u != nil {
			req = req.WithContext(context.WithValue(req.Context(), UserKey, u))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call(nil).Code)
	rec := call(nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call(&auth.User{ID: "a"}).Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	assert.Equal(t, "1.2.3.4", clientIP(r))
	r.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	assert.Equal(t, "9.9.9.9", clientIP(r))
}

type resolverFunc func(ctx context.Context, id auth.SessionID) (*auth.User, error)

func (f resolverFunc) User(ctx context.Context, id auth.SessionID) (*auth.User, error) {
	return f(ctx, id)
}

func TestSessions(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, id auth.SessionID) (*auth.User, error) {
		if id == "good" {
			return &auth.User{ID: "u1"}, nil
		}
		return nil, nil
	})
	var gotUser *auth.User
	var gotSession auth.SessionID
	h := Sessions(resolver, discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		gotSession = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, gotUser)
	assert.Equal(t, "u1", gotUser.ID)
	assert.Equal(t, auth.SessionID("good"), gotSession)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, gotUser)
	assert.Equal(t, auth.SessionID("stale"), gotSession)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, gotUser)
	assert.Empty(t, gotSession)
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, ClientFromContext(r.Context()))
	})

	open := APIKeyAuth(nil)(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/analyses/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	guarded := APIKeyAuth(map[string]string{"admin": "s3cret"})(ok)
	for header, want := range map[string]int{"": 401, "Bearer wrong": 401, "Bearer s3cret": 200, "s3cret": 200} {
		req := httptest.NewRequest(http.MethodDelete, "/analyses/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, header)
		if want == 200 {
			assert.Equal(t, "admin", rec.Body.String())
		}
	}
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"redis": CheckFunc(func(context.Context) error { return nil }),
		"mysql": CheckFunc(func(context.Context) error { return errors.New("down") }),
	}, map[string]string{"storage": "mysql"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, CheckStatus{Status: "unhealthy", Message: "down"}, body.Checks["mysql"])
	assert.Equal(t, CheckStatus{Status: "healthy"}, body.Checks["redis"])
	assert.Equal(t, map[string]string{"storage": "mysql"}, body.Features)

	rec = httptest.NewRecorder()
	HealthHandler(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "features")
	assert.Contains(t, rec.Body.String(), `"message":"Server is running"`)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "hi")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"bytes":2`)
}

type stubLLM struct{ err error }

func (s stubLLM) Analyze(context.Context, string, string) (string, error)     { return "a", s.err }
func (s stubLLM) AnalyzeJSON(context.Context, string, string) (string, error) { return "{}", s.err }
func (s stubLLM) Chat(context.Context, string, []analysis.Turn) (string, error) {
	return "c", s.err
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyses/abc", nil))
	m.ObserveAnalysis("Lawyer", "summary", nil)
	m.ObserveAnalysis("", "", analysis.ErrQuotaExceeded)
	_, _ = m.InstrumentLLM(stubLLM{}).Analyze(context.Background(), "s", "p")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `clausecode_http_requests_total{code="200",method="GET",route="/analyses/{id}"} 1`)
	assert.Contains(t, body, `clausecode_analyses_total{agent="Lawyer",analysis_type="summary",outcome="ok"} 1`)
	assert.Contains(t, body, `clausecode_analyses_total{agent="unknown",analysis_type="unknown",outcome="quota"} 1`)
	assert.Contains(t, body, `clausecode_llm_call_duration_seconds_count{op="analyze",outcome="ok"} 1`)
}
