package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appai "github.com/bryanwahyu/clausecode/internal/application/ai"
	appauth "github.com/bryanwahyu/clausecode/internal/application/auth"
	appdocs "github.com/bryanwahyu/clausecode/internal/application/documents"
	apphistory "github.com/bryanwahyu/clausecode/internal/application/history"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/auth"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/domain/history"
	"github.com/bryanwahyu/clausecode/internal/infra/session"
	"github.com/bryanwahyu/clausecode/internal/middleware"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f fakeLLM) Analyze(context.Context, string, string) (string, error)     { return f.reply, f.err }
func (f fakeLLM) AnalyzeJSON(context.Context, string, string) (string, error) { return f.reply, f.err }
func (f fakeLLM) Chat(context.Context, string, []analysis.Turn) (string, error) {
	return f.reply, f.err
}

type fakeFinder struct{}

func (fakeFinder) Search(_ context.Context, name string) ([]analysis.Alternative, error) {
	return []analysis.Alternative{{Title: "Not " + name, Link: "https://alt.example"}}, nil
}

type fakeScraper struct{}

func (fakeScraper) Scrape(_ context.Context, u string) (document.Document, error) {
	if strings.Contains(u, "missing") {
		return document.Document{}, &document.FetchError{Message: "Page not found (404). Please check the URL and try again."}
	}
	return document.Document{Text: "page text", URL: u, Title: "Terms"}, nil
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, credential string) (*auth.User, error) {
	if credential != "good" {
		return nil, fmt.Errorf("%w: wrong audience", auth.ErrInvalidToken)
	}
	return &auth.User{ID: "sub-1", Email: "ana@example.com", Name: "Ana"}, nil
}

type memRepo struct {
	mu   sync.Mutex
	recs map[history.RecordID]*history.Record
}

func (m *memRepo) Save(_ context.Context, r *history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[r.ID] = r
	return nil
}

func (m *memRepo) Get(_ context.Context, id history.RecordID) (*history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recs[id]; ok {
		return r, nil
	}
	return nil, history.ErrNotFound
}

func (m *memRepo) List(_ context.Context, f history.Filter) ([]*history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*history.Record{}
	for _, r := range m.recs {
		if f.UserID == "" || r.UserID == f.UserID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id history.RecordID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return history.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func newEnv(t *testing.T, llm analysis.LLM, repo history.Repository, opts Options) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Logger = logger
	svc := Services{
		AI:        appai.NewService(llm, fakeFinder{}, logger),
		Documents: appdocs.NewService(nil, fakeScraper{}, logger),
		History:   apphistory.NewService(repo, "mysql", nil, logger),
		Auth:      appauth.NewService(fakeVerifier{}, session.NewMemoryStore(), time.Hour, logger),
	}
	srv := httptest.NewServer(NewRouter(svc, opts))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, c *http.Client, url string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return decodeResp(t, resp)
}

func get(t *testing.T, c *http.Client, url string) (int, map[string]any) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	return decodeResp(t, resp)
}

func decodeResp(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestAnalyze(t *testing.T) {
	srv := newEnv(t, fakeLLM{reply: "<p>risky</p>"}, nil, Options{})

	code, body := post(t, srv.Client(), srv.URL+"/analyze", map[string]any{
		"pageText": "terms", "systemPrompt": "be a lawyer", "agent": "Lawyer", "analysisType": "summary",
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<p>risky</p>", body["result"])
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		llm  analysis.LLM
		body any
		code int
		msg  string
	}{
		{"no key", nil, map[string]string{"pageText": "t", "systemPrompt": "s"}, 500, "OpenAI API key not configured"},
		{"quota", fakeLLM{err: analysis.ErrQuotaExceeded}, map[string]string{"pageText": "t", "systemPrompt": "s"}, 429, "AI quota exceeded"},
		{"provider", fakeLLM{err: &analysis.ProviderError{Status: 400, Message: "Invalid model"}}, map[string]string{"pageText": "t", "systemPrompt": "s"}, 400, "Invalid model"},
		{"no text", fakeLLM{}, map[string]string{"systemPrompt": "s"}, 400, "Please upload a file"},
		{"crash", fakeLLM{err: errors.New("boom")}, map[string]string{"pageText": "t", "systemPrompt": "s"}, 500, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newEnv(t, tt.llm, nil, Options{})
			code, body := post(t, srv.Client(), srv.URL+"/analyze", tt.body)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, body["error"], tt.msg)
		})
	}
}

func TestAnalyzeBadJSON(t *testing.T) {
	srv := newEnv(t, fakeLLM{}, nil, Options{})
	resp, err := srv.Client().Post(srv.URL+"/analyze", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	code, body := decodeResp(t, resp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid JSON body", body["error"])
}

func TestAskQuestion(t *testing.T) {
	srv := newEnv(t, fakeLLM{reply: "<p>yes</p>"}, nil, Options{})

	code, body := post(t, srv.Client(), srv.URL+"/ask-question", map[string]any{
		"question": "can they?", "pageContent": "doc", "analysisResult": "res", "conversationHistory": []any{},
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "<p>yes</p>", body["answer"])

	code, body = post(t, srv.Client(), srv.URL+"/ask-question", map[string]any{"question": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Question is required", body["error"])
}

func TestSearchAlternatives(t *testing.T) {
	srv := newEnv(t, nil, nil, Options{})
	code, body := post(t, srv.Client(), srv.URL+"/search-alternatives", map[string]string{"serviceName": "Acme"})
	assert.Equal(t, http.StatusOK, code)
	alts := body["alternatives"].([]any)
	require.Len(t, alts, 1)
	assert.Equal(t, "Not Acme", alts[0].(map[string]any)["title"])
}

func TestScrapeURL(t *testing.T) {
	srv := newEnv(t, nil, nil, Options{})

	code, body := post(t, srv.Client(), srv.URL+"/scrape-url", map[string]string{"url": "example.com/terms"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://example.com/terms", body["url"])
	assert.Equal(t, "Terms", body["title"])

	code, body = post(t, srv.Client(), srv.URL+"/scrape-url", map[string]string{"url": "http://127.0.0.1/x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "not allowed")

	code, body = post(t, srv.Client(), srv.URL+"/scrape-url", map[string]string{"url": "example.com/missing"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Page not found (404). Please check the URL and try again.", body["error"])
}

func multipartBody(t *testing.T, filename string, data []byte) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestUploadRejects(t *testing.T) {
	srv := newEnv(t, nil, nil, Options{})

	ct, buf := multipartBody(t, "notes.txt", []byte("hello"))
	resp, err := srv.Client().Post(srv.URL+"/upload", ct, buf)
	require.NoError(t, err)
	code, body := decodeResp(t, resp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Unsupported file type. Please upload PDF or Word documents.", body["error"])

	resp, err = srv.Client().Post(srv.URL+"/upload", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	code, body = decodeResp(t, resp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No file uploaded", body["error"])
}

func TestSaveListGetDelete(t *testing.T) {
	repo := &memRepo{recs: map[history.RecordID]*history.Record{}}
	srv := newEnv(t, nil, repo, Options{APIKeys: map[string]string{"admin": "k"}})
	c := srv.Client()

	code, body := post(t, c, srv.URL+"/save", map[string]string{
		"timestamp": "2026-02-03T04:05:06Z", "agent": "Bob", "analysisType": "summary",
		"pageTitle": "Terms", "pageUrl": "https://x.com", "resultText": "<p>r</p>",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"mysql"}, body["saved_to"])
	id := body["id"].(string)

	code, body = get(t, c, srv.URL+"/analyses?limit=5&agent=Bob")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = get(t, c, srv.URL+"/analyses/"+id)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bob", body["analysis"].(map[string]any)["agent"])

	code, _ = get(t, c, srv.URL+"/analyses/nope")
	assert.Equal(t, http.StatusNotFound, code)

	del := func(key string) int {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/analyses/"+id, nil)
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusUnauthorized, del(""))
	assert.Equal(t, http.StatusOK, del("k"))
	assert.Equal(t, http.StatusNotFound, del("k"))
}

func TestNoStorage(t *testing.T) {
	srv := newEnv(t, nil, nil, Options{})

	code, body := post(t, srv.Client(), srv.URL+"/save", map[string]string{"agent": "Bob"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["saved_to"])

	code, body = get(t, srv.Client(), srv.URL+"/analyses")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "Storage not available", body["error"])
}

func TestAuthFlow(t *testing.T) {
	repo := &memRepo{recs: map[history.RecordID]*history.Record{}}
	srv := newEnv(t, nil, repo, Options{})
	c := srv.Client()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c.Jar = jar

	code, body := get(t, c, srv.URL+"/auth/me")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["authenticated"])

	code, body = post(t, c, srv.URL+"/auth/google", map[string]string{"credential": "forged"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid token: wrong audience", body["error"])

	code, body = post(t, c, srv.URL+"/auth/google", map[string]string{"credential": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No token provided", body["error"])

	code, body = post(t, c, srv.URL+"/auth/google", map[string]string{"credential": "good"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana@example.com", body["user"].(map[string]any)["email"])

	code, body = get(t, c, srv.URL+"/auth/me")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "sub-1", body["user"].(map[string]any)["user_id"])

	// saves made while signed in carry the user id
	_, body = post(t, c, srv.URL+"/save", map[string]string{"agent": "CEO"})
	rec := repo.recs[history.RecordID(body["id"].(string))]
	require.NotNil(t, rec)
	assert.Equal(t, "sub-1", rec.UserID)

	code, _ = post(t, c, srv.URL+"/auth/logout", struct{}{})
	assert.Equal(t, http.StatusOK, code)
	_, body = get(t, c, srv.URL+"/auth/me")
	assert.Equal(t, false, body["authenticated"])
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 0)
	t.Cleanup(limiter.Close)
	srv := newEnv(t, fakeLLM{reply: "ok"}, nil, Options{Limiter: limiter})

	req := map[string]string{"pageText": "t", "systemPrompt": "s"}
	code, _ := post(t, srv.Client(), srv.URL+"/analyze", req)
	assert.Equal(t, http.StatusOK, code)
	code, body := post(t, srv.Client(), srv.URL+"/analyze", req)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, body["error"], "Rate limit")

	// unlimited routes are unaffected
	code, _ = get(t, srv.Client(), srv.URL+"/auth/me")
	assert.Equal(t, http.StatusOK, code)
}

func TestProbesAndMetrics(t *testing.T) {
	m := middleware.NewMetrics()
	srv := newEnv(t, fakeLLM{reply: "ok"}, nil, Options{Metrics: m})

	code, body := get(t, srv.Client(), srv.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{
		"analysis":            "enabled",
		"alternatives_search": "enabled",
		"upload_archive":      "disabled",
		"storage":             "none",
	}, body["features"])

	stored := newEnv(t, nil, &memRepo{recs: map[history.RecordID]*history.Record{}}, Options{})
	_, body = get(t, stored.Client(), stored.URL+"/health")
	features, ok := body["features"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mysql", features["storage"])
	assert.Equal(t, "disabled", features["analysis"])

	post(t, srv.Client(), srv.URL+"/analyze", map[string]string{"pageText": "t", "systemPrompt": "s", "agent": "Bob", "analysisType": "summary"})

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `clausecode_analyses_total{agent="Bob",analysis_type="summary",outcome="ok"} 1`)
	assert.Contains(t, string(raw), `route="/analyze"`)
}

func TestCORS(t *testing.T) {
	srv := newEnv(t, nil, nil, Options{AllowedOrigins: []string{"chrome-extension://*"}})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/analyze", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "chrome-extension://abcdef", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestStatusFor(t *testing.T) {
	code, msg := statusFor(fmt.Errorf("wrap: %w", &middleware.ValidationError{Message: "bad"}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "bad", msg)

	code, _ = statusFor(fmt.Errorf("get: %w", history.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, code)
}
