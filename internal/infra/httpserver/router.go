package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/clausecode/internal/application/ai"
	appauth "github.com/bryanwahyu/clausecode/internal/application/auth"
	appdocs "github.com/bryanwahyu/clausecode/internal/application/documents"
	apphistory "github.com/bryanwahyu/clausecode/internal/application/history"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/auth"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/domain/history"
	"github.com/bryanwahyu/clausecode/internal/infra/extract"
	"github.com/bryanwahyu/clausecode/internal/middleware"
)

// Services are the use-cases the routes call.
type Services struct {
	AI        *appai.Service
	Documents *appdocs.Service
	History   *apphistory.Service
	Auth      *appauth.Service
}

// Options tune the ambient middleware. Zero values are usable.
type Options struct {
	Logger         *slog.Logger
	Metrics        *middleware.Metrics
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	SecureCookies  bool
	APIKeys        map[string]string
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	svc    Services
	opts   Options
	logger *slog.Logger
}

func NewRouter(svc Services, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Router{svc: svc, opts: opts, logger: opts.Logger}
	mux := chi.NewRouter()

	mux.Use(middleware.Logging(opts.Logger))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.Sessions(svc.Auth, opts.Logger))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers, r.features()))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics.Handler())
	}

	// routes that reach the model, the search provider or a remote site
	mux.Group(func(rt chi.Router) {
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimit(opts.Limiter))
		}
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/ask-question", r.wrap(r.handleAsk))
		rt.Post("/search-alternatives", r.wrap(r.handleAlternatives))
		rt.Post("/upload", r.wrap(r.handleUpload))
		rt.Post("/scrape-url", r.wrap(r.handleScrape))
	})

	mux.Post("/save", r.wrap(r.handleSave))
	mux.Get("/analyses", r.wrap(r.handleList))
	mux.Get("/analyses/{id}", r.wrap(r.handleGet))
	mux.With(middleware.APIKeyAuth(opts.APIKeys)).Delete("/analyses/{id}", r.wrap(r.handleDelete))

	mux.Post("/auth/google", r.wrap(r.handleGoogleLogin))
	mux.Get("/auth/me", r.wrap(r.handleMe))
	mux.Post("/auth/logout", r.wrap(r.handleLogout))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadJSON marks an undecodable request body.
var errBadJSON = errors.New("Invalid JSON body")

// features reports which optional backends this deployment has.
func (r *Router) features() map[string]string {
	state := func(ok bool) string {
		if ok {
			return "enabled"
		}
		return "disabled"
	}
	f := map[string]string{}
	if ai := r.svc.AI; ai != nil {
		f["analysis"] = state(ai.LLM != nil)
		f["alternatives_search"] = state(ai.Finder != nil)
	}
	if docs := r.svc.Documents; docs != nil {
		f["upload_archive"] = state(docs.Store != nil)
	}
	if h := r.svc.History; h != nil {
		f["storage"] = "none"
		if h.Repo != nil {
			f["storage"] = h.Driver
		}
	}
	return f
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, msg := statusFor(err)
		if status >= 500 {
			r.logger.Error("request failed", "path", req.URL.Path, "status", status, "error", err)
		}
		writeJSON(w, status, map[string]string{"status": "error", "error": msg})
	}
}

// statusFor maps an error onto the status code and the message shown to the caller.
func statusFor(err error) (int, string) {
	var (
		verr   *middleware.ValidationError
		perr   *analysis.ProviderError
		ferr   *document.FetchError
		ncfg   *analysis.NotConfiguredError
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, errBadJSON.Error()
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, analysis.ErrMissingQuestion):
		return http.StatusBadRequest, "Question is required"
	case analysis.IsValidation(err):
		return http.StatusBadRequest, sentence(err.Error())
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "File is too large"
	case errors.Is(err, extract.ErrUnsupported):
		return http.StatusBadRequest, extract.ErrUnsupported.Error()
	case errors.Is(err, extract.ErrEmpty):
		return http.StatusBadRequest, extract.ErrEmpty.Error()
	case errors.As(err, &ferr):
		return http.StatusBadRequest, ferr.Message
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "AI quota exceeded. Please check your OpenAI plan and billing details."
	case errors.As(err, &perr):
		return http.StatusBadRequest, perr.Message
	case errors.As(err, &ncfg):
		return http.StatusInternalServerError, ncfg.Message
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, sentence(err.Error())
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, "Analysis not found"
	case errors.Is(err, history.ErrUnavailable):
		return http.StatusServiceUnavailable, "Storage not available"
	}
	return http.StatusInternalServerError, err.Error()
}

func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

func decode(req *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(req.Body, 8<<20)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadJSON
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var cmd appai.AnalyzeCommand
	if err := decode(req, &cmd); err != nil {
		return err
	}
	res, err := r.svc.AI.Analyze(req.Context(), cmd)
	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveAnalysis(cmd.Agent, cmd.AnalysisType, err)
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /ask-question
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	var cmd appai.AskCommand
	if err := decode(req, &cmd); err != nil {
		return err
	}
	answer, err := r.svc.AI.Ask(req.Context(), cmd)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "answer": answer})
	return nil
}

// POST /search-alternatives
func (r *Router) handleAlternatives(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ServiceName string `json:"serviceName"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	alts, err := r.svc.AI.Alternatives(req.Context(), body.ServiceName)
	if err != nil {
		return err
	}
	if alts == nil {
		alts = []analysis.Alternative{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alternatives": alts})
	return nil
}

// POST /upload (multipart, field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, appdocs.MaxUploadBytes)
	file, header, err := req.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return &middleware.ValidationError{Message: "No file uploaded"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	res, err := r.svc.Documents.Upload(req.Context(), header.Filename, data)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /scrape-url
func (r *Router) handleScrape(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	pageURL, err := middleware.NormalizeScrapeURL(body.URL)
	if err != nil {
		return err
	}
	res, err := r.svc.Documents.Scrape(req.Context(), pageURL)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /save
func (r *Router) handleSave(w http.ResponseWriter, req *http.Request) error {
	var cmd apphistory.SaveCommand
	if err := decode(req, &cmd); err != nil {
		return err
	}
	var userID string
	if u := middleware.UserFromContext(req.Context()); u != nil {
		userID = u.ID
	}
	res, err := r.svc.History.Save(req.Context(), cmd, userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// GET /analyses?limit=&agent=&analysis_type=&user_id=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	list, err := r.svc.History.List(req.Context(), history.Filter{
		Limit:        middleware.ValidateLimit(q.Get("limit")),
		Agent:        middleware.SanitizeString(q.Get("agent")),
		AnalysisType: middleware.SanitizeString(q.Get("analysis_type")),
		UserID:       middleware.SanitizeString(q.Get("user_id")),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": len(list), "analyses": list})
	return nil
}

// GET /analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return err
	}
	rec, err := r.svc.History.Get(req.Context(), history.RecordID(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "analysis": rec})
	return nil
}

// DELETE /analyses/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return err
	}
	if err := r.svc.History.Delete(req.Context(), history.RecordID(id)); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Analysis deleted successfully"})
	return nil
}

// POST /auth/google
func (r *Router) handleGoogleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Credential string `json:"credential"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.Credential) == "" {
		return &middleware.ValidationError{Message: "No token provided"}
	}
	id, u, err := r.svc.Auth.Login(req.Context(), body.Credential)
	if err != nil {
		return err
	}
	http.SetCookie(w, r.sessionCookie(string(id), int(r.svc.Auth.TTL.Seconds())))
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "user": u})
	return nil
}

// GET /auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	out := map[string]any{"status": "ok", "authenticated": false}
	if u := middleware.UserFromContext(req.Context()); u != nil {
		out["authenticated"] = true
		out["user"] = u
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// POST /auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	if err := r.svc.Auth.Logout(req.Context(), middleware.SessionFromContext(req.Context())); err != nil {
		return err
	}
	http.SetCookie(w, r.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Logged out"})
	return nil
}

// sessionCookie is cross-site (SameSite=None) only when served over TLS, as browsers require.
func (r *Router) sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if r.opts.SecureCookies {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
