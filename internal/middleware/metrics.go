package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
)

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	requests   *prometheus.CounterVec
	inProgress prometheus.Gauge
	duration   *prometheus.HistogramVec
	analyses   *prometheus.CounterVec
	llmCalls   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clausecode",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clausecode",
			Name:      "http_requests_in_progress",
			Help:      "HTTP requests currently being served.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clausecode",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clausecode",
			Name:      "analyses_total",
			Help:      "Analyses by persona, type and outcome.",
		}, []string{"agent", "analysis_type", "outcome"}),
		llmCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clausecode",
			Name:      "llm_call_duration_seconds",
			Help:      "Language model call latency by operation and outcome.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"op", "outcome"}),
	}
	m.Registry.MustRegister(
		m.requests, m.inProgress, m.duration, m.analyses, m.llmCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware tracks request metrics. The route label is the chi pattern, not the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inProgress.Inc()
		defer m.inProgress.Dec()
		start := time.Now()

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis counts one finished analysis.
func (m *Metrics) ObserveAnalysis(agent, analysisType string, err error) {
	if agent == "" {
		agent = "unknown"
	}
	if analysisType == "" {
		analysisType = "unknown"
	}
	m.analyses.WithLabelValues(agent, analysisType, outcome(err)).Inc()
}

// InstrumentLLM times every call made through llm.
func (m *Metrics) InstrumentLLM(llm analysis.LLM) analysis.LLM {
	return &instrumentedLLM{next: llm, hist: m.llmCalls}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	return "error"
}

type instrumentedLLM struct {
	next analysis.LLM
	hist *prometheus.HistogramVec
}

func (l *instrumentedLLM) observe(op string, start time.Time, err error) {
	l.hist.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
}

func (l *instrumentedLLM) Analyze(ctx context.Context, systemPrompt, pageText string) (string, error) {
	start := time.Now()
	out, err := l.next.Analyze(ctx, systemPrompt, pageText)
	l.observe("analyze", start, err)
	return out, err
}

func (l *instrumentedLLM) AnalyzeJSON(ctx context.Context, systemPrompt, pageText string) (string, error) {
	start := time.Now()
	out, err := l.next.AnalyzeJSON(ctx, systemPrompt, pageText)
	l.observe("analyze_json", start, err)
	return out, err
}

func (l *instrumentedLLM) Chat(ctx context.Context, system string, turns []analysis.Turn) (string, error) {
	start := time.Now()
	out, err := l.next.Chat(ctx, system, turns)
	l.observe("chat", start, err)
	return out, err
}
