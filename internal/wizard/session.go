package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/clausecode/internal/application"
	"github.com/bryanwahyu/clausecode/internal/client"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/infra/ai/prompt"
)

var (
	ErrAnalysisInFlight = errors.New("an analysis is already running")
	ErrQuestionInFlight = errors.New("a question is already being answered")
	ErrNothingToSave    = errors.New("no analysis to save")
)

// AnalyzingStatus is shown while an analysis is in flight.
const AnalyzingStatus = "🤔 Analyzing document... This may take a moment..."

// Backend is the part of the HTTP client the wizard drives.
type Backend interface {
	RunAnalysis(ctx context.Context, doc document.Document, instruction string, opts client.AnalyzeOptions) (analysis.Result, error)
	SearchAlternatives(ctx context.Context, serviceName string) ([]analysis.Alternative, error)
	AskFollowUp(ctx context.Context, question string, doc document.Document, prior analysis.Result, history []analysis.Turn) (string, error)
	Upload(ctx context.Context, filename string, r io.Reader) (document.Document, error)
	ScrapeURL(ctx context.Context, rawURL string) (document.Document, error)
	Save(ctx context.Context, req client.SaveRequest) (client.SaveResult, error)
}

// Config tunes a Session.
type Config struct {
	// MaxChars caps the document text sent for analysis. Zero means document.DefaultMaxChars.
	MaxChars int
	// Structured asks the backend for structured results.
	Structured bool
}

// Session dispatches user commands to the navigator and the backend.
//
// Every backend round trip is split in three: Begin* validates and snapshots the request on the
// event loop, Execute* does the network work without touching wizard state, Complete* commits
// the outcome back on the event loop. Analyze and Ask chain the three for sequential callers.
type Session struct {
	nav      *Navigator
	backend  Backend
	resolver *prompt.Resolver
	clock    application.Clock
	logger   *slog.Logger
	cfg      Config
}

// NewSession wires a navigator to a backend. A nil resolver or logger gets the default one.
func NewSession(nav *Navigator, backend Backend, resolver *prompt.Resolver, clock application.Clock, logger *slog.Logger, cfg Config) *Session {
	if resolver == nil {
		resolver = prompt.NewResolver()
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxChars == 0 {
		cfg.MaxChars = document.DefaultMaxChars
	}
	return &Session{nav: nav, backend: backend, resolver: resolver, clock: clock, logger: logger, cfg: cfg}
}

func (s *Session) Navigator() *Navigator { return s.nav }

func (s *Session) Backend() Backend { return s.backend }

// AnalysisRequest is a snapshot of everything one analysis needs.
type AnalysisRequest struct {
	Document    document.Document
	Instruction string
	Selections  Selections
	generation  uint64
}

// BeginAnalysis validates the selections, resolves the instruction and marks an analysis in
// flight. The conversation of the previous result is cleared.
func (s *Session) BeginAnalysis() (AnalysisRequest, error) {
	if s.nav.analyzing {
		return AnalysisRequest{}, ErrAnalysisInFlight
	}
	if err := s.nav.Validate(); err != nil {
		s.nav.status = ErrorStatus(err)
		return AnalysisRequest{}, err
	}
	sel := s.nav.state.Selections
	instruction, err := s.resolver.Resolve(sel.Persona, sel.Type, sel.CustomPrompt, sel.Language)
	if err != nil {
		s.nav.status = ErrorStatus(err)
		return AnalysisRequest{}, err
	}

	doc := s.nav.doc
	doc.Text = doc.Truncate(s.cfg.MaxChars)

	s.nav.analyzing = true
	s.nav.conv.Reset()
	s.nav.status = AnalyzingStatus
	return AnalysisRequest{
		Document:    doc,
		Instruction: instruction,
		Selections:  sel,
		generation:  s.nav.generation,
	}, nil
}

// ExecuteAnalysis performs the request. The alternatives type also searches for competing
// services concurrently; a failed search only means no alternatives.
func (s *Session) ExecuteAnalysis(ctx context.Context, req AnalysisRequest) (analysis.Result, error) {
	opts := client.AnalyzeOptions{
		Agent:        req.Selections.Persona,
		AnalysisType: req.Selections.Type,
		Structured:   s.cfg.Structured,
	}
	if req.Selections.Type != analysis.TypeAlternatives {
		return s.backend.RunAnalysis(ctx, req.Document, req.Instruction, opts)
	}

	var (
		res  analysis.Result
		alts []analysis.Alternative
		g    errgroup.Group
	)
	g.Go(func() error {
		var err error
		res, err = s.backend.RunAnalysis(ctx, req.Document, req.Instruction, opts)
		return err
	})
	g.Go(func() error {
		service := req.Document.ServiceName()
		found, err := s.backend.SearchAlternatives(ctx, service)
		if err != nil {
			s.logger.Warn("alternatives search failed",
				slog.String("service", service), slog.String("error", err.Error()))
			return nil
		}
		alts = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return analysis.Result{}, err
	}
	res.Alternatives = alts
	return res, nil
}

// CompleteAnalysis clears the in-flight mark and, unless the selections changed meanwhile,
// shows the outcome on the results step. It reports whether the outcome was committed.
func (s *Session) CompleteAnalysis(req AnalysisRequest, res analysis.Result, err error) bool {
	s.nav.analyzing = false
	if req.generation != s.nav.generation {
		s.logger.Info("discarding analysis for a previous selection",
			slog.String("persona", string(req.Selections.Persona)),
			slog.String("type", string(req.Selections.Type)))
		if s.nav.status == AnalyzingStatus {
			s.nav.status = ""
		}
		return false
	}
	if err != nil {
		s.nav.result = nil
		s.nav.resultErr = err
		s.nav.status = ErrorStatus(err)
	} else {
		s.nav.result = &res
		s.nav.resultErr = nil
		s.nav.status = ""
	}
	s.nav.conv.Reset()
	s.nav.state.Step = StepResults
	return true
}

// Analyze runs one analysis end to end.
func (s *Session) Analyze(ctx context.Context) (analysis.Result, error) {
	req, err := s.BeginAnalysis()
	if err != nil {
		return analysis.Result{}, err
	}
	res, err := s.ExecuteAnalysis(ctx, req)
	s.CompleteAnalysis(req, res, err)
	if err != nil {
		return analysis.Result{}, err
	}
	return res, nil
}

// QuestionRequest is a snapshot of one follow-up question.
type QuestionRequest struct {
	// Question is what the user typed and what the conversation records.
	Question string
	// Sent is Question plus the language directive, if any.
	Sent       string
	Document   document.Document
	Prior      analysis.Result
	History    []analysis.Turn
	generation uint64
}

// BeginQuestion validates a follow-up question against the current result.
func (s *Session) BeginQuestion(question string) (QuestionRequest, error) {
	question = strings.TrimSpace(question)
	var err error
	switch {
	case question == "":
		err = analysis.ErrMissingQuestion
	case s.nav.result == nil || s.nav.doc.Empty():
		err = analysis.ErrNoAnalysis
	case s.nav.asking:
		return QuestionRequest{}, ErrQuestionInFlight
	}
	if err != nil {
		s.nav.status = ErrorStatus(err)
		return QuestionRequest{}, err
	}

	sent := question
	if lang := s.nav.state.Selections.Language; lang != "" && !strings.EqualFold(lang, analysis.DefaultLanguage) {
		sent = fmt.Sprintf("%s\n\nIMPORTANT: You MUST respond entirely in %s.", question, lang)
	}
	s.nav.asking = true
	return QuestionRequest{
		Question:   question,
		Sent:       sent,
		Document:   s.nav.doc,
		Prior:      *s.nav.result,
		History:    s.nav.conv.History(),
		generation: s.nav.generation,
	}, nil
}

// ExecuteQuestion asks the backend.
func (s *Session) ExecuteQuestion(ctx context.Context, req QuestionRequest) (string, error) {
	return s.backend.AskFollowUp(ctx, req.Sent, req.Document, req.Prior, req.History)
}

// CompleteQuestion records the question and its answer, unless it failed or the result it was
// asked about is gone.
func (s *Session) CompleteQuestion(req QuestionRequest, answer string, err error) bool {
	s.nav.asking = false
	if req.generation != s.nav.generation || s.nav.result == nil {
		return false
	}
	if err != nil {
		s.nav.status = ErrorStatus(err)
		return false
	}
	s.nav.conv.Add(analysis.RoleUser, req.Question)
	s.nav.conv.Add(analysis.RoleAssistant, answer)
	s.nav.status = ""
	return true
}

// Ask runs one follow-up question end to end.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	req, err := s.BeginQuestion(question)
	if err != nil {
		return "", err
	}
	answer, err := s.ExecuteQuestion(ctx, req)
	s.CompleteQuestion(req, answer, err)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Paste uses text typed by the user as the document.
func (s *Session) Paste(text string) {
	s.nav.SetDocument(document.Document{Text: strings.TrimSpace(text), Source: document.SourcePaste})
}

// LoadURL scrapes rawURL through the backend and uses it as the document.
func (s *Session) LoadURL(ctx context.Context, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		err := errors.New("please enter a URL first")
		s.nav.status = ErrorStatus(err)
		return err
	}
	doc, err := s.backend.ScrapeURL(ctx, rawURL)
	s.CompleteLoad(doc, "Scraping failed", err)
	return err
}

// LoadFile uploads a PDF or Word file and uses the extracted text as the document.
func (s *Session) LoadFile(ctx context.Context, filename string, r io.Reader) error {
	doc, err := s.backend.Upload(ctx, filename, r)
	s.CompleteLoad(doc, "Upload failed", err)
	return err
}

// BeginSave builds the save request for the current result.
func (s *Session) BeginSave() (client.SaveRequest, error) {
	if s.nav.result == nil {
		s.nav.status = ErrorStatus(ErrNothingToSave)
		return client.SaveRequest{}, ErrNothingToSave
	}
	sel := s.nav.state.Selections
	doc := s.nav.doc
	title := doc.Title
	if title == "" {
		title = "Document Analysis"
	}
	return client.SaveRequest{
		Timestamp:    s.clock.Now().Format(time.RFC3339),
		Agent:        string(sel.Persona),
		AnalysisType: string(sel.Type),
		Language:     sel.Language,
		PageTitle:    title,
		PageURL:      doc.URL,
		ResultText:   s.nav.result.PlainText(),
		PageContent:  doc.Text,
	}, nil
}

// CompleteSave reports the outcome of a save on the status line.
func (s *Session) CompleteSave(err error) {
	if err != nil {
		s.nav.status = "❌ Save failed: " + err.Error()
		return
	}
	s.nav.status = "✅ Saved successfully!"
}

// Save stores the current result through the backend.
func (s *Session) Save(ctx context.Context) (client.SaveResult, error) {
	req, err := s.BeginSave()
	if err != nil {
		return client.SaveResult{}, err
	}
	out, err := s.backend.Save(ctx, req)
	s.CompleteSave(err)
	if err != nil {
		return client.SaveResult{}, err
	}
	return out, nil
}

// CompleteLoad commits a document fetched or uploaded off the event loop. failure prefixes the
// error on the status line, e.g. "Scraping failed".
func (s *Session) CompleteLoad(doc document.Document, failure string, err error) {
	if err != nil {
		s.nav.status = "❌ " + failure + ": " + err.Error()
		return
	}
	s.nav.SetDocument(doc)
}
