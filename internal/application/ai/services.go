// Package ai holds the use-cases that talk to the language model and the search provider.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/infra/ai/prompt"
)

// MaxPageChars caps the page text the backend forwards to the model.
const MaxPageChars = 100000

var (
	ErrLLMNotConfigured    = &analysis.NotConfiguredError{Message: "OpenAI API key not configured"}
	ErrSearchNotConfigured = &analysis.NotConfiguredError{Message: "SerpAPI key not configured"}
)

// Service is safe for concurrent use. A nil LLM or Finder disables the matching use-case.
type Service struct {
	LLM      analysis.LLM
	Finder   analysis.AlternativeFinder
	MaxChars int
	Logger   *slog.Logger
}

func NewService(llm analysis.LLM, finder analysis.AlternativeFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{LLM: llm, Finder: finder, MaxChars: MaxPageChars, Logger: logger}
}

// AnalyzeCommand is the POST /analyze body.
type AnalyzeCommand struct {
	PageText     string `json:"pageText"`
	SystemPrompt string `json:"systemPrompt"`
	Agent        string `json:"agent,omitempty"`
	AnalysisType string `json:"analysisType,omitempty"`
	Structured   bool   `json:"structured,omitempty"`
}

// Analyze runs the instruction over the page. A structured request whose reply does not parse
// is answered again in plain form.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (analysis.Result, error) {
	if s.LLM == nil {
		return analysis.Result{}, ErrLLMNotConfigured
	}
	if strings.TrimSpace(cmd.PageText) == "" {
		return analysis.Result{}, analysis.ErrMissingDocument
	}
	if strings.TrimSpace(cmd.SystemPrompt) == "" {
		return analysis.Result{}, analysis.ErrMissingInstruction
	}
	text := document.Truncate(cmd.PageText, s.MaxChars)
	log := s.Logger.With("agent", cmd.Agent, "analysis_type", cmd.AnalysisType, "chars", len(text))

	if cmd.Structured {
		raw, err := s.LLM.AnalyzeJSON(ctx, prompt.WithStructured(cmd.SystemPrompt), text)
		if err != nil {
			return analysis.Result{}, err
		}
		if st, ok := ParseStructured(raw); ok {
			log.Info("analysis complete", "structured", true)
			return analysis.Result{Text: st.Summary, Structured: st}, nil
		}
		log.Warn("structured reply did not parse, retrying as text")
	}

	out, err := s.LLM.Analyze(ctx, cmd.SystemPrompt, text)
	if err != nil {
		return analysis.Result{}, err
	}
	log.Info("analysis complete", "structured", false)
	return analysis.Result{Text: out}, nil
}

// AskCommand is the POST /ask-question body.
type AskCommand struct {
	Question            string          `json:"question"`
	PageContent         string          `json:"pageContent"`
	AnalysisResult      string          `json:"analysisResult"`
	ConversationHistory []analysis.Turn `json:"conversationHistory"`
}

// Ask answers a follow-up question about a finished analysis.
func (s *Service) Ask(ctx context.Context, cmd AskCommand) (string, error) {
	if s.LLM == nil {
		return "", ErrLLMNotConfigured
	}
	question := strings.TrimSpace(cmd.Question)
	if question == "" {
		return "", analysis.ErrMissingQuestion
	}
	turns := prompt.FollowUpTurns(cmd.PageContent, cmd.AnalysisResult, cmd.ConversationHistory, question)
	return s.LLM.Chat(ctx, prompt.FollowUpSystem, turns)
}

// Alternatives looks up services competing with serviceName.
func (s *Service) Alternatives(ctx context.Context, serviceName string) ([]analysis.Alternative, error) {
	if s.Finder == nil {
		return nil, ErrSearchNotConfigured
	}
	alts, err := s.Finder.Search(ctx, strings.TrimSpace(serviceName))
	if errors.Is(err, analysis.ErrNotConfigured) {
		return nil, ErrSearchNotConfigured
	}
	return alts, err
}

// ParseStructured decodes a model reply into a structured result. Markdown code fences are
// tolerated. ok is false when nothing usable came back.
func ParseStructured(raw string) (*analysis.Structured, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	var st analysis.Structured
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, false
	}
	if !st.HasContent() {
		return nil, false
	}
	st.Severity = strings.ToLower(strings.TrimSpace(st.Severity))
	return &st, true
}
