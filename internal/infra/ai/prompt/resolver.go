// Package prompt turns a (persona, analysis type) selection into the instruction sent to the
// analysis backend, and holds the backend-side prompts used to talk to the model.
package prompt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
)

// CaseCitationDirective asks the model to ground every claim in a real incident.
const CaseCitationDirective = "For each issue, cite a real case: name a real-world incident, lawsuit, or regulatory action involving a similar clause, including the company involved and the outcome."

// LanguageDirective is appended when the response must not be in English.
func LanguageDirective(language string) string {
	return fmt.Sprintf("IMPORTANT: You MUST respond entirely in %s. All your analysis, explanations, and text must be written in %s.", language, language)
}

// Resolver builds instructions. The zero value is usable and logs to slog.Default.
type Resolver struct {
	citeCases bool
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCaseCitations appends CaseCitationDirective to every instruction.
func WithCaseCitations() Option {
	return func(r *Resolver) { r.citeCases = true }
}

// WithLogger sets the logger used to report table fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver with opts applied.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve uses a default Resolver.
func Resolve(p analysis.Persona, t analysis.Type, customText, language string) (string, error) {
	return NewResolver().Resolve(p, t, customText, language)
}

// Resolve returns the instruction for the selection. The result depends only on the inputs
// and the resolver options.
//
// Unknown personas fall back to Regular and unknown combinations to DefaultInstruction; both
// fallbacks are logged since they usually mean a typo upstream.
func (r *Resolver) Resolve(p analysis.Persona, t analysis.Type, customText, language string) (string, error) {
	var base string
	switch {
	case t == analysis.TypeCustom:
		base = strings.TrimSpace(customText)
		if base == "" {
			return "", analysis.ErrMissingCustomPrompt
		}
	case t == "":
		return "", analysis.ErrMissingType
	default:
		base = r.lookup(p, t)
	}

	parts := []string{base}
	if r.citeCases {
		parts = append(parts, CaseCitationDirective)
	}
	if language = strings.TrimSpace(language); language != "" && !strings.EqualFold(language, analysis.DefaultLanguage) {
		parts = append(parts, LanguageDirective(language))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (r *Resolver) lookup(p analysis.Persona, t analysis.Type) string {
	if s, ok := Lookup(p, t); ok {
		return s
	}
	if s, ok := Lookup(analysis.PersonaRegular, t); ok {
		r.log().Warn("unknown persona, using Regular prompt",
			slog.String("persona", string(p)), slog.String("type", string(t)))
		return s
	}
	r.log().Warn("no prompt for selection, using default instruction",
		slog.String("persona", string(p)), slog.String("type", string(t)))
	return DefaultInstruction
}

func (r *Resolver) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
