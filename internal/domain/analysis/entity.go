package analysis

import (
	"fmt"
	"strings"
)

// Persona is the voice an analysis instruction is written in.
type Persona string

const (
	PersonaRegular  Persona = "Regular"
	PersonaBob      Persona = "Bob"
	PersonaLawyer   Persona = "Lawyer"
	PersonaCEO      Persona = "CEO"
	PersonaBrainrot Persona = "brainrot"
)

// Personas lists every known persona in display order.
func Personas() []Persona {
	return []Persona{PersonaRegular, PersonaBob, PersonaLawyer, PersonaCEO, PersonaBrainrot}
}

// ParsePersona matches name case-insensitively against the known personas.
func ParsePersona(name string) (Persona, bool) {
	name = strings.TrimSpace(name)
	for _, p := range Personas() {
		if strings.EqualFold(string(p), name) {
			return p, true
		}
	}
	return Persona(name), false
}

// Type is the facet of the document an analysis looks at.
type Type string

const (
	TypeMalicious      Type = "malicious"
	TypeSummary        Type = "summary"
	TypeProsCons       Type = "proscons"
	TypeRecommendation Type = "recommendation"
	TypeAlternatives   Type = "alternatives"
	TypeComprehensive  Type = "comprehensive"
	TypeCustom         Type = "custom"
)

// Types lists every analysis type in display order.
func Types() []Type {
	return []Type{
		TypeMalicious, TypeSummary, TypeProsCons, TypeRecommendation,
		TypeAlternatives, TypeComprehensive, TypeCustom,
	}
}

// ParseType matches name case-insensitively against the known types.
func ParseType(name string) (Type, bool) {
	name = strings.TrimSpace(name)
	for _, t := range Types() {
		if strings.EqualFold(string(t), name) {
			return t, true
		}
	}
	return Type(name), false
}

// Title is the heading shown above a result, e.g. "Summary" or "Custom Analysis".
func (t Type) Title() string {
	if t == TypeCustom {
		return "Custom Analysis"
	}
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// DefaultLanguage needs no language directive.
const DefaultLanguage = "English"

// Severity levels used by structured results
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Section is one typed block of a structured result.
type Section struct {
	Title    string `json:"title" bson:"title"`
	Type     string `json:"type,omitempty" bson:"type,omitempty"` // issue | concern | positive | info
	Priority string `json:"priority,omitempty" bson:"priority,omitempty"`
	Content  string `json:"content" bson:"content"`
}

// CaseExample is a real-world incident backing a finding.
type CaseExample struct {
	Title       string `json:"title" bson:"title"`
	Company     string `json:"company,omitempty" bson:"company,omitempty"`
	Description string `json:"description" bson:"description"`
	Outcome     string `json:"outcome,omitempty" bson:"outcome,omitempty"`
}

// Structured is the backend's decomposition of an analysis.
type Structured struct {
	Severity        string        `json:"severity,omitempty" bson:"severity,omitempty"`
	Summary         string        `json:"summary,omitempty" bson:"summary,omitempty"`
	KeyFindings     []string      `json:"key_findings,omitempty" bson:"key_findings,omitempty"`
	Sections        []Section     `json:"sections,omitempty" bson:"sections,omitempty"`
	CaseExamples    []CaseExample `json:"case_examples,omitempty" bson:"case_examples,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
}

// HasContent reports whether s carries more than a severity level. Nil and empty payloads
// count as absent.
func (s *Structured) HasContent() bool {
	return s != nil && (strings.TrimSpace(s.Summary) != "" ||
		len(s.KeyFindings) > 0 ||
		len(s.Sections) > 0 ||
		len(s.CaseExamples) > 0 ||
		len(s.Recommendations) > 0)
}

// Alternative is a competing service found by the alternatives search.
type Alternative struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Result is one completed analysis. Either Text or Structured (or both) is set.
type Result struct {
	Text         string        `json:"result"`
	Structured   *Structured   `json:"structured,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// AlternativesHeading separates found alternatives from the analysis in plain text.
const AlternativesHeading = "--- Alternative Services Found ---"

// Empty reports whether the result carries nothing to show.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == "" && !r.Structured.HasContent()
}

// PlainText is the analysis text (the structured summary when there is none) followed by the
// alternatives found, numbered. It is what gets saved and what follow-up questions refer to.
func (r Result) PlainText() string {
	text := r.Text
	if text == "" && r.Structured != nil {
		text = r.Structured.Summary
	}
	if len(r.Alternatives) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n" + AlternativesHeading + "\n")
	for i, a := range r.Alternatives {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   %s\n", i+1, a.Title, a.Snippet, a.Link)
	}
	return b.String()
}

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one follow-up message.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
