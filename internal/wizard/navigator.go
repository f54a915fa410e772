package wizard

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
)

// Navigator owns the wizard state. It is not safe for concurrent use: one event loop drives it.
type Navigator struct {
	state  State
	layout Layout
	doc    document.Document
	conv   Conversation

	result    *analysis.Result
	resultErr error
	status    string

	analyzing bool
	asking    bool

	// generation changes whenever the document, persona or type changes, so completions of
	// requests built from an older triple can be recognised.
	generation uint64
}

// NewNavigator returns a navigator in InitialState.
func NewNavigator(layout Layout) *Navigator {
	return &Navigator{state: InitialState(), layout: layout}
}

// State returns a snapshot.
func (n *Navigator) State() State { return n.state }

func (n *Navigator) Layout() Layout { return n.layout }

// SetLayout switches presentation. Going compact resumes at the first closed gate.
func (n *Navigator) SetLayout(l Layout) {
	n.layout = l
	if n.state.Step != StepSelection || l == LayoutWide {
		return
	}
	n.state.SubStep = SubStepPersona
	for n.state.SubStep < SubStepLanguage && n.CanAdvance(n.state.SubStep) {
		n.state.SubStep++
	}
}

func (n *Navigator) Document() document.Document { return n.doc }

// Result is the last completed analysis, nil if none or if it was invalidated.
func (n *Navigator) Result() *analysis.Result { return n.result }

// ResultErr is the failure of the last analysis, if it failed.
func (n *Navigator) ResultErr() error { return n.resultErr }

// Status is the current user-visible status line.
func (n *Navigator) Status() string { return n.status }

func (n *Navigator) SetStatus(s string) { n.status = s }

// Conversation exposes the follow-up turns.
func (n *Navigator) Conversation() *Conversation { return &n.conv }

// Analyzing reports whether an analysis request is in flight.
func (n *Navigator) Analyzing() bool { return n.analyzing }

// Asking reports whether a follow-up question is in flight.
func (n *Navigator) Asking() bool { return n.asking }

// CanAdvance is the forward gate of a selection sub-step.
func (n *Navigator) CanAdvance(sub SubStep) bool {
	sel := n.state.Selections
	switch sub {
	case SubStepPersona:
		return sel.Persona != ""
	case SubStepType:
		if sel.Type == "" {
			return false
		}
		return sel.Type != analysis.TypeCustom || strings.TrimSpace(sel.CustomPrompt) != ""
	case SubStepLanguage:
		return true
	}
	return false
}

// Validate returns the first missing input needed to analyze, or nil.
func (n *Navigator) Validate() error {
	sel := n.state.Selections
	switch {
	case n.doc.Empty():
		return analysis.ErrMissingDocument
	case sel.Persona == "":
		return analysis.ErrMissingPersona
	case sel.Type == "":
		return analysis.ErrMissingType
	case sel.Type == analysis.TypeCustom && strings.TrimSpace(sel.CustomPrompt) == "":
		return analysis.ErrMissingCustomPrompt
	}
	return nil
}

// CanAnalyze reports whether the Analyze action is enabled.
func (n *Navigator) CanAnalyze() bool {
	return !n.analyzing && n.Validate() == nil
}

// Next moves forward if the current gate allows it. A closed gate is a no-op returning false;
// only the Input step reports why, through Status. In the wide layout persona and type are
// gated together and Next jumps straight to the language sub-step.
func (n *Navigator) Next() bool {
	switch n.state.Step {
	case StepInput:
		if n.doc.Empty() {
			n.status = ErrorStatus(analysis.ErrMissingDocument)
			return false
		}
		n.enterSelection()
		return true
	case StepSelection:
		if n.layout == LayoutWide {
			if n.state.SubStep == SubStepLanguage || !n.CanAdvance(SubStepPersona) || !n.CanAdvance(SubStepType) {
				return false
			}
			n.state.SubStep = SubStepLanguage
			return true
		}
		if n.state.SubStep >= SubStepLanguage || !n.CanAdvance(n.state.SubStep) {
			return false
		}
		n.state.SubStep++
		return true
	}
	return false
}

// Back moves one screen or sub-step backwards.
func (n *Navigator) Back() bool {
	switch n.state.Step {
	case StepResults:
		n.state.Step = StepSelection
		n.state.SubStep = SubStepLanguage
		return true
	case StepSelection:
		if n.layout == LayoutCompact && n.state.SubStep > SubStepPersona {
			n.state.SubStep--
			return true
		}
		n.enterInput()
		return true
	}
	return false
}

// GoTo jumps to step. Selection needs a document, Results needs a finished analysis.
func (n *Navigator) GoTo(step Step) bool {
	switch step {
	case StepInput:
		n.enterInput()
		return true
	case StepSelection:
		if n.doc.Empty() {
			n.status = ErrorStatus(analysis.ErrMissingDocument)
			return false
		}
		if n.state.Step == StepInput {
			n.enterSelection()
		} else {
			n.state.Step = StepSelection
		}
		return true
	case StepResults:
		if n.result == nil && n.resultErr == nil {
			return false
		}
		n.state.Step = StepResults
		return true
	}
	return false
}

// Reset starts a new analysis on the same document: selections cleared, language back to
// English, step 1, conversation and result dropped.
func (n *Navigator) Reset() {
	n.state = InitialState()
	n.conv.Reset()
	n.result = nil
	n.resultErr = nil
	n.status = ""
	n.generation++
}

// SetDocument replaces the document wholesale.
func (n *Navigator) SetDocument(doc document.Document) {
	n.doc = doc
	n.invalidate()
	if doc.Empty() {
		n.status = ErrorStatus(analysis.ErrMissingDocument)
		return
	}
	n.status = fmt.Sprintf("✅ Document loaded! %d characters ready.", doc.Len())
}

// SelectPersona sets the persona. Unknown personas are accepted and resolve to Regular prompts.
func (n *Navigator) SelectPersona(p analysis.Persona) {
	if p == n.state.Selections.Persona {
		return
	}
	n.state.Selections.Persona = p
	n.invalidate()
}

// SelectType sets the analysis type.
func (n *Navigator) SelectType(t analysis.Type) {
	if t == n.state.Selections.Type {
		return
	}
	n.state.Selections.Type = t
	n.invalidate()
}

// SelectLanguage sets the response language; empty means English.
func (n *Navigator) SelectLanguage(lang string) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = analysis.DefaultLanguage
	}
	n.state.Selections.Language = lang
}

// SetCustomPrompt sets the text used when the type is custom. Changing it under the custom
// type discards the result it produced.
func (n *Navigator) SetCustomPrompt(text string) {
	if text == n.state.Selections.CustomPrompt {
		return
	}
	n.state.Selections.CustomPrompt = text
	if n.state.Selections.Type == analysis.TypeCustom {
		n.invalidate()
	}
}

// invalidate drops the result and the conversation bound to the previous triple.
func (n *Navigator) invalidate() {
	n.conv.Reset()
	n.result = nil
	n.resultErr = nil
	n.generation++
}

func (n *Navigator) enterInput() {
	n.state.Step = StepInput
	n.state.SubStep = SubStepPersona
}

func (n *Navigator) enterSelection() {
	n.state.Step = StepSelection
	n.state.SubStep = SubStepPersona
	n.status = ""
}

// ErrorStatus turns an error into a status line: "❌ " plus the message as a sentence.
func ErrorStatus(err error) string {
	return "❌ " + sentence(err.Error())
}

// PopupStatus is the friendlier form used by the compact result view.
func PopupStatus(err error) string {
	return "Oops! " + sentence(err.Error())
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	if !strings.ContainsAny(s[len(s)-1:], ".!?") {
		s += "."
	}
	return s
}
