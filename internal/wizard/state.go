// Package wizard holds the step-gated analysis flow: document input, persona/type/language
// selection, results with follow-up questions.
package wizard

import (
	"fmt"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
)

// Step is a wizard screen.
type Step int

const (
	StepInput Step = iota + 1
	StepSelection
	StepResults
)

func (s Step) String() string {
	switch s {
	case StepInput:
		return "input"
	case StepSelection:
		return "selection"
	case StepResults:
		return "results"
	}
	return "unknown"
}

// SubStep orders the choices inside StepSelection.
type SubStep int

const (
	SubStepPersona SubStep = iota + 1
	SubStepType
	SubStepLanguage
)

// Layout decides how the selection sub-steps are presented.
type Layout int

const (
	// LayoutCompact shows one sub-step at a time, each gated on the previous one.
	LayoutCompact Layout = iota
	// LayoutWide shows all three sub-steps together.
	LayoutWide
)

// Selections are the user's choices for the next analysis.
type Selections struct {
	Persona      analysis.Persona
	Type         analysis.Type
	Language     string
	CustomPrompt string
}

// Title is the heading of a result produced from these selections, e.g. "📊 Lawyer - Summary".
func (s Selections) Title() string {
	return fmt.Sprintf("📊 %s - %s", s.Persona, s.Type.Title())
}

// State is a snapshot of the navigator.
type State struct {
	Step       Step
	SubStep    SubStep
	Selections Selections
}

// InitialState is where a fresh or reset wizard starts.
func InitialState() State {
	return State{
		Step:       StepInput,
		SubStep:    SubStepPersona,
		Selections: Selections{Language: analysis.DefaultLanguage},
	}
}
