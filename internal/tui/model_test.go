package tui

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/clausecode/internal/application"
	"github.com/bryanwahyu/clausecode/internal/client"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/wizard"
)

type stubBackend struct {
	result     analysis.Result
	analyzeErr error
	answer     string

	gotInstruction string
	gotSave        client.SaveRequest
}

func (s *stubBackend) RunAnalysis(_ context.Context, _ document.Document, instruction string, _ client.AnalyzeOptions) (analysis.Result, error) {
	s.gotInstruction = instruction
	return s.result, s.analyzeErr
}

func (s *stubBackend) SearchAlternatives(context.Context, string) ([]analysis.Alternative, error) {
	return nil, nil
}

func (s *stubBackend) AskFollowUp(context.Context, string, document.Document, analysis.Result, []analysis.Turn) (string, error) {
	return s.answer, nil
}

func (s *stubBackend) Upload(_ context.Context, filename string, r io.Reader) (document.Document, error) {
	b, err := io.ReadAll(r)
	return document.Document{Text: string(b), Title: filename, Source: document.SourceUpload}, err
}

func (s *stubBackend) ScrapeURL(_ context.Context, rawURL string) (document.Document, error) {
	return document.Document{Text: "We may share your data.", Title: "Terms", URL: "https://" + rawURL, Source: document.SourceScrape}, nil
}

func (s *stubBackend) Save(_ context.Context, req client.SaveRequest) (client.SaveResult, error) {
	s.gotSave = req
	return client.SaveResult{ID: "rec-1", SavedTo: []string{"mysql"}}, nil
}

func newModel(b wizard.Backend) Model {
	sess := wizard.NewSession(wizard.NewNavigator(wizard.LayoutCompact), b, nil,
		application.FixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)), nil, wizard.Config{})
	return New(context.Background(), sess)
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// press sends keys and returns the command of the last one.
func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m, cmd
}

func typeText(m Model, input string) Model {
	for _, r := range input {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

// run executes cmd and feeds back every backend message it produces. Spinner ticks are dropped.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	var msgs []tea.Msg
	var collect func(c tea.Cmd)
	collect = func(c tea.Cmd) {
		if c == nil {
			return
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			for _, sub := range msg {
				collect(sub)
			}
		case spinner.TickMsg:
		default:
			msgs = append(msgs, msg)
		}
	}
	collect(cmd)
	require.NotEmpty(t, msgs)
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestWizardFlow(t *testing.T) {
	b := &stubBackend{
		result: analysis.Result{Text: "<p>Risky clause about data sharing</p>"},
		answer: "<p>Yes, with partners.</p>",
	}
	m := newModel(b)
	nav := m.nav()

	// fetch a page
	m, _ = press(m, "1")
	assert.Equal(t, sourceURL, m.source)
	m = typeText(m, "example.com/terms")
	m, cmd := press(m, "enter")
	assert.True(t, m.loading)
	m = run(t, m, cmd)
	assert.False(t, m.loading)
	assert.Equal(t, sourceNone, m.source)
	assert.Equal(t, "Terms", nav.Document().Title)
	assert.Contains(t, m.View(), "Loaded: Terms")

	// persona, then type
	m, _ = press(m, "enter")
	assert.Equal(t, wizard.StepSelection, nav.State().Step)
	m, _ = press(m, "down", "down", "enter")
	assert.Equal(t, analysis.PersonaLawyer, nav.State().Selections.Persona)
	assert.Equal(t, wizard.SubStepType, nav.State().SubStep)
	m, _ = press(m, "down", "enter")
	assert.Equal(t, analysis.TypeSummary, nav.State().Selections.Type)
	assert.Equal(t, wizard.SubStepLanguage, nav.State().SubStep)
	assert.Equal(t, analysis.DefaultLanguage, m.line.Value())

	// analyze
	m, cmd = press(m, "enter")
	assert.True(t, nav.Analyzing())
	assert.Contains(t, m.View(), wizard.AnalyzingStatus)
	m = run(t, m, cmd)
	assert.Equal(t, wizard.StepResults, nav.State().Step)
	assert.NotEmpty(t, b.gotInstruction)
	view := m.View()
	assert.Contains(t, view, "Lawyer - Summary")
	assert.Contains(t, view, "Risky clause about data sharing")

	// follow-up
	m, _ = press(m, "a")
	assert.True(t, m.askFocus)
	m = typeText(m, "Can they sell it?")
	m, cmd = press(m, "enter")
	m = run(t, m, cmd)
	assert.Equal(t, 2, nav.Conversation().Len())
	assert.Contains(t, m.rendered, "Can they sell it?")
	assert.Contains(t, m.rendered, "Yes, with partners.")

	// save
	m, _ = press(m, "esc")
	m, cmd = press(m, "s")
	m = run(t, m, cmd)
	assert.Equal(t, "✅ Saved successfully!", nav.Status())
	assert.Equal(t, "Lawyer", b.gotSave.Agent)
	assert.Equal(t, "Terms", b.gotSave.PageTitle)

	// new analysis keeps the document
	m, _ = press(m, "n")
	assert.Equal(t, wizard.StepInput, nav.State().Step)
	assert.Nil(t, nav.Result())
	assert.Equal(t, "Terms", nav.Document().Title)
	assert.Contains(t, m.View(), "Where are the terms?")
}

func TestCustomPrompt(t *testing.T) {
	m := newModel(&stubBackend{result: analysis.Result{Text: "ok"}})
	nav := m.nav()

	m, _ = press(m, "3")
	m = typeText(m, "Terms of service text")
	m, _ = press(m, "ctrl+d", "enter", "enter")
	assert.Equal(t, analysis.PersonaRegular, nav.State().Selections.Persona)

	// custom is the last type
	m, _ = press(m, "down", "down", "down", "down", "down", "down", "enter")
	assert.True(t, m.editing)
	assert.Equal(t, wizard.SubStepType, nav.State().SubStep)

	// an empty prompt keeps the editor open
	m, _ = press(m, "ctrl+d")
	assert.True(t, m.editing)

	m = typeText(m, "Who owns my photos?")
	m, _ = press(m, "ctrl+d")
	assert.False(t, m.editing)
	assert.Equal(t, "Who owns my photos?", nav.State().Selections.CustomPrompt)
	assert.Equal(t, wizard.SubStepLanguage, nav.State().SubStep)
}

func TestAnalysisFailureShowsPopup(t *testing.T) {
	m := newModel(&stubBackend{analyzeErr: &client.Error{Status: 429, Message: "AI quota exceeded"}})
	nav := m.nav()

	m, _ = press(m, "3")
	m = typeText(m, "Terms")
	m, _ = press(m, "ctrl+d", "enter", "enter", "enter")
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, wizard.StepResults, nav.State().Step)
	assert.Nil(t, nav.Result())
	assert.Contains(t, m.View(), "Oops! AI quota exceeded.")

	// asking needs a result
	m, _ = press(m, "a")
	assert.False(t, m.askFocus)
}

func TestBackFromPersonaReturnsToInput(t *testing.T) {
	m := newModel(&stubBackend{})
	m, _ = press(m, "3")
	m = typeText(m, "Terms")
	m, _ = press(m, "ctrl+d", "enter", "esc")
	assert.Equal(t, wizard.StepInput, m.nav().State().Step)
}

func TestEnterWithoutDocumentStays(t *testing.T) {
	m := newModel(&stubBackend{})
	m, _ = press(m, "enter")
	assert.Equal(t, wizard.StepInput, m.nav().State().Step)
	assert.Contains(t, m.View(), "Please upload a file")
}

func TestIdleSpinnerTickIsDropped(t *testing.T) {
	m := newModel(&stubBackend{})
	_, cmd := m.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)
}

func TestQuit(t *testing.T) {
	m := newModel(&stubBackend{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
