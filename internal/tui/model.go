// Package tui is the interactive terminal wizard: document input, persona, type, language,
// then results with follow-up questions.
package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bryanwahyu/clausecode/internal/client"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/wizard"
)

// source is where the next document comes from on the input step.
type source int

const (
	sourceNone source = iota
	sourceURL
	sourceFile
	sourcePaste
)

// Messages carrying backend outcomes back onto the event loop.
type (
	docLoadedMsg struct {
		doc     document.Document
		failure string
		err     error
	}
	analysisDoneMsg struct {
		req wizard.AnalysisRequest
		res analysis.Result
		err error
	}
	answerMsg struct {
		req    wizard.QuestionRequest
		answer string
		err    error
	}
	savedMsg struct {
		out client.SaveResult
		err error
	}
)

// Model is the bubbletea model. Wizard state lives in the session; every mutation of it
// happens in Update.
type Model struct {
	ctx  context.Context
	sess *wizard.Session

	source   source
	cursor   int
	editing  bool // custom prompt editor open
	askFocus bool
	loading  bool // document fetch or upload in flight
	saving   bool

	line    textinput.Model
	area    textarea.Model
	spin    spinner.Model
	results viewport.Model

	// rendered caches the results view for the result and conversation length it was built from
	rendered    string
	renderedFor *analysis.Result
	renderedLen int

	width, height int
}

// New returns a model driving sess. ctx bounds every backend request.
func New(ctx context.Context, sess *wizard.Session) Model {
	line := textinput.New()
	line.CharLimit = 2000
	line.Width = 60

	area := textarea.New()
	area.Placeholder = "Paste the terms and conditions here..."
	area.ShowLineNumbers = false
	area.CharLimit = 0
	area.SetWidth(70)
	area.SetHeight(10)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = accentStyle

	return Model{
		ctx:     ctx,
		sess:    sess,
		line:    line,
		area:    area,
		spin:    spin,
		results: viewport.New(80, 20),
		width:   80,
		height:  30,
	}
}

// Run starts the program in the alternate screen and blocks until the user quits.
func Run(ctx context.Context, sess *wizard.Session) error {
	_, err := tea.NewProgram(New(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) nav() *wizard.Navigator { return m.sess.Navigator() }

func (m Model) busy() bool {
	return m.loading || m.saving || m.nav().Analyzing() || m.nav().Asking()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.area.SetWidth(max(20, msg.Width-4))
		m.line.Width = max(20, msg.Width-8)
		m.results.Width = msg.Width
		m.results.Height = max(5, msg.Height-9)
		m.renderedFor = nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case docLoadedMsg:
		m.loading = false
		m.sess.CompleteLoad(msg.doc, msg.failure, msg.err)
		if msg.err == nil {
			m.closeSource()
		}
	case analysisDoneMsg:
		m.sess.CompleteAnalysis(msg.req, msg.res, msg.err)
		m.askFocus = false
		m.results.GotoTop()
	case answerMsg:
		m.sess.CompleteQuestion(msg.req, msg.answer, msg.err)
		m.syncResults()
		m.results.GotoBottom()
	case savedMsg:
		m.saving = false
		m.sess.CompleteSave(msg.err)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		cmd = m.handleKey(msg)
	}
	m.syncResults()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.nav().State().Step {
	case wizard.StepInput:
		return m.inputKey(msg)
	case wizard.StepSelection:
		return m.selectionKey(msg)
	case wizard.StepResults:
		return m.resultsKey(msg)
	}
	return nil
}

func (m *Model) inputKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch m.source {
	case sourceNone:
		switch key {
		case "1", "u":
			return m.openSource(sourceURL)
		case "2", "f":
			return m.openSource(sourceFile)
		case "3", "p":
			return m.openSource(sourcePaste)
		case "enter", "tab":
			if m.nav().Next() {
				m.cursor = indexOf(personaNames(), string(m.nav().State().Selections.Persona))
			}
		case "q":
			return tea.Quit
		}
		return nil

	case sourcePaste:
		switch key {
		case "esc":
			m.closeSource()
			return nil
		case "ctrl+d":
			m.sess.Paste(m.area.Value())
			if !m.nav().Document().Empty() {
				m.closeSource()
			}
			return nil
		}
		var cmd tea.Cmd
		m.area, cmd = m.area.Update(msg)
		return cmd
	}

	// URL or file path
	switch key {
	case "esc":
		m.closeSource()
		return nil
	case "enter":
		if m.loading {
			return nil
		}
		value := strings.TrimSpace(m.line.Value())
		if value == "" {
			return nil
		}
		m.loading = true
		m.nav().SetStatus("")
		return tea.Batch(m.spin.Tick, m.loadCmd(m.source, value))
	}
	var cmd tea.Cmd
	m.line, cmd = m.line.Update(msg)
	return cmd
}

func (m *Model) openSource(s source) tea.Cmd {
	m.source = s
	switch s {
	case sourcePaste:
		m.area.SetValue("")
		return m.area.Focus()
	case sourceURL:
		m.line.Placeholder = "example.com/terms"
	case sourceFile:
		m.line.Placeholder = "path/to/terms.pdf"
	}
	m.line.SetValue("")
	return m.line.Focus()
}

func (m *Model) closeSource() {
	m.source = sourceNone
	m.line.Blur()
	m.area.Blur()
}

// loadCmd fetches or uploads off the event loop; the document is committed on docLoadedMsg.
func (m Model) loadCmd(s source, value string) tea.Cmd {
	ctx, backend := m.ctx, m.sess.Backend()
	return func() tea.Msg {
		if s == sourceURL {
			doc, err := backend.ScrapeURL(ctx, value)
			return docLoadedMsg{doc: doc, failure: "Scraping failed", err: err}
		}
		f, err := os.Open(value)
		if err != nil {
			return docLoadedMsg{failure: "Upload failed", err: err}
		}
		defer f.Close()
		doc, err := backend.Upload(ctx, filepath.Base(value), f)
		return docLoadedMsg{doc: doc, failure: "Upload failed", err: err}
	}
}

func (m *Model) selectionKey(msg tea.KeyMsg) tea.Cmd {
	nav := m.nav()
	key := msg.String()

	if m.editing {
		switch key {
		case "esc":
			m.editing = false
			m.area.Blur()
			return nil
		case "ctrl+d":
			nav.SetCustomPrompt(m.area.Value())
			if nav.CanAdvance(wizard.SubStepType) {
				m.editing = false
				m.area.Blur()
				return m.enterLanguage()
			}
			return nil
		}
		var cmd tea.Cmd
		m.area, cmd = m.area.Update(msg)
		return cmd
	}

	switch nav.State().SubStep {
	case wizard.SubStepPersona, wizard.SubStepType:
		options := m.options()
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(options)-1 {
				m.cursor++
			}
		case "esc", "backspace":
			nav.Back()
			m.cursor = m.selectedIndex()
		case "enter", " ":
			return m.choose(options[m.cursor])
		}
		return nil

	case wizard.SubStepLanguage:
		switch key {
		case "esc":
			m.line.Blur()
			nav.Back()
			m.cursor = m.selectedIndex()
			if nav.State().Step == wizard.StepSelection && nav.State().Selections.Type == analysis.TypeCustom {
				return m.openEditor()
			}
			return nil
		case "enter":
			nav.SelectLanguage(m.line.Value())
			req, err := m.sess.BeginAnalysis()
			if err != nil {
				return nil
			}
			m.line.Blur()
			return tea.Batch(m.spin.Tick, m.analyzeCmd(req))
		}
		var cmd tea.Cmd
		m.line, cmd = m.line.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) choose(option string) tea.Cmd {
	nav := m.nav()
	if nav.State().SubStep == wizard.SubStepPersona {
		nav.SelectPersona(analysis.Persona(option))
		nav.Next()
		m.cursor = m.selectedIndex()
		return nil
	}
	nav.SelectType(analysis.Type(option))
	if analysis.Type(option) == analysis.TypeCustom {
		return m.openEditor()
	}
	return m.enterLanguage()
}

func (m *Model) openEditor() tea.Cmd {
	m.editing = true
	m.area.Placeholder = "Describe what you want to know about this document..."
	m.area.SetValue(m.nav().State().Selections.CustomPrompt)
	return m.area.Focus()
}

func (m *Model) enterLanguage() tea.Cmd {
	if !m.nav().Next() {
		return nil
	}
	m.line.Placeholder = analysis.DefaultLanguage
	m.line.SetValue(m.nav().State().Selections.Language)
	return m.line.Focus()
}

func (m Model) analyzeCmd(req wizard.AnalysisRequest) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		res, err := sess.ExecuteAnalysis(ctx, req)
		return analysisDoneMsg{req: req, res: res, err: err}
	}
}

func (m *Model) resultsKey(msg tea.KeyMsg) tea.Cmd {
	nav := m.nav()
	key := msg.String()

	if m.askFocus {
		switch key {
		case "esc":
			m.askFocus = false
			m.line.Blur()
			return nil
		case "enter":
			req, err := m.sess.BeginQuestion(m.line.Value())
			if err != nil {
				return nil
			}
			m.line.SetValue("")
			ctx, sess := m.ctx, m.sess
			return tea.Batch(m.spin.Tick, func() tea.Msg {
				answer, err := sess.ExecuteQuestion(ctx, req)
				return answerMsg{req: req, answer: answer, err: err}
			})
		}
		var cmd tea.Cmd
		m.line, cmd = m.line.Update(msg)
		return cmd
	}

	switch key {
	case "/", "a":
		if nav.Result() == nil {
			return nil
		}
		m.askFocus = true
		m.line.Placeholder = "Ask a question about this analysis..."
		m.line.SetValue("")
		return m.line.Focus()
	case "s":
		if m.saving {
			return nil
		}
		req, err := m.sess.BeginSave()
		if err != nil {
			return nil
		}
		m.saving = true
		ctx, backend := m.ctx, m.sess.Backend()
		return tea.Batch(m.spin.Tick, func() tea.Msg {
			out, err := backend.Save(ctx, req)
			return savedMsg{out: out, err: err}
		})
	case "n":
		nav.Reset()
		m.cursor = 0
		m.askFocus = false
	case "esc", "b":
		nav.Back()
		m.line.Placeholder = analysis.DefaultLanguage
		m.line.SetValue(nav.State().Selections.Language)
		return m.line.Focus()
	case "q":
		return tea.Quit
	default:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return cmd
	}
	return nil
}

// options lists the choices of the current persona or type sub-step.
func (m Model) options() []string {
	if m.nav().State().SubStep == wizard.SubStepType {
		return typeNames()
	}
	return personaNames()
}

func (m Model) selectedIndex() int {
	sel := m.nav().State().Selections
	if m.nav().State().SubStep == wizard.SubStepType {
		return indexOf(typeNames(), string(sel.Type))
	}
	return indexOf(personaNames(), string(sel.Persona))
}

// syncResults rebuilds the results viewport when the result or the conversation changed.
func (m *Model) syncResults() {
	nav := m.nav()
	res := nav.Result()
	if res == m.renderedFor && nav.Conversation().Len() == m.renderedLen && m.renderedFor != nil {
		return
	}
	m.renderedFor = res
	m.renderedLen = nav.Conversation().Len()
	m.rendered = resultsBody(nav, m.width)
	m.results.SetContent(m.rendered)
}

func personaNames() []string {
	var out []string
	for _, p := range analysis.Personas() {
		out = append(out, string(p))
	}
	return out
}

func typeNames() []string {
	var out []string
	for _, t := range analysis.Types() {
		out = append(out, string(t))
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}
