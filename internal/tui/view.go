package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/render"
	"github.com/bryanwahyu/clausecode/internal/wizard"
)

var (
	accentColor = lipgloss.Color("#7C3AED")
	mutedColor  = lipgloss.Color("#6B7280")
	errorColor  = lipgloss.Color("#DC2626")
	okColor     = lipgloss.Color("#16A34A")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accentColor).Padding(0, 1)
	accentStyle   = lipgloss.NewStyle().Foreground(accentColor)
	activeStep    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	doneStep      = lipgloss.NewStyle().Foreground(okColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	okStyle       = lipgloss.NewStyle().Foreground(okColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	userStyle     = lipgloss.NewStyle().Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)
)

var typeBlurbs = map[analysis.Type]string{
	analysis.TypeMalicious:      "Scariest terms, ranked",
	analysis.TypeSummary:        "Short plain-language summary",
	analysis.TypeProsCons:       "Pros and cons",
	analysis.TypeRecommendation: "Should you sign it?",
	analysis.TypeAlternatives:   "Competing services",
	analysis.TypeComprehensive:  "Everything at once",
	analysis.TypeCustom:         "Your own question",
}

func (m Model) View() string {
	nav := m.nav()
	var b strings.Builder

	b.WriteString(titleStyle.Render("ClauseCode"))
	b.WriteString("  ")
	b.WriteString(m.progress())
	b.WriteString("\n\n")

	switch nav.State().Step {
	case wizard.StepInput:
		b.WriteString(m.inputView())
	case wizard.StepSelection:
		b.WriteString(m.selectionView())
	case wizard.StepResults:
		b.WriteString(m.resultsView())
	}

	b.WriteString("\n")
	if m.busy() {
		b.WriteString(m.spin.View() + " " + busyText(m))
	} else if status := nav.Status(); status != "" {
		b.WriteString(statusStyle(status).Render(status))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help()))
	return b.String()
}

// progress renders "Document › Persona › Type › Language › Results" with the current one marked.
func (m Model) progress() string {
	st := m.nav().State()
	current := 0
	switch st.Step {
	case wizard.StepSelection:
		current = int(st.SubStep)
	case wizard.StepResults:
		current = 4
	}
	labels := []string{"Document", "Persona", "Type", "Language", "Results"}
	parts := make([]string, len(labels))
	for i, l := range labels {
		switch {
		case i == current:
			parts[i] = activeStep.Render(l)
		case i < current:
			parts[i] = doneStep.Render(l)
		default:
			parts[i] = mutedStyle.Render(l)
		}
	}
	return strings.Join(parts, mutedStyle.Render(" › "))
}

func (m Model) inputView() string {
	var b strings.Builder
	doc := m.nav().Document()
	switch m.source {
	case sourceURL:
		b.WriteString("Website address:\n\n" + m.line.View() + "\n")
	case sourceFile:
		b.WriteString("PDF or Word file:\n\n" + m.line.View() + "\n")
	case sourcePaste:
		b.WriteString("Paste the document, then press ctrl+d:\n\n" + m.area.View() + "\n")
	default:
		b.WriteString("Where are the terms?\n\n")
		b.WriteString("  1  Fetch a web page\n")
		b.WriteString("  2  Upload a PDF or Word file\n")
		b.WriteString("  3  Paste text\n")
		if !doc.Empty() {
			title := doc.Title
			if title == "" {
				title = "Pasted text"
			}
			b.WriteString("\n" + okStyle.Render(fmt.Sprintf("Loaded: %s (%d characters)", title, doc.Len())) + "\n")
		}
	}
	return b.String()
}

func (m Model) selectionView() string {
	nav := m.nav()
	st := nav.State()
	var b strings.Builder

	if m.editing {
		b.WriteString("Custom prompt, then press ctrl+d:\n\n" + m.area.View() + "\n")
		return b.String()
	}

	switch st.SubStep {
	case wizard.SubStepPersona:
		b.WriteString("Who should read it for you?\n\n")
		for i, name := range m.options() {
			b.WriteString(m.optionLine(i, name, name == string(st.Selections.Persona), ""))
		}
	case wizard.SubStepType:
		fmt.Fprintf(&b, "What should %s look for?\n\n", st.Selections.Persona)
		for i, name := range m.options() {
			blurb := typeBlurbs[analysis.Type(name)]
			b.WriteString(m.optionLine(i, analysis.Type(name).Title(), name == string(st.Selections.Type), blurb))
		}
	case wizard.SubStepLanguage:
		fmt.Fprintf(&b, "%s\n\nResponse language:\n\n%s\n", st.Selections.Title(), m.line.View())
	}
	return b.String()
}

func (m Model) optionLine(i int, label string, chosen bool, blurb string) string {
	pointer := "  "
	style := lipgloss.NewStyle()
	if i == m.cursor {
		pointer = accentStyle.Render("› ")
		style = selectedStyle
	}
	mark := " "
	if chosen {
		mark = okStyle.Render("✓")
	}
	line := pointer + mark + " " + style.Render(label)
	if blurb != "" {
		line += "  " + mutedStyle.Render(blurb)
	}
	return line + "\n"
}

func (m Model) resultsView() string {
	out := m.results.View()
	if m.askFocus {
		out += "\n" + boxStyle.Render(m.line.View())
	}
	return out
}

// resultsBody is the scrollable content of the results step: heading, rendered result and
// the follow-up conversation.
func resultsBody(nav *wizard.Navigator, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(nav.State().Selections.Title()))
	b.WriteString("\n\n")

	res := nav.Result()
	if res == nil {
		if err := nav.ResultErr(); err != nil {
			b.WriteString(errorStyle.Render(wizard.PopupStatus(err)))
		} else {
			b.WriteString(mutedStyle.Render("No results available"))
		}
		return b.String()
	}

	b.WriteString(toText(render.Render(*res), width))
	turns := nav.Conversation().History()
	if len(turns) > 0 {
		b.WriteString("\n\n" + accentStyle.Render("Follow-up questions") + "\n")
	}
	for _, t := range turns {
		if t.Role == analysis.RoleUser {
			b.WriteString("\n" + userStyle.Render("❓ "+t.Content) + "\n")
			continue
		}
		b.WriteString("\n" + toText(t.Content, width) + "\n")
	}
	return b.String()
}

// toText converts model markup to wrapped markdown; unconvertible markup is shown raw.
func toText(markup string, width int) string {
	text, err := render.Markdown(markup)
	if err != nil {
		text = markup
	}
	if width > 4 {
		text = lipgloss.NewStyle().Width(width - 2).Render(text)
	}
	return text
}

func busyText(m Model) string {
	nav := m.nav()
	switch {
	case nav.Analyzing():
		return wizard.AnalyzingStatus
	case nav.Asking():
		return "Thinking about your question..."
	case m.saving:
		return "Saving..."
	}
	return "Loading document..."
}

func statusStyle(status string) lipgloss.Style {
	switch {
	case strings.HasPrefix(status, "❌"):
		return errorStyle
	case strings.HasPrefix(status, "✅"):
		return okStyle
	}
	return mutedStyle
}

func (m Model) help() string {
	st := m.nav().State()
	switch {
	case st.Step == wizard.StepInput && m.source == sourceNone:
		return "1/2/3 choose source · enter continue · q quit"
	case st.Step == wizard.StepInput:
		return "enter load · esc cancel"
	case m.editing:
		return "ctrl+d done · esc cancel"
	case st.Step == wizard.StepSelection && st.SubStep == wizard.SubStepLanguage:
		return "enter analyze · esc back"
	case st.Step == wizard.StepSelection:
		return "↑/↓ move · enter choose · esc back"
	case m.askFocus:
		return "enter ask · esc close"
	}
	return "a ask · s save · n new analysis · b back · ↑/↓ scroll · q quit"
}
