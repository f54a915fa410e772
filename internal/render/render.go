// Package render turns analysis results into display markup.
//
// Text coming from the backend (result text, summary, findings, section content) is already
// HTML produced by the model and is inserted as is. Values used in attributes, and the search
// results of the alternatives lookup, are escaped.
package render

import (
	"fmt"
	"html"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
)

// CardPreviewChars is how much plain result text a card shows.
const CardPreviewChars = 200

// SeverityIcon maps a severity level to its badge icon.
func SeverityIcon(severity string) string {
	switch severity {
	case analysis.SeverityLow:
		return "✅"
	case analysis.SeverityMedium:
		return "⚠️"
	case analysis.SeverityHigh:
		return "🔴"
	case analysis.SeverityCritical:
		return "🚨"
	}
	return "ℹ️"
}

// SectionIcon maps a section type to its heading icon.
func SectionIcon(sectionType string) string {
	switch sectionType {
	case "issue":
		return "⚠️"
	case "concern":
		return "⚡"
	case "positive":
		return "✅"
	}
	return "ℹ️"
}

// Render produces the full result markup. Without a usable structured payload the text is
// wrapped in a generic container, after the severity badge if a known level came with it; with
// one, each present part is rendered in a fixed order and absent parts are left out entirely.
func Render(r analysis.Result) string {
	var b strings.Builder
	if r.Structured.HasContent() {
		renderStructured(&b, r.Structured)
	} else {
		if r.Structured != nil && knownSeverity(r.Structured.Severity) {
			renderSeverity(&b, r.Structured.Severity)
		}
		text := r.Text
		if text == "" {
			text = "No results available"
		}
		fmt.Fprintf(&b, `<div class="analysis-content">%s</div>`, text)
	}
	renderAlternatives(&b, r.Alternatives)
	return b.String()
}

func knownSeverity(severity string) bool {
	switch severity {
	case analysis.SeverityLow, analysis.SeverityMedium, analysis.SeverityHigh, analysis.SeverityCritical:
		return true
	}
	return false
}

func renderSeverity(b *strings.Builder, severity string) {
	fmt.Fprintf(b, `<div class="severity-badge severity-%s">%s %s</div>`,
		html.EscapeString(severity), SeverityIcon(severity), html.EscapeString(strings.ToUpper(severity)))
}

func renderStructured(b *strings.Builder, s *analysis.Structured) {
	if s.Severity != "" {
		renderSeverity(b, s.Severity)
	}

	if s.Summary != "" {
		fmt.Fprintf(b, `<div class="analysis-section summary-section"><h3>📋 Summary</h3><p>%s</p></div>`, s.Summary)
	}

	if len(s.KeyFindings) > 0 {
		b.WriteString(`<div class="analysis-section findings-section"><h3>🔍 Key Findings</h3><ul class="findings-list">`)
		for _, f := range s.KeyFindings {
			fmt.Fprintf(b, "<li>%s</li>", f)
		}
		b.WriteString("</ul></div>")
	}

	if len(s.Sections) > 0 {
		b.WriteString(`<div class="analysis-sections">`)
		for i, sec := range s.Sections {
			typ := sec.Type
			if typ == "" {
				typ = "info"
			}
			class := "analysis-section section-" + html.EscapeString(typ)
			if sec.Priority != "" {
				class += " priority-" + html.EscapeString(sec.Priority)
			}
			fmt.Fprintf(b, `<div class="%s" data-section="%d"><div class="section-header"><h4>%s %s</h4>`,
				class, i, SectionIcon(sec.Type), sec.Title)
			if sec.Priority != "" {
				fmt.Fprintf(b, `<span class="priority-badge">%s</span>`, html.EscapeString(sec.Priority))
			}
			fmt.Fprintf(b, `</div><div class="section-content">%s</div></div>`, sec.Content)
		}
		b.WriteString("</div>")
	}

	if len(s.CaseExamples) > 0 {
		b.WriteString(`<div class="analysis-section cases-section"><h3>📋 Real-World Cases</h3><div class="case-examples">`)
		for _, c := range s.CaseExamples {
			fmt.Fprintf(b, `<div class="case-example"><h5>%s</h5>`, c.Title)
			if c.Company != "" {
				fmt.Fprintf(b, `<p class="case-company"><strong>Company:</strong> %s</p>`, c.Company)
			}
			fmt.Fprintf(b, `<p class="case-description">%s</p>`, c.Description)
			if c.Outcome != "" {
				fmt.Fprintf(b, `<p class="case-outcome"><strong>Outcome:</strong> %s</p>`, c.Outcome)
			}
			b.WriteString("</div>")
		}
		b.WriteString("</div></div>")
	}

	if len(s.Recommendations) > 0 {
		b.WriteString(`<div class="analysis-section recommendations-section"><h3>💡 Recommendations</h3><ul class="recommendations-list">`)
		for _, rec := range s.Recommendations {
			fmt.Fprintf(b, "<li>%s</li>", rec)
		}
		b.WriteString("</ul></div>")
	}
}

func renderAlternatives(b *strings.Builder, alts []analysis.Alternative) {
	if len(alts) == 0 {
		return
	}
	b.WriteString(`<div class="analysis-section alternatives-section"><h3>🔄 Alternative Services Found</h3><ol class="alternatives-list">`)
	for _, a := range alts {
		fmt.Fprintf(b, `<li><a href="%s">%s</a>`, html.EscapeString(a.Link), html.EscapeString(a.Title))
		if a.Snippet != "" {
			fmt.Fprintf(b, "<p>%s</p>", html.EscapeString(a.Snippet))
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ol></div>")
}

// Card is the compact form used by history lists.
func Card(r analysis.Result, agent string) string {
	s := r.Structured
	if !s.HasContent() {
		preview := document.Truncate(r.Text, CardPreviewChars)
		if preview == "" {
			preview = "No summary"
		}
		return fmt.Sprintf(`<div class="summary-card">%s...</div>`, preview)
	}

	severity := s.Severity
	if severity == "" {
		severity = analysis.SeverityLow
	}
	if agent == "" {
		agent = "Analysis"
	}
	summary := s.Summary
	if summary == "" {
		summary = "No summary available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="summary-card severity-%s"><div class="card-header"><span class="severity-indicator">%s</span><span class="agent-name">%s</span></div>`,
		html.EscapeString(severity), SeverityIcon(s.Severity), html.EscapeString(agent))
	fmt.Fprintf(&b, `<p class="card-summary">%s</p><div class="card-meta">`, summary)
	if s.KeyFindings != nil {
		fmt.Fprintf(&b, "<span>%d findings</span>", len(s.KeyFindings))
	}
	if s.Recommendations != nil {
		fmt.Fprintf(&b, "<span>%d recommendations</span>", len(s.Recommendations))
	}
	b.WriteString("</div></div>")
	return b.String()
}

var converter = md.NewConverter("", true, nil)

// Markdown converts rendered markup to markdown for terminal output.
func Markdown(markup string) (string, error) {
	out, err := converter.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("convert markup: %w", err)
	}
	return strings.TrimSpace(out), nil
}
