package prompt

import (
	"fmt"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
)

// FollowUpContextChars caps the document and the analysis quoted back to the model.
const FollowUpContextChars = 4000

// FollowUpSystem is the system prompt for follow-up questions.
const FollowUpSystem = "You are a helpful assistant answering questions about a contract/document analysis. Be concise, accurate, and refer to specific parts of the contract or analysis when relevant. Format your response in clean HTML with proper headings (<h3>), paragraphs (<p>), lists (<ul>, <ol>), and styling (<strong>, <em>) for readability."

// FollowUpAck is the canned assistant turn after the context message.
const FollowUpAck = "I understand. I have reviewed the contract and analysis. What would you like to know?"

// StructuredDirective is appended to the system prompt when the caller asks for a structured result.
const StructuredDirective = `Respond with a single JSON object and nothing else, using exactly these fields:
{
  "severity": "low" | "medium" | "high" | "critical",
  "summary": "one paragraph plain-text summary",
  "key_findings": ["short finding", ...],
  "sections": [{"title": "...", "type": "issue" | "concern" | "positive" | "info", "priority": "high" | "medium" | "low", "content": "HTML fragment"}],
  "case_examples": [{"title": "...", "company": "...", "description": "...", "outcome": "..."}],
  "recommendations": ["...", ...]
}
Omit a field rather than leaving it empty. Do not wrap the JSON in markdown.`

// AnalyzeUserMessage wraps page text into the user turn of an analysis.
func AnalyzeUserMessage(pageText string) string {
	return fmt.Sprintf("PAGE CONTENT:\n%s\n\nAnalyze this page content according to your role and provide your insights.", pageText)
}

// WithStructured appends StructuredDirective to a system prompt.
func WithStructured(systemPrompt string) string {
	return systemPrompt + "\n\n" + StructuredDirective
}

// FollowUpTurns builds the conversation sent for a follow-up question, excluding the system prompt.
func FollowUpTurns(pageContent, analysisResult string, history []analysis.Turn, question string) []analysis.Turn {
	turns := make([]analysis.Turn, 0, len(history)+3)
	turns = append(turns,
		analysis.Turn{
			Role: analysis.RoleUser,
			Content: fmt.Sprintf("ORIGINAL CONTRACT/DOCUMENT:\n%s\n\nANALYSIS RESULT:\n%s",
				document.Truncate(pageContent, FollowUpContextChars),
				document.Truncate(analysisResult, FollowUpContextChars)),
		},
		analysis.Turn{Role: analysis.RoleAssistant, Content: FollowUpAck},
	)
	for _, h := range history {
		if h.Role != analysis.RoleAssistant {
			h.Role = analysis.RoleUser
		}
		turns = append(turns, h)
	}
	return append(turns, analysis.Turn{Role: analysis.RoleUser, Content: question})
}
