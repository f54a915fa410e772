package client

import (
	"context"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
)

// AnalyzeOptions are the optional /analyze fields.
type AnalyzeOptions struct {
	Agent        analysis.Persona
	AnalysisType analysis.Type
	// Structured asks the backend for the decomposed result form.
	Structured bool
}

type analyzeRequest struct {
	PageText     string           `json:"pageText"`
	SystemPrompt string           `json:"systemPrompt"`
	Agent        analysis.Persona `json:"agent,omitempty"`
	AnalysisType analysis.Type    `json:"analysisType,omitempty"`
	Structured   bool             `json:"structured,omitempty"`
}

// RunAnalysis sends doc and the resolved instruction to POST /analyze. doc.Text is sent as is;
// truncation to the wizard cap is the caller's job.
func (c *Client) RunAnalysis(ctx context.Context, doc document.Document, instruction string, opts AnalyzeOptions) (analysis.Result, error) {
	var out analysis.Result
	err := c.postJSON(ctx, "/analyze", analyzeRequest{
		PageText:     doc.Text,
		SystemPrompt: instruction,
		Agent:        opts.Agent,
		AnalysisType: opts.AnalysisType,
		Structured:   opts.Structured,
	}, &out)
	if err != nil {
		return analysis.Result{}, err
	}
	return out, nil
}

type askRequest struct {
	Question            string          `json:"question"`
	PageContent         string          `json:"pageContent"`
	AnalysisResult      string          `json:"analysisResult"`
	ConversationHistory []analysis.Turn `json:"conversationHistory"`
}

// AskFollowUp sends a question with the running conversation to POST /ask-question.
func (c *Client) AskFollowUp(ctx context.Context, question string, doc document.Document, prior analysis.Result, history []analysis.Turn) (string, error) {
	turns := make([]analysis.Turn, len(history))
	copy(turns, history)

	var out struct {
		Answer string `json:"answer"`
	}
	err := c.postJSON(ctx, "/ask-question", askRequest{
		Question:            question,
		PageContent:         doc.Text,
		AnalysisResult:      prior.PlainText(),
		ConversationHistory: turns,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Answer, nil
}

// SearchAlternatives calls POST /search-alternatives.
func (c *Client) SearchAlternatives(ctx context.Context, serviceName string) ([]analysis.Alternative, error) {
	var out struct {
		Alternatives []analysis.Alternative `json:"alternatives"`
	}
	err := c.postJSON(ctx, "/search-alternatives", map[string]string{"serviceName": serviceName}, &out)
	if err != nil {
		return nil, err
	}
	return out.Alternatives, nil
}
