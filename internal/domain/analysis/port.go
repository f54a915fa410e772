package analysis

import "context"

// LLM is the language model used by the backend.
type LLM interface {
	// Analyze runs systemPrompt over pageText and returns the raw completion.
	Analyze(ctx context.Context, systemPrompt, pageText string) (string, error)
	// AnalyzeJSON is Analyze constrained to a single JSON object response.
	AnalyzeJSON(ctx context.Context, systemPrompt, pageText string) (string, error)
	// Chat answers the last user turn of a prepared conversation.
	Chat(ctx context.Context, system string, turns []Turn) (string, error)
}

// AlternativeFinder searches for services competing with serviceName.
type AlternativeFinder interface {
	Search(ctx context.Context, serviceName string) ([]Alternative, error)
}
