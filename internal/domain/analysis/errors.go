package analysis

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNotConfigured means a backing provider (LLM, search) has no credentials.
var ErrNotConfigured = errors.New("provider not configured")

// Input validation errors. They block navigation and are shown inline; they never cross the
// network boundary as failures.
var (
	ErrMissingDocument     = errors.New("please upload a file, fetch a URL, or paste text first")
	ErrMissingPersona      = errors.New("please pick a persona")
	ErrMissingType         = errors.New("please pick an analysis type")
	ErrMissingCustomPrompt = errors.New("please write your custom prompt")
	ErrMissingQuestion     = errors.New("please enter a question")
	ErrNoAnalysis          = errors.New("no analysis available to ask questions about")
	ErrMissingInstruction  = errors.New("system prompt is required")
)

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, v := range []error{
		ErrMissingDocument, ErrMissingPersona, ErrMissingType,
		ErrMissingCustomPrompt, ErrMissingQuestion, ErrNoAnalysis, ErrMissingInstruction,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// ProviderError is a request the AI provider rejected, carrying the provider's own message.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

// NotConfiguredError is ErrNotConfigured with a message naming the missing setting.
type NotConfiguredError struct {
	Message string
}

func (e *NotConfiguredError) Error() string { return e.Message }

func (e *NotConfiguredError) Is(target error) bool { return target == ErrNotConfigured }
