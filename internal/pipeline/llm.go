package pipeline

import "context"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string
	Content string
}

// LLM is the completion interface the stages run against. CompleteStructured
// asks the provider for schema-constrained JSON decoded into out; providers
// that cannot honor the constraint should return an error so the caller can
// fall back to plain completion plus extraction.
type LLM interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	CompleteStructured(ctx context.Context, messages []Message, out any) error
}
