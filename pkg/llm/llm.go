package llm

import "context"

// Document is a base64-encoded PDF passed alongside the prompt.
type Document struct {
	FileName string
	Base64   string
}

type Request struct {
	Prompt    string
	Documents []Document
	MaxTokens int
}

// Model is the external language model. Implementations must be safe for
// concurrent use.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ModelFunc adapts a function to Model; tests use it for fixtures.
type ModelFunc func(ctx context.Context, req Request) (string, error)

func (f ModelFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
