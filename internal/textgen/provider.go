// Package textgen wraps the chat-completion providers behind a single
// Completer interface and layers the domain prompts, response decoding, and
// the bounded-retry expression refiner on top of it.
package textgen

import "context"

// Completer produces a single text completion for a prompt. Implementations
// are safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options selects and configures a completion provider.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}
