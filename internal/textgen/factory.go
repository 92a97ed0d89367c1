package textgen

import (
	"context"
	"fmt"
	"strings"
)

// NewCompleter constructs the provider selected by opts. An empty provider
// defaults to OpenAI.
func NewCompleter(ctx context.Context, opts Options) (Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(opts.APIKey, opts.Model, opts.BaseURL), nil
	case "gemini":
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", opts.Provider)
	}
}
