package retrieval

import (
	"context"
	"fmt"
	"strings"
)

// EmbedderOptions selects and configures an embedding provider.
type EmbedderOptions struct {
	Provider  string
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
}

// NewEmbedder constructs the provider selected by opts. An empty provider
// defaults to OpenAI.
func NewEmbedder(ctx context.Context, opts EmbedderOptions) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		return NewOpenAIEmbedder(opts.APIKey, opts.Model, opts.Dimension, opts.BaseURL), nil
	case "gemini":
		return NewGeminiEmbedder(ctx, opts.APIKey, opts.Model, opts.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
}
