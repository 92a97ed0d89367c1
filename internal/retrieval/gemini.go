package retrieval

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder implements Embedder using Google's Gemini API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dim int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiEmbedder{
		client:    client,
		model:     modelName,
		dimension: dim,
	}, nil
}

func (g *GeminiEmbedder) Dimension() int {
	return g.dimension
}

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	em := g.client.EmbeddingModel(g.model)
	var results [][]float32

	for _, text := range texts {
		res, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, fmt.Errorf("failed to embed text: %w", err)
		}
		results = append(results, res.Embedding.Values)
	}
	return results, nil
}

func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}
