package textgen

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Completer using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  modelName,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response contained no candidates")
	}
	return cleanFencedOutput(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
