package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient talks to the OpenAI chat completions API (or any compatible
// endpoint) over plain HTTP.
type OpenAIClient struct {
	client   *http.Client
	apiKey   string
	model    string
	endpoint string
}

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIChatMessage  `json:"messages"`
	Temperature    float64              `json:"temperature,omitempty"`
	ResponseFormat *openAIFormatOptions `json:"response_format,omitempty"`
}

type openAIFormatOptions struct {
	Type string `json:"type"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	} else {
		endpoint = strings.TrimRight(endpoint, "/")
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			if strings.HasSuffix(endpoint, "/v1") {
				endpoint += "/chat/completions"
			} else {
				endpoint += "/v1/chat/completions"
			}
		}
	}
	return &OpenAIClient{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(c.model) == "" {
		return "", fmt.Errorf("openai model is required")
	}

	reqBody := openAIChatRequest{
		Model: c.model,
		Messages: []openAIChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    0.3,
		ResponseFormat: &openAIFormatOptions{Type: "json_object"},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai chat response contained no choices")
	}
	return cleanFencedOutput(parsed.Choices[0].Message.Content), nil
}
