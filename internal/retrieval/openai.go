package retrieval

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

// Corpus documents are short single-line strings and the whole corpus is
// embedded once at startup, so batches can be large and the retry budget
// only needs to cover rate limiting and transient server errors.
const (
	embedBatchSize  = 100
	embedMaxRetries = 3
	embedBackoff    = 2 * time.Second
)

// OpenAIEmbedder implements Embedder over the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    *http.Client
	apiKey    string
	model     string
	dimension int
	endpoint  string
	backoff   time.Duration
}

func NewOpenAIEmbedder(apiKey, model string, dim int, baseURL string) *OpenAIEmbedder {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/embeddings"
	}
	return &OpenAIEmbedder{
		client:    &http.Client{Timeout: 60 * time.Second},
		apiKey:    apiKey,
		model:     model,
		dimension: dim,
		endpoint:  endpoint,
		backoff:   embedBackoff,
	}
}

func (o *OpenAIEmbedder) Dimension() int {
	return o.dimension
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(o.model) == "" {
		return nil, fmt.Errorf("openai embedding model is required")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		vectors, err := o.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions *int     `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (o *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	payload := embeddingRequest{Model: o.model, Input: batch}
	if o.dimension > 0 {
		payload.Dimensions = &o.dimension
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		vectors, retryable, err := o.post(ctx, body, len(batch))
		if err == nil {
			return vectors, nil
		}
		if !retryable || attempt == embedMaxRetries {
			return nil, err
		}
		if err := waitOrCancel(ctx, o.backoff); err != nil {
			return nil, err
		}
	}
}

// post runs one embeddings call. The second return value reports whether the
// failure is worth retrying.
func (o *OpenAIEmbedder) post(ctx context.Context, body []byte, want int) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("embeddings call failed (%d): %s", resp.StatusCode, apiErrorMessage(data))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, false, err
	}
	if len(parsed.Data) != want {
		return nil, false, fmt.Errorf("embeddings call returned %d vectors for %d inputs", len(parsed.Data), want)
	}

	// Responses are index-addressed, not order-guaranteed.
	out := make([][]float32, want)
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= want || len(d.Embedding) == 0 {
			return nil, false, fmt.Errorf("embeddings call returned a malformed vector at index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, false, fmt.Errorf("embeddings call returned no vector for input %d", i)
		}
	}
	return out, false, nil
}

func apiErrorMessage(data []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && strings.TrimSpace(body.Error.Message) != "" {
		return strings.TrimSpace(body.Error.Message)
	}
	return strings.TrimSpace(string(data))
}

func waitOrCancel(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
