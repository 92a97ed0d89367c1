package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEmbeddingRequest(t *testing.T, r *http.Request) embeddingRequest {
	t.Helper()
	var req embeddingRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func writeEmbeddings(w http.ResponseWriter, vectors map[int][]float32) {
	type datum struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}
	var data []datum
	for i, v := range vectors {
		data = append(data, datum{Index: i, Embedding: v})
	}
	json.NewEncoder(w).Encode(map[string]any{"data": data}) //nolint:errcheck
}

func newTestEmbedder(url string) *OpenAIEmbedder {
	e := NewOpenAIEmbedder("test-key", "text-embedding-3-small", 2, url)
	e.backoff = time.Millisecond
	return e
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		req := decodeEmbeddingRequest(t, r)
		require.Len(t, req.Input, 2)
		// Answer out of order; the client must reassemble by index.
		writeEmbeddings(w, map[int][]float32{1: {0, 1}, 0: {1, 0}})
	}))
	defer srv.Close()

	vectors, err := newTestEmbedder(srv.URL).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestOpenAIEmbedderRetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		decodeEmbeddingRequest(t, r)
		writeEmbeddings(w, map[int][]float32{0: {1, 1}})
	}))
	defer srv.Close()

	vectors, err := newTestEmbedder(srv.URL).Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, [][]float32{{1, 1}}, vectors)
}

func TestOpenAIEmbedderDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid model"}}`)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
	assert.Equal(t, 1, calls)
}

func TestOpenAIEmbedderRejectsShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, map[int][]float32{0: {1, 0}})
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 inputs")
}

func TestOpenAIEmbedderSplitsLargeCorpus(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		req := decodeEmbeddingRequest(t, r)
		vectors := make(map[int][]float32, len(req.Input))
		for i := range req.Input {
			vectors[i] = []float32{float32(i), 1}
		}
		writeEmbeddings(w, vectors)
	}))
	defer srv.Close()

	texts := make([]string, embedBatchSize+10)
	for i := range texts {
		texts[i] = fmt.Sprintf("doc %d", i)
	}

	vectors, err := newTestEmbedder(srv.URL).Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Len(t, vectors, len(texts))
}
