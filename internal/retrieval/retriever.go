// Package retrieval provides the historical-context lookup backing variable
// and questionnaire generation: a small corpus of past assessment flows is
// embedded once, and each generation step retrieves the most similar entries
// as supplementary prompt context. Retrieval failures degrade to empty
// context and never block generation.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorItem is one embedded corpus entry.
type VectorItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Index stores embedded corpus entries and answers similarity queries.
type Index interface {
	Add(ctx context.Context, items []VectorItem) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]VectorItem, error)
}

// Retriever fetches supplementary context for a query.
type Retriever struct {
	embedder Embedder
	index    Index
	topK     int
	logger   *slog.Logger
}

func NewRetriever(embedder Embedder, index Index, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		logger:   logger,
	}
}

// Ingest embeds the corpus documents and adds them to the index.
func (r *Retriever) Ingest(ctx context.Context, docs []string) error {
	if len(docs) == 0 {
		return nil
	}
	vectors, err := r.embedder.Embed(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(docs))
	}
	items := make([]VectorItem, len(docs))
	for i, doc := range docs {
		items[i] = VectorItem{
			ID:        fmt.Sprintf("corpus-%d", i),
			Text:      doc,
			Embedding: vectors[i],
		}
	}
	return r.index.Add(ctx, items)
}

// Context returns the most similar corpus entries joined into a single
// prompt block. Any failure is logged and returns empty context; generation
// proceeds without historical grounding.
func (r *Retriever) Context(ctx context.Context, query string) string {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.logger.Warn("context retrieval skipped: embedding failed", "error", err)
		return ""
	}
	items, err := r.index.Search(ctx, vectors[0], r.topK)
	if err != nil {
		r.logger.Warn("context retrieval skipped: search failed", "error", err)
		return ""
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Text) != "" {
			texts = append(texts, item.Text)
		}
	}
	return strings.Join(texts, "\n")
}
