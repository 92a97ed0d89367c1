package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps each text to a fixed vector by lookup.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

func TestMemoryIndex(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	err := idx.Add(ctx, []VectorItem{
		{ID: "a", Text: "grocery store", Embedding: []float32{1, 0, 0}},
		{ID: "b", Text: "tailor shop", Embedding: []float32{0, 1, 0}},
		{ID: "c", Text: "street vendor", Embedding: []float32{0.9, 0.1, 0}},
	})
	require.NoError(t, err)

	t.Run("Returns nearest items in score order", func(t *testing.T) {
		got, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "c", got[1].ID)
	})

	t.Run("TopK larger than corpus returns everything", func(t *testing.T) {
		got, err := idx.Search(ctx, []float32{0, 1, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}

func TestRetrieverContext(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"doc one": {1, 0, 0},
		"doc two": {0, 1, 0},
		"query":   {1, 0.1, 0},
	}}

	idx := NewMemoryIndex()
	r := NewRetriever(emb, idx, 1, nil)
	require.NoError(t, r.Ingest(ctx, []string{"doc one", "doc two"}))

	t.Run("Joins nearest documents", func(t *testing.T) {
		got := r.Context(ctx, "query")
		assert.Equal(t, "doc one", got)
	})

	t.Run("Embedding failure degrades to empty context", func(t *testing.T) {
		got := r.Context(ctx, "unknown query")
		assert.Empty(t, got)
	})
}

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.csv")
	csv := "flow_id,category,subcategory,description,tags\n" +
		"12,Retail,Grocery,Neighborhood store,food\n" +
		"13,Services,,Mobile repair,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	docs, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Flow ID: 12, Category: Retail, Subcategory: Grocery, Description: Neighborhood store, Tags: food", docs[0])
	assert.Equal(t, "Flow ID: 13, Category: Services, Subcategory: N/A, Description: Mobile repair, Tags: N/A", docs[1])

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := LoadCorpus(filepath.Join(dir, "absent.csv"))
		assert.Error(t, err)
	})
}
