package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory Index using exhaustive cosine similarity. The
// corpus is a few hundred entries, so a linear scan per query is fine.
type MemoryIndex struct {
	mu    sync.RWMutex
	items []VectorItem
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{items: []VectorItem{}}
}

func (m *MemoryIndex) Add(ctx context.Context, items []VectorItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, queryVector []float32, topK int) ([]VectorItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type candidate struct {
		item  VectorItem
		score float32
	}
	candidates := make([]candidate, 0, len(m.items))
	for _, item := range m.items {
		candidates = append(candidates, candidate{
			item:  item,
			score: CosineSimilarity(queryVector, item.Embedding),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	result := make([]VectorItem, len(candidates))
	for i, c := range candidates {
		result[i] = c.item
	}
	return result, nil
}

// CosineSimilarity scores two vectors; mismatched or empty vectors score zero.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(magA))) * float32(math.Sqrt(float64(magB))))
}
