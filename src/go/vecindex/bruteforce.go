package vecindex

import (
	"sort"
	"sync"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
	"github.com/arvind3/qa-intelligence-platform/src/go/vecmath"
)

// BruteForceIndex is the fallback backend: a linear cosine scan over every
// stored vector. O(n) per query, exact, and available in every environment.
type BruteForceIndex struct {
	mu   sync.RWMutex
	docs []types.VectorDocument
}

// NewBruteForceIndex creates an empty brute-force index.
func NewBruteForceIndex() *BruteForceIndex {
	return &BruteForceIndex{}
}

// Upsert implements Index.
func (b *BruteForceIndex) Upsert(docs []types.VectorDocument) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = docs
	return nil
}

// Search implements Index.
func (b *BruteForceIndex) Search(query []float32, k int) ([]types.SearchHit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if k <= 0 {
		k = DefaultTopK
	}

	hits := make([]types.SearchHit, 0, len(b.docs))
	for _, doc := range b.docs {
		hits = append(hits, types.SearchHit{
			Doc:   doc,
			Score: float32(vecmath.Cosine(query, doc.Vec)),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// IsReady implements Index.
func (b *BruteForceIndex) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs) > 0
}

// Backend implements Index.
func (b *BruteForceIndex) Backend() string { return "brute-force" }

// Close implements Index.
func (b *BruteForceIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = nil
	return nil
}
