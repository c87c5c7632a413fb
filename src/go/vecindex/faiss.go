//go:build faiss && cgo
// +build faiss,cgo

package vecindex

import (
	"fmt"
	"sync"

	faiss "github.com/DataIntelligenceCrew/go-faiss"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
	"github.com/arvind3/qa-intelligence-platform/src/go/vecmath"
)

// FAISSIndex backs the contract with a flat L2 FAISS index over normalized
// vectors. For unit vectors L2 distance maps to cosine similarity as
// 1 - d²/2, which keeps scores comparable with the other backends.
type FAISSIndex struct {
	mu    sync.RWMutex
	index faiss.Index
	docs  []types.VectorDocument
	dim   int
}

// NewFAISSIndex verifies the FAISS library is usable. The index itself is
// created lazily at Upsert time because the dimension is fixed per build.
func NewFAISSIndex() (Index, error) {
	probe, err := faiss.NewIndexFlatL2(1)
	if err != nil {
		return nil, fmt.Errorf("faiss probe: %v: %w", err, types.ErrBackendUnavailable)
	}
	probe.Delete()
	return &FAISSIndex{}, nil
}

// Upsert implements Index. FAISS has no replace operation, so the previous
// index is discarded and rebuilt.
func (f *FAISSIndex) Upsert(docs []types.VectorDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index != nil {
		f.index.Delete()
		f.index = nil
	}
	f.docs = docs
	f.dim = 0
	if len(docs) == 0 {
		return nil
	}

	dim := len(docs[0].Vec)
	flat := make([]float32, 0, len(docs)*dim)
	for _, doc := range docs {
		if len(doc.Vec) != dim {
			return fmt.Errorf("vector dimension mismatch at %s: expected %d, got %d", doc.ID, dim, len(doc.Vec))
		}
		flat = append(flat, vecmath.Normalize(doc.Vec)...)
	}

	index, err := faiss.NewIndexFlatL2(dim)
	if err != nil {
		return fmt.Errorf("create faiss index: %w", err)
	}
	if err := index.Add(flat); err != nil {
		index.Delete()
		return fmt.Errorf("add vectors: %w", err)
	}

	f.index = index
	f.dim = dim
	return nil
}

// Search implements Index.
func (f *FAISSIndex) Search(query []float32, k int) ([]types.SearchHit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if k <= 0 {
		k = DefaultTopK
	}
	if f.index == nil || len(f.docs) == 0 {
		return []types.SearchHit{}, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", f.dim, len(query))
	}

	distances, labels, err := f.index.Search(vecmath.Normalize(query), int64(k))
	if err != nil {
		return nil, fmt.Errorf("faiss search: %w", err)
	}

	hits := make([]types.SearchHit, 0, k)
	for i := 0; i < len(labels) && labels[i] != -1; i++ {
		idx := int(labels[i])
		if idx < 0 || idx >= len(f.docs) {
			continue
		}
		similarity := 1 - distances[i]*distances[i]/2
		if similarity < -1 {
			similarity = -1
		}
		hits = append(hits, types.SearchHit{Doc: f.docs[idx], Score: similarity})
	}
	return hits, nil
}

// IsReady implements Index.
func (f *FAISSIndex) IsReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.docs) > 0
}

// Backend implements Index.
func (f *FAISSIndex) Backend() string { return "faiss" }

// Close implements Index.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		f.index.Delete()
		f.index = nil
	}
	f.docs = nil
	return nil
}
