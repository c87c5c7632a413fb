package embedder

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/arvind3/qa-intelligence-platform/src/go/vecmath"
)

const hashDefaultDimensions = 128

// HashEmbedder is the deterministic fallback backend: each whitespace token
// is hashed with 32-bit FNV-1a into a bucket, bucket counts are accumulated
// and the vector is L2-normalized. Identical text always yields a
// bit-identical vector, and Embed never returns an error.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates the hash backend. Non-positive dimensions fall
// back to the 128-bucket default.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = hashDefaultDimensions
	}
	return &HashEmbedder{dim: dim}
}

// Embed implements Embedder. The context is accepted for interface symmetry;
// hashing is too cheap to interrupt.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(e.dim)]++
	}
	return vecmath.Normalize(vec), nil
}

// EmbedBatch implements Embedder.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions implements Embedder.
func (e *HashEmbedder) Dimensions() int { return e.dim }

// Name implements Embedder.
func (e *HashEmbedder) Name() string { return "fallback-hash" }

// Close implements Embedder.
func (e *HashEmbedder) Close() error { return nil }
