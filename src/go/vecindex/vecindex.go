// Package vecindex stores vector documents and answers k-nearest-neighbor
// queries by cosine similarity. Backends are selected by ordered preference:
// sqlite-vec (columnar, the primary engine), then FAISS, then the in-memory
// brute-force scan that is always available. All backends share one
// contract: Upsert replaces the entire index contents, and Search returns
// hits with monotonically decreasing scores.
package vecindex

import (
	"errors"

	"go.uber.org/zap"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// DefaultTopK is the search depth used when the caller passes k <= 0.
const DefaultTopK = 8

// Index is the vector index contract shared by every backend.
type Index interface {
	// Upsert replaces the entire index contents with docs. There are no
	// incremental add/delete semantics; a build hands over its full
	// vector set or nothing.
	Upsert(docs []types.VectorDocument) error

	// Search returns up to k hits ranked by descending similarity score.
	Search(query []float32, k int) ([]types.SearchHit, error)

	// IsReady reports whether the index holds a usable vector set.
	IsReady() bool

	// Backend names the active implementation.
	Backend() string

	// Close releases backend resources.
	Close() error
}

// Config selects the index backend.
type Config struct {
	// Backend preference: "auto" walks the preference order, or pin one
	// of "sqlite-vec", "faiss", "brute-force".
	Backend string `yaml:"backend"`
}

// DefaultConfig prefers automatic backend selection.
func DefaultConfig() Config {
	return Config{Backend: "auto"}
}

// Open selects an index backend. Initialization failures of the preferred
// engines are backend-unavailable conditions, not errors: Open logs them
// and falls through, terminating at the brute-force scan which cannot
// fail. Pinned backends other than brute-force may still return an error.
func Open(cfg Config, logger *zap.Logger) (Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "sqlite-vec":
		return NewSQLiteVecIndex()
	case "faiss":
		return NewFAISSIndex()
	case "brute-force":
		return NewBruteForceIndex(), nil
	}

	if idx, err := NewSQLiteVecIndex(); err == nil {
		logger.Info("vector index backend ready", zap.String("backend", idx.Backend()))
		return idx, nil
	} else if !errors.Is(err, types.ErrBackendUnavailable) {
		logger.Warn("sqlite-vec index failed to initialize", zap.Error(err))
	}

	if idx, err := NewFAISSIndex(); err == nil {
		logger.Info("vector index backend ready", zap.String("backend", idx.Backend()))
		return idx, nil
	} else if !errors.Is(err, types.ErrBackendUnavailable) {
		logger.Warn("faiss index failed to initialize", zap.Error(err))
	}

	logger.Info("vector index backend ready", zap.String("backend", "brute-force"))
	return NewBruteForceIndex(), nil
}
