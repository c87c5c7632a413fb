// Package embedder maps test-case text to fixed-dimension vectors through a
// pluggable backend. The model backend (ONNX, all-MiniLM-L6-v2) is attempted
// first; when it cannot initialize the deterministic hash backend takes over
// so that embedding never fails outright.
package embedder

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// Embedder converts text to vectors. Implementations must return vectors of
// a fixed dimension per instance.
type Embedder interface {
	// Embed converts a single text to a vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts texts to vectors, preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// Name identifies the active backend.
	Name() string

	// Close releases backend resources.
	Close() error
}

// Config selects and tunes the embedding backend.
type Config struct {
	// Backend preference: "model" tries ONNX first, "hash" skips straight
	// to the deterministic fallback.
	Backend string `yaml:"backend"`

	// ModelPath points at the ONNX model file for the model backend.
	ModelPath string `yaml:"model_path"`

	// HashDimensions sizes the fallback vectors. Defaults to 128.
	HashDimensions int `yaml:"hash_dimensions"`
}

// DefaultConfig returns the backend preferences used when the host supplies
// nothing.
func DefaultConfig() Config {
	return Config{
		Backend:        "model",
		HashDimensions: hashDefaultDimensions,
	}
}

// Open selects an embedder by ordered preference: the model backend when
// requested and available, otherwise the hash fallback. Backend-unavailable
// conditions are not errors; Open logs the degradation and continues, so the
// returned embedder is always usable.
func Open(cfg Config, logger *zap.Logger) Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Backend != "hash" {
		model, err := NewONNXEmbedder(cfg)
		if err == nil {
			logger.Info("embedding backend ready",
				zap.String("backend", model.Name()),
				zap.Int("dimensions", model.Dimensions()))
			return model
		}
		if !errors.Is(err, types.ErrBackendUnavailable) {
			logger.Warn("model embedder failed to initialize", zap.Error(err))
		}
		logger.Info("falling back to hash embedding backend")
	}

	hash := NewHashEmbedder(cfg.HashDimensions)
	logger.Info("embedding backend ready",
		zap.String("backend", hash.Name()),
		zap.Int("dimensions", hash.Dimensions()))
	return hash
}
