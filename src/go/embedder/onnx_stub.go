//go:build !onnx
// +build !onnx

package embedder

import (
	"fmt"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// NewONNXEmbedder reports the model backend as unavailable when the binary
// was built without the onnx tag. Open falls through to the hash backend.
func NewONNXEmbedder(_ Config) (Embedder, error) {
	return nil, fmt.Errorf("onnx embedder requires a build with the onnx tag: %w", types.ErrBackendUnavailable)
}
