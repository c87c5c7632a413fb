//go:build !(faiss && cgo)
// +build !faiss !cgo

package vecindex

import (
	"fmt"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// NewFAISSIndex reports the FAISS backend as unavailable when the binary
// was built without the faiss tag or without CGO.
func NewFAISSIndex() (Index, error) {
	return nil, fmt.Errorf("faiss index requires a cgo build with the faiss tag and the FAISS library installed: %w", types.ErrBackendUnavailable)
}
