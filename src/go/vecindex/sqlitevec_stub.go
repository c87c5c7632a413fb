//go:build !(sqlite_vec && cgo)
// +build !sqlite_vec !cgo

package vecindex

import (
	"fmt"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// NewSQLiteVecIndex reports the sqlite-vec backend as unavailable when the
// binary was built without the sqlite_vec tag or without CGO.
func NewSQLiteVecIndex() (Index, error) {
	return nil, fmt.Errorf("sqlite-vec index requires a cgo build with the sqlite_vec tag: %w", types.ErrBackendUnavailable)
}
