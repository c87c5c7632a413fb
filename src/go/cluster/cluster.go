// Package cluster partitions a vector set into similarity clusters.
package cluster

import (
	"fmt"
	"sort"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
	"github.com/arvind3/qa-intelligence-platform/src/go/vecmath"
)

// DefaultThreshold is the minimum cosine similarity (inclusive) for a
// vector to join a cluster seed.
const DefaultThreshold = 0.9

// ByThreshold groups documents with seed-based single-link semantics.
//
// Documents are visited in input order. Each unvisited document seeds a new
// cluster and absorbs every remaining unvisited document whose similarity
// to the seed is >= threshold. Membership is decided against the seed only,
// never against absorbed members: a document similar to an absorbed member
// but not to the seed lands in a later cluster, and a document claimed by
// an earlier seed is never reconsidered. This keeps the pass O(n²) with no
// transitive-closure cost and is the contract dependents are written
// against.
//
// The result is a partition of the input (every document in exactly one
// cluster) sorted descending by member size. Tie order between equal-size
// clusters is stable but not part of the contract. Empty input yields an
// empty, non-nil slice.
func ByThreshold(docs []types.VectorDocument, threshold float64) []types.Cluster {
	visited := make(map[string]struct{}, len(docs))
	clusters := make([]types.Cluster, 0)

	for _, seed := range docs {
		if _, ok := visited[seed.ID]; ok {
			continue
		}
		visited[seed.ID] = struct{}{}
		members := []types.VectorDocument{seed}

		for _, other := range docs {
			if _, ok := visited[other.ID]; ok {
				continue
			}
			if vecmath.Cosine(seed.Vec, other.Vec) >= threshold {
				visited[other.ID] = struct{}{}
				members = append(members, other)
			}
		}

		clusters = append(clusters, types.Cluster{Docs: members})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Size() > clusters[j].Size()
	})
	return clusters
}

// Meta summarizes a selected cluster for display.
type Meta struct {
	SelectedDisplayIndex int    `json:"selected_display_index"` // 1-based, 0 when nothing is selected
	TotalClusterCount    int    `json:"total_cluster_count"`
	SizeLabel            string `json:"size_label"`
	FamilyName           string `json:"family_name"`
}

// BuildMeta formats cluster selection state. selectedIndex is 0-based;
// pass a negative value for "no selection".
func BuildMeta(selectedIndex, totalClusterCount, selectedClusterSize, totalPopulation int, familyName string) Meta {
	displayIndex := 0
	if selectedIndex >= 0 {
		displayIndex = selectedIndex + 1
	}
	if familyName == "" {
		familyName = "Unknown family"
	}
	return Meta{
		SelectedDisplayIndex: displayIndex,
		TotalClusterCount:    totalClusterCount,
		SizeLabel:            fmt.Sprintf("%d/%d", selectedClusterSize, totalPopulation),
		FamilyName:           familyName,
	}
}
