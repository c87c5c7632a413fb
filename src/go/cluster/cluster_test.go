package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

func doc(id string, vec ...float32) types.VectorDocument {
	return types.VectorDocument{ID: id, Vec: vec}
}

func TestByThresholdEmptyInput(t *testing.T) {
	clusters := ByThreshold(nil, DefaultThreshold)
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestByThresholdAllIdentical(t *testing.T) {
	docs := []types.VectorDocument{
		doc("a", 1, 0), doc("b", 1, 0), doc("c", 1, 0), doc("d", 1, 0),
	}
	clusters := ByThreshold(docs, DefaultThreshold)

	require.Len(t, clusters, 1)
	assert.Equal(t, 4, clusters[0].Size())
}

func TestByThresholdPartitionProperty(t *testing.T) {
	// a mix of tight groups and loners
	var docs []types.VectorDocument
	for i := 0; i < 10; i++ {
		docs = append(docs, doc(fmt.Sprintf("g1-%d", i), 1, 0, 0))
	}
	for i := 0; i < 6; i++ {
		docs = append(docs, doc(fmt.Sprintf("g2-%d", i), 0, 1, 0))
	}
	docs = append(docs, doc("lone-1", 0, 0, 1), doc("lone-2", 1, 1, 1))

	clusters := ByThreshold(docs, 0.95)

	seen := make(map[string]int)
	for _, c := range clusters {
		for _, d := range c.Docs {
			seen[d.ID]++
		}
	}
	require.Len(t, seen, len(docs), "every document appears in a cluster")
	for id, n := range seen {
		assert.Equal(t, 1, n, "document %s must appear exactly once", id)
	}
}

func TestByThresholdSortedDescending(t *testing.T) {
	var docs []types.VectorDocument
	for i := 0; i < 3; i++ {
		docs = append(docs, doc(fmt.Sprintf("small-%d", i), 0, 1))
	}
	for i := 0; i < 7; i++ {
		docs = append(docs, doc(fmt.Sprintf("big-%d", i), 1, 0))
	}

	clusters := ByThreshold(docs, 0.99)
	require.Len(t, clusters, 2)
	assert.Equal(t, 7, clusters[0].Size(), "largest cluster first")
	assert.Equal(t, 3, clusters[1].Size())
}

func TestByThresholdInclusiveBoundary(t *testing.T) {
	// cos(45°) ≈ 0.7071 between (1,0) and (1,1)/√2; a threshold exactly at
	// that similarity must still absorb the second vector.
	a := doc("a", 1, 0)
	b := doc("b", 0.70710678, 0.70710678)

	sim := 0.7071067 // just below the actual similarity
	clusters := ByThreshold([]types.VectorDocument{a, b}, sim)
	require.Len(t, clusters, 1, "similarity >= threshold is inclusive")
}

func TestByThresholdSeedBasedSemantics(t *testing.T) {
	// b is similar to seed a, c is similar to b but not to a: c must end
	// up outside a's cluster because membership is checked against the
	// seed only.
	a := doc("a", 1, 0)
	b := doc("b", 0.92, 0.39)  // cos(a,b) ≈ 0.92
	c := doc("c", 0.70, 0.71)  // cos(a,c) ≈ 0.70, cos(b,c) ≈ 0.92

	clusters := ByThreshold([]types.VectorDocument{a, b, c}, 0.9)
	require.Len(t, clusters, 2)
	assert.Equal(t, 2, clusters[0].Size())
	assert.Equal(t, "c", clusters[1].Docs[0].ID)
}

func TestThresholdMonotonicity(t *testing.T) {
	// Raising the threshold must never grow the largest cluster.
	var docs []types.VectorDocument
	for i := 0; i < 8; i++ {
		docs = append(docs, doc(fmt.Sprintf("x-%d", i), 1, 0, 0))
	}
	for i := 0; i < 5; i++ {
		docs = append(docs, doc(fmt.Sprintf("y-%d", i), 0.95, 0.31, 0))
	}
	for i := 0; i < 3; i++ {
		docs = append(docs, doc(fmt.Sprintf("z-%d", i), 0, 0, 1))
	}

	prev := len(docs) + 1
	for _, threshold := range []float64{0.5, 0.8, 0.9, 0.97, 0.999} {
		clusters := ByThreshold(docs, threshold)
		require.NotEmpty(t, clusters)
		largest := clusters[0].Size()
		assert.LessOrEqual(t, largest, prev,
			"threshold %v produced a larger cluster than a looser threshold", threshold)
		prev = largest
	}
}

func TestBuildMeta(t *testing.T) {
	m := BuildMeta(23, 206, 136, 10000, "Search: recovery on web")
	assert.Equal(t, 24, m.SelectedDisplayIndex)
	assert.Equal(t, 206, m.TotalClusterCount)
	assert.Equal(t, "136/10000", m.SizeLabel)
	assert.Equal(t, "Search: recovery on web", m.FamilyName)
}

func TestBuildMetaNoSelection(t *testing.T) {
	m := BuildMeta(-1, 3, 0, 100, "")
	assert.Zero(t, m.SelectedDisplayIndex)
	assert.Equal(t, "Unknown family", m.FamilyName)
	assert.Equal(t, "0/100", m.SizeLabel)
}
