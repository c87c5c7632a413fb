package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

func TestComputeKpisEmpty(t *testing.T) {
	kpis := ComputeKpis(nil)
	assert.Equal(t, types.Kpis{}, kpis)
}

func TestComputeKpisExactDuplicates(t *testing.T) {
	rows := []types.TestCase{
		{ID: "A", Title: "Auth: login works", Description: "verify login", Steps: "open | submit"},
		{ID: "A-copy", Title: "Auth: login works", Description: "verify login", Steps: "open | submit"},
		{ID: "B", Title: "Catalog: browse items", Description: "verify catalog browsing", Steps: "open | scroll"},
	}

	kpis := ComputeKpis(rows)
	assert.Equal(t, 3, kpis.TotalTests)
	assert.Equal(t, 1, kpis.ExactDuplicateGroups)
	assert.Greater(t, kpis.RedundancyScore, 0.0)
}

func TestComputeKpisNearDuplicates(t *testing.T) {
	rows := []types.TestCase{
		{ID: "n1", Title: "Auth validate login with valid credentials web", Steps: "a"},
		{ID: "n2", Title: "Auth validate login with valid credentials mobile", Steps: "b"},
		{ID: "x", Title: "Payments process refund for cancelled order", Steps: "c"},
	}

	kpis := ComputeKpis(rows)
	assert.Equal(t, 0, kpis.ExactDuplicateGroups, "different steps mean different exact keys")
	assert.Equal(t, 1, kpis.NearDuplicateGroups)
	// 2 near-duplicate members over 3 rows
	assert.InDelta(t, 66.7, kpis.RedundancyScore, 0.01)
}

func TestComputeKpisDistinctRows(t *testing.T) {
	rows := []types.TestCase{
		{ID: "1", Title: "Auth: login", Description: "happy path login", Steps: "s"},
		{ID: "2", Title: "Catalog: browse", Description: "scroll the item grid", Steps: "s"},
		{ID: "3", Title: "Checkout: pay", Description: "complete a card payment", Steps: "s"},
	}

	kpis := ComputeKpis(rows)
	assert.Equal(t, 0, kpis.ExactDuplicateGroups)
	assert.Equal(t, 0, kpis.NearDuplicateGroups)
	assert.Equal(t, 0.0, kpis.RedundancyScore)
}

func TestComputeKpisRedundancyCapped(t *testing.T) {
	rows := make([]types.TestCase, 4)
	for i := range rows {
		rows[i] = types.TestCase{ID: fmt.Sprintf("d%d", i), Title: "Same: thing", Description: "same", Steps: "same"}
	}

	kpis := ComputeKpis(rows)
	assert.Equal(t, 100.0, kpis.RedundancyScore)
}

func TestEntropyScoreBounds(t *testing.T) {
	// one feature only: zero diversity
	mono := []types.TestCase{
		{ID: "1", Title: "Auth: login", Steps: "a"},
		{ID: "2", Title: "Auth: logout", Steps: "b"},
	}
	assert.Equal(t, 0.0, ComputeKpis(mono).EntropyScore)

	// two features split evenly: maximal diversity
	balanced := []types.TestCase{
		{ID: "1", Title: "Auth: login", Steps: "a"},
		{ID: "2", Title: "Catalog: browse", Steps: "b"},
	}
	assert.Equal(t, 100.0, ComputeKpis(balanced).EntropyScore)

	// skewed distribution lands strictly in between
	skewed := []types.TestCase{
		{ID: "1", Title: "Auth: login", Steps: "a"},
		{ID: "2", Title: "Auth: logout", Steps: "b"},
		{ID: "3", Title: "Auth: reset", Steps: "c"},
		{ID: "4", Title: "Catalog: browse", Steps: "d"},
	}
	score := ComputeKpis(skewed).EntropyScore
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 100.0)
}

func TestFeature(t *testing.T) {
	assert.Equal(t, "Auth", Feature(types.TestCase{Title: "Auth: login"}))
	assert.Equal(t, "No colon here", Feature(types.TestCase{Title: "No colon here"}))
	assert.Equal(t, "unknown", Feature(types.TestCase{Title: ""}))
	assert.Equal(t, "unknown", Feature(types.TestCase{Title: ": leading colon"}))
}

func TestOrphanTagRatio(t *testing.T) {
	rows := []types.TestCase{
		{ID: "1", Title: "A: x", Tags: nil},
		{ID: "2", Title: "B: x", Tags: []string{"Auth"}},
		{ID: "3", Title: "C: x", Tags: []string{"auth", "smoke"}},
		{ID: "4", Title: "D: x", Tags: []string{"regression"}},
	}

	kpis := ComputeKpis(rows)
	assert.Equal(t, 50.0, kpis.OrphanTagRatio, "missing tags and mixed-case tags both count")
}

func TestTopFamilyGroups(t *testing.T) {
	rows := []types.TestCase{
		{Title: "Auth validate login on web"},
		{Title: "Auth validate login on mobile"},
		{Title: "Auth validate login via api"},
		{Title: "Catalog browse items slowly"},
		{Title: "Catalog browse items quickly"},
		{Title: "Checkout pay with card"},
	}

	groups := TopFamilyGroups(rows)
	require.NotEmpty(t, groups)
	assert.Equal(t, types.FamilyGroup{Name: "auth validate login", Count: 3}, groups[0])
	assert.Equal(t, types.FamilyGroup{Name: "catalog browse items", Count: 2}, groups[1])
}

func TestTopFamilyGroupsLimitAndOrder(t *testing.T) {
	var rows []types.TestCase
	for i := 0; i < 12; i++ {
		rows = append(rows, types.TestCase{Title: fmt.Sprintf("Feature%02d unique family name", i)})
	}

	groups := TopFamilyGroups(rows)
	assert.Len(t, groups, 8)
	for i := 1; i < len(groups); i++ {
		if groups[i-1].Count == groups[i].Count {
			assert.Less(t, groups[i-1].Name, groups[i].Name, "ties break on name")
		}
	}
}

func TestKpisRoundedToOneDecimal(t *testing.T) {
	rows := []types.TestCase{
		{ID: "1", Title: "Auth: login", Tags: []string{"ok"}, Steps: "a"},
		{ID: "2", Title: "Catalog: browse", Tags: []string{"ok"}, Steps: "b"},
		{ID: "3", Title: "Checkout: pay", Steps: "c"},
	}

	kpis := ComputeKpis(rows)
	for _, v := range []float64{kpis.RedundancyScore, kpis.EntropyScore, kpis.OrphanTagRatio} {
		assert.Equal(t, v, float64(int(v*10+0.5))/10, "one decimal place")
	}
}
