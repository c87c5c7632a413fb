// Package analytics computes deterministic quality KPIs over a raw dataset.
// Everything here works from text alone; no embedding build is required.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/arvind3/qa-intelligence-platform/src/go/textnorm"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

const (
	// bucketTokenCount is how many leading normalized tokens form a
	// near-duplicate candidate bucket.
	bucketTokenCount = 5

	// nearDuplicateJaccard is the token-overlap threshold above which a
	// pair counts as a near duplicate. Strictly greater-than.
	nearDuplicateJaccard = 0.72
)

// ComputeKpis derives the full KPI set for a dataset. An empty dataset
// yields a zero-valued struct rather than NaN or a division error.
//
// The near-duplicate member estimate adds a flat 2 for the first qualifying
// pair found in each bucket. This overcounts members that appear in several
// qualifying buckets and undercounts buckets with more than two near
// duplicates; it is a documented approximation kept for score stability,
// not a bug.
func ComputeKpis(rows []types.TestCase) types.Kpis {
	if len(rows) == 0 {
		return types.Kpis{}
	}

	keyCounts := make(map[string]int, len(rows))
	tokenSets := make([]map[string]struct{}, len(rows))
	for i, r := range rows {
		keyCounts[textnorm.TextKey(r)]++
		tokenSets[i] = textnorm.TokenSet(r)
	}

	exactGroups := 0
	exactMembers := 0
	for _, c := range keyCounts {
		if c > 1 {
			exactGroups++
			exactMembers += c
		}
	}

	// Cheap near-duplicate pass: bucket by leading tokens, then pairwise
	// Jaccard inside each bucket until the first qualifying pair.
	buckets := make(map[string][]int)
	for i, r := range rows {
		key := textnorm.BucketKey(r, bucketTokenCount)
		buckets[key] = append(buckets[key], i)
	}

	nearGroups := 0
	nearMembers := 0
	for _, indices := range buckets {
		if len(indices) < 2 {
			continue
		}
		if bucketHasNearPair(tokenSets, indices) {
			nearGroups++
			nearMembers += 2
		}
	}

	redundancy := math.Min(100, float64(exactMembers+nearMembers)/float64(len(rows))*100)

	return types.Kpis{
		TotalTests:           len(rows),
		ExactDuplicateGroups: exactGroups,
		NearDuplicateGroups:  nearGroups,
		RedundancyScore:      round1(redundancy),
		EntropyScore:         round1(entropyScore(rows)),
		OrphanTagRatio:       round1(orphanTagRatio(rows)),
	}
}

func bucketHasNearPair(tokenSets []map[string]struct{}, indices []int) bool {
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if textnorm.Jaccard(tokenSets[indices[i]], tokenSets[indices[j]]) > nearDuplicateJaccard {
				return true
			}
		}
	}
	return false
}

// entropyScore measures feature diversity: the normalized Shannon entropy of
// the distribution of title feature prefixes, scaled to 0-100.
func entropyScore(rows []types.TestCase) float64 {
	featureCounts := make(map[string]int)
	for _, r := range rows {
		featureCounts[Feature(r)]++
	}

	entropy := 0.0
	for _, c := range featureCounts {
		p := float64(c) / float64(len(rows))
		entropy -= p * math.Log2(p)
	}

	maxEntropy := math.Log2(math.Max(float64(len(featureCounts)), 2))
	return entropy / maxEntropy * 100
}

// Feature extracts the inferred feature category of a row: the title text
// before the first ':', or "unknown" when the title yields nothing.
func Feature(tc types.TestCase) string {
	feature, _, _ := strings.Cut(tc.Title, ":")
	if feature == "" {
		return "unknown"
	}
	return feature
}

// orphanTagRatio is the percentage of rows whose tags are missing or carry
// at least one non-lowercase tag.
func orphanTagRatio(rows []types.TestCase) float64 {
	orphans := 0
	for _, r := range rows {
		if len(r.Tags) == 0 {
			orphans++
			continue
		}
		for _, tag := range r.Tags {
			if tag != strings.ToLower(tag) {
				orphans++
				break
			}
		}
	}
	return float64(orphans) / float64(len(rows)) * 100
}

// TopFamilyGroups returns the eight largest title families, where a family
// key is the first three normalized title tokens. Ties keep map iteration
// out of the result by sorting on name as a secondary key.
func TopFamilyGroups(rows []types.TestCase) []types.FamilyGroup {
	counts := make(map[string]int)
	for _, r := range rows {
		words := strings.Fields(textnorm.Normalize(r.Title))
		if len(words) > 3 {
			words = words[:3]
		}
		counts[strings.Join(words, " ")]++
	}

	groups := make([]types.FamilyGroup, 0, len(counts))
	for name, count := range counts {
		groups = append(groups, types.FamilyGroup{Name: name, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Name < groups[j].Name
	})

	if len(groups) > 8 {
		groups = groups[:8]
	}
	return groups
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
