// Package synthetic generates deterministic-seedable test-case datasets with
// planted quality defects. The generated population carries roughly 9% exact
// duplicates, 18% near duplicates and 20% parameterized family variants, so
// redundancy analytics always have something to find.
package synthetic

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

var features = []string{
	"Authentication", "Checkout", "Catalog", "Search",
	"Payments", "Orders", "Profile", "Notifications",
	"Admin", "Reporting", "Returns", "Inventory",
}

var scenarios = []string{
	"happy path", "negative path", "edge case",
	"permissions", "recovery", "validation",
}

var channels = []string{"web", "mobile", "api"}

var locales = []string{"US", "EU", "IN", "APAC"}

var personas = []string{"guest", "new-user", "power-user", "admin"}

var synonyms = map[string][]string{
	"validate": {"verify", "confirm", "check"},
	"should":   {"must", "needs to", "is expected to"},
	"user":     {"customer", "buyer", "operator"},
	"error":    {"failure", "validation error", "rejection"},
}

// synonymKeys fixes map iteration order so identical seeds produce
// identical datasets.
var synonymKeys = []string{"validate", "should", "user", "error"}

// Generator produces synthetic datasets from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator builds a generator. The same seed always yields the same
// dataset.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces count rows: a base population of feature/scenario/channel
// cases, then overwritten slices of planted exact duplicates, mutated near
// duplicates and parameterized family variants.
func (g *Generator) Generate(count int) []types.TestCase {
	if count <= 0 {
		return []types.TestCase{}
	}

	rows := make([]types.TestCase, count)
	for i := range rows {
		rows[i] = g.baseCase(i)
	}

	exactCount := count * 9 / 100
	for i := 0; i < exactCount; i++ {
		src := rows[g.rng.Intn(count)]
		src.ID = fmt.Sprintf("TC-EX-%d", i)
		rows[i] = src
	}

	nearEnd := exactCount + count*18/100
	for i := exactCount; i < nearEnd; i++ {
		src := rows[g.rng.Intn(count)]
		src.ID = fmt.Sprintf("TC-ND-%d", i)
		src.Title = g.mutate(src.Title)
		src.Description = g.mutate(src.Description)
		src.Steps = g.mutate(src.Steps) + " | Optional business assertion"
		rows[i] = src
	}

	famEnd := nearEnd + count*20/100
	for i := nearEnd; i < famEnd; i++ {
		src := rows[g.rng.Intn(count)]
		locale := g.pick(locales)
		persona := g.pick(personas)
		src.ID = fmt.Sprintf("TC-FAM-%d", i)
		src.Title = fmt.Sprintf("%s [%s/%s]", src.Title, locale, persona)
		src.Description = fmt.Sprintf("%s Parameterization: locale=%s, persona=%s.",
			src.Description, locale, persona)
		src.Tags = uniqueTags(append(append([]string{}, src.Tags...),
			strings.ToLower(locale), persona))
		rows[i] = src
	}

	return rows
}

func (g *Generator) baseCase(i int) types.TestCase {
	feature := g.pick(features)
	scenario := g.pick(scenarios)
	channel := g.pick(channels)

	steps := []string{
		fmt.Sprintf("Open %s module on %s", feature, channel),
		fmt.Sprintf("Execute %s workflow with representative data", scenario),
		"Validate expected result and audit logs",
	}
	if g.rng.Float64() < 0.35 {
		steps = append(steps, "Verify telemetry and event tracking consistency")
	}
	if g.rng.Float64() < 0.22 {
		steps = append(steps, "Validate rollback/retry behavior under transient failures")
	}

	var tags []string
	switch weak := g.rng.Float64(); {
	case weak < 0.08:
		// intentionally untagged
	case weak < 0.22:
		tags = []string{strings.ToLower(feature), "Regression", "regression"}
	default:
		tags = []string{
			strings.ToLower(feature),
			strings.ReplaceAll(scenario, " ", "-"),
			channel,
			"regression",
		}
	}

	return types.TestCase{
		ID:      fmt.Sprintf("TC-%d", 100000+i),
		PlanID:  fmt.Sprintf("P-%d", i%9+1),
		SuiteID: fmt.Sprintf("S-%s-%d", strings.ToUpper(feature[:3]), i%12+1),
		Title:   fmt.Sprintf("%s: %s on %s", feature, scenario, channel),
		Description: fmt.Sprintf(
			"%s %s coverage to ensure business-critical behavior is stable for %s interactions.",
			feature, scenario, channel),
		Steps: strings.Join(steps, " | "),
		Tags:  tags,
	}
}

// mutate swaps known keywords for synonyms with 55% probability each,
// producing near-duplicate text that still shares most tokens with the
// source.
func (g *Generator) mutate(text string) string {
	out := text
	for _, key := range synonymKeys {
		if strings.Contains(out, key) && g.rng.Float64() < 0.55 {
			out = strings.Replace(out, key, g.pick(synonyms[key]), 1)
		}
	}
	return out
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
