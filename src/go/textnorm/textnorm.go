// Package textnorm canonicalizes test-case text into comparable keys and
// token sets. All functions are pure and locale-independent: casing and
// character classes are ASCII-only so the same input always produces the
// same output regardless of host locale.
package textnorm

import (
	"strings"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// Normalize lowercases text, replaces every non-alphanumeric character with
// a space, collapses runs of whitespace and trims the result.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true // leading whitespace is dropped
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
			fallthrough
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// TextKey returns the exact-duplicate grouping key for a test case: the
// normalized concatenation of title, description and steps. Two rows with
// equal keys are exact duplicates.
func TextKey(tc types.TestCase) string {
	return Normalize(tc.Title + " " + tc.Description + " " + tc.Steps)
}

// TokenSet tokenizes the normalized title+description into a word set,
// used for Jaccard similarity checks.
func TokenSet(tc types.TestCase) map[string]struct{} {
	words := strings.Fields(Normalize(tc.Title + " " + tc.Description))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// BucketKey returns the first n normalized tokens of title+description
// joined with '|'. Rows sharing a bucket key are candidates for the cheap
// near-duplicate check.
func BucketKey(tc types.TestCase, n int) string {
	words := strings.Fields(Normalize(tc.Title + " " + tc.Description))
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, "|")
}

// EmbeddingText builds the text a test case is embedded from: every field
// that carries semantic content, concatenated in a stable shape.
func EmbeddingText(tc types.TestCase) string {
	return tc.Title + ". " + tc.Description + ". Steps: " + tc.Steps +
		". Tags: " + strings.Join(tc.Tags, ", ")
}

// QuestionTokens splits a free-text question on non-word characters and
// discards tokens of two characters or fewer.
func QuestionTokens(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Jaccard computes set overlap similarity between two token sets.
// Returns 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
