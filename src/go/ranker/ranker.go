// Package ranker orders candidate test cases by relevance to a free-text
// question before they are handed to the reasoning collaborator. The ranker
// is purely advisory: it never filters candidates, only sorts them, and the
// caller truncates after ranking.
package ranker

import (
	"sort"
	"strings"

	"github.com/arvind3/qa-intelligence-platform/src/go/textnorm"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// DefaultContextSize is how many ranked rows are usually handed to the
// reasoning collaborator.
const DefaultContextSize = 8

// RankContext sorts rows by descending question relevance. The score of a
// row is the number of question tokens (longer than two characters) that
// occur as substrings of its title, description or tags, case-insensitive.
// Equal scores preserve input order.
func RankContext(question string, rows []types.TestCase) []types.TestCase {
	tokens := textnorm.QuestionTokens(question)

	type scored struct {
		row   types.TestCase
		score int
	}
	candidates := make([]scored, len(rows))
	for i, row := range rows {
		haystack := strings.ToLower(row.Title + " " + row.Description + " " + strings.Join(row.Tags, " "))
		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		candidates[i] = scored{row: row, score: score}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	ranked := make([]types.TestCase, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.row
	}
	return ranked
}

// Top truncates ranked rows to at most n entries (DefaultContextSize when
// n <= 0).
func Top(rows []types.TestCase, n int) []types.TestCase {
	if n <= 0 {
		n = DefaultContextSize
	}
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
