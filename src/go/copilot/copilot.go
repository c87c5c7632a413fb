// Package copilot answers natural-language questions about a dataset. The
// reasoning itself is delegated to an external collaborator (a locally
// running language model); this package curates the context handed to it,
// gates answer quality, and guarantees a deterministic evidence-grounded
// fallback so the caller never sees a bare error.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// ErrNotInitialized reports that no reasoning collaborator is reachable.
// The service recovers from it by composing a fallback answer.
var ErrNotInitialized = errors.New("copilot not initialized")

// DefaultAskTimeout bounds a single collaborator round trip. Local model
// inference runs tens of seconds on CPU-only hosts.
const DefaultAskTimeout = 45 * time.Second

// contextBriefLimit caps how many rows make it into a prompt brief.
const contextBriefLimit = 8

// Reasoner is the external reasoning collaborator contract.
type Reasoner interface {
	// Ask answers a question given curated context rows. It may fail with
	// ErrNotInitialized when no model is available.
	Ask(ctx context.Context, question string, rows []types.TestCase) (string, error)

	// Name identifies the collaborator.
	Name() string
}

// Evidence carries the deterministic signals the fallback composer grounds
// its answers in.
type Evidence struct {
	Kpis         types.Kpis
	ClusterCount int
	TopFamily    string
}

// Service wraps a Reasoner with a quality gate, a single stricter-prompt
// retry, and the deterministic fallback composer as terminal step.
type Service struct {
	reasoner Reasoner
	logger   *zap.Logger
}

// NewService builds a question-answering service. reasoner may be nil, in
// which case every question is answered by the fallback composer.
func NewService(reasoner Reasoner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reasoner: reasoner, logger: logger}
}

// Ask answers a question using at most contextBriefLimit context rows. The
// collaborator gets exactly one retry with a stricter prompt when its first
// answer fails the quality gate; any failure, timeout or persistent
// low-quality output terminates in the deterministic fallback. Ask never
// returns an error.
func (s *Service) Ask(ctx context.Context, question string, rows []types.TestCase, ev Evidence) string {
	if len(rows) > contextBriefLimit {
		rows = rows[:contextBriefLimit]
	}

	if s.reasoner == nil {
		return ComposeFallback(question, rows, ev)
	}

	answer, err := s.reasoner.Ask(ctx, question, rows)
	if err != nil {
		if !errors.Is(err, ErrNotInitialized) {
			s.logger.Warn("reasoning collaborator failed", zap.String("reasoner", s.reasoner.Name()), zap.Error(err))
		}
		return ComposeFallback(question, rows, ev)
	}

	if IsLowQuality(answer, question) {
		s.logger.Info("answer failed quality gate, retrying with stricter prompt")
		retry, err := s.reasoner.Ask(ctx, strictPrompt(question), rows)
		if err == nil && !IsLowQuality(retry, question) {
			return retry
		}
		return ComposeFallback(question, rows, ev)
	}

	return answer
}

// IsLowQuality judges whether an answer is worth showing. It is decoupled
// from the call site so the gate can be tuned and tested on its own.
func IsLowQuality(answer, question string) bool {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < 40 {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, refusal := range []string{
		"no response",
		"i don't know",
		"i do not know",
		"cannot answer",
		"as an ai",
	} {
		if strings.Contains(lower, refusal) {
			return true
		}
	}
	_ = question
	return false
}

func strictPrompt(question string) string {
	return question + "\n\nAnswer strictly from the context tests listed above. " +
		"Give concrete, action-oriented recommendations referencing test case ids. " +
		"Do not speculate beyond the provided context."
}

// ComposeFallback builds a deterministic, evidence-grounded answer. The
// branch is picked by question intent (duplication, coverage, or generic
// hygiene) and every branch cites the KPI evidence plus a sample of the
// context rows.
func ComposeFallback(question string, rows []types.TestCase, ev Evidence) string {
	brief := ContextBrief(rows)
	lower := strings.ToLower(question)

	switch {
	case strings.Contains(lower, "duplicate") || strings.Contains(lower, "redundan"):
		return fmt.Sprintf(
			"Top action: consolidate semantically similar tests into parameterized families.\n"+
				"Evidence: %d exact-duplicate groups, %d near-duplicate groups, redundancy score %.1f%% across %d tests.\n"+
				"Sample context:\n%s",
			ev.Kpis.ExactDuplicateGroups, ev.Kpis.NearDuplicateGroups,
			ev.Kpis.RedundancyScore, ev.Kpis.TotalTests, brief)

	case strings.Contains(lower, "coverage") || strings.Contains(lower, "gap"):
		return fmt.Sprintf(
			"Coverage guidance: focus on underrepresented feature clusters and normalize the tag taxonomy.\n"+
				"Evidence: entropy score %.1f%%, %d clusters, largest family %q, orphan-tag ratio %.1f%%.\n"+
				"Sample context:\n%s",
			ev.Kpis.EntropyScore, ev.ClusterCount, ev.TopFamily,
			ev.Kpis.OrphanTagRatio, brief)

	default:
		return fmt.Sprintf(
			"Suggested next step: review the top clusters, remove low-value near-duplicates, and assign "+
				"ownership for orphan-tag tests.\n"+
				"Evidence: %d tests, redundancy %.1f%%, orphan-tag ratio %.1f%%.\n"+
				"Sample context:\n%s",
			ev.Kpis.TotalTests, ev.Kpis.RedundancyScore, ev.Kpis.OrphanTagRatio, brief)
	}
}

// ContextBrief renders rows as the compact listing embedded in prompts and
// fallback answers.
func ContextBrief(rows []types.TestCase) string {
	if len(rows) > contextBriefLimit {
		rows = rows[:contextBriefLimit]
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("- %s: %s [tags=%s]", r.ID, r.Title, strings.Join(r.Tags, ","))
	}
	return strings.Join(lines, "\n")
}
