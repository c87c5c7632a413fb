// Package session owns the mutable state of one analysis workspace: the
// loaded dataset, the embedding handle, the vector index, clusters and KPIs.
// All mutation goes through the session so that a dataset swap, a finishing
// build and a reader never observe a half-updated workspace.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arvind3/qa-intelligence-platform/src/go/analytics"
	"github.com/arvind3/qa-intelligence-platform/src/go/builder"
	"github.com/arvind3/qa-intelligence-platform/src/go/cluster"
	"github.com/arvind3/qa-intelligence-platform/src/go/config"
	"github.com/arvind3/qa-intelligence-platform/src/go/copilot"
	"github.com/arvind3/qa-intelligence-platform/src/go/dataset"
	"github.com/arvind3/qa-intelligence-platform/src/go/embedder"
	"github.com/arvind3/qa-intelligence-platform/src/go/ranker"
	"github.com/arvind3/qa-intelligence-platform/src/go/textnorm"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
	"github.com/arvind3/qa-intelligence-platform/src/go/vecindex"
)

// Session is one analysis workspace. Safe for concurrent use.
type Session struct {
	logger    *zap.Logger
	emb       embedder.Embedder
	index     vecindex.Index
	assistant *copilot.Service
	threshold float64
	chunkSize int

	mu          sync.RWMutex
	rows        []types.TestCase
	rowByID     map[string]*types.TestCase
	vectors     []types.VectorDocument
	clusters    []types.Cluster
	kpis        types.Kpis
	activeBuild *builder.Build
	lastBuildAt time.Time
}

// BuildTask is the caller-facing handle of a running embedding build.
// Progress carries one update per completed chunk (slow consumers miss
// intermediate updates, never the ordering); Done delivers the terminal
// outcome: nil, types.ErrBuildCancelled, or the embedding failure. Both
// channels close after the terminal outcome.
type BuildTask struct {
	ID       string
	Progress <-chan types.BuildProgress
	Done     <-chan error
}

// New assembles a session from configuration. The embedder and index land
// on whatever backends are available; the chosen names are visible via
// Status.
func New(cfg *config.Config, logger *zap.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	emb := embedder.Open(cfg.Embedding.Config, logger)

	index, err := vecindex.Open(cfg.Index, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	var reasoner copilot.Reasoner
	if !cfg.Copilot.Disabled {
		reasoner = copilot.NewOllamaReasoner(cfg.Copilot.Endpoint, cfg.Copilot.Model, cfg.Copilot.AskTimeout())
	}

	return &Session{
		logger:    logger,
		emb:       emb,
		index:     index,
		assistant: copilot.NewService(reasoner, logger),
		threshold: cfg.Cluster.Threshold,
		chunkSize: cfg.Embedding.ChunkSize,
	}, nil
}

// LoadDataset validates rows and replaces the working set atomically. On
// validation failure the previous dataset, vectors and clusters stay
// untouched. On success every derived artifact (vectors, clusters, index
// contents) is invalidated and the deterministic KPIs are recomputed; a
// build in flight is cancelled and its result discarded.
func (s *Session) LoadDataset(rows []types.TestCase) error {
	for i, r := range rows {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("%w: row %d is missing test_case_id", types.ErrInvalidDataset, i)
		}
		if strings.TrimSpace(r.Title) == "" {
			return fmt.Errorf("%w: row %d (%s) is missing title", types.ErrInvalidDataset, i, r.ID)
		}
	}

	owned := make([]types.TestCase, len(rows))
	copy(owned, rows)

	byID := make(map[string]*types.TestCase, len(owned))
	for i := range owned {
		byID[owned[i].ID] = &owned[i]
	}

	kpis := analytics.ComputeKpis(owned)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeBuild != nil {
		s.activeBuild.Cancel()
		s.activeBuild = nil
	}

	s.rows = owned
	s.rowByID = byID
	s.kpis = kpis
	s.vectors = nil
	s.clusters = nil
	if err := s.index.Upsert(nil); err != nil {
		s.logger.Warn("failed to clear vector index", zap.Error(err))
	}

	s.logger.Info("dataset loaded",
		zap.Int("rows", len(owned)),
		zap.Int("exact_duplicate_groups", kpis.ExactDuplicateGroups))
	return nil
}

// LoadDatasetFile parses a dataset file and loads it.
func (s *Session) LoadDatasetFile(path string) error {
	rows, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	return s.LoadDataset(rows)
}

// StartBuild launches an embedding build over the loaded dataset. Quick
// mode embeds at most types.QuickSampleLimit rows. Only one build runs at a
// time; a second request fails with types.ErrBuildInFlight until the first
// one reaches a terminal state. A build that finishes after it has been
// superseded (dataset reload, cancellation) is discarded by build identity,
// so the index and clusters always reflect the winning build.
func (s *Session) StartBuild(ctx context.Context, mode types.BuildMode) (*BuildTask, error) {
	s.mu.Lock()
	if s.activeBuild != nil {
		s.mu.Unlock()
		return nil, types.ErrBuildInFlight
	}
	if len(s.rows) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no dataset loaded", types.ErrInvalidDataset)
	}

	rows := s.rows
	if mode == types.BuildQuick && len(rows) > types.QuickSampleLimit {
		rows = rows[:types.QuickSampleLimit]
	}
	input := make([]builder.Row, len(rows))
	for i, r := range rows {
		input[i] = builder.Row{ID: r.ID, Text: textnorm.EmbeddingText(r)}
	}

	b := builder.Start(ctx, s.emb, input, builder.Options{ChunkSize: s.chunkSize}, s.logger)
	s.activeBuild = b
	s.mu.Unlock()

	s.logger.Info("embedding build started",
		zap.String("build_id", b.ID()),
		zap.String("mode", string(mode)),
		zap.Int("rows", len(input)))

	progress := make(chan types.BuildProgress, 4)
	done := make(chan error, 1)
	go s.consume(b, progress, done)

	return &BuildTask{ID: b.ID(), Progress: progress, Done: done}, nil
}

// CancelBuild requests cancellation of the in-flight build, if any. The
// prior index and cluster state stays intact.
func (s *Session) CancelBuild() {
	s.mu.RLock()
	b := s.activeBuild
	s.mu.RUnlock()
	if b != nil {
		b.Cancel()
	}
}

func (s *Session) consume(b *builder.Build, progress chan<- types.BuildProgress, done chan<- error) {
	defer close(done)
	defer close(progress)

	for ev := range b.Events() {
		switch ev.Kind {
		case builder.EventProgress:
			select {
			case progress <- ev.Progress:
			default:
			}
		case builder.EventDone:
			done <- s.adopt(b, ev.Vectors)
		case builder.EventCancelled:
			s.release(b)
			done <- types.ErrBuildCancelled
		case builder.EventFailed:
			s.release(b)
			done <- ev.Err
		}
	}
}

// adopt installs a finished build's vectors unless the build has been
// superseded in the meantime.
func (s *Session) adopt(b *builder.Build, vectors []types.VectorDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeBuild == nil || s.activeBuild.ID() != b.ID() {
		s.logger.Info("discarding superseded build result", zap.String("build_id", b.ID()))
		return types.ErrBuildCancelled
	}
	s.activeBuild = nil

	for i := range vectors {
		vectors[i].Meta = s.rowByID[vectors[i].ID]
	}

	if err := s.index.Upsert(vectors); err != nil {
		return fmt.Errorf("failed to index build result: %w", err)
	}

	s.vectors = vectors
	s.clusters = cluster.ByThreshold(vectors, s.threshold)
	s.lastBuildAt = time.Now()

	s.logger.Info("build adopted",
		zap.String("build_id", b.ID()),
		zap.Int("vectors", len(vectors)),
		zap.Int("clusters", len(s.clusters)))
	return nil
}

func (s *Session) release(b *builder.Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeBuild != nil && s.activeBuild.ID() == b.ID() {
		s.activeBuild = nil
	}
}

// Kpis returns the deterministic KPI set of the loaded dataset.
func (s *Session) Kpis() types.Kpis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kpis
}

// Clusters returns the current similarity clusters, largest first.
func (s *Session) Clusters() []types.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Cluster, len(s.clusters))
	copy(out, s.clusters)
	return out
}

// ClusterMeta summarizes the cluster at the given 0-based index for display.
func (s *Session) ClusterMeta(selected int) cluster.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if selected < 0 || selected >= len(s.clusters) {
		return cluster.BuildMeta(-1, len(s.clusters), 0, len(s.vectors), "")
	}

	c := s.clusters[selected]
	return cluster.BuildMeta(selected, len(s.clusters), c.Size(), len(s.vectors), dominantFamily(c))
}

// dominantFamily picks the most common feature among a cluster's members.
func dominantFamily(c types.Cluster) string {
	counts := make(map[string]int)
	for _, doc := range c.Docs {
		if doc.Meta != nil {
			counts[analytics.Feature(*doc.Meta)]++
		}
	}
	best, bestCount := "", 0
	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}

// Rows returns the loaded dataset.
func (s *Session) Rows() []types.TestCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.TestCase, len(s.rows))
	copy(out, s.rows)
	return out
}

// FamilyGroups returns the largest title families of the loaded dataset.
func (s *Session) FamilyGroups() []types.FamilyGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.TopFamilyGroups(s.rows)
}

// Search embeds the question and returns the nearest test cases from the
// vector index. It fails when no build has populated the index yet.
func (s *Session) Search(ctx context.Context, question string, k int) ([]types.SearchHit, error) {
	if !s.index.IsReady() {
		return nil, fmt.Errorf("vector index is not ready, run a build first")
	}

	query, err := s.emb.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	return s.index.Search(query, k)
}

// Ask answers a free-text question about the dataset. Context rows are
// chosen by the best available signal: vector search results when the index
// is ready, otherwise the largest cluster, otherwise a raw dataset sample.
// The chosen rows are relevance-ranked before being handed to the
// assistant; the answer is never an error.
func (s *Session) Ask(ctx context.Context, question string) string {
	candidates := s.contextRows(ctx, question)
	ranked := ranker.Top(ranker.RankContext(question, candidates), ranker.DefaultContextSize)

	s.mu.RLock()
	ev := copilot.Evidence{
		Kpis:         s.kpis,
		ClusterCount: len(s.clusters),
	}
	s.mu.RUnlock()
	if groups := s.FamilyGroups(); len(groups) > 0 {
		ev.TopFamily = groups[0].Name
	}

	return s.assistant.Ask(ctx, question, ranked, ev)
}

func (s *Session) contextRows(ctx context.Context, question string) []types.TestCase {
	if hits, err := s.Search(ctx, question, ranker.DefaultContextSize); err == nil && len(hits) > 0 {
		rows := make([]types.TestCase, 0, len(hits))
		s.mu.RLock()
		for _, h := range hits {
			if tc, ok := s.rowByID[h.Doc.ID]; ok {
				rows = append(rows, *tc)
			}
		}
		s.mu.RUnlock()
		if len(rows) > 0 {
			return rows
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.clusters) > 0 {
		rows := make([]types.TestCase, 0, s.clusters[0].Size())
		for _, doc := range s.clusters[0].Docs {
			if doc.Meta != nil {
				rows = append(rows, *doc.Meta)
			}
		}
		if len(rows) > 0 {
			return rows
		}
	}

	sample := s.rows
	if len(sample) > ranker.DefaultContextSize {
		sample = sample[:ranker.DefaultContextSize]
	}
	out := make([]types.TestCase, len(sample))
	copy(out, sample)
	return out
}

// Status reports the active backends and workspace counts.
func (s *Session) Status() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Status{
		EmbeddingBackend: s.emb.Name(),
		IndexBackend:     s.index.Backend(),
		IndexReady:       s.index.IsReady(),
		RowCount:         len(s.rows),
		VectorCount:      len(s.vectors),
		ClusterCount:     len(s.clusters),
		BuildInFlight:    s.activeBuild != nil,
		LastBuildAt:      s.lastBuildAt,
	}
}

// ExportJSON serializes the loaded dataset as JSON.
func (s *Session) ExportJSON() ([]byte, error) {
	return dataset.ExportJSON(s.Rows())
}

// ExportDelimited serializes the loaded dataset as CSV.
func (s *Session) ExportDelimited() ([]byte, error) {
	return dataset.ExportDelimited(s.Rows())
}

// Close releases backend resources. An in-flight build is cancelled.
func (s *Session) Close() error {
	s.CancelBuild()
	err := s.index.Close()
	if cerr := s.emb.Close(); err == nil {
		err = cerr
	}
	return err
}
