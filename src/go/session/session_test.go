package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvind3/qa-intelligence-platform/src/go/config"
	"github.com/arvind3/qa-intelligence-platform/src/go/synthetic"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Embedding.Backend = "hash"
	cfg.Index.Backend = "brute-force"
	cfg.Copilot.Disabled = true
	return cfg
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func runBuild(t *testing.T, s *Session, mode types.BuildMode) []types.BuildProgress {
	t.Helper()
	task, err := s.StartBuild(context.Background(), mode)
	require.NoError(t, err)

	var updates []types.BuildProgress
	for p := range task.Progress {
		updates = append(updates, p)
	}
	require.NoError(t, <-task.Done)
	return updates
}

// slowEmbedder delays each embedding so tests can observe in-flight builds.
type slowEmbedder struct {
	delay time.Duration
}

func (s *slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []float32{1, 0}, nil
}

func (s *slowEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *slowEmbedder) Dimensions() int { return 2 }
func (s *slowEmbedder) Name() string    { return "slow" }
func (s *slowEmbedder) Close() error    { return nil }

func TestSessionEndToEnd(t *testing.T) {
	s := newTestSession(t)
	rows := synthetic.NewGenerator(42).Generate(1000)
	require.NoError(t, s.LoadDataset(rows))

	kpis := s.Kpis()
	assert.Equal(t, 1000, kpis.TotalTests)
	assert.Greater(t, kpis.ExactDuplicateGroups, 0, "planted duplicates must surface")
	assert.Greater(t, kpis.RedundancyScore, 0.0)

	updates := runBuild(t, s, types.BuildFull)
	for i := 1; i < len(updates); i++ {
		assert.Greater(t, updates[i].Done, updates[i-1].Done, "progress is monotonic")
	}

	status := s.Status()
	assert.True(t, status.IndexReady)
	assert.Equal(t, 1000, status.VectorCount)
	assert.Greater(t, status.ClusterCount, 0)
	assert.False(t, status.BuildInFlight)
	assert.False(t, status.LastBuildAt.IsZero())
	assert.Equal(t, "fallback-hash", status.EmbeddingBackend)
	assert.Equal(t, "brute-force", status.IndexBackend)

	clusters := s.Clusters()
	require.NotEmpty(t, clusters)
	for i := 1; i < len(clusters); i++ {
		assert.GreaterOrEqual(t, clusters[i-1].Size(), clusters[i].Size(), "largest cluster first")
	}

	hits, err := s.Search(context.Background(), "authentication login validation", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "scores decrease")
	}

	answer := s.Ask(context.Background(), "where are our duplicate tests?")
	assert.Contains(t, answer, "Evidence:")
}

func TestLoadDatasetRejectsInvalidRows(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.LoadDataset([]types.TestCase{{ID: "TC-1", Title: "ok"}}))

	err := s.LoadDataset([]types.TestCase{{ID: "", Title: "bad"}})
	assert.ErrorIs(t, err, types.ErrInvalidDataset)

	err = s.LoadDataset([]types.TestCase{{ID: "TC-2", Title: "  "}})
	assert.ErrorIs(t, err, types.ErrInvalidDataset)

	assert.Equal(t, 1, s.Status().RowCount, "failed load leaves the working set unchanged")
	assert.Equal(t, "TC-1", s.Rows()[0].ID)
}

func TestStartBuildRequiresDataset(t *testing.T) {
	s := newTestSession(t)
	_, err := s.StartBuild(context.Background(), types.BuildFull)
	assert.ErrorIs(t, err, types.ErrInvalidDataset)
}

func TestQuickModeLimitsSample(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.LoadDataset(synthetic.NewGenerator(1).Generate(2500)))

	runBuild(t, s, types.BuildQuick)
	assert.Equal(t, types.QuickSampleLimit, s.Status().VectorCount)
}

func TestSecondBuildRejectedWhileInFlight(t *testing.T) {
	s := newTestSession(t)
	s.emb = &slowEmbedder{delay: 5 * time.Millisecond}
	require.NoError(t, s.LoadDataset(synthetic.NewGenerator(2).Generate(300)))

	task, err := s.StartBuild(context.Background(), types.BuildFull)
	require.NoError(t, err)

	_, err = s.StartBuild(context.Background(), types.BuildFull)
	assert.ErrorIs(t, err, types.ErrBuildInFlight)

	s.CancelBuild()
	assert.ErrorIs(t, <-task.Done, types.ErrBuildCancelled)
}

func TestCancelledBuildPreservesPriorState(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.LoadDataset(synthetic.NewGenerator(3).Generate(200)))
	runBuild(t, s, types.BuildFull)
	before := s.Status()

	s.emb = &slowEmbedder{delay: 5 * time.Millisecond}
	task, err := s.StartBuild(context.Background(), types.BuildFull)
	require.NoError(t, err)
	s.CancelBuild()
	assert.ErrorIs(t, <-task.Done, types.ErrBuildCancelled)

	after := s.Status()
	assert.Equal(t, before.VectorCount, after.VectorCount, "cancellation keeps the prior vectors")
	assert.Equal(t, before.ClusterCount, after.ClusterCount)
	assert.False(t, after.BuildInFlight)

	// the session recovers: a fresh build still runs
	s.emb = &slowEmbedder{delay: 0}
	runBuild(t, s, types.BuildFull)
}

func TestDatasetReloadSupersedesBuild(t *testing.T) {
	s := newTestSession(t)
	s.emb = &slowEmbedder{delay: 5 * time.Millisecond}
	require.NoError(t, s.LoadDataset(synthetic.NewGenerator(4).Generate(300)))

	task, err := s.StartBuild(context.Background(), types.BuildFull)
	require.NoError(t, err)

	require.NoError(t, s.LoadDataset(synthetic.NewGenerator(5).Generate(10)))
	assert.ErrorIs(t, <-task.Done, types.ErrBuildCancelled)

	status := s.Status()
	assert.Equal(t, 10, status.RowCount)
	assert.Equal(t, 0, status.VectorCount, "superseded build leaves no vectors behind")
}

func TestAskWithoutBuildUsesRawSample(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.LoadDataset([]types.TestCase{
		{ID: "TC-1", Title: "Auth: duplicate login attempt", Tags: []string{"auth"}},
		{ID: "TC-2", Title: "Catalog: browse items"},
	}))

	answer := s.Ask(context.Background(), "do we have duplicate coverage?")
	assert.NotEmpty(t, answer)
	assert.Contains(t, answer, "TC-1", "raw sample context reaches the answer")
}

func TestSessionExport(t *testing.T) {
	s := newTestSession(t)
	rows := []types.TestCase{
		{ID: "TC-1", Title: "Auth: login", Tags: []string{"auth", "smoke"}},
	}
	require.NoError(t, s.LoadDataset(rows))

	jsonOut, err := s.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(jsonOut), `"test_case_id": "TC-1"`)

	csvOut, err := s.ExportDelimited()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvOut)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "auth|smoke")
}

func TestClusterMeta(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.LoadDataset(synthetic.NewGenerator(6).Generate(200)))
	runBuild(t, s, types.BuildFull)

	meta := s.ClusterMeta(0)
	assert.Equal(t, 1, meta.SelectedDisplayIndex)
	assert.Greater(t, meta.TotalClusterCount, 0)
	assert.Contains(t, meta.SizeLabel, "/200")
	assert.NotEqual(t, "", meta.FamilyName)

	none := s.ClusterMeta(-1)
	assert.Equal(t, 0, none.SelectedDisplayIndex)
	assert.Equal(t, "Unknown family", none.FamilyName)
}
