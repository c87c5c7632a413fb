package types

import (
	"errors"
	"time"
)

// TestCase is one immutable test-case record within a loaded dataset.
// The field names mirror the bulk export format.
type TestCase struct {
	ID          string   `json:"test_case_id"`
	PlanID      string   `json:"test_plan_id"`
	SuiteID     string   `json:"test_suite_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       string   `json:"steps"` // pipe-delimited step list
	Tags        []string `json:"tags"`
}

// VectorDocument is the embedded form of a TestCase, produced by a build.
// Meta points back at the originating row for lookup only.
type VectorDocument struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Vec  []float32 `json:"vec"`
	Meta *TestCase `json:"-"`
}

// Cluster is a similarity cluster of vector documents. Clusters returned by
// the cluster engine are sorted descending by member count; dependents rely
// on "first cluster is the largest".
type Cluster struct {
	Docs []VectorDocument `json:"docs"`
}

// Size returns the member count.
func (c Cluster) Size() int { return len(c.Docs) }

// SearchHit is a single k-NN result with score monotonically decreasing
// across a result list.
type SearchHit struct {
	Doc   VectorDocument `json:"doc"`
	Score float32        `json:"score"`
}

// Kpis holds the deterministic and hybrid quality signals for a dataset.
type Kpis struct {
	TotalTests           int     `json:"total_tests"`
	ExactDuplicateGroups int     `json:"exact_duplicate_groups"`
	NearDuplicateGroups  int     `json:"near_duplicate_groups"`
	RedundancyScore      float64 `json:"redundancy_score"`
	EntropyScore         float64 `json:"entropy_score"`
	OrphanTagRatio       float64 `json:"orphan_tag_ratio"`
}

// FamilyGroup is a title-prefix family with its population count.
type FamilyGroup struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BuildMode selects how much of the dataset an embedding build covers.
type BuildMode string

const (
	// BuildQuick embeds a bounded sample (first QuickSampleLimit rows).
	BuildQuick BuildMode = "quick"
	// BuildFull embeds the entire dataset.
	BuildFull BuildMode = "full"
)

// QuickSampleLimit bounds the number of rows embedded in quick mode.
const QuickSampleLimit = 2000

// BuildProgress is emitted after every completed chunk of an embedding build.
type BuildProgress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"progress"`
}

// Status reports which backends are active and what state a session holds.
type Status struct {
	EmbeddingBackend string    `json:"embedding_backend"`
	IndexBackend     string    `json:"index_backend"`
	IndexReady       bool      `json:"index_ready"`
	RowCount         int       `json:"row_count"`
	VectorCount      int       `json:"vector_count"`
	ClusterCount     int       `json:"cluster_count"`
	BuildInFlight    bool      `json:"build_in_flight"`
	LastBuildAt      time.Time `json:"last_build_at,omitempty"`
}

// Sentinel errors shared across packages.
var (
	// ErrInvalidDataset marks malformed input; the working set is left
	// unchanged when it is returned.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrBackendUnavailable marks an embedding or index backend that could
	// not initialize. Never fatal; callers fall through to the next backend.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBuildCancelled is the terminal state of a cancelled embedding
	// build. It is distinct from both success and failure.
	ErrBuildCancelled = errors.New("build cancelled")

	// ErrBuildInFlight is returned when a build is requested while another
	// one is still running for the same session.
	ErrBuildInFlight = errors.New("embedding build already in flight")
)
