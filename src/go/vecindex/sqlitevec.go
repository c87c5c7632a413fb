//go:build sqlite_vec && cgo
// +build sqlite_vec,cgo

package vecindex

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

func init() {
	// Register sqlite-vec as an auto-loadable extension on the
	// go-sqlite3 driver.
	vec.Auto()
}

// SQLiteVecIndex is the primary backend: a vec0 virtual table queried with
// MATCH. Distances come back ascending; scores are reported as
// 1/(1+distance) so the Search contract stays score-descending.
type SQLiteVecIndex struct {
	mu   sync.RWMutex
	db   *sql.DB
	docs []types.VectorDocument
	dim  int
}

// NewSQLiteVecIndex opens an in-memory database and probes the vec0
// extension. A missing or non-functional extension is reported as
// ErrBackendUnavailable.
func NewSQLiteVecIndex() (Index, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %v: %w", err, types.ErrBackendUnavailable)
	}

	var version string
	if err := db.QueryRow("SELECT vec_version()").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("vec_version probe: %v: %w", err, types.ErrBackendUnavailable)
	}

	return &SQLiteVecIndex{db: db}, nil
}

// Upsert implements Index. The vec_items table is rebuilt from scratch on
// every call; there is no incremental path.
func (s *SQLiteVecIndex) Upsert(docs []types.VectorDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := 0
	if len(docs) > 0 {
		dim = len(docs[0].Vec)
	}

	if _, err := s.db.Exec("DROP TABLE IF EXISTS vec_items"); err != nil {
		return fmt.Errorf("drop vec_items: %w", err)
	}
	s.docs = docs
	s.dim = dim
	if dim == 0 {
		return nil
	}

	if _, err := s.db.Exec(fmt.Sprintf(
		"CREATE VIRTUAL TABLE vec_items USING vec0(embedding float[%d])", dim)); err != nil {
		return fmt.Errorf("create vec_items: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO vec_items(rowid, embedding) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		if len(doc.Vec) != dim {
			tx.Rollback()
			return fmt.Errorf("vector dimension mismatch at %s: expected %d, got %d", doc.ID, dim, len(doc.Vec))
		}
		if _, err := stmt.Exec(i+1, vecLiteral(doc.Vec)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert rowid %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// Search implements Index.
func (s *SQLiteVecIndex) Search(query []float32, k int) ([]types.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = DefaultTopK
	}
	if len(s.docs) == 0 || s.dim == 0 {
		return []types.SearchHit{}, nil
	}

	rows, err := s.db.Query(
		"SELECT rowid, distance FROM vec_items WHERE embedding MATCH ? ORDER BY distance LIMIT ?",
		vecLiteral(query), k)
	if err != nil {
		return nil, fmt.Errorf("vec search: %w", err)
	}
	defer rows.Close()

	hits := make([]types.SearchHit, 0, k)
	for rows.Next() {
		var rowid int64
		var distance float64
		if err := rows.Scan(&rowid, &distance); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		idx := int(rowid) - 1
		if idx < 0 || idx >= len(s.docs) {
			continue
		}
		hits = append(hits, types.SearchHit{
			Doc:   s.docs[idx],
			Score: float32(1 / (1 + distance)),
		})
	}
	return hits, rows.Err()
}

// IsReady implements Index.
func (s *SQLiteVecIndex) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs) > 0
}

// Backend implements Index.
func (s *SQLiteVecIndex) Backend() string { return "sqlite-vec" }

// Close implements Index.
func (s *SQLiteVecIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	return s.db.Close()
}

// vecLiteral renders a vector in the '[0.1,0.2,...]' form vec0 accepts.
func vecLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', 6, 32))
	}
	b.WriteByte(']')
	return b.String()
}
