// Package builder runs embedding builds as explicit asynchronous tasks.
//
// A build embeds its rows in fixed-size chunks off the caller's goroutine
// and reports through a single event stream: zero or more progress events
// (one per completed chunk), then exactly one terminal event — done with
// the full vector set, cancelled, or failed. Cancellation is observed at
// chunk boundaries; a cancelled build discards the in-progress chunk so no
// partial vector set ever escapes as a result.
package builder

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arvind3/qa-intelligence-platform/src/go/embedder"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

// DefaultChunkSize bounds how many rows are embedded between two progress
// reports (and cancellation checks).
const DefaultChunkSize = 100

// Row is one unit of build input.
type Row struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// EventKind discriminates build events.
type EventKind int

const (
	// EventProgress reports chunk completion.
	EventProgress EventKind = iota
	// EventDone carries the complete vector set. Terminal.
	EventDone
	// EventCancelled reports a cancelled build. Terminal, and distinct
	// from both EventDone and EventFailed.
	EventCancelled
	// EventFailed reports a backend failure. Terminal.
	EventFailed
)

// Event is a single message on a build's event stream.
type Event struct {
	Kind     EventKind
	Progress types.BuildProgress    // set for EventProgress
	Vectors  []types.VectorDocument // set for EventDone
	Err      error                  // set for EventFailed
}

// Options configures a build.
type Options struct {
	// ChunkSize is the number of rows per chunk; DefaultChunkSize when
	// zero or negative.
	ChunkSize int
}

// Build is an in-flight (or finished) embedding build.
type Build struct {
	id        string
	events    chan Event
	cancelled atomic.Bool
}

// Start launches a build over rows using emb and returns immediately. The
// caller consumes Events until a terminal event arrives; the channel is
// closed afterwards.
func Start(ctx context.Context, emb embedder.Embedder, rows []Row, opts Options, logger *zap.Logger) *Build {
	if logger == nil {
		logger = zap.NewNop()
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	b := &Build{
		id:     uuid.NewString(),
		events: make(chan Event, 4),
	}

	go b.run(ctx, emb, rows, chunkSize, logger)
	return b
}

// ID identifies this build; sessions compare it to ignore superseded
// results.
func (b *Build) ID() string { return b.id }

// Events returns the build's event stream.
func (b *Build) Events() <-chan Event { return b.events }

// Cancel requests cancellation. The flag is checked between chunks; the
// build then terminates with EventCancelled. Safe to call more than once
// and after completion.
func (b *Build) Cancel() { b.cancelled.Store(true) }

func (b *Build) run(ctx context.Context, emb embedder.Embedder, rows []Row, chunkSize int, logger *zap.Logger) {
	defer close(b.events)

	total := len(rows)
	vectors := make([]types.VectorDocument, 0, total)

	for start := 0; start < total; start += chunkSize {
		if b.cancelled.Load() || ctx.Err() != nil {
			logger.Info("embedding build cancelled",
				zap.String("build_id", b.id),
				zap.Int("done", len(vectors)),
				zap.Int("total", total))
			b.events <- Event{Kind: EventCancelled}
			return
		}

		end := start + chunkSize
		if end > total {
			end = total
		}
		chunk := rows[start:end]

		chunkVecs := make([]types.VectorDocument, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		for i, row := range chunk {
			g.Go(func() error {
				vec, err := emb.Embed(gctx, row.Text)
				if err != nil {
					return err
				}
				chunkVecs[i] = types.VectorDocument{ID: row.ID, Text: row.Text, Vec: vec}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logger.Error("embedding chunk failed",
				zap.String("build_id", b.id),
				zap.Int("chunk_start", start),
				zap.Error(err))
			b.events <- Event{Kind: EventFailed, Err: err}
			return
		}

		vectors = append(vectors, chunkVecs...)
		b.events <- Event{Kind: EventProgress, Progress: types.BuildProgress{
			Done:    len(vectors),
			Total:   total,
			Percent: percent(len(vectors), total),
		}}
	}

	// A cancel that lands after the last chunk still wins over completion.
	if b.cancelled.Load() {
		b.events <- Event{Kind: EventCancelled}
		return
	}

	logger.Info("embedding build complete",
		zap.String("build_id", b.id),
		zap.Int("vectors", len(vectors)))
	b.events <- Event{Kind: EventDone, Vectors: vectors}
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
