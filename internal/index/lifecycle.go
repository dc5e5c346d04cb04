package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cribconcierge/concierge-go/internal/chunker"
	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/models"
	"github.com/cribconcierge/concierge-go/internal/projector"
)

// Source supplies the current record set for rebuilds.
type Source interface {
	GetAll(ctx context.Context) ([]models.Property, error)
}

// snapshot pairs the lifecycle state with the active index handle so
// both are read in one atomic load. Readers never observe a half-built
// index and never block on a build in progress.
type snapshot struct {
	state       models.IndexState
	index       *Index
	recordCount int
}

// Controller owns the index lifecycle: it is the only writer of the
// state/handle pair and serializes builds. Questions may read the
// snapshot concurrently at any time.
type Controller struct {
	embedder Embedder
	source   Source
	chunkCfg chunker.Config
	logger   *slog.Logger
	stats    *metrics.Collector

	// buildMu serializes rebuilds and incremental adds; the snapshot
	// swap itself is atomic so readers are never held up.
	buildMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewController creates a lifecycle controller in the uninitialized
// state.
func NewController(embedder Embedder, source Source, chunkCfg chunker.Config, logger *slog.Logger, stats *metrics.Collector) (*Controller, error) {
	if err := chunkCfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		embedder: embedder,
		source:   source,
		chunkCfg: chunkCfg,
		logger:   logger,
		stats:    stats,
	}
	c.current.Store(&snapshot{state: models.StateUninitialized})
	return c, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() models.IndexState {
	return c.current.Load().state
}

// Active returns the current state together with the active index
// handle, if any. The pair is consistent: both come from one snapshot.
func (c *Controller) Active() (models.IndexState, *Index) {
	s := c.current.Load()
	return s.state, s.index
}

// Status reports the lifecycle without blocking an in-progress build.
func (c *Controller) Status() models.Status {
	s := c.current.Load()
	return models.Status{
		State:       s.state,
		HasIndex:    s.index != nil,
		RecordCount: s.recordCount,
	}
}

// MarkStale records that the underlying record set changed and the
// index may be out of date. Only a ready index goes stale; all other
// states already imply the index is not current.
func (c *Controller) MarkStale() {
	for {
		old := c.current.Load()
		if old.state != models.StateReady {
			return
		}
		next := &snapshot{state: models.StateStale, index: old.index, recordCount: old.recordCount}
		if c.current.CompareAndSwap(old, next) {
			c.logger.Debug("index marked stale", "records", old.recordCount)
			return
		}
	}
}

// Rebuild performs a full, all-or-nothing rebuild from the record
// source and atomically swaps the active handle. In-flight queries keep
// whatever handle they already loaded. Returns the number of records
// indexed.
func (c *Controller) Rebuild(ctx context.Context) (int, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	prev := c.current.Load()
	c.current.Store(&snapshot{state: models.StateBuilding, index: prev.index, recordCount: prev.recordCount})
	c.logger.Info("rebuilding semantic index")

	timer := metrics.StartTimer(c.stats, metrics.OpIndexBuild)

	props, err := c.source.GetAll(ctx)
	if err != nil {
		// A store blip must not discard a complete prior handle.
		c.current.Store(&snapshot{state: models.StateDegraded, index: prev.index, recordCount: prev.recordCount})
		return 0, fmt.Errorf("%w: load records: %v", ErrIndexBuild, err)
	}

	if len(props) == 0 {
		// Nothing to index. Not ready, but not broken either: the next
		// record add will build from scratch.
		c.current.Store(&snapshot{state: models.StateUninitialized})
		c.logger.Warn("rebuild requested with no records")
		return 0, fmt.Errorf("%w: no records to index", ErrIndexBuild)
	}

	chunks, err := c.chunkAll(props)
	if err != nil {
		c.current.Store(&snapshot{state: models.StateDegraded, index: prev.index, recordCount: prev.recordCount})
		return 0, err
	}

	idx, err := Build(ctx, c.embedder, chunks, len(props))
	if err != nil {
		// The failed build's partial work is discarded; the prior
		// complete handle stays.
		c.current.Store(&snapshot{state: models.StateDegraded, index: prev.index, recordCount: prev.recordCount})
		c.logger.Error("index build failed", "error", err)
		return 0, err
	}

	timer.Stop()
	c.current.Store(&snapshot{state: models.StateReady, index: idx, recordCount: len(props)})
	c.logger.Info("semantic index ready", "records", len(props), "chunks", idx.Len())
	return len(props), nil
}

// AddRecord applies a single-record incremental update: the new
// listing's chunks are embedded and appended to a copy of the current
// index, which then replaces the active handle. Without a usable
// current index this falls back to a full rebuild.
func (c *Controller) AddRecord(ctx context.Context, p models.Property) error {
	c.MarkStale()

	c.buildMu.Lock()
	prev := c.current.Load()
	if prev.index == nil || (prev.state != models.StateStale && prev.state != models.StateReady) {
		c.buildMu.Unlock()
		_, err := c.Rebuild(ctx)
		return err
	}
	defer c.buildMu.Unlock()

	doc := projector.Project(p)
	chunks, err := chunker.Split(doc, c.chunkCfg)
	if err != nil {
		return err
	}

	timer := metrics.StartTimer(c.stats, metrics.OpIndexBuild)
	next, err := prev.index.WithChunks(ctx, c.embedder, chunks, 1)
	if err != nil {
		// The previous handle is complete and stays available for a
		// later rebuild, but the index no longer reflects the store.
		c.current.Store(&snapshot{state: models.StateDegraded, index: prev.index, recordCount: prev.recordCount})
		c.logger.Error("incremental index update failed", "property", p.ID, "error", err)
		return err
	}
	timer.Stop()

	c.current.Store(&snapshot{state: models.StateReady, index: next, recordCount: next.Records()})
	c.logger.Info("incremental index update applied", "property", p.ID, "chunks", next.Len())
	return nil
}

func (c *Controller) chunkAll(props []models.Property) ([]chunker.Chunk, error) {
	docs := projector.ProjectAll(props)
	chunks, err := chunker.SplitAll(docs, c.chunkCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}
	return chunks, nil
}
