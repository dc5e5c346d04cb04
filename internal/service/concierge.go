// Package service wires the record store, index lifecycle, conversation
// memory and the two answer paths into the concierge core.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cribconcierge/concierge-go/internal/answer"
	"github.com/cribconcierge/concierge-go/internal/index"
	"github.com/cribconcierge/concierge-go/internal/memory"
	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/models"
	"github.com/cribconcierge/concierge-go/internal/store"
)

// ErrNotFound is returned when a listing lookup misses.
var ErrNotFound = errors.New("not found")

// rebuildRetryTimeout bounds the background rebuild attempt triggered
// from the degraded state.
const rebuildRetryTimeout = 5 * time.Minute

// Options configures optional core behavior.
type Options struct {
	// AutoRetry schedules a background rebuild attempt when a question
	// arrives while the index is degraded.
	AutoRetry bool
}

// Concierge is the question-answering core. It routes each question to
// the retrieval path when the index is usable and to the deterministic
// fallback otherwise, and keeps the index in step with the store.
type Concierge struct {
	store      store.Store
	controller *index.Controller
	sessions   *memory.Sessions
	rag        *answer.RAG
	fallback   *answer.Fallback
	stats      *metrics.Collector
	autoRetry  bool
	logger     *slog.Logger
}

// New assembles the concierge core.
func New(st store.Store, controller *index.Controller, sessions *memory.Sessions,
	rag *answer.RAG, fallback *answer.Fallback, stats *metrics.Collector,
	opts Options, logger *slog.Logger) *Concierge {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = memory.NewSessions()
	}
	return &Concierge{
		store:      st,
		controller: controller,
		sessions:   sessions,
		rag:        rag,
		fallback:   fallback,
		stats:      stats,
		autoRetry:  opts.AutoRetry,
		logger:     logger,
	}
}

// AskResult pairs an answer with the session it belongs to, so callers
// without a session ID learn the generated one.
type AskResult struct {
	models.AnswerResult
	SessionID string `json:"sessionId"`
}

// Ask answers a question within a session. The retrieval path is used
// when a usable index handle exists (ready or stale); everything else
// degrades to the fallback path. Ask never fails: every degradation
// produces a best-effort answer.
func (c *Concierge) Ask(ctx context.Context, question, sessionID string) AskResult {
	conv, sessionID := c.sessions.Get(sessionID)

	props, err := c.store.GetAll(ctx)
	if err != nil {
		c.logger.Error("record load failed, answering from empty set", "error", err)
		props = nil
	}

	result := c.answerOnce(ctx, question, props, conv.History())
	conv.Append(question, result.Answer)

	return AskResult{AnswerResult: result, SessionID: sessionID}
}

func (c *Concierge) answerOnce(ctx context.Context, question string, props []models.Property, history []models.Turn) models.AnswerResult {
	state, idx := c.controller.Active()

	// A stale index still answers; it just may miss the newest records.
	usable := idx != nil && (state == models.StateReady || state == models.StateStale)
	if !usable {
		if state == models.StateDegraded && c.autoRetry {
			c.retryRebuild()
		}
		c.logger.Debug("answering via fallback", "state", string(state))
		c.stats.RecordTiming(metrics.OpFallback, 0)
		return c.fallback.Answer(question, props)
	}

	result, err := c.rag.Answer(ctx, question, idx, props, history)
	if err != nil {
		// Retrieval failures degrade to the fallback path for this
		// question only; the index handle itself is still good.
		c.logger.Warn("retrieval failed, answering via fallback", "error", err)
		c.stats.RecordTiming(metrics.OpFallback, 0)
		return c.fallback.Answer(question, props)
	}
	return result
}

// retryRebuild kicks off one background rebuild attempt. The build
// mutex inside the controller collapses concurrent attempts.
func (c *Concierge) retryRebuild() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildRetryTimeout)
		defer cancel()
		if _, err := c.controller.Rebuild(ctx); err != nil {
			c.logger.Warn("background rebuild attempt failed", "error", err)
		}
	}()
}

// AddListing stores a new listing and updates the index incrementally.
// The listing is durable even when indexing fails; the index state
// reflects the failure instead.
func (c *Concierge) AddListing(ctx context.Context, p models.Property) (string, error) {
	id, err := c.store.Add(ctx, p)
	if err != nil {
		return "", err
	}
	p.ID = id

	if err := c.controller.AddRecord(ctx, p); err != nil {
		// The record is saved; questions degrade to fallback until a
		// rebuild succeeds.
		c.logger.Error("index update failed after add", "property", id, "error", err)
	}
	return id, nil
}

// Rebuild forces a full index rebuild. Returns the number of records
// indexed.
func (c *Concierge) Rebuild(ctx context.Context) (int, error) {
	return c.controller.Rebuild(ctx)
}

// Listings returns all stored listings in insertion order.
func (c *Concierge) Listings(ctx context.Context) ([]models.Property, error) {
	return c.store.GetAll(ctx)
}

// GetProperty returns one listing by ID, or ErrNotFound.
func (c *Concierge) GetProperty(ctx context.Context, id string) (models.Property, error) {
	p, err := c.store.GetByID(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if p == nil {
		return models.Property{}, ErrNotFound
	}
	return *p, nil
}

// Status reports the index lifecycle and session-memory readiness.
func (c *Concierge) Status() models.Status {
	st := c.controller.Status()
	st.MemoryInitialized = c.sessions != nil
	return st
}

// Stats returns a snapshot of the operation timing counters.
func (c *Concierge) Stats() metrics.Snapshot {
	return c.stats.Snapshot()
}
