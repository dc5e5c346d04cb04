package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribconcierge/concierge-go/internal/answer"
	"github.com/cribconcierge/concierge-go/internal/chunker"
	"github.com/cribconcierge/concierge-go/internal/index"
	"github.com/cribconcierge/concierge-go/internal/memory"
	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/models"
	"github.com/cribconcierge/concierge-go/internal/service"
	"github.com/cribconcierge/concierge-go/internal/store"
)

// toggleEmbedder embeds deterministically and can fail single-question
// embeds and batch embeds independently.
type toggleEmbedder struct {
	mu        sync.Mutex
	failEmbed bool
	failBatch bool
}

func (e *toggleEmbedder) set(failEmbed, failBatch bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failEmbed = failEmbed
	e.failBatch = failBatch
}

func (e *toggleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failEmbed {
		return nil, errors.New("embedding backend down")
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *toggleEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failBatch {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

// echoGenerator answers with a fixed string and records history.
type echoGenerator struct {
	mu         sync.Mutex
	answer     string
	gotHistory []models.Turn
}

func (g *echoGenerator) Answer(_ context.Context, _, _ string, history []models.Turn) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gotHistory = append([]models.Turn(nil), history...)
	return g.answer, nil
}

func (g *echoGenerator) history() []models.Turn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gotHistory
}

type fixture struct {
	core       *service.Concierge
	store      *store.Memory
	controller *index.Controller
	embedder   *toggleEmbedder
	generator  *echoGenerator
}

func newFixture(t *testing.T, opts service.Options) *fixture {
	t.Helper()

	st := store.NewMemory()
	embedder := &toggleEmbedder{}
	generator := &echoGenerator{answer: "Here is what I found."}
	stats := metrics.NewCollector()

	controller, err := index.NewController(embedder, st, chunker.DefaultConfig(), nil, stats)
	require.NoError(t, err)

	core := service.New(st, controller,
		memory.NewSessions(),
		answer.NewRAG(embedder, generator, 5, nil, stats),
		answer.NewFallback(nil),
		stats, opts, nil)

	return &fixture{
		core:       core,
		store:      st,
		controller: controller,
		embedder:   embedder,
		generator:  generator,
	}
}

func (f *fixture) addListing(t *testing.T, name string) string {
	t.Helper()
	id, err := f.core.AddListing(context.Background(), models.Property{
		PropertyName:      name,
		PropertyAddress:   "Pune",
		PropertyCostRange: "85L",
	})
	require.NoError(t, err)
	return id
}

func TestAskBeforeAnyListingsUsesFallback(t *testing.T) {
	f := newFixture(t, service.Options{})

	result := f.core.Ask(context.Background(), "what do you have?", "")
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Contains(t, result.Answer, "don't have any property listings")
	assert.NotEmpty(t, result.SessionID, "anonymous asks get a generated session")
}

func TestAskWithReadyIndexUsesRAG(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	result := f.core.Ask(context.Background(), "tell me about the villa", "s1")
	assert.Equal(t, models.SourceRAG, result.Source)
	assert.Equal(t, "Here is what I found.", result.Answer)
	assert.Equal(t, 1, result.KnowledgeBaseSize)
	assert.Equal(t, "s1", result.SessionID)
}

func TestAskStaleIndexStillUsesRAG(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	f.controller.MarkStale()
	result := f.core.Ask(context.Background(), "anything?", "s1")
	assert.Equal(t, models.SourceRAG, result.Source)
}

func TestAskRetrievalFailureDegradesPerQuestion(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	// Question embedding fails; the index itself is fine.
	f.embedder.set(true, false)
	result := f.core.Ask(context.Background(), "what is the price?", "s1")
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Contains(t, result.Answer, "Sunset Villa")

	// Next question recovers without any rebuild.
	f.embedder.set(false, false)
	result = f.core.Ask(context.Background(), "anything?", "s1")
	assert.Equal(t, models.SourceRAG, result.Source)
}

func TestAskRecordsConversationHistory(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	first := f.core.Ask(context.Background(), "what do you have?", "s1")
	f.core.Ask(context.Background(), "how much is it?", "s1")

	history := f.generator.history()
	require.Len(t, history, 1, "second question sees the first exchange")
	assert.Equal(t, "what do you have?", history[0].Question)
	assert.Equal(t, first.Answer, history[0].Answer)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	f.core.Ask(context.Background(), "first question", "s1")
	f.core.Ask(context.Background(), "other session question", "s2")

	assert.Empty(t, f.generator.history(),
		"a fresh session must not see another session's turns")
}

func TestAddListingUpdatesIndexIncrementally(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")
	f.addListing(t, "Lake View Flat")

	st := f.core.Status()
	assert.Equal(t, models.StateReady, st.State)
	assert.Equal(t, 2, st.RecordCount)
}

func TestAddListingSurvivesIndexFailure(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	f.embedder.set(false, true)
	id, err := f.core.AddListing(context.Background(), models.Property{PropertyName: "Broken Add"})
	require.NoError(t, err, "the record must be stored even when indexing fails")
	assert.NotEmpty(t, id)

	assert.Equal(t, models.StateDegraded, f.core.Status().State)

	props, err := f.core.Listings(context.Background())
	require.NoError(t, err)
	assert.Len(t, props, 2)
}

func TestDegradedWithAutoRetryRecovers(t *testing.T) {
	f := newFixture(t, service.Options{AutoRetry: true})
	f.addListing(t, "Sunset Villa")

	// Break indexing, add a record to degrade, then heal the backend.
	f.embedder.set(false, true)
	f.addListing(t, "Lake View Flat")
	require.Equal(t, models.StateDegraded, f.core.Status().State)
	f.embedder.set(false, false)

	// The degraded-path question still gets a fallback answer but kicks
	// off a background rebuild.
	result := f.core.Ask(context.Background(), "anything?", "s1")
	assert.Equal(t, models.SourceFallback, result.Source)

	require.Eventually(t, func() bool {
		return f.core.Status().State == models.StateReady
	}, 5*time.Second, 10*time.Millisecond, "background rebuild should recover the index")
	assert.Equal(t, 2, f.core.Status().RecordCount)
}

func TestDegradedWithoutAutoRetryStaysDegraded(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")

	f.embedder.set(false, true)
	f.addListing(t, "Lake View Flat")
	f.embedder.set(false, false)

	f.core.Ask(context.Background(), "anything?", "s1")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, models.StateDegraded, f.core.Status().State)

	// Manual rebuild recovers.
	records, err := f.core.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, records)
	assert.Equal(t, models.StateReady, f.core.Status().State)
}

func TestGetProperty(t *testing.T) {
	f := newFixture(t, service.Options{})
	id := f.addListing(t, "Sunset Villa")

	p, err := f.core.GetProperty(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Sunset Villa", p.PropertyName)

	_, err = f.core.GetProperty(context.Background(), "missing")
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestStatusReportsMemoryInitialized(t *testing.T) {
	f := newFixture(t, service.Options{})

	st := f.core.Status()
	assert.True(t, st.MemoryInitialized)
	assert.Equal(t, models.StateUninitialized, st.State)
}

func TestStatsRecordsOperations(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.addListing(t, "Sunset Villa")
	f.core.Ask(context.Background(), "anything?", "s1")

	snap := f.core.Stats()
	assert.Contains(t, snap.Operations, metrics.OpEmbedding)
	assert.Contains(t, snap.Operations, metrics.OpGeneration)
	assert.Contains(t, snap.Operations, metrics.OpIndexBuild)
}
