// Package index holds the in-memory semantic index and its lifecycle
// controller.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cribconcierge/concierge-go/internal/chunker"
)

// ErrIndexBuild marks an embedding or index-construction failure.
// A build is all-or-nothing: no partial index is ever exposed, and the
// lifecycle controller moves to degraded on this error.
var ErrIndexBuild = errors.New("index build failed")

// Embedder is the embedding collaborator consumed by the index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DefaultTopK is the nearest-neighbor count used when a query asks for
// zero or fewer results.
const DefaultTopK = 5

type entry struct {
	chunk  chunker.Chunk
	vector []float32
}

// Index is an immutable-once-built collection of embedded chunks with a
// nearest-neighbor query capability. Incremental adds return a new
// handle; existing handles are never mutated, so concurrent readers of
// an older handle are unaffected.
type Index struct {
	entries []entry
	builtAt time.Time
	records int
}

// Result is one nearest-neighbor match.
type Result struct {
	Chunk chunker.Chunk
	Score float32
}

// Build embeds every chunk and constructs a queryable index. Any
// embedding failure aborts the whole build with ErrIndexBuild.
func Build(ctx context.Context, embedder Embedder, chunks []chunker.Chunk, records int) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", ErrIndexBuild)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}

	entries := make([]entry, len(chunks))
	for i := range chunks {
		entries[i] = entry{chunk: chunks[i], vector: vectors[i]}
	}

	return &Index{
		entries: entries,
		builtAt: time.Now(),
		records: records,
	}, nil
}

// WithChunks embeds only the new chunks and returns a new index handle
// containing the old entries plus the new ones. The receiver is not
// modified.
func (idx *Index) WithChunks(ctx context.Context, embedder Embedder, chunks []chunker.Chunk, addedRecords int) (*Index, error) {
	if len(chunks) == 0 {
		return idx, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}

	entries := make([]entry, 0, len(idx.entries)+len(chunks))
	entries = append(entries, idx.entries...)
	for i := range chunks {
		entries = append(entries, entry{chunk: chunks[i], vector: vectors[i]})
	}

	return &Index{
		entries: entries,
		builtAt: time.Now(),
		records: idx.records + addedRecords,
	}, nil
}

// Query returns at most k nearest neighbors of the question embedding,
// strictly non-increasing by cosine similarity, ties broken by original
// insertion order.
func (idx *Index) Query(questionVec []float32, k int) []Result {
	if k <= 0 {
		k = DefaultTopK
	}

	results := make([]Result, 0, len(idx.entries))
	for _, e := range idx.entries {
		results = append(results, Result{
			Chunk: e.chunk,
			Score: cosineSimilarity(questionVec, e.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Records returns the number of listings the index was built from.
func (idx *Index) Records() int {
	return idx.records
}

// BuiltAt returns when this handle was constructed.
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched or empty vectors score zero.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denom == 0 {
		return 0
	}
	return dot / denom
}
