package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cribconcierge/concierge-go/internal/index"
	"github.com/cribconcierge/concierge-go/internal/llm"
	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/models"
)

// ErrRetrieval marks a failure to embed the question or query the
// index. The caller should degrade to the fallback path.
var ErrRetrieval = errors.New("retrieval failed")

// apologyAnswer is returned when the generation collaborator fails.
const apologyAnswer = "Sorry, I couldn't process your question. Please try again."

// QueryEmbedder embeds a single question for retrieval.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator synthesizes an answer from retrieved context and history.
type Generator interface {
	Answer(ctx context.Context, question, searchContext string, history []models.Turn) (string, error)
}

// RAG answers questions by retrieving relevant listing chunks and
// invoking the generation collaborator.
type RAG struct {
	embedder  QueryEmbedder
	generator Generator
	topK      int
	logger    *slog.Logger
	stats     *metrics.Collector
}

// NewRAG creates a retrieval answerer.
func NewRAG(embedder QueryEmbedder, generator Generator, topK int, logger *slog.Logger, stats *metrics.Collector) *RAG {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RAG{
		embedder:  embedder,
		generator: generator,
		topK:      topK,
		logger:    logger,
		stats:     stats,
	}
}

// Answer runs retrieval and generation against the given index handle.
// The handle stays valid for the whole call even if the controller
// swaps in a newer one concurrently.
//
// A generation failure is converted into an apology answer, never an
// error. ErrRetrieval is returned only when the question could not be
// embedded; the caller degrades to the fallback path.
func (r *RAG) Answer(ctx context.Context, question string, idx *index.Index, props []models.Property, history []models.Turn) (models.AnswerResult, error) {
	timer := metrics.StartTimer(r.stats, metrics.OpEmbedding)
	questionVec, err := r.embedder.Embed(ctx, question)
	timer.Stop()
	if err != nil {
		return models.AnswerResult{}, fmt.Errorf("%w: embed question: %v", ErrRetrieval, err)
	}

	timer = metrics.StartTimer(r.stats, metrics.OpIndexQuery)
	results := idx.Query(questionVec, r.topK)
	timer.Stop()

	searchContext := buildSearchContext(results)

	timer = metrics.StartTimer(r.stats, metrics.OpGeneration)
	text, err := r.generator.Answer(ctx, question, searchContext, history)
	timer.Stop()
	if err != nil {
		// Generation failures degrade to an apology; lifecycle state is
		// untouched.
		if !errors.Is(err, llm.ErrGeneration) {
			r.logger.Error("unexpected generation error", "error", err)
		}
		text = apologyAnswer
	}

	answer := NormalizeAnswer(text)

	result := models.AnswerResult{
		Answer:            answer,
		Source:            models.SourceRAG,
		KnowledgeBaseSize: len(props),
	}

	if ShouldShowCards(question, answer) && len(props) > 0 {
		result.Properties = models.ToCards(newestFirst(props), ragCardLimit)
		result.ShowPropertyCards = true
	}

	return result, nil
}

// buildSearchContext formats retrieved chunks into a context block for
// the generation collaborator.
func buildSearchContext(results []index.Result) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		header := res.Chunk.Source.Name
		if header == "" {
			header = "Listing"
		}
		part := fmt.Sprintf("## %s\n%s", header, res.Chunk.Text)
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n---\n")
}
