package answer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cribconcierge/concierge-go/internal/models"
)

// Fallback messages.
const (
	noListingsAnswer = "I don't have any property listings in the database yet. " +
		"Please add some properties first, then I'll be able to help you find the perfect home! 🏠"
	fallbackApology = "Sorry, I encountered an error processing your question."
	contactUsLine   = "Contact us for more details!"
)

// Fallback answers questions deterministically from the raw record set,
// without the semantic layer. Used whenever the index is not ready.
type Fallback struct {
	logger *slog.Logger
}

// NewFallback creates a fallback answerer.
func NewFallback(logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{logger: logger}
}

// Answer produces a keyword-driven answer about the most recently added
// listing. It never fails: any internal error becomes a generic
// apology.
func (f *Fallback) Answer(question string, props []models.Property) (result models.AnswerResult) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("fallback answerer panicked", "panic", r)
			result = models.AnswerResult{
				Answer:            fallbackApology,
				Source:            models.SourceFallback,
				KnowledgeBaseSize: len(props),
			}
		}
	}()

	result = models.AnswerResult{
		Source:            models.SourceFallback,
		KnowledgeBaseSize: len(props),
	}

	if len(props) == 0 {
		result.Answer = noListingsAnswer
		return result
	}

	ordered := newestFirst(props)
	latest := ordered[0]
	q := strings.ToLower(question)

	// First match wins.
	switch {
	case containsAny(q, []string{"price", "cost"}):
		result.Answer = fmt.Sprintf("The latest property '%s' is priced at %s%s.",
			latest.PropertyName, models.CurrencyPrefix, latest.PropertyCostRange)

	case containsAny(q, []string{"address", "location"}):
		result.Answer = fmt.Sprintf("The property is located at %s.", latest.PropertyAddress)

	case containsAny(q, []string{"photo", "image", "vr", "tour"}):
		result.Answer = fmt.Sprintf("The property '%s' has %d uploaded photos available for VR tour viewing.",
			latest.PropertyName, latest.PhotoCount())

	case containsAny(q, []string{"count", "how many"}):
		result.Answer = fmt.Sprintf("We currently have %d properties in our database.", len(props))

	default:
		description := latest.Description
		if description == "" {
			description = contactUsLine
		}
		result.Answer = fmt.Sprintf("**%s**\n\nLocation: %s\nPrice: %s%s\n\n%s",
			latest.PropertyName, latest.PropertyAddress,
			models.CurrencyPrefix, latest.PropertyCostRange, description)
	}

	if wantsFallbackCards(question) {
		result.Properties = models.ToCards(ordered, fallbackCardLimit)
		result.ShowPropertyCards = true
	}

	return result
}
