// Package answer produces chat answers: a retrieval-augmented path and
// a deterministic fallback path, plus the card-attachment heuristics
// shared between them.
package answer

import (
	"sort"
	"strings"

	"github.com/cribconcierge/concierge-go/internal/models"
)

// cardKeywords triggers card attachment on the retrieval path. Checked
// against both the question and the generated answer.
var cardKeywords = []string{
	"property", "properties", "listing", "listings", "show",
	"recommend", "available", "vr", "tour", "photos",
}

// fallbackCardKeywords triggers card attachment on the fallback path.
// Deliberately narrower than cardKeywords; the two paths also use
// different card limits (6 vs 3).
var fallbackCardKeywords = []string{"property", "properties", "show", "list", "available"}

// Card limits per path.
const (
	ragCardLimit      = 6
	fallbackCardLimit = 3
)

// ShouldShowCards reports whether the question or answer asks for
// property cards on the retrieval path.
func ShouldShowCards(question, answer string) bool {
	return containsAny(strings.ToLower(question), cardKeywords) ||
		containsAny(strings.ToLower(answer), cardKeywords)
}

func wantsFallbackCards(question string) bool {
	return containsAny(strings.ToLower(question), fallbackCardKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// NormalizeAnswer unescapes the control sequences a generation
// collaborator may return literally: "\n" escape sequences become real
// line breaks and escaped asterisks become plain asterisks, keeping
// bold markers intact.
func NormalizeAnswer(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\*`, "*")
	return s
}

// newestFirst returns a copy of the records ordered most recently added
// first. Records with equal timestamps keep their relative order.
func newestFirst(props []models.Property) []models.Property {
	out := make([]models.Property, len(props))
	copy(out, props)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
