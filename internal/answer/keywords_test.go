package answer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cribconcierge/concierge-go/internal/models"
)

func TestShouldShowCards(t *testing.T) {
	tests := []struct {
		name     string
		question string
		answer   string
		want     bool
	}{
		{"keyword in question", "show me what you have", "here you go", true},
		{"keyword only in answer", "what do you have?", "Several properties match.", true},
		{"case insensitive", "any VR Tours?", "", true},
		{"listing keyword", "latest listings please", "", true},
		{"no keywords anywhere", "what is the weather?", "no idea", false},
		{"substring match", "is anything available?", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldShowCards(tt.question, tt.answer))
		})
	}
}

func TestWantsFallbackCardsNarrowerThanRAG(t *testing.T) {
	// "tour" triggers cards on the retrieval path but not on fallback.
	assert.True(t, ShouldShowCards("book a tour", ""))
	assert.False(t, wantsFallbackCards("book a tour"))

	assert.True(t, wantsFallbackCards("show me the list"))
	assert.False(t, wantsFallbackCards("what is the price?"))
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escaped newlines", `line one\nline two`, "line one\nline two"},
		{"escaped asterisks", `\*emphasis\*`, "*emphasis*"},
		{"bold markers preserved", "**Sunset Villa**", "**Sunset Villa**"},
		{"untouched text", "plain answer", "plain answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAnswer(tt.in))
		})
	}
}

func TestNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	props := []models.Property{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(time.Hour)},
	}

	ordered := newestFirst(props)
	assert.Equal(t, []string{"new", "mid", "old"},
		[]string{ordered[0].ID, ordered[1].ID, ordered[2].ID})

	// Input slice is untouched.
	assert.Equal(t, "old", props[0].ID)
}

func TestNewestFirstStableOnTies(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	props := []models.Property{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base},
	}

	ordered := newestFirst(props)
	assert.Equal(t, "a", ordered[0].ID)
	assert.Equal(t, "b", ordered[1].ID)
}
