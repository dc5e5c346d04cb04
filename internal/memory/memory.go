// Package memory holds per-session conversation history for multi-turn
// questions.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cribconcierge/concierge-go/internal/models"
)

// Conversation is the ordered turn history of one logical session.
// Append-only during a session; cleared on Reset or process restart.
// No size bound is enforced here: callers cap context length before
// sending history to the generation collaborator.
type Conversation struct {
	mu    sync.Mutex
	turns []models.Turn
}

// Append records one question/answer exchange.
func (c *Conversation) Append(question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, models.Turn{Question: question, Answer: answer})
}

// History returns the turns in order, most recent last. The returned
// slice is a copy.
func (c *Conversation) History() []models.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of recorded turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Reset clears the history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}

// Sessions maps session IDs to their conversations. Conversations are
// created on first use and live until the process exits.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Conversation
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Conversation)}
}

// Get returns the conversation for a session, creating it if needed.
// An empty session ID gets a fresh single-use conversation under a
// generated ID; the ID actually used is returned.
func (s *Sessions) Get(sessionID string) (*Conversation, string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[sessionID]
	if !ok {
		conv = &Conversation{}
		s.byID[sessionID] = conv
	}
	return conv, sessionID
}

// Reset drops a session's history. Unknown sessions are a no-op.
func (s *Sessions) Reset(sessionID string) {
	s.mu.Lock()
	conv, ok := s.byID[sessionID]
	s.mu.Unlock()
	if ok {
		conv.Reset()
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
