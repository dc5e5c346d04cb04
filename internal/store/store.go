// Package store provides listing persistence behind a small interface:
// an in-memory store for single-process deployments and tests, and a
// SurrealDB-backed store for durable setups.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cribconcierge/concierge-go/internal/models"
)

// Store is the record-store collaborator consumed by the answering
// core. GetByID returns nil for an unknown ID, not an error.
type Store interface {
	GetAll(ctx context.Context) ([]models.Property, error)
	GetByID(ctx context.Context, id string) (*models.Property, error)
	Add(ctx context.Context, p models.Property) (string, error)
}

// Memory is an in-memory Store. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	props []models.Property
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// GetAll returns a copy of all listings in insertion order.
func (m *Memory) GetAll(_ context.Context) ([]models.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Property, len(m.props))
	copy(out, m.props)
	return out, nil
}

// GetByID returns the listing with the given ID, or nil if absent.
func (m *Memory) GetByID(_ context.Context, id string) (*models.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.props {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

// Add stores a new listing, assigning its ID and timestamps.
func (m *Memory) Add(_ context.Context, p models.Property) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	m.props = append(m.props, p)
	return p.ID, nil
}

// Seed inserts listings with their IDs and timestamps as given,
// keeping the set ordered by creation time. Intended for tests and
// fixtures.
func (m *Memory) Seed(props ...models.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props = append(m.props, props...)
	sort.SliceStable(m.props, func(i, j int) bool {
		return m.props[i].CreatedAt.Before(m.props[j].CreatedAt)
	})
}
