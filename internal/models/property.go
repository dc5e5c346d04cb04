// Package models defines data structures for the concierge listing assistant.
package models

import "time"

// Property is a listing record as stored by the record store. The
// answering core treats it as read-only input; only the store assigns
// IDs and timestamps.
type Property struct {
	ID                 string    `json:"id"`
	PropertyName       string    `json:"propertyName"`
	PropertyAddress    string    `json:"propertyAddress"`
	PropertyCostRange  string    `json:"propertyCostRange"`
	Description        string    `json:"description"`
	Bedrooms           int       `json:"bedrooms"`
	Bathrooms          int       `json:"bathrooms"`
	Area               string    `json:"area"`
	Features           []string  `json:"features"`
	RoomPhotoID        string    `json:"roomPhotoId,omitempty"`
	BathroomPhotoID    string    `json:"bathroomPhotoId,omitempty"`
	DrawingRoomPhotoID string    `json:"drawingRoomPhotoId,omitempty"`
	KitchenPhotoID     string    `json:"kitchenPhotoId,omitempty"`
	Status             string    `json:"status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PhotoIDs returns the per-room photo identifiers in a fixed order:
// room, bathroom, drawing room, kitchen. Empty entries mean no photo.
func (p Property) PhotoIDs() [4]string {
	return [4]string{p.RoomPhotoID, p.BathroomPhotoID, p.DrawingRoomPhotoID, p.KitchenPhotoID}
}

// PhotoCount returns how many per-room photos the listing has.
func (p Property) PhotoCount() int {
	n := 0
	for _, id := range p.PhotoIDs() {
		if id != "" {
			n++
		}
	}
	return n
}

// Turn is one question/answer exchange within a session.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Answer sources reported to the caller.
const (
	SourceRAG      = "rag_enhanced"
	SourceFallback = "fallback"
)

// AnswerResult is the outcome of asking a question.
type AnswerResult struct {
	Answer            string `json:"answer"`
	Source            string `json:"source"`
	Properties        []Card `json:"properties,omitempty"`
	ShowPropertyCards bool   `json:"showPropertyCards"`
	KnowledgeBaseSize int    `json:"properties_in_knowledge_base"`
}

// IndexState classifies the readiness of the semantic index.
type IndexState string

const (
	StateUninitialized IndexState = "uninitialized"
	StateBuilding      IndexState = "building"
	StateReady         IndexState = "ready"
	StateStale         IndexState = "stale"
	StateDegraded      IndexState = "degraded"
)

// Status reports the index lifecycle for the status operation. It is
// assembled from an atomic snapshot and never blocks on a build in
// progress.
type Status struct {
	State             IndexState `json:"state"`
	HasIndex          bool       `json:"hasIndex"`
	MemoryInitialized bool       `json:"memoryInitialized"`
	RecordCount       int        `json:"recordCount"`
}
