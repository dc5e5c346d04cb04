// Package server exposes the concierge core over HTTP with a JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cribconcierge/concierge-go/internal/models"
	"github.com/cribconcierge/concierge-go/internal/service"
)

// Server is the HTTP front of the concierge core.
type Server struct {
	core   *service.Concierge
	logger *slog.Logger
	http   *http.Server
}

// New creates a server listening on addr.
func New(addr string, core *service.Concierge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{core: core, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/askIt", s.handleAsk)
	mux.HandleFunc("POST /api/addListing", s.handleAddListing)
	mux.HandleFunc("GET /api/getListings", s.handleGetListings)
	mux.HandleFunc("GET /api/getProperty/{id}", s.handleGetProperty)
	mux.HandleFunc("POST /api/rebuild", s.handleRebuild)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s
}

// ListenAndServe runs the server until it is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question := strings.TrimSpace(r.URL.Query().Get("question"))
	if question == "" {
		writeError(w, http.StatusBadRequest, "question parameter is required")
		return
	}
	sessionID := r.URL.Query().Get("session")

	result := s.core.Ask(r.Context(), question, sessionID)
	writeJSON(w, http.StatusOK, result)
}

// imageIDs echoes back the per-room photo identifiers of a stored
// listing.
type imageIDs struct {
	Room        string `json:"room,omitempty"`
	Bathroom    string `json:"bathroom,omitempty"`
	DrawingRoom string `json:"drawingRoom,omitempty"`
	Kitchen     string `json:"kitchen,omitempty"`
}

type addListingResponse struct {
	Msg        string   `json:"msg"`
	PropertyID string   `json:"propertyId"`
	ImageIDs   imageIDs `json:"imageIds"`
}

func (s *Server) handleAddListing(w http.ResponseWriter, r *http.Request) {
	var p models.Property
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(p.PropertyName) == "" {
		writeError(w, http.StatusBadRequest, "propertyName is required")
		return
	}

	id, err := s.core.AddListing(r.Context(), p)
	if err != nil {
		s.logger.Error("add listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store listing")
		return
	}

	writeJSON(w, http.StatusOK, addListingResponse{
		Msg:        "Success",
		PropertyID: id,
		ImageIDs: imageIDs{
			Room:        p.RoomPhotoID,
			Bathroom:    p.BathroomPhotoID,
			DrawingRoom: p.DrawingRoomPhotoID,
			Kitchen:     p.KitchenPhotoID,
		},
	})
}

func (s *Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	props, err := s.core.Listings(r.Context())
	if err != nil {
		s.logger.Error("list properties failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load listings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"count":      len(props),
		"properties": props,
	})
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.core.GetProperty(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "property not found")
			return
		}
		s.logger.Error("get property failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load property")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"property": p,
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	records, err := s.core.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("rebuild failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
			"state":   s.core.Status().State,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"records": records,
		"state":   s.core.Status().State,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Status())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.core.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"indexState":        st.State,
		"recordCount":       st.RecordCount,
		"memoryInitialized": st.MemoryInitialized,
	})
}

// logRequests logs method, path, status and latency for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
