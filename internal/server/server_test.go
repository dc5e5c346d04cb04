package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribconcierge/concierge-go/internal/answer"
	"github.com/cribconcierge/concierge-go/internal/chunker"
	"github.com/cribconcierge/concierge-go/internal/index"
	"github.com/cribconcierge/concierge-go/internal/memory"
	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/models"
	"github.com/cribconcierge/concierge-go/internal/server"
	"github.com/cribconcierge/concierge-go/internal/service"
	"github.com/cribconcierge/concierge-go/internal/store"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type staticGenerator struct{}

func (staticGenerator) Answer(_ context.Context, _, _ string, _ []models.Turn) (string, error) {
	return "We have some great properties for you.", nil
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	st := store.NewMemory()
	stats := metrics.NewCollector()
	controller, err := index.NewController(staticEmbedder{}, st, chunker.DefaultConfig(), nil, stats)
	require.NoError(t, err)

	core := service.New(st, controller,
		memory.NewSessions(),
		answer.NewRAG(staticEmbedder{}, staticGenerator{}, 5, nil, stats),
		answer.NewFallback(nil),
		stats, service.Options{}, nil)

	return server.New(":0", core, nil)
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func addTestListing(t *testing.T, srv *server.Server, name string) string {
	t.Helper()

	var resp struct {
		Msg        string `json:"msg"`
		PropertyID string `json:"propertyId"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/addListing",
		models.Property{PropertyName: name, PropertyCostRange: "85L"}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Success", resp.Msg)
	return resp.PropertyID
}

func TestAskRequiresQuestion(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/askIt", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/askIt?question=%20%20", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskEmptyDatabaseFallsBack(t *testing.T) {
	srv := newTestServer(t)

	var resp struct {
		Answer    string `json:"answer"`
		Source    string `json:"source"`
		SessionID string `json:"sessionId"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/askIt?question=anything", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SourceFallback, resp.Source)
	assert.NotEmpty(t, resp.SessionID)
}

func TestAskAfterAddUsesRAG(t *testing.T) {
	srv := newTestServer(t)
	addTestListing(t, srv, "Sunset Villa")

	var resp struct {
		Answer            string        `json:"answer"`
		Source            string        `json:"source"`
		Properties        []models.Card `json:"properties"`
		ShowPropertyCards bool          `json:"showPropertyCards"`
		KnowledgeBaseSize int           `json:"properties_in_knowledge_base"`
	}
	rec := doJSON(t, srv, http.MethodGet,
		"/api/askIt?question=show+me+available+properties", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.SourceRAG, resp.Source)
	assert.Equal(t, 1, resp.KnowledgeBaseSize)
	assert.True(t, resp.ShowPropertyCards)
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, "Sunset Villa", resp.Properties[0].Title)
}

func TestAddListingValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/addListing",
		models.Property{PropertyName: "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/addListing",
		bytes.NewReader([]byte("{not json")))
	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddListingEchoesImageIDs(t *testing.T) {
	srv := newTestServer(t)

	var resp struct {
		PropertyID string `json:"propertyId"`
		ImageIDs   struct {
			Room    string `json:"room"`
			Kitchen string `json:"kitchen"`
		} `json:"imageIds"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/addListing", models.Property{
		PropertyName:   "Sunset Villa",
		RoomPhotoID:    "r1",
		KitchenPhotoID: "k1",
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", resp.ImageIDs.Room)
	assert.Equal(t, "k1", resp.ImageIDs.Kitchen)
}

func TestGetListings(t *testing.T) {
	srv := newTestServer(t)
	addTestListing(t, srv, "Sunset Villa")
	addTestListing(t, srv, "Lake View Flat")

	var resp struct {
		Success    bool              `json:"success"`
		Count      int               `json:"count"`
		Properties []models.Property `json:"properties"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/getListings", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Properties, 2)
	assert.Equal(t, "Sunset Villa", resp.Properties[0].PropertyName)
}

func TestGetProperty(t *testing.T) {
	srv := newTestServer(t)
	id := addTestListing(t, srv, "Sunset Villa")

	var resp struct {
		Success  bool            `json:"success"`
		Property models.Property `json:"property"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/getProperty/"+id, nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sunset Villa", resp.Property.PropertyName)

	rec = doJSON(t, srv, http.MethodGet, "/api/getProperty/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRebuild(t *testing.T) {
	srv := newTestServer(t)

	// Empty database: rebuild reports failure but the server stays up.
	var failResp struct {
		Success bool   `json:"success"`
		State   string `json:"state"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/rebuild", nil, &failResp)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, failResp.Success)
	assert.Equal(t, string(models.StateUninitialized), failResp.State)

	addTestListing(t, srv, "Sunset Villa")

	var okResp struct {
		Success bool   `json:"success"`
		Records int    `json:"records"`
		State   string `json:"state"`
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/rebuild", nil, &okResp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, okResp.Success)
	assert.Equal(t, 1, okResp.Records)
	assert.Equal(t, string(models.StateReady), okResp.State)
}

func TestStatusAndHealth(t *testing.T) {
	srv := newTestServer(t)
	addTestListing(t, srv, "Sunset Villa")

	var status models.Status
	rec := doJSON(t, srv, http.MethodGet, "/api/status", nil, &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StateReady, status.State)
	assert.True(t, status.HasIndex)
	assert.True(t, status.MemoryInitialized)
	assert.Equal(t, 1, status.RecordCount)

	var health struct {
		Status      string `json:"status"`
		IndexState  string `json:"indexState"`
		RecordCount int    `json:"recordCount"`
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/health", nil, &health)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, string(models.StateReady), health.IndexState)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)
	addTestListing(t, srv, "Sunset Villa")
	doJSON(t, srv, http.MethodGet, "/api/askIt?question=anything", nil, nil)

	var snap metrics.Snapshot
	rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil, &snap)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, snap.Operations, metrics.OpGeneration)
}
