// Package client provides a REST client for the concierge server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/models"
)

// Client is a REST client for the concierge server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, uses CONCIERGE_SERVER_URL
// or defaults to localhost:5090. Timeout can be configured via
// CONCIERGE_CLIENT_TIMEOUT (default 2m to cover slow generations).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("CONCIERGE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:5090"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("CONCIERGE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AskResponse is the answer payload returned by the server.
type AskResponse struct {
	Answer            string        `json:"answer"`
	Source            string        `json:"source"`
	Properties        []models.Card `json:"properties,omitempty"`
	ShowPropertyCards bool          `json:"showPropertyCards"`
	KnowledgeBaseSize int           `json:"properties_in_knowledge_base"`
	SessionID         string        `json:"sessionId"`
}

// Ask sends a question, optionally continuing an existing session.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (*AskResponse, error) {
	q := url.Values{}
	q.Set("question", question)
	if sessionID != "" {
		q.Set("session", sessionID)
	}

	var resp AskResponse
	if err := c.get(ctx, "/api/askIt?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddListingResponse is the server's response to storing a listing.
type AddListingResponse struct {
	Msg        string `json:"msg"`
	PropertyID string `json:"propertyId"`
	ImageIDs   struct {
		Room        string `json:"room,omitempty"`
		Bathroom    string `json:"bathroom,omitempty"`
		DrawingRoom string `json:"drawingRoom,omitempty"`
		Kitchen     string `json:"kitchen,omitempty"`
	} `json:"imageIds"`
}

// AddListing stores a new property listing.
func (c *Client) AddListing(ctx context.Context, p models.Property) (*AddListingResponse, error) {
	var resp AddListingResponse
	if err := c.post(ctx, "/api/addListing", p, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListingsResponse wraps the stored listings.
type ListingsResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Properties []models.Property `json:"properties"`
}

// Listings returns all stored listings.
func (c *Client) Listings(ctx context.Context) (*ListingsResponse, error) {
	var resp ListingsResponse
	if err := c.get(ctx, "/api/getListings", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProperty returns a single listing by ID.
func (c *Client) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var resp struct {
		Success  bool            `json:"success"`
		Property models.Property `json:"property"`
	}
	if err := c.get(ctx, "/api/getProperty/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Property, nil
}

// RebuildResponse reports the outcome of a forced rebuild.
type RebuildResponse struct {
	Success bool   `json:"success"`
	Records int    `json:"records"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
}

// Rebuild forces a full index rebuild.
func (c *Client) Rebuild(ctx context.Context) (*RebuildResponse, error) {
	var resp RebuildResponse
	if err := c.post(ctx, "/api/rebuild", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the index lifecycle status.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var resp models.Status
	if err := c.get(ctx, "/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns the server's operation timing counters.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var resp metrics.Snapshot
	if err := c.get(ctx, "/api/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status            string `json:"status"`
	IndexState        string `json:"indexState"`
	RecordCount       int    `json:"recordCount"`
	MemoryInitialized bool   `json:"memoryInitialized"`
}

// Health probes the server.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
