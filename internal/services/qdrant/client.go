package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"secsum/internal/services"
	"secsum/internal/vectorindex"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings for a Qdrant instance.
type Config struct {
	URL            string
	APIKey         string
	TimeoutSeconds int
}

// Client talks to Qdrant over its REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Qdrant client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			URL:            strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// CollectionExists reports whether the named collection is present.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, body, err := c.doJSON(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return false, services.Wrap(services.ErrExternalService, "qdrant", "collection_exists", "request failed", err)
	}
	switch {
	case status == http.StatusOK:
		return true, nil
	case status == http.StatusNotFound:
		return false, nil
	default:
		return false, services.Wrap(
			services.ErrExternalService,
			"qdrant",
			"collection_exists",
			fmt.Sprintf("http %d: %s", status, summarizeBody(body)),
			nil,
		)
	}
}

// CreateCollection provisions a collection with the given vector width and
// distance metric. The distance is the lowercase config form (cosine,
// euclid, dot) and is mapped to Qdrant's casing here.
func (c *Client) CreateCollection(ctx context.Context, name string, dim int, distance string) error {
	mapped, ok := distanceName(distance)
	if !ok {
		return services.Wrap(
			services.ErrValidation,
			"qdrant",
			"create_collection",
			fmt.Sprintf("unsupported distance %q", distance),
			nil,
		)
	}
	if dim <= 0 {
		return services.Wrap(
			services.ErrValidation,
			"qdrant",
			"create_collection",
			fmt.Sprintf("invalid vector size %d", dim),
			nil,
		)
	}
	payload := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": mapped,
		},
	}
	status, body, err := c.doJSON(ctx, http.MethodPut, "/collections/"+name, payload)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "qdrant", "create_collection", "request failed", err)
	}
	if status != http.StatusOK {
		return services.Wrap(
			services.ErrExternalService,
			"qdrant",
			"create_collection",
			fmt.Sprintf("http %d: %s", status, summarizeBody(body)),
			nil,
		)
	}
	return nil
}

// Upsert writes points into the named collection, waiting for the write to
// be applied before returning.
func (c *Client) Upsert(ctx context.Context, name string, points []vectorindex.Point) error {
	if len(points) == 0 {
		return nil
	}
	payload := map[string]any{"points": points}
	status, body, err := c.doJSON(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true", payload)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "qdrant", "upsert", "request failed", err)
	}
	if status != http.StatusOK {
		return services.Wrap(
			services.ErrExternalService,
			"qdrant",
			"upsert",
			fmt.Sprintf("http %d: %s", status, summarizeBody(body)),
			nil,
		)
	}
	return nil
}

// ScoredPoint is a search hit with its similarity score and payload.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Search runs a nearest-neighbor query against the named collection and
// returns up to limit hits with payloads.
func (c *Client) Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 5
	}
	payload := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	status, body, err := c.doJSON(ctx, http.MethodPost, "/collections/"+name+"/points/search", payload)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "qdrant", "search", "request failed", err)
	}
	if status == http.StatusNotFound {
		return nil, services.Wrap(
			services.ErrNotFound,
			"qdrant",
			"search",
			fmt.Sprintf("collection %q not found", name),
			nil,
		)
	}
	if status != http.StatusOK {
		return nil, services.Wrap(
			services.ErrExternalService,
			"qdrant",
			"search",
			fmt.Sprintf("http %d: %s", status, summarizeBody(body)),
			nil,
		)
	}
	var decoded struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "qdrant", "search", "decode response", err)
	}
	hits := make([]ScoredPoint, 0, len(decoded.Result))
	for _, item := range decoded.Result {
		hits = append(hits, ScoredPoint{
			ID:      pointIDString(item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return hits, nil
}

// HealthCheck verifies the instance is reachable and answering.
func (c *Client) HealthCheck(ctx context.Context) error {
	status, body, err := c.doJSON(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "qdrant", "health", "request failed", err)
	}
	if status != http.StatusOK {
		return services.Wrap(
			services.ErrExternalService,
			"qdrant",
			"health",
			fmt.Sprintf("http %d: %s", status, summarizeBody(body)),
			nil,
		)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("qdrant request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant request: new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("qdrant request: read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Qdrant point ids are either UUID strings or unsigned integers.
func pointIDString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func distanceName(distance string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(distance)) {
	case "cosine":
		return "Cosine", true
	case "euclid":
		return "Euclid", true
	case "dot":
		return "Dot", true
	default:
		return "", false
	}
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	const limit = 200
	runes := []rune(trimmed)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return trimmed
}
