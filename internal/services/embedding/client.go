package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"secsum/internal/services"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultBatchSize      = 32
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// dimensionProbeText is embedded once to discover the model's vector width.
const dimensionProbeText = "dimension probe"

// Config captures the runtime settings for the embeddings endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	BatchSize      int
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible embeddings API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
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

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an embeddings client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			BatchSize:      cfg.BatchSize,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.BatchSize <= 0 {
		client.cfg.BatchSize = defaultBatchSize
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Embed returns one vector per input text, in input order. Inputs are sent
// in windows of the configured batch size and reassembled by the provider's
// reported index rather than response position.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "embedding", "embed", "api key required", nil)
	}
	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(texts))
		window := texts[start:end]
		windowVectors, err := c.embedWindowWithRetry(ctx, window)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "embedding", "embed", "embeddings request failed", err)
		}
		if len(windowVectors) != len(window) {
			return nil, services.Wrap(
				services.ErrExternalService,
				"embedding",
				"embed",
				fmt.Sprintf("embedding count mismatch: got %d vectors for %d inputs", len(windowVectors), len(window)),
				nil,
			)
		}
		copy(vectors[start:end], windowVectors)
	}
	for i, vector := range vectors {
		if vector == nil {
			return nil, services.Wrap(
				services.ErrExternalService,
				"embedding",
				"embed",
				fmt.Sprintf("missing embedding for input %d", i),
				nil,
			)
		}
	}
	return vectors, nil
}

// ProbeDimension embeds a short probe text and reports the vector width the
// model produces. Used to size collections when no explicit dimension is
// configured.
func (c *Client) ProbeDimension(ctx context.Context) (int, error) {
	vectors, err := c.Embed(ctx, []string{dimensionProbeText})
	if err != nil {
		return 0, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, services.Wrap(services.ErrExternalService, "embedding", "probe", "empty probe vector", nil)
	}
	return len(vectors[0]), nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("embedding request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) embedWindowWithRetry(ctx context.Context, window []string) ([][]float32, error) {
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		vectors, err := c.embedWindowOnce(ctx, window)
		if err == nil {
			return vectors, nil
		}
		delay, transient := c.transientDelay(err)
		if !transient {
			return nil, err
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("embedding request: failed after %d attempts: %w", attempts, err)
		}
		if delay <= 0 {
			delay = c.backoffDelay(attempt)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) embedWindowOnce(ctx context.Context, window []string) ([][]float32, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding request: build url: %w", err)
	}
	encoded, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: window})
	if err != nil {
		return nil, fmt.Errorf("embedding request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("embedding request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	var decoded embeddingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("embedding request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("embedding request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	vectors := make([][]float32, len(window))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(window) {
			return nil, fmt.Errorf("embedding request: index %d out of range for %d inputs", item.Index, len(window))
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vector := range vectors {
		if vector == nil {
			return nil, fmt.Errorf("embedding request: missing vector for input %d", i)
		}
	}
	return vectors, nil
}

// transientDelay reports whether err is worth another attempt and any
// server-directed delay to honor before it. A zero delay means the caller
// should fall back to the exponential schedule.
func (c *Client) transientDelay(err error) (time.Duration, bool) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return c.capDelay(statusErr.RetryAfter), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 0, true
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base < 0 {
		base = defaultRetryBaseDelay
	}
	if base == 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
