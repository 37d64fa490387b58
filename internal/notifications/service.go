// Package notifications pushes pipeline lifecycle events to ntfy.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"secsum/internal/config"
)

const defaultServer = "https://ntfy.sh/"

// Service is the notification surface exposed to the pipeline. Publish
// failures are for the caller to log; they must never stop a run.
type Service interface {
	Publish(ctx context.Context, event Event) error
}

// NewService builds a notification service backed by ntfy when enabled
// and configured. Otherwise a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if !cfg.Enabled || topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	endpoint := topic
	if !strings.Contains(endpoint, "://") {
		endpoint = defaultServer + endpoint
	}
	return &ntfyService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewNop returns a service that drops every event.
func NewNop() Service { return noopService{} }

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event) error {
	if n == nil || n.client == nil || event == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(event.message()))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", "secsum")
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title := event.title(); title != "" {
		req.Header.Set("Title", title)
	}
	if tags := event.tags(); len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if priority := event.priority(); priority != "" && priority != "default" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event) error { return nil }
