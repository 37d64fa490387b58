package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"secsum/internal/config"
	"secsum/internal/services/embedding"
	"secsum/internal/services/llm"
	"secsum/internal/services/qdrant"
)

// CheckLLM verifies that the chat-completion API is reachable and the key
// is valid. It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, cfg config.LLM) Result {
	const name = "Summarization LLM"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError("LLM API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckEmbedding verifies the embeddings endpoint by probing the model's
// vector dimension.
func CheckEmbedding(ctx context.Context, cfg config.Embedding) Result {
	const name = "Embedding model"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := embedding.NewClient(embedding.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, embedding.WithRetryMaxAttempts(1))

	dim, err := client.ProbeDimension(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError("embeddings API", err)}
	}
	if dim <= 0 {
		return Result{Name: name, Detail: "probe returned an empty vector"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d-dimensional vectors", dim)}
}

// CheckQdrant verifies vector store connectivity and authentication.
func CheckQdrant(ctx context.Context, cfg config.Qdrant) Result {
	const name = "Qdrant"

	if strings.TrimSpace(cfg.URL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := qdrant.NewClient(qdrant.Config{
		URL:            cfg.URL,
		APIKey:         cfg.APIKey,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError("Qdrant", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckEdgarIdentity verifies the SEC contact identity is present. EDGAR
// rejects requests that do not declare a contact email.
func CheckEdgarIdentity(cfg config.Edgar) Result {
	const name = "EDGAR identity"

	email := strings.TrimSpace(cfg.UserAgentEmail)
	if email == "" {
		return Result{Name: name, Detail: "user_agent_email missing (SEC rejects anonymous clients)"}
	}
	if !strings.Contains(email, "@") {
		return Result{Name: name, Detail: fmt.Sprintf("%q does not look like an email address", email)}
	}
	return Result{Name: name, Passed: true, Detail: email}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeNetworkError produces a human-readable summary for connectivity failures.
func summarizeNetworkError(target string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", target)
	}
	return err.Error()
}
