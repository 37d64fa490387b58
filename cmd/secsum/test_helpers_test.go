package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"secsum/internal/filings"
	"secsum/internal/testsupport"
)

type cliTestEnv struct {
	baseDir      string
	configPath   string
	downloadsDir string
	outputDir    string
	logDir       string
}

// setupCLITestEnv points HOME at a scratch directory and writes a config
// file at the default lookup path, so commands that resolve configuration
// without an explicit --config stay inside the test sandbox.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	// Ambient credentials would flip check results; a set-but-empty value
	// stops each fallback chain without touching the real environment.
	t.Setenv("SECSUM_CONFIG", "")
	t.Setenv("SECSUM_EDGAR_EMAIL", "")
	t.Setenv("SECSUM_LLM_API_KEY", "")
	t.Setenv("SECSUM_EMBEDDING_API_KEY", "")

	env := &cliTestEnv{
		baseDir:      base,
		configPath:   filepath.Join(homeDir, ".config", "secsum", "config.toml"),
		downloadsDir: filepath.Join(base, "filings"),
		outputDir:    filepath.Join(base, "summaries"),
		logDir:       filepath.Join(base, "logs"),
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, env, nil)
	return env
}

// writeTestConfig writes the paths section pointing into the sandbox plus
// any extra TOML lines the test needs (service endpoints, credentials).
func writeTestConfig(t *testing.T, env *cliTestEnv, extra []string) {
	t.Helper()
	lines := []string{
		"[paths]",
		fmt.Sprintf("downloads_dir = %q", env.downloadsDir),
		fmt.Sprintf("output_dir = %q", env.outputDir),
		fmt.Sprintf("log_dir = %q", env.logDir),
	}
	lines = append(lines, extra...)
	if err := os.WriteFile(env.configPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// serviceConfigLines returns TOML overrides pointing every remote service
// at the given endpoints.
func serviceConfigLines(llmURL, embeddingURL, qdrantURL string) []string {
	return []string{
		"[llm]",
		fmt.Sprintf("base_url = %q", llmURL),
		`api_key = "test-llm-key"`,
		"[embedding]",
		fmt.Sprintf("base_url = %q", embeddingURL),
		`api_key = "test-embedding-key"`,
		"[qdrant]",
		fmt.Sprintf("url = %q", qdrantURL),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type callCounter struct {
	mu    sync.Mutex
	calls int
}

func (c *callCounter) inc() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *callCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fakeLLMServer answers every chat completion with the given message
// content.
func fakeLLMServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%s}}]}`, strconv.Quote(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeEmbeddingServer answers embedding requests with one fixed vector per
// input and counts the requests it serves.
func fakeEmbeddingServer(t *testing.T) (*httptest.Server, *callCounter) {
	t.Helper()
	counter := &callCounter{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.inc()
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Index: i, Embedding: []float32{0.1, 0.2, 0.3}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv, counter
}

// fakeQdrantServer emulates the collection endpoints the CLI touches:
// existence probes report every collection present, upserts are counted,
// and searches return the supplied hits JSON.
func fakeQdrantServer(t *testing.T, searchHits string) (*httptest.Server, *callCounter) {
	t.Helper()
	upserts := &callCounter{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/points/search"):
			fmt.Fprintf(w, `{"result":%s}`, searchHits)
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/points"):
			upserts.inc()
			fmt.Fprint(w, `{"status":"ok"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/collections":
			fmt.Fprint(w, `{"result":{"collections":[]}}`)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/collections/"):
			fmt.Fprint(w, `{"result":{"status":"green"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, upserts
}

// writeArchiveFiling drops a filing document into the local archive layout
// the downloader would have produced.
func writeArchiveFiling(t *testing.T, env *cliTestEnv, symbol, accession, name, body string) string {
	t.Helper()
	return testsupport.WriteFiling(t, env.downloadsDir, symbol, filings.ModeAnnual, accession, name, body, time.Time{})
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
