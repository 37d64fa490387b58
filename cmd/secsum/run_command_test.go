package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"secsum/internal/filings"
)

const filingHTML = `<html><head><title>Form 10-K</title></head><body>
<p>Total revenue increased twelve percent year over year, driven by
services growth and strong demand across all segments.</p>
</body></html>`

func TestRunCommandFlagValidation(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing symbols", []string{"run", "--keyword", "revenue"}, "at least one symbol"},
		{"missing keyword", []string{"run", "--symbols", "AAPL"}, "keyword is required"},
		{"bad mode", []string{"run", "--symbols", "AAPL", "--keyword", "revenue", "--mode", "weekly"}, "unknown mode"},
		{"bad start date", []string{"run", "--symbols", "AAPL", "--keyword", "revenue", "--start", "2024-13-40"}, "invalid date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, tc.args, env.configPath)
			if err == nil {
				t.Fatal("expected an error")
			}
			requireContains(t, err.Error(), tc.want)
		})
	}
}

func TestRunCommandRequiresEdgarEmailForDownload(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", "--symbols", "AAPL", "--keyword", "revenue"}, env.configPath)
	if err == nil {
		t.Fatal("expected an error without an EDGAR identity")
	}
	requireContains(t, err.Error(), "edgar.user_agent_email is required")
}

func TestRunCommandRefusesConcurrentRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.outputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	lock := flock.New(filepath.Join(env.outputDir, ".secsum.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("prime lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	_, _, err = runCLI(t, []string{"run", "--symbols", "AAPL", "--keyword", "revenue", "--skip-download"}, env.configPath)
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	requireContains(t, err.Error(), "another secsum run")
}

func TestRunCommandSkipDownloadEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	llmSrv := fakeLLMServer(t, `{"summary": "Revenue grew twelve percent.", "points": ["Services growth"], "confidence": 0.9}`)
	embedSrv, embedCalls := fakeEmbeddingServer(t)
	qdrantSrv, upserts := fakeQdrantServer(t, "[]")
	writeTestConfig(t, env, serviceConfigLines(llmSrv.URL, embedSrv.URL, qdrantSrv.URL))
	writeArchiveFiling(t, env, "AAPL", "0000320193-24-000123", "aapl-20240928.htm", filingHTML)

	out, _, err := runCLI(t, []string{"run", "--symbols", "aapl", "--keyword", "Revenue", "--skip-download"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "AAPL")
	requireContains(t, out, "ok")

	data, err := os.ReadFile(filepath.Join(env.outputDir, "aapl_revenue_aapl-20240928.summary.json"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var doc struct {
		Symbol     string `json:"symbol"`
		Document   string `json:"document"`
		Collection string `json:"collection"`
		Summaries  []struct {
			Status  string `json:"status"`
			Summary struct {
				Summary *string `json:"summary"`
			} `json:"summary"`
		} `json:"summaries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if doc.Symbol != "AAPL" || doc.Document != "aapl-20240928.htm" {
		t.Fatalf("unexpected artifact header: %+v", doc)
	}
	if doc.Collection != "sec_nlp_aapl-revenue" {
		t.Fatalf("unexpected collection: %q", doc.Collection)
	}
	if len(doc.Summaries) != 1 || doc.Summaries[0].Status != "ok" {
		t.Fatalf("unexpected summaries: %s", data)
	}
	if got := doc.Summaries[0].Summary.Summary; got == nil || *got != "Revenue grew twelve percent." {
		t.Fatalf("unexpected summary text: %s", data)
	}
	if embedCalls.count() == 0 {
		t.Fatal("expected the matching chunk to be embedded")
	}
	if upserts.count() == 0 {
		t.Fatal("expected at least one vector upsert")
	}
}

func TestRunCommandDryRunSkipsVectorServices(t *testing.T) {
	env := setupCLITestEnv(t)
	llmSrv := fakeLLMServer(t, `{"summary": "Revenue held steady.", "points": [], "confidence": 0.5}`)
	embedSrv, embedCalls := fakeEmbeddingServer(t)
	qdrantSrv, upserts := fakeQdrantServer(t, "[]")
	writeTestConfig(t, env, serviceConfigLines(llmSrv.URL, embedSrv.URL, qdrantSrv.URL))
	writeArchiveFiling(t, env, "AAPL", "0000320193-24-000123", "aapl-20240928.htm", filingHTML)

	_, _, err := runCLI(t, []string{"run", "--symbols", "AAPL", "--keyword", "revenue", "--skip-download", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(env.outputDir, "aapl_revenue_aapl-20240928.summary.json")); err != nil {
		t.Fatalf("expected artifact despite dry-run: %v", err)
	}
	if got := embedCalls.count(); got != 0 {
		t.Fatalf("dry-run called the embedding API %d times", got)
	}
	if got := upserts.count(); got != 0 {
		t.Fatalf("dry-run upserted %d times", got)
	}
}

func TestRunCommandFailsWhenNothingMatches(t *testing.T) {
	env := setupCLITestEnv(t)
	writeArchiveFiling(t, env, "AAPL", "0000320193-24-000123", "aapl-20240928.htm",
		`<html><body><p>Liquidity and capital resources discussion.</p></body></html>`)

	out, _, err := runCLI(t, []string{"run", "--symbols", "AAPL", "--keyword", "revenue", "--skip-download", "--dry-run"}, env.configPath)
	if err == nil {
		t.Fatal("expected an error when no artifacts are written")
	}
	requireContains(t, err.Error(), "no artifacts were written")
	requireContains(t, out, "no output")
}

func TestRunCommandCleanupRemovesArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	llmSrv := fakeLLMServer(t, `{"summary": "Revenue grew twelve percent.", "points": [], "confidence": 0.8}`)
	embedSrv, _ := fakeEmbeddingServer(t)
	qdrantSrv, _ := fakeQdrantServer(t, "[]")
	writeTestConfig(t, env, serviceConfigLines(llmSrv.URL, embedSrv.URL, qdrantSrv.URL))
	writeArchiveFiling(t, env, "AAPL", "0000320193-24-000123", "aapl-20240928.htm", filingHTML)

	_, _, err := runCLI(t, []string{"run", "--symbols", "AAPL", "--keyword", "revenue", "--skip-download", "--cleanup"}, env.configPath)
	if err != nil {
		t.Fatalf("run --cleanup: %v", err)
	}

	symbolDir := filepath.Join(filings.ArchiveRoot(env.downloadsDir), "AAPL")
	if _, err := os.Stat(symbolDir); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err: %v", symbolDir, err)
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, "aapl_revenue_aapl-20240928.summary.json")); err != nil {
		t.Fatalf("artifact missing after cleanup: %v", err)
	}
}
