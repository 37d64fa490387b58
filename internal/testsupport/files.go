package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"secsum/internal/filings"
)

// WriteFiling drops one filing document into the archive layout under
// downloadsDir and returns its path. A zero mtime keeps the file's natural
// modification time; tests that depend on newest-first ordering pass
// explicit times.
func WriteFiling(t testing.TB, downloadsDir, symbol string, mode filings.Mode, accession, name, body string, mtime time.Time) string {
	t.Helper()

	dir := filings.AccessionDir(downloadsDir, symbol, mode, accession)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
	return path
}
