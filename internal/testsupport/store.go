package testsupport

import (
	"context"
	"testing"

	"secsum/internal/catalog"
)

// MustOpenCatalog opens a catalog store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, path string) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// RecordFiling inserts one filing row, failing the test on error.
func RecordFiling(t testing.TB, store *catalog.Store, filing catalog.Filing) {
	t.Helper()

	if err := store.Record(context.Background(), filing); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
}
