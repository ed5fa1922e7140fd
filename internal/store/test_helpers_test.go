package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/logwarden/internal/ban"
)

// fixedNow is the clock used by test stores.
var fixedNow = time.Date(2024, 10, 10, 13, 55, 36, 0, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testRecord creates a record with a derived path and pattern.
func testRecord(addr string) ban.Record {
	return ban.Record{Address: addr, Path: "/wp-login.php", Pattern: "/wp-*"}
}
