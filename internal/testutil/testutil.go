// Package testutil provides shared test helpers for setting up stores, indexes
// and export sinks.
package testutil

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/zrl37/crystallize/internal/index"
	"github.com/zrl37/crystallize/internal/storage"
	"github.com/zrl37/crystallize/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "crystallize-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSink creates a temporary export directory with a storage.Sink.
func TestSink(t *testing.T) (string, storage.Sink) {
	t.Helper()
	dir := t.TempDir()
	sink, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, sink
}

// Store returns a store with deterministic ids ("id-1", "id-2", ...) and a
// clock that advances one second per call. The seed note is omitted.
func Store(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	var mu sync.Mutex
	n := 0
	tick := 0
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]store.Option{
		store.WithoutSeedNote(),
		store.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		store.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
	}, opts...)
	return store.New(opts...)
}
