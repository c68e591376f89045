package index

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/zrl37/crystallize/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func TestSync_IndexesAndPrunes(t *testing.T) {
	db := testDB(t)
	s := store.New(store.WithoutSeedNote())
	n, _ := s.CreateNote("")
	_ = s.UpdateNote(n.ID, store.NotePatch{Content: strPtr("会议纪要 #工作")})

	_ = db.UpsertNote(NoteRow{ID: "stale", Checksum: "old", UpdatedAt: time.Now()}, "gone")

	if err := Sync(db, s, discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("stale"); cs != "" {
		t.Error("stale note should be pruned")
	}
	cs, _ := db.GetChecksum(n.ID)
	if cs == "" {
		t.Fatal("note not indexed")
	}
	if res, _ := db.SearchTag("工作", 10); len(res) != 1 {
		t.Errorf("tag not indexed: %+v", res)
	}

	// Unchanged notes keep their checksum.
	if err := Sync(db, s, discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if again, _ := db.GetChecksum(n.ID); again != cs {
		t.Errorf("checksum changed without edit: %q -> %q", cs, again)
	}
}

// eventually retries fn until it returns true or the timeout expires.
func eventually(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestIndexer_FollowsStore(t *testing.T) {
	db := testDB(t)
	s := store.New(store.WithoutSeedNote())

	var mu sync.Mutex
	var kinds []string
	ix := NewIndexer(db, s, discardLogger(), func(kind, _ string) {
		mu.Lock()
		kinds = append(kinds, kind)
		mu.Unlock()
	})
	ix.SetDebounce(20 * time.Millisecond)
	s.Subscribe(ix.Observe)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ix.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	n, _ := s.CreateNote("")
	_ = s.UpdateNote(n.ID, store.NotePatch{Content: strPtr("searchable phrase")})

	eventually(t, 2*time.Second, func() bool {
		res, _ := db.Search("searchable", 10)
		return len(res) == 1
	})

	s.DeleteNote(n.ID)
	eventually(t, 2*time.Second, func() bool {
		cs, _ := db.GetChecksum(n.ID)
		return cs == ""
	})

	mu.Lock()
	defer mu.Unlock()
	if len(kinds) == 0 || kinds[len(kinds)-1] != "delete" {
		t.Errorf("callback kinds = %v, want trailing delete", kinds)
	}
}

func TestIndexer_IgnoresOtherEntities(t *testing.T) {
	db := testDB(t)
	s := store.New(store.WithoutSeedNote())
	ix := NewIndexer(db, s, discardLogger(), nil)
	ix.Observe(store.Event{Kind: store.EventCreated, Entity: store.EntityChat, ID: "c1"})
	ix.Flush()
	if n, _ := db.Count(); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
