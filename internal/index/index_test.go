package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "crystallize-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM note_tags`).Scan(&count); err != nil {
		t.Fatalf("note_tags table missing: %v", err)
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if err := db.UpsertNote(NoteRow{ID: "m", Checksum: "1", UpdatedAt: time.Now()}, "body"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		ID:        "n1",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "This is a hello world note."); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("n1")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestSearchTag(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "a", Checksum: "1", Tags: []string{"灵感"}, UpdatedAt: time.Now()}, "body")
	_ = db.UpsertNote(NoteRow{ID: "c", Checksum: "2", Tags: []string{"灵感", "go"}, UpdatedAt: time.Now()}, "body")
	_ = db.UpsertNote(NoteRow{ID: "d", Checksum: "3", Tags: []string{"go"}, UpdatedAt: time.Now()}, "body")

	res, err := db.SearchTag("灵感", 10)
	if err != nil {
		t.Fatalf("SearchTag: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 tagged notes, got %d", len(res))
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "del", Checksum: "x", Tags: []string{"t"}, UpdatedAt: time.Now()}, "body")

	if err := db.DeleteNote("del"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	res, _ := db.SearchTag("t", 10)
	if len(res) != 0 {
		t.Errorf("expected 0 tagged notes after delete, got %d", len(res))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{ID: "up", Title: "Old", Checksum: "1", Tags: []string{"x"}, UpdatedAt: now}, "old body")
	_ = db.UpsertNote(NoteRow{ID: "up", Title: "New", Checksum: "2", Tags: []string{"y"}, UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if res, _ := db.SearchTag("x", 10); len(res) != 0 {
		t.Error("old tag should be removed on upsert")
	}
	if res, _ := db.SearchTag("y", 10); len(res) != 1 {
		t.Error("new tag should exist")
	}
	n, _ := db.Count()
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "s", Title: "Search Me", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}
