//go:build !sqlite_fts5

package index

import "database/sql"

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on the notes.body column.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error {
	// Body is already stored in the notes table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// Matching is case-insensitive for ASCII.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	return db.likeSearch(query, limit)
}
