package index

import (
	"log/slog"

	"github.com/zrl37/crystallize/internal/checksum"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/parser"
)

// NoteSource lists the notes the index mirrors. *store.Store satisfies it.
type NoteSource interface {
	Notes() []models.Note
	Note(id string) (*models.Note, error)
}

// Sync brings the index up to date with src:
//   - new/changed notes are parsed and upserted
//   - notes no longer in src are deleted from the index
func Sync(db *DB, src NoteSource, logger *slog.Logger) error {
	notes := src.Notes()

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		live[n.ID] = struct{}{}

		if err := indexNote(db, n, checksums[n.ID]); err != nil {
			logger.Warn("sync: index failed", slog.String("note", n.ID), slog.String("error", err.Error()))
		}
	}

	for id := range checksums {
		if _, ok := live[id]; ok {
			continue
		}
		if err := db.DeleteNote(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("note", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("note", id))
		}
	}

	return nil
}

// noteChecksum covers every indexed field so a rename or move reindexes.
func noteChecksum(n models.Note) string {
	return checksum.Fields(n.Title, n.FolderID, n.Content)
}

// indexNote upserts n unless its checksum equals prev.
func indexNote(db *DB, n models.Note, prev string) error {
	cs := noteChecksum(n)
	if cs == prev {
		return nil
	}
	res := parser.Parse(n.Content)
	title := n.Title
	if title == "" {
		title = res.Title
	}
	row := NoteRow{
		ID:        n.ID,
		Title:     title,
		Checksum:  cs,
		Tags:      res.Tags,
		FolderID:  n.FolderID,
		UpdatedAt: n.UpdatedAt,
	}
	return db.UpsertNote(row, parser.StripDirectives(n.Content))
}
