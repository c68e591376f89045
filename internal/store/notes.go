package store

import (
	"fmt"
	"strings"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
)

// NotePatch carries optional field updates for a note.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Note returns the live note with the given id, or nil.
func (tx *Tx) Note(id string) *models.Note {
	if id == "" {
		return nil
	}
	for _, n := range tx.s.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Notes returns the live note list, newest first.
func (tx *Tx) Notes() []*models.Note { return tx.s.notes }

// CreateNote prepends a new note.
func (tx *Tx) CreateNote(title, content, folderID string) *models.Note {
	n := &models.Note{
		ID:        tx.NewID(),
		Title:     title,
		Content:   content,
		UpdatedAt: tx.Now(),
		FolderID:  folderID,
	}
	tx.s.notes = append([]*models.Note{n}, tx.s.notes...)
	tx.emit(EventCreated, EntityNote, n.ID)
	return n
}

// SetNoteContent replaces a note's body and refreshes its timestamp.
func (tx *Tx) SetNoteContent(id, content string) error {
	n := tx.Note(id)
	if n == nil {
		return fmt.Errorf("store: set content of note %s: %w", id, apperr.ErrNotFound)
	}
	n.Content = content
	n.UpdatedAt = tx.Now()
	tx.emit(EventUpdated, EntityNote, id)
	return nil
}

// UpdateNote applies a patch and refreshes the note's timestamp.
func (tx *Tx) UpdateNote(id string, p NotePatch) error {
	n := tx.Note(id)
	if n == nil {
		return fmt.Errorf("store: update note %s: %w", id, apperr.ErrNotFound)
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	n.UpdatedAt = tx.Now()
	tx.emit(EventUpdated, EntityNote, id)
	return nil
}

// MoveNote places a note in a note folder, or at the root when folderID is empty.
func (tx *Tx) MoveNote(id, folderID string) error {
	n := tx.Note(id)
	if n == nil {
		return fmt.Errorf("store: move note %s: %w", id, apperr.ErrNotFound)
	}
	if err := tx.checkFolder(folderID, models.FolderNote); err != nil {
		return err
	}
	n.FolderID = folderID
	tx.emit(EventUpdated, EntityNote, id)
	return nil
}

// DeleteNotes removes every listed note in one transition and returns how many
// were removed. The active pointer is cleared if it was among them.
func (tx *Tx) DeleteNotes(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := make([]*models.Note, 0, len(tx.s.notes))
	var removed []string
	for _, n := range tx.s.notes {
		if _, ok := drop[n.ID]; ok {
			removed = append(removed, n.ID)
			continue
		}
		kept = append(kept, n)
	}
	tx.s.notes = kept
	if _, ok := drop[tx.s.activeNt]; ok && tx.s.activeNt != "" {
		tx.s.activeNt = ""
		tx.emit(EventUpdated, EntityActive, "note")
	}
	for _, id := range removed {
		tx.emit(EventDeleted, EntityNote, id)
	}
	return len(removed)
}

// ActiveNoteID returns the active note id, or "".
func (tx *Tx) ActiveNoteID() string { return tx.s.activeNt }

// SetActiveNote changes the active note. An empty id clears it.
func (tx *Tx) SetActiveNote(id string) error {
	if id != "" && tx.Note(id) == nil {
		return fmt.Errorf("store: activate note %s: %w", id, apperr.ErrNotFound)
	}
	if tx.s.activeNt != id {
		tx.s.activeNt = id
		tx.emit(EventUpdated, EntityActive, "note")
	}
	return nil
}

// CreateNote creates an empty note titled DefaultNoteName, makes it active and
// expands its folder.
func (s *Store) CreateNote(folderID string) (*models.Note, error) {
	var out models.Note
	err := s.Update(func(tx *Tx) error {
		if err := tx.checkFolder(folderID, models.FolderNote); err != nil {
			return err
		}
		n := tx.CreateNote(DefaultNoteName, "", folderID)
		tx.s.activeNt = n.ID
		tx.emit(EventUpdated, EntityActive, "note")
		if folderID != "" {
			tx.ExpandFolder(folderID)
		}
		out = *n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Note returns a copy of the note with the given id.
func (s *Store) Note(id string) (*models.Note, error) {
	var out *models.Note
	s.View(func(tx *Tx) {
		if n := tx.Note(id); n != nil {
			cp := *n
			out = &cp
		}
	})
	if out == nil {
		return nil, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return out, nil
}

// Notes returns copies of every note, newest first.
func (s *Store) Notes() []models.Note {
	var out []models.Note
	s.View(func(tx *Tx) {
		out = make([]models.Note, len(tx.s.notes))
		for i, n := range tx.s.notes {
			out[i] = *n
		}
	})
	return out
}

// NotesInFolder returns the notes directly inside folderID ("" for root).
func (s *Store) NotesInFolder(folderID string) []models.Note {
	var out []models.Note
	for _, n := range s.Notes() {
		if n.FolderID == folderID {
			out = append(out, n)
		}
	}
	return out
}

// FilterNotes returns notes whose title or content contains query,
// case-insensitively. An empty query returns every note.
func (s *Store) FilterNotes(query string) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))
	notes := s.Notes()
	if q == "" {
		return notes
	}
	out := notes[:0]
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out
}

// UpdateNote applies a patch to a note.
func (s *Store) UpdateNote(id string, p NotePatch) error {
	return s.Update(func(tx *Tx) error { return tx.UpdateNote(id, p) })
}

// MoveNote moves a note into a folder ("" for root).
func (s *Store) MoveNote(id, folderID string) error {
	return s.Update(func(tx *Tx) error { return tx.MoveNote(id, folderID) })
}

// DeleteNote removes one note. Unknown ids are ignored.
func (s *Store) DeleteNote(id string) {
	s.DeleteNotes([]string{id})
}

// DeleteNotes removes a set of notes atomically.
func (s *Store) DeleteNotes(ids []string) int {
	var n int
	_ = s.Update(func(tx *Tx) error {
		n = tx.DeleteNotes(ids)
		return nil
	})
	return n
}

// ActiveNoteID returns the active note id.
func (s *Store) ActiveNoteID() string {
	var id string
	s.View(func(tx *Tx) { id = tx.ActiveNoteID() })
	return id
}

// SetActiveNote changes the active note.
func (s *Store) SetActiveNote(id string) error {
	return s.Update(func(tx *Tx) error { return tx.SetActiveNote(id) })
}
