// Package notebook is the note editing session: the open note, its tracked
// cursor and its undo/redo log.
package notebook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/history"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/parser"
	"github.com/zrl37/crystallize/internal/provider"
	"github.com/zrl37/crystallize/internal/store"
)

// Origin tells an edit typed by the user apart from a history restore.
type Origin int

const (
	OriginUser Origin = iota
	OriginRestore
)

// State is a snapshot of the session for display.
type State struct {
	NoteID       string `json:"note_id"`
	Cursor       *int   `json:"cursor,omitempty"`
	CanUndo      bool   `json:"can_undo"`
	CanRedo      bool   `json:"can_redo"`
	HistoryLen   int    `json:"history_len"`
	HistoryIndex int    `json:"history_index"`
}

// Session edits one note at a time. It is safe for concurrent use.
type Session struct {
	store     *store.Store
	merger    *merge.Engine
	organizer provider.Organizer
	limit     int
	logger    *slog.Logger

	mu     sync.Mutex
	noteID string
	log    *history.Log
	cursor *int
}

// New returns a closed session. limit bounds the undo log.
func New(s *store.Store, m *merge.Engine, org provider.Organizer, limit int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: s, merger: m, organizer: org, limit: limit, logger: logger}
}

// Open starts editing a note: it becomes active, the cursor is forgotten and
// the undo log restarts from the current body.
func (s *Session) Open(noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(noteID)
}

func (s *Session) openLocked(noteID string) error {
	n, err := s.store.Note(noteID)
	if err != nil {
		return err
	}
	if err := s.store.SetActiveNote(noteID); err != nil {
		return err
	}
	s.noteID = noteID
	s.log = history.New(n.Content, s.limit)
	s.cursor = nil
	return nil
}

// Close ends the session.
func (s *Session) Close() {
	s.mu.Lock()
	s.noteID, s.log, s.cursor = "", nil, nil
	s.mu.Unlock()
}

// NoteID returns the open note, or "".
func (s *Session) NoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteID
}

// State reports the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{NoteID: s.noteID}
	if s.cursor != nil {
		c := *s.cursor
		st.Cursor = &c
	}
	if s.log != nil {
		st.CanUndo, st.CanRedo = s.log.CanUndo(), s.log.CanRedo()
		st.HistoryLen, st.HistoryIndex = s.log.Len(), s.log.Index()
	}
	return st
}

// SetCursor records the last observed insertion point of the open note.
func (s *Session) SetCursor(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noteID == "" {
		return
	}
	s.cursor = &offset
}

// Edit replaces the open note's body with a user edit.
func (s *Session) Edit(body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(body, OriginUser)
}

func (s *Session) applyLocked(body string, origin Origin) error {
	if s.noteID == "" {
		return fmt.Errorf("notebook: no open note: %w", apperr.ErrConflict)
	}
	if err := s.store.UpdateNote(s.noteID, store.NotePatch{Content: &body}); err != nil {
		return err
	}
	if origin == OriginUser {
		s.log.Record(body)
	}
	return nil
}

// Undo restores the previous snapshot. It reports false when there is none.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil {
		return false, nil
	}
	body, ok := s.log.Undo()
	if !ok {
		return false, nil
	}
	if err := s.applyLocked(body, OriginRestore); err != nil {
		s.log.Redo()
		return false, err
	}
	return true, nil
}

// Redo reapplies the next snapshot. It reports false when there is none.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil {
		return false, nil
	}
	body, ok := s.log.Redo()
	if !ok {
		return false, nil
	}
	if err := s.applyLocked(body, OriginRestore); err != nil {
		s.log.Undo()
		return false, err
	}
	return true, nil
}

// Merge adds text to a note. The tracked cursor is used when the request has
// none and the open note is still the active one. If the text lands in another
// note, the session moves to that note.
func (s *Session) Merge(req merge.Request) (merge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor != nil && s.noteID != s.store.ActiveNoteID() {
		s.cursor = nil
	}
	if req.Cursor == nil && s.cursor != nil {
		c := *s.cursor
		req.Cursor = &c
	}
	res, err := s.merger.Merge(req)
	if err != nil || res.NoteID == "" {
		return res, err
	}
	if res.NoteID != s.noteID || s.log == nil {
		if err := s.openLocked(res.NoteID); err != nil {
			return res, err
		}
		return res, nil
	}
	s.log.Record(res.Body)
	if res.Cursor != nil {
		c := *res.Cursor
		s.cursor = &c
	}
	return res, nil
}

// Organize sends the open note to the organization provider and applies the
// result as a user edit. A provider failure leaves the note unchanged.
func (s *Session) Organize(ctx context.Context) (string, error) {
	s.mu.Lock()
	id := s.noteID
	s.mu.Unlock()
	if id == "" {
		return "", fmt.Errorf("notebook: no open note: %w", apperr.ErrConflict)
	}
	n, err := s.store.Note(id)
	if err != nil {
		return "", err
	}

	out, err := s.organizer.Organize(ctx, n.Content)
	if err != nil {
		s.logger.Warn("organize failed",
			slog.String("note_id", id),
			slog.String("error", err.Error()),
		)
		return n.Content, nil
	}
	if out == n.Content {
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noteID != id {
		return n.Content, nil
	}
	if err := s.applyLocked(out, OriginUser); err != nil {
		return "", err
	}
	return out, nil
}

// InsertDirective replaces the rune range [start, end) of the open note with a
// directive tag and moves the cursor.
func (s *Session) InsertDirective(start, end int, instruction string) (int, error) {
	return s.insert(func(body string) (string, int) {
		return parser.InsertDirective(body, start, end, instruction)
	})
}

// InsertDivider replaces the rune range [start, end) of the open note with a
// divider and moves the cursor.
func (s *Session) InsertDivider(start, end int) (int, error) {
	return s.insert(func(body string) (string, int) {
		return parser.InsertDivider(body, start, end)
	})
}

func (s *Session) insert(fn func(string) (string, int)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noteID == "" {
		return 0, fmt.Errorf("notebook: no open note: %w", apperr.ErrConflict)
	}
	n, err := s.store.Note(s.noteID)
	if err != nil {
		return 0, err
	}
	body, cursor := fn(n.Content)
	if err := s.applyLocked(body, OriginUser); err != nil {
		return 0, err
	}
	s.cursor = &cursor
	return cursor, nil
}
