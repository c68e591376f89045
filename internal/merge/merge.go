// Package merge inserts external text into notes, either at a tracked cursor
// or at the end of the body.
package merge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/store"
)

// Mode selects where merged text lands.
type Mode string

const (
	// ModeAppend merges into an existing note.
	ModeAppend Mode = "append"
	// ModeNewNote always creates a note from the text.
	ModeNewNote Mode = "newNote"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeAppend || m == ModeNewNote }

// Titles given to notes created by a merge.
const (
	ClipTitlePrefix = "剪藏: "
	FallbackTitle   = "剪藏笔记"
)

const clipTitleRunes = 20

// Request is one add-to-notebook action.
type Request struct {
	Text string `json:"text"`
	Mode Mode   `json:"mode"`
	// NoteID is an explicit target; when empty the active note is used.
	NoteID string `json:"note_id,omitempty"`
	// Cursor is the tracked insertion offset in runes, if any. It only applies
	// when the resolved target is the active note.
	Cursor *int `json:"cursor,omitempty"`
}

// Result reports where the text went.
type Result struct {
	NoteID  string `json:"note_id"`
	Created bool   `json:"created"`
	Body    string `json:"body"`
	// Cursor is the rune offset just past the inserted text, set only for
	// cursor inserts.
	Cursor *int `json:"cursor,omitempty"`
}

// Engine merges text into the notes of a store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New returns an Engine over s.
func New(s *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// Merge applies req. Empty text yields the zero Result; whitespace-only text
// is merged like any other. An explicit target that no longer exists is
// treated as a silent no-op.
func (e *Engine) Merge(req Request) (Result, error) {
	if req.Text == "" {
		return Result{}, nil
	}
	if req.Mode == "" {
		req.Mode = ModeAppend
	}
	if !req.Mode.Valid() {
		return Result{}, fmt.Errorf("merge: mode %q: %w", req.Mode, apperr.ErrInvalid)
	}

	var res Result
	err := e.store.Update(func(tx *store.Tx) error {
		if req.Mode == ModeNewNote {
			n := tx.CreateNote(ClipTitle(req.Text), req.Text, "")
			res = Result{NoteID: n.ID, Created: true, Body: n.Content}
			return tx.SetActiveNote(n.ID)
		}

		active := tx.ActiveNoteID()
		target := req.NoteID
		if target == "" {
			target = active
		}
		if target == "" {
			if notes := tx.Notes(); len(notes) > 0 {
				target = notes[0].ID
			}
		}
		if target == "" {
			n := tx.CreateNote(FallbackTitle, req.Text, "")
			res = Result{NoteID: n.ID, Created: true, Body: n.Content}
			return tx.SetActiveNote(n.ID)
		}

		n := tx.Note(target)
		if n == nil {
			return nil
		}
		res = Result{NoteID: target}
		if target == active && req.Cursor != nil {
			body, end := insertAt(n.Content, req.Text, *req.Cursor)
			res.Body, res.Cursor = body, &end
		} else {
			res.Body = Append(n.Content, req.Text)
		}
		if err := tx.SetNoteContent(target, res.Body); err != nil {
			return err
		}
		return tx.SetActiveNote(target)
	})
	if err != nil {
		return Result{}, err
	}
	if res.NoteID != "" {
		e.logger.Debug("text merged into note",
			slog.String("note_id", res.NoteID),
			slog.Bool("created", res.Created),
		)
	}
	return res, nil
}

// InsertAt splices text into body at the rune offset cursor, clamped to the
// body. A newline is added before text unless the preceding part is empty or
// already ends with one, and after text unless the following part is empty or
// already starts with one.
func InsertAt(body, text string, cursor int) string {
	out, _ := insertAt(body, text, cursor)
	return out
}

func insertAt(body, text string, cursor int) (string, int) {
	r := []rune(body)
	cursor = Clamp(cursor, len(r))
	before, after := string(r[:cursor]), string(r[cursor:])

	var b strings.Builder
	b.Grow(len(body) + len(text) + 2)
	b.WriteString(before)
	if before != "" && !strings.HasSuffix(before, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	end := len([]rune(b.String()))
	if after != "" && !strings.HasPrefix(after, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(after)
	return b.String(), end
}

// Append joins text to the end of body with a blank line.
func Append(body, text string) string {
	if body == "" {
		return text
	}
	return body + "\n\n" + text
}

// Clamp bounds offset to [0, length].
func Clamp(offset, length int) int {
	if offset < 0 {
		return 0
	}
	if offset > length {
		return length
	}
	return offset
}

// ClipTitle builds the title of a note created from text: the prefix plus the
// first 20 runes of the first line.
func ClipTitle(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	r := []rune(line)
	if len(r) > clipTitleRunes {
		r = r[:clipTitleRunes]
	}
	return ClipTitlePrefix + string(r)
}
