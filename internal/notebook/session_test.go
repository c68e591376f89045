package notebook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/history"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/provider"
	"github.com/zrl37/crystallize/internal/store"
)

func setup(t *testing.T, org provider.Organizer) (*store.Store, *Session, string) {
	t.Helper()
	n := 0
	s := store.New(store.WithoutSeedNote(), store.WithIDGenerator(func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}))
	note, err := s.CreateNote("")
	if err != nil {
		t.Fatal(err)
	}
	if org == nil {
		org = provider.NewMock()
	}
	sess := New(s, merge.New(s, nil), org, history.DefaultLimit, nil)
	if err := sess.Open(note.ID); err != nil {
		t.Fatal(err)
	}
	return s, sess, note.ID
}

func content(t *testing.T, s *store.Store, id string) string {
	t.Helper()
	n, err := s.Note(id)
	if err != nil {
		t.Fatal(err)
	}
	return n.Content
}

func TestEditUndoRedo(t *testing.T) {
	s, sess, id := setup(t, nil)
	for i := 1; i <= 3; i++ {
		if err := sess.Edit(fmt.Sprintf("v%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if ok, err := sess.Undo(); !ok || err != nil {
			t.Fatalf("undo %d: ok=%v err=%v", i, ok, err)
		}
	}
	if got := content(t, s, id); got != "" {
		t.Errorf("after undo = %q", got)
	}
	if ok, _ := sess.Undo(); ok {
		t.Error("undo past the start should be a no-op")
	}
	for i := 0; i < 3; i++ {
		_, _ = sess.Redo()
	}
	if got := content(t, s, id); got != "v3" {
		t.Errorf("after redo = %q", got)
	}
	if st := sess.State(); st.HistoryLen != 4 || st.CanRedo {
		t.Errorf("restores must not be recorded: %+v", st)
	}
}

func TestOpen_ResetsHistoryAndCursor(t *testing.T) {
	s, sess, id := setup(t, nil)
	_ = sess.Edit("one")
	sess.SetCursor(2)
	other, _ := s.CreateNote("")
	_ = sess.Open(other.ID)
	_ = sess.Open(id)
	st := sess.State()
	if st.CanUndo || st.Cursor != nil || st.HistoryLen != 1 {
		t.Errorf("state = %+v", st)
	}
	if s.ActiveNoteID() != id {
		t.Error("open note should be active")
	}
}

func TestMerge_UsesTrackedCursorAndRecords(t *testing.T) {
	s, sess, id := setup(t, nil)
	_ = sess.Edit("Hello\nWorld")
	sess.SetCursor(5)

	res, err := sess.Merge(merge.Request{Text: "X", Mode: merge.ModeAppend})
	if err != nil {
		t.Fatal(err)
	}
	if res.Body != "Hello\nX\nWorld" {
		t.Errorf("body = %q", res.Body)
	}
	_, _ = sess.Merge(merge.Request{Text: "Y"})
	if got := content(t, s, id); got != "Hello\nX\nY\nWorld" {
		t.Errorf("second merge should follow the first, got %q", got)
	}
	_, _ = sess.Undo()
	if got := content(t, s, id); got != "Hello\nX\nWorld" {
		t.Errorf("undo of a merge = %q", got)
	}
}

func TestMerge_NewNoteMovesSession(t *testing.T) {
	_, sess, id := setup(t, nil)
	res, err := sess.Merge(merge.Request{Text: "clip", Mode: merge.ModeNewNote})
	if err != nil {
		t.Fatal(err)
	}
	if sess.NoteID() != res.NoteID || res.NoteID == id {
		t.Errorf("session on %q, merged into %q", sess.NoteID(), res.NoteID)
	}
	if sess.State().CanUndo {
		t.Error("a freshly opened note has no history")
	}
}

func TestMerge_CursorIgnoredAfterActiveNoteChanges(t *testing.T) {
	cases := []struct {
		name     string
		activate func(t *testing.T, s *store.Store, sess *Session, a string) string
	}{
		{"created", func(t *testing.T, s *store.Store, _ *Session, _ string) string {
			n, err := s.CreateNote("")
			if err != nil {
				t.Fatal(err)
			}
			return n.ID
		}},
		{"activated", func(t *testing.T, s *store.Store, sess *Session, a string) string {
			n, err := s.CreateNote("")
			if err != nil {
				t.Fatal(err)
			}
			if err := sess.Open(a); err != nil {
				t.Fatal(err)
			}
			sess.SetCursor(2)
			if err := s.SetActiveNote(n.ID); err != nil {
				t.Fatal(err)
			}
			return n.ID
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, sess, a := setup(t, nil)
			_ = sess.Edit("AAAAAAAAAA")
			sess.SetCursor(2)

			b := tc.activate(t, s, sess, a)
			body := "bbbbbbbbbb"
			if err := s.UpdateNote(b, store.NotePatch{Content: &body}); err != nil {
				t.Fatal(err)
			}

			res, err := sess.Merge(merge.Request{Text: "X"})
			if err != nil {
				t.Fatal(err)
			}
			if res.NoteID != b || content(t, s, b) != "bbbbbbbbbb\n\nX" {
				t.Errorf("merged into %q, body = %q", res.NoteID, content(t, s, b))
			}
			if got := content(t, s, a); got != "AAAAAAAAAA" {
				t.Errorf("previous note = %q", got)
			}
			if sess.NoteID() != b {
				t.Errorf("session on %q, want %q", sess.NoteID(), b)
			}
		})
	}
}

func TestUndoRedo_FailedWriteKeepsPosition(t *testing.T) {
	s, sess, id := setup(t, nil)
	_ = sess.Edit("v1")
	_ = sess.Edit("v2")
	_, _ = sess.Undo()
	s.DeleteNote(id)

	if ok, err := sess.Undo(); ok || !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("undo: ok = %v err = %v", ok, err)
	}
	if ok, err := sess.Redo(); ok || !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("redo: ok = %v err = %v", ok, err)
	}
	if st := sess.State(); st.HistoryIndex != 1 || !st.CanUndo || !st.CanRedo {
		t.Errorf("state = %+v", st)
	}
}

func TestOrganize(t *testing.T) {
	s, sess, id := setup(t, nil)
	_ = sess.Edit("[AI指令: 总结] body")
	out, err := sess.Organize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out != " body" || content(t, s, id) != " body" {
		t.Errorf("out = %q", out)
	}
	if ok, _ := sess.Undo(); !ok || content(t, s, id) != "[AI指令: 总结] body" {
		t.Error("organize should be undoable")
	}
}

func TestOrganize_FailureKeepsContent(t *testing.T) {
	mock := provider.NewMock()
	mock.OrganizeFunc = func(context.Context, string) (string, error) {
		return "", errors.New("down")
	}
	s, sess, id := setup(t, mock)
	_ = sess.Edit("keep me")
	out, err := sess.Organize(context.Background())
	if err != nil || out != "keep me" || content(t, s, id) != "keep me" {
		t.Errorf("out = %q err = %v", out, err)
	}
}

func TestInsertDirectiveAndDivider(t *testing.T) {
	s, sess, id := setup(t, nil)
	_ = sess.Edit("ab")
	cursor, err := sess.InsertDivider(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if content(t, s, id) != "a\n---\nb" || cursor != 6 {
		t.Errorf("content = %q cursor = %d", content(t, s, id), cursor)
	}
	if _, err := sess.InsertDirective(0, 0, "x"); err != nil {
		t.Fatal(err)
	}
	if content(t, s, id) != "[AI指令: x] a\n---\nb" {
		t.Errorf("content = %q", content(t, s, id))
	}
	if st := sess.State(); st.HistoryLen != 4 {
		t.Errorf("history len = %d", st.HistoryLen)
	}
}

func TestClosedSession(t *testing.T) {
	_, sess, _ := setup(t, nil)
	sess.Close()
	if err := sess.Edit("x"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v", err)
	}
	if ok, err := sess.Undo(); ok || err != nil {
		t.Errorf("ok = %v err = %v", ok, err)
	}
	if err := sess.Open("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}
