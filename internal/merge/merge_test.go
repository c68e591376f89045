package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/zrl37/crystallize/internal/store"
)

func intp(v int) *int { return &v }

func newEngine(t *testing.T, opts ...store.Option) (*store.Store, *Engine) {
	t.Helper()
	n := 0
	opts = append([]store.Option{store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})}, opts...)
	s := store.New(opts...)
	return s, New(s, nil)
}

func TestInsertAt_WorkedExample(t *testing.T) {
	// Preceding char 'o' needs a newline; following char is already '\n'.
	if got := InsertAt("Hello\nWorld", "X", 5); got != "Hello\nX\nWorld" {
		t.Errorf("got %q", got)
	}
}

func TestInsertAt_Boundaries(t *testing.T) {
	cases := []struct {
		body, text string
		at         int
		want       string
	}{
		{"", "X", 0, "X"},
		{"abc", "X", 0, "X\nabc"},
		{"abc", "X", 3, "abc\nX"},
		{"ab\n", "X", 3, "ab\nX"},
		{"ab\ncd", "X", 3, "ab\nX\ncd"},
		{"abc", "X", 99, "abc\nX"},
		{"abc", "X", -4, "X\nabc"},
		{"你好世界", "X", 2, "你好\nX\n世界"},
	}
	for _, c := range cases {
		if got := InsertAt(c.body, c.text, c.at); got != c.want {
			t.Errorf("InsertAt(%q, %q, %d) = %q, want %q", c.body, c.text, c.at, got, c.want)
		}
	}
}

func TestInsertAt_ClampEquivalence(t *testing.T) {
	body := "line one\nline two"
	n := len([]rune(body))
	for _, off := range []int{-10, -1, 0, 3, n, n + 1, n + 100} {
		if InsertAt(body, "T", off) != InsertAt(body, "T", Clamp(off, n)) {
			t.Errorf("offset %d differs from its clamp", off)
		}
	}
}

func TestInsertAt_InsertionOnly(t *testing.T) {
	body := "alpha\nbeta gamma"
	for off := 0; off <= len([]rune(body)); off++ {
		got := InsertAt(body, "NEW", off)
		if !strings.Contains(got, "NEW") || len(got) < len(body)+3 {
			t.Fatalf("offset %d: %q", off, got)
		}
		if strings.Replace(strings.Replace(got, "NEW", "", 1), "\n", "", -1) != strings.Replace(body, "\n", "", -1) {
			t.Errorf("offset %d: body not preserved in %q", off, got)
		}
	}
}

func TestAppend(t *testing.T) {
	if got := Append("", "x"); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := Append("a", "x"); got != "a\n\nx" {
		t.Errorf("got %q", got)
	}
}

func TestClipTitle(t *testing.T) {
	if got := ClipTitle("一二三四五六七八九十一二三四五六七八九十多余\nsecond"); got != "剪藏: 一二三四五六七八九十一二三四五六七八九十" {
		t.Errorf("got %q", got)
	}
	if got := ClipTitle("short"); got != "剪藏: short" {
		t.Errorf("got %q", got)
	}
}

func TestMerge_EmptyTextNoop(t *testing.T) {
	s, e := newEngine(t)
	res, err := e.Merge(Request{Text: "", Mode: ModeAppend})
	if err != nil || res.NoteID != "" {
		t.Fatalf("res = %+v err = %v", res, err)
	}
	n, _ := s.Note("default-note")
	if n.Content != "" {
		t.Error("note should be untouched")
	}
}

func TestMerge_WhitespaceTextIsKept(t *testing.T) {
	for _, text := range []string{"\n", "  "} {
		s, e := newEngine(t)
		res, err := e.Merge(Request{Text: text, Mode: ModeAppend, NoteID: "default-note"})
		if err != nil {
			t.Fatal(err)
		}
		if res.NoteID != "default-note" {
			t.Fatalf("text %q: res = %+v", text, res)
		}
		n, _ := s.Note("default-note")
		if n.Content != text {
			t.Errorf("text %q: body = %q", text, n.Content)
		}
	}
}

func TestMerge_NewNote(t *testing.T) {
	s, e := newEngine(t)
	res, err := e.Merge(Request{Text: "First line\nmore", Mode: ModeNewNote})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := s.Note(res.NoteID)
	if n.Title != "剪藏: First line" || n.Content != "First line\nmore" {
		t.Errorf("note = %+v", n)
	}
	if s.ActiveNoteID() != res.NoteID {
		t.Error("new note should be active")
	}
}

func TestMerge_AppendFallsBackToFirstNote(t *testing.T) {
	s, e := newEngine(t)
	res, err := e.Merge(Request{Text: "clip", Mode: ModeAppend})
	if err != nil {
		t.Fatal(err)
	}
	if res.NoteID != "default-note" || res.Body != "clip" {
		t.Errorf("res = %+v", res)
	}
	_, _ = e.Merge(Request{Text: "again"})
	n, _ := s.Note("default-note")
	if n.Content != "clip\n\nagain" {
		t.Errorf("content = %q", n.Content)
	}
}

func TestMerge_EmptyStoreCreatesClipNote(t *testing.T) {
	s, e := newEngine(t, store.WithoutSeedNote())
	res, err := e.Merge(Request{Text: "clip"})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := s.Note(res.NoteID)
	if !res.Created || n.Title != FallbackTitle || n.Content != "clip" {
		t.Errorf("note = %+v", n)
	}
}

func TestMerge_CursorOnlyForActiveNote(t *testing.T) {
	s, e := newEngine(t, store.WithoutSeedNote())
	a, _ := s.CreateNote("")
	b, _ := s.CreateNote("")
	body := "Hello\nWorld"
	_ = s.UpdateNote(a.ID, store.NotePatch{Content: &body})
	_ = s.UpdateNote(b.ID, store.NotePatch{Content: &body})
	_ = s.SetActiveNote(a.ID)

	res, _ := e.Merge(Request{Text: "X", NoteID: b.ID, Cursor: intp(5)})
	if res.Body != "Hello\nWorld\n\nX" || res.Cursor != nil {
		t.Errorf("inactive target should append, got %+v", res)
	}
	if s.ActiveNoteID() != b.ID {
		t.Error("target should become active")
	}

	res, _ = e.Merge(Request{Text: "X", Cursor: intp(5)})
	if res.NoteID != b.ID || res.Body != "Hello\nX\nWorld\n\nX" {
		t.Errorf("res = %+v", res)
	}
	if res.Cursor == nil || *res.Cursor != 7 {
		t.Errorf("cursor after insert = %v, want 7", res.Cursor)
	}
}

func TestMerge_MissingTargetNoop(t *testing.T) {
	_, e := newEngine(t)
	res, err := e.Merge(Request{Text: "x", NoteID: "gone"})
	if err != nil || res.NoteID != "" {
		t.Errorf("res = %+v err = %v", res, err)
	}
}
