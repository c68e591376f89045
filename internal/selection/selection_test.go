package selection

import (
	"strconv"
	"testing"

	"github.com/zrl37/crystallize/internal/chatsync"
	"github.com/zrl37/crystallize/internal/export"
	"github.com/zrl37/crystallize/internal/history"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/notebook"
	"github.com/zrl37/crystallize/internal/provider"
	"github.com/zrl37/crystallize/internal/storage"
	"github.com/zrl37/crystallize/internal/store"
)

func TestSet_EnterDoesNotSelect(t *testing.T) {
	s := NewSet()
	s.Enter()
	if !s.Active() || s.Len() != 0 {
		t.Error("entering selection mode must not select anything")
	}
	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("a")
	if s.Has("a") || !s.Has("b") {
		t.Error("toggle should flip membership")
	}
	s.Exit()
	if s.Active() || s.Len() != 0 {
		t.Error("exit should clear")
	}
}

func TestSet_ToggleAll(t *testing.T) {
	s := NewSet()
	visible := []string{"a", "b", "c"}
	s.Toggle("a")
	s.ToggleAll(visible)
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	s.ToggleAll(visible)
	if s.Len() != 0 || !s.Active() {
		t.Error("toggle all on a full selection should clear it and stay in mode")
	}
}

func TestSet_SelectedFollowsOrder(t *testing.T) {
	s := NewSet()
	for _, id := range []string{"c", "a", "zombie"} {
		s.Toggle(id)
	}
	got := s.Selected([]string{"a", "b", "c"})
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("selected = %v", got)
	}
}

type fixture struct {
	store *store.Store
	sess  *notebook.Session
	ctl   *Controller
	chat  string
	sink  *storage.FS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	s := store.New(store.WithoutSeedNote(), store.WithIDGenerator(func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}))
	c, _ := s.CreateChat("")
	for i, text := range []string{"one", "two", "three"} {
		_ = s.AppendMessage(c.ID, &models.Message{ID: "m" + strconv.Itoa(i+1), ChatID: c.ID, SenderName: "S" + strconv.Itoa(i+1), Text: text})
	}
	sink, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sess := notebook.New(s, merge.New(s, nil), provider.NewMock(), history.DefaultLimit, nil)
	ctl := NewController(s, chatsync.New(s, nil), sess, export.New(sink, nil))
	return &fixture{store: s, sess: sess, ctl: ctl, chat: c.ID, sink: sink}
}

func TestController_DeleteMessages(t *testing.T) {
	f := newFixture(t)
	set := f.ctl.Messages(f.chat)
	set.Toggle("m3")
	set.Toggle("m1")
	if n := f.ctl.DeleteMessages(f.chat); n != 2 {
		t.Fatalf("deleted = %d", n)
	}
	c, _ := f.store.Chat(f.chat)
	if len(c.Messages) != 1 || c.Messages[0].ID != "m2" {
		t.Errorf("messages = %+v", c.Messages)
	}
	if set.Active() || set.Len() != 0 {
		t.Error("batch op should exit selection mode")
	}
}

func TestController_MergeMessagesPayload(t *testing.T) {
	f := newFixture(t)
	set := f.ctl.Messages(f.chat)
	set.Toggle("m3")
	set.Toggle("m1")
	res, err := f.ctl.MergeMessages(f.chat, merge.ModeNewNote, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "[S1]: one\n\n[S3]: three"
	if res.Body != want {
		t.Errorf("body = %q, want %q", res.Body, want)
	}
	if f.sess.NoteID() != res.NoteID {
		t.Error("session should follow the new note")
	}
	if set.Active() {
		t.Error("selection should be exited")
	}
}

func TestController_SyncMessages(t *testing.T) {
	f := newFixture(t)
	f.ctl.SelectAllMessages(f.chat)
	res, err := f.ctl.SyncMessages(f.chat, chatsync.NewChat)
	if err != nil {
		t.Fatal(err)
	}
	dst, _ := f.store.Chat(res.DestinationID)
	if len(dst.Messages) != 4 {
		t.Errorf("destination = %d messages", len(dst.Messages))
	}
	if f.ctl.Messages(f.chat).Active() {
		t.Error("selection should be exited")
	}
}

func TestController_DeleteNotesClosesSession(t *testing.T) {
	f := newFixture(t)
	a, _ := f.store.CreateNote("")
	b, _ := f.store.CreateNote("")
	keep, _ := f.store.CreateNote("")
	_ = f.sess.Open(a.ID)

	f.ctl.Notes().Toggle(a.ID)
	f.ctl.Notes().Toggle(b.ID)
	if n := f.ctl.DeleteNotes(); n != 2 {
		t.Fatalf("deleted = %d", n)
	}
	notes := f.store.Notes()
	if len(notes) != 1 || notes[0].ID != keep.ID {
		t.Errorf("notes = %+v", notes)
	}
	if f.store.ActiveNoteID() != "" || f.sess.NoteID() != "" {
		t.Error("active note and session should be cleared")
	}
}

func TestController_ExportNotes(t *testing.T) {
	f := newFixture(t)
	a, _ := f.store.CreateNote("")
	_, _ = f.store.CreateNote("")
	f.ctl.SelectAllNotes("")
	f.ctl.Notes().Toggle(a.ID)
	names, err := f.ctl.ExportNotes(export.FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 {
		t.Fatalf("names = %v", names)
	}
	if _, err := f.sink.Read(names[0]); err != nil {
		t.Error(err)
	}
	if f.ctl.Notes().Active() {
		t.Error("selection should be exited")
	}
}

func TestController_SwitchingChatResetsSelection(t *testing.T) {
	f := newFixture(t)
	f.ctl.Messages(f.chat).Toggle("m1")
	other, _ := f.store.CreateChat("")
	if f.ctl.Messages(other.ID).Len() != 0 {
		t.Error("a different chat starts with an empty selection")
	}
}
