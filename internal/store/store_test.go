package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	n := 0
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	opts = append([]Option{
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
	}, opts...)
	return New(opts...)
}

func TestNew_Seeds(t *testing.T) {
	s := newTestStore(t)
	if got := len(s.Roles()); got != 4 {
		t.Errorf("roles = %d, want 4", got)
	}
	if got := len(s.Phrases(PhraseCommand)); got != 3 {
		t.Errorf("commands = %d, want 3", got)
	}
	notes := s.Notes()
	if len(notes) != 1 || notes[0].ID != "default-note" {
		t.Fatalf("seed note = %+v", notes)
	}
	if s.ActiveNoteID() != "" {
		t.Error("no note should be active on start")
	}

	empty := newTestStore(t, WithoutSeedNote())
	if len(empty.Notes()) != 0 {
		t.Error("WithoutSeedNote should leave the store empty")
	}
}

func TestCreateChat_DefaultsAndOrder(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateChat("")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.CreateChat("")
	if a.Name != DefaultChatName {
		t.Errorf("name = %q", a.Name)
	}
	if len(a.RoleIDs) != 1 || a.RoleIDs[0] != "base-model" {
		t.Errorf("members = %v", a.RoleIDs)
	}
	chats := s.Chats()
	if chats[0].ID != b.ID || chats[1].ID != a.ID {
		t.Error("new chats should be prepended")
	}
	if s.ActiveChatID() != b.ID {
		t.Errorf("active = %q, want %q", s.ActiveChatID(), b.ID)
	}
}

func TestChat_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.CreateChat("")
	if err := s.AppendMessage(c.ID, &models.Message{ID: "m1", Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Chat(c.ID)
	got.Messages[0].Text = "mutated"
	again, _ := s.Chat(c.ID)
	if again.Messages[0].Text != "hi" {
		t.Error("Chat must return a deep copy")
	}
}

func TestDeleteChat_ClearsActive(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.CreateChat("")
	s.DeleteChat(c.ID)
	if s.ActiveChatID() != "" {
		t.Error("active chat should be cleared")
	}
	if _, err := s.Chat(c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	s.DeleteChat("missing")
}

func TestDeleteMessages(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.CreateChat("")
	for _, id := range []string{"a", "b", "c"} {
		_ = s.AppendMessage(c.ID, &models.Message{ID: id})
	}
	if n := s.DeleteMessages(c.ID, []string{"a", "c", "zzz"}); n != 2 {
		t.Errorf("removed = %d", n)
	}
	got, _ := s.Chat(c.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != "b" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestToggleChatRole(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.CreateChat("")
	if err := s.ToggleChatRole(c.ID, "critic"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Chat(c.ID)
	if !got.HasRole("critic") {
		t.Error("critic should be a member")
	}
	_ = s.ToggleChatRole(c.ID, "critic")
	got, _ = s.Chat(c.ID)
	if got.HasRole("critic") {
		t.Error("critic should be removed")
	}
	if err := s.ToggleChatRole(c.ID, "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteNotes_Atomic(t *testing.T) {
	s := newTestStore(t, WithoutSeedNote())
	var ids []string
	for i := 0; i < 5; i++ {
		n, _ := s.CreateNote("")
		ids = append(ids, n.ID)
	}
	_ = s.SetActiveNote(ids[1])

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	if n := s.DeleteNotes([]string{ids[1], ids[3]}); n != 2 {
		t.Fatalf("removed = %d", n)
	}
	left := s.Notes()
	if len(left) != 3 {
		t.Fatalf("left = %d", len(left))
	}
	for _, n := range left {
		if n.ID == ids[1] || n.ID == ids[3] {
			t.Errorf("note %s should be gone", n.ID)
		}
	}
	if s.ActiveNoteID() != "" {
		t.Error("active note should be cleared")
	}
	deleted := 0
	for _, ev := range events {
		if ev.Kind == EventDeleted && ev.Entity == EntityNote {
			deleted++
		}
	}
	if deleted != 2 {
		t.Errorf("delete events = %d", deleted)
	}
}

func TestUpdateNote_RefreshesTimestamp(t *testing.T) {
	s := newTestStore(t, WithoutSeedNote())
	n, _ := s.CreateNote("")
	title := "Renamed"
	if err := s.UpdateNote(n.ID, NotePatch{Title: &title}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Note(n.ID)
	if got.Title != "Renamed" || !got.UpdatedAt.After(n.UpdatedAt) {
		t.Errorf("note = %+v", got)
	}
	if err := s.UpdateNote("missing", NotePatch{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestFilterNotes(t *testing.T) {
	s := newTestStore(t, WithoutSeedNote())
	a, _ := s.CreateNote("")
	b, _ := s.CreateNote("")
	content := "Go Concurrency patterns"
	_ = s.UpdateNote(a.ID, NotePatch{Content: &content})
	title := "Shopping"
	_ = s.UpdateNote(b.ID, NotePatch{Title: &title})

	got := s.FilterNotes("concurrency")
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("filter = %+v", got)
	}
	if len(s.FilterNotes("  ")) != 2 {
		t.Error("blank query should match all")
	}
}

func TestFolders_DeleteReassigns(t *testing.T) {
	s := newTestStore(t, WithoutSeedNote())
	parent, err := s.CreateFolder("Work", models.FolderNote, "")
	if err != nil {
		t.Fatal(err)
	}
	child, _ := s.CreateFolder("Drafts", models.FolderNote, parent.ID)
	grandchild, _ := s.CreateFolder("Old", models.FolderNote, child.ID)
	n, _ := s.CreateNote(parent.ID)

	s.DeleteFolder(parent.ID)

	got, _ := s.Note(n.ID)
	if got.FolderID != "" {
		t.Errorf("note folder = %q, want root", got.FolderID)
	}
	c, _ := s.Folder(child.ID)
	if c.ParentID != "" {
		t.Errorf("child parent = %q, want root", c.ParentID)
	}
	g, _ := s.Folder(grandchild.ID)
	if g.ParentID != child.ID {
		t.Error("grandchild should keep its parent")
	}
	if len(s.Folders(models.FolderNote)) != 2 {
		t.Error("children must not be cascade-deleted")
	}
}

func TestFolders_KindsAreDisjoint(t *testing.T) {
	s := newTestStore(t)
	chatFolder, _ := s.CreateFolder("Chats", models.FolderChat, "")
	if _, err := s.CreateFolder("Notes", models.FolderNote, chatFolder.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("cross-kind parent err = %v", err)
	}
	if _, err := s.CreateNote(chatFolder.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("note in chat folder err = %v", err)
	}
	if _, err := s.CreateFolder(" ", models.FolderChat, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty name err = %v", err)
	}
}

func TestMoveFolder_RejectsCycle(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.CreateFolder("A", models.FolderChat, "")
	b, _ := s.CreateFolder("B", models.FolderChat, a.ID)
	if err := s.MoveFolder(a.ID, b.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("cycle err = %v", err)
	}
	if err := s.MoveFolder(a.ID, a.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("self err = %v", err)
	}
	if err := s.MoveFolder(b.ID, ""); err != nil {
		t.Errorf("move to root: %v", err)
	}
}

func TestCreateChat_ExpandsFolder(t *testing.T) {
	s := newTestStore(t)
	f, _ := s.CreateFolder("A", models.FolderChat, "")
	_ = s.ToggleFolder(f.ID)
	if got, _ := s.Folder(f.ID); got.IsExpanded {
		t.Fatal("folder should be collapsed")
	}
	if _, err := s.CreateChat(f.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Folder(f.ID); !got.IsExpanded {
		t.Error("creating into a folder should expand it")
	}
}

func TestDeleteRole_StripsMembership(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.CreateChat("")
	_ = s.ToggleChatRole(c.ID, "critic")
	s.DeleteRole("critic")
	got, _ := s.Chat(c.ID)
	if got.HasRole("critic") {
		t.Error("deleted role should leave every chat")
	}
	if _, err := s.Role("critic"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSaveRole_Upsert(t *testing.T) {
	s := newTestStore(t)
	r, err := s.SaveRole(models.Role{Name: "Editor"})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == "" {
		t.Fatal("id should be generated")
	}
	r.Description = "edits"
	if _, err := s.SaveRole(*r); err != nil {
		t.Fatal(err)
	}
	if len(s.Roles()) != 5 {
		t.Errorf("roles = %d, want 5", len(s.Roles()))
	}
	if _, err := s.SaveRole(models.Role{}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v", err)
	}
}

func TestPhrases(t *testing.T) {
	s := newTestStore(t)
	p, err := s.SavePhrase(PhraseChat, models.QuickPhrase{Text: "总结一下"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.TogglePhrasePin(PhraseChat, p.ID); err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, q := range s.Phrases(PhraseChat) {
		if q.ID == p.ID {
			found = q.IsPinned
		}
	}
	if !found {
		t.Error("phrase should be pinned")
	}
	s.DeletePhrase(PhraseChat, p.ID)
	if err := s.TogglePhrasePin(PhraseChat, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestApplyPresets_RejectsWholeBatch(t *testing.T) {
	s := newTestStore(t)
	err := s.ApplyPresets([]models.Role{{ID: "x", Name: "X"}, {ID: "bad"}}, nil, nil)
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.Role("x"); err == nil {
		t.Error("no preset should be applied when one is invalid")
	}
}

func TestUpdate_NoEventsOnError(t *testing.T) {
	s := newTestStore(t)
	var events int
	s.Subscribe(func(Event) { events++ })
	_ = s.Update(func(tx *Tx) error {
		tx.CreateChat("", nil, "")
		return apperr.ErrInvalid
	})
	if events != 0 {
		t.Errorf("events = %d, want 0", events)
	}
}

func TestUpdate_PanicReleasesLock(t *testing.T) {
	s := newTestStore(t)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		_ = s.Update(func(*Tx) error { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		_ = s.Notes()
		_, _ = s.CreateNote("")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("store still locked after panic")
	}
}
