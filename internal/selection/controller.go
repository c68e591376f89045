package selection

import (
	"strings"
	"sync"

	"github.com/zrl37/crystallize/internal/chatsync"
	"github.com/zrl37/crystallize/internal/export"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/notebook"
	"github.com/zrl37/crystallize/internal/store"
)

// Controller owns the message selection of one chat and the note selection,
// and routes batch actions to the engines.
type Controller struct {
	store    *store.Store
	sync     *chatsync.Engine
	session  *notebook.Session
	exporter *export.Exporter

	mu       sync.Mutex
	chatID   string
	messages *Set
	notes    *Set
}

// NewController wires a Controller.
func NewController(s *store.Store, sy *chatsync.Engine, sess *notebook.Session, ex *export.Exporter) *Controller {
	return &Controller{
		store:    s,
		sync:     sy,
		session:  sess,
		exporter: ex,
		messages: NewSet(),
		notes:    NewSet(),
	}
}

// Messages returns the message selection for chatID. Switching to another
// chat starts from an empty, inactive selection.
func (c *Controller) Messages(chatID string) *Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chatID != chatID {
		c.chatID = chatID
		c.messages = NewSet()
	}
	return c.messages
}

// Notes returns the note selection.
func (c *Controller) Notes() *Set { return c.notes }

// SelectAllMessages selects every message of the chat.
func (c *Controller) SelectAllMessages(chatID string) {
	c.Messages(chatID).SelectAll(c.messageOrder(chatID))
}

// ToggleAllMessages selects every message, or clears if all are selected.
func (c *Controller) ToggleAllMessages(chatID string) {
	c.Messages(chatID).ToggleAll(c.messageOrder(chatID))
}

// SelectAllNotes selects the notes visible under query.
func (c *Controller) SelectAllNotes(query string) {
	c.notes.SelectAll(noteIDs(c.store.FilterNotes(query)))
}

// ToggleAllNotes selects the notes visible under query, or clears them.
func (c *Controller) ToggleAllNotes(query string) {
	c.notes.ToggleAll(noteIDs(c.store.FilterNotes(query)))
}

// SelectedMessages resolves the selection to messages in chat order.
func (c *Controller) SelectedMessages(chatID string) []*models.Message {
	chat, err := c.store.Chat(chatID)
	if err != nil {
		return nil
	}
	set := c.Messages(chatID)
	var out []*models.Message
	for _, m := range chat.Messages {
		if set.Has(m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// SelectedNotes resolves the selection to notes in store order.
func (c *Controller) SelectedNotes() []models.Note {
	var out []models.Note
	for _, n := range c.store.Notes() {
		if c.notes.Has(n.ID) {
			out = append(out, n)
		}
	}
	return out
}

// DeleteMessages removes the selected messages of a chat.
func (c *Controller) DeleteMessages(chatID string) int {
	set := c.Messages(chatID)
	defer set.Exit()
	ids := set.Selected(c.messageOrder(chatID))
	if len(ids) == 0 {
		return 0
	}
	return c.store.DeleteMessages(chatID, ids)
}

// DeleteNotes removes the selected notes in one transition. If the note open
// in the editing session is among them the session is closed.
func (c *Controller) DeleteNotes() int {
	defer c.notes.Exit()
	ids := c.notes.Selected(noteIDs(c.store.Notes()))
	if len(ids) == 0 {
		return 0
	}
	open := c.session.NoteID()
	n := c.store.DeleteNotes(ids)
	for _, id := range ids {
		if id == open {
			c.session.Close()
			break
		}
	}
	return n
}

// SyncMessages synchronizes the selected messages into destID (or
// chatsync.NewChat).
func (c *Controller) SyncMessages(chatID, destID string) (chatsync.Result, error) {
	set := c.Messages(chatID)
	defer set.Exit()
	ids := set.Selected(c.messageOrder(chatID))
	if len(ids) == 0 {
		return chatsync.Result{}, nil
	}
	return c.sync.Synchronize(chatID, destID, ids)
}

// MergeMessages adds the selected messages to the notebook as one block of
// "[sender]: text" entries.
func (c *Controller) MergeMessages(chatID string, mode merge.Mode, noteID string) (merge.Result, error) {
	msgs := c.SelectedMessages(chatID)
	defer c.Messages(chatID).Exit()
	if len(msgs) == 0 {
		return merge.Result{}, nil
	}
	return c.session.Merge(merge.Request{Text: Payload(msgs), Mode: mode, NoteID: noteID})
}

// ExportNotes writes the selected notes and returns the file names.
func (c *Controller) ExportNotes(f export.Format) ([]string, error) {
	defer c.notes.Exit()
	notes := c.SelectedNotes()
	if len(notes) == 0 {
		return nil, nil
	}
	return c.exporter.Export(notes, f)
}

// Payload joins messages as "[sender]: text" entries separated by blank lines.
func Payload(msgs []*models.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = "[" + m.SenderName + "]: " + m.Text
	}
	return strings.Join(parts, "\n\n")
}

func (c *Controller) messageOrder(chatID string) []string {
	chat, err := c.store.Chat(chatID)
	if err != nil {
		return nil
	}
	ids := make([]string, len(chat.Messages))
	for i, m := range chat.Messages {
		ids[i] = m.ID
	}
	return ids
}

func noteIDs(notes []models.Note) []string {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}
