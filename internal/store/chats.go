package store

import (
	"fmt"
	"strings"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
)

// Chat returns the live chat with the given id, or nil.
func (tx *Tx) Chat(id string) *models.Chat {
	if id == "" {
		return nil
	}
	for _, c := range tx.s.chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Chats returns the live chat list, newest first.
func (tx *Tx) Chats() []*models.Chat { return tx.s.chats }

// CreateChat prepends a new empty chat. An empty name falls back to
// DefaultChatName; nil roleIDs fall back to the first persona.
func (tx *Tx) CreateChat(name string, roleIDs []string, folderID string) *models.Chat {
	if strings.TrimSpace(name) == "" {
		name = DefaultChatName
	}
	if roleIDs == nil && len(tx.s.roles) > 0 {
		roleIDs = []string{tx.s.roles[0].ID}
	}
	c := &models.Chat{
		ID:        tx.NewID(),
		Name:      name,
		RoleIDs:   append([]string{}, roleIDs...),
		Messages:  []*models.Message{},
		CreatedAt: tx.Now(),
		FolderID:  folderID,
	}
	tx.s.chats = append([]*models.Chat{c}, tx.s.chats...)
	tx.emit(EventCreated, EntityChat, c.ID)
	return c
}

// AppendMessages appends msgs to the chat in order.
func (tx *Tx) AppendMessages(chatID string, msgs ...*models.Message) error {
	c := tx.Chat(chatID)
	if c == nil {
		return fmt.Errorf("store: append messages to %s: %w", chatID, apperr.ErrNotFound)
	}
	if len(msgs) == 0 {
		return nil
	}
	c.Messages = append(c.Messages, msgs...)
	tx.emit(EventCreated, EntityMessage, chatID)
	return nil
}

// DeleteMessages removes the listed messages from a chat and returns how many
// were removed.
func (tx *Tx) DeleteMessages(chatID string, ids []string) int {
	c := tx.Chat(chatID)
	if c == nil || len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := c.Messages[:0]
	removed := 0
	for _, m := range c.Messages {
		if _, ok := drop[m.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(c.Messages); i++ {
		c.Messages[i] = nil
	}
	c.Messages = kept
	if removed > 0 {
		tx.emit(EventDeleted, EntityMessage, chatID)
	}
	return removed
}

// RenameChat changes a chat's display name.
func (tx *Tx) RenameChat(id, name string) error {
	c := tx.Chat(id)
	if c == nil {
		return fmt.Errorf("store: rename chat %s: %w", id, apperr.ErrNotFound)
	}
	c.Name = name
	tx.emit(EventUpdated, EntityChat, id)
	return nil
}

// ToggleChatRole adds roleID to the chat's members or removes it.
func (tx *Tx) ToggleChatRole(chatID, roleID string) error {
	c := tx.Chat(chatID)
	if c == nil {
		return fmt.Errorf("store: toggle member of %s: %w", chatID, apperr.ErrNotFound)
	}
	if c.HasRole(roleID) {
		c.RoleIDs = removeString(c.RoleIDs, roleID)
	} else {
		if tx.Role(roleID) == nil {
			return fmt.Errorf("store: toggle member %s: %w", roleID, apperr.ErrNotFound)
		}
		c.RoleIDs = append(c.RoleIDs, roleID)
	}
	tx.emit(EventUpdated, EntityChat, chatID)
	return nil
}

// MoveChat places a chat in a chat folder, or at the root when folderID is empty.
func (tx *Tx) MoveChat(chatID, folderID string) error {
	c := tx.Chat(chatID)
	if c == nil {
		return fmt.Errorf("store: move chat %s: %w", chatID, apperr.ErrNotFound)
	}
	if err := tx.checkFolder(folderID, models.FolderChat); err != nil {
		return err
	}
	c.FolderID = folderID
	tx.emit(EventUpdated, EntityChat, chatID)
	return nil
}

// DeleteChat removes a chat. Deleting the active chat clears the active pointer.
func (tx *Tx) DeleteChat(id string) bool {
	for i, c := range tx.s.chats {
		if c.ID != id {
			continue
		}
		tx.s.chats = append(tx.s.chats[:i], tx.s.chats[i+1:]...)
		if tx.s.activeCh == id {
			tx.s.activeCh = ""
			tx.emit(EventUpdated, EntityActive, "chat")
		}
		tx.emit(EventDeleted, EntityChat, id)
		return true
	}
	return false
}

// ActiveChatID returns the active chat id, or "".
func (tx *Tx) ActiveChatID() string { return tx.s.activeCh }

// SetActiveChat changes the active chat. An empty id clears it.
func (tx *Tx) SetActiveChat(id string) error {
	if id != "" && tx.Chat(id) == nil {
		return fmt.Errorf("store: activate chat %s: %w", id, apperr.ErrNotFound)
	}
	if tx.s.activeCh != id {
		tx.s.activeCh = id
		tx.emit(EventUpdated, EntityActive, "chat")
	}
	return nil
}

// CreateChat creates a chat with the default name and first persona, makes it
// active and expands its folder.
func (s *Store) CreateChat(folderID string) (*models.Chat, error) {
	var out *models.Chat
	err := s.Update(func(tx *Tx) error {
		if err := tx.checkFolder(folderID, models.FolderChat); err != nil {
			return err
		}
		c := tx.CreateChat("", nil, folderID)
		tx.s.activeCh = c.ID
		tx.emit(EventUpdated, EntityActive, "chat")
		if folderID != "" {
			tx.ExpandFolder(folderID)
		}
		out = models.CloneChat(c)
		return nil
	})
	return out, err
}

// Chat returns a copy of the chat with the given id.
func (s *Store) Chat(id string) (*models.Chat, error) {
	var out *models.Chat
	s.View(func(tx *Tx) {
		out = models.CloneChat(tx.Chat(id))
	})
	if out == nil {
		return nil, fmt.Errorf("store: chat %s: %w", id, apperr.ErrNotFound)
	}
	return out, nil
}

// Chats returns copies of every chat, newest first.
func (s *Store) Chats() []*models.Chat {
	var out []*models.Chat
	s.View(func(tx *Tx) {
		out = make([]*models.Chat, len(tx.s.chats))
		for i, c := range tx.s.chats {
			out[i] = models.CloneChat(c)
		}
	})
	return out
}

// RenameChat changes a chat's name.
func (s *Store) RenameChat(id, name string) error {
	return s.Update(func(tx *Tx) error { return tx.RenameChat(id, name) })
}

// ToggleChatRole adds or removes a persona from a chat.
func (s *Store) ToggleChatRole(chatID, roleID string) error {
	return s.Update(func(tx *Tx) error { return tx.ToggleChatRole(chatID, roleID) })
}

// MoveChat moves a chat into a folder ("" for root).
func (s *Store) MoveChat(chatID, folderID string) error {
	return s.Update(func(tx *Tx) error { return tx.MoveChat(chatID, folderID) })
}

// DeleteChat removes a chat. Unknown ids are ignored.
func (s *Store) DeleteChat(id string) {
	_ = s.Update(func(tx *Tx) error {
		tx.DeleteChat(id)
		return nil
	})
}

// AppendMessage appends one message to a chat.
func (s *Store) AppendMessage(chatID string, m *models.Message) error {
	return s.Update(func(tx *Tx) error { return tx.AppendMessages(chatID, m) })
}

// DeleteMessages removes messages from a chat and returns the count removed.
func (s *Store) DeleteMessages(chatID string, ids []string) int {
	var n int
	_ = s.Update(func(tx *Tx) error {
		n = tx.DeleteMessages(chatID, ids)
		return nil
	})
	return n
}

// ActiveChatID returns the active chat id.
func (s *Store) ActiveChatID() string {
	var id string
	s.View(func(tx *Tx) { id = tx.ActiveChatID() })
	return id
}

// SetActiveChat changes the active chat.
func (s *Store) SetActiveChat(id string) error {
	return s.Update(func(tx *Tx) error { return tx.SetActiveChat(id) })
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
