// Package models defines the domain types shared by the chat and notebook engines.
package models

import "time"

// UserSenderID is the sender id of messages typed by the local user.
const UserSenderID = "user"

// SystemSenderID is the sender id of synthetic messages such as sync stubs.
const SystemSenderID = "system"

// MessageKind classifies a message.
type MessageKind string

const (
	KindUser   MessageKind = "user"
	KindAI     MessageKind = "ai"
	KindSystem MessageKind = "system"
	KindSync   MessageKind = "sync"
)

// SyncDirection tags which side of a synchronization a stub lives on.
type SyncDirection string

const (
	SyncSent     SyncDirection = "sent"
	SyncReceived SyncDirection = "received"
)

// Chat is an ordered conversation between the user and zero or more personas.
// Messages are kept in insertion order.
type Chat struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	RoleIDs   []string   `json:"role_ids"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	FolderID  string     `json:"folder_id,omitempty"`
}

// HasRole reports whether roleID is an active member of the chat.
func (c *Chat) HasRole(roleID string) bool {
	for _, id := range c.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// MessageIndex returns the position of the message with the given id, or -1.
func (c *Chat) MessageIndex(id string) int {
	for i, m := range c.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Message is one entry of a chat.
type Message struct {
	ID          string        `json:"id"`
	ChatID      string        `json:"chat_id"`
	SenderID    string        `json:"sender_id"`
	SenderName  string        `json:"sender_name"`
	Text        string        `json:"text"`
	Timestamp   time.Time     `json:"timestamp"`
	Kind        MessageKind   `json:"kind"`
	Mentions    []string      `json:"mentions,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Sync        *SyncMetadata `json:"sync,omitempty"` // set iff Kind == KindSync
}

// IsFromUser reports whether the message was typed by the local user.
func (m *Message) IsFromUser() bool {
	return m.SenderID == UserSenderID
}

// SyncMetadata describes one synchronization event. The sent and received stubs
// of a sync carry identical metadata apart from Direction.
type SyncMetadata struct {
	SourceChatID   string        `json:"source_chat_id"`
	SourceChatName string        `json:"source_chat_name"`
	TargetChatID   string        `json:"target_chat_id"`
	TargetChatName string        `json:"target_chat_name"`
	MessageIDs     []string      `json:"message_ids"`
	Direction      SyncDirection `json:"direction"`
}

// AttachmentKind enumerates attachment payload types.
type AttachmentKind string

const AttachmentImage AttachmentKind = "image"

// Attachment is an immutable payload owned by a message.
type Attachment struct {
	ID       string         `json:"id"`
	Kind     AttachmentKind `json:"kind"`
	MimeType string         `json:"mime_type"`
	Data     string         `json:"data"` // raw base64
	URL      string         `json:"url"`  // data: URL for display
	Name     string         `json:"name"`
}

// IsImage reports whether the attachment is an image payload.
func (a Attachment) IsImage() bool {
	return a.Kind == AttachmentImage
}

// CloneMessage returns a copy of m whose slices are independent of m.
// Attachment payload strings are shared.
func CloneMessage(m *Message) *Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Mentions = append([]string(nil), m.Mentions...)
	if m.Attachments != nil {
		out.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	if m.Sync != nil {
		meta := *m.Sync
		meta.MessageIDs = append([]string(nil), m.Sync.MessageIDs...)
		out.Sync = &meta
	}
	return &out
}

// CloneChat returns a deep copy of c.
func CloneChat(c *Chat) *Chat {
	if c == nil {
		return nil
	}
	out := *c
	out.RoleIDs = append([]string(nil), c.RoleIDs...)
	out.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = CloneMessage(m)
	}
	return &out
}
