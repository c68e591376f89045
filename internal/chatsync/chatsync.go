// Package chatsync copies a selection of messages from one chat into another
// and leaves a bookkeeping stub on both sides.
package chatsync

import (
	"log/slog"
	"strings"
	"time"

	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/store"
)

// NewChat is the destination value that asks Synchronize to create a chat.
const NewChat = "new"

// SystemSenderName is the display name on sync stubs.
const SystemSenderName = "系统"

// previewRunes is how many runes of each message body the stub preview keeps.
const previewRunes = 50

// Engine performs synchronizations against a store.
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

// Result describes a completed synchronization.
type Result struct {
	DestinationID string   `json:"destination_id"`
	Created       bool     `json:"created"`
	MessageIDs    []string `json:"message_ids"`
}

// Synchronize copies the listed messages of sourceID into destID, or into a
// fresh chat when destID is NewChat. Ids that are not in the source are
// dropped; if none remain, or either chat is unknown, nothing changes and the
// zero Result is returned.
func (e *Engine) Synchronize(sourceID, destID string, messageIDs []string) (Result, error) {
	var res Result
	err := e.store.Update(func(tx *store.Tx) error {
		src := tx.Chat(sourceID)
		if src == nil {
			return nil
		}
		selected := pick(src, messageIDs)
		if len(selected) == 0 {
			return nil
		}

		var dst *models.Chat
		if destID == NewChat {
			dst = tx.CreateChat("", nil, "")
			res.Created = true
		} else if dst = tx.Chat(destID); dst == nil {
			return nil
		}

		now := tx.Now()
		ids := make([]string, len(selected))
		for i, m := range selected {
			ids[i] = m.ID
		}
		preview := Preview(selected)
		meta := models.SyncMetadata{
			SourceChatID:   src.ID,
			SourceChatName: src.Name,
			TargetChatID:   dst.ID,
			TargetChatName: dst.Name,
			MessageIDs:     ids,
		}

		sent := stub(tx.NewID(), src.ID, preview, now, meta, models.SyncSent)
		received := stub(tx.NewID(), dst.ID, preview, now, meta, models.SyncReceived)

		copies := make([]*models.Message, 0, len(selected)+1)
		copies = append(copies, received)
		for _, m := range selected {
			cp := models.CloneMessage(m)
			cp.ID = tx.NewID()
			cp.ChatID = dst.ID
			cp.Timestamp = now
			copies = append(copies, cp)
		}

		if err := tx.AppendMessages(src.ID, sent); err != nil {
			return err
		}
		if err := tx.AppendMessages(dst.ID, copies...); err != nil {
			return err
		}
		res.DestinationID = dst.ID
		res.MessageIDs = ids
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if res.DestinationID != "" {
		e.logger.Info("messages synchronized",
			slog.String("source_chat_id", sourceID),
			slog.String("target_chat_id", res.DestinationID),
			slog.Int("count", len(res.MessageIDs)),
		)
	}
	return res, nil
}

// pick returns the messages of c whose ids are listed, in chat order.
func pick(c *models.Chat, ids []string) []*models.Message {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*models.Message
	for _, m := range c.Messages {
		if _, ok := want[m.ID]; ok {
			out = append(out, m)
		}
	}
	return out
}

func stub(id, chatID, body string, at time.Time, meta models.SyncMetadata, dir models.SyncDirection) *models.Message {
	meta.Direction = dir
	meta.MessageIDs = append([]string(nil), meta.MessageIDs...)
	return &models.Message{
		ID:         id,
		ChatID:     chatID,
		SenderID:   models.SystemSenderID,
		SenderName: SystemSenderName,
		Text:       body,
		Timestamp:  at,
		Kind:       models.KindSync,
		Sync:       &meta,
	}
}

// Preview renders the stub body: one "**sender**: text" entry per message,
// bodies cut to 50 runes with a trailing "...", separated by blank lines.
func Preview(msgs []*models.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = "**" + m.SenderName + "**: " + truncate(m.Text, previewRunes)
	}
	return strings.Join(parts, "\n\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
