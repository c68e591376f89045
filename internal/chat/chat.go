// Package chat runs user turns: it stores the message, works out which
// personas should answer, and dispatches one generation per persona.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/provider"
	"github.com/zrl37/crystallize/internal/store"
)

// Display strings.
const (
	UserSenderName  = "我"
	ImageChatName   = "新图片会话"
	EmptyReplyText  = "我无法生成回复。"
	autoNameRunes   = 20
	DefaultHistory  = 30
	failureTemplate = "[系统错误]: %s 暂时不可用，或者无法访问该链接内容。"
)

// FailureText is the inline reply that replaces a failed generation.
func FailureText(personaName string) string {
	return fmt.Sprintf(failureTemplate, personaName)
}

// TypingEvent reports that a persona started or stopped generating in a chat.
type TypingEvent struct {
	ChatID string `json:"chat_id"`
	RoleID string `json:"role_id"`
	Typing bool   `json:"typing"`
}

// Options configures a Service.
type Options struct {
	// HistoryLimit bounds how many prior messages are sent to the provider.
	HistoryLimit int
	Logger       *slog.Logger
	// OnTyping, if set, is called whenever the typing set of a chat changes.
	OnTyping func(TypingEvent)
}

// Service sends user messages and collects persona replies.
type Service struct {
	store    *store.Store
	gen      provider.Generator
	limit    int
	logger   *slog.Logger
	onTyping func(TypingEvent)

	mu     sync.Mutex
	typing map[string]map[string]int // chat id -> role id -> in-flight count
}

// New returns a Service.
func New(s *store.Store, gen provider.Generator, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistory
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:    s,
		gen:      gen,
		limit:    opts.HistoryLimit,
		logger:   opts.Logger,
		onTyping: opts.OnTyping,
		typing:   make(map[string]map[string]int),
	}
}

// SendRequest is one user turn.
type SendRequest struct {
	ChatID      string              `json:"chat_id"`
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// Dispatch tracks the persona replies triggered by one user turn.
type Dispatch struct {
	ChatID    string   `json:"chat_id"`
	MessageID string   `json:"message_id"`
	RoleIDs   []string `json:"role_ids"`

	done chan struct{}
}

// Wait blocks until every reply has been appended or ctx ends.
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when every reply has been appended.
func (d *Dispatch) Done() <-chan struct{} { return d.done }

// Send stores a user message and starts a generation for each persona that
// should answer: the mentioned ones, or every active persona when nobody is
// mentioned. Replies are produced in the background and survive cancellation
// of ctx. Empty text without attachments yields a nil Dispatch.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Dispatch, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.Attachments) == 0 {
		return nil, nil
	}

	var (
		msg     *models.Message
		history []*models.Message
		targets []models.Role
	)
	err := s.store.Update(func(tx *store.Tx) error {
		c := tx.Chat(req.ChatID)
		if c == nil {
			return fmt.Errorf("chat: send to %s: %w", req.ChatID, apperr.ErrNotFound)
		}

		var active []models.Role
		for _, id := range c.RoleIDs {
			if r := tx.Role(id); r != nil {
				active = append(active, *r)
			}
		}
		mentions := Mentions(text, active)

		msg = &models.Message{
			ID:          tx.NewID(),
			ChatID:      c.ID,
			SenderID:    models.UserSenderID,
			SenderName:  UserSenderName,
			Text:        text,
			Timestamp:   tx.Now(),
			Kind:        models.KindUser,
			Mentions:    mentions,
			Attachments: normalizeAttachments(tx, req.Attachments),
		}

		if len(c.Messages) == 0 && c.Name == store.DefaultChatName {
			if err := tx.RenameChat(c.ID, AutoName(text)); err != nil {
				return err
			}
		}

		history = tail(c.Messages, s.limit)
		for i, m := range history {
			history[i] = models.CloneMessage(m)
		}
		if err := tx.AppendMessages(c.ID, msg); err != nil {
			return err
		}

		if len(mentions) > 0 {
			for _, r := range active {
				if containsString(mentions, r.ID) {
					targets = append(targets, r)
				}
			}
		} else {
			targets = active
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d := &Dispatch{ChatID: req.ChatID, MessageID: msg.ID, done: make(chan struct{})}
	preq := provider.Request{
		History: provider.BuildHistory(history),
		Prompt:  text,
		Images:  provider.Images(msg.Attachments),
	}

	bg := context.WithoutCancel(ctx)
	var g errgroup.Group
	for _, role := range targets {
		role := role
		d.RoleIDs = append(d.RoleIDs, role.ID)
		s.setTyping(req.ChatID, role.ID, true)
		g.Go(func() error {
			defer s.setTyping(req.ChatID, role.ID, false)
			s.reply(bg, req.ChatID, role, preq)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(d.done)
	}()
	return d, nil
}

// reply generates one persona's answer and appends it. Failures become an
// inline error message.
func (s *Service) reply(ctx context.Context, chatID string, role models.Role, req provider.Request) {
	req.Instruction = role.SystemInstruction
	text, err := s.gen.Generate(ctx, req)
	switch {
	case errors.Is(err, provider.ErrEmptyResponse):
		text = EmptyReplyText
	case err != nil:
		s.logger.Warn("generation failed",
			slog.String("chat_id", chatID),
			slog.String("role_id", role.ID),
			slog.String("error", err.Error()),
		)
		text = FailureText(role.Name)
	case strings.TrimSpace(text) == "":
		text = EmptyReplyText
	}

	err = s.store.Update(func(tx *store.Tx) error {
		return tx.AppendMessages(chatID, &models.Message{
			ID:         tx.NewID(),
			ChatID:     chatID,
			SenderID:   role.ID,
			SenderName: role.Name,
			Text:       text,
			Timestamp:  tx.Now(),
			Kind:       models.KindAI,
		})
	})
	if err != nil {
		s.logger.Debug("reply dropped",
			slog.String("chat_id", chatID),
			slog.String("role_id", role.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) setTyping(chatID, roleID string, on bool) {
	s.mu.Lock()
	roles := s.typing[chatID]
	if roles == nil {
		roles = make(map[string]int)
		s.typing[chatID] = roles
	}
	if on {
		roles[roleID]++
	} else if roles[roleID]--; roles[roleID] <= 0 {
		delete(roles, roleID)
		if len(roles) == 0 {
			delete(s.typing, chatID)
		}
	}
	s.mu.Unlock()

	if s.onTyping != nil {
		s.onTyping(TypingEvent{ChatID: chatID, RoleID: roleID, Typing: on})
	}
}

// Typing returns the ids of the personas currently generating in a chat, sorted.
func (s *Service) Typing(chatID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.typing[chatID]))
	for id := range s.typing[chatID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Mentions returns the ids of the roles whose "@name" appears in text, in
// role order.
func Mentions(text string, roles []models.Role) []string {
	var out []string
	for _, r := range roles {
		if r.Name != "" && strings.Contains(text, "@"+r.Name) {
			out = append(out, r.ID)
		}
	}
	return out
}

// AutoName derives a chat name from its first message.
func AutoName(text string) string {
	if text == "" {
		text = ImageChatName
	}
	r := []rune(text)
	if len(r) <= autoNameRunes {
		return text
	}
	return string(r[:autoNameRunes]) + "..."
}

func normalizeAttachments(tx *store.Tx, atts []models.Attachment) []models.Attachment {
	if len(atts) == 0 {
		return nil
	}
	out := make([]models.Attachment, len(atts))
	for i, a := range atts {
		if a.ID == "" {
			a.ID = tx.NewID()
		}
		if a.Kind == "" {
			a.Kind = models.AttachmentImage
		}
		if a.URL == "" && a.Data != "" {
			a.URL = "data:" + a.MimeType + ";base64," + a.Data
		}
		out[i] = a
	}
	return out
}

func tail(msgs []*models.Message, n int) []*models.Message {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]*models.Message(nil), msgs...)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
