// Package store holds the canonical in-memory collections of chats, notes,
// folders, roles and quick phrases.
//
// Every public method is one atomic state transition guarded by a single
// mutex. Engines that need several steps to happen atomically use Update,
// which hands them a Tx over the unlocked state. Observers are notified of the
// resulting changes after the lock is released.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zrl37/crystallize/internal/models"
)

// Default display names.
const (
	DefaultChatName = "新会话"
	DefaultNoteName = "新建笔记"
)

// Entity names the collection an Event refers to.
type Entity string

const (
	EntityChat    Entity = "chat"
	EntityMessage Entity = "message"
	EntityNote    Entity = "note"
	EntityFolder  Entity = "folder"
	EntityRole    Entity = "role"
	EntityPhrase  Entity = "phrase"
	EntityActive  Entity = "active"
)

// Event kinds.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Event describes one mutation. For EntityMessage, ID is the chat id.
type Event struct {
	Kind   string `json:"kind"`
	Entity Entity `json:"entity"`
	ID     string `json:"id"`
}

// Observer receives events after the transition that produced them committed.
type Observer func(Event)

// IDGenerator returns a fresh unique identifier on each call.
type IDGenerator func() string

// Store is the entity store. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	newID IDGenerator
	now   func() time.Time

	chats    []*models.Chat // newest first
	notes    []*models.Note // newest first
	folders  map[models.FolderKind][]*models.Folder
	roles    []*models.Role
	phrases  map[PhraseKind][]*models.QuickPhrase
	activeCh string
	activeNt string
	noSeed   bool

	obsMu     sync.RWMutex
	observers []Observer
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the default UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.newID = g
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRoles replaces the built-in personas.
func WithRoles(roles []models.Role) Option {
	return func(s *Store) {
		s.roles = s.roles[:0]
		for _, r := range roles {
			r := r
			s.roles = append(s.roles, &r)
		}
	}
}

// WithoutSeedNote skips creating the initial empty note.
func WithoutSeedNote() Option {
	return func(s *Store) {
		s.noSeed = true
	}
}

// New returns a store seeded with the built-in personas, the default notebook
// commands, the default quick phrases and one empty note.
func New(opts ...Option) *Store {
	s := &Store{
		newID:   uuid.NewString,
		now:     time.Now,
		folders: make(map[models.FolderKind][]*models.Folder),
		phrases: make(map[PhraseKind][]*models.QuickPhrase),
	}
	for _, r := range BuiltInRoles() {
		r := r
		s.roles = append(s.roles, &r)
	}
	for _, p := range DefaultCommands() {
		p := p
		s.phrases[PhraseCommand] = append(s.phrases[PhraseCommand], &p)
	}
	for _, p := range DefaultQuickPhrases() {
		p := p
		s.phrases[PhraseChat] = append(s.phrases[PhraseChat], &p)
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.noSeed {
		s.notes = []*models.Note{{
			ID:        "default-note",
			Title:     "我的第一个笔记",
			UpdatedAt: s.now(),
		}}
	}
	return s
}

// Subscribe registers an observer. Observers run synchronously on the
// goroutine that performed the mutation and must not block for long.
func (s *Store) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

// Update runs fn as one atomic transition. Events recorded by fn are delivered
// after the lock is released, and only if fn returns nil.
func (s *Store) Update(fn func(tx *Tx) error) error {
	tx := &Tx{s: s}
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(tx)
	}()

	if err != nil || len(tx.events) == 0 {
		return err
	}
	s.obsMu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.obsMu.RUnlock()
	for _, ev := range tx.events {
		for _, o := range observers {
			o(ev)
		}
	}
	return nil
}

// View runs fn with the lock held and without recording events.
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Tx is the unlocked view of the state handed to Update and View callbacks.
// Pointers returned by Tx methods must not escape the callback.
type Tx struct {
	s      *Store
	events []Event
}

// NewID returns a fresh identifier.
func (tx *Tx) NewID() string { return tx.s.newID() }

// Now returns the store clock's current time.
func (tx *Tx) Now() time.Time { return tx.s.now() }

func (tx *Tx) emit(kind string, entity Entity, id string) {
	tx.events = append(tx.events, Event{Kind: kind, Entity: entity, ID: id})
}
