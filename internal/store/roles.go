package store

import (
	"fmt"
	"strings"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
)

// PhraseKind selects one of the two snippet collections.
type PhraseKind string

const (
	// PhraseChat is the chat composer's quick phrases.
	PhraseChat PhraseKind = "chat"
	// PhraseCommand is the notebook's directive commands.
	PhraseCommand PhraseKind = "command"
)

// Valid reports whether k is a known phrase collection.
func (k PhraseKind) Valid() bool {
	return k == PhraseChat || k == PhraseCommand
}

// Role returns the live role with the given id, or nil.
func (tx *Tx) Role(id string) *models.Role {
	for _, r := range tx.s.roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Roles returns the live role list.
func (tx *Tx) Roles() []*models.Role { return tx.s.roles }

// SaveRole inserts a role, or replaces the role with the same id.
func (tx *Tx) SaveRole(r models.Role) (*models.Role, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, fmt.Errorf("store: role name is empty: %w", apperr.ErrInvalid)
	}
	if r.ID == "" {
		r.ID = tx.NewID()
	}
	if existing := tx.Role(r.ID); existing != nil {
		*existing = r
		tx.emit(EventUpdated, EntityRole, r.ID)
		return existing, nil
	}
	cp := r
	tx.s.roles = append(tx.s.roles, &cp)
	tx.emit(EventCreated, EntityRole, r.ID)
	return &cp, nil
}

// DeleteRole removes a role and drops it from every chat's member list.
func (tx *Tx) DeleteRole(id string) bool {
	for i, r := range tx.s.roles {
		if r.ID != id {
			continue
		}
		tx.s.roles = append(tx.s.roles[:i], tx.s.roles[i+1:]...)
		for _, c := range tx.s.chats {
			if c.HasRole(id) {
				c.RoleIDs = removeString(c.RoleIDs, id)
				tx.emit(EventUpdated, EntityChat, c.ID)
			}
		}
		tx.emit(EventDeleted, EntityRole, id)
		return true
	}
	return false
}

// Phrases returns the live phrase list of one kind.
func (tx *Tx) Phrases(kind PhraseKind) []*models.QuickPhrase { return tx.s.phrases[kind] }

// SavePhrase inserts a phrase or replaces the one with the same id.
func (tx *Tx) SavePhrase(kind PhraseKind, p models.QuickPhrase) (*models.QuickPhrase, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("store: phrase kind %q: %w", kind, apperr.ErrInvalid)
	}
	p.Text = strings.TrimSpace(p.Text)
	if p.Text == "" {
		return nil, fmt.Errorf("store: phrase text is empty: %w", apperr.ErrInvalid)
	}
	if p.ID == "" {
		p.ID = tx.NewID()
	}
	for _, existing := range tx.s.phrases[kind] {
		if existing.ID == p.ID {
			*existing = p
			tx.emit(EventUpdated, EntityPhrase, p.ID)
			return existing, nil
		}
	}
	cp := p
	tx.s.phrases[kind] = append(tx.s.phrases[kind], &cp)
	tx.emit(EventCreated, EntityPhrase, p.ID)
	return &cp, nil
}

// DeletePhrase removes a phrase.
func (tx *Tx) DeletePhrase(kind PhraseKind, id string) bool {
	list := tx.s.phrases[kind]
	for i, p := range list {
		if p.ID == id {
			tx.s.phrases[kind] = append(list[:i], list[i+1:]...)
			tx.emit(EventDeleted, EntityPhrase, id)
			return true
		}
	}
	return false
}

// TogglePhrasePin flips a phrase's pinned flag.
func (tx *Tx) TogglePhrasePin(kind PhraseKind, id string) error {
	for _, p := range tx.s.phrases[kind] {
		if p.ID == id {
			p.IsPinned = !p.IsPinned
			tx.emit(EventUpdated, EntityPhrase, id)
			return nil
		}
	}
	return fmt.Errorf("store: phrase %s: %w", id, apperr.ErrNotFound)
}

// Roles returns copies of every role.
func (s *Store) Roles() []models.Role {
	var out []models.Role
	s.View(func(tx *Tx) {
		for _, r := range tx.s.roles {
			out = append(out, *r)
		}
	})
	return out
}

// Role returns a copy of a role.
func (s *Store) Role(id string) (*models.Role, error) {
	var out *models.Role
	s.View(func(tx *Tx) {
		if r := tx.Role(id); r != nil {
			cp := *r
			out = &cp
		}
	})
	if out == nil {
		return nil, fmt.Errorf("store: role %s: %w", id, apperr.ErrNotFound)
	}
	return out, nil
}

// SaveRole inserts or replaces a role.
func (s *Store) SaveRole(r models.Role) (*models.Role, error) {
	var out models.Role
	err := s.Update(func(tx *Tx) error {
		saved, err := tx.SaveRole(r)
		if err != nil {
			return err
		}
		out = *saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRole removes a role. Unknown ids are ignored.
func (s *Store) DeleteRole(id string) {
	_ = s.Update(func(tx *Tx) error {
		tx.DeleteRole(id)
		return nil
	})
}

// Phrases returns copies of the phrases of one kind.
func (s *Store) Phrases(kind PhraseKind) []models.QuickPhrase {
	var out []models.QuickPhrase
	s.View(func(tx *Tx) {
		for _, p := range tx.s.phrases[kind] {
			out = append(out, *p)
		}
	})
	return out
}

// SavePhrase inserts or replaces a phrase.
func (s *Store) SavePhrase(kind PhraseKind, p models.QuickPhrase) (*models.QuickPhrase, error) {
	var out models.QuickPhrase
	err := s.Update(func(tx *Tx) error {
		saved, err := tx.SavePhrase(kind, p)
		if err != nil {
			return err
		}
		out = *saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePhrase removes a phrase. Unknown ids are ignored.
func (s *Store) DeletePhrase(kind PhraseKind, id string) {
	_ = s.Update(func(tx *Tx) error {
		tx.DeletePhrase(kind, id)
		return nil
	})
}

// TogglePhrasePin flips a phrase's pinned flag.
func (s *Store) TogglePhrasePin(kind PhraseKind, id string) error {
	return s.Update(func(tx *Tx) error { return tx.TogglePhrasePin(kind, id) })
}

// ApplyPresets upserts roles and phrases by id. Entities not mentioned are
// kept. The whole batch is rejected if any entry is invalid.
func (s *Store) ApplyPresets(roles []models.Role, phrases, commands []models.QuickPhrase) error {
	for _, r := range roles {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("store: preset role %q has no name: %w", r.ID, apperr.ErrInvalid)
		}
	}
	for _, p := range append(append([]models.QuickPhrase{}, phrases...), commands...) {
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("store: preset phrase %q has no text: %w", p.ID, apperr.ErrInvalid)
		}
	}
	return s.Update(func(tx *Tx) error {
		for _, r := range roles {
			if _, err := tx.SaveRole(r); err != nil {
				return fmt.Errorf("store: preset role %q: %w", r.ID, err)
			}
		}
		for _, p := range phrases {
			if _, err := tx.SavePhrase(PhraseChat, p); err != nil {
				return fmt.Errorf("store: preset phrase %q: %w", p.ID, err)
			}
		}
		for _, p := range commands {
			if _, err := tx.SavePhrase(PhraseCommand, p); err != nil {
				return fmt.Errorf("store: preset command %q: %w", p.ID, err)
			}
		}
		return nil
	})
}
