package store

import (
	"fmt"
	"strings"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
)

// Folder returns the live folder with the given id from either tree, or nil.
func (tx *Tx) Folder(id string) *models.Folder {
	if id == "" {
		return nil
	}
	for _, kind := range []models.FolderKind{models.FolderChat, models.FolderNote} {
		for _, f := range tx.s.folders[kind] {
			if f.ID == id {
				return f
			}
		}
	}
	return nil
}

// checkFolder verifies that folderID is empty or names a folder of the given kind.
func (tx *Tx) checkFolder(folderID string, kind models.FolderKind) error {
	if folderID == "" {
		return nil
	}
	f := tx.Folder(folderID)
	if f == nil {
		return fmt.Errorf("store: folder %s: %w", folderID, apperr.ErrNotFound)
	}
	if f.Kind != kind {
		return fmt.Errorf("store: folder %s holds %ss, not %ss: %w", folderID, f.Kind, kind, apperr.ErrConflict)
	}
	return nil
}

// CreateFolder adds an expanded folder to the tree of the given kind.
func (tx *Tx) CreateFolder(name string, kind models.FolderKind, parentID string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("store: folder name is empty: %w", apperr.ErrInvalid)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("store: folder kind %q: %w", kind, apperr.ErrInvalid)
	}
	if err := tx.checkFolder(parentID, kind); err != nil {
		return nil, err
	}
	f := &models.Folder{
		ID:         tx.NewID(),
		Name:       name,
		Kind:       kind,
		IsExpanded: true,
		ParentID:   parentID,
	}
	tx.s.folders[kind] = append(tx.s.folders[kind], f)
	tx.emit(EventCreated, EntityFolder, f.ID)
	if parentID != "" {
		tx.ExpandFolder(parentID)
	}
	return f, nil
}

// ExpandFolder marks a folder expanded.
func (tx *Tx) ExpandFolder(id string) {
	if f := tx.Folder(id); f != nil && !f.IsExpanded {
		f.IsExpanded = true
		tx.emit(EventUpdated, EntityFolder, id)
	}
}

// ToggleFolder flips a folder's expand flag.
func (tx *Tx) ToggleFolder(id string) error {
	f := tx.Folder(id)
	if f == nil {
		return fmt.Errorf("store: toggle folder %s: %w", id, apperr.ErrNotFound)
	}
	f.IsExpanded = !f.IsExpanded
	tx.emit(EventUpdated, EntityFolder, id)
	return nil
}

// RenameFolder changes a folder's name.
func (tx *Tx) RenameFolder(id, name string) error {
	f := tx.Folder(id)
	if f == nil {
		return fmt.Errorf("store: rename folder %s: %w", id, apperr.ErrNotFound)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("store: folder name is empty: %w", apperr.ErrInvalid)
	}
	f.Name = name
	tx.emit(EventUpdated, EntityFolder, id)
	return nil
}

// MoveFolder re-parents a folder within its own tree. Moving a folder under
// itself or one of its descendants is rejected.
func (tx *Tx) MoveFolder(id, parentID string) error {
	f := tx.Folder(id)
	if f == nil {
		return fmt.Errorf("store: move folder %s: %w", id, apperr.ErrNotFound)
	}
	if err := tx.checkFolder(parentID, f.Kind); err != nil {
		return err
	}
	for p := parentID; p != ""; {
		if p == id {
			return fmt.Errorf("store: move folder %s under itself: %w", id, apperr.ErrConflict)
		}
		parent := tx.Folder(p)
		if parent == nil {
			break
		}
		p = parent.ParentID
	}
	f.ParentID = parentID
	tx.emit(EventUpdated, EntityFolder, id)
	return nil
}

// DeleteFolder removes a folder. Chats, notes and direct child folders that
// referenced it move to the root; nothing is cascade-deleted.
func (tx *Tx) DeleteFolder(id string) bool {
	f := tx.Folder(id)
	if f == nil {
		return false
	}
	for _, c := range tx.s.chats {
		if c.FolderID == id {
			c.FolderID = ""
			tx.emit(EventUpdated, EntityChat, c.ID)
		}
	}
	for _, n := range tx.s.notes {
		if n.FolderID == id {
			n.FolderID = ""
			tx.emit(EventUpdated, EntityNote, n.ID)
		}
	}
	tree := tx.s.folders[f.Kind]
	kept := tree[:0]
	for _, other := range tree {
		if other.ID == id {
			continue
		}
		if other.ParentID == id {
			other.ParentID = ""
			tx.emit(EventUpdated, EntityFolder, other.ID)
		}
		kept = append(kept, other)
	}
	tx.s.folders[f.Kind] = kept
	tx.emit(EventDeleted, EntityFolder, id)
	return true
}

// CreateFolder adds a folder to the tree of the given kind.
func (s *Store) CreateFolder(name string, kind models.FolderKind, parentID string) (*models.Folder, error) {
	var out models.Folder
	err := s.Update(func(tx *Tx) error {
		f, err := tx.CreateFolder(name, kind, parentID)
		if err != nil {
			return err
		}
		out = *f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Folders returns copies of the folders of one kind, in creation order.
func (s *Store) Folders(kind models.FolderKind) []models.Folder {
	var out []models.Folder
	s.View(func(tx *Tx) {
		for _, f := range tx.s.folders[kind] {
			out = append(out, *f)
		}
	})
	return out
}

// Folder returns a copy of a folder.
func (s *Store) Folder(id string) (*models.Folder, error) {
	var out *models.Folder
	s.View(func(tx *Tx) {
		if f := tx.Folder(id); f != nil {
			cp := *f
			out = &cp
		}
	})
	if out == nil {
		return nil, fmt.Errorf("store: folder %s: %w", id, apperr.ErrNotFound)
	}
	return out, nil
}

// RenameFolder changes a folder's name.
func (s *Store) RenameFolder(id, name string) error {
	return s.Update(func(tx *Tx) error { return tx.RenameFolder(id, name) })
}

// ToggleFolder flips a folder's expand flag.
func (s *Store) ToggleFolder(id string) error {
	return s.Update(func(tx *Tx) error { return tx.ToggleFolder(id) })
}

// MoveFolder re-parents a folder ("" for root).
func (s *Store) MoveFolder(id, parentID string) error {
	return s.Update(func(tx *Tx) error { return tx.MoveFolder(id, parentID) })
}

// DeleteFolder removes a folder. Unknown ids are ignored.
func (s *Store) DeleteFolder(id string) {
	_ = s.Update(func(tx *Tx) error {
		tx.DeleteFolder(id)
		return nil
	})
}
