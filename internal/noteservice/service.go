// Package noteservice is the note read/write facade shared by the REST and
// MCP surfaces. It joins the store with the search index.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/checksum"
	"github.com/zrl37/crystallize/internal/index"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/parser"
	"github.com/zrl37/crystallize/internal/store"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	Checksum   string             `json:"checksum"`
	Tags       []string           `json:"tags"`
	Directives []parser.Directive `json:"directives"`
	FolderID   string             `json:"folder_id,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	FolderID  string    `json:"folder_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates store and index operations on notes.
type Service struct {
	store *store.Store
	idx   index.NoteIndex
}

// NewService creates a new note service. idx may be nil, in which case
// search filters the store directly.
func NewService(s *store.Store, idx index.NoteIndex) *Service {
	return &Service{store: s, idx: idx}
}

// GetNote returns one note with its parsed tags and directives.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	n, err := s.store.Note(id)
	if err != nil {
		return nil, err
	}
	return buildNoteDetail(*n), nil
}

// CreateNote creates a note in folderID. An empty title keeps the default
// note name.
func (s *Service) CreateNote(_ context.Context, folderID, title, content string) (*NoteDetail, error) {
	n, err := s.store.CreateNote(folderID)
	if err != nil {
		return nil, err
	}
	var p store.NotePatch
	if strings.TrimSpace(title) != "" {
		p.Title = &title
	}
	if content != "" {
		p.Content = &content
	}
	if p.Title != nil || p.Content != nil {
		if err := s.store.UpdateNote(n.ID, p); err != nil {
			return nil, err
		}
	}
	return s.GetNote(context.Background(), n.ID)
}

// UpdateNote applies p with optimistic concurrency: a non-empty ifMatch must
// equal the checksum of the current content.
func (s *Service) UpdateNote(ctx context.Context, id string, p store.NotePatch, ifMatch string) (*NoteDetail, error) {
	err := s.store.Update(func(tx *store.Tx) error {
		n := tx.Note(id)
		if n == nil {
			return fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
		}
		if ifMatch != "" && ifMatch != contentChecksum(n.Content) {
			return fmt.Errorf("noteservice: note %s: checksum mismatch: %w", id, apperr.ErrConflict)
		}
		return tx.UpdateNote(id, p)
	})
	if err != nil {
		return nil, err
	}
	return s.GetNote(ctx, id)
}

// MoveNote moves a note into a note folder ("" for root).
func (s *Service) MoveNote(ctx context.Context, id, folderID string) (*NoteDetail, error) {
	if err := s.store.MoveNote(id, folderID); err != nil {
		return nil, err
	}
	return s.GetNote(ctx, id)
}

// DeleteNote removes a note. The index follows through the store event.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	if s.store.DeleteNotes([]string{id}) == 0 {
		return fmt.Errorf("noteservice: note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// ListNotes returns notes newest first, optionally restricted to a folder
// and/or a tag. folderID "" lists every note.
func (s *Service) ListNotes(_ context.Context, folderID, tag string) ([]NoteListItem, error) {
	var notes []models.Note
	if folderID != "" {
		notes = s.store.NotesInFolder(folderID)
	} else {
		notes = s.store.Notes()
	}
	items := make([]NoteListItem, 0, len(notes))
	for _, n := range notes {
		tags := nonNilSlice(parser.Parse(n.Content).Tags)
		if tag != "" && !contains(tags, tag) {
			continue
		}
		items = append(items, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Checksum:  contentChecksum(n.Content),
			Tags:      tags,
			FolderID:  n.FolderID,
			UpdatedAt: n.UpdatedAt,
		})
	}
	return items, nil
}

// Search finds notes whose title or body contains query. It uses the index
// when one is configured.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("noteservice: empty query: %w", apperr.ErrInvalid)
	}
	if s.idx != nil {
		res, err := s.idx.Search(query, limit)
		if err != nil {
			return nil, err
		}
		return nonNilSlice(res), nil
	}
	if limit <= 0 {
		limit = 20
	}
	out := []index.SearchResult{}
	for _, n := range s.store.FilterNotes(query) {
		if len(out) == limit {
			break
		}
		out = append(out, index.SearchResult{ID: n.ID, Title: n.Title, Snippet: snippet(n.Content)})
	}
	return out, nil
}

func buildNoteDetail(n models.Note) *NoteDetail {
	res := parser.Parse(n.Content)
	return &NoteDetail{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		Checksum:   contentChecksum(n.Content),
		Tags:       nonNilSlice(res.Tags),
		Directives: nonNilSlice(res.Directives),
		FolderID:   n.FolderID,
		UpdatedAt:  n.UpdatedAt,
	}
}

// contentChecksum is the ETag of a note body.
func contentChecksum(content string) string {
	return checksum.Sum([]byte(content))
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > 200 {
		return string(r[:200])
	}
	return s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
