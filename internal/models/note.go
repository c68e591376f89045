package models

import "time"

// Note is a freeform notebook page.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
	FolderID  string    `json:"folder_id,omitempty"`
}

// FolderKind is the entity kind a folder may hold.
type FolderKind string

const (
	FolderChat FolderKind = "chat"
	FolderNote FolderKind = "note"
)

// Valid reports whether k is a known folder kind.
func (k FolderKind) Valid() bool {
	return k == FolderChat || k == FolderNote
}

// Folder groups chats or notes. Chat and note folders form disjoint trees.
type Folder struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       FolderKind `json:"kind"`
	IsExpanded bool       `json:"is_expanded"`
	ParentID   string     `json:"parent_id,omitempty"`
}

// Role is a persona: a named instruction set that drives generated replies.
type Role struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	SystemInstruction string `json:"system_instruction" yaml:"system_instruction"`
	Avatar            string `json:"avatar" yaml:"avatar"`
	Description       string `json:"description" yaml:"description"`
	BuiltIn           bool   `json:"built_in,omitempty" yaml:"built_in"`
}

// QuickPhrase is a reusable text snippet. Notebook commands use the same shape,
// with Label as their short display name.
type QuickPhrase struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Label    string `json:"label,omitempty" yaml:"label"`
	IsPinned bool   `json:"is_pinned" yaml:"pinned"`
}
