package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/zrl37/crystallize/internal/chatsync"
	"github.com/zrl37/crystallize/internal/export"
	"github.com/zrl37/crystallize/internal/index"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/noteservice"
	"github.com/zrl37/crystallize/internal/store"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	FolderID string `json:"folder_id"`
	Title    string `json:"title" example:"读书笔记"`
	Content  string `json:"content" example:"第一章"`
}

// UpdateNoteRequest is the request body for updating a note. Absent fields
// are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Validate rejects a blank title.
func (r UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty),
	)
}

func (r UpdateNoteRequest) patch() store.NotePatch {
	return store.NotePatch{Title: r.Title, Content: r.Content}
}

// MoveRequest moves a chat or note into a folder ("" for root).
type MoveRequest struct {
	FolderID string `json:"folder_id"`
}

// RenameRequest renames a chat or folder.
type RenameRequest struct {
	Name string `json:"name" example:"周会"`
}

// Validate requires a name.
func (r RenameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// SendMessageRequest is one user turn. Wait blocks the response until every
// persona has replied.
type SendMessageRequest struct {
	Text        string              `json:"text" example:"@批判者 你怎么看？"`
	Attachments []models.Attachment `json:"attachments"`
	Wait        bool                `json:"wait"`
}

// Validate checks attachment payloads.
func (r SendMessageRequest) Validate() error {
	for _, a := range r.Attachments {
		if err := validation.ValidateStruct(&a,
			validation.Field(&a.MimeType, validation.Required),
			validation.Field(&a.Data, validation.Required),
		); err != nil {
			return err
		}
	}
	return nil
}

// SendMessageResponse reports the stored message and the dispatch.
type SendMessageResponse struct {
	ChatID    string       `json:"chat_id"`
	MessageID string       `json:"message_id"`
	RoleIDs   []string     `json:"role_ids"`
	Chat      *models.Chat `json:"chat,omitempty"`
}

// IDsRequest carries a list of entity ids.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// SyncRequest synchronizes messages into another chat.
type SyncRequest struct {
	DestinationID string   `json:"destination_id" example:"new"`
	MessageIDs    []string `json:"message_ids"`
}

// Validate requires a destination.
func (r SyncRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DestinationID, validation.Required),
	)
}

// SyncResponse aliases the engine result.
type SyncResponse = chatsync.Result

// FolderRequest creates a folder.
type FolderRequest struct {
	Name     string            `json:"name" example:"项目"`
	Kind     models.FolderKind `json:"kind" example:"note"`
	ParentID string            `json:"parent_id"`
}

// Validate requires a name and a known kind.
func (r FolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(models.FolderChat, models.FolderNote)),
	)
}

// MoveFolderRequest reparents a folder.
type MoveFolderRequest struct {
	ParentID string `json:"parent_id"`
}

// RoleRequest creates or replaces a persona.
type RoleRequest struct {
	models.Role
}

// Validate requires a name.
func (r RoleRequest) Validate() error {
	return validation.ValidateStruct(&r.Role,
		validation.Field(&r.Role.Name, validation.Required),
	)
}

// PhraseRequest creates or replaces a quick phrase or notebook command.
type PhraseRequest struct {
	models.QuickPhrase
}

// Validate requires text.
func (r PhraseRequest) Validate() error {
	return validation.ValidateStruct(&r.QuickPhrase,
		validation.Field(&r.QuickPhrase.Text, validation.Required),
	)
}

// OpenNoteRequest opens a note in the editing session.
type OpenNoteRequest struct {
	NoteID string `json:"note_id"`
}

// Validate requires a note id.
func (r OpenNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required),
	)
}

// EditRequest replaces the body of the open note.
type EditRequest struct {
	Content string `json:"content"`
}

// CursorRequest reports the insertion point of the open note.
type CursorRequest struct {
	Offset int `json:"offset"`
}

// Validate rejects negative offsets.
func (r CursorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Offset, validation.Min(0)),
	)
}

// MergeRequest adds text to the notebook.
type MergeRequest struct {
	Text   string     `json:"text"`
	Mode   merge.Mode `json:"mode" example:"append"`
	NoteID string     `json:"note_id"`
	Cursor *int       `json:"cursor"`
}

// Validate checks the mode.
func (r MergeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.In(merge.ModeAppend, merge.ModeNewNote)),
	)
}

// RangeRequest is a rune range of the open note.
type RangeRequest struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Instruction string `json:"instruction"`
}

// Validate rejects negative offsets.
func (r RangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Start, validation.Min(0)),
		validation.Field(&r.End, validation.Min(0)),
	)
}

// CursorResponse reports where the cursor moved.
type CursorResponse struct {
	Cursor int `json:"cursor"`
}

// OrganizeResponse carries the organized body.
type OrganizeResponse struct {
	Content string `json:"content"`
}

// HistoryResponse reports whether an undo or redo moved.
type HistoryResponse struct {
	Moved bool `json:"moved"`
}

// SelectionResponse describes a selection set.
type SelectionResponse struct {
	Active bool     `json:"active"`
	IDs    []string `json:"ids"`
}

// ToggleRequest toggles one id in a selection.
type ToggleRequest struct {
	ID string `json:"id"`
}

// Validate requires an id.
func (r ToggleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

// NoteQueryRequest scopes select-all to the notes matching Query.
type NoteQueryRequest struct {
	Query string `json:"query"`
}

// BatchMergeRequest merges selected messages into the notebook.
type BatchMergeRequest struct {
	Mode   merge.Mode `json:"mode" example:"append"`
	NoteID string     `json:"note_id"`
}

// Validate checks the mode.
func (r BatchMergeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.In(merge.ModeAppend, merge.ModeNewNote)),
	)
}

// ExportRequest exports the selected notes.
type ExportRequest struct {
	Format export.Format `json:"format" example:"markdown"`
}

// Validate requires a known format.
func (r ExportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Format, validation.Required, validation.In(export.FormatText, export.FormatMarkdown, export.FormatDoc)),
	)
}

// ExportResponse lists written file names.
type ExportResponse struct {
	Files []string `json:"files"`
}

// CountResponse reports how many entities a batch action touched.
type CountResponse struct {
	Count int `json:"count"`
}
