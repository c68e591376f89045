package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zrl37/crystallize/internal/checksum"
	"github.com/zrl37/crystallize/internal/export"
)

// Handler holds API route handlers.
type Handler struct {
	svc Services
}

// NewHandler creates a new Handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes newest first with optional folder and tag filters
//	@Tags			notes
//	@Produce		json
//	@Param			folder	query		string	false	"Folder id"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.Notes.ListNotes(r.Context(), q.Get("folder"), q.Get("tag"))
	if err != nil {
		writeError(w, err, "list notes")
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Notes.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get note")
		return
	}
	w.Header().Set("ETag", checksum.ETag(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Notes.CreateNote(r.Context(), req.FolderID, req.Title, req.Content)
	if err != nil {
		writeError(w, err, "create note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateNoteRequest	true	"Updated fields"
//	@Success		200			{object}	NoteDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ifMatch := checksum.ParseETag(r.Header.Get("If-Match"))

	note, err := h.svc.Notes.UpdateNote(r.Context(), chi.URLParam(r, "id"), req.patch(), ifMatch)
	if err != nil {
		writeError(w, err, "update note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Notes.DeleteNote(r.Context(), id); err != nil {
		writeError(w, err, "delete note")
		return
	}
	if h.svc.Session != nil && h.svc.Session.NoteID() == id {
		h.svc.Session.Close()
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /api/notes/{id}/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Notes.MoveNote(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, err, "move note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ActivateNote handles POST /api/notes/{id}/activate.
func (h *Handler) ActivateNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.SetActiveNote(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "activate note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportNote handles GET /api/notes/{id}/export?format=text|markdown|doc.
// The rendered document is returned as a download.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	f := export.Format(r.URL.Query().Get("format"))
	if f == "" {
		f = export.FormatText
	}
	if !f.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown format"))
		return
	}
	n, err := h.svc.Store.Note(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "export note")
		return
	}
	data, err := export.Render(*n, f)
	if err != nil {
		writeError(w, err, "export note")
		return
	}
	name := export.FileName(n.Title, f, nil)
	w.Header().Set("Content-Type", contentType(f))
	w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''`+url.PathEscape(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Search handles GET /api/search.
//
//	@Summary		Search notes by title and body
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Notes.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err, "search")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case export.FormatDoc:
		return "application/msword"
	default:
		return "text/plain; charset=utf-8"
	}
}
