package api

import (
	"net/http"

	"github.com/zrl37/crystallize/internal/merge"
)

// SessionState handles GET /api/notebook.
func (h *Handler) SessionState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Session.State())
}

// OpenNote handles POST /api/notebook/open. The undo log restarts.
func (h *Handler) OpenNote(w http.ResponseWriter, r *http.Request) {
	var req OpenNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Session.Open(req.NoteID); err != nil {
		writeError(w, err, "open note")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Session.State())
}

// CloseNote handles POST /api/notebook/close.
func (h *Handler) CloseNote(w http.ResponseWriter, _ *http.Request) {
	h.svc.Session.Close()
	w.WriteHeader(http.StatusNoContent)
}

// EditNote handles PUT /api/notebook/content: a user edit of the open note.
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Session.Edit(req.Content); err != nil {
		writeError(w, err, "edit note")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Session.State())
}

// SetCursor handles PUT /api/notebook/cursor.
func (h *Handler) SetCursor(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.svc.Session.SetCursor(req.Offset)
	writeJSON(w, http.StatusOK, h.svc.Session.State())
}

// Undo handles POST /api/notebook/undo.
func (h *Handler) Undo(w http.ResponseWriter, _ *http.Request) {
	moved, err := h.svc.Session.Undo()
	if err != nil {
		writeError(w, err, "undo")
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Moved: moved})
}

// Redo handles POST /api/notebook/redo.
func (h *Handler) Redo(w http.ResponseWriter, _ *http.Request) {
	moved, err := h.svc.Session.Redo()
	if err != nil {
		writeError(w, err, "redo")
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Moved: moved})
}

// Merge handles POST /api/notebook/merge.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Session.Merge(merge.Request{
		Text:   req.Text,
		Mode:   req.Mode,
		NoteID: req.NoteID,
		Cursor: req.Cursor,
	})
	if err != nil {
		writeError(w, err, "merge")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Organize handles POST /api/notebook/organize.
func (h *Handler) Organize(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Session.Organize(r.Context())
	if err != nil {
		writeError(w, err, "organize")
		return
	}
	writeJSON(w, http.StatusOK, OrganizeResponse{Content: out})
}

// InsertDirective handles POST /api/notebook/directive.
func (h *Handler) InsertDirective(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cursor, err := h.svc.Session.InsertDirective(req.Start, req.End, req.Instruction)
	if err != nil {
		writeError(w, err, "insert directive")
		return
	}
	writeJSON(w, http.StatusOK, CursorResponse{Cursor: cursor})
}

// InsertDivider handles POST /api/notebook/divider.
func (h *Handler) InsertDivider(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cursor, err := h.svc.Session.InsertDivider(req.Start, req.End)
	if err != nil {
		writeError(w, err, "insert divider")
		return
	}
	writeJSON(w, http.StatusOK, CursorResponse{Cursor: cursor})
}
