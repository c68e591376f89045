package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MessageSelection handles GET /api/selection/messages/{chatID}.
func (h *Handler) MessageSelection(w http.ResponseWriter, r *http.Request) {
	h.writeMessageSelection(w, chi.URLParam(r, "chatID"))
}

func (h *Handler) writeMessageSelection(w http.ResponseWriter, chatID string) {
	set := h.svc.Selection.Messages(chatID)
	msgs := h.svc.Selection.SelectedMessages(chatID)
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	writeJSON(w, http.StatusOK, SelectionResponse{Active: set.Active(), IDs: ids})
}

// MessageSelectionAction handles POST /api/selection/messages/{chatID}/{action}.
//
// Actions: enter, exit, toggle, select-all, toggle-all, clear, and the batch
// actions delete, sync and merge. Batch actions leave selection mode.
func (h *Handler) MessageSelectionAction(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	c := h.svc.Selection
	set := c.Messages(chatID)

	switch chi.URLParam(r, "action") {
	case "enter":
		set.Enter()
	case "exit":
		set.Exit()
	case "clear":
		set.Clear()
	case "toggle":
		var req ToggleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		set.Toggle(req.ID)
	case "select-all":
		c.SelectAllMessages(chatID)
	case "toggle-all":
		c.ToggleAllMessages(chatID)
	case "delete":
		writeJSON(w, http.StatusOK, CountResponse{Count: c.DeleteMessages(chatID)})
		return
	case "sync":
		var req SyncRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := c.SyncMessages(chatID, req.DestinationID)
		if err != nil {
			writeError(w, err, "sync selection")
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	case "merge":
		var req BatchMergeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := c.MergeMessages(chatID, req.Mode, req.NoteID)
		if err != nil {
			writeError(w, err, "merge selection")
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown action"))
		return
	}
	h.writeMessageSelection(w, chatID)
}

// NoteSelection handles GET /api/selection/notes.
func (h *Handler) NoteSelection(w http.ResponseWriter, _ *http.Request) {
	h.writeNoteSelection(w)
}

func (h *Handler) writeNoteSelection(w http.ResponseWriter) {
	notes := h.svc.Selection.SelectedNotes()
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	writeJSON(w, http.StatusOK, SelectionResponse{Active: h.svc.Selection.Notes().Active(), IDs: ids})
}

// NoteSelectionAction handles POST /api/selection/notes/{action}.
//
// Actions: enter, exit, toggle, select-all, toggle-all, clear, and the batch
// actions delete and export.
func (h *Handler) NoteSelectionAction(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Selection
	set := c.Notes()

	switch chi.URLParam(r, "action") {
	case "enter":
		set.Enter()
	case "exit":
		set.Exit()
	case "clear":
		set.Clear()
	case "toggle":
		var req ToggleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		set.Toggle(req.ID)
	case "select-all", "toggle-all":
		var req NoteQueryRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		if chi.URLParam(r, "action") == "select-all" {
			c.SelectAllNotes(req.Query)
		} else {
			c.ToggleAllNotes(req.Query)
		}
	case "delete":
		writeJSON(w, http.StatusOK, CountResponse{Count: c.DeleteNotes()})
		return
	case "export":
		var req ExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		files, err := c.ExportNotes(req.Format)
		if err != nil {
			writeError(w, err, "export selection")
			return
		}
		if files == nil {
			files = []string{}
		}
		writeJSON(w, http.StatusOK, ExportResponse{Files: files})
		return
	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown action"))
		return
	}
	h.writeNoteSelection(w)
}
