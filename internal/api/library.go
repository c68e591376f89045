package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/store"
)

// ListFolders handles GET /api/folders?kind=chat|note.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	kind := models.FolderKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("kind must be chat or note"))
		return
	}
	folders := h.svc.Store.Folders(kind)
	if folders == nil {
		folders = []models.Folder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.Store.CreateFolder(req.Name, req.Kind, req.ParentID)
	if err != nil {
		writeError(w, err, "create folder")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// RenameFolder handles PUT /api/folders/{id}.
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.RenameFolder(id, req.Name); err != nil {
		writeError(w, err, "rename folder")
		return
	}
	h.writeFolder(w, id)
}

// ToggleFolder handles POST /api/folders/{id}/toggle.
func (h *Handler) ToggleFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.ToggleFolder(id); err != nil {
		writeError(w, err, "toggle folder")
		return
	}
	h.writeFolder(w, id)
}

// MoveFolder handles POST /api/folders/{id}/move. Moving a folder under
// itself, a descendant or a folder of the other kind is a 409.
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req MoveFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.MoveFolder(id, req.ParentID); err != nil {
		writeError(w, err, "move folder")
		return
	}
	h.writeFolder(w, id)
}

// DeleteFolder handles DELETE /api/folders/{id}. Contents move to the root.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Store.Folder(id); err != nil {
		writeError(w, err, "delete folder")
		return
	}
	h.svc.Store.DeleteFolder(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeFolder(w http.ResponseWriter, id string) {
	f, err := h.svc.Store.Folder(id)
	if err != nil {
		writeError(w, err, "get folder")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ListRoles handles GET /api/roles.
func (h *Handler) ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": h.svc.Store.Roles()})
}

// SaveRole handles POST /api/roles and PUT /api/roles/{id}.
func (h *Handler) SaveRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	role, err := h.svc.Store.SaveRole(req.Role)
	if err != nil {
		writeError(w, err, "save role")
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// DeleteRole handles DELETE /api/roles/{id}. The persona leaves every chat.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Store.Role(id); err != nil {
		writeError(w, err, "delete role")
		return
	}
	h.svc.Store.DeleteRole(id)
	w.WriteHeader(http.StatusNoContent)
}

func phraseKind(w http.ResponseWriter, r *http.Request) (store.PhraseKind, bool) {
	kind := store.PhraseKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("kind must be chat or command"))
		return "", false
	}
	return kind, true
}

// ListPhrases handles GET /api/phrases/{kind}.
func (h *Handler) ListPhrases(w http.ResponseWriter, r *http.Request) {
	kind, ok := phraseKind(w, r)
	if !ok {
		return
	}
	phrases := h.svc.Store.Phrases(kind)
	if phrases == nil {
		phrases = []models.QuickPhrase{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"phrases": phrases})
}

// SavePhrase handles POST /api/phrases/{kind} and PUT /api/phrases/{kind}/{id}.
func (h *Handler) SavePhrase(w http.ResponseWriter, r *http.Request) {
	kind, ok := phraseKind(w, r)
	if !ok {
		return
	}
	var req PhraseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	p, err := h.svc.Store.SavePhrase(kind, req.QuickPhrase)
	if err != nil {
		writeError(w, err, "save phrase")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePhrase handles DELETE /api/phrases/{kind}/{id}.
func (h *Handler) DeletePhrase(w http.ResponseWriter, r *http.Request) {
	kind, ok := phraseKind(w, r)
	if !ok {
		return
	}
	h.svc.Store.DeletePhrase(kind, chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// TogglePhrasePin handles POST /api/phrases/{kind}/{id}/pin.
func (h *Handler) TogglePhrasePin(w http.ResponseWriter, r *http.Request) {
	kind, ok := phraseKind(w, r)
	if !ok {
		return
	}
	if err := h.svc.Store.TogglePhrasePin(kind, chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "toggle phrase pin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
