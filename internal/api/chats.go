package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zrl37/crystallize/internal/chat"
)

// ListChats handles GET /api/chats.
func (h *Handler) ListChats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chats":     h.svc.Store.Chats(),
		"active_id": h.svc.Store.ActiveChatID(),
	})
}

// CreateChat handles POST /api/chats. The new chat becomes active.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Store.CreateChat(req.FolderID)
	if err != nil {
		writeError(w, err, "create chat")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetChat handles GET /api/chats/{id}.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Store.Chat(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get chat")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// RenameChat handles PUT /api/chats/{id}.
func (h *Handler) RenameChat(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.RenameChat(id, req.Name); err != nil {
		writeError(w, err, "rename chat")
		return
	}
	h.GetChat(w, r)
}

// DeleteChat handles DELETE /api/chats/{id}.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Store.Chat(id); err != nil {
		writeError(w, err, "delete chat")
		return
	}
	h.svc.Store.DeleteChat(id)
	w.WriteHeader(http.StatusNoContent)
}

// MoveChat handles POST /api/chats/{id}/move.
func (h *Handler) MoveChat(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Store.MoveChat(chi.URLParam(r, "id"), req.FolderID); err != nil {
		writeError(w, err, "move chat")
		return
	}
	h.GetChat(w, r)
}

// ActivateChat handles POST /api/chats/{id}/activate.
func (h *Handler) ActivateChat(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.SetActiveChat(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "activate chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleChatRole handles POST /api/chats/{id}/roles/{roleID}.
func (h *Handler) ToggleChatRole(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.ToggleChatRole(chi.URLParam(r, "id"), chi.URLParam(r, "roleID")); err != nil {
		writeError(w, err, "toggle chat role")
		return
	}
	h.GetChat(w, r)
}

// Typing handles GET /api/chats/{id}/typing.
func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"role_ids": h.svc.Chat.Typing(chi.URLParam(r, "id")),
	})
}

// SendMessage handles POST /api/chats/{id}/messages.
//
// Replies are generated in the background. With "wait": true the response is
// held until every persona has answered and carries the updated chat.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	d, err := h.svc.Chat.Send(r.Context(), chat.SendRequest{
		ChatID:      id,
		Text:        req.Text,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(w, err, "send message")
		return
	}
	if d == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	resp := SendMessageResponse{ChatID: d.ChatID, MessageID: d.MessageID, RoleIDs: d.RoleIDs}
	if !req.Wait {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}
	if err := d.Wait(r.Context()); err != nil {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}
	if c, err := h.svc.Store.Chat(id); err == nil {
		resp.Chat = c
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteMessages handles POST /api/chats/{id}/messages/delete.
func (h *Handler) DeleteMessages(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n := h.svc.Store.DeleteMessages(chi.URLParam(r, "id"), req.IDs)
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// SyncMessages handles POST /api/chats/{id}/sync. destination_id "new"
// creates a fresh chat.
func (h *Handler) SyncMessages(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Sync.Synchronize(chi.URLParam(r, "id"), req.DestinationID, req.MessageIDs)
	if err != nil {
		writeError(w, err, "sync messages")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
