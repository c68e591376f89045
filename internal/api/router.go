package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zrl37/crystallize/internal/chat"
	"github.com/zrl37/crystallize/internal/chatsync"
	"github.com/zrl37/crystallize/internal/notebook"
	"github.com/zrl37/crystallize/internal/noteservice"
	"github.com/zrl37/crystallize/internal/selection"
	"github.com/zrl37/crystallize/internal/store"
)

// Services bundles the domain objects the handlers call.
type Services struct {
	Store     *store.Store
	Notes     *noteservice.Service
	Chat      *chat.Service
	Sync      *chatsync.Engine
	Session   *notebook.Session
	Selection *selection.Controller
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc Services, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/move", h.MoveNote)
	r.Post("/notes/{id}/activate", h.ActivateNote)
	r.Get("/notes/{id}/export", h.ExportNote)

	// Search.
	r.Get("/search", h.Search)

	// Chats and messages.
	r.Get("/chats", h.ListChats)
	r.Post("/chats", h.CreateChat)
	r.Get("/chats/{id}", h.GetChat)
	r.Put("/chats/{id}", h.RenameChat)
	r.Delete("/chats/{id}", h.DeleteChat)
	r.Post("/chats/{id}/move", h.MoveChat)
	r.Post("/chats/{id}/activate", h.ActivateChat)
	r.Post("/chats/{id}/roles/{roleID}", h.ToggleChatRole)
	r.Get("/chats/{id}/typing", h.Typing)
	r.Post("/chats/{id}/messages", h.SendMessage)
	r.Post("/chats/{id}/messages/delete", h.DeleteMessages)
	r.Post("/chats/{id}/sync", h.SyncMessages)

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Put("/folders/{id}", h.RenameFolder)
	r.Delete("/folders/{id}", h.DeleteFolder)
	r.Post("/folders/{id}/toggle", h.ToggleFolder)
	r.Post("/folders/{id}/move", h.MoveFolder)

	// Personas and phrases.
	r.Get("/roles", h.ListRoles)
	r.Post("/roles", h.SaveRole)
	r.Put("/roles/{id}", h.SaveRole)
	r.Delete("/roles/{id}", h.DeleteRole)
	r.Get("/phrases/{kind}", h.ListPhrases)
	r.Post("/phrases/{kind}", h.SavePhrase)
	r.Put("/phrases/{kind}/{id}", h.SavePhrase)
	r.Delete("/phrases/{kind}/{id}", h.DeletePhrase)
	r.Post("/phrases/{kind}/{id}/pin", h.TogglePhrasePin)

	// Notebook editing session.
	r.Route("/notebook", func(r chi.Router) {
		r.Get("/", h.SessionState)
		r.Post("/open", h.OpenNote)
		r.Post("/close", h.CloseNote)
		r.Put("/content", h.EditNote)
		r.Put("/cursor", h.SetCursor)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)
		r.Post("/merge", h.Merge)
		r.Post("/organize", h.Organize)
		r.Post("/directive", h.InsertDirective)
		r.Post("/divider", h.InsertDivider)
	})

	// Multi-select and batch actions.
	r.Route("/selection", func(r chi.Router) {
		r.Get("/messages/{chatID}", h.MessageSelection)
		r.Post("/messages/{chatID}/{action}", h.MessageSelectionAction)
		r.Get("/notes", h.NoteSelection)
		r.Post("/notes/{action}", h.NoteSelectionAction)
	})

	// Image attachments for chat turns.
	r.Post("/attachments", h.UploadAttachment)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
