// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the notebook to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/notebook"
	"github.com/zrl37/crystallize/internal/noteservice"
)

// DirectiveFormatURI names the directive markup resource.
const DirectiveFormatURI = "crystallize://directive-format"

// Server wraps the MCP server with notebook tools.
type Server struct {
	mcp     *server.MCPServer
	notes   *noteservice.Service
	session *notebook.Session
}

// New creates a new MCP server with all notebook tools registered.
func New(notes *noteservice.Service, session *notebook.Session) *Server {
	s := &Server{notes: notes, session: session}

	s.mcp = server.NewMCPServer(
		"Crystallize",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes newest first, optionally filtered by folder id or #tag."),
		mcp.WithString("folder", mcp.Description("Optional folder id (empty for all)")),
		mcp.WithString("tag", mcp.Description("Optional tag without the leading #")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its tags and pending AI directives."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Directive markup in the body follows "+
			"the format described by get_directive_format or the "+DirectiveFormatURI+" resource."),
		mcp.WithString("title", mcp.Description("Note title (defaults to the built-in name)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
		mcp.WithString("folder", mcp.Description("Optional note folder id")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("add_to_notebook",
		mcp.WithDescription("Add text to the notebook. mode \"append\" merges into the "+
			"given or active note at the cursor when one is tracked; \"newNote\" creates a clip note."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to add")),
		mcp.WithString("mode", mcp.Description("append (default) or newNote")),
		mcp.WithString("note_id", mcp.Description("Optional target note id")),
	), s.addToNotebook)

	s.mcp.AddTool(mcp.NewTool("organize_note",
		mcp.WithDescription("Carry out the AI directives of a note and rewrite it. "+
			"The note is opened in the editing session so the change can be undone."),
		mcp.WithString("id", mcp.Description("Note id (defaults to the open note)")),
	), s.organizeNote)

	s.mcp.AddTool(mcp.NewTool("get_directive_format",
		mcp.WithDescription("Returns the inline AI directive markup understood by organize_note."),
	), s.getDirectiveFormat)

	s.mcp.AddResource(
		mcp.NewResource(DirectiveFormatURI, "Directive Format",
			mcp.WithResourceDescription("Inline markup that asks the organizer to rewrite part of a note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDirectiveFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := strings.TrimPrefix(optionalString(req, "tag"), "#")
	items, err := s.notes.ListNotes(ctx, optionalString(req, "folder"), tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.ID + "\t" + it.Title
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notes.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(note), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.CreateNote(ctx, optionalString(req, "folder"), optionalString(req, "title"), content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.ID)), nil
}

func (s *Server) addToNotebook(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.session.Merge(merge.Request{
		Text:   text,
		Mode:   merge.Mode(optionalString(req, "mode")),
		NoteID: optionalString(req, "note_id"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.NoteID == "" {
		return mcp.NewToolResultText("nothing added"), nil
	}
	return jsonResult(res), nil
}

func (s *Server) organizeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := optionalString(req, "id"); id != "" && id != s.session.NoteID() {
		if err := s.session.Open(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
	}
	out, err := s.session.Organize(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) getDirectiveFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DirectiveFormat), nil
}

func (s *Server) readDirectiveFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DirectiveFormatURI,
			MIMEType: "text/markdown",
			Text:     DirectiveFormat,
		},
	}, nil
}
