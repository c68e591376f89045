package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zrl37/crystallize/internal/history"
	"github.com/zrl37/crystallize/internal/merge"
	"github.com/zrl37/crystallize/internal/notebook"
	"github.com/zrl37/crystallize/internal/noteservice"
	"github.com/zrl37/crystallize/internal/provider"
	"github.com/zrl37/crystallize/internal/store"
	"github.com/zrl37/crystallize/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := testutil.Store(t)
	sess := notebook.New(s, merge.New(s, nil), provider.NewMock(), history.DefaultLimit, nil)
	return New(noteservice.NewService(s, nil), sess), s
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so the handlers are invoked
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "add_to_notebook":
		result, err = srv.addToNotebook(ctx, req)
	case "organize_note":
		result, err = srv.organizeNote(ctx, req)
	case "get_directive_format":
		result, err = srv.getDirectiveFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createNote(t *testing.T, s *store.Store, title, content string) string {
	t.Helper()
	n, err := s.CreateNote("")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateNote(n.ID, store.NotePatch{Title: &title, Content: &content}); err != nil {
		t.Fatal(err)
	}
	return n.ID
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"title":   "待办",
		"content": "买牛奶 [AI指令: 补充清单]",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "read_note", map[string]any{"id": id})
	var note noteservice.NoteDetail
	if err := json.Unmarshal([]byte(resultText(r)), &note); err != nil {
		t.Fatal(err)
	}
	if note.Title != "待办" || len(note.Directives) != 1 || note.Directives[0].Instruction != "补充清单" {
		t.Errorf("note = %+v", note)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, s := testServer(t)
	a := createNote(t, s, "甲", "a #work")
	createNote(t, s, "乙", "b")

	if text := resultText(callTool(t, srv, "list_notes", map[string]any{})); strings.Count(text, "\n") != 1 {
		t.Errorf("list = %q, want two lines", text)
	}
	text := resultText(callTool(t, srv, "list_notes", map[string]any{"tag": "#work"}))
	if text != a+"\t甲" {
		t.Errorf("tagged list = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, s := testServer(t)
	createNote(t, s, "会议", "讨论上线计划")

	text := resultText(callTool(t, srv, "search_notes", map[string]any{"query": "上线"}))
	if !strings.Contains(text, "会议") {
		t.Errorf("search = %q", text)
	}
	if r := callTool(t, srv, "search_notes", map[string]any{}); !r.IsError {
		t.Error("missing query should be an error")
	}
}

func TestAddToNotebook(t *testing.T) {
	srv, s := testServer(t)
	id := createNote(t, s, "日记", "第一段")

	r := callTool(t, srv, "add_to_notebook", map[string]any{"text": "第二段", "note_id": id})
	var res merge.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Body != "第一段\n\n第二段" {
		t.Errorf("body = %q", res.Body)
	}
	if srv.session.NoteID() != id {
		t.Error("session should follow the merged note")
	}

	r = callTool(t, srv, "add_to_notebook", map[string]any{"text": "剪藏", "mode": string(merge.ModeNewNote)})
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Created {
		t.Error("newNote mode should create a note")
	}
	if n, _ := s.Note(res.NoteID); n == nil || n.Title != merge.ClipTitlePrefix+"剪藏" {
		t.Errorf("clip note = %+v", n)
	}

	if text := resultText(callTool(t, srv, "add_to_notebook", map[string]any{"text": ""})); text != "nothing added" {
		t.Errorf("empty text = %q", text)
	}
}

func TestOrganizeNote(t *testing.T) {
	srv, s := testServer(t)
	id := createNote(t, s, "草稿", "开头 [AI指令: 润色] 正文")

	text := resultText(callTool(t, srv, "organize_note", map[string]any{"id": id}))
	if strings.Contains(text, "AI指令") {
		t.Errorf("organized = %q", text)
	}
	if st := srv.session.State(); st.NoteID != id || !st.CanUndo {
		t.Errorf("state = %+v", st)
	}
	if r := callTool(t, srv, "organize_note", map[string]any{"id": "missing"}); !r.IsError {
		t.Error("unknown note should be an error")
	}
}

func TestDirectiveFormat(t *testing.T) {
	srv, _ := testServer(t)
	if text := resultText(callTool(t, srv, "get_directive_format", nil)); !strings.Contains(text, "[AI指令:") {
		t.Error("format should describe the tag form")
	}
	contents, err := srv.readDirectiveFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != DirectiveFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
