package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
	storelite "github.com/taskdeck/taskdeck/internal/store/sqlite"
	"github.com/taskdeck/taskdeck/internal/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storelite.EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	st := storelite.NewWithDB(db)
	if err := st.Users().Upsert(context.Background(), &model.User{ID: "u1", Email: "u1@example.test"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	d := tools.NewDispatcher(service.NewTaskService(st), zerolog.Nop())
	return New(d, zerolog.Nop())
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) map[string]any {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.handleTool(context.Background(), req)
	if err != nil {
		t.Fatalf("handleTool(%s): %v", name, err)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	var env map[string]any
	if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
		t.Fatalf("envelope not JSON: %v (%s)", err, text.Text)
	}
	return env
}

func TestToolEnvelopeOverMCP(t *testing.T) {
	s := newTestServer(t)

	env := callTool(t, s, tools.ToolAddTask, map[string]any{"user_id": "u1", "title": "Buy milk"})
	if env["success"] != true {
		t.Fatalf("add_task: %v", env)
	}

	env = callTool(t, s, tools.ToolListTasks, map[string]any{"user_id": "u1"})
	if env["success"] != true || env["count"] != float64(1) {
		t.Fatalf("list_tasks: %v", env)
	}
}

func TestToolErrorsStayInsideEnvelope(t *testing.T) {
	s := newTestServer(t)

	env := callTool(t, s, tools.ToolAddTask, map[string]any{"user_id": "u1", "title": "  "})
	if env["success"] != false || env["error"] != "title cannot be empty" {
		t.Fatalf("empty title: %v", env)
	}

	env = callTool(t, s, tools.ToolDeleteTask, map[string]any{"user_id": "u1", "task_id": float64(404)})
	if env["success"] != false || env["error"] != "Task not found" {
		t.Fatalf("missing task: %v", env)
	}

	env = callTool(t, s, tools.ToolCompleteTask, map[string]any{"task_id": float64(1)})
	if env["success"] != false || env["error"] != "user_id is required" {
		t.Fatalf("missing user: %v", env)
	}
}
