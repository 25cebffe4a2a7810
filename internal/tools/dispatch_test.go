package tools_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/store"
	storelite "github.com/taskdeck/taskdeck/internal/store/sqlite"
	"github.com/taskdeck/taskdeck/internal/tools"
)

func newDispatcher(t *testing.T) (*tools.Dispatcher, store.Store) {
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
	for _, id := range []string{"u1", "u2"} {
		if err := st.Users().Upsert(context.Background(), &model.User{ID: id, Email: id + "@example.test"}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return tools.NewDispatcher(service.NewTaskService(st), zerolog.Nop()), st
}

func TestDispatchRequiresUser(t *testing.T) {
	d, _ := newDispatcher(t)
	env := d.Dispatch(context.Background(), "", tools.ToolListTasks, nil)
	if env["success"] != false || env["error"] != "user_id is required" {
		t.Fatalf("unexpected envelope: %v", env)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d, _ := newDispatcher(t)
	env := d.Dispatch(context.Background(), "u1", "time_travel", nil)
	if env["success"] != false || env["error"] != "Unknown tool: time_travel" {
		t.Fatalf("unexpected envelope: %v", env)
	}
}

func TestAddTaskEmptyTitleCreatesNothing(t *testing.T) {
	d, st := newDispatcher(t)
	ctx := context.Background()

	env := d.Dispatch(ctx, "u1", tools.ToolAddTask, map[string]interface{}{"title": "   "})
	if env["success"] != false || env["error"] != "title cannot be empty" {
		t.Fatalf("unexpected envelope: %v", env)
	}

	tasks, err := st.Tasks().List(ctx, "u1", model.FilterAll)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("expected no rows after rejected add, n=%d err=%v", len(tasks), err)
	}
}

func TestAddAndListRoundTrip(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()

	env := d.Dispatch(ctx, "u1", tools.ToolAddTask, map[string]interface{}{"title": "Buy milk"})
	if env["success"] != true {
		t.Fatalf("add_task failed: %v", env)
	}
	task, ok := env["task"].(map[string]interface{})
	if !ok || task["title"] != "Buy milk" || task["is_completed"] != false {
		t.Fatalf("unexpected task payload: %v", env["task"])
	}

	env = d.Dispatch(ctx, "u1", tools.ToolListTasks, map[string]interface{}{"filter": "pending"})
	if env["success"] != true {
		t.Fatalf("list_tasks failed: %v", env)
	}
	items, ok := env["tasks"].([]interface{})
	if !ok || len(items) != 1 || env["count"] != 1 {
		t.Fatalf("unexpected tasks payload: %v", env)
	}

	// unknown filters fall back to listing everything
	env = d.Dispatch(ctx, "u1", tools.ToolListTasks, map[string]interface{}{"filter": "bogus"})
	if env["success"] != true || env["count"] != 1 {
		t.Fatalf("expected fallback to all, got %v", env)
	}
}

func TestCompleteTaskArgHandling(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()

	env := d.Dispatch(ctx, "u1", tools.ToolCompleteTask, nil)
	if env["success"] != false || env["error"] != "task_id is required" {
		t.Fatalf("missing task_id: %v", env)
	}

	env = d.Dispatch(ctx, "u1", tools.ToolAddTask, map[string]interface{}{"title": "Buy milk"})
	id := env["task"].(map[string]interface{})["id"].(int64)

	// JSON-decoded arguments arrive as float64
	env = d.Dispatch(ctx, "u1", tools.ToolCompleteTask, map[string]interface{}{"task_id": float64(id)})
	if env["success"] != true {
		t.Fatalf("complete_task failed: %v", env)
	}
	if env["task"].(map[string]interface{})["is_completed"] != true {
		t.Fatalf("task not completed: %v", env["task"])
	}
}

func TestCrossUserReadsAsNotFound(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()

	env := d.Dispatch(ctx, "u1", tools.ToolAddTask, map[string]interface{}{"title": "Buy milk"})
	id := env["task"].(map[string]interface{})["id"].(int64)

	for _, tool := range []string{tools.ToolCompleteTask, tools.ToolDeleteTask} {
		env = d.Dispatch(ctx, "u2", tool, map[string]interface{}{"task_id": float64(id)})
		if env["success"] != false || env["error"] != "Task not found" {
			t.Fatalf("%s as non-owner: %v", tool, env)
		}
	}

	env = d.Dispatch(ctx, "u2", tools.ToolUpdateTask, map[string]interface{}{"task_id": float64(id), "new_title": "mine now"})
	if env["success"] != false || env["error"] != "Task not found" {
		t.Fatalf("update_task as non-owner: %v", env)
	}

	// missing IDs report the same way
	env = d.Dispatch(ctx, "u1", tools.ToolDeleteTask, map[string]interface{}{"task_id": float64(9999)})
	if env["success"] != false || env["error"] != "Task not found" {
		t.Fatalf("delete missing: %v", env)
	}
}

func TestUpdateTaskReportsBothTitles(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()

	env := d.Dispatch(ctx, "u1", tools.ToolAddTask, map[string]interface{}{"title": "Buy milk"})
	id := env["task"].(map[string]interface{})["id"].(int64)

	env = d.Dispatch(ctx, "u1", tools.ToolUpdateTask, map[string]interface{}{"task_id": float64(id), "new_title": "Buy oat milk"})
	if env["success"] != true {
		t.Fatalf("update_task failed: %v", env)
	}
	task := env["task"].(map[string]interface{})
	if task["old_title"] != "Buy milk" || task["new_title"] != "Buy oat milk" {
		t.Fatalf("unexpected update payload: %v", task)
	}

	env = d.Dispatch(ctx, "u1", tools.ToolUpdateTask, map[string]interface{}{"task_id": float64(id), "new_title": " "})
	if env["success"] != false || env["error"] != "new_title cannot be empty" {
		t.Fatalf("blank new_title: %v", env)
	}
}

func TestDispatchJSONBadArguments(t *testing.T) {
	d, _ := newDispatcher(t)
	env := d.DispatchJSON(context.Background(), "u1", tools.ToolAddTask, "{not json")
	if env["success"] != false || env["error"] != tools.GenericError {
		t.Fatalf("unexpected envelope: %v", env)
	}
}
