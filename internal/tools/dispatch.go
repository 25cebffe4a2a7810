// Package tools maps agent tool calls onto ownership-scoped task operations.
// The dispatcher is the single implementation behind both the chat handler
// and the MCP server, so agent-mode and chat-mode behavior cannot drift.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/model"
)

// TaskService is the subset of the task service the dispatcher calls.
// Declared here (satisfied by *service.TaskService) so this package does not
// import internal/service, which imports this package for tool definitions.
type TaskService interface {
	Create(ctx context.Context, ownerID, title string, description *string) (*model.Task, error)
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
	Get(ctx context.Context, ownerID string, taskID int64) (*model.Task, error)
	Update(ctx context.Context, ownerID string, taskID int64, upd model.TaskUpdate) (*model.Task, error)
	Complete(ctx context.Context, ownerID string, taskID int64) (*model.Task, error)
	Delete(ctx context.Context, ownerID string, taskID int64) (*model.Task, error)
}

// Tool names form a closed set; anything else is rejected.
const (
	ToolAddTask      = "add_task"
	ToolListTasks    = "list_tasks"
	ToolCompleteTask = "complete_task"
	ToolDeleteTask   = "delete_task"
	ToolUpdateTask   = "update_task"
)

// genericError is the only message surfaced for unexpected failures. Raw
// system errors must never reach the LLM or the end user.
const genericError = "An error occurred. Please try again."

// Dispatcher executes tool calls against the task service and returns the
// uniform {"success": bool, ...} envelope. It never returns a Go error to
// the caller; failures are expressed inside the envelope.
type Dispatcher struct {
	tasks TaskService
	log   zerolog.Logger
}

func NewDispatcher(tasks TaskService, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{tasks: tasks, log: log}
}

// Envelope is the tool-call result shape shared by chat and MCP dispatch.
type Envelope map[string]interface{}

func errEnvelope(msg string) Envelope {
	return Envelope{"success": false, "error": msg}
}

// JSON renders the envelope for transport to the model or over MCP.
func (e Envelope) JSON() string {
	b, err := json.Marshal(e)
	if err != nil {
		return `{"success":false,"error":"` + genericError + `"}`
	}
	return string(b)
}

// DispatchJSON parses raw JSON arguments (as produced by the completion API)
// and dispatches.
func (d *Dispatcher) DispatchJSON(ctx context.Context, userID, name, rawArgs string) Envelope {
	args := map[string]interface{}{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			d.log.Warn().Err(err).Str("tool", name).Msg("malformed tool arguments")
			return errEnvelope(genericError)
		}
	}
	return d.Dispatch(ctx, userID, name, args)
}

// Dispatch executes the named tool for userID with the given arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, name string, args map[string]interface{}) (env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error().Interface("panic", rec).Str("tool", name).Msg("tool dispatch panicked")
			env = errEnvelope(genericError)
		}
	}()

	if userID == "" {
		return errEnvelope("user_id is required")
	}

	d.log.Debug().Str("tool", name).Str("user_id", userID).Msg("tool dispatch")

	switch name {
	case ToolAddTask:
		return d.addTask(ctx, userID, args)
	case ToolListTasks:
		return d.listTasks(ctx, userID, args)
	case ToolCompleteTask:
		return d.completeTask(ctx, userID, args)
	case ToolDeleteTask:
		return d.deleteTask(ctx, userID, args)
	case ToolUpdateTask:
		return d.updateTask(ctx, userID, args)
	default:
		return errEnvelope(fmt.Sprintf("Unknown tool: %s", name))
	}
}

func (d *Dispatcher) addTask(ctx context.Context, userID string, args map[string]interface{}) Envelope {
	title := strings.TrimSpace(stringArg(args, "title"))
	if title == "" {
		return errEnvelope("title cannot be empty")
	}

	t, err := d.tasks.Create(ctx, userID, title, nil)
	if err != nil {
		return d.mapError(err, "add_task")
	}
	return Envelope{
		"success": true,
		"task":    taskPayload(t),
	}
}

func (d *Dispatcher) listTasks(ctx context.Context, userID string, args map[string]interface{}) Envelope {
	filter := model.TaskFilter(stringArg(args, "filter"))
	switch filter {
	case model.FilterPending, model.FilterCompleted:
	default:
		filter = model.FilterAll
	}

	ts, err := d.tasks.List(ctx, userID, filter)
	if err != nil {
		return d.mapError(err, "list_tasks")
	}
	list := make([]interface{}, 0, len(ts))
	for _, t := range ts {
		list = append(list, taskPayload(t))
	}
	return Envelope{
		"success": true,
		"tasks":   list,
		"count":   len(list),
	}
}

func (d *Dispatcher) completeTask(ctx context.Context, userID string, args map[string]interface{}) Envelope {
	taskID, ok := intArg(args, "task_id")
	if !ok {
		return errEnvelope("task_id is required")
	}

	t, err := d.tasks.Complete(ctx, userID, taskID)
	if err != nil {
		return d.mapError(err, "complete_task")
	}
	return Envelope{
		"success": true,
		"task": map[string]interface{}{
			"id":           t.ID,
			"title":        t.Title,
			"is_completed": t.Completed,
		},
	}
}

func (d *Dispatcher) deleteTask(ctx context.Context, userID string, args map[string]interface{}) Envelope {
	taskID, ok := intArg(args, "task_id")
	if !ok {
		return errEnvelope("task_id is required")
	}

	t, err := d.tasks.Delete(ctx, userID, taskID)
	if err != nil {
		return d.mapError(err, "delete_task")
	}
	return Envelope{
		"success": true,
		"deleted_task": map[string]interface{}{
			"id":    t.ID,
			"title": t.Title,
		},
	}
}

func (d *Dispatcher) updateTask(ctx context.Context, userID string, args map[string]interface{}) Envelope {
	taskID, ok := intArg(args, "task_id")
	if !ok {
		return errEnvelope("task_id is required")
	}
	newTitle := strings.TrimSpace(stringArg(args, "new_title"))
	if newTitle == "" {
		return errEnvelope("new_title cannot be empty")
	}

	old, err := d.tasks.Get(ctx, userID, taskID)
	if err != nil {
		return d.mapError(err, "update_task")
	}
	t, err := d.tasks.Update(ctx, userID, taskID, model.TaskUpdate{Title: &newTitle})
	if err != nil {
		return d.mapError(err, "update_task")
	}
	return Envelope{
		"success": true,
		"task": map[string]interface{}{
			"id":           t.ID,
			"old_title":    old.Title,
			"new_title":    t.Title,
			"is_completed": t.Completed,
		},
	}
}

// mapError rewrites service errors for the tool boundary. Not-found and
// forbidden collapse into one message so the agent cannot probe for task
// existence across users; everything unexpected flattens to the generic
// message.
func (d *Dispatcher) mapError(err error, tool string) Envelope {
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrForbidden):
		return errEnvelope("Task not found")
	case errors.Is(err, model.ErrValidation):
		return errEnvelope(validationMessage(err))
	default:
		d.log.Error().Err(err).Str("tool", tool).Msg("tool execution failed")
		return errEnvelope(genericError)
	}
}

// validationMessage strips the sentinel prefix, leaving the user-actionable part.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func taskPayload(t *model.Task) map[string]interface{} {
	return map[string]interface{}{
		"id":           t.ID,
		"title":        t.Title,
		"is_completed": t.Completed,
		"created_at":   t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg accepts the numeric representations JSON decoding can produce.
func intArg(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), v != 0
	case int64:
		return v, v != 0
	case int:
		return int64(v), v != 0
	case json.Number:
		n, err := v.Int64()
		return n, err == nil && n != 0
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil && n != 0
	default:
		return 0, false
	}
}
