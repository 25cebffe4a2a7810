package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/taskdeck/taskdeck/internal/api/respond"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/service"
)

// TaskHandler is a thin HTTP transport over TaskService.
type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler { return &TaskHandler{svc: svc} }

// requireUser cross-checks the path-embedded user id against the
// authenticated identity. Returns the user id, or "" after writing the
// error response.
func requireUser(w http.ResponseWriter, r *http.Request) string {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "Authentication required")
		return ""
	}
	pathUser := mux.Vars(r)["userId"]
	if pathUser != id.UserID {
		respond.WriteForbidden(w, "Cannot access another user's resources")
		return ""
	}
	return id.UserID
}

func taskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["taskId"], 10, 64)
}

// writeServiceError maps service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteUnprocessable(w, userMessage(err))
	case errors.Is(err, model.ErrForbidden):
		respond.WriteForbidden(w, "Cannot access another user's resources")
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "Task not found")
	default:
		respond.WriteInternalError(w, "Internal server error")
	}
}

// userMessage strips the sentinel prefix so clients see only the
// actionable part, e.g. "title cannot be empty".
func userMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

// ListTasks GET /api/{userId}/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	filter := model.TaskFilter(r.URL.Query().Get("filter"))
	switch filter {
	case model.FilterPending, model.FilterCompleted:
	default:
		filter = model.FilterAll
	}
	tasks, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	respond.WriteJSON(w, http.StatusOK, tasks)
}

// CreateTask POST /api/{userId}/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	task, err := h.svc.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, task)
}

// GetTask GET /api/{userId}/tasks/{taskId}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.WriteNotFound(w, "Task not found")
		return
	}
	task, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}

// UpdateTask PUT /api/{userId}/tasks/{taskId}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.WriteNotFound(w, "Task not found")
		return
	}
	var upd model.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	task, err := h.svc.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}

// DeleteTask DELETE /api/{userId}/tasks/{taskId}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.WriteNotFound(w, "Task not found")
		return
	}
	if _, err := h.svc.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleComplete PATCH /api/{userId}/tasks/{taskId}/complete
func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, err := taskID(r)
	if err != nil {
		respond.WriteNotFound(w, "Task not found")
		return
	}
	task, err := h.svc.ToggleComplete(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}
