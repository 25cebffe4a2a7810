package api

import (
	"github.com/gorilla/mux"

	"github.com/taskdeck/taskdeck/internal/api/recovery"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/store"
)

// RouterDeps carries everything the HTTP surface needs. The router owns no
// business logic; it only wires transports to services.
type RouterDeps struct {
	Store    store.Store
	Tasks    *service.TaskService
	Chat     *service.ChatService
	Verifier *auth.Verifier
}

// NewRouter builds the full HTTP route table.
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(deps.Store)
	taskHandler := NewTaskHandler(deps.Tasks)
	chatHandler := NewChatHandler(deps.Chat)

	// Health stays outside auth so load balancers can probe it.
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	authed := router.PathPrefix("/api/{userId}").Subrouter()
	authed.Use(AuthMiddleware(deps.Verifier))

	authed.HandleFunc("/tasks", taskHandler.ListTasks).Methods("GET")
	authed.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	authed.HandleFunc("/tasks/{taskId:[0-9]+}", taskHandler.GetTask).Methods("GET")
	authed.HandleFunc("/tasks/{taskId:[0-9]+}", taskHandler.UpdateTask).Methods("PUT")
	authed.HandleFunc("/tasks/{taskId:[0-9]+}", taskHandler.DeleteTask).Methods("DELETE")
	authed.HandleFunc("/tasks/{taskId:[0-9]+}/complete", taskHandler.ToggleComplete).Methods("PATCH")

	authed.HandleFunc("/chat", chatHandler.SendMessage).Methods("POST")
	authed.HandleFunc("/chat/history", chatHandler.History).Methods("GET")

	return router
}
