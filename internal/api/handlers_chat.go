package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskdeck/taskdeck/internal/api/respond"
	"github.com/taskdeck/taskdeck/internal/service"
)

// ChatHandler exposes the conversational surface over ChatService.
type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler { return &ChatHandler{svc: svc} }

// SendMessage POST /api/{userId}/chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, _ := IdentityFrom(r.Context())

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.WriteUnprocessable(w, "message cannot be empty")
		return
	}

	res, err := h.svc.SendMessage(r.Context(), userID, id.Email, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":         res.Message,
		"conversation_id": res.ConversationID,
	})
}

// History GET /api/{userId}/chat/history?limit=N
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			respond.WriteUnprocessable(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	convID, msgs, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": convID,
		"messages":        msgs,
	})
}
