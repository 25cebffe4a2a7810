package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	email := userID + "@example.test"

	// Users
	if err := s.Users().Upsert(ctx, &model.User{ID: userID, Email: email}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	// second upsert is a no-op, not an error
	if err := s.Users().Upsert(ctx, &model.User{ID: userID, Email: email}); err != nil {
		t.Fatalf("UpsertUser again: %v", err)
	}
	if got, err := s.Users().Get(ctx, userID); err != nil || got == nil || got.ID != userID {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}

	// Tasks
	created, err := s.Tasks().Create(ctx, &model.Task{Title: "Buy milk", OwnerID: userID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("CreateTask: no id assigned")
	}
	if created.Completed {
		t.Fatalf("CreateTask: completed should default false")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("CreateTask: created_at != updated_at on insert")
	}

	got, err := s.Tasks().Get(ctx, created.ID)
	if err != nil || got.Title != "Buy milk" || got.OwnerID != userID {
		t.Fatalf("GetTask: got=%v err=%v", got, err)
	}

	// second task to check ordering (newest first)
	second, err := s.Tasks().Create(ctx, &model.Task{Title: "Walk dog", OwnerID: userID})
	if err != nil {
		t.Fatalf("CreateTask second: %v", err)
	}

	lst, err := s.Tasks().List(ctx, userID, model.FilterAll)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListTasks: n=%d err=%v", len(lst), err)
	}
	if lst[0].ID != second.ID {
		t.Fatalf("ListTasks: expected newest first, got id=%d", lst[0].ID)
	}

	// update flips completion
	got.Completed = true
	upd, err := s.Tasks().Update(ctx, got)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !upd.Completed {
		t.Fatalf("UpdateTask: completed not persisted")
	}
	if upd.UpdatedAt.Before(upd.CreatedAt) {
		t.Fatalf("UpdateTask: updated_at < created_at")
	}

	// filters
	if pend, err := s.Tasks().List(ctx, userID, model.FilterPending); err != nil || len(pend) != 1 || pend[0].ID != second.ID {
		t.Fatalf("ListTasks pending: n=%d err=%v", len(pend), err)
	}
	if done, err := s.Tasks().List(ctx, userID, model.FilterCompleted); err != nil || len(done) != 1 || done[0].ID != created.ID {
		t.Fatalf("ListTasks completed: n=%d err=%v", len(done), err)
	}

	// delete, then everything is not found
	if err := s.Tasks().Delete(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := s.Tasks().Get(ctx, created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetTask after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.Tasks().Delete(ctx, created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteTask twice: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Tasks().Update(ctx, created); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateTask after delete: expected ErrNotFound, got %v", err)
	}

	// Conversations
	if _, err := s.Conversations().GetByOwner(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetConversation before create: expected ErrNotFound, got %v", err)
	}
	conv, err := s.Conversations().Create(ctx, &model.Conversation{OwnerID: userID})
	if err != nil || conv.ID == "" {
		t.Fatalf("CreateConversation: conv=%v err=%v", conv, err)
	}
	if got, err := s.Conversations().GetByOwner(ctx, userID); err != nil || got.ID != conv.ID {
		t.Fatalf("GetConversation: got=%v err=%v", got, err)
	}
	if err := s.Conversations().Touch(ctx, conv.ID); err != nil {
		t.Fatalf("TouchConversation: %v", err)
	}

	// Messages: duplicates are distinct rows, ordering ascending
	for i := 0; i < 3; i++ {
		role := model.RoleUser
		if i == 1 {
			role = model.RoleAssistant
		}
		if _, err := s.Messages().Create(ctx, &model.Message{
			ConversationID: conv.ID,
			Role:           role,
			Content:        fmt.Sprintf("msg-%d", i),
		}); err != nil {
			t.Fatalf("CreateMessage %d: %v", i, err)
		}
	}
	// resend of an identical message is stored as a new row
	if _, err := s.Messages().Create(ctx, &model.Message{ConversationID: conv.ID, Role: model.RoleUser, Content: "msg-0"}); err != nil {
		t.Fatalf("CreateMessage duplicate: %v", err)
	}

	msgs, err := s.Messages().List(ctx, conv.ID, 0)
	if err != nil || len(msgs) != 4 {
		t.Fatalf("ListMessages: n=%d err=%v", len(msgs), err)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("ListMessages: not ascending at %d", i)
		}
	}

	// limit keeps the most recent N, still ascending
	recent, err := s.Messages().List(ctx, conv.ID, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("ListMessages limit: n=%d err=%v", len(recent), err)
	}
	if recent[0].CreatedAt.After(recent[1].CreatedAt) {
		t.Fatalf("ListMessages limit: not ascending")
	}

	// Health
	if err := s.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}
}
