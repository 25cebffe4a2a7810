package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

const (
	maxTitleLen       = 1000
	maxDescriptionLen = 5000
)

// TaskService orchestrates ownership-scoped task operations. Every read of a
// single task and every mutation routes through authorize; this is the only
// place ownership is checked, shared by the REST handlers, the chat tool
// dispatcher, and the MCP server.
type TaskService struct {
	store store.Store
}

func NewTaskService(s store.Store) *TaskService { return &TaskService{store: s} }

// authorize fetches the task and asserts it belongs to ownerID.
func (s *TaskService) authorize(ctx context.Context, ownerID string, taskID int64) (*model.Task, error) {
	t, err := s.store.Tasks().Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != ownerID {
		return nil, model.ErrForbidden
	}
	return t, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title cannot be empty", model.ErrValidation)
	}
	if len(title) > maxTitleLen {
		return "", fmt.Errorf("%w: title exceeds %d characters", model.ErrValidation, maxTitleLen)
	}
	return title, nil
}

func validateDescription(desc *string) error {
	if desc != nil && len(*desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", model.ErrValidation, maxDescriptionLen)
	}
	return nil
}

// Create validates input and persists a new task for ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID, title string, description *string) (*model.Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	return s.store.Tasks().Create(ctx, &model.Task{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
	})
}

// List returns the owner's tasks, newest first. An empty list is not an error.
func (s *TaskService) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	return s.store.Tasks().List(ctx, ownerID, filter)
}

// Get returns a single task after the ownership check.
func (s *TaskService) Get(ctx context.Context, ownerID string, taskID int64) (*model.Task, error) {
	return s.authorize(ctx, ownerID, taskID)
}

// Update applies a partial update; only provided fields change.
func (s *TaskService) Update(ctx context.Context, ownerID string, taskID int64, upd model.TaskUpdate) (*model.Task, error) {
	t, err := s.authorize(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		title, err := validateTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		t.Title = title
	}
	if upd.Description != nil {
		if err := validateDescription(upd.Description); err != nil {
			return nil, err
		}
		t.Description = upd.Description
	}
	return s.store.Tasks().Update(ctx, t)
}

// ToggleComplete flips the completion flag. Applying it twice restores the
// original value; this is a toggle, not a set-true.
func (s *TaskService) ToggleComplete(ctx context.Context, ownerID string, taskID int64) (*model.Task, error) {
	t, err := s.authorize(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	return s.store.Tasks().Update(ctx, t)
}

// Complete marks the task done regardless of its current state. Used by the
// tool dispatcher, whose contract is "mark as completed" rather than toggle.
func (s *TaskService) Complete(ctx context.Context, ownerID string, taskID int64) (*model.Task, error) {
	t, err := s.authorize(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	t.Completed = true
	return s.store.Tasks().Update(ctx, t)
}

// Delete removes the task permanently.
func (s *TaskService) Delete(ctx context.Context, ownerID string, taskID int64) (*model.Task, error) {
	t, err := s.authorize(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Tasks().Delete(ctx, taskID); err != nil {
		return nil, err
	}
	return t, nil
}
