package store

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Tasks() Tasks
	Users() Users
	Conversations() Conversations
	Messages() Messages

	// HealthPing reports whether the backing database is reachable.
	HealthPing(ctx context.Context) error
}

type Tasks interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	Get(ctx context.Context, taskID int64) (*model.Task, error)
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	Delete(ctx context.Context, taskID int64) error
}

type Users interface {
	// Upsert inserts the user row if absent; existing rows are left untouched.
	Upsert(ctx context.Context, u *model.User) error
	Get(ctx context.Context, userID string) (*model.User, error)
}

type Conversations interface {
	Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	GetByOwner(ctx context.Context, ownerID string) (*model.Conversation, error)
	Touch(ctx context.Context, conversationID string) error
}

type Messages interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	// List returns messages ordered by created_at ascending. A positive
	// limit keeps only the most recent messages while preserving order.
	List(ctx context.Context, conversationID string, limit int) ([]*model.Message, error)
}
