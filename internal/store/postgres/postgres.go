package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Tasks() store.Tasks                 { return &tasks{db: s.db} }
func (s *pgStore) Users() store.Users                 { return &users{db: s.db} }
func (s *pgStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *pgStore) Messages() store.Messages           { return &messages{db: s.db} }

func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id         TEXT PRIMARY KEY,
            email      TEXT NOT NULL UNIQUE,
            name       TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id          BIGSERIAL PRIMARY KEY,
            title       TEXT NOT NULL,
            description TEXT,
            completed   BOOLEAN NOT NULL DEFAULT FALSE,
            owner_id    TEXT NOT NULL REFERENCES users(id),
            created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks (owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id         TEXT PRIMARY KEY,
            owner_id   TEXT NOT NULL UNIQUE REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS messages (
            id              TEXT PRIMARY KEY,
            conversation_id TEXT NOT NULL REFERENCES conversations(id),
            role            TEXT NOT NULL CHECK (role IN ('user','assistant')),
            content         TEXT NOT NULL,
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages (conversation_id, created_at)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// --- Tasks ---
type tasks struct{ db *sql.DB }

func (t *tasks) Create(ctx context.Context, m *model.Task) (*model.Task, error) {
	out := *m
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO tasks (title, description, completed, owner_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at
    `, m.Title, m.Description, m.Completed, m.OwnerID)
	if err := row.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, taskID int64) (*model.Task, error) {
	var out model.Task
	row := t.db.QueryRowContext(ctx, `
        SELECT id, title, description, completed, owner_id, created_at, updated_at
        FROM tasks WHERE id=$1
    `, taskID)
	if err := row.Scan(&out.ID, &out.Title, &out.Description, &out.Completed, &out.OwnerID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (t *tasks) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	query := `
        SELECT id, title, description, completed, owner_id, created_at, updated_at
        FROM tasks WHERE owner_id=$1`
	switch filter {
	case model.FilterPending:
		query += ` AND completed=FALSE`
	case model.FilterCompleted:
		query += ` AND completed=TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := t.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Task
	for rows.Next() {
		var m model.Task
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Completed, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

func (t *tasks) Update(ctx context.Context, m *model.Task) (*model.Task, error) {
	out := *m
	row := t.db.QueryRowContext(ctx, `
        UPDATE tasks SET title=$1, description=$2, completed=$3, updated_at=now()
        WHERE id=$4
        RETURNING updated_at
    `, m.Title, m.Description, m.Completed, m.ID)
	if err := row.Scan(&out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (t *tasks) Delete(ctx context.Context, taskID int64) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, taskID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Upsert(ctx context.Context, m *model.User) error {
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (id, email, name)
        VALUES ($1,$2,$3)
        ON CONFLICT (id) DO NOTHING
    `, m.ID, m.Email, m.Name)
	return err
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT id, email, name, created_at FROM users WHERE id=$1
    `, userID)
	if err := row.Scan(&out.ID, &out.Email, &out.Name, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// --- Conversations ---
type conversations struct{ db *sql.DB }

func (c *conversations) Create(ctx context.Context, m *model.Conversation) (*model.Conversation, error) {
	out := *m
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO conversations (id, owner_id)
        VALUES ($1,$2)
        RETURNING created_at, updated_at
    `, out.ID, out.OwnerID)
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *conversations) GetByOwner(ctx context.Context, ownerID string) (*model.Conversation, error) {
	var out model.Conversation
	row := c.db.QueryRowContext(ctx, `
        SELECT id, owner_id, created_at, updated_at
        FROM conversations WHERE owner_id=$1
    `, ownerID)
	if err := row.Scan(&out.ID, &out.OwnerID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (c *conversations) Touch(ctx context.Context, conversationID string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE conversations SET updated_at=now() WHERE id=$1`, conversationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Messages ---
type messages struct{ db *sql.DB }

func (m *messages) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	out := *msg
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	var created time.Time
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO messages (id, conversation_id, role, content)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at
    `, out.ID, out.ConversationID, out.Role, out.Content)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out.CreatedAt = created
	return &out, nil
}

func (m *messages) List(ctx context.Context, conversationID string, limit int) ([]*model.Message, error) {
	query := `
        SELECT id, conversation_id, role, content, created_at
        FROM messages WHERE conversation_id=$1
        ORDER BY created_at ASC`
	args := []interface{}{conversationID}
	if limit > 0 {
		// keep the most recent N while returning ascending order
		query = `
        SELECT id, conversation_id, role, content, created_at FROM (
            SELECT id, conversation_id, role, content, created_at
            FROM messages WHERE conversation_id=$1
            ORDER BY created_at DESC LIMIT $2
        ) recent ORDER BY created_at ASC`
		args = append(args, limit)
	}
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &msg)
	}
	return res, rows.Err()
}
