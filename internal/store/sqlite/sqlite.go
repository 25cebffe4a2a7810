package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. Pass ":memory:" for an in-process database.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Tasks() store.Tasks                 { return &tasks{db: s.db} }
func (s *sqliteStore) Users() store.Users                 { return &users{db: s.db} }
func (s *sqliteStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *sqliteStore) Messages() store.Messages           { return &messages{db: s.db} }

func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates core tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id         TEXT PRIMARY KEY,
            email      TEXT NOT NULL UNIQUE,
            name       TEXT,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id          INTEGER PRIMARY KEY AUTOINCREMENT,
            title       TEXT NOT NULL,
            description TEXT,
            completed   BOOLEAN NOT NULL DEFAULT 0,
            owner_id    TEXT NOT NULL,
            created_at  TIMESTAMP NOT NULL,
            updated_at  TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS tasks_owner_created_idx ON tasks(owner_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id         TEXT PRIMARY KEY,
            owner_id   TEXT NOT NULL UNIQUE,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id              TEXT PRIMARY KEY,
            conversation_id TEXT NOT NULL,
            role            TEXT NOT NULL,
            content         TEXT NOT NULL,
            created_at      TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS messages_conv_created_idx ON messages(conversation_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- Tasks ---
type tasks struct{ db *sql.DB }

func (t *tasks) Create(ctx context.Context, m *model.Task) (*model.Task, error) {
	now := time.Now().UTC()
	res, err := t.db.ExecContext(ctx, `
        INSERT INTO tasks (title, description, completed, owner_id, created_at, updated_at)
        VALUES (?,?,?,?,?,?)
    `, m.Title, m.Description, m.Completed, m.OwnerID, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, taskID int64) (*model.Task, error) {
	var out model.Task
	row := t.db.QueryRowContext(ctx, `
        SELECT id, title, description, completed, owner_id, created_at, updated_at
        FROM tasks WHERE id=?
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
        FROM tasks WHERE owner_id=?`
	switch filter {
	case model.FilterPending:
		query += ` AND completed=0`
	case model.FilterCompleted:
		query += ` AND completed=1`
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
	now := time.Now().UTC()
	res, err := t.db.ExecContext(ctx, `
        UPDATE tasks SET title=?, description=?, completed=?, updated_at=?
        WHERE id=?
    `, m.Title, m.Description, m.Completed, now, m.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	out := *m
	out.UpdatedAt = now
	return &out, nil
}

func (t *tasks) Delete(ctx context.Context, taskID int64) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, taskID)
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
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (id, email, name, created_at)
        VALUES (?,?,?,?)
        ON CONFLICT(id) DO NOTHING
    `, m.ID, m.Email, m.Name, now)
	return err
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT id, email, name, created_at FROM users WHERE id=?
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
	now := time.Now().UTC()
	if _, err := c.db.ExecContext(ctx, `
        INSERT INTO conversations (id, owner_id, created_at, updated_at)
        VALUES (?,?,?,?)
    `, out.ID, out.OwnerID, now, now); err != nil {
		return nil, err
	}
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (c *conversations) GetByOwner(ctx context.Context, ownerID string) (*model.Conversation, error) {
	var out model.Conversation
	row := c.db.QueryRowContext(ctx, `
        SELECT id, owner_id, created_at, updated_at
        FROM conversations WHERE owner_id=?
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
	res, err := c.db.ExecContext(ctx, `UPDATE conversations SET updated_at=? WHERE id=?`, time.Now().UTC(), conversationID)
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
	now := time.Now().UTC()
	if _, err := m.db.ExecContext(ctx, `
        INSERT INTO messages (id, conversation_id, role, content, created_at)
        VALUES (?,?,?,?,?)
    `, out.ID, out.ConversationID, out.Role, out.Content, now); err != nil {
		return nil, err
	}
	out.CreatedAt = now
	return &out, nil
}

func (m *messages) List(ctx context.Context, conversationID string, limit int) ([]*model.Message, error) {
	query := `
        SELECT id, conversation_id, role, content, created_at
        FROM messages WHERE conversation_id=?
        ORDER BY created_at ASC, id ASC`
	args := []interface{}{conversationID}
	if limit > 0 {
		query = `
        SELECT id, conversation_id, role, content, created_at FROM (
            SELECT id, conversation_id, role, content, created_at
            FROM messages WHERE conversation_id=?
            ORDER BY created_at DESC, id DESC LIMIT ?
        ) ORDER BY created_at ASC, id ASC`
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
