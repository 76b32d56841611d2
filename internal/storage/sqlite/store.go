package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"taskhub/internal/models"
)

// Store wraps access to the SQLite database. It serves two roles here: the
// durable task record store and the principal directory.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            role TEXT NOT NULL DEFAULT 'member',
            status TEXT NOT NULL DEFAULT 'active',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            created_by TEXT NOT NULL DEFAULT '',
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_by TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            priority TEXT NOT NULL DEFAULT 'medium',
            assigned_members TEXT NOT NULL DEFAULT '[]',
            created_by TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_by TEXT NOT NULL DEFAULT '',
            due_date TEXT,
            tags TEXT NOT NULL DEFAULT '[]',
            comments TEXT NOT NULL DEFAULT '[]'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks(created_by);`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const taskColumns = `id, title, description, status, priority, assigned_members, created_by, created_at, updated_at, updated_by, due_date, tags, comments`

// updatableTaskColumns whitelists the field names an atomic update may touch
// and maps them to their columns.
var updatableTaskColumns = map[string]string{
	"title":           "title",
	"description":     "description",
	"status":          "status",
	"priority":        "priority",
	"assignedMembers": "assigned_members",
	"dueDate":         "due_date",
	"tags":            "tags",
	"comments":        "comments",
	"updatedAt":       "updated_at",
	"updatedBy":       "updated_by",
}

// CreateTask persists a new task record.
func (s *Store) CreateTask(ctx context.Context, t models.Task) error {
	members, err := json.Marshal(t.AssignedMembers)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	comments, err := json.Marshal(t.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}

	var dueDate any
	if t.DueDate != nil {
		dueDate = *t.DueDate
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, string(members),
		t.CreatedBy, t.CreatedAt, t.UpdatedAt, t.UpdatedBy, dueDate, string(tags), string(comments))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskFields applies a field map to a task in one statement. Only the
// named fields are written, so two racing updates both land as long as they
// touch different fields. A missing task is reported, never inserted.
func (s *Store) UpdateTaskFields(ctx context.Context, id string, fields map[string]any) (models.Task, error) {
	if len(fields) == 0 {
		return models.Task{}, fmt.Errorf("no fields to update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := updatableTaskColumns[name]; !ok {
			return models.Task{}, fmt.Errorf("unknown task field %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		value, err := columnValue(fields[name])
		if err != nil {
			return models.Task{}, fmt.Errorf("field %q: %w", name, err)
		}
		assignments = append(assignments, updatableTaskColumns[name]+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(assignments, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t        models.Task
		members  string
		tags     string
		comments string
		dueDate  sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &members,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.UpdatedBy, &dueDate, &tags, &comments)
	if err != nil {
		return models.Task{}, err
	}
	if dueDate.Valid {
		due := dueDate.String
		t.DueDate = &due
	}
	if err := json.Unmarshal([]byte(members), &t.AssignedMembers); err != nil {
		return models.Task{}, fmt.Errorf("decode members: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return models.Task{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(comments), &t.Comments); err != nil {
		return models.Task{}, fmt.Errorf("decode comments: %w", err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// columnValue converts a field value into something the driver can bind.
// Member sets, tags, and comment lists are stored as JSON text.
func columnValue(v any) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case *string:
		if value == nil {
			return nil, nil
		}
		return *value, nil
	case []string:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case []models.Comment:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return value, nil
	}
}
