// Package store provides persistent storage for users and their tasks
// using SQLite. All task operations are scoped to an owning user and refuse
// to cross ownership boundaries: a task ID that belongs to someone else is
// indistinguishable from an ID that does not exist.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Task status values. Transitions are one-directional: pending tasks move to
// completed or cancelled and never back.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ErrNotFound is returned when a record does not exist or is owned by a
// different user.
var ErrNotFound = errors.New("not found")

// User is a messaging-channel identity known to the assistant.
type User struct {
	ID        int64
	ChannelID string // opaque channel identity (e.g. wa_id), unique
	Contact   string // contact address used for outbound delivery
	OptedIn   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task is a single task or reminder owned by exactly one user.
type Task struct {
	ID          int64
	Description string
	DueAt       *time.Time
	Priority    string // accepted and persisted, not interpreted
	Status      string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store provides persistent storage backed by a SQLite database.
// It runs migrations automatically on initialization and is safe for
// concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a Store with a SQLite database at the given directory.
// The directory is created if it does not exist.
func NewStore(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "rotina.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dataPath}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates necessary tables
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id TEXT NOT NULL UNIQUE,
			contact TEXT NOT NULL,
			preferences TEXT,
			opted_in BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL,
			due_at DATETIME,
			priority TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			owner_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_channel ON users(channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------- users ----------

// GetUserByChannelID retrieves a user by channel identity.
// Returns ErrNotFound when no such user exists.
func (s *Store) GetUserByChannelID(channelID string) (*User, error) {
	row := s.db.QueryRow(`
		SELECT id, channel_id, contact, opted_in, created_at, updated_at
		FROM users WHERE channel_id = ?
	`, channelID)

	var u User
	err := row.Scan(&u.ID, &u.ChannelID, &u.Contact, &u.OptedIn, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser creates a user with opt-in unset.
func (s *Store) CreateUser(channelID, contact string) (*User, error) {
	result, err := s.db.Exec(`
		INSERT INTO users (channel_id, contact, opted_in) VALUES (?, ?, FALSE)
	`, channelID, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.getUserByID(id)
}

// SetOptIn flips the user's opt-in flag.
// Returns ErrNotFound when no such user exists.
func (s *Store) SetOptIn(channelID string, optedIn bool) (*User, error) {
	result, err := s.db.Exec(`
		UPDATE users SET opted_in = ?, updated_at = CURRENT_TIMESTAMP WHERE channel_id = ?
	`, optedIn, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to update opt-in: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetUserByChannelID(channelID)
}

// ListOptedInUsers returns all users that have accepted the opt-in prompt.
func (s *Store) ListOptedInUsers() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT id, channel_id, contact, opted_in, created_at, updated_at
		FROM users WHERE opted_in = TRUE ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.ChannelID, &u.Contact, &u.OptedIn, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *Store) getUserByID(id int64) (*User, error) {
	row := s.db.QueryRow(`
		SELECT id, channel_id, contact, opted_in, created_at, updated_at
		FROM users WHERE id = ?
	`, id)

	var u User
	err := row.Scan(&u.ID, &u.ChannelID, &u.Contact, &u.OptedIn, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---------- tasks ----------

// CreateTask creates a pending task for the user identified by channelID.
// The description must be non-empty; dueAt and priority are optional.
func (s *Store) CreateTask(channelID, description string, dueAt *time.Time, priority string) (*Task, error) {
	if description == "" {
		return nil, fmt.Errorf("task description must not be empty")
	}

	owner, err := s.GetUserByChannelID(channelID)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(`
		INSERT INTO tasks (description, due_at, priority, status, owner_id)
		VALUES (?, ?, ?, ?, ?)
	`, description, dueAt, nullable(priority), StatusPending, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetTask(channelID, id)
}

// ListTasksByStatus returns the user's tasks with the given status, ordered
// by due timestamp ascending. Tasks without a due timestamp sort last; ties
// break on task ID ascending, so the ordering is total and stable.
func (s *Store) ListTasksByStatus(channelID, status string) ([]*Task, error) {
	owner, err := s.GetUserByChannelID(channelID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, description, due_at, priority, status, owner_id, created_at, updated_at
		FROM tasks
		WHERE owner_id = ? AND status = ?
		ORDER BY due_at IS NULL, due_at ASC, id ASC
	`, owner.ID, status)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTasks(rows)
}

// ListTasksDueOn returns the user's pending tasks whose due timestamp falls
// within the calendar day of target: [startOfDay, startOfDay+24h), a
// half-open interval so day boundaries are counted exactly once.
func (s *Store) ListTasksDueOn(channelID string, target time.Time) ([]*Task, error) {
	owner, err := s.GetUserByChannelID(channelID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	nextDayStart := dayStart.AddDate(0, 0, 1)

	rows, err := s.db.Query(`
		SELECT id, description, due_at, priority, status, owner_id, created_at, updated_at
		FROM tasks
		WHERE owner_id = ? AND status = ? AND due_at IS NOT NULL
			AND due_at >= ? AND due_at < ?
		ORDER BY due_at ASC, id ASC
	`, owner.ID, StatusPending, dayStart, nextDayStart)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTasks(rows)
}

// GetTask retrieves one of the user's tasks by ID. A task owned by a
// different user returns ErrNotFound, exactly like a missing ID.
func (s *Store) GetTask(channelID string, taskID int64) (*Task, error) {
	owner, err := s.GetUserByChannelID(channelID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		SELECT id, description, due_at, priority, status, owner_id, created_at, updated_at
		FROM tasks WHERE id = ? AND owner_id = ?
	`, taskID, owner.ID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SetTaskStatus transitions one of the user's tasks to the given status.
// Ownership-checked like GetTask.
func (s *Store) SetTaskStatus(channelID string, taskID int64, status string) (*Task, error) {
	owner, err := s.GetUserByChannelID(channelID)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(`
		UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?
	`, status, taskID, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetTask(channelID, taskID)
}

// DeleteTask removes one of the user's tasks. Returns false when the ID is
// unknown or owned by someone else.
func (s *Store) DeleteTask(channelID string, taskID int64) (bool, error) {
	owner, err := s.GetUserByChannelID(channelID)
	if err != nil {
		return false, err
	}

	result, err := s.db.Exec(`
		DELETE FROM tasks WHERE id = ? AND owner_id = ?
	`, taskID, owner.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---------- scanning ----------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var dueAt sql.NullTime
	var priority sql.NullString
	if err := row.Scan(&t.ID, &t.Description, &dueAt, &priority, &t.Status, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if dueAt.Valid {
		t.DueAt = &dueAt.Time
	}
	if priority.Valid {
		t.Priority = priority.String
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
