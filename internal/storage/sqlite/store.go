package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"tracker/internal/models"
)

// ErrNotFound is returned when no row owned by the caller matches.
var ErrNotFound = errors.New("record not found")

// ErrNoOwner is returned when a call is made without an owner identity.
var ErrNoOwner = errors.New("owner id is required")

// Store wraps access to the SQLite database. Every read and write is
// filtered by the owner id passed in by the caller.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
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

	s := &Store{db: conn, logger: logger, now: func() time.Time { return time.Now().UTC() }}
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

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
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
            name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            theme_preference TEXT NOT NULL DEFAULT 'system',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS projects (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'planning',
            color TEXT NOT NULL DEFAULT '#2563eb',
            start_date DATETIME,
            end_date DATETIME,
            revision INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		// project_id carries no foreign key: deleting a project leaves its tasks in place.
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            project_id TEXT,
            title TEXT NOT NULL,
            description TEXT,
            status TEXT NOT NULL DEFAULT 'todo',
            priority TEXT NOT NULL DEFAULT 'medium',
            due_date DATETIME,
            kanban_position INTEGER NOT NULL DEFAULT 0,
            revision INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            action TEXT NOT NULL,
            details TEXT NOT NULL DEFAULT '',
            project_id TEXT,
            task_id TEXT,
            created_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner_id, status, kanban_position);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_owner ON activity_logs(owner_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func newID() string {
	return uuid.NewString()
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrNoOwner
	}
	return nil
}

// buildSet renders a SET clause for the whitelisted columns in changes.
// Keys are sorted so the generated statement is stable.
func buildSet(changes map[string]any, allowed map[string]struct{}) (string, []any, error) {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		if _, ok := allowed[k]; !ok {
			return "", nil, fmt.Errorf("column %q cannot be updated", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" = ?")
		args = append(args, changes[k])
	}
	return strings.Join(parts, ", "), args, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

// logActivity appends an activity entry. Failures are logged and never
// propagated to the mutation that triggered them.
func (s *Store) logActivity(ctx context.Context, entry models.ActivityLog) {
	if err := s.AppendActivity(ctx, entry); err != nil {
		s.logger.Warn("activity log append failed",
			slog.String("action", entry.Action),
			slog.String("owner", entry.OwnerID),
			slog.String("error", err.Error()))
	}
}
