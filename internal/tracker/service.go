// Package tracker holds the project and task services. Every operation takes
// the authenticated owner id and delegates persistence to an owner-scoped
// store.
package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"tracker/internal/models"
	"tracker/internal/storage/sqlite"
)

// Store is the owner-scoped persistence the services run against.
// Update and delete return affected-row counts; zero means not found or
// not owned.
type Store interface {
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, ownerID, id string) (models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, ownerID, id string, changes map[string]any) (int64, error)
	DeleteProject(ctx context.Context, ownerID, id string) (int64, error)

	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, changes map[string]any) (int64, error)
	DeleteTask(ctx context.Context, ownerID, id string) (int64, error)
	ReorderTasks(ctx context.Context, ownerID string, moves []models.TaskMove) ([]models.Task, []string, error)

	ListActivity(ctx context.Context, ownerID string, limit int) ([]models.ActivityLog, error)

	EnsureUser(ctx context.Context, id string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, id string, changes map[string]any) (int64, error)
}

var _ Store = (*sqlite.Store)(nil)

// Service implements the project, task, reorder, dashboard and profile
// operations.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// mapNotFound converts the store sentinel into a typed NotFoundError.
func mapNotFound(err error, kind, id string) error {
	if errors.Is(err, sqlite.ErrNotFound) {
		return notFound(kind, id)
	}
	return err
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
