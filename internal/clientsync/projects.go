package clientsync

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tracker/internal/client"
	"tracker/internal/models"
	"tracker/internal/tracker"
)

// ProjectAPI is the server surface the project list needs.
type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, in models.ProjectInput) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	DuplicateProject(ctx context.Context, id string) (models.Project, error)
}

var _ ProjectAPI = (*client.Client)(nil)

// ProjectList is the local project list, newest first like the server.
type ProjectList struct {
	runner
	api      ProjectAPI
	projects list[models.Project]
	now      func() time.Time
}

func NewProjectList(api ProjectAPI, n Notifier, logger *slog.Logger) *ProjectList {
	l := &ProjectList{
		api:      api,
		projects: list[models.Project]{
			id:       func(p models.Project) string { return p.ID },
			revision: func(p models.Project) int64 { return p.Revision },
		},
		now: time.Now,
	}
	l.runner.setup(n, logger)
	return l
}

// Load replaces the local list with the server's.
func (l *ProjectList) Load(ctx context.Context) error {
	projects, err := l.api.ListProjects(ctx)
	if err != nil {
		l.logger.Error("load projects", slog.String("error", err.Error()))
		l.notifier.Error("Failed to load projects")
		return err
	}
	l.mu.Lock()
	l.projects.items = append([]models.Project(nil), projects...)
	l.mu.Unlock()
	return nil
}

// Projects returns a copy of the list.
func (l *ProjectList) Projects() []models.Project {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projects.snapshot()
}

func (l *ProjectList) Project(id string) (models.Project, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.projects.get(id)
}

// Create shows a placeholder at the top of the list until the server
// answers.
func (l *ProjectList) Create(ctx context.Context, in models.ProjectInput) (models.Project, error) {
	now := l.now().UTC()
	placeholder := models.Project{
		ID:          tempID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      in.Status,
		Color:       in.Color,
		StartDate:   parseLocalDate(in.StartDate),
		EndDate:     parseLocalDate(in.EndDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if placeholder.Status == "" {
		placeholder.Status = models.ProjectPlanning
	}
	if placeholder.Color == "" {
		placeholder.Color = models.DefaultProjectColor
	}
	return l.insertRemote(ctx, "project.create", placeholder, func(ctx context.Context) (models.Project, error) {
		return l.api.CreateProject(ctx, in)
	}, "Project created", "Failed to create project")
}

// Duplicate copies a project. The placeholder carries the name the server
// is expected to choose.
func (l *ProjectList) Duplicate(ctx context.Context, id string) (models.Project, error) {
	source, ok := l.Project(id)
	if !ok {
		return models.Project{}, errUnknown("project", id)
	}

	var names []string
	for _, p := range l.Projects() {
		names = append(names, p.Name)
	}

	now := l.now().UTC()
	placeholder := source
	placeholder.ID = tempID()
	placeholder.Name = tracker.DuplicateName(source.Name, names)
	placeholder.Revision = 0
	placeholder.CreatedAt = now
	placeholder.UpdatedAt = now

	return l.insertRemote(ctx, "project.duplicate", placeholder, func(ctx context.Context) (models.Project, error) {
		return l.api.DuplicateProject(ctx, id)
	}, "Project duplicated", "Failed to duplicate project")
}

func (l *ProjectList) insertRemote(ctx context.Context, name string, placeholder models.Project,
	remote func(context.Context) (models.Project, error), done, failed string) (models.Project, error) {
	var created models.Project
	err := l.execute(ctx, Command{
		Name:    name,
		Forward: func() { l.projects.insert(0, placeholder) },
		Inverse: func() { l.projects.remove(placeholder.ID) },
		Remote: func(ctx context.Context) error {
			var err error
			created, err = remote(ctx)
			return err
		},
		Reconcile: func() {
			at := l.projects.index(placeholder.ID)
			l.projects.remove(placeholder.ID)
			if l.projects.index(created.ID) < 0 {
				l.projects.insert(at, created)
				return
			}
			l.projects.replace(created.ID, created)
		},
		Done:   done,
		Failed: failed,
	})
	return created, err
}

// Delete removes a project locally and on the server. Its tasks stay on
// the server and keep their projectId.
func (l *ProjectList) Delete(ctx context.Context, id string) error {
	var removed models.Project
	var at int
	var found bool

	return l.execute(ctx, Command{
		Name:    "project.delete",
		Forward: func() { removed, at, found = l.projects.remove(id) },
		Inverse: func() {
			if found && l.projects.index(id) < 0 {
				l.projects.insert(at, removed)
			}
		},
		Remote: func(ctx context.Context) error { return l.api.DeleteProject(ctx, id) },
		Done:   "Project deleted",
		Failed: "Failed to delete project",
	})
}
