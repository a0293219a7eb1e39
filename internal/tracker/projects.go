package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tracker/internal/models"
)

// ListProjects returns the owner's projects, newest first.
func (s *Service) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.store.ListProjects(ctx, ownerID)
}

// GetProject returns an owned project.
func (s *Service) GetProject(ctx context.Context, ownerID, id string) (models.Project, error) {
	p, err := s.store.GetProject(ctx, ownerID, id)
	if err != nil {
		return models.Project{}, mapNotFound(err, "project", id)
	}
	return p, nil
}

// CreateProject validates the input and persists a new project. Status
// defaults to planning.
func (s *Service) CreateProject(ctx context.Context, ownerID string, in models.ProjectInput) (models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, invalid("name", "is required")
	}
	status := in.Status
	if status == "" {
		status = models.ProjectPlanning
	}
	if _, ok := models.ValidProjectStatuses[status]; !ok {
		return models.Project{}, invalid("status", "unknown status %q", status)
	}
	start, err := parseDatePtr("startDate", in.StartDate)
	if err != nil {
		return models.Project{}, err
	}
	end, err := parseDatePtr("endDate", in.EndDate)
	if err != nil {
		return models.Project{}, err
	}
	if err := checkDateRange(start, end); err != nil {
		return models.Project{}, err
	}

	return s.store.CreateProject(ctx, models.Project{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Color:       strings.TrimSpace(in.Color),
		StartDate:   start,
		EndDate:     end,
	})
}

// UpdateProject applies a partial update to an owned project.
func (s *Service) UpdateProject(ctx context.Context, ownerID, id string, p models.ProjectPatch) (models.Project, error) {
	current, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return models.Project{}, err
	}

	changes := map[string]any{}
	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if p.Name.Null || name == "" {
			return models.Project{}, invalid("name", "must not be empty")
		}
		changes["name"] = name
	}
	if p.Description.Set {
		changes["description"] = strings.TrimSpace(p.Description.Value)
	}
	if p.Status.Set {
		if _, ok := models.ValidProjectStatuses[p.Status.Value]; p.Status.Null || !ok {
			return models.Project{}, invalid("status", "unknown status %q", p.Status.Value)
		}
		changes["status"] = p.Status.Value
	}
	if p.Color.Set {
		color := strings.TrimSpace(p.Color.Value)
		if color == "" {
			color = models.DefaultProjectColor
		}
		changes["color"] = color
	}

	start, end := current.StartDate, current.EndDate
	if p.StartDate.Set {
		if start, err = parseDate("startDate", p.StartDate.Value); err != nil {
			return models.Project{}, err
		}
		changes["start_date"] = timeArg(start)
	}
	if p.EndDate.Set {
		if end, err = parseDate("endDate", p.EndDate.Value); err != nil {
			return models.Project{}, err
		}
		changes["end_date"] = timeArg(end)
	}
	if err := checkDateRange(start, end); err != nil {
		return models.Project{}, err
	}

	n, err := s.store.UpdateProject(ctx, ownerID, id, changes)
	if err != nil {
		return models.Project{}, err
	}
	if n == 0 {
		return models.Project{}, notFound("project", id)
	}
	return s.GetProject(ctx, ownerID, id)
}

// DeleteProject removes an owned project. Tasks referencing it are kept and
// retain their projectId.
func (s *Service) DeleteProject(ctx context.Context, ownerID, id string) error {
	n, err := s.store.DeleteProject(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("project", id)
	}
	return nil
}

// DuplicateProject copies an owned project under a "(N)" suffixed name.
// Tasks are not copied.
func (s *Service) DuplicateProject(ctx context.Context, ownerID, id string) (models.Project, error) {
	src, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return models.Project{}, err
	}
	existing, err := s.store.ListProjects(ctx, ownerID)
	if err != nil {
		return models.Project{}, err
	}
	names := make([]string, 0, len(existing))
	for _, p := range existing {
		names = append(names, p.Name)
	}

	name := DuplicateName(src.Name, names)
	s.logger.Debug("duplicating project", slog.String("source", src.ID), slog.String("name", name))

	return s.store.CreateProject(ctx, models.Project{
		OwnerID:     ownerID,
		Name:        name,
		Description: src.Description,
		Status:      src.Status,
		Color:       src.Color,
		StartDate:   src.StartDate,
		EndDate:     src.EndDate,
	})
}

var copySuffix = regexp.MustCompile(`\((\d+)\)$`)

// DuplicateName strips a trailing "(N)" from name and returns the base with
// the next free suffix among existing names that start with that base.
func DuplicateName(name string, existing []string) string {
	base := strings.TrimSpace(copySuffix.ReplaceAllString(name, ""))

	highest := 0
	for _, n := range existing {
		if !strings.HasPrefix(n, base) {
			continue
		}
		m := copySuffix.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		if v, err := strconv.Atoi(m[1]); err == nil && v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s (%d)", base, highest+1)
}

func checkDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalid("endDate", "must not be before startDate")
	}
	return nil
}

// timeArg turns a nil date into an untyped nil so the store binds NULL.
func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
