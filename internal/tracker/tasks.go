package tracker

import (
	"context"
	"strings"

	"tracker/internal/models"
)

// ListTasks returns every task owned by ownerID, unfiltered by project.
func (s *Service) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	return s.store.ListTasks(ctx, ownerID)
}

// GetTask returns an owned task.
func (s *Service) GetTask(ctx context.Context, ownerID, id string) (models.Task, error) {
	t, err := s.store.GetTask(ctx, ownerID, id)
	if err != nil {
		return models.Task{}, mapNotFound(err, "task", id)
	}
	return t, nil
}

// CreateTask validates the input and persists a new task. The referenced
// project must belong to the same owner.
func (s *Service) CreateTask(ctx context.Context, ownerID string, in models.TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, invalid("title", "is required")
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return models.Task{}, invalid("projectId", "is required")
	}

	status := in.Status
	if status == "" {
		status = models.TaskTodo
	}
	if _, ok := models.ValidTaskStatuses[status]; !ok {
		return models.Task{}, invalid("status", "unknown status %q", status)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if _, ok := models.ValidPriorities[priority]; !ok {
		return models.Task{}, invalid("priority", "unknown priority %q", priority)
	}
	due, err := parseDatePtr("dueDate", in.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	if err := s.requireProject(ctx, ownerID, projectID); err != nil {
		return models.Task{}, err
	}

	return s.store.CreateTask(ctx, models.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: trimmedPtr(in.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     due,
		ProjectID:   &projectID,
	})
}

// UpdateTask applies a partial update. Absent fields are left unchanged and
// null fields are cleared where the column allows it.
func (s *Service) UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (models.Task, error) {
	changes, err := s.taskChanges(ctx, ownerID, patch)
	if err != nil {
		return models.Task{}, err
	}

	n, err := s.store.UpdateTask(ctx, ownerID, id, changes)
	if err != nil {
		return models.Task{}, err
	}
	if n == 0 {
		return models.Task{}, notFound("task", id)
	}
	return s.GetTask(ctx, ownerID, id)
}

// SetTaskDone is the checkbox toggle: done moves the task to the done lane,
// unchecking reopens it as todo.
func (s *Service) SetTaskDone(ctx context.Context, ownerID, id string, done bool) (models.Task, error) {
	status := models.TaskTodo
	if done {
		status = models.TaskDone
	}
	return s.UpdateTask(ctx, ownerID, id, models.TaskPatch{Status: models.Some(status)})
}

// DeleteTask removes an owned task.
func (s *Service) DeleteTask(ctx context.Context, ownerID, id string) error {
	n, err := s.store.DeleteTask(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("task", id)
	}
	return nil
}

func (s *Service) taskChanges(ctx context.Context, ownerID string, p models.TaskPatch) (map[string]any, error) {
	changes := map[string]any{}

	if p.Title.Set {
		title := strings.TrimSpace(p.Title.Value)
		if p.Title.Null || title == "" {
			return nil, invalid("title", "must not be empty")
		}
		changes["title"] = title
	}
	if p.Description.Set {
		if p.Description.Null {
			changes["description"] = nil
		} else {
			changes["description"] = strings.TrimSpace(p.Description.Value)
		}
	}
	if p.Status.Set {
		if _, ok := models.ValidTaskStatuses[p.Status.Value]; p.Status.Null || !ok {
			return nil, invalid("status", "unknown status %q", p.Status.Value)
		}
		changes["status"] = p.Status.Value
	}
	if p.Priority.Set {
		if _, ok := models.ValidPriorities[p.Priority.Value]; p.Priority.Null || !ok {
			return nil, invalid("priority", "unknown priority %q", p.Priority.Value)
		}
		changes["priority"] = p.Priority.Value
	}
	if p.DueDate.Set {
		due, err := parseDate("dueDate", p.DueDate.Value)
		if err != nil {
			return nil, err
		}
		changes["due_date"] = timeArg(due)
	}
	if p.ProjectID.Set {
		projectID := strings.TrimSpace(p.ProjectID.Value)
		if projectID == "" {
			changes["project_id"] = nil
		} else {
			if err := s.requireProject(ctx, ownerID, projectID); err != nil {
				return nil, err
			}
			changes["project_id"] = projectID
		}
	}
	return changes, nil
}

// requireProject fails with NotFoundError unless ownerID owns projectID.
func (s *Service) requireProject(ctx context.Context, ownerID, projectID string) error {
	if _, err := s.store.GetProject(ctx, ownerID, projectID); err != nil {
		return mapNotFound(err, "project", projectID)
	}
	return nil
}
