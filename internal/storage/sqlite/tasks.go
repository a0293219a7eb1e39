package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tracker/internal/models"
)

const taskColumns = `id, owner_id, project_id, title, description, status, priority, due_date, kanban_position, revision, created_at, updated_at`

var taskUpdatable = map[string]struct{}{
	"title":           {},
	"description":     {},
	"status":          {},
	"priority":        {},
	"due_date":        {},
	"project_id":      {},
	"kanban_position": {},
}

func scanTask(row scanner) (models.Task, error) {
	var (
		t           models.Task
		projectID   sql.NullString
		description sql.NullString
		due         sql.NullTime
	)
	err := row.Scan(&t.ID, &t.OwnerID, &projectID, &t.Title, &description, &t.Status, &t.Priority, &due, &t.KanbanPosition, &t.Revision, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	t.ProjectID = stringPtr(projectID)
	t.Description = stringPtr(description)
	t.DueDate = timePtr(due)
	return t, nil
}

// ListTasks returns every task the owner has, ordered by lane and position.
func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY status, kanban_position, created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask retrieves an owned task by id.
func (s *Store) GetTask(ctx context.Context, ownerID, id string) (models.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return models.Task{}, err
	}
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a new task at the end of its status lane.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if err := requireOwner(t.OwnerID); err != nil {
		return models.Task{}, err
	}
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		t.Status = models.TaskTodo
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		t.Priority = models.PriorityMedium
	}

	now := s.now()
	t.ID = newID()
	// The lane end is read in the same statement as the insert.
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, owner_id, project_id, title, description, status, priority, due_date, kanban_position, revision, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?,
            (SELECT COALESCE(MAX(kanban_position), -1) + 1 FROM tasks WHERE owner_id = ? AND status = ?),
            1, ?, ?)`,
		t.ID, t.OwnerID, nullString(t.ProjectID), strings.TrimSpace(t.Title), nullString(t.Description), t.Status, t.Priority, nullTime(t.DueDate),
		t.OwnerID, t.Status, now, now)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}

	s.logActivity(ctx, models.ActivityLog{
		Action:    models.ActionTaskCreated,
		Details:   fmt.Sprintf("Created task %q", strings.TrimSpace(t.Title)),
		OwnerID:   t.OwnerID,
		ProjectID: t.ProjectID,
		TaskID:    &t.ID,
	})
	return s.GetTask(ctx, t.OwnerID, t.ID)
}

// UpdateTask applies column changes to an owned task and returns the number
// of affected rows. A status change without an explicit kanban_position
// appends the task to the end of its new lane.
func (s *Store) UpdateTask(ctx context.Context, ownerID, id string, changes map[string]any) (int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	set, args, err := buildSet(changes, taskUpdatable)
	if err != nil {
		return 0, err
	}
	if set != "" {
		set += ", "
	}

	status, moving := changes["status"]
	if _, explicit := changes["kanban_position"]; moving && !explicit {
		// SET expressions see the pre-update row, so status here is the old lane.
		set += `kanban_position = CASE WHEN status = ? THEN kanban_position
            ELSE (SELECT COALESCE(MAX(kanban_position), -1) + 1 FROM tasks WHERE owner_id = ? AND status = ?) END, `
		args = append(args, status, ownerID, status)
	}
	args = append(args, s.now(), id, ownerID)

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+set+`revision = revision + 1, updated_at = ? WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.logActivity(ctx, models.ActivityLog{
			Action:  models.ActionTaskUpdated,
			Details: fmt.Sprintf("Updated task fields: %s", changedFields(changes)),
			OwnerID: ownerID,
			TaskID:  &id,
		})
	}
	return affected, nil
}

// DeleteTask removes an owned task by id.
func (s *Store) DeleteTask(ctx context.Context, ownerID, id string) (int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.logActivity(ctx, models.ActivityLog{
			Action:  models.ActionTaskDeleted,
			Details: "Deleted task",
			OwnerID: ownerID,
			TaskID:  &id,
		})
	}
	return affected, nil
}

// ReorderTasks applies a batch of lane/position moves in one transaction.
// Every row is scoped by owner. When any id does not match an owned task the
// transaction is rolled back and the missing ids are returned.
func (s *Store) ReorderTasks(ctx context.Context, ownerID string, moves []models.TaskMove) ([]models.Task, []string, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `UPDATE tasks SET kanban_position = ?, status = ?, revision = revision + 1, updated_at = ? WHERE id = ? AND owner_id = ?`)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	var missing []string
	for _, m := range moves {
		res, err := stmt.ExecContext(ctx, m.KanbanPosition, m.Status, now, m.ID, ownerID)
		if err != nil {
			return nil, nil, fmt.Errorf("reorder task %s: %w", m.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, nil, err
		}
		if affected == 0 {
			missing = append(missing, m.ID)
		}
	}
	if len(missing) > 0 {
		return nil, missing, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit reorder: %w", err)
	}

	updated := make([]models.Task, 0, len(moves))
	for _, m := range moves {
		t, err := s.GetTask(ctx, ownerID, m.ID)
		if err != nil {
			return nil, nil, err
		}
		updated = append(updated, t)
	}

	s.logActivity(ctx, models.ActivityLog{
		Action:  models.ActionTaskReordered,
		Details: fmt.Sprintf("Reordered %d task(s)", len(moves)),
		OwnerID: ownerID,
	})
	return updated, nil, nil
}
