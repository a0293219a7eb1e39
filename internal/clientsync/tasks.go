package clientsync

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tracker/internal/client"
	"tracker/internal/models"
)

// TaskAPI is the server surface the board needs.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id string, p models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Reorder(ctx context.Context, moves []models.TaskMove) ([]models.Task, error)
}

var _ TaskAPI = (*client.Client)(nil)

// TaskBoard is the local task list behind a kanban view.
type TaskBoard struct {
	runner
	api   TaskAPI
	tasks list[models.Task]
	now   func() time.Time
}

// NewTaskBoard returns an empty board. Call Load to fill it.
func NewTaskBoard(api TaskAPI, n Notifier, logger *slog.Logger) *TaskBoard {
	b := &TaskBoard{
		api:   api,
		tasks: list[models.Task]{
			id:       func(t models.Task) string { return t.ID },
			revision: func(t models.Task) int64 { return t.Revision },
		},
		now: time.Now,
	}
	b.runner.setup(n, logger)
	return b
}

// Load replaces the local list with the server's.
func (b *TaskBoard) Load(ctx context.Context) error {
	tasks, err := b.api.ListTasks(ctx)
	if err != nil {
		b.logger.Error("load tasks", slog.String("error", err.Error()))
		b.notifier.Error("Failed to load tasks")
		return err
	}
	b.mu.Lock()
	b.tasks.items = append([]models.Task(nil), tasks...)
	b.mu.Unlock()
	return nil
}

// Tasks returns a copy of every task in load order.
func (b *TaskBoard) Tasks() []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks.snapshot()
}

// Task returns the local copy of one task.
func (b *TaskBoard) Task(id string) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks.get(id)
}

// Lane returns the tasks with the given status ordered by position.
func (b *TaskBoard) Lane(status string) []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	var lane []models.Task
	for _, t := range b.tasks.items {
		if t.Status == status {
			lane = append(lane, t)
		}
	}
	sort.SliceStable(lane, func(i, j int) bool {
		return lane[i].KanbanPosition < lane[j].KanbanPosition
	})
	return lane
}

// Create shows a placeholder task immediately and swaps in the server
// record once it exists.
func (b *TaskBoard) Create(ctx context.Context, in models.TaskInput) (models.Task, error) {
	placeholder := b.placeholder(in)
	var created models.Task

	err := b.execute(ctx, Command{
		Name:    "task.create",
		Forward: func() { b.tasks.insert(-1, placeholder) },
		Inverse: func() { b.tasks.remove(placeholder.ID) },
		Remote: func(ctx context.Context) error {
			var err error
			created, err = b.api.CreateTask(ctx, in)
			return err
		},
		Reconcile: func() {
			at := b.tasks.index(placeholder.ID)
			b.tasks.remove(placeholder.ID)
			if b.tasks.index(created.ID) < 0 {
				b.tasks.insert(at, created)
				return
			}
			b.tasks.replace(created.ID, created)
		},
		Done:   "Task created",
		Failed: "Failed to create task",
	})
	return created, err
}

func (b *TaskBoard) placeholder(in models.TaskInput) models.Task {
	now := b.now().UTC()
	t := models.Task{
		ID:          tempID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     parseLocalDate(in.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if in.ProjectID != "" {
		pid := in.ProjectID
		t.ProjectID = &pid
	}
	var maxPos int64 = -1
	for _, other := range b.Tasks() {
		if other.Status == t.Status && other.KanbanPosition > maxPos {
			maxPos = other.KanbanPosition
		}
	}
	t.KanbanPosition = maxPos + 1
	return t
}

// Update applies p locally and sends it to the server.
func (b *TaskBoard) Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	return b.update(ctx, "task.update", id, p, "Task updated", "Failed to update task")
}

// ToggleDone flips a task between done and todo.
func (b *TaskBoard) ToggleDone(ctx context.Context, id string) (models.Task, error) {
	current, ok := b.Task(id)
	if !ok {
		return models.Task{}, errUnknown("task", id)
	}
	next := models.TaskDone
	if current.Status == models.TaskDone {
		next = models.TaskTodo
	}
	return b.update(ctx, "task.toggle", id, models.TaskPatch{Status: models.Some(next)}, "", "Failed to update task status")
}

func (b *TaskBoard) update(ctx context.Context, name, id string, p models.TaskPatch, done, failed string) (models.Task, error) {
	var prev, updated models.Task
	var found bool

	err := b.execute(ctx, Command{
		Name: name,
		Forward: func() {
			prev, found = b.tasks.get(id)
			if !found {
				return
			}
			next := prev
			applyTaskPatch(&next, p, b.now().UTC())
			b.tasks.items[b.tasks.index(id)] = next
		},
		Inverse: func() {
			if found {
				b.tasks.restore(prev)
			}
		},
		Remote: func(ctx context.Context) error {
			var err error
			updated, err = b.api.UpdateTask(ctx, id, p)
			return err
		},
		Reconcile: func() {
			if b.tasks.index(id) < 0 {
				return
			}
			if !b.tasks.replace(id, updated) {
				b.logger.Debug("dropped stale task response", slog.String("id", id), slog.Int64("revision", updated.Revision))
			}
		},
		Done:   done,
		Failed: failed,
	})
	return updated, err
}

// Delete removes a task locally and on the server. A failed delete puts
// the task back at its old position.
func (b *TaskBoard) Delete(ctx context.Context, id string) error {
	var removed models.Task
	var at int
	var found bool

	return b.execute(ctx, Command{
		Name:    "task.delete",
		Forward: func() { removed, at, found = b.tasks.remove(id) },
		Inverse: func() {
			if found && b.tasks.index(id) < 0 {
				b.tasks.insert(at, removed)
			}
		},
		Remote: func(ctx context.Context) error { return b.api.DeleteTask(ctx, id) },
		Done:   "Task deleted",
		Failed: "Failed to delete task",
	})
}

// Move persists a drag-and-drop batch. Every task in the batch is moved
// locally first and restored together if the server rejects the batch.
func (b *TaskBoard) Move(ctx context.Context, moves []models.TaskMove) ([]models.Task, error) {
	var prevs []models.Task
	var updated []models.Task

	err := b.execute(ctx, Command{
		Name: "task.reorder",
		Forward: func() {
			prevs = prevs[:0]
			now := b.now().UTC()
			for _, m := range moves {
				i := b.tasks.index(m.ID)
				if i < 0 {
					continue
				}
				prevs = append(prevs, b.tasks.items[i])
				b.tasks.items[i].Status = m.Status
				b.tasks.items[i].KanbanPosition = m.KanbanPosition
				b.tasks.items[i].UpdatedAt = now
			}
		},
		Inverse: func() {
			for _, p := range prevs {
				b.tasks.restore(p)
			}
		},
		Remote: func(ctx context.Context) error {
			var err error
			updated, err = b.api.Reorder(ctx, moves)
			return err
		},
		Reconcile: func() {
			for _, t := range updated {
				if b.tasks.index(t.ID) < 0 {
					continue
				}
				b.tasks.replace(t.ID, t)
			}
		},
		Failed: "Failed to save task order",
	})
	return updated, err
}

// applyTaskPatch mirrors the server's field handling closely enough for
// display. The server copy replaces it on success.
func applyTaskPatch(t *models.Task, p models.TaskPatch, now time.Time) {
	if p.Title.HasValue() {
		t.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		if p.Description.Null {
			t.Description = nil
		} else {
			v := p.Description.Value
			t.Description = &v
		}
	}
	if p.Status.HasValue() {
		t.Status = p.Status.Value
	}
	if p.Priority.HasValue() {
		t.Priority = p.Priority.Value
	}
	if p.DueDate.Set {
		if p.DueDate.Null {
			t.DueDate = nil
		} else {
			t.DueDate = parseLocalDate(&p.DueDate.Value)
		}
	}
	if p.ProjectID.Set {
		if p.ProjectID.Null || p.ProjectID.Value == "" {
			t.ProjectID = nil
		} else {
			v := p.ProjectID.Value
			t.ProjectID = &v
		}
	}
	t.UpdatedAt = now
}

func parseLocalDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if ts, err := time.Parse(layout, *raw); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
