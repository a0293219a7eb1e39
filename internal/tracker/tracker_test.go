package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tracker/internal/models"
	"tracker/internal/storage/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tracker.db"), nil)
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, nil)
}

func mustProject(t *testing.T, svc *Service, owner, name string) models.Project {
	t.Helper()
	p, err := svc.CreateProject(context.Background(), owner, models.ProjectInput{Name: name})
	if err != nil {
		t.Fatalf("CreateProject(%q) error = %v", name, err)
	}
	return p
}

func mustTask(t *testing.T, svc *Service, owner, projectID, title string) models.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), owner, models.TaskInput{Title: title, ProjectID: projectID})
	if err != nil {
		t.Fatalf("CreateTask(%q) error = %v", title, err)
	}
	return task
}

func ptr[T any](v T) *T { return &v }

func isValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func isNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := mustProject(t, svc, "alice", "Alpha")
	task := mustTask(t, svc, "alice", p.ID, "secret")

	checks := []struct {
		name string
		err  error
	}{
		{"GetProject", func() error { _, err := svc.GetProject(ctx, "bob", p.ID); return err }()},
		{"UpdateProject", func() error {
			_, err := svc.UpdateProject(ctx, "bob", p.ID, models.ProjectPatch{Name: models.Some("mine")})
			return err
		}()},
		{"DeleteProject", svc.DeleteProject(ctx, "bob", p.ID)},
		{"DuplicateProject", func() error { _, err := svc.DuplicateProject(ctx, "bob", p.ID); return err }()},
		{"GetTask", func() error { _, err := svc.GetTask(ctx, "bob", task.ID); return err }()},
		{"UpdateTask", func() error {
			_, err := svc.UpdateTask(ctx, "bob", task.ID, models.TaskPatch{Status: models.Some(models.TaskDone)})
			return err
		}()},
		{"DeleteTask", svc.DeleteTask(ctx, "bob", task.ID)},
	}
	for _, c := range checks {
		if !isNotFound(c.err) {
			t.Errorf("%s by other owner: error = %v, want NotFoundError", c.name, c.err)
		}
	}

	// Alice's data is unchanged.
	got, err := svc.GetTask(ctx, "alice", task.ID)
	if err != nil || got.Status != models.TaskTodo {
		t.Fatalf("alice's task = %+v, %v", got, err)
	}
	if _, err := svc.GetProject(ctx, "alice", p.ID); err != nil {
		t.Fatalf("alice's project missing: %v", err)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	foreign := mustProject(t, svc, "bob", "Theirs")

	tests := []struct {
		name  string
		input models.TaskInput
		check func(error) bool
	}{
		{"empty title", models.TaskInput{Title: "   ", ProjectID: p.ID}, isValidation},
		{"missing project", models.TaskInput{Title: "t"}, isValidation},
		{"bad status", models.TaskInput{Title: "t", ProjectID: p.ID, Status: "blocked"}, isValidation},
		{"bad priority", models.TaskInput{Title: "t", ProjectID: p.ID, Priority: "urgent"}, isValidation},
		{"bad due date", models.TaskInput{Title: "t", ProjectID: p.ID, DueDate: ptr("next week")}, isValidation},
		{"foreign project", models.TaskInput{Title: "t", ProjectID: foreign.ID}, isNotFound},
		{"unknown project", models.TaskInput{Title: "t", ProjectID: "nope"}, isNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, "alice", tt.input)
			if !tt.check(err) {
				t.Fatalf("CreateTask() error = %v", err)
			}
		})
	}

	tasks, err := svc.ListTasks(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("failed creates persisted %d task(s)", len(tasks))
	}
}

func TestCreateTaskRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")

	in := models.TaskInput{
		Title:       "Ship release",
		Description: ptr("cut the tag"),
		Status:      models.TaskInProgress,
		Priority:    models.PriorityHigh,
		DueDate:     ptr("2026-11-01"),
		ProjectID:   p.ID,
	}
	created, err := svc.CreateTask(ctx, "alice", in)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	got, err := svc.GetTask(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}

	if got.ID == "" || got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("server fields not assigned: %+v", got)
	}
	if got.Title != in.Title || *got.Description != *in.Description || got.Status != in.Status ||
		got.Priority != in.Priority || *got.ProjectID != p.ID || got.OwnerID != "alice" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	wantDue := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	if got.DueDate == nil || !got.DueDate.Equal(wantDue) {
		t.Errorf("dueDate = %v, want %v", got.DueDate, wantDue)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	svc := newTestService(t)
	p := mustProject(t, svc, "alice", "Alpha")
	task := mustTask(t, svc, "alice", p.ID, "plain")
	if task.Status != models.TaskTodo || task.Priority != models.PriorityMedium {
		t.Fatalf("defaults = %s/%s", task.Status, task.Priority)
	}
}

func TestUpdateTaskPatchSemantics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	other := mustProject(t, svc, "alice", "Beta")

	task, err := svc.CreateTask(ctx, "alice", models.TaskInput{
		Title: "t", Description: ptr("keep me"), DueDate: ptr("2026-12-24T10:00:00Z"), ProjectID: p.ID,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	// Absent fields are untouched.
	got, err := svc.UpdateTask(ctx, "alice", task.ID, models.TaskPatch{Priority: models.Some(models.PriorityLow)})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if got.Description == nil || *got.Description != "keep me" || got.DueDate == nil || got.Priority != models.PriorityLow {
		t.Fatalf("absent fields changed: %+v", got)
	}

	// Null clears, value sets.
	got, err = svc.UpdateTask(ctx, "alice", task.ID, models.TaskPatch{
		Description: models.Null[string](),
		DueDate:     models.Null[string](),
		ProjectID:   models.Some(other.ID),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if got.Description != nil || got.DueDate != nil || got.ProjectID == nil || *got.ProjectID != other.ID {
		t.Fatalf("null/set not applied: %+v", got)
	}

	got, err = svc.UpdateTask(ctx, "alice", task.ID, models.TaskPatch{ProjectID: models.Null[string]()})
	if err != nil || got.ProjectID != nil {
		t.Fatalf("unassign project: %+v, %v", got, err)
	}

	if _, err := svc.UpdateTask(ctx, "alice", task.ID, models.TaskPatch{Title: models.Null[string]()}); !isValidation(err) {
		t.Errorf("null title error = %v", err)
	}
	if _, err := svc.UpdateTask(ctx, "alice", task.ID, models.TaskPatch{Status: models.Null[string]()}); !isValidation(err) {
		t.Errorf("null status error = %v", err)
	}
	foreign := mustProject(t, svc, "bob", "Theirs")
	if _, err := svc.UpdateTask(ctx, "alice", task.ID, models.TaskPatch{ProjectID: models.Some(foreign.ID)}); !isNotFound(err) {
		t.Errorf("foreign project error = %v", err)
	}
}

func TestUpdateTaskIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	task := mustTask(t, svc, "alice", p.ID, "t")

	patch := models.TaskPatch{Status: models.Some(models.TaskDone)}
	first, err := svc.UpdateTask(ctx, "alice", task.ID, patch)
	if err != nil {
		t.Fatalf("first UpdateTask() error = %v", err)
	}
	second, err := svc.UpdateTask(ctx, "alice", task.ID, patch)
	if err != nil {
		t.Fatalf("second UpdateTask() error = %v", err)
	}
	if first.Status != second.Status || first.KanbanPosition != second.KanbanPosition || first.Title != second.Title {
		t.Errorf("state diverged: %+v vs %+v", first, second)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("updatedAt went backwards")
	}
}

func TestSetTaskDoneRefreshesUpdatedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	task := mustTask(t, svc, "alice", p.ID, "t")

	done, err := svc.SetTaskDone(ctx, "alice", task.ID, true)
	if err != nil {
		t.Fatalf("SetTaskDone(true) error = %v", err)
	}
	if done.Status != models.TaskDone || done.UpdatedAt.Before(task.UpdatedAt) || done.Revision != task.Revision+1 {
		t.Fatalf("toggle on = %+v", done)
	}
	reopened, err := svc.SetTaskDone(ctx, "alice", task.ID, false)
	if err != nil || reopened.Status != models.TaskTodo {
		t.Fatalf("toggle off = %+v, %v", reopened, err)
	}
}

func TestDeleteProjectKeepsTasks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	task := mustTask(t, svc, "alice", p.ID, "orphan")

	if err := svc.DeleteProject(ctx, "alice", p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if err := svc.DeleteProject(ctx, "alice", p.ID); !isNotFound(err) {
		t.Fatalf("second DeleteProject() error = %v", err)
	}

	tasks, err := svc.ListTasks(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID || *tasks[0].ProjectID != p.ID {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, "alice", models.ProjectInput{Name: " "}); !isValidation(err) {
		t.Errorf("empty name error = %v", err)
	}
	if _, err := svc.CreateProject(ctx, "alice", models.ProjectInput{Name: "x", Status: "active"}); !isValidation(err) {
		t.Errorf("status outside enum error = %v", err)
	}
	if _, err := svc.CreateProject(ctx, "alice", models.ProjectInput{Name: "x", StartDate: ptr("2026-05-02"), EndDate: ptr("2026-05-01")}); !isValidation(err) {
		t.Errorf("inverted dates error = %v", err)
	}

	p, err := svc.CreateProject(ctx, "alice", models.ProjectInput{Name: "x", StartDate: ptr("2026-05-01")})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.Status != models.ProjectPlanning {
		t.Errorf("default status = %q, want planning", p.Status)
	}
	if _, err := svc.UpdateProject(ctx, "alice", p.ID, models.ProjectPatch{EndDate: models.Some("2026-04-01")}); !isValidation(err) {
		t.Errorf("update before start error = %v", err)
	}
}

func TestUpdateProjectPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "alice", models.ProjectInput{
		Name: "Alpha", Description: "desc", Color: "#000000", StartDate: ptr("2026-01-01"),
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	got, err := svc.UpdateProject(ctx, "alice", p.ID, models.ProjectPatch{
		Status:    models.Some(models.ProjectCompleted),
		StartDate: models.Null[string](),
	})
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if got.Name != "Alpha" || got.Description != "desc" || got.Color != "#000000" {
		t.Errorf("absent fields changed: %+v", got)
	}
	if got.Status != models.ProjectCompleted || got.StartDate != nil || got.OwnerID != "alice" {
		t.Errorf("patch not applied: %+v", got)
	}
}

func TestDuplicateName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"Website Redesign", []string{"Website Redesign"}, "Website Redesign (1)"},
		{"Website Redesign", []string{"Website Redesign", "Website Redesign (1)", "Website Redesign (3)"}, "Website Redesign (4)"},
		{"Website Redesign (3)", []string{"Website Redesign", "Website Redesign (3)"}, "Website Redesign (4)"},
		{"Launch", []string{"Launch", "Other (7)"}, "Launch (1)"},
		{"Q1 (draft)", []string{"Q1 (draft)"}, "Q1 (draft) (1)"},
	}
	for _, tt := range tests {
		if got := DuplicateName(tt.name, tt.existing); got != tt.want {
			t.Errorf("DuplicateName(%q, %v) = %q, want %q", tt.name, tt.existing, got, tt.want)
		}
	}
}

func TestDuplicateProject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateProject(ctx, "alice", models.ProjectInput{
		Name: "Website Redesign", Description: "d", Status: models.ProjectInProgress, Color: "#123456", EndDate: ptr("2026-12-31"),
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	mustTask(t, svc, "alice", src.ID, "not copied")
	// Another owner's copies must not influence the suffix.
	mustProject(t, svc, "bob", "Website Redesign (9)")

	first, err := svc.DuplicateProject(ctx, "alice", src.ID)
	if err != nil {
		t.Fatalf("DuplicateProject() error = %v", err)
	}
	if first.Name != "Website Redesign (1)" {
		t.Errorf("first copy = %q", first.Name)
	}
	if first.Description != "d" || first.Status != models.ProjectInProgress || first.Color != "#123456" || first.EndDate == nil {
		t.Errorf("fields not copied: %+v", first)
	}

	mustProject(t, svc, "alice", "Website Redesign (3)")
	next, err := svc.DuplicateProject(ctx, "alice", first.ID)
	if err != nil {
		t.Fatalf("DuplicateProject() error = %v", err)
	}
	if next.Name != "Website Redesign (4)" {
		t.Errorf("next copy = %q, want Website Redesign (4)", next.Name)
	}

	tasks, _ := svc.ListTasks(ctx, "alice")
	if len(tasks) != 1 {
		t.Errorf("tasks were copied: %d", len(tasks))
	}
}

func TestReorder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	t1 := mustTask(t, svc, "alice", p.ID, "one")
	t2 := mustTask(t, svc, "alice", p.ID, "two")

	updated, err := svc.Reorder(ctx, "alice", []ReorderItem{
		{ID: t1.ID, KanbanPosition: ptr(1.0), Status: models.TaskTodo},
		{ID: t2.ID, KanbanPosition: ptr(2.0), Status: models.TaskInProgress},
	})
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("got %d records", len(updated))
	}
	if updated[0].ID != t1.ID || updated[0].KanbanPosition != 1 || updated[0].Status != models.TaskTodo {
		t.Errorf("t1 = %+v", updated[0])
	}
	if updated[1].ID != t2.ID || updated[1].KanbanPosition != 2 || updated[1].Status != models.TaskInProgress {
		t.Errorf("t2 = %+v", updated[1])
	}
}

func TestReorderValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		items []ReorderItem
	}{
		{"empty", nil},
		{"missing id", []ReorderItem{{KanbanPosition: ptr(1.0), Status: models.TaskTodo}}},
		{"bad status", []ReorderItem{{ID: "a", KanbanPosition: ptr(1.0), Status: "later"}}},
		{"missing position", []ReorderItem{{ID: "a", Status: models.TaskTodo}}},
		{"fractional", []ReorderItem{{ID: "a", KanbanPosition: ptr(1.5), Status: models.TaskTodo}}},
		{"too large", []ReorderItem{{ID: "a", KanbanPosition: ptr(1e300), Status: models.TaskTodo}}},
		{"duplicate", []ReorderItem{
			{ID: "a", KanbanPosition: ptr(1.0), Status: models.TaskTodo},
			{ID: "a", KanbanPosition: ptr(2.0), Status: models.TaskTodo},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Reorder(ctx, "alice", tt.items); !isValidation(err) {
				t.Fatalf("Reorder() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestReorderRejectsForeignTasks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mine := mustTask(t, svc, "alice", mustProject(t, svc, "alice", "A").ID, "mine")
	theirs := mustTask(t, svc, "bob", mustProject(t, svc, "bob", "B").ID, "theirs")

	_, err := svc.Reorder(ctx, "alice", []ReorderItem{
		{ID: mine.ID, KanbanPosition: ptr(5.0), Status: models.TaskDone},
		{ID: theirs.ID, KanbanPosition: ptr(0.0), Status: models.TaskDone},
	})
	var re *ReorderError
	if !errors.As(err, &re) {
		t.Fatalf("Reorder() error = %v, want ReorderError", err)
	}
	if len(re.IDs) != 1 || re.IDs[0] != theirs.ID {
		t.Errorf("failed ids = %v", re.IDs)
	}

	got, _ := svc.GetTask(ctx, "alice", mine.ID)
	if got.Status != models.TaskTodo {
		t.Errorf("partial batch persisted: %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time { v := now.Add(time.Duration(d) * 24 * time.Hour); return &v }

	projects := []models.Project{
		{Status: models.ProjectCompleted},
		{Status: models.ProjectInProgress},
		{Status: models.ProjectPlanning},
	}
	tasks := []models.Task{
		{ID: "late", Status: models.TaskTodo, DueDate: day(6)},
		{ID: "soon", Status: models.TaskInProgress, DueDate: day(1)},
		{ID: "past", Status: models.TaskTodo, DueDate: day(-1)},
		{ID: "far", Status: models.TaskTodo, DueDate: day(8)},
		{ID: "done", Status: models.TaskDone, DueDate: day(2)},
		{ID: "nodate", Status: models.TaskTodo},
	}

	d := summarize(projects, tasks, now)
	if d.TotalProjects != 3 || d.CompletedProjects != 1 || d.InProgressProjects != 1 {
		t.Errorf("project counts = %+v", d)
	}
	if d.TotalTasks != 6 || d.CompletedTasks != 1 || d.InProgressTasks != 1 {
		t.Errorf("task counts = %+v", d)
	}
	if d.CompletionRate != 17 {
		t.Errorf("completion rate = %d, want 17", d.CompletionRate)
	}
	if len(d.UpcomingTasks) != 2 || d.UpcomingTasks[0].ID != "soon" || d.UpcomingTasks[1].ID != "late" {
		t.Errorf("upcoming = %+v", d.UpcomingTasks)
	}

	empty := summarize(nil, nil, now)
	if empty.CompletionRate != 0 || empty.UpcomingTasks == nil {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestDashboardAndActivity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, svc, "alice", "Alpha")
	for i := 0; i < 4; i++ {
		mustTask(t, svc, "alice", p.ID, "t")
	}

	d, err := svc.Dashboard(ctx, "alice")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.TotalProjects != 1 || d.TotalTasks != 4 || len(d.RecentActivity) != 5 {
		t.Errorf("dashboard = %+v", d)
	}

	all, err := svc.ListActivity(ctx, "alice", 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("ListActivity() = %d entries, %v", len(all), err)
	}
	if all[len(all)-1].Action != models.ActionProjectCreated {
		t.Errorf("oldest entry = %s", all[len(all)-1].Action)
	}
}

func TestProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Profile(ctx, "alice")
	if err != nil || u.ID != "alice" || u.ThemePreference != models.ThemeSystem {
		t.Fatalf("Profile() = %+v, %v", u, err)
	}
	u, err = svc.UpdateProfile(ctx, "alice", models.ProfilePatch{
		Name:            models.Some("Alice"),
		Email:           models.Some("alice@example.com"),
		ThemePreference: models.Some(models.ThemeDark),
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if u.Name != "Alice" || u.Email != "alice@example.com" || u.ThemePreference != models.ThemeDark {
		t.Errorf("profile = %+v", u)
	}
	if _, err := svc.UpdateProfile(ctx, "alice", models.ProfilePatch{ThemePreference: models.Some("neon")}); !isValidation(err) {
		t.Errorf("bad theme error = %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "alice", models.ProfilePatch{Email: models.Some("not-an-email")}); !isValidation(err) {
		t.Errorf("bad email error = %v", err)
	}
}
