package models

import "time"

// Project groups tasks owned by a single user.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Color       string     `json:"color"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	OwnerID     string     `json:"ownerId"`
	Revision    int64      `json:"revision"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Task represents a single card on the kanban board.
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"dueDate"`
	ProjectID      *string    `json:"projectId"`
	OwnerID        string     `json:"ownerId"`
	KanbanPosition int64      `json:"kanbanPosition"`
	Revision       int64      `json:"revision"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ActivityLog is an append-only record of a mutation.
type ActivityLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	OwnerID   string    `json:"ownerId"`
	ProjectID *string   `json:"projectId,omitempty"`
	TaskID    *string   `json:"taskId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// User is the identity that owns projects and tasks.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ThemePreference string    `json:"themePreference"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TaskMove is a single drag-and-drop placement.
type TaskMove struct {
	ID             string `json:"id"`
	KanbanPosition int64  `json:"kanbanPosition"`
	Status         string `json:"status"`
}

const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	ProjectPlanning   = "planning"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
	ProjectArchived   = "archived"

	DefaultProjectColor = "#2563eb"

	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ValidTaskStatuses enumerates the statuses supported by the board columns.
var ValidTaskStatuses = map[string]struct{}{
	TaskTodo:       {},
	TaskInProgress: {},
	TaskDone:       {},
}

// ValidPriorities enumerates the task priorities.
var ValidPriorities = map[string]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// ValidProjectStatuses enumerates the project lifecycle states.
var ValidProjectStatuses = map[string]struct{}{
	ProjectPlanning:   {},
	ProjectInProgress: {},
	ProjectCompleted:  {},
	ProjectArchived:   {},
}

// ValidThemes enumerates the accepted theme preferences.
var ValidThemes = map[string]struct{}{
	ThemeLight:  {},
	ThemeDark:   {},
	ThemeSystem: {},
}

// Activity actions recorded by the store.
const (
	ActionProjectCreated = "project.created"
	ActionProjectUpdated = "project.updated"
	ActionProjectDeleted = "project.deleted"
	ActionTaskCreated    = "task.created"
	ActionTaskUpdated    = "task.updated"
	ActionTaskDeleted    = "task.deleted"
	ActionTaskReordered  = "task.reordered"
)

// TaskInput is the payload for creating a task.
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	ProjectID   string  `json:"projectId"`
}

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	Color       string  `json:"color,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
}
