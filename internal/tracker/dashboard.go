package tracker

import (
	"context"
	"math"
	"sort"
	"time"

	"tracker/internal/models"
)

const (
	dashboardListSize = 5
	upcomingWindow    = 7 * 24 * time.Hour

	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// Dashboard summarizes an owner's projects, tasks and recent activity.
type Dashboard struct {
	TotalProjects      int                  `json:"totalProjects"`
	CompletedProjects  int                  `json:"completedProjects"`
	InProgressProjects int                  `json:"inProgressProjects"`
	TotalTasks         int                  `json:"totalTasks"`
	CompletedTasks     int                  `json:"completedTasks"`
	InProgressTasks    int                  `json:"inProgressTasks"`
	CompletionRate     int                  `json:"completionRate"`
	UpcomingTasks      []models.Task        `json:"upcomingTasks"`
	RecentActivity     []models.ActivityLog `json:"recentActivity"`
}

// Dashboard computes the owner's summary relative to the current time.
func (s *Service) Dashboard(ctx context.Context, ownerID string) (Dashboard, error) {
	projects, err := s.store.ListProjects(ctx, ownerID)
	if err != nil {
		return Dashboard{}, err
	}
	tasks, err := s.store.ListTasks(ctx, ownerID)
	if err != nil {
		return Dashboard{}, err
	}
	activity, err := s.store.ListActivity(ctx, ownerID, dashboardListSize)
	if err != nil {
		return Dashboard{}, err
	}

	d := summarize(projects, tasks, s.now())
	d.RecentActivity = activity
	return d, nil
}

func summarize(projects []models.Project, tasks []models.Task, now time.Time) Dashboard {
	d := Dashboard{
		TotalProjects:  len(projects),
		TotalTasks:     len(tasks),
		UpcomingTasks:  []models.Task{},
		RecentActivity: []models.ActivityLog{},
	}
	for _, p := range projects {
		switch p.Status {
		case models.ProjectCompleted:
			d.CompletedProjects++
		case models.ProjectInProgress:
			d.InProgressProjects++
		}
	}

	horizon := now.Add(upcomingWindow)
	for _, t := range tasks {
		switch t.Status {
		case models.TaskDone:
			d.CompletedTasks++
			continue
		case models.TaskInProgress:
			d.InProgressTasks++
		}
		if t.DueDate != nil && !t.DueDate.Before(now) && !t.DueDate.After(horizon) {
			d.UpcomingTasks = append(d.UpcomingTasks, t)
		}
	}
	if d.TotalTasks > 0 {
		d.CompletionRate = int(math.Round(float64(d.CompletedTasks) * 100 / float64(d.TotalTasks)))
	}

	sort.SliceStable(d.UpcomingTasks, func(i, j int) bool {
		return d.UpcomingTasks[i].DueDate.Before(*d.UpcomingTasks[j].DueDate)
	})
	if len(d.UpcomingTasks) > dashboardListSize {
		d.UpcomingTasks = d.UpcomingTasks[:dashboardListSize]
	}
	return d
}

// ListActivity returns recent activity, newest first. Limit defaults to 50
// and is capped at 200.
func (s *Service) ListActivity(ctx context.Context, ownerID string, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	return s.store.ListActivity(ctx, ownerID, limit)
}
