package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"tracker/internal/models"
)

const projectColumns = `id, owner_id, name, description, status, color, start_date, end_date, revision, created_at, updated_at`

var projectUpdatable = map[string]struct{}{
	"name":        {},
	"description": {},
	"status":      {},
	"color":       {},
	"start_date":  {},
	"end_date":    {},
}

func scanProject(row scanner) (models.Project, error) {
	var (
		p          models.Project
		start, end sql.NullTime
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Status, &p.Color, &start, &end, &p.Revision, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Project{}, err
	}
	p.StartDate = timePtr(start)
	p.EndDate = timePtr(end)
	return p, nil
}

// ListProjects retrieves the owner's projects, newest first.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject fetches a single owned project.
func (s *Store) GetProject(ctx context.Context, ownerID, id string) (models.Project, error) {
	if err := requireOwner(ownerID); err != nil {
		return models.Project{}, err
	}
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrNotFound
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// CreateProject persists a new project for p.OwnerID. A random palette
// color is assigned when none is given.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if err := requireOwner(p.OwnerID); err != nil {
		return models.Project{}, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty")
	}
	if p.Color == "" {
		p.Color = randomPaletteColor()
	}
	if p.Status == "" {
		p.Status = models.ProjectPlanning
	}

	now := s.now()
	p.ID = newID()
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, owner_id, name, description, status, color, start_date, end_date, revision, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		p.ID, p.OwnerID, strings.TrimSpace(p.Name), p.Description, p.Status, p.Color, nullTime(p.StartDate), nullTime(p.EndDate), now, now)
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}

	s.logActivity(ctx, models.ActivityLog{
		Action:    models.ActionProjectCreated,
		Details:   fmt.Sprintf("Created project %q", strings.TrimSpace(p.Name)),
		OwnerID:   p.OwnerID,
		ProjectID: &p.ID,
	})
	return s.GetProject(ctx, p.OwnerID, p.ID)
}

// UpdateProject applies column changes to an owned project and returns the
// number of affected rows. Zero means the project is absent or not owned.
func (s *Store) UpdateProject(ctx context.Context, ownerID, id string, changes map[string]any) (int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	set, args, err := buildSet(changes, projectUpdatable)
	if err != nil {
		return 0, err
	}
	if set != "" {
		set += ", "
	}
	args = append(args, s.now(), id, ownerID)

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET `+set+`revision = revision + 1, updated_at = ? WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.logActivity(ctx, models.ActivityLog{
			Action:    models.ActionProjectUpdated,
			Details:   fmt.Sprintf("Updated project fields: %s", changedFields(changes)),
			OwnerID:   ownerID,
			ProjectID: &id,
		})
	}
	return affected, nil
}

// DeleteProject removes an owned project. Its tasks are left untouched and
// keep pointing at the deleted id.
func (s *Store) DeleteProject(ctx context.Context, ownerID, id string) (int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.logActivity(ctx, models.ActivityLog{
			Action:    models.ActionProjectDeleted,
			Details:   "Deleted project",
			OwnerID:   ownerID,
			ProjectID: &id,
		})
	}
	return affected, nil
}

func changedFields(changes map[string]any) string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}

func randomPaletteColor() string {
	palette := []string{
		"#2563eb", // blue-600
		"#7c3aed", // violet-600
		"#dc2626", // red-600
		"#059669", // green-600
		"#ea580c", // orange-600
		"#d97706", // amber-600
		"#0ea5e9", // sky-500
	}
	return palette[rand.Intn(len(palette))]
}
