package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"tracker/internal/models"
)

// AppendActivity stores a new activity entry. Id and timestamp are assigned
// here when empty.
func (s *Store) AppendActivity(ctx context.Context, entry models.ActivityLog) error {
	if err := requireOwner(entry.OwnerID); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO activity_logs(id, owner_id, action, details, project_id, task_id, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Action, entry.Details, nullString(entry.ProjectID), nullString(entry.TaskID), entry.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivity returns the owner's most recent activity entries, newest first.
func (s *Store) ListActivity(ctx context.Context, ownerID string, limit int) ([]models.ActivityLog, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, owner_id, action, details, project_id, task_id, created_at
        FROM activity_logs WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityLog{}
	for rows.Next() {
		var (
			e                 models.ActivityLog
			projectID, taskID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Action, &e.Details, &projectID, &taskID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.ProjectID = stringPtr(projectID)
		e.TaskID = stringPtr(taskID)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
