package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tracker/internal/models"
)

var userUpdatable = map[string]struct{}{
	"name":             {},
	"email":            {},
	"theme_preference": {},
}

// EnsureUser creates the user row on first sight and returns it. Existing
// rows are left unchanged.
func (s *Store) EnsureUser(ctx context.Context, id string) (models.User, error) {
	if err := requireOwner(id); err != nil {
		return models.User{}, err
	}
	now := s.now()
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users(id, theme_preference, created_at, updated_at) VALUES(?, ?, ?, ?)`,
		id, models.ThemeSystem, now, now)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, theme_preference, created_at, updated_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.ThemePreference, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateUser applies column changes to the user row.
func (s *Store) UpdateUser(ctx context.Context, id string, changes map[string]any) (int64, error) {
	if err := requireOwner(id); err != nil {
		return 0, err
	}
	set, args, err := buildSet(changes, userUpdatable)
	if err != nil {
		return 0, err
	}
	if set != "" {
		set += ", "
	}
	args = append(args, s.now(), id)

	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+set+`updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	return res.RowsAffected()
}
