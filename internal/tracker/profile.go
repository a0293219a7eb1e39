package tracker

import (
	"context"
	"net/mail"
	"strings"

	"tracker/internal/models"
)

// Profile returns the owner's user record, creating it on first access.
func (s *Service) Profile(ctx context.Context, ownerID string) (models.User, error) {
	return s.store.EnsureUser(ctx, ownerID)
}

// UpdateProfile changes display name, email or theme preference.
func (s *Service) UpdateProfile(ctx context.Context, ownerID string, p models.ProfilePatch) (models.User, error) {
	changes := map[string]any{}
	if p.Name.Set {
		changes["name"] = strings.TrimSpace(p.Name.Value)
	}
	if p.Email.Set {
		email := strings.TrimSpace(p.Email.Value)
		if email != "" {
			addr, err := mail.ParseAddress(email)
			if err != nil || addr.Address != email {
				return models.User{}, invalid("email", "invalid address %q", email)
			}
		}
		changes["email"] = email
	}
	if p.ThemePreference.Set {
		theme := p.ThemePreference.Value
		if p.ThemePreference.Null {
			theme = models.ThemeSystem
		}
		if _, ok := models.ValidThemes[theme]; !ok {
			return models.User{}, invalid("themePreference", "unknown theme %q", theme)
		}
		changes["theme_preference"] = theme
	}

	if _, err := s.store.EnsureUser(ctx, ownerID); err != nil {
		return models.User{}, err
	}
	if _, err := s.store.UpdateUser(ctx, ownerID, changes); err != nil {
		return models.User{}, err
	}
	u, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return models.User{}, mapNotFound(err, "user", ownerID)
	}
	return u, nil
}
