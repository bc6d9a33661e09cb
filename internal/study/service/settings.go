package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/libertybell/apstudy/internal/study/domain"
	"github.com/libertybell/apstudy/internal/study/storage"
)

// ErrUnknownSetting reports an UpdateSetting call with a key the settings
// record does not have.
var ErrUnknownSetting = errors.New("unknown setting")

// Setting keys accepted by UpdateSetting.
const (
	SettingTheme                       = "theme"
	SettingReducedMotion               = "reducedMotion"
	SettingFontSize                    = "fontSize"
	SettingHighContrast                = "highContrast"
	SettingSaveHistory                 = "saveHistory"
	SettingPersonalizedRecommendations = "personalizedRecommendations"
)

// SettingsApplier is the UI-facing hook through which settings take effect
// (theme, motion, font size). Application is total and idempotent: the full
// record is re-applied after every change. Reset restores system defaults on
// logout.
type SettingsApplier interface {
	Apply(ctx context.Context, settings domain.Settings)
	Reset(ctx context.Context)
}

// SettingsKey derives the storage key for a user's settings record.
func SettingsKey(userID string) string {
	return "user_" + userID + "_settings"
}

// settingsOrDefaults loads a user's settings, recreating defaults when the
// record is missing or unreadable. Storage loss therefore degrades to default
// preferences instead of a hard failure.
func (s *SessionService) settingsOrDefaults(ctx context.Context, userID string) domain.Settings {
	raw, err := s.KV.Get(ctx, SettingsKey(userID))
	if err == nil {
		var settings domain.Settings
		if jsonErr := json.Unmarshal([]byte(raw), &settings); jsonErr == nil {
			return settings
		}
		s.log().Warn("settings record is corrupt, recreating defaults", "user_id", userID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.log().Error("failed to read settings", "user_id", userID, "error", err)
	}

	defaults := domain.DefaultSettings(s.now())
	if err := s.saveSettings(ctx, userID, defaults); err != nil {
		s.log().Warn("failed to persist default settings", "user_id", userID, "error", err)
	}
	return defaults
}

func (s *SessionService) saveSettings(ctx context.Context, userID string, settings domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.KV.Set(ctx, SettingsKey(userID), string(raw)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *SessionService) applySettings(ctx context.Context, settings domain.Settings) {
	if s.Applier != nil {
		s.Applier.Apply(ctx, settings)
	}
}

// CurrentSettings returns the active user's settings, creating defaults when
// none are stored.
func (s *SessionService) CurrentSettings(ctx context.Context) (domain.Settings, error) {
	if s.current == nil {
		return domain.Settings{}, ErrNotAuthenticated
	}
	return s.settingsOrDefaults(ctx, s.current.UserID), nil
}

// UpdateSetting sets one field of the current user's settings, persists the
// record, and re-applies all settings through the applier. It is a no-op when
// no session is active.
func (s *SessionService) UpdateSetting(ctx context.Context, key string, value any) error {
	if s.current == nil {
		return nil
	}

	settings := s.settingsOrDefaults(ctx, s.current.UserID)

	switch key {
	case SettingTheme:
		v, err := settingString(key, value)
		if err != nil {
			return err
		}
		settings.Theme = v
	case SettingFontSize:
		v, err := settingString(key, value)
		if err != nil {
			return err
		}
		settings.FontSize = v
	case SettingReducedMotion:
		v, err := settingBool(key, value)
		if err != nil {
			return err
		}
		settings.ReducedMotion = v
	case SettingHighContrast:
		v, err := settingBool(key, value)
		if err != nil {
			return err
		}
		settings.HighContrast = v
	case SettingSaveHistory:
		v, err := settingBool(key, value)
		if err != nil {
			return err
		}
		settings.SaveHistory = v
	case SettingPersonalizedRecommendations:
		v, err := settingBool(key, value)
		if err != nil {
			return err
		}
		settings.PersonalizedRecommendations = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}

	if err := s.saveSettings(ctx, s.current.UserID, settings); err != nil {
		return err
	}

	s.applySettings(ctx, settings)
	return nil
}

func settingString(key string, value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("setting %q expects a string, got %T", key, value)
	}
	return v, nil
}

func settingBool(key string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("setting %q expects a bool, got %T", key, value)
	}
	return v, nil
}
