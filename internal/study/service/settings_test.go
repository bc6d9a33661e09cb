package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libertybell/apstudy/internal/study/domain"
)

// recordingApplier captures the settings handed to the UI hook.
type recordingApplier struct {
	applied []domain.Settings
	resets  int
}

func (r *recordingApplier) Apply(_ context.Context, settings domain.Settings) {
	r.applied = append(r.applied, settings)
}

func (r *recordingApplier) Reset(_ context.Context) { r.resets++ }

func TestCurrentSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CurrentSettings(ctx)
		require.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("defaults for a fresh account", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreateAccount(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)

		settings, err := svc.CurrentSettings(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.ThemeLight, settings.Theme)
		require.Equal(t, "medium", settings.FontSize)
		require.False(t, settings.ReducedMotion)
		require.False(t, settings.HighContrast)
		require.True(t, settings.SaveHistory)
		require.True(t, settings.PersonalizedRecommendations)
	})

	t.Run("recreates defaults when the record is corrupt", func(t *testing.T) {
		svc, kv := newTestService(t)
		account, err := svc.CreateAccount(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)

		require.NoError(t, kv.Set(ctx, SettingsKey(account.ID), "}{"))

		settings, err := svc.CurrentSettings(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.ThemeLight, settings.Theme)

		// The rewritten record is valid again.
		raw, err := kv.Get(ctx, SettingsKey(account.ID))
		require.NoError(t, err)
		require.Contains(t, raw, `"theme":"light"`)
	})
}

func TestUpdateSetting(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op without a session", func(t *testing.T) {
		svc, kv := newTestService(t)
		require.NoError(t, svc.UpdateSetting(ctx, SettingTheme, domain.ThemeDark))
		require.Zero(t, kv.Len())
	})

	t.Run("persists across restart", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreateAccount(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)

		require.NoError(t, svc.UpdateSetting(ctx, SettingTheme, domain.ThemeDark))
		require.NoError(t, svc.UpdateSetting(ctx, SettingReducedMotion, true))
		require.NoError(t, svc.UpdateSetting(ctx, SettingFontSize, "large"))

		fresh := reopen(t, svc)
		require.True(t, fresh.RestoreSession(ctx))

		settings, err := fresh.CurrentSettings(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.ThemeDark, settings.Theme)
		require.True(t, settings.ReducedMotion)
		require.Equal(t, "large", settings.FontSize)
		// Untouched fields keep their defaults.
		require.True(t, settings.SaveHistory)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreateAccount(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)

		err = svc.UpdateSetting(ctx, "volume", 11)
		require.ErrorIs(t, err, ErrUnknownSetting)
	})

	t.Run("rejects mistyped values", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreateAccount(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "student@example.com", "hunter22")
		require.NoError(t, err)

		require.Error(t, svc.UpdateSetting(ctx, SettingTheme, true))
		require.Error(t, svc.UpdateSetting(ctx, SettingHighContrast, "yes"))
	})
}

func TestSettingsApplier(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(t)
	applier := &recordingApplier{}
	svc.Applier = applier

	_, err := svc.CreateAccount(ctx, "student@example.com", "hunter22")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "student@example.com", "hunter22")
	require.NoError(t, err)

	// Login applies the stored settings.
	require.Len(t, applier.applied, 1)
	require.Equal(t, domain.ThemeLight, applier.applied[0].Theme)

	// Every change re-applies the full record.
	require.NoError(t, svc.UpdateSetting(ctx, SettingTheme, domain.ThemeDark))
	require.Len(t, applier.applied, 2)
	require.Equal(t, domain.ThemeDark, applier.applied[1].Theme)
	require.Equal(t, "medium", applier.applied[1].FontSize)

	// Logout resets the UI.
	svc.Logout(ctx)
	require.Equal(t, 1, applier.resets)
}
