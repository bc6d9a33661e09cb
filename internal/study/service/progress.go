package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/libertybell/apstudy/internal/study/domain"
	"github.com/libertybell/apstudy/internal/study/storage"
)

// ProgressKey derives the storage key for a user's progress record. With an
// explicit id (or an active session) it is user_<id>_progress; otherwise the
// legacy global key. This is the single source of truth for progress
// namespacing — every read and write routes through it.
func (s *SessionService) ProgressKey(userID string) string {
	if userID == "" && s.current != nil {
		userID = s.current.UserID
	}
	if userID == "" {
		return KeyLegacyProgress
	}
	return "user_" + userID + "_progress"
}

// LoadProgress returns the current user's progress record. When the
// user-specific key is empty it migrates the legacy global record — copying,
// never deleting, so migration is non-destructive and re-running it cannot
// overwrite data the user key already has. With nothing to migrate it returns
// a zero-valued record. A corrupt record likewise degrades to the zero value.
func (s *SessionService) LoadProgress(ctx context.Context) (domain.Progress, error) {
	key := s.ProgressKey("")

	raw, err := s.KV.Get(ctx, key)
	if err == nil {
		return s.decodeProgress(raw), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.NewProgress(), fmt.Errorf("load progress: %w", err)
	}

	if key != KeyLegacyProgress {
		legacy, err := s.KV.Get(ctx, KeyLegacyProgress)
		if err == nil {
			// Copy the legacy blob verbatim under the user key. The legacy
			// key stays in place as the pre-migration record of truth.
			if err := s.KV.Set(ctx, key, legacy); err != nil {
				return domain.NewProgress(), fmt.Errorf("migrate legacy progress: %w", err)
			}
			s.log().Info("migrated legacy progress", "key", key)
			return s.decodeProgress(legacy), nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return domain.NewProgress(), fmt.Errorf("read legacy progress: %w", err)
		}
	}

	return domain.NewProgress(), nil
}

// SaveProgress persists the record under the derived progress key.
func (s *SessionService) SaveProgress(ctx context.Context, progress domain.Progress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.KV.Set(ctx, s.ProgressKey(""), string(raw)); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// ClearProgress deletes a user's progress record. The account directory entry
// and settings are deliberately retained: clearing progress wipes learning
// state, not the account. No-op when no user can be resolved.
func (s *SessionService) ClearProgress(ctx context.Context, userID string) error {
	if userID == "" && s.current == nil {
		return nil
	}
	if err := s.KV.Delete(ctx, s.ProgressKey(userID)); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

func (s *SessionService) decodeProgress(raw string) domain.Progress {
	var progress domain.Progress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		s.log().Warn("progress record is corrupt, starting empty", "error", err)
		return domain.NewProgress()
	}
	progress.Normalize()
	return progress
}
