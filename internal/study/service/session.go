package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/libertybell/apstudy/internal/study/domain"
	"github.com/libertybell/apstudy/internal/study/storage"
	"github.com/libertybell/apstudy/pkg/cryptox"
	"github.com/libertybell/apstudy/pkg/idx"
)

var (
	// ErrDuplicateAccount reports an account creation attempt with an email
	// that is already registered.
	ErrDuplicateAccount = errors.New("an account with this email already exists")

	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	// The two cases are deliberately indistinguishable so callers cannot
	// enumerate registered accounts.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrNotAuthenticated reports a mutating operation attempted with no
	// active session.
	ErrNotAuthenticated = errors.New("no user logged in")

	// ErrTooManyAttempts reports that the login throttle rejected an attempt.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Storage keys. The account directory and session record are the only keys
// the session service writes outside the per-user namespace.
const (
	KeyUsers   = "apush_users"
	KeySession = "apush_session"

	// Legacy global keys from the pre-multi-user data layout. The progress
	// key is the read-only migration source; the theme/motion keys are
	// written by unauthenticated-mode UI toggles and cleared on logout.
	KeyLegacyProgress      = "userProgress"
	KeyLegacyTheme         = "theme"
	KeyLegacyReducedMotion = "reducedMotion"
)

// UserInfo is the read-model handed to UI collaborators.
type UserInfo struct {
	ID        string
	Email     string
	CreatedAt time.Time
	LastLogin *time.Time
	Settings  domain.Settings
}

// SessionService is the account and session manager. It owns the account
// directory and the active session record, namespaces all per-user durable
// data, and migrates legacy single-user progress into the per-account layout.
//
// It is constructed once per process with its storage and clock injected.
// The UI runs single threaded, so the service does no locking of its own;
// concurrent callers against the same backend are last-write-wins.
type SessionService struct {
	KV       storage.KV
	Logger   *slog.Logger     // optional, defaults to slog.Default
	Applier  SettingsApplier  // optional UI hook, see settings.go
	Throttle *LoginThrottle   // optional per-email login throttle
	Now      func() time.Time // injectable clock, defaults to time.Now

	users   domain.Directory
	loaded  bool
	current *domain.Session
}

func NewSessionService(kv storage.KV) *SessionService {
	return &SessionService{
		KV:    kv,
		Now:   time.Now,
		users: domain.Directory{},
	}
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ensureLoaded reads the account directory on first use. A missing key means
// a fresh install; a corrupt record is logged and treated as empty rather
// than crashing (the directory is rebuilt as accounts are created).
func (s *SessionService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	raw, err := s.KV.Get(ctx, KeyUsers)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// fresh install
	case err != nil:
		return fmt.Errorf("load account directory: %w", err)
	default:
		var users domain.Directory
		if jsonErr := json.Unmarshal([]byte(raw), &users); jsonErr != nil {
			s.log().Error("account directory is corrupt, starting empty", "error", jsonErr)
		} else {
			s.users = users
		}
	}

	s.loaded = true
	return nil
}

func (s *SessionService) saveUsers(ctx context.Context) error {
	raw, err := json.Marshal(s.users)
	if err != nil {
		return fmt.Errorf("encode account directory: %w", err)
	}
	if err := s.KV.Set(ctx, KeyUsers, string(raw)); err != nil {
		return fmt.Errorf("save account directory: %w", err)
	}
	return nil
}

// CreateAccount registers a new account. It persists the account into the
// directory and writes default settings under the fresh id. It does NOT start
// a session; callers authenticate (or call CreateSession) as a separate step.
func (s *SessionService) CreateAccount(ctx context.Context, email, password string) (domain.Account, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Account{}, err
	}

	normalized := domain.NormalizeEmail(email)
	if _, exists := s.users[normalized]; exists {
		return domain.Account{}, ErrDuplicateAccount
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        normalized,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	s.users[normalized] = account
	if err := s.saveUsers(ctx); err != nil {
		return domain.Account{}, err
	}

	if err := s.saveSettings(ctx, account.ID, domain.DefaultSettings(s.now())); err != nil {
		// The account exists; settings are recreated lazily on first read.
		s.log().Warn("failed to persist default settings", "user_id", account.ID, "error", err)
	}

	s.log().Info("account created", "user_id", account.ID)
	return account, nil
}

// Authenticate verifies credentials and, on success, stamps LastLogin,
// persists the directory, and starts a session (settings applied, progress
// loaded and migrated if needed).
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Account{}, err
	}

	normalized := domain.NormalizeEmail(email)

	if s.Throttle != nil && !s.Throttle.Allow(normalized) {
		s.log().Warn("login throttled", "email", normalized)
		return domain.Account{}, ErrTooManyAttempts
	}

	account, exists := s.users[normalized]
	if !exists {
		return domain.Account{}, ErrInvalidCredentials
	}
	if cryptox.VerifyPassword(password, account.PasswordHash) != nil {
		return domain.Account{}, ErrInvalidCredentials
	}

	now := s.now()
	account.LastLogin = &now
	s.users[normalized] = account
	if err := s.saveUsers(ctx); err != nil {
		return domain.Account{}, err
	}

	if err := s.CreateSession(ctx, account); err != nil {
		return domain.Account{}, err
	}

	s.log().Info("user authenticated", "user_id", account.ID)
	return account, nil
}

// CreateSession builds and persists a fresh session for the account, applies
// the account's settings, and loads progress (running legacy migration when
// needed).
func (s *SessionService) CreateSession(ctx context.Context, account domain.Account) error {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("generate session token: %w", err)
	}

	session := domain.Session{
		UserID:       account.ID,
		Email:        account.Email,
		SessionToken: token,
		LoginTime:    s.now(),
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.KV.Set(ctx, KeySession, string(raw)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.current = &session

	s.applySettings(ctx, s.settingsOrDefaults(ctx, account.ID))

	if _, err := s.LoadProgress(ctx); err != nil {
		s.log().Warn("failed to load progress on session start", "user_id", account.ID, "error", err)
	}

	return nil
}

// RestoreSession re-establishes a persisted session on process start. A
// corrupt session record degrades to the anonymous state (implicit logout)
// instead of propagating. Safe to call repeatedly.
func (s *SessionService) RestoreSession(ctx context.Context) bool {
	if err := s.ensureLoaded(ctx); err != nil {
		s.log().Error("failed to load account directory during restore", "error", err)
		return false
	}

	raw, err := s.KV.Get(ctx, KeySession)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		s.log().Error("failed to read session record", "error", err)
		return false
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		s.log().Warn("session record is corrupt, logging out", "error", err)
		s.Logout(ctx)
		return false
	}

	s.current = &session

	s.applySettings(ctx, s.settingsOrDefaults(ctx, session.UserID))

	if _, err := s.LoadProgress(ctx); err != nil {
		s.log().Warn("failed to load progress on session restore", "user_id", session.UserID, "error", err)
	}

	return true
}

// Logout clears the persisted session and the in-memory current-user pointer,
// and resets the applied UI state to system defaults by removing the legacy
// global keys. Per-account settings and progress are left untouched.
func (s *SessionService) Logout(ctx context.Context) {
	if err := s.KV.Delete(ctx, KeySession); err != nil {
		s.log().Error("failed to clear session record", "error", err)
	}
	s.current = nil

	for _, key := range []string{KeyLegacyTheme, KeyLegacyReducedMotion} {
		if err := s.KV.Delete(ctx, key); err != nil {
			s.log().Error("failed to clear legacy UI key", "key", key, "error", err)
		}
	}

	if s.Applier != nil {
		s.Applier.Reset(ctx)
	}

	s.log().Info("logged out")
}

// ChangePassword replaces the current user's credential hash after verifying
// the old password.
func (s *SessionService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if s.current == nil {
		return ErrNotAuthenticated
	}

	account, exists := s.users[s.current.Email]
	if !exists {
		return ErrInvalidCredentials
	}
	if cryptox.VerifyPassword(oldPassword, account.PasswordHash) != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = hash
	s.users[s.current.Email] = account
	if err := s.saveUsers(ctx); err != nil {
		return err
	}

	s.log().Info("password changed", "user_id", account.ID)
	return nil
}

// IsAuthenticated reports whether a session is active.
func (s *SessionService) IsAuthenticated() bool { return s.current != nil }

// CurrentUser returns the active session, or nil when anonymous.
func (s *SessionService) CurrentUser() *domain.Session {
	if s.current == nil {
		return nil
	}
	session := *s.current
	return &session
}

// RequireAuth is the guard UI collaborators call before rendering an
// authenticated view; redirecting on failure is the caller's concern.
func (s *SessionService) RequireAuth() error {
	if s.current == nil {
		return ErrNotAuthenticated
	}
	return nil
}

// UserInfo returns the current user's identity and settings for display.
func (s *SessionService) UserInfo(ctx context.Context) (UserInfo, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return UserInfo{}, err
	}
	if s.current == nil {
		return UserInfo{}, ErrNotAuthenticated
	}

	info := UserInfo{
		ID:       s.current.UserID,
		Email:    s.current.Email,
		Settings: s.settingsOrDefaults(ctx, s.current.UserID),
	}

	if account, exists := s.users[s.current.Email]; exists {
		info.CreatedAt = account.CreatedAt
		info.LastLogin = account.LastLogin
	}

	return info, nil
}
