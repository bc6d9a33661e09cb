package app

import (
	"fmt"
	"log/slog"

	"github.com/libertybell/apstudy/internal/study/service"
	"github.com/libertybell/apstudy/internal/study/storage"
	"github.com/libertybell/apstudy/internal/study/storage/drivers/memory"
	"github.com/libertybell/apstudy/internal/study/storage/drivers/sqlite"
	"github.com/libertybell/apstudy/pkg/slogx"
)

// BuildVersion is stamped into logs; overridden via ldflags in release builds.
const BuildVersion = "v0.1.0"

// Application wires the storage backend and services together once per
// process.
type Application struct {
	cfg    Config
	logger *slog.Logger

	kv storage.KV

	Sessions *service.SessionService
	Progress *service.ProgressService
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "apstudy",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStorage(); err != nil {
		return nil, err
	}
	app.initServices()

	return app, nil
}

// Close releases the storage backend.
func (app *Application) Close() error {
	return app.kv.Close()
}

// KV exposes the storage substrate for unauthenticated-mode UI toggles that
// write the legacy global keys directly.
func (app *Application) KV() storage.KV { return app.kv }

func (app *Application) initStorage() error {
	switch app.cfg.StorageDriver {
	case "memory":
		app.kv = memory.New()
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		store, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.ApplyMigrations(); err != nil {
			_ = store.Close()
			return fmt.Errorf("failed to apply storage migrations: %w", err)
		}
		app.kv = store
	default:
		return fmt.Errorf("unknown storage driver %q", app.cfg.StorageDriver)
	}

	app.logger.Debug("storage initialized", "driver", app.cfg.StorageDriver)
	return nil
}

func (app *Application) initServices() {
	sessions := service.NewSessionService(app.kv)
	sessions.Logger = app.logger
	sessions.Applier = &terminalApplier{logger: app.logger}
	if app.cfg.LoginAttempts > 0 {
		sessions.Throttle = service.NewLoginThrottle(app.cfg.LoginAttempts, app.cfg.LoginWindow)
	}

	app.Sessions = sessions
	app.Progress = &service.ProgressService{Sessions: sessions}
}
