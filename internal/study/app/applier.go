package app

import (
	"context"
	"log/slog"

	"github.com/libertybell/apstudy/internal/study/domain"
)

// terminalApplier is the CLI's stand-in for the browser document root: the
// web app sets data-* attributes, we record the applied state in the log.
type terminalApplier struct {
	logger *slog.Logger
}

func (a *terminalApplier) Apply(_ context.Context, settings domain.Settings) {
	a.logger.Debug("settings applied",
		"theme", settings.Theme,
		"reduced_motion", settings.ReducedMotion,
		"font_size", settings.FontSize,
		"high_contrast", settings.HighContrast,
	)
}

func (a *terminalApplier) Reset(_ context.Context) {
	a.logger.Debug("settings reset to system defaults")
}
