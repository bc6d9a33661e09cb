package domain

import "time"

// Theme values accepted by Settings.Theme.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Settings is the per-user preference bag, keyed by account id in storage.
type Settings struct {
	Theme                       string    `json:"theme"` // light | dark | system
	ReducedMotion               bool      `json:"reducedMotion"`
	FontSize                    string    `json:"fontSize"`
	HighContrast                bool      `json:"highContrast"`
	SaveHistory                 bool      `json:"saveHistory"`
	PersonalizedRecommendations bool      `json:"personalizedRecommendations"`
	LastLogin                   time.Time `json:"lastLogin"`
}

// DefaultSettings returns the settings written at account creation, and the
// fallback used when a settings record is missing or unreadable.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		Theme:                       ThemeLight,
		ReducedMotion:               false,
		FontSize:                    "medium",
		HighContrast:                false,
		SaveHistory:                 true,
		PersonalizedRecommendations: true,
		LastLogin:                   now,
	}
}
