// Package theme reads the desktop's dark mode flag and accent color.
package theme

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/taskbg/internal/config"
	"github.com/1broseidon/taskbg/internal/style"
)

// ErrNoAccentColor is returned when the system exposes no accent color.
var ErrNoAccentColor = errors.New("no accent color available")

// Static is a fixed theme, used when no system source exists and in tests.
type Static struct {
	Dark   bool
	Accent *style.RGB
}

var _ style.Theme = Static{}

func (s Static) IsDarkModeActive() bool { return s.Dark }

func (s Static) AccentColor() (style.RGB, error) {
	if s.Accent == nil {
		return style.RGB{}, ErrNoAccentColor
	}
	return *s.Accent, nil
}

// forced pins the dark mode flag and keeps the accent color lookup.
type forced struct {
	base style.Theme
	dark bool
}

func (f forced) IsDarkModeActive() bool { return f.dark }

func (f forced) AccentColor() (style.RGB, error) {
	return f.base.AccentColor()
}

// New returns the system theme source, with dark mode pinned when source is
// not auto.
func New(source config.DarkModeSource, logger *slog.Logger) style.Theme {
	if logger == nil {
		logger = slog.Default()
	}
	return WithOverride(newSystem(logger), source)
}

// WithOverride applies the configured dark mode source on top of base.
func WithOverride(base style.Theme, source config.DarkModeSource) style.Theme {
	switch source {
	case config.DarkModeDark:
		return forced{base: base, dark: true}
	case config.DarkModeLight:
		return forced{base: base, dark: false}
	default:
		return base
	}
}
