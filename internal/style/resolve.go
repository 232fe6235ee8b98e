package style

import (
	"log/slog"
)

// Theme is the personalization source consulted during resolution. Both
// lookups are best effort.
type Theme interface {
	IsDarkModeActive() bool
	AccentColor() (RGB, error)
}

// Resolver maps settings to a concrete accent policy.
type Resolver struct {
	theme  Theme
	logger *slog.Logger
}

// NewResolver creates a resolver backed by the given theme source. A nil
// theme behaves like a light theme without an accent color.
func NewResolver(theme Theme, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{theme: theme, logger: logger}
}

// Resolve returns the policy for the active style. It never fails: when the
// accent color cannot be read the configured color is used.
func (r *Resolver) Resolve(s Settings) AccentPolicy {
	st := r.activeStyle(s)

	policy := AccentPolicy{Color: st.Color}
	switch st.Background {
	case BackgroundAcrylicBlur:
		policy.State = AccentAcrylicBlurBehind
	case BackgroundColor:
		policy.State = AccentTransparentGradient
		policy.Flags = DefaultFlags
	default:
		policy.State = AccentBlurBehind
	}

	if st.UseAccentColor {
		policy.Color = r.accentColor(st.Color)
	}
	return policy
}

func (r *Resolver) activeStyle(s Settings) TaskbarStyle {
	if s.DarkModeStyle != nil && r.theme != nil && r.theme.IsDarkModeActive() {
		return *s.DarkModeStyle
	}
	return s.Style
}

func (r *Resolver) accentColor(configured Color) Color {
	if r.theme == nil {
		return configured
	}
	rgb, err := r.theme.AccentColor()
	if err != nil {
		r.logger.Debug("accent color unavailable, using configured color",
			"error", err,
			"color", configured)
		return configured
	}
	return configured.WithRGB(rgb)
}
