package style

import "strings"

// BackgroundStyle is the user-selected rendering mode for taskbar surfaces.
type BackgroundStyle string

const (
	BackgroundBlur        BackgroundStyle = "blur"
	BackgroundAcrylicBlur BackgroundStyle = "acrylicBlur"
	BackgroundColor       BackgroundStyle = "color"
)

// ParseBackgroundStyle maps a configured value to a BackgroundStyle.
// Unrecognized values fall back to blur.
func ParseBackgroundStyle(s string) BackgroundStyle {
	switch strings.TrimSpace(s) {
	case string(BackgroundAcrylicBlur):
		return BackgroundAcrylicBlur
	case string(BackgroundColor):
		return BackgroundColor
	default:
		return BackgroundBlur
	}
}

// Valid reports whether b is one of the known styles.
func (b BackgroundStyle) Valid() bool {
	switch b {
	case BackgroundBlur, BackgroundAcrylicBlur, BackgroundColor:
		return true
	default:
		return false
	}
}

// Color is a packed color value: R | G<<8 | B<<16 | A<<24.
// The A byte carries the configured transparency.
type Color uint32

// RGBA packs the given components.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24)
}

func (c Color) R() uint8 { return uint8(c) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c >> 16) }
func (c Color) A() uint8 { return uint8(c >> 24) }

// WithRGB replaces the color components and keeps the alpha byte.
func (c Color) WithRGB(rgb RGB) Color {
	return RGBA(rgb.R, rgb.G, rgb.B, c.A())
}

// RGB is an opaque color as reported by a theme source.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// TaskbarStyle is one complete style definition.
type TaskbarStyle struct {
	Background     BackgroundStyle
	Color          Color
	UseAccentColor bool
}

// Settings is the process-wide styling configuration. A Settings value is
// never mutated after construction; reloads produce a new value.
type Settings struct {
	Style             TaskbarStyle
	OnlyWhenMaximized bool
	DarkModeStyle     *TaskbarStyle
}

// DefaultSettings returns the documented defaults used when no
// configuration can be loaded.
func DefaultSettings() Settings {
	return Settings{
		Style: TaskbarStyle{
			Background: BackgroundBlur,
			Color:      RGBA(255, 127, 39, 128),
		},
		OnlyWhenMaximized: true,
	}
}

// NeedsListener reports whether the settings require event-driven
// occupancy detection.
func (s Settings) NeedsListener() bool {
	return s.OnlyWhenMaximized
}
