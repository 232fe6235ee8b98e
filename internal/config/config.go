package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/taskbg/internal/style"
)

const (
	DefaultDebounceMS = 200
	minDebounceMS     = 10
	maxDebounceMS     = 10000
)

// DarkModeSource selects where dark mode is read from.
type DarkModeSource string

const (
	DarkModeAuto  DarkModeSource = "auto"
	DarkModeDark  DarkModeSource = "dark"
	DarkModeLight DarkModeSource = "light"
)

// ColorConfig is one configured taskbar color.
type ColorConfig struct {
	Red          int  `yaml:"red"`
	Green        int  `yaml:"green"`
	Blue         int  `yaml:"blue"`
	AccentColor  bool `yaml:"accent_color"`
	Transparency int  `yaml:"transparency"`
}

// DarkModeStyleConfig is the optional style used while the dark theme is
// active.
type DarkModeStyleConfig struct {
	Use             bool        `yaml:"use"`
	BackgroundStyle string      `yaml:"background_style"`
	Color           ColorConfig `yaml:"color"`
}

// SurfacesConfig overrides how taskbar windows are recognized.
type SurfacesConfig struct {
	// PrimaryClass is the window class of the main taskbar (platform default
	// when empty).
	PrimaryClass string `yaml:"primary_class,omitempty"`
	// SecondaryClass is the window class of per-display taskbars.
	SecondaryClass string `yaml:"secondary_class,omitempty"`
	// HostProcess restricts surfaces to windows of this process (X11 only).
	HostProcess string `yaml:"host_process,omitempty"`
}

// ThemeConfig configures the dark mode source.
type ThemeConfig struct {
	DarkMode DarkModeSource `yaml:"dark_mode"`
}

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is an optional log file path; stderr only when empty
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config is the effective taskbg configuration.
type Config struct {
	BackgroundStyle          string              `yaml:"background_style"`
	Color                    ColorConfig         `yaml:"color"`
	OnlyWhenMaximized        bool                `yaml:"only_when_maximized"`
	StyleForDarkMode         DarkModeStyleConfig `yaml:"style_for_dark_mode"`
	DebounceMS               int                 `yaml:"debounce_ms"`
	ReconcileIntervalSeconds int                 `yaml:"reconcile_interval_seconds"`
	Surfaces                 SurfacesConfig      `yaml:"surfaces"`
	Theme                    ThemeConfig         `yaml:"theme"`
	Logging                  LoggingConfig       `yaml:"logging"`
}

func defaultColor() ColorConfig {
	return ColorConfig{
		Red:          255,
		Green:        127,
		Blue:         39,
		Transparency: 128,
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		BackgroundStyle:   string(style.BackgroundBlur),
		Color:             defaultColor(),
		OnlyWhenMaximized: true,
		StyleForDarkMode: DarkModeStyleConfig{
			BackgroundStyle: string(style.BackgroundBlur),
			Color:           defaultColor(),
		},
		DebounceMS: DefaultDebounceMS,
		Theme:      ThemeConfig{DarkMode: DarkModeAuto},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// Settings converts the configuration into engine settings.
func (c *Config) Settings() style.Settings {
	s := style.Settings{
		Style:             c.Color.taskbarStyle(c.BackgroundStyle),
		OnlyWhenMaximized: c.OnlyWhenMaximized,
	}
	if c.StyleForDarkMode.Use {
		dark := c.StyleForDarkMode.Color.taskbarStyle(c.StyleForDarkMode.BackgroundStyle)
		s.DarkModeStyle = &dark
	}
	return s
}

func (cc ColorConfig) taskbarStyle(background string) style.TaskbarStyle {
	return style.TaskbarStyle{
		Background:     style.ParseBackgroundStyle(background),
		Color:          style.RGBA(uint8(cc.Red), uint8(cc.Green), uint8(cc.Blue), uint8(cc.Transparency)),
		UseAccentColor: cc.AccentColor,
	}
}

// DebounceInterval returns the listener quiet period.
func (c *Config) DebounceInterval() time.Duration {
	if c.DebounceMS <= 0 {
		return DefaultDebounceMS * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// ReconcileInterval returns the periodic reapply interval; zero disables it.
func (c *Config) ReconcileInterval() time.Duration {
	if c.ReconcileIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{Level: "info", MaxSizeMB: 10, MaxFiles: 3}
	}
	cfg := c.Logging
	if strings.HasPrefix(cfg.File, "~/") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			cfg.File = filepath.Join(home, cfg.File[2:])
		}
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if err := validateColor("color", c.Color); err != nil {
		return err
	}
	if c.StyleForDarkMode.Use {
		if err := validateColor("style_for_dark_mode.color", c.StyleForDarkMode.Color); err != nil {
			return err
		}
	}
	if c.DebounceMS < minDebounceMS || c.DebounceMS > maxDebounceMS {
		return &ValidationError{Path: "debounce_ms", Err: fmt.Errorf("debounce_ms must be between %d and %d", minDebounceMS, maxDebounceMS)}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}
	switch c.Theme.DarkMode {
	case DarkModeAuto, DarkModeDark, DarkModeLight:
	default:
		return &ValidationError{Path: "theme.dark_mode", Err: fmt.Errorf("dark_mode must be one of: auto, dark, light")}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

// Warnings lists settings that are accepted but probably not what the user
// meant.
func (c *Config) Warnings() []string {
	if c == nil {
		return nil
	}

	var warnings []string
	if !style.BackgroundStyle(c.BackgroundStyle).Valid() {
		warnings = append(warnings, fmt.Sprintf("background_style %q is unknown; blur will be used", c.BackgroundStyle))
	}
	if c.StyleForDarkMode.Use && !style.BackgroundStyle(c.StyleForDarkMode.BackgroundStyle).Valid() {
		warnings = append(warnings, fmt.Sprintf("style_for_dark_mode.background_style %q is unknown; blur will be used", c.StyleForDarkMode.BackgroundStyle))
	}
	if !c.OnlyWhenMaximized && c.DebounceMS != DefaultDebounceMS {
		warnings = append(warnings, "debounce_ms has no effect while only_when_maximized is false")
	}
	return warnings
}

func validateColor(path string, cc ColorConfig) error {
	components := []struct {
		name  string
		value int
	}{
		{"red", cc.Red},
		{"green", cc.Green},
		{"blue", cc.Blue},
		{"transparency", cc.Transparency},
	}
	for _, comp := range components {
		if comp.value < 0 || comp.value > 255 {
			return &ValidationError{Path: path + "." + comp.name, Err: fmt.Errorf("%s must be between 0 and 255", comp.name)}
		}
	}
	return nil
}
