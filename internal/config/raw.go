package config

type RawColor struct {
	Red          *int  `yaml:"red"`
	Green        *int  `yaml:"green"`
	Blue         *int  `yaml:"blue"`
	AccentColor  *bool `yaml:"accent_color"`
	Transparency *int  `yaml:"transparency"`
}

type RawDarkModeStyle struct {
	Use             *bool     `yaml:"use"`
	BackgroundStyle *string   `yaml:"background_style"`
	Color           *RawColor `yaml:"color"`
}

type RawSurfaces struct {
	PrimaryClass   *string `yaml:"primary_class"`
	SecondaryClass *string `yaml:"secondary_class"`
	HostProcess    *string `yaml:"host_process"`
}

type RawTheme struct {
	DarkMode *DarkModeSource `yaml:"dark_mode"`
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

// RawConfig mirrors the YAML file. Nil fields were not set and keep their
// defaults.
type RawConfig struct {
	BackgroundStyle          *string           `yaml:"background_style"`
	Color                    *RawColor         `yaml:"color"`
	OnlyWhenMaximized        *bool             `yaml:"only_when_maximized"`
	StyleForDarkMode         *RawDarkModeStyle `yaml:"style_for_dark_mode"`
	DebounceMS               *int              `yaml:"debounce_ms"`
	ReconcileIntervalSeconds *int              `yaml:"reconcile_interval_seconds"`
	Surfaces                 *RawSurfaces      `yaml:"surfaces"`
	Theme                    *RawTheme         `yaml:"theme"`
	Logging                  *RawLoggingConfig `yaml:"logging"`
}
