package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies every field set in raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.BackgroundStyle != nil {
		cfg.BackgroundStyle = *raw.BackgroundStyle
	}
	if raw.Color != nil {
		applyColor(&cfg.Color, raw.Color)
	}
	if raw.OnlyWhenMaximized != nil {
		cfg.OnlyWhenMaximized = *raw.OnlyWhenMaximized
	}
	if raw.StyleForDarkMode != nil {
		dark := raw.StyleForDarkMode
		if dark.Use != nil {
			cfg.StyleForDarkMode.Use = *dark.Use
		}
		if dark.BackgroundStyle != nil {
			cfg.StyleForDarkMode.BackgroundStyle = *dark.BackgroundStyle
		}
		if dark.Color != nil {
			applyColor(&cfg.StyleForDarkMode.Color, dark.Color)
		}
	}
	if raw.DebounceMS != nil {
		cfg.DebounceMS = *raw.DebounceMS
	}
	if raw.ReconcileIntervalSeconds != nil {
		cfg.ReconcileIntervalSeconds = *raw.ReconcileIntervalSeconds
	}
	if raw.Surfaces != nil {
		if raw.Surfaces.PrimaryClass != nil {
			cfg.Surfaces.PrimaryClass = *raw.Surfaces.PrimaryClass
		}
		if raw.Surfaces.SecondaryClass != nil {
			cfg.Surfaces.SecondaryClass = *raw.Surfaces.SecondaryClass
		}
		if raw.Surfaces.HostProcess != nil {
			cfg.Surfaces.HostProcess = *raw.Surfaces.HostProcess
		}
	}
	if raw.Theme != nil && raw.Theme.DarkMode != nil {
		cfg.Theme.DarkMode = *raw.Theme.DarkMode
	}
	if raw.Logging != nil {
		if raw.Logging.Level != nil {
			cfg.Logging.Level = *raw.Logging.Level
		}
		if raw.Logging.File != nil {
			cfg.Logging.File = *raw.Logging.File
		}
		if raw.Logging.MaxSizeMB != nil {
			cfg.Logging.MaxSizeMB = *raw.Logging.MaxSizeMB
		}
		if raw.Logging.MaxFiles != nil {
			cfg.Logging.MaxFiles = *raw.Logging.MaxFiles
		}
	}

	return cfg
}

func applyColor(dst *ColorConfig, raw *RawColor) {
	dst.Red = derefInt(raw.Red, dst.Red)
	dst.Green = derefInt(raw.Green, dst.Green)
	dst.Blue = derefInt(raw.Blue, dst.Blue)
	dst.Transparency = derefInt(raw.Transparency, dst.Transparency)
	if raw.AccentColor != nil {
		dst.AccentColor = *raw.AccentColor
	}
}

func derefInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
