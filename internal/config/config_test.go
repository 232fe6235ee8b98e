package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/taskbg/internal/style"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if got := cfg.Settings(); got != style.DefaultSettings() {
		t.Fatalf("default config settings = %+v, want %+v", got, style.DefaultSettings())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Exists {
		t.Fatalf("expected Exists=false for a missing file")
	}
	if res.Config.DebounceMS != DefaultDebounceMS {
		t.Fatalf("expected debounce %d, got %d", DefaultDebounceMS, res.Config.DebounceMS)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "# empty\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.OnlyWhenMaximized {
		t.Fatalf("expected only_when_maximized default true")
	}
	if res.Config.BackgroundStyle != "blur" {
		t.Fatalf("expected background_style blur, got %q", res.Config.BackgroundStyle)
	}
}

func TestLoadFromPath_PartialColorKeepsDefaults(t *testing.T) {
	data := strings.Join([]string{
		"background_style: color",
		"color:",
		"  red: 10",
		"  transparency: 200",
		"",
	}, "\n")
	res, err := LoadFromPath(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := res.Config.Settings().Style
	want := style.TaskbarStyle{
		Background: style.BackgroundColor,
		Color:      style.RGBA(10, 127, 39, 200),
	}
	if got != want {
		t.Fatalf("style = %+v, want %+v", got, want)
	}
}

func TestLoadFromPath_DarkModeStyle(t *testing.T) {
	data := strings.Join([]string{
		"only_when_maximized: false",
		"style_for_dark_mode:",
		"  use: true",
		"  background_style: acrylicBlur",
		"  color:",
		"    red: 0",
		"    green: 0",
		"    blue: 0",
		"    accent_color: true",
		"    transparency: 64",
		"",
	}, "\n")
	res, err := LoadFromPath(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := res.Config.Settings()
	if s.OnlyWhenMaximized {
		t.Fatalf("expected only_when_maximized false")
	}
	if s.DarkModeStyle == nil {
		t.Fatalf("expected dark mode style")
	}
	want := style.TaskbarStyle{
		Background:     style.BackgroundAcrylicBlur,
		Color:          style.RGBA(0, 0, 0, 64),
		UseAccentColor: true,
	}
	if *s.DarkModeStyle != want {
		t.Fatalf("dark style = %+v, want %+v", *s.DarkModeStyle, want)
	}
}

func TestLoadFromPath_DarkModeStyleUnusedIsNil(t *testing.T) {
	data := "style_for_dark_mode:\n  background_style: color\n"
	res, err := LoadFromPath(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Settings().DarkModeStyle != nil {
		t.Fatalf("expected no dark mode style when use is false")
	}
}

func TestLoadFromPath_UnknownBackgroundFallsBackToBlur(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "background_style: mica\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := res.Config.Settings().Style.Background; got != style.BackgroundBlur {
		t.Fatalf("expected blur fallback, got %q", got)
	}
	warnings := res.Config.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "mica") {
		t.Fatalf("expected one warning about mica, got %v", warnings)
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "backgroundStyle: blur\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	data := strings.Join([]string{
		"color:",
		"  red: 300",
		"",
	}, "\n")
	path := writeConfig(t, data)
	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "color.red" {
		t.Fatalf("expected path color.red, got %q", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected source line 2, got %d", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected file position in error, got %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		path   string
	}{
		{"negative green", func(c *Config) { c.Color.Green = -1 }, "color.green"},
		{"transparency too large", func(c *Config) { c.Color.Transparency = 256 }, "color.transparency"},
		{"dark color checked when used", func(c *Config) {
			c.StyleForDarkMode.Use = true
			c.StyleForDarkMode.Color.Blue = 999
		}, "style_for_dark_mode.color.blue"},
		{"debounce too small", func(c *Config) { c.DebounceMS = 1 }, "debounce_ms"},
		{"negative reconcile", func(c *Config) { c.ReconcileIntervalSeconds = -5 }, "reconcile_interval_seconds"},
		{"bad dark mode", func(c *Config) { c.Theme.DarkMode = "sometimes" }, "theme.dark_mode"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.StyleForDarkMode.Color.Blue = 999
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unused dark style must not be validated, got %v", err)
	}
}

func TestIntervals(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DebounceInterval(); got != 200*time.Millisecond {
		t.Fatalf("debounce = %v", got)
	}
	if got := cfg.ReconcileInterval(); got != 0 {
		t.Fatalf("reconcile = %v, want disabled", got)
	}
	cfg.ReconcileIntervalSeconds = 30
	if got := cfg.ReconcileInterval(); got != 30*time.Second {
		t.Fatalf("reconcile = %v", got)
	}
}

func TestGetLoggingConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging = LoggingConfig{}
	got := cfg.GetLoggingConfig()
	if got.Level != "info" || got.MaxSizeMB != 10 || got.MaxFiles != 3 {
		t.Fatalf("unexpected logging defaults: %+v", got)
	}
	if got.File != "" {
		t.Fatalf("expected no log file by default, got %q", got.File)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if want := filepath.Join(dir, "taskbg", "config.yaml"); got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestStore_ReplaceBumpsVersion(t *testing.T) {
	s := NewStore(nil)
	first := s.Current()
	if first.Version != 1 {
		t.Fatalf("expected version 1, got %d", first.Version)
	}

	cfg := DefaultConfig()
	cfg.OnlyWhenMaximized = false
	second := s.Replace(cfg)
	if second.Version != 2 {
		t.Fatalf("expected version 2, got %d", second.Version)
	}
	if s.Current() != second {
		t.Fatalf("expected Current to return the new snapshot")
	}
	if !first.Settings.OnlyWhenMaximized {
		t.Fatalf("old snapshot must not change")
	}
	if second.Settings.OnlyWhenMaximized {
		t.Fatalf("new snapshot must reflect the new config")
	}
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	path := writeConfig(t, "debounce_ms: 200\n")

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("debounce_ms: 300\n"), 0644); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("no change notification")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watcher did not stop")
	}
}
