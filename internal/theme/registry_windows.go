//go:build windows

package theme

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/windows/registry"

	"github.com/1broseidon/taskbg/internal/style"
)

const (
	personalizeKey = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`
	lightThemeName = `AppsUseLightTheme`

	dwmKey          = `Software\Microsoft\Windows\DWM`
	accentColorName = `AccentColor`
)

// Registry reads the personalization settings of the current user.
type Registry struct {
	logger *slog.Logger
}

func newSystem(logger *slog.Logger) style.Theme {
	return &Registry{logger: logger}
}

// IsDarkModeActive reports whether apps use the dark theme. Older systems
// without the value read as light.
func (r *Registry) IsDarkModeActive() bool {
	k, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	useLight, _, err := k.GetIntegerValue(lightThemeName)
	if err != nil {
		return false
	}
	return useLight == 0
}

// AccentColor returns the DWM accent color, stored as 0xAABBGGRR.
func (r *Registry) AccentColor() (style.RGB, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, dwmKey, registry.QUERY_VALUE)
	if err != nil {
		return style.RGB{}, fmt.Errorf("failed to open %s: %w", dwmKey, err)
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(accentColorName)
	if err != nil {
		return style.RGB{}, fmt.Errorf("failed to read %s: %w", accentColorName, err)
	}
	return style.RGB{
		R: uint8(v),
		G: uint8(v >> 8),
		B: uint8(v >> 16),
	}, nil
}
