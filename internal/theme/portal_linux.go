//go:build linux

package theme

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/1broseidon/taskbg/internal/style"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	portalInterface = "org.freedesktop.portal.Settings"

	appearanceNamespace = "org.freedesktop.appearance"

	// color-scheme values from the portal: 0 no preference, 1 dark, 2 light.
	colorSchemeDark = 1
)

// Portal reads the appearance settings of the XDG desktop portal over the
// session bus. The connection is opened on first use and reused.
type Portal struct {
	logger *slog.Logger

	mu   sync.Mutex
	conn *dbus.Conn
}

func newSystem(logger *slog.Logger) style.Theme {
	return &Portal{logger: logger}
}

// IsDarkModeActive reports whether the portal prefers a dark color scheme.
// Any failure reads as light.
func (p *Portal) IsDarkModeActive() bool {
	v, err := p.read("color-scheme")
	if err != nil {
		p.logger.Debug("portal color-scheme unavailable", "error", err)
		return false
	}
	scheme, ok := v.Value().(uint32)
	return ok && scheme == colorSchemeDark
}

// AccentColor returns the portal's accent-color, a (ddd) struct of
// components in 0..1.
func (p *Portal) AccentColor() (style.RGB, error) {
	v, err := p.read("accent-color")
	if err != nil {
		return style.RGB{}, err
	}
	return parseAccent(v.Value())
}

func parseAccent(value any) (style.RGB, error) {
	var comps []float64
	switch c := value.(type) {
	case []any:
		for _, x := range c {
			f, ok := x.(float64)
			if !ok {
				return style.RGB{}, fmt.Errorf("unexpected accent-color component %T", x)
			}
			comps = append(comps, f)
		}
	case []float64:
		comps = c
	default:
		return style.RGB{}, fmt.Errorf("unexpected accent-color type %T", value)
	}
	if len(comps) != 3 {
		return style.RGB{}, fmt.Errorf("accent-color has %d components, want 3", len(comps))
	}
	for _, f := range comps {
		// Out of range means "unset" per the portal documentation.
		if f < 0 || f > 1 {
			return style.RGB{}, ErrNoAccentColor
		}
	}
	return style.RGB{
		R: uint8(math.Round(comps[0] * 255)),
		G: uint8(math.Round(comps[1] * 255)),
		B: uint8(math.Round(comps[2] * 255)),
	}, nil
}

func (p *Portal) read(key string) (dbus.Variant, error) {
	conn, err := p.connect()
	if err != nil {
		return dbus.Variant{}, err
	}
	obj := conn.Object(portalDest, portalPath)

	var v dbus.Variant
	err = obj.Call(portalInterface+".ReadOne", 0, appearanceNamespace, key).Store(&v)
	if err == nil {
		return v, nil
	}

	// Portals before version 2 only have the deprecated Read, which wraps
	// the value in one more variant.
	var wrapped dbus.Variant
	if rerr := obj.Call(portalInterface+".Read", 0, appearanceNamespace, key).Store(&wrapped); rerr != nil {
		return dbus.Variant{}, fmt.Errorf("portal read %s.%s: %w", appearanceNamespace, key, err)
	}
	if inner, ok := wrapped.Value().(dbus.Variant); ok {
		return inner, nil
	}
	return wrapped, nil
}

func (p *Portal) connect() (*dbus.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && p.conn.Connected() {
		return p.conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	p.conn = conn
	return conn, nil
}
