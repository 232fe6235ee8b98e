package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	// ID is the CRTC driving the monitor; it stays stable while the
	// output is connected.
	ID     uint32
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Bounds returns the monitor rectangle.
func (m Monitor) Bounds() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     uint32(crtc),
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// NearestMonitor returns the monitor containing the center of r, or the one
// whose rectangle is closest to it. ok is false only for an empty list.
func NearestMonitor(monitors []Monitor, r Rect) (Monitor, bool) {
	if len(monitors) == 0 {
		return Monitor{}, false
	}

	cx := r.X + r.Width/2
	cy := r.Y + r.Height/2

	best := 0
	bestDist := -1
	for i, m := range monitors {
		dx := axisDistance(cx, m.X, m.X+m.Width)
		dy := axisDistance(cy, m.Y, m.Y+m.Height)
		dist := dx*dx + dy*dy
		if dist == 0 {
			return m, true
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return monitors[best], true
}

// axisDistance is the distance from v to the half-open range [lo, hi).
func axisDistance(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v >= hi:
		return v - hi + 1
	default:
		return 0
	}
}
