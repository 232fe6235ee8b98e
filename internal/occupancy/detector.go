// Package occupancy decides whether a display currently hosts a maximized
// or screen-spanning window.
package occupancy

import (
	"fmt"

	"github.com/1broseidon/taskbg/internal/platform"
)

// Detector scans top-level windows for occupancy of a display.
type Detector struct {
	win platform.Windows
}

// NewDetector creates a detector over the given window queries.
func NewDetector(win platform.Windows) *Detector {
	return &Detector{win: win}
}

// HasMaximizedWindow reports whether any eligible window on display is
// maximized or exactly covers the display's monitor rectangle. Windows owned
// by the taskbar's own UI owner never count. Cheap filters run before the
// per-window placement and frame queries; the scan stops at the first match.
func (d *Detector) HasMaximizedWindow(display platform.DisplayID, taskbar platform.WindowID) (bool, error) {
	monitor, err := d.win.DisplayBounds(display)
	if err != nil {
		return false, fmt.Errorf("failed to get display %d bounds: %w", display, err)
	}

	taskbarOwner, err := d.win.Owner(taskbar)
	if err != nil {
		return false, fmt.Errorf("failed to get taskbar %#x owner: %w", taskbar, err)
	}

	windows, err := d.win.TopLevelWindows()
	if err != nil {
		return false, fmt.Errorf("failed to enumerate top-level windows: %w", err)
	}

	for _, w := range windows {
		if d.occupies(w, display, monitor, taskbarOwner) {
			return true, nil
		}
	}
	return false, nil
}

func (d *Detector) occupies(w platform.WindowID, display platform.DisplayID, monitor platform.Rect, taskbarOwner platform.OwnerID) bool {
	if owner, err := d.win.Owner(w); err == nil && owner == taskbarOwner {
		return false
	}

	if wd, err := d.win.DisplayFromWindow(w); err != nil || wd != display {
		return false
	}

	if !d.win.IsVisible(w) || d.win.IsCloaked(w) || d.win.IsMinimized(w) || d.win.IsNoActivate(w) {
		return false
	}

	if d.win.IsShellWindow(w) || d.win.IsDesktopBackground(w) {
		return false
	}

	if placement, err := d.win.Placement(w); err == nil && placement == platform.PlacementMaximized {
		return true
	}

	// Spans the whole monitor without reporting as maximized, e.g. task
	// view or a full-screen launcher.
	frame, err := d.win.FrameBounds(w)
	if err != nil {
		return false
	}
	return frame == monitor
}
