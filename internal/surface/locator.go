// Package surface finds the shell's taskbar windows.
package surface

import (
	"fmt"
	"strings"

	"github.com/1broseidon/taskbg/internal/platform"
)

// Surfaces is one snapshot of the shell's taskbar windows. A zero Primary
// means the host has not created its taskbar yet.
type Surfaces struct {
	Primary     platform.WindowID
	Secondaries []platform.WindowID
}

// Ready reports whether a primary surface was found.
func (s Surfaces) Ready() bool {
	return s.Primary != 0
}

// All returns the primary followed by the secondaries.
func (s Surfaces) All() []platform.WindowID {
	if !s.Ready() {
		return nil
	}
	out := make([]platform.WindowID, 0, 1+len(s.Secondaries))
	out = append(out, s.Primary)
	return append(out, s.Secondaries...)
}

// Locator enumerates the host's taskbar surfaces on demand. Nothing is
// cached: the shell may destroy and recreate its windows at any time.
type Locator struct {
	win     platform.Windows
	classes platform.SurfaceClasses
}

// NewLocator creates a locator matching the given class names.
func NewLocator(win platform.Windows, classes platform.SurfaceClasses) *Locator {
	return &Locator{win: win, classes: classes}
}

// IsSurfaceClass reports whether class names a primary or secondary
// taskbar.
func (l *Locator) IsSurfaceClass(class string) bool {
	if class == "" {
		return false
	}
	return strings.EqualFold(class, l.classes.Primary) ||
		strings.EqualFold(class, l.classes.Secondary)
}

// IsSurface reports whether w has a taskbar class.
func (l *Locator) IsSurface(w platform.WindowID) bool {
	class, err := l.win.ClassName(w)
	if err != nil {
		return false
	}
	return l.IsSurfaceClass(class)
}

// Locate returns the primary surface and every secondary surface created by
// the primary's UI owner. Windows of the secondary class owned by anyone
// else are ignored. A missing primary is not an error.
func (l *Locator) Locate() (Surfaces, error) {
	primary, err := l.findPrimary()
	if err != nil {
		return Surfaces{}, err
	}
	if primary == 0 {
		return Surfaces{}, nil
	}

	owner, err := l.win.Owner(primary)
	if err != nil || owner == 0 {
		return Surfaces{}, nil
	}

	windows, err := l.win.OwnerWindows(owner)
	if err != nil {
		return Surfaces{}, fmt.Errorf("failed to enumerate taskbar owner windows: %w", err)
	}

	found := Surfaces{Primary: primary}
	seen := make(map[platform.WindowID]struct{})
	for _, w := range windows {
		// Panels may share one class for every display.
		if _, dup := seen[w]; dup || w == primary {
			continue
		}
		class, err := l.win.ClassName(w)
		if err != nil {
			continue
		}
		if strings.EqualFold(class, l.classes.Secondary) {
			seen[w] = struct{}{}
			found.Secondaries = append(found.Secondaries, w)
		}
	}
	return found, nil
}

func (l *Locator) findPrimary() (platform.WindowID, error) {
	windows, err := l.win.TopLevelWindows()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate top-level windows: %w", err)
	}
	for _, w := range windows {
		if !l.win.OwnedByHost(w) {
			continue
		}
		class, err := l.win.ClassName(w)
		if err != nil {
			continue
		}
		if strings.EqualFold(class, l.classes.Primary) {
			return w, nil
		}
	}
	return 0, nil
}

// OnDisplay returns the surface shown on display d. The primary wins when
// several surfaces map to the same display.
func (l *Locator) OnDisplay(s Surfaces, d platform.DisplayID) (platform.WindowID, bool) {
	for _, w := range s.All() {
		display, err := l.win.DisplayFromWindow(w)
		if err != nil {
			continue
		}
		if display == d {
			return w, true
		}
	}
	return 0, false
}
