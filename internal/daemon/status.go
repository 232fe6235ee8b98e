package daemon

import (
	"fmt"
	"time"
)

// SurfaceStatus describes one taskbar surface.
type SurfaceStatus struct {
	Window   string `json:"window"`
	Primary  bool   `json:"primary"`
	Display  uint64 `json:"display"`
	Occupied bool   `json:"occupied"`
	Policy   string `json:"policy,omitempty"`
	Styled   bool   `json:"styled"`
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	Active            bool            `json:"active"`
	SettingsVersion   uint64          `json:"settings_version"`
	BackgroundStyle   string          `json:"background_style"`
	OnlyWhenMaximized bool            `json:"only_when_maximized"`
	DarkModeStyle     bool            `json:"dark_mode_style"`
	DarkModeActive    bool            `json:"dark_mode_active"`
	DebounceMS        int64           `json:"debounce_ms"`
	Listener          string          `json:"listener"`
	UptimeSeconds     int64           `json:"uptime_seconds"`
	Surfaces          []SurfaceStatus `json:"surfaces"`
}

// Status reports settings, listener state and every surface with the
// policy last written to it.
func (c *Coordinator) Status() Status {
	snap := c.store.Current()
	st := Status{
		Active:            c.active.Load(),
		SettingsVersion:   snap.Version,
		BackgroundStyle:   string(snap.Settings.Style.Background),
		OnlyWhenMaximized: snap.Settings.OnlyWhenMaximized,
		DarkModeStyle:     snap.Settings.DarkModeStyle != nil,
		DebounceMS:        snap.Config.DebounceInterval().Milliseconds(),
		Listener:          c.worker.State().String(),
		Surfaces:          []SurfaceStatus{},
	}
	if !st.Active {
		return st
	}
	st.UptimeSeconds = int64(time.Since(c.startedAt).Seconds())
	st.DarkModeActive = c.theme.IsDarkModeActive()

	surfaces, err := c.locator.Locate()
	if err != nil || !surfaces.Ready() {
		return st
	}

	applied := c.styler.Applied()
	for _, w := range surfaces.All() {
		ss := SurfaceStatus{
			Window:  fmt.Sprintf("%#x", w),
			Primary: w == surfaces.Primary,
		}
		if d, err := c.backend.DisplayFromWindow(w); err == nil {
			ss.Display = uint64(d)
			if occupied, err := c.detector.HasMaximizedWindow(d, w); err == nil {
				ss.Occupied = occupied
			}
		}
		if p, ok := applied[w]; ok {
			ss.Policy = p.String()
			ss.Styled = !p.IsDefault()
		}
		st.Surfaces = append(st.Surfaces, ss)
	}
	return st
}
