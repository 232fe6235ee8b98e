package x11

import "testing"

func TestNearestMonitor(t *testing.T) {
	monitors := []Monitor{
		{ID: 10, X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 20, X: 1920, Y: 0, Width: 2560, Height: 1440},
	}

	tests := []struct {
		name string
		rect Rect
		want uint32
	}{
		{"inside first", Rect{X: 100, Y: 100, Width: 800, Height: 600}, 10},
		{"inside second", Rect{X: 2000, Y: 0, Width: 2560, Height: 1440}, 20},
		{"center decides straddling window", Rect{X: 1500, Y: 0, Width: 1000, Height: 500}, 20},
		{"below first", Rect{X: 500, Y: 1200, Width: 100, Height: 100}, 10},
		{"left of everything", Rect{X: -500, Y: 0, Width: 100, Height: 100}, 10},
		{"right of everything", Rect{X: 5000, Y: 100, Width: 100, Height: 100}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NearestMonitor(monitors, tt.rect)
			if !ok {
				t.Fatal("expected a monitor")
			}
			if got.ID != tt.want {
				t.Errorf("NearestMonitor(%+v) = %d, want %d", tt.rect, got.ID, tt.want)
			}
		})
	}

	if _, ok := NearestMonitor(nil, Rect{}); ok {
		t.Error("expected no monitor for empty list")
	}
}

func TestClientBase(t *testing.T) {
	const mask = 0x001FFFFF
	if got := ClientBase(0x04a00007, mask); got != 0x04a00000 {
		t.Errorf("ClientBase = %#x, want 0x04a00000", got)
	}
	if ClientBase(0x04a00007, mask) != ClientBase(0x04a1ffff, mask) {
		t.Error("windows of one client must share a base")
	}
	if ClientBase(0x04a00007, mask) == ClientBase(0x04c00007, mask) {
		t.Error("different clients must not share a base")
	}
}

func TestIsMaximized(t *testing.T) {
	if !IsMaximized([]string{StateMaxVert, StateMaxHorz}) {
		t.Error("both directions should be maximized")
	}
	if IsMaximized([]string{StateMaxVert}) {
		t.Error("vertical only is not maximized")
	}
	if IsMaximized(nil) {
		t.Error("no states is not maximized")
	}
}
