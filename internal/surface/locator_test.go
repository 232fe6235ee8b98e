package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/taskbg/internal/platform"
	"github.com/1broseidon/taskbg/internal/platform/platformtest"
)

const (
	shellOwner platform.OwnerID = 7
	otherOwner platform.OwnerID = 9
)

func newFixture() (*platformtest.Backend, *Locator) {
	b := platformtest.NewBackend()
	b.AddDisplay(1, platform.Rect{Width: 1920, Height: 1080})
	b.AddDisplay(2, platform.Rect{X: 1920, Width: 1920, Height: 1080})
	return b, NewLocator(b, b.DefaultSurfaceClasses())
}

func TestLocate_NotReadyWithoutPrimary(t *testing.T) {
	b, l := newFixture()
	b.AddWindow(platformtest.Window{ID: 0x20, Class: "Shell_SecondaryTrayWnd", Owner: shellOwner, Host: true})

	got, err := l.Locate()
	require.NoError(t, err)
	assert.False(t, got.Ready())
	assert.Empty(t, got.All())
}

func TestLocate_PrimaryAndSecondaries(t *testing.T) {
	b, l := newFixture()
	b.AddWindow(platformtest.Window{ID: 0x10, Class: "shell_traywnd", Owner: shellOwner, Host: true, Display: 1})
	b.AddWindow(platformtest.Window{ID: 0x20, Class: "Shell_SecondaryTrayWnd", Owner: shellOwner, Host: true, Display: 2})
	// Same class, different owner: a stray window that must be ignored.
	b.AddWindow(platformtest.Window{ID: 0x30, Class: "Shell_SecondaryTrayWnd", Owner: otherOwner, Host: true, Display: 2})
	b.AddWindow(platformtest.Window{ID: 0x40, Class: "Notepad", Owner: shellOwner, Host: true, Display: 1})

	got, err := l.Locate()
	require.NoError(t, err)
	assert.True(t, got.Ready())
	assert.Equal(t, platform.WindowID(0x10), got.Primary)
	assert.Equal(t, []platform.WindowID{0x20}, got.Secondaries)
	assert.Equal(t, []platform.WindowID{0x10, 0x20}, got.All())
}

func TestLocate_IgnoresPrimaryOfOtherProcess(t *testing.T) {
	b, l := newFixture()
	b.AddWindow(platformtest.Window{ID: 0x10, Class: "Shell_TrayWnd", Owner: otherOwner, Host: false})

	got, err := l.Locate()
	require.NoError(t, err)
	assert.False(t, got.Ready())
}

func TestLocate_SharedPanelClass(t *testing.T) {
	b := platformtest.NewBackend()
	l := NewLocator(b, platform.SurfaceClasses{Primary: "Tint2", Secondary: "Tint2"})
	b.AddWindow(platformtest.Window{ID: 0x10, Class: "Tint2", Owner: shellOwner, Host: true, Display: 1})
	b.AddWindow(platformtest.Window{ID: 0x20, Class: "Tint2", Owner: shellOwner, Host: true, Display: 2})

	got, err := l.Locate()
	require.NoError(t, err)
	assert.Equal(t, platform.WindowID(0x10), got.Primary)
	assert.Equal(t, []platform.WindowID{0x20}, got.Secondaries)
}

func TestOnDisplay(t *testing.T) {
	b, l := newFixture()
	b.AddWindow(platformtest.Window{ID: 0x10, Class: "Shell_TrayWnd", Owner: shellOwner, Host: true, Display: 1})
	b.AddWindow(platformtest.Window{ID: 0x20, Class: "Shell_SecondaryTrayWnd", Owner: shellOwner, Host: true, Display: 2})

	s, err := l.Locate()
	require.NoError(t, err)

	w, ok := l.OnDisplay(s, 1)
	assert.True(t, ok)
	assert.Equal(t, platform.WindowID(0x10), w)

	w, ok = l.OnDisplay(s, 2)
	assert.True(t, ok)
	assert.Equal(t, platform.WindowID(0x20), w)

	_, ok = l.OnDisplay(s, 3)
	assert.False(t, ok)
}

func TestIsSurfaceClass(t *testing.T) {
	_, l := newFixture()
	assert.True(t, l.IsSurfaceClass("Shell_TrayWnd"))
	assert.True(t, l.IsSurfaceClass("SHELL_SECONDARYTRAYWND"))
	assert.False(t, l.IsSurfaceClass("Progman"))
	assert.False(t, l.IsSurfaceClass(""))
}
