package compose

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/taskbg/internal/platform"
	"github.com/1broseidon/taskbg/internal/platform/platformtest"
	"github.com/1broseidon/taskbg/internal/style"
	"github.com/1broseidon/taskbg/internal/surface"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingApplier struct {
	calls []platform.WindowID
	err   error
}

func (r *recordingApplier) ApplyOrReset(w platform.WindowID) error {
	r.calls = append(r.calls, w)
	return r.err
}

func newBackend() *platformtest.Backend {
	b := platformtest.NewBackend()
	b.AddDisplay(1, platform.Rect{Width: 1920, Height: 1080})
	b.AddWindow(platformtest.Window{ID: 0x10, Class: "Shell_TrayWnd", Owner: 1, Host: true, Display: 1})
	b.AddWindow(platformtest.Window{ID: 0x20, Class: "Shell_SecondaryTrayWnd", Owner: 1, Host: true, Display: 1})
	// Taskbar class, foreign process.
	b.AddWindow(platformtest.Window{ID: 0x30, Class: "Shell_TrayWnd", Owner: 5})
	// Host process, other class.
	b.AddWindow(platformtest.Window{ID: 0x40, Class: "Progman", Owner: 1, Host: true})
	return b
}

func accentRequest(w platform.WindowID, p style.AccentPolicy) platform.CompositionRequest {
	return platform.CompositionRequest{Window: w, Attribute: platform.AttributeAccentPolicy, Data: p.Bytes()}
}

func TestStyler_ApplyAndReset(t *testing.T) {
	b := newBackend()
	s := NewStyler(b, style.NewResolver(nil, quietLogger()), quietLogger())

	settings := style.DefaultSettings()
	settings.Style.Background = style.BackgroundColor

	got, err := s.Apply(0x10, settings)
	require.NoError(t, err)
	assert.Equal(t, style.AccentTransparentGradient, got.State)
	assert.Equal(t, settings.Style.Color, got.Color)

	current, ok := b.Policy(0x10)
	require.True(t, ok)
	assert.Equal(t, got, current)

	require.NoError(t, s.Reset(0x10))
	current, _ = b.Policy(0x10)
	assert.Equal(t, style.DefaultPolicy().Bytes(), current.Bytes())

	assert.Equal(t, map[platform.WindowID]style.AccentPolicy{0x10: style.DefaultPolicy()}, s.Applied())
	assert.Empty(t, b.Forwarded(), "styler must only use the raw compositor")
}

func TestStyler_ResetMatchesNeverStyled(t *testing.T) {
	b := newBackend()
	s := NewStyler(b, style.NewResolver(nil, nil), quietLogger())

	for _, bg := range []style.BackgroundStyle{style.BackgroundBlur, style.BackgroundAcrylicBlur, style.BackgroundColor} {
		settings := style.DefaultSettings()
		settings.Style.Background = bg
		_, err := s.Apply(0x10, settings)
		require.NoError(t, err)
		require.NoError(t, s.Reset(0x10))
	}
	require.NoError(t, s.Reset(0x20))

	styled, _ := b.Policy(0x10)
	fresh, _ := b.Policy(0x20)
	assert.Equal(t, fresh.Bytes(), styled.Bytes())
}

func TestStyler_ApplyError(t *testing.T) {
	b := newBackend()
	b.ApplyErr = errors.New("bad handle")
	s := NewStyler(b, style.NewResolver(nil, nil), quietLogger())

	_, err := s.Apply(0x10, style.DefaultSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, b.ApplyErr)
	assert.Empty(t, s.Applied())
}

func TestStyler_Prune(t *testing.T) {
	b := newBackend()
	s := NewStyler(b, style.NewResolver(nil, nil), quietLogger())
	require.NoError(t, s.Reset(0x10))
	require.NoError(t, s.Reset(0x20))

	s.Prune([]platform.WindowID{0x20})
	_, ok := s.Applied()[0x10]
	assert.False(t, ok)
	assert.Len(t, s.Applied(), 1)
}

func TestInterceptor_Routing(t *testing.T) {
	tests := []struct {
		name      string
		req       platform.CompositionRequest
		intercept bool
	}{
		{"primary accent", accentRequest(0x10, style.AccentPolicy{State: style.AccentGradient}), true},
		{"secondary accent", accentRequest(0x20, style.AccentPolicy{State: style.AccentGradient}), true},
		{"foreign taskbar class", accentRequest(0x30, style.AccentPolicy{State: style.AccentGradient}), false},
		{"host non-taskbar", accentRequest(0x40, style.AccentPolicy{State: style.AccentGradient}), false},
		{"other attribute", platform.CompositionRequest{Window: 0x10, Attribute: 3, Data: []byte{1}}, false},
		{"unknown window", accentRequest(0xdead, style.DefaultPolicy()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend()
			applier := &recordingApplier{}
			i := NewInterceptor(b, b, surface.NewLocator(b, b.DefaultSurfaceClasses()), applier, quietLogger())

			require.NoError(t, i.SetCompositionAttribute(tt.req))

			if tt.intercept {
				assert.Equal(t, []platform.WindowID{tt.req.Window}, applier.calls)
				assert.Empty(t, b.Forwarded(), "shell policy must not reach the compositor")
			} else {
				assert.Empty(t, applier.calls)
				require.Len(t, b.Forwarded(), 1)
				assert.Equal(t, tt.req, b.Forwarded()[0])
			}
		})
	}
}

func TestInterceptor_ReturnsApplierError(t *testing.T) {
	b := newBackend()
	applier := &recordingApplier{err: errors.New("apply failed")}
	i := NewInterceptor(b, b, surface.NewLocator(b, b.DefaultSurfaceClasses()), applier, quietLogger())

	err := i.SetCompositionAttribute(accentRequest(0x10, style.DefaultPolicy()))
	assert.ErrorIs(t, err, applier.err)
}

func TestInterceptor_InstalledHandler(t *testing.T) {
	b := newBackend()
	applier := &recordingApplier{}
	i := NewInterceptor(b, b, surface.NewLocator(b, b.DefaultSurfaceClasses()), applier, quietLogger())

	remove, err := b.InstallCompositionHook(i.Handler())
	require.NoError(t, err)

	require.NoError(t, b.Call(accentRequest(0x10, style.AccentPolicy{State: style.AccentGradient})))
	assert.Len(t, applier.calls, 1)

	remove()
	require.NoError(t, b.Call(accentRequest(0x10, style.AccentPolicy{State: style.AccentGradient})))
	assert.Len(t, applier.calls, 1)
	assert.Len(t, b.Forwarded(), 1)
}

func TestInterceptor_ForwardsWhenNotReady(t *testing.T) {
	b := newBackend()
	applier := &recordingApplier{err: platform.ErrNotReady}
	i := NewInterceptor(b, b, surface.NewLocator(b, b.DefaultSurfaceClasses()), applier, quietLogger())

	req := accentRequest(0x10, style.AccentPolicy{State: style.AccentGradient})
	require.NoError(t, i.SetCompositionAttribute(req))
	assert.Len(t, applier.calls, 1)
	require.Len(t, b.Forwarded(), 1)
	assert.Equal(t, req, b.Forwarded()[0])
}
