package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/taskbg/internal/style"
)

func TestHintsForPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy style.AccentPolicy
		want   compositorHints
	}{
		{"default clears", style.DefaultPolicy(), compositorHints{Clear: true}},
		{"disabled clears", style.AccentPolicy{State: style.AccentDisabled}, compositorHints{Clear: true}},
		{"blur", style.AccentPolicy{State: style.AccentBlurBehind, Color: style.RGBA(1, 2, 3, 0x80)},
			compositorHints{Blur: true, Opacity: 0x80808080}},
		{"acrylic", style.AccentPolicy{State: style.AccentAcrylicBlurBehind, Color: style.RGBA(1, 2, 3, 0xff)},
			compositorHints{Blur: true, Opacity: 0xffffffff}},
		{"color", style.AccentPolicy{State: style.AccentTransparentGradient, Flags: style.DefaultFlags, Color: style.RGBA(255, 127, 39, 0)},
			compositorHints{Opacity: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hintsForPolicy(tt.policy))
		})
	}
}

func TestPolicyFromHints(t *testing.T) {
	assert.Equal(t, style.DefaultPolicy(), policyFromHints(false, 0, false))

	blur := policyFromHints(true, 0, false)
	assert.Equal(t, style.AccentBlurBehind, blur.State)
	assert.Equal(t, uint8(0xff), blur.Color.A())

	tinted := policyFromHints(false, 0x40404040, true)
	assert.Equal(t, style.AccentTransparentGradient, tinted.State)
	assert.Equal(t, uint8(0x40), tinted.Color.A())
	assert.False(t, tinted.IsDefault())
}

func TestSelfWrites(t *testing.T) {
	s := newSelfWrites()
	assert.False(t, s.consume(1, "_NET_WM_WINDOW_OPACITY"))

	s.expect(1, "_NET_WM_WINDOW_OPACITY")
	s.expect(1, "_NET_WM_WINDOW_OPACITY")
	s.expect(2, "_KDE_NET_WM_BLUR_BEHIND_REGION")

	assert.False(t, s.consume(1, "_KDE_NET_WM_BLUR_BEHIND_REGION"))
	assert.True(t, s.consume(1, "_NET_WM_WINDOW_OPACITY"))
	assert.True(t, s.consume(1, "_NET_WM_WINDOW_OPACITY"))
	assert.False(t, s.consume(1, "_NET_WM_WINDOW_OPACITY"), "a later shell write is not ours")

	s.forget(2)
	assert.False(t, s.consume(2, "_KDE_NET_WM_BLUR_BEHIND_REGION"))
}

// fakeHints is an in-memory window property store.
type fakeHints struct {
	props map[WindowID]map[hintProp][]uint32
}

func newFakeHints() *fakeHints {
	return &fakeHints{props: make(map[WindowID]map[hintProp][]uint32)}
}

func (f *fakeHints) setHint(w WindowID, p hintProp, values []uint32) error {
	if f.props[w] == nil {
		f.props[w] = make(map[hintProp][]uint32)
	}
	f.props[w][p] = append([]uint32{}, values...)
	return nil
}

func (f *fakeHints) deleteHint(w WindowID, p hintProp) error {
	delete(f.props[w], p)
	return nil
}

func (f *fakeHints) readHints(w WindowID) panelHints {
	var h panelHints
	if v, ok := f.props[w][hintBlur]; ok {
		h.Blur, h.HasBlur = v, true
	}
	if v, ok := f.props[w][hintOpacity]; ok && len(v) > 0 {
		h.Opacity, h.HasOpacity = v[0], true
	}
	return h
}

func (f *fakeHints) has(w WindowID, p hintProp) bool {
	_, ok := f.props[w][p]
	return ok
}

func TestWriteAccentPolicy_ResetRestoresPanelHints(t *testing.T) {
	f := newFakeHints()
	native := newNativeHints()
	require.NoError(t, f.setHint(1, hintBlur, []uint32{0, 0, 1920, 32}))
	require.NoError(t, f.setHint(1, hintOpacity, []uint32{0xcccccccc}))

	colored := style.AccentPolicy{State: style.AccentTransparentGradient, Flags: style.DefaultFlags, Color: style.RGBA(255, 127, 39, 0x80)}
	require.NoError(t, writeAccentPolicy(f, native, 1, colored))
	assert.True(t, f.has(1, hintMarker))
	assert.False(t, f.has(1, hintBlur))
	assert.Equal(t, []uint32{0x80808080}, f.props[1][hintOpacity])

	require.NoError(t, writeAccentPolicy(f, native, 1, style.DefaultPolicy()))
	assert.False(t, f.has(1, hintMarker))
	assert.Equal(t, []uint32{0, 0, 1920, 32}, f.props[1][hintBlur])
	assert.Equal(t, []uint32{0xcccccccc}, f.props[1][hintOpacity])
}

func TestWriteAccentPolicy_ResetDropsHintsPanelNeverSet(t *testing.T) {
	f := newFakeHints()
	native := newNativeHints()

	blur := style.AccentPolicy{State: style.AccentBlurBehind, Color: style.RGBA(0, 0, 0, 0xff)}
	require.NoError(t, writeAccentPolicy(f, native, 1, blur))
	assert.True(t, f.has(1, hintBlur))
	assert.True(t, f.has(1, hintOpacity))

	require.NoError(t, writeAccentPolicy(f, native, 1, style.DefaultPolicy()))
	assert.Empty(t, f.props[1])
}

func TestNativeHints_RememberTracksPanelWrites(t *testing.T) {
	f := newFakeHints()
	native := newNativeHints()
	read := func() panelHints { return f.readHints(1) }

	require.NoError(t, writeAccentPolicy(f, native, 1, style.AccentPolicy{State: style.AccentBlurBehind, Color: style.RGBA(0, 0, 0, 0x40)}))

	// The panel sets its own opacity while taskbg's blur is still present.
	require.NoError(t, f.setHint(1, hintOpacity, []uint32{0xffffffff}))
	own := native.remember(1, hintOpacity, read)
	assert.False(t, own.HasBlur, "taskbg's blur is not the panel's")
	assert.Equal(t, uint32(0xffffffff), own.Opacity)
	assert.Equal(t, style.AccentTransparentGradient, own.policy().State)

	// rememberOnce keeps the existing record.
	assert.Equal(t, own, native.rememberOnce(1, read))

	native.forget(1)
	again := native.rememberOnce(1, read)
	assert.True(t, again.HasBlur)
}
