package style

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTheme struct {
	dark      bool
	accent    RGB
	accentErr error
	calls     int
}

func (f *fakeTheme) IsDarkModeActive() bool { return f.dark }

func (f *fakeTheme) AccentColor() (RGB, error) {
	f.calls++
	if f.accentErr != nil {
		return RGB{}, f.accentErr
	}
	return f.accent, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestColorPacking(t *testing.T) {
	c := RGBA(0x11, 0x22, 0x33, 0x44)
	assert.Equal(t, Color(0x44332211), c)
	assert.Equal(t, uint8(0x11), c.R())
	assert.Equal(t, uint8(0x22), c.G())
	assert.Equal(t, uint8(0x33), c.B())
	assert.Equal(t, uint8(0x44), c.A())

	replaced := c.WithRGB(RGB{R: 1, G: 2, B: 3})
	assert.Equal(t, RGBA(1, 2, 3, 0x44), replaced)
}

func TestParseBackgroundStyle(t *testing.T) {
	tests := []struct {
		in   string
		want BackgroundStyle
	}{
		{"blur", BackgroundBlur},
		{"acrylicBlur", BackgroundAcrylicBlur},
		{"color", BackgroundColor},
		{" color ", BackgroundColor},
		{"", BackgroundBlur},
		{"mica", BackgroundBlur},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBackgroundStyle(tt.in), "input %q", tt.in)
	}
}

func TestResolve_BackgroundMapping(t *testing.T) {
	r := NewResolver(&fakeTheme{}, quietLogger())
	color := RGBA(10, 20, 30, 40)

	tests := []struct {
		bg        BackgroundStyle
		wantState AccentState
		wantFlags uint32
	}{
		{BackgroundBlur, AccentBlurBehind, 0},
		{BackgroundAcrylicBlur, AccentAcrylicBlurBehind, 0},
		{BackgroundColor, AccentTransparentGradient, DefaultFlags},
	}
	for _, tt := range tests {
		t.Run(string(tt.bg), func(t *testing.T) {
			got := r.Resolve(Settings{Style: TaskbarStyle{Background: tt.bg, Color: color}})
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantFlags, got.Flags)
			assert.Equal(t, color, got.Color)
			assert.Zero(t, got.AnimationID)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	dark := TaskbarStyle{Background: BackgroundColor, Color: RGBA(1, 2, 3, 4), UseAccentColor: true}
	settings := Settings{
		Style:         TaskbarStyle{Background: BackgroundAcrylicBlur, Color: RGBA(9, 8, 7, 6)},
		DarkModeStyle: &dark,
	}

	for _, isDark := range []bool{false, true} {
		r := NewResolver(&fakeTheme{dark: isDark, accent: RGB{R: 50, G: 60, B: 70}}, quietLogger())
		first := r.Resolve(settings)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, r.Resolve(settings))
		}
	}
}

func TestResolve_DarkModeOverride(t *testing.T) {
	dark := TaskbarStyle{Background: BackgroundColor, Color: RGBA(0, 0, 0, 200)}
	settings := Settings{
		Style:         TaskbarStyle{Background: BackgroundBlur, Color: RGBA(255, 255, 255, 10)},
		DarkModeStyle: &dark,
	}

	light := NewResolver(&fakeTheme{dark: false}, quietLogger()).Resolve(settings)
	assert.Equal(t, AccentBlurBehind, light.State)
	assert.Equal(t, RGBA(255, 255, 255, 10), light.Color)

	darkPolicy := NewResolver(&fakeTheme{dark: true}, quietLogger()).Resolve(settings)
	assert.Equal(t, AccentTransparentGradient, darkPolicy.State)
	assert.Equal(t, RGBA(0, 0, 0, 200), darkPolicy.Color)

	// Dark theme without an override keeps the normal style.
	noOverride := NewResolver(&fakeTheme{dark: true}, quietLogger()).Resolve(Settings{Style: settings.Style})
	assert.Equal(t, light, noOverride)
}

func TestResolve_AccentColorKeepsTransparency(t *testing.T) {
	theme := &fakeTheme{accent: RGB{R: 0xAA, G: 0xBB, B: 0xCC}}
	r := NewResolver(theme, quietLogger())

	got := r.Resolve(Settings{Style: TaskbarStyle{
		Background:     BackgroundColor,
		Color:          RGBA(1, 2, 3, 0x80),
		UseAccentColor: true,
	}})
	assert.Equal(t, RGBA(0xAA, 0xBB, 0xCC, 0x80), got.Color)
	assert.Equal(t, 1, theme.calls)
}

func TestResolve_AccentFallbackLaw(t *testing.T) {
	theme := &fakeTheme{accentErr: errors.New("no accent")}
	r := NewResolver(theme, quietLogger())

	for _, rgb := range []RGB{{0, 0, 0}, {255, 127, 39}, {1, 254, 128}} {
		for _, alpha := range []uint8{0, 1, 128, 255} {
			configured := RGBA(rgb.R, rgb.G, rgb.B, alpha)
			got := r.Resolve(Settings{Style: TaskbarStyle{
				Background:     BackgroundBlur,
				Color:          configured,
				UseAccentColor: true,
			}})
			require.Equal(t, configured, got.Color)
		}
	}
}

func TestResolve_NilTheme(t *testing.T) {
	r := NewResolver(nil, nil)
	dark := TaskbarStyle{Background: BackgroundColor}
	got := r.Resolve(Settings{
		Style:         TaskbarStyle{Background: BackgroundBlur, Color: RGBA(1, 1, 1, 1), UseAccentColor: true},
		DarkModeStyle: &dark,
	})
	assert.Equal(t, AccentBlurBehind, got.State)
	assert.Equal(t, RGBA(1, 1, 1, 1), got.Color)
}

func TestPolicy_ResetEquivalence(t *testing.T) {
	r := NewResolver(&fakeTheme{}, quietLogger())
	styled := r.Resolve(Settings{Style: TaskbarStyle{Background: BackgroundAcrylicBlur, Color: RGBA(1, 2, 3, 4)}})
	require.NotEqual(t, DefaultPolicy().Bytes(), styled.Bytes())

	// A reset never depends on what was applied before.
	assert.Equal(t, DefaultPolicy().Bytes(), DefaultPolicy().Bytes())
	assert.Equal(t, []byte{2, 0, 0, 0, 0x13, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, DefaultPolicy().Bytes())
	assert.True(t, DefaultPolicy().IsDefault())
	assert.False(t, styled.IsDefault())
}

func TestParsePolicy(t *testing.T) {
	p := AccentPolicy{State: AccentAcrylicBlurBehind, Flags: 2, Color: RGBA(9, 8, 7, 6), AnimationID: -1}

	got, err := ParsePolicy(p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = ParsePolicy(make([]byte, 8))
	assert.Error(t, err)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, BackgroundBlur, s.Style.Background)
	assert.False(t, s.Style.UseAccentColor)
	assert.True(t, s.OnlyWhenMaximized)
	assert.Nil(t, s.DarkModeStyle)
	assert.True(t, s.NeedsListener())
}
