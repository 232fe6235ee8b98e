package platform

import (
	"errors"
	"slices"
	"sync"

	"github.com/1broseidon/taskbg/internal/style"
)

// compositorHints is how an accent policy is expressed to an X11
// compositor.
type compositorHints struct {
	Blur    bool
	Opacity uint32
	// Clear drops taskbg's hints and puts back the panel's own.
	Clear bool
}

// hintsForPolicy maps an accent policy onto compositor hints. The default
// policy clears them; blur states request blur behind; the color's alpha
// byte becomes the window opacity.
func hintsForPolicy(p style.AccentPolicy) compositorHints {
	if p.IsDefault() || p.State == style.AccentDisabled {
		return compositorHints{Clear: true}
	}
	h := compositorHints{Opacity: opacityFromAlpha(p.Color.A())}
	switch p.State {
	case style.AccentBlurBehind, style.AccentAcrylicBlurBehind:
		h.Blur = true
	}
	return h
}

// hintProp names one of the properties a policy is written through.
type hintProp int

const (
	hintMarker hintProp = iota
	hintBlur
	hintOpacity
)

// panelHints are the compositor hints present on a panel window.
type panelHints struct {
	Blur       []uint32
	HasBlur    bool
	Opacity    uint32
	HasOpacity bool
}

func (h panelHints) policy() style.AccentPolicy {
	return policyFromHints(h.HasBlur, h.Opacity, h.HasOpacity)
}

// hintTarget is the property surface of a window system.
type hintTarget interface {
	setHint(w WindowID, p hintProp, values []uint32) error
	deleteHint(w WindowID, p hintProp) error
	readHints(w WindowID) panelHints
}

// nativeHints records the hints each panel set on itself.
type nativeHints struct {
	mu       sync.Mutex
	byWindow map[WindowID]panelHints
}

func newNativeHints() *nativeHints {
	return &nativeHints{byWindow: make(map[WindowID]panelHints)}
}

// rememberOnce records read() for w unless a record exists, and returns
// the record.
func (n *nativeHints) rememberOnce(w WindowID, read func() panelHints) panelHints {
	n.mu.Lock()
	h, ok := n.byWindow[w]
	n.mu.Unlock()
	if ok {
		return h
	}

	h = read()
	n.mu.Lock()
	defer n.mu.Unlock()
	if prev, ok := n.byWindow[w]; ok {
		return prev
	}
	n.byWindow[w] = h
	return h
}

// remember records the panel's own write of p on w. Other hints keep
// their recorded values; they may currently hold taskbg's.
func (n *nativeHints) remember(w WindowID, p hintProp, read func() panelHints) panelHints {
	cur := read()

	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.byWindow[w]
	if !ok {
		n.byWindow[w] = cur
		return cur
	}
	switch p {
	case hintBlur:
		h.Blur, h.HasBlur = slices.Clone(cur.Blur), cur.HasBlur
	case hintOpacity:
		h.Opacity, h.HasOpacity = cur.Opacity, cur.HasOpacity
	}
	n.byWindow[w] = h
	return h
}

func (n *nativeHints) forget(w WindowID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.byWindow, w)
}

// writeAccentPolicy expresses p on w through t. The panel's own hints are
// recorded before the first write; the default policy removes the marker
// and puts them back.
func writeAccentPolicy(t hintTarget, native *nativeHints, w WindowID, p style.AccentPolicy) error {
	own := native.rememberOnce(w, func() panelHints { return t.readHints(w) })

	hints := hintsForPolicy(p)
	if hints.Clear {
		return errors.Join(t.deleteHint(w, hintMarker), restoreHints(t, w, own))
	}

	if err := t.setHint(w, hintMarker, p.Words()); err != nil {
		return err
	}
	var err error
	if hints.Blur {
		err = t.setHint(w, hintBlur, nil)
	} else {
		err = t.deleteHint(w, hintBlur)
	}
	if err != nil {
		return err
	}
	return t.setHint(w, hintOpacity, []uint32{hints.Opacity})
}

func restoreHints(t hintTarget, w WindowID, own panelHints) error {
	var errs []error
	if own.HasBlur {
		errs = append(errs, t.setHint(w, hintBlur, own.Blur))
	} else {
		errs = append(errs, t.deleteHint(w, hintBlur))
	}
	if own.HasOpacity {
		errs = append(errs, t.setHint(w, hintOpacity, []uint32{own.Opacity}))
	} else {
		errs = append(errs, t.deleteHint(w, hintOpacity))
	}
	return errors.Join(errs...)
}

// policyFromHints reconstructs the accent policy a panel asked for by
// writing its own compositor hints.
func policyFromHints(blur bool, opacity uint32, hasOpacity bool) style.AccentPolicy {
	if !blur && !hasOpacity {
		return style.DefaultPolicy()
	}
	alpha := uint8(0xff)
	if hasOpacity {
		alpha = uint8(opacity >> 24)
	}
	p := style.AccentPolicy{
		State: style.AccentTransparentGradient,
		Flags: style.DefaultFlags,
		Color: style.RGBA(0, 0, 0, alpha),
	}
	if blur {
		p.State = style.AccentBlurBehind
		p.Flags = 0
	}
	return p
}

// opacityFromAlpha scales an 8-bit alpha to the 32-bit opacity range.
func opacityFromAlpha(a uint8) uint32 {
	return uint32(a) * 0x01010101
}

type propertyKey struct {
	window WindowID
	prop   string
}

// selfWrites counts property changes taskbg made itself, so the
// PropertyNotify events they cause are not mistaken for shell requests.
type selfWrites struct {
	mu      sync.Mutex
	pending map[propertyKey]int
}

func newSelfWrites() *selfWrites {
	return &selfWrites{pending: make(map[propertyKey]int)}
}

// expect records one upcoming notification for prop on w.
func (s *selfWrites) expect(w WindowID, prop string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[propertyKey{w, prop}]++
}

// consume reports whether a notification was caused by taskbg and
// accounts for it.
func (s *selfWrites) consume(w WindowID, prop string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := propertyKey{w, prop}
	n := s.pending[k]
	if n == 0 {
		return false
	}
	if n == 1 {
		delete(s.pending, k)
	} else {
		s.pending[k] = n - 1
	}
	return true
}

// forget drops expectations for a destroyed window.
func (s *selfWrites) forget(w WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.pending {
		if k.window == w {
			delete(s.pending, k)
		}
	}
}
