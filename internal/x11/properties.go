package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Properties taskbg reads and writes on panel windows.
const (
	// AccentPolicyProperty carries the applied policy as CARDINAL[4]:
	// state, flags, color, animation id.
	AccentPolicyProperty = "_TASKBG_ACCENT_POLICY"
	// BlurRegionProperty asks KWin-compatible compositors to blur behind
	// the window. An empty region blurs the whole window.
	BlurRegionProperty = "_KDE_NET_WM_BLUR_BEHIND_REGION"
	// OpacityProperty is the EWMH-extension window opacity, 0..0xFFFFFFFF.
	OpacityProperty = "_NET_WM_WINDOW_OPACITY"
)

// SetCardinals replaces prop on the window with a CARDINAL array.
func (c *Connection) SetCardinals(windowID xproto.Window, prop string, values []uint32) error {
	data := make([]uint, len(values))
	for i, v := range values {
		data[i] = uint(v)
	}
	if err := xprop.ChangeProp32(c.XUtil, windowID, prop, "CARDINAL", data...); err != nil {
		return fmt.Errorf("failed to set %s: %w", prop, err)
	}
	return nil
}

// Cardinals reads a CARDINAL array property.
func (c *Connection) Cardinals(windowID xproto.Window, prop string) ([]uint32, error) {
	nums, err := xprop.PropValNums(xprop.GetProperty(c.XUtil, windowID, prop))
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(nums))
	for i, n := range nums {
		out[i] = uint32(n)
	}
	return out, nil
}

// HasProperty reports whether prop is set on the window.
func (c *Connection) HasProperty(windowID xproto.Window, prop string) bool {
	reply, err := xprop.GetProperty(c.XUtil, windowID, prop)
	return err == nil && reply != nil && reply.Format != 0
}

// DeleteProperty removes prop from the window. Deleting an unset property
// is not an error.
func (c *Connection) DeleteProperty(windowID xproto.Window, prop string) error {
	atom, err := c.Atom(prop)
	if err != nil {
		return err
	}
	if err := xproto.DeletePropertyChecked(c.XUtil.Conn(), windowID, atom).Check(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", prop, err)
	}
	return nil
}
