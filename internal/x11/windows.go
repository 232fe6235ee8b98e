package x11

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// EWMH window types and states consulted by taskbg.
const (
	TypeDesktop      = "_NET_WM_WINDOW_TYPE_DESKTOP"
	TypeDock         = "_NET_WM_WINDOW_TYPE_DOCK"
	TypeNormal       = "_NET_WM_WINDOW_TYPE_NORMAL"
	StateHidden      = "_NET_WM_STATE_HIDDEN"
	StateMaxHorz     = "_NET_WM_STATE_MAXIMIZED_HORZ"
	StateMaxVert     = "_NET_WM_STATE_MAXIMIZED_VERT"
	StateFullscreen  = "_NET_WM_STATE_FULLSCREEN"
	StateSkipTaskbar = "_NET_WM_STATE_SKIP_TASKBAR"
)

// Window types that never take focus.
var noActivateTypes = []string{
	"_NET_WM_WINDOW_TYPE_NOTIFICATION",
	"_NET_WM_WINDOW_TYPE_TOOLTIP",
	"_NET_WM_WINDOW_TYPE_POPUP_MENU",
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
	"_NET_WM_WINDOW_TYPE_COMBO",
	"_NET_WM_WINDOW_TYPE_DND",
	"_NET_WM_WINDOW_TYPE_SPLASH",
}

// Rect is a window or monitor rectangle in root coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Clients returns the managed client windows topmost first. The stacking
// list is preferred; window managers that only publish _NET_CLIENT_LIST
// yield mapping order.
func (c *Connection) Clients() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err == nil {
		// _NET_CLIENT_LIST_STACKING is bottom to top.
		slices.Reverse(clients)
		return clients, nil
	}
	clients, err = ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// WindowClass returns the class part of WM_CLASS.
func (c *Connection) WindowClass(windowID xproto.Window) (string, error) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(wmClass.Class), nil
}

// WindowStates returns _NET_WM_STATE, empty when unset.
func (c *Connection) WindowStates(windowID xproto.Window) []string {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return states
}

// WindowTypes returns _NET_WM_WINDOW_TYPE, empty when unset.
func (c *Connection) WindowTypes(windowID xproto.Window) []string {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return types
}

// HasType reports whether the window carries the given EWMH type.
func (c *Connection) HasType(windowID xproto.Window, typ string) bool {
	return slices.Contains(c.WindowTypes(windowID), typ)
}

// IsNoActivate reports whether the window is a transient surface such as a
// menu, tooltip or notification.
func (c *Connection) IsNoActivate(windowID xproto.Window) bool {
	for _, t := range c.WindowTypes(windowID) {
		if slices.Contains(noActivateTypes, t) {
			return true
		}
	}
	return false
}

// IsViewable reports whether the window and all its ancestors are mapped.
func (c *Connection) IsViewable(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}

// IsIconic reports whether the window is minimized, by EWMH hidden state or
// ICCCM iconic WM_STATE.
func (c *Connection) IsIconic(windowID xproto.Window) bool {
	if slices.Contains(c.WindowStates(windowID), StateHidden) {
		return true
	}
	state, err := icccm.WmStateGet(c.XUtil, windowID)
	return err == nil && state.State == icccm.StateIconic
}

// IsMaximized reports whether the window is maximized in both directions.
func IsMaximized(states []string) bool {
	return slices.Contains(states, StateMaxHorz) && slices.Contains(states, StateMaxVert)
}

// Pid returns _NET_WM_PID.
func (c *Connection) Pid(windowID xproto.Window) (int, error) {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0, err
	}
	return int(pid), nil
}

// FrameRect returns the window's outer rectangle in root coordinates,
// including window manager decorations when _NET_FRAME_EXTENTS is set.
func (c *Connection) FrameRect(windowID xproto.Window) (Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("failed to get geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}

	r := Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}

	left, right, top, bottom := c.frameExtents(windowID)
	r.X -= left
	r.Y -= top
	r.Width += left + right
	r.Height += top + bottom
	return r, nil
}

// frameExtents returns the window decoration sizes, zero when unknown.
func (c *Connection) frameExtents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return 0, 0, 0, 0
	}
	return extents.Left, extents.Right, extents.Top, extents.Bottom
}
