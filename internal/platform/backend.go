package platform

import (
	"log/slog"

	"github.com/1broseidon/taskbg/internal/style"
)

// WindowID is a platform-neutral window handle.
type WindowID uintptr

// DisplayID identifies a physical display.
type DisplayID uintptr

// OwnerID identifies the UI owner of a window: the creating thread on
// Windows, the creating client connection on X11.
type OwnerID uint64

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Placement is the show state of a top-level window.
type Placement int

const (
	PlacementNormal Placement = iota
	PlacementMinimized
	PlacementMaximized
)

func (p Placement) String() string {
	switch p {
	case PlacementNormal:
		return "normal"
	case PlacementMinimized:
		return "minimized"
	case PlacementMaximized:
		return "maximized"
	default:
		return "unknown"
	}
}

// Windows are the read-only window and display queries the engine consumes.
type Windows interface {
	// TopLevelWindows lists all top-level windows system-wide, in z-order.
	TopLevelWindows() ([]WindowID, error)
	ClassName(w WindowID) (string, error)
	Owner(w WindowID) (OwnerID, error)
	// OwnedByHost reports whether w belongs to the shell process taskbg
	// styles.
	OwnedByHost(w WindowID) bool
	// OwnerWindows lists the top-level windows created by owner.
	OwnerWindows(owner OwnerID) ([]WindowID, error)
	// IsTopLevel reports whether w is a non-child window whose parent is
	// the desktop (or none).
	IsTopLevel(w WindowID) bool
	IsVisible(w WindowID) bool
	IsCloaked(w WindowID) bool
	IsMinimized(w WindowID) bool
	IsNoActivate(w WindowID) bool
	IsShellWindow(w WindowID) bool
	IsDesktopBackground(w WindowID) bool
	Placement(w WindowID) (Placement, error)
	FrameBounds(w WindowID) (Rect, error)
	// DisplayFromWindow maps w to its nearest display.
	DisplayFromWindow(w WindowID) (DisplayID, error)
	DisplayBounds(d DisplayID) (Rect, error)
}

// Compositor is the raw, unintercepted compositing capability.
type Compositor interface {
	SetAccentPolicy(w WindowID, policy style.AccentPolicy) error
	// Forward hands an intercepted request to the original entry point
	// unchanged.
	Forward(req CompositionRequest) error
}

// EventKind classifies a window lifecycle notification.
type EventKind int

const (
	EventCreate EventKind = iota
	EventDestroy
	EventShow
	EventHide
	EventLocationChange
	EventCloak
	EventUncloak
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventDestroy:
		return "destroy"
	case EventShow:
		return "show"
	case EventHide:
		return "hide"
	case EventLocationChange:
		return "location-change"
	case EventCloak:
		return "cloak"
	case EventUncloak:
		return "uncloak"
	default:
		return "unknown"
	}
}

// WindowEvent is a single window lifecycle notification.
//
// Display is set (with HasDisplay) when the backend already knows the
// display, e.g. for destroyed windows that can no longer be queried.
type WindowEvent struct {
	Kind       EventKind
	Window     WindowID
	Display    DisplayID
	HasDisplay bool
}

// Subscription delivers window events until closed.
type Subscription interface {
	Events() <-chan WindowEvent
	// Close unsubscribes all notification sources. No event is delivered
	// after Close returns.
	Close() error
}

// EventSource subscribes to window lifecycle notifications.
type EventSource interface {
	Subscribe() (Subscription, error)
}

// AttributeKind is the composition attribute a request targets.
type AttributeKind uint32

// AttributeAccentPolicy is the accent-policy composition attribute.
const AttributeAccentPolicy AttributeKind = 19

// CompositionRequest is a call to the compositing entry point.
type CompositionRequest struct {
	Window    WindowID
	Attribute AttributeKind
	Data      []byte
	// Native carries backend state needed to forward the original call.
	Native any
}

// CompositionHandler receives intercepted composition requests.
type CompositionHandler func(req CompositionRequest) error

// HookInstaller installs the interception point.
type HookInstaller interface {
	InstallCompositionHook(h CompositionHandler) (remove func(), err error)
}

// SurfaceClasses names the window classes of the shell's taskbar surfaces.
type SurfaceClasses struct {
	Primary   string
	Secondary string
}

// Backend bundles everything the engine needs from a window system.
type Backend interface {
	Windows
	Compositor
	EventSource
	HookInstaller
	// DefaultSurfaceClasses returns the platform's taskbar class names.
	DefaultSurfaceClasses() SurfaceClasses
	Close() error
}

// Options configures the platform backend returned by NewDefault.
type Options struct {
	// HostProcess restricts taskbar surfaces to windows of this process
	// name (X11 only; any dock window when empty).
	HostProcess string
	// Detour redirects the shell's composition entry point (Windows only).
	Detour Detour
	Logger *slog.Logger
}

// Detour redirects the shell's SetWindowCompositionAttribute to callback and
// returns the address of the original entry point. It is supplied by the
// loader that injects taskbg into the shell.
type Detour func(callback uintptr) (original uintptr, remove func(), err error)
