package compose

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/taskbg/internal/platform"
)

// Applier decides and writes the policy for one taskbar surface.
type Applier interface {
	ApplyOrReset(w platform.WindowID) error
}

// SurfaceMatcher reports whether a window is a taskbar surface.
type SurfaceMatcher interface {
	IsSurface(w platform.WindowID) bool
}

// Interceptor is the handler installed on the shell's composition entry
// point. Accent policy requests for the host's own taskbar surfaces are
// replaced by the applier's decision; everything else is forwarded as is.
type Interceptor struct {
	win      platform.Windows
	comp     platform.Compositor
	surfaces SurfaceMatcher
	applier  Applier
	logger   *slog.Logger
}

// NewInterceptor creates an interceptor.
func NewInterceptor(win platform.Windows, comp platform.Compositor, surfaces SurfaceMatcher, applier Applier, logger *slog.Logger) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		win:      win,
		comp:     comp,
		surfaces: surfaces,
		applier:  applier,
		logger:   logger,
	}
}

// SetCompositionAttribute handles one intercepted call. It runs on the
// caller's thread and never waits for the listener.
func (i *Interceptor) SetCompositionAttribute(req platform.CompositionRequest) error {
	if !i.matches(req) {
		return i.comp.Forward(req)
	}
	i.logger.Debug("intercepted accent policy request", "window", req.Window)
	err := i.applier.ApplyOrReset(req.Window)
	if errors.Is(err, platform.ErrNotReady) {
		return i.comp.Forward(req)
	}
	return err
}

// Handler returns SetCompositionAttribute as a hook handler.
func (i *Interceptor) Handler() platform.CompositionHandler {
	return i.SetCompositionAttribute
}

func (i *Interceptor) matches(req platform.CompositionRequest) bool {
	if req.Attribute != platform.AttributeAccentPolicy {
		return false
	}
	if !i.win.OwnedByHost(req.Window) {
		return false
	}
	return i.surfaces.IsSurface(req.Window)
}
