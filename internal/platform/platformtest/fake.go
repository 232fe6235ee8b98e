// Package platformtest provides an in-memory window system for exercising
// the engine without a display server.
package platformtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/1broseidon/taskbg/internal/platform"
	"github.com/1broseidon/taskbg/internal/style"
)

// Window is a fake top-level window.
type Window struct {
	ID                platform.WindowID
	Class             string
	Owner             platform.OwnerID
	Host              bool
	Child             bool
	Hidden            bool
	Cloaked           bool
	Minimized         bool
	NoActivate        bool
	Shell             bool
	DesktopBackground bool
	Placement         platform.Placement
	Frame             platform.Rect
	Display           platform.DisplayID
}

// Applied records one raw compositor call.
type Applied struct {
	Window platform.WindowID
	Policy style.AccentPolicy
}

// Backend is a fake platform.Backend. All methods are safe for concurrent
// use.
type Backend struct {
	mu        sync.Mutex
	windows   []*Window
	displays  map[platform.DisplayID]platform.Rect
	applied   []Applied
	forwarded []platform.CompositionRequest
	current   map[platform.WindowID]style.AccentPolicy
	hook      platform.CompositionHandler
	subs      []*Subscription
	classes   platform.SurfaceClasses

	// HookErr, SubscribeErr and ApplyErr make the matching calls fail.
	HookErr      error
	SubscribeErr error
	ApplyErr     error
}

var _ platform.Backend = (*Backend)(nil)

// NewBackend creates an empty fake window system.
func NewBackend() *Backend {
	return &Backend{
		displays: make(map[platform.DisplayID]platform.Rect),
		current:  make(map[platform.WindowID]style.AccentPolicy),
		classes: platform.SurfaceClasses{
			Primary:   "Shell_TrayWnd",
			Secondary: "Shell_SecondaryTrayWnd",
		},
	}
}

// AddDisplay registers a display with the given monitor rectangle.
func (b *Backend) AddDisplay(id platform.DisplayID, bounds platform.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displays[id] = bounds
}

// AddWindow appends a window to the top-level list.
func (b *Backend) AddWindow(w Window) *Window {
	b.mu.Lock()
	defer b.mu.Unlock()
	win := w
	b.windows = append(b.windows, &win)
	return &win
}

// Update mutates a window under the backend lock.
func (b *Backend) Update(id platform.WindowID, fn func(w *Window)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w := b.find(id); w != nil {
		fn(w)
	}
}

// RemoveWindow drops a window from the top-level list.
func (b *Backend) RemoveWindow(id platform.WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, w := range b.windows {
		if w.ID == id {
			b.windows = append(b.windows[:i], b.windows[i+1:]...)
			return
		}
	}
}

// Applied returns a copy of the raw compositor calls so far.
func (b *Backend) Applied() []Applied {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Applied, len(b.applied))
	copy(out, b.applied)
	return out
}

// Forwarded returns the requests passed through unchanged.
func (b *Backend) Forwarded() []platform.CompositionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]platform.CompositionRequest, len(b.forwarded))
	copy(out, b.forwarded)
	return out
}

// Policy returns the last policy applied to w.
func (b *Backend) Policy(w platform.WindowID) (style.AccentPolicy, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.current[w]
	return p, ok
}

// ResetApplied clears the call log but keeps current policies.
func (b *Backend) ResetApplied() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = nil
	b.forwarded = nil
}

// Hook returns the installed composition handler, if any.
func (b *Backend) Hook() platform.CompositionHandler {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hook
}

// ActiveSubscriptions reports how many subscriptions are still open.
func (b *Backend) ActiveSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subs {
		if !s.closed {
			n++
		}
	}
	return n
}

// Emit delivers an event to every open subscription.
func (b *Backend) Emit(ev platform.WindowEvent) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if !s.closed {
			subs = append(subs, s)
		}
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.deliver(ev)
	}
}

// DropSubscriptions closes every open subscription from the backend side,
// as a window system disconnect would.
func (b *Backend) DropSubscriptions() {
	b.mu.Lock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
}

func (b *Backend) find(id platform.WindowID) *Window {
	for _, w := range b.windows {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (b *Backend) get(id platform.WindowID) (Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.find(id)
	if w == nil {
		return Window{}, fmt.Errorf("window %#x not found", id)
	}
	return *w, nil
}

func (b *Backend) TopLevelWindows() ([]platform.WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]platform.WindowID, 0, len(b.windows))
	for _, w := range b.windows {
		if !w.Child {
			ids = append(ids, w.ID)
		}
	}
	return ids, nil
}

func (b *Backend) ClassName(id platform.WindowID) (string, error) {
	w, err := b.get(id)
	return w.Class, err
}

func (b *Backend) Owner(id platform.WindowID) (platform.OwnerID, error) {
	w, err := b.get(id)
	return w.Owner, err
}

func (b *Backend) OwnedByHost(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && w.Host
}

func (b *Backend) OwnerWindows(owner platform.OwnerID) ([]platform.WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []platform.WindowID
	for _, w := range b.windows {
		if w.Owner == owner && !w.Child {
			ids = append(ids, w.ID)
		}
	}
	return ids, nil
}

func (b *Backend) IsTopLevel(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && !w.Child
}

func (b *Backend) IsVisible(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && !w.Hidden
}

func (b *Backend) IsCloaked(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && w.Cloaked
}

func (b *Backend) IsMinimized(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && (w.Minimized || w.Placement == platform.PlacementMinimized)
}

func (b *Backend) IsNoActivate(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && w.NoActivate
}

func (b *Backend) IsShellWindow(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && w.Shell
}

func (b *Backend) IsDesktopBackground(id platform.WindowID) bool {
	w, err := b.get(id)
	return err == nil && w.DesktopBackground
}

func (b *Backend) Placement(id platform.WindowID) (platform.Placement, error) {
	w, err := b.get(id)
	return w.Placement, err
}

func (b *Backend) FrameBounds(id platform.WindowID) (platform.Rect, error) {
	w, err := b.get(id)
	return w.Frame, err
}

func (b *Backend) DisplayFromWindow(id platform.WindowID) (platform.DisplayID, error) {
	w, err := b.get(id)
	return w.Display, err
}

func (b *Backend) DisplayBounds(d platform.DisplayID) (platform.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.displays[d]
	if !ok {
		return platform.Rect{}, fmt.Errorf("display %d not found", d)
	}
	return r, nil
}

func (b *Backend) SetAccentPolicy(id platform.WindowID, policy style.AccentPolicy) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ApplyErr != nil {
		return b.ApplyErr
	}
	b.applied = append(b.applied, Applied{Window: id, Policy: policy})
	b.current[id] = policy
	return nil
}

func (b *Backend) Forward(req platform.CompositionRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarded = append(b.forwarded, req)
	if req.Attribute == platform.AttributeAccentPolicy {
		if p, err := style.ParsePolicy(req.Data); err == nil {
			b.current[req.Window] = p
		}
	}
	return nil
}

// Call simulates the shell calling the intercepted entry point. Without a
// hook installed the request goes straight to Forward.
func (b *Backend) Call(req platform.CompositionRequest) error {
	if h := b.Hook(); h != nil {
		return h(req)
	}
	return b.Forward(req)
}

func (b *Backend) InstallCompositionHook(h platform.CompositionHandler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.HookErr != nil {
		return nil, b.HookErr
	}
	b.hook = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.hook = nil
	}, nil
}

func (b *Backend) Subscribe() (platform.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SubscribeErr != nil {
		return nil, b.SubscribeErr
	}
	s := &Subscription{events: make(chan platform.WindowEvent, 64), backend: b}
	b.subs = append(b.subs, s)
	return s, nil
}

func (b *Backend) DefaultSurfaceClasses() platform.SurfaceClasses {
	return b.classes
}

func (b *Backend) Close() error { return nil }

// Subscription is a fake event subscription.
type Subscription struct {
	backend *Backend
	mu      sync.Mutex
	events  chan platform.WindowEvent
	closed  bool
}

func (s *Subscription) Events() <-chan platform.WindowEvent { return s.events }

func (s *Subscription) deliver(ev platform.WindowEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}

func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.backend.mu.Lock()
	s.closed = true
	s.backend.mu.Unlock()
	close(s.events)
	return nil
}

// Describe renders the current policies, for test failure messages.
func (b *Backend) Describe() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	for id, p := range b.current {
		fmt.Fprintf(&sb, "%#x: %s\n", id, p)
	}
	return sb.String()
}
