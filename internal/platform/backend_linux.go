//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/taskbg/internal/style"
	"github.com/1broseidon/taskbg/internal/x11"
)

const (
	x11EventBuffer = 256
	x11HookBuffer  = 64
)

// X11Backend implements Backend over an X11 connection. Taskbar surfaces are
// dock windows; accent policies become compositor hint properties, and the
// panel's own hint writes are the interception point.
type X11Backend struct {
	conn        *x11.Connection
	watcher     *x11.ClientWatcher
	logger      *slog.Logger
	hostProcess string
	writes      *selfWrites
	native      *nativeHints

	mu          sync.Mutex
	monitors    []x11.Monitor
	lastDisplay map[WindowID]DisplayID
	subs        []*x11Subscription
	hook        *hookDispatcher

	loopDone chan struct{}
}

var _ Backend = (*X11Backend)(nil)

// NewDefault opens the platform's window system backend.
func NewDefault(opts Options) (Backend, error) {
	return NewX11Backend(opts)
}

// NewX11Backend connects to the display named by $DISPLAY and starts the
// event loop goroutine.
func NewX11Backend(opts Options) (*X11Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w: %w", ErrUnavailable, err)
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query monitors: %w: %w", ErrUnavailable, err)
	}

	b := &X11Backend{
		conn:        conn,
		logger:      logger,
		hostProcess: opts.HostProcess,
		writes:      newSelfWrites(),
		native:      newNativeHints(),
		monitors:    monitors,
		lastDisplay: make(map[WindowID]DisplayID),
		loopDone:    make(chan struct{}),
	}

	b.watcher, err = conn.WatchClients(x11.Handlers{
		ClientAdded:   b.clientAdded,
		ClientRemoved: b.clientRemoved,
		ClientChanged: b.clientChanged,
		Property:      b.propertyChanged,
		ScreenChanged: b.screenChanged,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to watch clients: %w: %w", ErrUnavailable, err)
	}
	for _, w := range b.watcher.Clients() {
		b.rememberDisplay(WindowID(w))
	}

	go func() {
		defer close(b.loopDone)
		conn.EventLoop()
	}()

	logger.Info("x11 backend ready", "monitors", len(monitors), "clients", len(b.watcher.Clients()))
	return b, nil
}

// DefaultSurfaceClasses returns tint2's WM_CLASS for both surfaces; tint2
// maps one panel per monitor.
func (b *X11Backend) DefaultSurfaceClasses() SurfaceClasses {
	return SurfaceClasses{Primary: "Tint2", Secondary: "Tint2"}
}

// Close removes the hook, ends all subscriptions and disconnects.
func (b *X11Backend) Close() error {
	b.mu.Lock()
	hook := b.hook
	b.hook = nil
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	if hook != nil {
		hook.stop()
	}
	for _, s := range subs {
		_ = s.Close()
	}

	b.conn.Quit()
	b.conn.Close()
	select {
	case <-b.loopDone:
	case <-time.After(time.Second):
		b.logger.Warn("x11 event loop did not exit")
	}
	return nil
}

// Window queries.

func (b *X11Backend) TopLevelWindows() ([]WindowID, error) {
	clients, err := b.conn.Clients()
	if err != nil {
		return nil, err
	}
	ids := make([]WindowID, len(clients))
	for i, w := range clients {
		ids[i] = WindowID(w)
	}
	return ids, nil
}

func (b *X11Backend) ClassName(w WindowID) (string, error) {
	return b.conn.WindowClass(xproto.Window(w))
}

func (b *X11Backend) Owner(w WindowID) (OwnerID, error) {
	if w == 0 {
		return 0, errors.New("invalid window")
	}
	return OwnerID(b.conn.ClientBase(xproto.Window(w))), nil
}

func (b *X11Backend) OwnedByHost(w WindowID) bool {
	xw := xproto.Window(w)
	if !b.conn.HasType(xw, x11.TypeDock) {
		return false
	}
	if b.hostProcess == "" {
		return true
	}
	pid, err := b.conn.Pid(xw)
	if err != nil {
		return false
	}
	return processName(pid) == b.hostProcess
}

func (b *X11Backend) OwnerWindows(owner OwnerID) ([]WindowID, error) {
	clients, err := b.TopLevelWindows()
	if err != nil {
		return nil, err
	}
	var ids []WindowID
	for _, w := range clients {
		if o, err := b.Owner(w); err == nil && o == owner {
			ids = append(ids, w)
		}
	}
	return ids, nil
}

func (b *X11Backend) IsTopLevel(w WindowID) bool {
	return b.watcher.IsClient(xproto.Window(w))
}

func (b *X11Backend) IsVisible(w WindowID) bool {
	return b.conn.IsViewable(xproto.Window(w))
}

// IsCloaked reports windows parked on another virtual desktop.
func (b *X11Backend) IsCloaked(w WindowID) bool {
	return b.conn.OnOtherDesktop(xproto.Window(w))
}

func (b *X11Backend) IsMinimized(w WindowID) bool {
	return b.conn.IsIconic(xproto.Window(w))
}

func (b *X11Backend) IsNoActivate(w WindowID) bool {
	return b.conn.IsNoActivate(xproto.Window(w))
}

func (b *X11Backend) IsShellWindow(w WindowID) bool {
	return b.conn.HasType(xproto.Window(w), x11.TypeDock)
}

func (b *X11Backend) IsDesktopBackground(w WindowID) bool {
	return b.conn.HasType(xproto.Window(w), x11.TypeDesktop)
}

func (b *X11Backend) Placement(w WindowID) (Placement, error) {
	states := b.conn.WindowStates(xproto.Window(w))
	switch {
	case slices.Contains(states, x11.StateHidden):
		return PlacementMinimized, nil
	case x11.IsMaximized(states), slices.Contains(states, x11.StateFullscreen):
		return PlacementMaximized, nil
	default:
		return PlacementNormal, nil
	}
}

func (b *X11Backend) FrameBounds(w WindowID) (Rect, error) {
	r, err := b.conn.FrameRect(xproto.Window(w))
	if err != nil {
		return Rect{}, err
	}
	return Rect(r), nil
}

func (b *X11Backend) DisplayFromWindow(w WindowID) (DisplayID, error) {
	r, err := b.conn.FrameRect(xproto.Window(w))
	if err != nil {
		return 0, err
	}
	m, ok := x11.NearestMonitor(b.currentMonitors(), r)
	if !ok {
		return 0, fmt.Errorf("no monitors: %w", ErrUnavailable)
	}
	return DisplayID(m.ID), nil
}

func (b *X11Backend) DisplayBounds(d DisplayID) (Rect, error) {
	for _, m := range b.currentMonitors() {
		if DisplayID(m.ID) == d {
			return Rect(m.Bounds()), nil
		}
	}
	return Rect{}, fmt.Errorf("display %d not found", d)
}

func (b *X11Backend) currentMonitors() []x11.Monitor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.monitors
}

// Compositor.

// SetAccentPolicy records the policy in _TASKBG_ACCENT_POLICY and expresses
// it as compositor hints. The default policy restores the panel's own hints.
func (b *X11Backend) SetAccentPolicy(w WindowID, policy style.AccentPolicy) error {
	return writeAccentPolicy(b, b.native, w, policy)
}

func hintPropName(p hintProp) string {
	switch p {
	case hintBlur:
		return x11.BlurRegionProperty
	case hintOpacity:
		return x11.OpacityProperty
	default:
		return x11.AccentPolicyProperty
	}
}

func (b *X11Backend) setHint(w WindowID, p hintProp, values []uint32) error {
	return b.setProp(w, hintPropName(p), values)
}

func (b *X11Backend) deleteHint(w WindowID, p hintProp) error {
	return b.deleteProp(w, hintPropName(p))
}

func (b *X11Backend) readHints(w WindowID) panelHints {
	xw := xproto.Window(w)
	var h panelHints
	if b.conn.HasProperty(xw, x11.BlurRegionProperty) {
		h.HasBlur = true
		h.Blur, _ = b.conn.Cardinals(xw, x11.BlurRegionProperty)
	}
	if values, err := b.conn.Cardinals(xw, x11.OpacityProperty); err == nil && len(values) > 0 {
		h.Opacity, h.HasOpacity = values[0], true
	}
	return h
}

// Forward leaves the panel's own hint write in effect. It only drops the
// policy marker so the window no longer claims a taskbg style.
func (b *X11Backend) Forward(req CompositionRequest) error {
	if req.Attribute != AttributeAccentPolicy {
		return nil
	}
	return b.deleteProp(req.Window, x11.AccentPolicyProperty)
}

func (b *X11Backend) setProp(w WindowID, prop string, values []uint32) error {
	b.writes.expect(w, prop)
	if err := b.conn.SetCardinals(xproto.Window(w), prop, values); err != nil {
		b.writes.consume(w, prop)
		return err
	}
	return nil
}

// deleteProp removes prop if present. Deleting an unset property produces
// no PropertyNotify, so nothing is expected then.
func (b *X11Backend) deleteProp(w WindowID, prop string) error {
	if !b.conn.HasProperty(xproto.Window(w), prop) {
		return nil
	}
	b.writes.expect(w, prop)
	if err := b.conn.DeleteProperty(xproto.Window(w), prop); err != nil {
		b.writes.consume(w, prop)
		return err
	}
	return nil
}

// Interception.

// InstallCompositionHook routes the panel's compositor hint writes to h. The
// handler runs on a dedicated goroutine, never on the event loop, so it may
// block on engine locks that wait for the listener.
func (b *X11Backend) InstallCompositionHook(h CompositionHandler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hook != nil {
		return nil, fmt.Errorf("composition hook already installed")
	}

	d := newHookDispatcher(b, h)
	b.hook = d
	go d.run()

	return func() {
		b.mu.Lock()
		if b.hook == d {
			b.hook = nil
		}
		b.mu.Unlock()
		d.stop()
	}, nil
}

type hookRequest struct {
	window WindowID
	prop   string
}

type hookDispatcher struct {
	backend *X11Backend
	handler CompositionHandler
	queue   chan hookRequest
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newHookDispatcher(b *X11Backend, h CompositionHandler) *hookDispatcher {
	return &hookDispatcher{
		backend: b,
		handler: h,
		queue:   make(chan hookRequest, x11HookBuffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (d *hookDispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.quit:
			return
		case hr := <-d.queue:
			d.dispatch(hr)
		}
	}
}

func (d *hookDispatcher) dispatch(hr hookRequest) {
	defer func() {
		if r := recover(); r != nil {
			d.backend.logger.Error("composition hook panic recovered", "panic", r)
		}
	}()
	req := d.backend.requestFromHints(hr)
	if err := d.handler(req); err != nil {
		d.backend.logger.Warn("composition hook failed", "window", fmt.Sprintf("%#x", hr.window), "error", err)
	}
}

// enqueue never blocks the event loop; a full queue drops the request.
func (d *hookDispatcher) enqueue(hr hookRequest) {
	select {
	case d.queue <- hr:
	default:
		d.backend.logger.Warn("composition hook queue full, dropping request", "window", fmt.Sprintf("%#x", hr.window))
	}
}

func (d *hookDispatcher) stop() {
	d.once.Do(func() { close(d.quit) })
	<-d.done
}

// requestFromHints records the panel's write and builds the accent policy
// request implied by its own hints.
func (b *X11Backend) requestFromHints(hr hookRequest) CompositionRequest {
	p := hintOpacity
	if hr.prop == x11.BlurRegionProperty {
		p = hintBlur
	}
	own := b.native.remember(hr.window, p, func() panelHints { return b.readHints(hr.window) })
	return CompositionRequest{
		Window:    hr.window,
		Attribute: AttributeAccentPolicy,
		Data:      own.policy().Bytes(),
		Native:    hr.prop,
	}
}

// Events.

func (b *X11Backend) Subscribe() (Subscription, error) {
	s := &x11Subscription{
		backend: b,
		events:  make(chan WindowEvent, x11EventBuffer),
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s, nil
}

func (b *X11Backend) emit(ev WindowEvent) {
	b.mu.Lock()
	subs := slices.Clone(b.subs)
	b.mu.Unlock()
	for _, s := range subs {
		s.deliver(ev)
	}
}

func (b *X11Backend) rememberDisplay(w WindowID) {
	d, err := b.DisplayFromWindow(w)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.lastDisplay[w] = d
	b.mu.Unlock()
}

func (b *X11Backend) clientAdded(xw xproto.Window) {
	w := WindowID(xw)
	b.rememberDisplay(w)
	b.emit(WindowEvent{Kind: EventCreate, Window: w})
}

func (b *X11Backend) clientRemoved(xw xproto.Window) {
	w := WindowID(xw)
	b.mu.Lock()
	d, ok := b.lastDisplay[w]
	delete(b.lastDisplay, w)
	b.mu.Unlock()
	b.writes.forget(w)
	b.native.forget(w)

	b.emit(WindowEvent{Kind: EventDestroy, Window: w, Display: d, HasDisplay: ok})
}

func (b *X11Backend) clientChanged(xw xproto.Window, change x11.Change) {
	w := WindowID(xw)
	var kind EventKind
	switch change {
	case x11.ChangeMapped:
		kind = EventShow
	case x11.ChangeUnmapped:
		kind = EventHide
	case x11.ChangeConfigured:
		b.rememberDisplay(w)
		kind = EventLocationChange
	case x11.ChangeState:
		kind = EventLocationChange
	case x11.ChangeDesktop:
		kind = EventUncloak
		if b.conn.OnOtherDesktop(xw) {
			kind = EventCloak
		}
	default:
		return
	}
	b.emit(WindowEvent{Kind: kind, Window: w})
}

func (b *X11Backend) propertyChanged(xw xproto.Window, prop string, _ bool) {
	if prop != x11.BlurRegionProperty && prop != x11.OpacityProperty {
		return
	}
	w := WindowID(xw)
	if b.writes.consume(w, prop) {
		return
	}

	b.mu.Lock()
	hook := b.hook
	b.mu.Unlock()
	if hook != nil {
		hook.enqueue(hookRequest{window: w, prop: prop})
	}
}

func (b *X11Backend) screenChanged() {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		b.logger.Warn("failed to refresh monitors", "error", err)
		return
	}
	b.mu.Lock()
	b.monitors = monitors
	b.mu.Unlock()
	b.logger.Info("monitor layout changed", "monitors", len(monitors))
}

type x11Subscription struct {
	backend *X11Backend
	events  chan WindowEvent

	mu     sync.Mutex
	closed bool
}

func (s *x11Subscription) Events() <-chan WindowEvent { return s.events }

// deliver never blocks the event loop. A dropped event only delays
// detection until the next event or reconcile pass.
func (s *x11Subscription) deliver(ev WindowEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.backend.logger.Debug("event buffer full, dropping event", "kind", ev.Kind, "window", fmt.Sprintf("%#x", ev.Window))
	}
}

func (s *x11Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)

	b := s.backend
	b.mu.Lock()
	b.subs = slices.DeleteFunc(b.subs, func(o *x11Subscription) bool { return o == s })
	b.mu.Unlock()
	return nil
}

// processName returns the executable name of pid from /proc.
func processName(pid int) string {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/comm")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
