//go:build windows

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/1broseidon/taskbg/internal/style"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dwmapi = windows.NewLazySystemDLL("dwmapi.dll")

	procEnumWindows                   = user32.NewProc("EnumWindows")
	procGetClassNameW                 = user32.NewProc("GetClassNameW")
	procGetWindowThreadProcessID      = user32.NewProc("GetWindowThreadProcessId")
	procIsWindowVisible               = user32.NewProc("IsWindowVisible")
	procIsIconic                      = user32.NewProc("IsIconic")
	procGetWindowLongW                = user32.NewProc("GetWindowLongW")
	procGetAncestor                   = user32.NewProc("GetAncestor")
	procGetDesktopWindow              = user32.NewProc("GetDesktopWindow")
	procGetShellWindow                = user32.NewProc("GetShellWindow")
	procGetPropW                      = user32.NewProc("GetPropW")
	procGetWindowPlacement            = user32.NewProc("GetWindowPlacement")
	procGetWindowRect                 = user32.NewProc("GetWindowRect")
	procMonitorFromWindow             = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW               = user32.NewProc("GetMonitorInfoW")
	procSetWindowCompositionAttribute = user32.NewProc("SetWindowCompositionAttribute")
	procSetWinEventHook               = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent                = user32.NewProc("UnhookWinEvent")
	procGetMessageW                   = user32.NewProc("GetMessageW")
	procPostThreadMessageW            = user32.NewProc("PostThreadMessageW")
	procDwmGetWindowAttribute         = dwmapi.NewProc("DwmGetWindowAttribute")
)

const (
	gwlStyle   = -16
	gwlExStyle = -20

	wsChild         = 0x40000000
	wsExNoActivate  = 0x08000000
	gaParent        = 1
	swShowMinimized = 2
	swShowMaximized = 3

	monitorDefaultToNearest = 2

	dwmwaExtendedFrameBounds = 9
	dwmwaCloaked             = 14

	eventObjectCreate         = 0x8000
	eventObjectDestroy        = 0x8001
	eventObjectShow           = 0x8002
	eventObjectHide           = 0x8003
	eventObjectLocationChange = 0x800B
	eventObjectCloaked        = 0x8017
	eventObjectUncloaked      = 0x8018
	wineventOutOfContext      = 0
	objidWindow               = 0

	wmQuit = 0x0012

	defaultHostProcess = "explorer.exe"
	winEventBuffer     = 256
)

type windowPlacement struct {
	Length           uint32
	Flags            uint32
	ShowCmd          uint32
	PtMinPosition    windows.Point
	PtMaxPosition    windows.Point
	RcNormalPosition windows.Rect
}

type monitorInfo struct {
	Size    uint32
	Monitor windows.Rect
	Work    windows.Rect
	Flags   uint32
}

// windowCompositionAttribData is WINDOWCOMPOSITIONATTRIBDATA.
type windowCompositionAttribData struct {
	Attrib uint32
	Data   unsafe.Pointer
	Size   uintptr
}

type msg struct {
	Hwnd    windows.HWND
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      windows.Point
}

// Win32Backend implements Backend with user32 and dwmapi. The raw
// capability is SetWindowCompositionAttribute; interception needs a Detour.
type Win32Backend struct {
	logger      *slog.Logger
	hostProcess string
	detour      Detour

	mu        sync.Mutex
	raw       uintptr
	handler   CompositionHandler
	removeFn  func()
	hostNames map[uint32]string
}

var _ Backend = (*Win32Backend)(nil)

// NewDefault opens the platform's window system backend.
func NewDefault(opts Options) (Backend, error) {
	return NewWin32Backend(opts)
}

// NewWin32Backend resolves the user32 entry points taskbg needs.
func NewWin32Backend(opts Options) (*Win32Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := procSetWindowCompositionAttribute.Find(); err != nil {
		return nil, fmt.Errorf("SetWindowCompositionAttribute: %w: %w", ErrUnavailable, err)
	}
	host := opts.HostProcess
	if host == "" {
		host = defaultHostProcess
	}
	return &Win32Backend{
		logger:      logger,
		hostProcess: strings.ToLower(host),
		detour:      opts.Detour,
		raw:         procSetWindowCompositionAttribute.Addr(),
		hostNames:   make(map[uint32]string),
	}, nil
}

func (b *Win32Backend) DefaultSurfaceClasses() SurfaceClasses {
	return SurfaceClasses{Primary: "Shell_TrayWnd", Secondary: "Shell_SecondaryTrayWnd"}
}

func (b *Win32Backend) Close() error {
	b.mu.Lock()
	remove := b.removeFn
	b.removeFn = nil
	b.handler = nil
	b.mu.Unlock()
	if remove != nil {
		remove()
	}
	return nil
}

// Window queries.

var (
	enumOnce     sync.Once
	enumCallback uintptr
)

// enumTopLevel collects top-level windows in z-order, topmost first. The
// callback is created once; callbacks are a finite resource.
func enumTopLevel() ([]WindowID, error) {
	enumOnce.Do(func() {
		enumCallback = windows.NewCallback(func(hwnd windows.HWND, lparam uintptr) uintptr {
			ids := (*[]WindowID)(unsafe.Pointer(lparam))
			*ids = append(*ids, WindowID(hwnd))
			return 1
		})
	})

	var ids []WindowID
	r, _, err := procEnumWindows.Call(enumCallback, uintptr(unsafe.Pointer(&ids)))
	if r == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	return ids, nil
}

func (b *Win32Backend) TopLevelWindows() ([]WindowID, error) {
	return enumTopLevel()
}

func (b *Win32Backend) ClassName(w WindowID) (string, error) {
	var buf [256]uint16
	n, _, err := procGetClassNameW.Call(uintptr(w), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", fmt.Errorf("GetClassName %#x: %w", w, err)
	}
	return windows.UTF16ToString(buf[:n]), nil
}

func threadAndProcess(w WindowID) (tid, pid uint32) {
	r, _, _ := procGetWindowThreadProcessID.Call(uintptr(w), uintptr(unsafe.Pointer(&pid)))
	return uint32(r), pid
}

// Owner is the creating thread.
func (b *Win32Backend) Owner(w WindowID) (OwnerID, error) {
	tid, _ := threadAndProcess(w)
	if tid == 0 {
		return 0, fmt.Errorf("window %#x has no owner thread", w)
	}
	return OwnerID(tid), nil
}

func (b *Win32Backend) OwnedByHost(w WindowID) bool {
	_, pid := threadAndProcess(w)
	if pid == 0 {
		return false
	}
	if pid == windows.GetCurrentProcessId() {
		return true
	}
	return b.processName(pid) == b.hostProcess
}

// processName returns the lower-cased image base name of pid.
func (b *Win32Backend) processName(pid uint32) string {
	b.mu.Lock()
	name, ok := b.hostNames[pid]
	b.mu.Unlock()
	if ok {
		return name
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	path := windows.UTF16ToString(buf[:size])
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		path = path[i+1:]
	}
	name = strings.ToLower(path)

	b.mu.Lock()
	if len(b.hostNames) > 1024 {
		clear(b.hostNames)
	}
	b.hostNames[pid] = name
	b.mu.Unlock()
	return name
}

func (b *Win32Backend) OwnerWindows(owner OwnerID) ([]WindowID, error) {
	all, err := enumTopLevel()
	if err != nil {
		return nil, err
	}
	var ids []WindowID
	for _, w := range all {
		if tid, _ := threadAndProcess(w); OwnerID(tid) == owner {
			ids = append(ids, w)
		}
	}
	return ids, nil
}

func windowLong(w WindowID, index int32) uint32 {
	r, _, _ := procGetWindowLongW.Call(uintptr(w), uintptr(index))
	return uint32(r)
}

func (b *Win32Backend) IsTopLevel(w WindowID) bool {
	if windowLong(w, gwlStyle)&wsChild != 0 {
		return false
	}
	parent, _, _ := procGetAncestor.Call(uintptr(w), gaParent)
	if parent == 0 {
		return true
	}
	desktop, _, _ := procGetDesktopWindow.Call()
	return parent == desktop
}

func (b *Win32Backend) IsVisible(w WindowID) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(w))
	return r != 0
}

func (b *Win32Backend) IsCloaked(w WindowID) bool {
	var cloaked uint32
	r, _, _ := procDwmGetWindowAttribute.Call(uintptr(w), dwmwaCloaked, uintptr(unsafe.Pointer(&cloaked)), unsafe.Sizeof(cloaked))
	return r == 0 && cloaked != 0
}

func (b *Win32Backend) IsMinimized(w WindowID) bool {
	r, _, _ := procIsIconic.Call(uintptr(w))
	return r != 0
}

func (b *Win32Backend) IsNoActivate(w WindowID) bool {
	return windowLong(w, gwlExStyle)&wsExNoActivate != 0
}

func (b *Win32Backend) IsShellWindow(w WindowID) bool {
	shell, _, _ := procGetShellWindow.Call()
	return shell != 0 && WindowID(shell) == w
}

var desktopWindowProp = windows.StringToUTF16Ptr("DesktopWindow")

func (b *Win32Backend) IsDesktopBackground(w WindowID) bool {
	r, _, _ := procGetPropW.Call(uintptr(w), uintptr(unsafe.Pointer(desktopWindowProp)))
	return r != 0
}

func (b *Win32Backend) Placement(w WindowID) (Placement, error) {
	wp := windowPlacement{Length: uint32(unsafe.Sizeof(windowPlacement{}))}
	r, _, err := procGetWindowPlacement.Call(uintptr(w), uintptr(unsafe.Pointer(&wp)))
	if r == 0 {
		return PlacementNormal, fmt.Errorf("GetWindowPlacement %#x: %w", w, err)
	}
	switch wp.ShowCmd {
	case swShowMaximized:
		return PlacementMaximized, nil
	case swShowMinimized:
		return PlacementMinimized, nil
	default:
		return PlacementNormal, nil
	}
}

func rectFrom(r windows.Rect) Rect {
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}

// FrameBounds prefers the DWM extended frame, which excludes the invisible
// resize borders.
func (b *Win32Backend) FrameBounds(w WindowID) (Rect, error) {
	var r windows.Rect
	hr, _, _ := procDwmGetWindowAttribute.Call(uintptr(w), dwmwaExtendedFrameBounds, uintptr(unsafe.Pointer(&r)), unsafe.Sizeof(r))
	if hr == 0 {
		return rectFrom(r), nil
	}
	ok, _, err := procGetWindowRect.Call(uintptr(w), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Rect{}, fmt.Errorf("GetWindowRect %#x: %w", w, err)
	}
	return rectFrom(r), nil
}

func (b *Win32Backend) DisplayFromWindow(w WindowID) (DisplayID, error) {
	m, _, _ := procMonitorFromWindow.Call(uintptr(w), monitorDefaultToNearest)
	if m == 0 {
		return 0, fmt.Errorf("no monitor for window %#x", w)
	}
	return DisplayID(m), nil
}

func (b *Win32Backend) DisplayBounds(d DisplayID) (Rect, error) {
	mi := monitorInfo{Size: uint32(unsafe.Sizeof(monitorInfo{}))}
	r, _, err := procGetMonitorInfoW.Call(uintptr(d), uintptr(unsafe.Pointer(&mi)))
	if r == 0 {
		return Rect{}, fmt.Errorf("GetMonitorInfo %#x: %w", d, err)
	}
	return rectFrom(mi.Monitor), nil
}

// Compositor.

func (b *Win32Backend) callComposition(w WindowID, data *windowCompositionAttribData) error {
	b.mu.Lock()
	fn := b.raw
	b.mu.Unlock()

	r, _, errno := syscall.SyscallN(fn, uintptr(w), uintptr(unsafe.Pointer(data)))
	if r == 0 {
		return fmt.Errorf("SetWindowCompositionAttribute %#x: %w", w, errno)
	}
	return nil
}

// SetAccentPolicy calls the original entry point, bypassing the hook.
func (b *Win32Backend) SetAccentPolicy(w WindowID, policy style.AccentPolicy) error {
	buf := policy.Bytes()
	data := windowCompositionAttribData{
		Attrib: uint32(AttributeAccentPolicy),
		Data:   unsafe.Pointer(&buf[0]),
		Size:   uintptr(len(buf)),
	}
	err := b.callComposition(w, &data)
	runtime.KeepAlive(buf)
	return err
}

// Forward replays an intercepted call with the caller's own parameter
// block.
func (b *Win32Backend) Forward(req CompositionRequest) error {
	data, ok := req.Native.(*windowCompositionAttribData)
	if !ok || data == nil {
		return errors.New("request does not carry a native parameter block")
	}
	return b.callComposition(req.Window, data)
}

// Interception.

var (
	hookOnce     sync.Once
	hookCallback uintptr
	hookTarget   struct {
		sync.Mutex
		b *Win32Backend
	}
)

func compositionDetour(hwnd, pdata uintptr) uintptr {
	hookTarget.Lock()
	b := hookTarget.b
	hookTarget.Unlock()

	data := (*windowCompositionAttribData)(unsafe.Pointer(pdata))
	if b == nil || data == nil {
		return 0
	}
	return b.intercept(WindowID(hwnd), data)
}

func (b *Win32Backend) intercept(w WindowID, data *windowCompositionAttribData) uintptr {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()

	req := CompositionRequest{
		Window:    w,
		Attribute: AttributeKind(data.Attrib),
		Native:    data,
	}
	if data.Data != nil && data.Size > 0 {
		req.Data = append([]byte(nil), unsafe.Slice((*byte)(data.Data), data.Size)...)
	}

	var err error
	if h == nil {
		err = b.Forward(req)
	} else {
		err = h(req)
	}
	if err != nil {
		b.logger.Debug("intercepted composition call failed", "window", fmt.Sprintf("%#x", w), "error", err)
		return 0
	}
	return 1
}

// InstallCompositionHook asks the loader's Detour to route the shell's
// SetWindowCompositionAttribute calls to h.
func (b *Win32Backend) InstallCompositionHook(h CompositionHandler) (func(), error) {
	if b.detour == nil {
		return nil, fmt.Errorf("no detour provided by the loader: %w", ErrUnavailable)
	}

	hookOnce.Do(func() {
		hookCallback = windows.NewCallback(compositionDetour)
	})

	hookTarget.Lock()
	if hookTarget.b != nil {
		hookTarget.Unlock()
		return nil, errors.New("composition hook already installed")
	}
	hookTarget.b = b
	hookTarget.Unlock()

	original, undo, err := b.detour(hookCallback)
	if err != nil {
		hookTarget.Lock()
		hookTarget.b = nil
		hookTarget.Unlock()
		return nil, fmt.Errorf("detour failed: %w: %w", ErrUnavailable, err)
	}

	b.mu.Lock()
	b.raw = original
	b.handler = h
	remove := func() {
		if undo != nil {
			undo()
		}
		hookTarget.Lock()
		if hookTarget.b == b {
			hookTarget.b = nil
		}
		hookTarget.Unlock()

		b.mu.Lock()
		b.handler = nil
		b.raw = procSetWindowCompositionAttribute.Addr()
		b.mu.Unlock()
	}
	var once sync.Once
	b.removeFn = func() { once.Do(remove) }
	removeFn := b.removeFn
	b.mu.Unlock()

	return removeFn, nil
}

// Events.

var (
	winEventOnce     sync.Once
	winEventCallback uintptr
	winEventSubs     sync.Map // hook handle -> *winSubscription
)

func winEventProc(hook uintptr, event uint32, hwnd uintptr, idObject, idChild int32, thread, timestamp uint32) uintptr {
	if idObject != objidWindow || hwnd == 0 {
		return 0
	}
	if v, ok := winEventSubs.Load(hook); ok {
		v.(*winSubscription).handle(event, WindowID(hwnd))
	}
	return 0
}

type winSubscription struct {
	backend *Win32Backend
	events  chan WindowEvent
	tid     uint32
	done    chan struct{}

	// Only touched on the hook thread.
	lastDisplay map[WindowID]DisplayID

	mu     sync.Mutex
	closed bool
}

// Subscribe installs out-of-context win event hooks on a dedicated, locked
// OS thread that pumps messages until Close.
func (b *Win32Backend) Subscribe() (Subscription, error) {
	winEventOnce.Do(func() {
		winEventCallback = windows.NewCallback(winEventProc)
	})

	s := &winSubscription{
		backend:     b,
		events:      make(chan WindowEvent, winEventBuffer),
		done:        make(chan struct{}),
		lastDisplay: make(map[WindowID]DisplayID),
	}

	ready := make(chan error, 1)
	go s.pump(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *winSubscription) pump(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	s.tid = windows.GetCurrentThreadId()

	ranges := [][2]uint32{
		{eventObjectCreate, eventObjectHide},
		{eventObjectLocationChange, eventObjectLocationChange},
		{eventObjectCloaked, eventObjectUncloaked},
	}
	var hooks []uintptr
	for _, r := range ranges {
		h, _, err := procSetWinEventHook.Call(uintptr(r[0]), uintptr(r[1]), 0, winEventCallback, 0, 0, wineventOutOfContext)
		if h == 0 {
			for _, prev := range hooks {
				winEventSubs.Delete(prev)
				procUnhookWinEvent.Call(prev)
			}
			ready <- fmt.Errorf("SetWinEventHook: %w: %w", ErrUnavailable, err)
			return
		}
		winEventSubs.Store(h, s)
		hooks = append(hooks, h)
	}
	ready <- nil

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
	}

	for _, h := range hooks {
		procUnhookWinEvent.Call(h)
		winEventSubs.Delete(h)
	}
}

func (s *winSubscription) handle(event uint32, w WindowID) {
	var kind EventKind
	switch event {
	case eventObjectCreate:
		kind = EventCreate
	case eventObjectDestroy:
		kind = EventDestroy
	case eventObjectShow:
		kind = EventShow
	case eventObjectHide:
		kind = EventHide
	case eventObjectLocationChange:
		kind = EventLocationChange
	case eventObjectCloaked:
		kind = EventCloak
	case eventObjectUncloaked:
		kind = EventUncloak
	default:
		return
	}

	ev := WindowEvent{Kind: kind, Window: w}
	if kind == EventDestroy {
		d, ok := s.lastDisplay[w]
		delete(s.lastDisplay, w)
		if !ok {
			return
		}
		ev.Display, ev.HasDisplay = d, true
	} else if s.backend.IsTopLevel(w) {
		if d, err := s.backend.DisplayFromWindow(w); err == nil {
			s.lastDisplay[w] = d
		}
	}
	s.deliver(ev)
}

func (s *winSubscription) deliver(ev WindowEvent) {
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

func (s *winSubscription) Events() <-chan WindowEvent { return s.events }

// Close stops the message pump, which unhooks on its own thread, and
// waits for it.
func (s *winSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	procPostThreadMessageW.Call(uintptr(s.tid), wmQuit, 0, 0)
	<-s.done
	return nil
}
