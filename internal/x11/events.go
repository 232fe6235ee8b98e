package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Change classifies a notification about a managed client.
type Change int

const (
	ChangeMapped Change = iota
	ChangeUnmapped
	ChangeConfigured
	ChangeState
	ChangeDesktop
)

// Handlers receive client notifications. They run on the event loop
// goroutine and must not block on it.
type Handlers struct {
	ClientAdded   func(w xproto.Window)
	ClientRemoved func(w xproto.Window)
	ClientChanged func(w xproto.Window, change Change)
	// Property reports every other property change on a client.
	Property func(w xproto.Window, prop string, deleted bool)
	// ScreenChanged fires when the root window is resized, e.g. after a
	// monitor was connected.
	ScreenChanged func()
}

// ClientWatcher tracks the window manager's client list and forwards
// changes on each client to Handlers.
type ClientWatcher struct {
	conn *Connection
	h    Handlers

	mu      sync.Mutex
	clients map[xproto.Window]struct{}
}

// WatchClients selects input on the root window and every current client.
// Notifications are delivered once EventLoop runs.
func (c *Connection) WatchClients(h Handlers) (*ClientWatcher, error) {
	cw := &ClientWatcher{
		conn:    c,
		h:       h,
		clients: make(map[xproto.Window]struct{}),
	}

	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return nil, err
	}
	xevent.PropertyNotifyFun(cw.rootProperty).Connect(c.XUtil, c.Root)
	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, _ xevent.ConfigureNotifyEvent) {
		if cw.h.ScreenChanged != nil {
			cw.h.ScreenChanged()
		}
	}).Connect(c.XUtil, c.Root)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, err
	}
	for _, w := range clients {
		cw.watch(w)
	}
	return cw, nil
}

// IsClient reports whether w is a managed top-level client.
func (cw *ClientWatcher) IsClient(w xproto.Window) bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	_, ok := cw.clients[w]
	return ok
}

// Clients returns the tracked client set.
func (cw *ClientWatcher) Clients() []xproto.Window {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	out := make([]xproto.Window, 0, len(cw.clients))
	for w := range cw.clients {
		out = append(out, w)
	}
	return out
}

func (cw *ClientWatcher) rootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := cw.conn.AtomName(ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_CLIENT_LIST":
		cw.sync()
	case "_NET_CURRENT_DESKTOP":
		// Every client may have been shown or hidden.
		for _, w := range cw.Clients() {
			cw.changed(w, ChangeDesktop)
		}
	}
}

// sync diffs the client list against the tracked set.
func (cw *ClientWatcher) sync() {
	clients, err := ewmh.ClientListGet(cw.conn.XUtil)
	if err != nil {
		return
	}

	current := make(map[xproto.Window]struct{}, len(clients))
	for _, w := range clients {
		current[w] = struct{}{}
		if !cw.IsClient(w) {
			cw.watch(w)
			if cw.h.ClientAdded != nil {
				cw.h.ClientAdded(w)
			}
		}
	}

	for _, w := range cw.Clients() {
		if _, ok := current[w]; !ok {
			cw.forget(w)
		}
	}
}

func (cw *ClientWatcher) watch(w xproto.Window) {
	win := xwindow.New(cw.conn.XUtil, w)
	// The window may already be gone; the client list catches up.
	if err := win.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return
	}

	cw.mu.Lock()
	cw.clients[w] = struct{}{}
	cw.mu.Unlock()

	xu := cw.conn.XUtil
	xevent.PropertyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		cw.clientProperty(w, ev)
	}).Connect(xu, w)
	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, _ xevent.ConfigureNotifyEvent) {
		cw.changed(w, ChangeConfigured)
	}).Connect(xu, w)
	xevent.MapNotifyFun(func(_ *xgbutil.XUtil, _ xevent.MapNotifyEvent) {
		cw.changed(w, ChangeMapped)
	}).Connect(xu, w)
	xevent.UnmapNotifyFun(func(_ *xgbutil.XUtil, _ xevent.UnmapNotifyEvent) {
		cw.changed(w, ChangeUnmapped)
	}).Connect(xu, w)
	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, _ xevent.DestroyNotifyEvent) {
		cw.forget(w)
	}).Connect(xu, w)
}

// forget drops w once, from whichever of DestroyNotify and the client
// list update arrives first.
func (cw *ClientWatcher) forget(w xproto.Window) {
	cw.mu.Lock()
	_, ok := cw.clients[w]
	delete(cw.clients, w)
	cw.mu.Unlock()
	if !ok {
		return
	}

	xevent.Detach(cw.conn.XUtil, w)
	if cw.h.ClientRemoved != nil {
		cw.h.ClientRemoved(w)
	}
}

func (cw *ClientWatcher) clientProperty(w xproto.Window, ev xevent.PropertyNotifyEvent) {
	name, err := cw.conn.AtomName(ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_WM_STATE", "WM_STATE":
		cw.changed(w, ChangeState)
	case "_NET_WM_DESKTOP":
		cw.changed(w, ChangeDesktop)
	default:
		if cw.h.Property != nil {
			cw.h.Property(w, name, ev.State == xproto.PropertyDelete)
		}
	}
}

func (cw *ClientWatcher) changed(w xproto.Window, change Change) {
	if cw.h.ClientChanged != nil {
		cw.h.ClientChanged(w, change)
	}
}
