// Package listener watches window lifecycle events and coalesces them into
// per-display re-evaluations.
package listener

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/taskbg/internal/platform"
)

// DefaultInterval is the quiet period between the first event of a burst and
// the flush.
const DefaultInterval = 200 * time.Millisecond

// ErrSubscriptionClosed is returned by Run when the event source goes away
// before quit is signalled.
var ErrSubscriptionClosed = errors.New("event subscription closed")

// SurfaceMatcher tells taskbar windows apart from ordinary ones.
type SurfaceMatcher interface {
	IsSurfaceClass(class string) bool
}

// FlushFunc receives the union of displays touched since the timer was armed.
type FlushFunc func(displays []platform.DisplayID)

// Options configures a Listener.
type Options struct {
	Windows  platform.Windows
	Events   platform.EventSource
	Surfaces SurfaceMatcher
	Flush    FlushFunc
	Interval time.Duration
	Logger   *slog.Logger

	// After arms the one-shot timer. Defaults to time.After.
	After func(time.Duration) <-chan time.Time
}

// Listener is the background event monitor. Its pending set and timer are
// private to the goroutine executing Run.
type Listener struct {
	win      platform.Windows
	events   platform.EventSource
	surfaces SurfaceMatcher
	flush    FlushFunc
	interval time.Duration
	logger   *slog.Logger
	after    func(time.Duration) <-chan time.Time
}

// New creates a listener.
func New(opts Options) *Listener {
	l := &Listener{
		win:      opts.Windows,
		events:   opts.Events,
		surfaces: opts.Surfaces,
		flush:    opts.Flush,
		interval: opts.Interval,
		logger:   opts.Logger,
		after:    opts.After,
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.after == nil {
		l.after = time.After
	}
	return l
}

// Run subscribes to window events and processes them until quit is closed.
// The subscription is closed before Run returns. Events still pending when
// quit arrives are dropped.
func (l *Listener) Run(quit <-chan struct{}) error {
	sub, err := l.events.Subscribe()
	if err != nil {
		return fmt.Errorf("failed to subscribe to window events: %w", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			l.logger.Warn("failed to close event subscription", "error", err)
		}
	}()

	l.logger.Debug("listener started", "interval", l.interval)
	defer l.logger.Debug("listener stopped")

	deb := newDebouncer()
	var timer <-chan time.Time
	events := sub.Events()

	for {
		select {
		case <-quit:
			return nil

		case ev, ok := <-events:
			if !ok {
				select {
				case <-quit:
					return nil
				default:
					return ErrSubscriptionClosed
				}
			}
			display, ok := l.qualify(ev)
			if !ok {
				continue
			}
			if deb.Add(display) {
				timer = l.after(l.interval)
			}

		case <-timer:
			timer = nil
			l.runFlush(deb.Flush())
		}
	}
}

// qualify returns the display of a top-level, non-taskbar window event.
func (l *Listener) qualify(ev platform.WindowEvent) (platform.DisplayID, bool) {
	if ev.Window == 0 {
		return 0, false
	}
	// A destroyed window can no longer be queried; backends attach the last
	// known display of top-level windows they saw go away.
	if ev.Kind == platform.EventDestroy && ev.HasDisplay {
		return ev.Display, true
	}
	if !l.win.IsTopLevel(ev.Window) {
		return 0, false
	}
	if class, err := l.win.ClassName(ev.Window); err == nil && l.surfaces.IsSurfaceClass(class) {
		return 0, false
	}
	if ev.HasDisplay {
		return ev.Display, true
	}
	display, err := l.win.DisplayFromWindow(ev.Window)
	if err != nil {
		l.logger.Debug("dropping event without display", "window", fmt.Sprintf("%#x", ev.Window), "event", ev.Kind, "error", err)
		return 0, false
	}
	return display, true
}

func (l *Listener) runFlush(displays []platform.DisplayID) {
	if len(displays) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("listener flush panicked", "panic", r)
		}
	}()
	l.flush(displays)
}
