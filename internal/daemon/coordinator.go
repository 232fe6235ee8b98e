// Package daemon ties the engine together: it owns the listener worker,
// reacts to settings changes and restores the shell on shutdown.
package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/taskbg/internal/compose"
	"github.com/1broseidon/taskbg/internal/config"
	"github.com/1broseidon/taskbg/internal/listener"
	"github.com/1broseidon/taskbg/internal/occupancy"
	"github.com/1broseidon/taskbg/internal/platform"
	"github.com/1broseidon/taskbg/internal/style"
	"github.com/1broseidon/taskbg/internal/surface"
	"github.com/1broseidon/taskbg/internal/theme"
)

// LoadFunc reads the configuration.
type LoadFunc func() (*config.Config, error)

// Options configures a Coordinator.
type Options struct {
	Backend platform.Backend
	// Theme is the system theme source; dark mode may be pinned per config.
	Theme  style.Theme
	Load   LoadFunc
	Logger *slog.Logger

	// After overrides the listener's debounce timer, for tests.
	After func(time.Duration) <-chan time.Time
}

// Coordinator drives taskbar styling through the module lifecycle: Init,
// AfterInit, SettingsChanged and Uninit.
type Coordinator struct {
	backend platform.Backend
	load    LoadFunc
	logger  *slog.Logger
	after   func(time.Duration) <-chan time.Time

	store    *config.Store
	theme    configuredTheme
	detector *occupancy.Detector
	styler   *compose.Styler
	worker   *Worker

	// Set by Init, read-only afterwards.
	locator     *surface.Locator
	interceptor *compose.Interceptor

	active    atomic.Bool
	startedAt time.Time

	// Styler writes hold writes for reading; Uninit takes it exclusively to
	// wait out in-flight writes before resetting.
	writes sync.RWMutex

	mu         sync.Mutex
	removeHook func()
	interval   time.Duration
}

// New creates a coordinator. Nothing touches the window system until Init.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	load := opts.Load
	if load == nil {
		load = config.Load
	}

	c := &Coordinator{
		backend:  opts.Backend,
		load:     load,
		logger:   logger,
		after:    opts.After,
		store:    config.NewStore(nil),
		detector: occupancy.NewDetector(opts.Backend),
	}

	base := opts.Theme
	if base == nil {
		base = theme.Static{}
	}
	c.theme = configuredTheme{base: base, store: c.store}
	resolver := style.NewResolver(c.theme, logger)
	c.styler = compose.NewStyler(opts.Backend, resolver, logger)
	c.worker = NewWorker(c.runListener, logger)
	return c
}

// configuredTheme applies the dark mode source of the current snapshot.
type configuredTheme struct {
	base  style.Theme
	store *config.Store
}

func (t configuredTheme) IsDarkModeActive() bool {
	return theme.WithOverride(t.base, t.store.Current().Config.Theme.DarkMode).IsDarkModeActive()
}

func (t configuredTheme) AccentColor() (style.RGB, error) {
	return t.base.AccentColor()
}

// Store returns the settings store.
func (c *Coordinator) Store() *config.Store {
	return c.store
}

// Init loads settings and installs the composition hook. A failure to
// install the hook leaves the coordinator inert; the error wraps
// platform.ErrUnavailable when the capability is missing.
func (c *Coordinator) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active.Load() {
		return nil
	}

	snap := c.store.Replace(c.loadOrDefault())
	c.interval = snap.Config.DebounceInterval()

	classes := c.backend.DefaultSurfaceClasses()
	if v := snap.Config.Surfaces.PrimaryClass; v != "" {
		classes.Primary = v
	}
	if v := snap.Config.Surfaces.SecondaryClass; v != "" {
		classes.Secondary = v
	}
	c.locator = surface.NewLocator(c.backend, classes)
	c.interceptor = compose.NewInterceptor(c.backend, c.backend, c.locator, c, c.logger)

	remove, err := c.backend.InstallCompositionHook(c.interceptor.Handler())
	if err != nil {
		c.logger.Error("failed to install composition hook", "error", err)
		return fmt.Errorf("failed to install composition hook: %w", err)
	}
	c.removeHook = remove
	c.startedAt = time.Now()
	c.active.Store(true)

	c.logger.Info("taskbg initialized",
		"version", snap.Version,
		"background_style", snap.Settings.Style.Background,
		"only_when_maximized", snap.Settings.OnlyWhenMaximized,
		"primary_class", classes.Primary,
		"secondary_class", classes.Secondary)
	return nil
}

// AfterInit styles the surfaces the shell has already created.
func (c *Coordinator) AfterInit() {
	if !c.active.Load() {
		return
	}
	surfaces, err := c.locator.Locate()
	if err != nil {
		c.logger.Warn("failed to locate taskbar surfaces", "error", err)
		return
	}
	if !surfaces.Ready() {
		c.logger.Info("no taskbar yet; waiting for the shell")
		return
	}
	if err := c.AdjustAll(); err != nil {
		c.logger.Warn("initial styling incomplete", "error", err)
	}
}

// SettingsChanged reloads the configuration and reapplies it. When event
// driven detection is no longer needed, or its debounce interval changed,
// the listener is stopped and joined before any surface is touched.
func (c *Coordinator) SettingsChanged() {
	if !c.active.Load() {
		return
	}

	snap := c.store.Replace(c.loadOrDefault())
	interval := snap.Config.DebounceInterval()

	c.mu.Lock()
	restart := interval != c.interval
	c.interval = interval
	c.mu.Unlock()

	if !snap.Settings.NeedsListener() || restart {
		c.worker.Stop()
	}

	c.logger.Info("settings reloaded",
		"version", snap.Version,
		"background_style", snap.Settings.Style.Background,
		"only_when_maximized", snap.Settings.OnlyWhenMaximized,
		"dark_mode_style", snap.Settings.DarkModeStyle != nil)

	if err := c.AdjustAll(); err != nil {
		c.logger.Warn("reapply after settings change incomplete", "error", err)
	}
}

// Uninit removes the hook, stops the listener and resets every surface to
// the shell default once in-flight writes have finished.
func (c *Coordinator) Uninit() {
	// Intercepted calls pass through from here on, and nothing restarts the
	// listener behind Stop.
	if !c.active.CompareAndSwap(true, false) {
		return
	}

	// Removing the hook joins in-flight dispatches on backends that run
	// them on their own goroutine.
	c.mu.Lock()
	if c.removeHook != nil {
		c.removeHook()
		c.removeHook = nil
	}
	c.mu.Unlock()

	c.worker.Stop()

	c.writes.Lock()
	defer c.writes.Unlock()

	surfaces, err := c.locator.Locate()
	if err != nil {
		c.logger.Warn("failed to locate taskbar surfaces for reset", "error", err)
	}
	for _, w := range surfaces.All() {
		if err := c.styler.Reset(w); err != nil {
			c.logger.Warn("failed to reset taskbar", "window", fmt.Sprintf("%#x", w), "error", err)
		}
	}

	c.logger.Info("taskbg uninitialized", "reset", len(surfaces.All()))
}

// ApplyOrReset writes the resolved policy to w, or the shell default when
// styling is limited to occupied displays and w's display is free.
func (c *Coordinator) ApplyOrReset(w platform.WindowID) error {
	c.writes.RLock()
	defer c.writes.RUnlock()

	if !c.active.Load() {
		return platform.ErrNotReady
	}
	snap := c.store.Current()

	if !snap.Settings.OnlyWhenMaximized {
		_, err := c.styler.Apply(w, snap.Settings)
		return err
	}

	c.worker.EnsureRunningWhen(c.listenerWanted)

	display, err := c.backend.DisplayFromWindow(w)
	if err != nil {
		return fmt.Errorf("failed to get display of %#x: %w", w, err)
	}
	return c.applyForDisplay(w, display, snap.Settings)
}

// listenerWanted reports whether the listener should run for the current
// snapshot, which may be newer than the caller's.
func (c *Coordinator) listenerWanted() bool {
	return c.active.Load() && c.store.Current().Settings.NeedsListener()
}

func (c *Coordinator) applyForDisplay(w platform.WindowID, display platform.DisplayID, settings style.Settings) error {
	occupied, err := c.detector.HasMaximizedWindow(display, w)
	if err != nil {
		return err
	}
	if occupied {
		_, err = c.styler.Apply(w, settings)
		return err
	}
	return c.styler.Reset(w)
}

// AdjustAll runs ApplyOrReset on every current surface.
func (c *Coordinator) AdjustAll() error {
	if !c.active.Load() {
		return platform.ErrNotReady
	}
	surfaces, err := c.locator.Locate()
	if err != nil {
		return err
	}
	all := surfaces.All()
	c.styler.Prune(all)

	var errs []error
	for _, w := range all {
		if err := c.ApplyOrReset(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Evaluate re-checks the given displays. It is the listener's flush
// callback and runs on the listener goroutine.
func (c *Coordinator) Evaluate(displays []platform.DisplayID) {
	c.writes.RLock()
	defer c.writes.RUnlock()

	if !c.active.Load() {
		return
	}

	surfaces, err := c.locator.Locate()
	if err != nil {
		c.logger.Warn("failed to locate taskbar surfaces", "error", err)
		return
	}
	if !surfaces.Ready() {
		return
	}

	settings := c.store.Current().Settings
	for _, d := range displays {
		w, ok := c.locator.OnDisplay(surfaces, d)
		if !ok {
			continue
		}
		if !settings.OnlyWhenMaximized {
			if _, err := c.styler.Apply(w, settings); err != nil {
				c.logger.Warn("failed to style taskbar", "window", fmt.Sprintf("%#x", w), "error", err)
			}
			continue
		}
		if err := c.applyForDisplay(w, d, settings); err != nil {
			c.logger.Warn("failed to evaluate display", "display", d, "window", fmt.Sprintf("%#x", w), "error", err)
		}
	}
}

func (c *Coordinator) runListener(quit <-chan struct{}) error {
	c.mu.Lock()
	interval := c.interval
	c.mu.Unlock()

	l := listener.New(listener.Options{
		Windows:  c.backend,
		Events:   c.backend,
		Surfaces: c.locator,
		Flush:    c.Evaluate,
		Interval: interval,
		Logger:   c.logger,
		After:    c.after,
	})
	return l.Run(quit)
}

func (c *Coordinator) loadOrDefault() *config.Config {
	cfg, err := c.load()
	if err != nil {
		c.logger.Warn("failed to load config, using defaults", "error", err)
		return config.DefaultConfig()
	}
	if cfg == nil {
		return config.DefaultConfig()
	}
	for _, w := range cfg.Warnings() {
		c.logger.Warn("config warning", "warning", w)
	}
	return cfg
}
