package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/taskbg/internal/config"
	"github.com/1broseidon/taskbg/internal/daemon"
	"github.com/1broseidon/taskbg/internal/ipc"
	"github.com/1broseidon/taskbg/internal/logging"
	"github.com/1broseidon/taskbg/internal/platform"
	"github.com/1broseidon/taskbg/internal/theme"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the taskbar styler in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	load := loadFrom(path)

	// Startup-only settings (logging, host process, reconciler) come from
	// this read; the coordinator reloads everything else itself.
	cfg, loadErr := load()
	if loadErr != nil {
		cfg = config.DefaultConfig()
	}

	logger, closer, err := logging.New(cfg.GetLoggingConfig())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if loadErr != nil {
		logger.Warn("configuration invalid, using defaults", "path", path, "error", loadErr)
	}

	backend, err := platform.NewDefault(platform.Options{
		HostProcess: cfg.Surfaces.HostProcess,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to window system: %w", err)
	}
	defer backend.Close()

	coord := daemon.New(daemon.Options{
		Backend: backend,
		Theme:   theme.New(config.DarkModeAuto, logger),
		Load:    load,
		Logger:  logger,
	})
	if err := coord.Init(); err != nil {
		if errors.Is(err, platform.ErrUnavailable) {
			return fmt.Errorf("taskbar styling is not supported here: %w", err)
		}
		return err
	}
	defer coord.Uninit()
	coord.AfterInit()

	srv, err := ipc.NewServer(coord, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				logger.Info("SIGHUP received, reloading settings")
				coord.SettingsChanged()
			}
		}
	})

	if watcher, err := config.NewWatcher(path, 0, coord.SettingsChanged, logger); err != nil {
		logger.Warn("config file changes will not be picked up", "error", err)
	} else {
		g.Go(func() error { return watcher.Run(ctx) })
	}

	if interval := cfg.ReconcileInterval(); interval > 0 {
		rec := daemon.NewReconciler(daemon.ReconcilerConfig{Interval: interval, Logger: logger}, coord)
		g.Go(func() error {
			rec.Run(ctx)
			return nil
		})
	}

	logger.Info("taskbg daemon running", "config", path, "socket", srv.SocketPath())

	err = g.Wait()
	logger.Info("taskbg daemon shutting down")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
