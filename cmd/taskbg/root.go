package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/taskbg/internal/config"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "taskbg",
	Short: "Keep the taskbar background styled",
	Long: `taskbg replaces the shell's taskbar background with a configured blur,
acrylic or solid color policy. With only_when_maximized set, a taskbar is
styled only while a maximized window shares its display.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path (default: ~/.config/taskbg/config.yaml)")
}

func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.DefaultConfigPath()
}

// loadFrom returns a loader bound to path, for reloads.
func loadFrom(path string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		res, err := config.LoadFromPath(path)
		if err != nil {
			return nil, err
		}
		return res.Config, nil
	}
}
