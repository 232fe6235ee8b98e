package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/taskbg/internal/config"
)

var printDefaults bool

func init() {
	configPrintCmd.Flags().BoolVar(&printDefaults, "defaults", false, "print built-in defaults (no files)")
	configCmd.AddCommand(configValidateCmd, configPrintCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		res, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		for _, w := range res.Config.Warnings() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "config: ok")
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.DefaultConfig()
		if !printDefaults {
			path, err := configPath()
			if err != nil {
				return err
			}
			res, err := config.LoadFromPath(path)
			if err != nil {
				return err
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		suffix := ""
		if _, err := os.Stat(path); os.IsNotExist(err) {
			suffix = " (missing, defaults in use)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", path, suffix)
		return nil
	},
}
