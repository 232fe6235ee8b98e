package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/taskbg/internal/ipc"
)

func init() {
	rootCmd.AddCommand(reloadCmd, reapplyCmd)
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Make the daemon reread its configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := ipc.NewClient().Reload()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reloaded (settings version %d)\n", data.SettingsVersion)
		return nil
	},
}

var reapplyCmd = &cobra.Command{
	Use:   "reapply",
	Short: "Restyle every taskbar surface now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := ipc.NewClient().Reapply()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reapplied to %d surface(s)\n", data.Surfaces)
		if data.Error != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", data.Error)
		}
		return nil
	},
}
