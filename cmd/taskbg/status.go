package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/taskbg/internal/ipc"
)

var statusJSON bool

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := ipc.NewClient().GetStatus()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if statusJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		return printStatus(out, st)
	},
}

func printStatus(w io.Writer, st *ipc.StatusData) error {
	active := dimStyle.Render("false")
	if st.Active {
		active = okStyle.Render("true")
	}
	fmt.Fprintln(w, titleStyle.Render("taskbg daemon"))
	fmt.Fprintf(w, "active:              %s\n", active)
	fmt.Fprintf(w, "settings_version:    %d\n", st.SettingsVersion)
	fmt.Fprintf(w, "background_style:    %s\n", st.BackgroundStyle)
	fmt.Fprintf(w, "only_when_maximized: %v\n", st.OnlyWhenMaximized)
	fmt.Fprintf(w, "dark_mode:           %v (style %v)\n", st.DarkModeActive, st.DarkModeStyle)
	fmt.Fprintf(w, "debounce_ms:         %d\n", st.DebounceMS)
	fmt.Fprintf(w, "listener:            %s\n", st.Listener)
	fmt.Fprintf(w, "uptime_seconds:      %d\n", st.UptimeSeconds)

	if len(st.Surfaces) == 0 {
		fmt.Fprintln(w, "\n"+dimStyle.Render("No taskbar surfaces found."))
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tROLE\tDISPLAY\tOCCUPIED\tSTYLED\tPOLICY")
	for _, s := range st.Surfaces {
		role := "secondary"
		if s.Primary {
			role = "primary"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%v\t%v\t%s\n", s.Window, role, s.Display, s.Occupied, s.Styled, s.Policy)
	}
	return tw.Flush()
}
