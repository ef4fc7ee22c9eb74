package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/x11"
	"github.com/1broseidon/xoverview/internal/xdeskie"
)

var desktopsCmd = &cobra.Command{
	Use:   "desktops",
	Short: "Print the desktop state the bar is built from",
	Long: `Print the desktop count and current desktop published on the root
window, and the window assignment read from the desktop state file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := x11.NewConnection()
		if err != nil {
			return fmt.Errorf("failed to open display: %w", err)
		}
		defer conn.Close()

		path := res.Config.DesktopBar.StateFile
		snap, err := xdeskie.Load(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		printDesktops(cmd.OutOrStdout(), conn.DesktopProps(), path, snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(desktopsCmd)
}

func printDesktops(w io.Writer, props deskbar.Props, path string, snap *xdeskie.Snapshot) {
	if !props.Present {
		fmt.Fprintln(w, "root window: no desktop properties (bar disabled)")
	} else {
		fmt.Fprintf(w, "root window: %d desktops, current %d\n", props.Count, props.Current)
	}

	if snap == nil {
		fmt.Fprintf(w, "state file %s: unavailable\n", path)
		return
	}
	fmt.Fprintf(w, "state file %s: %d desktops, current %d, %d windows\n",
		path, snap.Desktops, snap.Current, snap.Len())
	for desk := 1; desk <= snap.Desktops; desk++ {
		fmt.Fprintf(w, "  desktop %d:", desk)
		for _, id := range snap.WindowsOn(desk) {
			if snap.IsSticky(id) {
				fmt.Fprintf(w, " 0x%x*", id)
			} else {
				fmt.Fprintf(w, " 0x%x", id)
			}
		}
		fmt.Fprintln(w)
	}
}
