package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xoverview/internal/config"
	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/tiling"
)

var (
	layoutWidth  int
	layoutHeight int
	layoutBar    bool
)

var layoutCmd = &cobra.Command{
	Use:   "layout N",
	Short: "Print the grid the overview would use for N windows",
	Long: `Print the grid dimensions and cell rectangles for N windows on a screen
of the given size, using the margin and padding from the configuration.
No X connection is needed.`,
	Example: `  xoverview layout 5
  xoverview layout 7 --width 2560 --height 1440 --bar`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid window count %q", args[0])
		}
		res, err := loadConfig()
		if err != nil {
			return err
		}
		screen := tiling.Rect{Width: layoutWidth, Height: layoutHeight}
		if screen.Empty() {
			return fmt.Errorf("invalid screen size %dx%d", layoutWidth, layoutHeight)
		}
		printLayout(cmd.OutOrStdout(), res.Config, n, screen, layoutBar)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().IntVar(&layoutWidth, "width", 1920, "screen width")
	layoutCmd.Flags().IntVar(&layoutHeight, "height", 1080, "screen height")
	layoutCmd.Flags().BoolVar(&layoutBar, "bar", false, "reserve space for the desktop bar")
}

func printLayout(w io.Writer, cfg *config.Config, n int, screen tiling.Rect, withBar bool) {
	usable := screen
	if withBar {
		bar := deskbar.Build(deskbar.Input{
			Screen: screen,
			Props:  deskbar.Props{Present: true, Count: 1},
		}, deskbar.Options{
			Height:        cfg.DesktopBar.Height,
			PreviewHeight: cfg.DesktopBar.PreviewHeight,
			Spacing:       cfg.DesktopBar.PreviewSpacing,
		})
		usable = bar.Usable(screen)
	}

	opts := tiling.Options{
		Margin:    cfg.Layout.Margin,
		Padding:   cfg.Layout.Padding,
		RefWidth:  screen.Width,
		RefHeight: screen.Height,
	}
	rows, cols := tiling.CalculateGrid(n, usable, opts)
	fmt.Fprintf(w, "screen %dx%d, grid area %dx%d+%d+%d\n",
		screen.Width, screen.Height, usable.Width, usable.Height, usable.X, usable.Y)
	fmt.Fprintf(w, "%d windows: %d rows x %d columns\n", n, rows, cols)

	slots := make([]int, n)
	for i := range slots {
		slots[i] = i
	}
	for _, th := range tiling.Build(slots, usable, opts).Thumbnails {
		r := th.Rect
		fmt.Fprintf(w, "  %2d  %4dx%-4d at %d,%d\n", th.Slot, r.Width, r.Height, r.X, r.Y)
	}
}
