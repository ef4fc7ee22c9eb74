package session

import (
	"time"

	"github.com/1broseidon/xoverview/internal/capture"
	"github.com/1broseidon/xoverview/internal/config"
	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/interaction"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// content exposes capture surfaces and titles to the renderer.
type content struct {
	engine *capture.Engine
}

func (c content) Size(slot int) (int, int, bool) {
	s, ok := c.engine.Surface(slot)
	if !ok {
		return 0, 0, false
	}
	return s.Width, s.Height, true
}

func (c content) Title(slot int) string {
	if r := c.engine.Arena().Record(slot); r != nil {
		return r.Title
	}
	return ""
}

// orderWindows arranges windows so their grid cells follow on-screen
// position: top band first, then left to right.
func orderWindows(windows []capture.Window, usable tiling.Rect, grid tiling.Options) []capture.Window {
	if len(windows) < 2 {
		return windows
	}
	rows, _ := tiling.CalculateGrid(len(windows), usable, grid)
	rects := make([]tiling.Rect, len(windows))
	for i, w := range windows {
		rects[i] = w.Geometry
	}
	out := make([]capture.Window, len(windows))
	for i, idx := range tiling.SpatialOrder(rects, usable, rows) {
		out[i] = windows[idx]
	}
	return out
}

// barWindows lists every slot that still has a window, including ones
// dropped on another desktop, so previews can show them.
func barWindows(a *capture.Arena) []deskbar.Window {
	out := make([]deskbar.Window, 0, a.Len())
	for slot := 0; slot < a.Len(); slot++ {
		r := a.Record(slot)
		if r.Stale {
			continue
		}
		out = append(out, deskbar.Window{
			Slot:     slot,
			IDs:      []uint32{r.Frame, r.Client},
			Geometry: r.Geometry,
		})
	}
	return out
}

func gridOptions(cfg *config.Config, screen tiling.Rect) tiling.Options {
	return tiling.Options{
		Margin:    cfg.Layout.Margin,
		Padding:   cfg.Layout.Padding,
		RefWidth:  screen.Width,
		RefHeight: screen.Height,
	}
}

func barOptions(cfg *config.Config) deskbar.Options {
	return deskbar.Options{
		Height:        cfg.DesktopBar.Height,
		PreviewHeight: cfg.DesktopBar.PreviewHeight,
		Spacing:       cfg.DesktopBar.PreviewSpacing,
	}
}

func timingFrom(a config.AnimationConfig) interaction.Timing {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return interaction.Timing{
		Snap:          ms(a.SnapMS),
		Revert:        ms(a.RevertMS),
		Transition:    ms(a.TransitionMS),
		Entrance:      ms(a.EntranceMS),
		Exit:          ms(a.ExitMS),
		DragThreshold: a.DragThreshold,
	}.Scaled(a.Speed)
}
