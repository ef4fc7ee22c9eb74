package interaction

import (
	"math"

	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// DragState tracks one thumbnail following the pointer.
type DragState struct {
	Slot int
	// Origin is the thumbnail's grid rect when the drag started.
	Origin tiling.Rect
	// OffsetX/OffsetY is the press point relative to Origin's top-left.
	OffsetX int
	OffsetY int
	StartX  int
	StartY  int

	Current     tiling.Rect
	Scale       float64
	TargetScale float64
}

func beginDrag(slot int, origin tiling.Rect, pressX, pressY int, bar *deskbar.Bar) DragState {
	return DragState{
		Slot:        slot,
		Origin:      origin,
		OffsetX:     pressX - origin.X,
		OffsetY:     pressY - origin.Y,
		StartX:      pressX,
		StartY:      pressY,
		Current:     origin,
		Scale:       1,
		TargetScale: bar.TargetScale(origin),
	}
}

// travel is the fraction of the way from the drag start to the previews'
// bottom edge, 1 once the pointer is inside a preview or above the edge.
func (d DragState) travel(x, y int, bar *deskbar.Bar) float64 {
	if bar == nil || len(bar.Previews) == 0 {
		return 0
	}
	if _, ok := bar.PreviewAt(x, y); ok {
		return 1
	}
	edge := bar.PreviewEdge()
	if y < edge {
		return 1
	}
	span := d.StartY - edge
	if span <= 0 {
		return 0
	}
	t := float64(d.StartY-y) / float64(span)
	return math.Min(math.Max(t, 0), 1)
}

// ScaleAt returns the thumbnail scale for a pointer at (x, y). It is 1 at
// the start position and reaches TargetScale as the pointer enters a preview.
func (d DragState) ScaleAt(x, y int, bar *deskbar.Bar) float64 {
	t := d.travel(x, y, bar)
	return 1 + (d.TargetScale-1)*t
}

// RectAt returns the thumbnail rect for a pointer at (x, y) and a given
// scale. The press point stays under the pointer.
func (d DragState) RectAt(x, y int, scale float64) tiling.Rect {
	return tiling.Rect{
		X:      int(math.Round(float64(x) - float64(d.OffsetX)*scale)),
		Y:      int(math.Round(float64(y) - float64(d.OffsetY)*scale)),
		Width:  max(int(math.Round(float64(d.Origin.Width)*scale)), 1),
		Height: max(int(math.Round(float64(d.Origin.Height)*scale)), 1),
	}
}

func (d DragState) moved(x, y int, bar *deskbar.Bar) DragState {
	d.TargetScale = bar.TargetScale(d.Origin)
	d.Scale = d.ScaleAt(x, y, bar)
	d.Current = d.RectAt(x, y, d.Scale)
	return d
}
