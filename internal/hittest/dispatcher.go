// Package hittest maps pointer positions to the interactive element drawn
// there in the frame currently on screen.
package hittest

import (
	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// Kind identifies what a hit landed on.
type Kind int

const (
	None Kind = iota
	Overlay
	AddButton
	Preview
	Cell
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Overlay:
		return "overlay"
	case AddButton:
		return "add-button"
	case Preview:
		return "preview"
	case Cell:
		return "cell"
	default:
		return "unknown"
	}
}

// Hit is the result of a query. Slot is set for Overlay and Cell hits,
// Desktop for Preview hits.
type Hit struct {
	Kind    Kind
	Slot    int
	Desktop int
}

// Target is a rendered rectangle owned by a window slot.
type Target struct {
	Slot int
	Rect tiling.Rect
}

// Layers are the rectangles currently on screen, in paint order for Cells.
type Layers struct {
	Overlay *Target
	Bar     *deskbar.Bar
	Cells   []Target
}

// Dispatcher answers hit queries against the last refreshed layers.
type Dispatcher struct {
	layers Layers
}

// New returns a dispatcher with nothing on screen.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Refresh replaces the layers. Callers invoke it every time anything on
// screen moves so queries never see a stale generation.
func (d *Dispatcher) Refresh(layers Layers) {
	cells := make([]Target, len(layers.Cells))
	copy(cells, layers.Cells)
	layers.Cells = cells
	if layers.Overlay != nil {
		o := *layers.Overlay
		layers.Overlay = &o
	}
	d.layers = layers
}

// At returns the topmost element under (x, y): drag overlay, then the add
// button, then desktop previews, then grid cells from the top of the paint
// order down.
func (d *Dispatcher) At(x, y int) Hit {
	if o := d.layers.Overlay; o != nil && o.Rect.Contains(x, y) {
		return Hit{Kind: Overlay, Slot: o.Slot}
	}

	if bar := d.layers.Bar; bar != nil {
		if bar.AddButton.Contains(x, y) {
			return Hit{Kind: AddButton}
		}
		if i, ok := bar.PreviewAt(x, y); ok {
			return Hit{Kind: Preview, Desktop: bar.Previews[i].Desktop}
		}
	}

	cells := d.layers.Cells
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i].Rect.Contains(x, y) {
			return Hit{Kind: Cell, Slot: cells[i].Slot}
		}
	}
	return Hit{Kind: None}
}

// CellRect returns the on-screen rect of slot, if it is currently drawn.
func (d *Dispatcher) CellRect(slot int) (tiling.Rect, bool) {
	for _, c := range d.layers.Cells {
		if c.Slot == slot {
			return c.Rect, true
		}
	}
	return tiling.Rect{}, false
}

// Cells returns the current cell layer in paint order.
func (d *Dispatcher) Cells() []Target {
	return d.layers.Cells
}
