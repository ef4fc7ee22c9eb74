// Package deskbar lays out the desktop bar: one preview per virtual desktop
// across a reserved strip at the top of the screen, plus an add button.
package deskbar

import (
	"math"

	"github.com/1broseidon/xoverview/internal/tiling"
	"github.com/1broseidon/xoverview/internal/xdeskie"
)

const (
	DefaultHeight        = 120
	DefaultPreviewHeight = 80
	DefaultSpacing       = 15

	AddButtonSize   = 40
	AddButtonMargin = 20
)

// Options sizes the bar.
type Options struct {
	Height        int
	PreviewHeight int
	Spacing       int
}

// DefaultOptions returns the stock bar geometry.
func DefaultOptions() Options {
	return Options{
		Height:        DefaultHeight,
		PreviewHeight: DefaultPreviewHeight,
		Spacing:       DefaultSpacing,
	}
}

// Props are the two root window properties published by the desktop
// manager. Present is false when either property is missing.
type Props struct {
	Present bool
	Count   int
	Current int
}

// Window is an overview window as seen by the bar.
type Window struct {
	Slot     int
	IDs      []uint32
	Geometry tiling.Rect
}

// Mini is a window's placement inside a preview.
type Mini struct {
	Slot int
	Rect tiling.Rect
}

// Preview is one desktop cell. Desktop is 0-based like _NET_CURRENT_DESKTOP.
type Preview struct {
	Bounds    tiling.Rect
	Desktop   int
	Minis     []Mini
	IsCurrent bool
}

// Bar is an immutable bar layout. A nil *Bar means the bar is disabled and
// reserves no space.
type Bar struct {
	Bounds    tiling.Rect
	Screen    tiling.Rect
	Previews  []Preview
	AddButton tiling.Rect
}

// Input collects everything the bar is built from.
type Input struct {
	Screen   tiling.Rect
	Props    Props
	Snapshot *xdeskie.Snapshot
	Windows  []Window
	// Moved overrides the desktop of slots dropped on a preview this session.
	Moved map[int]int
}

// Build lays out the bar. It returns nil when the desktop properties are
// absent or report no desktops.
func Build(in Input, opts Options) *Bar {
	if !in.Props.Present || in.Props.Count <= 0 || in.Screen.Empty() {
		return nil
	}
	opts = opts.normalized()

	bar := &Bar{
		Screen: in.Screen,
		Bounds: tiling.Rect{
			X:      in.Screen.X,
			Y:      in.Screen.Y,
			Width:  in.Screen.Width,
			Height: min(opts.Height, in.Screen.Height),
		},
	}

	bar.AddButton = tiling.Rect{
		X:      bar.Bounds.Right() - AddButtonMargin - AddButtonSize,
		Y:      bar.Bounds.Y + (bar.Bounds.Height-AddButtonSize)/2,
		Width:  AddButtonSize,
		Height: AddButtonSize,
	}

	n := in.Props.Count
	aspect := float64(in.Screen.Width) / float64(in.Screen.Height)
	previewH := min(opts.PreviewHeight, bar.Bounds.Height)
	previewW := int(math.Round(float64(previewH) * aspect))

	// Shrink previews that would run into the add button.
	avail := bar.Bounds.Width - 2*(AddButtonMargin+AddButtonSize+opts.Spacing)
	if total := n*previewW + (n-1)*opts.Spacing; total > avail && avail > 0 {
		previewW = max((avail-(n-1)*opts.Spacing)/n, 1)
		previewH = max(int(math.Round(float64(previewW)/aspect)), 1)
	}

	total := n*previewW + (n-1)*opts.Spacing
	startX := bar.Bounds.X + (bar.Bounds.Width-total)/2
	y := bar.Bounds.Y + (bar.Bounds.Height-previewH)/2

	bar.Previews = make([]Preview, n)
	for i := 0; i < n; i++ {
		bounds := tiling.Rect{
			X:      startX + i*(previewW+opts.Spacing),
			Y:      y,
			Width:  previewW,
			Height: previewH,
		}
		bar.Previews[i] = Preview{
			Bounds:    bounds,
			Desktop:   i,
			IsCurrent: i == in.Props.Current,
			Minis:     placeMinis(in, i, bounds),
		}
	}
	return bar
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.PreviewHeight <= 0 {
		o.PreviewHeight = d.PreviewHeight
	}
	if o.Spacing < 0 {
		o.Spacing = d.Spacing
	}
	return o
}

// placeMinis maps every window visible on desktop into preview space.
// Snapshot desktops are 1-based, previews 0-based.
func placeMinis(in Input, desktop int, preview tiling.Rect) []Mini {
	byID := make(map[uint32]Window, len(in.Windows)*2)
	for _, w := range in.Windows {
		for _, id := range w.IDs {
			byID[id] = w
		}
	}

	var minis []Mini
	seen := make(map[int]struct{})
	add := func(w Window) {
		if _, dup := seen[w.Slot]; dup {
			return
		}
		seen[w.Slot] = struct{}{}
		r := MiniRect(in.Screen, preview, w.Geometry)
		if r.Empty() {
			return
		}
		minis = append(minis, Mini{Slot: w.Slot, Rect: r})
	}

	for _, id := range in.Snapshot.WindowsOn(desktop + 1) {
		w, ok := byID[id]
		if !ok {
			continue
		}
		if moved, ok := in.Moved[w.Slot]; ok && moved != desktop && !in.Snapshot.IsSticky(id) {
			continue
		}
		add(w)
	}
	for _, w := range in.Windows {
		if moved, ok := in.Moved[w.Slot]; ok && moved == desktop {
			add(w)
		}
	}
	return minis
}

// MiniRect linearly maps a screen rectangle into preview coordinates and
// clips it to the preview.
func MiniRect(screen, preview, window tiling.Rect) tiling.Rect {
	if screen.Empty() || preview.Empty() {
		return tiling.Rect{}
	}
	sx := float64(preview.Width) / float64(screen.Width)
	sy := float64(preview.Height) / float64(screen.Height)

	r := tiling.Rect{
		X:      preview.X + int(math.Round(float64(window.X-screen.X)*sx)),
		Y:      preview.Y + int(math.Round(float64(window.Y-screen.Y)*sy)),
		Width:  max(int(math.Round(float64(window.Width)*sx)), 1),
		Height: max(int(math.Round(float64(window.Height)*sy)), 1),
	}
	return r.Intersect(preview)
}

// Reserved is the strip height taken from the grid.
func (b *Bar) Reserved() int {
	if b == nil {
		return 0
	}
	return b.Bounds.Height
}

// Usable returns the screen area left for the grid.
func (b *Bar) Usable(screen tiling.Rect) tiling.Rect {
	r := b.Reserved()
	return tiling.Rect{
		X:      screen.X,
		Y:      screen.Y + r,
		Width:  screen.Width,
		Height: max(screen.Height-r, 0),
	}
}

// PreviewAt returns the index of the preview containing the point.
func (b *Bar) PreviewAt(x, y int) (int, bool) {
	if b == nil {
		return 0, false
	}
	for i, p := range b.Previews {
		if p.Bounds.Contains(x, y) {
			return i, true
		}
	}
	return 0, false
}

// PreviewEdge is the bottom edge shared by all previews; a drag reaches
// its target scale when the pointer rises past it.
func (b *Bar) PreviewEdge() int {
	if b == nil || len(b.Previews) == 0 {
		return 0
	}
	edge := b.Previews[0].Bounds.Bottom()
	for _, p := range b.Previews[1:] {
		edge = max(edge, p.Bounds.Bottom())
	}
	return edge
}

// TargetScale is the scale at which a thumbnail of cell size fits inside a
// preview. It never exceeds 1.
func (b *Bar) TargetScale(cell tiling.Rect) float64 {
	if b == nil || len(b.Previews) == 0 || cell.Empty() {
		return 1
	}
	p := b.Previews[0].Bounds
	return math.Min(1, math.Min(
		float64(p.Width)/float64(cell.Width),
		float64(p.Height)/float64(cell.Height),
	))
}
