package tiling

import (
	"math"
	"sort"
)

const (
	DefaultMargin  = 50
	DefaultPadding = 20

	// DefaultMaxScale keeps thumbnails from filling their cells edge to edge.
	DefaultMaxScale = 0.9

	// MinCellSize is the smallest cell edge the layout ever produces.
	MinCellSize = 1
)

// Options controls grid spacing. RefWidth/RefHeight describe the shape of
// the content placed in each cell (the screen, for window thumbnails); when
// unset the usable area's own shape is used.
type Options struct {
	Margin    int
	Padding   int
	RefWidth  int
	RefHeight int
}

// DefaultOptions returns the stock margin and padding.
func DefaultOptions() Options {
	return Options{Margin: DefaultMargin, Padding: DefaultPadding}
}

func (o Options) reference(area Rect) (float64, float64) {
	if o.RefWidth > 0 && o.RefHeight > 0 {
		return float64(o.RefWidth), float64(o.RefHeight)
	}
	return float64(max(area.Width, 1)), float64(max(area.Height, 1))
}

// Thumbnail is one placed cell of a grid generation.
type Thumbnail struct {
	Rect Rect
	Row  int
	Col  int
	Slot int
}

// Generation is an immutable grid assignment of window slots to cells.
type Generation struct {
	Rows       int
	Cols       int
	Area       Rect
	Thumbnails []Thumbnail
}

// Lookup returns the thumbnail owned by slot.
func (g Generation) Lookup(slot int) (Thumbnail, bool) {
	for _, t := range g.Thumbnails {
		if t.Slot == slot {
			return t, true
		}
	}
	return Thumbnail{}, false
}

// Slots returns the owning slot of every thumbnail in row-major order.
func (g Generation) Slots() []int {
	out := make([]int, len(g.Thumbnails))
	for i, t := range g.Thumbnails {
		out[i] = t.Slot
	}
	return out
}

// Rects returns the thumbnail rectangles in row-major order.
func (g Generation) Rects() []Rect {
	out := make([]Rect, len(g.Thumbnails))
	for i, t := range g.Thumbnails {
		out[i] = t.Rect
	}
	return out
}

// Build lays out one cell per slot over area and assigns slots row-major.
func Build(slots []int, area Rect, opts Options) Generation {
	rows, cols := CalculateGrid(len(slots), area, opts)
	positions := CalculatePositions(len(slots), area, opts)

	gen := Generation{Rows: rows, Cols: cols, Area: area}
	if len(positions) == 0 {
		return gen
	}
	gen.Thumbnails = make([]Thumbnail, len(slots))
	for i, slot := range slots {
		gen.Thumbnails[i] = Thumbnail{
			Rect: positions[i],
			Row:  i / cols,
			Col:  i % cols,
			Slot: slot,
		}
	}
	return gen
}

type gridCandidate struct {
	rows, cols int
	scale      float64
	waste      int
	seedDist   int
}

const scaleEpsilon = 1e-9

func (c gridCandidate) better(o gridCandidate) bool {
	if math.Abs(c.scale-o.scale) > scaleEpsilon {
		return c.scale > o.scale
	}
	if c.waste != o.waste {
		return c.waste < o.waste
	}
	if c.seedDist != o.seedDist {
		return c.seedDist < o.seedDist
	}
	return c.cols < o.cols
}

// CalculateGrid determines the grid dimensions for numWindows cells inside
// area. Every candidate column count that wastes no whole row or column is
// scored by the scale at which screen-shaped content fits one cell; the
// largest scale wins, then the fewest empty cells, then the column count
// closest to ceil(sqrt(n * aspect)).
func CalculateGrid(numWindows int, area Rect, opts Options) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	refW, refH := opts.reference(area)
	seed := seedColumns(numWindows, area, refW, refH)

	var best gridCandidate
	found := false
	for c := 1; c <= numWindows; c++ {
		r := ceilDiv(numWindows, c)
		if ceilDiv(numWindows, r) != c {
			continue
		}
		w, h, _, _ := cellSize(area, r, c, opts)
		cand := gridCandidate{
			rows:     r,
			cols:     c,
			scale:    math.Min(float64(w)/refW, float64(h)/refH),
			waste:    r*c - numWindows,
			seedDist: absInt(c - seed),
		}
		if !found || cand.better(best) {
			best = cand
			found = true
		}
	}
	return best.rows, best.cols
}

// seedColumns is the aspect-corrected square-root estimate.
func seedColumns(n int, area Rect, refW, refH float64) int {
	aspect := 1.0
	if area.Width > 0 && area.Height > 0 {
		aspect = (float64(area.Width) / float64(area.Height)) / (refW / refH)
	}
	cols := int(math.Ceil(math.Sqrt(float64(n) * aspect)))
	return min(max(cols, 1), n)
}

// cellSize returns the cell dimensions and the effective margins for a
// rows×cols grid inside area.
func cellSize(area Rect, rows, cols int, opts Options) (w, h, marginX, marginY int) {
	marginX = min(max(opts.Margin, 0), area.Width/4)
	marginY = min(max(opts.Margin, 0), area.Height/4)
	pad := max(opts.Padding, 0)

	availW := max(area.Width-2*marginX, 0)
	availH := max(area.Height-2*marginY, 0)

	w = max((availW-(cols-1)*pad)/cols, MinCellSize)
	h = max((availH-(rows-1)*pad)/rows, MinCellSize)
	return w, h, marginX, marginY
}

// CalculatePositions computes cell rectangles, row-major, for numWindows
// cells inside area. The grid block is centered in the area and a partial
// last row is centered horizontally.
func CalculatePositions(numWindows int, area Rect, opts Options) []Rect {
	if numWindows <= 0 {
		return nil
	}

	rows, cols := CalculateGrid(numWindows, area, opts)
	w, h, marginX, marginY := cellSize(area, rows, cols, opts)
	pad := max(opts.Padding, 0)

	blockW := cols*w + (cols-1)*pad
	blockH := rows*h + (rows-1)*pad
	originX := area.X + marginX + max(area.Width-2*marginX-blockW, 0)/2
	originY := area.Y + marginY + max(area.Height-2*marginY-blockH, 0)/2

	lastRow := rows - 1
	inLastRow := numWindows - lastRow*cols

	positions := make([]Rect, numWindows)
	for i := 0; i < numWindows; i++ {
		row := i / cols
		col := i % cols

		x := originX + col*(w+pad)
		if row == lastRow && inLastRow < cols {
			x += (cols - inLastRow) * (w + pad) / 2
		}

		positions[i] = Rect{
			X:      x,
			Y:      originY + row*(h+pad),
			Width:  w,
			Height: h,
		}
	}

	return positions
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SpatialOrder returns the indexes of rects sorted the way a reader scans
// the screen: by row band of each rect's center (area split into rows
// equal bands), then by center X. Equal keys keep their input order.
func SpatialOrder(rects []Rect, area Rect, rows int) []int {
	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	if rows < 1 {
		rows = 1
	}
	band := float64(max(area.Height, 1)) / float64(rows)

	key := func(r Rect) (int, int) {
		cx, cy := r.Center()
		return int(float64(cy-area.Y) / band), cx
	}
	sort.SliceStable(order, func(a, b int) bool {
		rowA, xA := key(rects[order[a]])
		rowB, xB := key(rects[order[b]])
		if rowA != rowB {
			return rowA < rowB
		}
		return xA < xB
	})
	return order
}
