package tiling

import "math"

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether the point lies inside the rect (right/bottom exclusive).
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersects reports whether two rects share at least one pixel.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() &&
		r.Right() > o.X &&
		r.Y < o.Bottom() &&
		r.Bottom() > o.Y
}

// Within reports whether r lies entirely inside outer.
func (r Rect) Within(outer Rect) bool {
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.Right() <= outer.Right() && r.Bottom() <= outer.Bottom()
}

// Intersect returns the overlapping area of r and o; the result is empty
// when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.Right(), o.Right())
	y1 := min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the rect's center point.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Inset shrinks the rect by n pixels on every side, never below zero size.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, Width: r.Width - 2*n, Height: r.Height - 2*n}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Lerp interpolates every edge of the rect independently. t is clamped to [0, 1].
func Lerp(from, to Rect, t float64) Rect {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	mix := func(a, b int) int {
		return int(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return Rect{
		X:      mix(from.X, to.X),
		Y:      mix(from.Y, to.Y),
		Width:  mix(from.Width, to.Width),
		Height: mix(from.Height, to.Height),
	}
}

// Union returns the smallest rect covering all rects.
func Union(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}

	minX := rects[0].X
	minY := rects[0].Y
	maxX := rects[0].Right()
	maxY := rects[0].Bottom()

	for _, rect := range rects[1:] {
		minX = min(minX, rect.X)
		minY = min(minY, rect.Y)
		maxX = max(maxX, rect.Right())
		maxY = max(maxY, rect.Bottom())
	}

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// FitAspect centers a width×height content box inside cell, scaled by
// min(cell.Width/width, cell.Height/height, maxScale). A non-positive
// maxScale disables the cap.
func FitAspect(cell Rect, width, height int, maxScale float64) Rect {
	if width <= 0 || height <= 0 || cell.Empty() {
		return cell
	}
	scale := math.Min(float64(cell.Width)/float64(width), float64(cell.Height)/float64(height))
	if maxScale > 0 && scale > maxScale {
		scale = maxScale
	}
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	w = min(w, cell.Width)
	h = min(h, cell.Height)
	return Rect{
		X:      cell.X + (cell.Width-w)/2,
		Y:      cell.Y + (cell.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
