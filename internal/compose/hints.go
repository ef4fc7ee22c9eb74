package compose

import (
	"github.com/1broseidon/xoverview/internal/tiling"
)

const (
	hintMargin   = 12
	hintPaddingX = 10
	hintPaddingY = 8
	hintMinWidth = 220
)

// DefaultHints returns the key legend. The drag line is only shown when a
// desktop bar exists.
func DefaultHints(withBar bool) []string {
	lines := []string{
		"Click   focus window",
		"Arrows  select window",
		"Enter   focus selected",
	}
	if withBar {
		lines = append(lines, "Drag    send to desktop")
	}
	return append(lines, "Esc     close")
}

func (f *Frame) hints(s Scene, thumbs []tiling.Rect) {
	if len(s.Hints) == 0 {
		return
	}

	width, height := hintDimensions(s.Hints)
	bounds := s.Bar.Usable(s.Screen)
	if bounds.Empty() {
		return
	}
	width = min(width, max(bounds.Width-2*hintMargin, 1))
	height = min(height, max(bounds.Height-2*hintMargin, 1))

	avoid := append([]tiling.Rect(nil), thumbs...)
	if s.Floating != nil {
		avoid = append(avoid, s.Floating.Rect)
	}

	x, y := chooseHintPosition(bounds, avoid, width, height)
	panel := tiling.Rect{X: x, Y: y, Width: width, Height: height}
	f.fill(panel, ColorHintBg)

	for i, line := range s.Hints {
		if line == "" {
			continue
		}
		top := y + hintPaddingY + i*LineHeight
		if top+LineHeight > panel.Bottom() {
			break
		}
		f.add(Op{
			Kind:       OpText,
			Rect:       tiling.Rect{X: x + hintPaddingX, Y: top, Width: width - 2*hintPaddingX, Height: LineHeight},
			Color:      ColorHintText,
			Background: ColorHintBg,
			Alpha:      0xff,
			Text:       truncate(line, (width-2*hintPaddingX)/CharWidth),
		})
	}
}

func hintDimensions(lines []string) (width, height int) {
	maxChars := 0
	for _, line := range lines {
		if len(line) > maxChars {
			maxChars = len(line)
		}
	}
	width = maxChars*CharWidth + 2*hintPaddingX
	if width < hintMinWidth {
		width = hintMinWidth
	}
	height = len(lines)*LineHeight + 2*hintPaddingY
	return width, height
}

// chooseHintPosition tries the four corners of bounds, starting top-right,
// and returns the first that does not cover any avoid rect.
func chooseHintPosition(bounds tiling.Rect, avoid []tiling.Rect, width, height int) (int, int) {
	width = max(width, 1)
	height = max(height, 1)

	left := bounds.X + hintMargin
	right := max(bounds.Right()-hintMargin-width, left)
	top := bounds.Y + hintMargin
	bottom := max(bounds.Bottom()-hintMargin-height, top)

	candidates := []tiling.Rect{
		{X: right, Y: bottom, Width: width, Height: height},
		{X: left, Y: bottom, Width: width, Height: height},
		{X: right, Y: top, Width: width, Height: height},
		{X: left, Y: top, Width: width, Height: height},
	}

	for _, c := range candidates {
		covered := false
		for _, a := range avoid {
			if c.Intersects(a) {
				covered = true
				break
			}
		}
		if !covered {
			return clampHintOrigin(c.X, c.Y, bounds, width, height)
		}
	}
	return clampHintOrigin(candidates[0].X, candidates[0].Y, bounds, width, height)
}

func clampHintOrigin(x, y int, bounds tiling.Rect, width, height int) (int, int) {
	left := bounds.X + hintMargin
	right := bounds.Right() - hintMargin - width
	if right < left {
		left = bounds.X
		right = bounds.Right() - width
	}
	right = max(right, left)

	top := bounds.Y + hintMargin
	bottom := bounds.Bottom() - hintMargin - height
	if bottom < top {
		top = bounds.Y
		bottom = bounds.Bottom() - height
	}
	bottom = max(bottom, top)

	return min(max(x, left), right), min(max(y, top), bottom)
}
