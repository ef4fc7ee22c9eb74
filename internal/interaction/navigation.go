package interaction

import "github.com/1broseidon/xoverview/internal/hittest"

// Direction represents an arrow key direction
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// navigate returns the slot reached by moving from current in dir across
// the rendered cells. Cells may form rows of different lengths, so the
// nearest cell whose center lies in dir wins; with none, the move wraps to
// the far edge, preferring the same row or column.
func navigate(cells []hittest.Target, current int, dir Direction) (int, bool) {
	if len(cells) == 0 {
		return 0, false
	}

	from := -1
	for i, c := range cells {
		if c.Slot == current {
			from = i
			break
		}
	}
	if from < 0 {
		return cells[0].Slot, true
	}

	cx, cy := cells[from].Rect.Center()

	best, bestDist := -1, 0
	for i, c := range cells {
		if i == from {
			continue
		}
		x, y := c.Rect.Center()
		if !ahead(dir, cx, cy, x, y) {
			continue
		}
		dist := abs(x-cx) + abs(y-cy)
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best >= 0 {
		return cells[best].Slot, true
	}

	// Wrap: the furthest cell against dir, closest on the cross axis.
	best, bestScore := -1, 0
	for i, c := range cells {
		if i == from {
			continue
		}
		x, y := c.Rect.Center()
		var score int
		switch dir {
		case DirUp:
			score = y*10000 - abs(x-cx)
		case DirDown:
			score = -y*10000 - abs(x-cx)
		case DirLeft:
			score = x*10000 - abs(y-cy)
		case DirRight:
			score = -x*10000 - abs(y-cy)
		}
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return cells[best].Slot, true
	}
	return current, true
}

func ahead(dir Direction, cx, cy, x, y int) bool {
	switch dir {
	case DirUp:
		return y < cy
	case DirDown:
		return y > cy
	case DirLeft:
		return x < cx
	case DirRight:
		return x > cx
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
