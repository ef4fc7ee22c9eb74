package interaction

import (
	"time"

	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// Kind identifies the active State variant.
type Kind int

const (
	KindIdle Kind = iota
	KindDragging
	KindSnapping
	KindReverting
	KindGridTransition
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindDragging:
		return "dragging"
	case KindSnapping:
		return "snapping"
	case KindReverting:
		return "reverting"
	case KindGridTransition:
		return "grid-transition"
	default:
		return "unknown"
	}
}

// State is the session's single animation state. The variants below are
// the only implementations.
type State interface {
	Kind() Kind
	sealed()
}

// Idle means nothing is moving.
type Idle struct{}

// Dragging follows the pointer with a scaled thumbnail.
type Dragging struct {
	Drag DragState
}

// Snapping flies a dropped thumbnail into a desktop preview.
type Snapping struct {
	Tween   Tween
	Slot    int
	Desktop int
}

// Reverting flies a dropped thumbnail back to its grid cell.
type Reverting struct {
	Tween Tween
	Slot  int
}

// Purpose says why a grid transition runs and what its completion does.
type Purpose int

const (
	// Reflow moves survivors into a fresh layout, then commits it.
	Reflow Purpose = iota
	// Entrance grows windows from their screen position into the grid.
	Entrance
	// Exit shrinks thumbnails back to their windows, then ends the session.
	Exit
	// Zoom grows a desktop preview to fill the screen, then ends the session.
	Zoom
)

// String returns the string representation of the purpose
func (p Purpose) String() string {
	switch p {
	case Reflow:
		return "reflow"
	case Entrance:
		return "entrance"
	case Exit:
		return "exit"
	case Zoom:
		return "zoom"
	default:
		return "unknown"
	}
}

// Move is one window's path during a grid transition.
type Move struct {
	Slot int
	From tiling.Rect
	To   tiling.Rect
}

// GridTransition interpolates every window between two layouts.
type GridTransition struct {
	Purpose  Purpose
	Moves    []Move
	Next     tiling.Generation
	Start    time.Time
	Duration time.Duration
	Progress float64

	// Then is emitted when an Exit or Zoom completes.
	Then Outcome
	// Preview grows from its bar bounds to Screen during a Zoom.
	Preview deskbar.Preview
	Screen  tiling.Rect
}

func (Idle) Kind() Kind           { return KindIdle }
func (Dragging) Kind() Kind       { return KindDragging }
func (Snapping) Kind() Kind       { return KindSnapping }
func (Reverting) Kind() Kind      { return KindReverting }
func (GridTransition) Kind() Kind { return KindGridTransition }

func (Idle) sealed()           {}
func (Dragging) sealed()       {}
func (Snapping) sealed()       {}
func (Reverting) sealed()      {}
func (GridTransition) sealed() {}

// Rect returns the interpolated rectangle of move i at the current progress.
func (g GridTransition) Rect(i int) tiling.Rect {
	m := g.Moves[i]
	return tiling.Lerp(m.From, m.To, EaseOutCubic(g.Progress))
}

// ZoomRect returns the zooming preview's rectangle at the current progress.
func (g GridTransition) ZoomRect() tiling.Rect {
	return tiling.Lerp(g.Preview.Bounds, g.Screen, EaseOutCubic(g.Progress))
}

// ends reports whether completing g ends the session.
func (g GridTransition) ends() bool {
	return g.Purpose == Exit || g.Purpose == Zoom
}

func (g GridTransition) advance(now time.Time) GridTransition {
	g.Progress = max(g.Progress, progress(g.Start, g.Duration, now))
	return g
}
