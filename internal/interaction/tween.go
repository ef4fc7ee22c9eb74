package interaction

import (
	"time"

	"github.com/1broseidon/xoverview/internal/tiling"
)

// EaseOutCubic maps linear progress t in [0, 1] to 1-(1-t)^3.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	inv := 1 - t
	return 1 - inv*inv*inv
}

// progress is the clamped linear fraction of d elapsed since start.
// A zero duration is complete immediately.
func progress(start time.Time, d time.Duration, now time.Time) float64 {
	if d <= 0 {
		return 1
	}
	p := float64(now.Sub(start)) / float64(d)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Tween moves one rectangle between two others over a fixed duration.
type Tween struct {
	From     tiling.Rect
	To       tiling.Rect
	Start    time.Time
	Duration time.Duration
	Progress float64
}

func newTween(from, to tiling.Rect, start time.Time, d time.Duration) Tween {
	return Tween{From: from, To: to, Start: start, Duration: d}
}

// Rect returns the eased rectangle at the current progress.
func (t Tween) Rect() tiling.Rect {
	return tiling.Lerp(t.From, t.To, EaseOutCubic(t.Progress))
}

// Done reports whether the tween reached its target.
func (t Tween) Done() bool {
	return t.Progress >= 1
}

func (t Tween) advance(now time.Time) Tween {
	t.Progress = max(t.Progress, progress(t.Start, t.Duration, now))
	return t
}
