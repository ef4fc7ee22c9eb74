package capture

import (
	"github.com/1broseidon/xoverview/internal/tiling"
)

// Window describes one top-level window at session start.
type Window struct {
	// Frame is the root child the window manager reparented the client into,
	// or the client itself when undecorated.
	Frame    uint32
	Client   uint32
	Geometry tiling.Rect
	Class    string
	Title    string
}

// Record is one window slot in the arena.
type Record struct {
	Window
	Surface Surface
	Damage  uint32

	// Removed records keep their slot index but are excluded from layout,
	// rendering and hit-testing.
	Removed bool
	// Stale records lost their capture surface (window destroyed or unmapped).
	Stale bool

	redirected bool
}

// Arena owns every window record of a session. Slots are indexes into the
// arena and stay valid until the session ends.
type Arena struct {
	records []Record
}

// NewArena builds one slot per window, in order.
func NewArena(windows []Window) *Arena {
	a := &Arena{records: make([]Record, len(windows))}
	for i, w := range windows {
		a.records[i] = Record{Window: w}
	}
	return a
}

// Len returns the number of slots, removed ones included.
func (a *Arena) Len() int { return len(a.records) }

// Record returns the record for slot, or nil when out of range.
func (a *Arena) Record(slot int) *Record {
	if slot < 0 || slot >= len(a.records) {
		return nil
	}
	return &a.records[slot]
}

// Live returns the non-removed slots in slot order.
func (a *Arena) Live() []int {
	live := make([]int, 0, len(a.records))
	for i := range a.records {
		if !a.records[i].Removed {
			live = append(live, i)
		}
	}
	return live
}

// Removed reports whether slot is removed. Unknown slots count as removed.
func (a *Arena) Removed(slot int) bool {
	r := a.Record(slot)
	return r == nil || r.Removed
}

// Geometry returns the window's last known on-screen rectangle.
func (a *Arena) Geometry(slot int) tiling.Rect {
	if r := a.Record(slot); r != nil {
		return r.Geometry
	}
	return tiling.Rect{}
}

// SetGeometry records a new on-screen rectangle for slot.
func (a *Arena) SetGeometry(slot int, g tiling.Rect) {
	if r := a.Record(slot); r != nil {
		r.Geometry = g
	}
}

// MarkRemoved flags slot as removed. The slot index remains valid.
func (a *Arena) MarkRemoved(slot int) {
	if r := a.Record(slot); r != nil {
		r.Removed = true
	}
}

// SlotOf finds the slot whose frame or client window is id.
func (a *Arena) SlotOf(id uint32) (int, bool) {
	if id == 0 {
		return 0, false
	}
	for i := range a.records {
		if a.records[i].Frame == id || a.records[i].Client == id {
			return i, true
		}
	}
	return 0, false
}
