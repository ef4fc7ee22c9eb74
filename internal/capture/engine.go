// Package capture mirrors window contents into scalable surfaces and keeps
// them current from damage notifications.
package capture

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/1broseidon/xoverview/internal/logging"
)

// ErrWindowGone is returned when a window vanished between discovery and use.
var ErrWindowGone = errors.New("capture: window gone")

// Surface is a server-side picture holding a window's contents.
type Surface struct {
	Picture uint32
	// Pixmap backs Picture and is freed with it.
	Pixmap      uint32
	Width       int
	Height      int
	Placeholder bool
}

// Valid reports whether the surface can be drawn.
func (s Surface) Valid() bool {
	return s.Picture != 0
}

// Backend performs the server-side work for the engine.
type Backend interface {
	// Redirect sends a frame's rendering off-screen so its pixmap can be named.
	Redirect(frame uint32) error
	Unredirect(frame uint32)
	// Capture names the frame's current pixmap and wraps it in a filtered
	// picture. It returns ErrWindowGone when the window no longer exists.
	Capture(frame uint32) (Surface, error)
	// Placeholder builds a stand-in surface from the window's icon.
	Placeholder(w Window) (Surface, error)
	Release(s Surface)
	// Watch attaches a damage object to frame and returns its id.
	Watch(frame uint32) (uint32, error)
	Unwatch(damage uint32)
	// Subtract clears the damage region so further changes report again.
	Subtract(damage uint32)
}

// Engine tracks one capture surface per arena slot.
type Engine struct {
	backend Backend
	arena   *Arena
	damage  map[uint32]int
	dirty   map[int]struct{}
	log     *zerolog.Logger
}

// NewEngine creates an engine over arena.
func NewEngine(backend Backend, arena *Arena) *Engine {
	return &Engine{
		backend: backend,
		arena:   arena,
		damage:  make(map[uint32]int),
		dirty:   make(map[int]struct{}),
		log:     logging.WithComponent("capture"),
	}
}

// Arena returns the engine's arena.
func (e *Engine) Arena() *Arena { return e.arena }

// SnapshotAll captures every live slot and returns how many got a real
// (non-placeholder) surface. Windows that vanished are marked stale.
func (e *Engine) SnapshotAll() int {
	captured := 0
	for _, slot := range e.arena.Live() {
		if err := e.Snapshot(slot); err != nil {
			e.log.Debug().Err(err).Int("slot", slot).Msg("snapshot failed")
			continue
		}
		if !e.arena.Record(slot).Surface.Placeholder {
			captured++
		}
	}
	return captured
}

// Snapshot redirects slot's frame, captures its contents and attaches a
// damage watch. A placeholder is used when the pixmap cannot be named.
func (e *Engine) Snapshot(slot int) error {
	rec := e.arena.Record(slot)
	if rec == nil || rec.Removed {
		return fmt.Errorf("slot %d: %w", slot, ErrWindowGone)
	}

	err := e.backend.Redirect(rec.Frame)
	switch {
	case errors.Is(err, ErrWindowGone):
		e.MarkStale(slot)
		return fmt.Errorf("redirect 0x%x: %w", rec.Frame, err)
	case err == nil:
		rec.redirected = true
	}

	surface, err := e.captureRedirected(rec)
	if err != nil {
		if errors.Is(err, ErrWindowGone) {
			e.MarkStale(slot)
			return fmt.Errorf("capture 0x%x: %w", rec.Frame, err)
		}
		e.log.Debug().Err(err).Uint32("frame", rec.Frame).Msg("using placeholder")
		surface, err = e.backend.Placeholder(rec.Window)
		if err != nil {
			return fmt.Errorf("placeholder 0x%x: %w", rec.Frame, err)
		}
	}
	rec.Surface = surface

	damage, err := e.backend.Watch(rec.Frame)
	if err != nil {
		e.log.Warn().Err(err).Uint32("frame", rec.Frame).Msg("no damage watch; thumbnail will not update")
		return nil
	}
	rec.Damage = damage
	e.damage[damage] = slot
	return nil
}

func (e *Engine) captureRedirected(rec *Record) (Surface, error) {
	if !rec.redirected {
		return Surface{}, fmt.Errorf("0x%x not redirected", rec.Frame)
	}
	return e.backend.Capture(rec.Frame)
}

// Refresh re-captures slot. The pixmap is named again because its size may
// have changed, and the damage region is cleared.
func (e *Engine) Refresh(slot int) error {
	rec := e.arena.Record(slot)
	if rec == nil || rec.Stale {
		return fmt.Errorf("slot %d: %w", slot, ErrWindowGone)
	}

	if !rec.redirected {
		if err := e.backend.Redirect(rec.Frame); err != nil {
			if errors.Is(err, ErrWindowGone) {
				e.MarkStale(slot)
			} else {
				e.subtract(rec)
			}
			return fmt.Errorf("redirect 0x%x: %w", rec.Frame, err)
		}
		rec.redirected = true
	}

	surface, err := e.backend.Capture(rec.Frame)
	if errors.Is(err, ErrWindowGone) {
		e.MarkStale(slot)
		return fmt.Errorf("refresh 0x%x: %w", rec.Frame, err)
	}
	// Every non-stale path clears the damage or it never reports again.
	e.subtract(rec)
	if err != nil {
		return fmt.Errorf("refresh 0x%x: %w", rec.Frame, err)
	}

	old := rec.Surface
	rec.Surface = surface
	if old.Valid() {
		e.backend.Release(old)
	}
	return nil
}

func (e *Engine) subtract(rec *Record) {
	if rec.Damage != 0 {
		e.backend.Subtract(rec.Damage)
	}
}

// NoteDamage queues a refresh of the slot owning damage. It reports whether
// the damage object is known.
func (e *Engine) NoteDamage(damage uint32) bool {
	slot, ok := e.damage[damage]
	if !ok {
		return false
	}
	e.dirty[slot] = struct{}{}
	return true
}

// Invalidate queues a refresh of slot, e.g. after a resize.
func (e *Engine) Invalidate(slot int) {
	if r := e.arena.Record(slot); r != nil && !r.Stale {
		e.dirty[slot] = struct{}{}
	}
}

// Pending reports whether damage is waiting to be flushed.
func (e *Engine) Pending() bool {
	return len(e.dirty) > 0
}

// Flush performs queued refreshes and retries placeholders. It returns the
// slots whose surface changed, in slot order.
func (e *Engine) Flush() []int {
	for _, slot := range e.arena.Live() {
		if e.arena.Record(slot).Surface.Placeholder {
			e.dirty[slot] = struct{}{}
		}
	}
	if len(e.dirty) == 0 {
		return nil
	}

	slots := make([]int, 0, len(e.dirty))
	for slot := range e.dirty {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	clear(e.dirty)

	changed := slots[:0]
	for _, slot := range slots {
		wasPlaceholder := e.arena.Record(slot).Surface.Placeholder
		if err := e.Refresh(slot); err != nil {
			if !wasPlaceholder {
				e.log.Debug().Err(err).Int("slot", slot).Msg("refresh failed")
			}
			if errors.Is(err, ErrWindowGone) {
				changed = append(changed, slot)
			}
			continue
		}
		if wasPlaceholder {
			e.log.Debug().Int("slot", slot).Msg("placeholder upgraded")
		}
		changed = append(changed, slot)
	}
	return changed
}

// MarkStale drops slot's surface and damage watch and removes the record.
func (e *Engine) MarkStale(slot int) {
	rec := e.arena.Record(slot)
	if rec == nil || rec.Stale {
		return
	}
	rec.Stale = true
	rec.Removed = true
	delete(e.dirty, slot)

	if rec.Damage != 0 {
		delete(e.damage, rec.Damage)
		e.backend.Unwatch(rec.Damage)
		rec.Damage = 0
	}
	if rec.Surface.Valid() {
		e.backend.Release(rec.Surface)
	}
	rec.Surface = Surface{}
}

// Surface returns the drawable surface for slot.
func (e *Engine) Surface(slot int) (Surface, bool) {
	rec := e.arena.Record(slot)
	if rec == nil || rec.Stale || !rec.Surface.Valid() {
		return Surface{}, false
	}
	return rec.Surface, true
}

// Close releases every surface and damage watch and undoes redirection.
func (e *Engine) Close() {
	for i := 0; i < e.arena.Len(); i++ {
		rec := e.arena.Record(i)
		if rec.Damage != 0 {
			e.backend.Unwatch(rec.Damage)
			rec.Damage = 0
		}
		if rec.Surface.Valid() {
			e.backend.Release(rec.Surface)
			rec.Surface = Surface{}
		}
		if rec.redirected && !rec.Stale {
			e.backend.Unredirect(rec.Frame)
		}
		rec.redirected = false
	}
	clear(e.damage)
	clear(e.dirty)
}
