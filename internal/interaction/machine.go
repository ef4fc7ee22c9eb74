// Package interaction owns pointer state, drag state and every time-based
// animation of an overview session. All mutations go through Machine
// methods; the active animation is always exactly one State variant.
package interaction

import (
	"fmt"
	"time"

	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/hittest"
	"github.com/1broseidon/xoverview/internal/tiling"
)

const (
	DefaultSnap          = 150 * time.Millisecond
	DefaultRevert        = 200 * time.Millisecond
	DefaultTransition    = 250 * time.Millisecond
	DefaultEntrance      = 350 * time.Millisecond
	DefaultExit          = 350 * time.Millisecond
	DefaultDragThreshold = 5
)

// Clock returns the current time. Readings must carry a monotonic component
// (time.Now does).
type Clock func() time.Time

// Timing holds animation durations and the drag threshold in pixels.
type Timing struct {
	Snap          time.Duration
	Revert        time.Duration
	Transition    time.Duration
	Entrance      time.Duration
	Exit          time.Duration
	DragThreshold int
}

// DefaultTiming returns the stock durations.
func DefaultTiming() Timing {
	return Timing{
		Snap:          DefaultSnap,
		Revert:        DefaultRevert,
		Transition:    DefaultTransition,
		Entrance:      DefaultEntrance,
		Exit:          DefaultExit,
		DragThreshold: DefaultDragThreshold,
	}
}

// Scaled divides every duration by speed. Non-positive speeds leave the
// timing unchanged.
func (t Timing) Scaled(speed float64) Timing {
	if speed <= 0 {
		return t
	}
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) / speed)
	}
	t.Snap = scale(t.Snap)
	t.Revert = scale(t.Revert)
	t.Transition = scale(t.Transition)
	t.Entrance = scale(t.Entrance)
	t.Exit = scale(t.Exit)
	return t
}

// Slots is the window arena as seen by the machine.
type Slots interface {
	// Live returns the non-removed slots in arena order.
	Live() []int
	Removed(slot int) bool
	// Geometry is the window's on-screen rectangle.
	Geometry(slot int) tiling.Rect
	MarkRemoved(slot int)
}

// Button is a pointer button number.
type Button int

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

// Key is a key the machine reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEscape
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// OutcomeKind says what the session should do after an input or tick.
type OutcomeKind int

const (
	NoOutcome OutcomeKind = iota
	// Select focuses Slot's window and ends the session.
	Select
	// Dismiss ends the session without selecting anything.
	Dismiss
	// MoveToDesktop reports Slot was dropped on Desktop.
	MoveToDesktop
	// SwitchDesktop asks for Desktop and ends the session.
	SwitchDesktop
	// AddDesktop asks the desktop manager for one more desktop.
	AddDesktop
)

// String returns the string representation of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case NoOutcome:
		return "none"
	case Select:
		return "select"
	case Dismiss:
		return "dismiss"
	case MoveToDesktop:
		return "move-to-desktop"
	case SwitchDesktop:
		return "switch-desktop"
	case AddDesktop:
		return "add-desktop"
	default:
		return "unknown"
	}
}

// Outcome is a side effect requested by the machine.
type Outcome struct {
	Kind    OutcomeKind
	Slot    int
	Desktop int
}

// Ends reports whether the session should close after handling the outcome.
func (o Outcome) Ends() bool {
	return o.Kind == Select || o.Kind == Dismiss || o.Kind == SwitchDesktop
}

// Options configures a Machine.
type Options struct {
	Screen tiling.Rect
	Grid   tiling.Options
	Timing Timing
	Clock  Clock
	// MaxScale is the renderer's thumbnail cap, so drags start from the
	// thumbnail as drawn. Zero means tiling.DefaultMaxScale.
	MaxScale float64
}

type press struct {
	hit    hittest.Hit
	x, y   int
	origin tiling.Rect
}

// Machine is the interaction and animation state machine.
type Machine struct {
	opts  Options
	slots Slots
	bar   *deskbar.Bar
	hits  *hittest.Dispatcher

	live  tiling.Generation
	state State
	cells []hittest.Target

	press *press

	hover        int
	hasHover     bool
	hoverDesk    int
	hasHoverDesk bool

	pointerX, pointerY int
	pointerKnown       bool

	reflowPending bool
	last          time.Time
}

// New builds the first grid generation and, when an entrance duration is
// set, starts the entrance transition from each window's screen position.
func New(slots Slots, bar *deskbar.Bar, hits *hittest.Dispatcher, opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxScale <= 0 {
		opts.MaxScale = tiling.DefaultMaxScale
	}
	if hits == nil {
		hits = hittest.New()
	}
	m := &Machine{
		opts:  opts,
		slots: slots,
		bar:   bar,
		hits:  hits,
		state: Idle{},
	}
	m.live = tiling.Build(slots.Live(), m.usable(), opts.Grid)

	now := m.now()
	if opts.Timing.Entrance > 0 && len(m.live.Thumbnails) > 0 {
		moves := make([]Move, len(m.live.Thumbnails))
		for i, th := range m.live.Thumbnails {
			moves[i] = Move{Slot: th.Slot, From: slots.Geometry(th.Slot), To: th.Rect}
		}
		m.setState(GridTransition{
			Purpose:  Entrance,
			Moves:    moves,
			Next:     m.live,
			Start:    now,
			Duration: opts.Timing.Entrance,
		})
		return m
	}
	m.setState(Idle{})
	return m
}

// State returns the active animation state.
func (m *Machine) State() State { return m.state }

// Live returns the committed grid generation.
func (m *Machine) Live() tiling.Generation { return m.live }

// Bar returns the current bar layout, nil when disabled.
func (m *Machine) Bar() *deskbar.Bar { return m.bar }

// Cells returns the grid cells as currently drawn, in paint order. The
// dragged or animating window and removed windows are not included.
func (m *Machine) Cells() []hittest.Target { return m.cells }

// Hover returns the highlighted grid slot.
func (m *Machine) Hover() (int, bool) { return m.hover, m.hasHover }

// HoverDesktop returns the desktop preview under the pointer.
func (m *Machine) HoverDesktop() (int, bool) { return m.hoverDesk, m.hasHoverDesk }

// Animating reports whether time alone changes what is on screen.
func (m *Machine) Animating() bool {
	switch m.state.(type) {
	case Snapping, Reverting, GridTransition:
		return true
	}
	return false
}

// Floating returns the window drawn above the grid: the dragged thumbnail
// or one flying to a preview or back to its cell.
func (m *Machine) Floating() (hittest.Target, bool) {
	switch s := m.state.(type) {
	case Dragging:
		return hittest.Target{Slot: s.Drag.Slot, Rect: s.Drag.Current}, true
	case Snapping:
		return hittest.Target{Slot: s.Slot, Rect: s.Tween.Rect()}, true
	case Reverting:
		return hittest.Target{Slot: s.Slot, Rect: s.Tween.Rect()}, true
	}
	return hittest.Target{}, false
}

// Zoom returns the desktop preview growing to the screen before a desktop
// switch, and its current rectangle.
func (m *Machine) Zoom() (deskbar.Preview, tiling.Rect, bool) {
	if g, ok := m.state.(GridTransition); ok && g.Purpose == Zoom {
		return g.Preview, g.ZoomRect(), true
	}
	return deskbar.Preview{}, tiling.Rect{}, false
}

// Press handles a pointer button going down.
func (m *Machine) Press(x, y int, button Button) Outcome {
	m.pointerAt(x, y)
	if button != ButtonLeft {
		return m.finish(Outcome{Kind: Dismiss})
	}
	if _, idle := m.state.(Idle); !idle {
		return Outcome{}
	}

	hit := m.hits.At(x, y)
	p := &press{hit: hit, x: x, y: y}
	if hit.Kind == hittest.Cell {
		if cell, ok := m.hits.CellRect(hit.Slot); ok {
			p.origin = m.thumb(hit.Slot, cell)
		}
	}
	m.press = p
	return Outcome{}
}

// Motion handles pointer movement.
func (m *Machine) Motion(x, y int) Outcome {
	m.pointerAt(x, y)

	if s, ok := m.state.(Dragging); ok {
		s.Drag = s.Drag.moved(x, y, m.bar)
		m.hoverDesk, m.hasHoverDesk = m.previewAt(x, y)
		m.setState(s)
		return Outcome{}
	}

	m.updateHover(x, y)

	p := m.press
	if p == nil || p.hit.Kind != hittest.Cell {
		return Outcome{}
	}
	if _, idle := m.state.(Idle); !idle {
		return Outcome{}
	}
	dx, dy := x-p.x, y-p.y
	t := m.opts.Timing.DragThreshold
	if dx*dx+dy*dy <= t*t {
		return Outcome{}
	}
	m.startDrag(p, x, y)
	return Outcome{}
}

// Release handles a pointer button going up.
func (m *Machine) Release(x, y int, button Button) Outcome {
	m.pointerAt(x, y)
	if button != ButtonLeft {
		return Outcome{}
	}
	p := m.press
	m.press = nil

	switch s := m.state.(type) {
	case Dragging:
		m.finishDrag(s, x, y)
		return m.Tick()
	case Idle:
		if p == nil {
			return Outcome{}
		}
		hit := m.hits.At(x, y)
		switch p.hit.Kind {
		case hittest.Cell:
			return m.finish(Outcome{Kind: Select, Slot: p.hit.Slot})
		case hittest.Preview:
			if hit.Kind == hittest.Preview && hit.Desktop == p.hit.Desktop {
				return m.finish(Outcome{Kind: SwitchDesktop, Desktop: hit.Desktop})
			}
		case hittest.AddButton:
			if hit.Kind == hittest.AddButton {
				return Outcome{Kind: AddDesktop}
			}
		case hittest.None:
			if hit.Kind == hittest.None {
				return m.finish(Outcome{Kind: Dismiss})
			}
		}
	}
	return Outcome{}
}

// Key handles a key press.
func (m *Machine) Key(k Key) Outcome {
	switch k {
	case KeyEscape:
		return m.finish(Outcome{Kind: Dismiss})
	case KeyEnter:
		if _, idle := m.state.(Idle); idle && m.hasHover {
			return m.finish(Outcome{Kind: Select, Slot: m.hover})
		}
	case KeyUp, KeyDown, KeyLeft, KeyRight:
		if _, idle := m.state.(Idle); !idle {
			return Outcome{}
		}
		current := -1
		if m.hasHover {
			current = m.hover
		}
		if slot, ok := navigate(m.cells, current, keyDirection(k)); ok {
			m.hover, m.hasHover = slot, true
		}
	}
	return Outcome{}
}

func keyDirection(k Key) Direction {
	switch k {
	case KeyUp:
		return DirUp
	case KeyDown:
		return DirDown
	case KeyLeft:
		return DirLeft
	default:
		return DirRight
	}
}

// Tick advances time-based animations and applies deferred re-layouts.
func (m *Machine) Tick() Outcome {
	now := m.now()
	var out Outcome

	switch s := m.state.(type) {
	case Snapping:
		s.Tween = s.Tween.advance(now)
		if s.Tween.Done() {
			out = m.completeSnap(s)
		} else {
			m.setState(s)
		}
	case Reverting:
		s.Tween = s.Tween.advance(now)
		if s.Tween.Done() {
			m.setState(Idle{})
		} else {
			m.setState(s)
		}
	case GridTransition:
		s = s.advance(now)
		if s.Progress >= 1 {
			out = m.completeTransition(s)
		} else {
			m.setState(s)
		}
	}

	if _, idle := m.state.(Idle); idle && m.reflowPending {
		m.reflowPending = false
		m.startReflow(now)
	}
	return out
}

// Reflow asks for the grid to be recomputed for the current live slots,
// e.g. after a window disappeared. It runs at once when idle and after the
// running animation otherwise. A drag of a removed window is abandoned.
func (m *Machine) Reflow() {
	switch s := m.state.(type) {
	case Dragging:
		if m.slots.Removed(s.Drag.Slot) {
			m.press = nil
			m.setState(Idle{})
		}
	case Snapping:
		if m.slots.Removed(s.Slot) {
			m.setState(Idle{})
		}
	case Reverting:
		if m.slots.Removed(s.Slot) {
			m.setState(Idle{})
		}
	}
	if m.hasHover && m.slots.Removed(m.hover) {
		m.hasHover = false
	}

	m.reflowPending = true
	if _, idle := m.state.(Idle); idle {
		m.reflowPending = false
		m.startReflow(m.now())
		return
	}
	m.refresh()
}

// SetBar replaces the bar layout. A change in reserved height re-flows the
// grid into the new usable area.
func (m *Machine) SetBar(bar *deskbar.Bar) {
	resized := bar.Reserved() != m.bar.Reserved()
	m.bar = bar

	if s, ok := m.state.(Dragging); ok && m.pointerKnown {
		s.Drag = s.Drag.moved(m.pointerX, m.pointerY, m.bar)
		m.state = s
	}
	if m.hasHoverDesk && (bar == nil || m.hoverDesk >= len(bar.Previews)) {
		m.hasHoverDesk = false
	}

	if resized {
		m.Reflow()
		return
	}
	m.refresh()
}

// Cancel returns to Idle, dropping any press, drag or flight in progress.
// A running re-flow is committed so the grid matches the live slots.
func (m *Machine) Cancel() {
	m.press = nil
	if g, ok := m.state.(GridTransition); ok && !g.ends() {
		m.commit(g.Next)
	}
	m.setState(Idle{})
}

// finish ends the session with out. When an exit duration is set it first
// runs the closing animation and out is emitted by the Tick that completes
// it. A request made while that animation runs returns its outcome at once.
func (m *Machine) finish(out Outcome) Outcome {
	if g, ok := m.state.(GridTransition); ok && g.ends() {
		return g.Then
	}
	drawn := m.drawnRects()
	m.Cancel()
	if m.opts.Timing.Exit <= 0 {
		return out
	}

	if out.Kind == SwitchDesktop {
		preview, ok := m.preview(out.Desktop)
		if !ok {
			return out
		}
		moves := make([]Move, len(m.cells))
		for i, c := range m.cells {
			moves[i] = Move{Slot: c.Slot, From: fromOr(drawn, c), To: c.Rect}
		}
		m.startClosing(GridTransition{
			Purpose: Zoom,
			Moves:   moves,
			Then:    out,
			Preview: preview,
			Screen:  m.opts.Screen,
		})
		return Outcome{}
	}

	if len(m.cells) == 0 {
		return out
	}
	moves := make([]Move, 0, len(m.cells))
	var selected []Move
	for _, c := range m.cells {
		mv := Move{Slot: c.Slot, From: fromOr(drawn, c), To: m.slots.Geometry(c.Slot)}
		if out.Kind == Select && c.Slot == out.Slot {
			selected = append(selected, mv)
			continue
		}
		moves = append(moves, mv)
	}
	// The selected window lands on top.
	moves = append(moves, selected...)
	m.startClosing(GridTransition{Purpose: Exit, Moves: moves, Then: out})
	return Outcome{}
}

func (m *Machine) startClosing(g GridTransition) {
	g.Next = m.live
	g.Start = m.now()
	g.Duration = m.opts.Timing.Exit
	m.setState(g)
}

// drawnRects maps each slot on screen to the rect it occupies right now,
// mid-animation included.
func (m *Machine) drawnRects() map[int]tiling.Rect {
	drawn := make(map[int]tiling.Rect, len(m.cells)+1)
	for _, c := range m.cells {
		drawn[c.Slot] = c.Rect
	}
	if f, ok := m.Floating(); ok {
		drawn[f.Slot] = f.Rect
	}
	return drawn
}

func fromOr(drawn map[int]tiling.Rect, c hittest.Target) tiling.Rect {
	if r, ok := drawn[c.Slot]; ok {
		return r
	}
	return c.Rect
}

func (m *Machine) preview(desktop int) (deskbar.Preview, bool) {
	if m.bar == nil {
		return deskbar.Preview{}, false
	}
	for _, p := range m.bar.Previews {
		if p.Desktop == desktop {
			return p, true
		}
	}
	return deskbar.Preview{}, false
}

// thumb is slot's thumbnail as drawn inside cell.
func (m *Machine) thumb(slot int, cell tiling.Rect) tiling.Rect {
	g := m.slots.Geometry(slot)
	return tiling.FitAspect(cell, g.Width, g.Height, m.opts.MaxScale)
}

func (m *Machine) startDrag(p *press, x, y int) {
	drag := beginDrag(p.hit.Slot, p.origin, p.x, p.y, m.bar).moved(x, y, m.bar)
	m.press = nil
	m.hasHover = false
	m.hoverDesk, m.hasHoverDesk = m.previewAt(x, y)
	m.setState(Dragging{Drag: drag})
}

func (m *Machine) finishDrag(s Dragging, x, y int) {
	drag := s.Drag.moved(x, y, m.bar)
	now := m.now()
	m.hasHoverDesk = false

	if i, ok := m.bar.PreviewAt(x, y); ok {
		preview := m.bar.Previews[i]
		to := tiling.FitAspect(preview.Bounds, drag.Origin.Width, drag.Origin.Height, 1)
		m.setState(Snapping{
			Tween:   newTween(drag.Current, to, now, m.opts.Timing.Snap),
			Slot:    drag.Slot,
			Desktop: preview.Desktop,
		})
		return
	}

	home := drag.Origin
	if th, ok := m.live.Lookup(drag.Slot); ok {
		home = m.thumb(drag.Slot, th.Rect)
	}
	m.setState(Reverting{
		Tween: newTween(drag.Current, home, now, m.opts.Timing.Revert),
		Slot:  drag.Slot,
	})
}

func (m *Machine) completeSnap(s Snapping) Outcome {
	m.slots.MarkRemoved(s.Slot)
	m.setState(Idle{})
	m.reflowPending = false
	m.startReflow(m.now())
	return Outcome{Kind: MoveToDesktop, Slot: s.Slot, Desktop: s.Desktop}
}

func (m *Machine) startReflow(now time.Time) {
	next := tiling.Build(m.slots.Live(), m.usable(), m.opts.Grid)
	if m.opts.Timing.Transition <= 0 {
		m.commit(next)
		m.setState(Idle{})
		return
	}

	moves := make([]Move, len(next.Thumbnails))
	for i, th := range next.Thumbnails {
		from := th.Rect
		if old, ok := m.live.Lookup(th.Slot); ok {
			from = old.Rect
		}
		moves[i] = Move{Slot: th.Slot, From: from, To: th.Rect}
	}
	m.setState(GridTransition{
		Purpose:  Reflow,
		Moves:    moves,
		Next:     next,
		Start:    now,
		Duration: m.opts.Timing.Transition,
	})
}

func (m *Machine) completeTransition(g GridTransition) Outcome {
	if g.ends() {
		m.setState(g)
		return g.Then
	}
	m.commit(g.Next)
	m.setState(Idle{})
	return Outcome{}
}

// commit makes next the live generation. Every live slot must own a cell.
func (m *Machine) commit(next tiling.Generation) {
	for _, slot := range m.slots.Live() {
		if _, ok := next.Lookup(slot); !ok {
			panic(fmt.Sprintf("interaction: live slot %d missing from committed layout (%d cells)", slot, len(next.Thumbnails)))
		}
	}
	m.live = next
}

func (m *Machine) setState(s State) {
	m.state = s
	m.refresh()
	if _, idle := s.(Idle); idle && m.pointerKnown {
		m.updateHover(m.pointerX, m.pointerY)
	}
}

// refresh recomputes the drawn cells and hands every on-screen rect to the
// hit-test dispatcher.
func (m *Machine) refresh() {
	m.cells = m.renderedCells()

	layers := hittest.Layers{Bar: m.bar, Cells: m.cells}
	if s, ok := m.state.(Dragging); ok {
		layers.Overlay = &hittest.Target{Slot: s.Drag.Slot, Rect: s.Drag.Current}
	}
	m.hits.Refresh(layers)
}

func (m *Machine) renderedCells() []hittest.Target {
	if g, ok := m.state.(GridTransition); ok {
		cells := make([]hittest.Target, 0, len(g.Moves))
		for i, mv := range g.Moves {
			if m.slots.Removed(mv.Slot) {
				continue
			}
			cells = append(cells, hittest.Target{Slot: mv.Slot, Rect: g.Rect(i)})
		}
		return cells
	}

	skip := -1
	switch s := m.state.(type) {
	case Dragging:
		skip = s.Drag.Slot
	case Snapping:
		skip = s.Slot
	case Reverting:
		skip = s.Slot
	}

	cells := make([]hittest.Target, 0, len(m.live.Thumbnails))
	for _, th := range m.live.Thumbnails {
		if th.Slot == skip || m.slots.Removed(th.Slot) {
			continue
		}
		cells = append(cells, hittest.Target{Slot: th.Slot, Rect: th.Rect})
	}
	return cells
}

func (m *Machine) updateHover(x, y int) {
	m.hasHover = false
	m.hasHoverDesk = false
	if _, ok := m.state.(Idle); !ok {
		return
	}
	hit := m.hits.At(x, y)
	switch hit.Kind {
	case hittest.Cell:
		m.hover, m.hasHover = hit.Slot, true
	case hittest.Preview:
		m.hoverDesk, m.hasHoverDesk = hit.Desktop, true
	}
}

func (m *Machine) previewAt(x, y int) (int, bool) {
	i, ok := m.bar.PreviewAt(x, y)
	if !ok {
		return 0, false
	}
	return m.bar.Previews[i].Desktop, true
}

func (m *Machine) pointerAt(x, y int) {
	m.pointerX, m.pointerY = x, y
	m.pointerKnown = true
}

func (m *Machine) usable() tiling.Rect {
	return m.bar.Usable(m.opts.Screen)
}

// now never runs backwards, so animation progress never decreases.
func (m *Machine) now() time.Time {
	t := m.opts.Clock()
	if t.Before(m.last) {
		t = m.last
	}
	m.last = t
	return t
}
