package interaction

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/hittest"
	"github.com/1broseidon/xoverview/internal/tiling"
)

var testScreen = tiling.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeSlots struct {
	geom    []tiling.Rect
	removed map[int]bool
}

func newFakeSlots(n int) *fakeSlots {
	s := &fakeSlots{removed: map[int]bool{}}
	for i := 0; i < n; i++ {
		s.geom = append(s.geom, tiling.Rect{X: 100 * i, Y: 200, Width: 800, Height: 600})
	}
	return s
}

func (s *fakeSlots) Live() []int {
	var out []int
	for i := range s.geom {
		if !s.removed[i] {
			out = append(out, i)
		}
	}
	return out
}

func (s *fakeSlots) Removed(slot int) bool         { return s.removed[slot] }
func (s *fakeSlots) Geometry(slot int) tiling.Rect { return s.geom[slot] }
func (s *fakeSlots) MarkRemoved(slot int)          { s.removed[slot] = true }

func testBar() *deskbar.Bar {
	return deskbar.Build(deskbar.Input{
		Screen: testScreen,
		Props:  deskbar.Props{Present: true, Count: 4, Current: 0},
	}, deskbar.DefaultOptions())
}

type harness struct {
	m     *Machine
	slots *fakeSlots
	clock *fakeClock
}

func newHarness(t *testing.T, n int, timing Timing, bar *deskbar.Bar) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	slots := newFakeSlots(n)
	m := New(slots, bar, hittest.New(), Options{
		Screen: testScreen,
		Grid:   tiling.DefaultOptions(),
		Timing: timing,
		Clock:  clock.now,
	})
	return &harness{m: m, slots: slots, clock: clock}
}

func (h *harness) cell(t *testing.T, i int) hittest.Target {
	t.Helper()
	cells := h.m.Cells()
	if i >= len(cells) {
		t.Fatalf("only %d cells", len(cells))
	}
	return cells[i]
}

// drag presses at the center of cell i and moves 10px down, past the threshold.
func (h *harness) drag(t *testing.T, i int) (hittest.Target, int, int) {
	t.Helper()
	c := h.cell(t, i)
	x, y := c.Rect.Center()
	h.m.Press(x, y, ButtonLeft)
	h.m.Motion(x, y+10)
	if h.m.State().Kind() != KindDragging {
		t.Fatalf("state = %s, want dragging", h.m.State().Kind())
	}
	return c, x, y
}

func instant() Timing {
	return Timing{DragThreshold: DefaultDragThreshold}
}

// drawn is the thumbnail the renderer fits into cell c for an 800x600 window.
func drawn(c hittest.Target) tiling.Rect {
	return tiling.FitAspect(c.Rect, 800, 600, tiling.DefaultMaxScale)
}

func TestNew_BuildsGridInUsableArea(t *testing.T) {
	h := newHarness(t, 4, instant(), testBar())

	if h.m.State().Kind() != KindIdle {
		t.Fatalf("state = %s, want idle", h.m.State().Kind())
	}
	if got := len(h.m.Cells()); got != 4 {
		t.Fatalf("cells = %d, want 4", got)
	}
	usable := testBar().Usable(testScreen)
	for _, c := range h.m.Cells() {
		if !c.Rect.Within(usable) {
			t.Fatalf("cell %+v outside usable area %+v", c.Rect, usable)
		}
	}
}

func TestEntranceTransition(t *testing.T) {
	timing := instant()
	timing.Entrance = DefaultEntrance
	h := newHarness(t, 3, timing, nil)

	g, ok := h.m.State().(GridTransition)
	if !ok || g.Purpose != Entrance {
		t.Fatalf("state = %#v, want entrance transition", h.m.State())
	}
	for _, c := range h.m.Cells() {
		if c.Rect != h.slots.Geometry(c.Slot) {
			t.Fatalf("entrance should start at window geometry, got %+v", c.Rect)
		}
	}
	if !h.m.Animating() {
		t.Fatalf("expected animating during entrance")
	}

	h.clock.advance(DefaultEntrance)
	if out := h.m.Tick(); out.Kind != NoOutcome {
		t.Fatalf("unexpected outcome %v", out.Kind)
	}
	if h.m.State().Kind() != KindIdle {
		t.Fatalf("state = %s, want idle", h.m.State().Kind())
	}
	if !reflect.DeepEqual(h.m.Live().Rects(), rectsOf(h.m.Cells())) {
		t.Fatalf("cells do not match committed layout")
	}
}

func TestDragScale_OneAtStartTargetAtPreview(t *testing.T) {
	bar := testBar()
	h := newHarness(t, 4, instant(), bar)
	c, _, _ := h.drag(t, 0)

	d := h.m.State().(Dragging).Drag
	if d.Scale != 1 {
		t.Fatalf("scale below start = %v, want 1", d.Scale)
	}
	if d.Origin != drawn(c) {
		t.Fatalf("drag origin = %+v, want drawn thumbnail %+v", d.Origin, drawn(c))
	}
	if d.Current.Width != d.Origin.Width || d.Current.Height != d.Origin.Height {
		t.Fatalf("size changed before travelling: %+v", d.Current)
	}

	px, py := bar.Previews[1].Bounds.Center()
	h.m.Motion(px, py)
	d = h.m.State().(Dragging).Drag
	if math.Abs(d.Scale-d.TargetScale) > 1e-9 {
		t.Fatalf("scale at preview = %v, want %v", d.Scale, d.TargetScale)
	}
	if desk, ok := h.m.HoverDesktop(); !ok || desk != 1 {
		t.Fatalf("hover desktop = %d,%v want 1", desk, ok)
	}
}

func TestDrag_PressPointStaysUnderPointer(t *testing.T) {
	bar := testBar()
	h := newHarness(t, 4, instant(), bar)
	h.drag(t, 2)

	edge := bar.PreviewEdge()
	for _, y := range []int{900, 700, 500, 300, edge + 5} {
		h.m.Motion(400, y)
		d := h.m.State().(Dragging).Drag
		wantX := int(math.Round(float64(d.OffsetX) * d.Scale))
		wantY := int(math.Round(float64(d.OffsetY) * d.Scale))
		if abs(400-d.Current.X-wantX) > 1 || abs(y-d.Current.Y-wantY) > 1 {
			t.Fatalf("y=%d: pointer offset (%d,%d), want (%d,%d)", y, 400-d.Current.X, y-d.Current.Y, wantX, wantY)
		}
		if d.Scale < d.TargetScale-1e-9 || d.Scale > 1 {
			t.Fatalf("y=%d: scale %v outside [%v,1]", y, d.Scale, d.TargetScale)
		}
	}
}

func TestDragState_RevertExample(t *testing.T) {
	origin := tiling.Rect{X: 100, Y: 100, Width: 300, Height: 200}
	d := beginDrag(7, origin, 150, 150, nil)
	if d.OffsetX != 50 || d.OffsetY != 50 {
		t.Fatalf("offset = (%d,%d), want (50,50)", d.OffsetX, d.OffsetY)
	}

	d = d.moved(500, 500, nil)
	if d.Current != (tiling.Rect{X: 450, Y: 450, Width: 300, Height: 200}) {
		t.Fatalf("current = %+v", d.Current)
	}

	start := time.Unix(0, 0)
	tw := newTween(d.Current, origin, start, DefaultRevert)
	tw = tw.advance(start.Add(DefaultRevert))
	if !tw.Done() || tw.Rect() != origin {
		t.Fatalf("revert ended at %+v, want %+v", tw.Rect(), origin)
	}
}

func TestRelease_OutsidePreviewReverts(t *testing.T) {
	timing := instant()
	timing.Revert = DefaultRevert
	h := newHarness(t, 4, timing, testBar())
	c, x, y := h.drag(t, 1)

	h.m.Motion(x+300, y+40)
	if out := h.m.Release(x+300, y+40, ButtonLeft); out.Kind != NoOutcome {
		t.Fatalf("unexpected outcome %v", out.Kind)
	}
	r, ok := h.m.State().(Reverting)
	if !ok {
		t.Fatalf("state = %s, want reverting", h.m.State().Kind())
	}
	if r.Tween.To != drawn(c) {
		t.Fatalf("revert target %+v, want %+v", r.Tween.To, drawn(c))
	}
	if f, ok := h.m.Floating(); !ok || f.Slot != c.Slot {
		t.Fatalf("expected floating slot %d", c.Slot)
	}

	h.clock.advance(DefaultRevert)
	h.m.Tick()
	if h.m.State().Kind() != KindIdle {
		t.Fatalf("state = %s, want idle", h.m.State().Kind())
	}
	if h.slots.Removed(c.Slot) {
		t.Fatalf("reverted slot must stay live")
	}
	if got, _ := h.m.hits.CellRect(c.Slot); got != c.Rect {
		t.Fatalf("cell after revert = %+v, want %+v", got, c.Rect)
	}
}

func TestRelease_InPreviewSnapsAndReflows(t *testing.T) {
	bar := testBar()
	timing := instant()
	timing.Snap = DefaultSnap
	timing.Transition = DefaultTransition
	h := newHarness(t, 4, timing, bar)
	c, _, _ := h.drag(t, 1)

	px, py := bar.Previews[2].Bounds.Center()
	h.m.Motion(px, py)
	h.m.Release(px, py, ButtonLeft)

	s, ok := h.m.State().(Snapping)
	if !ok {
		t.Fatalf("state = %s, want snapping", h.m.State().Kind())
	}
	want := tiling.FitAspect(bar.Previews[2].Bounds, drawn(c).Width, drawn(c).Height, 1)
	if s.Desktop != 2 || s.Tween.To != want {
		t.Fatalf("snap = %+v, want target %+v", s, want)
	}
	if !s.Tween.To.Within(bar.Previews[2].Bounds) {
		t.Fatalf("snap target %+v escapes preview %+v", s.Tween.To, bar.Previews[2].Bounds)
	}

	h.clock.advance(DefaultSnap)
	out := h.m.Tick()
	if out.Kind != MoveToDesktop || out.Slot != c.Slot || out.Desktop != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Ends() {
		t.Fatalf("move-to-desktop must not end the session")
	}
	if !h.slots.Removed(c.Slot) {
		t.Fatalf("snapped slot should be removed")
	}

	g, ok := h.m.State().(GridTransition)
	if !ok || g.Purpose != Reflow {
		t.Fatalf("state = %#v, want reflow transition", h.m.State())
	}
	fresh := tiling.Build(h.slots.Live(), bar.Usable(testScreen), tiling.DefaultOptions())
	if !reflect.DeepEqual(g.Next.Thumbnails, fresh.Thumbnails) {
		t.Fatalf("reflow target differs from fresh layout")
	}

	h.clock.advance(DefaultTransition)
	h.m.Tick()
	if h.m.State().Kind() != KindIdle {
		t.Fatalf("state = %s, want idle", h.m.State().Kind())
	}
	if !reflect.DeepEqual(h.m.Live().Thumbnails, fresh.Thumbnails) {
		t.Fatalf("committed layout differs from fresh layout")
	}
	if len(h.m.Cells()) != 3 {
		t.Fatalf("cells = %d, want 3", len(h.m.Cells()))
	}
}

func TestClickSelects(t *testing.T) {
	h := newHarness(t, 3, instant(), testBar())
	c := h.cell(t, 2)
	x, y := c.Rect.Center()

	h.m.Press(x, y, ButtonLeft)
	h.m.Motion(x+2, y+2)
	out := h.m.Release(x+2, y+2, ButtonLeft)
	if out.Kind != Select || out.Slot != c.Slot || !out.Ends() {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestClickPreviewAndAddButton(t *testing.T) {
	bar := testBar()
	h := newHarness(t, 2, instant(), bar)

	px, py := bar.Previews[3].Bounds.Center()
	h.m.Press(px, py, ButtonLeft)
	if out := h.m.Release(px, py, ButtonLeft); out.Kind != SwitchDesktop || out.Desktop != 3 {
		t.Fatalf("preview click outcome = %+v", out)
	}

	ax, ay := bar.AddButton.Center()
	h.m.Press(ax, ay, ButtonLeft)
	out := h.m.Release(ax, ay, ButtonLeft)
	if out.Kind != AddDesktop || out.Ends() {
		t.Fatalf("add click outcome = %+v", out)
	}
}

func TestEmptyClickDismisses(t *testing.T) {
	h := newHarness(t, 2, instant(), testBar())
	h.m.Press(5, 1075, ButtonLeft)
	if out := h.m.Release(5, 1075, ButtonLeft); out.Kind != Dismiss {
		t.Fatalf("outcome = %+v, want dismiss", out)
	}
}

func TestNonLeftButtonDismisses(t *testing.T) {
	h := newHarness(t, 2, instant(), nil)
	x, y := h.cell(t, 0).Rect.Center()
	if out := h.m.Press(x, y, ButtonRight); out.Kind != Dismiss {
		t.Fatalf("outcome = %+v, want dismiss", out)
	}
}

func TestEscapeCancelsDragWithoutRemoval(t *testing.T) {
	h := newHarness(t, 3, instant(), testBar())
	c, _, _ := h.drag(t, 0)

	out := h.m.Key(KeyEscape)
	if out.Kind != Dismiss {
		t.Fatalf("outcome = %+v, want dismiss", out)
	}
	if h.m.State().Kind() != KindIdle {
		t.Fatalf("state = %s, want idle", h.m.State().Kind())
	}
	if h.slots.Removed(c.Slot) {
		t.Fatalf("cancel must not remove the dragged window")
	}
}

func TestEscapeRunsExitAnimation(t *testing.T) {
	timing := instant()
	timing.Exit = DefaultExit
	h := newHarness(t, 2, timing, nil)

	if out := h.m.Key(KeyEscape); out.Kind != NoOutcome {
		t.Fatalf("first escape outcome = %+v, want none", out)
	}
	g, ok := h.m.State().(GridTransition)
	if !ok || g.Purpose != Exit {
		t.Fatalf("state = %#v, want exit transition", h.m.State())
	}

	h.clock.advance(DefaultExit)
	if out := h.m.Tick(); out.Kind != Dismiss {
		t.Fatalf("exit completion outcome = %+v", out)
	}
	for _, c := range h.m.Cells() {
		if c.Rect != h.slots.Geometry(c.Slot) {
			t.Fatalf("exit should end on window geometry, got %+v", c.Rect)
		}
	}
}

func TestSecondEscapeSkipsExit(t *testing.T) {
	timing := instant()
	timing.Exit = DefaultExit
	h := newHarness(t, 2, timing, nil)

	h.m.Key(KeyEscape)
	if out := h.m.Key(KeyEscape); out.Kind != Dismiss {
		t.Fatalf("second escape outcome = %+v, want dismiss", out)
	}
}

func TestEscapeDuringEntranceExitsFromDrawnRects(t *testing.T) {
	timing := instant()
	timing.Entrance = DefaultEntrance
	timing.Exit = DefaultExit
	h := newHarness(t, 3, timing, nil)

	h.clock.advance(DefaultEntrance / 3)
	h.m.Tick()
	mid := map[int]tiling.Rect{}
	for _, c := range h.m.Cells() {
		mid[c.Slot] = c.Rect
	}

	h.m.Key(KeyEscape)
	g, ok := h.m.State().(GridTransition)
	if !ok || g.Purpose != Exit {
		t.Fatalf("state = %#v, want exit transition", h.m.State())
	}
	if len(g.Moves) != len(mid) {
		t.Fatalf("moves = %d, want %d", len(g.Moves), len(mid))
	}
	for _, mv := range g.Moves {
		if mv.From != mid[mv.Slot] {
			t.Fatalf("slot %d exits from %+v, was drawn at %+v", mv.Slot, mv.From, mid[mv.Slot])
		}
		if th, _ := h.m.Live().Lookup(mv.Slot); mv.From == th.Rect {
			t.Fatalf("slot %d jumped to its final cell before exiting", mv.Slot)
		}
	}
}

func TestEscapeMidDragExitsFromFloatingRect(t *testing.T) {
	timing := instant()
	timing.Exit = DefaultExit
	h := newHarness(t, 3, timing, testBar())
	c, x, y := h.drag(t, 1)
	h.m.Motion(x+120, y-80)
	f, _ := h.m.Floating()

	h.m.Key(KeyEscape)
	g := h.m.State().(GridTransition)
	for _, mv := range g.Moves {
		if mv.Slot == c.Slot && mv.From != f.Rect {
			t.Fatalf("dragged slot exits from %+v, was drawn at %+v", mv.From, f.Rect)
		}
	}
}

func TestClickSelectRunsExitThenSelects(t *testing.T) {
	timing := instant()
	timing.Exit = DefaultExit
	h := newHarness(t, 3, timing, testBar())
	c := h.cell(t, 0)
	x, y := c.Rect.Center()

	h.m.Press(x, y, ButtonLeft)
	if out := h.m.Release(x, y, ButtonLeft); out.Kind != NoOutcome {
		t.Fatalf("release outcome = %+v, want none until the exit ends", out)
	}
	g, ok := h.m.State().(GridTransition)
	if !ok || g.Purpose != Exit {
		t.Fatalf("state = %#v, want exit transition", h.m.State())
	}
	if last := g.Moves[len(g.Moves)-1]; last.Slot != c.Slot || last.To != h.slots.Geometry(c.Slot) {
		t.Fatalf("selected window should paint last and land on its window, got %+v", last)
	}

	h.clock.advance(DefaultExit / 2)
	if out := h.m.Tick(); out.Kind != NoOutcome {
		t.Fatalf("mid-exit outcome = %+v", out)
	}
	h.clock.advance(DefaultExit)
	out := h.m.Tick()
	if out.Kind != Select || out.Slot != c.Slot || !out.Ends() {
		t.Fatalf("exit completion outcome = %+v, want select %d", out, c.Slot)
	}
}

func TestEscapeDuringSelectExitKeepsSelection(t *testing.T) {
	timing := instant()
	timing.Exit = DefaultExit
	h := newHarness(t, 3, timing, nil)

	h.m.Key(KeyRight)
	slot, _ := h.m.Hover()
	if out := h.m.Key(KeyEnter); out.Kind != NoOutcome {
		t.Fatalf("enter outcome = %+v, want none until the exit ends", out)
	}
	if out := h.m.Key(KeyEscape); out.Kind != Select || out.Slot != slot {
		t.Fatalf("escape during exit = %+v, want select %d", out, slot)
	}
}

func TestPreviewClickZoomsThenSwitches(t *testing.T) {
	bar := testBar()
	timing := instant()
	timing.Exit = DefaultExit
	h := newHarness(t, 2, timing, bar)
	bounds := bar.Previews[3].Bounds

	px, py := bounds.Center()
	h.m.Press(px, py, ButtonLeft)
	if out := h.m.Release(px, py, ButtonLeft); out.Kind != NoOutcome {
		t.Fatalf("release outcome = %+v, want none until the zoom ends", out)
	}
	g, ok := h.m.State().(GridTransition)
	if !ok || g.Purpose != Zoom {
		t.Fatalf("state = %#v, want zoom transition", h.m.State())
	}
	p, r, ok := h.m.Zoom()
	if !ok || p.Desktop != 3 || r != bounds {
		t.Fatalf("zoom start = %+v at %+v, want desktop 3 at %+v", p, r, bounds)
	}

	h.clock.advance(DefaultExit / 2)
	if out := h.m.Tick(); out.Kind != NoOutcome {
		t.Fatalf("mid-zoom outcome = %+v", out)
	}
	_, r, _ = h.m.Zoom()
	if r.Width <= bounds.Width || r.Height <= bounds.Height || !r.Within(testScreen) {
		t.Fatalf("mid-zoom rect %+v should grow from %+v inside the screen", r, bounds)
	}

	h.clock.advance(DefaultExit)
	out := h.m.Tick()
	if out.Kind != SwitchDesktop || out.Desktop != 3 || !out.Ends() {
		t.Fatalf("zoom completion outcome = %+v, want switch to 3", out)
	}
	if _, r, _ = h.m.Zoom(); r != testScreen {
		t.Fatalf("zoom ended at %+v, want the screen", r)
	}
}

func TestPressIgnoredWhileAnimating(t *testing.T) {
	timing := instant()
	timing.Entrance = DefaultEntrance
	h := newHarness(t, 2, timing, nil)

	x, y := h.cell(t, 0).Rect.Center()
	h.m.Press(x, y, ButtonLeft)
	h.m.Motion(x+50, y+50)
	if h.m.State().Kind() != KindGridTransition {
		t.Fatalf("press during entrance changed state to %s", h.m.State().Kind())
	}
	if out := h.m.Release(x+50, y+50, ButtonLeft); out.Kind != NoOutcome {
		t.Fatalf("release during entrance = %+v", out)
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	timing := instant()
	timing.Transition = DefaultTransition
	h := newHarness(t, 3, timing, nil)

	h.slots.MarkRemoved(1)
	h.m.Reflow()
	h.clock.advance(DefaultTransition / 2)
	h.m.Tick()
	before := h.m.State().(GridTransition).Progress

	h.clock.advance(-DefaultTransition)
	h.m.Tick()
	after := h.m.State().(GridTransition).Progress
	if after < before {
		t.Fatalf("progress went from %v to %v", before, after)
	}
}

func TestReflowAfterWindowDestroyed(t *testing.T) {
	h := newHarness(t, 4, instant(), testBar())

	h.slots.MarkRemoved(2)
	h.m.Reflow()
	if got := h.m.Live().Slots(); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Fatalf("live slots = %v", got)
	}
	if len(h.m.Cells()) != 3 {
		t.Fatalf("cells = %d, want 3", len(h.m.Cells()))
	}
}

func TestReflowDeferredWhileDragging(t *testing.T) {
	h := newHarness(t, 4, instant(), testBar())
	c, x, y := h.drag(t, 0)

	other := h.cell(t, 0).Slot
	h.slots.MarkRemoved(other)
	h.m.Reflow()
	if h.m.State().Kind() != KindDragging {
		t.Fatalf("reflow interrupted the drag")
	}
	if _, ok := h.m.Live().Lookup(other); !ok {
		t.Fatalf("layout changed mid-drag")
	}

	h.m.Release(x, y+40, ButtonLeft)
	h.m.Tick()
	if _, ok := h.m.Live().Lookup(other); ok {
		t.Fatalf("deferred reflow did not run")
	}
	if _, ok := h.m.Live().Lookup(c.Slot); !ok {
		t.Fatalf("dragged slot lost its cell")
	}
}

func TestDraggedWindowDestroyedAbandonsDrag(t *testing.T) {
	h := newHarness(t, 3, instant(), testBar())
	c, _, _ := h.drag(t, 1)

	h.slots.MarkRemoved(c.Slot)
	h.m.Reflow()
	if h.m.State().Kind() != KindIdle {
		t.Fatalf("state = %s, want idle", h.m.State().Kind())
	}
	if _, ok := h.m.Floating(); ok {
		t.Fatalf("destroyed window still floating")
	}
}

func TestSetBarNilReclaimsStrip(t *testing.T) {
	h := newHarness(t, 4, instant(), testBar())
	if h.m.Live().Area == testScreen {
		t.Fatalf("grid should start below the bar")
	}

	h.m.SetBar(nil)
	if h.m.Bar().Reserved() != 0 {
		t.Fatalf("reserved = %d, want 0", h.m.Bar().Reserved())
	}
	if h.m.Live().Area != testScreen {
		t.Fatalf("area = %+v, want full screen", h.m.Live().Area)
	}
}

func TestKeyboardNavigation(t *testing.T) {
	h := newHarness(t, 4, instant(), nil)

	h.m.Key(KeyRight)
	first, ok := h.m.Hover()
	if !ok || first != h.cell(t, 0).Slot {
		t.Fatalf("first arrow should highlight the first cell, got %d,%v", first, ok)
	}
	h.m.Key(KeyRight)
	second, _ := h.m.Hover()
	if second == first {
		t.Fatalf("right arrow did not move")
	}
	if out := h.m.Key(KeyEnter); out.Kind != Select || out.Slot != second {
		t.Fatalf("enter outcome = %+v", out)
	}
}

func TestHoverFollowsPointer(t *testing.T) {
	h := newHarness(t, 3, instant(), testBar())
	c := h.cell(t, 1)
	x, y := c.Rect.Center()

	h.m.Motion(x, y)
	if slot, ok := h.m.Hover(); !ok || slot != c.Slot {
		t.Fatalf("hover = %d,%v want %d", slot, ok, c.Slot)
	}
	h.m.Motion(1, 1079)
	if _, ok := h.m.Hover(); ok {
		t.Fatalf("hover should clear over empty space")
	}
}

func TestCommitPanicsOnMissingSlot(t *testing.T) {
	h := newHarness(t, 3, instant(), nil)
	short := tiling.Build([]int{0, 1}, testScreen, tiling.DefaultOptions())

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	h.m.commit(short)
}

func TestTimingScaled(t *testing.T) {
	got := DefaultTiming().Scaled(2)
	if got.Snap != 75*time.Millisecond || got.Exit != 175*time.Millisecond {
		t.Fatalf("scaled = %+v", got)
	}
	if got.DragThreshold != DefaultDragThreshold {
		t.Fatalf("threshold should not scale")
	}
	if DefaultTiming().Scaled(0) != DefaultTiming() {
		t.Fatalf("zero speed should leave timing unchanged")
	}
}

func rectsOf(cells []hittest.Target) []tiling.Rect {
	out := make([]tiling.Rect, len(cells))
	for i, c := range cells {
		out[i] = c.Rect
	}
	return out
}
