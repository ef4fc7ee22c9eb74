package session

import (
	"reflect"
	"testing"
	"time"

	"github.com/1broseidon/xoverview/internal/capture"
	"github.com/1broseidon/xoverview/internal/compose"
	"github.com/1broseidon/xoverview/internal/config"
	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/hittest"
	"github.com/1broseidon/xoverview/internal/interaction"
	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/tiling"
)

var testScreen = tiling.Rect{Width: 1920, Height: 1080}

type stubBackend struct {
	next uint32
	gone map[uint32]bool
}

func (b *stubBackend) id() uint32 {
	b.next++
	return b.next
}

func (b *stubBackend) Redirect(frame uint32) error {
	if b.gone[frame] {
		return capture.ErrWindowGone
	}
	return nil
}

func (b *stubBackend) Unredirect(uint32) {}

func (b *stubBackend) Capture(frame uint32) (capture.Surface, error) {
	if b.gone[frame] {
		return capture.Surface{}, capture.ErrWindowGone
	}
	return capture.Surface{Picture: b.id(), Pixmap: b.id(), Width: 800, Height: 600}, nil
}

func (b *stubBackend) Placeholder(capture.Window) (capture.Surface, error) {
	return capture.Surface{Picture: b.id(), Width: 64, Height: 64, Placeholder: true}, nil
}

func (b *stubBackend) Release(capture.Surface)      {}
func (b *stubBackend) Watch(uint32) (uint32, error) { return b.id(), nil }
func (b *stubBackend) Unwatch(uint32)               {}
func (b *stubBackend) Subtract(uint32)              {}

type activation struct{ frame, client uint32 }

type harness struct {
	s         *Session
	backend   *stubBackend
	started   [][]string
	activated []activation
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Animation = config.AnimationConfig{Speed: 1}
	cfg.Commands = config.Commands{
		MoveToDesktop: []string{"xdeskie", "move", "{window}", "{desktop}"},
		SwitchDesktop: []string{"xdeskie", "switch", "{desktop}"},
		AddDesktop:    []string{"xdeskie", "set-count", "{count}"},
	}

	windows := make([]capture.Window, n)
	for i := range windows {
		windows[i] = capture.Window{
			Frame:    uint32(0x100 + i),
			Client:   uint32(0x200 + i),
			Geometry: tiling.Rect{X: 100 * i, Y: 300, Width: 800, Height: 600},
			Title:    "window",
		}
	}

	h := &harness{backend: &stubBackend{next: 1000, gone: map[uint32]bool{}}}
	s := &Session{
		cfg:    cfg,
		log:    logging.WithComponent("session"),
		screen: testScreen,
		props:  deskbar.Props{Present: true, Count: 3, Current: 0},
		moved:  make(map[int]int),
		start: func(argv []string) error {
			h.started = append(h.started, argv)
			return nil
		},
		activate: func(frame, client uint32) error {
			h.activated = append(h.activated, activation{frame, client})
			return nil
		},
	}
	s.arena = capture.NewArena(windows)
	s.engine = capture.NewEngine(h.backend, s.arena)
	if got := s.engine.SnapshotAll(); got != n {
		t.Fatalf("SnapshotAll() = %d, want %d", got, n)
	}
	s.machine = interaction.New(s.arena, s.buildBar(), hittest.New(), interaction.Options{
		Screen:   testScreen,
		Grid:     gridOptions(cfg, testScreen),
		Timing:   timingFrom(cfg.Animation),
		MaxScale: cfg.Layout.MaxScale,
	})
	h.s = s
	return h
}

func cellSlots(m *interaction.Machine) []int {
	var out []int
	for _, c := range m.Cells() {
		out = append(out, c.Slot)
	}
	return out
}

func miniSlots(bar *deskbar.Bar, desktop int) []int {
	var out []int
	for _, m := range bar.Previews[desktop].Minis {
		out = append(out, m.Slot)
	}
	return out
}

func TestQueue_CoalescesConsecutiveMotion(t *testing.T) {
	var q queue
	q.push(Event{Kind: EventMotion, X: 1, Y: 1})
	q.push(Event{Kind: EventMotion, X: 2, Y: 2})
	q.push(Event{Kind: EventPress, X: 2, Y: 2})
	q.push(Event{Kind: EventMotion, X: 3, Y: 3})
	q.push(Event{Kind: EventMotion, X: 4, Y: 4})

	if q.len() != 3 {
		t.Fatalf("len = %d, want 3", q.len())
	}
	got := q.drain()
	want := []Event{
		{Kind: EventMotion, X: 2, Y: 2},
		{Kind: EventPress, X: 2, Y: 2},
		{Kind: EventMotion, X: 4, Y: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("drain() = %+v, want %+v", got, want)
	}
	if q.len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
}

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want interaction.Key
	}{
		{"Escape", interaction.KeyEscape},
		{"Return", interaction.KeyEnter},
		{"KP_Enter", interaction.KeyEnter},
		{"Left", interaction.KeyLeft},
		{"KP_Down", interaction.KeyDown},
		{"a", interaction.KeyOther},
		{"", interaction.KeyOther},
	}
	for _, tt := range tests {
		if got := keyFromName(tt.name); got != tt.want {
			t.Errorf("keyFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWheelButton(t *testing.T) {
	for b := 1; b <= 9; b++ {
		want := b >= 4 && b <= 7
		if got := wheelButton(b); got != want {
			t.Errorf("wheelButton(%d) = %v, want %v", b, got, want)
		}
	}
}

func TestExpandCommand(t *testing.T) {
	argv := []string{"tool", "--win={window}", "{hex}", "{desktop}", "{count}", "{other}"}
	got := expandCommand(argv, commandVars{Window: 0x1c00007, Desktop: 2, Count: 5})
	want := []string{"tool", "--win=29360135", "0x1c00007", "2", "5", "{other}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expandCommand() = %q, want %q", got, want)
	}
	if argv[1] != "--win={window}" {
		t.Fatalf("template modified: %q", argv[1])
	}
	if expandCommand(nil, commandVars{}) != nil {
		t.Fatalf("empty template should expand to nil")
	}
}

func TestOrderWindows_ScansLeftToRightWithinBand(t *testing.T) {
	windows := []capture.Window{
		{Frame: 1, Geometry: tiling.Rect{X: 1000, Y: 300, Width: 400, Height: 200}},
		{Frame: 2, Geometry: tiling.Rect{X: 0, Y: 300, Width: 400, Height: 200}},
		{Frame: 3, Geometry: tiling.Rect{X: 500, Y: 300, Width: 400, Height: 200}},
	}
	usable := tiling.Rect{Y: 120, Width: 1920, Height: 960}
	got := orderWindows(windows, usable, tiling.DefaultOptions())

	var frames []uint32
	for _, w := range got {
		frames = append(frames, w.Frame)
	}
	if want := []uint32{2, 3, 1}; !reflect.DeepEqual(frames, want) {
		t.Fatalf("order = %v, want %v", frames, want)
	}
}

func TestTimingFrom_ScalesBySpeed(t *testing.T) {
	got := timingFrom(config.AnimationConfig{
		Speed: 2, SnapMS: 150, RevertMS: 200, TransitionMS: 250,
		EntranceMS: 300, ExitMS: 400, DragThreshold: 5,
	})
	want := interaction.Timing{
		Snap:          75 * time.Millisecond,
		Revert:        100 * time.Millisecond,
		Transition:    125 * time.Millisecond,
		Entrance:      150 * time.Millisecond,
		Exit:          200 * time.Millisecond,
		DragThreshold: 5,
	}
	if got != want {
		t.Fatalf("timingFrom() = %+v, want %+v", got, want)
	}
}

func TestHandleOutcome_SelectActivatesAndEnds(t *testing.T) {
	h := newHarness(t, 3)
	if !h.s.handleOutcome(interaction.Outcome{Kind: interaction.Select, Slot: 1}) {
		t.Fatalf("select should end the session")
	}
	want := []activation{{0x101, 0x201}}
	if !reflect.DeepEqual(h.activated, want) {
		t.Fatalf("activated = %v, want %v", h.activated, want)
	}
}

func TestHandleOutcome_MoveToDesktop(t *testing.T) {
	h := newHarness(t, 3)
	h.s.arena.MarkRemoved(2)

	if h.s.handleOutcome(interaction.Outcome{Kind: interaction.MoveToDesktop, Slot: 2, Desktop: 1}) {
		t.Fatalf("move should keep the session open")
	}
	want := [][]string{{"xdeskie", "move", "514", "1"}}
	if !reflect.DeepEqual(h.started, want) {
		t.Fatalf("started = %q, want %q", h.started, want)
	}
	if h.s.moved[2] != 1 {
		t.Fatalf("moved = %v, want slot 2 on desktop 1", h.s.moved)
	}
	bar := h.s.machine.Bar()
	if got := miniSlots(bar, 1); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("desktop 1 minis = %v, want [2]", got)
	}
	if !h.s.dirty {
		t.Fatalf("bar change should request a repaint")
	}
}

func TestHandleOutcome_DesktopCommands(t *testing.T) {
	h := newHarness(t, 1)

	if !h.s.handleOutcome(interaction.Outcome{Kind: interaction.SwitchDesktop, Desktop: 2}) {
		t.Fatalf("switch should end the session")
	}
	if h.s.handleOutcome(interaction.Outcome{Kind: interaction.AddDesktop}) {
		t.Fatalf("add should keep the session open")
	}
	want := [][]string{
		{"xdeskie", "switch", "2"},
		{"xdeskie", "set-count", "4"},
	}
	if !reflect.DeepEqual(h.started, want) {
		t.Fatalf("started = %q, want %q", h.started, want)
	}
}

func TestHandleOutcome_UnconfiguredCommandIsSkipped(t *testing.T) {
	h := newHarness(t, 1)
	h.s.cfg.Commands.AddDesktop = nil

	h.s.handleOutcome(interaction.Outcome{Kind: interaction.AddDesktop})
	if len(h.started) != 0 {
		t.Fatalf("started = %q, want nothing", h.started)
	}
}

func TestDispatch_EscapeDismissesWithoutExitAnimation(t *testing.T) {
	h := newHarness(t, 2)
	out := h.s.dispatch(Event{Kind: EventKey, Key: interaction.KeyEscape})
	if out.Kind != interaction.Dismiss {
		t.Fatalf("outcome = %v, want dismiss", out.Kind)
	}
	if !h.s.handleOutcome(out) {
		t.Fatalf("dismiss should end the session")
	}
}

func TestDispatch_WindowGoneReflowsGrid(t *testing.T) {
	h := newHarness(t, 3)

	h.s.dispatch(Event{Kind: EventGone, Window: 0x201})

	if !h.s.arena.Record(1).Stale {
		t.Fatalf("slot 1 should be stale")
	}
	if got := cellSlots(h.s.machine); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("cells = %v, want [0 2]", got)
	}
	for _, slot := range miniSlots(h.s.machine.Bar(), 0) {
		if slot == 1 {
			t.Fatalf("gone window still shown in the bar")
		}
	}

	// A second notification for the same window is ignored.
	h.s.dispatch(Event{Kind: EventGone, Window: 0x101})
	if got := cellSlots(h.s.machine); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("cells = %v after duplicate, want [0 2]", got)
	}
}

func TestDispatch_ConfigureUpdatesGeometryAndRecaptures(t *testing.T) {
	h := newHarness(t, 2)
	g := tiling.Rect{X: 10, Y: 20, Width: 1024, Height: 768}

	h.s.dispatch(Event{Kind: EventConfigure, Window: 0x100, Geometry: g})

	if got := h.s.arena.Geometry(0); got != g {
		t.Fatalf("geometry = %+v, want %+v", got, g)
	}
	if !h.s.engine.Pending() {
		t.Fatalf("resize should queue a recapture")
	}
}

func TestDispatch_DamageQueuesRefresh(t *testing.T) {
	h := newHarness(t, 2)
	id := h.s.arena.Record(1).Damage

	h.s.dispatch(Event{Kind: EventDamage, Window: id})
	if !h.s.engine.Pending() {
		t.Fatalf("damage should queue a refresh")
	}

	h.s.dirty = false
	h.s.flushCaptures()
	if h.s.engine.Pending() {
		t.Fatalf("flush left work pending")
	}
	if !h.s.dirty {
		t.Fatalf("refreshed surface should request a repaint")
	}
}

func TestFlushCaptures_VanishedWindowIsRemoved(t *testing.T) {
	h := newHarness(t, 3)
	h.backend.gone[0x100] = true
	h.s.engine.Invalidate(0)

	h.s.flushCaptures()

	if !h.s.arena.Record(0).Stale {
		t.Fatalf("slot 0 should be stale")
	}
	if got := cellSlots(h.s.machine); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("cells = %v, want [1 2]", got)
	}
}

func TestFlushCaptures_IdleDoesNothing(t *testing.T) {
	h := newHarness(t, 1)
	h.s.dirty = false
	h.s.flushCaptures()
	if h.s.dirty {
		t.Fatalf("nothing changed but a repaint was requested")
	}
}

func TestScene(t *testing.T) {
	h := newHarness(t, 2)
	h.s.cfg.ShowHints = true

	sc := h.s.scene()
	if len(sc.Cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(sc.Cells))
	}
	if sc.Bar == nil {
		t.Fatalf("scene has no bar")
	}
	if !reflect.DeepEqual(sc.Hints, compose.DefaultHints(true)) {
		t.Fatalf("hints = %q", sc.Hints)
	}
	if sc.Floating != nil {
		t.Fatalf("nothing should be floating")
	}

	w, hgt, ok := sc.Content.Size(0)
	if !ok || w != 800 || hgt != 600 {
		t.Fatalf("Size(0) = %d, %d, %v", w, hgt, ok)
	}
	if got := sc.Content.Title(1); got != "window" {
		t.Fatalf("Title(1) = %q", got)
	}
	if _, _, ok := sc.Content.Size(9); ok {
		t.Fatalf("Size of unknown slot should fail")
	}
	if got := sc.Content.Title(9); got != "" {
		t.Fatalf("Title of unknown slot = %q", got)
	}
}

func TestBuildBar_DisabledOrAbsent(t *testing.T) {
	h := newHarness(t, 1)

	h.s.cfg.DesktopBar.Enabled = false
	if h.s.buildBar() != nil {
		t.Fatalf("disabled bar should be nil")
	}

	h.s.cfg.DesktopBar.Enabled = true
	h.s.props = deskbar.Props{}
	if h.s.buildBar() != nil {
		t.Fatalf("bar without desktop properties should be nil")
	}
}
