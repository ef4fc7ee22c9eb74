// Package session runs one overview: it discovers windows, captures them,
// paints the overlay and feeds X input into the interaction machine until
// the user selects a window or dismisses the overview.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/xoverview/internal/capture"
	"github.com/1broseidon/xoverview/internal/compose"
	"github.com/1broseidon/xoverview/internal/config"
	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/hittest"
	"github.com/1broseidon/xoverview/internal/interaction"
	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/runtimepath"
	"github.com/1broseidon/xoverview/internal/tiling"
	"github.com/1broseidon/xoverview/internal/x11"
	"github.com/1broseidon/xoverview/internal/xdeskie"
)

const (
	frameInterval    = 16 * time.Millisecond
	placeholderRetry = 200 * time.Millisecond
)

// ErrConnectionLost is returned when the X event loop stops on its own.
var ErrConnectionLost = errors.New("X connection lost")

// Session holds the state of one open overview.
type Session struct {
	cfg    *config.Config
	conn   *x11.Connection
	log    *zerolog.Logger
	screen tiling.Rect

	arena   *capture.Arena
	engine  *capture.Engine
	machine *interaction.Machine
	painter *x11.Painter

	props    deskbar.Props
	snapshot *xdeskie.Snapshot
	// moved records windows dropped on a desktop preview this session.
	moved map[int]int

	events   queue
	start    runner
	activate func(frame, client uint32) error

	dirty bool
	retry bool
}

// Run opens an overview on the default display and blocks until it closes
// or ctx is done. With no windows to show it returns nil at once.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logging.WithComponent("session")

	if path, err := runtimepath.LockPath(); err != nil {
		log.Warn().Err(err).Msg("no runtime directory; running without instance lock")
	} else {
		unlock, err := runtimepath.Lock(path)
		if err != nil {
			return err
		}
		defer unlock()
	}

	conn, err := x11.Connect()
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}
	defer conn.Close()

	s := &Session{
		cfg:      cfg,
		conn:     conn,
		log:      log,
		screen:   conn.Screen(),
		moved:    make(map[int]int),
		start:    startCommand,
		activate: conn.Activate,
	}
	return s.open(ctx)
}

func (s *Session) open(ctx context.Context) error {
	infos, err := s.conn.Windows(x11.WindowFilter{ExcludeClasses: s.cfg.ExcludeClasses})
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		s.log.Info().Msg("no windows to display")
		return nil
	}

	if s.cfg.DesktopBar.Enabled {
		s.props = s.conn.DesktopProps()
		s.loadSnapshot()
	}

	grid := gridOptions(s.cfg, s.screen)
	usable := s.buildBar().Usable(s.screen)
	s.arena = capture.NewArena(orderWindows(captureWindows(infos), usable, grid))
	s.engine = capture.NewEngine(x11.NewCompositor(s.conn), s.arena)
	defer s.engine.Close()

	captured := s.engine.SnapshotAll()
	s.log.Debug().
		Int("windows", s.arena.Len()).
		Int("captured", captured).
		Msg("windows captured")

	painter, err := x11.NewPainter(s.conn)
	if err != nil {
		return err
	}
	s.painter = painter
	defer painter.Destroy()
	s.refreshWallpaper()

	if err := s.conn.GrabInput(painter.Window); err != nil {
		return err
	}
	defer s.conn.UngrabInput()

	s.machine = interaction.New(s.arena, s.buildBar(), hittest.New(), interaction.Options{
		Screen:   s.screen,
		Grid:     grid,
		Timing:   timingFrom(s.cfg.Animation),
		MaxScale: s.cfg.Layout.MaxScale,
	})
	s.dirty = true

	s.connectEvents()
	return s.loop(ctx)
}

func (s *Session) loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stateChanged <-chan struct{}
	if s.cfg.DesktopBar.Enabled {
		ch, err := xdeskie.Watch(ctx, s.cfg.DesktopBar.StateFile)
		if err != nil {
			s.log.Debug().Err(err).Msg("not watching desktop state file")
		}
		stateChanged = ch
	}

	pingBefore, pingAfter, pingQuit := s.conn.MainPing()
	defer s.conn.StopEventLoop(pingBefore, pingAfter, pingQuit)

	frames := time.NewTicker(frameInterval)
	frames.Stop()
	ticking := false
	retry := time.NewTicker(placeholderRetry)
	defer retry.Stop()

	for {
		want := s.dirty || s.retry || s.engine.Pending() || s.machine.Animating()
		if want != ticking {
			if want {
				frames.Reset(frameInterval)
			} else {
				frames.Stop()
			}
			ticking = want
		}

		select {
		case <-ctx.Done():
			return nil
		case <-pingQuit:
			return ErrConnectionLost
		case <-pingBefore:
			<-pingAfter
			if s.drainEvents() {
				return nil
			}
		case <-frames.C:
			if s.frame() {
				return nil
			}
		case <-retry.C:
			s.retry = true
		case <-stateChanged:
			s.loadSnapshot()
			s.updateBar()
		}
	}
}

// drainEvents dispatches queued X events. It reports whether the session
// should end.
func (s *Session) drainEvents() bool {
	for _, ev := range s.events.drain() {
		if s.handleOutcome(s.dispatch(ev)) {
			return true
		}
	}
	return false
}

// frame refreshes damaged captures, advances animations and repaints. It
// reports whether the session should end.
func (s *Session) frame() bool {
	s.flushCaptures()
	if s.machine.Animating() {
		s.dirty = true
	}
	if s.handleOutcome(s.machine.Tick()) {
		return true
	}
	if s.dirty {
		s.paint()
		s.dirty = false
	}
	return false
}

func (s *Session) dispatch(ev Event) interaction.Outcome {
	m := s.machine
	switch ev.Kind {
	case EventPress:
		s.dirty = true
		return m.Press(ev.X, ev.Y, ev.Button)
	case EventRelease:
		s.dirty = true
		return m.Release(ev.X, ev.Y, ev.Button)
	case EventMotion:
		s.dirty = true
		return m.Motion(ev.X, ev.Y)
	case EventKey:
		s.dirty = true
		return m.Key(ev.Key)
	case EventDamage:
		s.engine.NoteDamage(ev.Window)
	case EventGone:
		s.windowGone(ev.Window)
	case EventConfigure:
		slot, ok := s.arena.SlotOf(ev.Window)
		if !ok || s.arena.Record(slot).Stale {
			break
		}
		s.arena.SetGeometry(slot, ev.Geometry)
		s.engine.Invalidate(slot)
		s.updateBar()
	case EventDesktops:
		s.props = s.conn.DesktopProps()
		s.updateBar()
	case EventWallpaper:
		s.refreshWallpaper()
		s.dirty = true
	case EventExpose:
		s.dirty = true
	}
	return interaction.Outcome{}
}

// windowGone drops a destroyed or unmapped window from the grid.
func (s *Session) windowGone(id uint32) {
	slot, ok := s.arena.SlotOf(id)
	if !ok || s.arena.Record(slot).Stale {
		return
	}
	s.log.Debug().Int("slot", slot).Uint32("window", id).Msg("window gone")
	s.engine.MarkStale(slot)
	s.machine.Reflow()
	s.updateBar()
}

func (s *Session) flushCaptures() {
	retry := s.retry
	s.retry = false
	if !s.engine.Pending() && !retry {
		return
	}

	changed := s.engine.Flush()
	if len(changed) == 0 {
		return
	}
	s.dirty = true
	for _, slot := range changed {
		if s.arena.Record(slot).Stale {
			s.machine.Reflow()
			s.updateBar()
			return
		}
	}
}

// handleOutcome performs what the machine asked for. It reports whether
// the session should end.
func (s *Session) handleOutcome(out interaction.Outcome) bool {
	if out.Kind == interaction.NoOutcome {
		return false
	}
	s.log.Debug().
		Stringer("outcome", out.Kind).
		Int("slot", out.Slot).
		Int("desktop", out.Desktop).
		Msg("interaction outcome")

	switch out.Kind {
	case interaction.Select:
		if rec := s.arena.Record(out.Slot); rec != nil {
			if err := s.activate(rec.Frame, rec.Client); err != nil {
				s.log.Warn().Err(err).Uint32("window", rec.Client).Msg("failed to activate window")
			}
		}
	case interaction.MoveToDesktop:
		s.moved[out.Slot] = out.Desktop
		var window uint32
		if rec := s.arena.Record(out.Slot); rec != nil {
			window = rec.Client
		}
		s.runCommand("move_to_desktop", s.cfg.Commands.MoveToDesktop,
			commandVars{Window: window, Desktop: out.Desktop})
		s.updateBar()
	case interaction.SwitchDesktop:
		s.runCommand("switch_desktop", s.cfg.Commands.SwitchDesktop,
			commandVars{Desktop: out.Desktop})
	case interaction.AddDesktop:
		s.runCommand("add_desktop", s.cfg.Commands.AddDesktop,
			commandVars{Count: s.props.Count + 1})
	}
	return out.Ends()
}

func (s *Session) runCommand(name string, argv []string, vars commandVars) {
	if len(argv) == 0 {
		s.log.Debug().Str("command", name).Msg("no command configured")
		return
	}
	expanded := expandCommand(argv, vars)
	if err := s.start(expanded); err != nil {
		s.log.Warn().Err(err).Str("command", name).Strs("argv", expanded).Msg("desktop command failed")
		return
	}
	s.log.Debug().Str("command", name).Strs("argv", expanded).Msg("desktop command started")
}

func (s *Session) loadSnapshot() {
	snap, err := xdeskie.Load(s.cfg.DesktopBar.StateFile)
	if err != nil {
		s.log.Debug().Err(err).Msg("desktop state unavailable")
		s.snapshot = nil
		return
	}
	s.snapshot = snap
}

// buildBar lays out the bar from the current desktop state. It returns nil
// when the bar is disabled or no desktops are published.
func (s *Session) buildBar() *deskbar.Bar {
	if !s.cfg.DesktopBar.Enabled {
		return nil
	}
	var windows []deskbar.Window
	if s.arena != nil {
		windows = barWindows(s.arena)
	}
	return deskbar.Build(deskbar.Input{
		Screen:   s.screen,
		Props:    s.props,
		Snapshot: s.snapshot,
		Windows:  windows,
		Moved:    s.moved,
	}, barOptions(s.cfg))
}

func (s *Session) updateBar() {
	s.dirty = true
	if s.machine != nil {
		s.machine.SetBar(s.buildBar())
	}
}

func (s *Session) refreshWallpaper() {
	pix, ok := s.conn.Wallpaper()
	if !ok {
		return
	}
	if err := s.painter.SetWallpaper(pix); err != nil {
		s.log.Debug().Err(err).Msg("wallpaper unavailable")
	}
}

// scene collects what the renderer needs for one frame.
func (s *Session) scene() compose.Scene {
	bar := s.machine.Bar()
	sc := compose.Scene{
		Screen:     s.screen,
		Content:    content{engine: s.engine},
		Cells:      s.machine.Cells(),
		Bar:        bar,
		ShowTitles: s.cfg.ShowTitles,
		MaxScale:   s.cfg.Layout.MaxScale,
	}
	if f, ok := s.machine.Floating(); ok {
		sc.Floating = &f
	}
	if p, r, ok := s.machine.Zoom(); ok {
		sc.Zoom = &compose.Zoom{Preview: p, Rect: r}
	}
	sc.Hover, sc.HasHover = s.machine.Hover()
	sc.HoverDesktop, sc.HasHoverDesktop = s.machine.HoverDesktop()
	if s.cfg.ShowHints {
		sc.Hints = compose.DefaultHints(bar != nil)
	}
	return sc
}

func (s *Session) paint() {
	sc := s.scene()
	sc.Wallpaper = s.painter.HasWallpaper()
	s.painter.Paint(compose.Build(sc), s.engine)
}

func captureWindows(infos []x11.WindowInfo) []capture.Window {
	out := make([]capture.Window, len(infos))
	for i, info := range infos {
		out[i] = capture.Window{
			Frame:    uint32(info.Frame),
			Client:   uint32(info.Client),
			Geometry: info.Geometry,
			Class:    info.Class,
			Title:    info.Title,
		}
	}
	return out
}
