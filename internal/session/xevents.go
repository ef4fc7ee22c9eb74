package session

import (
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/xoverview/internal/interaction"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// connectEvents registers the X callbacks. Callbacks run on xevent's
// goroutine while the session loop waits for the after-ping, so they only
// push onto the queue.
func (s *Session) connectEvents() {
	xu := s.conn.XUtil
	win := s.painter.Window

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		if wheelButton(int(ev.Detail)) {
			return
		}
		s.events.push(Event{
			Kind:   EventPress,
			X:      int(ev.EventX),
			Y:      int(ev.EventY),
			Button: interaction.Button(ev.Detail),
		})
	}).Connect(xu, win)

	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		if wheelButton(int(ev.Detail)) {
			return
		}
		s.events.push(Event{
			Kind:   EventRelease,
			X:      int(ev.EventX),
			Y:      int(ev.EventY),
			Button: interaction.Button(ev.Detail),
		})
	}).Connect(xu, win)

	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		s.events.push(Event{Kind: EventMotion, X: int(ev.EventX), Y: int(ev.EventY)})
	}).Connect(xu, win)

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		name := keybind.LookupString(xu, ev.State, ev.Detail)
		s.events.push(Event{Kind: EventKey, Key: keyFromName(name)})
	}).Connect(xu, win)

	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 {
			s.events.push(Event{Kind: EventExpose})
		}
	}).Connect(xu, win)

	for slot := 0; slot < s.arena.Len(); slot++ {
		rec := s.arena.Record(slot)
		if rec.Stale {
			continue
		}
		s.watchFrame(xproto.Window(rec.Frame))
	}

	if err := s.conn.WatchRoot(); err != nil {
		s.log.Debug().Err(err).Msg("cannot watch root properties")
	} else {
		xevent.PropertyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
			switch {
			case s.conn.IsDesktopAtom(ev.Atom):
				s.events.push(Event{Kind: EventDesktops})
			case s.conn.IsWallpaperAtom(ev.Atom):
				s.events.push(Event{Kind: EventWallpaper})
			}
		}).Connect(xu, s.conn.Root)
	}

	// Damage events have no xevent callback type; catch them before dispatch.
	xevent.HookFun(func(_ *xgbutil.XUtil, ev interface{}) bool {
		n, ok := ev.(damage.NotifyEvent)
		if !ok {
			return true
		}
		s.events.push(Event{Kind: EventDamage, Window: uint32(n.Damage)})
		return false
	}).Connect(xu)
}

func (s *Session) watchFrame(frame xproto.Window) {
	xu := s.conn.XUtil
	if err := s.conn.WatchFrame(frame); err != nil {
		s.log.Debug().Err(err).Uint32("frame", uint32(frame)).Msg("cannot watch frame")
		return
	}

	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		s.events.push(Event{Kind: EventGone, Window: uint32(ev.Window)})
	}).Connect(xu, frame)

	xevent.UnmapNotifyFun(func(_ *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		s.events.push(Event{Kind: EventGone, Window: uint32(ev.Window)})
	}).Connect(xu, frame)

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		s.events.push(Event{
			Kind:   EventConfigure,
			Window: uint32(ev.Window),
			Geometry: tiling.Rect{
				X:      int(ev.X),
				Y:      int(ev.Y),
				Width:  int(ev.Width),
				Height: int(ev.Height),
			},
		})
	}).Connect(xu, frame)
}
