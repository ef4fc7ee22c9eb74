package session

import (
	"github.com/1broseidon/xoverview/internal/interaction"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// EventKind identifies what happened on the X connection.
type EventKind int

const (
	EventPress EventKind = iota
	EventRelease
	EventMotion
	EventKey
	// EventDamage carries a damage object id in Window.
	EventDamage
	// EventGone means a window frame was destroyed or unmapped.
	EventGone
	// EventConfigure carries a frame's new Geometry.
	EventConfigure
	EventDesktops
	EventWallpaper
	EventExpose
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventMotion:
		return "motion"
	case EventKey:
		return "key"
	case EventDamage:
		return "damage"
	case EventGone:
		return "gone"
	case EventConfigure:
		return "configure"
	case EventDesktops:
		return "desktops"
	case EventWallpaper:
		return "wallpaper"
	case EventExpose:
		return "expose"
	default:
		return "unknown"
	}
}

// Event is one entry of the session's event queue.
type Event struct {
	Kind     EventKind
	X, Y     int
	Button   interaction.Button
	Key      interaction.Key
	Window   uint32
	Geometry tiling.Rect
}

// queue collects events between loop iterations. Consecutive motion events
// collapse into the latest one.
type queue struct {
	events []Event
}

func (q *queue) push(ev Event) {
	if ev.Kind == EventMotion {
		if n := len(q.events); n > 0 && q.events[n-1].Kind == EventMotion {
			q.events[n-1] = ev
			return
		}
	}
	q.events = append(q.events, ev)
}

// drain returns the queued events in arrival order and empties the queue.
func (q *queue) drain() []Event {
	out := q.events
	q.events = nil
	return out
}

func (q *queue) len() int { return len(q.events) }

// keyNames maps keysym names from keybind.LookupString to machine keys.
var keyNames = map[string]interaction.Key{
	"Escape":   interaction.KeyEscape,
	"Return":   interaction.KeyEnter,
	"KP_Enter": interaction.KeyEnter,
	"Up":       interaction.KeyUp,
	"KP_Up":    interaction.KeyUp,
	"Down":     interaction.KeyDown,
	"KP_Down":  interaction.KeyDown,
	"Left":     interaction.KeyLeft,
	"KP_Left":  interaction.KeyLeft,
	"Right":    interaction.KeyRight,
	"KP_Right": interaction.KeyRight,
}

func keyFromName(name string) interaction.Key {
	if k, ok := keyNames[name]; ok {
		return k
	}
	return interaction.KeyOther
}

// wheelButton reports scroll buttons, which the overview ignores.
func wheelButton(b int) bool {
	return b >= 4 && b <= 7
}
