package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// WindowInfo is one application window found on screen.
type WindowInfo struct {
	Frame    xproto.Window
	Client   xproto.Window
	Geometry tiling.Rect
	Class    string
	Title    string
}

// WindowFilter narrows the window list.
type WindowFilter struct {
	// ExcludeClasses are matched case-insensitively against both WM_CLASS parts.
	ExcludeClasses []string
	Ignore         []xproto.Window
}

const icccmWithdrawn = 0

// Windows returns the viewable application windows, top of the stack first.
// Frames that vanish while being examined are skipped.
func (c *Connection) Windows(filter WindowFilter) ([]WindowInfo, error) {
	log := logging.WithComponent("x11")
	conn := c.XUtil.Conn()

	tree, err := xproto.QueryTree(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query root children: %w", err)
	}

	var out []WindowInfo
	for i := len(tree.Children) - 1; i >= 0; i-- {
		frame := tree.Children[i]
		if ignored(frame, filter.Ignore) {
			continue
		}

		info, ok, err := c.examineFrame(frame)
		if err != nil {
			log.Debug().Err(err).Uint32("frame", uint32(frame)).Msg("skipping frame")
			continue
		}
		if !ok {
			continue
		}
		if reason := c.skipReason(info, filter); reason != "" {
			log.Debug().
				Uint32("frame", uint32(frame)).
				Str("class", info.Class).
				Str("reason", reason).
				Msg("window filtered")
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

func ignored(w xproto.Window, list []xproto.Window) bool {
	for _, ig := range list {
		if ig == w {
			return true
		}
	}
	return false
}

// examineFrame resolves a root child to a managed client window.
func (c *Connection) examineFrame(frame xproto.Window) (WindowInfo, bool, error) {
	conn := c.XUtil.Conn()

	attrs, err := xproto.GetWindowAttributes(conn, frame).Reply()
	if err != nil {
		return WindowInfo{}, false, err
	}
	if attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable ||
		attrs.Class != xproto.WindowClassInputOutput {
		return WindowInfo{}, false, nil
	}

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(frame)).Reply()
	if err != nil {
		return WindowInfo{}, false, err
	}
	if geom.Width <= 1 || geom.Height <= 1 {
		return WindowInfo{}, false, nil
	}

	client, ok := c.findClient(frame, 0)
	if !ok {
		return WindowInfo{}, false, nil
	}

	info := WindowInfo{
		Frame:  frame,
		Client: client,
		Geometry: tiling.Rect{
			X:      int(geom.X),
			Y:      int(geom.Y),
			Width:  int(geom.Width),
			Height: int(geom.Height),
		},
		Title: c.windowTitle(client),
	}
	if class, err := icccm.WmClassGet(c.XUtil, client); err == nil && class != nil {
		info.Class = strings.TrimSpace(class.Instance + " " + class.Class)
	}
	return info, true, nil
}

// findClient searches depth-first for the window carrying WM_STATE.
func (c *Connection) findClient(w xproto.Window, depth int) (xproto.Window, bool) {
	if state, err := icccm.WmStateGet(c.XUtil, w); err == nil && state != nil {
		if state.State == icccmWithdrawn {
			return 0, false
		}
		return w, true
	}
	if depth >= 3 {
		return 0, false
	}
	tree, err := xproto.QueryTree(c.XUtil.Conn(), w).Reply()
	if err != nil {
		return 0, false
	}
	for _, child := range tree.Children {
		if client, ok := c.findClient(child, depth+1); ok {
			return client, true
		}
	}
	return 0, false
}

func (c *Connection) windowTitle(client xproto.Window) string {
	if name, err := ewmh.WmNameGet(c.XUtil, client); err == nil && name != "" {
		return name
	}
	if name, err := icccm.WmNameGet(c.XUtil, client); err == nil {
		return name
	}
	return ""
}

// skipReason returns why info should not be shown, or "" to keep it.
func (c *Connection) skipReason(info WindowInfo, filter WindowFilter) string {
	if info.Class == "" {
		return "no WM_CLASS"
	}
	for _, part := range strings.Fields(info.Class) {
		for _, exc := range filter.ExcludeClasses {
			if strings.EqualFold(part, exc) {
				return "excluded class"
			}
		}
	}
	if !c.IsNormalWindow(info.Client) {
		return "window type"
	}
	if states, err := ewmh.WmStateGet(c.XUtil, info.Client); err == nil {
		for _, s := range states {
			switch s {
			case "_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER", "_NET_WM_STATE_HIDDEN":
				return s
			}
		}
	}
	if parent, err := icccm.WmTransientForGet(c.XUtil, info.Client); err == nil && parent != 0 {
		return "transient"
	}
	return ""
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_TOOLBAR",
			"_NET_WM_WINDOW_TYPE_MENU",
			"_NET_WM_WINDOW_TYPE_UTILITY",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
			"_NET_WM_WINDOW_TYPE_POPUP_MENU",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_COMBO",
			"_NET_WM_WINDOW_TYPE_DND":
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// FrameGeometry returns a frame's root-relative rectangle.
func (c *Connection) FrameGeometry(frame xproto.Window) (tiling.Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(frame)).Reply()
	if err != nil {
		return tiling.Rect{}, err
	}
	return tiling.Rect{X: int(geom.X), Y: int(geom.Y), Width: int(geom.Width), Height: int(geom.Height)}, nil
}
