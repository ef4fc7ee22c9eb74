package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/xoverview/internal/deskbar"
)

// DesktopProps reads _NET_NUMBER_OF_DESKTOPS and _NET_CURRENT_DESKTOP from
// the root window. Present is false unless both are set.
func (c *Connection) DesktopProps() deskbar.Props {
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return deskbar.Props{}
	}
	current, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return deskbar.Props{}
	}
	return deskbar.Props{Present: true, Count: int(count), Current: int(current)}
}

// IsDesktopAtom reports whether a root PropertyNotify atom affects the bar.
func (c *Connection) IsDesktopAtom(atom xproto.Atom) bool {
	name, err := xprop.AtomName(c.XUtil, atom)
	if err != nil {
		return false
	}
	switch name {
	case "_NET_NUMBER_OF_DESKTOPS", "_NET_CURRENT_DESKTOP":
		return true
	}
	return false
}

// IsWallpaperAtom reports whether atom names a root background property.
func (c *Connection) IsWallpaperAtom(atom xproto.Atom) bool {
	name, err := xprop.AtomName(c.XUtil, atom)
	if err != nil {
		return false
	}
	return name == "_XROOTPMAP_ID" || name == "ESETROOT_PMAP_ID"
}

// Wallpaper returns the root background pixmap set by the wallpaper setter.
func (c *Connection) Wallpaper() (xproto.Pixmap, bool) {
	for _, name := range []string{"_XROOTPMAP_ID", "ESETROOT_PMAP_ID"} {
		id, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, c.Root, name))
		if err == nil && id != 0 {
			return xproto.Pixmap(id), true
		}
	}
	return 0, false
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// Sends a client message to the root window as EWMH describes.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) FocusWindow(windowID uint32) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(windowID),
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// Activate focuses a window chosen in the overview. Without EWMH support it
// raises the frame and sets input focus on the client directly.
func (c *Connection) Activate(frame, client uint32) error {
	if _, err := ewmh.SupportingWmCheckGet(c.XUtil, c.Root); err == nil {
		if err := c.FocusWindow(client); err == nil {
			return nil
		}
	}

	conn := c.XUtil.Conn()
	if err := xproto.ConfigureWindowChecked(conn, xproto.Window(frame),
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check(); err != nil {
		return fmt.Errorf("failed to raise 0x%x: %w", frame, err)
	}
	if err := xproto.SetInputFocusChecked(conn, xproto.InputFocusPointerRoot,
		xproto.Window(client), xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to focus 0x%x: %w", client, err)
	}
	return nil
}
