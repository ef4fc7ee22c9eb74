package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/xoverview/internal/tiling"
)

// ErrCapabilityMissing is returned when a required X extension is absent or
// too old.
var ErrCapabilityMissing = errors.New("required X extension missing")

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	compositing bool
	formats     pictFormats
}

// NewConnection establishes a connection to the X11 server and initializes
// keyboard and pointer helpers.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	keybind.Initialize(xu)
	mousebind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Connect opens a connection and verifies the compositing extensions.
func Connect() (*Connection, error) {
	c, err := NewConnection()
	if err != nil {
		return nil, err
	}
	if err := c.RequireCompositing(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// RequireCompositing initializes Composite (>= 0.2), Damage, XFixes and
// Render. Any failure wraps ErrCapabilityMissing.
func (c *Connection) RequireCompositing() error {
	if c.compositing {
		return nil
	}
	conn := c.XUtil.Conn()

	if err := composite.Init(conn); err != nil {
		return fmt.Errorf("%w: Composite: %v", ErrCapabilityMissing, err)
	}
	cv, err := composite.QueryVersion(conn, 0, 4).Reply()
	if err != nil {
		return fmt.Errorf("%w: Composite version: %v", ErrCapabilityMissing, err)
	}
	if cv.MajorVersion == 0 && cv.MinorVersion < 2 {
		return fmt.Errorf("%w: Composite %d.%d < 0.2", ErrCapabilityMissing, cv.MajorVersion, cv.MinorVersion)
	}

	// Damage requests take XFixes regions, so XFixes must be negotiated first.
	if err := xfixes.Init(conn); err != nil {
		return fmt.Errorf("%w: XFixes: %v", ErrCapabilityMissing, err)
	}
	if _, err := xfixes.QueryVersion(conn, 2, 0).Reply(); err != nil {
		return fmt.Errorf("%w: XFixes version: %v", ErrCapabilityMissing, err)
	}

	if err := damage.Init(conn); err != nil {
		return fmt.Errorf("%w: Damage: %v", ErrCapabilityMissing, err)
	}
	if _, err := damage.QueryVersion(conn, 1, 1).Reply(); err != nil {
		return fmt.Errorf("%w: Damage version: %v", ErrCapabilityMissing, err)
	}

	if err := render.Init(conn); err != nil {
		return fmt.Errorf("%w: Render: %v", ErrCapabilityMissing, err)
	}
	if _, err := render.QueryVersion(conn, 0, 11).Reply(); err != nil {
		return fmt.Errorf("%w: Render version: %v", ErrCapabilityMissing, err)
	}
	formats, err := queryFormats(conn)
	if err != nil {
		return fmt.Errorf("%w: Render formats: %v", ErrCapabilityMissing, err)
	}

	c.formats = formats
	c.compositing = true
	return nil
}

// Screen returns the root window's rectangle.
func (c *Connection) Screen() tiling.Rect {
	s := c.XUtil.Screen()
	return tiling.Rect{Width: int(s.WidthInPixels), Height: int(s.HeightInPixels)}
}

// MainPing starts xevent's loop in the background. Callbacks run between
// a receive on before and a receive on after; quit fires when the loop ends.
func (c *Connection) MainPing() (before, after, quit chan struct{}) {
	return xevent.MainPing(c.XUtil)
}

// StopEventLoop ends the loop started by MainPing and keeps answering its
// pings until it has exited, so its goroutine never blocks on a caller that
// stopped listening.
func (c *Connection) StopEventLoop(before, after, quit chan struct{}) {
	xevent.Quit(c.XUtil)
	go drainPings(before, after, quit)
}

// drainPings acknowledges ping pairs until quit fires.
func drainPings(before, after, quit chan struct{}) {
	for {
		select {
		case <-before:
			<-after
		case <-quit:
			return
		}
	}
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
