package x11

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	grabAttempts   = 20
	grabRetryDelay = 25 * time.Millisecond
)

// GrabInput takes the keyboard and pointer for win. When the overview is
// started from a hotkey the key may still be held, so the grabs are retried
// briefly before giving up.
func (c *Connection) GrabInput(win xproto.Window) error {
	var err error
	for i := 0; i < grabAttempts; i++ {
		if err = keybind.GrabKeyboard(c.XUtil, win); err == nil {
			break
		}
		time.Sleep(grabRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to grab keyboard: %w", err)
	}

	for i := 0; i < grabAttempts; i++ {
		ok, perr := mousebind.GrabPointer(c.XUtil, win, 0, 0)
		switch {
		case perr != nil:
			err = perr
		case ok:
			return nil
		default:
			err = errors.New("pointer is grabbed by another client")
		}
		time.Sleep(grabRetryDelay)
	}
	keybind.UngrabKeyboard(c.XUtil)
	return fmt.Errorf("failed to grab pointer: %w", err)
}

// UngrabInput releases both grabs taken by GrabInput.
func (c *Connection) UngrabInput() {
	mousebind.UngrabPointer(c.XUtil)
	keybind.UngrabKeyboard(c.XUtil)
}

// WatchFrame selects structure events (destroy, unmap, configure) on a frame.
func (c *Connection) WatchFrame(frame xproto.Window) error {
	return xwindow.New(c.XUtil, frame).Listen(xproto.EventMaskStructureNotify)
}

// WatchRoot selects property changes on the root window so desktop and
// wallpaper updates are seen.
func (c *Connection) WatchRoot() error {
	return xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange)
}
