package hotkeys

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/xoverview/internal/x11"
)

// Handler manages global keyboard shortcuts on the root window.
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on conn.
func NewHandler(conn *x11.Connection) *Handler {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		xu:   conn.XUtil,
		root: conn.Root,
	}
}

// Register grabs keySequence (e.g. "Mod4-w") on the root window and calls
// callback on every press. The keyboard is released before callback runs
// so the callback can grab it for itself.
func (h *Handler) Register(keySequence string, callback func()) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		keybind.UngrabKeyboard(xu)
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to register hotkey %q: %w", keySequence, err)
	}
	return nil
}

// configureIgnoreMods makes grabs fire regardless of CapsLock, NumLock and
// ScrollLock state.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = lockCombinations(base)
}

// lockCombinations returns every OR of a subset of masks, including 0.
func lockCombinations(masks []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	out := []uint16{0}
	for subset := 1; subset < (1 << len(masks)); subset++ {
		var mask uint16
		for bit := range masks {
			if subset&(1<<bit) != 0 {
				mask |= masks[bit]
			}
		}
		if _, dup := unique[mask]; dup {
			continue
		}
		unique[mask] = struct{}{}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
