// Package hotkeys grabs the global overview shortcut and opens an overview
// each time it is pressed.
package hotkeys

import (
	"context"
	"errors"

	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/x11"
)

// ErrConnectionLost is returned when the daemon's X event loop stops.
var ErrConnectionLost = errors.New("hotkey daemon lost its X connection")

// Opener opens one overview and blocks until it closes.
type Opener func(ctx context.Context) error

// Trigger coalesces overview requests: while one is pending further
// requests are dropped. It is safe for concurrent use.
type Trigger struct {
	C chan struct{}
}

// NewTrigger returns an empty trigger.
func NewTrigger() *Trigger {
	return &Trigger{C: make(chan struct{}, 1)}
}

// Fire requests an overview.
func (t *Trigger) Fire() {
	select {
	case t.C <- struct{}{}:
	default:
	}
}

// Serve registers hotkey and runs open for each press, and for each request
// fired on requests, until ctx is done. Overviews run one at a time; a
// failing overview is logged and the daemon keeps listening.
func Serve(ctx context.Context, hotkey string, requests *Trigger, open Opener) error {
	log := logging.WithComponent("hotkeys")

	conn, err := x11.NewConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := NewHandler(conn).Register(hotkey, requests.Fire); err != nil {
		return err
	}
	log.Info().Str("hotkey", hotkey).Msg("listening for overview hotkey")

	pingBefore, pingAfter, pingQuit := conn.MainPing()
	defer conn.StopEventLoop(pingBefore, pingAfter, pingQuit)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pingQuit:
			return ErrConnectionLost
		case <-pingBefore:
			<-pingAfter
		case <-requests.C:
			log.Debug().Msg("hotkey pressed")
			if err := open(ctx); err != nil {
				log.Error().Err(err).Msg("overview failed")
			}
		}
	}
}
