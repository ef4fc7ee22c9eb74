package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xoverview/internal/config"
	"github.com/1broseidon/xoverview/internal/hotkeys"
	"github.com/1broseidon/xoverview/internal/ipc"
	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/runtimepath"
	"github.com/1broseidon/xoverview/internal/session"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Open the overview from a global hotkey",
	Long: `Grab the configured hotkey (default Mod4-w) and open an overview each
time it is pressed. "xoverview show" opens one through the daemon's control
socket, and "xoverview reload" re-reads the configuration. Changing the
hotkey itself needs a restart. Runs in the foreground.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Ask the running daemon to open an overview",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := daemonClient()
		if err != nil {
			return err
		}
		return c.Show()
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the running daemon to re-read its configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := daemonClient()
		if err != nil {
			return err
		}
		if err := c.Reload(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration reloaded")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := daemonClient()
		if err != nil {
			return err
		}
		status, err := c.GetStatus()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "hotkey:        %s\n", status.Hotkey)
		if status.ConfigFile != "" {
			fmt.Fprintf(w, "config:        %s\n", status.ConfigFile)
		}
		fmt.Fprintf(w, "overview open: %v\n", status.OverviewOpen)
		fmt.Fprintf(w, "overviews:     %d\n", status.Overviews)
		fmt.Fprintf(w, "uptime:        %s\n", time.Duration(status.UptimeSeconds)*time.Second)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd, showCmd, reloadCmd, statusCmd)
}

func daemonClient() (*ipc.Client, error) {
	sock, err := runtimepath.SocketPath()
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(sock), nil
}

// daemonState is shared between the hotkey loop and IPC connections.
type daemonState struct {
	mu        sync.Mutex
	cfg       *config.Config
	files     []string
	started   time.Time
	open      bool
	overviews int

	requests *hotkeys.Trigger
	load     func() (*config.LoadResult, error)
}

func newDaemonState(res *config.LoadResult, load func() (*config.LoadResult, error)) *daemonState {
	return &daemonState{
		cfg:      res.Config,
		files:    res.Files,
		started:  time.Now(),
		requests: hotkeys.NewTrigger(),
		load:     load,
	}
}

// Show implements ipc.Handler.
func (d *daemonState) Show() error {
	d.requests.Fire()
	return nil
}

// Reload implements ipc.Handler.
func (d *daemonState) Reload() error {
	res, err := d.load()
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = res.Config
	d.files = res.Files
	return nil
}

// Status implements ipc.Handler.
func (d *daemonState) Status() ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := ipc.StatusData{
		Hotkey:        d.cfg.Hotkey,
		OverviewOpen:  d.open,
		Overviews:     d.overviews,
		UptimeSeconds: int64(time.Since(d.started).Seconds()),
	}
	if len(d.files) > 0 {
		status.ConfigFile = d.files[0]
	}
	return status
}

func (d *daemonState) config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *daemonState) setOpen(open bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = open
	if open {
		d.overviews++
	}
}

// runOverview opens one overview with the current configuration.
func (d *daemonState) runOverview(ctx context.Context) error {
	d.setOpen(true)
	defer d.setOpen(false)
	return session.Run(ctx, d.config())
}

func runDaemon(cmd *cobra.Command, args []string) error {
	res, err := setup()
	if err != nil {
		return err
	}
	log := logging.WithComponent("daemon")
	state := newDaemonState(res, loadConfig)

	if sock, err := runtimepath.SocketPath(); err != nil {
		log.Warn().Err(err).Msg("no runtime directory; control socket disabled")
	} else {
		if _, err := ipc.NewClient(sock).GetStatus(); err == nil {
			return fmt.Errorf("a daemon is already listening on %s", sock)
		}
		srv := ipc.NewServer(sock, state)
		if err := srv.Start(); err != nil {
			log.Warn().Err(err).Msg("control socket disabled")
		} else {
			defer srv.Stop()
		}
	}

	return hotkeys.Serve(cmd.Context(), res.Config.Hotkey, state.requests, state.runOverview)
}
