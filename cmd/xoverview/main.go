package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/1broseidon/xoverview/internal/config"
	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/runtimepath"
	"github.com/1broseidon/xoverview/internal/session"
)

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "xoverview",
		Short: "Window overview for X11",
		Long: `xoverview shows every open window as a live thumbnail in a grid.

Click a thumbnail (or pick one with the arrow keys and Enter) to focus it,
drag it onto a desktop preview to move it there, or press Escape to leave.
Run "xoverview daemon" to open the overview from a global hotkey.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runOverview,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/xoverview/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOverview(cmd *cobra.Command, args []string) error {
	res, err := setup()
	if err != nil {
		return err
	}
	return session.Run(cmd.Context(), res.Config)
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.LoadResult, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

// setup loads the configuration and initializes logging from it.
func setup() (*config.LoadResult, error) {
	res, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg := res.Config

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	file := cfg.LogFile
	if file == "" {
		if p, err := runtimepath.LogPath(); err == nil {
			file = p
		}
	}
	if err := logging.Init(level, file); err != nil {
		return nil, err
	}

	logging.WithComponent("main").Debug().
		Strs("config_files", res.Files).
		Str("log_file", file).
		Msg("configuration loaded")
	return res, nil
}
