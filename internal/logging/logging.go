// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// DebugEnv forces debug output when set to a truthy value.
const DebugEnv = "XOVERVIEW_DEBUG"

var (
	// Logger is the global logger instance
	Logger zerolog.Logger

	logFile *os.File
)

func init() {
	Logger = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = Logger
}

// ParseLevel maps a level name to a zerolog level. Unknown names are an error.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// DebugRequested reports whether the environment asks for debug output.
func DebugRequested() bool {
	switch strings.ToLower(os.Getenv(DebugEnv)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Init configures the global logger. Output goes to stderr, pretty-printed
// when stderr is a terminal, and is additionally appended to file when set.
func Init(level string, file string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if DebugRequested() {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var console io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	out := console
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		Close()
		logFile = f
		out = zerolog.MultiLevelWriter(console, f)
	}

	Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()
	log.Logger = Logger
	return nil
}

// Close releases the log file opened by Init, if any.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// WithComponent returns a logger with a component field set
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}
