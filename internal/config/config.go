package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayoutConfig controls grid spacing and thumbnail size.
type LayoutConfig struct {
	Margin   int     `yaml:"margin"`
	Padding  int     `yaml:"padding"`
	MaxScale float64 `yaml:"max_scale"`
}

// AnimationConfig holds animation durations in milliseconds. Speed divides
// every duration; a duration of 0 disables that animation.
type AnimationConfig struct {
	Speed         float64 `yaml:"speed"`
	EntranceMS    int     `yaml:"entrance_ms"`
	ExitMS        int     `yaml:"exit_ms"`
	SnapMS        int     `yaml:"snap_ms"`
	RevertMS      int     `yaml:"revert_ms"`
	TransitionMS  int     `yaml:"transition_ms"`
	DragThreshold int     `yaml:"drag_threshold"`
}

// DesktopBarConfig controls the desktop preview strip.
type DesktopBarConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Height         int    `yaml:"height"`
	PreviewHeight  int    `yaml:"preview_height"`
	PreviewSpacing int    `yaml:"preview_spacing"`
	StateFile      string `yaml:"state_file"`
}

// Commands are argv templates run for desktop actions. Arguments may contain
// {window}, {hex}, {desktop} and {count} placeholders.
type Commands struct {
	MoveToDesktop []string `yaml:"move_to_desktop"`
	SwitchDesktop []string `yaml:"switch_desktop"`
	AddDesktop    []string `yaml:"add_desktop"`
}

// Config holds the application configuration.
type Config struct {
	Hotkey         string           `yaml:"hotkey"`
	LogLevel       string           `yaml:"log_level"`
	LogFile        string           `yaml:"log_file,omitempty"`
	ExcludeClasses []string         `yaml:"exclude_classes"`
	Layout         LayoutConfig     `yaml:"layout"`
	Animation      AnimationConfig  `yaml:"animation"`
	DesktopBar     DesktopBarConfig `yaml:"desktop_bar"`
	Commands       Commands         `yaml:"commands"`
	ShowHints      bool             `yaml:"show_hints"`
	ShowTitles     bool             `yaml:"show_titles"`
}

const (
	DefaultHotkey    = "Mod4-w"
	DefaultStateFile = "/tmp/xdeskie/state.json"
)

func DefaultConfig() *Config {
	return &Config{
		Hotkey:         DefaultHotkey,
		LogLevel:       "info",
		ExcludeClasses: []string{"xoverview"},
		Layout: LayoutConfig{
			Margin:   50,
			Padding:  20,
			MaxScale: 0.9,
		},
		Animation: AnimationConfig{
			Speed:         1.0,
			EntranceMS:    350,
			ExitMS:        350,
			SnapMS:        150,
			RevertMS:      200,
			TransitionMS:  250,
			DragThreshold: 5,
		},
		DesktopBar: DesktopBarConfig{
			Enabled:        true,
			Height:         120,
			PreviewHeight:  80,
			PreviewSpacing: 15,
			StateFile:      DefaultStateFile,
		},
		ShowHints:  true,
		ShowTitles: true,
	}
}

// SaveTo writes the configuration to path, creating its directory.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hotkey) == "" {
		return &ValidationError{Path: "hotkey", Err: fmt.Errorf("hotkey is required")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	for i, class := range c.ExcludeClasses {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: "exclude_classes", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}

	if c.Layout.Margin < 0 {
		return &ValidationError{Path: "layout.margin", Err: fmt.Errorf("margin must be >= 0")}
	}
	if c.Layout.Padding < 0 {
		return &ValidationError{Path: "layout.padding", Err: fmt.Errorf("padding must be >= 0")}
	}
	if c.Layout.MaxScale <= 0 || c.Layout.MaxScale > 1 {
		return &ValidationError{Path: "layout.max_scale", Err: fmt.Errorf("max_scale must be in (0, 1]")}
	}

	if c.Animation.Speed <= 0 {
		return &ValidationError{Path: "animation.speed", Err: fmt.Errorf("speed must be > 0")}
	}
	for _, d := range []struct {
		path string
		ms   int
	}{
		{"animation.entrance_ms", c.Animation.EntranceMS},
		{"animation.exit_ms", c.Animation.ExitMS},
		{"animation.snap_ms", c.Animation.SnapMS},
		{"animation.revert_ms", c.Animation.RevertMS},
		{"animation.transition_ms", c.Animation.TransitionMS},
		{"animation.drag_threshold", c.Animation.DragThreshold},
	} {
		if d.ms < 0 {
			return &ValidationError{Path: d.path, Err: fmt.Errorf("must be >= 0")}
		}
	}

	if c.DesktopBar.Height <= 0 {
		return &ValidationError{Path: "desktop_bar.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.DesktopBar.PreviewHeight <= 0 || c.DesktopBar.PreviewHeight > c.DesktopBar.Height {
		return &ValidationError{Path: "desktop_bar.preview_height", Err: fmt.Errorf("preview_height must be in 1..%d", c.DesktopBar.Height)}
	}
	if c.DesktopBar.PreviewSpacing < 0 {
		return &ValidationError{Path: "desktop_bar.preview_spacing", Err: fmt.Errorf("preview_spacing must be >= 0")}
	}
	if c.DesktopBar.Enabled && strings.TrimSpace(c.DesktopBar.StateFile) == "" {
		return &ValidationError{Path: "desktop_bar.state_file", Err: fmt.Errorf("state_file is required when the bar is enabled")}
	}

	for path, argv := range map[string][]string{
		"commands.move_to_desktop": c.Commands.MoveToDesktop,
		"commands.switch_desktop":  c.Commands.SwitchDesktop,
		"commands.add_desktop":     c.Commands.AddDesktop,
	} {
		if err := validateCommand(argv); err != nil {
			return &ValidationError{Path: path, Err: err}
		}
	}

	return nil
}

func validateCommand(argv []string) error {
	if len(argv) == 0 {
		return nil
	}
	if strings.TrimSpace(argv[0]) == "" {
		return fmt.Errorf("program name must not be empty")
	}
	for _, arg := range argv {
		if open, close := strings.Count(arg, "{"), strings.Count(arg, "}"); open != close {
			return fmt.Errorf("unbalanced placeholder in %q", arg)
		}
	}
	return nil
}
