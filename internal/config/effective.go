package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Hotkey != nil {
		cfg.Hotkey = strings.TrimSpace(*raw.Hotkey)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	if raw.ExcludeClasses != nil {
		cfg.ExcludeClasses = append([]string(nil), (*raw.ExcludeClasses)...)
	}
	if raw.ShowHints != nil {
		cfg.ShowHints = *raw.ShowHints
	}
	if raw.ShowTitles != nil {
		cfg.ShowTitles = *raw.ShowTitles
	}

	if l := raw.Layout; l != nil {
		cfg.Layout.Margin = derefOr(l.Margin, cfg.Layout.Margin)
		cfg.Layout.Padding = derefOr(l.Padding, cfg.Layout.Padding)
		cfg.Layout.MaxScale = derefOr(l.MaxScale, cfg.Layout.MaxScale)
	}

	if a := raw.Animation; a != nil {
		cfg.Animation.Speed = derefOr(a.Speed, cfg.Animation.Speed)
		cfg.Animation.EntranceMS = derefOr(a.EntranceMS, cfg.Animation.EntranceMS)
		cfg.Animation.ExitMS = derefOr(a.ExitMS, cfg.Animation.ExitMS)
		cfg.Animation.SnapMS = derefOr(a.SnapMS, cfg.Animation.SnapMS)
		cfg.Animation.RevertMS = derefOr(a.RevertMS, cfg.Animation.RevertMS)
		cfg.Animation.TransitionMS = derefOr(a.TransitionMS, cfg.Animation.TransitionMS)
		cfg.Animation.DragThreshold = derefOr(a.DragThreshold, cfg.Animation.DragThreshold)
	}

	if b := raw.DesktopBar; b != nil {
		cfg.DesktopBar.Enabled = derefOr(b.Enabled, cfg.DesktopBar.Enabled)
		cfg.DesktopBar.Height = derefOr(b.Height, cfg.DesktopBar.Height)
		cfg.DesktopBar.PreviewHeight = derefOr(b.PreviewHeight, cfg.DesktopBar.PreviewHeight)
		cfg.DesktopBar.PreviewSpacing = derefOr(b.PreviewSpacing, cfg.DesktopBar.PreviewSpacing)
		if b.StateFile != nil {
			path, err := expandHome(*b.StateFile)
			if err != nil {
				return nil, &ValidationError{Path: "desktop_bar.state_file", Err: err}
			}
			cfg.DesktopBar.StateFile = path
		}
	}

	if c := raw.Commands; c != nil {
		cfg.Commands.MoveToDesktop = cloneArgv(c.MoveToDesktop, cfg.Commands.MoveToDesktop)
		cfg.Commands.SwitchDesktop = cloneArgv(c.SwitchDesktop, cfg.Commands.SwitchDesktop)
		cfg.Commands.AddDesktop = cloneArgv(c.AddDesktop, cfg.Commands.AddDesktop)
	}

	return cfg, nil
}

func derefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func cloneArgv(p *[]string, def []string) []string {
	if p == nil {
		return def
	}
	return append([]string(nil), (*p)...)
}
