package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	hotkey
//	log_level
//	exclude_classes
//	layout.margin
//	animation.speed
//	desktop_bar.state_file
//	commands.move_to_desktop
//	show_titles
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	leaf := ""
	if len(parts) == 2 {
		leaf = parts[1]
	}

	var fields map[string]any
	switch parts[0] {
	case "hotkey":
		return scalar(path, leaf, cfg.Hotkey)
	case "log_level":
		return scalar(path, leaf, cfg.LogLevel)
	case "log_file":
		return scalar(path, leaf, cfg.LogFile)
	case "exclude_classes":
		return scalar(path, leaf, cfg.ExcludeClasses)
	case "show_hints":
		return scalar(path, leaf, cfg.ShowHints)
	case "show_titles":
		return scalar(path, leaf, cfg.ShowTitles)
	case "layout":
		fields = map[string]any{
			"margin":    cfg.Layout.Margin,
			"padding":   cfg.Layout.Padding,
			"max_scale": cfg.Layout.MaxScale,
		}
		if leaf == "" {
			return cfg.Layout, nil
		}
	case "animation":
		fields = map[string]any{
			"speed":          cfg.Animation.Speed,
			"entrance_ms":    cfg.Animation.EntranceMS,
			"exit_ms":        cfg.Animation.ExitMS,
			"snap_ms":        cfg.Animation.SnapMS,
			"revert_ms":      cfg.Animation.RevertMS,
			"transition_ms":  cfg.Animation.TransitionMS,
			"drag_threshold": cfg.Animation.DragThreshold,
		}
		if leaf == "" {
			return cfg.Animation, nil
		}
	case "desktop_bar":
		fields = map[string]any{
			"enabled":         cfg.DesktopBar.Enabled,
			"height":          cfg.DesktopBar.Height,
			"preview_height":  cfg.DesktopBar.PreviewHeight,
			"preview_spacing": cfg.DesktopBar.PreviewSpacing,
			"state_file":      cfg.DesktopBar.StateFile,
		}
		if leaf == "" {
			return cfg.DesktopBar, nil
		}
	case "commands":
		fields = map[string]any{
			"move_to_desktop": cfg.Commands.MoveToDesktop,
			"switch_desktop":  cfg.Commands.SwitchDesktop,
			"add_desktop":     cfg.Commands.AddDesktop,
		}
		if leaf == "" {
			return cfg.Commands, nil
		}
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	v, ok := fields[leaf]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return v, nil
}

func scalar(path, leaf string, v any) (any, error) {
	if leaf != "" {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return v, nil
}
