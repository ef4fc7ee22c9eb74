package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLayout struct {
	Margin   *int     `yaml:"margin"`
	Padding  *int     `yaml:"padding"`
	MaxScale *float64 `yaml:"max_scale"`
}

type RawAnimation struct {
	Speed         *float64 `yaml:"speed"`
	EntranceMS    *int     `yaml:"entrance_ms"`
	ExitMS        *int     `yaml:"exit_ms"`
	SnapMS        *int     `yaml:"snap_ms"`
	RevertMS      *int     `yaml:"revert_ms"`
	TransitionMS  *int     `yaml:"transition_ms"`
	DragThreshold *int     `yaml:"drag_threshold"`
}

type RawDesktopBar struct {
	Enabled        *bool   `yaml:"enabled"`
	Height         *int    `yaml:"height"`
	PreviewHeight  *int    `yaml:"preview_height"`
	PreviewSpacing *int    `yaml:"preview_spacing"`
	StateFile      *string `yaml:"state_file"`
}

// RawCommands keeps nil distinct from an explicit empty list so a later
// file can clear a command set by an include.
type RawCommands struct {
	MoveToDesktop *[]string `yaml:"move_to_desktop"`
	SwitchDesktop *[]string `yaml:"switch_desktop"`
	AddDesktop    *[]string `yaml:"add_desktop"`
}

type RawConfig struct {
	Include        IncludeList    `yaml:"include"`
	Hotkey         *string        `yaml:"hotkey"`
	LogLevel       *string        `yaml:"log_level"`
	LogFile        *string        `yaml:"log_file"`
	ExcludeClasses *[]string      `yaml:"exclude_classes"`
	Layout         *RawLayout     `yaml:"layout"`
	Animation      *RawAnimation  `yaml:"animation"`
	DesktopBar     *RawDesktopBar `yaml:"desktop_bar"`
	Commands       *RawCommands   `yaml:"commands"`
	ShowHints      *bool          `yaml:"show_hints"`
	ShowTitles     *bool          `yaml:"show_titles"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Hotkey != nil {
		out.Hotkey = overlay.Hotkey
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != nil {
		out.LogFile = overlay.LogFile
	}
	if overlay.ExcludeClasses != nil {
		out.ExcludeClasses = overlay.ExcludeClasses
	}
	if overlay.ShowHints != nil {
		out.ShowHints = overlay.ShowHints
	}
	if overlay.ShowTitles != nil {
		out.ShowTitles = overlay.ShowTitles
	}

	if overlay.Layout != nil {
		merged := RawLayout{}
		if out.Layout != nil {
			merged = *out.Layout
		}
		mergePtr(&merged.Margin, overlay.Layout.Margin)
		mergePtr(&merged.Padding, overlay.Layout.Padding)
		mergePtr(&merged.MaxScale, overlay.Layout.MaxScale)
		out.Layout = &merged
	}

	if overlay.Animation != nil {
		merged := RawAnimation{}
		if out.Animation != nil {
			merged = *out.Animation
		}
		mergePtr(&merged.Speed, overlay.Animation.Speed)
		mergePtr(&merged.EntranceMS, overlay.Animation.EntranceMS)
		mergePtr(&merged.ExitMS, overlay.Animation.ExitMS)
		mergePtr(&merged.SnapMS, overlay.Animation.SnapMS)
		mergePtr(&merged.RevertMS, overlay.Animation.RevertMS)
		mergePtr(&merged.TransitionMS, overlay.Animation.TransitionMS)
		mergePtr(&merged.DragThreshold, overlay.Animation.DragThreshold)
		out.Animation = &merged
	}

	if overlay.DesktopBar != nil {
		merged := RawDesktopBar{}
		if out.DesktopBar != nil {
			merged = *out.DesktopBar
		}
		mergePtr(&merged.Enabled, overlay.DesktopBar.Enabled)
		mergePtr(&merged.Height, overlay.DesktopBar.Height)
		mergePtr(&merged.PreviewHeight, overlay.DesktopBar.PreviewHeight)
		mergePtr(&merged.PreviewSpacing, overlay.DesktopBar.PreviewSpacing)
		mergePtr(&merged.StateFile, overlay.DesktopBar.StateFile)
		out.DesktopBar = &merged
	}

	if overlay.Commands != nil {
		merged := RawCommands{}
		if out.Commands != nil {
			merged = *out.Commands
		}
		mergePtr(&merged.MoveToDesktop, overlay.Commands.MoveToDesktop)
		mergePtr(&merged.SwitchDesktop, overlay.Commands.SwitchDesktop)
		mergePtr(&merged.AddDesktop, overlay.Commands.AddDesktop)
		out.Commands = &merged
	}

	return out
}

func mergePtr[T any](dst **T, overlay *T) {
	if overlay != nil {
		*dst = overlay
	}
}
