package config

import (
	"os/exec"
	"sort"
)

// DetectedTool is a desktop control program found on PATH.
type DetectedTool struct {
	Name     string
	Path     string
	Proposed Commands
}

// DetectDesktopTools scans PATH for programs that can move windows between
// desktops and returns the command templates they would need.
func DetectDesktopTools() []DetectedTool {
	return detectDesktopTools(exec.LookPath)
}

func detectDesktopTools(lookPath func(string) (string, error)) []DetectedTool {
	known := knownDesktopTools()
	detected := make([]DetectedTool, 0, len(known))

	for name, cmds := range known {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		detected = append(detected, DetectedTool{
			Name:     name,
			Path:     path,
			Proposed: cloneCommands(cmds),
		})
	}

	sort.Slice(detected, func(i, j int) bool {
		return detected[i].Name < detected[j].Name
	})
	return detected
}

func knownDesktopTools() map[string]Commands {
	return map[string]Commands{
		"wmctrl": {
			MoveToDesktop: []string{"wmctrl", "-i", "-r", "{window}", "-t", "{desktop}"},
			SwitchDesktop: []string{"wmctrl", "-s", "{desktop}"},
			AddDesktop:    []string{"wmctrl", "-n", "{count}"},
		},
		"xdotool": {
			MoveToDesktop: []string{"xdotool", "set_desktop_for_window", "{window}", "{desktop}"},
			SwitchDesktop: []string{"xdotool", "set_desktop", "{desktop}"},
			AddDesktop:    []string{"xdotool", "set_num_desktops", "{count}"},
		},
	}
}

func cloneCommands(c Commands) Commands {
	return Commands{
		MoveToDesktop: append([]string(nil), c.MoveToDesktop...),
		SwitchDesktop: append([]string(nil), c.SwitchDesktop...),
		AddDesktop:    append([]string(nil), c.AddDesktop...),
	}
}
