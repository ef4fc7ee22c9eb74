// Package xdeskie reads the state published by the xdeskie virtual desktop
// manager. The overview only displays this state; it never writes it.
package xdeskie

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// DefaultStatePath is where xdeskie publishes its window assignments.
const DefaultStatePath = "/tmp/xdeskie/state.json"

// StickyDesktop marks windows shown on every desktop.
const StickyDesktop = 0

// ErrUnavailable is returned when the state file is missing or unreadable.
var ErrUnavailable = errors.New("xdeskie state unavailable")

// Snapshot is an immutable view of one state file read. Desktop numbers are
// 1-based; 0 means sticky.
type Snapshot struct {
	Current  int
	Desktops int

	assign   map[uint32]int
	stacking map[int][]uint32
}

type stateFile struct {
	Current  int                 `json:"current"`
	Desktops int                 `json:"desktops"`
	Windows  map[string]int      `json:"windows"`
	Stacking map[string][]string `json:"stacking"`
}

// Load reads and parses the state file at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Parse(data)
}

// Parse decodes state file content. Entries whose window id is not a
// number are skipped rather than failing the whole snapshot.
func Parse(data []byte) (*Snapshot, error) {
	var raw stateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrUnavailable, err)
	}
	if raw.Desktops < 0 {
		return nil, fmt.Errorf("%w: negative desktop count %d", ErrUnavailable, raw.Desktops)
	}

	snap := &Snapshot{
		Current:  raw.Current,
		Desktops: raw.Desktops,
		assign:   make(map[uint32]int, len(raw.Windows)),
		stacking: make(map[int][]uint32, len(raw.Stacking)),
	}
	for key, desk := range raw.Windows {
		id, ok := parseWindowID(key)
		if !ok || desk < 0 {
			continue
		}
		snap.assign[id] = desk
	}
	for key, ids := range raw.Stacking {
		desk, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		order := make([]uint32, 0, len(ids))
		for _, s := range ids {
			if id, ok := parseWindowID(s); ok {
				order = append(order, id)
			}
		}
		snap.stacking[desk] = order
	}
	return snap, nil
}

func parseWindowID(s string) (uint32, bool) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint32(id), true
}

// DesktopOf returns the desktop a window is assigned to.
func (s *Snapshot) DesktopOf(window uint32) (int, bool) {
	if s == nil {
		return 0, false
	}
	desk, ok := s.assign[window]
	return desk, ok
}

// IsSticky reports whether the window is shown on every desktop.
func (s *Snapshot) IsSticky(window uint32) bool {
	desk, ok := s.DesktopOf(window)
	return ok && desk == StickyDesktop
}

// WindowsOn returns the windows visible on desktop (1-based), sticky
// windows included, bottom to top. Windows absent from the desktop's
// stacking list follow in ascending id order.
func (s *Snapshot) WindowsOn(desktop int) []uint32 {
	if s == nil {
		return nil
	}

	visible := func(id uint32) bool {
		desk, ok := s.assign[id]
		return ok && (desk == StickyDesktop || desk == desktop)
	}

	var out []uint32
	seen := make(map[uint32]struct{})
	for _, id := range s.stacking[desktop] {
		if _, dup := seen[id]; dup || !visible(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	var rest []uint32
	for id := range s.assign {
		if _, ok := seen[id]; ok || !visible(id) {
			continue
		}
		rest = append(rest, id)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Len returns the number of assigned windows.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.assign)
}
