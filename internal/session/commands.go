package session

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// commandVars fills the placeholders of a desktop command template.
type commandVars struct {
	Window  uint32
	Desktop int
	Count   int
}

// expandCommand substitutes {window}, {hex}, {desktop} and {count} in every
// argument. Unknown placeholders are left as they are.
func expandCommand(argv []string, vars commandVars) []string {
	if len(argv) == 0 {
		return nil
	}
	r := strings.NewReplacer(
		"{window}", strconv.FormatUint(uint64(vars.Window), 10),
		"{hex}", fmt.Sprintf("0x%x", vars.Window),
		"{desktop}", strconv.Itoa(vars.Desktop),
		"{count}", strconv.Itoa(vars.Count),
	)
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = r.Replace(arg)
	}
	return out
}

// runner starts external commands. Tests replace it.
type runner func(argv []string) error

// startCommand starts argv without waiting for it to finish. The process
// outlives the session and is reaped in the background.
func startCommand(argv []string) error {
	if len(argv) == 0 {
		return nil
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
