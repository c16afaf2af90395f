//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills a process tree with taskkill (/F force, /T tree).
// Non-positive pids are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort; the launcher's own Kill runs afterwards.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
