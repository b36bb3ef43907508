package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Spawn re-executes the current binary as a detached "daemon" subprocess in
// its own session, with all standard streams closed. Daemon output goes to
// the log file instead.
func Spawn() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	cmd := exec.Command(exe, "daemon")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting daemon process: %w", err)
	}

	// Release rather than Wait: the daemon outlives this process.
	return cmd.Process.Release()
}
