//go:build !windows

package registry

import (
	"os"
	"syscall"
)

// killTree kills the process and everything in its process group. Children
// are spawned with Setpgid so the group id equals the child's pid.
func killTree(p *os.Process) error {
	if pgid, err := syscall.Getpgid(p.Pid); err == nil {
		if err := syscall.Kill(-pgid, syscall.SIGKILL); err == nil || err == syscall.ESRCH {
			return nil
		}
	}
	// Fall back to killing just the process.
	return p.Kill()
}
