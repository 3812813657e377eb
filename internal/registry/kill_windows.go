//go:build windows

package registry

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// killTree terminates the process tree with taskkill, matching how the
// host platform expects notebook servers (which fork kernels of their own)
// to be torn down.
func killTree(p *os.Process) error {
	cmd := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(p.Pid))
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill pid %d: %w: %s", p.Pid, err, out)
	}
	return nil
}
