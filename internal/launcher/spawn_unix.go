//go:build !windows

package launcher

import "syscall"

// sysProcAttr places the child in its own process group so the registry's
// kill-tree call reaches grandchildren (the server forks kernels).
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
