//go:build windows

package launcher

import "syscall"

const createNewProcessGroup = 0x00000200

// sysProcAttr hides the console window the server would otherwise pop up
// over the host UI, and detaches the child into its own process group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNewProcessGroup,
	}
}
