package kernel

import "os"

// swapStdio replaces the process-wide stdout/stderr with the given targets
// and returns a restore func. A nil target leaves that stream untouched.
// The caller must run restore on every exit path (defer), otherwise the
// kernel's streams leak into the host's console.
func swapStdio(stdout, stderr *os.File) (restore func()) {
	origOut, origErr := os.Stdout, os.Stderr

	if stdout != nil {
		os.Stdout = stdout
	}
	if stderr != nil {
		os.Stderr = stderr
	}

	return func() {
		os.Stdout = origOut
		os.Stderr = origErr
	}
}
