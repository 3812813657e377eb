package kernel

import (
	"os"
	"sync/atomic"

	"github.com/gridworks/sheetkernel/internal/shared/id"
)

// Session is the singleton-per-driver handle to the running kernel. It is
// created on the first successful Start and reused by later calls; it is
// never destroyed within the process lifetime — host exit is its teardown.
type Session struct {
	ID   id.SessionID
	core Core

	// Host streams captured at start, restored after every poll step.
	hostStdout *os.File
	hostStderr *os.File

	// Kernel streams swapped in while the kernel executes.
	kernelStdout *os.File
	kernelStderr *os.File

	running atomic.Bool
}

// Running reports whether the kernel is still alive. It flips to false
// only when the kernel legitimately exits.
func (s *Session) Running() bool {
	return s.running.Load()
}

// ConnectionFile returns the path clients use to reach this kernel.
func (s *Session) ConnectionFile() string {
	return s.core.ConnectionFile()
}
