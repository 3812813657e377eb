package kernel

import "os"

// Core is the capability surface of the embedded kernel the driver wraps.
// Implementations adapt a concrete kernel framework; the driver never
// reaches into kernel internals, it only composes these operations.
//
// All methods are called from poll steps on the host's scheduler thread,
// except Initialize/StartPoller/StartChannels/RegisterExtensions which run
// once during Driver.Start. Every method must return promptly: PumpEvents
// primes exactly one pending wake-up in the kernel's event loop, drains it,
// and returns without waiting for new work.
type Core interface {
	// Initialized reports whether the kernel application object exists and
	// has been initialized. When true, Initialize is not called again and
	// the existing instance is reused.
	Initialized() bool

	// Initialize creates the kernel application with an empty top-level
	// namespace and the given connection directory, and writes the
	// connection file.
	Initialize(connectionDir string) error

	// StartPoller starts the kernel's parent-process poller, if any.
	StartPoller() error

	// StartChannels starts the kernel's shell/control channels once. The
	// blocking event loop is NOT entered; the driver drives it via
	// PumpEvents instead.
	StartChannels() error

	// RegisterExtensions registers magic/extension commands with the
	// kernel's shell.
	RegisterExtensions() error

	// PumpEvents advances the kernel's event loop by one bounded slice:
	// prime one wake-up, run until it drains, return.
	PumpEvents() error

	// ExitRequested reports whether the kernel has been asked to shut
	// down (e.g. by a shutdown_request from a client).
	ExitRequested() bool

	// DrainShutdown runs the event loop long enough for shutdown messages
	// to flush after ExitRequested becomes true.
	DrainShutdown() error

	// ConnectionFile returns the path of the published connection file.
	ConnectionFile() string

	// Streams returns the kernel's own stdout/stderr targets, swapped in
	// process-wide for the duration of each poll step. Either may be nil
	// to leave the host stream in place.
	Streams() (stdout, stderr *os.File)
}
