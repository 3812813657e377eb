package kernel

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gridworks/sheetkernel/internal/connection"
	"github.com/gridworks/sheetkernel/internal/host"
	"github.com/gridworks/sheetkernel/internal/infrastructure/monitoring"
	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/gridworks/sheetkernel/internal/shared/id"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the driver reenters the kernel's event
// loop when no interval is configured.
const DefaultPollInterval = 100 * time.Millisecond

// Driver runs a kernel's single-threaded event loop inside a host that has
// its own cooperative scheduler. Instead of entering the kernel's blocking
// start, the driver advances the loop in short non-blocking slices, each
// scheduled through the host's periodic-callback primitive.
type Driver struct {
	mu       sync.Mutex
	session  *Session
	core     Core
	sched    host.Scheduler
	resolver *connection.Resolver
	log      *logging.Logger
	metrics  *monitoring.Metrics
	interval time.Duration
}

// NewDriver creates a driver around the injected kernel core. resolver may
// be nil when the core manages its own connection directory.
func NewDriver(core Core, sched host.Scheduler, resolver *connection.Resolver, log *logging.Logger) *Driver {
	if log == nil {
		log = logging.NewNop()
	}
	return &Driver{
		core:     core,
		sched:    sched,
		resolver: resolver,
		log:      log,
		interval: DefaultPollInterval,
	}
}

// WithPollInterval overrides the poll interval.
func (d *Driver) WithPollInterval(interval time.Duration) *Driver {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// WithMetrics adds metrics tracking to the driver.
func (d *Driver) WithMetrics(metrics *monitoring.Metrics) *Driver {
	d.metrics = metrics
	return d
}

// Start starts the embedded kernel and installs the poll loop on the host
// scheduler. Idempotent: if the kernel session is already running, the
// existing session is returned and no initialization work is repeated.
func (d *Driver) Start() (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil && d.session.Running() {
		return d.session, nil
	}

	// Capture the host's streams before the kernel gets a chance to
	// install its own.
	hostStdout, hostStderr := os.Stdout, os.Stderr

	if !d.core.Initialized() {
		connectionDir := ""
		if d.resolver != nil {
			dir, err := d.resolver.Resolve()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve connection directory: %w", err)
			}
			connectionDir = dir
		}
		if err := d.core.Initialize(connectionDir); err != nil {
			return nil, fmt.Errorf("failed to initialize kernel: %w", err)
		}
	}

	if err := d.core.StartPoller(); err != nil {
		return nil, fmt.Errorf("failed to start kernel poller: %w", err)
	}
	if err := d.core.StartChannels(); err != nil {
		return nil, fmt.Errorf("failed to start kernel channels: %w", err)
	}
	if err := d.core.RegisterExtensions(); err != nil {
		return nil, fmt.Errorf("failed to register kernel extensions: %w", err)
	}

	kernelStdout, kernelStderr := d.core.Streams()

	session := &Session{
		ID:           id.NewSessionID(),
		core:         d.core,
		hostStdout:   hostStdout,
		hostStderr:   hostStderr,
		kernelStdout: kernelStdout,
		kernelStderr: kernelStderr,
	}
	session.running.Store(true)
	d.session = session

	if d.metrics != nil {
		d.metrics.KernelStart.Inc()
		d.metrics.KernelUp.Set(1)
	}
	d.log.Info("kernel started",
		zap.String("session", string(session.ID)),
		zap.String("connection_file", d.core.ConnectionFile()))

	d.sched.Schedule(d.pollStep, d.interval)

	return session, nil
}

// Session returns the current session, or nil before the first Start.
func (d *Driver) Session() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// pollStep is one reentry from the host scheduler. It must complete
// quickly and must not block; blocking here freezes the host UI.
func (d *Driver) pollStep() {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if session == nil {
		return
	}

	if exiting := d.step(session); exiting {
		if d.metrics != nil {
			d.metrics.KernelUp.Set(0)
		}
		return
	}

	// Keep the loop alive no matter what happened above: a poll loop that
	// stops rescheduling leaves the kernel permanently unresponsive.
	d.sched.Schedule(d.pollStep, d.interval)
}

// step advances the kernel once and reports whether the kernel is exiting.
// Errors and panics are logged and swallowed.
func (d *Driver) step(session *Session) (exiting bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while polling kernel loop", zap.Any("panic", r))
			if d.metrics != nil {
				d.metrics.PollErrors.Inc()
			}
		}
	}()

	// The kernel's own streams are process-wide only for the duration of
	// this call, so notebook print output never lands in the host console.
	restore := swapStdio(session.kernelStdout, session.kernelStderr)
	defer restore()

	if d.metrics != nil {
		d.metrics.PollTicks.Inc()
	}

	if d.core.ExitRequested() {
		d.log.Debug("kernel stopping", zap.String("connection_file", d.core.ConnectionFile()))
		// Let shutdown messages flush before the loop goes quiet.
		if err := d.core.DrainShutdown(); err != nil {
			d.log.Error("error draining kernel shutdown", zap.Error(err))
		}
		session.running.Store(false)
		return true
	}

	if err := d.core.PumpEvents(); err != nil {
		d.log.Error("error polling kernel loop", zap.Error(err))
		if d.metrics != nil {
			d.metrics.PollErrors.Inc()
		}
	}
	return false
}
