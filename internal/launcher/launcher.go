package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gridworks/sheetkernel/internal/infrastructure/config"
	"github.com/gridworks/sheetkernel/internal/infrastructure/monitoring"
	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/gridworks/sheetkernel/internal/registry"
	"go.uber.org/zap"
)

const (
	// ConnectionFileEnv tells the custom kernel-manager component inside
	// the child which external kernel to bind to.
	ConnectionFileEnv = "SHEETKERNEL_CONNECTION_FILE"

	// kernelManagerFlag selects that custom kernel-manager class.
	kernelManagerFlag = "--NotebookApp.kernel_manager_class=sheetkernel.extipy.ExternalKernelManager"

	// DefaultTimeout bounds the wait for the server URL.
	DefaultTimeout = 30 * time.Second

	// watcherJoinTimeout bounds how long a failed launch waits for its
	// watcher goroutine before giving up on it.
	watcherJoinTimeout = time.Second
)

// Launcher starts notebook server processes bound to a kernel connection
// file and waits for them to report a browsable URL.
type Launcher struct {
	// mu serializes launches so two calls racing for the same connection
	// file execute in order instead of fighting over it.
	mu       sync.Mutex
	registry *registry.Manager
	log      *logging.Logger
	metrics  *monitoring.Metrics
	cfg      config.LauncherConfig
}

// Options configures a single launch.
type Options struct {
	// ConnectionFile is the kernel connection file the server binds to.
	ConnectionFile string

	// WorkDir is the working directory the server starts in.
	WorkDir string

	// Timeout bounds the wait for the URL; zero means the configured
	// default.
	Timeout time.Duration

	// UsePTY spawns the child under a pseudo-terminal so its output
	// arrives line-buffered.
	UsePTY bool

	// Command overrides command resolution entirely. Mostly for tests.
	Command []string
}

// New creates a launcher registering children in reg.
func New(reg *registry.Manager, cfg config.LauncherConfig, log *logging.Logger) *Launcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Launcher{
		registry: reg,
		log:      log,
		cfg:      cfg,
	}
}

// WithMetrics adds metrics tracking to the launcher.
func (l *Launcher) WithMetrics(metrics *monitoring.Metrics) *Launcher {
	l.metrics = metrics
	return l
}

// Launch spawns a notebook server and blocks until it prints its URL, the
// timeout elapses, or ctx is canceled. On success the child stays
// registered and running; on failure it is killed and deregistered.
func (l *Launcher) Launch(ctx context.Context, opts Options) (*registry.Child, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.LaunchesTotal.Inc()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = l.cfg.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmd, err := l.buildCommand(opts)
	if err != nil {
		l.countError("resolution")
		return nil, "", err
	}
	l.log.Debug("using notebook server command", zap.Strings("argv", cmd.Argv()))

	started := time.Now()
	child, err := l.spawn(cmd, opts)
	if err != nil {
		l.countError("start")
		return nil, "", err
	}

	// Registered before waiting for readiness: even if this call fails
	// from here on, process-wide teardown knows about the child.
	l.registry.Register(child)

	// The watcher owns the output stream until EOF and releases it; the
	// reaper never touches it, so a fast-exiting child cannot lose
	// buffered lines.
	results := make(chan string, 1)
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		defer child.CloseOutput()
		watchOutput(child.Output(), results, child.WasKilled, l.log.Named("watcher"))
	}()

	url := ""
	failure := error(nil)
	reason := ""
	select {
	case url = <-results:
		if url == noURLSentinel {
			failure = ErrNoURL
			reason = "no_url"
		}
	case <-time.After(timeout):
		l.log.Error("timed out waiting for the notebook server URL",
			zap.Duration("timeout", timeout))
		failure = ErrURLTimeout
		reason = "timeout"
	case <-ctx.Done():
		failure = fmt.Errorf("launch canceled: %w", ctx.Err())
		reason = "canceled"
	}

	if failure != nil {
		l.cleanup(child, watcherDone)
		l.countError(reason)
		return nil, "", failure
	}

	if l.metrics != nil {
		l.metrics.LaunchDuration.Observe(time.Since(started).Seconds())
	}
	l.log.Info("notebook server running",
		zap.String("id", string(child.ID)),
		zap.Int("pid", child.PID()),
		zap.String("url", url))

	if l.cfg.ProbeURL {
		l.probe(url)
	}

	return child, url, nil
}

// buildCommand resolves the server command and appends the invocation
// flags: the custom kernel-manager class, no browser auto-open, and
// auto-confirmation of prompts.
func (l *Launcher) buildCommand(opts Options) (*Command, error) {
	var cmd *Command
	if len(opts.Command) > 0 {
		cmd = &Command{Path: opts.Command[0], Args: opts.Command[1:]}
	} else {
		resolved, err := newResolver(l.cfg.Python).Resolve()
		if err != nil {
			return nil, err
		}
		cmd = resolved
	}

	cmd.Args = append(cmd.Args, kernelManagerFlag, "--no-browser", "-y")
	return cmd, nil
}

// spawn starts the child with merged stdout/stderr and verifies it did not
// die on startup.
func (l *Launcher) spawn(cmd *Command, opts Options) (*registry.Child, error) {
	proc := exec.Command(cmd.Path, cmd.Args...)
	proc.Dir = opts.WorkDir
	proc.Env = childEnv(cmd.PythonPath, opts.ConnectionFile)

	var output io.ReadCloser

	if opts.UsePTY || l.cfg.UsePTY {
		f, err := pty.Start(proc)
		if err != nil {
			return nil, fmt.Errorf("%w: command %s: %v", ErrProcessStart, describeCommand(cmd), err)
		}
		output = f
	} else {
		proc.SysProcAttr = sysProcAttr()
		stdout, err := proc.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProcessStart, err)
		}
		proc.Stderr = proc.Stdout
		output = stdout

		if err := proc.Start(); err != nil {
			return nil, fmt.Errorf("%w: command %s: %v", ErrProcessStart, describeCommand(cmd), err)
		}
	}

	child := registry.NewChild(proc, output)

	if child.Exited() {
		return nil, fmt.Errorf("%w: command %s exited immediately", ErrProcessStart, describeCommand(cmd))
	}

	return child, nil
}

// cleanup tears down a failed launch: intentional kill flagged first so
// the watcher stays quiet, then kill-tree, deregistration, and a bounded
// watcher join so the goroutine isn't leaked silently.
func (l *Launcher) cleanup(child *registry.Child, watcherDone <-chan struct{}) {
	if !child.Exited() {
		l.log.Debug("killing notebook server process", zap.Int("pid", child.PID()))
		child.MarkKilled()
		if err := child.Kill(); err != nil {
			l.log.Warn("failed to kill notebook server process",
				zap.Int("pid", child.PID()), zap.Error(err))
		}
	}
	l.registry.Remove(child.ID)

	select {
	case <-watcherDone:
	case <-time.After(watcherJoinTimeout):
		l.log.Warn("timed out waiting for output watcher to finish")
	}
}

func (l *Launcher) countError(reason string) {
	if l.metrics != nil {
		l.metrics.LaunchErrors.WithLabelValues(reason).Inc()
	}
}

// childEnv builds the child environment: the current environment with the
// resolved script directories prepended to PYTHONPATH and the connection
// file exported for the custom kernel manager.
func childEnv(pythonPath []string, connectionFile string) []string {
	env := os.Environ()

	if len(pythonPath) > 0 {
		existing := os.Getenv("PYTHONPATH")
		entries := append([]string{}, pythonPath...)
		if existing != "" {
			entries = append(entries, existing)
		}
		env = setEnv(env, "PYTHONPATH", strings.Join(entries, string(os.PathListSeparator)))
	}

	env = setEnv(env, ConnectionFileEnv, connectionFile)
	return env
}

// setEnv upserts key=value in an environ slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
