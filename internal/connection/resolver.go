package connection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gridworks/sheetkernel/internal/hostcfg"
	"github.com/gridworks/sheetkernel/internal/logging"
	"go.uber.org/zap"
)

const (
	configSection = "jupyter"
	configKey     = "runtime_dir"

	// sandboxMarker appears as a path element of the host executable when
	// the host is installed under the Windows Store app-packaging model.
	sandboxMarker = "WindowsApps"

	// isolatedRoot is the per-app-isolated data root a packaged host sees.
	// A spawned child does not share that view, so a runtime dir under it
	// is unreachable from the notebook server.
	isolatedRoot = "AppData"
)

// Resolver computes the directory where the kernel publishes its
// connection metadata file.
type Resolver struct {
	cfg        hostcfg.Reader
	log        *logging.Logger
	packageDir string
	defaultDir string
	hostExe    func() (string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHostExecutable overrides host executable discovery, for tests.
func WithHostExecutable(fn func() (string, error)) Option {
	return func(r *Resolver) { r.hostExe = fn }
}

// WithPackageDir overrides the embedding package directory. The default is
// the directory of the running executable.
func WithPackageDir(dir string) Option {
	return func(r *Resolver) { r.packageDir = dir }
}

// NewResolver creates a resolver. defaultDir is the kernel framework's own
// default connection directory, used when the host config has no override.
func NewResolver(cfg hostcfg.Reader, defaultDir string, log *logging.Logger, opts ...Option) *Resolver {
	if cfg == nil {
		cfg = hostcfg.Empty
	}
	if log == nil {
		log = logging.NewNop()
	}

	r := &Resolver{
		cfg:        cfg,
		log:        log,
		defaultDir: defaultDir,
		hostExe:    os.Executable,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.packageDir == "" {
		if exe, err := os.Executable(); err == nil {
			r.packageDir = filepath.Dir(exe)
		} else {
			r.packageDir = "."
		}
	}

	return r
}

// Resolve returns the absolute connection directory, creating it if
// needed. It never returns a relative path.
func (r *Resolver) Resolve() (string, error) {
	dir := ""

	// Host config override wins. Relative values are anchored at the
	// embedding package, not the process working directory.
	if v, ok := r.cfg.Lookup(configSection, configKey); ok && v != "" {
		dir = v
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(r.packageDir, dir)
		}
	}

	if dir == "" {
		dir = r.defaultDir
	}

	if dir == "" {
		return "", fmt.Errorf("no connection directory configured and no kernel default available")
	}

	dir = r.adjustForSandbox(dir)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve connection directory %q: %w", dir, err)
	}

	if err := ensureWritable(abs); err != nil {
		return "", err
	}

	return abs, nil
}

// ResolveFile resolves the connection directory and joins a fresh
// kernel-<uuid>.json file name onto it, the naming the notebook stack
// itself uses for connection files.
func (r *Resolver) ResolveFile() (string, error) {
	dir, err := r.Resolve()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kernel-"+uuid.NewString()+".json"), nil
}

// adjustForSandbox substitutes a package-local directory when the host runs
// under the restricted app-packaging sandbox and the resolved directory
// lives under the per-app-isolated data root.
func (r *Resolver) adjustForSandbox(dir string) string {
	exe, err := r.hostExe()
	if err != nil {
		return dir
	}

	if !hasPathElement(exe, sandboxMarker) {
		return dir
	}
	r.log.Debug("host looks like a packaged (sandboxed) app", zap.String("executable", exe))

	if !hasPathElement(dir, isolatedRoot) {
		return dir
	}

	substitute := filepath.Join(r.packageDir, ".jupyter", "runtime")
	r.log.Warn("connection directory is under the host's isolated data root; a spawned child cannot see it",
		zap.String("resolved", dir),
		zap.String("substitute", substitute))
	r.log.Warn("set 'runtime_dir' in the [jupyter] section of the host config to change this directory")
	return substitute
}

// ensureWritable creates dir and verifies a file can be created in it.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create connection directory %q: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("connection directory %q is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

// hasPathElement reports whether any element of path equals elem, treating
// both separator conventions the same so Windows-style paths from host
// config behave on every platform.
func hasPathElement(path, elem string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if part == elem {
			return true
		}
	}
	return false
}
