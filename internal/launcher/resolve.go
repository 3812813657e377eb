package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// notebookScript is the launch script newer notebook installs place beside
// the interpreter.
const notebookScript = "jupyter-notebook-script.py"

// notebookEntryPoint is a generated one-line program invoking the server's
// packaged entry point, used when no launch script can be located.
const notebookEntryPoint = "import sys; from notebook.notebookapp import main; sys.exit(main())"

// Command is a resolved way to invoke the notebook server.
type Command struct {
	Path string
	Args []string

	// PythonPath entries are prepended to the child's PYTHONPATH.
	PythonPath []string
}

// Argv returns the full argv including the program path.
func (c *Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// resolver locates the notebook server command. lookPath is injectable for
// tests; it defaults to exec.LookPath.
type resolver struct {
	python   string
	lookPath func(string) (string, error)
}

func newResolver(python string) *resolver {
	return &resolver{python: python, lookPath: exec.LookPath}
}

// Resolve tries, in order: an interpreter-module invocation of the launch
// script, a generated one-liner calling the packaged entry point, and a
// standalone jupyter-notebook executable. It fails with ErrCommandNotFound
// when all three come up empty.
func (r *resolver) Resolve() (*Command, error) {
	python := r.findPython()

	if python != "" {
		if script := findNotebookScript(filepath.Dir(python)); script != "" {
			module := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
			return &Command{
				Path:       python,
				Args:       []string{"-m", module},
				PythonPath: []string{filepath.Dir(script)},
			}, nil
		}

		if hasNotebookPackage(filepath.Dir(python)) {
			return &Command{
				Path: python,
				Args: []string{"-c", notebookEntryPoint},
			}, nil
		}
	}

	if cmd := r.findNotebookExecutable(python); cmd != "" {
		return &Command{Path: cmd}, nil
	}

	return nil, ErrCommandNotFound
}

// findPython returns the interpreter to use: the configured one, or the
// first python on the search path.
func (r *resolver) findPython() string {
	if r.python != "" {
		if abs, err := filepath.Abs(r.python); err == nil {
			if _, statErr := os.Stat(abs); statErr == nil {
				return abs
			}
		}
		return ""
	}

	for _, name := range pythonNames() {
		if p, err := r.lookPath(name); err == nil {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
		}
	}
	return ""
}

// findNotebookExecutable looks for a standalone jupyter-notebook in the
// interpreter's directory, its scripts subfolder, then the system path.
func (r *resolver) findNotebookExecutable(python string) string {
	names := notebookExecutableNames()

	if python != "" {
		pyDir := filepath.Dir(python)
		for _, dir := range []string{pyDir, scriptsDir(pyDir)} {
			for _, name := range names {
				candidate := filepath.Join(dir, name)
				if isExecutableFile(candidate) {
					return candidate
				}
			}
		}
	}

	for _, name := range names {
		if p, err := r.lookPath(name); err == nil {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
		}
	}
	return ""
}

// findNotebookScript looks for the notebook launch script beside the
// interpreter and in its scripts subfolder.
func findNotebookScript(pyDir string) string {
	for _, dir := range []string{pyDir, scriptsDir(pyDir)} {
		candidate := filepath.Join(dir, notebookScript)
		if _, err := os.Stat(candidate); err == nil {
			abs, err := filepath.Abs(candidate)
			if err == nil {
				return abs
			}
		}
	}
	return ""
}

// hasNotebookPackage reports whether the notebook package is importable
// from the interpreter's site-packages, which is what makes the generated
// entry-point one-liner viable.
func hasNotebookPackage(pyDir string) bool {
	candidates := []string{
		filepath.Join(pyDir, "Lib", "site-packages", "notebook"),
		filepath.Join(pyDir, "..", "lib"),
	}

	if _, err := os.Stat(candidates[0]); err == nil {
		return true
	}

	// Unix layout: <prefix>/lib/pythonX.Y/site-packages/notebook, with the
	// interpreter in <prefix>/bin.
	libDir := filepath.Clean(candidates[1])
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "python") {
			continue
		}
		pkg := filepath.Join(libDir, entry.Name(), "site-packages", "notebook")
		if _, err := os.Stat(pkg); err == nil {
			return true
		}
	}
	return false
}

func scriptsDir(pyDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(pyDir, "Scripts")
	}
	return filepath.Join(pyDir, "bin")
}

func pythonNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"python.exe", "pythonw.exe"}
	}
	return []string{"python3", "python"}
}

func notebookExecutableNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"jupyter-notebook.exe", "jupyter-notebook.bat"}
	}
	return []string{"jupyter-notebook"}
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

// describeCommand renders a command for error messages and logs.
func describeCommand(cmd *Command) string {
	return fmt.Sprintf("%q", strings.Join(cmd.Argv(), " "))
}
