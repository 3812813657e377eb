package connection

import (
	"path/filepath"
	"testing"

	"github.com/gridworks/sheetkernel/internal/hostcfg"
	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainHost(t *testing.T) Option {
	t.Helper()
	return WithHostExecutable(func() (string, error) {
		return "/usr/lib/host/spreadsheet", nil
	})
}

func sandboxedHost(t *testing.T) Option {
	t.Helper()
	return WithHostExecutable(func() (string, error) {
		return `C:\Program Files\WindowsApps\Host.Spreadsheet_1.0\host.exe`, nil
	})
}

func TestResolveUsesKernelDefault(t *testing.T) {
	defaultDir := filepath.Join(t.TempDir(), "runtime")
	r := NewResolver(hostcfg.Empty, defaultDir, logging.NewNop(),
		plainHost(t), WithPackageDir(t.TempDir()))

	dir, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, defaultDir, dir)
	assert.True(t, filepath.IsAbs(dir))
	assert.DirExists(t, dir)
}

func TestResolveConfigOverrideAbsolute(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom")
	cfg := hostcfg.Static{"jupyter.runtime_dir": override}
	r := NewResolver(cfg, "/ignored/default", logging.NewNop(),
		plainHost(t), WithPackageDir(t.TempDir()))

	dir, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, override, dir)
}

func TestResolveConfigOverrideRelativeToPackage(t *testing.T) {
	pkgDir := t.TempDir()
	cfg := hostcfg.Static{"jupyter.runtime_dir": "runtime"}
	r := NewResolver(cfg, "/ignored/default", logging.NewNop(),
		plainHost(t), WithPackageDir(pkgDir))

	dir, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(pkgDir, "runtime"), dir)
	assert.True(t, filepath.IsAbs(dir))
}

func TestResolveNeverReturnsRelativePath(t *testing.T) {
	configs := []hostcfg.Reader{
		hostcfg.Empty,
		hostcfg.Static{"jupyter.runtime_dir": "relative/dir"},
		hostcfg.Static{"jupyter.runtime_dir": filepath.Join(t.TempDir(), "abs")},
	}

	for _, cfg := range configs {
		r := NewResolver(cfg, filepath.Join(t.TempDir(), "default"), logging.NewNop(),
			plainHost(t), WithPackageDir(t.TempDir()))

		dir, err := r.Resolve()
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(dir), "resolved %q must be absolute", dir)
	}
}

func TestResolveSandboxSubstitution(t *testing.T) {
	pkgDir := t.TempDir()
	isolated := filepath.Join(t.TempDir(), "AppData", "jupyter", "runtime")
	r := NewResolver(hostcfg.Empty, isolated, logging.NewNop(),
		sandboxedHost(t), WithPackageDir(pkgDir))

	dir, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(pkgDir, ".jupyter", "runtime"), dir)
}

func TestResolveSandboxedHostOutsideIsolatedRoot(t *testing.T) {
	defaultDir := filepath.Join(t.TempDir(), "runtime")
	r := NewResolver(hostcfg.Empty, defaultDir, logging.NewNop(),
		sandboxedHost(t), WithPackageDir(t.TempDir()))

	dir, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, defaultDir, dir, "no substitution when the dir is not under the isolated root")
}

func TestResolveNoDirectoryConfigured(t *testing.T) {
	r := NewResolver(hostcfg.Empty, "", logging.NewNop(),
		plainHost(t), WithPackageDir(t.TempDir()))

	_, err := r.Resolve()
	assert.Error(t, err)
}

func TestResolveFileNaming(t *testing.T) {
	defaultDir := filepath.Join(t.TempDir(), "runtime")
	r := NewResolver(hostcfg.Empty, defaultDir, logging.NewNop(),
		plainHost(t), WithPackageDir(t.TempDir()))

	first, err := r.ResolveFile()
	require.NoError(t, err)
	second, err := r.ResolveFile()
	require.NoError(t, err)

	assert.Equal(t, defaultDir, filepath.Dir(first))
	assert.Regexp(t, `^kernel-[0-9a-f-]{36}\.json$`, filepath.Base(first))
	assert.NotEqual(t, first, second, "each call names a fresh file")
}

func TestHasPathElement(t *testing.T) {
	assert.True(t, hasPathElement(`C:\Program Files\WindowsApps\host.exe`, "WindowsApps"))
	assert.True(t, hasPathElement("/home/user/AppData/runtime", "AppData"))
	assert.False(t, hasPathElement("/home/user/WindowsAppsFake/x", "WindowsApps"))
	assert.False(t, hasPathElement("", "AppData"))
}
