package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSwapStdioRestores(t *testing.T) {
	origOut, origErr := os.Stdout, os.Stderr
	newOut := tempFile(t, "out")
	newErr := tempFile(t, "err")

	restore := swapStdio(newOut, newErr)
	assert.Same(t, newOut, os.Stdout)
	assert.Same(t, newErr, os.Stderr)

	restore()
	assert.Same(t, origOut, os.Stdout)
	assert.Same(t, origErr, os.Stderr)
}

func TestSwapStdioNilLeavesStreamAlone(t *testing.T) {
	origOut, origErr := os.Stdout, os.Stderr
	newErr := tempFile(t, "err")

	restore := swapStdio(nil, newErr)
	assert.Same(t, origOut, os.Stdout)
	assert.Same(t, newErr, os.Stderr)

	restore()
	assert.Same(t, origOut, os.Stdout)
	assert.Same(t, origErr, os.Stderr)
}

func TestSwapStdioRestoresOnPanic(t *testing.T) {
	origOut := os.Stdout
	newOut := tempFile(t, "out")

	func() {
		defer func() { recover() }()
		restore := swapStdio(newOut, nil)
		defer restore()
		panic("boom")
	}()

	assert.Same(t, origOut, os.Stdout)
}
