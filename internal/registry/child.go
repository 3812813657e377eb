package registry

import (
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/gridworks/sheetkernel/internal/shared/id"
)

// Child represents a spawned notebook-server process. The registry owns
// the set of live children; the Child itself owns the process handle and
// its merged output stream.
type Child struct {
	ID        id.ChildID
	StartedAt time.Time

	cmd    *exec.Cmd
	output io.ReadCloser

	done    chan struct{}
	waitErr error
	exited  atomic.Bool

	// killed is the shared shutdown-was-intentional flag between the
	// launcher and the output watcher. The watcher reads it to suppress a
	// spurious no-URL failure after an expected termination.
	killed atomic.Bool
}

// NewChild wraps an already-started command. output is the child's merged
// stdout/stderr stream. A background waiter reaps the process so Exited is
// accurate without polling.
//
// The waiter reaps through cmd.Process, not cmd.Wait: Wait closes the
// parent's pipe ends on exit, and a fast-exiting child would race the
// output reader out of its last buffered lines. The reader owns the stream
// to EOF and releases it with CloseOutput.
func NewChild(cmd *exec.Cmd, output io.ReadCloser) *Child {
	c := &Child{
		ID:        id.NewChildID(),
		StartedAt: time.Now(),
		cmd:       cmd,
		output:    output,
		done:      make(chan struct{}),
	}

	go func() {
		state, err := cmd.Process.Wait()
		if err == nil && !state.Success() {
			err = fmt.Errorf("%s", state)
		}
		c.waitErr = err
		c.exited.Store(true)
		close(c.done)
	}()

	return c
}

// PID returns the OS process id.
func (c *Child) PID() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Output returns the merged stdout/stderr stream. Exactly one reader (the
// URL watcher) may consume it.
func (c *Child) Output() io.ReadCloser {
	return c.output
}

// CloseOutput releases the merged output stream. The reader calls this
// once it has drained the stream; nothing else closes it.
func (c *Child) CloseOutput() {
	if c.output != nil {
		c.output.Close()
	}
}

// Exited reports whether the process has terminated.
func (c *Child) Exited() bool {
	return c.exited.Load()
}

// WaitTimeout blocks until the process exits or the timeout elapses,
// reporting whether it exited.
func (c *Child) WaitTimeout(timeout time.Duration) bool {
	select {
	case <-c.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// MarkKilled records that a pending termination is intentional.
func (c *Child) MarkKilled() {
	c.killed.Store(true)
}

// WasKilled reports whether termination was marked intentional.
func (c *Child) WasKilled() bool {
	return c.killed.Load()
}

// Kill force-terminates the process and its tree. Safe to call on an
// already-exited child.
func (c *Child) Kill() error {
	if c.Exited() {
		return nil
	}
	if c.cmd.Process == nil {
		return fmt.Errorf("child %s has no process handle", c.ID)
	}
	return killTree(c.cmd.Process)
}
