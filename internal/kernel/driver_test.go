package kernel

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCore counts calls so tests can assert how much initialization work a
// Start performs.
type fakeCore struct {
	mu          sync.Mutex
	initialized bool
	exitNow     bool

	initCalls    int
	pollerCalls  int
	channelCalls int
	extCalls     int
	pumpCalls    int
	drainCalls   int

	pumpErr   error
	pumpPanic bool
}

func (c *fakeCore) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *fakeCore) Initialize(connectionDir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initCalls++
	c.initialized = true
	return nil
}

func (c *fakeCore) StartPoller() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollerCalls++
	return nil
}

func (c *fakeCore) StartChannels() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelCalls++
	return nil
}

func (c *fakeCore) RegisterExtensions() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extCalls++
	return nil
}

func (c *fakeCore) PumpEvents() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pumpCalls++
	if c.pumpPanic {
		panic("kernel blew up")
	}
	return c.pumpErr
}

func (c *fakeCore) ExitRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitNow
}

func (c *fakeCore) DrainShutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainCalls++
	return nil
}

func (c *fakeCore) ConnectionFile() string { return "/run/kernel-test.json" }

func (c *fakeCore) Streams() (*os.File, *os.File) { return nil, nil }

func (c *fakeCore) requestExit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitNow = true
}

func (c *fakeCore) pumps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pumpCalls
}

// manualScheduler queues callbacks and runs them only when the test says
// so, which makes the poll loop fully deterministic.
type manualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (s *manualScheduler) Schedule(fn func(), delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, fn)
}

// runNext pops and runs one queued callback, reporting whether there was
// one.
func (s *manualScheduler) runNext() bool {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return false
	}
	fn := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	fn()
	return true
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func newTestDriver(core *fakeCore) (*Driver, *manualScheduler) {
	sched := &manualScheduler{}
	return NewDriver(core, sched, nil, logging.NewNop()), sched
}

func TestStartInitializesOnce(t *testing.T) {
	core := &fakeCore{}
	d, sched := newTestDriver(core)

	session, err := d.Start()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.Running())
	assert.Equal(t, 1, core.initCalls)
	assert.Equal(t, 1, sched.pending(), "first poll step should be scheduled")
}

func TestStartIsIdempotent(t *testing.T) {
	core := &fakeCore{}
	d, _ := newTestDriver(core)

	first, err := d.Start()
	require.NoError(t, err)

	second, err := d.Start()
	require.NoError(t, err)

	assert.Same(t, first, second, "second start must return the existing session")
	assert.Equal(t, 1, core.initCalls)
	assert.Equal(t, 1, core.pollerCalls)
	assert.Equal(t, 1, core.extCalls)
}

func TestPollLoopPumpsAndReschedules(t *testing.T) {
	core := &fakeCore{}
	d, sched := newTestDriver(core)

	_, err := d.Start()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, sched.runNext())
	}

	assert.Equal(t, 5, core.pumps())
	assert.Equal(t, 1, sched.pending(), "loop keeps exactly one step in flight")
}

func TestPollLoopSwallowsErrors(t *testing.T) {
	core := &fakeCore{pumpErr: errors.New("transient kernel error")}
	d, sched := newTestDriver(core)

	session, err := d.Start()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.True(t, sched.runNext())
	}

	assert.True(t, session.Running(), "errors must not stop the kernel")
	assert.Equal(t, 1, sched.pending(), "loop must keep rescheduling itself")
}

func TestPollLoopSurvivesPanic(t *testing.T) {
	core := &fakeCore{pumpPanic: true}
	d, sched := newTestDriver(core)

	_, err := d.Start()
	require.NoError(t, err)

	require.True(t, sched.runNext())
	assert.Equal(t, 1, sched.pending(), "loop must reschedule after a panic")
}

func TestKernelExitStopsLoop(t *testing.T) {
	core := &fakeCore{}
	d, sched := newTestDriver(core)

	session, err := d.Start()
	require.NoError(t, err)

	require.True(t, sched.runNext())
	core.requestExit()
	require.True(t, sched.runNext())

	assert.False(t, session.Running())
	assert.Equal(t, 1, core.drainCalls, "shutdown messages must flush")
	assert.Equal(t, 0, sched.pending(), "an exited kernel is not rescheduled")
}

func TestRestartAfterExit(t *testing.T) {
	core := &fakeCore{}
	d, sched := newTestDriver(core)

	first, err := d.Start()
	require.NoError(t, err)

	core.requestExit()
	require.True(t, sched.runNext())
	require.False(t, first.Running())

	core.mu.Lock()
	core.exitNow = false
	core.mu.Unlock()

	second, err := d.Start()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.True(t, second.Running())
	assert.Equal(t, 1, core.initCalls, "initialized core is reused, not reinitialized")
	assert.Equal(t, 2, core.pollerCalls)
}
