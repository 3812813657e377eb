package registry

import (
	"sync"
	"time"

	"github.com/gridworks/sheetkernel/internal/infrastructure/monitoring"
	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/gridworks/sheetkernel/internal/shared/id"
	"go.uber.org/zap"
)

// Manager is the process directory: the single owner of every launched
// notebook-server process. Its teardown method guarantees, best effort,
// that no child outlives the host.
type Manager struct {
	mu       sync.Mutex
	children map[id.ChildID]*Child
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// ChildInfo is a point-in-time view of a registered child.
type ChildInfo struct {
	ID        id.ChildID `json:"id"`
	PID       int        `json:"pid"`
	StartedAt time.Time  `json:"started_at"`
	Alive     bool       `json:"alive"`
}

// NewManager creates a new process directory.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		children: make(map[id.ChildID]*Child),
		log:      log,
	}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Register adds a child to the directory.
func (m *Manager) Register(c *Child) {
	m.mu.Lock()
	m.children[c.ID] = c
	count := len(m.children)
	m.mu.Unlock()

	m.setGauge(count)
	m.log.Debug("registered child process", zap.String("id", string(c.ID)), zap.Int("pid", c.PID()))
}

// Remove deletes a child from the directory. Removing an unknown ID is a
// no-op.
func (m *Manager) Remove(childID id.ChildID) {
	m.mu.Lock()
	delete(m.children, childID)
	count := len(m.children)
	m.mu.Unlock()

	m.setGauge(count)
}

// Get retrieves a registered child.
func (m *Manager) Get(childID id.ChildID) (*Child, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.children[childID]
	return c, ok
}

// List returns a snapshot of all registered children.
func (m *Manager) List() []ChildInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]ChildInfo, 0, len(m.children))
	for _, c := range m.children {
		infos = append(infos, ChildInfo{
			ID:        c.ID,
			PID:       c.PID(),
			StartedAt: c.StartedAt,
			Alive:     !c.Exited(),
		})
	}
	return infos
}

// Len returns the number of registered children.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.children)
}

// KillAll force-kills every still-alive child and prunes entries that have
// already exited. Kill failures are logged, never returned: teardown must
// not fail the host's shutdown. Intended to run once at host process exit.
func (m *Manager) KillAll() {
	m.mu.Lock()
	children := make([]*Child, 0, len(m.children))
	for _, c := range m.children {
		children = append(children, c)
	}
	m.mu.Unlock()

	for _, c := range children {
		if c.Exited() {
			continue
		}
		c.MarkKilled()
		if err := c.Kill(); err != nil {
			m.log.Warn("failed to kill child process",
				zap.String("id", string(c.ID)),
				zap.Int("pid", c.PID()),
				zap.Error(err))
			continue
		}
		if m.metrics != nil {
			m.metrics.ChildrenKilled.Inc()
		}
	}

	// Prune everything that is now gone; keep entries that survived a
	// failed kill so a later teardown attempt can retry.
	m.mu.Lock()
	for childID, c := range m.children {
		if c.Exited() {
			delete(m.children, childID)
		}
	}
	count := len(m.children)
	m.mu.Unlock()

	m.setGauge(count)
}

func (m *Manager) setGauge(count int) {
	if m.metrics != nil {
		m.metrics.ChildrenActive.Set(float64(count))
	}
}
