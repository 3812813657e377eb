package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the embedded kernel and the
// notebook-server launcher.
type Metrics struct {
	// Launcher metrics
	LaunchesTotal  prometheus.Counter
	LaunchErrors   *prometheus.CounterVec
	LaunchDuration prometheus.Histogram
	ChildrenActive prometheus.Gauge
	ChildrenKilled prometheus.Counter

	// Kernel driver metrics
	PollTicks   prometheus.Counter
	PollErrors  prometheus.Counter
	KernelUp    prometheus.Gauge
	KernelStart prometheus.Counter

	startTime time.Time
}

// NewMetrics creates a new metrics collector on a private registry so
// repeated construction in tests does not collide.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

// NewMetricsWith creates a metrics collector registered on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		LaunchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheetkernel_launches_total",
			Help: "Total number of notebook server launch attempts",
		}),
		LaunchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetkernel_launch_errors_total",
				Help: "Launch failures by reason",
			},
			[]string{"reason"},
		),
		LaunchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sheetkernel_launch_duration_seconds",
			Help:    "Time from spawn to URL discovery",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		ChildrenActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheetkernel_children_active",
			Help: "Number of registered notebook server processes",
		}),
		ChildrenKilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheetkernel_children_killed_total",
			Help: "Child processes force-killed by the registry",
		}),

		PollTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheetkernel_kernel_poll_ticks_total",
			Help: "Kernel event loop poll steps executed",
		}),
		PollErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheetkernel_kernel_poll_errors_total",
			Help: "Errors swallowed by the kernel poll loop",
		}),
		KernelUp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheetkernel_kernel_up",
			Help: "1 while the embedded kernel session is running",
		}),
		KernelStart: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheetkernel_kernel_starts_total",
			Help: "Kernel session initializations performed",
		}),
	}
}

// Uptime returns time since the metrics collector was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
