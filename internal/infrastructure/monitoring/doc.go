// Package monitoring provides Prometheus metrics for the kernel driver and
// the notebook-server launcher.
//
// Metrics are registered on a caller-supplied registry (or a private one)
// rather than the global default, so embedding hosts that already expose
// Prometheus metrics can compose without duplicate-registration panics.
package monitoring
