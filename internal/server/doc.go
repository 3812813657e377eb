// Package server exposes a small status/debug HTTP surface for operators:
// kernel session state, the child process directory, and /metrics.
package server
