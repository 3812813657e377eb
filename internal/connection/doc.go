// Package connection resolves the filesystem location where the embedded
// kernel publishes its connection metadata file.
//
// Preference order: an explicit host-config override (relative values are
// anchored at the embedding package), then the kernel framework's own
// default. When the host runs under a restricted app-packaging sandbox and
// the resolved directory sits under the per-app-isolated data root, a
// package-local directory is substituted instead, because a spawned child
// process cannot see the host's isolated view of that root.
package connection
