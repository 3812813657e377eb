// Package launcher spawns a notebook server process bound to an existing
// kernel connection file and extracts its browsable URL.
//
// Command resolution tries three strategies in order: an interpreter
// module invocation of the notebook launch script, a generated one-liner
// calling the server's packaged entry point, and a standalone
// jupyter-notebook executable. The spawned child runs with merged
// stdout/stderr; a dedicated watcher goroutine scans that stream for the
// token URL and hands it to the blocked launcher through a single-slot
// channel. Failure paths (timeout, no URL) flag the kill as intentional,
// terminate the process tree, and deregister the child.
package launcher
