// Package registry is the process directory for launched notebook servers.
//
// The Manager exclusively owns the set of live children. Teardown (KillAll)
// force-kills every entry whose exit is still pending using an OS-level
// kill-process-tree call, logging failures instead of returning them, since
// host shutdown must never be blocked by cleanup.
package registry
