// Package kernel drives an embedded notebook kernel inside a host
// application that owns its own cooperative message loop.
//
// The kernel framework normally blocks in its event loop; here the Driver
// replaces that blocking start with a poll loop: each step primes exactly
// one pending wake-up, drains it, and hands control back, then reschedules
// itself on the host's periodic-callback scheduler. Errors in a step are
// logged and swallowed so the loop stays alive; only a legitimate kernel
// exit ends it.
//
// The concrete kernel is injected through the Core interface, so the
// driver composes with any kernel framework instead of patching one.
package kernel
