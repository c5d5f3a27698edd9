// Package runner drives a generator tree against an execution layer.
//
// The tree itself is pure; all real concurrency lives here. The runner
// owns the single mutable cell holding the current tree value, guarded by
// a mutex, and a pool of executor goroutines (one per worker slot plus the
// nemesis). Each executor holds exclusive access for exactly one call into
// the tree: on pending it releases the lock and blocks on a condition
// variable until some other event changes the scheduling state; it never
// busy-spins. Invocations are executed through a Client outside the lock,
// and the resulting completion is folded back in under the lock.
//
// The runner also enforces the driver side of the protocol: a completion
// matching no outstanding invocation, or a malformed completion, is a bug
// and panics rather than being silently tolerated. After an indeterminate
// (info) completion the runner assigns the worker a fresh process id,
// simulating a client reconnection; the nemesis keeps its process forever.
package runner
