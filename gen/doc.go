// Package gen is the deterministic operation-scheduling engine at the core
// of chaosgen: given a composable description of desired client and
// administrative operations, it decides which logical worker should next
// attempt which operation, and folds outcomes (success, failure, crash)
// back into its own state.
//
// # Reading Guide
//
// Start with these three files to understand the engine kernel:
//   - context.go: the immutable scheduling snapshot (time, workers, processes)
//   - op.go: the invoke/ok/fail/info event model exchanged with the driver
//   - generator.go: the Generator contract and the emit/pending/done protocol
//
// # Architecture
//
// Every building block is a Generator: an immutable value whose Next and
// Update return successor values. Blocks compose by wrapping and
// delegating to children:
//   - primitives.go: Lit, Seq, Call, Defer
//   - shaping.go: Limit, Repeat, Filter, FMap, Log, OnUpdate
//   - timing.go: DelayTil, Stagger, Synchronize, TimeLimit
//   - workers.go: On, Clients, EachWorker, ProcessLimit
//   - compose.go: Phases, Mix, Any, Reserve, UntilOk, FlipFlop
//   - keyed.go: SequentialKeys, ConcurrentKeys over unbounded key families
//
// The tree is pure and single-threaded in its own reasoning; all real
// concurrency lives in the surrounding driver (see the runner package),
// which serializes every call into the shared tree. Replaying the same
// starting value against the same event sequence reproduces the same
// trajectory, which is what makes scheduling decisions debuggable after a
// failing run.
//
// The engine never interprets operation payloads: it reads only event
// type, process and timestamp. Executing operations, injecting faults and
// analyzing the recorded history belong to other layers.
package gen
