package gen

import "fmt"

// EventType classifies the records exchanged between the engine and the
// driver. The engine produces "invoke" records; the driver feeds back
// exactly one of "ok", "fail" or "info" per invocation.
type EventType string

const (
	// Invoke announces an operation dispatched to a worker.
	Invoke EventType = "invoke"
	// OK reports a definite success.
	OK EventType = "ok"
	// Fail reports a definite failure: the operation did not happen.
	Fail EventType = "fail"
	// Info reports an indeterminate outcome, typically a crashed or
	// timed-out client. The operation may or may not have happened.
	Info EventType = "info"
)

// Completion reports whether t is one of the three completion types.
func (t EventType) Completion() bool {
	return t == OK || t == Fail || t == Info
}

// Op is a single scheduling event: an invocation produced by the engine or
// a completion fed back by the execution layer. The engine never interprets
// Value; it only reads Type, Process, F and Time.
type Op struct {
	Type    EventType
	Process Process
	F       string
	Value   any
	Time    int64 // virtual time in nanoseconds, monotone per run
}

func (o Op) String() string {
	return fmt.Sprintf("{%s %s %v process=%d t=%d}", o.Type, o.F, o.Value, o.Process, o.Time)
}

// KV is the value shape emitted by key-partitioned generators: the inner
// generator's value paired with the key it was produced under.
type KV struct {
	Key   any
	Value any
}

func (kv KV) String() string {
	return fmt.Sprintf("[%v %v]", kv.Key, kv.Value)
}
