package gen

import (
	"testing"
)

// simDriver drives a generator tree in lockstep on one goroutine,
// following the driver discipline: exclusive access per call, invocations
// absorbed immediately, workers freed only when their completion is
// absorbed, fresh processes assigned after info completions.
type simDriver struct {
	t           *testing.T
	cfg         Config
	ctx         *Context
	tree        Generator
	exhausted   bool
	outstanding map[Process]Op
	history     []Op
	nextProc    Process
}

func newSimDriver(t *testing.T, concurrency int, tree Generator) *simDriver {
	t.Helper()
	if err := Validate(tree); err != nil {
		t.Fatalf("invalid tree: %v", err)
	}
	return &simDriver{
		t:           t,
		ctx:         NewContext(concurrency),
		tree:        tree,
		outstanding: map[Process]Op{},
		nextProc:    Process(concurrency),
	}
}

// at advances virtual time. Time never decreases.
func (d *simDriver) at(t int64) *simDriver {
	d.t.Helper()
	if t < d.ctx.Time() {
		d.t.Fatalf("time went backwards: %d -> %d", d.ctx.Time(), t)
	}
	d.ctx = d.ctx.WithTime(t)
	return d
}

// pullOne asks the tree for a single invocation. Returns nil on pending
// or exhaustion.
func (d *simDriver) pullOne() *Op {
	d.t.Helper()
	if d.exhausted {
		return nil
	}
	op, succ := d.tree.Next(d.cfg, d.ctx)
	if op == nil && succ == nil {
		d.exhausted = true
		return nil
	}
	if succ != nil {
		d.tree = succ
	} else {
		// No successor after the final emission: trailing events fold
		// into the exhausted state, not the pre-emission value.
		d.tree = Nothing()
		d.exhausted = true
	}
	if op == nil {
		return nil
	}
	if op.Type != Invoke {
		d.t.Fatalf("engine emitted non-invoke op %v", op)
	}
	w, ok := d.ctx.WorkerFor(op.Process)
	if !ok {
		d.t.Fatalf("emitted op for unknown process %d", op.Process)
	}
	if !d.ctx.IsFree(w) {
		d.t.Fatalf("emitted op for busy %v", w)
	}
	if len(d.history) > 0 && op.Time < d.history[len(d.history)-1].Time {
		d.t.Fatalf("event times decreased: %d after %d", op.Time, d.history[len(d.history)-1].Time)
	}
	d.ctx = d.ctx.WithBusy(w)
	d.outstanding[op.Process] = *op
	d.tree = d.tree.Update(d.cfg, d.ctx, *op)
	d.history = append(d.history, *op)
	return op
}

// pullAll pulls invocations until the tree reports pending or done.
func (d *simDriver) pullAll() []Op {
	d.t.Helper()
	var out []Op
	for {
		op := d.pullOne()
		if op == nil {
			return out
		}
		out = append(out, *op)
	}
}

// complete feeds back a completion for the outstanding invocation on
// process p, frees its worker, and reassigns the process after an info.
func (d *simDriver) complete(p Process, typ EventType, t int64) {
	d.t.Helper()
	inv, ok := d.outstanding[p]
	if !ok {
		d.t.Fatalf("no outstanding invocation on process %d", p)
	}
	if !typ.Completion() {
		d.t.Fatalf("%q is not a completion type", typ)
	}
	d.at(t)
	ev := inv
	ev.Type = typ
	ev.Time = t
	w, ok := d.ctx.WorkerFor(p)
	if !ok {
		d.t.Fatalf("no worker bound to process %d", p)
	}
	d.tree = d.tree.Update(d.cfg, d.ctx, ev)
	delete(d.outstanding, p)
	d.history = append(d.history, ev)
	if typ == Info && w != Nemesis {
		d.ctx = d.ctx.WithProcess(w, d.nextProc)
		d.nextProc++
	}
	d.ctx = d.ctx.WithFree(w)
}

// completeAll completes every outstanding invocation with typ at time t,
// in process order for determinism.
func (d *simDriver) completeAll(typ EventType, t int64) {
	d.t.Helper()
	for _, p := range d.outstandingProcs() {
		d.complete(p, typ, t)
	}
}

func (d *simDriver) outstandingProcs() []Process {
	var procs []Process
	for p := range d.outstanding {
		procs = append(procs, p)
	}
	for i := 0; i < len(procs); i++ {
		for j := i + 1; j < len(procs); j++ {
			if procs[j] < procs[i] {
				procs[i], procs[j] = procs[j], procs[i]
			}
		}
	}
	return procs
}

// runToExhaustion alternates pulling everything ready and completing it
// ok, advancing time by dt per round, until the tree exhausts and nothing
// is outstanding. Fails the test if the run does not terminate.
func (d *simDriver) runToExhaustion(dt int64) []Op {
	d.t.Helper()
	for round := 0; round < 100000; round++ {
		d.pullAll()
		if len(d.outstanding) > 0 {
			d.completeAll(OK, d.ctx.Time()+dt)
			continue
		}
		if d.exhausted {
			return d.history
		}
		// Pending with nothing outstanding: only time can unblock.
		d.at(d.ctx.Time() + dt)
	}
	d.t.Fatalf("run did not exhaust after 100000 rounds; history %d events", len(d.history))
	return nil
}

// invocations filters the history down to invoke events.
func invocations(history []Op) []Op {
	var out []Op
	for _, ev := range history {
		if ev.Type == Invoke {
			out = append(out, ev)
		}
	}
	return out
}

// countByF tallies invocations per operation tag.
func countByF(history []Op) map[string]int {
	out := map[string]int{}
	for _, ev := range history {
		if ev.Type == Invoke {
			out[ev.F]++
		}
	}
	return out
}
