package gen

import "fmt"

// Worker is a fixed scheduling slot. Client workers are numbered
// 0..concurrency-1; the fault-injecting nemesis occupies its own slot.
// A worker holds at most one outstanding operation at a time.
type Worker int

// Nemesis is the distinguished fault-injection slot. It is scheduled like
// any other worker but sits outside the client set.
const Nemesis Worker = -1

func (w Worker) String() string {
	if w == Nemesis {
		return "nemesis"
	}
	return fmt.Sprintf("worker %d", int(w))
}

// Process is the logical client-session id currently assigned to a worker.
// Client processes are non-negative and unbounded: the driver assigns a
// fresh one after an indeterminate (info) completion. The nemesis process
// never changes.
type Process int64

// NemesisProcess is the fixed process id of the nemesis worker.
const NemesisProcess Process = -1

// WorkerSet is a predicate over workers, used by targeting combinators to
// restrict which slots a subtree may schedule onto.
type WorkerSet interface {
	Contains(w Worker) bool
}

type workerSetFunc func(Worker) bool

func (f workerSetFunc) Contains(w Worker) bool { return f(w) }

// Workers builds a set containing exactly the given workers.
func Workers(ws ...Worker) WorkerSet {
	m := make(map[Worker]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return workerSetFunc(func(w Worker) bool { return m[w] })
}

// ClientWorkers is the set of all workers except the nemesis.
func ClientWorkers() WorkerSet {
	return workerSetFunc(func(w Worker) bool { return w != Nemesis })
}

// NemesisOnly is the set containing only the nemesis slot.
func NemesisOnly() WorkerSet {
	return workerSetFunc(func(w Worker) bool { return w == Nemesis })
}

// WorkerRange is the half-open range [lo, hi) of client workers.
func WorkerRange(lo, hi Worker) WorkerSet {
	return workerSetFunc(func(w Worker) bool { return w >= lo && w < hi })
}

// Context is an immutable snapshot of the scheduling state handed to the
// generator tree: the current virtual time, the worker roster, which
// workers are free, and the worker to process mapping. Every mutator
// returns a new Context; observed time never decreases across the contexts
// a driver presents.
type Context struct {
	time    int64
	workers []Worker // roster order: clients ascending, nemesis last
	free    map[Worker]bool
	procs   map[Worker]Process
}

// NewContext builds the root context for the given client concurrency:
// workers 0..concurrency-1 plus the nemesis, all free, worker i initially
// bound to process i and the nemesis to NemesisProcess.
func NewContext(concurrency int) *Context {
	if concurrency < 0 {
		panic(fmt.Sprintf("gen: negative concurrency %d", concurrency))
	}
	c := &Context{
		workers: make([]Worker, 0, concurrency+1),
		free:    make(map[Worker]bool, concurrency+1),
		procs:   make(map[Worker]Process, concurrency+1),
	}
	for i := 0; i < concurrency; i++ {
		w := Worker(i)
		c.workers = append(c.workers, w)
		c.free[w] = true
		c.procs[w] = Process(i)
	}
	c.workers = append(c.workers, Nemesis)
	c.free[Nemesis] = true
	c.procs[Nemesis] = NemesisProcess
	return c
}

// Time returns the context's virtual time in nanoseconds.
func (c *Context) Time() int64 { return c.time }

// Workers returns the roster in its fixed order.
func (c *Context) Workers() []Worker {
	out := make([]Worker, len(c.workers))
	copy(out, c.workers)
	return out
}

// Concurrency returns the number of client workers on the roster.
func (c *Context) Concurrency() int {
	n := 0
	for _, w := range c.workers {
		if w != Nemesis {
			n++
		}
	}
	return n
}

// FreeWorkers returns the free workers in roster order.
func (c *Context) FreeWorkers() []Worker {
	var out []Worker
	for _, w := range c.workers {
		if c.free[w] {
			out = append(out, w)
		}
	}
	return out
}

// FirstFree returns the first free worker in roster order.
func (c *Context) FirstFree() (Worker, bool) {
	for _, w := range c.workers {
		if c.free[w] {
			return w, true
		}
	}
	return 0, false
}

// IsFree reports whether w is on the roster and currently free.
func (c *Context) IsFree(w Worker) bool { return c.free[w] }

// AllFree reports whether every worker on the roster is free.
func (c *Context) AllFree() bool {
	for _, w := range c.workers {
		if !c.free[w] {
			return false
		}
	}
	return true
}

// Process returns the process currently bound to w. Panics if w is not on
// the roster; asking for an unknown worker is a driver bug.
func (c *Context) Process(w Worker) Process {
	p, ok := c.procs[w]
	if !ok {
		panic(fmt.Sprintf("gen: no process mapped for %v", w))
	}
	return p
}

// WorkerFor resolves a process id back to the worker it is bound to.
func (c *Context) WorkerFor(p Process) (Worker, bool) {
	for _, w := range c.workers {
		if c.procs[w] == p {
			return w, true
		}
	}
	return 0, false
}

// WithTime returns a copy of the context at virtual time t.
func (c *Context) WithTime(t int64) *Context {
	out := c.clone()
	out.time = t
	return out
}

// WithBusy returns a copy with w marked busy.
func (c *Context) WithBusy(w Worker) *Context {
	out := c.clone()
	out.free[w] = false
	return out
}

// WithFree returns a copy with w marked free.
func (c *Context) WithFree(w Worker) *Context {
	out := c.clone()
	out.free[w] = true
	return out
}

// WithProcess returns a copy with w bound to process p.
func (c *Context) WithProcess(w Worker, p Process) *Context {
	out := c.clone()
	out.procs[w] = p
	return out
}

// Restrict returns a copy whose roster and free set are narrowed to the
// workers in set. Process bindings for retained workers are preserved.
func (c *Context) Restrict(set WorkerSet) *Context {
	out := &Context{
		time:  c.time,
		free:  make(map[Worker]bool),
		procs: make(map[Worker]Process),
	}
	for _, w := range c.workers {
		if !set.Contains(w) {
			continue
		}
		out.workers = append(out.workers, w)
		if c.free[w] {
			out.free[w] = true
		}
		out.procs[w] = c.procs[w]
	}
	return out
}

func (c *Context) clone() *Context {
	out := &Context{
		time:    c.time,
		workers: make([]Worker, len(c.workers)),
		free:    make(map[Worker]bool, len(c.free)),
		procs:   make(map[Worker]Process, len(c.procs)),
	}
	copy(out.workers, c.workers)
	for w, f := range c.free {
		out.free[w] = f
	}
	for w, p := range c.procs {
		out.procs[w] = p
	}
	return out
}
