package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chaosgen/chaosgen/gen"
)

// Runner owns the mutable state the pure engine refuses to carry: the
// current tree value, the current context, and the set of outstanding
// invocations. Every call into the tree happens under one mutex, and
// executors blocked on a pending tree wait on a condition variable until
// a state-changing event elsewhere wakes them.
type Runner struct {
	mu          sync.Mutex
	cond        *sync.Cond
	cfg         gen.Config
	tree        gen.Generator
	exhausted   bool
	ctx         *gen.Context
	clock       Clock
	client      Client
	history     *History
	outstanding map[gen.Process]gen.Op
	nextProc    gen.Process
	lastTime    int64
	stop        chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the default wall clock.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithConfig sets the opaque config forwarded to callback generators and
// update hooks.
func WithConfig(cfg gen.Config) Option {
	return func(r *Runner) { r.cfg = cfg }
}

// New builds a Runner for the given client concurrency, generator tree
// and execution client.
func New(concurrency int, tree gen.Generator, client Client, opts ...Option) *Runner {
	r := &Runner{
		tree:        tree,
		ctx:         gen.NewContext(concurrency),
		clock:       NewWallClock(),
		client:      client,
		history:     NewHistory(),
		outstanding: map[gen.Process]gen.Op{},
		nextProc:    gen.Process(concurrency),
		stop:        make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the run's event record.
func (r *Runner) History() *History {
	return r.history
}

// Run validates the tree, then drives it to exhaustion with one executor
// goroutine per worker slot (nemesis included) and blocks until every
// outstanding invocation has completed.
func (r *Runner) Run() error {
	if err := gen.Validate(r.tree); err != nil {
		return fmt.Errorf("invalid generator tree: %w", err)
	}
	logrus.Infof("run %s: starting, concurrency %d", r.history.RunID(), r.ctx.Concurrency())

	// Pending states that only time can release (pacing, time limits)
	// see no completion broadcast, so a waker re-polls them periodically.
	var wake sync.WaitGroup
	wake.Add(1)
	go func() {
		defer wake.Done()
		tick := time.NewTicker(time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-tick.C:
				r.cond.Broadcast()
			}
		}
	}()

	executors := r.ctx.Concurrency() + 1
	var wg sync.WaitGroup
	wg.Add(executors)
	for i := 0; i < executors; i++ {
		go func() {
			defer wg.Done()
			r.execute()
		}()
	}
	wg.Wait()
	close(r.stop)
	wake.Wait()
	logrus.Infof("run %s: finished, %d events", r.history.RunID(), r.history.Len())
	return nil
}

// execute is one executor's loop: pull an invocation under the lock,
// perform it outside the lock, fold the completion back in.
func (r *Runner) execute() {
	for {
		op, ok := r.next()
		if !ok {
			return
		}
		completion := r.client.Invoke(op)
		r.absorb(op, completion)
	}
}

// next holds exclusive access until the tree yields an invocation, and
// returns ok=false once the run is over. On pending it releases access
// and blocks; it never busy-spins while holding the lock.
func (r *Runner) next() (gen.Op, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if r.exhausted {
			if len(r.outstanding) == 0 {
				r.cond.Broadcast()
				return gen.Op{}, false
			}
			r.cond.Wait()
			continue
		}
		r.observeTime(r.clock.Now())
		op, succ := r.tree.Next(r.cfg, r.ctx)
		if op == nil && succ == nil {
			r.exhausted = true
			r.cond.Broadcast()
			continue
		}
		if succ != nil {
			r.tree = succ
		} else {
			// Final emission with no successor: the tree declared itself
			// fully done, so the post-emission state is the exhausted one.
			r.tree = gen.Nothing()
			r.exhausted = true
		}
		if op == nil {
			r.cond.Wait()
			continue
		}
		if op.Type != gen.Invoke {
			panic(fmt.Sprintf("runner: engine emitted non-invoke op %v", op))
		}
		w, found := r.ctx.WorkerFor(op.Process)
		if !found {
			panic(fmt.Sprintf("runner: invocation for unknown process %d", op.Process))
		}
		r.ctx = r.ctx.WithBusy(w)
		r.outstanding[op.Process] = *op
		r.tree = r.tree.Update(r.cfg, r.ctx, *op)
		r.history.Append(*op)
		logrus.Debugf("run %s: invoke %v", r.history.RunID(), op)
		return *op, true
	}
}

// absorb folds a completion back into the tree, frees the worker, and
// reassigns the process after an indeterminate outcome on a client
// worker. A completion matching no outstanding invocation is a driver
// protocol violation and fails loudly.
func (r *Runner) absorb(inv gen.Op, completion gen.Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !completion.Type.Completion() {
		panic(fmt.Sprintf("runner: client returned non-completion %v for %v", completion, inv))
	}
	if completion.Process != inv.Process {
		panic(fmt.Sprintf("runner: completion process %d does not match invocation %v",
			completion.Process, inv))
	}
	if _, found := r.outstanding[completion.Process]; !found {
		panic(fmt.Sprintf("runner: completion %v matches no outstanding invocation", completion))
	}
	w, found := r.ctx.WorkerFor(completion.Process)
	if !found {
		panic(fmt.Sprintf("runner: no worker bound to process %d", completion.Process))
	}
	now := r.clock.Now()
	if now < inv.Time {
		now = inv.Time
	}
	r.observeTime(now)
	completion.Time = r.ctx.Time()
	r.tree = r.tree.Update(r.cfg, r.ctx, completion)
	delete(r.outstanding, completion.Process)
	r.history.Append(completion)
	logrus.Debugf("run %s: %v", r.history.RunID(), completion)
	if completion.Type == gen.Info && w != gen.Nemesis {
		r.ctx = r.ctx.WithProcess(w, r.nextProc)
		r.nextProc++
	}
	r.ctx = r.ctx.WithFree(w)
	r.cond.Broadcast()
}

// observeTime advances the context clock, clamped so observed time never
// decreases even if the underlying clock is coarse.
func (r *Runner) observeTime(t int64) {
	if t < r.lastTime {
		t = r.lastTime
	}
	r.lastTime = t
	r.ctx = r.ctx.WithTime(t)
}
