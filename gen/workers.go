package gen

// on restricts its child to a subset of workers: Next sees a context whose
// roster and free set are intersected with the set, and Update forwards
// only events owned by workers in the set.
type on struct {
	set WorkerSet
	g   Generator
}

// On runs g only on the workers in set. Pending while no eligible worker
// is free; done when g is done.
func On(set WorkerSet, g Generator) Generator {
	return on{set: set, g: g}
}

// Clients runs g on every worker except the nemesis.
func Clients(g Generator) Generator {
	return On(ClientWorkers(), g)
}

func (o on) Next(cfg Config, ctx *Context) (*Op, Generator) {
	op, succ := o.g.Next(cfg, ctx.Restrict(o.set))
	if succ == nil {
		return op, nil
	}
	return op, on{set: o.set, g: succ}
}

func (o on) Update(cfg Config, ctx *Context, ev Op) Generator {
	w, ok := ctx.WorkerFor(ev.Process)
	if !ok || !o.set.Contains(w) {
		return o
	}
	return on{set: o.set, g: o.g.Update(cfg, ctx.Restrict(o.set), ev)}
}

func (o on) children() []Generator { return []Generator{o.g} }

// eachWorker gives every worker on the roster its own fresh copy of the
// prototype. A copy advances only on its worker's events; the whole
// generator is done once every copy is done.
type eachWorker struct {
	proto  Generator
	order  []Worker
	copies map[Worker]Generator
	done   map[Worker]bool
	inited bool
}

// EachWorker replicates g independently onto each worker, nemesis
// included. Copies are derived from the roster of the first context seen.
func EachWorker(g Generator) Generator {
	return eachWorker{proto: g}
}

func (e eachWorker) clone() eachWorker {
	out := eachWorker{
		proto:  e.proto,
		order:  e.order,
		copies: make(map[Worker]Generator, len(e.copies)),
		done:   make(map[Worker]bool, len(e.done)),
		inited: e.inited,
	}
	for w, g := range e.copies {
		out.copies[w] = g
	}
	for w, d := range e.done {
		out.done[w] = d
	}
	return out
}

func (e eachWorker) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := e.clone()
	if !out.inited {
		out.order = ctx.Workers()
		for _, w := range out.order {
			out.copies[w] = out.proto
		}
		out.inited = true
	}
	for _, w := range out.order {
		if out.done[w] {
			continue
		}
		if !ctx.IsFree(w) {
			continue
		}
		rctx := ctx.Restrict(Workers(w))
		op, succ := out.copies[w].Next(cfg, rctx)
		if op != nil {
			if succ == nil {
				out.done[w] = true
			} else {
				out.copies[w] = succ
			}
			return op, out
		}
		if succ == nil {
			out.done[w] = true
			continue
		}
		out.copies[w] = succ
	}
	// A copy marked done in this pass may have been the last one.
	alive := false
	for _, w := range out.order {
		if !out.done[w] {
			alive = true
			break
		}
	}
	if !alive {
		return nil, nil
	}
	return nil, out
}

func (e eachWorker) Update(cfg Config, ctx *Context, ev Op) Generator {
	if !e.inited {
		return e
	}
	w, ok := ctx.WorkerFor(ev.Process)
	if !ok {
		return e
	}
	g, exists := e.copies[w]
	if !exists || e.done[w] {
		return e
	}
	out := e.clone()
	out.copies[w] = g.Update(cfg, ctx.Restrict(Workers(w)), ev)
	return out
}

func (e eachWorker) children() []Generator { return []Generator{e.proto} }

// processLimit bounds how many distinct processes a subtree may touch.
// Once emitting would involve process n+1, the generator is done, even if
// the child has more to give.
type processLimit struct {
	n    int
	seen map[Process]bool
	g    Generator
}

// ProcessLimit runs g until invocations have been handed to n distinct
// processes; an emission that would touch one more ends the generator.
func ProcessLimit(n int, g Generator) Generator {
	return processLimit{n: n, seen: map[Process]bool{}, g: g}
}

func (p processLimit) Next(cfg Config, ctx *Context) (*Op, Generator) {
	op, succ := p.g.Next(cfg, ctx)
	if op == nil {
		if succ == nil {
			return nil, nil
		}
		return nil, processLimit{n: p.n, seen: p.seen, g: succ}
	}
	seen := p.seen
	if !seen[op.Process] {
		if len(seen) >= p.n {
			return nil, nil
		}
		seen = make(map[Process]bool, len(p.seen)+1)
		for pr := range p.seen {
			seen[pr] = true
		}
		seen[op.Process] = true
	}
	if succ == nil {
		return op, nil
	}
	return op, processLimit{n: p.n, seen: seen, g: succ}
}

func (p processLimit) Update(cfg Config, ctx *Context, ev Op) Generator {
	return processLimit{n: p.n, seen: p.seen, g: p.g.Update(cfg, ctx, ev)}
}

func (p processLimit) validate() error {
	if p.n < 0 {
		return configErrorf("process-limit: negative bound %d", p.n)
	}
	return nil
}

func (p processLimit) children() []Generator { return []Generator{p.g} }
