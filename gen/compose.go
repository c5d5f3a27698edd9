package gen

// Phases runs each generator as a fully quiesced phase: every phase is
// wrapped in Synchronize, so a phase's first operation starts only after
// every operation of the previous phase has completed. Operations of
// different phases never interleave.
func Phases(gens ...Generator) Generator {
	wrapped := make([]Generator, len(gens))
	for i, g := range gens {
		wrapped[i] = Synchronize(g)
	}
	return Seq(wrapped...)
}

// mix interleaves its children by picking a uniformly random non-exhausted,
// non-pending child per emission. Events route back to whichever child
// emitted the matching invocation; exhausted children keep their final
// state so trailing events still reach them.
type mix struct {
	gens   []Generator
	done   []bool
	owners map[Process]int
	rng    rngState
}

// Mix randomly interleaves gens using the package default seed. Weighting
// is by repetition: list a child twice for double the share. Done when
// every child is done. See MixSeeded for an explicit seed.
func Mix(gens ...Generator) Generator {
	return MixSeeded(defaultSeed, gens...)
}

// MixSeeded is Mix with an explicit master seed for the child picker.
func MixSeeded(seed int64, gens ...Generator) Generator {
	children := make([]Generator, len(gens))
	copy(children, gens)
	return mix{
		gens:   children,
		done:   make([]bool, len(children)),
		owners: map[Process]int{},
		rng:    newRNG(seed, "mix"),
	}
}

func (m mix) clone() mix {
	out := mix{
		gens:   make([]Generator, len(m.gens)),
		done:   make([]bool, len(m.done)),
		owners: make(map[Process]int, len(m.owners)),
		rng:    m.rng,
	}
	copy(out.gens, m.gens)
	copy(out.done, m.done)
	for p, i := range m.owners {
		out.owners[p] = i
	}
	return out
}

func (m mix) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := m.clone()
	var candidates []int
	for i := range out.gens {
		if !out.done[i] {
			candidates = append(candidates, i)
		}
	}
	for len(candidates) > 0 {
		var k int
		k, out.rng = out.rng.intn(len(candidates))
		i := candidates[k]
		op, succ := out.gens[i].Next(cfg, ctx)
		if op != nil {
			if succ == nil {
				out.done[i] = true
			} else {
				out.gens[i] = succ
			}
			out.owners[op.Process] = i
			return op, out
		}
		if succ == nil {
			out.done[i] = true
		} else {
			out.gens[i] = succ
		}
		candidates = append(candidates[:k], candidates[k+1:]...)
	}
	for _, d := range out.done {
		if !d {
			return nil, out
		}
	}
	return nil, nil
}

func (m mix) Update(cfg Config, ctx *Context, ev Op) Generator {
	i, ok := m.owners[ev.Process]
	if !ok {
		return m
	}
	out := m.clone()
	out.gens[i] = out.gens[i].Update(cfg, ctx, ev)
	if ev.Type.Completion() {
		delete(out.owners, ev.Process)
	}
	return out
}

func (m mix) validate() error {
	if len(m.gens) == 0 {
		return configErrorf("mix: no children")
	}
	return nil
}

func (m mix) children() []Generator { return m.gens }

// anyGen scans its children in fixed order and offers the first one ready
// now. Meant for children with disjoint worker domains (combined with On),
// so interleaving follows readiness rather than randomness.
type anyGen struct {
	gens   []Generator
	done   []bool
	owners map[Process]int
}

// Any offers the first ready child in fixed order each call. Done when
// every child is done.
func Any(gens ...Generator) Generator {
	children := make([]Generator, len(gens))
	copy(children, gens)
	return anyGen{
		gens:   children,
		done:   make([]bool, len(children)),
		owners: map[Process]int{},
	}
}

func (a anyGen) clone() anyGen {
	out := anyGen{
		gens:   make([]Generator, len(a.gens)),
		done:   make([]bool, len(a.done)),
		owners: make(map[Process]int, len(a.owners)),
	}
	copy(out.gens, a.gens)
	copy(out.done, a.done)
	for p, i := range a.owners {
		out.owners[p] = i
	}
	return out
}

func (a anyGen) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := a.clone()
	alive := false
	for i := range out.gens {
		if out.done[i] {
			continue
		}
		op, succ := out.gens[i].Next(cfg, ctx)
		if op != nil {
			if succ == nil {
				out.done[i] = true
			} else {
				out.gens[i] = succ
			}
			out.owners[op.Process] = i
			return op, out
		}
		if succ == nil {
			out.done[i] = true
			continue
		}
		out.gens[i] = succ
		alive = true
	}
	if !alive {
		return nil, nil
	}
	return nil, out
}

func (a anyGen) Update(cfg Config, ctx *Context, ev Op) Generator {
	out := a.clone()
	if i, ok := out.owners[ev.Process]; ok {
		out.gens[i] = out.gens[i].Update(cfg, ctx, ev)
		if ev.Type.Completion() {
			delete(out.owners, ev.Process)
		}
		return out
	}
	// Unowned event: children are domain-disjoint, let each one filter.
	for i := range out.gens {
		out.gens[i] = out.gens[i].Update(cfg, ctx, ev)
	}
	return out
}

func (a anyGen) validate() error {
	if len(a.gens) == 0 {
		return configErrorf("any: no children")
	}
	return nil
}

func (a anyGen) children() []Generator { return a.gens }

// reserve partitions ascending client worker ids into contiguous ranges of
// the given sizes, each exclusively bound to one child via On; the
// remaining clients plus the nemesis go to the default child. Ranges are
// materialized on first use against the concrete concurrency.
type reserve struct {
	counts []int
	raw    []Generator // len(counts)+1, last is the default child
	bound  anyGen      // On-wrapped children after init
	inited bool
}

// Reserve assigns dedicated worker ranges to generators. Arguments
// alternate count, generator, ... and end with a default generator for
// the leftover workers and the nemesis:
//
//	Reserve(2, reads, 3, writes, nemesisOps)
//
// at concurrency 6 gives workers {0,1} to reads, {2,3,4} to writes, and
// {5, nemesis} to nemesisOps. Panics with *ConfigError on malformed
// arguments; over-budget ranges surface at first use.
func Reserve(args ...any) Generator {
	if len(args)%2 == 0 || len(args) == 0 {
		panic(configErrorf("reserve: want count/generator pairs plus a default generator"))
	}
	var counts []int
	var gens []Generator
	for i := 0; i+1 < len(args); i += 2 {
		n, ok := args[i].(int)
		if !ok {
			panic(configErrorf("reserve: argument %d: want int count, got %T", i, args[i]))
		}
		g, ok := args[i+1].(Generator)
		if !ok {
			panic(configErrorf("reserve: argument %d: want Generator, got %T", i+1, args[i+1]))
		}
		counts = append(counts, n)
		gens = append(gens, g)
	}
	def, ok := args[len(args)-1].(Generator)
	if !ok {
		panic(configErrorf("reserve: final argument: want default Generator, got %T", args[len(args)-1]))
	}
	gens = append(gens, def)
	return reserve{counts: counts, raw: gens}
}

func (r reserve) bind(ctx *Context) reserve {
	out := r
	concurrency := ctx.Concurrency()
	total := 0
	for _, n := range r.counts {
		total += n
	}
	if total > concurrency {
		panic(configErrorf("reserve: ranges want %d workers, only %d available", total, concurrency))
	}
	bound := make([]Generator, 0, len(r.raw))
	lo := 0
	for i, n := range r.counts {
		bound = append(bound, On(WorkerRange(Worker(lo), Worker(lo+n)), r.raw[i]))
		lo += n
	}
	rest := Worker(lo)
	defSet := workerSetFunc(func(w Worker) bool { return w == Nemesis || w >= rest })
	bound = append(bound, On(defSet, r.raw[len(r.raw)-1]))
	out.bound = Any(bound...).(anyGen)
	out.inited = true
	return out
}

func (r reserve) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := r
	if !out.inited {
		out = out.bind(ctx)
	}
	op, succ := out.bound.Next(cfg, ctx)
	if succ == nil {
		return op, nil
	}
	out.bound = succ.(anyGen)
	return op, out
}

func (r reserve) Update(cfg Config, ctx *Context, ev Op) Generator {
	if !r.inited {
		return r
	}
	out := r
	out.bound = r.bound.Update(cfg, ctx, ev).(anyGen)
	return out
}

func (r reserve) validate() error {
	for _, n := range r.counts {
		if n <= 0 {
			return configErrorf("reserve: non-positive range size %d", n)
		}
	}
	return nil
}

func (r reserve) children() []Generator { return r.raw }

// untilOk stops the moment one of its own invocations completes ok.
// Events keep flowing through for in-flight siblings, but no new
// operations are issued after the first ok.
type untilOk struct {
	ok   bool
	mine map[Process]bool
	g    Generator
}

// UntilOk delegates to g until an ok completion for one of its own
// invocations is absorbed, then is permanently done. Useful for retrying
// setup operations until one sticks.
func UntilOk(g Generator) Generator {
	return untilOk{mine: map[Process]bool{}, g: g}
}

func (u untilOk) clone() untilOk {
	out := untilOk{ok: u.ok, mine: make(map[Process]bool, len(u.mine)), g: u.g}
	for p := range u.mine {
		out.mine[p] = true
	}
	return out
}

func (u untilOk) Next(cfg Config, ctx *Context) (*Op, Generator) {
	if u.ok {
		return nil, nil
	}
	op, succ := u.g.Next(cfg, ctx)
	if op == nil {
		if succ == nil {
			return nil, nil
		}
		out := u
		out.g = succ
		return nil, out
	}
	out := u.clone()
	out.mine[op.Process] = true
	if succ == nil {
		succ = exhausted{}
	}
	out.g = succ
	return op, out
}

func (u untilOk) Update(cfg Config, ctx *Context, ev Op) Generator {
	out := u.clone()
	out.g = u.g.Update(cfg, ctx, ev)
	if out.mine[ev.Process] {
		if ev.Type == OK {
			out.ok = true
		}
		if ev.Type.Completion() {
			delete(out.mine, ev.Process)
		}
	}
	return out
}

func (u untilOk) children() []Generator { return []Generator{u.g} }

// flipFlop interleaves a main workload with bracketing steps: the primary
// runs, and each completion of one of its own invocations buys the
// secondary exactly one emission before control returns.
type flipFlop struct {
	primary   Generator       // nil: exhausted
	secondary Generator       // nil: exhausted, handoffs become no-ops
	owners    map[Process]int // 0 primary, 1 secondary
	owed      int             // secondary emissions owed
}

// FlipFlop alternates primary and secondary: after each completed primary
// operation the secondary emits once. Done when the primary is done.
func FlipFlop(primary, secondary Generator) Generator {
	return flipFlop{primary: primary, secondary: secondary, owners: map[Process]int{}}
}

func (f flipFlop) clone() flipFlop {
	out := flipFlop{
		primary:   f.primary,
		secondary: f.secondary,
		owners:    make(map[Process]int, len(f.owners)),
		owed:      f.owed,
	}
	for p, side := range f.owners {
		out.owners[p] = side
	}
	return out
}

func (f flipFlop) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := f.clone()
	for out.owed > 0 && out.secondary != nil {
		op, succ := out.secondary.Next(cfg, ctx)
		if op != nil {
			out.owed--
			out.owners[op.Process] = 1
			if succ == nil {
				out.secondary = nil
			} else {
				out.secondary = succ
			}
			return op, out
		}
		if succ == nil {
			out.secondary = nil
			out.owed = 0
			break
		}
		// Secondary owes an emission but is not ready: hold the primary.
		out.secondary = succ
		return nil, out
	}
	if out.primary != nil {
		op, succ := out.primary.Next(cfg, ctx)
		if op != nil {
			out.owners[op.Process] = 0
			out.primary = succ
			return op, out
		}
		if succ != nil {
			out.primary = succ
			return nil, out
		}
		out.primary = nil
	}
	// Primary exhausted. An in-flight primary invocation still buys the
	// secondary an emission on completion, so done is not reached until
	// nothing primary is outstanding and nothing is owed.
	if out.primaryOutstanding() {
		return nil, out
	}
	return nil, nil
}

func (f flipFlop) primaryOutstanding() bool {
	for _, side := range f.owners {
		if side == 0 {
			return true
		}
	}
	return false
}

func (f flipFlop) Update(cfg Config, ctx *Context, ev Op) Generator {
	out := f.clone()
	side, owned := out.owners[ev.Process]
	switch {
	case owned && side == 0 && out.primary != nil:
		out.primary = out.primary.Update(cfg, ctx, ev)
	case owned && side == 1 && out.secondary != nil:
		out.secondary = out.secondary.Update(cfg, ctx, ev)
	case !owned && out.primary != nil:
		out.primary = out.primary.Update(cfg, ctx, ev)
	}
	if owned && ev.Type.Completion() {
		if side == 0 {
			out.owed++
		}
		delete(out.owners, ev.Process)
	}
	return out
}

func (f flipFlop) children() []Generator {
	var out []Generator
	if f.primary != nil {
		out = append(out, f.primary)
	}
	if f.secondary != nil {
		out = append(out, f.secondary)
	}
	return out
}
