package gen

import "time"

// delayTil gates emissions so that at least dt of virtual time elapses
// between consecutive invocations from the subtree. The first emission is
// immediate.
type delayTil struct {
	dt   int64
	last int64 // virtual time of the previous emission, -1 before any
	g    Generator
}

// DelayTil paces g: consecutive invocations are at least dt apart. While
// the gap is unmet the generator is pending, never done.
func DelayTil(dt time.Duration, g Generator) Generator {
	return delayTil{dt: dt.Nanoseconds(), last: -1, g: g}
}

func (d delayTil) Next(cfg Config, ctx *Context) (*Op, Generator) {
	if d.last >= 0 && ctx.Time()-d.last < d.dt {
		return nil, d
	}
	op, succ := d.g.Next(cfg, ctx)
	if op == nil {
		if succ == nil {
			return nil, nil
		}
		return nil, delayTil{dt: d.dt, last: d.last, g: succ}
	}
	out := delayTil{dt: d.dt, last: op.Time, g: succ}
	if succ == nil {
		return op, nil
	}
	return op, out
}

func (d delayTil) Update(cfg Config, ctx *Context, ev Op) Generator {
	return delayTil{dt: d.dt, last: d.last, g: d.g.Update(cfg, ctx, ev)}
}

func (d delayTil) validate() error {
	if d.dt < 0 {
		return configErrorf("delay: negative interval %d", d.dt)
	}
	return nil
}

func (d delayTil) children() []Generator { return []Generator{d.g} }

// stagger paces emissions with randomized gaps drawn from an exponential
// distribution, approximating Poisson arrivals with the given mean
// interval. The draw state lives in the generator value so replays see
// identical gaps.
type stagger struct {
	mean float64
	gap  int64 // current required gap, -1 until drawn
	last int64 // virtual time of the previous emission, -1 before any
	rng  rngState
	g    Generator
}

// Stagger paces g with random inter-emission gaps of the given mean,
// using the package default seed. See StaggerSeeded.
func Stagger(mean time.Duration, g Generator) Generator {
	return StaggerSeeded(defaultSeed, mean, g)
}

// StaggerSeeded is Stagger with an explicit master seed.
func StaggerSeeded(seed int64, mean time.Duration, g Generator) Generator {
	return stagger{
		mean: float64(mean.Nanoseconds()),
		gap:  -1,
		last: -1,
		rng:  newRNG(seed, "stagger"),
		g:    g,
	}
}

func (s stagger) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := s
	if out.gap < 0 {
		f, rng := out.rng.exp(out.mean)
		out.gap, out.rng = int64(f), rng
	}
	if out.last >= 0 && ctx.Time()-out.last < out.gap {
		return nil, out
	}
	op, succ := out.g.Next(cfg, ctx)
	if op == nil {
		if succ == nil {
			return nil, nil
		}
		out.g = succ
		return nil, out
	}
	out.last = op.Time
	out.gap = -1 // redraw before the next emission
	out.g = succ
	if succ == nil {
		return op, nil
	}
	return op, out
}

func (s stagger) Update(cfg Config, ctx *Context, ev Op) Generator {
	out := s
	out.g = s.g.Update(cfg, ctx, ev)
	return out
}

func (s stagger) validate() error {
	if s.mean <= 0 {
		return configErrorf("stagger: non-positive mean interval")
	}
	return nil
}

func (s stagger) children() []Generator { return []Generator{s.g} }

// synchronize is a barrier: pending until every worker on the roster is
// free, then splices its child in. Because a worker is freed only when its
// outstanding operation completes, the child's first invocation starts no
// earlier than the completion of every preceding operation.
type synchronize struct {
	g Generator
}

// Synchronize waits for all workers to quiesce before starting g.
func Synchronize(g Generator) Generator {
	return synchronize{g: g}
}

func (s synchronize) Next(cfg Config, ctx *Context) (*Op, Generator) {
	if !ctx.AllFree() {
		return nil, s
	}
	return s.g.Next(cfg, ctx)
}

func (s synchronize) Update(cfg Config, ctx *Context, ev Op) Generator {
	return synchronize{g: s.g.Update(cfg, ctx, ev)}
}

func (s synchronize) children() []Generator { return []Generator{s.g} }

// timeLimit measures from its own first activation and stops offering new
// operations once the window closes. Already-issued operations still
// complete normally; there is no preemptive cancellation.
type timeLimit struct {
	d        int64
	deadline int64 // -1 until first activation
	g        Generator
}

// TimeLimit runs g for at most d of virtual time, measured from this
// instance's first activation; each fresh instance (for example under
// Repeat) measures its own window. After the window it is permanently
// done regardless of g.
func TimeLimit(d time.Duration, g Generator) Generator {
	return timeLimit{d: d.Nanoseconds(), deadline: -1, g: g}
}

func (t timeLimit) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := t
	if out.deadline < 0 {
		out.deadline = ctx.Time() + out.d
	}
	if ctx.Time() >= out.deadline {
		return nil, nil
	}
	op, succ := out.g.Next(cfg, ctx)
	if op == nil && succ == nil {
		return nil, nil
	}
	if succ == nil {
		return op, nil
	}
	out.g = succ
	return op, out
}

func (t timeLimit) Update(cfg Config, ctx *Context, ev Op) Generator {
	out := t
	out.g = t.g.Update(cfg, ctx, ev)
	return out
}

func (t timeLimit) validate() error {
	if t.d <= 0 {
		return configErrorf("time-limit: non-positive duration %d", t.d)
	}
	return nil
}

func (t timeLimit) children() []Generator { return []Generator{t.g} }
