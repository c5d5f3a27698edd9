package gen

import "github.com/sirupsen/logrus"

// limit caps the number of invocations its child may emit.
type limit struct {
	remaining int
	g         Generator
}

// Limit emits at most n invocations from g, then is done regardless of g.
func Limit(n int, g Generator) Generator {
	return limit{remaining: n, g: g}
}

func (l limit) Next(cfg Config, ctx *Context) (*Op, Generator) {
	if l.remaining <= 0 {
		return nil, nil
	}
	op, succ := l.g.Next(cfg, ctx)
	if op == nil {
		if succ == nil {
			return nil, nil
		}
		return nil, limit{remaining: l.remaining, g: succ}
	}
	if succ == nil {
		return op, nil
	}
	// The final emission keeps the child reachable so its invoke and
	// completion still route into the subtree; the next call reports done.
	return op, limit{remaining: l.remaining - 1, g: succ}
}

func (l limit) Update(cfg Config, ctx *Context, ev Op) Generator {
	return limit{remaining: l.remaining, g: l.g.Update(cfg, ctx, ev)}
}

func (l limit) validate() error {
	if l.remaining < 0 {
		return configErrorf("limit: negative bound %d", l.remaining)
	}
	return nil
}

func (l limit) children() []Generator { return []Generator{l.g} }

// Forever marks an unbounded Repeat cycle count.
const Forever = -1

// repeat re-derives a fresh instance of its prototype each time the active
// instance exhausts. Prototypes are immutable values, so reusing one is a
// genuinely fresh start; only Defer cells are shared across derivations.
type repeat struct {
	cycles int // remaining re-derivations, Forever for unbounded
	proto  Generator
	active Generator // nil: next derivation pending
}

// Repeat cycles g n times: each time the active copy exhausts a fresh copy
// is derived, up to n total cycles. Pass Forever for an unbounded cycle.
func Repeat(n int, g Generator) Generator {
	return repeat{cycles: n, proto: g}
}

func (r repeat) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := r
	fresh := false
	for {
		if out.active == nil {
			if out.cycles == 0 {
				return nil, nil
			}
			if out.cycles > 0 {
				out.cycles--
			}
			out.active = out.proto
			if fresh {
				// Two derivations without an emission: the prototype
				// exhausts immediately, so the cycle never will.
				return nil, nil
			}
			fresh = true
		}
		op, succ := out.active.Next(cfg, ctx)
		if op != nil {
			out.active = succ // nil means derive again next call
			return op, out
		}
		if succ == nil {
			out.active = nil
			continue
		}
		out.active = succ
		return nil, out
	}
}

func (r repeat) Update(cfg Config, ctx *Context, ev Op) Generator {
	if r.active == nil {
		return r
	}
	out := r
	out.active = r.active.Update(cfg, ctx, ev)
	return out
}

func (r repeat) validate() error {
	if r.cycles < Forever {
		return configErrorf("repeat: invalid cycle count %d", r.cycles)
	}
	return nil
}

func (r repeat) children() []Generator { return []Generator{r.proto} }

// filter pulls from its child until the predicate accepts an emission.
// Rejected operations are discarded undispatched.
type filter struct {
	pred func(*Op) bool
	g    Generator
}

// Filter passes through only the invocations pred accepts, retrying the
// child past rejections. Done when the child is done.
func Filter(pred func(*Op) bool, g Generator) Generator {
	return filter{pred: pred, g: g}
}

func (f filter) Next(cfg Config, ctx *Context) (*Op, Generator) {
	g := f.g
	for {
		op, succ := g.Next(cfg, ctx)
		if op == nil {
			if succ == nil {
				return nil, nil
			}
			return nil, filter{pred: f.pred, g: succ}
		}
		if f.pred(op) {
			if succ == nil {
				return op, nil
			}
			return op, filter{pred: f.pred, g: succ}
		}
		if succ == nil {
			return nil, nil
		}
		g = succ
	}
}

func (f filter) Update(cfg Config, ctx *Context, ev Op) Generator {
	return filter{pred: f.pred, g: f.g.Update(cfg, ctx, ev)}
}

func (f filter) children() []Generator { return []Generator{f.g} }

// fmap rewrites operation tags on the way out and back: emissions are
// rewritten through the table, absorbed events through its inverse, so the
// child only ever sees its own vocabulary.
type fmap struct {
	table   map[string]string
	inverse map[string]string
	g       Generator
}

// FMap rewrites every emitted operation's tag through table. An emission
// whose tag is absent from the table is a configuration error and panics
// at first use with a *ConfigError.
func FMap(table map[string]string, g Generator) Generator {
	inv := make(map[string]string, len(table))
	for from, to := range table {
		inv[to] = from
	}
	return fmap{table: table, inverse: inv, g: g}
}

func (f fmap) Next(cfg Config, ctx *Context) (*Op, Generator) {
	op, succ := f.g.Next(cfg, ctx)
	if op != nil {
		to, ok := f.table[op.F]
		if !ok {
			panic(configErrorf("fmap: no rewrite for tag %q", op.F))
		}
		mapped := *op
		mapped.F = to
		op = &mapped
	}
	if succ == nil {
		return op, nil
	}
	return op, fmap{table: f.table, inverse: f.inverse, g: succ}
}

func (f fmap) Update(cfg Config, ctx *Context, ev Op) Generator {
	if from, ok := f.inverse[ev.F]; ok {
		ev.F = from
	}
	return fmap{table: f.table, inverse: f.inverse, g: f.g.Update(cfg, ctx, ev)}
}

func (f fmap) validate() error {
	if len(f.inverse) != len(f.table) {
		return configErrorf("fmap: rewrite table is not invertible")
	}
	return nil
}

func (f fmap) children() []Generator { return []Generator{f.g} }

// logGen emits no invocation: its single Next call logs the message and
// exhausts. Exhausted generators are never revisited, so the effect fires
// exactly once.
type logGen struct {
	msg string
}

// Log emits nothing; it logs msg once when the scheduler reaches it, then
// is done. The effect is fire-and-forget and must never block.
func Log(msg string) Generator {
	return logGen{msg: msg}
}

func (l logGen) Next(Config, *Context) (*Op, Generator) {
	logrus.Info(l.msg)
	return nil, nil
}

func (l logGen) Update(Config, *Context, Op) Generator { return l }

// UpdateHook observes every event a subtree absorbs. Hooks are the only
// sanctioned side effect besides Log and must be non-blocking.
type UpdateHook func(g Generator, cfg Config, ctx *Context, ev Op)

type onUpdate struct {
	hook UpdateHook
	g    Generator
}

// OnUpdate invokes hook on every event absorbed by g, after forwarding the
// event. The hook receives the updated subtree.
func OnUpdate(hook UpdateHook, g Generator) Generator {
	return onUpdate{hook: hook, g: g}
}

func (u onUpdate) Next(cfg Config, ctx *Context) (*Op, Generator) {
	op, succ := u.g.Next(cfg, ctx)
	if succ == nil {
		if op == nil {
			return nil, nil
		}
		// Final emission: stay alive so the hook still sees its completion.
		return op, onUpdate{hook: u.hook, g: exhausted{}}
	}
	return op, onUpdate{hook: u.hook, g: succ}
}

func (u onUpdate) Update(cfg Config, ctx *Context, ev Op) Generator {
	succ := onUpdate{hook: u.hook, g: u.g.Update(cfg, ctx, ev)}
	u.hook(succ.g, cfg, ctx, ev)
	return succ
}

func (u onUpdate) children() []Generator { return []Generator{u.g} }
