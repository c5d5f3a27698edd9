package gen

// Config is an opaque value owned by the caller. The engine never inspects
// it; it is only forwarded to callback generators and update hooks.
type Config any

// Generator is the contract every building block implements. A generator
// is an immutable value: Next and Update return successor values and never
// mutate shared state, so replaying the same starting value against the
// same event sequence reproduces the same trajectory.
//
// Next returns the next invocation and the successor generator:
//
//	op != nil              an invocation to dispatch; succ is the state
//	                       after emitting it (succ == nil means this was
//	                       the final emission)
//	op == nil, succ != nil pending: nothing ready now, but not exhausted.
//	                       Callers must not busy-poll; retry only after
//	                       the context has changed.
//	op == nil, succ == nil done: permanently exhausted. Exhausted
//	                       generators are never revisited.
//
// The successor may differ from the receiver even when no operation is
// emitted (lazy realization, pending-state bookkeeping).
//
// Update folds an accepted event back in: every invocation the driver
// dispatches and every completion it receives, including events produced
// by sibling subtrees a generator is listening for. Update is free of side
// effects except the explicit Log and OnUpdate combinators.
type Generator interface {
	Next(cfg Config, ctx *Context) (*Op, Generator)
	Update(cfg Config, ctx *Context, ev Op) Generator
}

// validator is implemented by variants that carry construction-time
// constraints. Checks never alter runtime behavior.
type validator interface {
	validate() error
}

// branch is implemented by variants that wrap child generators, so
// Validate can walk the whole tree.
type branch interface {
	children() []Generator
}

// Validate walks the tree once and returns a *ConfigError describing the
// first malformed construction it finds: negative bounds, empty mixes,
// ambiguous rewrite tables, non-positive reservation sizes. Call it after
// building a tree and before scheduling begins.
func Validate(g Generator) error {
	if g == nil {
		return configErrorf("nil generator")
	}
	if v, ok := g.(validator); ok {
		if err := v.validate(); err != nil {
			return err
		}
	}
	if b, ok := g.(branch); ok {
		for _, child := range b.children() {
			if err := Validate(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// exhausted is the generator that is already done. It is what Seq() of
// nothing compiles to, and what combinators hold onto when they need to
// keep absorbing trailing events after their child is spent.
type exhausted struct{}

func (exhausted) Next(Config, *Context) (*Op, Generator)  { return nil, nil }
func (e exhausted) Update(Config, *Context, Op) Generator { return e }

// Nothing returns a generator that is immediately exhausted.
func Nothing() Generator { return exhausted{} }
