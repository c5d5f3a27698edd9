package gen

// lit emits a single operation once, stamped as an invocation on the first
// free worker, then exhausts. Pending while no worker is free.
type lit struct {
	f     string
	value any
}

// Lit builds a generator that emits one operation with tag f and the given
// value, then is done.
func Lit(f string, value any) Generator {
	return lit{f: f, value: value}
}

// Ops builds a sequence of single-shot operations, one per template, in
// order. Each template needs only F and Value set; type, process and time
// are stamped at emission.
func Ops(ops ...Op) Generator {
	gens := make([]Generator, len(ops))
	for i, op := range ops {
		gens[i] = Lit(op.F, op.Value)
	}
	return Seq(gens...)
}

func (l lit) Next(cfg Config, ctx *Context) (*Op, Generator) {
	w, ok := ctx.FirstFree()
	if !ok {
		return nil, l
	}
	return &Op{
		Type:    Invoke,
		Process: ctx.Process(w),
		F:       l.f,
		Value:   l.value,
		Time:    ctx.Time(),
	}, nil
}

func (l lit) Update(Config, *Context, Op) Generator { return l }

// seq drains its leaves strictly in order: the first leaf exhausts before
// the next is offered. Completions still route to whichever leaf owns the
// outstanding invocation, even after a later leaf has started producing
// work, via an ownership table recorded at emission time. Leaves that have
// exhausted keep their final state so trailing events reach them.
type seq struct {
	leaves []Generator
	done   []bool
	owners map[Process]int
}

// Seq concatenates generators: each child fully exhausts before the next
// one is offered. Nested Seqs are flattened at construction; nesting depth
// is author-bounded, so the recursion is safe.
func Seq(gens ...Generator) Generator {
	flat := flattenSeq(gens)
	if len(flat) == 0 {
		return exhausted{}
	}
	return seq{
		leaves: flat,
		done:   make([]bool, len(flat)),
		owners: map[Process]int{},
	}
}

func flattenSeq(gens []Generator) []Generator {
	var out []Generator
	for _, g := range gens {
		if inner, ok := g.(seq); ok {
			out = append(out, flattenSeq(inner.leaves)...)
			continue
		}
		out = append(out, g)
	}
	return out
}

func (s seq) clone() seq {
	out := seq{
		leaves: make([]Generator, len(s.leaves)),
		done:   make([]bool, len(s.done)),
		owners: make(map[Process]int, len(s.owners)),
	}
	copy(out.leaves, s.leaves)
	copy(out.done, s.done)
	for p, i := range s.owners {
		out.owners[p] = i
	}
	return out
}

func (s seq) active() int {
	for i := range s.leaves {
		if !s.done[i] {
			return i
		}
	}
	return -1
}

func (s seq) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := s.clone()
	for i := range out.leaves {
		if out.done[i] {
			continue
		}
		op, succ := out.leaves[i].Next(cfg, ctx)
		if op != nil {
			out.owners[op.Process] = i
			if succ == nil {
				out.done[i] = true
			} else {
				out.leaves[i] = succ
			}
			return op, out
		}
		if succ == nil {
			out.done[i] = true
			continue
		}
		out.leaves[i] = succ
		return nil, out
	}
	return nil, nil
}

func (s seq) Update(cfg Config, ctx *Context, ev Op) Generator {
	out := s.clone()
	idx, routed := out.owners[ev.Process]
	if !routed {
		// Not one of ours in flight; let the active leaf listen.
		idx = out.active()
		if idx < 0 {
			return out
		}
	}
	out.leaves[idx] = out.leaves[idx].Update(cfg, ctx, ev)
	if routed && ev.Type.Completion() {
		delete(out.owners, ev.Process)
	}
	return out
}

func (s seq) children() []Generator { return s.leaves }

// CallFunc is the callback-generator contract. It is invoked lazily with
// the opaque config and the current context, and may return:
//
//	*Op or Op    a single operation to emit (then done)
//	Generator    a generator to splice in and continue driving
//	nil          nothing: immediately done
type CallFunc func(cfg Config, ctx *Context) any

// call invokes fn at most once, on first demand, and becomes whatever fn
// produced.
type call struct {
	fn CallFunc
}

// Call builds a generator from a callback. See CallFunc.
func Call(fn CallFunc) Generator {
	return call{fn: fn}
}

func (c call) Next(cfg Config, ctx *Context) (*Op, Generator) {
	switch v := c.fn(cfg, ctx).(type) {
	case nil:
		return nil, nil
	case *Op:
		return Lit(v.F, v.Value).Next(cfg, ctx)
	case Op:
		return Lit(v.F, v.Value).Next(cfg, ctx)
	case Generator:
		return v.Next(cfg, ctx)
	default:
		panic(configErrorf("callback returned %T; want *Op, Generator or nil", v))
	}
}

func (c call) Update(Config, *Context, Op) Generator { return c }

// deferCell is shared by every copy of a Defer: once the inner generator
// has been constructed it is cached for the tree's lifetime, so
// re-derivations (Repeat) reuse the same realized value.
type deferCell struct {
	build    func() Generator
	realized Generator
	ok       bool
}

type deferred struct {
	cell *deferCell
}

// Defer delays the construction of a generator until it is first demanded.
// The built value is cached; tree access is serialized by the driver, so
// the memoization needs no locking.
func Defer(build func() Generator) Generator {
	return deferred{cell: &deferCell{build: build}}
}

func (d deferred) Next(cfg Config, ctx *Context) (*Op, Generator) {
	if !d.cell.ok {
		d.cell.realized = d.cell.build()
		d.cell.ok = true
	}
	return d.cell.realized.Next(cfg, ctx)
}

func (d deferred) Update(Config, *Context, Op) Generator { return d }
