package gen

// KeyStream enumerates an ordered, possibly unbounded key family: it is a
// pure function of the index, so key supply is part of no one's mutable
// state. Returns false once the family is exhausted.
type KeyStream func(i int) (any, bool)

// KeyList enumerates exactly the given keys in order.
func KeyList(keys ...any) KeyStream {
	return func(i int) (any, bool) {
		if i < 0 || i >= len(keys) {
			return nil, false
		}
		return keys[i], true
	}
}

// KeyRange enumerates the integer keys 0..n-1.
func KeyRange(n int) KeyStream {
	return func(i int) (any, bool) {
		if i < 0 || i >= n {
			return nil, false
		}
		return i, true
	}
}

// IntKeys enumerates 0, 1, 2, ... without bound.
func IntKeys() KeyStream {
	return func(i int) (any, bool) { return i, true }
}

// KeyFactory builds the sub-generator for a key. It is invoked at most
// once per key, lazily, when the key is first claimed.
type KeyFactory func(key any) Generator

// seqKeys consumes keys strictly in order on one logical path: a key's
// sub-generator fully exhausts before the next key starts. Values are
// emitted as KV pairs.
type seqKeys struct {
	keys    KeyStream
	factory KeyFactory
	idx     int
	key     any
	active  Generator // nil: next key not yet claimed
}

// SequentialKeys runs factory(key) to exhaustion for each key in order,
// emitting (key, value) pairs.
func SequentialKeys(keys KeyStream, factory KeyFactory) Generator {
	return seqKeys{keys: keys, factory: factory}
}

func (s seqKeys) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := s
	for {
		if out.active == nil {
			k, ok := out.keys(out.idx)
			if !ok {
				return nil, nil
			}
			out.key = k
			out.active = out.factory(k)
			out.idx++
		}
		op, succ := out.active.Next(cfg, ctx)
		if op != nil {
			wrapped := *op
			wrapped.Value = KV{Key: out.key, Value: op.Value}
			if succ == nil {
				out.active = nil
				// The next key starts only on the following call.
				return &wrapped, out
			}
			out.active = succ
			return &wrapped, out
		}
		if succ == nil {
			out.active = nil
			continue
		}
		out.active = succ
		return nil, out
	}
}

func (s seqKeys) Update(cfg Config, ctx *Context, ev Op) Generator {
	kv, ok := ev.Value.(KV)
	if !ok || s.active == nil || kv.Key != s.key {
		return s
	}
	inner := ev
	inner.Value = kv.Value
	out := s
	out.active = s.active.Update(cfg, ctx, inner)
	return out
}

func (s seqKeys) validate() error {
	if s.factory == nil || s.keys == nil {
		return configErrorf("sequential keys: nil key stream or factory")
	}
	return nil
}

// keyGroup is one fixed slice of the worker pool holding one active key.
type keyGroup struct {
	lo, hi      Worker
	key         any
	g           Generator // nil: current key exhausted, next not claimed
	outstanding map[Process]bool
}

func (g keyGroup) cloneOutstanding() map[Process]bool {
	out := make(map[Process]bool, len(g.outstanding))
	for p := range g.outstanding {
		out[p] = true
	}
	return out
}

// concKeys partitions the client workers into contiguous fixed-size
// groups; each group exclusively holds one active key at a time and claims
// the next unclaimed key only after fully exhausting its current one. A
// group with no claimable key reports pending while any group still has
// work; the whole generator is done only once the key supply is exhausted,
// every group's sub-generator is exhausted, and no group has outstanding
// invocations.
type concKeys struct {
	size    int
	keys    KeyStream
	factory KeyFactory
	idx     int // next unclaimed key index
	groups  []keyGroup
	inited  bool
}

// ConcurrentKeys runs factory(key) over the key family with groupSize
// workers per concurrent key, emitting (key, value) pairs. No two groups
// ever hold the same key.
func ConcurrentKeys(groupSize int, keys KeyStream, factory KeyFactory) Generator {
	return concKeys{size: groupSize, keys: keys, factory: factory}
}

func (c concKeys) clone() concKeys {
	out := c
	out.groups = make([]keyGroup, len(c.groups))
	copy(out.groups, c.groups)
	for i := range out.groups {
		out.groups[i].outstanding = c.groups[i].cloneOutstanding()
	}
	return out
}

func (c concKeys) Next(cfg Config, ctx *Context) (*Op, Generator) {
	out := c.clone()
	if !out.inited {
		n := ctx.Concurrency() / out.size
		for i := 0; i < n; i++ {
			out.groups = append(out.groups, keyGroup{
				lo:          Worker(i * out.size),
				hi:          Worker((i + 1) * out.size),
				outstanding: map[Process]bool{},
			})
		}
		out.inited = true
	}
	for gi := range out.groups {
		grp := &out.groups[gi]
		for {
			if grp.g == nil {
				k, ok := out.keys(out.idx)
				if !ok {
					break // no claimable key; maybe other groups still work
				}
				grp.key = k
				grp.g = out.factory(k)
				out.idx++
			}
			rctx := ctx.Restrict(WorkerRange(grp.lo, grp.hi))
			op, succ := grp.g.Next(cfg, rctx)
			if op != nil {
				wrapped := *op
				wrapped.Value = KV{Key: grp.key, Value: op.Value}
				grp.outstanding[op.Process] = true
				grp.g = succ // nil: exhausted, claim next key on a later call
				return &wrapped, out
			}
			if succ == nil {
				grp.g = nil
				continue // claim the next key right away
			}
			grp.g = succ
			break // pending within this group
		}
	}
	// Nothing to emit. Done only when the key supply is dry, every group's
	// sub-generator is exhausted, and no invocation is still in flight.
	if _, more := out.keys(out.idx); !more {
		done := true
		for _, grp := range out.groups {
			if grp.g != nil || len(grp.outstanding) > 0 {
				done = false
				break
			}
		}
		if done {
			return nil, nil
		}
	}
	return nil, out
}

func (c concKeys) Update(cfg Config, ctx *Context, ev Op) Generator {
	w, ok := ctx.WorkerFor(ev.Process)
	if !ok || w == Nemesis {
		return c
	}
	out := c.clone()
	for gi := range out.groups {
		grp := &out.groups[gi]
		if w < grp.lo || w >= grp.hi {
			continue
		}
		if ev.Type.Completion() {
			delete(grp.outstanding, ev.Process)
		}
		kv, isKV := ev.Value.(KV)
		if grp.g != nil && isKV && kv.Key == grp.key {
			inner := ev
			inner.Value = kv.Value
			rctx := ctx.Restrict(WorkerRange(grp.lo, grp.hi))
			grp.g = grp.g.Update(cfg, rctx, inner)
		}
		break
	}
	return out
}

func (c concKeys) validate() error {
	if c.size <= 0 {
		return configErrorf("concurrent keys: non-positive group size %d", c.size)
	}
	if c.factory == nil || c.keys == nil {
		return configErrorf("concurrent keys: nil key stream or factory")
	}
	return nil
}
