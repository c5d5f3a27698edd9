package scenario

import (
	"time"

	"github.com/chaosgen/chaosgen/gen"
)

// phaseSeedStride separates the derived seeds of consecutive phases.
const phaseSeedStride int64 = 0x9e3779b9

// Compile validates the scenario and builds its generator tree. The seed
// argument overrides the scenario's own seed when non-zero, so a CLI flag
// can re-roll a recorded scenario.
func (s *Scenario) Compile(seed int64) (gen.Generator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = s.Seed
	}

	phases := make([]gen.Generator, len(s.Phases))
	for i, p := range s.Phases {
		phases[i] = compilePhase(&p, seed+int64(i+1)*phaseSeedStride)
	}
	var tree gen.Generator
	if len(phases) == 1 {
		tree = phases[0]
	} else {
		tree = gen.Phases(phases...)
	}
	tree = gen.Clients(tree)

	if s.Nemesis != nil {
		nem := opMix(s.Nemesis.Ops, seed-phaseSeedStride)
		if s.Nemesis.StaggerMs > 0 {
			nem = gen.StaggerSeeded(seed-phaseSeedStride, msDuration(s.Nemesis.StaggerMs), nem)
		}
		tree = gen.Any(tree, gen.On(gen.NemesisOnly(), nem))
	}
	if s.StaggerMs > 0 {
		tree = gen.StaggerSeeded(seed, msDuration(s.StaggerMs), tree)
	}
	if s.TimeLimitMs > 0 {
		tree = gen.TimeLimit(msDuration(s.TimeLimitMs), tree)
	}
	return tree, nil
}

func compilePhase(p *PhaseSpec, seed int64) gen.Generator {
	var g gen.Generator
	switch {
	case p.Keys != nil:
		mix := opMix(p.Ops, seed)
		perKey := p.Keys.PerKey
		g = gen.ConcurrentKeys(p.Keys.GroupSize, gen.KeyRange(p.Keys.Count),
			func(key any) gen.Generator { return gen.Limit(perKey, mix) })
	case len(p.Reserve) > 0:
		var args []any
		for i, r := range p.Reserve {
			args = append(args, r.Workers, opMix(r.Ops, seed+int64(i+1)))
		}
		args = append(args, opMix(p.Ops, seed))
		g = gen.Reserve(args...)
	default:
		g = opMix(p.Ops, seed)
	}
	if p.Limit > 0 {
		g = gen.Limit(p.Limit, g)
	}
	if p.StaggerMs > 0 {
		g = gen.StaggerSeeded(seed, msDuration(p.StaggerMs), g)
	}
	if p.TimeLimitMs > 0 {
		g = gen.TimeLimit(msDuration(p.TimeLimitMs), g)
	}
	return g
}

// opMix builds the free-running weighted mix of a phase's op templates.
// Weighting is by repetition; a single-template mix skips the picker.
func opMix(ops []OpSpec, seed int64) gen.Generator {
	var children []gen.Generator
	for _, op := range ops {
		weight := op.Weight
		if weight == 0 {
			weight = 1
		}
		proto := gen.Repeat(gen.Forever, gen.Lit(op.F, op.Value))
		for i := 0; i < weight; i++ {
			children = append(children, proto)
		}
	}
	if len(children) == 1 {
		return children[0]
	}
	return gen.MixSeeded(seed, children...)
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
