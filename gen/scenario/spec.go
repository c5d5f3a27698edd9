// Package scenario loads YAML workload scenarios and compiles them into
// generator trees. A scenario names the operation mix, pacing, phase
// structure and key partitioning of a run; compilation produces a pure
// gen.Generator ready for the runner. Malformed scenarios are rejected
// before any scheduling begins.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is the top-level scenario configuration, loaded from YAML via
// Load(path).
type Scenario struct {
	Version     string      `yaml:"version"`
	Seed        int64       `yaml:"seed,omitempty"`
	TimeLimitMs int64       `yaml:"time_limit_ms,omitempty"` // 0 = unbounded
	StaggerMs   int64       `yaml:"stagger_ms,omitempty"`    // mean gap between ops, 0 = no pacing
	Phases      []PhaseSpec `yaml:"phases"`
	Nemesis     *MixSpec    `yaml:"nemesis,omitempty"`
}

// PhaseSpec is one quiesced phase: its operations never interleave with
// a neighboring phase's.
type PhaseSpec struct {
	Name        string        `yaml:"name"`
	Ops         []OpSpec      `yaml:"ops"`
	Limit       int           `yaml:"limit,omitempty"`         // 0 = unlimited
	StaggerMs   int64         `yaml:"stagger_ms,omitempty"`    // overrides the scenario-level mean
	TimeLimitMs int64         `yaml:"time_limit_ms,omitempty"` // 0 = unbounded
	Keys        *KeysSpec     `yaml:"keys,omitempty"`
	Reserve     []ReserveSpec `yaml:"reserve,omitempty"`
}

// ReserveSpec dedicates a block of workers to its own op mix for the
// duration of the phase; the phase's main ops run on whatever is left.
type ReserveSpec struct {
	Workers int      `yaml:"workers"`
	Ops     []OpSpec `yaml:"ops"`
}

// OpSpec is one operation template in a mix.
type OpSpec struct {
	F      string `yaml:"f"`
	Value  any    `yaml:"value,omitempty"`
	Weight int    `yaml:"weight,omitempty"` // 0 means 1
}

// MixSpec is a free-running weighted mix, used for the nemesis stream.
type MixSpec struct {
	Ops       []OpSpec `yaml:"ops"`
	StaggerMs int64    `yaml:"stagger_ms,omitempty"`
}

// KeysSpec partitions a phase's workers into fixed groups, each working
// through its own sequence of integer keys.
type KeysSpec struct {
	Count     int `yaml:"count"`      // number of keys
	GroupSize int `yaml:"group_size"` // workers per concurrent key
	PerKey    int `yaml:"per_key"`    // operations per key
}

// Load reads and parses a YAML scenario file. Uses strict parsing:
// unrecognized keys (typos) are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

// Validate checks that all fields in the scenario are valid and that the
// described run can terminate.
func (s *Scenario) Validate() error {
	if s.Version != "" && s.Version != "1" {
		return fmt.Errorf("unsupported scenario version %q; valid: 1", s.Version)
	}
	if len(s.Phases) == 0 {
		return fmt.Errorf("at least one phase required")
	}
	if s.StaggerMs < 0 {
		return fmt.Errorf("stagger_ms must be non-negative, got %d", s.StaggerMs)
	}
	if s.TimeLimitMs < 0 {
		return fmt.Errorf("time_limit_ms must be non-negative, got %d", s.TimeLimitMs)
	}
	for i, p := range s.Phases {
		if err := validatePhase(&p, i, s.TimeLimitMs > 0); err != nil {
			return err
		}
	}
	if s.Nemesis != nil {
		if len(s.Nemesis.Ops) == 0 {
			return fmt.Errorf("nemesis: at least one op required")
		}
		if err := validateOps("nemesis", s.Nemesis.Ops); err != nil {
			return err
		}
		if s.TimeLimitMs == 0 {
			return fmt.Errorf("nemesis: a scenario with a nemesis stream needs time_limit_ms, or the run never ends")
		}
	}
	return nil
}

func validatePhase(p *PhaseSpec, idx int, scenarioBounded bool) error {
	prefix := fmt.Sprintf("phase[%d]", idx)
	if p.Name != "" {
		prefix = fmt.Sprintf("phase[%d] %q", idx, p.Name)
	}
	if len(p.Ops) == 0 {
		return fmt.Errorf("%s: at least one op required", prefix)
	}
	if err := validateOps(prefix, p.Ops); err != nil {
		return err
	}
	if p.Limit < 0 {
		return fmt.Errorf("%s: limit must be non-negative, got %d", prefix, p.Limit)
	}
	if p.StaggerMs < 0 {
		return fmt.Errorf("%s: stagger_ms must be non-negative, got %d", prefix, p.StaggerMs)
	}
	if p.TimeLimitMs < 0 {
		return fmt.Errorf("%s: time_limit_ms must be non-negative, got %d", prefix, p.TimeLimitMs)
	}
	for i, r := range p.Reserve {
		if r.Workers <= 0 {
			return fmt.Errorf("%s: reserve[%d]: workers must be positive, got %d", prefix, i, r.Workers)
		}
		if len(r.Ops) == 0 {
			return fmt.Errorf("%s: reserve[%d]: at least one op required", prefix, i)
		}
		if err := validateOps(fmt.Sprintf("%s: reserve[%d]", prefix, i), r.Ops); err != nil {
			return err
		}
	}
	if p.Keys != nil && len(p.Reserve) > 0 {
		return fmt.Errorf("%s: keys and reserve cannot be combined", prefix)
	}
	if k := p.Keys; k != nil {
		if k.Count <= 0 {
			return fmt.Errorf("%s: keys.count must be positive, got %d", prefix, k.Count)
		}
		if k.GroupSize <= 0 {
			return fmt.Errorf("%s: keys.group_size must be positive, got %d", prefix, k.GroupSize)
		}
		if k.PerKey <= 0 {
			return fmt.Errorf("%s: keys.per_key must be positive, got %d", prefix, k.PerKey)
		}
	}
	// An op mix repeats forever; something must bound the phase or the
	// run cannot terminate.
	if p.Limit == 0 && p.TimeLimitMs == 0 && p.Keys == nil && !scenarioBounded {
		return fmt.Errorf("%s: unbounded phase; set limit, time_limit_ms or keys", prefix)
	}
	return nil
}

func validateOps(prefix string, ops []OpSpec) error {
	for i, op := range ops {
		if op.F == "" {
			return fmt.Errorf("%s: ops[%d]: f is required", prefix, i)
		}
		if op.Weight < 0 {
			return fmt.Errorf("%s: ops[%d]: weight must be non-negative, got %d", prefix, i, op.Weight)
		}
	}
	return nil
}
