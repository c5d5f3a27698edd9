package cmd

import "github.com/chaosgen/chaosgen/gen/scenario"

// defaultScenario is the workload used when no --scenario file is given:
// a register-style read/write/cas mix followed by a keyed verification
// phase, paced gently so histories stay readable.
func defaultScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Version: "1",
		Seed:    42,
		Phases: []scenario.PhaseSpec{
			{
				Name: "load",
				Ops: []scenario.OpSpec{
					{F: "write", Weight: 2},
					{F: "read", Weight: 2},
					{F: "cas", Weight: 1},
				},
				Limit:     200,
				StaggerMs: 5,
			},
			{
				Name: "verify",
				Ops:  []scenario.OpSpec{{F: "read"}},
				Keys: &scenario.KeysSpec{Count: 10, GroupSize: 1, PerKey: 5},
			},
		},
	}
}
