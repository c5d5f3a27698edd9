package gen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayTil_GatesEmissionsByInterval(t *testing.T) {
	// GIVEN a delay of 100ns between reads
	d := newSimDriver(t, 2, DelayTil(100*time.Nanosecond, Limit(3, Repeat(Forever, Lit("read", nil)))))

	// First emission is immediate
	op := d.pullOne()
	require.NotNil(t, op)
	require.Equal(t, int64(0), op.Time)
	d.complete(op.Process, OK, 10)

	// WHEN the gap is unmet, the generator is pending, not done
	if got := d.pullOne(); got != nil {
		t.Fatalf("expected pending at t=10, got %v", got)
	}
	require.False(t, d.exhausted)

	// THEN once 100ns have elapsed since the last emission, it fires again
	d.at(100)
	op = d.pullOne()
	require.NotNil(t, op)
	assert.Equal(t, int64(100), op.Time)
}

func TestStagger_SameSeedSameGaps(t *testing.T) {
	build := func() Generator {
		return StaggerSeeded(42, 50*time.Nanosecond, Limit(5, Repeat(Forever, Lit("read", nil))))
	}
	run := func() []int64 {
		d := newSimDriver(t, 1, build())
		var times []int64
		for _, op := range invocations(d.runToExhaustion(7)) {
			times = append(times, op.Time)
		}
		return times
	}

	first := run()
	second := run()
	require.Len(t, first, 5)
	assert.Equal(t, first, second, "same seed must reproduce the same schedule")
}

func TestStagger_GapsVary(t *testing.T) {
	// Exponential draws should not be constant: with a generous horizon,
	// at least two distinct inter-emission gaps must appear.
	d := newSimDriver(t, 1, StaggerSeeded(7, 50*time.Nanosecond, Limit(8, Repeat(Forever, Lit("read", nil)))))
	invs := invocations(d.runToExhaustion(3))
	require.Len(t, invs, 8)
	gaps := map[int64]bool{}
	for i := 1; i < len(invs); i++ {
		gaps[invs[i].Time-invs[i-1].Time] = true
	}
	assert.Greater(t, len(gaps), 1, "randomized pacing should produce varied gaps")
}

func TestSynchronize_WaitsForAllWorkersFree(t *testing.T) {
	// GIVEN worker 0 busy with an earlier operation
	d := newSimDriver(t, 2, Seq(Lit("early", nil), Synchronize(Lit("late", nil))))
	early := d.pullOne()
	require.NotNil(t, early)

	// WHEN the barrier is consulted while the early op is outstanding
	got := d.pullOne()

	// THEN it is pending
	require.Nil(t, got)
	require.False(t, d.exhausted, "barrier must be pending, not done")

	// AND it releases once every worker is free again
	d.complete(early.Process, OK, 50)
	late := d.pullOne()
	require.NotNil(t, late)
	assert.Equal(t, "late", late.F)
	assert.GreaterOrEqual(t, late.Time, int64(50), "barrier op must start after the completion")
}

func TestTimeLimit_StopsOfferingAfterWindow(t *testing.T) {
	// GIVEN an unbounded workload boxed to 100ns
	d := newSimDriver(t, 1, TimeLimit(100*time.Nanosecond, Repeat(Forever, Lit("read", nil))))

	// WHEN run past the window
	op := d.pullOne()
	require.NotNil(t, op)
	d.complete(op.Process, OK, 30)
	op = d.pullOne()
	require.NotNil(t, op)
	d.complete(op.Process, OK, 130)

	// THEN no further operations are offered and the tree is done
	assert.Nil(t, d.pullOne())
	assert.True(t, d.exhausted, "time limit must be permanent exhaustion")
}

func TestTimeLimit_MeasuresFromOwnActivation(t *testing.T) {
	// GIVEN a time-boxed phase that activates only at t=1000
	d := newSimDriver(t, 1, Seq(
		Lit("first", nil),
		TimeLimit(100*time.Nanosecond, Repeat(Forever, Lit("boxed", nil))),
	))
	op := d.pullOne()
	require.NotNil(t, op)
	d.complete(op.Process, OK, 1000)

	// WHEN the boxed phase starts late
	op = d.pullOne()
	require.NotNil(t, op)
	require.Equal(t, "boxed", op.F)
	d.complete(op.Process, OK, 1050)

	// THEN its window is measured from its own activation, not t=0
	op = d.pullOne()
	require.NotNil(t, op, "window [1000,1100) should still be open at 1050")
	d.complete(op.Process, OK, 1100)
	assert.Nil(t, d.pullOne())
	assert.True(t, d.exhausted)
}

func TestTimingValidation(t *testing.T) {
	assert.Error(t, Validate(TimeLimit(0, Lit("x", nil))))
	assert.Error(t, Validate(Stagger(0, Lit("x", nil))))
	assert.NoError(t, Validate(DelayTil(0, Lit("x", nil))))
}
