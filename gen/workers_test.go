package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOn_RestrictsEmissionsToSet(t *testing.T) {
	// GIVEN a workload bound to workers {2,3}
	d := newSimDriver(t, 4, On(Workers(2, 3), Limit(6, Repeat(Forever, Lit("w", nil)))))

	// WHEN run to exhaustion
	invs := invocations(d.runToExhaustion(10))

	// THEN every invocation lands on a process bound to workers 2 or 3
	require.Len(t, invs, 6)
	for _, op := range invs {
		if op.Process != 2 && op.Process != 3 {
			t.Errorf("invocation on process %d, want only processes of workers 2,3", op.Process)
		}
	}
}

func TestOn_PendingWhenNoEligibleWorkerFree(t *testing.T) {
	ctx := NewContext(3).WithBusy(1)
	op, succ := On(Workers(1), Lit("w", nil)).Next(nil, ctx)
	require.Nil(t, op)
	require.NotNil(t, succ, "no eligible free worker must be pending, not done")
}

func TestClients_NeverSchedulesOnNemesis(t *testing.T) {
	d := newSimDriver(t, 2, Clients(Limit(10, Repeat(Forever, Lit("r", nil)))))
	invs := invocations(d.runToExhaustion(10))
	require.Len(t, invs, 10)
	for _, op := range invs {
		assert.NotEqual(t, NemesisProcess, op.Process, "client workload reached the nemesis")
	}
}

func TestEachWorker_ReplicatesPerWorkerWithIndependentProgress(t *testing.T) {
	// GIVEN the sequence [a b] replicated per worker at concurrency 2
	d := newSimDriver(t, 2, EachWorker(Seq(Lit("a", nil), Lit("b", nil))))

	// WHEN every ready op is pulled at time 0
	first := d.pullAll()

	// THEN each worker (nemesis included) invokes "a" at time 0
	require.Len(t, first, 3)
	for _, op := range first {
		assert.Equal(t, "a", op.F)
		assert.Equal(t, int64(0), op.Time)
	}

	// WHEN the a's complete at different times, slowest at 80
	procs := d.outstandingProcs()
	require.Len(t, procs, 3)
	d.complete(procs[0], OK, 40)
	d.complete(procs[1], OK, 60)
	d.complete(procs[2], OK, 80)

	// THEN all b's are stamped at the slowest completion time
	second := d.pullAll()
	require.Len(t, second, 3)
	for _, op := range second {
		assert.Equal(t, "b", op.F)
		assert.Equal(t, int64(80), op.Time)
	}

	// AND each worker saw exactly two invocations overall
	d.completeAll(OK, 90)
	require.True(t, d.exhausted || d.pullOne() == nil)
	perProc := map[Process]int{}
	for _, op := range invocations(d.history) {
		perProc[op.Process]++
	}
	require.Len(t, perProc, 3)
	for p, n := range perProc {
		assert.Equal(t, 2, n, "process %d", p)
	}
}

func TestEachWorker_WorkerAdvancesOnlyOnOwnEvents(t *testing.T) {
	// GIVEN per-worker sequences at concurrency 2
	d := newSimDriver(t, 2, EachWorker(Seq(Lit("a", nil), Lit("b", nil))))
	d.pullAll()

	// WHEN only worker 0's a completes
	d.complete(0, OK, 50)

	// THEN only worker 0 is offered its b
	next := d.pullAll()
	require.Len(t, next, 1)
	assert.Equal(t, Process(0), next[0].Process)
	assert.Equal(t, "b", next[0].F)
}

func TestProcessLimit_StopsAtDistinctProcessBudget(t *testing.T) {
	// GIVEN an unbounded workload allowed to touch 2 distinct processes
	d := newSimDriver(t, 3, ProcessLimit(2, Repeat(Forever, Lit("r", nil))))

	// WHEN ops are pulled and completed with an info (crash) outcome,
	// which reassigns the worker to a fresh process
	op1 := d.pullOne()
	require.NotNil(t, op1)
	d.complete(op1.Process, Info, 10)

	op2 := d.pullOne()
	require.NotNil(t, op2)
	d.complete(op2.Process, Info, 20)

	// THEN the third emission would touch a third distinct process, so
	// the generator is done instead
	assert.Nil(t, d.pullOne())
	assert.True(t, d.exhausted)

	seen := map[Process]bool{}
	for _, op := range invocations(d.history) {
		seen[op.Process] = true
	}
	assert.Len(t, seen, 2)
}

func TestProcessLimit_SameProcessDoesNotConsumeBudget(t *testing.T) {
	// Repeated invocations on one stable process stay within a budget of 1.
	d := newSimDriver(t, 1, ProcessLimit(1, Limit(5, Repeat(Forever, Lit("r", nil)))))
	invs := invocations(d.runToExhaustion(10))
	assert.Len(t, invs, 5)
}
