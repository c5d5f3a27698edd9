package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit_ExactlyNInvocationsFromUnboundedChild(t *testing.T) {
	// GIVEN an unbounded child capped at 7
	d := newSimDriver(t, 3, Limit(7, Repeat(Forever, Lit("read", nil))))

	// WHEN run to exhaustion
	history := d.runToExhaustion(10)

	// THEN exactly 7 invocations were produced
	if got := len(invocations(history)); got != 7 {
		t.Errorf("limit emissions: got %d, want 7", got)
	}
}

func TestLimit_ZeroIsImmediatelyDone(t *testing.T) {
	op, succ := Limit(0, Lit("read", nil)).Next(nil, NewContext(1))
	if op != nil || succ != nil {
		t.Errorf("Limit(0) should be done, got %v/%v", op, succ)
	}
}

func TestLimit_NegativeBoundFailsValidation(t *testing.T) {
	err := Validate(Limit(-1, Lit("read", nil)))
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLimit_FinalOpEventsStillReachSubtree(t *testing.T) {
	// GIVEN a one-shot limit over an observed subtree
	var seen []EventType
	hook := func(g Generator, cfg Config, ctx *Context, ev Op) {
		seen = append(seen, ev.Type)
	}
	d := newSimDriver(t, 1, Limit(1, OnUpdate(hook, Repeat(Forever, Lit("a", nil)))))
	d.runToExhaustion(10)

	// The final emission must keep the subtree reachable: both its invoke
	// and its completion route through the spent limit.
	assert.Equal(t, []EventType{Invoke, OK}, seen)
}

func TestRepeat_CyclesChildNTimes(t *testing.T) {
	// GIVEN a two-op sequence cycled 3 times
	d := newSimDriver(t, 1, Repeat(3, Seq(Lit("a", nil), Lit("b", nil))))

	history := d.runToExhaustion(10)
	invs := invocations(history)
	require.Len(t, invs, 6)
	want := []string{"a", "b", "a", "b", "a", "b"}
	for i, op := range invs {
		assert.Equal(t, want[i], op.F, "cycle order at %d", i)
	}
}

func TestRepeat_EmptyPrototypeTerminates(t *testing.T) {
	op, succ := Repeat(Forever, Nothing()).Next(nil, NewContext(1))
	if op != nil || succ != nil {
		t.Error("an immediately-exhausted prototype must end the cycle, not spin")
	}
}

func TestFilter_SkipsRejectedEmissions(t *testing.T) {
	seq := Seq(Lit("keep", 1), Lit("drop", 2), Lit("keep", 3))
	d := newSimDriver(t, 1, Filter(func(op *Op) bool { return op.F == "keep" }, seq))

	invs := invocations(d.runToExhaustion(10))
	require.Len(t, invs, 2)
	assert.Equal(t, 1, invs[0].Value)
	assert.Equal(t, 3, invs[1].Value)
}

func TestFMap_RewritesTagsAndInvertsOnUpdate(t *testing.T) {
	// GIVEN an UntilOk child whose tag is rewritten on the way out
	table := map[string]string{"setup": "create-table"}
	d := newSimDriver(t, 1, FMap(table, UntilOk(Repeat(Forever, Lit("setup", nil)))))

	// WHEN the rewritten invocation completes ok
	op := d.pullOne()
	require.NotNil(t, op)
	assert.Equal(t, "create-table", op.F, "emission should carry the rewritten tag")
	d.complete(op.Process, OK, 10)

	// THEN the child saw the completion under its own vocabulary and
	// stopped retrying
	assert.Nil(t, d.pullOne())
	assert.True(t, d.exhausted)
}

func TestFMap_UnknownTagPanicsWithConfigError(t *testing.T) {
	g := FMap(map[string]string{"other": "x"}, Lit("read", nil))
	defer func() {
		r := recover()
		require.NotNil(t, r, "unknown tag must fail loudly at first use")
		_, ok := r.(*ConfigError)
		assert.True(t, ok, "panic payload should be a *ConfigError, got %T", r)
	}()
	g.Next(nil, NewContext(1))
}

func TestFMap_NonInvertibleTableFailsValidation(t *testing.T) {
	g := FMap(map[string]string{"a": "x", "b": "x"}, Lit("a", nil))
	err := Validate(g)
	require.Error(t, err)
}

func TestLog_EmitsNothingThenDone(t *testing.T) {
	d := newSimDriver(t, 1, Seq(Log("starting workload"), Lit("read", nil)))
	invs := invocations(d.runToExhaustion(10))
	require.Len(t, invs, 1, "Log must not produce an invocation")
	assert.Equal(t, "read", invs[0].F)
}

func TestOnUpdate_HookSeesEveryAbsorbedEvent(t *testing.T) {
	// GIVEN a hook counting events by type
	counts := map[EventType]int{}
	hook := func(g Generator, cfg Config, ctx *Context, ev Op) {
		counts[ev.Type]++
	}
	d := newSimDriver(t, 1, OnUpdate(hook, Limit(2, Repeat(Forever, Lit("w", nil)))))

	// WHEN two invocations run and complete
	d.runToExhaustion(10)

	// THEN the hook observed both invokes and both completions
	assert.Equal(t, 2, counts[Invoke])
	assert.Equal(t, 2, counts[OK])
}

func TestOnUpdate_HookSeesTrailingCompletionOfFinalOp(t *testing.T) {
	var sawOK bool
	hook := func(g Generator, cfg Config, ctx *Context, ev Op) {
		if ev.Type == OK {
			sawOK = true
		}
	}
	d := newSimDriver(t, 1, OnUpdate(hook, Lit("only", nil)))
	op := d.pullOne()
	require.NotNil(t, op)
	d.complete(op.Process, OK, 5)
	assert.True(t, sawOK, "hook must observe the completion of the final emission")
}
