package runner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_FirstDeliveryWins(t *testing.T) {
	p := NewPromise()

	_, ok := p.TryGet()
	assert.False(t, ok, "unset promise must not report a value")

	require.True(t, p.Deliver("first"))
	require.False(t, p.Deliver("second"))

	v, ok := p.TryGet()
	require.True(t, ok)
	assert.Equal(t, "first", v)
	assert.Equal(t, "first", p.Await())
}

func TestPromise_AwaitWakesAllWaiters(t *testing.T) {
	p := NewPromise()

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Await()
		}(i)
	}

	p.Deliver(42)
	wg.Wait()
	for i, v := range results {
		assert.Equalf(t, 42, v, "waiter %d saw wrong value", i)
	}
}
