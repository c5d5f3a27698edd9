package runner

import (
	"math/rand"
	"sync"

	"github.com/chaosgen/chaosgen/gen"
)

// Client is the execution layer: for each dispatched invocation it must
// eventually produce exactly one completion with type ok, fail or info,
// on the same process. The runner stamps completion times itself, so
// clients may leave Time zero. Invoke is called concurrently from
// multiple executors and must be safe for concurrent use.
type Client interface {
	Invoke(op gen.Op) gen.Op
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(op gen.Op) gen.Op

func (f ClientFunc) Invoke(op gen.Op) gen.Op { return f(op) }

// OKClient completes every invocation ok. Useful for exercising pure
// scheduling behavior in tests and demos.
func OKClient() Client {
	return ClientFunc(func(op gen.Op) gen.Op {
		op.Type = gen.OK
		return op
	})
}

// SimClient is a seeded fake execution layer: it completes invocations
// ok, fail or info according to the configured ratios. Deterministic for
// a fixed seed and completion order; it performs no I/O.
type SimClient struct {
	mu        sync.Mutex
	rng       *rand.Rand
	failRatio float64
	infoRatio float64
}

// NewSimClient creates a SimClient. failRatio and infoRatio are the
// probabilities of a fail and an info outcome; the remainder completes
// ok.
func NewSimClient(seed int64, failRatio, infoRatio float64) *SimClient {
	return &SimClient{
		rng:       rand.New(rand.NewSource(seed)),
		failRatio: failRatio,
		infoRatio: infoRatio,
	}
}

func (c *SimClient) Invoke(op gen.Op) gen.Op {
	c.mu.Lock()
	roll := c.rng.Float64()
	c.mu.Unlock()
	switch {
	case roll < c.failRatio:
		op.Type = gen.Fail
	case roll < c.failRatio+c.infoRatio:
		op.Type = gen.Info
	default:
		op.Type = gen.OK
	}
	return op
}
