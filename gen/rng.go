package gen

import (
	"hash/fnv"
	"math"
)

// Randomized combinators (Mix, Stagger) must stay deterministic and
// replayable: given the same starting variant and event sequence they must
// make the same draws. A shared math/rand source would smuggle hidden
// mutable state into the tree, so each combinator instead carries a tiny
// splitmix64 state by value and every draw returns the advanced state
// alongside the result.
//
// Seeds derive the same way the rest of the project derives subsystem
// seeds: a master seed mixed with a 64-bit FNV-1a hash of the combinator's
// label, so two combinators built from the same master seed still draw
// independent streams.

// defaultSeed is the master seed used by the convenience constructors.
// MixSeeded and StaggerSeeded take an explicit one.
const defaultSeed int64 = 0x5eed5eed

type rngState uint64

// newRNG derives an rngState for a labeled combinator from a master seed.
func newRNG(seed int64, label string) rngState {
	s := rngState(uint64(seed) ^ fnv1a64(label))
	// one warm-up step so nearby seeds diverge immediately
	_, s = s.next()
	return s
}

// next advances the splitmix64 state and returns one 64-bit draw.
func (s rngState) next() (uint64, rngState) {
	z := uint64(s) + 0x9e3779b97f4a7c15
	out := z
	out = (out ^ (out >> 30)) * 0xbf58476d1ce4e5b9
	out = (out ^ (out >> 27)) * 0x94d049bb133111eb
	out ^= out >> 31
	return out, rngState(z)
}

// intn draws a uniform integer in [0, n).
func (s rngState) intn(n int) (int, rngState) {
	if n <= 0 {
		panic("gen: intn with non-positive bound")
	}
	v, s2 := s.next()
	return int(v % uint64(n)), s2
}

// float64 draws a uniform float in (0, 1].
func (s rngState) float64() (float64, rngState) {
	v, s2 := s.next()
	f := (float64(v>>11) + 1) / float64(1<<53)
	return f, s2
}

// exp draws from an exponential distribution with the given mean, so a
// stream of such gaps approximates Poisson arrivals.
func (s rngState) exp(mean float64) (float64, rngState) {
	u, s2 := s.float64()
	return -mean * math.Log(u), s2
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(str string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(str))
	return h.Sum64()
}
