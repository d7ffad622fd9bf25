package ridemap

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// Source supplies uniform floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 {
	// #nosec G404
	return rand.Float64()
}

// RandomSource returns an unseeded source backed by the runtime's global
// generator. It is safe for concurrent use.
func RandomSource() Source { return globalSource{} }

// SeededSource returns a deterministic source for seed. The returned source is
// not safe for concurrent use.
func SeededSource(seed int64) Source {
	// Non-cryptographic PRNG is intentional for reproducible courses.
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}

// unit clamps a source draw into [0, 1) so a misbehaving fake cannot index
// past a table.
func unit(src Source) float64 {
	u := src.Float64()
	if u < 0 {
		return 0
	}
	if u >= 1 {
		return 0.9999999999
	}
	return u
}

// pick returns an index chosen by weighted selection.
func pick(src Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := unit(src) * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
