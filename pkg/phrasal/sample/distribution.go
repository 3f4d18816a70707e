// Package sample drives the randomized subcorpus sampling loop.
package sample

import (
	"math"
	"math/rand"
	"sort"
)

// Distribution draws random integers from a fixed discrete distribution,
// realized as a cumulative table over an integer interval. Each draw
// costs one uniform variate and a binary search.
type Distribution struct {
	cum   []float64
	start int
}

// NewDistribution builds the cumulative table for f over [start, end].
// f(x) must be proportional to the probability of drawing x; a constant
// sign flip cancels out in the normalization.
func NewDistribution(f func(int) float64, start, end int) *Distribution {
	values := make([]float64, end+1-start)
	sum := 0.0
	for i := range values {
		values[i] = f(start + i)
		sum += values[i]
	}
	cum := 0.0
	for i, v := range values {
		cum += v / sum
		values[i] = cum
	}
	return &Distribution{cum: values, start: start}
}

// Next draws one integer according to the distribution.
func (d *Distribution) Next(rng *rand.Rand) int {
	u := rng.Float64()
	i := sort.SearchFloat64s(d.cum, u)
	if i >= len(d.cum) {
		i = len(d.cum) - 1
	}
	return d.start + i
}

// sizeDistribution weights subcorpus sizes by 1/(k·ln(1−k/(n+1))).
// Uniform size sampling would over-represent very short and very long
// phrases; this weighting balances the expected contribution across
// phrase lengths. The endpoints 1 and n are excluded when n > 2 and
// represented afterwards by the boundary corrections.
func sizeDistribution(numLines int) *Distribution {
	f := func(k int) float64 {
		return 1 / (float64(k) * math.Log(1-float64(k)/float64(numLines+1)))
	}
	if numLines > 2 {
		return NewDistribution(f, 2, numLines-1)
	}
	return NewDistribution(f, 1, numLines)
}
