package sample

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MaxSubcorpusSize caps a single draw to bound per-round memory. Larger
// draws are rejected and redrawn.
const MaxSubcorpusSize = 100000

// Config controls when the sampling loop stops.
type Config struct {
	// MaxRate stops the loop once the measured number of new alignments
	// per second drops to this value or below. Negative means run until
	// timeout or cancellation.
	MaxRate int
	// Timeout bounds the loop's wall-clock time; negative means no
	// timeout, zero stops before the first round. Checked once per
	// round, not preemptively.
	Timeout time.Duration
}

// Stats summarizes one sampling loop.
type Stats struct {
	Rounds      int
	SizeSum     int
	SizeTwo     int // draws of size 2, input to the boundary corrections
	Interrupted bool
}

// ExtractFunc runs one extraction round over the given subcorpus-local
// line ids with the given frequency weight.
type ExtractFunc func(lineIDs []int, weight int) error

// Run executes the main sampling loop over a loaded subcorpus of
// numLines lines, then the two boundary-correction passes. total must
// report the running count of distinct alignments, which feeds the
// rolling rate measurement. Cancellation is cooperative: the context is
// checked between rounds, and a cancelled loop still runs the
// corrections so partial results stay statistically consistent.
func Run(ctx context.Context, rng *rand.Rand, numLines int, cfg Config,
	total func() int, extract ExtractFunc, logger *slog.Logger) (Stats, error) {

	var stats Stats
	dist := sizeDistribution(numLines)

	start := time.Now()
	lastMeasure := start
	prevTotal := total()

loop:
	for {
		select {
		case <-ctx.Done():
			stats.Interrupted = true
			logger.Info("alignment interrupted, proceeding",
				"rounds", stats.Rounds, "alignments", total())
			break loop
		default:
		}

		now := time.Now()
		if cfg.Timeout >= 0 && now.Sub(start) >= cfg.Timeout {
			break
		}
		if elapsed := now.Sub(lastMeasure); stats.Rounds >= 1 && elapsed >= time.Second {
			rate := int(math.Ceil(float64(total()-prevTotal) / elapsed.Seconds()))
			logger.Info("aligning",
				"rounds", stats.Rounds,
				"avg_size", float64(stats.SizeSum)/float64(stats.Rounds),
				"alignments", total(),
				"rate", rate)
			prevTotal = total()
			lastMeasure = now
			if cfg.MaxRate >= 0 && rate <= cfg.MaxRate {
				break
			}
		}

		size := dist.Next(rng)
		for size > MaxSubcorpusSize {
			size = dist.Next(rng)
		}
		if size == 2 {
			stats.SizeTwo++
		}
		stats.Rounds++
		stats.SizeSum += size
		if err := extract(drawLines(rng, numLines, size), 1); err != nil {
			return stats, err
		}
	}

	if err := corrections(rng, numLines, stats.SizeTwo, extract); err != nil {
		return stats, err
	}
	return stats, nil
}

// corrections represents the subcorpus sizes 1 and numLines that the
// main distribution excludes. Their weights derive from the observed
// count of size-2 draws; the fractional part of each weight is rounded
// stochastically so the expectation is preserved.
func corrections(rng *rand.Rand, numLines, sizeTwo int, extract ExtractFunc) error {
	if numLines <= 2 || sizeTwo == 0 {
		return nil
	}
	n := float64(numLines)
	base := 2 * float64(sizeTwo) * math.Log(1-2/(n+1))
	weight1 := base / (n * math.Log(1-1/(n+1)))
	weightN := base / (n * math.Log(1-n/(n+1)))

	if weight1 != 0 {
		frac, whole := math.Modf(weight1)
		for i := 0; i < numLines; i++ {
			w := int(whole)
			if rng.Float64() < frac {
				w++
			}
			if w > 0 {
				if err := extract([]int{i}, w); err != nil {
					return err
				}
			}
		}
	}
	if weightN != 0 {
		frac, whole := math.Modf(weightN)
		w := int(whole)
		if rng.Float64() < frac {
			w++
		}
		if w > 0 {
			all := make([]int, numLines)
			for i := range all {
				all[i] = i
			}
			if err := extract(all, w); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawLines samples k distinct line ids from [0, n) and returns them in
// ascending order.
func drawLines(rng *rand.Rand, n, k int) []int {
	if k >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	var sel []int
	if k > n/4 {
		sel = rng.Perm(n)[:k]
	} else {
		seen := make(map[int]struct{}, k)
		sel = make([]int, 0, k)
		for len(sel) < k {
			v := rng.Intn(n)
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			sel = append(sel, v)
		}
	}
	sort.Ints(sel)
	return sel
}
