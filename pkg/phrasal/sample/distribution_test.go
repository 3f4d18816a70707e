package sample

import (
	"math/rand"
	"testing"
)

func TestDistributionBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dist := NewDistribution(func(k int) float64 { return 1 / float64(k) }, 3, 9)
	for i := 0; i < 1000; i++ {
		v := dist.Next(rng)
		if v < 3 || v > 9 {
			t.Fatalf("draw %d outside [3, 9]", v)
		}
	}
}

func TestDistributionSkew(t *testing.T) {
	// 1/k weighting should draw small values much more often than large.
	rng := rand.New(rand.NewSource(2))
	dist := NewDistribution(func(k int) float64 { return 1 / float64(k) }, 1, 100)
	small, large := 0, 0
	for i := 0; i < 5000; i++ {
		if v := dist.Next(rng); v <= 10 {
			small++
		} else if v > 90 {
			large++
		}
	}
	if small <= large {
		t.Errorf("small draws (%d) not favored over large ones (%d)", small, large)
	}
}

func TestDistributionNegativeWeights(t *testing.T) {
	// A constant sign flip cancels in the normalization; this mirrors the
	// size distribution whose log term is negative.
	rng := rand.New(rand.NewSource(3))
	dist := NewDistribution(func(k int) float64 { return -1 / float64(k) }, 2, 5)
	for i := 0; i < 200; i++ {
		v := dist.Next(rng)
		if v < 2 || v > 5 {
			t.Fatalf("draw %d outside [2, 5]", v)
		}
	}
}

func TestSizeDistributionExcludesEndpoints(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	dist := sizeDistribution(10)
	for i := 0; i < 2000; i++ {
		v := dist.Next(rng)
		if v < 2 || v > 9 {
			t.Fatalf("size %d outside [2, 9] for a 10-line corpus", v)
		}
	}
}

func TestSizeDistributionTinyCorpus(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	dist := sizeDistribution(2)
	for i := 0; i < 200; i++ {
		v := dist.Next(rng)
		if v < 1 || v > 2 {
			t.Fatalf("size %d outside [1, 2] for a 2-line corpus", v)
		}
	}
}
