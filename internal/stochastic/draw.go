package stochastic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

var ErrInvalidProbability = errors.New("stochastic: invalid probability vector")

// NewSource returns a PCG source. Replicates of one ensemble share seed and
// differ in stream.
func NewSource(seed, stream uint64) rand.Source {
	return rand.NewPCG(seed, stream)
}

// normalVariance is the binomial variance above which draws come from the
// normal approximation. distuv.Binomial rejection sampling does not
// terminate in reasonable time for populations of order 1e15.
const normalVariance = 1e9

// Binomial draws the number of successes among n trials with probability p.
func Binomial(src rand.Source, n int64, p float64) int64 {
	if n <= 0 || p <= 0 || math.IsNaN(p) {
		return 0
	}
	if p >= 1 {
		return n
	}
	mean := float64(n) * p
	if variance := mean * (1 - p); variance > normalVariance {
		d := distuv.Normal{Mu: mean, Sigma: math.Sqrt(variance), Src: src}
		return clamp(int64(math.Round(d.Rand())), 0, n)
	}
	b := distuv.Binomial{N: float64(n), P: p, Src: src}
	return int64(b.Rand())
}

func clamp(k, lo, hi int64) int64 {
	return min(max(k, lo), hi)
}

// Multinomial splits n trials over the categories in probs by sequential
// conditional binomial draws. When probs sums to less than one the
// remainder is returned as an extra last category.
func Multinomial(src rand.Source, n int64, probs []float64) ([]int64, error) {
	total := 0.0
	for _, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: negative entry %g", ErrInvalidProbability, p)
		}
		total += p
	}
	if total > 1+1e-12 {
		return nil, fmt.Errorf("%w: sums to %g", ErrInvalidProbability, total)
	}

	complete := total >= 1-1e-12
	out := make([]int64, len(probs), len(probs)+1)
	left := n
	mass := 1.0
	for i, p := range probs {
		if left == 0 || mass <= 0 {
			break
		}
		if complete && i == len(probs)-1 {
			out[i] = left
			left = 0
			break
		}
		k := Binomial(src, left, p/mass)
		out[i] = k
		left -= k
		mass -= p
	}
	if !complete {
		out = append(out, left)
	}
	return out, nil
}
