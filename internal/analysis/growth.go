package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrTooFewPoints = errors.New("analysis: not enough points")

// GrowthRate estimates the exponential growth rate r of series over
// [from, to] as the slope of a least squares fit of log(series) on time.
// Early in an outbreak I(t) ~ I0*exp(r*t), and for SIR r = beta - gamma.
func GrowthRate(series, times []float64, from, to float64) (float64, error) {
	xs := make([]float64, 0, len(series))
	ys := make([]float64, 0, len(series))
	for k, v := range series {
		if k >= len(times) {
			break
		}
		if times[k] < from || times[k] > to || v <= 0 {
			continue
		}
		xs = append(xs, times[k])
		ys = append(ys, math.Log(v))
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("%w: %d positive samples in [%g, %g]", ErrTooFewPoints, len(xs), from, to)
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope, nil
}

// DoublingTime converts a growth rate into the time for cases to double.
func DoublingTime(rate float64) float64 {
	if rate <= 0 {
		return math.Inf(1)
	}
	return math.Ln2 / rate
}
