package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k|^2 of the mean-removed series for k < n/2.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		a := cmplx.Abs(coeffs[i])
		ps[i] = a * a
	}
	return ps
}

// DominantPeriod is the period of the strongest non-zero frequency in a
// series sampled every dt, e.g. the spacing of recurrent stochastic
// outbreaks sustained by external infection.
func DominantPeriod(series []float64, dt float64) (float64, error) {
	if len(series) < 4 {
		return 0, fmt.Errorf("%w: need at least 4 samples, got %d", ErrTooFewPoints, len(series))
	}
	ps := PowerSpectrum(series)
	k := floats.MaxIdx(ps[1:]) + 1
	if ps[k] == 0 {
		return 0, fmt.Errorf("%w: series is constant", ErrTooFewPoints)
	}
	return float64(len(series)) * dt / float64(k), nil
}
