// Package emaband computes an incremental multi-span EMA vector and the
// band it defines ([min(EMAs), max(EMAs)]). Grounded on
// pkg/strategy/strategy.go's TechnicalIndicators EMA helpers in the
// teacher, generalized from a fixed single-span EMA to the spec's
// arbitrary span vector, and on original_source/njit_funcs.py's
// calc_emas/calc_emas_last for warm-up seeding.
package emaband

import "math"

// Engine holds the alpha coefficients and running EMA values for a
// vector of spans (expressed in samples, already rescaled from minutes
// by the caller).
type Engine struct {
	spans  []float64
	alphas []float64
	emas   []float64
	seeded bool
}

// New creates an Engine for the given spans (in sample units).
func New(spans []float64) *Engine {
	alphas := make([]float64, len(spans))
	for i, s := range spans {
		alphas[i] = 2 / (s + 1)
	}
	return &Engine{
		spans:  append([]float64(nil), spans...),
		alphas: alphas,
		emas:   make([]float64, len(spans)),
	}
}

// Seed warms up the EMA vector from the first ceil(max(spans)) samples
// of a price series, mirroring the Python original's calc_emas_last.
func (e *Engine) Seed(prices []float64) {
	n := int(math.Ceil(maxSpan(e.spans)))
	if n > len(prices) {
		n = len(prices)
	}
	for i := range e.emas {
		if n == 0 {
			e.emas[i] = 0
			continue
		}
		e.emas[i] = prices[0]
	}
	for i := 0; i < n; i++ {
		e.Update(prices[i])
	}
	e.seeded = true
}

func maxSpan(spans []float64) float64 {
	m := 0.0
	for _, s := range spans {
		if s > m {
			m = s
		}
	}
	return m
}

// Update applies one new price sample (including zero-qty heartbeats)
// to every span's EMA.
func (e *Engine) Update(price float64) {
	for i, a := range e.alphas {
		if !e.seeded && e.emas[i] == 0 {
			e.emas[i] = price
		}
		e.emas[i] = e.emas[i]*(1-a) + price*a
	}
}

// Values returns a copy of the current EMA vector.
func (e *Engine) Values() []float64 {
	out := make([]float64, len(e.emas))
	copy(out, e.emas)
	return out
}

// Band returns [min(EMAs), max(EMAs)].
func (e *Engine) Band() (lower, upper float64) {
	if len(e.emas) == 0 {
		return 0, 0
	}
	lower, upper = e.emas[0], e.emas[0]
	for _, v := range e.emas[1:] {
		if v < lower {
			lower = v
		}
		if v > upper {
			upper = v
		}
	}
	return lower, upper
}

// MARatios returns [lastPrice, EMA_0, ..., EMA_{n-2}] / EMAs, element-wise,
// as specified in spec 4.4.
func MARatios(lastPrice float64, emas []float64) []float64 {
	if len(emas) == 0 {
		return nil
	}
	numer := make([]float64, len(emas))
	numer[0] = lastPrice
	for i := 1; i < len(emas); i++ {
		numer[i] = emas[i-1]
	}
	out := make([]float64, len(emas))
	for i := range emas {
		if emas[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = numer[i] / emas[i]
	}
	return out
}
