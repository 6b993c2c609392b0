package dsp

import "math"

// ExponentialMovingAverage is a one-pole low-pass tuned for a target output
// pixel count: given the number of output pixels (freq) to extract from a
// window sampled at rate over the filter's order, it derives a cutoff
// coefficient alpha such that running the filter forward then backward over
// the same buffer (Decimate twice) yields a zero-phase low-pass of doubled
// effective order.
type ExponentialMovingAverage struct {
	alpha float64
	y     float64
}

// NewExponentialMovingAverage computes alpha from the target output pixel
// count freq, the input sample rate rate, and the filter order.
func NewExponentialMovingAverage(freq, rate float64, order int) *ExponentialMovingAverage {
	x := math.Cos(2 * math.Pi * freq / rate)
	alpha := math.Pow(x-1+math.Sqrt(x*(x-4)+3), 1/float64(order))
	return &ExponentialMovingAverage{alpha: alpha}
}

// Avg feeds one sample and returns the filter's updated output.
func (e *ExponentialMovingAverage) Avg(x float64) float64 {
	e.y = e.y*(1-e.alpha) + e.alpha*x
	return e.y
}

// Reset clears the filter's state to zero so the next Avg call starts fresh.
func (e *ExponentialMovingAverage) Reset() {
	e.y = 0
}
