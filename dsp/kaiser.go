package dsp

import (
	"math"
	"sort"
)

// kaiserAlpha is the Kaiser window shape parameter used throughout this
// decoder (spec fixes alpha = 2.0; KaiserLowPass uses beta = pi*alpha, the
// usual Kaiser convention).
const kaiserAlpha = 2.0

// I0 computes the zeroth-order modified Bessel function of the first kind
// by summing the first 35 terms of its series expansion. Terms are sorted
// ascending before summation for numerical stability (the later terms are
// tiny relative to the first few; summing smallest-first avoids losing
// their contribution to floating-point rounding).
func I0(x float64) float64 {
	const terms = 35
	vals := make([]float64, terms)
	halfX := x / 2
	term := 1.0
	vals[0] = term
	for k := 1; k < terms; k++ {
		term *= (halfX * halfX) / (float64(k) * float64(k))
		vals[k] = term
	}
	sort.Float64s(vals)
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum
}

// sinc returns sin(pi*x)/(pi*x), with sinc(0) = 1.
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// KaiserLowPass designs an odd-length length-L Kaiser-windowed-sinc
// low-pass FIR with cutoff fc at sample rate fs. Grounded on the
// windowed-sinc FIR construction in hacktvlive/sdr/transmitter.go's
// NewLowPassFilterTaps (there a Blackman window; here the Kaiser window and
// I0 the spec calls for), centered so tap index (L-1)/2 is the filter's
// time-zero.
func KaiserLowPass(length int, fc, fs float64) []float64 {
	if length%2 == 0 {
		length++
	}
	taps := make([]float64, length)
	m := float64(length - 1)
	beta := math.Pi * kaiserAlpha
	denom := I0(beta)
	for n := 0; n < length; n++ {
		centered := float64(n) - m/2
		s := sinc(fc * centered * 2 / fs)
		ratio := 2 * centered / m
		w := I0(beta*math.Sqrt(1-ratio*ratio)) / denom
		taps[n] = s * w
	}
	return taps
}

// OddLength rounds n to the nearest integer and forces it odd by setting
// the low bit: round(n) | 1. Used for the spec's recurring
// "length = round(k*Fs) | 1" sizing rule.
func OddLength(n float64) int {
	v := int(math.Round(n))
	return v | 1
}
