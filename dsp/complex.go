// Package dsp provides the numeric building blocks for the SSTV decode
// pipeline: complex arithmetic, an oscillator, an FM demodulator, smoothing
// filters, a hysteresis latch, a windowed-sinc FIR designer, a complex ring
// convolution, and a Goertzel tone detector.
package dsp

import "math"

// Complex is a minimal complex number, kept distinct from complex128 so the
// decode packages can pass it by value without cmplx import churn at every
// call site.
type Complex struct {
	Re, Im float64
}

// Mul returns c*other.
func (c Complex) Mul(other Complex) Complex {
	return Complex{
		Re: c.Re*other.Re - c.Im*other.Im,
		Im: c.Re*other.Im + c.Im*other.Re,
	}
}

// Conj returns the complex conjugate.
func (c Complex) Conj() Complex {
	return Complex{Re: c.Re, Im: -c.Im}
}

// Arg returns atan2(Im, Re).
func (c Complex) Arg() float64 {
	return math.Atan2(c.Im, c.Re)
}

// Add returns c+other.
func (c Complex) Add(other Complex) Complex {
	return Complex{Re: c.Re + other.Re, Im: c.Im + other.Im}
}

// Scale returns c*k for a real scalar k.
func (c Complex) Scale(k float64) Complex {
	return Complex{Re: c.Re * k, Im: c.Im * k}
}

// wrapPhase restricts x to (-pi, pi].
func wrapPhase(x float64) float64 {
	for x > math.Pi {
		x -= 2 * math.Pi
	}
	for x <= -math.Pi {
		x += 2 * math.Pi
	}
	return x
}
