package dsp

import "math"

// Phasor is a unit-magnitude complex oscillator driven at a fixed frequency.
// Rotate returns exp(i*theta) for the current phase, then advances the
// phase by 2*pi*f/Fs, wrapped to (-pi, pi]. Used to mix a real signal to
// baseband: multiply the incoming sample by Rotate()'s output.
type Phasor struct {
	freq   float64
	rate   float64
	theta  float64
	delta  float64
}

// NewPhasor creates an oscillator at frequency f Hz and sample rate Fs Hz.
func NewPhasor(f, fs float64) *Phasor {
	return &Phasor{
		freq:  f,
		rate:  fs,
		theta: 0,
		delta: 2 * math.Pi * f / fs,
	}
}

// Rotate returns the oscillator's current value and advances its phase.
func (p *Phasor) Rotate() Complex {
	c := Complex{Re: math.Cos(p.theta), Im: math.Sin(p.theta)}
	p.theta = wrapPhase(p.theta + p.delta)
	return c
}

// Reset zeroes the phase.
func (p *Phasor) Reset() {
	p.theta = 0
}
