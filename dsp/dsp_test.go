package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplexMul(t *testing.T) {
	a := Complex{Re: 1, Im: 2}
	b := Complex{Re: 3, Im: 4}
	got := a.Mul(b)
	assert.InDelta(t, -5, got.Re, 1e-9)
	assert.InDelta(t, 10, got.Im, 1e-9)
}

func TestComplexArgConj(t *testing.T) {
	c := Complex{Re: 0, Im: 1}
	assert.InDelta(t, math.Pi/2, c.Arg(), 1e-9)
	assert.InDelta(t, -1, c.Conj().Im, 1e-9)
}

func TestPhasorUnitMagnitude(t *testing.T) {
	p := NewPhasor(1000, 48000)
	for i := 0; i < 1000; i++ {
		c := p.Rotate()
		mag := math.Hypot(c.Re, c.Im)
		assert.InDelta(t, 1, mag, 1e-9)
	}
}

func TestPhasorWrapsPhase(t *testing.T) {
	p := NewPhasor(20000, 48000)
	for i := 0; i < 10000; i++ {
		p.Rotate()
	}
	assert.LessOrEqual(t, p.theta, math.Pi)
	assert.Greater(t, p.theta, -math.Pi)
}

func TestFMDemodSteadyTone(t *testing.T) {
	fs, bw, fc := 48000.0, 800.0, 1900.0
	toneHz := 2300.0 // white
	bb := NewPhasor(toneHz-fc, fs)
	demod := NewFMDemod(fs, bw)
	var last float64
	for i := 0; i < 2000; i++ {
		last = demod.Demod(bb.Rotate())
	}
	assert.InDelta(t, 1.0, last, 0.01)
}

func TestFMDemodBlackTone(t *testing.T) {
	fs, bw, fc := 48000.0, 800.0, 1900.0
	bb := NewPhasor(1500-fc, fs)
	demod := NewFMDemod(fs, bw)
	var last float64
	for i := 0; i < 2000; i++ {
		last = demod.Demod(bb.Rotate())
	}
	assert.InDelta(t, -1.0, last, 0.01)
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, -1, Normalize(1500, 1900, 800), 1e-9)
	assert.InDelta(t, 1, Normalize(2300, 1900, 800), 1e-9)
}

func TestSimpleMovingAverageRamp(t *testing.T) {
	sma := NewSimpleMovingAverage(4)
	assert.Equal(t, 1.0, sma.Push(1))
	assert.Equal(t, 1.5, sma.Push(2))
	assert.InDelta(t, 2.0, sma.Push(3), 1e-9)
	assert.InDelta(t, 2.5, sma.Push(4), 1e-9)
	assert.InDelta(t, 3.5, sma.Push(5), 1e-9) // window slides: (2+3+4+5)/4
}

func TestDelayLine(t *testing.T) {
	d := NewDelay(3)
	assert.Equal(t, 0.0, d.Push(1))
	assert.Equal(t, 0.0, d.Push(2))
	assert.Equal(t, 0.0, d.Push(3))
	assert.Equal(t, 1.0, d.Push(4))
	assert.Equal(t, 2.0, d.Push(5))
}

func TestSchmittTriggerHysteresis(t *testing.T) {
	s := NewSchmittTrigger(0.4, 0.6)
	assert.False(t, s.State())
	assert.False(t, s.Update(0.5)) // inside band, holds
	assert.True(t, s.Update(0.7))  // above hi -> true
	assert.True(t, s.Update(0.5))  // inside band, holds true
	assert.False(t, s.Update(0.3)) // below lo -> false
}

func TestKaiserLowPassOddSymmetric(t *testing.T) {
	taps := KaiserLowPass(10, 900, 44100)
	require.Equal(t, 11, len(taps))
	for i := 0; i < len(taps)/2; i++ {
		assert.InDelta(t, taps[i], taps[len(taps)-1-i], 1e-9)
	}
}

func TestOddLength(t *testing.T) {
	assert.Equal(t, 1, OddLength(0.4)%2)
	assert.Equal(t, 1, OddLength(88.2)%2)
	assert.Equal(t, 9, OddLength(9.4))
}

func TestI0Monotonic(t *testing.T) {
	assert.Less(t, I0(0), I0(1))
	assert.Less(t, I0(1), I0(2))
	assert.InDelta(t, 1.0, I0(0), 1e-9)
}

func TestGoertzelMagnitudeGrowsWithCycles(t *testing.T) {
	fs, f := 8000.0, 1000.0
	g := NewGoertzel(f, fs)
	var mags []float64
	n := 200
	for i := 0; i < n; i++ {
		g.Push(math.Sin(2 * math.Pi * f * float64(i) / fs))
		if i > 0 && i%20 == 0 {
			mags = append(mags, g.Magnitude())
		}
	}
	for i := 1; i < len(mags); i++ {
		assert.Greater(t, mags[i], mags[i-1])
	}
}

func TestComplexFIRPassesDC(t *testing.T) {
	taps := []float64{0.25, 0.5, 0.25}
	f := NewComplexFIR(taps)
	var out Complex
	for i := 0; i < 10; i++ {
		out = f.Push(Complex{Re: 1, Im: 0})
	}
	assert.InDelta(t, 1.0, out.Re, 1e-9)
}

func TestExponentialMovingAverageConverges(t *testing.T) {
	e := NewExponentialMovingAverage(320, 48000, 2)
	var y float64
	for i := 0; i < 10000; i++ {
		y = e.Avg(1.0)
	}
	assert.InDelta(t, 1.0, y, 1e-6)
}
