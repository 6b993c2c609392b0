package dsp

import "math"

// FMDemod converts successive complex baseband samples into a normalized
// instantaneous-frequency stream expressed in units of the scan-line
// bandwidth B: it computes the wrapped phase difference between this sample
// and the last, scaled by Fs/(B*pi). Grounded on the arg(s[i]*conj(s[i-1]))
// idiom used by FM demodulators throughout the corpus (e.g. a phase-delta
// over consecutive IQ samples), adapted to the normalized-bandwidth-unit
// output this spec's downstream decoders expect.
type FMDemod struct {
	fs, bw  float64
	argPrev float64
	primed  bool
}

// NewFMDemod creates a demodulator for sample rate fs and scan-line
// bandwidth bw (both Hz).
func NewFMDemod(fs, bw float64) *FMDemod {
	return &FMDemod{fs: fs, bw: bw}
}

// Demod feeds one complex baseband sample and returns the normalized
// frequency deviation.
func (f *FMDemod) Demod(s Complex) float64 {
	arg := s.Arg()
	if !f.primed {
		f.argPrev = arg
		f.primed = true
		return 0
	}
	delta := wrapPhase(arg - f.argPrev)
	f.argPrev = arg
	return (f.fs / (f.bw * math.Pi)) * delta
}

// Reset clears the demodulator's phase memory.
func (f *FMDemod) Reset() {
	f.argPrev = 0
	f.primed = false
}

// Normalize converts a tone frequency in Hz into the same normalized units
// FMDemod produces for a baseband mixer centered at centerHz with scan-line
// bandwidth bw: a steady tone at centerHz-bw/2 (black, 1500 Hz in this
// system) normalizes to -1, and centerHz+bw/2 (white, 2300 Hz) to +1,
// matching FMDemod.Demod's own (Fs/(B*pi))*delta derivation for a steady
// input tone.
func Normalize(hz, centerHz, bw float64) float64 {
	return 2 * (hz - centerHz) / bw
}
