// Package sync detects SSTV sync pulses in an FM-demodulated audio stream:
// it mixes the incoming real samples to complex baseband, low-pass filters
// and FM-demodulates them into a normalized frequency stream, and
// classifies sustained 1200 Hz dwells into 5/9/20 ms sync pulses via a
// Schmitt-trigger-driven pulse-width counter.
//
// Grounded on rtl_tv/decoder/decoder.go's sync state machine (there a
// vSyncState/serration counter distinguishing H-sync from V-sync by pulse
// count; here a Schmitt-trigger counter distinguishing 5/9/20 ms pulses by
// sample count) and on the SchmittTrigger-over-envelope pattern in
// other_examples' CW decoder.
package sync

import "sstvreceiver/dsp"

// Fixed tone constants, in Hz.
const (
	SyncHz   = 1200.0
	BlackHz  = 1500.0
	WhiteHz  = 2300.0
	CenterHz = 1900.0 // baseband mixer center, midpoint of 1000-2800 Hz band
	Bandwidth = 800.0  // B: distance between black and white tones
)

// Width is the classified duration of a detected sync pulse.
type Width int

const (
	WidthNone Width = iota
	Width5ms
	Width9ms
	Width20ms
)

// Event is an ephemeral sync-pulse detection, positioned within the block
// that was just processed.
type Event struct {
	Width          Width
	SampleOffset   int // index within the processed block
	FreqOffset     float64
}

// Detector converts real audio into FM-demodulated frequency values and
// classifies 1200 Hz dwells into sync pulses.
type Detector struct {
	fs float64

	mixer *dsp.Phasor
	fir   *dsp.ComplexFIR
	demod *dsp.FMDemod

	sma   *dsp.SimpleMovingAverage
	delay *dsp.Delay
	trig  *dsp.SchmittTrigger

	counter        int
	lastState      bool
	pipelineDelay  int

	normSync float64
	freqTolerance float64

	t1, t2, t3, t4 int // classification thresholds, in samples
}

// New creates a sync detector for sample rate fs Hz.
func New(fs float64) *Detector {
	firLen := dsp.OddLength(0.002 * fs)
	cutoff := (2800.0 - 1000.0) / 2.0
	taps := dsp.KaiserLowPass(firLen, cutoff, fs)

	smaLen := dsp.OddLength(0.0025 * fs)

	d := &Detector{
		fs:    fs,
		mixer: dsp.NewPhasor(-CenterHz, fs),
		fir:   dsp.NewComplexFIR(taps),
		demod: dsp.NewFMDemod(fs, Bandwidth),
		sma:   dsp.NewSimpleMovingAverage(smaLen),
		delay: dsp.NewDelay(smaLen),
		trig: dsp.NewSchmittTrigger(
			dsp.Normalize(1275, CenterHz, Bandwidth),
			dsp.Normalize(1350, CenterHz, Bandwidth),
		),
		pipelineDelay: (firLen-1)/2 + smaLen,
		normSync:      dsp.Normalize(SyncHz, CenterHz, Bandwidth),
		freqTolerance: 50 * 2 / Bandwidth,
		t1:            int(0.0025 * fs),
		t2:            int(0.0070 * fs),
		t3:            int(0.0145 * fs),
		t4:            int(0.0250 * fs),
	}
	return d
}

// ProcessBlock runs the detector across block, writing the per-sample
// normalized FM-demodulated frequency into out (which must be at least
// len(block) long), and returns the last accepted sync event observed in
// the block, if any. Only one event is ever returned per call; the caller
// is expected to debounce across calls (spec: two syncs within 100 ms
// collapse to the earlier one).
func (d *Detector) ProcessBlock(block []float32, out []float64) (Event, bool) {
	var (
		ev    Event
		found bool
	)

	for i, sample := range block {
		in := dsp.Complex{Re: float64(sample)}
		baseband := in.Mul(d.mixer.Rotate())
		baseband = d.fir.Push(baseband)
		freqVal := d.demod.Demod(baseband)
		out[i] = freqVal

		smaOut := d.sma.Push(freqVal)
		delayedFreq := d.delay.Push(freqVal)
		newState := d.trig.Update(smaOut)

		if !newState {
			d.counter++
		}

		if newState && !d.lastState {
			width := d.classify(d.counter)
			if width != WidthNone && d.freqValid(delayedFreq) {
				offset := i - d.pipelineDelay
				if offset < 0 {
					offset = 0
				}
				ev = Event{
					Width:        width,
					SampleOffset: offset,
					FreqOffset:   delayedFreq - d.normSync,
				}
				found = true
			}
			d.counter = 0
		}
		d.lastState = newState
	}

	return ev, found
}

func (d *Detector) classify(counter int) Width {
	switch {
	case counter >= d.t1 && counter < d.t2:
		return Width5ms
	case counter >= d.t2 && counter < d.t3:
		return Width9ms
	case counter >= d.t3 && counter <= d.t4:
		return Width20ms
	default:
		return WidthNone
	}
}

func (d *Detector) freqValid(delayedFreq float64) bool {
	diff := delayedFreq - d.normSync
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.freqTolerance
}

// Reset clears all filter/latch state so the detector behaves as if newly
// constructed, without reallocating its filter taps.
func (d *Detector) Reset() {
	d.mixer.Reset()
	d.fir.Reset()
	d.demod.Reset()
	d.sma.Reset()
	d.delay.Reset()
	d.trig.Reset()
	d.counter = 0
	d.lastState = false
}
