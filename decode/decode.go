// Package decode turns a slice of normalized FM-demodulated frequency
// values spanning exactly one scan line into image pixels. Each mode gets
// its own decoder; all of them share the same capability set so the
// orchestrator can hold any of them behind one interface, per spec §9's
// "polymorphism over line decoders" note. Grounded on
// madpsy-ka9q_ubersdr/audio_extensions/sstv/decoder.go's per-mode decode
// functions operating on a demodulated sample window.
package decode

import (
	"fmt"
	"math"

	"sstvreceiver/dsp"
	"sstvreceiver/modes"
)

// Kind tags the shape of a decoded line, replacing the original's
// height-0/1/2 numeric convention with an explicit tagged variant (spec
// §9, "Dynamic typing and untagged unions").
type Kind int

const (
	// None: nothing to emit. The window was too short to cover this
	// decoder's [begin,end), or (Robot 36) an odd line arrived with no
	// buffered even line to pair with.
	None Kind = iota
	// Buffered: a Robot-36 even line was consumed and held internally;
	// nothing is emitted yet.
	Buffered
	// Emit: Rows image rows are ready in Pixels.
	Emit
)

// Line is the result of one Decode call.
type Line struct {
	Kind   Kind
	Pixels []uint8 // RGBA, row-major, len == Rows*Width*4
	Rows   int     // 1 or 2 when Kind == Emit
	Width  int
}

// LineDecoder is the capability set every per-mode decoder implements.
// The orchestrator depends on nothing else.
type LineDecoder interface {
	// Decode consumes buffer[syncIndex+Begin : syncIndex+End) and returns
	// the decoded line, or a Line with Kind==None if buffer is too short.
	Decode(buffer []float64, syncIndex int, freqOffset float64) Line
	// FirstSyncPulseSamples is the opening-sequence duration, in samples,
	// that precedes the very first line of a frame. Zero for every mode
	// except Scottie.
	FirstSyncPulseSamples() int
	// Begin and End bound the window, in samples, relative to sync_index
	// ([Begin, End) may start negative, e.g. Scottie).
	Begin() int
	End() int
	Reset()
}

// freqToLevel maps a bidirectionally-smoothed normalized frequency value
// back to a [0,1] level given the sync event's frequency offset.
func freqToLevel(x, freqOffset float64) float64 {
	return 0.5 * (x - freqOffset + 1)
}

// extractWindow runs the common inner loop (spec §4.3) once across the
// decoder's entire [begin,end) window: a forward EMA pass over the raw
// frequency values, then a backward pass over that result applying
// freq_to_level. Running the same one-pole filter in both directions
// doubles its effective order and cancels its phase lag. The returned scratch
// is indexed from 0, corresponding to absolute window position begin;
// sampleChannel8 takes channel offsets relative to begin, not to 0 itself,
// since every channel in a line shares this one pass.
func extractWindow(buffer []float64, syncIndex, begin, end int, widthPx, maxChannelSamples int, freqOffset float64) []float64 {
	n := end - begin
	scratch := make([]float64, n)

	ema := dsp.NewExponentialMovingAverage(float64(widthPx), float64(2*maxChannelSamples), 2)
	ema.Reset()
	for i := 0; i < n; i++ {
		scratch[i] = ema.Avg(buffer[syncIndex+begin+i])
	}

	ema.Reset()
	for i := n - 1; i >= 0; i-- {
		scratch[i] = freqToLevel(ema.Avg(scratch[i]), freqOffset)
	}
	return scratch
}

// sampleChannel8 samples scratch (indexed relative to the window's begin)
// at widthPx evenly spaced positions within one channel's span and scales
// each to an 8-bit level, per spec §4.3 step 5. channelBeginSamples is the
// channel's start offset relative to the window's begin, i.e.
// channel_absolute_begin - begin.
func sampleChannel8(scratch []float64, channelBeginSamples, channelSamples, widthPx int) []uint8 {
	out := make([]uint8, widthPx)
	for c := 0; c < widthPx; c++ {
		idx := channelBeginSamples + c*channelSamples/widthPx
		v := scratch[idx]
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[c] = uint8(math.Round(v * 255))
	}
	return out
}

// msToSamples converts a millisecond duration to an integer sample count.
func msToSamples(ms, fs float64) int {
	return int(math.Round(ms / 1000 * fs))
}

// setPixelYUV converts one Y/U/V triple to RGBA and writes it into row
// `row` of pixels at column x, given an image width of widthPx pixels
// (each pixel is 4 bytes, alpha always opaque).
func setPixelYUV(pixels []uint8, row, x, widthPx int, y, u, v uint8) {
	r, g, b := modes.YUVToRGB(y, u, v)
	setPixelRGB(pixels, row, x, widthPx, r, g, b)
}

// setPixelRGB writes one opaque RGBA pixel into row `row` at column x.
func setPixelRGB(pixels []uint8, row, x, widthPx int, r, g, b uint8) {
	off := (row*widthPx + x) * 4
	pixels[off] = r
	pixels[off+1] = g
	pixels[off+2] = b
	pixels[off+3] = 255
}

// New builds the line decoder for the named mode at sample rate fs. The
// returned error surfaces an unknown mode as a construction-time failure
// (spec §7, "Mode unknown at construction").
func New(name modes.Name, fs float64) (LineDecoder, error) {
	switch name {
	case modes.Robot36:
		return NewRobot36(fs), nil
	case modes.Robot72:
		return NewRobot72(fs), nil
	case modes.ScottieS1:
		return NewScottie(fs), nil
	case modes.PD120:
		return NewPD(fs, 640, 121.6), nil
	case modes.PD160:
		return NewPD(fs, 512, 195.584), nil
	case modes.PD180:
		return NewPD(fs, 640, 182.4), nil
	default:
		return nil, fmt.Errorf("decode: unknown mode %q", name)
	}
}
