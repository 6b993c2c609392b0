package decode

import "sort"

// PD decodes the PD-family dual-luminance modes (PD120/160/180): one sync
// period carries two luminance channels (even/odd rows) sharing one
// averaged chroma pair, emitting two image rows per call. Grounded on the
// shared "interleaved luma, shared chroma" structure used by
// madpsy-ka9q_ubersdr/audio_extensions/sstv/decoder.go's PD branch.
type PD struct {
	fs      float64
	widthPx int

	k int // samples per channel (Y_even, V, U, Y_odd all share this)

	porchSamples int

	yEvenBegin, vBegin, uBegin, yOddBegin int
	end                                   int
}

// NewPD builds a PD-family decoder for sample rate fs, image width widthPx
// and per-channel duration kMS milliseconds.
func NewPD(fs float64, widthPx int, kMS float64) *PD {
	p := &PD{fs: fs, widthPx: widthPx}

	p.porchSamples = msToSamples(2.08, fs)
	p.k = msToSamples(kMS, fs)

	p.yEvenBegin = p.porchSamples
	p.vBegin = p.yEvenBegin + p.k
	p.uBegin = p.vBegin + p.k
	p.yOddBegin = p.uBegin + p.k
	p.end = p.yOddBegin + p.k

	return p
}

func (p *PD) Begin() int                 { return 0 }
func (p *PD) End() int                   { return p.end }
func (p *PD) FirstSyncPulseSamples() int { return 0 }
func (p *PD) Reset()                     {}

func (p *PD) Decode(buffer []float64, syncIndex int, freqOffset float64) Line {
	if syncIndex+p.end > len(buffer) {
		return Line{Kind: None}
	}

	scratch := extractWindow(buffer, syncIndex, 0, p.end, p.widthPx, p.k, freqOffset)
	yEvenLevels := sampleChannel8(scratch, p.yEvenBegin, p.k, p.widthPx)

	vLevels := sampleChannel8(scratch, p.vBegin, p.k, p.widthPx)
	vLevels = medianFilter5(vLevels)

	uLevels := sampleChannel8(scratch, p.uBegin, p.k, p.widthPx)
	uLevels = medianFilter5(uLevels)

	yOddLevels := sampleChannel8(scratch, p.yOddBegin, p.k, p.widthPx)

	pixels := make([]uint8, 2*p.widthPx*4)
	for x := 0; x < p.widthPx; x++ {
		u8 := desaturate(uLevels[x])
		v8 := desaturate(vLevels[x])

		setPixelYUV(pixels, 0, x, p.widthPx, yEvenLevels[x], u8, v8)
		setPixelYUV(pixels, 1, x, p.widthPx, yOddLevels[x], u8, v8)
	}

	return Line{Kind: Emit, Pixels: pixels, Rows: 2, Width: p.widthPx}
}

// desaturate scales a chroma level's distance from neutral (128) by 0.7,
// per spec §4.3's "desaturated by a factor of 0.7 before YUV->RGB".
func desaturate(level uint8) uint8 {
	return clampU8(128 + int(0.7*(float64(level)-128)))
}

// medianFilter5 applies a 5-tap horizontal median filter, clamping the
// window at the row edges rather than wrapping.
func medianFilter5(levels []uint8) []uint8 {
	n := len(levels)
	out := make([]uint8, n)
	window := make([]uint8, 0, 5)
	for x := 0; x < n; x++ {
		window = window[:0]
		for d := -2; d <= 2; d++ {
			i := x + d
			if i < 0 {
				i = 0
			}
			if i >= n {
				i = n - 1
			}
			window = append(window, levels[i])
		}
		sort.Slice(window, func(a, b int) bool { return window[a] < window[b] })
		out[x] = window[2]
	}
	return out
}
