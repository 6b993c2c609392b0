package decode

// Robot36 decodes Robot 36's interlaced Y/(B-Y),(R-Y) scan lines. Grounded
// on the Robot-36 branch of
// madpsy-ka9q_ubersdr/audio_extensions/sstv/decoder.go, which buffers one
// even field and pairs it with the next odd field to emit two rows.
type Robot36 struct {
	fs float64

	porchSamples                 int
	ySamples, sepSamples         int
	porch2Samples, chromaSamples int

	yBegin, chromaBegin, sepBegin int
	end                           int

	maxChannelSamples int
	widthPx           int

	haveEven   bool
	lastIsEven bool // last accepted even/odd guess, for flip-on-ambiguity
	evenY      []uint8
	evenB      []uint8 // B-Y from the even line's separator/chroma channel
}

// NewRobot36 builds a Robot-36 decoder for sample rate fs. begin_samples()
// is 0: the sync detector's event position already lands right where the
// sync tone ends and the porch begins, so the leading sync(9ms) itself is
// never part of a line decoder's window.
func NewRobot36(fs float64) *Robot36 {
	r := &Robot36{fs: fs, widthPx: 320}

	r.porchSamples = msToSamples(3, fs)
	r.ySamples = msToSamples(88, fs)
	r.sepSamples = msToSamples(4.5, fs)
	r.porch2Samples = msToSamples(1.5, fs)
	r.chromaSamples = msToSamples(44, fs)

	r.yBegin = r.porchSamples
	r.sepBegin = r.yBegin + r.ySamples
	r.chromaBegin = r.sepBegin + r.sepSamples + r.porch2Samples
	r.end = r.chromaBegin + r.chromaSamples

	r.maxChannelSamples = r.ySamples
	r.lastIsEven = true
	return r
}

func (r *Robot36) Begin() int { return 0 }
func (r *Robot36) End() int   { return r.end }

func (r *Robot36) FirstSyncPulseSamples() int { return 0 }

func (r *Robot36) Reset() {
	r.haveEven = false
	r.lastIsEven = true
	r.evenY = nil
	r.evenB = nil
}

func (r *Robot36) Decode(buffer []float64, syncIndex int, freqOffset float64) Line {
	if syncIndex+r.end > len(buffer) {
		return Line{Kind: None}
	}

	scratch := extractWindow(buffer, syncIndex, 0, r.end, r.widthPx, r.maxChannelSamples, freqOffset)
	yLevels := sampleChannel8(scratch, r.yBegin, r.ySamples, r.widthPx)
	chromaLevels := sampleChannel8(scratch, r.chromaBegin, r.chromaSamples, r.widthPx)

	isEven := r.classifySeparator(buffer, syncIndex, freqOffset)

	if isEven {
		r.evenY = yLevels
		r.evenB = chromaLevels
		r.haveEven = true
		return Line{Kind: Buffered}
	}

	if !r.haveEven {
		// Odd line with no buffered even: nothing to pair, drop it.
		return Line{Kind: None}
	}

	pixels := make([]uint8, 2*r.widthPx*4)
	for x := 0; x < r.widthPx; x++ {
		setPixelYUV(pixels, 0, x, r.widthPx, r.evenY[x], r.evenB[x], chromaLevels[x])
		setPixelYUV(pixels, 1, x, r.widthPx, yLevels[x], r.evenB[x], chromaLevels[x])
	}

	r.haveEven = false
	return Line{Kind: Emit, Pixels: pixels, Rows: 2, Width: r.widthPx}
}

// classifySeparator reads the raw separator window and reports whether
// this line is even (B-Y, separator < 0) or odd (R-Y, separator > 0). If
// the separator falls outside the plausible range it flips from the last
// accepted guess rather than guessing fresh (spec §4.3, §7).
func (r *Robot36) classifySeparator(buffer []float64, syncIndex int, freqOffset float64) bool {
	sum := 0.0
	for i := 0; i < r.sepSamples; i++ {
		sum += buffer[syncIndex+r.sepBegin+i]
	}
	sep := sum/float64(r.sepSamples) - freqOffset

	plausible := (sep >= -1.1 && sep <= -0.9) || (sep >= 0.9 && sep <= 1.1)
	if !plausible {
		r.lastIsEven = !r.lastIsEven
		return r.lastIsEven
	}

	r.lastIsEven = sep < 0
	return r.lastIsEven
}

func clampU8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
