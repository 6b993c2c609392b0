package decode

// Robot72 decodes Robot 72's sequential Y,V,U scan lines: every line
// carries a full luminance plus both chroma channels, so each call emits
// exactly one row. Grounded on the Robot-72 branch of
// madpsy-ka9q_ubersdr/audio_extensions/sstv/decoder.go.
type Robot72 struct {
	fs      float64
	widthPx int

	yBegin, vBegin, uBegin int
	ySamples, vSamples, uSamples int
	end int

	maxChannelSamples int
}

// NewRobot72 builds a Robot-72 decoder for sample rate fs. Window begin is
// 0: the sync detector's event position lands at the end of the sync
// tone, where the porch begins (see Robot36's constructor doc comment).
func NewRobot72(fs float64) *Robot72 {
	r := &Robot72{fs: fs, widthPx: 320}

	porch := msToSamples(3, fs)
	r.ySamples = msToSamples(138, fs)
	sep := msToSamples(4.5, fs)
	porch2 := msToSamples(1.5, fs)
	r.vSamples = msToSamples(69, fs)
	r.uSamples = msToSamples(69, fs)

	r.yBegin = porch
	r.vBegin = r.yBegin + r.ySamples + sep + porch2
	r.uBegin = r.vBegin + r.vSamples + sep + porch2
	r.end = r.uBegin + r.uSamples

	r.maxChannelSamples = r.ySamples
	return r
}

func (r *Robot72) Begin() int                  { return 0 }
func (r *Robot72) End() int                    { return r.end }
func (r *Robot72) FirstSyncPulseSamples() int  { return 0 }
func (r *Robot72) Reset()                      {}

func (r *Robot72) Decode(buffer []float64, syncIndex int, freqOffset float64) Line {
	if syncIndex+r.end > len(buffer) {
		return Line{Kind: None}
	}

	scratch := extractWindow(buffer, syncIndex, 0, r.end, r.widthPx, r.maxChannelSamples, freqOffset)
	yLevels := sampleChannel8(scratch, r.yBegin, r.ySamples, r.widthPx)
	vLevels := sampleChannel8(scratch, r.vBegin, r.vSamples, r.widthPx)
	uLevels := sampleChannel8(scratch, r.uBegin, r.uSamples, r.widthPx)

	pixels := make([]uint8, r.widthPx*4)
	for x := 0; x < r.widthPx; x++ {
		setPixelYUV(pixels, 0, x, r.widthPx, yLevels[x], uLevels[x], vLevels[x])
	}

	return Line{Kind: Emit, Pixels: pixels, Rows: 1, Width: r.widthPx}
}
