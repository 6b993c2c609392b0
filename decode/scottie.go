package decode

// Scottie decodes Scottie S1's RGB sequential lines. Unlike the other
// modes, the sync pulse falls *between* the blue and red channels of a
// line rather than at the line's start, so a normal line's window spans
// negative offsets (green, blue — before the sync that marks index 0)
// through positive ones (red — after it). Grounded on the "Scottie modes
// don't start lines with sync (format: pGpBSpR)" comment in
// madpsy-ka9q_ubersdr/audio_extensions/sstv/sync.go.
type Scottie struct {
	fs      float64
	widthPx int

	channelSamples int // green/blue/red all share this duration
	sepSamples     int
	syncSamples    int
	porch2Samples  int

	greenBegin, blueBegin, redBegin int
	begin, end                      int

	firstSyncPulseSamples int
}

// NewScottie builds a Scottie S1 decoder for sample rate fs.
func NewScottie(fs float64) *Scottie {
	s := &Scottie{fs: fs, widthPx: 320}

	s.channelSamples = msToSamples(138.24, fs)
	s.sepSamples = msToSamples(1.5, fs)
	s.syncSamples = msToSamples(9, fs)
	s.porch2Samples = msToSamples(1.5, fs)

	// Walking forward from begin (green's start) to end (red's finish).
	s.greenBegin = -(s.sepSamples + s.channelSamples + s.sepSamples + s.channelSamples + s.syncSamples)
	s.blueBegin = s.greenBegin + s.sepSamples + s.channelSamples + s.sepSamples
	s.redBegin = s.porch2Samples

	s.begin = s.greenBegin
	s.end = s.redBegin + s.channelSamples

	s.firstSyncPulseSamples = msToSamples(9+2*(1.5+138.24), fs)
	return s
}

func (s *Scottie) Begin() int                 { return s.begin }
func (s *Scottie) End() int                   { return s.end }
func (s *Scottie) FirstSyncPulseSamples() int { return s.firstSyncPulseSamples }
func (s *Scottie) Reset()                     {}

func (s *Scottie) Decode(buffer []float64, syncIndex int, freqOffset float64) Line {
	if syncIndex+s.begin < 0 || syncIndex+s.end > len(buffer) {
		return Line{Kind: None}
	}

	scratch := extractWindow(buffer, syncIndex, s.begin, s.end, s.widthPx, s.channelSamples, freqOffset)
	greenLevels := sampleChannel8(scratch, s.greenBegin-s.begin, s.channelSamples, s.widthPx)
	blueLevels := sampleChannel8(scratch, s.blueBegin-s.begin, s.channelSamples, s.widthPx)
	redLevels := sampleChannel8(scratch, s.redBegin-s.begin, s.channelSamples, s.widthPx)

	pixels := make([]uint8, s.widthPx*4)
	for x := 0; x < s.widthPx; x++ {
		setPixelRGB(pixels, 0, x, s.widthPx, redLevels[x], greenLevels[x], blueLevels[x])
	}

	return Line{Kind: Emit, Pixels: pixels, Rows: 1, Width: s.widthPx}
}
