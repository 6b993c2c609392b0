// Package decoder owns the end-to-end SSTV receive pipeline: two circular
// sample buffers, the sync detector, the active per-mode line decoder and
// the output framebuffer. It is single-threaded and cooperative — every
// exported method runs to completion on the caller's goroutine, with no
// locks or suspension points, matching spec §5's concurrency model.
// Grounded on rtl_tv/decoder/decoder.go's Decoder type: a push-driven
// demodulate-then-assemble-lines loop over a mutex-guarded framebuffer,
// generalized here to mode-driven variable-length lines and a ring-buffer
// pair instead of rtl_tv's PLL-tracked fixed line length.
package decoder

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"sstvreceiver/decode"
	"sstvreceiver/modes"
	"sstvreceiver/sync"
)

// State is the orchestrator's coarse lifecycle state.
type State int

const (
	Idle State = iota
	Decoding
)

func (s State) String() string {
	if s == Decoding {
		return "decoding"
	}
	return "idle"
}

// Logger receives coarse lifecycle events: start/stop/reset, the first
// accepted sync, and dropped (5 ms) or debounced syncs. Line-decoder soft
// errors such as Robot-36 polarity flips are not reported through it.
// Never called per-sample. The zero value (nil) means no-op,
// matching spec §9's "optional observer callback... default no-op" design
// note — the core never owns a process-wide logging sink.
type Logger func(msg string, keyvals ...interface{})

func noopLogger(string, ...interface{}) {}

// Snapshot is a point-in-time read of the decoder's progress, matching
// spec §6's external snapshot() contract.
type Snapshot struct {
	State             string
	ModeName          string
	CurrentLine       int
	TotalLines        int
	ProgressPercent   float64
	FrequencyHz       int
	SignalStrengthPct float64
}

// Decoder is the orchestrator described by spec §4.4.
type Decoder struct {
	fs     float64
	mode   modes.Spec
	logger Logger

	detector    *sync.Detector
	lineDecoder decode.LineDecoder

	state          State
	currentLine    int
	lastSyncPos    int // ring index; -1 means "no sync recorded yet"
	lastSyncWidth  sync.Width
	freqOffset     float64
	signalStrength float64

	audio    []float32
	demod    []float64
	writePos int
	capacity int

	framebuffer []uint8
	widthPx     int
	heightPx    int
}

// New constructs a decoder for sample rate fs and the named mode. An
// unknown mode is surfaced here as a construction-time failure, not a
// runtime one (spec §7).
func New(fs float64, modeName modes.Name, logger Logger) (*Decoder, error) {
	spec, ok := modes.ByName(string(modeName))
	if !ok {
		return nil, fmt.Errorf("decoder: unknown mode %q", modeName)
	}
	lineDecoder, err := decode.New(modeName, fs)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = noopLogger
	}

	capacity := int(math.Ceil(7 * fs))
	d := &Decoder{
		fs:          fs,
		mode:        spec,
		logger:      logger,
		detector:    sync.New(fs),
		lineDecoder: lineDecoder,
		lastSyncPos: -1,
		audio:       make([]float32, capacity),
		demod:       make([]float64, capacity),
		capacity:    capacity,
		framebuffer: make([]uint8, spec.WidthPx*spec.HeightPx*4),
		widthPx:     spec.WidthPx,
		heightPx:    spec.HeightPx,
	}
	d.paintFramebufferOpaqueBlack()
	return d, nil
}

// Start transitions the orchestrator into DECODING; PushSamples is a no-op
// (beyond updating signal strength) until this is called.
func (d *Decoder) Start() {
	d.state = Decoding
	d.logger("start", "mode", string(d.mode.Name))
}

// Stop transitions back to IDLE. PushSamples keeps updating signal
// strength but stops decoding.
func (d *Decoder) Stop() {
	d.state = Idle
	d.logger("stop")
}

// Reset clears decode progress: the framebuffer returns to all
// (0,0,0,255), current_line to 0, and the sync detector/line decoder
// filter state is cleared so stale phase/latch state can't corrupt the
// next line. Running state (IDLE/DECODING) is left as-is.
func (d *Decoder) Reset() {
	d.currentLine = 0
	d.lastSyncPos = -1
	d.lastSyncWidth = sync.WidthNone
	d.freqOffset = 0
	d.signalStrength = 0
	d.paintFramebufferOpaqueBlack()
	d.detector.Reset()
	d.lineDecoder.Reset()
	d.logger("reset")
}

func (d *Decoder) paintFramebufferOpaqueBlack() {
	for i := range d.framebuffer {
		d.framebuffer[i] = 0
	}
	for px := 0; px < d.widthPx*d.heightPx; px++ {
		d.framebuffer[px*4+3] = 255
	}
}

// PushSamples feeds one block of mono f32 samples through the pipeline.
func (d *Decoder) PushSamples(block []float32) {
	d.updateSignalStrength(block)

	if d.state != Decoding {
		return
	}

	ringPosAtBlockStart := d.writePos
	demodBlock := make([]float64, len(block))
	ev, found := d.detector.ProcessBlock(block, demodBlock)

	d.appendToRings(block, demodBlock)

	if !found {
		return
	}
	if ev.Width != sync.Width9ms && ev.Width != sync.Width20ms {
		// A 5 ms (VIS-bit) event is acknowledged and dropped.
		d.logger("sync_dropped", "width_class", int(ev.Width))
		return
	}

	newPos := mod(ringPosAtBlockStart+ev.SampleOffset, d.capacity)
	if d.lastSyncPos != -1 && d.distance(d.lastSyncPos, newPos) <= int(0.1*d.fs) {
		d.logger("sync_debounced")
		return
	}

	d.freqOffset = ev.FreqOffset

	if d.lastSyncPos == -1 {
		d.logger("first_sync", "opening_samples", d.lineDecoder.FirstSyncPulseSamples())
	} else {
		// Per spec §4.4, the window handed to the line decoder spans the
		// real inter-sync gap (distance(last_sync_pos, new_pos)), not the
		// mode's nominal End()-Begin() span — that's what lets the
		// decoder's own "too short" guard (syncIndex+End() > len(buffer))
		// actually fire on a spurious or lost sync, instead of silently
		// reading stale ring data past where real samples were written.
		n := d.distance(d.lastSyncPos, newPos)
		begin := d.lineDecoder.Begin()
		window := d.extractWindow(d.lastSyncPos, begin, begin+n)
		line := d.lineDecoder.Decode(window, -begin, d.freqOffset)
		d.placeLine(line)
	}

	d.lastSyncPos = newPos
	d.lastSyncWidth = ev.Width
}

func (d *Decoder) updateSignalStrength(block []float32) {
	sum := 0.0
	for _, s := range block {
		sum += float64(s) * float64(s)
	}
	rms := 0.0
	if len(block) > 0 {
		rms = math.Sqrt(sum / float64(len(block)))
	}
	newStrength := math.Min(100, 500*rms)
	d.signalStrength = 0.8*d.signalStrength + 0.2*newStrength
}

func (d *Decoder) appendToRings(block []float32, demodBlock []float64) {
	for i, s := range block {
		d.audio[d.writePos] = s
		d.demod[d.writePos] = demodBlock[i]
		d.writePos = mod(d.writePos+1, d.capacity)
	}
}

// extractWindow copies out exactly [refPos+begin, refPos+end) of the demod
// ring into a fresh linear buffer, handling wraparound. begin may be
// negative (Scottie); the caller is responsible for only calling this once
// that much history is known to exist in the ring.
func (d *Decoder) extractWindow(refPos, begin, end int) []float64 {
	n := end - begin
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = d.demod[mod(refPos+begin+i, d.capacity)]
	}
	return out
}

// distance is the ring-forward distance from start to end, per spec §4.4's
// "Wrap handling": end-start if end >= start, else (N-start)+end.
func (d *Decoder) distance(start, end int) int {
	if end >= start {
		return end - start
	}
	return (d.capacity - start) + end
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// placeLine pastes an Emit result into the framebuffer at current_line,
// clipping any rows beyond height_px (spec §7, "Overrun beyond framebuffer
// height").
func (d *Decoder) placeLine(line decode.Line) {
	switch line.Kind {
	case decode.None:
		return
	case decode.Buffered:
		return
	}

	for row := 0; row < line.Rows; row++ {
		if d.currentLine >= d.heightPx {
			break
		}
		srcOff := row * line.Width * 4
		dstOff := d.currentLine * d.widthPx * 4
		copy(d.framebuffer[dstOff:dstOff+line.Width*4], line.Pixels[srcOff:srcOff+line.Width*4])
		d.currentLine++
	}
}

// Snapshot reports the decoder's current progress.
func (d *Decoder) Snapshot() Snapshot {
	progress := 0.0
	if d.heightPx > 0 {
		progress = 100 * float64(d.currentLine) / float64(d.heightPx)
	}
	return Snapshot{
		State:             d.state.String(),
		ModeName:          string(d.mode.Name),
		CurrentLine:       d.currentLine,
		TotalLines:        d.heightPx,
		ProgressPercent:   progress,
		FrequencyHz:       int(math.Round(1900 + d.freqOffset)),
		SignalStrengthPct: d.signalStrength,
	}
}

// PixelBuffer returns a copy of the RGBA framebuffer, width*height*4 bytes
// long. A copy, not the live buffer, since the framebuffer is owned by the
// orchestrator for the duration of any PushSamples call (spec §5).
func (d *Decoder) PixelBuffer() []uint8 {
	out := make([]uint8, len(d.framebuffer))
	copy(out, d.framebuffer)
	return out
}

// Dimensions returns the active mode's image size in pixels.
func (d *Decoder) Dimensions() (width, height int) {
	return d.widthPx, d.heightPx
}

// EncodePNG writes the current framebuffer to w as a PNG. It is a thin
// wrapper over the standard library's image/png encoder — no third-party
// PNG encoder appears anywhere in the retrieval pack this package was
// grounded on, and encoding an image.RGBA to PNG is exactly what
// image/png is for.
func (d *Decoder) EncodePNG(w io.Writer) error {
	img := &image.RGBA{
		Pix:    d.framebuffer,
		Stride: d.widthPx * 4,
		Rect:   image.Rect(0, 0, d.widthPx, d.heightPx),
	}
	return png.Encode(w, img)
}
