package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

// WAVSource streams a mono 16-bit PCM WAV file in fixed-size blocks, pacing
// itself to real time so a recorded capture can be replayed through the
// same push-driven pipeline a live source would use. No WAV-reading
// library appears anywhere in the retrieval pack; this is a minimal
// RIFF/WAVE chunk walk on encoding/binary, which is the only reasonable
// choice for a format this small and this well-specified.
type WAVSource struct {
	fs        float64
	samples   []float32
	blockSize int
}

// NewWAVSource reads the entire file into memory and validates it is mono
// 16-bit PCM.
func NewWAVSource(path string, blockSize int) (*WAVSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: reading %s: %w", path, err)
	}
	fs, samples, err := parseWAV(data)
	if err != nil {
		return nil, fmt.Errorf("audio: parsing %s: %w", path, err)
	}
	if blockSize <= 0 {
		blockSize = 512
	}
	return &WAVSource{fs: fs, samples: samples, blockSize: blockSize}, nil
}

func parseWAV(data []byte) (fs float64, samples []float32, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate    uint32
		numChannels   uint16
		bitsPerSample uint16
		haveFmt       bool
		pcm           []byte
	)

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8
		if body+int(size) > len(data) {
			break
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return 0, nil, fmt.Errorf("fmt chunk too short")
			}
			numChannels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			pcm = data[body : body+int(size)]
		}
		off = body + int(size)
		if size%2 == 1 {
			off++ // chunks are word-aligned
		}
	}

	if !haveFmt || pcm == nil {
		return 0, nil, fmt.Errorf("missing fmt or data chunk")
	}
	if numChannels != 1 {
		return 0, nil, fmt.Errorf("only mono WAV files are supported, got %d channels", numChannels)
	}
	if bitsPerSample != 16 {
		return 0, nil, fmt.Errorf("only 16-bit PCM is supported, got %d bits", bitsPerSample)
	}

	n := len(pcm) / 2
	samples = make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(v) / 32768.0
	}
	return float64(sampleRate), samples, nil
}

func (w *WAVSource) SampleRateHz() float64 { return w.fs }

// Run pushes blockSize-sample blocks at the file's own sample rate,
// pacing itself with a ticker so a replay behaves like a live capture
// rather than a tight loop.
func (w *WAVSource) Run(ctx context.Context, push func([]float32)) error {
	blockDur := time.Duration(float64(w.blockSize) / w.fs * float64(time.Second))
	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	for i := 0; i < len(w.samples); i += w.blockSize {
		end := i + w.blockSize
		if end > len(w.samples) {
			end = len(w.samples)
		}
		push(w.samples[i:end])

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func (w *WAVSource) Close() error { return nil }
