// Package audio supplies mono float32 PCM blocks from a WAV file, a live
// capture device, or an incoming Opus relay stream, behind one Source
// interface the receiver's push loop doesn't need to know the origin of.
// Grounded on hacktvlive/source/capture.go's pattern — an exec'd/attached
// producer feeding a goroutine that locks, copies, and unlocks a shared
// buffer.
package audio

import "context"

// Source produces blocks of mono float32 samples at a fixed rate until
// Close or ctx is done.
type Source interface {
	// Run reads from the underlying device/file/socket and calls push for
	// each block decoded, until ctx is cancelled or the source is
	// exhausted (a WAV file reaching EOF, say). Run returns that
	// terminal error, or nil on a clean ctx cancellation.
	Run(ctx context.Context, push func([]float32)) error

	// SampleRateHz is the rate samples passed to push are produced at.
	SampleRateHz() float64

	Close() error
}
