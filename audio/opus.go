package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	gopus "github.com/thesyncim/gopus"
)

// OpusSource listens for a single TCP relay connection carrying a stream
// of length-prefixed Opus packets (uint32 big-endian length, then the
// packet bytes) and decodes them into mono float32 PCM blocks. Grounded
// on gopus's own NewDecoder/Decode API shape (thesyncim-gopus's decode
// tests), swapped in for madpsy-ka9q_ubersdr's hraban/opus.v2 relay
// decoder per the pure-Go preference recorded in DESIGN.md.
type OpusSource struct {
	fs       float64
	listener net.Listener
}

// NewOpusSource listens on addr for the relay connection. Channels are
// fixed at 1 (mono); fs must match what the relay was encoded at.
func NewOpusSource(addr string, fs float64) (*OpusSource, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("audio: listening on %s: %w", addr, err)
	}
	return &OpusSource{fs: fs, listener: ln}, nil
}

func (o *OpusSource) SampleRateHz() float64 { return o.fs }

// Run accepts one connection and decodes packets from it until ctx is
// cancelled or the connection closes.
func (o *OpusSource) Run(ctx context.Context, push func([]float32)) error {
	go func() {
		<-ctx.Done()
		o.listener.Close()
	}()

	conn, err := o.listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	dec, err := gopus.NewDecoder(int(o.fs), 1)
	if err != nil {
		return fmt.Errorf("audio: opus decoder: %w", err)
	}

	var lenBuf [4]byte
	pcm := make([]float32, 5760) // largest Opus frame at 120 ms/48 kHz

	for {
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return err
		}
		packetLen := binary.BigEndian.Uint32(lenBuf[:])
		packet := make([]byte, packetLen)
		if _, err := io.ReadFull(conn, packet); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		n, err := dec.Decode(packet, pcm)
		if err != nil {
			return fmt.Errorf("audio: opus decode: %w", err)
		}
		push(pcm[:n])
	}
}

func (o *OpusSource) Close() error { return o.listener.Close() }
