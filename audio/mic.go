package audio

import (
	"context"

	"github.com/gordonklaus/portaudio"
)

// MicSource captures mono float32 samples from a live input device via
// PortAudio. Grounded on the live-capture dependency named in the pack
// (github.com/gordonklaus/portaudio, required by doismellburning-samoyed);
// wired here for sstvreceiver's own live-mic ingestion path.
type MicSource struct {
	fs     float64
	stream *portaudio.Stream
	block  []float32
}

// NewMicSource opens the named input device (empty for the host default)
// at sample rate fs, capturing blockSize-sample mono blocks.
func NewMicSource(deviceName string, fs float64, blockSize int) (*MicSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	dev, err := resolveInputDevice(deviceName)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	m := &MicSource{fs: fs, block: make([]float32, blockSize)}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      fs,
		FramesPerBuffer: blockSize,
	}
	stream, err := portaudio.OpenStream(params, m.block)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	m.stream = stream
	return m, nil
}

func resolveInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return portaudio.DefaultInputDevice()
}

func (m *MicSource) SampleRateHz() float64 { return m.fs }

// Run starts the capture stream and delivers each filled block to push
// until ctx is cancelled.
func (m *MicSource) Run(ctx context.Context, push func([]float32)) error {
	if err := m.stream.Start(); err != nil {
		return err
	}
	defer m.stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := m.stream.Read(); err != nil {
			return err
		}
		push(m.block)
	}
}

func (m *MicSource) Close() error {
	err := m.stream.Close()
	portaudio.Terminate()
	return err
}
