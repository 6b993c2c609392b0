package audio

import (
	"context"
	"fmt"

	rtl "github.com/jpoirier/gortlsdr"

	"sstvreceiver/dsp"
)

// rtlIQRateHz is the I/Q sample rate requested from the dongle: narrow
// enough for a voice/SSTV-audio NBFM channel, wide enough to leave the
// demodulator's discriminator well clear of its Nyquist edge.
const rtlIQRateHz = 240000

// RTLSDRSource tunes an RTL-SDR dongle to a narrowband FM carrier — a
// ham-radio SSTV transmission received over the air — and demodulates its
// raw I/Q stream into mono float32 audio PCM at (or just above) the
// requested audio sample rate; SampleRateHz reports the exact rate. Grounded on rtl_tv/sdr/rtlsdr.go's SetupDevice sequence
// (Open, SetCenterFreq, SetSampleRate, SetTunerGainMode/SetTunerGain,
// ResetBuffer) and rtl_tv/main.go's ReadSync loop, with the NTSC AM
// envelope detector those use replaced by dsp.FMDemod's phase-difference
// discriminator — the same demodulator this module's decode pipeline
// already uses internally for the SSTV audio tones, reused here one layer
// up to pull those tones out of the RF carrier itself. Anti-alias
// filtering ahead of the decimation step reuses dsp.SimpleMovingAverage,
// the same box-car idiom rtl_tv/decoder/decoder.go leans on for its AGC
// smoothing.
type RTLSDRSource struct {
	dongle    *rtl.Context
	audioRate float64

	demod     *dsp.FMDemod
	antiAlias *dsp.SimpleMovingAverage
	decimate  int
}

// NewRTLSDRSource opens RTL-SDR device deviceIndex, tunes it to
// frequencyHz with manual gain gainTenthsDb (tenths of a dB, as
// gortlsdr's SetTunerGain expects), and prepares to demodulate a
// channelBWHz-wide NBFM signal down to mono PCM at or just above
// audioRateHz.
func NewRTLSDRSource(deviceIndex int, frequencyHz uint32, gainTenthsDb int, channelBWHz, audioRateHz float64) (*RTLSDRSource, error) {
	if rtl.GetDeviceCount() == 0 {
		return nil, fmt.Errorf("audio: no RTL-SDR devices found")
	}
	dongle, err := rtl.Open(deviceIndex)
	if err != nil {
		return nil, fmt.Errorf("audio: opening RTL-SDR device %d: %w", deviceIndex, err)
	}
	if err := dongle.SetCenterFreq(int(frequencyHz)); err != nil {
		dongle.Close()
		return nil, fmt.Errorf("audio: SetCenterFreq: %w", err)
	}
	if err := dongle.SetSampleRate(rtlIQRateHz); err != nil {
		dongle.Close()
		return nil, fmt.Errorf("audio: SetSampleRate: %w", err)
	}
	if err := dongle.SetTunerGainMode(true); err != nil {
		dongle.Close()
		return nil, fmt.Errorf("audio: SetTunerGainMode: %w", err)
	}
	if err := dongle.SetTunerGain(gainTenthsDb); err != nil {
		dongle.Close()
		return nil, fmt.Errorf("audio: SetTunerGain: %w", err)
	}
	if err := dongle.ResetBuffer(); err != nil {
		dongle.Close()
		return nil, fmt.Errorf("audio: ResetBuffer: %w", err)
	}

	decimate := decimationFactor(rtlIQRateHz, audioRateHz)

	return &RTLSDRSource{
		dongle:    dongle,
		audioRate: audioRateHz,
		demod:     dsp.NewFMDemod(rtlIQRateHz, channelBWHz),
		antiAlias: dsp.NewSimpleMovingAverage(decimate),
		decimate:  decimate,
	}, nil
}

// decimationFactor returns how many I/Q samples' worth of demodulated audio
// get averaged into one output sample, so the decimated rate lands at or
// above audioRateHz.
func decimationFactor(iqRateHz, audioRateHz float64) int {
	d := int(iqRateHz / audioRateHz)
	if d < 1 {
		d = 1
	}
	return d
}

// SampleRateHz is the decimated output rate, rtlIQRateHz/decimate, which is
// at or just above the audio rate requested at construction.
func (r *RTLSDRSource) SampleRateHz() float64 { return rtlIQRateHz / float64(r.decimate) }

// Run reads raw interleaved-uint8 I/Q samples, FM-demodulates and
// decimates them into mono PCM at SampleRateHz, and calls push with each
// resulting block, until ctx is cancelled or ReadSync errors.
func (r *RTLSDRSource) Run(ctx context.Context, push func([]float32)) error {
	go func() {
		<-ctx.Done()
		r.dongle.Close()
	}()

	buf := make([]byte, rtl.DefaultBufLength)
	for {
		n, err := r.dongle.ReadSync(buf, len(buf))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("audio: RTL-SDR read: %w", err)
		}

		pcm := make([]float32, 0, n/2/r.decimate+1)
		for i := 0; i+1 < n; i += 2 {
			sample := dsp.Complex{Re: float64(buf[i]) - 127.5, Im: float64(buf[i+1]) - 127.5}
			freq := r.demod.Demod(sample)
			avg := r.antiAlias.Push(freq)
			if (i/2)%r.decimate == 0 {
				pcm = append(pcm, float32(avg))
			}
		}
		if len(pcm) > 0 {
			push(pcm)
		}
	}
}

func (r *RTLSDRSource) Close() error { return r.dongle.Close() }
