// Package config loads sstvreceiver's settings from an optional YAML file
// merged with command-line flags, flags winning on conflict. Grounded on
// rtl_tv/config/config.go's flat AppConfig-with-nested-device-config shape,
// extended to a file+flag merge in the style of doismellburning-samoyed's
// cmd/direwolf (spf13/pflag for flag parsing) and its yaml.v3 usage
// elsewhere in that repo (tocalls.yaml decode) for the file side.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// AudioSource selects where PCM samples come from.
type AudioSource string

const (
	SourceWAV    AudioSource = "wav"
	SourceMic    AudioSource = "mic"
	SourceOpus   AudioSource = "opus"
	SourceRTLSDR AudioSource = "rtlsdr"
)

// Config holds every setting the receiver needs, whether it came from the
// YAML file, a flag, or a built-in default.
type Config struct {
	SampleRateHz float64     `yaml:"sample_rate_hz"`
	Mode         string      `yaml:"mode"`
	Source       AudioSource `yaml:"source"`

	WAVPath   string `yaml:"wav_path"`
	MicDevice string `yaml:"mic_device"`

	OpusListenAddr string `yaml:"opus_listen_addr"`

	RTLDeviceIndex    int     `yaml:"rtl_device_index"`
	RTLFrequencyHz    uint32  `yaml:"rtl_frequency_hz"`
	RTLGainTenthsDb   int     `yaml:"rtl_gain_tenths_db"`
	RTLChannelBWHz    float64 `yaml:"rtl_channel_bw_hz"`

	WSListenAddr      string `yaml:"ws_listen_addr"`
	MetricsListenAddr string `yaml:"metrics_listen_addr"`

	SnapshotPath string `yaml:"snapshot_path"`

	LogLevel string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		SampleRateHz:      44100,
		Mode:              "Robot 36",
		Source:            SourceMic,
		RTLGainTenthsDb:   400,
		RTLChannelBWHz:    15000,
		WSListenAddr:      ":8080",
		MetricsListenAddr: ":9090",
		LogLevel:          "info",
	}
}

// Load parses args (typically os.Args[1:]) and, if -config-file names a
// readable file, merges its YAML contents underneath: any flag explicitly
// set on the command line overrides the same field loaded from the file.
func Load(args []string) (*Config, error) {
	cfg := defaults()

	fs := pflag.NewFlagSet("sstvreceiver", pflag.ContinueOnError)
	configFile := fs.StringP("config-file", "c", "", "YAML configuration file")
	sampleRate := fs.Float64P("sample-rate", "r", cfg.SampleRateHz, "audio sample rate in Hz")
	mode := fs.StringP("mode", "m", cfg.Mode, "SSTV mode name (e.g. \"Robot 36\", \"Scottie S1\", \"PD 120\")")
	source := fs.StringP("source", "s", string(cfg.Source), "audio source: wav, mic, opus, or rtlsdr")
	wavPath := fs.String("wav-path", "", "WAV file to decode (source=wav)")
	micDevice := fs.String("mic-device", "", "input device name (source=mic, empty for system default)")
	opusAddr := fs.String("opus-listen-addr", "", "listen address for an incoming Opus relay stream (source=opus)")
	rtlDeviceIndex := fs.Int("rtl-device-index", cfg.RTLDeviceIndex, "RTL-SDR device index (source=rtlsdr)")
	rtlFrequency := fs.Uint32("rtl-frequency-hz", cfg.RTLFrequencyHz, "RTL-SDR center frequency in Hz (source=rtlsdr)")
	rtlGain := fs.Int("rtl-gain-tenths-db", cfg.RTLGainTenthsDb, "RTL-SDR manual tuner gain in tenths of a dB (source=rtlsdr)")
	rtlChannelBW := fs.Float64("rtl-channel-bw-hz", cfg.RTLChannelBWHz, "NBFM channel bandwidth to demodulate in Hz (source=rtlsdr)")
	wsAddr := fs.String("ws-listen-addr", cfg.WSListenAddr, "listen address for the live pixel-buffer websocket")
	metricsAddr := fs.String("metrics-listen-addr", cfg.MetricsListenAddr, "listen address for Prometheus metrics")
	snapshotPath := fs.String("snapshot-path", "", "write the final framebuffer as a PNG to this path on shutdown (empty disables)")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		if err := mergeYAMLFile(&cfg, *configFile); err != nil {
			return nil, err
		}
	}

	if fs.Changed("sample-rate") {
		cfg.SampleRateHz = *sampleRate
	}
	if fs.Changed("mode") {
		cfg.Mode = *mode
	}
	if fs.Changed("source") {
		cfg.Source = AudioSource(*source)
	}
	if fs.Changed("wav-path") {
		cfg.WAVPath = *wavPath
	}
	if fs.Changed("mic-device") {
		cfg.MicDevice = *micDevice
	}
	if fs.Changed("opus-listen-addr") {
		cfg.OpusListenAddr = *opusAddr
	}
	if fs.Changed("rtl-device-index") {
		cfg.RTLDeviceIndex = *rtlDeviceIndex
	}
	if fs.Changed("rtl-frequency-hz") {
		cfg.RTLFrequencyHz = *rtlFrequency
	}
	if fs.Changed("rtl-gain-tenths-db") {
		cfg.RTLGainTenthsDb = *rtlGain
	}
	if fs.Changed("rtl-channel-bw-hz") {
		cfg.RTLChannelBWHz = *rtlChannelBW
	}
	if fs.Changed("ws-listen-addr") {
		cfg.WSListenAddr = *wsAddr
	}
	if fs.Changed("metrics-listen-addr") {
		cfg.MetricsListenAddr = *metricsAddr
	}
	if fs.Changed("snapshot-path") {
		cfg.SnapshotPath = *snapshotPath
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("config: sample rate must be positive, got %v", c.SampleRateHz)
	}
	switch c.Source {
	case SourceWAV:
		if c.WAVPath == "" {
			return fmt.Errorf("config: source=wav requires -wav-path")
		}
	case SourceOpus:
		if c.OpusListenAddr == "" {
			return fmt.Errorf("config: source=opus requires -opus-listen-addr")
		}
	case SourceRTLSDR:
		if c.RTLFrequencyHz == 0 {
			return fmt.Errorf("config: source=rtlsdr requires -rtl-frequency-hz")
		}
	case SourceMic:
		// mic-device empty means "system default", always valid.
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}
	return nil
}
