// Command sstvreceiver decodes a live or recorded SSTV audio stream into a
// framebuffer, serving its progress over a websocket and Prometheus
// metrics. Grounded on rtl_tv/main.go's wiring shape (open a source,
// build a decoder, pump samples into it in a loop, serve output) adapted
// from its RTL-SDR/VLC-pipe pairing to an audio Source/websocket pairing.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sstvreceiver/audio"
	"sstvreceiver/config"
	"sstvreceiver/decoder"
	"sstvreceiver/modes"
	"sstvreceiver/stream"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "sstvreceiver:", err)
		os.Exit(1)
	}

	logger := charmlog.New(os.Stderr)
	logger.SetLevel(parseLevel(cfg.LogLevel))

	src, err := openSource(cfg)
	if err != nil {
		logger.Fatal("opening audio source", "err", err)
	}
	defer src.Close()

	dec, err := decoder.New(src.SampleRateHz(), modes.Name(cfg.Mode), decoderLogger(logger))
	if err != nil {
		logger.Fatal("constructing decoder", "err", err)
	}
	dec.Start()

	srv := stream.NewServer(dec, 200*time.Millisecond, logger)
	metrics := stream.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	stop := make(chan struct{})
	go srv.Run(stop)
	go metrics.Run(dec, time.Second, stop)
	defer close(stop)

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	httpSrv := &http.Server{Addr: cfg.WSListenAddr, Handler: mux}
	go func() {
		logger.Info("serving", "ws_addr", cfg.WSListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: metricsMux}
	go func() {
		logger.Info("serving metrics", "metrics_addr", cfg.MetricsListenAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	logger.Info("decoding", "mode", cfg.Mode, "sample_rate_hz", src.SampleRateHz(), "source", cfg.Source)
	if err := src.Run(ctx, dec.PushSamples); err != nil {
		logger.Error("audio source stopped", "err", err)
	}

	if cfg.SnapshotPath != "" {
		if err := writeSnapshot(dec, cfg.SnapshotPath); err != nil {
			logger.Error("writing snapshot", "err", err)
		} else {
			logger.Info("wrote snapshot", "path", cfg.SnapshotPath)
		}
	}

	httpSrv.Shutdown(context.Background())
	metricsSrv.Shutdown(context.Background())
}

func writeSnapshot(dec *decoder.Decoder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := dec.EncodePNG(f); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func openSource(cfg *config.Config) (audio.Source, error) {
	const blockSize = 512
	switch cfg.Source {
	case config.SourceWAV:
		return audio.NewWAVSource(cfg.WAVPath, blockSize)
	case config.SourceMic:
		return audio.NewMicSource(cfg.MicDevice, cfg.SampleRateHz, blockSize)
	case config.SourceOpus:
		return audio.NewOpusSource(cfg.OpusListenAddr, cfg.SampleRateHz)
	case config.SourceRTLSDR:
		return audio.NewRTLSDRSource(cfg.RTLDeviceIndex, cfg.RTLFrequencyHz, cfg.RTLGainTenthsDb, cfg.RTLChannelBWHz, cfg.SampleRateHz)
	default:
		return nil, fmt.Errorf("unknown audio source %q", cfg.Source)
	}
}

// decoderLogger adapts a charmbracelet/log.Logger to decoder.Logger's
// string-message signature.
func decoderLogger(l *charmlog.Logger) decoder.Logger {
	return func(msg string, keyvals ...interface{}) {
		l.Info(msg, keyvals...)
	}
}

func parseLevel(s string) charmlog.Level {
	switch s {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
