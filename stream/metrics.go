package stream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sstvreceiver/decoder"
)

// Metrics samples a decoder's snapshot into Prometheus gauges at a fixed
// interval. Grounded on madpsy-ka9q_ubersdr/prometheus.go's
// promauto.NewGaugeVec registration idiom, narrowed to the handful of
// gauges a single-mode receiver needs (no per-band labeling, since there
// is exactly one active mode at a time).
type Metrics struct {
	currentLine     prometheus.Gauge
	totalLines      prometheus.Gauge
	progressPercent prometheus.Gauge
	frequencyHz     prometheus.Gauge
	signalStrength  prometheus.Gauge
	decoding        prometheus.Gauge
}

// NewMetrics registers the gauges with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// newMetrics registers the gauges with reg, letting tests supply an
// isolated registry instead of colliding with the process-wide default.
func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		currentLine: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sstv_current_line",
			Help: "Line index the decoder has reached in the active frame.",
		}),
		totalLines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sstv_total_lines",
			Help: "Total lines in the active mode's image.",
		}),
		progressPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sstv_progress_percent",
			Help: "Percentage of the active frame decoded so far.",
		}),
		frequencyHz: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sstv_frequency_hz",
			Help: "Most recently measured sync tone frequency, display-only.",
		}),
		signalStrength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sstv_signal_strength_percent",
			Help: "Smoothed RMS-derived signal strength estimate.",
		}),
		decoding: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sstv_decoding",
			Help: "1 when the decoder state is DECODING, 0 when IDLE.",
		}),
	}
}

// Run samples dec every interval until stop is closed.
func (m *Metrics) Run(dec *decoder.Decoder, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.sample(dec)
		}
	}
}

func (m *Metrics) sample(dec *decoder.Decoder) {
	snap := dec.Snapshot()
	m.currentLine.Set(float64(snap.CurrentLine))
	m.totalLines.Set(float64(snap.TotalLines))
	m.progressPercent.Set(snap.ProgressPercent)
	m.frequencyHz.Set(float64(snap.FrequencyHz))
	m.signalStrength.Set(snap.SignalStrengthPct)
	if snap.State == "decoding" {
		m.decoding.Set(1)
	} else {
		m.decoding.Set(0)
	}
}
