// Package metrics exposes Prometheus instruments for the playback engine.
// All metrics are registered with the default registry through promauto;
// mount promhttp.Handler() to export them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command metrics
var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framescope_commands_total",
			Help: "Total number of commands handled, by outcome event",
		},
		[]string{"command", "event"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framescope_command_duration_seconds",
			Help:    "Command duration in seconds, including time spent waiting for the registry lock",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"command"},
	)
)

// Session metrics
var (
	SessionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "framescope_sessions_open",
			Help: "Number of playback sessions currently registered",
		},
	)

	SessionsOpenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framescope_sessions_opened_total",
			Help: "Total number of playback sessions opened",
		},
	)
)

// Decode metrics
var (
	UnitsDecodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framescope_units_decoded_total",
			Help: "Total number of frames or sample blocks produced by advance",
		},
		[]string{"kind"},
	)

	SeekDiscardedFrames = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "framescope_seek_discarded_frames",
			Help:    "Frames decoded and discarded by a precise video seek",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framescope_decode_errors_total",
			Help: "Total number of decode failures",
		},
		[]string{"kind"},
	)

	FramesRenderedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framescope_frames_rendered_total",
			Help: "Total number of video frames scaled for display",
		},
	)
)

// Initialize pre-populates label combinations so every series exists from
// the first scrape.
func Initialize() {
	for _, kind := range []string{"audio", "video"} {
		UnitsDecodedTotal.WithLabelValues(kind)
		DecodeErrorsTotal.WithLabelValues(kind)
	}
}
