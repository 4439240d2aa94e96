// Package nullsink provides a no-op export sink.
package nullsink

import (
	"image"

	"github.com/user/framescope/pkg/ports"
)

// Sink is a no-op implementation of ports.FrameSink.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveFrame(position int64, img image.Image) error { return nil }
func (s *Sink) SavePayload(name string, data []byte) error      { return nil }
func (s *Sink) SaveWaveform(img image.Image) error              { return nil }
func (s *Sink) SaveIntensityJSON(data []byte) error             { return nil }

var _ ports.FrameSink = (*Sink)(nil)
