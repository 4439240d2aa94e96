package mocks

import (
	"image"
	"sync"

	"github.com/user/framescope/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.RWMutex

	enabled bool

	Frames        map[int64]image.Image
	Payloads      map[string][]byte
	Waveform      image.Image
	IntensityJSON []byte
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink(enabled bool) *FrameSink {
	return &FrameSink{
		enabled:  enabled,
		Frames:   make(map[int64]image.Image),
		Payloads: make(map[string][]byte),
	}
}

func (m *FrameSink) Enabled() bool {
	return m.enabled
}

func (m *FrameSink) SaveFrame(position int64, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[position] = img
	return nil
}

func (m *FrameSink) SavePayload(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payloads[name] = data
	return nil
}

func (m *FrameSink) SaveWaveform(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Waveform = img
	return nil
}

func (m *FrameSink) SaveIntensityJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IntensityJSON = data
	return nil
}

var _ ports.FrameSink = (*FrameSink)(nil)
