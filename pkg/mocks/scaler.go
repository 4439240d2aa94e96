package mocks

import (
	"image"
	"sync"

	"github.com/user/framescope/pkg/events"
	"github.com/user/framescope/pkg/ports"
)

// Scaler is a mock implementation of ports.Scaler.
type Scaler struct {
	SupportsFunc func(format ports.PixelFormat) bool
	ScaleFunc    func(src image.Image, width, height int) (*image.RGBA, error)

	Calls int
}

func (m *Scaler) Supports(format ports.PixelFormat) bool {
	if m.SupportsFunc != nil {
		return m.SupportsFunc(format)
	}
	return true
}

func (m *Scaler) Scale(src image.Image, width, height int) (*image.RGBA, error) {
	m.Calls++
	if m.ScaleFunc != nil {
		return m.ScaleFunc(src, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

var _ ports.Scaler = (*Scaler)(nil)

// Notifier is a mock implementation of ports.Notifier that records events.
type Notifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *Notifier) Notify(ev events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns the recorded events (for test verification).
func (m *Notifier) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

// Last returns the most recent event, or nil.
func (m *Notifier) Last() events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

// Reset forgets recorded events.
func (m *Notifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

var _ ports.Notifier = (*Notifier)(nil)
