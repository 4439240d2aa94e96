package mocks

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/user/framescope/pkg/ports"
)

// Container is an in-memory implementation of ports.Container.
// Packets are held per stream in decode order.
type Container struct {
	mu sync.Mutex

	StreamList      []ports.StreamInfo
	Packets         map[int][]ports.Packet
	DurationSeconds float64

	ReadPacketFunc func(stream int) (ports.Packet, error)
	SeekFunc       func(stream int, position int64) error
	CloseFunc      func() error

	cursors map[int]int
	Closed  bool
	Seeks   []int64
}

// NewContainer creates a mock container from a stream table and packets.
func NewContainer(streams []ports.StreamInfo, packets map[int][]ports.Packet) *Container {
	return &Container{
		StreamList: streams,
		Packets:    packets,
		cursors:    make(map[int]int),
	}
}

func (m *Container) Streams() []ports.StreamInfo {
	return m.StreamList
}

func (m *Container) Duration() float64 {
	return m.DurationSeconds
}

func (m *Container) ReadPacket(stream int) (ports.Packet, error) {
	if m.ReadPacketFunc != nil {
		return m.ReadPacketFunc(stream)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pkts, ok := m.Packets[stream]
	if !ok {
		return ports.Packet{}, fmt.Errorf("mock: no stream %d", stream)
	}
	i := m.cursors[stream]
	if i >= len(pkts) {
		return ports.Packet{}, io.EOF
	}
	m.cursors[stream] = i + 1
	return pkts[i], nil
}

// Seek moves to the last keyframe at or before position.
func (m *Container) Seek(stream int, position int64) error {
	if m.SeekFunc != nil {
		return m.SeekFunc(stream, position)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seeks = append(m.Seeks, position)
	pkts, ok := m.Packets[stream]
	if !ok {
		return fmt.Errorf("mock: no stream %d", stream)
	}
	target := -1
	for i, p := range pkts {
		if !p.Keyframe {
			continue
		}
		if p.Position <= position || target < 0 {
			target = i
		}
		if p.Position > position {
			break
		}
	}
	if target < 0 {
		target = 0
	}
	m.cursors[stream] = target
	return nil
}

func (m *Container) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	m.Closed = true
	return nil
}

var _ ports.Container = (*Container)(nil)

// ContainerOpener is a mock implementation of ports.ContainerOpener.
type ContainerOpener struct {
	Containers map[string]*Container
	OpenFunc   func(path string) (ports.Container, error)
}

func (m *ContainerOpener) Open(path string) (ports.Container, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	c, ok := m.Containers[path]
	if !ok {
		return nil, fmt.Errorf("mock: cannot open %s", path)
	}
	return c, nil
}

var _ ports.ContainerOpener = (*ContainerOpener)(nil)

// VideoStream returns a stream descriptor with time base 1/fps.
func VideoStream(index, width, height int, fps int64, frames int) ports.StreamInfo {
	return ports.StreamInfo{
		Index:       index,
		Kind:        ports.KindVideo,
		Codec:       "mock",
		TimeBase:    ports.Rational{Num: 1, Den: fps},
		Length:      int64(frames),
		Width:       width,
		Height:      height,
		FrameRate:   ports.Rational{Num: fps, Den: 1},
		PixelFormat: ports.PixelFormatGray,
	}
}

// VideoPackets returns frames packets at positions 0..frames-1 with a keyframe every gop.
func VideoPackets(stream, frames, gop int) []ports.Packet {
	pkts := make([]ports.Packet, frames)
	for i := range pkts {
		pkts[i] = ports.Packet{
			Stream:     stream,
			Position:   int64(i),
			DecodeTime: int64(i),
			Duration:   1,
			Keyframe:   i%gop == 0,
			Data:       []byte{byte(i)},
		}
	}
	return pkts
}

// AudioStream returns a mono stream descriptor with time base 1/rate.
func AudioStream(index, rate int, samples int64) ports.StreamInfo {
	return ports.StreamInfo{
		Index:        index,
		Kind:         ports.KindAudio,
		Codec:        "mock",
		TimeBase:     ports.Rational{Num: 1, Den: int64(rate)},
		Length:       samples,
		SampleRate:   rate,
		Channels:     1,
		SampleFormat: "flt",
	}
}

// AudioPackets splits samples into blocks of blockSize. Sample values are
// stored as little-endian float32 in the packet data.
func AudioPackets(stream int, samples []float32, blockSize int) []ports.Packet {
	var pkts []ports.Packet
	for start := 0; start < len(samples); start += blockSize {
		end := min(start+blockSize, len(samples))
		data := make([]byte, 4*(end-start))
		for i, s := range samples[start:end] {
			binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(s))
		}
		pkts = append(pkts, ports.Packet{
			Stream:     stream,
			Position:   int64(start),
			DecodeTime: int64(start),
			Duration:   int64(end - start),
			Keyframe:   true,
			Data:       data,
		})
	}
	return pkts
}
