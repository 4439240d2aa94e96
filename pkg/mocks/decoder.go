package mocks

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/user/framescope/pkg/ports"
)

// VideoDecoder is a mock implementation of ports.VideoDecoder.
// Each packet becomes a gray frame whose luma equals the first data byte.
// Delay holds back that many frames until later packets or Flush.
type VideoDecoder struct {
	Width  int
	Height int
	Delay  int

	DecodeFunc func(pkt ports.Packet) ([]ports.VideoFrame, error)

	queue   []ports.VideoFrame
	Decoded int
	Resets  int
	Closed  bool
}

func (m *VideoDecoder) Decode(pkt ports.Packet) ([]ports.VideoFrame, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(pkt)
	}
	m.Decoded++
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	if len(pkt.Data) > 0 {
		fill := color.Gray{Y: pkt.Data[0]}
		for i := range img.Pix {
			img.Pix[i] = fill.Y
		}
	}
	m.queue = append(m.queue, ports.VideoFrame{Position: pkt.Position, Image: img})
	if len(m.queue) <= m.Delay {
		return nil, nil
	}
	out := m.queue[:len(m.queue)-m.Delay]
	m.queue = append([]ports.VideoFrame(nil), m.queue[len(m.queue)-m.Delay:]...)
	return out, nil
}

func (m *VideoDecoder) Flush() ([]ports.VideoFrame, error) {
	out := m.queue
	m.queue = nil
	return out, nil
}

func (m *VideoDecoder) Reset() {
	m.queue = nil
	m.Resets++
}

func (m *VideoDecoder) Close() {
	m.Closed = true
}

var _ ports.VideoDecoder = (*VideoDecoder)(nil)

// AudioDecoder is a mock implementation of ports.AudioDecoder.
// Packet data is read as mono little-endian float32; empty packets yield Duration zero samples.
type AudioDecoder struct {
	DecodeFunc func(pkt ports.Packet) ([]ports.AudioBlock, error)

	Resets int
	Closed bool
}

func (m *AudioDecoder) Decode(pkt ports.Packet) ([]ports.AudioBlock, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(pkt)
	}
	var samples []float32
	if len(pkt.Data) > 0 {
		if len(pkt.Data)%4 != 0 {
			return nil, fmt.Errorf("mock: packet of %d bytes is not float32", len(pkt.Data))
		}
		samples = make([]float32, len(pkt.Data)/4)
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(pkt.Data[4*i:]))
		}
	} else {
		samples = make([]float32, pkt.Duration)
	}
	return []ports.AudioBlock{{Position: pkt.Position, Planes: [][]float32{samples}}}, nil
}

func (m *AudioDecoder) Flush() ([]ports.AudioBlock, error) {
	return nil, nil
}

func (m *AudioDecoder) Reset() {
	m.Resets++
}

func (m *AudioDecoder) Close() {
	m.Closed = true
}

var _ ports.AudioDecoder = (*AudioDecoder)(nil)

// DecoderFactory is a mock implementation of ports.DecoderFactory.
type DecoderFactory struct {
	NewVideoDecoderFunc func(info ports.StreamInfo) (ports.VideoDecoder, error)
	NewAudioDecoderFunc func(info ports.StreamInfo) (ports.AudioDecoder, error)

	// VideoDelay is passed to every default VideoDecoder.
	VideoDelay int

	Videos []*VideoDecoder
	Audios []*AudioDecoder
}

func (m *DecoderFactory) NewVideoDecoder(info ports.StreamInfo) (ports.VideoDecoder, error) {
	if m.NewVideoDecoderFunc != nil {
		return m.NewVideoDecoderFunc(info)
	}
	d := &VideoDecoder{Width: info.Width, Height: info.Height, Delay: m.VideoDelay}
	m.Videos = append(m.Videos, d)
	return d, nil
}

func (m *DecoderFactory) NewAudioDecoder(info ports.StreamInfo) (ports.AudioDecoder, error) {
	if m.NewAudioDecoderFunc != nil {
		return m.NewAudioDecoderFunc(info)
	}
	d := &AudioDecoder{}
	m.Audios = append(m.Audios, d)
	return d, nil
}

var _ ports.DecoderFactory = (*DecoderFactory)(nil)
