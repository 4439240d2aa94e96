// Package pcmdecoder converts uncompressed PCM packets to planar float32 blocks.
package pcmdecoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/user/framescope/pkg/adapters/codecdetect"
	"github.com/user/framescope/pkg/ports"
)

var (
	// ErrUnsupportedCodec is returned by New for non-PCM codecs.
	ErrUnsupportedCodec = errors.New("pcmdecoder: unsupported codec")

	// ErrTruncated is returned for packets that do not hold whole sample frames.
	ErrTruncated = errors.New("pcmdecoder: truncated packet")
)

type sampleReader func(b []byte) float32

// Decoder implements ports.AudioDecoder.
type Decoder struct {
	channels int
	width    int
	read     sampleReader
}

// Supports reports whether codec is a PCM variant this package decodes.
func Supports(codec string) bool {
	_, _, ok := readerFor(codecdetect.Codec(codec))
	return ok
}

// New creates a decoder for the stream.
func New(info ports.StreamInfo) (*Decoder, error) {
	read, width, ok := readerFor(codecdetect.Codec(info.Codec))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, info.Codec)
	}
	channels := info.Channels
	if channels <= 0 {
		channels = 1
	}
	return &Decoder{channels: channels, width: width, read: read}, nil
}

func readerFor(codec codecdetect.Codec) (sampleReader, int, bool) {
	switch codec {
	case codecdetect.CodecPCMS16LE:
		return func(b []byte) float32 { return float32(int16(binary.LittleEndian.Uint16(b))) / 32768 }, 2, true
	case codecdetect.CodecPCMS16BE:
		return func(b []byte) float32 { return float32(int16(binary.BigEndian.Uint16(b))) / 32768 }, 2, true
	case codecdetect.CodecPCMF32LE:
		return func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }, 4, true
	case codecdetect.CodecPCMF32BE:
		return func(b []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b)) }, 4, true
	default:
		return nil, 0, false
	}
}

// Decode splits interleaved samples into one plane per channel.
func (d *Decoder) Decode(pkt ports.Packet) ([]ports.AudioBlock, error) {
	frame := d.width * d.channels
	if len(pkt.Data)%frame != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrTruncated, len(pkt.Data), frame)
	}
	n := len(pkt.Data) / frame
	if n == 0 {
		return nil, nil
	}

	planes := make([][]float32, d.channels)
	for c := range planes {
		planes[c] = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < d.channels; c++ {
			off := i*frame + c*d.width
			planes[c][i] = d.read(pkt.Data[off : off+d.width])
		}
	}
	return []ports.AudioBlock{{Position: pkt.Position, Planes: planes}}, nil
}

// Flush implements ports.AudioDecoder.
func (d *Decoder) Flush() ([]ports.AudioBlock, error) { return nil, nil }

// Reset implements ports.AudioDecoder.
func (d *Decoder) Reset() {}

// Close implements ports.AudioDecoder.
func (d *Decoder) Close() {}

var _ ports.AudioDecoder = (*Decoder)(nil)
