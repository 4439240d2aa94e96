// Package stilldecoder decodes intra-only video whose samples are JPEG or PNG images.
package stilldecoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/user/framescope/pkg/adapters/codecdetect"
	"github.com/user/framescope/pkg/ports"
)

// ErrUnsupportedCodec is returned by New for codecs other than MJPEG and PNG.
var ErrUnsupportedCodec = errors.New("stilldecoder: unsupported codec")

// Decoder implements ports.VideoDecoder. Every sample is a complete picture.
type Decoder struct {
	decode func(data []byte) (image.Image, error)
}

// Supports reports whether codec is handled by this package.
func Supports(codec string) bool {
	switch codecdetect.Codec(codec) {
	case codecdetect.CodecMJPEG, codecdetect.CodecPNG:
		return true
	}
	return false
}

// New creates a decoder for the stream.
func New(info ports.StreamInfo) (*Decoder, error) {
	switch codecdetect.Codec(info.Codec) {
	case codecdetect.CodecMJPEG:
		return &Decoder{decode: func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }}, nil
	case codecdetect.CodecPNG:
		return &Decoder{decode: func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, info.Codec)
	}
}

// Decode implements ports.VideoDecoder.
func (d *Decoder) Decode(pkt ports.Packet) ([]ports.VideoFrame, error) {
	img, err := d.decode(pkt.Data)
	if err != nil {
		return nil, fmt.Errorf("decode picture at %d: %w", pkt.Position, err)
	}
	return []ports.VideoFrame{{Position: pkt.Position, Image: img}}, nil
}

// Flush implements ports.VideoDecoder.
func (d *Decoder) Flush() ([]ports.VideoFrame, error) { return nil, nil }

// Reset implements ports.VideoDecoder.
func (d *Decoder) Reset() {}

// Close implements ports.VideoDecoder.
func (d *Decoder) Close() {}

var _ ports.VideoDecoder = (*Decoder)(nil)
