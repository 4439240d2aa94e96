// Package transfer encodes decoded units into the binary layout handed to callers.
//
// Video payload, little-endian, no padding:
//
//	position int64 | time float64 | stride uint64 (pixels) | length uint64 | RGBA bytes
//
// Audio payload:
//
//	position int64 | time float64 | length uint64 (samples) | float32 samples
package transfer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/user/framescope/pkg/ports"
)

const (
	videoHeaderSize = 32
	audioHeaderSize = 24
)

// ErrShortPayload is returned when a payload is truncated or its length field disagrees with its size.
var ErrShortPayload = errors.New("transfer: short payload")

// Video is a decoded video payload.
type Video struct {
	Position int64
	Time     float64
	Stride   uint64
	Pixels   []byte
}

// Audio is a decoded audio payload.
type Audio struct {
	Position int64
	Time     float64
	Samples  []float32
}

// EncodeVideo lays out img rows back to back. Stride is reported in pixels.
func EncodeVideo(position int64, timeBase ports.Rational, img *image.RGBA) []byte {
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	length := rowBytes * b.Dy()

	buf := make([]byte, videoHeaderSize+length)
	binary.LittleEndian.PutUint64(buf[0:], uint64(position))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(float64(position)*timeBase.Float64()))
	binary.LittleEndian.PutUint64(buf[16:], uint64(b.Dx()))
	binary.LittleEndian.PutUint64(buf[24:], uint64(length))

	dst := buf[videoHeaderSize:]
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst[y*rowBytes:(y+1)*rowBytes], img.Pix[off:off+rowBytes])
	}
	return buf
}

// EncodeAudio lays out samples as little-endian float32.
func EncodeAudio(position int64, timeBase ports.Rational, samples []float32) []byte {
	buf := make([]byte, audioHeaderSize+4*len(samples))
	binary.LittleEndian.PutUint64(buf[0:], uint64(position))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(float64(position)*timeBase.Float64()))
	binary.LittleEndian.PutUint64(buf[16:], uint64(len(samples)))

	dst := buf[audioHeaderSize:]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(s))
	}
	return buf
}

// DecodeVideo parses a video payload. Pixels aliases data.
func DecodeVideo(data []byte) (Video, error) {
	if len(data) < videoHeaderSize {
		return Video{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrShortPayload, len(data), videoHeaderSize)
	}
	v := Video{
		Position: int64(binary.LittleEndian.Uint64(data[0:])),
		Time:     math.Float64frombits(binary.LittleEndian.Uint64(data[8:])),
		Stride:   binary.LittleEndian.Uint64(data[16:]),
	}
	length := binary.LittleEndian.Uint64(data[24:])
	if uint64(len(data)-videoHeaderSize) != length {
		return Video{}, fmt.Errorf("%w: length field %d, payload %d", ErrShortPayload, length, len(data)-videoHeaderSize)
	}
	v.Pixels = data[videoHeaderSize:]
	return v, nil
}

// DecodeAudio parses an audio payload.
func DecodeAudio(data []byte) (Audio, error) {
	if len(data) < audioHeaderSize {
		return Audio{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrShortPayload, len(data), audioHeaderSize)
	}
	a := Audio{
		Position: int64(binary.LittleEndian.Uint64(data[0:])),
		Time:     math.Float64frombits(binary.LittleEndian.Uint64(data[8:])),
	}
	n := binary.LittleEndian.Uint64(data[16:])
	if uint64(len(data)-audioHeaderSize) != 4*n {
		return Audio{}, fmt.Errorf("%w: length field %d samples, payload %d bytes", ErrShortPayload, n, len(data)-audioHeaderSize)
	}
	a.Samples = make([]float32, n)
	for i := range a.Samples {
		a.Samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[audioHeaderSize+4*i:]))
	}
	return a, nil
}

// Image returns the payload as an RGBA image of stride x (length / stride / 4).
func (v Video) Image() *image.RGBA {
	if v.Stride == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	h := len(v.Pixels) / int(v.Stride) / 4
	return &image.RGBA{
		Pix:    v.Pixels,
		Stride: int(v.Stride) * 4,
		Rect:   image.Rect(0, 0, int(v.Stride), h),
	}
}
