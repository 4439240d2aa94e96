package ports

import (
	"fmt"
	"image"
)

// MediaKind classifies a container stream.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindAudio
	KindVideo
)

// String returns the string representation of the media kind.
func (k MediaKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// PixelFormat describes the layout of decoded video frames.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatYUV420
	PixelFormatYUV422
	PixelFormatYUV444
	PixelFormatRGBA
	PixelFormatGray
)

// String returns the string representation of the pixel format.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatYUV420:
		return "yuv420p"
	case PixelFormatYUV422:
		return "yuv422p"
	case PixelFormatYUV444:
		return "yuv444p"
	case PixelFormatRGBA:
		return "rgba"
	case PixelFormatGray:
		return "gray"
	default:
		return "unknown"
	}
}

// Rational is a fraction, used for time bases and frame rates.
type Rational struct {
	Num int64
	Den int64
}

// Float64 returns the value of the fraction, or 0 for a zero denominator.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsZero reports whether the fraction is unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// String formats the fraction as "num/den".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts v from time base `from` to time base `to`, rounding down.
func Rescale(v int64, from, to Rational) int64 {
	if from == to || from.IsZero() || to.IsZero() {
		return v
	}
	num := v * from.Num * to.Den
	den := from.Den * to.Num
	q := num / den
	if (num%den != 0) && ((num < 0) != (den < 0)) {
		q--
	}
	return q
}

// StreamInfo describes one stream of an opened container.
type StreamInfo struct {
	Index   int
	Kind    MediaKind
	Codec   string
	Default bool

	// TimeBase is the duration of one position unit, in seconds.
	TimeBase Rational
	// Length is the stream duration in TimeBase units.
	Length int64

	// Audio
	SampleRate   int
	Channels     int
	SampleFormat string
	SampleSize   int // bits per sample for PCM codecs

	// Video
	Width       int
	Height      int
	FrameRate   Rational
	PixelFormat PixelFormat
	// CodecConfig carries out-of-band decoder configuration (e.g. SPS/PPS in Annex B).
	CodecConfig []byte
}

// Packet is one coded unit read from a container stream.
type Packet struct {
	Stream int
	// Position is the presentation time in the stream's TimeBase.
	Position int64
	// DecodeTime is the decode time in the stream's TimeBase.
	DecodeTime int64
	Duration   int64
	Keyframe   bool
	Data       []byte
}

// VideoFrame is a decoded picture.
type VideoFrame struct {
	Position int64
	// Image is typically *image.YCbCr, *image.Gray or *image.RGBA.
	Image image.Image
}

// AudioBlock is a run of decoded samples.
type AudioBlock struct {
	Position int64
	// Planes holds one float32 slice per channel, all of equal length.
	Planes [][]float32
}

// SampleCount returns the number of samples per channel.
func (b AudioBlock) SampleCount() int {
	if len(b.Planes) == 0 {
		return 0
	}
	return len(b.Planes[0])
}

// Container abstracts an opened media file.
// Every stream has its own read cursor, so reading or seeking one stream
// does not move the others.
type Container interface {
	// Streams lists all streams in container order.
	Streams() []StreamInfo

	// Duration returns the container duration in seconds.
	Duration() float64

	// ReadPacket returns the next packet of the stream, or io.EOF.
	ReadPacket(stream int) (Packet, error)

	// Seek moves the stream cursor to the last keyframe at or before position.
	// Positions before the first keyframe land on the first keyframe.
	Seek(stream int, position int64) error

	// Close releases the container.
	Close() error
}

// ContainerOpener opens containers by path.
type ContainerOpener interface {
	Open(path string) (Container, error)
}

// VideoDecoder turns packets into frames. A decoder may buffer packets,
// so Decode returns zero or more frames in presentation order.
type VideoDecoder interface {
	Decode(pkt Packet) ([]VideoFrame, error)

	// Flush drains buffered frames at end of stream.
	Flush() ([]VideoFrame, error)

	// Reset discards buffered state after a seek.
	Reset()

	Close()
}

// AudioDecoder turns packets into sample blocks.
type AudioDecoder interface {
	Decode(pkt Packet) ([]AudioBlock, error)
	Flush() ([]AudioBlock, error)
	Reset()
	Close()
}

// DecoderFactory creates decoders for container streams.
type DecoderFactory interface {
	NewVideoDecoder(info StreamInfo) (VideoDecoder, error)
	NewAudioDecoder(info StreamInfo) (AudioDecoder, error)
}
