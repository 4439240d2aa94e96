// Package h264decoder decodes H.264 video through an external ffmpeg process.
//
// Packets are collected per group of pictures. When the next keyframe arrives
// (or on Flush) the whole group is piped through ffmpeg as Annex B and the
// raw yuv420p output is split into frames. Groups are assumed to be closed.
package h264decoder

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/user/framescope/pkg/ports"
)

var (
	// ErrDecodeFailed is returned when ffmpeg output does not match the group.
	ErrDecodeFailed = errors.New("h264decoder: decode failed")

	// ErrFFmpegNotFound is returned when ffmpeg is not found in PATH.
	ErrFFmpegNotFound = errors.New("h264decoder: ffmpeg not found in PATH")

	// ErrInvalidSize is returned for streams without picture dimensions.
	ErrInvalidSize = errors.New("h264decoder: stream has no picture size")
)

// Options configures a Decoder.
type Options struct {
	// FFmpegPath overrides the ffmpeg lookup.
	FFmpegPath string
	// Runner executes ffmpeg. Nil selects ExecRunner.
	Runner Runner
}

// Decoder implements ports.VideoDecoder.
type Decoder struct {
	ffmpeg string
	run    Runner
	width  int
	height int
	config []byte

	gop       []byte
	positions []int64
}

// New creates a decoder for the stream. It fails when ffmpeg cannot be found.
func New(info ports.StreamInfo, opts Options) (*Decoder, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, info.Width, info.Height)
	}
	run := opts.Runner
	path := opts.FFmpegPath
	if run == nil {
		found, err := findFFmpeg(opts.FFmpegPath)
		if err != nil {
			return nil, err
		}
		path = found
		run = ExecRunner
	}
	if path == "" {
		path = "ffmpeg"
	}
	return &Decoder{
		ffmpeg: path,
		run:    run,
		width:  info.Width,
		height: info.Height,
		config: info.CodecConfig,
	}, nil
}

// Decode buffers the packet. A keyframe completes the previous group, whose
// frames are returned in presentation order.
func (d *Decoder) Decode(pkt ports.Packet) ([]ports.VideoFrame, error) {
	var frames []ports.VideoFrame
	if pkt.Keyframe && len(d.positions) > 0 {
		var err error
		if frames, err = d.decodeGroup(); err != nil {
			return nil, err
		}
	}
	if len(d.positions) == 0 && !pkt.Keyframe {
		// Nothing to reference yet.
		return frames, nil
	}

	if pkt.Keyframe {
		d.gop = append(d.gop, d.config...)
	}
	d.gop = append(d.gop, avccToAnnexB(pkt.Data)...)
	d.positions = append(d.positions, pkt.Position)
	return frames, nil
}

// Flush decodes the pending group.
func (d *Decoder) Flush() ([]ports.VideoFrame, error) {
	if len(d.positions) == 0 {
		return nil, nil
	}
	return d.decodeGroup()
}

// Reset drops the pending group.
func (d *Decoder) Reset() {
	d.gop = nil
	d.positions = nil
}

// Close implements ports.VideoDecoder.
func (d *Decoder) Close() {
	d.Reset()
}

func (d *Decoder) decodeGroup() ([]ports.VideoFrame, error) {
	data, positions := d.gop, d.positions
	d.Reset()

	out, err := d.run(d.ffmpeg, ffmpegArgs(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	size := frameSize(d.width, d.height)
	if len(out)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes of output is not a whole number of %dx%d frames",
			ErrDecodeFailed, len(out), d.width, d.height)
	}
	n := len(out) / size
	if n > len(positions) {
		return nil, fmt.Errorf("%w: %d frames from %d packets", ErrDecodeFailed, n, len(positions))
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	frames := make([]ports.VideoFrame, n)
	for i := range frames {
		frames[i] = ports.VideoFrame{
			Position: positions[i],
			Image:    yuv420(out[i*size:(i+1)*size], d.width, d.height),
		}
	}
	return frames, nil
}

func ffmpegArgs() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "h264",
		"-i", "pipe:0",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"pipe:1",
	}
}

func frameSize(width, height int) int {
	cw, ch := (width+1)/2, (height+1)/2
	return width*height + 2*cw*ch
}

// yuv420 wraps one raw yuv420p frame as an image.YCbCr.
func yuv420(raw []byte, width, height int) *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	ySize := width * height
	cSize := ((width + 1) / 2) * ((height + 1) / 2)
	copy(img.Y, raw[:ySize])
	copy(img.Cb, raw[ySize:ySize+cSize])
	copy(img.Cr, raw[ySize+cSize:ySize+2*cSize])
	return img
}

// avccToAnnexB converts length-prefixed NAL units to start-code prefixed ones.
// Data that already starts with a start code is returned unchanged.
func avccToAnnexB(data []byte) []byte {
	if len(data) >= 4 && data[0] == 0 && data[1] == 0 && (data[2] == 1 || (data[2] == 0 && data[3] == 1)) {
		return data
	}

	var result []byte
	offset := 0
	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if offset+naluLen > len(data) {
			break
		}

		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}
	return result
}

var _ ports.VideoDecoder = (*Decoder)(nil)
