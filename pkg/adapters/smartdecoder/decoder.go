// Package smartdecoder selects a demuxer by file signature and a decoder
// backend by codec.
package smartdecoder

import (
	"errors"
	"fmt"

	"github.com/user/framescope/pkg/adapters/av1decoder"
	"github.com/user/framescope/pkg/adapters/codecdetect"
	"github.com/user/framescope/pkg/adapters/h264decoder"
	"github.com/user/framescope/pkg/adapters/mp4container"
	"github.com/user/framescope/pkg/adapters/oggcontainer"
	"github.com/user/framescope/pkg/adapters/opusdecoder"
	"github.com/user/framescope/pkg/adapters/pcmdecoder"
	"github.com/user/framescope/pkg/adapters/stilldecoder"
	"github.com/user/framescope/pkg/ports"
)

// Backend names the implementation that decodes a codec.
type Backend string

const (
	// BackendFFmpeg represents FFmpeg-based decoding.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendLibaom represents libaom for AV1 decoding.
	BackendLibaom Backend = "libaom"
	// BackendGopus represents the pure-Go Opus decoder.
	BackendGopus Backend = "gopus"
	// BackendPCM represents uncompressed sample conversion.
	BackendPCM Backend = "pcm"
	// BackendImage represents per-sample JPEG/PNG decoding.
	BackendImage Backend = "image"
)

// Info describes the decoder chosen for a stream.
type Info struct {
	Codec   codecdetect.Codec
	Backend Backend
}

// Options configures the factory.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// Logger receives backend selection messages. Nil disables logging.
	Logger ports.Logger
}

var (
	// ErrUnsupportedCodec is returned when no backend handles the codec.
	ErrUnsupportedCodec = errors.New("smartdecoder: unsupported codec")
	// ErrNoDecoderAvailable is returned when the backend for the codec is missing.
	ErrNoDecoderAvailable = errors.New("smartdecoder: no decoder available")
)

// Factory implements ports.DecoderFactory.
type Factory struct {
	opts Options
}

// New creates a decoder factory.
func New(opts Options) *Factory {
	return &Factory{opts: opts}
}

// Select reports which backend would decode codec.
//
// The selection flow:
//   - H.264: ffmpeg, when it can be found
//   - AV1: libaom, when built with the libaom tag
//   - MJPEG, PNG: image decoding
//   - Opus: gopus
//   - PCM variants: direct conversion
func (f *Factory) Select(codec codecdetect.Codec) (Info, error) {
	info := Info{Codec: codec}
	switch {
	case codec == codecdetect.CodecH264:
		if !h264decoder.IsAvailable(f.opts.FFmpegPath) {
			return info, fmt.Errorf("%w: %s needs ffmpeg", ErrNoDecoderAvailable, codec)
		}
		info.Backend = BackendFFmpeg
	case codec == codecdetect.CodecAV1:
		if !av1decoder.Available {
			return info, fmt.Errorf("%w: %s needs libaom", ErrNoDecoderAvailable, codec)
		}
		info.Backend = BackendLibaom
	case stilldecoder.Supports(string(codec)):
		info.Backend = BackendImage
	case codec == codecdetect.CodecOpus:
		info.Backend = BackendGopus
	case pcmdecoder.Supports(string(codec)):
		info.Backend = BackendPCM
	default:
		return info, fmt.Errorf("%w: %q", ErrUnsupportedCodec, codec)
	}
	return info, nil
}

// NewVideoDecoder implements ports.DecoderFactory.
func (f *Factory) NewVideoDecoder(info ports.StreamInfo) (ports.VideoDecoder, error) {
	sel, err := f.Select(codecdetect.Codec(info.Codec))
	if err != nil {
		return nil, err
	}
	f.debug("Using %s backend for %s stream %d", sel.Backend, sel.Codec, info.Index)

	var dec ports.VideoDecoder
	switch sel.Backend {
	case BackendFFmpeg:
		dec, err = asVideo(h264decoder.New(info, h264decoder.Options{FFmpegPath: f.opts.FFmpegPath}))
	case BackendLibaom:
		dec, err = asVideo(av1decoder.New(info))
	case BackendImage:
		dec, err = asVideo(stilldecoder.New(info))
	default:
		err = fmt.Errorf("%w: %q is not a video codec", ErrUnsupportedCodec, info.Codec)
	}
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// NewAudioDecoder implements ports.DecoderFactory.
func (f *Factory) NewAudioDecoder(info ports.StreamInfo) (ports.AudioDecoder, error) {
	sel, err := f.Select(codecdetect.Codec(info.Codec))
	if err != nil {
		return nil, err
	}
	f.debug("Using %s backend for %s stream %d", sel.Backend, sel.Codec, info.Index)

	switch sel.Backend {
	case BackendGopus:
		d, err := opusdecoder.New(info)
		if err != nil {
			return nil, err
		}
		return d, nil
	case BackendPCM:
		d, err := pcmdecoder.New(info)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %q is not an audio codec", ErrUnsupportedCodec, info.Codec)
	}
}

// asVideo drops the concrete type so a failed constructor yields a nil interface.
func asVideo(d ports.VideoDecoder, err error) (ports.VideoDecoder, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (f *Factory) debug(msg string, args ...interface{}) {
	if f.opts.Logger != nil {
		f.opts.Logger.Debug(msg, args...)
	}
}

// IsH264Available checks if H.264 decoding is available.
func IsH264Available(ffmpegPath string) bool {
	return h264decoder.IsAvailable(ffmpegPath)
}

// IsAV1Available reports whether libaom was compiled in.
func IsAV1Available() bool {
	return av1decoder.Available
}

// Opener implements ports.ContainerOpener by sniffing the file signature.
type Opener struct {
	mp4 ports.ContainerOpener
	ogg ports.ContainerOpener
}

// NewOpener creates an opener for MP4 and Ogg Opus files.
func NewOpener() *Opener {
	return &Opener{
		mp4: mp4container.NewOpener(),
		ogg: oggcontainer.NewOpener(),
	}
}

// Open implements ports.ContainerOpener.
func (o *Opener) Open(path string) (ports.Container, error) {
	format, err := codecdetect.FormatOfFile(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case codecdetect.FormatOgg:
		return o.ogg.Open(path)
	default:
		return o.mp4.Open(path)
	}
}

var (
	_ ports.DecoderFactory  = (*Factory)(nil)
	_ ports.ContainerOpener = (*Opener)(nil)
)
