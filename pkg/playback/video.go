package playback

import (
	"fmt"
	"image"

	"github.com/user/framescope/pkg/metrics"
	"github.com/user/framescope/pkg/ports"
)

// MaxOutputDimension bounds each side of the output geometry.
const MaxOutputDimension = 16384

// VideoFrame is the current frame of a video context.
type VideoFrame struct {
	Position int64
	// Image is the decoded picture in its native pixel format.
	Image image.Image
	// Rendered is the scaled RGBA picture, or nil until RenderCurrent runs.
	Rendered *image.RGBA
}

// VideoContext is the cursor over one video stream.
// Positions are in the stream's native time base.
type VideoContext struct {
	cur    *cursor[ports.VideoFrame]
	info   ports.StreamInfo
	scaler ports.Scaler
	logger ports.Logger

	outWidth  int
	outHeight int

	// rendering of the current frame, valid while renderedFor == cur.current
	rendered    *image.RGBA
	renderedFor *ports.VideoFrame
}

func openVideo(c ports.Container, index int, factory ports.DecoderFactory, scaler ports.Scaler, logger ports.Logger) (*VideoContext, error) {
	info, err := selectStream(c.Streams(), index, ports.KindVideo)
	if err != nil {
		return nil, err
	}

	dec, err := factory.NewVideoDecoder(info)
	if err != nil {
		return nil, fmt.Errorf("%w: no decoder for %q: %w", ErrDecodeFailure, info.Codec, err)
	}

	v := &VideoContext{
		info:      info,
		scaler:    scaler,
		logger:    logger,
		outWidth:  info.Width,
		outHeight: info.Height,
	}
	v.cur = newCursor[ports.VideoFrame](c, info, dec, func(f ports.VideoFrame) int64 { return f.Position }, logger)

	logger.Debug("Opened video stream %d: codec=%s %dx%d fps=%s length=%d format=%s",
		info.Index, info.Codec, info.Width, info.Height, info.FrameRate, info.Length, info.PixelFormat)
	return v, nil
}

// StreamIndex returns the container index of the stream.
func (v *VideoContext) StreamIndex() int { return v.info.Index }

// TimeBase returns the duration of one position unit in seconds.
func (v *VideoContext) TimeBase() ports.Rational { return v.info.TimeBase }

// Length returns the stream length in time base units.
func (v *VideoContext) Length() int64 { return v.info.Length }

// FrameRate returns the nominal frame rate.
func (v *VideoContext) FrameRate() ports.Rational { return v.info.FrameRate }

// Codec returns the codec name of the stream.
func (v *VideoContext) Codec() string { return v.info.Codec }

// PixelFormat returns the decoded pixel format.
func (v *VideoContext) PixelFormat() ports.PixelFormat { return v.info.PixelFormat }

// OriginalSize returns the coded frame geometry.
func (v *VideoContext) OriginalSize() (width, height int) {
	return v.info.Width, v.info.Height
}

// OutputSize returns the geometry frames are rendered at.
func (v *VideoContext) OutputSize() (width, height int) {
	return v.outWidth, v.outHeight
}

// SetOutputSize changes the render geometry. The current frame is not re-rendered
// until RenderCurrent is called.
func (v *VideoContext) SetOutputSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: output size %dx%d must be positive", ErrConfiguration, width, height)
	}
	if width > MaxOutputDimension || height > MaxOutputDimension {
		return fmt.Errorf("%w: output size %dx%d exceeds %d", ErrConfiguration, width, height, MaxOutputDimension)
	}
	if !v.scaler.Supports(v.info.PixelFormat) {
		return fmt.Errorf("%w: cannot convert pixel format %s", ErrConfiguration, v.info.PixelFormat)
	}
	v.outWidth = width
	v.outHeight = height
	return nil
}

// Advance decodes the next frame. It returns false at end of stream.
func (v *VideoContext) Advance() (bool, error) {
	return v.cur.advance()
}

// Current returns the cached frame, or nil when nothing has been decoded since open or seek.
func (v *VideoContext) Current() *VideoFrame {
	f := v.cur.current
	if f == nil {
		return nil
	}
	frame := &VideoFrame{Position: f.Position, Image: f.Image}
	if v.renderedFor == f && v.matchesOutput(v.rendered) {
		frame.Rendered = v.rendered
	}
	return frame
}

// EnsureCurrent returns the cached frame, advancing once if the cache is empty.
// It returns nil without error when the stream is exhausted.
func (v *VideoContext) EnsureCurrent() (*VideoFrame, error) {
	if f := v.Current(); f != nil {
		return f, nil
	}
	ok, err := v.Advance()
	if err != nil || !ok {
		return nil, err
	}
	return v.Current(), nil
}

// Seek positions the stream exactly: it seeks the container to the keyframe at or
// before position, then decodes and discards frames until one at or after position
// is reached. That frame becomes current.
func (v *VideoContext) Seek(position int64) error {
	if err := v.cur.seek(position); err != nil {
		return err
	}
	discarded := 0
	for {
		ok, err := v.cur.advance()
		if err != nil {
			return err
		}
		if !ok {
			v.cur.current = nil
			return fmt.Errorf("%w: end of stream %d before position %d (discarded %d frames)",
				ErrSeekFailure, v.info.Index, position, discarded)
		}
		if v.cur.current.Position >= position {
			break
		}
		discarded++
	}
	metrics.SeekDiscardedFrames.Observe(float64(discarded))
	v.logger.Debug("Precise seek to %d landed on %d after discarding %d frames",
		position, v.cur.current.Position, discarded)
	return nil
}

// RenderCurrent scales the current frame to the output geometry. It is a no-op
// when the frame is already rendered at that geometry.
func (v *VideoContext) RenderCurrent() (*image.RGBA, error) {
	f := v.cur.current
	if f == nil {
		return nil, fmt.Errorf("%w: video stream %d", ErrNoCurrentFrame, v.info.Index)
	}
	if v.renderedFor == f && v.matchesOutput(v.rendered) {
		return v.rendered, nil
	}

	img, err := v.scaler.Scale(f.Image, v.outWidth, v.outHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: scale frame at %d: %w", ErrConfiguration, f.Position, err)
	}
	v.rendered = img
	v.renderedFor = f
	metrics.FramesRenderedTotal.Inc()
	return img, nil
}

func (v *VideoContext) matchesOutput(img *image.RGBA) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	return b.Dx() == v.outWidth && b.Dy() == v.outHeight
}

func (v *VideoContext) close() {
	v.cur.close()
	v.rendered = nil
	v.renderedFor = nil
}
