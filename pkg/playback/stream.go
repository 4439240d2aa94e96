package playback

import (
	"errors"
	"fmt"
	"io"

	"github.com/user/framescope/pkg/metrics"
	"github.com/user/framescope/pkg/ports"
)

// DefaultStream selects the container's default stream of the requested kind.
const DefaultStream = -1

// unitDecoder is the shape shared by ports.VideoDecoder and ports.AudioDecoder.
type unitDecoder[U any] interface {
	Decode(pkt ports.Packet) ([]U, error)
	Flush() ([]U, error)
	Reset()
	Close()
}

// cursor walks one container stream through a decoder.
// It holds at most one current unit; units produced beyond it wait in pending.
type cursor[U any] struct {
	container ports.Container
	info      ports.StreamInfo
	decoder   unitDecoder[U]
	position  func(U) int64
	kind      string
	logger    ports.Logger

	current *U
	pending []U
	drained bool // container returned EOF and the decoder was flushed
	ended   bool // advance reported end of stream
}

func newCursor[U any](c ports.Container, info ports.StreamInfo, dec unitDecoder[U], pos func(U) int64, logger ports.Logger) *cursor[U] {
	return &cursor[U]{
		container: c,
		info:      info,
		decoder:   dec,
		position:  pos,
		kind:      info.Kind.String(),
		logger:    logger,
	}
}

// advance makes the next unit current. It returns false once the stream is exhausted;
// the last unit stays current and further calls keep returning false until a seek.
func (c *cursor[U]) advance() (bool, error) {
	if c.ended {
		return false, nil
	}
	for len(c.pending) == 0 {
		if c.drained {
			c.ended = true
			return false, nil
		}
		if err := c.fill(); err != nil {
			metrics.DecodeErrorsTotal.WithLabelValues(c.kind).Inc()
			return false, err
		}
	}

	unit := c.pending[0]
	var zero U
	c.pending[0] = zero
	c.pending = c.pending[1:]
	c.current = &unit
	metrics.UnitsDecodedTotal.WithLabelValues(c.kind).Inc()
	return true, nil
}

// fill reads one packet and queues whatever the decoder returns.
func (c *cursor[U]) fill() error {
	pkt, err := c.container.ReadPacket(c.info.Index)
	if errors.Is(err, io.EOF) {
		units, err := c.decoder.Flush()
		if err != nil {
			return fmt.Errorf("%w: flush stream %d: %w", ErrDecodeFailure, c.info.Index, err)
		}
		c.pending = append(c.pending, units...)
		c.drained = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read stream %d: %w", ErrDecodeFailure, c.info.Index, err)
	}

	units, err := c.decoder.Decode(pkt)
	if err != nil {
		return fmt.Errorf("%w: stream %d at %d: %w", ErrDecodeFailure, c.info.Index, pkt.Position, err)
	}
	c.pending = append(c.pending, units...)
	return nil
}

// seek moves the container cursor to the keyframe at or before position
// (in the stream's time base) and clears all cached state. A container that
// cannot seek is a decode failure; ErrSeekFailure is left to precise seeks
// that run out of frames.
func (c *cursor[U]) seek(position int64) error {
	if err := c.container.Seek(c.info.Index, position); err != nil {
		return fmt.Errorf("%w: seek stream %d to %d: %w", ErrDecodeFailure, c.info.Index, position, err)
	}
	c.decoder.Reset()
	c.clear()
	c.logger.Debug("Seeked %s stream %d to %d", c.kind, c.info.Index, position)
	return nil
}

func (c *cursor[U]) clear() {
	c.current = nil
	c.pending = nil
	c.drained = false
	c.ended = false
}

// currentPosition returns the position of the current unit.
func (c *cursor[U]) currentPosition() (int64, bool) {
	if c.current == nil {
		return 0, false
	}
	return c.position(*c.current), true
}

func (c *cursor[U]) close() {
	c.decoder.Close()
	c.clear()
}

// selectStream resolves index to a stream of the wanted kind.
func selectStream(streams []ports.StreamInfo, index int, kind ports.MediaKind) (ports.StreamInfo, error) {
	if index == DefaultStream {
		first := -1
		for i, s := range streams {
			if s.Kind != kind {
				continue
			}
			if s.Default {
				return s, nil
			}
			if first < 0 {
				first = i
			}
		}
		if first < 0 {
			return ports.StreamInfo{}, fmt.Errorf("%w: container has no %s stream", ErrNoSuchStream, kind)
		}
		return streams[first], nil
	}

	if index < 0 || index >= len(streams) {
		return ports.StreamInfo{}, fmt.Errorf("%w: index %d out of range (%d streams)", ErrNoSuchStream, index, len(streams))
	}
	s := streams[index]
	if s.Kind != kind {
		return ports.StreamInfo{}, fmt.Errorf("%w: stream %d is %s, not %s", ErrNoSuchStream, index, s.Kind, kind)
	}
	return s, nil
}
