package playback

import (
	"fmt"

	"github.com/user/framescope/pkg/ports"
)

// AudioBlock is a decoded run of samples positioned in samples since stream start.
type AudioBlock struct {
	Position int64
	// Planes holds one slice of float32 samples per channel.
	Planes [][]float32
}

// Samples returns the first channel.
func (b *AudioBlock) Samples() []float32 {
	if len(b.Planes) == 0 {
		return nil
	}
	return b.Planes[0]
}

// AudioContext is the cursor over one audio stream.
// Positions and the time base are in samples: one unit is 1/SampleRate seconds.
type AudioContext struct {
	cur        *cursor[ports.AudioBlock]
	info       ports.StreamInfo
	timeBase   ports.Rational
	length     int64
	sampleRate int
	channels   int
	format     string
}

func openAudio(c ports.Container, index int, factory ports.DecoderFactory, logger ports.Logger) (*AudioContext, error) {
	info, err := selectStream(c.Streams(), index, ports.KindAudio)
	if err != nil {
		return nil, err
	}
	if info.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: audio stream %d has no sample rate", ErrDecodeFailure, info.Index)
	}

	dec, err := factory.NewAudioDecoder(info)
	if err != nil {
		return nil, fmt.Errorf("%w: no decoder for %q: %w", ErrDecodeFailure, info.Codec, err)
	}

	a := &AudioContext{
		info:       info,
		timeBase:   ports.Rational{Num: 1, Den: int64(info.SampleRate)},
		sampleRate: info.SampleRate,
		channels:   info.Channels,
		format:     info.SampleFormat,
	}
	a.length = a.toSamples(info.Length)
	a.cur = newCursor[ports.AudioBlock](c, info, dec, a.blockPosition, logger)

	logger.Debug("Opened audio stream %d: codec=%s rate=%d channels=%d format=%s length=%d",
		info.Index, info.Codec, a.sampleRate, a.channels, a.format, a.length)
	return a, nil
}

func (a *AudioContext) toSamples(v int64) int64 {
	return ports.Rescale(v, a.info.TimeBase, a.timeBase)
}

func (a *AudioContext) blockPosition(b ports.AudioBlock) int64 {
	return a.toSamples(b.Position)
}

// StreamIndex returns the container index of the stream.
func (a *AudioContext) StreamIndex() int { return a.info.Index }

// TimeBase returns the duration of one position unit in seconds.
func (a *AudioContext) TimeBase() ports.Rational { return a.timeBase }

// Length returns the stream length in samples.
func (a *AudioContext) Length() int64 { return a.length }

// SampleRate returns the decoded sample rate.
func (a *AudioContext) SampleRate() int { return a.sampleRate }

// Channels returns the decoded channel count.
func (a *AudioContext) Channels() int { return a.channels }

// SampleFormat returns the source sample format name.
func (a *AudioContext) SampleFormat() string { return a.format }

// Codec returns the codec name of the stream.
func (a *AudioContext) Codec() string { return a.info.Codec }

// Advance decodes the next block. It returns false at end of stream.
func (a *AudioContext) Advance() (bool, error) {
	return a.cur.advance()
}

// Current returns the cached block, or nil when nothing has been decoded since open or seek.
func (a *AudioContext) Current() *AudioBlock {
	if a.cur.current == nil {
		return nil
	}
	return &AudioBlock{
		Position: a.blockPosition(*a.cur.current),
		Planes:   a.cur.current.Planes,
	}
}

// EnsureCurrent returns the cached block, advancing once if the cache is empty.
// It returns nil without error when the stream is exhausted.
func (a *AudioContext) EnsureCurrent() (*AudioBlock, error) {
	if b := a.Current(); b != nil {
		return b, nil
	}
	ok, err := a.Advance()
	if err != nil || !ok {
		return nil, err
	}
	return a.Current(), nil
}

// AtEnd reports whether Advance has reached end of stream since open or the last seek.
func (a *AudioContext) AtEnd() bool {
	return a.cur.ended
}

// Seek moves to the seek point at or before position (in samples) and clears the cache.
// The next Advance yields the block starting at that seek point.
func (a *AudioContext) Seek(position int64) error {
	return a.cur.seek(ports.Rescale(position, a.timeBase, a.info.TimeBase))
}

func (a *AudioContext) close() {
	a.cur.close()
}
