// Package command translates caller requests into registry calls and reports
// every outcome as a tagged event on a notifier.
//
// Each method emits exactly one result event (OpenMedia, OpenAudio and
// OpenVideo emit a Debug event first). The frame transfer methods also return
// the binary payload, or nil after emitting a failure event.
package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/framescope/pkg/events"
	"github.com/user/framescope/pkg/intensity"
	"github.com/user/framescope/pkg/metrics"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
	"github.com/user/framescope/pkg/registry"
	"github.com/user/framescope/pkg/transfer"
)

// Handler executes commands against a registry.
type Handler struct {
	registry *registry.Registry
	notifier ports.Notifier
	logger   ports.Logger
	sink     ports.FrameSink
}

// New creates a Handler.
func New(reg *registry.Registry, notifier ports.Notifier, logger ports.Logger) *Handler {
	return &Handler{
		registry: reg,
		notifier: notifier,
		logger:   logger.WithComponent("command"),
	}
}

// SetSink makes the frame transfer methods also export what they send.
func (h *Handler) SetSink(sink ports.FrameSink) {
	h.sink = sink
}

func (h *Handler) sinkEnabled() bool {
	return h.sink != nil && h.sink.Enabled()
}

// OpenMedia opens a container and reports its identifier.
func (h *Handler) OpenMedia(path string) {
	defer observe("open_media", time.Now())
	h.emit("open_media", events.Debug{Message: path})

	id, err := h.registry.Open(path)
	if err != nil {
		h.emit("open_media", runtimeError(err))
		return
	}
	h.logger.Info("Opened %s as session %d", path, id)
	h.emit("open_media", events.Opened{ID: id})
}

// CloseMedia closes a session.
func (h *Handler) CloseMedia(id int) {
	defer observe("close_media", time.Now())
	err := h.registry.Close(id)
	if errors.Is(err, playback.ErrUnknownSession) {
		h.emit("close_media", events.InvalidID{})
		return
	}
	if err != nil {
		h.logger.Warn("Closing session %d: %v", id, err)
	}
	h.emit("close_media", events.Done{})
}

// MediaStatus reports open stream indices, duration and the stream list.
func (h *Handler) MediaStatus(id int) {
	defer observe("media_status", time.Now())
	var ev events.MediaStatus
	err := h.registry.Do(id, func(s *playback.Session) error {
		d, err := s.Duration()
		if err != nil {
			return err
		}
		streams, err := s.DescribeStreams()
		if err != nil {
			return err
		}
		ev = events.MediaStatus{
			AudioIndex: s.AudioIndex(),
			VideoIndex: s.VideoIndex(),
			Duration:   d,
			Streams:    streams,
		}
		return nil
	})
	h.finish("media_status", ev, err)
}

// AudioStatus reports the open audio stream's length and sample rate.
func (h *Handler) AudioStatus(id int) {
	defer observe("audio_status", time.Now())
	var ev events.AudioStatus
	err := h.registry.Do(id, func(s *playback.Session) error {
		a, err := s.Audio()
		if err != nil {
			return err
		}
		ev = events.AudioStatus{Length: a.Length(), SampleRate: a.SampleRate()}
		return nil
	})
	h.finish("audio_status", ev, err)
}

// VideoStatus reports the open video stream's length, frame rate and geometry.
func (h *Handler) VideoStatus(id int) {
	defer observe("video_status", time.Now())
	var ev events.VideoStatus
	err := h.registry.Do(id, func(s *playback.Session) error {
		v, err := s.Video()
		if err != nil {
			return err
		}
		w, hgt := v.OriginalSize()
		ow, oh := v.OutputSize()
		ev = events.VideoStatus{
			Length:    v.Length(),
			Framerate: v.FrameRate().Float64(),
			OutWidth:  ow,
			OutHeight: oh,
			Width:     w,
			Height:    hgt,
		}
		return nil
	})
	h.finish("video_status", ev, err)
}

// OpenAudio opens an audio stream; a negative index selects the default stream.
func (h *Handler) OpenAudio(id, index int) {
	defer observe("open_audio", time.Now())
	var msg string
	err := h.registry.Do(id, func(s *playback.Session) error {
		if err := s.OpenAudio(normalizeIndex(index)); err != nil {
			return err
		}
		a, _ := s.Audio()
		msg = fmt.Sprintf("opening audio %d; len=%d:codec=%s:sample_rate=%d:sample_fmt=%s:channels=%d",
			a.StreamIndex(), a.Length(), a.Codec(), a.SampleRate(), a.SampleFormat(), a.Channels())
		return nil
	})
	h.finishOpen("open_audio", msg, err)
}

// OpenVideo opens a video stream; a negative index selects the default stream.
func (h *Handler) OpenVideo(id, index int) {
	defer observe("open_video", time.Now())
	var msg string
	err := h.registry.Do(id, func(s *playback.Session) error {
		if err := s.OpenVideo(normalizeIndex(index)); err != nil {
			return err
		}
		v, _ := s.Video()
		msg = fmt.Sprintf("opening video %d; len=%d:codec=%s:format=%s",
			v.StreamIndex(), v.Length(), v.Codec(), v.PixelFormat())
		return nil
	})
	h.finishOpen("open_video", msg, err)
}

// VideoSetSize sets the video output geometry.
func (h *Handler) VideoSetSize(id, width, height int) {
	defer observe("video_set_size", time.Now())
	err := h.withVideo(id, func(v *playback.VideoContext) error {
		return v.SetOutputSize(width, height)
	})
	h.finish("video_set_size", events.Done{}, err)
}

// SeekAudio moves the audio cursor near position (in samples).
func (h *Handler) SeekAudio(id int, position int64) {
	defer observe("seek_audio", time.Now())
	err := h.withAudio(id, func(a *playback.AudioContext) error {
		return a.Seek(position)
	})
	h.finish("seek_audio", events.Done{}, err)
}

// SeekVideo moves the video cursor exactly to the first frame at or after position.
func (h *Handler) SeekVideo(id int, position int64) {
	defer observe("seek_video", time.Now())
	err := h.withVideo(id, func(v *playback.VideoContext) error {
		return v.Seek(position)
	})
	h.finish("seek_video", events.Done{}, err)
}

// MoveToNextVideoFrame advances the video cursor and reports the new position, or -1 at end.
func (h *Handler) MoveToNextVideoFrame(id int) {
	defer observe("move_to_next_video_frame", time.Now())
	pos := int64(-1)
	err := h.withVideo(id, func(v *playback.VideoContext) error {
		ok, err := v.Advance()
		if err != nil || !ok {
			return err
		}
		pos = v.Current().Position
		return nil
	})
	h.finish("move_to_next_video_frame", events.Position{Value: pos}, err)
}

// MoveToNextAudioFrame advances the audio cursor and reports the new position, or -1 at end.
func (h *Handler) MoveToNextAudioFrame(id int) {
	defer observe("move_to_next_audio_frame", time.Now())
	h.advanceAudio("move_to_next_audio_frame", id)
}

// PollNextAudioFrame advances the audio cursor; position -1 marks end of stream.
func (h *Handler) PollNextAudioFrame(id int) {
	defer observe("poll_next_audio_frame", time.Now())
	h.advanceAudio("poll_next_audio_frame", id)
}

func (h *Handler) advanceAudio(cmd string, id int) {
	pos := int64(-1)
	err := h.withAudio(id, func(a *playback.AudioContext) error {
		ok, err := a.Advance()
		if err != nil || !ok {
			return err
		}
		pos = a.Current().Position
		return nil
	})
	h.finish(cmd, events.Position{Value: pos}, err)
}

// CurrentVideoPosition reports the current frame position, decoding one frame
// if nothing is cached. -1 means the stream is exhausted.
func (h *Handler) CurrentVideoPosition(id int) {
	defer observe("get_current_video_position", time.Now())
	pos := int64(-1)
	err := h.withVideo(id, func(v *playback.VideoContext) error {
		f, err := v.EnsureCurrent()
		if f != nil {
			pos = f.Position
		}
		return err
	})
	h.finish("get_current_video_position", events.Position{Value: pos}, err)
}

// CurrentAudioPosition reports the current block position, decoding one block
// if nothing is cached. -1 means the stream is exhausted.
func (h *Handler) CurrentAudioPosition(id int) {
	defer observe("get_current_audio_position", time.Now())
	pos := int64(-1)
	err := h.withAudio(id, func(a *playback.AudioContext) error {
		b, err := a.EnsureCurrent()
		if b != nil {
			pos = b.Position
		}
		return err
	})
	h.finish("get_current_audio_position", events.Position{Value: pos}, err)
}

// SendCurrentVideoFrame renders the current frame and returns its transfer payload.
// On failure it emits an event and returns nil.
func (h *Handler) SendCurrentVideoFrame(id int) []byte {
	defer observe("send_current_video_frame", time.Now())
	var payload []byte
	err := h.withVideo(id, func(v *playback.VideoContext) error {
		img, err := v.RenderCurrent()
		if err != nil {
			return err
		}
		pos := v.Current().Position
		payload = transfer.EncodeVideo(pos, v.TimeBase(), img)
		if h.sinkEnabled() {
			if err := h.sink.SaveFrame(pos, img); err != nil {
				h.logger.Warn("Saving frame %d: %v", pos, err)
			}
		}
		return nil
	})
	if err != nil {
		h.emit("send_current_video_frame", toEvent(err))
		return nil
	}
	metrics.CommandsTotal.WithLabelValues("send_current_video_frame", "binary").Inc()
	return payload
}

// SendCurrentAudioFrame returns the first channel of the current block as a transfer payload.
// On failure it emits an event and returns nil.
func (h *Handler) SendCurrentAudioFrame(id int) []byte {
	defer observe("send_current_audio_frame", time.Now())
	var payload []byte
	err := h.withAudio(id, func(a *playback.AudioContext) error {
		b := a.Current()
		if b == nil {
			return fmt.Errorf("%w: audio stream %d", playback.ErrNoCurrentFrame, a.StreamIndex())
		}
		payload = transfer.EncodeAudio(b.Position, a.TimeBase(), b.Samples())
		if h.sinkEnabled() {
			name := fmt.Sprintf("audio-%d-%d.bin", id, b.Position)
			if err := h.sink.SavePayload(name, payload); err != nil {
				h.logger.Warn("Saving payload %s: %v", name, err)
			}
		}
		return nil
	})
	if err != nil {
		h.emit("send_current_audio_frame", toEvent(err))
		return nil
	}
	metrics.CommandsTotal.WithLabelValues("send_current_audio_frame", "binary").Inc()
	return payload
}

// GetIntensities summarizes audio loudness up to until in windows of step samples.
func (h *Handler) GetIntensities(id int, until, step int64) {
	defer observe("get_intensities", time.Now())
	var sum intensity.Summary
	err := h.withAudio(id, func(a *playback.AudioContext) error {
		var err error
		sum, err = intensity.Compute(a, until, step)
		return err
	})
	h.finish("get_intensities", events.IntensityList{Start: sum.Start, End: sum.End, Data: sum.Values}, err)
}

func (h *Handler) withAudio(id int, fn func(*playback.AudioContext) error) error {
	return h.registry.Do(id, func(s *playback.Session) error {
		a, err := s.Audio()
		if err != nil {
			return err
		}
		return fn(a)
	})
}

func (h *Handler) withVideo(id int, fn func(*playback.VideoContext) error) error {
	return h.registry.Do(id, func(s *playback.Session) error {
		v, err := s.Video()
		if err != nil {
			return err
		}
		return fn(v)
	})
}

// finish emits ok, or the event for err.
func (h *Handler) finish(cmd string, ok events.Event, err error) {
	if err != nil {
		h.emit(cmd, toEvent(err))
		return
	}
	h.emit(cmd, ok)
}

// finishOpen reports stream open failures as runtime errors: a bad index is a
// request error, not a missing stream.
func (h *Handler) finishOpen(cmd, msg string, err error) {
	switch {
	case errors.Is(err, playback.ErrUnknownSession):
		h.emit(cmd, events.InvalidID{})
	case err != nil:
		h.emit(cmd, runtimeError(err))
	default:
		h.emit(cmd, events.Debug{Message: msg})
		h.emit(cmd, events.Done{})
	}
}

func (h *Handler) emit(cmd string, ev events.Event) {
	if e, ok := ev.(events.RuntimeError); ok {
		h.logger.Warn("%s failed: %s", cmd, e.What)
	}
	metrics.CommandsTotal.WithLabelValues(cmd, ev.Tag()).Inc()
	h.notifier.Notify(ev)
}

// toEvent maps an error to its event.
func toEvent(err error) events.Event {
	switch {
	case errors.Is(err, playback.ErrUnknownSession):
		return events.InvalidID{}
	case errors.Is(err, playback.ErrNoSuchStream):
		return events.NoStream{}
	default:
		return runtimeError(err)
	}
}

func runtimeError(err error) events.RuntimeError {
	return events.RuntimeError{Kind: playback.Kind(err), What: err.Error()}
}

func normalizeIndex(index int) int {
	if index < 0 {
		return playback.DefaultStream
	}
	return index
}

func observe(cmd string, start time.Time) {
	metrics.CommandDuration.WithLabelValues(cmd).Observe(time.Since(start).Seconds())
}
