// Package playback implements the decoding, seeking and caching core of a
// frame-accurate media viewer.
//
// A Session owns one opened container plus at most one audio and one video
// stream context. Each context keeps a single current unit: Advance replaces it,
// Seek clears it. Sessions are not safe for concurrent use; the registry
// package serializes access.
package playback

import (
	"fmt"

	"github.com/user/framescope/pkg/ports"
)

// Dependencies holds the collaborators a Session needs.
type Dependencies struct {
	Opener   ports.ContainerOpener
	Decoders ports.DecoderFactory
	Scaler   ports.Scaler
	Logger   ports.Logger
}

// Session is one opened media file.
type Session struct {
	path      string
	container ports.Container
	deps      Dependencies
	logger    ports.Logger

	audio  *AudioContext
	video  *VideoContext
	closed bool
}

// Open opens the container at path. No stream is opened.
func Open(path string, deps Dependencies) (*Session, error) {
	c, err := deps.Opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDecodeFailure, path, err)
	}
	logger := deps.Logger.WithComponent("playback")
	logger.Debug("Opened %s: %d streams, %.3f s", path, len(c.Streams()), c.Duration())
	return &Session{
		path:      path,
		container: c,
		deps:      deps,
		logger:    logger,
	}, nil
}

// Path returns the path the session was opened from.
func (s *Session) Path() string { return s.path }

// OpenAudio opens the audio stream at index, or the default audio stream for
// DefaultStream. On success it replaces any open audio context; on failure the
// previous context is kept.
func (s *Session) OpenAudio(index int) error {
	if s.closed {
		return ErrInvalidSession
	}
	a, err := openAudio(s.container, index, s.deps.Decoders, s.logger)
	if err != nil {
		return err
	}
	if s.audio != nil {
		s.audio.close()
	}
	s.audio = a
	return nil
}

// OpenVideo opens the video stream at index, or the default video stream for
// DefaultStream. On success it replaces any open video context.
func (s *Session) OpenVideo(index int) error {
	if s.closed {
		return ErrInvalidSession
	}
	v, err := openVideo(s.container, index, s.deps.Decoders, s.deps.Scaler, s.logger)
	if err != nil {
		return err
	}
	if s.video != nil {
		s.video.close()
	}
	s.video = v
	return nil
}

// Audio returns the open audio context.
func (s *Session) Audio() (*AudioContext, error) {
	if s.closed {
		return nil, ErrInvalidSession
	}
	if s.audio == nil {
		return nil, fmt.Errorf("%w: no audio stream open", ErrNoSuchStream)
	}
	return s.audio, nil
}

// Video returns the open video context.
func (s *Session) Video() (*VideoContext, error) {
	if s.closed {
		return nil, ErrInvalidSession
	}
	if s.video == nil {
		return nil, fmt.Errorf("%w: no video stream open", ErrNoSuchStream)
	}
	return s.video, nil
}

// AudioIndex returns the index of the open audio stream, or -1.
func (s *Session) AudioIndex() int {
	if s.closed || s.audio == nil {
		return -1
	}
	return s.audio.StreamIndex()
}

// VideoIndex returns the index of the open video stream, or -1.
func (s *Session) VideoIndex() int {
	if s.closed || s.video == nil {
		return -1
	}
	return s.video.StreamIndex()
}

// Streams returns the container's stream table.
func (s *Session) Streams() ([]ports.StreamInfo, error) {
	if s.closed {
		return nil, ErrInvalidSession
	}
	return s.container.Streams(), nil
}

// DescribeStreams returns one human-readable line per container stream.
func (s *Session) DescribeStreams() ([]string, error) {
	streams, err := s.Streams()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(streams))
	for i, info := range streams {
		out[i] = Describe(info)
	}
	return out, nil
}

// Duration returns the container duration in seconds.
func (s *Session) Duration() (float64, error) {
	if s.closed {
		return 0, ErrInvalidSession
	}
	return s.container.Duration(), nil
}

// Close releases both contexts and the container. Later calls fail with ErrInvalidSession.
func (s *Session) Close() error {
	if s.closed {
		return ErrInvalidSession
	}
	s.closed = true
	if s.audio != nil {
		s.audio.close()
		s.audio = nil
	}
	if s.video != nil {
		s.video.close()
		s.video = nil
	}
	if err := s.container.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	s.logger.Debug("Closed %s", s.path)
	return nil
}
