package playback

import (
	"errors"
	"image"
	"testing"

	"github.com/user/framescope/pkg/adapters/logger"
	"github.com/user/framescope/pkg/mocks"
	"github.com/user/framescope/pkg/ports"
)

type fixture struct {
	container *mocks.Container
	factory   *mocks.DecoderFactory
	scaler    *mocks.Scaler
	session   *Session
}

func newFixture(t *testing.T, streams []ports.StreamInfo, packets map[int][]ports.Packet) *fixture {
	t.Helper()

	f := &fixture{
		container: mocks.NewContainer(streams, packets),
		factory:   &mocks.DecoderFactory{},
		scaler:    &mocks.Scaler{},
	}
	f.container.DurationSeconds = 10
	opener := &mocks.ContainerOpener{Containers: map[string]*mocks.Container{"test.mp4": f.container}}

	s, err := Open("test.mp4", Dependencies{
		Opener:   opener,
		Decoders: f.factory,
		Scaler:   f.scaler,
		Logger:   logger.NewNoop(),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	f.session = s
	return f
}

// avFixture has a 48 kHz audio stream at index 0 and a 25 fps 1920x1080 video stream at index 1.
func avFixture(t *testing.T, frames int) *fixture {
	t.Helper()
	silence := make([]float32, 48000*frames/25)
	return newFixture(t,
		[]ports.StreamInfo{
			mocks.AudioStream(0, 48000, int64(len(silence))),
			mocks.VideoStream(1, 1920, 1080, 25, frames),
		},
		map[int][]ports.Packet{
			0: mocks.AudioPackets(0, silence, 1024),
			1: mocks.VideoPackets(1, frames, 10),
		})
}

func TestOpen_ContainerFailure(t *testing.T) {
	opener := &mocks.ContainerOpener{}
	_, err := Open("missing.mp4", Dependencies{Opener: opener, Logger: logger.NewNoop()})
	if !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestSession_NoStreamsOpenedByDefault(t *testing.T) {
	f := avFixture(t, 5)

	if _, err := f.session.Audio(); !errors.Is(err, ErrNoSuchStream) {
		t.Errorf("Audio: expected ErrNoSuchStream, got %v", err)
	}
	if _, err := f.session.Video(); !errors.Is(err, ErrNoSuchStream) {
		t.Errorf("Video: expected ErrNoSuchStream, got %v", err)
	}
	if f.session.AudioIndex() != -1 || f.session.VideoIndex() != -1 {
		t.Errorf("expected indices -1/-1, got %d/%d", f.session.AudioIndex(), f.session.VideoIndex())
	}
}

func TestSession_OpenDefaultStreams(t *testing.T) {
	f := avFixture(t, 5)

	if err := f.session.OpenVideo(DefaultStream); err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	if err := f.session.OpenAudio(DefaultStream); err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	if f.session.VideoIndex() != 1 {
		t.Errorf("expected video index 1, got %d", f.session.VideoIndex())
	}
	if f.session.AudioIndex() != 0 {
		t.Errorf("expected audio index 0, got %d", f.session.AudioIndex())
	}
}

func TestSession_DefaultFlagWins(t *testing.T) {
	second := mocks.VideoStream(1, 64, 32, 25, 3)
	second.Default = true
	f := newFixture(t,
		[]ports.StreamInfo{mocks.VideoStream(0, 64, 32, 25, 3), second},
		map[int][]ports.Packet{0: mocks.VideoPackets(0, 3, 1), 1: mocks.VideoPackets(1, 3, 1)})

	if err := f.session.OpenVideo(DefaultStream); err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	if f.session.VideoIndex() != 1 {
		t.Errorf("expected flagged stream 1, got %d", f.session.VideoIndex())
	}
}

func TestSession_OpenStreamErrors(t *testing.T) {
	f := avFixture(t, 5)

	tests := []struct {
		name string
		open func() error
		want error
	}{
		{"video index out of range", func() error { return f.session.OpenVideo(7) }, ErrNoSuchStream},
		{"negative index", func() error { return f.session.OpenVideo(-5) }, ErrNoSuchStream},
		{"audio index is video", func() error { return f.session.OpenAudio(1) }, ErrNoSuchStream},
		{"video index is audio", func() error { return f.session.OpenVideo(0) }, ErrNoSuchStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.open(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSession_NoDefaultOfKind(t *testing.T) {
	f := newFixture(t,
		[]ports.StreamInfo{mocks.VideoStream(0, 64, 32, 25, 3)},
		map[int][]ports.Packet{0: mocks.VideoPackets(0, 3, 1)})

	if err := f.session.OpenAudio(DefaultStream); !errors.Is(err, ErrNoSuchStream) {
		t.Errorf("expected ErrNoSuchStream, got %v", err)
	}
}

func TestSession_MissingDecoderKeepsPreviousContext(t *testing.T) {
	f := newFixture(t,
		[]ports.StreamInfo{mocks.VideoStream(0, 64, 32, 25, 3), mocks.VideoStream(1, 64, 32, 25, 3)},
		map[int][]ports.Packet{0: mocks.VideoPackets(0, 3, 1), 1: mocks.VideoPackets(1, 3, 1)})

	if err := f.session.OpenVideo(0); err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	f.factory.NewVideoDecoderFunc = func(info ports.StreamInfo) (ports.VideoDecoder, error) {
		return nil, errors.New("unsupported codec")
	}

	if err := f.session.OpenVideo(1); !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
	if f.session.VideoIndex() != 0 {
		t.Errorf("expected previous context on stream 0 to survive, got index %d", f.session.VideoIndex())
	}
	v, _ := f.session.Video()
	if ok, err := v.Advance(); !ok || err != nil {
		t.Errorf("expected previous context usable, got ok=%v err=%v", ok, err)
	}
}

func TestSession_ReopenVideoReplacesContext(t *testing.T) {
	pkts1 := mocks.VideoPackets(1, 4, 2)
	for i := range pkts1 {
		pkts1[i].Data = []byte{200}
	}
	f := newFixture(t,
		[]ports.StreamInfo{mocks.VideoStream(0, 8, 8, 25, 4), mocks.VideoStream(1, 8, 8, 25, 4)},
		map[int][]ports.Packet{0: mocks.VideoPackets(0, 4, 2), 1: pkts1})

	if err := f.session.OpenVideo(0); err != nil {
		t.Fatalf("OpenVideo(0) failed: %v", err)
	}
	v, _ := f.session.Video()
	if _, err := v.Advance(); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if err := f.session.OpenVideo(1); err != nil {
		t.Fatalf("OpenVideo(1) failed: %v", err)
	}
	if !f.factory.Videos[0].Closed {
		t.Error("expected first decoder to be closed")
	}

	v, _ = f.session.Video()
	if v.Current() != nil {
		t.Fatal("expected empty cache after reopen")
	}
	for {
		ok, err := v.Advance()
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if !ok {
			break
		}
		gray, ok := v.Current().Image.(*image.Gray)
		if !ok {
			t.Fatalf("expected *image.Gray, got %T", v.Current().Image)
		}
		if gray.Pix[0] != 200 {
			t.Errorf("frame at %d came from the discarded stream (luma %d)", v.Current().Position, gray.Pix[0])
		}
	}
}

func TestSession_CloseInvalidatesEverything(t *testing.T) {
	f := avFixture(t, 5)
	if err := f.session.OpenVideo(DefaultStream); err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	if err := f.session.OpenAudio(DefaultStream); err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}

	if err := f.session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !f.container.Closed {
		t.Error("expected container to be closed")
	}
	if !f.factory.Videos[0].Closed || !f.factory.Audios[0].Closed {
		t.Error("expected decoders to be closed")
	}

	checks := map[string]error{}
	_, checks["Audio"] = f.session.Audio()
	_, checks["Video"] = f.session.Video()
	_, checks["DescribeStreams"] = f.session.DescribeStreams()
	_, checks["Duration"] = f.session.Duration()
	checks["OpenAudio"] = f.session.OpenAudio(DefaultStream)
	checks["OpenVideo"] = f.session.OpenVideo(DefaultStream)
	checks["Close"] = f.session.Close()

	for name, err := range checks {
		if !errors.Is(err, ErrInvalidSession) {
			t.Errorf("%s: expected ErrInvalidSession, got %v", name, err)
		}
	}
}

func TestSession_DescribeStreams(t *testing.T) {
	f := avFixture(t, 25)

	lines, err := f.session.DescribeStreams()
	if err != nil {
		t.Fatalf("DescribeStreams failed: %v", err)
	}
	want := []string{
		"#0 audio mock 48000 Hz 1 ch flt 1.000 s",
		"#1 video mock 1920x1080 25.00 fps gray 1.000 s",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}

	d, err := f.session.Duration()
	if err != nil || d != 10 {
		t.Errorf("expected duration 10, got %v (%v)", d, err)
	}
}

func TestSession_AudioFailureLeavesVideoUsable(t *testing.T) {
	f := avFixture(t, 5)
	f.factory.NewAudioDecoderFunc = func(info ports.StreamInfo) (ports.AudioDecoder, error) {
		return &mocks.AudioDecoder{DecodeFunc: func(pkt ports.Packet) ([]ports.AudioBlock, error) {
			return nil, errors.New("corrupt packet")
		}}, nil
	}
	if err := f.session.OpenVideo(DefaultStream); err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	if err := f.session.OpenAudio(DefaultStream); err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}

	a, _ := f.session.Audio()
	if _, err := a.Advance(); !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}

	v, _ := f.session.Video()
	if err := v.Seek(3); err != nil {
		t.Fatalf("Seek after audio failure: %v", err)
	}
	if got := v.Current().Position; got != 3 {
		t.Errorf("expected position 3, got %d", got)
	}
}
