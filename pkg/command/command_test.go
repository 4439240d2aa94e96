package command

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/user/framescope/pkg/adapters/logger"
	"github.com/user/framescope/pkg/events"
	"github.com/user/framescope/pkg/mocks"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
	"github.com/user/framescope/pkg/registry"
)

func newHandler(t *testing.T) (*Handler, *mocks.Notifier) {
	t.Helper()
	opener := &mocks.ContainerOpener{
		OpenFunc: func(path string) (ports.Container, error) {
			switch path {
			case "av.mp4":
				silence := make([]float32, 96000)
				c := mocks.NewContainer(
					[]ports.StreamInfo{
						mocks.AudioStream(0, 48000, int64(len(silence))),
						mocks.VideoStream(1, 1920, 1080, 25, 10),
					},
					map[int][]ports.Packet{
						0: mocks.AudioPackets(0, silence, 1024),
						1: mocks.VideoPackets(1, 10, 5),
					})
				c.DurationSeconds = 2
				return c, nil
			case "video.mp4":
				return mocks.NewContainer(
					[]ports.StreamInfo{mocks.VideoStream(0, 32, 16, 25, 3)},
					map[int][]ports.Packet{0: mocks.VideoPackets(0, 3, 3)}), nil
			default:
				return nil, errors.New("unrecognized container")
			}
		},
	}
	reg := registry.New(playback.Dependencies{
		Opener:   opener,
		Decoders: &mocks.DecoderFactory{},
		Scaler:   &mocks.Scaler{},
		Logger:   logger.NewNoop(),
	})
	notifier := &mocks.Notifier{}
	return New(reg, notifier, logger.NewNoop()), notifier
}

func openMedia(t *testing.T, h *Handler, n *mocks.Notifier, path string) int {
	t.Helper()
	h.OpenMedia(path)
	opened, ok := n.Last().(events.Opened)
	if !ok {
		t.Fatalf("expected Opened, got %#v", n.Last())
	}
	n.Reset()
	return opened.ID
}

func expect[T events.Event](t *testing.T, n *mocks.Notifier) T {
	t.Helper()
	ev, ok := n.Last().(T)
	if !ok {
		var zero T
		t.Fatalf("expected %T, got %#v", zero, n.Last())
	}
	n.Reset()
	return ev
}

func TestOpenMedia_EmitsDebugThenOpened(t *testing.T) {
	h, n := newHandler(t)

	h.OpenMedia("av.mp4")
	evs := n.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if d, ok := evs[0].(events.Debug); !ok || d.Message != "av.mp4" {
		t.Errorf("expected Debug with path, got %#v", evs[0])
	}
	if o, ok := evs[1].(events.Opened); !ok || o.ID != 0 {
		t.Errorf("expected Opened{0}, got %#v", evs[1])
	}
}

func TestOpenMedia_Failure(t *testing.T) {
	h, n := newHandler(t)

	h.OpenMedia("broken.bin")
	e := expect[events.RuntimeError](t, n)
	if e.Kind != "decodeFailure" {
		t.Errorf("expected decodeFailure kind, got %q", e.Kind)
	}
}

func TestCommands_UnknownSession(t *testing.T) {
	h, n := newHandler(t)
	const id = 99

	commands := map[string]func(){
		"CloseMedia":           func() { h.CloseMedia(id) },
		"MediaStatus":          func() { h.MediaStatus(id) },
		"AudioStatus":          func() { h.AudioStatus(id) },
		"VideoStatus":          func() { h.VideoStatus(id) },
		"OpenAudio":            func() { h.OpenAudio(id, -1) },
		"OpenVideo":            func() { h.OpenVideo(id, -1) },
		"VideoSetSize":         func() { h.VideoSetSize(id, 10, 10) },
		"SeekAudio":            func() { h.SeekAudio(id, 0) },
		"SeekVideo":            func() { h.SeekVideo(id, 0) },
		"MoveToNextVideoFrame": func() { h.MoveToNextVideoFrame(id) },
		"MoveToNextAudioFrame": func() { h.MoveToNextAudioFrame(id) },
		"PollNextAudioFrame":   func() { h.PollNextAudioFrame(id) },
		"CurrentVideoPosition": func() { h.CurrentVideoPosition(id) },
		"CurrentAudioPosition": func() { h.CurrentAudioPosition(id) },
		"GetIntensities":       func() { h.GetIntensities(id, 100, 10) },
		"SendCurrentVideoFrame": func() {
			if h.SendCurrentVideoFrame(id) != nil {
				t.Error("expected nil payload")
			}
		},
		"SendCurrentAudioFrame": func() {
			if h.SendCurrentAudioFrame(id) != nil {
				t.Error("expected nil payload")
			}
		},
	}

	for name, run := range commands {
		t.Run(name, func(t *testing.T) {
			n.Reset()
			run()
			if _, ok := n.Last().(events.InvalidID); !ok {
				t.Errorf("expected InvalidID, got %#v", n.Last())
			}
		})
	}
}

func TestCommands_NoStream(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "video.mp4")

	commands := map[string]func(){
		"AudioStatus":          func() { h.AudioStatus(id) },
		"VideoStatus":          func() { h.VideoStatus(id) },
		"VideoSetSize":         func() { h.VideoSetSize(id, 10, 10) },
		"SeekAudio":            func() { h.SeekAudio(id, 0) },
		"SeekVideo":            func() { h.SeekVideo(id, 0) },
		"PollNextAudioFrame":   func() { h.PollNextAudioFrame(id) },
		"CurrentVideoPosition": func() { h.CurrentVideoPosition(id) },
		"GetIntensities":       func() { h.GetIntensities(id, 100, 10) },
		"SendCurrentAudioFrame": func() {
			h.SendCurrentAudioFrame(id)
		},
	}

	for name, run := range commands {
		t.Run(name, func(t *testing.T) {
			n.Reset()
			run()
			if _, ok := n.Last().(events.NoStream); !ok {
				t.Errorf("expected NoStream, got %#v", n.Last())
			}
		})
	}
}

func TestOpenVideo_BadIndexIsRuntimeError(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "video.mp4")

	h.OpenVideo(id, 5)
	e := expect[events.RuntimeError](t, n)
	if e.Kind != "noSuchStream" {
		t.Errorf("expected noSuchStream kind, got %q", e.Kind)
	}
}

func TestVideoScenario_HalfSizeFrame(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "av.mp4")

	h.OpenVideo(id, -1)
	evs := n.Events()
	if len(evs) != 2 {
		t.Fatalf("expected Debug and Done, got %#v", evs)
	}
	if _, ok := evs[1].(events.Done); !ok {
		t.Fatalf("expected Done, got %#v", evs[1])
	}
	n.Reset()

	h.VideoSetSize(id, 960, 540)
	expect[events.Done](t, n)

	h.VideoStatus(id)
	st := expect[events.VideoStatus](t, n)
	if st.Width != 1920 || st.Height != 1080 || st.OutWidth != 960 || st.OutHeight != 540 {
		t.Errorf("unexpected geometry %+v", st)
	}
	if st.Framerate != 25 || st.Length != 10 {
		t.Errorf("unexpected rate/length %+v", st)
	}

	// Rendering needs a current frame.
	if h.SendCurrentVideoFrame(id) != nil {
		t.Fatal("expected nil payload without current frame")
	}
	if e := expect[events.RuntimeError](t, n); e.Kind != "noCurrentFrame" {
		t.Errorf("expected noCurrentFrame, got %q", e.Kind)
	}

	h.CurrentVideoPosition(id)
	if p := expect[events.Position](t, n); p.Value != 0 {
		t.Errorf("expected position 0, got %d", p.Value)
	}

	payload := h.SendCurrentVideoFrame(id)
	if payload == nil {
		t.Fatalf("expected payload, got event %#v", n.Last())
	}
	stride := binary.LittleEndian.Uint64(payload[16:])
	length := binary.LittleEndian.Uint64(payload[24:])
	if stride != 960 {
		t.Errorf("expected stride 960, got %d", stride)
	}
	if length != 960*540*4 || len(payload) != 32+960*540*4 {
		t.Errorf("expected length %d, got %d (payload %d)", 960*540*4, length, len(payload))
	}
}

func TestVideoNavigation(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "video.mp4")
	h.OpenVideo(id, 0)
	n.Reset()

	h.SeekVideo(id, 2)
	expect[events.Done](t, n)
	h.CurrentVideoPosition(id)
	if p := expect[events.Position](t, n); p.Value != 2 {
		t.Errorf("expected position 2 after seek, got %d", p.Value)
	}

	h.MoveToNextVideoFrame(id)
	if p := expect[events.Position](t, n); p.Value != -1 {
		t.Errorf("expected -1 at end, got %d", p.Value)
	}

	h.SeekVideo(id, 50)
	if e := expect[events.RuntimeError](t, n); e.Kind != "seekFailure" {
		t.Errorf("expected seekFailure, got %q", e.Kind)
	}
}

func TestAudioScenario(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "av.mp4")

	h.OpenAudio(id, -1)
	n.Reset()

	h.AudioStatus(id)
	st := expect[events.AudioStatus](t, n)
	if st.SampleRate != 48000 || st.Length != 96000 {
		t.Errorf("unexpected status %+v", st)
	}

	if h.SendCurrentAudioFrame(id) != nil {
		t.Fatal("expected nil payload without current block")
	}
	expect[events.RuntimeError](t, n)

	h.GetIntensities(id, 48000, 4800)
	list := expect[events.IntensityList](t, n)
	if len(list.Data) != 10 || list.Start != 0 || list.End != 48000 {
		t.Errorf("unexpected summary start=%d end=%d entries=%d", list.Start, list.End, len(list.Data))
	}

	h.CurrentAudioPosition(id)
	if p := expect[events.Position](t, n); p.Value != 48128 {
		t.Errorf("expected block 48128 to be current, got %d", p.Value)
	}

	payload := h.SendCurrentAudioFrame(id)
	if payload == nil {
		t.Fatalf("expected payload, got %#v", n.Last())
	}
	if got := binary.LittleEndian.Uint64(payload[16:]); got != 1024 {
		t.Errorf("expected 1024 samples, got %d", got)
	}

	h.SeekAudio(id, 95000)
	expect[events.Done](t, n)
	h.PollNextAudioFrame(id)
	if p := expect[events.Position](t, n); p.Value != 94208 {
		t.Errorf("expected block 94208, got %d", p.Value)
	}
	h.PollNextAudioFrame(id)
	expect[events.Position](t, n)
	h.PollNextAudioFrame(id)
	if p := expect[events.Position](t, n); p.Value != -1 {
		t.Errorf("expected -1 at end, got %d", p.Value)
	}
}

func TestMediaStatusAndClose(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "av.mp4")
	h.OpenAudio(id, -1)
	n.Reset()

	h.MediaStatus(id)
	st := expect[events.MediaStatus](t, n)
	if st.AudioIndex != 0 || st.VideoIndex != -1 {
		t.Errorf("unexpected indices %d/%d", st.AudioIndex, st.VideoIndex)
	}
	if st.Duration != 2 || len(st.Streams) != 2 {
		t.Errorf("unexpected status %+v", st)
	}

	h.CloseMedia(id)
	expect[events.Done](t, n)
	h.CloseMedia(id)
	expect[events.InvalidID](t, n)
}

func TestSink_ReceivesSentUnits(t *testing.T) {
	h, n := newHandler(t)
	sink := mocks.NewFrameSink(true)
	h.SetSink(sink)
	id := openMedia(t, h, n, "av.mp4")

	h.OpenVideo(id, -1)
	h.OpenAudio(id, -1)
	h.CurrentVideoPosition(id)
	h.CurrentAudioPosition(id)
	n.Reset()

	if h.SendCurrentVideoFrame(id) == nil {
		t.Fatalf("expected video payload, got %#v", n.Last())
	}
	if h.SendCurrentAudioFrame(id) == nil {
		t.Fatalf("expected audio payload, got %#v", n.Last())
	}
	if _, ok := sink.Frames[0]; !ok {
		t.Error("expected frame 0 to be exported")
	}
	if _, ok := sink.Payloads["audio-0-0.bin"]; !ok {
		t.Errorf("expected audio payload to be exported, got %v", len(sink.Payloads))
	}
}

func TestSink_DisabledIsIgnored(t *testing.T) {
	h, n := newHandler(t)
	sink := mocks.NewFrameSink(false)
	h.SetSink(sink)
	id := openMedia(t, h, n, "video.mp4")
	h.OpenVideo(id, -1)
	h.CurrentVideoPosition(id)

	h.SendCurrentVideoFrame(id)
	if len(sink.Frames) != 0 {
		t.Error("disabled sink must not receive frames")
	}
}
