package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/user/framescope/pkg/adapters/logger"
	"github.com/user/framescope/pkg/mocks"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
)

func newRegistry() *Registry {
	opener := &mocks.ContainerOpener{
		OpenFunc: func(path string) (ports.Container, error) {
			if path == "bad.mp4" {
				return nil, errors.New("moov box not found")
			}
			return mocks.NewContainer(
				[]ports.StreamInfo{mocks.VideoStream(0, 8, 8, 25, 5)},
				map[int][]ports.Packet{0: mocks.VideoPackets(0, 5, 5)},
			), nil
		},
	}
	return New(playback.Dependencies{
		Opener:   opener,
		Decoders: &mocks.DecoderFactory{},
		Scaler:   &mocks.Scaler{},
		Logger:   logger.NewNoop(),
	})
}

func TestRegistry_IDsIncreaseAndAreNotReused(t *testing.T) {
	r := newRegistry()

	for want := 0; want < 3; want++ {
		id, err := r.Open("a.mp4")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if id != want {
			t.Errorf("expected id %d, got %d", want, id)
		}
	}

	if err := r.Close(1); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	id, _ := r.Open("b.mp4")
	if id != 3 {
		t.Errorf("expected id 3 after close, got %d", id)
	}

	ids := r.IDs()
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestRegistry_FailedOpenDoesNotConsumeID(t *testing.T) {
	r := newRegistry()

	if _, err := r.Open("bad.mp4"); !errors.Is(err, playback.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
	id, err := r.Open("good.mp4")
	if err != nil || id != 0 {
		t.Errorf("expected id 0, got %d (%v)", id, err)
	}
}

func TestRegistry_UnknownSession(t *testing.T) {
	r := newRegistry()
	id, _ := r.Open("a.mp4")

	called := false
	err := r.Do(id+42, func(s *playback.Session) error {
		called = true
		return nil
	})
	if !errors.Is(err, playback.ErrUnknownSession) {
		t.Errorf("Do: expected ErrUnknownSession, got %v", err)
	}
	if errors.Is(err, playback.ErrNoSuchStream) {
		t.Error("unknown session must be distinct from no such stream")
	}
	if called {
		t.Error("callback must not run for unknown id")
	}
	if err := r.Close(id + 42); !errors.Is(err, playback.ErrUnknownSession) {
		t.Errorf("Close: expected ErrUnknownSession, got %v", err)
	}

	// Closed ids become unknown.
	if err := r.Close(id); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Do(id, func(*playback.Session) error { return nil }); !errors.Is(err, playback.ErrUnknownSession) {
		t.Errorf("expected ErrUnknownSession after close, got %v", err)
	}
}

func TestRegistry_DoPropagatesErrors(t *testing.T) {
	r := newRegistry()
	id, _ := r.Open("a.mp4")

	err := r.Do(id, func(s *playback.Session) error {
		_, err := s.Audio()
		return err
	})
	if !errors.Is(err, playback.ErrNoSuchStream) {
		t.Errorf("expected ErrNoSuchStream, got %v", err)
	}
}

func TestRegistry_SerializesCalls(t *testing.T) {
	r := newRegistry()
	id, _ := r.Open("a.mp4")

	var (
		wg       sync.WaitGroup
		inFlight int
		maxSeen  int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Do(id, func(s *playback.Session) error {
				inFlight++
				if inFlight > maxSeen {
					maxSeen = inFlight
				}
				inFlight--
				return nil
			})
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one call in flight, saw %d", maxSeen)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := newRegistry()
	for i := 0; i < 3; i++ {
		if _, err := r.Open("a.mp4"); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
	}

	if err := r.CloseAll(); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}
	if len(r.IDs()) != 0 {
		t.Errorf("expected empty registry, got %v", r.IDs())
	}
}
