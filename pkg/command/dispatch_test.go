package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/user/framescope/pkg/events"
)

func TestDispatch_DecodesRequestsFromJSON(t *testing.T) {
	h, n := newHandler(t)

	var req Request
	if err := json.Unmarshal([]byte(`{"cmd":"open_media","path":"video.mp4"}`), &req); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if h.Dispatch(req) != nil {
		t.Error("open_media must not return a payload")
	}
	opened, ok := n.Last().(events.Opened)
	if !ok {
		t.Fatalf("expected Opened, got %#v", n.Last())
	}
	n.Reset()

	// absent index selects the default stream
	h.Dispatch(Request{Cmd: "open_video", ID: opened.ID})
	expect[events.Done](t, n)

	h.Dispatch(Request{Cmd: "video_set_size", ID: opened.ID, Width: 16, Height: 8})
	expect[events.Done](t, n)

	h.Dispatch(Request{Cmd: "move_to_next_video_frame", ID: opened.ID})
	if p := expect[events.Position](t, n); p.Value != 0 {
		t.Errorf("expected position 0, got %d", p.Value)
	}

	payload := h.Dispatch(Request{Cmd: "send_current_video_frame", ID: opened.ID})
	if len(payload) != 32+16*8*4 {
		t.Errorf("expected %d byte payload, got %d", 32+16*8*4, len(payload))
	}
}

func TestDispatch_ExplicitIndex(t *testing.T) {
	h, n := newHandler(t)
	id := openMedia(t, h, n, "video.mp4")

	bad := 7
	h.Dispatch(Request{Cmd: "open_video", ID: id, Index: &bad})
	if _, ok := n.Last().(events.RuntimeError); !ok {
		t.Errorf("expected RuntimeError for index 7, got %#v", n.Last())
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	h, n := newHandler(t)

	if h.Dispatch(Request{Cmd: "rewind"}) != nil {
		t.Error("expected nil payload")
	}
	e := expect[events.RuntimeError](t, n)
	if e.Kind != "configuration" || !strings.Contains(e.What, "rewind") {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestDispatch_EveryCommandEmitsOrReturns(t *testing.T) {
	h, n := newHandler(t)

	for _, name := range Commands {
		n.Reset()
		payload := h.Dispatch(Request{Cmd: name, ID: 42, Path: "missing.mp4", Step: 10, Until: 10})
		if payload == nil && n.Last() == nil {
			t.Errorf("%s: no event and no payload", name)
		}
		if e, ok := n.Last().(events.RuntimeError); ok && strings.Contains(e.What, "unknown command") {
			t.Errorf("%s: not dispatched", name)
		}
	}
}
