package command

import (
	"fmt"

	"github.com/user/framescope/pkg/playback"
)

// Request is one command read from a caller, e.g.
// {"cmd":"seek_video","id":0,"position":1200}.
type Request struct {
	Cmd      string `json:"cmd"`
	ID       int    `json:"id"`
	Path     string `json:"path,omitempty"`
	Index    *int   `json:"index,omitempty"`
	Position int64  `json:"position,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Until    int64  `json:"until,omitempty"`
	Step     int64  `json:"step,omitempty"`
}

// Commands lists the names Dispatch accepts.
var Commands = []string{
	"open_media", "close_media", "media_status", "audio_status", "video_status",
	"open_audio", "open_video", "video_set_size", "seek_audio", "seek_video",
	"move_to_next_audio_frame", "move_to_next_video_frame", "poll_next_audio_frame",
	"get_current_audio_position", "get_current_video_position",
	"send_current_audio_frame", "send_current_video_frame", "get_intensities",
}

// Dispatch runs req. It returns the binary payload of the send commands;
// every other outcome is reported through the notifier. An unknown command
// name is reported as a configuration runtime error.
func (h *Handler) Dispatch(req Request) []byte {
	switch req.Cmd {
	case "open_media":
		h.OpenMedia(req.Path)
	case "close_media":
		h.CloseMedia(req.ID)
	case "media_status":
		h.MediaStatus(req.ID)
	case "audio_status":
		h.AudioStatus(req.ID)
	case "video_status":
		h.VideoStatus(req.ID)
	case "open_audio":
		h.OpenAudio(req.ID, req.index())
	case "open_video":
		h.OpenVideo(req.ID, req.index())
	case "video_set_size":
		h.VideoSetSize(req.ID, req.Width, req.Height)
	case "seek_audio":
		h.SeekAudio(req.ID, req.Position)
	case "seek_video":
		h.SeekVideo(req.ID, req.Position)
	case "move_to_next_audio_frame":
		h.MoveToNextAudioFrame(req.ID)
	case "move_to_next_video_frame":
		h.MoveToNextVideoFrame(req.ID)
	case "poll_next_audio_frame":
		h.PollNextAudioFrame(req.ID)
	case "get_current_audio_position":
		h.CurrentAudioPosition(req.ID)
	case "get_current_video_position":
		h.CurrentVideoPosition(req.ID)
	case "send_current_audio_frame":
		return h.SendCurrentAudioFrame(req.ID)
	case "send_current_video_frame":
		return h.SendCurrentVideoFrame(req.ID)
	case "get_intensities":
		h.GetIntensities(req.ID, req.Until, req.Step)
	default:
		h.Reject(fmt.Errorf("unknown command %q", req.Cmd))
	}
	return nil
}

// Reject reports a request that could not be dispatched as a configuration error.
func (h *Handler) Reject(err error) {
	h.emit("reject", runtimeError(fmt.Errorf("%w: %w", playback.ErrConfiguration, err)))
}

// index returns the requested stream index, or the default stream when absent.
func (r Request) index() int {
	if r.Index == nil {
		return playback.DefaultStream
	}
	return *r.Index
}
