// Package events defines the tagged results reported to a calling process.
package events

// Event is one notification. The set of implementations is closed.
type Event interface {
	// Tag returns the wire name of the event.
	Tag() string
	event()
}

// Done reports that a command completed without a payload.
type Done struct{}

// Opened reports the identifier of a newly opened session.
type Opened struct {
	ID int `json:"id"`
}

// Position reports a stream position in native units. -1 marks end of stream.
type Position struct {
	Value int64 `json:"value"`
}

// MediaStatus describes a session.
type MediaStatus struct {
	AudioIndex int      `json:"audioIndex"`
	VideoIndex int      `json:"videoIndex"`
	Duration   float64  `json:"duration"`
	Streams    []string `json:"streams"`
}

// AudioStatus describes the open audio stream.
type AudioStatus struct {
	Length     int64 `json:"length"`
	SampleRate int   `json:"sampleRate"`
}

// VideoStatus describes the open video stream.
type VideoStatus struct {
	Length    int64   `json:"length"`
	Framerate float64 `json:"framerate"`
	OutWidth  int     `json:"outWidth"`
	OutHeight int     `json:"outHeight"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// IntensityList carries a windowed loudness summary.
type IntensityList struct {
	Start int64     `json:"start"`
	End   int64     `json:"end"`
	Data  []float32 `json:"data"`
}

// Debug carries an informational message.
type Debug struct {
	Message string `json:"message"`
}

// RuntimeError reports a failed command.
type RuntimeError struct {
	Kind string `json:"kind"`
	What string `json:"what"`
}

// NoStream reports that the command needs a stream kind that is not open.
type NoStream struct{}

// InvalidID reports an unknown session identifier.
type InvalidID struct{}

func (Done) Tag() string          { return "done" }
func (Opened) Tag() string        { return "opened" }
func (Position) Tag() string      { return "position" }
func (MediaStatus) Tag() string   { return "mediaStatus" }
func (AudioStatus) Tag() string   { return "audioStatus" }
func (VideoStatus) Tag() string   { return "videoStatus" }
func (IntensityList) Tag() string { return "intensityList" }
func (Debug) Tag() string         { return "debug" }
func (RuntimeError) Tag() string  { return "runtimeError" }
func (NoStream) Tag() string      { return "noStream" }
func (InvalidID) Tag() string     { return "invalidId" }

func (Done) event()          {}
func (Opened) event()        {}
func (Position) event()      {}
func (MediaStatus) event()   {}
func (AudioStatus) event()   {}
func (VideoStatus) event()   {}
func (IntensityList) event() {}
func (Debug) event()         {}
func (RuntimeError) event()  {}
func (NoStream) event()      {}
func (InvalidID) event()     {}

// Envelope is the serialized form of an event: {"event": tag, "data": payload}.
type Envelope struct {
	Event string `json:"event"`
	Data  Event  `json:"data"`
}

// Wrap returns the envelope for e.
func Wrap(e Event) Envelope {
	return Envelope{Event: e.Tag(), Data: e}
}
