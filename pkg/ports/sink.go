package ports

import (
	"image"
)

// FrameSink receives exported frames and summaries.
// It allows dumping rendered units to disk for inspection.
type FrameSink interface {
	// Enabled returns true if the sink writes anything.
	Enabled() bool

	// SaveFrame saves a rendered video frame at the given position.
	SaveFrame(position int64, img image.Image) error

	// SavePayload saves a raw frame transfer payload.
	SavePayload(name string, data []byte) error

	// SaveWaveform saves a rendered intensity plot.
	SaveWaveform(img image.Image) error

	// SaveIntensityJSON saves an intensity summary as JSON.
	SaveIntensityJSON(data []byte) error
}
