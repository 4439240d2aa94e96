// Package opusdecoder decodes Opus packets with the pure-Go gopus decoder.
package opusdecoder

import (
	"errors"
	"fmt"

	"github.com/thesyncim/gopus"

	"github.com/user/framescope/pkg/ports"
)

// SampleRate is the rate Opus packets are decoded at.
const SampleRate = 48000

// ErrChannels is returned for streams that are not mono or stereo.
var ErrChannels = errors.New("opusdecoder: only mono and stereo streams are supported")

// Decoder implements ports.AudioDecoder.
type Decoder struct {
	dec      *gopus.Decoder
	channels int
}

// New creates a decoder for the stream.
func New(info ports.StreamInfo) (*Decoder, error) {
	channels := info.Channels
	if channels == 0 {
		channels = 2
	}
	if channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrChannels, channels)
	}
	dec, err := gopus.NewDecoder(SampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &Decoder{dec: dec, channels: channels}, nil
}

// Decode decodes one packet into a planar block at the packet position.
func (d *Decoder) Decode(pkt ports.Packet) ([]ports.AudioBlock, error) {
	if len(pkt.Data) == 0 {
		return nil, nil
	}
	pcm, err := d.dec.DecodeFloat32(pkt.Data)
	if err != nil {
		return nil, fmt.Errorf("decode opus packet at %d: %w", pkt.Position, err)
	}
	return []ports.AudioBlock{{
		Position: pkt.Position,
		Planes:   deinterleave(pcm, d.channels),
	}}, nil
}

// Flush implements ports.AudioDecoder. Opus has no reordering delay.
func (d *Decoder) Flush() ([]ports.AudioBlock, error) {
	return nil, nil
}

// Reset clears prediction state after a seek.
func (d *Decoder) Reset() {
	d.dec.Reset()
}

// Close implements ports.AudioDecoder.
func (d *Decoder) Close() {}

func deinterleave(pcm []float32, channels int) [][]float32 {
	n := len(pcm) / channels
	planes := make([][]float32, channels)
	for c := range planes {
		plane := make([]float32, n)
		for i := range plane {
			plane[i] = pcm[i*channels+c]
		}
		planes[c] = plane
	}
	return planes
}

var _ ports.AudioDecoder = (*Decoder)(nil)
