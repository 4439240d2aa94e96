//go:build !libaom

package av1decoder

import "github.com/user/framescope/pkg/ports"

// Available reports whether AV1 decoding is compiled in.
const Available = false

// Decoder is unavailable without libaom.
type Decoder struct{}

// New always fails without libaom.
func New(info ports.StreamInfo) (*Decoder, error) {
	return nil, ErrNotBuilt
}

func (d *Decoder) Decode(pkt ports.Packet) ([]ports.VideoFrame, error) { return nil, ErrNotBuilt }
func (d *Decoder) Flush() ([]ports.VideoFrame, error)                  { return nil, nil }
func (d *Decoder) Reset()                                              {}
func (d *Decoder) Close()                                              {}

var _ ports.VideoDecoder = (*Decoder)(nil)
