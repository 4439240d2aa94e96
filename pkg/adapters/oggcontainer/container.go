// Package oggcontainer demuxes Ogg Opus files with gopus/container/ogg.
//
// Opus always decodes at 48 kHz, so positions are sample counts at 48 kHz
// accumulated from each packet's TOC. Pre-skip samples are not trimmed.
package oggcontainer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"

	"github.com/user/framescope/pkg/adapters/codecdetect"
	"github.com/user/framescope/pkg/ports"
)

// SampleRate is the Opus decoding rate.
const SampleRate = 48000

// ErrStreamIndex is returned for any stream index other than 0.
var ErrStreamIndex = errors.New("oggcontainer: stream index out of range")

// Opener implements ports.ContainerOpener for Ogg Opus files.
type Opener struct{}

// NewOpener creates an Ogg Opus opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open reads every packet of the logical stream into memory.
func (o *Opener) Open(path string) (ports.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// Container implements ports.Container over an in-memory packet list.
type Container struct {
	info    ports.StreamInfo
	packets []ports.Packet
	next    int
	preSkip int
}

// Read parses an Ogg Opus stream.
func Read(r io.Reader) (*Container, error) {
	or, err := ogg.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read ogg headers: %w", err)
	}

	c := &Container{
		info: ports.StreamInfo{
			Index:        0,
			Kind:         ports.KindAudio,
			Codec:        string(codecdetect.CodecOpus),
			Default:      true,
			TimeBase:     ports.Rational{Num: 1, Den: SampleRate},
			SampleRate:   SampleRate,
			Channels:     int(or.Channels()),
			SampleFormat: "flt",
		},
		preSkip: int(or.PreSkip()),
	}

	var position int64
	for {
		data, _, err := or.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read packet %d: %w", len(c.packets), err)
		}
		if len(data) == 0 {
			continue
		}

		n, err := packetSamples(data)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", len(c.packets), err)
		}
		c.packets = append(c.packets, ports.Packet{
			Position:   position,
			DecodeTime: position,
			Duration:   int64(n),
			Keyframe:   true,
			Data:       data,
		})
		position += int64(n)
	}
	c.info.Length = position

	return c, nil
}

// packetSamples returns the number of 48 kHz samples per channel in an Opus packet.
func packetSamples(data []byte) (int, error) {
	info, err := gopus.ParsePacket(data)
	if err != nil {
		return 0, err
	}
	return gopus.ParseTOC(data[0]).FrameSize * info.FrameCount, nil
}

// PreSkip returns the encoder delay declared in the OpusHead, in samples.
func (c *Container) PreSkip() int {
	return c.preSkip
}

// Streams implements ports.Container.
func (c *Container) Streams() []ports.StreamInfo {
	return []ports.StreamInfo{c.info}
}

// Duration implements ports.Container.
func (c *Container) Duration() float64 {
	return float64(c.info.Length) / SampleRate
}

// ReadPacket implements ports.Container.
func (c *Container) ReadPacket(stream int) (ports.Packet, error) {
	if stream != 0 {
		return ports.Packet{}, fmt.Errorf("%w: %d", ErrStreamIndex, stream)
	}
	if c.next >= len(c.packets) {
		return ports.Packet{}, io.EOF
	}
	pkt := c.packets[c.next]
	c.next++
	return pkt, nil
}

// Seek implements ports.Container. Every Opus packet is a sync point.
func (c *Container) Seek(stream int, position int64) error {
	if stream != 0 {
		return fmt.Errorf("%w: %d", ErrStreamIndex, stream)
	}
	c.next = 0
	for i, pkt := range c.packets {
		if pkt.Position > position {
			break
		}
		c.next = i
	}
	return nil
}

// Close implements ports.Container.
func (c *Container) Close() error {
	c.packets = nil
	return nil
}

var (
	_ ports.ContainerOpener = (*Opener)(nil)
	_ ports.Container       = (*Container)(nil)
)
