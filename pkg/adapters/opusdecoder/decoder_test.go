package opusdecoder

import (
	"errors"
	"math"
	"testing"

	"github.com/thesyncim/gopus"

	"github.com/user/framescope/pkg/ports"
)

func encodeTone(t *testing.T, channels, frames int) [][]byte {
	t.Helper()
	enc, err := gopus.NewEncoder(SampleRate, channels, gopus.ApplicationAudio)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	var packets [][]byte
	for f := 0; f < frames; f++ {
		pcm := make([]float32, 960*channels)
		for i := 0; i < 960; i++ {
			v := float32(0.5 * math.Sin(2*math.Pi*440*float64(f*960+i)/SampleRate))
			for c := 0; c < channels; c++ {
				pcm[i*channels+c] = v
			}
		}
		pkt, err := enc.EncodeFloat32(pcm)
		if err != nil {
			t.Fatalf("encode frame %d: %v", f, err)
		}
		packets = append(packets, pkt)
	}
	return packets
}

func TestDecoder_StereoPlanes(t *testing.T) {
	d, err := New(ports.StreamInfo{Channels: 2})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	for i, data := range encodeTone(t, 2, 3) {
		blocks, err := d.Decode(ports.Packet{Position: int64(i * 960), Data: data})
		if err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		b := blocks[0]
		if b.Position != int64(i*960) {
			t.Errorf("expected position %d, got %d", i*960, b.Position)
		}
		if len(b.Planes) != 2 || b.SampleCount() != 960 || len(b.Planes[1]) != 960 {
			t.Errorf("unexpected block shape: %d planes, %d samples", len(b.Planes), b.SampleCount())
		}
	}

	d.Reset()
	if blocks, _ := d.Flush(); blocks != nil {
		t.Error("expected no buffered blocks")
	}
}

func TestDecoder_EmptyPacket(t *testing.T) {
	d, err := New(ports.StreamInfo{Channels: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	blocks, err := d.Decode(ports.Packet{})
	if err != nil || blocks != nil {
		t.Errorf("expected nothing for an empty packet, got %v, %v", blocks, err)
	}
}

func TestNew_RejectsSurround(t *testing.T) {
	if _, err := New(ports.StreamInfo{Channels: 6}); !errors.Is(err, ErrChannels) {
		t.Errorf("expected ErrChannels, got %v", err)
	}
}

func TestDeinterleave(t *testing.T) {
	planes := deinterleave([]float32{1, -1, 2, -2, 3, -3}, 2)
	if len(planes) != 2 {
		t.Fatalf("expected 2 planes, got %d", len(planes))
	}
	for i, want := range []float32{1, 2, 3} {
		if planes[0][i] != want || planes[1][i] != -want {
			t.Errorf("sample %d: got %v/%v", i, planes[0][i], planes[1][i])
		}
	}
}
