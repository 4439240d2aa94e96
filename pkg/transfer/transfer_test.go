package transfer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/user/framescope/pkg/ports"
)

// videoHeader mirrors the wire layout for an independent reader.
type videoHeader struct {
	Position int64
	Time     float64
	Stride   uint64
	Length   uint64
}

type audioHeader struct {
	Position int64
	Time     float64
	Length   uint64
}

func TestEncodeVideo_Layout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	tb := ports.Rational{Num: 1, Den: 25}

	data := EncodeVideo(50, tb, img)

	var h videoHeader
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		t.Fatalf("binary.Read failed: %v", err)
	}
	if h.Position != 50 {
		t.Errorf("position: got %d, want 50", h.Position)
	}
	if math.Abs(h.Time-2.0) > 1e-9 {
		t.Errorf("time: got %v, want 2.0", h.Time)
	}
	if h.Stride != 3 {
		t.Errorf("stride: got %d, want 3", h.Stride)
	}
	if h.Length != 24 {
		t.Errorf("length: got %d, want 24", h.Length)
	}
	payload := data[32:]
	if !bytes.Equal(payload, img.Pix) {
		t.Error("payload differs from image pixels")
	}
}

func TestEncodeVideo_SubImagePacksRows(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range full.Pix {
		full.Pix[i] = byte(i)
	}
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	v, err := DecodeVideo(EncodeVideo(0, ports.Rational{Num: 1, Den: 1}, sub))
	if err != nil {
		t.Fatalf("DecodeVideo failed: %v", err)
	}
	if v.Stride != 2 || len(v.Pixels) != 16 {
		t.Fatalf("expected stride 2 and 16 bytes, got %d and %d", v.Stride, len(v.Pixels))
	}
	// row 1, columns 1..2 of the 4x4 image
	want := full.Pix[1*16+4 : 1*16+12]
	if !bytes.Equal(v.Pixels[:8], want) {
		t.Errorf("first row: got %v, want %v", v.Pixels[:8], want)
	}
}

func TestVideo_RoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 960, 540))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	tb := ports.Rational{Num: 1, Den: 12800}

	v, err := DecodeVideo(EncodeVideo(1234567, tb, img))
	if err != nil {
		t.Fatalf("DecodeVideo failed: %v", err)
	}
	if v.Position != 1234567 {
		t.Errorf("position: got %d", v.Position)
	}
	if math.Abs(v.Time-1234567.0/12800.0) > 1e-9 {
		t.Errorf("time: got %v", v.Time)
	}
	if v.Stride != 960 || len(v.Pixels) != 960*540*4 {
		t.Errorf("geometry: stride %d length %d", v.Stride, len(v.Pixels))
	}
	if !bytes.Equal(v.Pixels, img.Pix) {
		t.Error("pixels differ")
	}
	if back := v.Image(); back.Bounds() != img.Bounds() {
		t.Errorf("Image bounds: got %v", back.Bounds())
	}
}

func TestEncodeAudio_Layout(t *testing.T) {
	samples := []float32{0, 0.5, -1, 0.25}
	data := EncodeAudio(96000, ports.Rational{Num: 1, Den: 48000}, samples)

	var h audioHeader
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		t.Fatalf("binary.Read failed: %v", err)
	}
	if h.Position != 96000 || math.Abs(h.Time-2.0) > 1e-9 || h.Length != 4 {
		t.Errorf("header: %+v", h)
	}
	got := make([]float32, h.Length)
	if err := binary.Read(r, binary.LittleEndian, got); err != nil {
		t.Fatalf("binary.Read samples failed: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], samples[i])
		}
	}
	if len(data) != 24+16 {
		t.Errorf("expected 40 bytes, got %d", len(data))
	}
}

func TestAudio_RoundTrip(t *testing.T) {
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 10))
	}

	a, err := DecodeAudio(EncodeAudio(-5, ports.Rational{Num: 1, Den: 44100}, samples))
	if err != nil {
		t.Fatalf("DecodeAudio failed: %v", err)
	}
	if a.Position != -5 {
		t.Errorf("position: got %d", a.Position)
	}
	if len(a.Samples) != len(samples) {
		t.Fatalf("length: got %d", len(a.Samples))
	}
	for i := range samples {
		if a.Samples[i] != samples[i] {
			t.Fatalf("sample %d differs", i)
		}
	}
}

func TestDecode_ShortPayload(t *testing.T) {
	tests := []struct {
		name   string
		decode func() error
	}{
		{"video header", func() error { _, err := DecodeVideo(make([]byte, 10)); return err }},
		{"video length", func() error {
			data := EncodeVideo(0, ports.Rational{Num: 1, Den: 1}, image.NewRGBA(image.Rect(0, 0, 2, 2)))
			_, err := DecodeVideo(data[:len(data)-1])
			return err
		}},
		{"audio header", func() error { _, err := DecodeAudio(make([]byte, 23)); return err }},
		{"audio length", func() error {
			data := EncodeAudio(0, ports.Rational{Num: 1, Den: 1}, []float32{1, 2})
			_, err := DecodeAudio(data[:len(data)-4])
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(); !errors.Is(err, ErrShortPayload) {
				t.Errorf("expected ErrShortPayload, got %v", err)
			}
		})
	}
}
