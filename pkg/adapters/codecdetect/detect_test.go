package codecdetect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFromSampleEntry(t *testing.T) {
	tests := []struct {
		entry string
		want  Codec
	}{
		{"avc1", CodecH264},
		{"avc3", CodecH264},
		{"av01", CodecAV1},
		{"jpeg", CodecMJPEG},
		{"png ", CodecPNG},
		{"Opus", CodecOpus},
		{"sowt", CodecPCMS16LE},
		{"twos", CodecPCMS16BE},
		{"fl32", CodecPCMF32BE},
		{"hvc1", CodecUnknown},
	}

	for _, tt := range tests {
		if got := FromSampleEntry(tt.entry); got != tt.want {
			t.Errorf("FromSampleEntry(%q) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Format
	}{
		{"ogg", []byte("OggS\x00\x02"), FormatOgg},
		{"mp4", []byte("\x00\x00\x00\x20ftypisom"), FormatMP4},
		{"fragment", []byte("\x00\x00\x00\x18stypmsdh"), FormatMP4},
		{"short", []byte("Og"), FormatUnknown},
		{"riff", []byte("RIFF\x00\x00\x00\x00WAVE"), FormatUnknown},
	}

	for _, tt := range tests {
		if got := SniffFormat(tt.header); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatOfFile(t *testing.T) {
	dir := t.TempDir()

	ogg := filepath.Join(dir, "a.ogg")
	if err := os.WriteFile(ogg, []byte("OggS"), 0644); err != nil {
		t.Fatal(err)
	}
	if f, err := FormatOfFile(ogg); err != nil || f != FormatOgg {
		t.Errorf("expected ogg, got %q (%v)", f, err)
	}

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello world, not media"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := FormatOfFile(txt); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}

	if _, err := FormatOfFile(filepath.Join(dir, "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDetectFromBytes_Invalid(t *testing.T) {
	if _, err := DetectFromBytes([]byte("not an mp4")); err == nil {
		t.Error("expected error for invalid data")
	}
}
