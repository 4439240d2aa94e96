// Package codecdetect identifies container formats and codecs.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec names a coding format. The values are used as ports.StreamInfo.Codec.
type Codec string

const (
	CodecH264     Codec = "h264"
	CodecAV1      Codec = "av1"
	CodecMJPEG    Codec = "mjpeg"
	CodecPNG      Codec = "png"
	CodecAAC      Codec = "aac"
	CodecOpus     Codec = "opus"
	CodecPCMS16LE Codec = "pcm_s16le"
	CodecPCMS16BE Codec = "pcm_s16be"
	CodecPCMF32LE Codec = "pcm_f32le"
	CodecPCMF32BE Codec = "pcm_f32be"
	CodecUnknown  Codec = "unknown"
)

// Format is a container format.
type Format string

const (
	FormatMP4     Format = "mp4"
	FormatOgg     Format = "ogg"
	FormatUnknown Format = "unknown"
)

// ErrUnknownFormat is returned when no container signature matches.
var ErrUnknownFormat = errors.New("codecdetect: unknown container format")

// FromSampleEntry maps an MP4 sample entry type to a codec.
func FromSampleEntry(entryType string) Codec {
	switch entryType {
	case "avc1", "avc3":
		return CodecH264
	case "av01":
		return CodecAV1
	case "jpeg", "mjpa", "mjpb":
		return CodecMJPEG
	case "png ":
		return CodecPNG
	case "mp4a":
		return CodecAAC
	case "Opus":
		return CodecOpus
	case "sowt":
		return CodecPCMS16LE
	case "twos":
		return CodecPCMS16BE
	case "fl32":
		return CodecPCMF32BE
	default:
		return CodecUnknown
	}
}

// SniffFormat identifies the container from its first bytes.
func SniffFormat(header []byte) Format {
	switch {
	case len(header) >= 4 && bytes.Equal(header[:4], []byte("OggS")):
		return FormatOgg
	case len(header) >= 8:
		switch string(header[4:8]) {
		case "ftyp", "styp", "moov", "moof", "mdat", "free", "wide", "skip":
			return FormatMP4
		}
	}
	return FormatUnknown
}

// FormatOfFile sniffs the container format of the file at path.
func FormatOfFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return FormatUnknown, fmt.Errorf("read header: %w", err)
	}
	format := SniffFormat(header[:n])
	if format == FormatUnknown {
		return format, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return format, nil
}

// DetectFromFile returns the codec of the first video track of an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return CodecUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader returns the codec of the first video track of an MP4 stream.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	return detectFromMP4File(mp4File)
}

// DetectFromBytes returns the codec of the first video track of MP4 data.
func DetectFromBytes(data []byte) (Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

func detectFromMP4File(mp4File *mp4.File) (Codec, error) {
	var moov *mp4.MoovBox
	switch {
	case mp4File.IsFragmented() && mp4File.Init != nil:
		moov = mp4File.Init.Moov
	default:
		moov = mp4File.Moov
	}
	if moov == nil {
		return CodecUnknown, fmt.Errorf("no moov box found")
	}

	for _, trak := range moov.Traks {
		if HandlerType(trak) != "vide" {
			continue
		}
		if codec := FromSampleEntry(SampleEntryType(trak)); codec != CodecUnknown {
			return codec, nil
		}
	}

	return CodecUnknown, fmt.Errorf("no video track found")
}

// HandlerType returns the hdlr type of a track ("vide", "soun", ...).
func HandlerType(trak *mp4.TrakBox) string {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return ""
	}
	return trak.Mdia.Hdlr.HandlerType
}

// SampleEntryType returns the type of the track's first sample entry.
func SampleEntryType(trak *mp4.TrakBox) string {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return ""
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		return child.Type()
	}
	return ""
}
