// Package filesink writes exported frames and summaries to a directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/framescope/pkg/ports"
)

// Sink saves exports to files under a base directory.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	format   ports.ImageFormat
	quality  int
}

// New creates a Sink that writes PNG frames.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		format:   ports.FormatPNG,
	}
}

// WithJPEG switches frame output to JPEG at the given quality.
func (s *Sink) WithJPEG(quality int) *Sink {
	s.format = ports.FormatJPEG
	s.quality = quality
	return s
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame saves a rendered frame as frames/frame-<position>.<ext>.
func (s *Sink) SaveFrame(position int64, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, s.format, s.quality)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", position, err)
	}
	ext := "png"
	if s.format == ports.FormatJPEG {
		ext = "jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%08d.%s", position, ext))
	return s.fs.WriteFile(path, data)
}

// SavePayload saves a raw transfer payload under payloads/.
func (s *Sink) SavePayload(name string, data []byte) error {
	dir := filepath.Join(s.baseDir, "payloads")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, filepath.Base(name)), data)
}

// SaveWaveform saves the intensity plot as waveform.png.
func (s *Sink) SaveWaveform(img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode waveform: %w", err)
	}
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "waveform.png"), data)
}

// SaveIntensityJSON saves an intensity summary as intensity.json.
func (s *Sink) SaveIntensityJSON(data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "intensity.json"), data)
}

var _ ports.FrameSink = (*Sink)(nil)
