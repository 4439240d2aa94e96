// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"

	"gopkg.in/yaml.v3"

	"github.com/user/framescope/pkg/ports"
	"github.com/user/framescope/pkg/waveform"
)

// Config represents the full configuration for framescope.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	Quiet    bool   `yaml:"quiet"`

	// Decoding
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Scaling
	Scaler       string `yaml:"scaler"`
	ScalerKernel string `yaml:"scaler_kernel"`
	OutputWidth  int    `yaml:"output_width"`
	OutputHeight int    `yaml:"output_height"`

	// Intensity
	IntensityStep int64 `yaml:"intensity_step"`

	// Serving
	NotifierBuffer int    `yaml:"notifier_buffer"`
	MetricsAddr    string `yaml:"metrics_addr"`

	// Export
	DumpDir     string         `yaml:"dump_dir"`
	DumpFormat  string         `yaml:"dump_format"`
	JPEGQuality int            `yaml:"jpeg_quality"`
	Waveform    WaveformConfig `yaml:"waveform"`
}

// WaveformConfig represents waveform plot settings.
type WaveformConfig struct {
	Width    int         `yaml:"width"`
	Height   int         `yaml:"height"`
	FontPath string      `yaml:"font_path"`
	Theme    ThemeConfig `yaml:"theme"`
}

// ThemeConfig represents theming options.
type ThemeConfig struct {
	BackgroundColor string `yaml:"background_color"`
	BarColor        string `yaml:"bar_color"`
	GridColor       string `yaml:"grid_color"`
	TextColor       string `yaml:"text_color"`
}

// Scaler names.
const (
	ScalerDraw    = "draw"
	ScalerImaging = "imaging"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel: "info",

		Scaler:       ScalerDraw,
		ScalerKernel: "catmullrom",

		IntensityStep: 4800,

		NotifierBuffer: 256,

		DumpFormat:  "png",
		JPEGQuality: 90,
		Waveform: WaveformConfig{
			Width:  1024,
			Height: 256,
			Theme: ThemeConfig{
				BackgroundColor: "#1a1a2e",
				BarColor:        "#4ade80",
				GridColor:       "#333355",
				TextColor:       "#ffffff",
			},
		},
	}
}

// Load reads a YAML file through fsys. Keys absent from the file keep
// their defaults.
func Load(fsys ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fsys.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	switch c.Scaler {
	case ScalerDraw, ScalerImaging:
	default:
		return fmt.Errorf("%w: scaler %q", ErrInvalid, c.Scaler)
	}
	if c.IntensityStep <= 0 {
		return fmt.Errorf("%w: intensity_step %d", ErrInvalid, c.IntensityStep)
	}
	if c.OutputWidth < 0 || c.OutputHeight < 0 {
		return fmt.Errorf("%w: output size %dx%d", ErrInvalid, c.OutputWidth, c.OutputHeight)
	}
	if c.DumpFormat != "png" && c.DumpFormat != "jpeg" {
		return fmt.Errorf("%w: dump_format %q", ErrInvalid, c.DumpFormat)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality %d", ErrInvalid, c.JPEGQuality)
	}
	return nil
}

// WaveformOptions converts the waveform settings to plot options.
func (c Config) WaveformOptions() waveform.Options {
	opts := waveform.DefaultOptions()
	if c.Waveform.Width > 0 {
		opts.Width = c.Waveform.Width
	}
	if c.Waveform.Height > 0 {
		opts.Height = c.Waveform.Height
	}
	opts.FontPath = c.Waveform.FontPath
	t := c.Waveform.Theme
	opts.Theme = waveform.Theme{
		Background: ParseColor(t.BackgroundColor),
		Bar:        ParseColor(t.BarColor),
		Grid:       ParseColor(t.GridColor),
		Text:       ParseColor(t.TextColor),
	}
	return opts
}

// ParseColor parses a hex color string (#rrggbb or #rgb) to color.Color.
// Malformed input yields black.
func ParseColor(hex string) color.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.Black
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(hex[2*i])
		lo, ok2 := hexValue(hex[2*i+1])
		if !ok1 || !ok2 {
			return color.Black
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
