// Package imagingscaler resamples decoded frames with github.com/disintegration/imaging.
package imagingscaler

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/user/framescope/pkg/ports"
)

var (
	ErrUnknownFilter = errors.New("imagingscaler: unknown filter")
	ErrInvalidSize   = errors.New("imagingscaler: invalid size")
)

var filters = map[string]imaging.ResampleFilter{
	"lanczos":  imaging.Lanczos,
	"box":      imaging.Box,
	"linear":   imaging.Linear,
	"cubic":    imaging.CatmullRom,
	"nearest":  imaging.NearestNeighbor,
	"gaussian": imaging.Gaussian,
}

// Scaler implements ports.Scaler.
type Scaler struct {
	filter imaging.ResampleFilter
}

// New creates a Scaler for the named filter. An empty name selects Lanczos.
func New(filter string) (*Scaler, error) {
	if filter == "" {
		filter = "lanczos"
	}
	f, ok := filters[filter]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
	}
	return &Scaler{filter: f}, nil
}

func (s *Scaler) Supports(format ports.PixelFormat) bool {
	return format != ports.PixelFormatUnknown
}

// Scale resamples src to width x height. imaging produces NRGBA; decoded
// video is opaque so the bytes are reused as premultiplied RGBA.
func (s *Scaler) Scale(src image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if src == nil {
		return nil, errors.New("imagingscaler: nil source image")
	}

	var out *image.NRGBA
	if b := src.Bounds(); b.Dx() == width && b.Dy() == height {
		out = imaging.Clone(src)
	} else {
		out = imaging.Resize(src, width, height, s.filter)
	}
	return toRGBA(out), nil
}

func toRGBA(n *image.NRGBA) *image.RGBA {
	opaque := true
	for i := 3; i < len(n.Pix); i += 4 {
		if n.Pix[i] != 0xff {
			opaque = false
			break
		}
	}
	if opaque {
		return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
	}
	dst := image.NewRGBA(n.Rect)
	for y := n.Rect.Min.Y; y < n.Rect.Max.Y; y++ {
		for x := n.Rect.Min.X; x < n.Rect.Max.X; x++ {
			dst.Set(x, y, n.At(x, y))
		}
	}
	return dst
}

var _ ports.Scaler = (*Scaler)(nil)
