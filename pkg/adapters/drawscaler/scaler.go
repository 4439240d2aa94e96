// Package drawscaler converts decoded frames to RGBA with golang.org/x/image/draw.
package drawscaler

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/framescope/pkg/ports"
)

// Kernel names accepted by New.
const (
	KernelNearest        = "nearest"
	KernelApproxBiLinear = "approx-bilinear"
	KernelBiLinear       = "bilinear"
	KernelCatmullRom     = "catmullrom"
)

var (
	// ErrUnknownKernel is returned by New for an unrecognized kernel name.
	ErrUnknownKernel = errors.New("drawscaler: unknown kernel")

	// ErrInvalidSize is returned by Scale for non-positive dimensions.
	ErrInvalidSize = errors.New("drawscaler: invalid size")
)

// Scaler implements ports.Scaler.
type Scaler struct {
	interp draw.Interpolator
}

// New creates a Scaler using the named kernel. An empty name selects Catmull-Rom.
func New(kernel string) (*Scaler, error) {
	var interp draw.Interpolator
	switch kernel {
	case "", KernelCatmullRom:
		interp = draw.CatmullRom
	case KernelBiLinear:
		interp = draw.BiLinear
	case KernelApproxBiLinear:
		interp = draw.ApproxBiLinear
	case KernelNearest:
		interp = draw.NearestNeighbor
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, kernel)
	}
	return &Scaler{interp: interp}, nil
}

// Supports reports whether frames of the given pixel format can be converted.
func (s *Scaler) Supports(format ports.PixelFormat) bool {
	switch format {
	case ports.PixelFormatYUV420, ports.PixelFormatYUV422, ports.PixelFormatYUV444,
		ports.PixelFormatRGBA, ports.PixelFormatGray:
		return true
	default:
		return false
	}
}

// Scale converts src to RGBA at width x height.
func (s *Scaler) Scale(src image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if src == nil {
		return nil, errors.New("drawscaler: nil source image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		// Same geometry: plain color conversion.
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst, nil
	}
	s.interp.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst, nil
}

var _ ports.Scaler = (*Scaler)(nil)
