package ports

import "image"

// Scaler converts decoded frames to RGBA at a target size.
type Scaler interface {
	// Supports reports whether frames of the given pixel format can be converted.
	Supports(format PixelFormat) bool

	// Scale converts src to an RGBA image of width x height.
	Scale(src image.Image, width, height int) (*image.RGBA, error)
}
