//go:build libaom

package av1decoder

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx) {
    return aom_codec_dec_init(ctx, aom_codec_av1_dx(), NULL, 0);
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static int is_i420(aom_image_t *img) {
    return img->fmt == AOM_IMG_FMT_I420;
}
*/
import "C"

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/user/framescope/pkg/ports"
)

// Available reports whether AV1 decoding is compiled in.
const Available = true

// Decoder implements ports.VideoDecoder using libaom.
type Decoder struct {
	codec *C.aom_codec_ctx_t
}

// New creates and initializes a decoder.
func New(info ports.StreamInfo) (*Decoder, error) {
	d := &Decoder{}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) init() error {
	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("av1decoder: failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	if res := C.init_decoder(d.codec); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("av1decoder: failed to initialize decoder: %d", res)
	}
	return nil
}

// Decode returns every shown frame produced by the packet.
func (d *Decoder) Decode(pkt ports.Packet) ([]ports.VideoFrame, error) {
	if d.codec == nil {
		if err := d.init(); err != nil {
			return nil, err
		}
	}
	if len(pkt.Data) == 0 {
		return nil, nil
	}

	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&pkt.Data[0])),
		C.size_t(len(pkt.Data)),
		nil,
	)
	if res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("%w: packet at %d: %d", ErrDecodeFailed, pkt.Position, res)
	}

	var frames []ports.VideoFrame
	var iter C.aom_codec_iter_t
	for {
		img := C.aom_codec_get_frame(d.codec, &iter)
		if img == nil {
			break
		}
		if C.is_i420(img) == 0 {
			return nil, fmt.Errorf("%w: only 8-bit 4:2:0 output is supported", ErrDecodeFailed)
		}
		frames = append(frames, ports.VideoFrame{Position: pkt.Position, Image: toYCbCr(img)})
	}
	return frames, nil
}

// Flush implements ports.VideoDecoder. libaom outputs frames without delay.
func (d *Decoder) Flush() ([]ports.VideoFrame, error) {
	return nil, nil
}

// Reset recreates the codec context; the next packet re-initializes it.
func (d *Decoder) Reset() {
	d.Close()
}

// Close releases decoder resources.
func (d *Decoder) Close() {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
}

// toYCbCr copies the three planes of an I420 image.
func toYCbCr(img *C.aom_image_t) *image.YCbCr {
	width := int(img.d_w)
	height := int(img.d_h)
	out := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)

	copyPlane(out.Y, out.YStride, C.get_plane(img, 0), int(C.get_stride(img, 0)), width, height)
	cw, ch := (width+1)/2, (height+1)/2
	copyPlane(out.Cb, out.CStride, C.get_plane(img, 1), int(C.get_stride(img, 1)), cw, ch)
	copyPlane(out.Cr, out.CStride, C.get_plane(img, 2), int(C.get_stride(img, 2)), cw, ch)
	return out
}

func copyPlane(dst []byte, dstStride int, src *C.uchar, srcStride, width, rows int) {
	plane := unsafe.Slice((*byte)(unsafe.Pointer(src)), srcStride*rows)
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+width], plane[y*srcStride:y*srcStride+width])
	}
}

var _ ports.VideoDecoder = (*Decoder)(nil)
