// Package av1decoder decodes AV1 video with libaom.
//
// The cgo implementation is compiled with the libaom build tag; without it New
// returns ErrNotBuilt so the rest of the engine still builds without the library.
package av1decoder

import "errors"

var (
	// ErrNotBuilt is returned when the binary was built without libaom.
	ErrNotBuilt = errors.New("av1decoder: built without libaom (use -tags libaom)")

	// ErrDecodeFailed is returned when libaom rejects a packet.
	ErrDecodeFailed = errors.New("av1decoder: decode failed")
)
