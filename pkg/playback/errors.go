package playback

import "errors"

// Error taxonomy. Callers match with errors.Is.
// End of stream is not an error: Advance reports it as false.
var (
	// ErrUnknownSession means a session identifier was never issued or was closed.
	ErrUnknownSession = errors.New("playback: unknown session")

	// ErrNoSuchStream means the requested stream index or kind does not exist,
	// or an operation needs a stream kind that was never opened.
	ErrNoSuchStream = errors.New("playback: no such stream")

	// ErrDecodeFailure means the container or decoder could not produce a unit.
	ErrDecodeFailure = errors.New("playback: decode failure")

	// ErrSeekFailure means a precise seek reached end of stream before the target.
	ErrSeekFailure = errors.New("playback: seek failure")

	// ErrConfiguration means invalid output geometry, an unsupported pixel
	// format or an invalid analysis parameter.
	ErrConfiguration = errors.New("playback: configuration error")

	// ErrInvalidSession means the session has been closed.
	ErrInvalidSession = errors.New("playback: invalid session")

	// ErrNoCurrentFrame means an operation needs a cached unit but none exists.
	ErrNoCurrentFrame = errors.New("playback: no current frame")
)

// Kind returns a short name for the taxonomy class of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownSession):
		return "unknownSession"
	case errors.Is(err, ErrNoSuchStream):
		return "noSuchStream"
	case errors.Is(err, ErrSeekFailure):
		return "seekFailure"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInvalidSession):
		return "invalidSession"
	case errors.Is(err, ErrNoCurrentFrame):
		return "noCurrentFrame"
	case errors.Is(err, ErrDecodeFailure):
		return "decodeFailure"
	default:
		return "internal"
	}
}
