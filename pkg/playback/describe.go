package playback

import (
	"fmt"
	"strings"

	"github.com/user/framescope/pkg/ports"
)

// Describe formats a stream for display, e.g.
// "#0 video h264 1920x1080 25.00 fps yuv420p (default)".
func Describe(info ports.StreamInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s", info.Index, info.Kind, info.Codec)

	switch info.Kind {
	case ports.KindVideo:
		fmt.Fprintf(&b, " %dx%d", info.Width, info.Height)
		if !info.FrameRate.IsZero() {
			fmt.Fprintf(&b, " %.2f fps", info.FrameRate.Float64())
		}
		if info.PixelFormat != ports.PixelFormatUnknown {
			fmt.Fprintf(&b, " %s", info.PixelFormat)
		}
	case ports.KindAudio:
		fmt.Fprintf(&b, " %d Hz %d ch", info.SampleRate, info.Channels)
		if info.SampleFormat != "" {
			fmt.Fprintf(&b, " %s", info.SampleFormat)
		}
	}

	if !info.TimeBase.IsZero() && info.Length > 0 {
		fmt.Fprintf(&b, " %.3f s", float64(info.Length)*info.TimeBase.Float64())
	}
	if info.Default {
		b.WriteString(" (default)")
	}
	return b.String()
}
