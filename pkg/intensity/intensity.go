// Package intensity computes windowed mean-square loudness over an audio stream.
//
// The analyzer drives the audio context's own cursor, so a long range can be
// summarized in consecutive calls: each call stops before the first block at or
// after its limit and leaves that block current for the next call.
package intensity

import (
	"fmt"

	"github.com/user/framescope/pkg/playback"
)

// Source is the audio cursor the analyzer consumes.
type Source interface {
	Current() *playback.AudioBlock
	Advance() (bool, error)
	AtEnd() bool
	Length() int64
}

// Summary is a run of per-window mean-square values.
// End - Start equals len(Values) * step.
type Summary struct {
	Start  int64
	End    int64
	Values []float32
}

// Compute summarizes blocks whose position is before until, in windows of step samples.
// Samples come from the first channel. A trailing partial window is dropped.
// When no block is consumed the summary is empty with Start == End.
func Compute(src Source, until, step int64) (Summary, error) {
	if step <= 0 {
		return Summary{}, fmt.Errorf("%w: intensity step %d must be positive", playback.ErrConfiguration, step)
	}

	block, err := first(src)
	if err != nil {
		return Summary{}, err
	}
	if block == nil {
		n := src.Length()
		return Summary{Start: n, End: n, Values: []float32{}}, nil
	}
	if block.Position >= until {
		return Summary{Start: block.Position, End: block.Position, Values: []float32{}}, nil
	}

	var (
		start  = block.Position
		values = []float32{}
		acc    window
	)
	acc.step = step
	for {
		for _, s := range block.Samples() {
			if v, full := acc.add(s); full {
				values = append(values, v)
			}
		}

		ok, err := src.Advance()
		if err != nil {
			return Summary{}, fmt.Errorf("advance audio: %w", err)
		}
		if !ok {
			break
		}
		block = src.Current()
		if block.Position >= until {
			break
		}
	}

	return Summary{
		Start:  start,
		End:    start + int64(len(values))*step,
		Values: values,
	}, nil
}

// first returns the block the summary starts with, or nil at end of stream.
func first(src Source) (*playback.AudioBlock, error) {
	if src.AtEnd() {
		return nil, nil
	}
	if b := src.Current(); b != nil {
		return b, nil
	}
	ok, err := src.Advance()
	if err != nil {
		return nil, fmt.Errorf("advance audio: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return src.Current(), nil
}

// window accumulates squared samples.
type window struct {
	step int64
	n    int64
	sum  float32
}

func (w *window) add(s float32) (float32, bool) {
	w.sum += s * s
	w.n++
	if w.n < w.step {
		return 0, false
	}
	v := w.sum / float32(w.step)
	w.n = 0
	w.sum = 0
	return v, true
}
