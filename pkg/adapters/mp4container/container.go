// Package mp4container demuxes progressive and fragmented MP4 files with mp4ff.
package mp4container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framescope/pkg/adapters/codecdetect"
	"github.com/user/framescope/pkg/ports"
)

var (
	// ErrNoTracks is returned when a file has no audio or video track.
	ErrNoTracks = errors.New("mp4container: no audio or video track")

	// ErrStreamIndex is returned for an out-of-range stream index.
	ErrStreamIndex = errors.New("mp4container: stream index out of range")
)

// Opener implements ports.ContainerOpener for MP4 files.
type Opener struct{}

// NewOpener creates an MP4 opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open parses the file's sample tables. Progressive sample data is read
// from the file on demand; fragment data is held in memory by mp4ff.
func (o *Opener) Open(path string) (ports.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	c, err := newContainer(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.file = f
	return c, nil
}

// sample is one entry of a track's sample index, in decode order.
type sample struct {
	pts      int64
	dts      int64
	dur      int64
	keyframe bool
	offset   int64
	size     uint32
	data     []byte // set for fragmented files
}

type track struct {
	info    ports.StreamInfo
	samples []sample
	next    int
}

// Container implements ports.Container.
type Container struct {
	mu       sync.Mutex
	file     io.ReaderAt
	tracks   []*track
	duration float64
}

func newContainer(r io.ReadSeeker) (*Container, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	c := &Container{}
	if mp4File.IsFragmented() {
		err = c.indexFragmented(mp4File)
	} else {
		err = c.indexProgressive(mp4File)
	}
	if err != nil {
		return nil, err
	}
	if len(c.tracks) == 0 {
		return nil, ErrNoTracks
	}

	for _, t := range c.tracks {
		t.info.Length = trackLength(t.samples)
		if t.info.Kind == ports.KindVideo {
			t.info.FrameRate = frameRate(t.info.TimeBase, t.samples)
		}
		if d := float64(t.info.Length) * t.info.TimeBase.Float64(); d > c.duration {
			c.duration = d
		}
	}
	if mvhd := movieHeader(mp4File); mvhd != nil && mvhd.Timescale > 0 && mvhd.Duration > 0 {
		c.duration = float64(mvhd.Duration) / float64(mvhd.Timescale)
	}
	return c, nil
}

func movieHeader(f *mp4.File) *mp4.MvhdBox {
	switch {
	case f.Moov != nil:
		return f.Moov.Mvhd
	case f.Init != nil && f.Init.Moov != nil:
		return f.Init.Moov.Mvhd
	}
	return nil
}

// addTrack registers an audio or video trak and returns nil for other handlers.
func (c *Container) addTrack(trak *mp4.TrakBox) *track {
	var kind ports.MediaKind
	switch codecdetect.HandlerType(trak) {
	case "vide":
		kind = ports.KindVideo
	case "soun":
		kind = ports.KindAudio
	default:
		return nil
	}

	var timescale uint32 = 1000
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	entry := codecdetect.SampleEntryType(trak)
	info := ports.StreamInfo{
		Index:    len(c.tracks),
		Kind:     kind,
		Codec:    string(codecdetect.FromSampleEntry(entry)),
		TimeBase: ports.Rational{Num: 1, Den: int64(timescale)},
	}
	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}

	applySampleEntry(&info, trak.Mdia.Minf.Stbl.Stsd)

	switch kind {
	case ports.KindVideo:
		info.PixelFormat = pixelFormat(codecdetect.Codec(info.Codec))
	case ports.KindAudio:
		if info.SampleRate == 0 {
			info.SampleRate = int(timescale)
		}
		if info.Channels == 0 {
			info.Channels = 1
		}
		info.SampleFormat = sampleFormat(codecdetect.Codec(info.Codec))
	}

	t := &track{info: info}
	c.tracks = append(c.tracks, t)
	return t
}

// applySampleEntry copies geometry, audio layout and parameter sets from the
// first sample entry. Later entries are ignored.
func applySampleEntry(info *ports.StreamInfo, stsd *mp4.StsdBox) {
	if stsd == nil || len(stsd.Children) == 0 {
		return
	}
	switch e := stsd.Children[0].(type) {
	case *mp4.VisualSampleEntryBox:
		info.Width = int(e.Width)
		info.Height = int(e.Height)
		if e.AvcC != nil {
			info.CodecConfig = parameterSets(e.AvcC)
		}
	case *mp4.AudioSampleEntryBox:
		info.Channels = int(e.ChannelCount)
		info.SampleSize = int(e.SampleSize)
		info.SampleRate = int(e.SampleRate)
	}
}

func (c *Container) indexProgressive(f *mp4.File) error {
	if f.Moov == nil {
		return fmt.Errorf("no moov box found")
	}
	for _, trak := range f.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		t := c.addTrack(trak)
		if t == nil {
			continue
		}
		samples, err := sampleTable(trak.Mdia.Minf.Stbl)
		if err != nil {
			return fmt.Errorf("track %d: %w", trak.Tkhd.TrackID, err)
		}
		t.samples = samples
	}
	return nil
}

// sampleTable flattens stts/ctts/stss/stsc/stsz/stco into a sample index.
func sampleTable(stbl *mp4.StblBox) ([]sample, error) {
	if stbl.Stsz == nil {
		return nil, fmt.Errorf("no stsz box found")
	}
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("no stsc box found")
	}

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	count := stbl.Stsz.SampleNumber
	samples := make([]sample, 0, count)
	var (
		chunk  = -1
		offset int64
	)
	for nr := uint32(1); nr <= count; nr++ {
		chunkNr, firstInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", nr, err)
		}
		if chunkNr != chunk {
			base, err := chunkOffset(stbl, chunkNr)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", nr, err)
			}
			offset = int64(base)
			for s := uint32(firstInChunk); s < nr; s++ {
				offset += int64(stbl.Stsz.GetSampleSize(int(s)))
			}
			chunk = chunkNr
		}

		var s sample
		if stbl.Stts != nil {
			dts, dur := stbl.Stts.GetDecodeTime(nr)
			s.dts = int64(dts)
			s.dur = int64(dur)
		}
		s.pts = s.dts
		if stbl.Ctts != nil {
			s.pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		s.keyframe = len(syncSamples) == 0 || syncSamples[nr]
		s.size = stbl.Stsz.GetSampleSize(int(nr))
		s.offset = offset
		offset += int64(s.size)

		samples = append(samples, s)
	}
	return samples, nil
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	switch {
	case stbl.Stco != nil:
		return stbl.Stco.GetOffset(chunkNr)
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk nr %d out of range", chunkNr)
		}
		return stbl.Co64.ChunkOffset[chunkNr-1], nil
	default:
		return 0, fmt.Errorf("no stco or co64 box")
	}
}

// indexFragmented reads every fragment. Only the first traf of each moof is used.
func (c *Container) indexFragmented(f *mp4.File) error {
	if f.Init == nil || f.Init.Moov == nil {
		return fmt.Errorf("no init segment found")
	}

	byID := make(map[uint32]*track)
	trexs := make(map[uint32]*mp4.TrexBox)
	if f.Init.Moov.Mvex != nil {
		for _, trex := range f.Init.Moov.Mvex.Trexs {
			trexs[trex.TrackID] = trex
		}
	}
	for _, trak := range f.Init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		if t := c.addTrack(trak); t != nil {
			byID[trak.Tkhd.TrackID] = t
		}
	}

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || frag.Moof.Traf == nil {
				continue
			}
			id := frag.Moof.Traf.Tfhd.TrackID
			t, ok := byID[id]
			if !ok {
				continue
			}
			full, err := frag.GetFullSamples(trexs[id])
			if err != nil {
				return fmt.Errorf("get samples: %w", err)
			}
			for _, fs := range full {
				t.samples = append(t.samples, sample{
					dts:      int64(fs.DecodeTime),
					pts:      int64(fs.DecodeTime) + int64(fs.CompositionTimeOffset),
					dur:      int64(fs.Dur),
					keyframe: fs.Flags == mp4.SyncSampleFlags,
					size:     fs.Size,
					data:     fs.Data,
				})
			}
		}
	}
	return nil
}

// Streams implements ports.Container.
func (c *Container) Streams() []ports.StreamInfo {
	out := make([]ports.StreamInfo, len(c.tracks))
	for i, t := range c.tracks {
		out[i] = t.info
	}
	return out
}

// Duration implements ports.Container.
func (c *Container) Duration() float64 {
	return c.duration
}

// ReadPacket implements ports.Container.
func (c *Container) ReadPacket(stream int) (ports.Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.track(stream)
	if err != nil {
		return ports.Packet{}, err
	}
	if t.next >= len(t.samples) {
		return ports.Packet{}, io.EOF
	}
	s := t.samples[t.next]

	data := s.data
	if data == nil {
		if c.file == nil {
			return ports.Packet{}, fmt.Errorf("sample %d: no data source", t.next+1)
		}
		data = make([]byte, s.size)
		if _, err := c.file.ReadAt(data, s.offset); err != nil {
			return ports.Packet{}, fmt.Errorf("read sample %d: %w", t.next+1, err)
		}
	}
	t.next++

	return ports.Packet{
		Stream:     stream,
		Position:   s.pts,
		DecodeTime: s.dts,
		Duration:   s.dur,
		Keyframe:   s.keyframe,
		Data:       data,
	}, nil
}

// Seek implements ports.Container.
func (c *Container) Seek(stream int, position int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.track(stream)
	if err != nil {
		return err
	}

	target := -1
	first := -1
	for i, s := range t.samples {
		if !s.keyframe {
			continue
		}
		if first < 0 {
			first = i
		}
		if s.pts <= position {
			target = i
		}
	}
	switch {
	case target >= 0:
		t.next = target
	case first >= 0:
		t.next = first
	default:
		t.next = 0
	}
	return nil
}

// Close implements ports.Container.
func (c *Container) Close() error {
	if closer, ok := c.file.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Container) track(stream int) (*track, error) {
	if stream < 0 || stream >= len(c.tracks) {
		return nil, fmt.Errorf("%w: %d", ErrStreamIndex, stream)
	}
	return c.tracks[stream], nil
}

// trackLength is the end of the last presented sample.
func trackLength(samples []sample) int64 {
	var end int64
	for _, s := range samples {
		if e := s.pts + s.dur; e > end {
			end = e
		}
	}
	return end
}

// frameRate derives frames per second from the median sample duration.
func frameRate(timeBase ports.Rational, samples []sample) ports.Rational {
	if len(samples) == 0 {
		return ports.Rational{}
	}
	durs := make([]int64, 0, len(samples))
	for _, s := range samples {
		if s.dur > 0 {
			durs = append(durs, s.dur)
		}
	}
	if len(durs) == 0 {
		return ports.Rational{}
	}
	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })
	num := timeBase.Den
	den := durs[len(durs)/2] * timeBase.Num
	g := gcd(num, den)
	return ports.Rational{Num: num / g, Den: den / g}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// parameterSets converts avcC SPS/PPS to Annex B.
func parameterSets(avcC *mp4.AvcCBox) []byte {
	var out []byte
	for _, sps := range avcC.SPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, pps...)
	}
	return out
}

func pixelFormat(codec codecdetect.Codec) ports.PixelFormat {
	switch codec {
	case codecdetect.CodecH264, codecdetect.CodecAV1, codecdetect.CodecMJPEG:
		return ports.PixelFormatYUV420
	case codecdetect.CodecPNG:
		return ports.PixelFormatRGBA
	default:
		return ports.PixelFormatUnknown
	}
}

func sampleFormat(codec codecdetect.Codec) string {
	switch codec {
	case codecdetect.CodecPCMS16LE, codecdetect.CodecPCMS16BE:
		return "s16"
	default:
		return "flt"
	}
}

var (
	_ ports.ContainerOpener = (*Opener)(nil)
	_ ports.Container       = (*Container)(nil)
)
