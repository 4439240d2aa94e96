package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framescope/pkg/adapters/filesink"
	"github.com/user/framescope/pkg/adapters/ggrenderer"
	"github.com/user/framescope/pkg/adapters/osfilesystem"
	"github.com/user/framescope/pkg/events"
	"github.com/user/framescope/pkg/intensity"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
	"github.com/user/framescope/pkg/waveform"
)

func waveformCommand() *cli.Command {
	return &cli.Command{
		Name:      "waveform",
		Usage:     l10n.T("Plot the loudness of an audio stream"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    l10n.T("Output directory for waveform.png and intensity.json"),
				Category: l10n.T("Output"),
			},
			&cli.Int64Flag{
				Name:     "step",
				Usage:    l10n.T("Window length in samples"),
				Category: l10n.T("Analysis"),
			},
			&cli.Float64Flag{
				Name:     "from",
				Usage:    l10n.T("Start of the analysed range in seconds"),
				Category: l10n.T("Analysis"),
			},
			&cli.Float64Flag{
				Name:     "until",
				Usage:    l10n.T("End of the analysed range in seconds (default: end of stream)"),
				Category: l10n.T("Analysis"),
			},
			&cli.IntFlag{
				Name:     "stream",
				Value:    playback.DefaultStream,
				Usage:    l10n.T("Audio stream index (-1 selects the default stream)"),
				Category: l10n.T("Analysis"),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("Exactly one input file is required"), 2)
			}
			cfg, log, deps, err := setup(c)
			if err != nil {
				return err
			}
			step := cfg.IntensityStep
			if c.IsSet("step") {
				step = c.Int64("step")
			}

			req := waveformRequest{
				Path:   c.Args().First(),
				Stream: c.Int("stream"),
				Step:   step,
				From:   c.Float64("from"),
				Until:  c.Float64("until"),
			}
			sum, rate, err := summarize(req, deps)
			if err != nil {
				return err
			}

			fs := osfilesystem.New()
			renderer := ggrenderer.New()
			sink := filesink.New(c.String("output"), fs, renderer)
			if err := exportWaveform(sink, renderer, cfg.WaveformOptions(), sum, step, rate); err != nil {
				return err
			}
			log.Info("Waveform saved to %s", filepath.Join(c.String("output"), "waveform.png"))
			return nil
		},
	}
}

type waveformRequest struct {
	Path   string
	Stream int
	Step   int64
	// Seconds. Until <= 0 means the end of the stream.
	From  float64
	Until float64
}

// summarize computes the intensity summary of the requested range.
// It returns the summary and the stream's sample rate.
func summarize(req waveformRequest, deps playback.Dependencies) (intensity.Summary, int, error) {
	s, err := playback.Open(req.Path, deps)
	if err != nil {
		return intensity.Summary{}, 0, err
	}
	defer s.Close()

	if err := s.OpenAudio(req.Stream); err != nil {
		return intensity.Summary{}, 0, err
	}
	a, err := s.Audio()
	if err != nil {
		return intensity.Summary{}, 0, err
	}

	rate := a.SampleRate()
	if req.From > 0 {
		if err := a.Seek(int64(req.From * float64(rate))); err != nil {
			return intensity.Summary{}, 0, err
		}
	}
	until := a.Length()
	if req.Until > 0 {
		until = int64(req.Until * float64(rate))
	}
	sum, err := intensity.Compute(a, until, req.Step)
	return sum, rate, err
}

// exportWaveform writes the plot and the raw summary through sink.
func exportWaveform(sink ports.FrameSink, renderer ports.Renderer, opts waveform.Options, sum intensity.Summary, step int64, rate int) error {
	img, err := waveform.New(renderer, opts).Plot(sum, step, rate)
	if err != nil {
		return fmt.Errorf("plot waveform: %w", err)
	}
	if err := sink.SaveWaveform(img); err != nil {
		return err
	}

	data, err := json.Marshal(events.IntensityList{Start: sum.Start, End: sum.End, Data: sum.Values})
	if err != nil {
		return err
	}
	return sink.SaveIntensityJSON(data)
}
