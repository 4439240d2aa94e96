package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framescope/pkg/adapters/filesink"
	"github.com/user/framescope/pkg/adapters/ggrenderer"
	"github.com/user/framescope/pkg/adapters/osfilesystem"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
)

func frameCommand() *cli.Command {
	return &cli.Command{
		Name:      "frame",
		Usage:     l10n.T("Export the video frame at a position as an image"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    l10n.T("Output image path (.png or .jpg)"),
				Category: l10n.T("Output"),
			},
			&cli.Int64Flag{
				Name:     "position",
				Aliases:  []string{"p"},
				Usage:    l10n.T("Position in stream time base units"),
				Category: l10n.T("Position"),
			},
			&cli.Float64Flag{
				Name:     "at",
				Usage:    l10n.T("Position in seconds (overrides --position)"),
				Category: l10n.T("Position"),
			},
			&cli.IntFlag{
				Name:     "stream",
				Value:    playback.DefaultStream,
				Usage:    l10n.T("Video stream index (-1 selects the default stream)"),
				Category: l10n.T("Position"),
			},
			&cli.IntFlag{
				Name:     "width",
				Aliases:  []string{"W"},
				Usage:    l10n.T("Output width (default: original width)"),
				Category: l10n.T("Output"),
			},
			&cli.IntFlag{
				Name:     "height",
				Aliases:  []string{"H"},
				Usage:    l10n.T("Output height (default: original height)"),
				Category: l10n.T("Output"),
			},
			&cli.StringFlag{
				Name:     "dump-dir",
				Usage:    l10n.T("Also export the frame into this directory"),
				Category: l10n.T("Output"),
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

			width, height := cfg.OutputWidth, cfg.OutputHeight
			if c.IsSet("width") {
				width = c.Int("width")
			}
			if c.IsSet("height") {
				height = c.Int("height")
			}

			req := frameRequest{
				Path:     c.Args().First(),
				Stream:   c.Int("stream"),
				Position: c.Int64("position"),
				Width:    width,
				Height:   height,
			}
			if c.IsSet("at") {
				req.Seconds = c.Float64("at")
				req.UseSeconds = true
			}

			pos, img, err := extractFrame(req, deps)
			if err != nil {
				return err
			}

			fs := osfilesystem.New()
			renderer := ggrenderer.New()
			output := c.String("output")
			format, quality := imageFormat(output, cfg.JPEGQuality)
			data, err := renderer.EncodeImage(img, format, quality)
			if err != nil {
				return err
			}
			if err := fs.WriteFile(output, data); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			log.Info("Frame %d saved to %s", pos, output)

			if dir := c.String("dump-dir"); dir != "" {
				if err := filesink.New(dir, fs, renderer).SaveFrame(pos, img); err != nil {
					log.Warn("Saving frame %d: %v", pos, err)
				}
			}
			return nil
		},
	}
}

type frameRequest struct {
	Path       string
	Stream     int
	Position   int64
	Seconds    float64
	UseSeconds bool
	// Zero keeps the original size.
	Width  int
	Height int
}

// extractFrame seeks to the requested position and renders the frame found there.
func extractFrame(req frameRequest, deps playback.Dependencies) (int64, *image.RGBA, error) {
	s, err := playback.Open(req.Path, deps)
	if err != nil {
		return 0, nil, err
	}
	defer s.Close()

	if err := s.OpenVideo(req.Stream); err != nil {
		return 0, nil, err
	}
	v, err := s.Video()
	if err != nil {
		return 0, nil, err
	}

	pos := req.Position
	if req.UseSeconds {
		pos = ports.Rescale(int64(req.Seconds*1e6), ports.Rational{Num: 1, Den: 1000000}, v.TimeBase())
	}
	if err := v.Seek(pos); err != nil {
		return 0, nil, err
	}

	w, h := v.OriginalSize()
	if req.Width > 0 {
		w = req.Width
	}
	if req.Height > 0 {
		h = req.Height
	}
	if err := v.SetOutputSize(w, h); err != nil {
		return 0, nil, err
	}

	frame, err := v.EnsureCurrent()
	if err != nil {
		return 0, nil, err
	}
	img, err := v.RenderCurrent()
	if err != nil {
		return 0, nil, err
	}
	return frame.Position, img, nil
}

func imageFormat(path string, jpegQuality int) (ports.ImageFormat, int) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return ports.FormatJPEG, jpegQuality
	default:
		return ports.FormatPNG, 0
	}
}
