package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/user/framescope/pkg/adapters/codecdetect"
	"github.com/user/framescope/pkg/adapters/smartdecoder"
	"github.com/user/framescope/pkg/playback"
)

type probeStream struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Backend     string `json:"backend"`
}

type probeResult struct {
	Path     string        `json:"path"`
	Duration float64       `json:"duration"`
	Streams  []probeStream `json:"streams"`
	Error    string        `json:"error,omitempty"`
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("List the streams of media files"),
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: l10n.T("Print results as JSON"),
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Value:   runtime.NumCPU(),
				Usage:   l10n.T("Files probed in parallel"),
			},
		},
		Action: func(c *cli.Context) error {
			files := c.Args().Slice()
			if len(files) == 0 {
				return cli.Exit(l10n.T("No input files"), 2)
			}
			cfg, log, deps, err := setup(c)
			if err != nil {
				return err
			}
			factory := smartdecoder.New(smartdecoder.Options{FFmpegPath: cfg.FFmpegPath})

			results := make([]probeResult, len(files))
			g, ctx := errgroup.WithContext(c.Context)
			g.SetLimit(max(1, c.Int("jobs")))
			for i, path := range files {
				g.Go(func() error {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					results[i] = probe(path, deps, factory)
					if results[i].Error != "" {
						log.Warn("%s failed: %s", path, results[i].Error)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printProbe(os.Stdout, results)
			return nil
		},
	}
}

// probe opens path and describes its streams. Failures are reported in the result.
func probe(path string, deps playback.Dependencies, factory *smartdecoder.Factory) probeResult {
	res := probeResult{Path: path, Streams: []probeStream{}}

	s, err := playback.Open(path, deps)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer s.Close()

	res.Duration, _ = s.Duration()
	infos, _ := s.Streams()
	descs, _ := s.DescribeStreams()
	for i, info := range infos {
		backend := "unsupported"
		if sel, err := factory.Select(codecdetect.Codec(info.Codec)); err == nil {
			backend = string(sel.Backend)
		}
		res.Streams = append(res.Streams, probeStream{
			Index:       info.Index,
			Description: descs[i],
			Backend:     backend,
		})
	}
	return res
}

func printProbe(w io.Writer, results []probeResult) {
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s: %s\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s: %.3f s\n", r.Path, r.Duration)
		for _, st := range r.Streams {
			fmt.Fprintf(w, "  %s [%s]\n", st.Description, st.Backend)
		}
	}
}
