package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/user/framescope/pkg/adapters/filesink"
	"github.com/user/framescope/pkg/adapters/ggrenderer"
	"github.com/user/framescope/pkg/adapters/jsonnotifier"
	"github.com/user/framescope/pkg/adapters/nullsink"
	"github.com/user/framescope/pkg/adapters/osfilesystem"
	"github.com/user/framescope/pkg/command"
	"github.com/user/framescope/pkg/config"
	"github.com/user/framescope/pkg/metrics"
	"github.com/user/framescope/pkg/ports"
	"github.com/user/framescope/pkg/registry"
)

// maxRequestLine bounds one JSON request line.
const maxRequestLine = 1 << 20

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: l10n.T("Run the playback engine over JSON lines on stdin and stdout"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "metrics-addr",
				Usage:    l10n.T("Expose Prometheus metrics on this address (e.g. :9090)"),
				Category: l10n.T("Serving"),
			},
			&cli.IntFlag{
				Name:     "buffer",
				Usage:    l10n.T("Initial event queue capacity"),
				Category: l10n.T("Serving"),
			},
			&cli.StringFlag{
				Name:     "payload-out",
				Usage:    l10n.T("Append length-prefixed frame payloads to this file"),
				Category: l10n.T("Output"),
			},
			&cli.StringFlag{
				Name:     "dump-dir",
				Usage:    l10n.T("Export every sent frame and audio block into this directory"),
				Category: l10n.T("Output"),
			},
		},
		Action: func(c *cli.Context) error {
			cfg, log, deps, err := setup(c)
			if err != nil {
				return err
			}
			if c.IsSet("metrics-addr") {
				cfg.MetricsAddr = c.String("metrics-addr")
			}
			if c.IsSet("buffer") {
				cfg.NotifierBuffer = c.Int("buffer")
			}
			if c.IsSet("dump-dir") {
				cfg.DumpDir = c.String("dump-dir")
			}

			metrics.Initialize()
			if cfg.MetricsAddr != "" {
				srv := startMetrics(cfg.MetricsAddr, log)
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					srv.Shutdown(ctx)
				}()
			}

			notifier := jsonnotifier.New(os.Stdout, cfg.NotifierBuffer, log)
			defer notifier.Close()

			reg := registry.New(deps)
			defer reg.CloseAll()

			handler := command.New(reg, notifier, log)
			handler.SetSink(newSink(cfg))

			payloads := io.Discard
			if path := c.String("payload-out"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("open payload output: %w", err)
				}
				defer f.Close()
				payloads = f
			}

			err = serveLoop(c.Context, os.Stdin, handler, payloads)
			if errors.Is(err, context.Canceled) {
				log.Warn("Interrupted, shutting down...")
				return nil
			}
			return err
		},
	}
}

func newSink(cfg config.Config) ports.FrameSink {
	if cfg.DumpDir == "" {
		return nullsink.New()
	}
	sink := filesink.New(cfg.DumpDir, osfilesystem.New(), ggrenderer.New())
	if cfg.DumpFormat == "jpeg" {
		return sink.WithJPEG(cfg.JPEGQuality)
	}
	return sink
}

func startMetrics(addr string, log ports.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("%s failed: %s", "metrics", err.Error())
		}
	}()
	log.Info("Metrics listening on %s", addr)
	return srv
}

// serveLoop dispatches one JSON request per line of r until EOF or ctx is done.
// Binary payloads of the send commands are written to payloads, each prefixed
// with its length as a little-endian uint32.
func serveLoop(ctx context.Context, r io.Reader, h *command.Handler, payloads io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRequestLine)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req command.Request
		if err := json.Unmarshal(line, &req); err != nil {
			h.Reject(fmt.Errorf("malformed request: %w", err))
			continue
		}

		if payload := h.Dispatch(req); payload != nil {
			if err := writePayload(payloads, payload); err != nil {
				return fmt.Errorf("write payload: %w", err)
			}
		}
	}
	return scanner.Err()
}

func writePayload(w io.Writer, payload []byte) error {
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
