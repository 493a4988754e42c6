package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wirefault/wirefault"
	"github.com/wirefault/wirefault/api"
	"github.com/wirefault/wirefault/config"
	"github.com/wirefault/wirefault/internal/version"
	"github.com/wirefault/wirefault/runctx"
)

type command struct {
	cfg *config.Config
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(c.cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := wirefault.New(c.cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		cmd.SilenceErrors = true
		return err
	}

	g := runctx.NewGroup(app.Run)
	if c.cfg.API.Addr != "" {
		g.Add(api.NewServer(c.cfg.API.Addr, app.Registry(), app.Ready, logger.Named("api")).Run)
	}

	if err := g.Run(); err != nil {
		logger.Error("fatal error, exiting", zap.Error(err))
		cmd.SilenceErrors = true
		return err
	}

	logger.Info("shut down cleanly")

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func rootCommand() *cobra.Command {
	c := command{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "wirefault [--addr <host:port>] [--split-offset <n>] [--fault <mode>]",
		Short: "Serve a captured chunked+gzip response split across two TCP writes",
		Long: `wirefault replays one captured HTTP/1.1 response byte for byte and splits
it across exactly two TCP writes at a fixed offset, reproducing the wire
conditions that made a proxy mis-parse a chunked, gzip-encoded body.

GET returns the captured data response, HEAD the captured status response.
The path is ignored. A fault mode corrupts a single byte of the chunked
framing to exercise client error paths instead of the happy path.`,
		RunE:         c.runE,
		SilenceUsage: true,
	}

	fs := cmd.Flags()
	fs.StringVarP(&c.cfg.Addr, "addr", "l", c.cfg.Addr,
		"address to listen on")
	fs.IntVar(&c.cfg.SplitOffset, "split-offset", c.cfg.SplitOffset,
		"byte offset into the serialized data response at which the two writes are split")
	fs.Var(&c.cfg.Fault, "fault",
		"single-byte corruption mode: none, chunk-start, chunk-boundary or mid-chunk")
	fs.StringVar(&c.cfg.API.Addr, "api-addr", c.cfg.API.Addr,
		"diagnostics address serving /metrics, /version and /readyz, empty disables it")
	fs.StringVar(&c.cfg.Log.Level, "log-level", c.cfg.Log.Level,
		"log level: debug, info, warn or error")

	cmd.AddCommand(versionCommand())

	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.Version)
		},
	}
}
