// Package wirefault reproduces a captured HTTP/1.1 response byte for byte,
// split across exactly two TCP writes at a configured offset. The fixture
// exists to exercise clients and intermediaries against the precise wire
// conditions of a known parsing defect: a chunked, gzip-encoded response
// whose first transport segment ends mid-body.
package wirefault

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wirefault/wirefault/catalog"
	"github.com/wirefault/wirefault/config"
	"github.com/wirefault/wirefault/internal/metrics"
	httpsrv "github.com/wirefault/wirefault/internal/server/http"
	"github.com/wirefault/wirefault/internal/server/tcp"
)

// App composes the catalog, dispatcher and listener into a runnable fixture.
type App struct {
	cfg        *config.Config
	split      int
	log        *zap.Logger
	registry   *prometheus.Registry
	dispatcher *httpsrv.Dispatcher
	ready      atomic.Bool
}

// New validates the configuration, freezes the catalog (applying the fault
// mode, if any) and renders both responses. Out-of-range split offsets fail
// here, at startup, never at request time.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat := catalog.New(cfg.Fault)

	split := cfg.SplitOffset
	if err := config.ValidateSplitOffset(split, httpsrv.DataResponseLen(cat)); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	return &App{
		cfg:      cfg,
		split:    split,
		log:      log,
		registry: registry,
		dispatcher: httpsrv.NewDispatcher(
			cfg, cat, split,
			log.Named("http"),
			metrics.NewInjector(registry, "wirefault"),
		),
	}, nil
}

// SplitOffset returns the resolved write boundary.
func (a *App) SplitOffset() int {
	return a.split
}

// Registry exposes the app's metrics for the diagnostics API.
func (a *App) Registry() prometheus.Gatherer {
	return a.registry
}

// Ready reports whether the listener is bound.
func (a *App) Ready() bool {
	return a.ready.Load()
}

// Run binds the listener and serves until ctx is canceled. A bind failure is
// returned immediately and is fatal to the process.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", a.cfg.Addr, err)
	}

	a.log.Info("listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("split_offset", a.split),
		zap.Stringer("fault", a.cfg.Fault),
	)

	a.ready.Store(true)
	defer a.ready.Store(false)

	return tcp.NewServer(listener, a.dispatcher.ServeConn, a.log.Named("tcp")).Serve(ctx)
}
