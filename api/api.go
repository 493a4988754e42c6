// Package api exposes operator diagnostics: prometheus metrics, version and
// readiness. It deliberately runs on stdlib net/http on a separate port, so
// it never shares the injector's hand-rolled wire path.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wirefault/wirefault/internal/version"
)

type Server struct {
	addr string
	mux  *http.ServeMux
	log  *zap.Logger

	ready func() bool
}

func NewServer(addr string, r prometheus.Gatherer, ready func() bool, log *zap.Logger) *Server {
	s := &Server{
		addr:  addr,
		mux:   http.NewServeMux(),
		log:   log,
		ready: ready,
	}

	s.mux.Handle("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("/readyz", s.readyz)
	s.mux.HandleFunc("/version", s.version)

	return s
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves the API until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api: bind %s: %w", s.addr, err)
	}

	s.log.Info("api listening", zap.String("addr", listener.Addr().String()))

	srv := &http.Server{Handler: s.mux}

	stop := context.AfterFunc(ctx, func() {
		_ = srv.Close()
	})
	defer stop()

	if err := srv.Serve(listener); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")

	if s.ready == nil || s.ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("Service Unavailable"))
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	v := struct {
		Version string `json:"version"`
		GoArch  string `json:"go_arch"`
		GoOS    string `json:"go_os"`
	}{
		Version: version.Version,
		GoArch:  runtime.GOARCH,
		GoOS:    runtime.GOOS,
	}

	if err := jsoniter.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("version encode failed", zap.Error(err))
	}
}
