package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	logger "github.com/tigerroll/pdfflow/pkg/orchestration/support/util/logger"
)

// MetricsPath is where the metrics server exposes the Prometheus registry.
const MetricsPath = "/metrics"

// MetricsServer serves a Prometheus handler over HTTP.
type MetricsServer struct {
	srv *http.Server
	ln  net.Listener
}

// NewMetricsServer creates a server for handler on address. It does not listen yet.
func NewMetricsServer(address string, handler http.Handler) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, handler)
	return &MetricsServer{srv: &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start binds the listen address and serves in the background.
func (s *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server on %s stopped: %v", ln.Addr(), err)
		}
	}()
	logger.Infof("Metrics server listening on %s%s", ln.Addr(), MetricsPath)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *MetricsServer) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.srv.Addr
}

// Stop shuts the server down gracefully.
func (s *MetricsServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
