package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DrC0ns0le/speedtest-exporter/internal/config"
	"github.com/DrC0ns0le/speedtest-exporter/internal/metrics"
	"github.com/DrC0ns0le/speedtest-exporter/internal/speedtest"
	"github.com/DrC0ns0le/speedtest-exporter/pkg/logging"
)

const healthTimeout = 5 * time.Second

const indexPage = `<html>
	<head><title>Speedtest Exporter</title></head>
	<body>
		<h1>Speedtest Exporter</h1>
		<p>Prometheus exporter for Ookla Speedtest CLI</p>
		<p><a href="/metrics">Metrics</a></p>
		<p><a href="/health">Health Check</a></p>
	</body>
</html>
`

// MetricsSource serves the current measurement. Satisfied by *speedtest.Cache.
type MetricsSource interface {
	Metrics(ctx context.Context) speedtest.Result
}

// Checker probes whether the measurement tool is runnable. Satisfied by
// *speedtest.Runner.
type Checker interface {
	CheckVersion(ctx context.Context) error
}

// Server composes the cache, the liveness checker and the gauge registry
// behind the three HTTP routes.
type Server struct {
	port        int
	cache       MetricsSource
	checker     Checker
	metrics     *metrics.Metrics
	promHandler http.Handler
}

func New(cfg *config.Config, cache MetricsSource, checker Checker, m *metrics.Metrics) *Server {
	return &Server{
		port:        cfg.Port,
		cache:       cache,
		checker:     checker,
		metrics:     m,
		promHandler: promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}),
	}
}

// Handler returns the route mux. Split out from Serve for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

func (s *Server) Serve() error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Infof("serving on http://0.0.0.0:%d", s.port)
	return srv.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

// handleHealth checks that the speedtest CLI still answers a version probe.
// Deliberately decoupled from the result cache: it validates tool
// availability, not network throughput.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.checker.CheckVersion(ctx); err != nil {
		logging.Errorf("health check failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("ERROR"))
		return
	}

	w.Write([]byte("OK"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Errorf("error generating metrics: %v", rec)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}()

	s.metrics.Publish(s.cache.Metrics(r.Context()))
	s.promHandler.ServeHTTP(w, r)
}
