package server

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/internal"
	"github.com/jeffrom/greedyhisto/metrics"
)

// Http serves a single engine over http.
type Http struct {
	conf     *config.Config
	engine   *binning.Engine
	stats    *internal.Stats
	registry *prometheus.Registry

	mu  sync.Mutex
	ln  net.Listener
	mux *http.ServeMux
	srv *http.Server
}

// NewHttp returns a new instance of *Http.
func NewHttp(conf *config.Config, e *binning.Engine, s *internal.Stats) (*Http, error) {
	if s == nil {
		s = internal.NewStats()
	}
	collector, err := metrics.NewCollector(conf.MetricsNamespace, e, conf.Quantiles)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return nil, errors.Wrap(err, "registering collector")
	}

	mux := http.NewServeMux()
	srv := &Http{
		conf:     conf,
		engine:   e,
		stats:    s,
		registry: registry,
		mux:      mux,
	}
	srv.srv = &http.Server{
		Handler: srv.withLogging(mux),
	}
	srv.setupHandlers()
	return srv, nil
}

// Handler returns the root handler, including request logging.
func (s *Http) Handler() http.Handler {
	return s.srv.Handler
}

// GoServe listens on conf.HttpHost and serves in the background.
func (s *Http) GoServe() error {
	listener, err := net.Listen("tcp", s.conf.HttpHost)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.conf.HttpHost)
	}

	s.mu.Lock()
	s.ln = listener
	s.mu.Unlock()

	internal.Logf("Serving at %s", listener.Addr())
	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			internal.IgnoreError(err)
		}
	}()
	return nil
}

func (s *Http) setupHandlers() {
	s.mux.HandleFunc("/debug/pprof/", pprof.Index)
	s.mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s.mux.Handle("/debug/vars", expvar.Handler())
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.Handle("/ingest", &ingestHandler{conf: s.conf, engine: s.engine})
	s.mux.Handle("/bins", &binsHandler{conf: s.conf, engine: s.engine})
	s.mux.Handle("/display", &displayHandler{conf: s.conf, engine: s.engine})
	s.mux.Handle("/quantile", &quantileHandler{conf: s.conf, engine: s.engine})
	s.mux.Handle("/capacity", &capacityHandler{conf: s.conf, engine: s.engine})
	s.mux.Handle("/stats", &statsHandler{stats: s.stats})
}

// Stop shuts the server down, waiting up to conf.ShutdownTimeout for active
// requests.
func (s *Http) Stop() error {
	if addr := s.ListenAddr(); addr != nil {
		internal.Logf("Shutting down server at %s", addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.conf.ShutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// ListenAddr returns the listener address, or nil before GoServe.
func (s *Http) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
