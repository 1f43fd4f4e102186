// Package addon exposes the dual-subtitle pipeline over the addon host's
// HTTP conventions: a manifest, a configure page and a subtitle-list
// endpoint, plus artifact serving.
package addon

import (
	"context"
	"net/http"
	"time"

	"github.com/dualsub/dualsub/internal/cache"
	"github.com/dualsub/dualsub/internal/service"
	"github.com/dualsub/dualsub/internal/store"
)

type Server struct {
	svc   *service.Service
	cache *cache.ResponseCache
	files store.Store

	metricsHandler http.Handler

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithResponseCache memoizes subtitle-list responses between requests.
func WithResponseCache(c *cache.ResponseCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithFileStore serves stored artifacts from /files/.
func WithFileStore(fs store.Store) Option {
	return func(s *Server) { s.files = fs }
}

// WithMetricsHandler mounts a handler (typically promhttp) on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/manifest.json", s.handleManifest)
	s.mux.HandleFunc("/configure", s.handleConfigure)
	s.mux.HandleFunc("/subtitles/", s.handleSubtitles)
	s.mux.HandleFunc("/files/", s.handleFiles)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		s.mux.Handle("/metrics", s.metricsHandler)
	}
}
