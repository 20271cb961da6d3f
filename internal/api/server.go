// SPDX-License-Identifier: MIT

// Package api exposes the configuration core's read interface over HTTP.
// It serves whatever the store currently holds, verbatim; all failure
// handling lives below it in the config package.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/groveworks/siteconf/internal/config"
	xlog "github.com/groveworks/siteconf/internal/log"
)

// Options tunes the HTTP surface.
type Options struct {
	// RateLimit is the per-IP request budget per minute. <=0 disables it.
	RateLimit int
}

// Server serves the read API over a Manager.
type Server struct {
	mgr    *config.Manager
	logger zerolog.Logger

	mu      sync.RWMutex
	updated map[string]time.Time
}

// New creates a server and subscribes it to reload notifications so
// responses can carry the domain's last update time.
func New(mgr *config.Manager) *Server {
	s := &Server{
		mgr:     mgr,
		logger:  xlog.WithComponent("api"),
		updated: make(map[string]time.Time),
	}
	mgr.Subscribe(config.EventLoaded, func(ev config.Event) {
		s.mu.Lock()
		s.updated[ev.Domain] = ev.Time
		s.mu.Unlock()
	})
	return s
}

// Router builds the chi router for the read API.
func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/config", func(r chi.Router) {
		r.Get("/", s.handleAll)
		r.Get("/{domain}", s.handleGet)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAll(w http.ResponseWriter, _ *http.Request) {
	all := s.mgr.All()
	out := make(map[string]any, len(all))
	for name, v := range all {
		out[name] = v.ToGo()
	}
	s.writeJSON(w, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "domain")

	s.mu.RLock()
	updated, ok := s.updated[name]
	s.mu.RUnlock()
	if ok {
		w.Header().Set("Last-Modified", updated.UTC().Format(http.TimeFormat))
	}

	// Unknown domains serve an empty mapping, mirroring the store contract.
	s.writeJSON(w, s.mgr.Get(name).ToGo())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Str("event", "api.encode_failed").Msg("write response")
	}
}
