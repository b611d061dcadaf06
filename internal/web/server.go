// Package web serves the chart generator over HTTP: HTML pages for people
// and a JSON API for scripts.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/scorecharts/internal/config"
	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/logging"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
	mw "github.com/JonMunkholm/scorecharts/internal/web/middleware"
)

// Server is the HTTP front end of a pipeline.Service.
type Server struct {
	svc      *pipeline.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	validate *validator.Validate
	rate     *mw.RateLimiter
	metrics  http.Handler

	// background work started by Start, stopped by Shutdown
	bg     context.Context
	stopBg context.CancelFunc
}

// NewServer wires routes and middleware. gatherer backs /metrics and may be
// nil, in which case the default registry is served.
func NewServer(svc *pipeline.Service, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	bg, stop := context.WithCancel(context.Background())
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		bg:       bg,
		stopBg:   stop,
	}
	if cfg.Rate.Enabled {
		s.rate = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/html", "application/json", "text/csv"))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(mw.SecurityHeaders(s.cfg.Security.EnableCSP))
}

// limited applies the per-client rate limit when it is enabled.
func (s *Server) limited(r chi.Router) {
	if s.rate != nil {
		r.Use(s.rate.Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics)

	s.router.Get("/", s.handleIndex)
	s.router.Group(func(r chi.Router) {
		s.limited(r)
		r.Post("/charts", s.handleCharts)
		r.Post("/charts/mapping", s.handleMapping)
		r.Post("/charts/bundle/{format}", s.handleBundle)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))
		r.Get("/history", s.handleAPIHistory)
		r.Group(func(r chi.Router) {
			s.limited(r)
			r.Post("/detect", s.handleAPIDetect)
			r.Post("/charts", s.handleAPICharts)
			r.Post("/bundle/{format}", s.handleBundle)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	if s.rate != nil {
		go s.rate.Cleanup(s.bg, time.Minute)
	}

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopBg()
	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) defaultOptions() pipeline.Options {
	c := s.cfg.Chart
	return pipeline.Options{
		ShowAverageLine:       c.ShowAverageLine,
		ShowAverageBar:        c.ShowAverageBar,
		ShowSummaryTable:      c.ShowSummaryTable,
		ShowIndividualSummary: c.ShowIndividualSummary,
		TitlePrefix:           c.TitlePrefix,
	}
}

func (s *Server) logRenderError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
}

func (s *Server) logRejected(r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"code", core.MapError(err).Code,
		"error", err,
	)
}
