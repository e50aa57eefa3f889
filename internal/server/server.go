// Package server exposes the upload, filter, chart and export flow over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/loader"
	"github.com/KaramelBytes/tabviz/internal/session"
)

// Options configures the HTTP shell.
type Options struct {
	Addr            string
	DateColumn      string
	CategoryColumn  string
	PreviewRows     int
	MaxUploadBytes  int64
	Load            loader.Options
	Renderer        chart.Renderer
	ExportFilename  string
	ExportBOM       bool
	SessionIdle     time.Duration
	ShutdownTimeout time.Duration
}

// Server serves one in-memory session store.
type Server struct {
	opts   Options
	store  *session.Store
	logger *slog.Logger
}

// New creates a server. Zero options fall back to the CLI defaults.
func New(opts Options, store *session.Store, logger *slog.Logger) *Server {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 5
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.ExportFilename == "" {
		opts.ExportFilename = "donnees_filtrees.csv"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	opts.Renderer = chart.NewRenderer(opts.Renderer.Width, opts.Renderer.Height, opts.Renderer.Format)
	if store == nil {
		store = session.NewStore()
	}
	return &Server{opts: opts, store: store, logger: logger.With(slog.String("component", "http_server"))}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Get("/preview", s.preview)
			r.Get("/options", s.options)
			r.Post("/run", s.run)
			r.Get("/chart", s.chart)
			r.Get("/export", s.export)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully. Idle
// sessions are pruned in the background when SessionIdle is set.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", slog.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if s.opts.SessionIdle > 0 {
		g.Go(func() error {
			tick := time.NewTicker(s.opts.SessionIdle / 4)
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-tick.C:
					if n := s.store.Prune(s.opts.SessionIdle); n > 0 {
						s.logger.Info("pruned idle sessions", slog.Int("count", n))
					}
				}
			}
		})
	}
	return g.Wait()
}
