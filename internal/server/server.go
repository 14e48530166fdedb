// Package server exposes the catalog over a read-only JSON API.
//
// Usage:
//
//	srv := server.New(cat, cfg.Server, server.WithLogger(log))
//	if err := srv.ListenAndServe(ctx); err != nil { ... }
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/config"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/logger"
)

// Server serves one sealed catalog.
type Server struct {
	cat *catalog.Catalog
	cfg config.ServerConfig
	log *logger.Logger
	db  database.DB
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l.Component("server") }
}

// WithDatabase makes /healthz ping db and /tables/{name}/ddl default to
// its dialect.
func WithDatabase(db database.DB) Option {
	return func(s *Server) { s.db = db }
}

func New(cat *catalog.Catalog, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{cat: cat, cfg: cfg, log: logger.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.listTables)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getTable)
			r.Get("/key", s.getKey)
			r.Get("/ddl", s.getDDL)
			r.Get("/fields/{field}/choices", s.getChoices)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, errorView{
			Error:   http.StatusText(http.StatusNotFound),
			Message: "no route for " + r.URL.Path,
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down within
// the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoWith("listening", map[string]any{"addr": s.cfg.Addr, "tables": s.cat.Len()})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
