// Package server exposes descriptor resolution over HTTP.
//
// Routes:
//
//	POST /v1/resolve?filename=recipe.hcl&recipe=name&os=Linux&arch=x86_64
//	POST /v1/style/check?filename=.cmake-format.yaml
//	GET  /v1/locks/{digest}
//	GET  /v1/recipes/{name}/locks
//	GET  /healthz
//
// Request bodies are raw descriptor text. Every response carries an
// X-Request-ID header; errors are JSON objects with "code" and "message".
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stackrecipe/pkg/pipeline"
	"github.com/matzehuels/stackrecipe/pkg/store"
)

// MaxBodyBytes bounds descriptor uploads.
const MaxBodyBytes = 1 << 20

// Server serves the resolution API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	router chi.Router
}

// New creates a server. A nil store selects an in-memory store.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, store: st, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.RequestSize(MaxBodyBytes)).Post("/resolve", s.handleResolve)
		r.With(middleware.RequestSize(MaxBodyBytes)).Post("/style/check", s.handleStyleCheck)
		r.Get("/locks/{digest}", s.handleGetLock)
		r.Get("/recipes/{name}/locks", s.handleListLocks)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
