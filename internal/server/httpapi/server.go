// Package httpapi exposes the public REST surface: anonymous verification,
// and the authenticated dashboard API for creating, listing, sharing and
// deleting attestations.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veristamp/veristamp/internal/logging"
	"github.com/veristamp/veristamp/internal/server/attestations"
	"github.com/veristamp/veristamp/internal/server/users"
)

type Server struct {
	address      string
	users        *users.Service
	attestations *attestations.Service
	logger       logging.Logger
	maxBodyBytes int64
}

func NewServer(address string, l logging.Logger, us *users.Service, as *attestations.Service, maxBodyBytes int64) *Server {
	return &Server{
		address:      address,
		logger:       l.With("module", "http_server"),
		users:        us,
		attestations: as,
		maxBodyBytes: maxBodyBytes,
	}
}

// Router assembles the chi routes. Split out from Run so tests can drive
// the handlers through httptest without binding a socket.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		// anonymous verification surface
		r.Get("/verify", s.handleVerifyLookup)
		r.Post("/verify", s.handleVerifyContent)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/users/me", s.handleProfile)
			r.Post("/attestations", s.handleCreate)
			r.Get("/attestations", s.handleList)
			r.Get("/attestations/{id}", s.handleGet)
			r.Delete("/attestations/{id}", s.handleDelete)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
