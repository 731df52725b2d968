package http

import (
	"context"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server оборачивает chi.Router с базовыми middlewares.
type Server struct {
	Router chi.Router
	log    zerolog.Logger
	srv    *http.Server
}

// NewServer создаёт HTTP сервер.
func NewServer(logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	return &Server{Router: r, log: logger}
}

// Start запускает http.Server.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("HTTP сервер запущен")
	return s.srv.ListenAndServe()
}

// Shutdown корректно завершает работу сервера.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// RequestID возвращает request ID из контекста chi.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
