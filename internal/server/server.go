package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mgpai22/lesson/internal/lesson"
	"github.com/mgpai22/lesson/internal/logging"
)

// Server exposes lessons, the manifest and the content files over HTTP.
type Server struct {
	lib     *lesson.Library
	cache   *Cache
	logger  *logging.Logger
	origins []string
}

func New(lib *lesson.Library, origins []string, logger *logging.Logger) *Server {
	logger = logging.OrNop(logger)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		lib:     lib,
		cache:   NewCache(lib, logger),
		logger:  logger,
		origins: origins,
	}
}

func (s *Server) Cache() *Cache {
	return s.cache
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/manifest", s.getManifest).Methods(http.MethodGet)
	api.HandleFunc("/resolve", s.resolveAddress).Methods(http.MethodGet)
	api.HandleFunc("/lessons/{book}/{lesson}", s.getLesson).Methods(http.MethodGet)

	r.PathPrefix("/content/").Handler(http.StripPrefix("/content", s.contentHandler()))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return corsHandler.Handler(r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Infow("Server stopped")
	return nil
}

// records status codes for the logging middleware
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Debugw("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}
