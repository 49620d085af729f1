// Package server exposes crawls and the image relay over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/logger"

	"github.com/gorilla/mux"
)

// Scraper runs one crawl target and lists supported cities
type Scraper interface {
	Crawl(ctx context.Context, source crawler.Source, city string, pages int) ([]crawler.Listing, error)
	Cities() map[crawler.Source][]string
}

// Options tunes the server
type Options struct {
	MaxPages     int
	ImageTimeout time.Duration
	ImageClient  *http.Client
	Log          *logger.Logger
}

// Server serves the JSON API and the image relay
type Server struct {
	router   *mux.Router
	scraper  Scraper
	images   *http.Client
	maxPages int
	log      *logger.Logger
}

// New creates a server around scraper
func New(scraper Scraper, opts Options) *Server {
	if opts.MaxPages < 1 {
		opts.MaxPages = 10
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 15 * time.Second
	}
	if opts.ImageClient == nil {
		opts.ImageClient = &http.Client{Timeout: opts.ImageTimeout}
	}
	if opts.Log == nil {
		opts.Log = logger.ForServer()
	}

	s := &Server{
		router:   mux.NewRouter(),
		scraper:  scraper,
		images:   opts.ImageClient,
		maxPages: opts.MaxPages,
		log:      opts.Log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/scrape", s.handleScrape).Methods(http.MethodPost)
	s.router.HandleFunc("/cities", s.handleCities).Methods(http.MethodGet)
	s.router.HandleFunc("/image-proxy", s.handleImageProxy).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}
