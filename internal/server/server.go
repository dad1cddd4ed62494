// Package server exposes the transcript post-processing passes and the custom
// dictionary over a JSON HTTP API.
//
// Routes:
//
//	POST   /v1/correct        vocabulary correction only
//	POST   /v1/filter         disfluency filtering only
//	POST   /v1/process        configured (or requested) stage order
//	GET    /v1/words          list the dictionary
//	POST   /v1/words          append a word
//	PUT    /v1/words          replace the dictionary
//	DELETE /v1/words/{word}   remove every occurrence of a word
//	GET    /healthz, /readyz  liveness and readiness
//	GET    /metrics           Prometheus exposition, when configured
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/MrWong99/scribeclean/internal/dictionary"
	"github.com/MrWong99/scribeclean/internal/health"
	"github.com/MrWong99/scribeclean/internal/observe"
	"github.com/MrWong99/scribeclean/internal/transcript"
)

// Config holds the HTTP-level limits.
type Config struct {
	// RateLimit is the number of /v1 requests allowed per client IP per
	// minute. 0 disables rate limiting.
	RateLimit int

	// MaxBodyBytes caps request bodies. 0 means 1 MiB.
	MaxBodyBytes int64
}

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithMetrics records request metrics and pass metrics to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithHealth serves /healthz and /readyz from h. Without it a handler with a
// single dictionary checker is used.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) {
		s.health = h
	}
}

// Server routes API requests to the pipeline and the dictionary store.
// It is safe for concurrent use; the pipeline may be swapped at runtime with
// [Server.SetPipeline].
type Server struct {
	cfg            Config
	store          dictionary.Store
	pipeline       atomic.Pointer[transcript.Pipeline]
	metrics        *observe.Metrics
	metricsHandler http.Handler
	health         *health.Handler

	// wordCount is the dictionary size last reported to metrics.DictionaryWords.
	wordCount atomic.Int64

	router chi.Router
}

// New builds a [Server] and its routes.
func New(cfg Config, store dictionary.Store, pipeline *transcript.Pipeline, opts ...Option) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		cfg:   cfg,
		store: store,
	}
	s.pipeline.Store(pipeline)
	for _, o := range opts {
		o(s)
	}
	if s.health == nil {
		s.health = health.New(health.DictionaryChecker(store))
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Pipeline returns the pipeline currently serving requests.
func (s *Server) Pipeline() *transcript.Pipeline { return s.pipeline.Load() }

// SetPipeline swaps the pipeline used by subsequent requests.
func (s *Server) SetPipeline(p *transcript.Pipeline) { s.pipeline.Store(p) }

// SyncWordCount refreshes the dictionary size metric from the store.
func (s *Server) SyncWordCount(ctx context.Context) error {
	words, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.reportWordCount(ctx, len(words))
	return nil
}

func (s *Server) reportWordCount(ctx context.Context, n int) {
	prev := s.wordCount.Swap(int64(n))
	if s.metrics != nil && int64(n) != prev {
		s.metrics.DictionaryWords.Add(ctx, int64(n)-prev)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(observe.Middleware(s.metrics))
	}

	s.health.Register(r)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(rateLimit(s.cfg.RateLimit, time.Minute))
		}
		r.Post("/correct", s.handle("correct", s.handleCorrect))
		r.Post("/filter", s.handle("filter", s.handleFilter))
		r.Post("/process", s.handle("process", s.handleProcess))

		r.Get("/words", s.handle("words.list", s.handleListWords))
		r.Post("/words", s.handle("words.add", s.handleAddWord))
		r.Put("/words", s.handle("words.replace", s.handleReplaceWords))
		r.Delete("/words/{word}", s.handle("words.remove", s.handleRemoveWord))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	return r
}

// rateLimit limits requests per client IP with a sliding window and answers
// with a JSON 429 carrying Retry-After.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		}),
	)
}
