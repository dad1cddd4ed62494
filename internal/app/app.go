// Package app wires the scribeclean subsystems into a running service.
//
// The App struct owns the full lifecycle: New creates the dictionary store,
// seeds it, builds the pipeline and HTTP server and opens the listener; Run
// serves until its context is done; Reload applies a changed config; and
// Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithRegistry, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/scribeclean/internal/config"
	"github.com/MrWong99/scribeclean/internal/dictionary"
	"github.com/MrWong99/scribeclean/internal/health"
	"github.com/MrWong99/scribeclean/internal/observe"
	"github.com/MrWong99/scribeclean/internal/server"
	"github.com/MrWong99/scribeclean/internal/transcript"
)

// shutdownTimeout bounds graceful HTTP shutdown when Run's context ends.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	registry       *config.Registry
	store          dictionary.Store
	metrics        *observe.Metrics
	metricsHandler http.Handler
	logLevel       *slog.LevelVar

	server   *server.Server
	httpSrv  *http.Server
	listener net.Listener

	// mu guards cfg and seeded during Reload.
	mu     sync.Mutex
	cfg    *config.Config
	seeded []string

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a dictionary store instead of creating one from config.
// The caller keeps ownership; Shutdown does not close it.
func WithStore(s dictionary.Store) Option {
	return func(a *App) { a.store = s }
}

// WithRegistry replaces [BuiltinStores] as the source of store factories.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithMetrics records pass and request metrics to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithLogLevel lets Reload adjust the process log level through v.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = v }
}

// New creates an App from cfg. It connects the dictionary store, seeds it
// with the configured words and opens the listener, so [App.Addr] is valid
// as soon as New returns.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = BuiltinStores()
	}

	// ── 1. Dictionary store ──────────────────────────────────────────────
	if a.store == nil {
		s, err := a.registry.CreateStore(ctx, cfg.Vocabulary.Store)
		if err != nil {
			return nil, fmt.Errorf("app: init dictionary store: %w", err)
		}
		a.store = s
		if c := dictionary.Closer(s); c != nil {
			a.closers = append(a.closers, c)
		}
	}

	// ── 2. Seed configured words ─────────────────────────────────────────
	words, err := configuredWords(cfg)
	if err != nil {
		_ = a.runClosers()
		return nil, fmt.Errorf("app: load configured words: %w", err)
	}
	if err := seed(ctx, a.store, nil, words); err != nil {
		_ = a.runClosers()
		return nil, fmt.Errorf("app: seed dictionary: %w", err)
	}
	a.seeded = words

	// ── 3. HTTP server ───────────────────────────────────────────────────
	srvOpts := []server.Option{server.WithHealth(health.New(health.DictionaryChecker(a.store)))}
	if a.metrics != nil {
		srvOpts = append(srvOpts, server.WithMetrics(a.metrics))
	}
	if a.metricsHandler != nil {
		srvOpts = append(srvOpts, server.WithMetricsHandler(a.metricsHandler))
	}
	a.server = server.New(server.Config{
		RateLimit:    cfg.Server.RateLimit,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}, a.store, a.buildPipeline(cfg), srvOpts...)
	if a.metrics != nil {
		if err := a.server.SyncWordCount(ctx); err != nil {
			slog.Warn("app: initial dictionary size", "err", err)
		}
	}

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		_ = a.runClosers()
		return nil, fmt.Errorf("app: listen %s: %w", cfg.Server.ListenAddr, err)
	}
	a.listener = ln
	a.httpSrv = &http.Server{
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("app initialised",
		"addr", ln.Addr().String(),
		"store", cfg.Vocabulary.Store.Name,
		"words", len(words),
		"stages", cfg.EffectiveStages(),
	)
	return a, nil
}

// Addr returns the address the HTTP server listens on.
func (a *App) Addr() string { return a.listener.Addr().String() }

// Handler returns the HTTP handler, for in-process use.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Pipeline returns the pipeline currently serving requests.
func (a *App) Pipeline() *transcript.Pipeline { return a.server.Pipeline() }

// Store returns the dictionary store.
func (a *App) Store() dictionary.Store { return a.store }

func (a *App) buildPipeline(cfg *config.Config) *transcript.Pipeline {
	opts := []transcript.PipelineOption{
		transcript.WithStages(cfg.EffectiveStages()...),
		transcript.WithThreshold(cfg.Vocabulary.ThresholdValue()),
	}
	if a.metrics != nil {
		opts = append(opts, transcript.WithMetrics(a.metrics))
	}
	return transcript.NewPipeline(opts...)
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP and blocks until ctx is cancelled, the server fails or
// [App.Shutdown] is called. When ctx is done, in-flight requests are drained
// and Run returns ctx.Err().
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		// Serve also returns when Shutdown is called directly.
		defer cancel()
		slog.Info("http server listening", "addr", a.Addr())
		if err := a.httpSrv.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Reload ──────────────────────────────────────────────────────────────────

// Reload applies the hot-reloadable differences between the running config
// and next: log level, threshold, stage order and configured words. Fields
// that need a restart are logged and otherwise ignored.
func (a *App) Reload(ctx context.Context, next *config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := config.Diff(a.cfg, next)
	for _, field := range d.RestartRequired {
		slog.Warn("config change requires restart; ignoring", "field", field)
	}

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(d.NewLogLevel.SlogLevel())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	if d.ThresholdChanged || d.StagesChanged {
		a.server.SetPipeline(a.buildPipeline(next))
		slog.Info("pipeline updated",
			"threshold", next.Vocabulary.ThresholdValue(),
			"stages", next.EffectiveStages(),
		)
	}

	var errs []error
	if d.WordsChanged {
		if err := a.reseed(ctx, next); err != nil {
			errs = append(errs, err)
			// Keep the previous word settings so the next reload retries.
			applied := *next
			applied.Vocabulary.Words = a.cfg.Vocabulary.Words
			applied.Vocabulary.File = a.cfg.Vocabulary.File
			applied.Vocabulary.FileWords = a.cfg.Vocabulary.FileWords
			next = &applied
		}
	}

	a.cfg = next
	return errors.Join(errs...)
}

// reseed brings the store in line with next's configured words. Must be
// called with a.mu held.
func (a *App) reseed(ctx context.Context, next *config.Config) error {
	words, err := configuredWords(next)
	if err != nil {
		return fmt.Errorf("app: reload words: %w", err)
	}
	if err := seed(ctx, a.store, a.seeded, words); err != nil {
		return fmt.Errorf("app: reseed dictionary: %w", err)
	}
	a.seeded = words
	if a.metrics != nil {
		_ = a.server.SyncWordCount(ctx)
	}
	slog.Info("dictionary reseeded", "words", len(words))
	return nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the HTTP server and tears down all subsystems in order. It
// respects the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.httpSrv.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

func (a *App) runClosers() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// configuredWords returns the inline words followed by the dictionary file's
// words. The file is read only when [config.Load] has not already done so.
func configuredWords(cfg *config.Config) ([]string, error) {
	words := slices.Clone(cfg.Vocabulary.Words)
	switch {
	case cfg.Vocabulary.FileWords != nil:
		words = append(words, cfg.Vocabulary.FileWords...)
	case cfg.Vocabulary.File != "":
		f, err := dictionary.LoadFile(cfg.Vocabulary.File)
		if err != nil {
			return nil, err
		}
		words = append(words, f.Words...)
	}
	return dictionary.NormalizeAll(words)
}

// seed brings the configured part of the store from prev to next: words that
// were seeded before but are no longer configured are removed, and configured
// words the store lacks are appended. Words added through the API are left
// alone unless they are also in prev.
func seed(ctx context.Context, store dictionary.Store, prev, next []string) error {
	for _, w := range prev {
		if slices.Contains(next, w) {
			continue
		}
		if err := store.Remove(ctx, w); err != nil && !errors.Is(err, dictionary.ErrNotFound) {
			return err
		}
	}

	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, w := range next {
		if slices.Contains(existing, w) {
			continue
		}
		if err := store.Add(ctx, w); err != nil {
			return err
		}
		existing = append(existing, w)
	}
	return nil
}
