package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a config file and the dictionary file it references, and
// calls a callback when either content changes and the config still
// validates. It watches the parent directories so editors that replace a
// file by rename are picked up too.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(old, new *Config)

	fsw *fsnotify.Watcher

	// dictPath is the absolute vocabulary.file of the current config, or "".
	// Only touched by NewWatcher and the loop goroutine.
	dictPath string

	mu       sync.Mutex
	current  *Config
	lastHash [sha256.Size]byte

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits after the last file event
// before reloading. The default is 250 milliseconds.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a config file watcher. It loads the initial config
// immediately and starts watching in a background goroutine.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: watcher resolve %q: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		debounce: 250 * time.Millisecond,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, hash, err := w.loadAndHash()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.lastHash = hash

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: watch %q: %w", filepath.Dir(abs), err)
	}
	w.fsw = fsw
	w.watchDictionary(cfg)

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops the watcher and waits for its goroutine to exit. A callback in
// progress finishes first. Stop is idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
	w.wg.Wait()
}

// watchDictionary starts watching the directory of cfg's dictionary file. A
// failure is logged; the config itself is still watched.
func (w *Watcher) watchDictionary(cfg *Config) {
	path := cfg.Vocabulary.File
	if path != "" {
		path = filepath.Clean(path)
	}
	if path == "" || path == w.dictPath {
		w.dictPath = path
		return
	}
	w.dictPath = path
	dir := filepath.Dir(path)
	if dir == filepath.Dir(w.path) {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		slog.Warn("config watcher: cannot watch dictionary file", "path", w.dictPath, "err", err)
	}
}

// relevant reports whether an event on name concerns the config or its
// dictionary file.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return name == w.path || (w.dictPath != "" && name == w.dictPath)
}

// loop debounces file events for the watched files and reloads once they
// settle.
func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher: fsnotify error", "path", w.path, "err", err)

		case <-timer.C:
			w.check()
		}
	}
}

// check reads the config file and, if its content changed and is valid,
// updates the current config and calls onChange.
func (w *Watcher) check() {
	cfg, hash, err := w.loadAndHash()
	if err != nil {
		slog.Warn("config watcher: failed to load config; keeping previous", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.lastHash {
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = cfg
	w.lastHash = hash
	w.mu.Unlock()

	w.watchDictionary(cfg)

	slog.Info("config watcher: configuration reloaded", "path", w.path)

	// Invoke the callback outside the lock so it can safely call Current().
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// loadAndHash reads, parses and validates the config file, reads its
// dictionary file, and returns the config together with a SHA-256 over the
// config content and the dictionary words.
func (w *Watcher) loadAndHash() (*Config, [sha256.Size]byte, error) {
	var zeroHash [sha256.Size]byte

	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, zeroHash, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, zeroHash, err
	}
	ResolvePaths(cfg, filepath.Dir(w.path))
	if err := LoadWordsFile(cfg); err != nil {
		return nil, zeroHash, err
	}

	h := sha256.New()
	h.Write(data)
	for _, word := range cfg.Vocabulary.FileWords {
		h.Write([]byte{0})
		h.Write([]byte(word))
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return cfg, sum, nil
}
