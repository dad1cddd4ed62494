package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/scribeclean/internal/dictionary"
	"github.com/MrWong99/scribeclean/internal/transcript"
)

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr   = ":8080"
	DefaultThreshold    = 0.18
	DefaultMaxBodyBytes = 1 << 20
	DefaultStore        = "memory"
)

// KnownStores lists the dictionary backends registered by the application.
// Used by [Validate] to warn about unrecognised store names.
var KnownStores = []string{"memory", "redis", "postgres"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. A relative vocabulary.file is resolved against the directory of
// path and its words are read into Vocabulary.FileWords.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	ResolvePaths(cfg, filepath.Dir(path))
	if err := LoadWordsFile(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePaths makes a relative vocabulary.file absolute against baseDir.
func ResolvePaths(cfg *Config, baseDir string) {
	if f := cfg.Vocabulary.File; f != "" && !filepath.IsAbs(f) {
		cfg.Vocabulary.File = filepath.Join(baseDir, f)
	}
}

// LoadWordsFile reads vocabulary.file into Vocabulary.FileWords. It does
// nothing when no file is configured.
func LoadWordsFile(cfg *Config) error {
	if cfg.Vocabulary.File == "" {
		cfg.Vocabulary.FileWords = nil
		return nil
	}
	f, err := dictionary.LoadFile(cfg.Vocabulary.File)
	if err != nil {
		return fmt.Errorf("config: vocabulary.file: %w", err)
	}
	words, err := dictionary.NormalizeAll(f.Words)
	if err != nil {
		return fmt.Errorf("config: vocabulary.file %q: %w", cfg.Vocabulary.File, err)
	}
	cfg.Vocabulary.FileWords = append([]string{}, words...)
	return nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields of cfg. Explicit zero values for the
// threshold and the filter toggle are kept.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Vocabulary.Threshold == nil {
		t := DefaultThreshold
		cfg.Vocabulary.Threshold = &t
	}
	if cfg.Vocabulary.Store.Name == "" {
		cfg.Vocabulary.Store.Name = DefaultStore
	}
	if cfg.Filter.Enabled == nil {
		enabled := true
		cfg.Filter.Enabled = &enabled
	}
	if cfg.Pipeline.Stages == nil {
		cfg.Pipeline.Stages = stageNames(transcript.DefaultStages())
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit %d must not be negative", cfg.Server.RateLimit))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes %d must not be negative", cfg.Server.MaxBodyBytes))
	}

	// Vocabulary
	if t := cfg.Vocabulary.ThresholdValue(); t <= 0 {
		slog.Warn("vocabulary.threshold is not positive; vocabulary correction will never replace a word", "threshold", t)
	} else if t > 1 {
		slog.Warn("vocabulary.threshold is above 1; every word within the length limit will be replaced", "threshold", t)
	}
	for i, w := range cfg.Vocabulary.Words {
		if strings.TrimSpace(w) == "" {
			errs = append(errs, fmt.Errorf("vocabulary.words[%d] must not be blank", i))
		}
	}

	store := cfg.Vocabulary.Store
	switch store.Name {
	case "redis":
		if store.Addr == "" {
			errs = append(errs, errors.New("vocabulary.store.addr is required when store is redis"))
		}
	case "postgres":
		if store.DSN == "" {
			errs = append(errs, errors.New("vocabulary.store.dsn is required when store is postgres"))
		}
	}
	if store.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("vocabulary.store.breaker.max_failures %d must not be negative", store.Breaker.MaxFailures))
	}
	if store.Breaker.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("vocabulary.store.breaker.reset_timeout %v must not be negative", store.Breaker.ResetTimeout))
	}
	if store.Name != "" && !slices.Contains(KnownStores, store.Name) {
		slog.Warn("unknown dictionary store name; it must be registered before startup",
			"name", store.Name,
			"known", KnownStores,
		)
	}

	// Pipeline
	if _, err := transcript.ParseStages(cfg.Pipeline.Stages); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.stages: %w", err))
	}
	if !cfg.Filter.IsEnabled() && slices.Contains(cfg.Pipeline.Stages, string(transcript.StageFilter)) {
		slog.Debug("filter.enabled is false; the filter stage will be skipped")
	}

	return errors.Join(errs...)
}
