package config

import "slices"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	ThresholdChanged bool
	NewThreshold     float64

	// WordsChanged is true when the inline word list, the dictionary file
	// path or the words read from that file differ. All are re-seeded
	// together.
	WordsChanged bool

	// StagesChanged is true when the effective stage order differs, which
	// includes toggling filter.enabled.
	StagesChanged bool

	// RestartRequired lists changed fields that only take effect after a
	// restart.
	RestartRequired []string
}

// HasChanges reports whether any hot-reloadable field changed.
func (d ConfigDiff) HasChanges() bool {
	return d.LogLevelChanged || d.ThresholdChanged || d.WordsChanged || d.StagesChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if ot, nt := old.Vocabulary.ThresholdValue(), new.Vocabulary.ThresholdValue(); ot != nt {
		d.ThresholdChanged = true
		d.NewThreshold = nt
	}

	if !slices.Equal(old.Vocabulary.Words, new.Vocabulary.Words) ||
		old.Vocabulary.File != new.Vocabulary.File ||
		!slices.Equal(old.Vocabulary.FileWords, new.Vocabulary.FileWords) {
		d.WordsChanged = true
	}

	if !slices.Equal(old.EffectiveStages(), new.EffectiveStages()) {
		d.StagesChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Server.RateLimit != new.Server.RateLimit {
		d.RestartRequired = append(d.RestartRequired, "server.rate_limit")
	}
	if old.Server.MaxBodyBytes != new.Server.MaxBodyBytes {
		d.RestartRequired = append(d.RestartRequired, "server.max_body_bytes")
	}
	if old.Vocabulary.Store != new.Vocabulary.Store {
		d.RestartRequired = append(d.RestartRequired, "vocabulary.store")
	}

	return d
}
