package config_test

import (
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/scribeclean/internal/config"
	"github.com/MrWong99/scribeclean/internal/transcript"
)

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level config.LogLevel
		valid bool
		slog  slog.Level
	}{
		{config.LogDebug, true, slog.LevelDebug},
		{config.LogInfo, true, slog.LevelInfo},
		{config.LogWarn, true, slog.LevelWarn},
		{config.LogError, true, slog.LevelError},
		{"", false, slog.LevelInfo},
		{"trace", false, slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.level.IsValid(); got != tc.valid {
			t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tc.level, got, tc.valid)
		}
		if got := tc.level.SlogLevel(); got != tc.slog {
			t.Errorf("LogLevel(%q).SlogLevel() = %v, want %v", tc.level, got, tc.slog)
		}
	}
}

func TestEffectiveStages(t *testing.T) {
	t.Parallel()

	off := false
	tests := []struct {
		name    string
		stages  []string
		disable bool
		want    []transcript.Stage
	}{
		{"unset uses default order", nil, false, transcript.DefaultStages()},
		{"explicit order", []string{"filter", "vocabulary"}, false, []transcript.Stage{transcript.StageFilter, transcript.StageVocabulary}},
		{"filter disabled", []string{"filter", "vocabulary"}, true, []transcript.Stage{transcript.StageVocabulary}},
		{"unknown and repeated names dropped", []string{"vocabulary", "x", "vocabulary"}, false, []transcript.Stage{transcript.StageVocabulary}},
		{"empty list", []string{}, false, []transcript.Stage{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{Pipeline: config.PipelineConfig{Stages: tc.stages}}
			if tc.disable {
				cfg.Filter.Enabled = &off
			}
			if diff := cmp.Diff(tc.want, cfg.EffectiveStages()); diff != "" {
				t.Errorf("EffectiveStages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestThresholdValue(t *testing.T) {
	t.Parallel()

	var unset config.VocabularyConfig
	if got := unset.ThresholdValue(); got != config.DefaultThreshold {
		t.Errorf("unset ThresholdValue = %v, want %v", got, config.DefaultThreshold)
	}
	th := 0.4
	set := config.VocabularyConfig{Threshold: &th}
	if got := set.ThresholdValue(); got != 0.4 {
		t.Errorf("ThresholdValue = %v, want 0.4", got)
	}
}
