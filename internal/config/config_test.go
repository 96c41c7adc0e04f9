package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Pipeline.DuplicateThreshold != 0.85 {
		t.Fatalf("duplicate threshold: got %f", cfg.Pipeline.DuplicateThreshold)
	}
	if cfg.Pipeline.GenerationThreshold != 15 {
		t.Fatalf("generation threshold: got %d", cfg.Pipeline.GenerationThreshold)
	}
	if cfg.Pipeline.ModerationPace() != 2*time.Second {
		t.Fatalf("moderation pace: got %v", cfg.Pipeline.ModerationPace())
	}
	if cfg.Pipeline.PublishPace() != 30*time.Second {
		t.Fatalf("publish pace: got %v", cfg.Pipeline.PublishPace())
	}

	w := cfg.Scoring.Weights
	if w.Scientific != 0.4 || w.Relevance != 0.35 || w.Practicality != 0.25 {
		t.Fatalf("unexpected weights: %+v", w)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(databaseDSNEnv, "postgres://override@db:5432/x")
	t.Setenv(moderatorChatEnv, "987")

	cfg := Load()
	if cfg.Database.DSN != "postgres://override@db:5432/x" {
		t.Fatalf("dsn override lost: %s", cfg.Database.DSN)
	}
	if cfg.Telegram.ModeratorChatID != "987" {
		t.Fatalf("moderator chat override lost: %s", cfg.Telegram.ModeratorChatID)
	}
}

func TestFileOverridesMergeOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
pipeline:
  batchSize: 10
  maxPostsPerSpecialization: 2
scheduler:
  timezone: Europe/Moscow
telegram:
  channels:
    cardiology: "@cardio"
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Pipeline.BatchSize != 10 {
		t.Fatalf("batch size not merged: %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.MaxPostsPerSpecialization != 2 {
		t.Fatalf("per-spec cap not merged: %d", cfg.Pipeline.MaxPostsPerSpecialization)
	}
	// Untouched defaults survive the merge.
	if cfg.Pipeline.DuplicateThreshold != 0.85 {
		t.Fatalf("default threshold lost: %f", cfg.Pipeline.DuplicateThreshold)
	}
	if len(cfg.Classification.SpecializationKeywords) == 0 {
		t.Fatal("default dictionaries lost")
	}
	if cfg.Scheduler.Location().String() != "Europe/Moscow" {
		t.Fatalf("timezone not applied: %s", cfg.Scheduler.Location())
	}
	if cfg.Telegram.Channels["cardiology"] != "@cardio" {
		t.Fatalf("channels not merged: %v", cfg.Telegram.Channels)
	}
}

func TestValidateCatchesBrokenConfig(t *testing.T) {
	cfg := Load()
	cfg.Scoring.Weights.Scientific = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero weight accepted")
	}

	cfg = Load()
	cfg.Pipeline.MinPostLength = 600
	cfg.Pipeline.MaxPostLength = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("inverted post length bounds accepted")
	}

	cfg = Load()
	cfg.Pipeline.DuplicateThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("threshold above 1 accepted")
	}
}
