package config

import (
	"os"
	"path/filepath"
	"testing"
)

func emptyLookup(string) (string, bool) { return "", false }

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := Loader{Lookup: emptyLookup}.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CollectorURL != DefaultCollectorURL {
		t.Errorf("CollectorURL = %q, want %q", cfg.CollectorURL, DefaultCollectorURL)
	}
	if cfg.SimilarityThreshold != DefaultSimilarityThreshold {
		t.Errorf("SimilarityThreshold = %v, want %v", cfg.SimilarityThreshold, DefaultSimilarityThreshold)
	}
	if cfg.MicSampleRate != DefaultMicSampleRate {
		t.Errorf("MicSampleRate = %d, want %d", cfg.MicSampleRate, DefaultMicSampleRate)
	}
	if cfg.Extractor != "auto" {
		t.Errorf("Extractor = %q, want auto", cfg.Extractor)
	}
	if got, want := cfg.WindowSamples(), 3*48000; got != want {
		t.Errorf("WindowSamples = %d, want %d", got, want)
	}
	if got, want := cfg.BlockSamples(), 24000; got != want {
		t.Errorf("BlockSamples = %d, want %d", got, want)
	}
}

func TestLoaderJSON(t *testing.T) {
	env := map[string]string{
		"ECHOALERT_CONFIG": `{"similarity_threshold":0.9,"location_id":"L7","trigger_workers":2}`,
	}
	cfg, err := Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SimilarityThreshold != 0.9 {
		t.Errorf("SimilarityThreshold = %v, want 0.9", cfg.SimilarityThreshold)
	}
	if cfg.LocationID != "L7" {
		t.Errorf("LocationID = %q, want L7", cfg.LocationID)
	}
	if cfg.TriggerWorkers != 2 {
		t.Errorf("TriggerWorkers = %d, want 2", cfg.TriggerWorkers)
	}
	// Unset fields keep defaults.
	if cfg.CooldownSeconds != DefaultCooldownSeconds {
		t.Errorf("CooldownSeconds = %v, want default %v", cfg.CooldownSeconds, DefaultCooldownSeconds)
	}
}

func TestLoaderEnvOverride(t *testing.T) {
	env := map[string]string{
		"ECHOALERT_CONFIG":               `{"similarity_threshold":0.5}`,
		"ECHOALERT_SIMILARITY_THRESHOLD": "0.8",
		"ECHOALERT_LOCATION_ID":          "tower-3",
		"ECHOALERT_MAX_BUFFER_FILES":     "120",
	}
	cfg, err := Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatal(err)
	}
	// Env var overrides JSON.
	if cfg.SimilarityThreshold != 0.8 {
		t.Errorf("SimilarityThreshold = %v, want 0.8 (env override)", cfg.SimilarityThreshold)
	}
	if cfg.LocationID != "tower-3" {
		t.Errorf("LocationID = %q, want tower-3", cfg.LocationID)
	}
	if cfg.MaxBufferFiles != 120 {
		t.Errorf("MaxBufferFiles = %d, want 120", cfg.MaxBufferFiles)
	}
}

func TestLoaderYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echoalert.yaml")
	data := "collector_url: http://collector:9000\ncooldown_seconds: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Loader{Path: path, Lookup: emptyLookup}.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CollectorURL != "http://collector:9000" {
		t.Errorf("CollectorURL = %q, want file value", cfg.CollectorURL)
	}
	if cfg.CooldownSeconds != 5 {
		t.Errorf("CooldownSeconds = %v, want 5", cfg.CooldownSeconds)
	}
}

func TestLoaderEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echoalert.yaml")
	if err := os.WriteFile(path, []byte("location_id: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{"ECHOALERT_LOCATION_ID": "from-env"}

	cfg, err := Loader{Path: path, Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LocationID != "from-env" {
		t.Errorf("LocationID = %q, want from-env", cfg.LocationID)
	}
}

func TestLoaderInvalidJSON(t *testing.T) {
	env := map[string]string{"ECHOALERT_CONFIG": `{bad json}`}
	if _, err := (Loader{Lookup: mapLookup(env)}).Load(); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := Loader{Path: filepath.Join(t.TempDir(), "nope.yaml"), Lookup: emptyLookup}
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.MicSampleRate = 0 }},
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }},
		{"block longer than window", func(c *Config) { c.BlockSeconds = c.WindowSeconds + 1 }},
		{"delay inside post window", func(c *Config) { c.StitchDelaySeconds = c.PostSeconds }},
		{"buffer smaller than clip window", func(c *Config) { c.BufferSeconds = 1 }},
		{"unknown extractor", func(c *Config) { c.Extractor = "tea-leaves" }},
		{"no workers", func(c *Config) { c.TriggerWorkers = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate accepted %s", tc.name)
			}
		})
	}
}
