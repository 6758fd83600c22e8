package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Loader assembles the configuration in layers: defaults, then an optional
// YAML file, then the ECHOALERT_CONFIG JSON blob, then individual
// ECHOALERT_* environment variables. Tests can override Lookup to inject
// deterministic maps.
type Loader struct {
	// Path is an explicit YAML config file. When empty, the
	// ECHOALERT_CONFIG_FILE variable is consulted; when that is also
	// empty, no file is read.
	Path string

	Lookup func(string) (string, bool)
}

// Load retrieves and validates the service configuration.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := Default()

	path := l.Path
	if path == "" {
		if v, ok := l.Lookup("ECHOALERT_CONFIG_FILE"); ok {
			path = strings.TrimSpace(v)
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if raw, ok := l.Lookup("ECHOALERT_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode ECHOALERT_CONFIG: %w", err)
		}
	}

	overrideString(l.Lookup, "ECHOALERT_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "ECHOALERT_COLLECTOR_URL", &cfg.CollectorURL)
	overrideString(l.Lookup, "ECHOALERT_LOCATION_ID", &cfg.LocationID)
	overrideString(l.Lookup, "ECHOALERT_TRIGGER_LISTEN_ADDR", &cfg.TriggerListenAddr)
	overrideString(l.Lookup, "ECHOALERT_TRIGGER_URL", &cfg.TriggerURL)
	overrideString(l.Lookup, "ECHOALERT_BUFFER_DIR", &cfg.BufferDir)
	overrideString(l.Lookup, "ECHOALERT_CAMERA_DEVICE", &cfg.CameraDevice)
	overrideString(l.Lookup, "ECHOALERT_AUDIO_DEVICE", &cfg.AudioDevice)
	overrideString(l.Lookup, "ECHOALERT_EXTRACTOR", &cfg.Extractor)
	overrideString(l.Lookup, "ECHOALERT_MODEL_PATH", &cfg.ModelPath)
	overrideString(l.Lookup, "ECHOALERT_MEMORY_PATH", &cfg.MemoryPath)

	for _, f := range []struct {
		key    string
		target *float64
	}{
		{"ECHOALERT_CHUNK_SECONDS", &cfg.ChunkSeconds},
		{"ECHOALERT_BUFFER_SECONDS", &cfg.BufferSeconds},
		{"ECHOALERT_SILENCE_RMS", &cfg.SilenceRMS},
		{"ECHOALERT_SIMILARITY_THRESHOLD", &cfg.SimilarityThreshold},
		{"ECHOALERT_DUPLICATE_THRESHOLD", &cfg.DuplicateThreshold},
		{"ECHOALERT_COOLDOWN_SECONDS", &cfg.CooldownSeconds},
		{"ECHOALERT_PRE_SECONDS", &cfg.PreSeconds},
		{"ECHOALERT_POST_SECONDS", &cfg.PostSeconds},
		{"ECHOALERT_STITCH_DELAY_SECONDS", &cfg.StitchDelaySeconds},
		{"ECHOALERT_WINDOW_SECONDS", &cfg.WindowSeconds},
		{"ECHOALERT_BLOCK_SECONDS", &cfg.BlockSeconds},
		{"ECHOALERT_UPLOAD_TIMEOUT_SECONDS", &cfg.UploadTimeoutSeconds},
		{"ECHOALERT_HEARTBEAT_TIMEOUT_SECONDS", &cfg.HeartbeatTimeoutSeconds},
	} {
		if err := overrideFloat(l.Lookup, f.key, f.target); err != nil {
			return Config{}, err
		}
	}

	for _, f := range []struct {
		key    string
		target *int
	}{
		{"ECHOALERT_MIC_SAMPLE_RATE", &cfg.MicSampleRate},
		{"ECHOALERT_MAX_BUFFER_FILES", &cfg.MaxBufferFiles},
		{"ECHOALERT_TRIGGER_WORKERS", &cfg.TriggerWorkers},
		{"ECHOALERT_TRIGGER_QUEUE_DEPTH", &cfg.TriggerQueueDepth},
	} {
		if err := overrideInt(l.Lookup, f.key, f.target); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
