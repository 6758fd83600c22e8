package config

import (
	"fmt"
	"time"
)

const (
	DefaultCollectorURL      = "http://localhost:5050"
	DefaultTriggerListenAddr = ":5001"
	DefaultTriggerURL        = "http://localhost:5001/trigger"
	DefaultLocationID        = "Pi-HQ"

	DefaultBufferDir      = "video_buffer"
	DefaultCameraDevice   = "/dev/video0"
	DefaultChunkSeconds   = 1.0
	DefaultBufferSeconds  = 3600.0
	DefaultMaxBufferFiles = 3600
	DefaultMinClipBytes   = 1000

	DefaultAudioDevice         = "default"
	DefaultMicSampleRate       = 48000
	DefaultWindowSeconds       = 3.0
	DefaultBlockSeconds        = 0.5
	DefaultSilenceRMS          = 0.01
	DefaultSimilarityThreshold = 0.85
	DefaultDuplicateThreshold  = 0.95
	DefaultCooldownSeconds     = 3.0

	DefaultPreSeconds         = 3.0
	DefaultPostSeconds        = 3.0
	DefaultStitchDelaySeconds = 4.0
	DefaultTriggerWorkers     = 4
	DefaultTriggerQueueDepth  = 16

	DefaultUploadTimeoutSeconds    = 10.0
	DefaultHeartbeatTimeoutSeconds = 0.5

	DefaultMemoryPath = "memory.bin"
	DefaultExtractor  = "auto"
)

// Config holds the full service configuration. Durations are expressed in
// seconds (matching the knobs of the original deployment); use the helper
// methods to obtain time.Duration values.
type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Collector (remote ingestion endpoint).
	CollectorURL            string  `json:"collector_url" yaml:"collector_url"`
	LocationID              string  `json:"location_id" yaml:"location_id"`
	UploadTimeoutSeconds    float64 `json:"upload_timeout_seconds" yaml:"upload_timeout_seconds"`
	HeartbeatTimeoutSeconds float64 `json:"heartbeat_timeout_seconds" yaml:"heartbeat_timeout_seconds"`

	// Trigger plumbing between the audio and camera services.
	TriggerListenAddr  string  `json:"trigger_listen_addr" yaml:"trigger_listen_addr"`
	TriggerURL         string  `json:"trigger_url" yaml:"trigger_url"`
	TriggerWorkers     int     `json:"trigger_workers" yaml:"trigger_workers"`
	TriggerQueueDepth  int     `json:"trigger_queue_depth" yaml:"trigger_queue_depth"`
	StitchDelaySeconds float64 `json:"stitch_delay_seconds" yaml:"stitch_delay_seconds"`
	PreSeconds         float64 `json:"pre_seconds" yaml:"pre_seconds"`
	PostSeconds        float64 `json:"post_seconds" yaml:"post_seconds"`

	// Rolling video buffer.
	BufferDir      string  `json:"buffer_dir" yaml:"buffer_dir"`
	CameraDevice   string  `json:"camera_device" yaml:"camera_device"`
	ChunkSeconds   float64 `json:"chunk_seconds" yaml:"chunk_seconds"`
	BufferSeconds  float64 `json:"buffer_seconds" yaml:"buffer_seconds"`
	MaxBufferFiles int     `json:"max_buffer_files" yaml:"max_buffer_files"`
	MinClipBytes   int64   `json:"min_clip_bytes" yaml:"min_clip_bytes"`

	// Audio classification.
	AudioDevice         string  `json:"audio_device" yaml:"audio_device"`
	MicSampleRate       int     `json:"mic_sample_rate" yaml:"mic_sample_rate"`
	WindowSeconds       float64 `json:"window_seconds" yaml:"window_seconds"`
	BlockSeconds        float64 `json:"block_seconds" yaml:"block_seconds"`
	SilenceRMS          float64 `json:"silence_rms" yaml:"silence_rms"`
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	DuplicateThreshold  float64 `json:"duplicate_threshold" yaml:"duplicate_threshold"`
	CooldownSeconds     float64 `json:"cooldown_seconds" yaml:"cooldown_seconds"`

	// Embedding model.
	Extractor  string `json:"extractor" yaml:"extractor"` // auto | yamnet | stub
	ModelPath  string `json:"model_path" yaml:"model_path"`
	MemoryPath string `json:"memory_path" yaml:"memory_path"`
}

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		CollectorURL:            DefaultCollectorURL,
		LocationID:              DefaultLocationID,
		UploadTimeoutSeconds:    DefaultUploadTimeoutSeconds,
		HeartbeatTimeoutSeconds: DefaultHeartbeatTimeoutSeconds,
		TriggerListenAddr:       DefaultTriggerListenAddr,
		TriggerURL:              DefaultTriggerURL,
		TriggerWorkers:          DefaultTriggerWorkers,
		TriggerQueueDepth:       DefaultTriggerQueueDepth,
		StitchDelaySeconds:      DefaultStitchDelaySeconds,
		PreSeconds:              DefaultPreSeconds,
		PostSeconds:             DefaultPostSeconds,
		BufferDir:               DefaultBufferDir,
		CameraDevice:            DefaultCameraDevice,
		ChunkSeconds:            DefaultChunkSeconds,
		BufferSeconds:           DefaultBufferSeconds,
		MaxBufferFiles:          DefaultMaxBufferFiles,
		MinClipBytes:            DefaultMinClipBytes,
		AudioDevice:             DefaultAudioDevice,
		MicSampleRate:           DefaultMicSampleRate,
		WindowSeconds:           DefaultWindowSeconds,
		BlockSeconds:            DefaultBlockSeconds,
		SilenceRMS:              DefaultSilenceRMS,
		SimilarityThreshold:     DefaultSimilarityThreshold,
		DuplicateThreshold:      DefaultDuplicateThreshold,
		CooldownSeconds:         DefaultCooldownSeconds,
		Extractor:               DefaultExtractor,
		MemoryPath:              DefaultMemoryPath,
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Chunk returns the duration of one recorded video segment.
func (c Config) Chunk() time.Duration { return seconds(c.ChunkSeconds) }

// BufferAge returns the maximum age of a buffered segment.
func (c Config) BufferAge() time.Duration { return seconds(c.BufferSeconds) }

// Cooldown returns the minimum time between two processed classifications.
func (c Config) Cooldown() time.Duration { return seconds(c.CooldownSeconds) }

// StitchDelay returns how long retrieval waits after a trigger so the
// post-event segments exist before stitching.
func (c Config) StitchDelay() time.Duration { return seconds(c.StitchDelaySeconds) }

// PreWindow returns the clip window before the trigger timestamp.
func (c Config) PreWindow() time.Duration { return seconds(c.PreSeconds) }

// PostWindow returns the clip window after the trigger timestamp.
func (c Config) PostWindow() time.Duration { return seconds(c.PostSeconds) }

// UploadTimeout returns the timeout for clip uploads to the collector.
func (c Config) UploadTimeout() time.Duration { return seconds(c.UploadTimeoutSeconds) }

// HeartbeatTimeout returns the timeout for status heartbeats.
func (c Config) HeartbeatTimeout() time.Duration { return seconds(c.HeartbeatTimeoutSeconds) }

// WindowSamples returns the sliding window length in microphone samples.
func (c Config) WindowSamples() int {
	return int(float64(c.MicSampleRate) * c.WindowSeconds)
}

// BlockSamples returns the per-read block length in microphone samples.
func (c Config) BlockSamples() int {
	return int(float64(c.MicSampleRate) * c.BlockSeconds)
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.MicSampleRate <= 0 {
		return fmt.Errorf("config: mic_sample_rate must be positive, got %d", c.MicSampleRate)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("config: window_seconds must be positive, got %v", c.WindowSeconds)
	}
	if c.BlockSeconds <= 0 || c.BlockSeconds > c.WindowSeconds {
		return fmt.Errorf("config: block_seconds must be in (0, window_seconds], got %v", c.BlockSeconds)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity_threshold must be in [0, 1], got %v", c.SimilarityThreshold)
	}
	if c.DuplicateThreshold < 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("config: duplicate_threshold must be in [0, 1], got %v", c.DuplicateThreshold)
	}
	if c.ChunkSeconds <= 0 {
		return fmt.Errorf("config: chunk_seconds must be positive, got %v", c.ChunkSeconds)
	}
	if c.BufferSeconds < c.PreSeconds+c.PostSeconds {
		return fmt.Errorf("config: buffer_seconds %v cannot cover the %v+%v clip window",
			c.BufferSeconds, c.PreSeconds, c.PostSeconds)
	}
	if c.MaxBufferFiles <= 0 {
		return fmt.Errorf("config: max_buffer_files must be positive, got %d", c.MaxBufferFiles)
	}
	if c.StitchDelaySeconds <= c.PostSeconds {
		return fmt.Errorf("config: stitch_delay_seconds %v must exceed post_seconds %v so post-event segments exist before retrieval",
			c.StitchDelaySeconds, c.PostSeconds)
	}
	if c.TriggerWorkers <= 0 {
		return fmt.Errorf("config: trigger_workers must be positive, got %d", c.TriggerWorkers)
	}
	if c.TriggerQueueDepth <= 0 {
		return fmt.Errorf("config: trigger_queue_depth must be positive, got %d", c.TriggerQueueDepth)
	}
	switch c.Extractor {
	case "auto", "yamnet", "stub":
	default:
		return fmt.Errorf("config: unknown extractor %q (want auto, yamnet or stub)", c.Extractor)
	}
	return nil
}
