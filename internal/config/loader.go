package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration file.
// Environment variables with the RF_ prefix override file values.
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Storage.Adapter {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	default:
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Audio.Backend != "portaudio" && cfg.Audio.Backend != "null" {
		return fmt.Errorf("invalid audio backend: %s (must be 'portaudio' or 'null')", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid audio sample rate: %d", cfg.Audio.SampleRate)
	}

	if cfg.Playback.LookaheadSegments < 0 {
		return fmt.Errorf("lookahead_segments must not be negative")
	}
	if cfg.Playback.CacheCapacity <= 0 {
		cfg.Playback.CacheCapacity = 100
	}
	if cfg.Playback.WordTickMs <= 0 {
		cfg.Playback.WordTickMs = 50
	}

	if cfg.Ingest.ProgressIncrement <= 0 {
		cfg.Ingest.ProgressIncrement = 5
	}
	if cfg.Ingest.ContinuationTail <= 0 {
		cfg.Ingest.ContinuationTail = 3
	}
	if cfg.Ingest.ChapterInterval <= 0 {
		cfg.Ingest.ChapterInterval = 50
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Variables are prefixed with RF_ (ReadFlow).
func applyEnvOverrides(cfg *types.Config) {
	if val := os.Getenv("RF_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("RF_SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	if val := os.Getenv("RF_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("RF_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("RF_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("RF_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("RF_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("RF_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("RF_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	if val := os.Getenv("RF_SYNTHESIZER_API_KEY"); val != "" {
		cfg.Providers.Synthesizer.APIKey = val
	}
	if val := os.Getenv("RF_SYNTHESIZER_ENDPOINT"); val != "" {
		cfg.Providers.Synthesizer.Endpoint = val
	}
	if val := os.Getenv("RF_EXTRACTOR_API_KEY"); val != "" {
		cfg.Providers.Extractor.APIKey = val
	}
	if val := os.Getenv("RF_EXTRACTOR_ENDPOINT"); val != "" {
		cfg.Providers.Extractor.Endpoint = val
	}

	if val := os.Getenv("RF_AUDIO_BACKEND"); val != "" {
		cfg.Audio.Backend = val
	}
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 15,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/readflow/storage",
			},
		},
		Providers: types.ProvidersConfig{
			Synthesizer: types.ProviderConfig{
				Name:       "gemini-tts",
				Endpoint:   "https://generativelanguage.googleapis.com/v1beta",
				Model:      "gemini-2.5-flash-preview-tts",
				MaxRetries: 3,
				TimeoutSec: 300,
			},
			Extractor: types.ProviderConfig{
				Name:       "gemini-extract",
				Endpoint:   "https://generativelanguage.googleapis.com/v1beta",
				Model:      "gemini-3-flash-preview",
				MaxRetries: 3,
				TimeoutSec: 120,
			},
		},
		Ingest: types.IngestConfig{
			DriverIntervalMs:  2000,
			FailureBackoffSec: 5,
			ProgressIncrement: 5,
			ContinuationTail:  3,
			ChapterInterval:   50,
		},
		Playback: types.PlaybackConfig{
			LookaheadSegments: 5,
			CacheCapacity:     100,
			WordTickMs:        50,
		},
		Audio: types.AudioConfig{
			Backend:    "portaudio",
			SampleRate: 24000,
		},
	}
}
