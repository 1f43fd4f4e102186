package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/dualsub/dualsub/pkg/log"
)

// Config holds all addon configuration, populated from environment
// variables with sensible defaults.
//
// Environment Variables:
//
// Server:
// - LISTEN_ADDR: HTTP listen address (default: :7070)
// - BASE_URL: externally visible base URL (default: http://127.0.0.1:7070)
// - LOG_LEVEL: debug|info|warn|error (default: info)
//
// Upstreams:
// - PRIMARY_CATALOG_URL: primary catalog base URL (required)
// - FALLBACK_CATALOG_URL: fallback catalog search base URL
// - FALLBACK_LANDING_URL: fallback landing page for the session cookie
// - JAPANESE_CATALOG_URL: specialist Japanese catalog base URL
//
// Pipeline:
// - MERGE_THRESHOLD_MS: cue-start proximity threshold (default: 500)
// - MAX_TRANSLATION_CANDIDATES: translation artifacts per request (default: 4)
//
// Storage:
// - STORAGE_BACKEND: local|badger|blob (default: local)
// - STORAGE_DIR: directory for the local backend (default: ./data/subs)
// - STORAGE_DB_DIR: badger directory for the badger backend (default: ./data/artifacts)
// - BLOB_BASE_URL: remote base URL for the blob backend
// - CACHE_DIR: response cache directory (default: ./data/cache)
// - META_DB_PATH: sqlite bookkeeping database (default: ./data/dualsub.db)
//
// Jobs:
// - SESSION_REFRESH_CRON: fallback cookie refresh schedule (default: 0 0 * * *)
// - STORE_GC_CRON: badger GC schedule (default: 30 */6 * * *)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	ListenAddr string
	BaseURL    string
	LogLevel   string
}

type UpstreamConfig struct {
	PrimaryURL         string
	FallbackSearchURL  string
	FallbackLandingURL string
	JapaneseURL        string
}

type PipelineConfig struct {
	MergeThresholdMs         int
	MaxTranslationCandidates int
}

type StorageConfig struct {
	Backend     string
	Dir         string
	DBDir       string
	BlobBaseURL string
	CacheDir    string
	MetaDBPath  string
}

type JobsConfig struct {
	SessionRefreshCron string
	StoreGCCron        string
}

// New loads an optional .env file and builds the configuration from the
// environment.
func New() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			ListenAddr: getEnvString("LISTEN_ADDR", ":7070"),
			BaseURL:    getEnvString("BASE_URL", "http://127.0.0.1:7070"),
			LogLevel:   getEnvString("LOG_LEVEL", "info"),
		},
		Upstream: UpstreamConfig{
			PrimaryURL:         getEnvString("PRIMARY_CATALOG_URL", ""),
			FallbackSearchURL:  getEnvString("FALLBACK_CATALOG_URL", ""),
			FallbackLandingURL: getEnvString("FALLBACK_LANDING_URL", ""),
			JapaneseURL:        getEnvString("JAPANESE_CATALOG_URL", ""),
		},
		Pipeline: PipelineConfig{
			MergeThresholdMs:         getEnvInt("MERGE_THRESHOLD_MS", 500),
			MaxTranslationCandidates: getEnvInt("MAX_TRANSLATION_CANDIDATES", 4),
		},
		Storage: StorageConfig{
			Backend:     getEnvString("STORAGE_BACKEND", "local"),
			Dir:         getEnvString("STORAGE_DIR", "./data/subs"),
			DBDir:       getEnvString("STORAGE_DB_DIR", "./data/artifacts"),
			BlobBaseURL: getEnvString("BLOB_BASE_URL", ""),
			CacheDir:    getEnvString("CACHE_DIR", "./data/cache"),
			MetaDBPath:  getEnvString("META_DB_PATH", "./data/dualsub.db"),
		},
		Jobs: JobsConfig{
			SessionRefreshCron: getEnvString("SESSION_REFRESH_CRON", "0 0 * * *"),
			StoreGCCron:        getEnvString("STORE_GC_CRON", "30 */6 * * *"),
		},
	}

	log.Debug("Config: %+v", config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Upstream.PrimaryURL == "" {
		return fmt.Errorf("PRIMARY_CATALOG_URL is required")
	}
	switch c.Storage.Backend {
	case "local", "badger":
	case "blob":
		if c.Storage.BlobBaseURL == "" {
			return fmt.Errorf("BLOB_BASE_URL is required for the blob backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Pipeline.MergeThresholdMs <= 0 {
		return fmt.Errorf("MERGE_THRESHOLD_MS must be positive")
	}
	if c.Pipeline.MaxTranslationCandidates <= 0 {
		return fmt.Errorf("MAX_TRANSLATION_CANDIDATES must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
