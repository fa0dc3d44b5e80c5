// Package config provides explicit configuration for the Beacon collector.
// Every environment-derived constant the pipeline depends on lives here and
// is passed into components at construction; nothing reads the environment
// at call time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GlobalRegion is the pseudo-region implicitly added whenever a region
// allow-list is configured. Global events (IAM, Route 53, ...) would
// otherwise be filtered out by any regional allow-list.
const GlobalRegion = "global"

// Config holds the collector configuration.
type Config struct {
	// Bucket is the output object store bucket.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is the output key prefix, also embedded in the
	// «prefix»-summary-data / «prefix»-detail-data path segments.
	Prefix string `json:"prefix" yaml:"prefix"`

	// RoleName is the collection role assumed in each member account.
	RoleName string `json:"role_name" yaml:"role_name"`

	// Regions is the optional region allow-list for event discovery.
	Regions []string `json:"regions" yaml:"regions"`

	// LookbackDays bounds how far back the watermark window may reach.
	LookbackDays int `json:"lookback_days" yaml:"lookback_days"`

	// ChunkLimit is the provider's per-call limit on (event, account)
	// filters for detail and entity calls.
	ChunkLimit int `json:"chunk_limit" yaml:"chunk_limit"`

	// DetailStateMachineARN is the orchestrator workflow that fans out the
	// detail phase.
	DetailStateMachineARN string `json:"detail_state_machine_arn" yaml:"detail_state_machine_arn"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Region is the AWS region of the output bucket
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Prefix:       "health",
		RoleName:     "beacon-collection",
		LookbackDays: 90,
		ChunkLimit:   10,
		Storage: StorageConfig{
			Type: "local",
			Path: "./data/beacon",
		},
	}
}

// Lookback returns the watermark horizon as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// RegionFilter returns the discovery region filter: the configured
// allow-list plus the global pseudo-region, or nil when no allow-list is
// set.
func (c *Config) RegionFilter() []string {
	if len(c.Regions) == 0 {
		return nil
	}
	filter := make([]string, 0, len(c.Regions)+1)
	for _, region := range c.Regions {
		if region = strings.TrimSpace(region); region != "" {
			filter = append(filter, region)
		}
	}
	if len(filter) == 0 {
		return nil
	}
	for _, region := range filter {
		if region == GlobalRegion {
			return filter
		}
	}
	return append(filter, GlobalRegion)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if c.RoleName == "" {
		return fmt.Errorf("role_name is required")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive, got %d", c.LookbackDays)
	}
	if c.ChunkLimit <= 0 || c.ChunkLimit > 10 {
		return fmt.Errorf("chunk_limit must be between 1 and 10, got %d", c.ChunkLimit)
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required when storage type is local")
		}
	case "s3":
		if c.Bucket == "" {
			return fmt.Errorf("bucket is required when storage type is s3")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	return nil
}

// Load builds the configuration from defaults, an optional file, and
// environment overrides. A .env file in the working directory is read
// first so local runs behave like deployed ones.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the BEACON_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("BEACON_BUCKET"); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv("BEACON_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := os.Getenv("BEACON_ROLE_NAME"); v != "" {
		cfg.RoleName = v
	}
	if v := os.Getenv("BEACON_REGIONS"); v != "" {
		cfg.Regions = strings.Split(v, ",")
	}
	if v := os.Getenv("BEACON_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LookbackDays = n
		}
	}
	if v := os.Getenv("BEACON_CHUNK_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChunkLimit = n
		}
	}
	if v := os.Getenv("BEACON_DETAIL_SM_ARN"); v != "" {
		cfg.DetailStateMachineARN = v
	}

	// Storage configuration
	if v := os.Getenv("BEACON_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("BEACON_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("BEACON_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("BEACON_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("BEACON_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}
}
