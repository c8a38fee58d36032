package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full runtime configuration, assembled from defaults,
// ~/.heritaged/config.yaml, HERITAGED_* env vars and CLI flags.
type Config struct {
	Server       ServerConfig    `yaml:"server" mapstructure:"server"`
	Storage      StorageConfig   `yaml:"storage" mapstructure:"storage"`
	IPFS         IPFSConfig      `yaml:"ipfs" mapstructure:"ipfs"`
	AI           AIConfig        `yaml:"ai" mapstructure:"ai"`
	Chain        ChainConfig     `yaml:"chain" mapstructure:"chain"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyCfg  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Log          LogConfig       `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port  int    `yaml:"port" mapstructure:"port"`
	Token string `yaml:"token" mapstructure:"token"` // bearer token for the management API
}

// StorageConfig locates the sqlite database (DataDir) and the local
// content-addressed blob root (FallbackDir). MaxUploadMiB caps the
// request body size accepted by the upload endpoint.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir" mapstructure:"data_dir"`
	FallbackDir  string `yaml:"fallback_dir" mapstructure:"fallback_dir"`
	MaxUploadMiB int64  `yaml:"max_upload_mib" mapstructure:"max_upload_mib"`
}

type IPFSConfig struct {
	APIURL  string        `yaml:"api_url" mapstructure:"api_url"` // IPFS HTTP API, e.g. http://localhost:5001
	Gateway string        `yaml:"gateway" mapstructure:"gateway"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type AIConfig struct {
	// Provider name: "http", "openai", "" (disabled; rules only)
	Provider string        `yaml:"provider" mapstructure:"provider"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type ChainConfig struct {
	BridgeURL string        `yaml:"bridge_url" mapstructure:"bridge_url"`
	Contract  string        `yaml:"contract" mapstructure:"contract"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

type ConcurrencyCfg struct {
	ImportWorkers int `yaml:"import_workers" mapstructure:"import_workers"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".heritaged")

	return &Config{
		Server: ServerConfig{
			Port: 8750,
		},
		Storage: StorageConfig{
			DataDir:      filepath.Join(base, "data"),
			FallbackDir:  filepath.Join(base, "blobs"),
			MaxUploadMiB: 100,
		},
		IPFS: IPFSConfig{
			APIURL:  "http://localhost:5001",
			Gateway: "https://ipfs.io/ipfs/",
			Timeout: 30 * time.Second,
		},
		AI: AIConfig{
			Provider: "", // disabled: rule-based classification only
			Timeout:  30 * time.Second,
		},
		Chain: ChainConfig{
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyCfg{
			ImportWorkers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
