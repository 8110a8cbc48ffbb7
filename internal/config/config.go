// Package config loads the vsearch CLI configuration from a YAML file, a .env
// file, and VSEARCH_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. VSEARCH_INDEX_BUCKET_COUNT.
const EnvPrefix = "VSEARCH"

// Config holds all CLI configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir" yaml:"data_dir"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Index     IndexConfig     `mapstructure:"index" yaml:"index"`
	Resources ResourceConfig  `mapstructure:"resources" yaml:"resources"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type IndexConfig struct {
	BucketCount       int `mapstructure:"bucket_count" yaml:"bucket_count"`
	MaxScanDimensions int `mapstructure:"max_scan_dimensions" yaml:"max_scan_dimensions"`
	MaxScanNodes      int `mapstructure:"max_scan_nodes" yaml:"max_scan_nodes"`
	TopN              int `mapstructure:"top_n" yaml:"top_n"`
}

type ResourceConfig struct {
	MaxWorkers      int64 `mapstructure:"max_workers" yaml:"max_workers"`
	MemoryLimitMB   int64 `mapstructure:"memory_limit_mb" yaml:"memory_limit_mb"`
	IOLimitMBPerSec int64 `mapstructure:"io_limit_mb_per_sec" yaml:"io_limit_mb_per_sec"`
}

// StoreConfig selects the blob store used by publish and fetch.
type StoreConfig struct {
	// Backend is one of "local", "s3", or "minio".
	Backend  string `mapstructure:"backend" yaml:"backend"`
	Path     string `mapstructure:"path" yaml:"path"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	Region   string `mapstructure:"region" yaml:"region"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// AccessKey and SecretKey are only used by the minio backend; s3 uses the
	// default AWS credential chain.
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Secure    bool   `mapstructure:"secure" yaml:"secure"`
	// Compression is "none", "lz4", or "zstd".
	Compression string `mapstructure:"compression" yaml:"compression"`
}

type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP gRPC endpoint (e.g. "localhost:4317"). Empty disables export.
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: "./data",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Index: IndexConfig{
			BucketCount:       100,
			MaxScanDimensions: 100,
			MaxScanNodes:      100,
			TopN:              10,
		},
		Resources: ResourceConfig{
			MaxWorkers: 4,
		},
		Store: StoreConfig{
			Backend:     "local",
			Path:        "./artifacts",
			Compression: "zstd",
			Secure:      true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "vsearch",
			SampleRate:  1.0,
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("index.bucket_count", cfg.Index.BucketCount)
	v.SetDefault("index.max_scan_dimensions", cfg.Index.MaxScanDimensions)
	v.SetDefault("index.max_scan_nodes", cfg.Index.MaxScanNodes)
	v.SetDefault("index.top_n", cfg.Index.TopN)
	v.SetDefault("resources.max_workers", cfg.Resources.MaxWorkers)
	v.SetDefault("resources.memory_limit_mb", cfg.Resources.MemoryLimitMB)
	v.SetDefault("resources.io_limit_mb_per_sec", cfg.Resources.IOLimitMBPerSec)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.bucket", cfg.Store.Bucket)
	v.SetDefault("store.prefix", cfg.Store.Prefix)
	v.SetDefault("store.region", cfg.Store.Region)
	v.SetDefault("store.endpoint", cfg.Store.Endpoint)
	v.SetDefault("store.access_key", cfg.Store.AccessKey)
	v.SetDefault("store.secret_key", cfg.Store.SecretKey)
	v.SetDefault("store.secure", cfg.Store.Secure)
	v.SetDefault("store.compression", cfg.Store.Compression)
	v.SetDefault("telemetry.otlp_endpoint", cfg.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.service_name", cfg.Telemetry.ServiceName)
	v.SetDefault("telemetry.sample_rate", cfg.Telemetry.SampleRate)
}

// Load reads configuration from path (optional), a .env file in the working
// directory (optional), and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.Index.BucketCount < 1 {
		errs = append(errs, fmt.Errorf("index.bucket_count must be positive, got %d", c.Index.BucketCount))
	}
	if c.Index.MaxScanDimensions < 0 || c.Index.MaxScanNodes < 0 {
		errs = append(errs, errors.New("index scan limits must not be negative"))
	}
	if c.Index.TopN < 1 {
		errs = append(errs, fmt.Errorf("index.top_n must be positive, got %d", c.Index.TopN))
	}
	switch c.Store.Backend {
	case "local":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the local backend"))
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			errs = append(errs, fmt.Errorf("store.bucket is required for the %s backend", c.Store.Backend))
		}
		if c.Store.Backend == "minio" && c.Store.Endpoint == "" {
			errs = append(errs, errors.New("store.endpoint is required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	switch strings.ToLower(c.Store.Compression) {
	case "", "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("unknown store.compression %q", c.Store.Compression))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate %.2f is outside [0, 1]", c.Telemetry.SampleRate))
	}

	return errors.Join(errs...)
}

// Save writes c to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
