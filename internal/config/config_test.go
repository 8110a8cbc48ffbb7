package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "vsearch.yaml")

	cfg := Default()
	cfg.DataDir = "/srv/enron"
	cfg.Index.BucketCount = 64
	cfg.Store.Backend = "minio"
	cfg.Store.Bucket = "artifacts"
	cfg.Store.Endpoint = "localhost:9000"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsearch.yaml")
	require.NoError(t, Default().Save(path))

	t.Setenv("VSEARCH_INDEX_BUCKET_COUNT", "50")
	t.Setenv("VSEARCH_DATA_DIR", "/tmp/override")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Index.BucketCount)
	assert.Equal(t, "/tmp/override", cfg.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  bucket_count: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket_count")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"Valid", func(*Config) {}, ""},
		{"UnknownBackend", func(c *Config) { c.Store.Backend = "ftp" }, "unknown store.backend"},
		{"S3WithoutBucket", func(c *Config) { c.Store.Backend = "s3" }, "store.bucket"},
		{"MinioWithoutEndpoint", func(c *Config) {
			c.Store.Backend = "minio"
			c.Store.Bucket = "b"
		}, "store.endpoint"},
		{"Compression", func(c *Config) { c.Store.Compression = "brotli" }, "store.compression"},
		{"SampleRate", func(c *Config) { c.Telemetry.SampleRate = 2 }, "sample_rate"},
		{"TopN", func(c *Config) { c.Index.TopN = 0 }, "top_n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
