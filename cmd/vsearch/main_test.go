package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a_fruit.txt":   "Subject: fruit\napple banana cherry fruit salad",
		"b_engine.txt":  "engine piston cylinder motor",
		"c_planet.txt":  "planet orbit galaxy telescope",
		"d_baking.md":   "apple pie baking oven",
		".hidden/x.txt": "galaxy galaxy galaxy",
		".ignored.txt":  "telescope",
	}
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	return dir
}

func TestCLI_EndToEnd(t *testing.T) {
	corpusDir := writeCorpus(t)
	work := t.TempDir()
	dataDir := filepath.Join(work, "data")
	configPath := filepath.Join(work, "vsearch.yaml")

	out := run(t, "--data-dir", dataDir, "config", "init", "--path", configPath)
	assert.Contains(t, out, "wrote")

	flags := []string{"--config", configPath, "--data-dir", dataDir, "--log-level", "error"}
	cli := func(args ...string) string {
		return run(t, append(append([]string{}, flags...), args...)...)
	}

	out = cli("vocab", corpusDir)
	assert.Contains(t, out, "vocabulary: 4 documents")

	out = cli("ingest", corpusDir)
	assert.Contains(t, out, "ingested 4 documents")

	out = cli("build")
	assert.Contains(t, out, "index: 4 documents")

	out = cli("query", "galaxy", "telescope")
	assert.Contains(t, out, "c_planet.txt")
	assert.Contains(t, out, "1 results")

	out = cli("similar", "0", "--top", "1")
	assert.Contains(t, out, "d_baking.md")

	out = cli("stats")
	assert.Contains(t, out, "index built:        true")

	t.Run("PublishFetch", func(t *testing.T) {
		artifacts := filepath.Join(work, "artifacts")
		t.Setenv("VSEARCH_STORE_PATH", artifacts)

		out := cli("publish", "--prefix", "v1")
		assert.Contains(t, out, "published v1/index.dat.zst")
		assert.FileExists(t, filepath.Join(artifacts, "v1", "vectors.dat.zst"))

		fetched := filepath.Join(work, "fetched")
		out = run(t, "--config", configPath, "--data-dir", fetched, "--log-level", "error", "fetch", "--prefix", "v1")
		assert.Contains(t, out, "4 files")

		out = run(t, "--config", configPath, "--data-dir", fetched, "--log-level", "error", "query", "galaxy")
		assert.Contains(t, out, "c_planet.txt")
	})
}

func TestCLI_SimilarInvalidID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--data-dir", t.TempDir(), "similar", "abc"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestCLI_ConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: x\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", path})
	require.Error(t, cmd.ExecuteContext(context.Background()))

	run(t, "config", "init", "--path", path, "--force")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bucket_count: 100")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		level, err := parseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, level)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestWalkCorpus(t *testing.T) {
	dir := writeCorpus(t)

	var names []string
	err := walkCorpus(context.Background(), dir, []string{"txt"}, func(f textFile) error {
		rel, err := filepath.Rel(dir, f.Path)
		require.NoError(t, err)
		names = append(names, rel)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_fruit.txt", "b_engine.txt", "c_planet.txt"}, names)
}

func TestMatchesExt(t *testing.T) {
	assert.True(t, matchesExt("a/b.txt", nil))
	assert.True(t, matchesExt("a/b.TXT", []string{".txt"}))
	assert.True(t, matchesExt("a/b.md", []string{"txt", "md"}))
	assert.False(t, matchesExt("a/b.go", []string{"txt"}))
	assert.False(t, matchesExt("a/README", []string{"txt"}))
}
