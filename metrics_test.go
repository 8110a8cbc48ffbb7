package vsearch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordIngest(10*time.Millisecond, nil)
	m.RecordIngest(30*time.Millisecond, errors.New("boom"))
	m.RecordBuild(100, time.Second, nil)
	m.RecordBuild(0, time.Second, errors.New("boom"))
	m.RecordSearch(10, 7, 2*time.Millisecond, nil)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.IngestCount)
	assert.Equal(t, int64(1), stats.IngestErrors)
	assert.Equal(t, (20 * time.Millisecond).Nanoseconds(), stats.IngestAvgNanos)
	assert.Equal(t, int64(2), stats.BuildCount)
	assert.Equal(t, int64(1), stats.BuildErrors)
	assert.Equal(t, int64(100), stats.BuildDocuments)
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(7), stats.SearchResults)
	assert.Equal(t, (2 * time.Millisecond).Nanoseconds(), stats.SearchAvgNanos)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	stats := (&BasicMetricsCollector{}).GetStats()
	assert.Zero(t, stats.IngestAvgNanos)
	assert.Zero(t, stats.SearchAvgNanos)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	l.WithComponent("index").LogBuild(ctx, 10, 5, time.Second, nil)
	assert.Contains(t, buf.String(), "index build completed")
	assert.Contains(t, buf.String(), "component=index")

	buf.Reset()
	l.WithDocument(7).LogIngest(ctx, 7, 3, errors.New("disk full"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "disk full")

	buf.Reset()
	NoopLogger().LogSearch(ctx, 10, 0, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
