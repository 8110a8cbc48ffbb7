package vsearch

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/vsearch/index"
	"github.com/hupe1980/vsearch/internal/fs"
	"github.com/hupe1980/vsearch/internal/resource"
	"github.com/hupe1980/vsearch/tokenizer"
)

// DefaultBucketCount is the number of buckets each dimension is split into.
const DefaultBucketCount = 100

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	tokenizer        tokenizer.Tokenizer
	bucketCount      int
	queryOptions     index.QueryOptions
	resourceConfig   resource.Config
	tracer           trace.Tracer
	fileSystem       fs.FileSystem
	syncOnAdd        bool
}

// Option configures Open.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vsearch.NewJSONLogger(slog.LevelInfo)
//	e, _ := vsearch.Open(ctx, "./data", vsearch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
//	metrics := &vsearch.BasicMetricsCollector{}
//	e, _ := vsearch.Open(ctx, "./data", vsearch.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithTokenizer replaces the default word tokenizer. The same tokenizer must be
// used for vocabulary building, ingest, and search.
func WithTokenizer(t tokenizer.Tokenizer) Option {
	return func(o *options) {
		o.tokenizer = t
	}
}

// WithBucketCount sets the number of buckets per dimension used by BuildIndex.
func WithBucketCount(n int) Option {
	return func(o *options) {
		o.bucketCount = n
	}
}

// WithQueryOptions sets the default query limits. Individual searches can
// override them with SearchOptions.
func WithQueryOptions(q index.QueryOptions) Option {
	return func(o *options) {
		o.queryOptions = q
	}
}

// WithResourceConfig bounds build workers, posting memory, and IO throughput.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = cfg
	}
}

// WithTracer sets the tracer used for operation spans. Defaults to the global
// OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithFileSystem sets the file system for the vocabulary, vector store, and index.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// WithSyncOnAdd fsyncs the vector store after every ingested document.
func WithSyncOnAdd() Option {
	return func(o *options) {
		o.syncOnAdd = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		tokenizer:        tokenizer.Default(),
		bucketCount:      DefaultBucketCount,
		queryOptions:     index.DefaultQueryOptions(),
		fileSystem:       fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	if o.fileSystem == nil {
		o.fileSystem = fs.Default
	}
	return o
}

type searchOptions struct {
	query index.QueryOptions
}

// SearchOption adjusts a single search.
type SearchOption func(*searchOptions)

// WithTopN sets the maximum number of results. n must be positive.
func WithTopN(n int) SearchOption {
	return func(o *searchOptions) {
		o.query.TopN = n
	}
}

// WithMaxScanDimensions limits how many query dimensions are scanned.
func WithMaxScanDimensions(n int) SearchOption {
	return func(o *searchOptions) {
		o.query.MaxScanDimensions = n
	}
}

// WithMaxScanNodes limits how many buckets are scanned per dimension.
func WithMaxScanNodes(n int) SearchOption {
	return func(o *searchOptions) {
		o.query.MaxScanNodes = n
	}
}

// WithNearestBuckets scans the buckets whose representative is closest to the
// query weight first instead of the furthest.
func WithNearestBuckets() SearchOption {
	return func(o *searchOptions) {
		o.query.NearestBuckets = true
	}
}
