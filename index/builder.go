package index

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vsearch/internal/binio"
	"github.com/hupe1980/vsearch/internal/resource"
	"github.com/hupe1980/vsearch/sparse"
)

const (
	// Approximate heap cost used for memory reservations.
	postingBytes = 12
	normBytes    = 16

	// Dimensions bucketized per worker task.
	dimensionsPerTask = 256
)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Workers bounds concurrent bucketization goroutines in WriteTo.
	// Defaults to the resource controller's worker limit, or 1.
	Workers int
	// ResourceController limits workers and posting memory. May be nil.
	ResourceController *resource.Controller
	// Logger receives build progress at debug level.
	Logger *slog.Logger
}

// Stats summarizes the data collected by a Builder.
type Stats struct {
	Documents  int
	Dimensions int
	Postings   int
}

// Builder collects vectors and writes the bucketed index.
type Builder struct {
	bucketCount int
	postings    map[int32][]Posting
	norms       map[int32]float64
	duplicates  bool
	reserved    int64
	opts        BuilderOptions
}

// NewBuilder creates a builder that splits each dimension into bucketCount buckets.
func NewBuilder(bucketCount int, optFns ...func(o *BuilderOptions)) (*Builder, error) {
	if bucketCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBucketCount, bucketCount)
	}

	opts := BuilderOptions{
		Logger: slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = opts.ResourceController.Workers()
	}

	return &Builder{
		bucketCount: bucketCount,
		postings:    make(map[int32][]Posting),
		norms:       make(map[int32]float64),
		opts:        opts,
	}, nil
}

// Add records the norm of v for documentID and a posting for every non-zero
// entry of v. Adding the same id twice overwrites its norm; when the index is
// written only the last posting per document and dimension is kept.
//
// Add fails only when the resource controller's memory budget is exhausted, in
// which case nothing is recorded.
func (b *Builder) Add(documentID int32, v *sparse.Vector) error {
	cost := int64(normBytes + postingBytes*v.Len())
	if err := b.opts.ResourceController.AcquireMemory(cost); err != nil {
		return fmt.Errorf("index: add document %d: %w", documentID, err)
	}
	b.reserved += cost

	if _, ok := b.norms[documentID]; ok {
		b.duplicates = true
	}
	b.norms[documentID] = v.Norm()

	for dim, w := range v.All() {
		if w == 0 {
			continue
		}
		b.postings[dim] = append(b.postings[dim], Posting{DocumentID: documentID, Weight: w})
	}
	return nil
}

// Stats returns counts of the collected data.
func (b *Builder) Stats() Stats {
	s := Stats{Documents: len(b.norms), Dimensions: len(b.postings)}
	for _, p := range b.postings {
		s.Postings += len(p)
	}
	return s
}

// Reset discards all collected data and releases reserved memory.
func (b *Builder) Reset() {
	b.opts.ResourceController.ReleaseMemory(b.reserved)
	b.reserved = 0
	b.postings = make(map[int32][]Posting)
	b.norms = make(map[int32]float64)
	b.duplicates = false
}

// WriteTo writes the index to w. It implements io.WriterTo.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	return b.Write(context.Background(), w)
}

// Write bucketizes every dimension in parallel and then writes the index to w.
//
// All dimensions are bucketized before the first byte is written, so the
// leading dimension count already excludes dimensions whose buckets were all
// dropped.
func (b *Builder) Write(ctx context.Context, w io.Writer) (int64, error) {
	start := time.Now()

	dims := slices.Sorted(maps.Keys(b.postings))
	buckets, err := b.bucketize(ctx, dims)
	if err != nil {
		return 0, err
	}

	nonEmpty := 0
	for _, bs := range buckets {
		if len(bs) > 0 {
			nonEmpty++
		}
	}

	bw := bufio.NewWriterSize(w, 64<<10)
	bin := binio.NewWriter(bw)

	bin.Int32(int32(nonEmpty))
	for i, dim := range dims {
		if len(buckets[i]) == 0 {
			continue
		}
		bin.Int32(dim)
		bin.Int32(int32(len(buckets[i])))
		for _, bucket := range buckets[i] {
			bin.Float64(bucket.Value)
			bin.Int32(int32(bucket.Documents.GetCardinality()))
			it := bucket.Documents.Iterator()
			for it.HasNext() {
				bin.Int32(int32(it.Next()))
			}
		}
		if err := bin.Err(); err != nil {
			return bin.Count(), err
		}
	}

	docs := slices.Sorted(maps.Keys(b.norms))
	bin.Int32(int32(len(docs)))
	for _, id := range docs {
		bin.Int32(id)
		bin.Float64(b.norms[id])
	}

	if err := bin.Err(); err != nil {
		return bin.Count(), err
	}
	if err := bw.Flush(); err != nil {
		return bin.Count(), err
	}

	b.opts.Logger.Debug("index written",
		"dimensions", nonEmpty,
		"dropped_dimensions", len(dims)-nonEmpty,
		"documents", len(docs),
		"bytes", bin.Count(),
		"elapsed", time.Since(start),
	)
	return bin.Count(), nil
}

func (b *Builder) bucketize(ctx context.Context, dims []int32) ([][]Bucket, error) {
	out := make([][]Bucket, len(dims))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for lo := 0; lo < len(dims); lo += dimensionsPerTask {
		hi := min(lo+dimensionsPerTask, len(dims))
		g.Go(func() error {
			if err := b.opts.ResourceController.AcquireWorker(ctx); err != nil {
				return err
			}
			defer b.opts.ResourceController.ReleaseWorker()

			for i := lo; i < hi; i++ {
				postings := b.postings[dims[i]]
				if b.duplicates {
					postings = dedupe(postings)
				}
				out[i] = Bucketize(postings, b.bucketCount)
			}
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
