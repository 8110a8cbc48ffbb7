package index

import (
	"bufio"
	"bytes"
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vsearch/internal/binio"
	"github.com/hupe1980/vsearch/internal/mmap"
	"github.com/hupe1980/vsearch/sparse"
)

// Preallocation cap for counts read from untrusted input.
const maxPrealloc = 1 << 16

// Reader answers queries against a loaded index.
type Reader struct {
	dimensions map[int32][]Bucket
	norms      map[int32]float64
}

// Load decodes an index from r.
func Load(r io.Reader) (*Reader, error) {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReaderSize(r, 64<<10)
	}
	bin := binio.NewReader(r)

	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
	}
	count := func(what string) (int32, error) {
		n := bin.Int32()
		if err := bin.Err(); err != nil {
			return 0, fmt.Errorf("%w: reading %s: %w", ErrCorrupt, what, err)
		}
		if n < 0 {
			return 0, corrupt("negative %s %d", what, n)
		}
		return n, nil
	}

	numDims, err := count("dimension count")
	if err != nil {
		return nil, err
	}

	rd := &Reader{
		dimensions: make(map[int32][]Bucket, min(numDims, maxPrealloc)),
	}

	ids := make([]uint32, 0, 256)
	for range numDims {
		dim := bin.Int32()
		numBuckets, err := count("bucket count")
		if err != nil {
			return nil, err
		}
		if _, dup := rd.dimensions[dim]; dup {
			return nil, corrupt("duplicate dimension %d", dim)
		}

		buckets := make([]Bucket, 0, min(numBuckets, maxPrealloc))
		for range numBuckets {
			value := bin.Float64()
			numDocs, err := count("document count")
			if err != nil {
				return nil, err
			}

			ids = ids[:0]
			for range numDocs {
				ids = append(ids, uint32(bin.Int32()))
			}
			if err := bin.Err(); err != nil {
				return nil, fmt.Errorf("%w: dimension %d: %w", ErrCorrupt, dim, err)
			}

			set := roaring.BitmapOf(ids...)
			set.RunOptimize()
			buckets = append(buckets, Bucket{Value: value, Documents: set})
		}
		rd.dimensions[dim] = buckets
	}

	numNorms, err := count("norm count")
	if err != nil {
		return nil, err
	}
	rd.norms = make(map[int32]float64, min(numNorms, maxPrealloc))
	for range numNorms {
		id := bin.Int32()
		rd.norms[id] = bin.Float64()
	}
	if err := bin.Err(); err != nil {
		return nil, fmt.Errorf("%w: norm table: %w", ErrCorrupt, err)
	}

	return rd, nil
}

// LoadBytes decodes an index from data.
func LoadBytes(data []byte) (*Reader, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile maps the index file at path and decodes it. The mapping is released
// before LoadFile returns.
func LoadFile(path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	_ = m.Advise(mmap.AccessSequential)
	return LoadBytes(m.Bytes())
}

// Dimensions returns the number of indexed dimensions.
func (r *Reader) Dimensions() int { return len(r.dimensions) }

// Documents returns the number of documents in the norm table.
func (r *Reader) Documents() int { return len(r.norms) }

// Norm returns the stored norm of a document.
func (r *Reader) Norm(documentID int32) (float64, bool) {
	n, ok := r.norms[documentID]
	return n, ok
}

// Buckets returns the buckets of a dimension in ascending value order.
// The returned buckets must not be modified.
func (r *Reader) Buckets(dim int32) []Bucket {
	return r.dimensions[dim]
}

// Result is a scored candidate document.
type Result struct {
	DocumentID int32
	Score      float64
}

// QueryOptions bounds the work done by a query.
type QueryOptions struct {
	// MaxScanDimensions is the number of highest-weighted query dimensions scanned.
	MaxScanDimensions int
	// MaxScanNodes is the number of buckets scanned per dimension.
	MaxScanNodes int
	// TopN is the maximum number of results.
	TopN int
	// NearestBuckets scans the buckets closest to the query weight first
	// instead of the furthest ones.
	NearestBuckets bool
}

// DefaultQueryOptions returns the default query limits.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		MaxScanDimensions: 100,
		MaxScanNodes:      100,
		TopN:              100,
	}
}

// Query returns up to opts.TopN candidates ordered by descending score, ties by
// ascending document id. A query without positive norm has no candidates. q is
// only read, so one vector may be shared by concurrent queries.
//
// Query dimensions missing from the index are skipped. A candidate without a
// stored norm fails the query with a *MissingNormError.
func (r *Reader) Query(q *sparse.Vector, opts QueryOptions) ([]Result, error) {
	if opts.MaxScanDimensions < 0 || opts.MaxScanNodes < 0 || opts.TopN < 0 {
		return nil, ErrInvalidQueryOptions
	}

	// Computed locally, in dimension order, so concurrent queries sharing q
	// never write its norm cache and repeated queries score identically.
	var sq float64
	for _, w := range q.All() {
		sq += w * w
	}
	qnorm := math.Sqrt(sq)
	if qnorm == 0 || opts.TopN == 0 {
		return nil, nil
	}

	type scored struct {
		bucket *Bucket
		score  float64
	}

	sums := make(map[int32]float64)
	var ranked []scored

	for _, e := range q.TopN(opts.MaxScanDimensions) {
		buckets := r.dimensions[e.Dimension]
		if len(buckets) == 0 {
			continue
		}

		ranked = ranked[:0]
		for i := range buckets {
			ranked = append(ranked, scored{bucket: &buckets[i], score: math.Abs(e.Weight - buckets[i].Value)})
		}
		slices.SortStableFunc(ranked, func(a, b scored) int {
			if opts.NearestBuckets {
				return cmp.Compare(a.score, b.score)
			}
			return cmp.Compare(b.score, a.score)
		})

		for _, s := range ranked[:min(opts.MaxScanNodes, len(ranked))] {
			credit := s.bucket.Value * e.Weight
			it := s.bucket.Documents.Iterator()
			for it.HasNext() {
				sums[int32(it.Next())] += credit
			}
		}
	}

	results := make([]Result, 0, len(sums))
	for id, sum := range sums {
		norm, ok := r.norms[id]
		if !ok {
			return nil, &MissingNormError{DocumentID: id}
		}
		score := 0.0
		if norm != 0 {
			score = sum / (qnorm * norm)
		}
		results = append(results, Result{DocumentID: id, Score: score})
	}

	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.DocumentID, b.DocumentID)
	})

	if len(results) > opts.TopN {
		results = results[:opts.TopN]
	}
	return results, nil
}
