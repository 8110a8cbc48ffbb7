package vsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hupe1980/vsearch/catalog"
	"github.com/hupe1980/vsearch/index"
	"github.com/hupe1980/vsearch/internal/fs"
	"github.com/hupe1980/vsearch/internal/resource"
	"github.com/hupe1980/vsearch/sparse"
	"github.com/hupe1980/vsearch/vectorstore"
	"github.com/hupe1980/vsearch/vocab"
)

// File names inside an engine directory.
const (
	VocabularyFile = "vocabulary.dat"
	VectorsFile    = "vectors.dat"
	IndexFile      = "index.dat"
	CatalogFile    = "catalog.db"
)

const maxTitleRunes = 100

// ErrInvalidDocumentID is returned by Ingest for negative document ids.
var ErrInvalidDocumentID = errors.New("document id must not be negative")

// SearchResult is a scored document enriched with its catalog entry.
type SearchResult struct {
	DocumentID int32
	Score      float64
	// Source and Title are empty when the document is missing from the catalog.
	Source string
	Title  string
}

// Stats describes the state of an Engine.
type Stats struct {
	VocabularySize      int
	VocabularyDocuments int
	Documents           int
	Built               bool
	IndexedDocuments    int
	IndexedDimensions   int
}

// Engine ties the vocabulary, vector store, index, and catalog of one directory together.
//
// The expected workflow is a batch pipeline:
//
//  1. AddToVocabulary for every document, then SaveVocabulary.
//  2. Ingest every document.
//  3. BuildIndex.
//  4. Search, SearchVector, and Similar.
//
// Ingest vectors are computed against the vocabulary at ingest time, so the
// vocabulary must be complete before ingest starts.
//
// Engine is safe for concurrent use. Searches run in parallel; AddToVocabulary
// excludes searches and ingests while it mutates the vocabulary.
type Engine struct {
	dir  string
	opts options
	rc   *resource.Controller

	mu     sync.RWMutex
	vocab  *vocab.Model
	reader *index.Reader
	closed bool

	store   *vectorstore.Store
	catalog *catalog.Catalog
}

// Open opens the engine rooted at dir, creating the directory and an empty
// vector store and catalog when needed. An existing vocabulary and index are loaded.
func Open(ctx context.Context, dir string, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)
	if opts.bucketCount < 1 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidBucketCount, opts.bucketCount)
	}

	if err := opts.fileSystem.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	e := &Engine{
		dir:  dir,
		opts: opts,
		rc:   resource.NewController(opts.resourceConfig),
	}

	m, err := vocab.LoadFile(opts.fileSystem, e.path(VocabularyFile))
	switch {
	case err == nil:
		e.vocab = m
	case errors.Is(err, os.ErrNotExist):
		e.vocab = vocab.New()
	default:
		return nil, translateError(fmt.Errorf("load vocabulary: %w", err))
	}

	e.store, err = vectorstore.Open(e.path(VectorsFile), func(o *vectorstore.Options) {
		o.FileSystem = opts.fileSystem
		o.Logger = opts.logger.WithComponent("vectorstore").Logger
		o.SyncOnAdd = opts.syncOnAdd
	})
	if err != nil {
		return nil, translateError(fmt.Errorf("open vector store: %w", err))
	}

	if _, err := opts.fileSystem.Stat(e.path(IndexFile)); err == nil {
		r, err := index.LoadFile(e.path(IndexFile))
		if err != nil {
			_ = e.store.Close()
			return nil, translateError(fmt.Errorf("load index: %w", err))
		}
		e.reader = r
	} else if !errors.Is(err, os.ErrNotExist) {
		_ = e.store.Close()
		return nil, fmt.Errorf("stat index: %w", err)
	}

	e.catalog, err = catalog.Open(ctx, e.path(CatalogFile), func(o *catalog.Options) {
		o.Logger = opts.logger.WithComponent("catalog").Logger
	})
	if err != nil {
		_ = e.store.Close()
		return nil, err
	}

	opts.logger.InfoContext(ctx, "engine opened",
		"dir", dir,
		"vocabulary", e.vocab.DimensionCount(),
		"documents", e.store.Count(),
		"indexed", e.reader != nil,
	)
	return e, nil
}

func (e *Engine) path(name string) string {
	return filepath.Join(e.dir, name)
}

// Dir returns the engine directory.
func (e *Engine) Dir() string { return e.dir }

// AddToVocabulary tokenizes text and counts it as one vocabulary document.
func (e *Engine) AddToVocabulary(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tokens := e.opts.tokenizer.Tokenize(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.vocab.AddDocument(tokens)
	return nil
}

// SaveVocabulary writes the vocabulary to the engine directory atomically.
func (e *Engine) SaveVocabulary(ctx context.Context) (err error) {
	path := e.path(VocabularyFile)
	ctx, span := e.startSpan(ctx, "SaveVocabulary")

	e.mu.RLock()
	defer e.mu.RUnlock()

	size := e.vocab.DimensionCount()
	defer func() {
		e.opts.logger.LogVocabulary(ctx, path, size, err)
		endSpan(span, err)
	}()

	if e.closed {
		return ErrClosed
	}
	return e.vocab.SaveFile(e.opts.fileSystem, path)
}

// Vectorize converts text to a TF-IDF vector using the current vocabulary.
func (e *Engine) Vectorize(text string) *sparse.Vector {
	tokens := e.opts.tokenizer.Tokenize(text)

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vocab.ToVector(tokens)
}

// NextDocumentID returns one past the largest ingested document id.
func (e *Engine) NextDocumentID(ctx context.Context) (int32, error) {
	return e.catalog.NextID(ctx)
}

// Ingest vectorizes text, appends it to the vector store as document id, and
// records source in the catalog. Ingesting an id twice appends a second record;
// the index keeps the later one. When the append fails the catalog row stays, so
// the id is not reused and the document is simply absent from the index.
func (e *Engine) Ingest(ctx context.Context, id int32, source, text string) (err error) {
	start := time.Now()
	ctx, span := e.startSpan(ctx, "Ingest", attribute.Int64("vsearch.document.id", int64(id)))

	dims := 0
	defer func() {
		err = translateError(err)
		e.opts.metricsCollector.RecordIngest(time.Since(start), err)
		e.opts.logger.LogIngest(ctx, id, dims, err)
		endSpan(span, err)
	}()

	if id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDocumentID, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tokens := e.opts.tokenizer.Tokenize(text)

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrClosed
	}
	v := e.vocab.ToVector(tokens)
	e.mu.RUnlock()
	dims = v.Len()

	// The catalog row goes first: NextDocumentID derives from the catalog, so a
	// failed append never leaves a stored vector whose id gets handed out again.
	err = e.catalog.Put(ctx, catalog.Document{
		ID:      id,
		Source:  source,
		Title:   titleOf(text),
		Tokens:  len(tokens),
		AddedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	if err := e.store.Add(id, v); err != nil {
		return fmt.Errorf("ingest document %d: %w", id, err)
	}
	return nil
}

// BuildIndex reads every stored vector, writes the bucketed index to the engine
// directory atomically, and switches searches over to it.
func (e *Engine) BuildIndex(ctx context.Context) (stats index.Stats, err error) {
	start := time.Now()
	ctx, span := e.startSpan(ctx, "BuildIndex", attribute.Int("vsearch.bucket_count", e.opts.bucketCount))
	defer func() {
		err = translateError(err)
		span.SetAttributes(
			attribute.Int("vsearch.documents", stats.Documents),
			attribute.Int("vsearch.dimensions", stats.Dimensions),
		)
		e.opts.metricsCollector.RecordBuild(stats.Documents, time.Since(start), err)
		e.opts.logger.LogBuild(ctx, stats.Documents, stats.Dimensions, time.Since(start), err)
		endSpan(span, err)
	}()

	if e.isClosed() {
		return stats, ErrClosed
	}

	b, err := index.NewBuilder(e.opts.bucketCount, func(o *index.BuilderOptions) {
		o.ResourceController = e.rc
		o.Logger = e.opts.logger.WithComponent("index").Logger
	})
	if err != nil {
		return stats, err
	}
	defer b.Reset()

	for rec, err := range e.store.Records() {
		if err != nil {
			return stats, fmt.Errorf("read vectors: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := b.Add(rec.DocumentID, rec.Vector); err != nil {
			return stats, err
		}
	}
	stats = b.Stats()

	path := e.path(IndexFile)
	err = fs.WriteFileAtomic(e.opts.fileSystem, path, 0o644, func(w io.Writer) error {
		_, err := b.Write(ctx, resource.NewRateLimitedWriter(ctx, w, e.rc))
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("write index: %w", err)
	}

	r, err := index.LoadFile(path)
	if err != nil {
		return stats, fmt.Errorf("load index: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return stats, ErrClosed
	}
	e.reader = r
	return stats, nil
}

// Search vectorizes text and queries the index.
func (e *Engine) Search(ctx context.Context, text string, optFns ...SearchOption) ([]SearchResult, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}
	return e.SearchVector(ctx, e.Vectorize(text), optFns...)
}

// SearchVector queries the index with v. Results are ordered by descending
// score, ties by ascending document id.
func (e *Engine) SearchVector(ctx context.Context, v *sparse.Vector, optFns ...SearchOption) (results []SearchResult, err error) {
	so := searchOptions{query: e.opts.queryOptions}
	for _, fn := range optFns {
		fn(&so)
	}

	start := time.Now()
	ctx, span := e.startSpan(ctx, "Search",
		attribute.Int("vsearch.top_n", so.query.TopN),
		attribute.Int("vsearch.query.dimensions", v.Len()),
	)
	defer func() {
		err = translateError(err)
		e.opts.metricsCollector.RecordSearch(so.query.TopN, len(results), time.Since(start), err)
		e.opts.logger.LogSearch(ctx, so.query.TopN, len(results), err)
		endSpan(span, err)
	}()

	if so.query.TopN <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopN, so.query.TopN)
	}

	e.mu.RLock()
	r, closed := e.reader, e.closed
	e.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if r == nil {
		return nil, ErrNotBuilt
	}

	hits, err := r.Query(v, so.query)
	if err != nil {
		return nil, err
	}
	return e.enrich(ctx, hits)
}

func (e *Engine) enrich(ctx context.Context, hits []index.Result) ([]SearchResult, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]int32, len(hits))
	for i, h := range hits {
		ids[i] = h.DocumentID
	}
	docs, err := e.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		doc := docs[h.DocumentID]
		results[i] = SearchResult{
			DocumentID: h.DocumentID,
			Score:      h.Score,
			Source:     doc.Source,
			Title:      doc.Title,
		}
	}
	return results, nil
}

// Vector returns the stored vector of document id. The vector store has no
// lookup structure, so this scans it; the last record for id wins.
func (e *Engine) Vector(ctx context.Context, id int32) (*sparse.Vector, error) {
	var found *sparse.Vector
	for rec, err := range e.store.Records() {
		if err != nil {
			return nil, translateError(err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rec.DocumentID == id {
			found = rec.Vector
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
	}
	return found, nil
}

// Similar returns the documents most similar to the stored document id,
// excluding the document itself.
func (e *Engine) Similar(ctx context.Context, id int32, optFns ...SearchOption) ([]SearchResult, error) {
	so := searchOptions{query: e.opts.queryOptions}
	for _, fn := range optFns {
		fn(&so)
	}
	if so.query.TopN <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopN, so.query.TopN)
	}

	v, err := e.Vector(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := e.SearchVector(ctx, v, append(slices.Clip(optFns), WithTopN(so.query.TopN+1))...)
	if err != nil {
		return nil, err
	}
	results = slices.DeleteFunc(results, func(r SearchResult) bool {
		return r.DocumentID == id
	})
	if len(results) > so.query.TopN {
		results = results[:so.query.TopN]
	}
	return results, nil
}

// Document returns the catalog entry of document id.
func (e *Engine) Document(ctx context.Context, id int32) (catalog.Document, error) {
	doc, err := e.catalog.Get(ctx, id)
	return doc, translateError(err)
}

// Stats returns a snapshot of the engine state.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{
		VocabularySize:      e.vocab.DimensionCount(),
		VocabularyDocuments: int(e.vocab.DocumentCount()),
		Documents:           e.store.Count(),
		Built:               e.reader != nil,
	}
	if e.reader != nil {
		s.IndexedDocuments = e.reader.Documents()
		s.IndexedDimensions = e.reader.Dimensions()
	}
	return s
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// Close closes the vector store and catalog. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.reader = nil

	return errors.Join(e.store.Close(), e.catalog.Close())
}

// titleOf returns the "Subject:" header of a mail-like text, or its first
// non-empty line.
func titleOf(text string) string {
	var first string
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) >= 8 && strings.EqualFold(line[:8], "subject:") {
			return truncateRunes(strings.TrimSpace(line[8:]), maxTitleRunes)
		}
		if first == "" {
			first = line
		}
	}
	return truncateRunes(first, maxTitleRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
