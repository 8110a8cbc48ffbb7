package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vsearch/blobstore"
	"github.com/hupe1980/vsearch/internal/fs"
	"github.com/hupe1980/vsearch/internal/resource"
)

// ErrNotFound is returned by Fetch when the blob does not exist.
var ErrNotFound = blobstore.ErrNotFound

// File pairs a local path with its blob name.
type File struct {
	Name string
	Path string
}

// Options configures a Store.
type Options struct {
	FileSystem fs.FileSystem
	// ResourceController throttles the bytes read from sources. Nil disables throttling.
	ResourceController *resource.Controller
	Logger             *slog.Logger
	// ZstdLevel is the encoder level for .zst blobs.
	ZstdLevel zstd.EncoderLevel
	// Concurrency bounds PublishAll and FetchAll. Defaults to 4.
	Concurrency int
}

// Store moves artifact files between the local file system and a blob store.
type Store struct {
	blobs blobstore.BlobStore
	opts  Options
}

// New creates a Store on blobs.
func New(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Store {
	opts := Options{
		FileSystem:  fs.Default,
		Logger:      slog.Default(),
		ZstdLevel:   zstd.SpeedDefault,
		Concurrency: 4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fs.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Store{blobs: blobs, opts: opts}
}

// Publish uploads the file at path as blob name, compressed according to the
// name suffix. It returns the number of uncompressed bytes read. A failed
// upload is aborted so no partial blob becomes visible.
func (s *Store) Publish(ctx context.Context, path, name string) (int64, error) {
	c := CompressionFor(name)

	f, err := s.opts.FileSystem.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("artifact: publish %s: %w", name, err)
	}
	defer f.Close()

	blob, err := s.blobs.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("artifact: publish %s: %w", name, err)
	}

	n, err := s.copyCompressed(ctx, blob, f, c)
	if err != nil {
		_ = blobstore.Abort(blob)
		return n, fmt.Errorf("artifact: publish %s: %w", name, err)
	}
	if err := blob.Close(); err != nil {
		return n, fmt.Errorf("artifact: publish %s: %w", name, err)
	}

	s.opts.Logger.Debug("artifact published",
		slog.String("name", name),
		slog.String("compression", c.String()),
		slog.Int64("bytes", n),
	)
	return n, nil
}

func (s *Store) copyCompressed(ctx context.Context, dst io.Writer, src io.Reader, c Compression) (int64, error) {
	cw, err := compressWriter(dst, c, s.opts.ZstdLevel)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(cw, resource.NewRateLimitedReader(ctx, src, s.opts.ResourceController))
	if cerr := cw.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Fetch downloads blob name into path, decompressing according to the name
// suffix. The local file is replaced atomically. It returns the number of
// uncompressed bytes written.
func (s *Store) Fetch(ctx context.Context, name, path string) (int64, error) {
	c := CompressionFor(name)

	blob, err := s.blobs.Open(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("artifact: fetch %s: %w", name, err)
	}
	defer blob.Close()

	body, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return 0, fmt.Errorf("artifact: fetch %s: %w", name, err)
	}
	defer body.Close()

	src, err := decompressReader(resource.NewRateLimitedReader(ctx, body, s.opts.ResourceController), c)
	if err != nil {
		return 0, fmt.Errorf("artifact: fetch %s: %w", name, err)
	}
	defer src.Close()

	if dir := filepath.Dir(path); dir != "." {
		if err := s.opts.FileSystem.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("artifact: fetch %s: %w", name, err)
		}
	}

	var n int64
	err = fs.WriteFileAtomic(s.opts.FileSystem, path, 0o644, func(w io.Writer) error {
		var cerr error
		n, cerr = io.Copy(w, src)
		return cerr
	})
	if err != nil {
		return n, fmt.Errorf("artifact: fetch %s: %w", name, err)
	}

	s.opts.Logger.Debug("artifact fetched",
		slog.String("name", name),
		slog.String("compression", c.String()),
		slog.Int64("bytes", n),
	)
	return n, nil
}

// PublishAll publishes files concurrently and returns the first error.
func (s *Store) PublishAll(ctx context.Context, files []File) error {
	return s.each(ctx, files, func(ctx context.Context, f File) error {
		_, err := s.Publish(ctx, f.Path, f.Name)
		return err
	})
}

// FetchAll fetches files concurrently and returns the first error.
func (s *Store) FetchAll(ctx context.Context, files []File) error {
	return s.each(ctx, files, func(ctx context.Context, f File) error {
		_, err := s.Fetch(ctx, f.Name, f.Path)
		return err
	})
}

func (s *Store) each(ctx context.Context, files []File, fn func(context.Context, File) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, f := range files {
		g.Go(func() error {
			return fn(gctx, f)
		})
	}
	return g.Wait()
}

// List returns the published blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.blobs.List(ctx, prefix)
}

// Exists reports whether blob name has been published.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	blob, err := s.blobs.Open(ctx, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, blob.Close()
}
