// Package vectorstore implements the append-only, file-backed log of
// (document id, sparse vector) records.
//
// # File Format
//
//	[Count int32]
//	Count x ([DocumentID int32] [N int32] N x ([Dimension int32] [Weight float64]))
//
// All values are little-endian. The count header is rewritten after every
// successful append and bounds what readers see; bytes past the last counted
// record are never read.
//
// # Concurrency
//
// A Store admits many concurrent readers or one writer. Add holds the write lock
// for the duration of an append. Records holds the read lock for its entire
// traversal, so an iteration observes a stable prefix of the log. Calling Add
// from inside a Records loop on the same Store deadlocks.
package vectorstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/hupe1980/vsearch/internal/binio"
	"github.com/hupe1980/vsearch/internal/fs"
	"github.com/hupe1980/vsearch/sparse"
)

const headerSize = 4

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("vectorstore: store is closed")
	// ErrCorrupt is returned when the file cannot be decoded.
	ErrCorrupt = errors.New("vectorstore: corrupt store")
)

// Record is one persisted (document id, vector) pair.
type Record struct {
	DocumentID int32
	Vector     *sparse.Vector
}

// Options configures a Store.
type Options struct {
	// FileSystem used to open the backing file. Defaults to fs.Default.
	FileSystem fs.FileSystem
	// Logger receives debug events. Defaults to slog.Default().
	Logger *slog.Logger
	// SyncOnAdd fsyncs the file after every append.
	SyncOnAdd bool
	// ReadBufferSize is the buffer size used by Records. Default 64KiB.
	ReadBufferSize int
}

// Store is an append-only vector log.
type Store struct {
	mu     sync.RWMutex
	f      fs.File
	path   string
	count  int32
	size   int64
	closed bool
	opts   Options
}

// Open opens the store at path, creating it with an empty header if needed.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		FileSystem:     fs.Default,
		Logger:         slog.Default(),
		ReadBufferSize: 64 << 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	f, err := opts.FileSystem.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	s := &Store{f: f, path: path, opts: opts}
	if err := s.init(); err != nil {
		_ = f.Close()
		return nil, err
	}

	opts.Logger.Debug("vector store opened", "path", path, "records", s.count, "bytes", s.size)
	return s, nil
}

func (s *Store) init() error {
	fi, err := s.f.Stat()
	if err != nil {
		return err
	}

	switch size := fi.Size(); {
	case size == 0:
		if err := s.writeCount(0); err != nil {
			return err
		}
		s.size = headerSize
	case size < headerSize:
		return fmt.Errorf("%w: file is %d bytes, shorter than the header", ErrCorrupt, size)
	default:
		r := binio.NewReader(io.NewSectionReader(s.f, 0, headerSize))
		count := r.Int32()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: header: %w", ErrCorrupt, err)
		}
		if count < 0 {
			return fmt.Errorf("%w: negative record count %d", ErrCorrupt, count)
		}
		s.count = count
		s.size = s.committedSize(count, size)
	}
	return nil
}

// committedSize returns the end of the last counted record. Bytes past it
// belong to an append whose count update never landed and are overwritten by
// the next Add. When the counted records cannot be walked the file size is
// kept, and Records reports the corruption.
func (s *Store) committedSize(count int32, size int64) int64 {
	r := binio.NewReader(bufio.NewReaderSize(io.NewSectionReader(s.f, headerSize, size-headerSize), s.opts.ReadBufferSize))
	for range count {
		r.Int32()
		n := r.Int32()
		if r.Err() != nil || n < 0 {
			return size
		}
		for range n {
			r.Int32()
			r.Float64()
		}
	}
	if r.Err() != nil {
		return size
	}
	return headerSize + r.Count()
}

func (s *Store) writeCount(n int32) error {
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.Int32(n)
	_, err := s.f.WriteAt(buf.Bytes(), 0)
	return err
}

// Add appends a record and then advances the count header.
func (s *Store) Add(documentID int32, v *sparse.Vector) error {
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.Int32(documentID)
	w.Int32(int32(v.Len()))
	for dim, weight := range v.All() {
		w.Int32(dim)
		w.Float64(weight)
	}
	if err := w.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	// Writing at the committed end replaces the tail of any failed append.
	if _, err := s.f.WriteAt(buf.Bytes(), s.size); err != nil {
		return fmt.Errorf("vectorstore: append record %d: %w", documentID, err)
	}
	if err := s.writeCount(s.count + 1); err != nil {
		return fmt.Errorf("vectorstore: update count: %w", err)
	}
	if s.opts.SyncOnAdd {
		if err := s.f.Sync(); err != nil {
			return err
		}
	}

	s.count++
	s.size += int64(buf.Len())
	return nil
}

// Records iterates the records present when iteration starts, in write order.
//
// The sequence is lazy and single-pass. A decode error is yielded once and ends
// the iteration. The read lock is held until the loop finishes or breaks.
func (s *Store) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		if s.closed {
			yield(Record{}, ErrClosed)
			return
		}

		count := s.count
		section := io.NewSectionReader(s.f, headerSize, s.size-headerSize)
		r := binio.NewReader(bufio.NewReaderSize(section, s.opts.ReadBufferSize))

		for i := int32(0); i < count; i++ {
			rec, err := readRecord(r)
			if err != nil {
				yield(Record{}, fmt.Errorf("%w: record %d of %d: %w", ErrCorrupt, i, count, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func readRecord(r *binio.Reader) (Record, error) {
	id := r.Int32()
	n := r.Int32()
	if err := r.Err(); err != nil {
		return Record{}, err
	}
	if n < 0 {
		return Record{}, fmt.Errorf("negative dimension count %d", n)
	}

	values := make(map[int32]float64, min(int(n), 1<<12))
	for j := int32(0); j < n; j++ {
		dim := r.Int32()
		w := r.Float64()
		values[dim] = w
	}
	if err := r.Err(); err != nil {
		return Record{}, err
	}
	return Record{DocumentID: id, Vector: sparse.FromMap(values)}, nil
}

// Count returns the number of committed records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.count)
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Close syncs and closes the backing file. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	syncErr := s.f.Sync()
	if err := s.f.Close(); err != nil {
		return err
	}
	return syncErr
}
