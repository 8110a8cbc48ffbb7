package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/vsearch/internal/binio"
	"github.com/hupe1980/vsearch/internal/fs"
)

// WriteTo serializes the model:
//
//	[DocumentCount float64] [Size int32]
//	Size x ([Token 7-bit-length-prefixed UTF-8] [Dimension int32] [DocumentFrequency float64])
//
// Entries are written in dimension order. All values are little-endian.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	enc := binio.NewWriter(bw)

	enc.Float64(m.documentCount)
	enc.Int32(int32(len(m.tokens)))
	for dim, tok := range m.tokens {
		e := m.entries[tok]
		enc.String(tok)
		enc.Int32(int32(dim))
		enc.Float64(e.DocumentFrequency)
	}
	if err := enc.Err(); err != nil {
		return enc.Count(), err
	}
	return enc.Count(), bw.Flush()
}

// Read decodes a model written by WriteTo.
func Read(r io.Reader) (*Model, error) {
	dec := binio.NewReader(bufio.NewReader(r))

	documentCount := dec.Float64()
	size := dec.Int32()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative vocabulary size %d", ErrCorrupt, size)
	}

	// Allocation follows the entries actually decoded, never the claimed size.
	entries := make(map[string]Entry, min(int(size), 1<<16))
	byDim := make(map[int32]string, min(int(size), 1<<16))

	for i := int32(0); i < size; i++ {
		tok := dec.String()
		dim := dec.Int32()
		df := dec.Float64()
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		if dim < 0 || dim >= size {
			return nil, fmt.Errorf("%w: entry %d: dimension %d out of range", ErrCorrupt, i, dim)
		}
		if _, dup := entries[tok]; dup {
			return nil, fmt.Errorf("%w: duplicate token %q", ErrCorrupt, tok)
		}
		if _, dup := byDim[dim]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension %d", ErrCorrupt, dim)
		}
		byDim[dim] = tok
		entries[tok] = Entry{Dimension: dim, DocumentFrequency: df}
	}

	// size distinct ids in [0, size) form a permutation, so every slot is filled.
	tokens := make([]string, size)
	for dim, tok := range byDim {
		tokens[dim] = tok
	}

	m := &Model{
		entries:       entries,
		tokens:        tokens,
		documentCount: documentCount,
	}
	return m, nil
}

// SaveFile writes the model to path atomically.
func (m *Model) SaveFile(fsys fs.FileSystem, path string) error {
	return fs.WriteFileAtomic(fsys, path, 0o644, func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
}

// LoadFile reads a model from path.
func LoadFile(fsys fs.FileSystem, path string) (*Model, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
