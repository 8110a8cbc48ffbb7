package artifact

import (
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a published blob is encoded.
type Compression uint8

const (
	// CompressionNone stores the file as is.
	CompressionNone Compression = iota
	// CompressionLZ4 stores an LZ4 frame (fast, moderate ratio).
	CompressionLZ4
	// CompressionZSTD stores a Zstandard stream (slower, better ratio).
	CompressionZSTD
)

func (c Compression) String() string {
	switch c {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Ext returns the blob name suffix that selects c.
func (c Compression) Ext() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

// CompressionFor picks the compression from a blob name suffix.
func CompressionFor(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".lz4"):
		return CompressionLZ4
	case strings.HasSuffix(name, ".zst"):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// ParseCompression maps "none", "lz4", or "zstd" to a Compression.
func ParseCompression(s string) (Compression, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, true
	case "lz4":
		return CompressionLZ4, true
	case "zstd", "zst":
		return CompressionZSTD, true
	default:
		return CompressionNone, false
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w. Closing the result flushes the frame but leaves w open.
func compressWriter(w io.Writer, c Compression, level zstd.EncoderLevel) (io.WriteCloser, error) {
	switch c {
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZSTD:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	default:
		return nopWriteCloser{w}, nil
	}
}

func decompressReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}
