package vocab

import (
	"bytes"
	"math"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vsearch/internal/binio"
)

func newTestModel() *Model {
	m := New()
	m.AddDocument([]string{"a", "b", "b"})
	m.AddDocument([]string{"a", "c"})
	return m
}

func TestModel_AddDocument(t *testing.T) {
	m := newTestModel()

	assert.Equal(t, 3, m.DimensionCount())
	assert.Equal(t, 2.0, m.DocumentCount())

	a, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, Entry{Dimension: 0, DocumentFrequency: 2}, a)

	b, ok := m.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, Entry{Dimension: 1, DocumentFrequency: 1}, b, "repeated token counts once per document")

	c, ok := m.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, int32(2), c.Dimension)
}

func TestModel_ToVector(t *testing.T) {
	m := newTestModel()

	v := m.ToVector([]string{"a", "b", "b"})
	require.Equal(t, 2, v.Len())
	assert.True(t, v.Has(0), "zero idf weight is still assigned")
	assert.Equal(t, 0.0, v.Get(0))
	assert.InDelta(t, math.Log(2)*2.0/3.0, v.Get(1), 1e-12)
	assert.InDelta(t, 0.4621, v.Get(1), 1e-4)

	t.Run("UnknownTokensCountInDenominator", func(t *testing.T) {
		v := m.ToVector([]string{"b", "zzz", "yyy", "xxx"})
		require.Equal(t, 1, v.Len())
		assert.InDelta(t, math.Log(2)/4, v.Get(1), 1e-12)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, 0, m.ToVector(nil).Len())
	})

	t.Run("DoesNotMutate", func(t *testing.T) {
		m.ToVector([]string{"new", "tokens"})
		assert.Equal(t, 3, m.DimensionCount())
		assert.Equal(t, 2.0, m.DocumentCount())
	})
}

func TestModel_TokenAt(t *testing.T) {
	m := newTestModel()

	for dim, want := range []string{"a", "b", "c"} {
		got, err := m.TokenAt(int32(dim))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := m.TokenAt(3)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.TokenAt(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	var tokens []string
	for _, tok := range m.Tokens() {
		tokens = append(tokens, tok)
	}
	assert.Equal(t, []string{"a", "b", "c"}, tokens)
}

func TestModel_RoundTrip(t *testing.T) {
	m := newTestModel()
	m.AddDocument([]string{"über", "c", "d"})

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	loaded, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.DocumentCount(), loaded.DocumentCount())
	assert.Equal(t, m.DimensionCount(), loaded.DimensionCount())
	for dim, tok := range m.Tokens() {
		got, err := loaded.TokenAt(dim)
		require.NoError(t, err)
		assert.Equal(t, tok, got)

		want, _ := m.Lookup(tok)
		e, ok := loaded.Lookup(tok)
		require.True(t, ok)
		assert.Equal(t, want, e)
	}

	q := []string{"a", "b", "d", "d"}
	assert.True(t, m.ToVector(q).Equal(loaded.ToVector(q)))
}

func TestModel_ReadOutOfOrderEntries(t *testing.T) {
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.Float64(4)
	w.Int32(2)
	w.String("second")
	w.Int32(1)
	w.Float64(1)
	w.String("first")
	w.Int32(0)
	w.Float64(3)
	require.NoError(t, w.Err())

	m, err := Read(&buf)
	require.NoError(t, err)

	tok, err := m.TokenAt(0)
	require.NoError(t, err)
	assert.Equal(t, "first", tok)
	tok, err = m.TokenAt(1)
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	// New tokens continue after the highest restored id.
	m.AddDocument([]string{"third"})
	e, _ := m.Lookup("third")
	assert.Equal(t, int32(2), e.Dimension)
}

func TestRead_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	_, err := newTestModel().WriteTo(&buf)
	require.NoError(t, err)
	full := buf.Bytes()

	t.Run("Truncated", func(t *testing.T) {
		for _, n := range []int{0, 5, 12, len(full) - 1} {
			_, err := Read(bytes.NewReader(full[:n]))
			assert.ErrorIs(t, err, ErrCorrupt, "length %d", n)
		}
	})

	t.Run("DimensionOutOfRange", func(t *testing.T) {
		var b bytes.Buffer
		w := binio.NewWriter(&b)
		w.Float64(1)
		w.Int32(1)
		w.String("a")
		w.Int32(5)
		w.Float64(1)
		_, err := Read(&b)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("DuplicateDimension", func(t *testing.T) {
		var b bytes.Buffer
		w := binio.NewWriter(&b)
		w.Float64(1)
		w.Int32(2)
		w.String("a")
		w.Int32(0)
		w.Float64(1)
		w.String("b")
		w.Int32(0)
		w.Float64(1)
		_, err := Read(&b)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("HugeSizeTruncated", func(t *testing.T) {
		var b bytes.Buffer
		w := binio.NewWriter(&b)
		w.Float64(1)
		w.Int32(math.MaxInt32)
		w.String("a")
		w.Int32(math.MaxInt32 - 1)
		w.Float64(1)
		require.NoError(t, w.Err())

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err := Read(&b)
		runtime.ReadMemStats(&after)

		assert.ErrorIs(t, err, ErrCorrupt)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
	})

	t.Run("NegativeSize", func(t *testing.T) {
		var b bytes.Buffer
		w := binio.NewWriter(&b)
		w.Float64(1)
		w.Int32(-1)
		_, err := Read(&b)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestModel_SaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.dat")
	m := newTestModel()
	require.NoError(t, m.SaveFile(nil, path))

	loaded, err := LoadFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, m.DimensionCount(), loaded.DimensionCount())

	_, err = LoadFile(nil, filepath.Join(t.TempDir(), "missing.dat"))
	assert.Error(t, err)
}
