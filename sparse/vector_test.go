package sparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector_GetSet(t *testing.T) {
	v := New()
	assert.Equal(t, 0.0, v.Get(4))
	assert.Equal(t, 0, v.Len())

	v.Set(4, 1.5)
	v.Set(2, 0)
	assert.Equal(t, 1.5, v.Get(4))
	assert.Equal(t, 2, v.Len())
	assert.True(t, v.Has(2))
	assert.False(t, v.Has(3))
}

func TestVector_NormCacheInvalidation(t *testing.T) {
	v := FromMap(map[int32]float64{0: 3, 1: 4})
	assert.InDelta(t, 5.0, v.Norm(), 1e-12)

	v.Set(2, 12)
	assert.InDelta(t, 13.0, v.Norm(), 1e-12)

	v.Set(2, 0)
	assert.InDelta(t, 5.0, v.Norm(), 1e-12)
}

func TestVector_Inner(t *testing.T) {
	a := FromMap(map[int32]float64{1: 2, 2: 3, 9: 1})
	b := FromMap(map[int32]float64{2: 4})

	tests := []struct {
		name     string
		x, y     *Vector
		expected float64
	}{
		{"LargeFirst", a, b, 12},
		{"SmallFirst", b, a, 12},
		{"Disjoint", FromMap(map[int32]float64{5: 1}), a, 0},
		{"Empty", New(), a, 0},
		{"Self", a, a, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.x.Inner(tt.y), 1e-12)
		})
	}
}

func TestVector_Similarity(t *testing.T) {
	t.Run("Self", func(t *testing.T) {
		v := FromMap(map[int32]float64{0: 0.3, 5: 1.7, 11: -2})
		assert.InDelta(t, 1.0, v.Similarity(v), 1e-12)
	})

	t.Run("ZeroVector", func(t *testing.T) {
		v := FromMap(map[int32]float64{0: 1})
		zero := New()
		assert.Equal(t, 0.0, v.Similarity(zero))
		assert.Equal(t, 0.0, zero.Similarity(v))
		assert.Equal(t, 0.0, zero.Similarity(zero))
		assert.False(t, math.IsNaN(zero.Similarity(zero)))
	})

	t.Run("ExplicitZeros", func(t *testing.T) {
		v := FromMap(map[int32]float64{0: 0, 1: 0})
		w := FromMap(map[int32]float64{0: 1})
		assert.Equal(t, 0.0, v.Similarity(w))
	})

	t.Run("Orthogonal", func(t *testing.T) {
		v := FromMap(map[int32]float64{0: 1})
		w := FromMap(map[int32]float64{1: 1})
		assert.Equal(t, 0.0, v.Similarity(w))
	})
}

func TestVector_Average(t *testing.T) {
	a := FromMap(map[int32]float64{0: 2, 1: 4})
	b := FromMap(map[int32]float64{1: 2, 3: 6})

	avg := a.Average(b)
	assert.Equal(t, 3, avg.Len())
	assert.Equal(t, 1.0, avg.Get(0))
	assert.Equal(t, 3.0, avg.Get(1))
	assert.Equal(t, 3.0, avg.Get(3))

	// Operands are untouched.
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())
	assert.True(t, avg.Equal(b.Average(a)))
}

func TestVector_Ordering(t *testing.T) {
	v := FromMap(map[int32]float64{9: 0.1, 2: 0.9, 5: 0.5, 7: 0.9})

	assert.Equal(t, []int32{2, 5, 7, 9}, v.Dimensions())

	var dims []int32
	for dim := range v.All() {
		dims = append(dims, dim)
	}
	assert.Equal(t, []int32{2, 5, 7, 9}, dims)

	top := v.TopN(3)
	require.Len(t, top, 3)
	assert.Equal(t, []Entry{{2, 0.9}, {7, 0.9}, {5, 0.5}}, top)

	assert.Len(t, v.TopN(100), 4)
}

func TestVector_CloneEqual(t *testing.T) {
	v := FromEntries([]Entry{{1, 1}, {2, 2}})
	c := v.Clone()
	require.True(t, v.Equal(c))

	c.Set(3, 3)
	assert.False(t, v.Equal(c))
	assert.Equal(t, 2, v.Len())
	assert.False(t, v.Equal(nil))
}
