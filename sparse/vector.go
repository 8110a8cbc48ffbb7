// Package sparse provides a sparse real-valued vector keyed by integer dimension ids.
//
// A Vector stores only the dimensions that were explicitly assigned. Absent dimensions
// read as zero. The Euclidean norm is computed lazily and cached until the next write.
//
//	v := sparse.New()
//	v.Set(3, 0.5)
//	v.Set(7, 1.25)
//	sim := v.Similarity(other)
package sparse

import (
	"cmp"
	"iter"
	"maps"
	"math"
	"slices"
)

// Entry is a single (dimension, weight) pair.
type Entry struct {
	Dimension int32
	Weight    float64
}

// Vector is a sparse vector over int32 dimension ids.
//
// A Vector is not safe for concurrent mutation. Concurrent reads are safe once the
// norm has been computed (or as long as no goroutine calls Norm for the first time
// concurrently with another).
type Vector struct {
	values map[int32]float64

	norm      float64
	normValid bool
}

// New creates an empty vector.
func New() *Vector {
	return &Vector{values: make(map[int32]float64)}
}

// FromMap creates a vector backed by values. The map is owned by the vector afterwards.
func FromMap(values map[int32]float64) *Vector {
	if values == nil {
		values = make(map[int32]float64)
	}
	return &Vector{values: values}
}

// FromEntries creates a vector from entries. Later entries overwrite earlier ones.
func FromEntries(entries []Entry) *Vector {
	v := &Vector{values: make(map[int32]float64, len(entries))}
	for _, e := range entries {
		v.values[e.Dimension] = e.Weight
	}
	return v
}

// Get returns the weight for dim, or 0 if dim is absent.
func (v *Vector) Get(dim int32) float64 {
	return v.values[dim]
}

// Set assigns w to dim and invalidates the cached norm.
func (v *Vector) Set(dim int32, w float64) {
	v.normValid = false
	v.values[dim] = w
}

// Has reports whether dim is stored, including explicit zeros.
func (v *Vector) Has(dim int32) bool {
	_, ok := v.values[dim]
	return ok
}

// Len returns the number of stored entries.
func (v *Vector) Len() int {
	return len(v.values)
}

// Norm returns the Euclidean norm of the stored entries.
func (v *Vector) Norm() float64 {
	if v.normValid {
		return v.norm
	}
	var sum float64
	for _, w := range v.values {
		sum += w * w
	}
	v.norm = math.Sqrt(sum)
	v.normValid = true
	return v.norm
}

// Inner returns the dot product of v and other over their shared dimensions.
func (v *Vector) Inner(other *Vector) float64 {
	small, large := v, other
	if len(large.values) < len(small.values) {
		small, large = large, small
	}
	var r float64
	for dim, w := range small.values {
		if ow, ok := large.values[dim]; ok {
			r += w * ow
		}
	}
	return r
}

// Similarity returns the cosine similarity of v and other.
// It returns 0 when either vector has a zero norm.
func (v *Vector) Similarity(other *Vector) float64 {
	d := v.Norm() * other.Norm()
	if d == 0 {
		return 0
	}
	c := v.Inner(other) / d
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// Average returns the entrywise mean of v and other over the union of their dimensions.
func (v *Vector) Average(other *Vector) *Vector {
	out := &Vector{values: make(map[int32]float64, max(len(v.values), len(other.values)))}
	for dim, w := range v.values {
		out.values[dim] = (w + other.values[dim]) / 2
	}
	for dim, w := range other.values {
		if _, ok := v.values[dim]; !ok {
			out.values[dim] = w / 2
		}
	}
	return out
}

// Dimensions returns the stored dimension ids in ascending order.
func (v *Vector) Dimensions() []int32 {
	return slices.Sorted(maps.Keys(v.values))
}

// All iterates the stored entries in ascending dimension order.
func (v *Vector) All() iter.Seq2[int32, float64] {
	return func(yield func(int32, float64) bool) {
		for _, dim := range v.Dimensions() {
			if !yield(dim, v.values[dim]) {
				return
			}
		}
	}
}

// Entries returns the stored entries in ascending dimension order.
func (v *Vector) Entries() []Entry {
	out := make([]Entry, 0, len(v.values))
	for dim, w := range v.All() {
		out = append(out, Entry{Dimension: dim, Weight: w})
	}
	return out
}

// TopN returns up to n entries ordered by descending weight. Ties are broken by
// ascending dimension id so the result is deterministic.
func (v *Vector) TopN(n int) []Entry {
	entries := v.Entries()
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Clone returns a deep copy of v.
func (v *Vector) Clone() *Vector {
	return &Vector{
		values:    maps.Clone(v.values),
		norm:      v.norm,
		normValid: v.normValid,
	}
}

// Equal reports whether v and other store the same entries.
func (v *Vector) Equal(other *Vector) bool {
	if other == nil {
		return false
	}
	return maps.Equal(v.values, other.values)
}
