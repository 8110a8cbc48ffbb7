package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postingsOf(weights ...float64) []Posting {
	out := make([]Posting, len(weights))
	for i, w := range weights {
		out[i] = Posting{DocumentID: int32(i + 1), Weight: w}
	}
	return out
}

func docsOf(b Bucket) []int32 {
	var ids []int32
	for _, id := range b.Documents.ToArray() {
		ids = append(ids, int32(id))
	}
	return ids
}

func TestBucketize(t *testing.T) {
	t.Run("UpperEdges", func(t *testing.T) {
		buckets := Bucketize(postingsOf(1, 2, 3, 4, 5), 2)
		require.Len(t, buckets, 2)

		assert.Equal(t, 3.0, buckets[0].Value)
		assert.Equal(t, []int32{1, 2, 3}, docsOf(buckets[0]))
		assert.Equal(t, 5.0, buckets[1].Value)
		assert.Equal(t, []int32{4, 5}, docsOf(buckets[1]))
	})

	t.Run("EqualWeights", func(t *testing.T) {
		buckets := Bucketize(postingsOf(0.5, 0.5, 0.5), 8)
		require.Len(t, buckets, 1)
		assert.Equal(t, 0.5, buckets[0].Value)
		assert.Equal(t, []int32{1, 2, 3}, docsOf(buckets[0]))
	})

	t.Run("SinglePosting", func(t *testing.T) {
		buckets := Bucketize(postingsOf(0.25), 4)
		require.Len(t, buckets, 1)
		assert.Equal(t, 0.25, buckets[0].Value)
	})

	t.Run("EmptyBucketsDropped", func(t *testing.T) {
		buckets := Bucketize(postingsOf(1, 1.1, 5), 4)
		require.Len(t, buckets, 2)
		assert.Equal(t, 2.0, buckets[0].Value)
		assert.Equal(t, []int32{1, 2}, docsOf(buckets[0]))
		assert.Equal(t, 5.0, buckets[1].Value)
		assert.Equal(t, []int32{3}, docsOf(buckets[1]))
	})

	t.Run("NonPositiveDropped", func(t *testing.T) {
		buckets := Bucketize(postingsOf(-1, 3), 2)
		require.Len(t, buckets, 2)
		assert.Equal(t, 1.0, buckets[0].Value)
		assert.Equal(t, 3.0, buckets[1].Value)

		assert.Empty(t, Bucketize(postingsOf(-3, -1), 2))
		assert.Empty(t, Bucketize(postingsOf(0, 0), 2))
	})

	t.Run("EveryPostingPlacedOnce", func(t *testing.T) {
		weights := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
		buckets := Bucketize(postingsOf(weights...), 3)

		seen := map[int32]int{}
		for _, b := range buckets {
			for _, id := range docsOf(b) {
				seen[id]++
				// Every weight lies at or below its bucket's upper edge.
				assert.LessOrEqual(t, weights[id-1], b.Value+1e-12)
			}
		}
		assert.Len(t, seen, len(weights))
		for _, n := range seen {
			assert.Equal(t, 1, n)
		}
	})

	t.Run("Degenerate", func(t *testing.T) {
		assert.Nil(t, Bucketize(nil, 4))
		assert.Nil(t, Bucketize(postingsOf(1), 0))
	})
}

func TestDedupe(t *testing.T) {
	in := []Posting{{1, 0.1}, {2, 0.2}, {1, 0.3}}
	assert.Equal(t, []Posting{{2, 0.2}, {1, 0.3}}, dedupe(in))

	unique := []Posting{{1, 0.1}, {2, 0.2}}
	assert.Equal(t, unique, dedupe(unique))
}
