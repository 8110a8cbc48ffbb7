package index

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Posting is one document's weight in a dimension.
type Posting struct {
	DocumentID int32
	Weight     float64
}

// Bucket is a contiguous slice of a dimension's weight range.
type Bucket struct {
	// Value is the bucket's upper edge and stands in for every weight inside it.
	Value float64
	// Documents holds the ids of the documents whose weight falls in the bucket.
	Documents *roaring.Bitmap
}

// Bucketize partitions postings into bucketCount equal-width buckets spanning
// [min, max] of their weights.
//
// Bucket i covers (min + width*i, min + width*(i+1)], the first one also
// including min, and is represented by its upper edge. When all weights are
// equal every posting goes to bucket 0. Buckets without documents or with a
// representative value <= 0 are dropped, so the result may be shorter than
// bucketCount or empty.
func Bucketize(postings []Posting, bucketCount int) []Bucket {
	if len(postings) == 0 || bucketCount < 1 {
		return nil
	}

	lo, hi := postings[0].Weight, postings[0].Weight
	for _, p := range postings[1:] {
		lo = min(lo, p.Weight)
		hi = max(hi, p.Weight)
	}

	width := (hi - lo) / float64(bucketCount)
	edge := func(i int) float64 { return lo + width*float64(i+1) }

	sets := make([]*roaring.Bitmap, bucketCount)
	for _, p := range postings {
		i := 0
		if width > 0 {
			i = min(int(math.Floor((p.Weight-lo)/width)), bucketCount-1)
			// Compare against the stored edges so rounding in the division
			// cannot move a weight across a bucket boundary.
			if i > 0 && p.Weight <= edge(i-1) {
				i--
			} else if i < bucketCount-1 && p.Weight > edge(i) {
				i++
			}
		}
		if sets[i] == nil {
			sets[i] = roaring.New()
		}
		sets[i].Add(uint32(p.DocumentID))
	}

	buckets := make([]Bucket, 0, bucketCount)
	for i, set := range sets {
		value := edge(i)
		if set == nil || value <= 0 {
			continue
		}
		set.RunOptimize()
		buckets = append(buckets, Bucket{Value: value, Documents: set})
	}
	return buckets
}

// dedupe keeps the last posting of every document, preserving first-seen order.
func dedupe(postings []Posting) []Posting {
	last := make(map[int32]int, len(postings))
	for i, p := range postings {
		last[p.DocumentID] = i
	}
	if len(last) == len(postings) {
		return postings
	}

	out := make([]Posting, 0, len(last))
	for i, p := range postings {
		if last[p.DocumentID] == i {
			out = append(out, p)
		}
	}
	return out
}
