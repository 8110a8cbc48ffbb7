package testutil

import (
	"cmp"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/vsearch/sparse"
)

// SearchResult is a ranked document.
type SearchResult struct {
	DocumentID int32
	Score      float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// SparseVector returns a vector with up to nnz distinct dimensions drawn from
// [0, dimensions) and weights in (0, 1].
func (r *RNG) SparseVector(dimensions, nnz int) *sparse.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sparseLocked(dimensions, nnz)
}

func (r *RNG) sparseLocked(dimensions, nnz int) *sparse.Vector {
	v := sparse.New()
	for range nnz {
		v.Set(int32(r.rand.Intn(dimensions)), 1-r.rand.Float64())
	}
	return v
}

// SparseVectors generates num random sparse vectors.
func (r *RNG) SparseVectors(num, dimensions, nnz int) []*sparse.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*sparse.Vector, num)
	for i := range out {
		out[i] = r.sparseLocked(dimensions, nnz)
	}
	return out
}

// Document returns a space-separated string of words picked from vocabulary with a
// Zipf-like skew towards the front of the list.
func (r *RNG) Document(vocabulary []string, words int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	for i := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		// Minimum of two uniform draws favours low indexes.
		idx := min(r.rand.Intn(len(vocabulary)), r.rand.Intn(len(vocabulary)))
		sb.WriteString(vocabulary[idx])
	}
	return sb.String()
}

// ExactTopK ranks every document by cosine similarity to query and returns the
// best k with positive similarity. Ties are broken by ascending document id.
func ExactTopK(query *sparse.Vector, docs map[int32]*sparse.Vector, k int) []SearchResult {
	results := make([]SearchResult, 0, len(docs))
	for id, v := range docs {
		if s := query.Similarity(v); s > 0 {
			results = append(results, SearchResult{DocumentID: id, Score: s})
		}
	}

	slices.SortFunc(results, func(a, b SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.DocumentID, b.DocumentID)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall computes recall@k by comparing approximate results against ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[int32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].DocumentID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate[:k] {
		if _, ok := truthSet[r.DocumentID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
