// Package testutil provides testing utilities for vsearch.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random sparse vectors and text corpora,
// computing exact cosine rankings, and measuring recall.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	v := rng.SparseVector(1000, 20)    // up to 20 entries in [0, 1000)
//	text := rng.Document(words, 50)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.ExactTopK(query, docs, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
