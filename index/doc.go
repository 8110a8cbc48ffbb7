// Package index builds and queries the bucketed approximate-similarity index.
//
// A Builder collects, for every dimension, the (document id, weight) postings of
// the indexed vectors and the norm of each vector. When written, each
// dimension's observed weight range is split into equal-width buckets whose
// representative value is the bucket's upper edge. A Reader loads that layout
// and answers queries by scoring whole buckets instead of individual documents,
// so the cost of a query depends on the number of scanned buckets rather than
// on the corpus size.
//
// # File Format
//
// All values are little-endian.
//
//	[DimensionCount int32]
//	DimensionCount x (
//	    [Dimension int32] [BucketCount int32]
//	    BucketCount x ([Value float64] [DocumentCount int32] DocumentCount x [DocumentID int32])
//	)
//	[NormCount int32]
//	NormCount x ([DocumentID int32] [Norm float64])
//
// Dimensions are written in ascending id order and only when at least one of
// their buckets survives. Document ids within a bucket and in the norm table are
// ascending.
//
// # Query
//
// For each of the query's highest-weighted dimensions the reader ranks that
// dimension's buckets by |query weight - representative value|, keeps the first
// MaxScanNodes of them and credits every document in a kept bucket with
// representative value x query weight. Accumulated credits are divided by the
// product of the query norm and the document norm. By default buckets are kept
// furthest-first; QueryOptions.NearestBuckets keeps the closest ones instead.
//
// The result approximates cosine similarity. Documents that fall in no kept
// bucket are not returned.
//
// # Concurrency
//
// A Builder is not safe for concurrent use. A Reader is immutable after loading
// and safe for any number of concurrent queries.
package index
