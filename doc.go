// Package vsearch provides an embedded document search engine over TF-IDF
// weighted sparse vectors.
//
// Documents are turned into sparse vectors by a vocabulary model, appended to a
// vector store, and indexed offline into a bucketed index that answers
// approximate nearest-neighbor queries without a full linear scan. The engine is
// aimed at bulk corpora such as mail archives, where indexing is a batch job and
// queries must return in milliseconds.
//
// # Quick Start
//
//	ctx := context.Background()
//	e, err := vsearch.Open(ctx, "./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	// 1. Vocabulary pass.
//	for _, doc := range corpus {
//	    _ = e.AddToVocabulary(ctx, doc.Text)
//	}
//	_ = e.SaveVocabulary(ctx)
//
//	// 2. Ingest pass.
//	for i, doc := range corpus {
//	    _ = e.Ingest(ctx, int32(i), doc.Path, doc.Text)
//	}
//
//	// 3. Build.
//	_, _ = e.BuildIndex(ctx)
//
//	// 4. Query.
//	results, _ := e.Search(ctx, "natural gas prices", vsearch.WithTopN(10))
//	for _, r := range results {
//	    fmt.Println(r.DocumentID, r.Score, r.Source, r.Title)
//	}
//
// # Layout
//
// An engine directory holds four files:
//
//   - vocabulary.dat: the token vocabulary with document frequencies
//   - vectors.dat: the append-only vector store
//   - index.dat: the bucketed index written by BuildIndex
//   - catalog.db: a SQLite catalog mapping document ids to sources
//
// The artifact package publishes these files to S3, MinIO, or a local blob
// store and fetches them back on query hosts.
//
// # Approximation
//
// Each dimension's weight range is split into equal-width buckets and every
// document is represented by its bucket's upper edge. Scores are therefore
// approximations of cosine similarity. The query options bound how many
// dimensions and buckets are scanned per query.
package vsearch
