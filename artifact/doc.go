// Package artifact publishes build outputs (vocabulary, vector store, index) to a
// blob store and fetches them back.
//
// The blob name selects the encoding: names ending in ".lz4" hold an LZ4 frame,
// names ending in ".zst" a Zstandard stream, and anything else the raw file.
//
//	store := artifact.New(blobstore.NewLocalStore("/srv/artifacts"))
//	if _, err := store.Publish(ctx, "data/index.dat", "enron/index.dat.zst"); err != nil {
//	    return err
//	}
//	if _, err := store.Fetch(ctx, "enron/index.dat.zst", "cache/index.dat"); err != nil {
//	    return err
//	}
package artifact
