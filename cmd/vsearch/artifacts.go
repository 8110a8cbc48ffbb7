package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vsearch"
	"github.com/hupe1980/vsearch/artifact"
	"github.com/hupe1980/vsearch/blobstore"
	"github.com/hupe1980/vsearch/blobstore/minio"
	"github.com/hupe1980/vsearch/blobstore/s3"
	"github.com/hupe1980/vsearch/internal/config"
	"github.com/hupe1980/vsearch/internal/resource"
)

// engineFiles lists the files that make up a built engine directory.
var engineFiles = []string{
	vsearch.VocabularyFile,
	vsearch.VectorsFile,
	vsearch.IndexFile,
	vsearch.CatalogFile,
}

// openBlobStore builds the blob store selected by cfg.
func openBlobStore(ctx context.Context, cfg config.StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case "local":
		return blobstore.NewLocalStore(cfg.Path), nil
	case "s3":
		return s3.New(ctx, cfg.Bucket, func(o *s3.Options) {
			o.Prefix = cfg.Prefix
			o.Region = cfg.Region
			o.Endpoint = cfg.Endpoint
		})
	case "minio":
		store, err := minio.New(cfg.Endpoint, cfg.Bucket, func(o *minio.Options) {
			o.AccessKey = cfg.AccessKey
			o.SecretKey = cfg.SecretKey
			o.Secure = cfg.Secure
			o.Region = cfg.Region
			o.Prefix = cfg.Prefix
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// artifactFiles maps the engine files in dir to blob names under prefix.
func artifactFiles(dir, prefix string, c artifact.Compression) []artifact.File {
	files := make([]artifact.File, 0, len(engineFiles))
	for _, name := range engineFiles {
		blobName := name + c.Ext()
		if prefix != "" {
			blobName = prefix + "/" + blobName
		}
		files = append(files, artifact.File{
			Name: blobName,
			Path: filepath.Join(dir, name),
		})
	}
	return files
}

func (a *app) openArtifactStore(ctx context.Context) (*artifact.Store, artifact.Compression, error) {
	c, ok := artifact.ParseCompression(a.cfg.Store.Compression)
	if !ok {
		return nil, 0, fmt.Errorf("unknown compression %q", a.cfg.Store.Compression)
	}

	blobs, err := openBlobStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, 0, err
	}

	rc := resource.NewController(resource.Config{
		MaxWorkers:         a.cfg.Resources.MaxWorkers,
		IOLimitBytesPerSec: a.cfg.Resources.IOLimitMBPerSec << 20,
	})

	return artifact.New(blobs, func(o *artifact.Options) {
		o.Logger = a.logger.WithComponent("artifact").Logger
		o.ResourceController = rc
		o.Concurrency = rc.Workers()
	}), c, nil
}

func newPublishCmd(a *app) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the engine files to the configured blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, c, err := a.openArtifactStore(ctx)
			if err != nil {
				return err
			}

			start := time.Now()
			files := artifactFiles(a.cfg.DataDir, prefix, c)
			if err := store.PublishAll(ctx, files); err != nil {
				return err
			}

			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", f.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files (%s, %s)\n", len(files), c, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Blob name prefix, e.g. a corpus version")
	return cmd
}

func newFetchCmd(a *app) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the engine files from the configured blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, c, err := a.openArtifactStore(ctx)
			if err != nil {
				return err
			}

			start := time.Now()
			files := artifactFiles(a.cfg.DataDir, prefix, c)
			if err := store.FetchAll(ctx, files); err != nil {
				return err
			}

			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "fetched %s -> %s\n", f.Name, f.Path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files (%s, %s)\n", len(files), c, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Blob name prefix, e.g. a corpus version")
	return cmd
}
