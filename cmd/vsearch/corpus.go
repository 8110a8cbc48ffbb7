package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// textFile is one document found by walkCorpus.
type textFile struct {
	Path string
	Text string
}

// walkCorpus calls fn for every regular file under root, in lexical order.
// Hidden files and directories are skipped. When exts is non-empty only files
// with one of those extensions are read.
func walkCorpus(ctx context.Context, root string, exts []string, fn func(textFile) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !matchesExt(path, exts) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return fn(textFile{Path: path, Text: string(data)})
	})
}

func matchesExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, "."+strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}
