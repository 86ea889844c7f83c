package subjectmerge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultSubjectExtensions are the file types picked up from a subject folder.
var DefaultSubjectExtensions = []string{".txt", ".stats", ".csv", ".tsv"}

const defaultWorkers = 4

// LoadFiles reads paths concurrently and returns them in input order, named
// by their base name.
func LoadFiles(ctx context.Context, paths []string, workers int) ([]File, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	files := make([]File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", filepath.Base(p), err)
			}
			files[i] = File{Name: filepath.Base(p), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// LoadDir loads the regular files of dir whose extension is in exts, sorted
// by name. An empty exts accepts every file.
func LoadDir(ctx context.Context, dir string, exts []string, workers int) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !hasExt(entry.Name(), exts) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return LoadFiles(ctx, paths, workers)
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
