package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// logExtensions are the file extensions treated as run logs.
var logExtensions = map[string]bool{".log": true, ".txt": true}

// IngestDir parses every run log in dir, one run per file, ordered by
// filename. Files are parsed concurrently but the returned slice is
// always in filename order, so repeated ingestion of the same directory
// is byte-for-byte reproducible downstream.
//
// A missing directory wraps ErrMissingInput. A directory whose logs
// yield zero records in total wraps ErrNoRunData; per-file empty logs
// are tolerated as long as at least one file has data.
func IngestDir(ctx context.Context, dir string) ([]*Run, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("run log directory %s does not exist: %w", dir, ErrMissingInput)
		}
		return nil, fmt.Errorf("run log directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("run log path %s is not a directory: %w", dir, ErrMissingInput)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read run log directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !logExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (no .log/.txt files)", ErrNoRunData, dir)
	}

	runs := make([]*Run, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("open run log %s: %w", name, err)
			}
			defer f.Close()

			run, err := Parse(runIDFromFile(name), f)
			if err != nil && !errors.Is(err, ErrNoRunData) {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range runs {
		total += len(r.Records)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRunData, dir)
	}
	return runs, nil
}

// runIDFromFile derives a stable run identifier from a log filename.
func runIDFromFile(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
