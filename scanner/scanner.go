// Package scanner implements the gather stage of the organize
// pipeline: walk the source roots for supported media, stat and
// content-hash each file, and run it through the cache layer to
// produce a types.FileInfo, accumulating errors rather than aborting
// the run. Grounded on the teacher's scanner.go worker-pool shape
// (bounded goroutines feeding a results channel into a
// ProgressTracker), generalized from a single folder + sqlite image
// table to the variadic multi-root gather spec.md §6 describes.
package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"photodedupe/cache"
	"photodedupe/filestat"
	"photodedupe/types"
)

// Gather walks opts.Roots, content-hashes and processes every
// supported media file through cacheLayer, and returns every
// successfully produced FileInfo alongside run statistics. Errors are
// collected per-file (spec.md §7's errorFiles) rather than aborting
// the whole run; only a walk failure or ctx cancellation is fatal.
func Gather(ctx context.Context, cacheLayer *cache.Layer, statSupplier filestat.Supplier, opts ScanOptions) ([]types.FileInfo, types.RunStats, error) {
	paths, err := WalkMediaFiles(opts.Roots)
	if err != nil {
		return nil, types.RunStats{}, fmt.Errorf("scanner: walk: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	tracker := NewProgressTracker(len(paths))
	defer tracker.Stop()

	var mu sync.Mutex
	var files []types.FileInfo
	var errorFiles []types.FileError

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			stats, err := statSupplier.Stat(path)
			if err != nil {
				tracker.Observe(GatherResult{Path: path, Success: false, Error: err})
				mu.Lock()
				errorFiles = append(errorFiles, types.FileError{Path: path, Err: err})
				mu.Unlock()
				return nil
			}

			info, err := cacheLayer.Process(gctx, path, stats.ContentHash)
			if err != nil {
				tracker.Observe(GatherResult{Path: path, Success: false, Error: err})
				mu.Lock()
				errorFiles = append(errorFiles, types.FileError{Path: path, Err: err})
				mu.Unlock()
				return nil
			}

			tracker.Observe(GatherResult{Path: path, Success: true})
			mu.Lock()
			files = append(files, info)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, types.RunStats{}, err
	}

	stats := types.RunStats{
		FilesCounted:  len(paths),
		FilesGathered: len(files),
		ErrorFiles:    errorFiles,
	}
	return files, stats, nil
}
