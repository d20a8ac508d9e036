// Package cache implements the CacheLayer from spec.md §4.6: a
// content-hash-keyed memoization of FileInfo, with per-key
// single-flight so concurrent lookups for the same file compute once,
// and config-fingerprint invalidation so a changed SimilarityConfig
// forces a recompute. Grounded on the teacher's database package for
// the sqlite storage shape (two logical tables per job) and on
// golang.org/x/sync/singleflight, which the pack's errgroup sibling
// package is the idiomatic Go tool for "do this once per key."
package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"photodedupe/database"
	"photodedupe/types"
)

// Compute produces a FileInfo for path. It is the caller-supplied
// work the cache memoizes — typically the filestat + metadata +
// frame-supplier pipeline from SPEC_FULL.md §2's data flow.
type Compute func(ctx context.Context, path string) (types.FileInfo, error)

// Layer is the CacheLayer: memoized process(path) -> FileInfo, keyed
// by content hash, invalidated when the similarity config changes.
type Layer struct {
	store   *database.Store
	group   singleflight.Group
	config  types.SimilarityConfig
	compute Compute
}

// New opens (creating if needed) the cache's backing store for job
// and wires it to compute, the work function invoked on a cache miss
// or a config-fingerprint mismatch.
func New(dbPath, job string, cfg types.SimilarityConfig, compute Compute) (*Layer, error) {
	store, err := database.OpenStore(dbPath, job)
	if err != nil {
		return nil, fmt.Errorf("cache: open store: %w", err)
	}
	return &Layer{store: store, config: cfg, compute: compute}, nil
}

// Close releases the backing store's resources.
func (l *Layer) Close() error {
	return l.store.Close()
}

// Process implements spec.md §4.6's contract. The cache key is
// contentHash, passed in by the caller since computing it is the
// file-stat supplier's job, not the cache's (SPEC_FULL.md §4.10).
//
// Single-flight is keyed on contentHash: concurrent Process calls for
// the same key share one in-flight compute, and every caller
// observes the same result and error.
func (l *Layer) Process(ctx context.Context, path, contentHash string) (types.FileInfo, error) {
	v, err, _ := l.group.Do(contentHash, func() (interface{}, error) {
		return l.processOnce(ctx, path, contentHash)
	})
	if err != nil {
		return types.FileInfo{}, err
	}
	return v.(types.FileInfo), nil
}

func (l *Layer) processOnce(ctx context.Context, path, contentHash string) (types.FileInfo, error) {
	storedConfig, hasConfig, err := l.store.GetConfig(contentHash)
	if err != nil {
		return types.FileInfo{}, fmt.Errorf("cache: read config: %w", err)
	}

	if hasConfig && storedConfig == l.config.Fingerprint() {
		cached, ok, err := l.store.GetData(contentHash)
		if err != nil {
			return types.FileInfo{}, fmt.Errorf("cache: read data: %w", err)
		}
		if ok {
			return cached, nil
		}
	}

	info, err := l.compute(ctx, path)
	if err != nil {
		return types.FileInfo{}, err
	}

	if err := l.store.PutData(contentHash, info); err != nil {
		return types.FileInfo{}, fmt.Errorf("cache: write data: %w", err)
	}
	if err := l.store.PutConfig(contentHash, l.config.Fingerprint()); err != nil {
		return types.FileInfo{}, fmt.Errorf("cache: write config: %w", err)
	}
	return info, nil
}

// SetConfig updates the config this layer validates cache entries
// against for subsequent Process calls, matching spec.md §8 invariant
// 8: the next Process after a config mutation must recompute.
func (l *Layer) SetConfig(cfg types.SimilarityConfig) {
	l.config = cfg
}
