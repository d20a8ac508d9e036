// Package dedupe orchestrates the data flow from spec.md §2: cluster
// the incoming FileInfos with the batched parallel DBSCAN engine,
// then run the RepresentativeSelector over each multi-member cluster
// to produce a DeduplicationResult. It supplies the selector's
// Recurser callback, closing the "representative recursion" loop
// spec.md §9 describes without representative importing dedupe.
package dedupe

import (
	"context"

	"photodedupe/cluster"
	"photodedupe/representative"
	"photodedupe/similarity"
	"photodedupe/types"
)

// Engine is the top-level deduplication orchestrator.
type Engine struct {
	kernel  similarity.Kernel
	cluster cluster.Engine
}

// New constructs an Engine. batchSize and overlapSize are forwarded
// to cluster.New; see its doc comment for their defaults.
func New(cfg types.SimilarityConfig, batchSize, overlapSize int) *Engine {
	kernel := similarity.New(cfg)
	return &Engine{
		kernel:  kernel,
		cluster: cluster.New(kernel, batchSize, overlapSize),
	}
}

// Deduplicate implements spec.md §2's full data flow over an
// already-gathered set of FileInfos (produced by the cache layer from
// raw paths).
func (e *Engine) Deduplicate(ctx context.Context, files []types.FileInfo) (types.DeduplicationResult, error) {
	result := types.DeduplicationResult{UniqueFiles: map[string]struct{}{}}
	if len(files) == 0 {
		return result, nil
	}

	byPath := make(map[string]types.FileInfo, len(files))
	items := make([]cluster.Item, len(files))
	for i, f := range files {
		byPath[f.Path] = f
		items[i] = cluster.Item{Path: f.Path, Media: f.Media}
	}

	clusters, err := e.cluster.Cluster(ctx, items)
	if err != nil {
		return types.DeduplicationResult{}, err
	}

	selector := representative.New(e.recurse)
	for _, c := range clusters {
		if c.IsSingleton() {
			result.UniqueFiles[c.Paths[0]] = struct{}{}
			continue
		}

		clusterFiles := make([]types.FileInfo, len(c.Paths))
		for i, p := range c.Paths {
			clusterFiles[i] = byPath[p]
		}

		set, err := selector.Select(ctx, clusterFiles)
		if err != nil {
			return types.DeduplicationResult{}, err
		}
		result.DuplicateSets = append(result.DuplicateSets, set)
	}
	return result, nil
}

// recurse is the Recurser the selector invokes on a cluster's
// "potential captures": it runs the same Deduplicate pipeline on the
// strict subset and reduces each outcome back down to one
// representative per sub-cluster (spec.md §4.7's "resulting unique
// subset"). Recursion is bounded because candidates is always a
// proper subset of its caller's cluster.
func (e *Engine) recurse(ctx context.Context, candidates []types.FileInfo) ([]types.FileInfo, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	sub, err := e.Deduplicate(ctx, candidates)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]types.FileInfo, len(candidates))
	for _, f := range candidates {
		byPath[f.Path] = f
	}

	out := make([]types.FileInfo, 0, len(candidates))
	for p := range sub.UniqueFiles {
		out = append(out, byPath[p])
	}
	for _, set := range sub.DuplicateSets {
		out = append(out, byPath[set.BestFile])
	}
	return out, nil
}
