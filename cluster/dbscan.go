// Package cluster implements the batched, parallel DBSCAN engine from
// spec.md §4.5: minPts=2, eps derived from the similarity
// configuration's loosest threshold, batches run concurrently via
// errgroup, and clusters that straddle a batch boundary are merged by
// overlapping consecutive batches and union-joining any cluster that
// shares a member across batches. Grounded on the teacher's worker-
// pool pattern (imagefinder/scanner's goroutine + channel fan-out)
// generalized to golang.org/x/sync/errgroup, and on
// dsync/dgit-style union-find merge logic for the cross-batch join.
package cluster

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"photodedupe/similarity"
	"photodedupe/types"
	"photodedupe/vptree"
)

// minPts is fixed at 2 per spec.md §4.5: a point is a core point once
// it has at least one neighbor besides itself.
const minPts = 2

// Item is one file entered into the clustering engine: its path and
// the media fingerprint the SimilarityKernel compares.
type Item struct {
	Path  string
	Media types.MediaInfo
}

// Engine runs batched parallel DBSCAN over a set of Items.
type Engine struct {
	Kernel      similarity.Kernel
	BatchSize   int
	OverlapSize int
}

// New constructs an Engine. batchSize and overlapSize fall back to
// spec.md §4.5's suggested defaults (2048, 128) when non-positive.
func New(kernel similarity.Kernel, batchSize, overlapSize int) Engine {
	if batchSize <= 0 {
		batchSize = 2048
	}
	if overlapSize <= 0 {
		overlapSize = 128
	}
	return Engine{Kernel: kernel, BatchSize: batchSize, OverlapSize: overlapSize}
}

// Cluster partitions items into overlapping batches, DBSCANs each
// batch concurrently, then merges any clusters that share a member
// across batch boundaries. The result holds every multi-member
// cluster plus a singleton Cluster for every item DBSCAN judged noise
// (spec.md §4.5's "noise points are each their own unique file").
func (e Engine) Cluster(ctx context.Context, items []Item) ([]types.Cluster, error) {
	if len(items) == 0 {
		return nil, nil
	}

	batches := e.makeBatches(items)

	localClusters := make([][]types.Cluster, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			clusters, err := e.clusterBatch(gctx, batch)
			if err != nil {
				return err
			}
			localClusters[i] = clusters
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeClusters(items, localClusters), nil
}

// makeBatches splits items into consecutive, overlapping slices so
// that a pair split across a batch boundary still co-occurs in at
// least one batch and can be clustered there.
func (e Engine) makeBatches(items []Item) [][]Item {
	if len(items) <= e.BatchSize {
		return [][]Item{items}
	}

	var batches [][]Item
	step := e.BatchSize - e.OverlapSize
	if step <= 0 {
		step = e.BatchSize
	}
	for start := 0; start < len(items); start += step {
		end := start + e.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
		if end == len(items) {
			break
		}
	}
	return batches
}

// clusterBatch runs classic DBSCAN over one batch using a vptree
// region query widened to the config's loosest threshold, with each
// candidate neighbor re-checked against the adaptive per-pair
// threshold (spec.md §9 Open Question 2's resolution).
func (e Engine) clusterBatch(ctx context.Context, batch []Item) ([]types.Cluster, error) {
	metric := func(ctx context.Context, a, b Item) (float64, error) {
		return 1 - e.Kernel.Similarity(a.Media, b.Media), nil
	}

	tree, err := vptree.Build(ctx, batch, metric)
	if err != nil {
		return nil, err
	}

	eps := 1 - e.Kernel.Config.MinThreshold()

	labels := make([]int, len(batch)) // 0 = unvisited, -1 = noise, >0 = cluster id
	pathIndex := make(map[string]int, len(batch))
	for i, it := range batch {
		pathIndex[it.Path] = i
	}

	regionQuery := func(it Item) ([]int, error) {
		neighbors, err := tree.Search(ctx, it, eps)
		if err != nil {
			return nil, err
		}
		var out []int
		for _, n := range neighbors {
			if e.Kernel.Similarity(it.Media, n.Item.Media) >= e.Kernel.AdaptiveThreshold(it.Media, n.Item.Media) {
				out = append(out, pathIndex[n.Item.Path])
			}
		}
		return out, nil
	}

	clusterID := 0
	for i, it := range batch {
		if labels[i] != 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		neighbors, err := regionQuery(it)
		if err != nil {
			return nil, err
		}
		if len(neighbors) < minPts {
			labels[i] = -1
			continue
		}

		clusterID++
		labels[i] = clusterID
		queue := append([]int{}, neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == -1 {
				labels[j] = clusterID
			}
			if labels[j] != 0 {
				continue
			}
			labels[j] = clusterID

			jNeighbors, err := regionQuery(batch[j])
			if err != nil {
				return nil, err
			}
			if len(jNeighbors) >= minPts {
				queue = append(queue, jNeighbors...)
			}
		}
	}

	byCluster := make(map[int][]string)
	for i, it := range batch {
		if labels[i] > 0 {
			byCluster[labels[i]] = append(byCluster[labels[i]], it.Path)
		}
	}

	var clusters []types.Cluster
	for _, paths := range byCluster {
		sort.Strings(paths)
		clusters = append(clusters, types.Cluster{Paths: paths})
	}
	return clusters, nil
}

// mergeClusters union-finds every local cluster's members so that
// clusters discovered independently in two overlapping batches, which
// happen to share a member, are joined into one cluster. Items that
// never land in any local cluster become singleton clusters.
func mergeClusters(items []Item, localClusters [][]types.Cluster) []types.Cluster {
	uf := newUnionFind()
	for _, it := range items {
		uf.add(it.Path)
	}

	for _, clusters := range localClusters {
		for _, c := range clusters {
			for i := 1; i < len(c.Paths); i++ {
				uf.union(c.Paths[0], c.Paths[i])
			}
		}
	}

	groups := make(map[string][]string)
	for _, it := range items {
		root := uf.find(it.Path)
		groups[root] = append(groups[root], it.Path)
	}

	result := make([]types.Cluster, 0, len(groups))
	for _, paths := range groups {
		sort.Strings(paths)
		result = append(result, types.Cluster{Paths: paths})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Paths[0] < result[j].Paths[0]
	})
	return result
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(x string) {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
	}
}

func (u *unionFind) find(x string) string {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
