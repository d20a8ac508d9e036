// Package vptree implements the approximate metric-space index from
// spec.md §4.4: a vantage-point tree built over an arbitrary
// (possibly context-cancellable) distance function, used by the
// cluster package to find each point's eps-neighborhood without a
// full O(n^2) pairwise scan.
//
// The index is "approximate" in the sense spec.md §4.4 describes:
// it assumes the supplied Metric behaves enough like a metric for
// vantage-point pruning to be effective, but it does not verify the
// triangle inequality and can, in principle, miss a neighbor if the
// metric badly violates it. Grounded on the teacher's
// imagefinder/database nearest-neighbor query shape (query by
// distance threshold against a precomputed index) generalized to a
// tree structure, since the teacher itself does a linear scan.
package vptree

import (
	"context"
	"sort"
)

// Metric computes the distance between two items. It must return a
// non-negative value and may be cancelled via ctx, since spec.md §5
// puts frame decode and similarity computation on the same
// cancellation path as everything else in the engine.
type Metric[T any] func(ctx context.Context, a, b T) (float64, error)

// Tree is a vantage-point tree over items of type T.
type Tree[T any] struct {
	metric Metric[T]
	root   *node[T]
	size   int
}

type node[T any] struct {
	item      T
	threshold float64
	inside    *node[T]
	outside   *node[T]
}

// Neighbor is a search result: an indexed item paired with its
// distance from the query point.
type Neighbor[T any] struct {
	Item     T
	Distance float64
}

// Build constructs a Tree over items using metric. Items are copied
// into the tree; the caller's slice is not retained.
func Build[T any](ctx context.Context, items []T, metric Metric[T]) (*Tree[T], error) {
	t := &Tree[T]{metric: metric, size: len(items)}
	cp := make([]T, len(items))
	copy(cp, items)
	root, err := t.build(ctx, cp)
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

func (t *Tree[T]) build(ctx context.Context, items []T) (*node[T], error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Vantage point: the last item, so repeated Build calls over a
	// stable input order are deterministic (helps test reproducibility).
	vp := items[len(items)-1]
	rest := items[:len(items)-1]
	if len(rest) == 0 {
		return &node[T]{item: vp}, nil
	}

	dists := make([]float64, len(rest))
	for i, it := range rest {
		d, err := t.metric(ctx, vp, it)
		if err != nil {
			return nil, err
		}
		dists[i] = d
	}

	median := medianOf(dists)

	var insideItems, outsideItems []T
	for i, it := range rest {
		if dists[i] <= median {
			insideItems = append(insideItems, it)
		} else {
			outsideItems = append(outsideItems, it)
		}
	}

	n := &node[T]{item: vp, threshold: median}
	var err error
	n.inside, err = t.build(ctx, insideItems)
	if err != nil {
		return nil, err
	}
	n.outside, err = t.build(ctx, outsideItems)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func medianOf(vals []float64) float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	if len(cp) == 0 {
		return 0
	}
	return (cp[mid-1] + cp[mid]) / 2
}

// Size returns the number of items indexed.
func (t *Tree[T]) Size() int {
	return t.size
}

// Search returns every indexed item within radius of query, per
// spec.md §4.4's "all points within eps" contract used by DBSCAN's
// region query. Results are unordered.
func (t *Tree[T]) Search(ctx context.Context, query T, radius float64) ([]Neighbor[T], error) {
	var out []Neighbor[T]
	err := t.search(ctx, t.root, query, radius, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree[T]) search(ctx context.Context, n *node[T], query T, radius float64, out *[]Neighbor[T]) error {
	if n == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d, err := t.metric(ctx, n.item, query)
	if err != nil {
		return err
	}
	if d <= radius {
		*out = append(*out, Neighbor[T]{Item: n.item, Distance: d})
	}

	if n.inside == nil && n.outside == nil {
		return nil
	}

	// Standard vp-tree pruning: descend inside when the query could
	// fall within [0, threshold+radius] of the vantage point, and
	// outside when it could fall within [threshold-radius, +inf).
	// Both windows are searched when they overlap, which is always
	// safe (just less pruning) if the metric is only approximately
	// triangle-inequality-respecting.
	if d-radius <= n.threshold {
		if err := t.search(ctx, n.inside, query, radius, out); err != nil {
			return err
		}
	}
	if d+radius >= n.threshold {
		if err := t.search(ctx, n.outside, query, radius, out); err != nil {
			return err
		}
	}
	return nil
}

// BruteForceSearch is the reference O(n) implementation used by tests
// to check Search's results against an exhaustive scan; it is also a
// reasonable fallback for item counts too small to bother indexing.
func BruteForceSearch[T any](ctx context.Context, items []T, metric Metric[T], query T, radius float64) ([]Neighbor[T], error) {
	var out []Neighbor[T]
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := metric(ctx, it, query)
		if err != nil {
			return nil, err
		}
		if d <= radius {
			out = append(out, Neighbor[T]{Item: it, Distance: d})
		}
	}
	return out, nil
}
