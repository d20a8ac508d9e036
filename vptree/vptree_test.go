package vptree

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// point is a simple 2-D Euclidean point used to exercise Tree without
// pulling in the bitset/similarity packages.
type point struct {
	x, y float64
}

func euclidean(_ context.Context, a, b point) (float64, error) {
	dx, dy := a.x-b.x, a.y-b.y
	return math.Sqrt(dx*dx + dy*dy), nil
}

func randomPoints(n int, rng *rand.Rand) []point {
	pts := make([]point, n)
	for i := range pts {
		pts[i] = point{x: rng.Float64() * 100, y: rng.Float64() * 100}
	}
	return pts
}

func sortNeighbors(ns []Neighbor[point]) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Item.x != ns[j].Item.x {
			return ns[i].Item.x < ns[j].Item.x
		}
		return ns[i].Item.y < ns[j].Item.y
	})
}

func TestSearchMatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		n := rng.Intn(256) + 1
		pts := randomPoints(n, rng)

		tree, err := Build(ctx, pts, euclidean)
		require.NoError(t, err)
		require.Equal(t, n, tree.Size())

		for q := 0; q < 5; q++ {
			query := pts[rng.Intn(len(pts))]
			radius := rng.Float64() * 50

			got, err := tree.Search(ctx, query, radius)
			require.NoError(t, err)
			want, err := BruteForceSearch(ctx, pts, euclidean, query, radius)
			require.NoError(t, err)

			sortNeighbors(got)
			sortNeighbors(want)
			assert.Equal(t, want, got)
		}
	}
}

func TestSearchEmptyTree(t *testing.T) {
	ctx := context.Background()
	tree, err := Build(ctx, []point{}, euclidean)
	require.NoError(t, err)

	got, err := tree.Search(ctx, point{1, 1}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchSinglePoint(t *testing.T) {
	ctx := context.Background()
	tree, err := Build(ctx, []point{{0, 0}}, euclidean)
	require.NoError(t, err)

	got, err := tree.Search(ctx, point{0, 0}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, point{0, 0}, got[0].Item)
}

func TestSearchZeroRadiusFindsExactMatchesOnly(t *testing.T) {
	ctx := context.Background()
	pts := []point{{0, 0}, {1, 0}, {0, 1}, {5, 5}}
	tree, err := Build(ctx, pts, euclidean)
	require.NoError(t, err)

	got, err := tree.Search(ctx, point{0, 0}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, point{0, 0}, got[0].Item)
}

func TestBuildRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, []point{{0, 0}, {1, 1}, {2, 2}}, euclidean)
	assert.Error(t, err)
}
