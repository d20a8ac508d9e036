// Package representative implements the RepresentativeSelector from
// spec.md §4.7: scores every file in a cluster, picks the best, and
// for video bests admits still "potential captures" back through the
// dedup engine so live-photo-style pairs keep both the video and its
// paired still as representatives. Grounded on the teacher's
// database.GetBestImageInfo scoring heuristic (size/metadata-driven
// tie-breaking) generalized to the full formula spec.md §4.7 names.
package representative

import (
	"context"
	"math"
	"sort"

	"photodedupe/types"
)

// Score implements spec.md §4.7's scoring formula exactly.
func Score(f types.FileInfo) float64 {
	score := 0.0
	if f.Media.Duration > 0 {
		score += 10000
	}
	score += 100 * math.Log(f.Media.Duration+1)
	if f.Metadata.HasImageDate() {
		score += 2000
	}
	if f.Metadata.HasGPS() {
		score += 300
	}
	if f.Metadata.HasCameraModel() {
		score += 200
	}
	if f.Metadata.HasDimensions() {
		score += math.Sqrt(float64(f.Metadata.Width) * float64(f.Metadata.Height))
	}
	if f.FileStats.Size > 0 {
		score += 5 * math.Log(float64(f.FileStats.Size))
	}
	return score
}

// Recurser re-enters the dedup engine on a subset of files — the
// "potential captures" from spec.md §4.7 — and returns the subset
// that recursion judges unique. It is injected rather than imported
// directly so this package never has to import the dedupe package,
// which itself imports representative for selection (spec.md §9's
// "Representative recursion" note, resolved by callback injection to
// avoid an import cycle).
type Recurser func(ctx context.Context, candidates []types.FileInfo) ([]types.FileInfo, error)

// Selector picks representatives and duplicates for each cluster.
type Selector struct {
	Recurse Recurser
}

// New constructs a Selector. recurse may be nil, in which case
// potential captures are always treated as unique (used by tests and
// by any caller that does not need the recursive refinement).
func New(recurse Recurser) Selector {
	if recurse == nil {
		recurse = func(_ context.Context, candidates []types.FileInfo) ([]types.FileInfo, error) {
			return candidates, nil
		}
	}
	return Selector{Recurse: recurse}
}

// Select implements spec.md §4.7's selection policy for one cluster
// of files (already resolved from a types.Cluster's paths). Ties in
// score are broken by the order files appear in the slice, matching
// "ties broken by insertion order".
func (s Selector) Select(ctx context.Context, files []types.FileInfo) (types.DuplicateSet, error) {
	if len(files) == 0 {
		return types.DuplicateSet{}, nil
	}

	ordered := make([]types.FileInfo, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Score(ordered[i]) > Score(ordered[j])
	})

	best := ordered[0]
	representatives := map[string]struct{}{best.Path: {}}
	duplicates := map[string]struct{}{}

	if best.Media.IsImage() {
		for _, f := range ordered[1:] {
			duplicates[f.Path] = struct{}{}
		}
		return types.DuplicateSet{
			BestFile:        best.Path,
			Representatives: representatives,
			Duplicates:      duplicates,
		}, nil
	}

	var potentialCaptures []types.FileInfo
	var rest []types.FileInfo
	for _, f := range ordered[1:] {
		if isPotentialCapture(f, best) {
			potentialCaptures = append(potentialCaptures, f)
		} else {
			rest = append(rest, f)
		}
	}

	if len(potentialCaptures) > 0 {
		unique, err := s.Recurse(ctx, potentialCaptures)
		if err != nil {
			return types.DuplicateSet{}, err
		}
		uniquePaths := make(map[string]struct{}, len(unique))
		for _, f := range unique {
			uniquePaths[f.Path] = struct{}{}
		}
		for _, f := range potentialCaptures {
			if _, ok := uniquePaths[f.Path]; ok {
				representatives[f.Path] = struct{}{}
			} else {
				duplicates[f.Path] = struct{}{}
			}
		}
	}
	for _, f := range rest {
		duplicates[f.Path] = struct{}{}
	}

	return types.DuplicateSet{
		BestFile:        best.Path,
		Representatives: representatives,
		Duplicates:      duplicates,
	}, nil
}

// isPotentialCapture implements spec.md §4.7's definition: a still
// image at least as high-resolution as best, whose imageDate is
// present whenever best's is present.
func isPotentialCapture(candidate, best types.FileInfo) bool {
	if !candidate.Media.IsImage() {
		return false
	}
	if candidate.Metadata.PixelCount() < best.Metadata.PixelCount() {
		return false
	}
	return !best.Metadata.HasImageDate() || candidate.Metadata.HasImageDate()
}
