package dedupe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodedupe/bitset"
	"photodedupe/types"
)

func img(path string, size int64, w, h int, bits ...bool) types.FileInfo {
	return types.FileInfo{
		Path:      path,
		FileStats: types.FileStats{Size: size},
		Metadata:  types.Metadata{Width: w, Height: h},
		Media: types.MediaInfo{
			Duration: 0,
			Frames:   []types.FrameInfo{{Hash: bitset.New(bits), Timestamp: 0}},
		},
	}
}

func vid(path string, size int64, duration float64, w, h int, bits ...bool) types.FileInfo {
	return types.FileInfo{
		Path:      path,
		FileStats: types.FileStats{Size: size},
		Metadata:  types.Metadata{Width: w, Height: h},
		Media: types.MediaInfo{
			Duration: duration,
			Frames:   []types.FrameInfo{{Hash: bitset.New(bits), Timestamp: 0}},
		},
	}
}

// TestDeduplicateExactDuplicates exercises scenario S1: two bit-
// identical images produce one duplicate set, the larger file wins
// ties.
func TestDeduplicateExactDuplicates(t *testing.T) {
	e := New(types.DefaultSimilarityConfig(), 0, 0)
	a := img("A.jpg", 5_000_000, 100, 100, true, false, true, true, false, true, false, true)
	copy_ := img("A_copy.jpg", 2_000_000, 100, 100, true, false, true, true, false, true, false, true)

	result, err := e.Deduplicate(context.Background(), []types.FileInfo{a, copy_})
	require.NoError(t, err)

	require.Len(t, result.DuplicateSets, 1)
	assert.Equal(t, "A.jpg", result.DuplicateSets[0].BestFile)
	assert.Empty(t, result.UniqueFiles)
}

// TestDeduplicateDistinctMedia exercises scenario S4: two unrelated
// photos with a large Hamming distance both end up unique.
func TestDeduplicateDistinctMedia(t *testing.T) {
	e := New(types.DefaultSimilarityConfig(), 0, 0)
	a := img("A.jpg", 1_000_000, 100, 100, true, true, true, true, false, false, false, false)
	b := img("B.jpg", 1_000_000, 100, 100, false, false, false, false, true, true, true, true)

	result, err := e.Deduplicate(context.Background(), []types.FileInfo{a, b})
	require.NoError(t, err)

	assert.Empty(t, result.DuplicateSets)
	assert.Contains(t, result.UniqueFiles, "A.jpg")
	assert.Contains(t, result.UniqueFiles, "B.jpg")
}

// TestDeduplicateLivePhotoPair exercises scenario S3: a still and its
// companion video, similar enough to cluster, with the video winning
// as bestFile and the still kept as a co-representative.
func TestDeduplicateLivePhotoPair(t *testing.T) {
	e := New(types.DefaultSimilarityConfig(), 0, 0)
	bits := []bool{true, false, true, true, false, true, false, true}
	still := img("photo.heic", 3_000_000, 4032, 3024, bits...)
	video := vid("photo.mov", 8_000_000, 3, 1920, 1080, bits...)

	result, err := e.Deduplicate(context.Background(), []types.FileInfo{still, video})
	require.NoError(t, err)

	require.Len(t, result.DuplicateSets, 1)
	set := result.DuplicateSets[0]
	assert.Equal(t, "photo.mov", set.BestFile)
	assert.Contains(t, set.Representatives, "photo.mov")
	assert.Contains(t, set.Representatives, "photo.heic")
}

// TestDeduplicateRecursionSeparatesDistinctCaptures checks that when
// a video's cluster contains two *different* potential-capture
// stills (not duplicates of each other), both survive the recursive
// refinement as co-representatives.
func TestDeduplicateRecursionSeparatesDistinctCaptures(t *testing.T) {
	e := New(types.DefaultSimilarityConfig(), 0, 0)
	videoBits := []bool{true, false, true, true, false, true, false, true}
	video := vid("clip.mov", 9_000_000, 3, 1920, 1080, videoBits...)

	// Both stills are similar enough to the video's single frame to
	// cluster with it, but distinct enough from each other that the
	// recursive mini-dedup should not merge them.
	captureA := img("momentA.heic", 3_000_000, 4032, 3024, true, false, true, true, false, true, false, true)
	captureB := img("momentB.heic", 3_200_000, 4032, 3024, true, false, true, true, false, false, false, true)

	result, err := e.Deduplicate(context.Background(), []types.FileInfo{video, captureA, captureB})
	require.NoError(t, err)
	require.Len(t, result.DuplicateSets, 1)

	set := result.DuplicateSets[0]
	assert.Equal(t, "clip.mov", set.BestFile)
	assert.Contains(t, set.Representatives, "clip.mov")
	assert.Contains(t, set.Representatives, "momentA.heic")
	assert.Contains(t, set.Representatives, "momentB.heic")
}

func TestDeduplicateEmptyInput(t *testing.T) {
	e := New(types.DefaultSimilarityConfig(), 0, 0)
	result, err := e.Deduplicate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.UniqueFiles)
	assert.Empty(t, result.DuplicateSets)
}
