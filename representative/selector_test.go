package representative

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodedupe/types"
)

func imageFile(path string, size int64, width, height int, hasDate bool) types.FileInfo {
	f := types.FileInfo{
		Path:      path,
		FileStats: types.FileStats{Size: size},
		Metadata:  types.Metadata{Width: width, Height: height},
		Media:     types.MediaInfo{Duration: 0, Frames: []types.FrameInfo{{}}},
	}
	if hasDate {
		now := time.Now()
		f.Metadata.ImageDate = &now
	}
	return f
}

func videoFile(path string, size int64, duration float64) types.FileInfo {
	return types.FileInfo{
		Path:      path,
		FileStats: types.FileStats{Size: size},
		Metadata:  types.Metadata{Width: 1920, Height: 1080},
		Media:     types.MediaInfo{Duration: duration, Frames: []types.FrameInfo{{}}},
	}
}

func TestScoreVideoOutscoresImage(t *testing.T) {
	img := imageFile("a.jpg", 1_000_000, 1920, 1080, true)
	vid := videoFile("a.mov", 1_000_000, 3)
	assert.Greater(t, Score(vid), Score(img))
}

func TestScoreMonotonicInSize(t *testing.T) {
	small := imageFile("a.jpg", 100_000, 100, 100, false)
	big := imageFile("b.jpg", 10_000_000, 100, 100, false)
	assert.Greater(t, Score(big), Score(small))
}

func TestSelectImageBestKeepsOnlyBest(t *testing.T) {
	s := New(nil)
	a := imageFile("a.jpg", 5_000_000, 4000, 3000, true)
	b := imageFile("a_copy.jpg", 1_000_000, 4000, 3000, false)

	set, err := s.Select(context.Background(), []types.FileInfo{b, a})
	require.NoError(t, err)

	assert.Equal(t, "a.jpg", set.BestFile)
	assert.Contains(t, set.Representatives, "a.jpg")
	assert.NotContains(t, set.Representatives, "a_copy.jpg")
	assert.Contains(t, set.Duplicates, "a_copy.jpg")
}

// TestSelectVideoAdmitsPotentialCapture exercises spec.md scenario
// S3: a live-photo still paired with its video. The video outscores
// the still and becomes bestFile, but the still is a potential
// capture and is retained as a co-representative.
func TestSelectVideoAdmitsPotentialCapture(t *testing.T) {
	s := New(nil)
	vid := videoFile("photo.mov", 8_000_000, 3)
	still := imageFile("photo.heic", 3_000_000, 4032, 3024, true)

	set, err := s.Select(context.Background(), []types.FileInfo{still, vid})
	require.NoError(t, err)

	assert.Equal(t, "photo.mov", set.BestFile)
	assert.Contains(t, set.Representatives, "photo.mov")
	assert.Contains(t, set.Representatives, "photo.heic")
	assert.Empty(t, set.Duplicates)
}

func TestSelectVideoRejectsLowerResolutionStill(t *testing.T) {
	s := New(nil)
	vid := videoFile("photo.mov", 8_000_000, 3)
	thumb := imageFile("thumb.jpg", 10_000, 100, 100, false)

	set, err := s.Select(context.Background(), []types.FileInfo{thumb, vid})
	require.NoError(t, err)

	assert.Equal(t, "photo.mov", set.BestFile)
	assert.NotContains(t, set.Representatives, "thumb.jpg")
	assert.Contains(t, set.Duplicates, "thumb.jpg")
}

func TestSelectRecurserRejectionDemotesToDuplicate(t *testing.T) {
	recurse := func(_ context.Context, candidates []types.FileInfo) ([]types.FileInfo, error) {
		// simulate the recursive dedup finding the capture itself has
		// a duplicate and is therefore not unique
		return nil, nil
	}
	s := New(recurse)
	vid := videoFile("photo.mov", 8_000_000, 3)
	still := imageFile("photo.heic", 3_000_000, 4032, 3024, true)

	set, err := s.Select(context.Background(), []types.FileInfo{still, vid})
	require.NoError(t, err)

	assert.Equal(t, "photo.mov", set.BestFile)
	assert.NotContains(t, set.Representatives, "photo.heic")
	assert.Contains(t, set.Duplicates, "photo.heic")
}

func TestSelectEmptyCluster(t *testing.T) {
	s := New(nil)
	set, err := s.Select(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.DuplicateSet{}, set)
}
