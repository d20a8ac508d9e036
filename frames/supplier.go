package frames

import (
	"context"
	"fmt"

	"photodedupe/types"
)

// Supplier is the frame supplier external interface from spec.md §6:
// Frames(path, config) -> MediaInfo, deterministic per (path, config).
type Supplier interface {
	Frames(ctx context.Context, path string, cfg types.SimilarityConfig) (types.MediaInfo, error)
}

// GocvSupplier is the default Supplier, backed by gocv for decode and
// downscale (images) and gocv.VideoCapture sampling (videos).
type GocvSupplier struct {
	registry *LoaderRegistry
}

func NewGocvSupplier() *GocvSupplier {
	return &GocvSupplier{registry: NewLoaderRegistry()}
}

// Frames implements Supplier. Suspension points (per spec.md §5) are
// simulated by honoring ctx cancellation before the (synchronous,
// CGo-bound) decode call, since gocv itself offers no cancellable API;
// a decode already under way runs to completion.
func (s *GocvSupplier) Frames(ctx context.Context, path string, cfg types.SimilarityConfig) (types.MediaInfo, error) {
	if err := ctx.Err(); err != nil {
		return types.MediaInfo{}, err
	}

	if IsVideoFile(path) {
		return s.videoFrames(path, cfg)
	}
	if IsImageFile(path) {
		return s.imageFrame(path, cfg)
	}
	return types.MediaInfo{}, fmt.Errorf("%w: unsupported media type %s", types.ErrUnreadableInput, path)
}

func (s *GocvSupplier) imageFrame(path string, cfg types.SimilarityConfig) (types.MediaInfo, error) {
	mat, err := s.registry.LoadImage(path)
	if err != nil {
		return types.MediaInfo{}, fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)
	}
	defer mat.Close()

	buf := resizeGray(mat, cfg.HashResolution)
	hash, err := HashGrayscaleFrame(buf, cfg.HashResolution)
	if err != nil {
		return types.MediaInfo{}, err
	}
	return types.MediaInfo{
		Duration: 0,
		Frames:   []types.FrameInfo{{Hash: hash, Timestamp: 0}},
	}, nil
}

func (s *GocvSupplier) videoFrames(path string, cfg types.SimilarityConfig) (types.MediaInfo, error) {
	duration, raws, err := sampleVideo(path, cfg)
	if err != nil {
		return types.MediaInfo{}, fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)
	}
	if len(raws) == 0 {
		return types.MediaInfo{Duration: duration}, nil
	}

	frameInfos := make([]types.FrameInfo, 0, len(raws))
	for _, rf := range raws {
		hash, err := HashGrayscaleFrame(rf.gray, cfg.HashResolution)
		if err != nil {
			return types.MediaInfo{}, err
		}
		frameInfos = append(frameInfos, types.FrameInfo{Hash: hash, Timestamp: rf.timestamp})
	}
	return types.MediaInfo{Duration: duration, Frames: frameInfos}, nil
}
