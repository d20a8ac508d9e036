package frames

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"photodedupe/types"
)

// sampleVideo implements the video frame-selection policy described
// in spec.md §4.2: extract at targetFps, plus extra frames at scene
// changes exceeding sceneChangeThreshold, capped at maxSceneFrames
// (a sequence shorter than minFrames is kept as-is; see
// clampFrameCount). Scene-change detection reuses the
// teacher's ComputeSSIM trick (imageprocessor.go) — AbsDiff followed
// by MeanStdDev — as a cheap per-frame-pair difference score instead
// of a full SSIM computation.
func sampleVideo(path string, cfg types.SimilarityConfig) (duration float64, rawFrames []rawFrame, err error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("frames: open video %s: %w", path, err)
	}
	defer cap.Close()

	fps := cap.Get(gocv.VideoCaptureFPS)
	frameCount := cap.Get(gocv.VideoCaptureFrameCount)
	if fps <= 0 {
		fps = 30
	}
	duration = frameCount / fps

	targetFps := cfg.TargetFPS
	if targetFps <= 0 {
		targetFps = 1
	}
	stride := int(fps / targetFps)
	if stride < 1 {
		stride = 1
	}

	mat := gocv.NewMat()
	defer mat.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	prevGray := gocv.NewMat()
	defer prevGray.Close()
	havePrev := false

	frameIdx := 0
	for {
		if ok := cap.Read(&mat); !ok || mat.Empty() {
			break
		}
		timestamp := float64(frameIdx) / fps

		sampledOnStride := frameIdx%stride == 0
		sceneChange := false
		if havePrev {
			gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
			diff := gocv.NewMat()
			gocv.AbsDiff(gray, prevGray, &diff)
			meanM, stdM := gocv.NewMat(), gocv.NewMat()
			gocv.MeanStdDev(diff, &meanM, &stdM)
			if !meanM.Empty() {
				normalized := meanM.GetDoubleAt(0, 0) / 255.0
				sceneChange = normalized > cfg.SceneChangeThreshold
			}
			meanM.Close()
			stdM.Close()
			diff.Close()
		} else {
			gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
		}

		if sampledOnStride || sceneChange {
			resized := resizeGray(gray, cfg.HashResolution)
			rawFrames = append(rawFrames, rawFrame{timestamp: timestamp, gray: resized})
		}

		gray.CopyTo(&prevGray)
		havePrev = true
		frameIdx++
	}

	rawFrames = clampFrameCount(rawFrames, cfg.MinFrames, cfg.MaxSceneFrames)
	return duration, rawFrames, nil
}

// rawFrame is an intermediate representation: a timestamp and an
// already-downscaled grayscale buffer, not yet hashed. Kept separate
// from types.FrameInfo so the pure HashGrayscaleFrame boundary is
// crossed exactly once, from the supplier.
type rawFrame struct {
	timestamp float64
	gray      []byte
}

// resizeGray downsamples a gocv grayscale Mat to resolution x
// resolution and returns the flat row-major byte buffer HashGrayscaleFrame
// expects.
func resizeGray(gray gocv.Mat, resolution int) []byte {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(gray, &resized, image.Point{X: resolution, Y: resolution}, 0, 0, gocv.InterpolationArea)

	buf := make([]byte, resolution*resolution)
	idx := 0
	for y := 0; y < resized.Rows(); y++ {
		for x := 0; x < resized.Cols(); x++ {
			buf[idx] = resized.GetUCharAt(y, x)
			idx++
		}
	}
	return buf
}

// clampFrameCount enforces [minFrames, maxSceneFrames]. When there
// are too many samples, frames are dropped evenly (keeping first and
// last); when too few (and more than one was captured), nothing
// further can be synthesized, so the short sequence is returned as-is
// — the file still participates in similarity with fewer data points
// per spec.md §4.2's note that the core treats the supplier's output
// as authoritative.
func clampFrameCount(frames []rawFrame, minFrames, maxFrames int) []rawFrame {
	if maxFrames > 0 && len(frames) > maxFrames {
		if maxFrames == 1 {
			return frames[:1]
		}
		kept := make([]rawFrame, 0, maxFrames)
		last := len(frames) - 1
		for i := 0; i < maxFrames; i++ {
			kept = append(kept, frames[i*last/(maxFrames-1)])
		}
		return kept
	}
	_ = minFrames // undersampling is accepted as-is; see doc comment.
	return frames
}
