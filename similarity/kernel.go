// Package similarity implements the SimilarityKernel from spec.md
// §4.3: image-image, image-video, and video-video similarity, the
// latter via a sliding-window DTW sequence comparison. Grounded on
// the teacher's ComputeSSIM / CalculateHammingDistance
// (imagefinder/imageprocessor/imageprocessor.go) for the idea of a
// bounded [0,1] similarity score derived from a distance metric, and
// on RecoveryAshes-JsFIndcrack's SimilarityMatrix / lepinkainen's
// goimagehash-distance video comparison for the image/video framing.
package similarity

import (
	"math"

	"photodedupe/bitset"
	"photodedupe/types"
)

// Kernel computes similarity scores between MediaInfo values using a
// SimilarityConfig for its thresholds and DTW step size.
type Kernel struct {
	Config types.SimilarityConfig
}

func New(cfg types.SimilarityConfig) Kernel {
	return Kernel{Config: cfg}
}

// Similarity implements the top-level dispatch from spec.md §4.3.
func (k Kernel) Similarity(m1, m2 types.MediaInfo) float64 {
	switch {
	case m1.IsImage() && m2.IsImage():
		return clamp(k.imageSim(firstFrame(m1), firstFrame(m2)))
	case m1.IsImage() != m2.IsImage():
		img, vid := m1, m2
		if m2.IsImage() {
			img, vid = m2, m1
		}
		return clamp(k.imageVideoSim(img, vid))
	default:
		return clamp(k.videoSim(m1, m2))
	}
}

func firstFrame(m types.MediaInfo) types.FrameInfo {
	if len(m.Frames) == 0 {
		return types.FrameInfo{}
	}
	return m.Frames[0]
}

// imageSim implements spec.md §4.3's imageSim(a,b) = 1 - hamming/bitlen.
// Returns 0 when either hash is absent (bitlen 0), matching the
// EmptyFrames contract from spec.md §7.
func (k Kernel) imageSim(a, b types.FrameInfo) float64 {
	if a.Hash.Len() == 0 || b.Hash.Len() == 0 || a.Hash.Len() != b.Hash.Len() {
		return 0
	}
	d, err := bitset.Distance(a.Hash, b.Hash)
	if err != nil {
		return 0
	}
	return 1 - float64(d)/float64(a.Hash.Len())
}

// imageVideoSim implements spec.md §4.3: scan the video's frames,
// track the max imageSim against the still, and stop early once the
// configured threshold is met.
func (k Kernel) imageVideoSim(img, vid types.MediaInfo) float64 {
	if img.Empty() || vid.Empty() {
		return 0
	}
	imgFrame := firstFrame(img)
	best := 0.0
	for _, vf := range vid.Frames {
		s := k.imageSim(imgFrame, vf)
		if s > best {
			best = s
		}
		if best >= k.Config.ImageVideoSimilarityThreshold {
			break
		}
	}
	return best
}

// videoSim implements spec.md §4.3's sliding-window DTW comparison:
// the shorter media is the query window of length W; it is slid
// across the longer media's timeline in stepSize increments, and the
// DTW similarity of the frames falling in [start, start+W] against
// the shorter media's full frame list is maximized.
func (k Kernel) videoSim(a, b types.MediaInfo) float64 {
	if a.Empty() || b.Empty() {
		return 0
	}
	shorter, longer := a, b
	if b.Duration < a.Duration {
		shorter, longer = b, a
	}
	window := shorter.Duration

	step := k.Config.StepSize
	if step <= 0 {
		step = 1
	}

	best := 0.0
	for start := 0.0; start <= longer.Duration; start += step {
		windowFrames := framesInRange(longer.Frames, start, start+window)
		if len(windowFrames) == 0 {
			continue
		}
		s := k.dtwSimilarity(shorter.Frames, windowFrames)
		if s > best {
			best = s
		}
		if best >= k.Config.VideoSimilarityThreshold {
			break
		}
		if longer.Duration == 0 {
			break
		}
	}
	return best
}

func framesInRange(frames []types.FrameInfo, start, end float64) []types.FrameInfo {
	var out []types.FrameInfo
	for _, f := range frames {
		if f.Timestamp >= start && f.Timestamp <= end {
			out = append(out, f)
		}
	}
	return out
}

// dtwSimilarity implements spec.md §4.3's rolling-row DTW: a cost row
// of length n+1 initialized to +Inf except position 0 (=0); for each
// i in s1, position 0 is parked at +Inf while the previous row's
// position-0 value is remembered as "prev" for the diagonal step.
// Final similarity is 1 - row[n]/max(m,n).
func (k Kernel) dtwSimilarity(s1, s2 []types.FrameInfo) float64 {
	m, n := len(s1), len(s2)
	if m == 0 || n == 0 {
		return 0
	}

	row := make([]float64, n+1)
	for j := 1; j <= n; j++ {
		row[j] = math.Inf(1)
	}
	row[0] = 0

	for i := 1; i <= m; i++ {
		saved := row[0]
		row[0] = math.Inf(1)
		prev := saved
		for j := 1; j <= n; j++ {
			cost := 1 - k.imageSim(s1[i-1], s2[j-1])
			candidate := cost + minOf3(prev, row[j], row[j-1])
			prev = row[j]
			row[j] = candidate
		}
	}

	maxLen := m
	if n > maxLen {
		maxLen = n
	}
	return 1 - row[n]/float64(maxLen)
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// clamp enforces spec.md §7's MetricViolation policy: similarity
// scores that fall outside [0,1] due to NaN or distance quirks are
// clamped rather than propagated.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AdaptiveThreshold exposes SimilarityConfig.AdaptiveThreshold for
// callers (vptree/cluster) that only hold a Kernel.
func (k Kernel) AdaptiveThreshold(a, b types.MediaInfo) float64 {
	return k.Config.AdaptiveThreshold(a.IsImage(), b.IsImage())
}
