// Package types holds the shared data model for the deduplication
// engine: media fingerprints, file metadata, similarity configuration,
// and the result shape the engine produces. Grounded on the teacher's
// types.ImageInfo / ImageMatch (imagefinder/types) pattern: plain
// structs, no behavior beyond small value-object helpers.
package types

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"photodedupe/bitset"
)

// Sentinel errors for the error kinds named in spec.md §7 that are
// represented as Go errors rather than control flow.
var (
	ErrUnreadableInput = errors.New("photodedupe: unreadable input")
	ErrEmptyFrames     = errors.New("photodedupe: empty frame sequence")
)

// FrameInfo is a single sampled frame: its perceptual hash and the
// timestamp (seconds) at which it was extracted. Still images have
// exactly one FrameInfo at timestamp 0.
type FrameInfo struct {
	Hash      bitset.BitHash
	Timestamp float64
}

// MediaInfo is the ordered sequence of frames sampled from one file,
// plus its duration. Duration is 0 for still images. Frames must be
// strictly ordered by Timestamp and share one hash length.
type MediaInfo struct {
	Duration float64
	Frames   []FrameInfo
}

// IsImage reports whether this media has zero duration, i.e. is a
// still image for similarity purposes (spec.md §4.3).
func (m MediaInfo) IsImage() bool { return m.Duration == 0 }

// Empty reports whether the media carries no frames at all — the
// EmptyFrames error condition from spec.md §7, which never raises but
// instead forces similarity to 0.
func (m MediaInfo) Empty() bool { return len(m.Frames) == 0 }

// FileStats mirrors the external file-stat supplier's output
// (spec.md §6): size, both timestamps, and the content hash used as
// the cache key.
type FileStats struct {
	Size        int64
	ModTime     time.Time
	ChangeTime  time.Time
	ContentHash string
}

// Metadata mirrors the external metadata supplier's output
// (spec.md §6). All fields are optional; zero values mean "absent".
type Metadata struct {
	ImageDate   *time.Time
	GPSLat      *float64
	GPSLon      *float64
	CameraModel string
	Width       int
	Height      int
}

// HasImageDate reports whether a capture date was recovered.
func (m Metadata) HasImageDate() bool { return m.ImageDate != nil }

// HasGPS reports whether both coordinates are present, matching the
// "both GPS coords present" scoring clause in spec.md §4.7.
func (m Metadata) HasGPS() bool { return m.GPSLat != nil && m.GPSLon != nil }

// HasCameraModel reports whether a camera model string was recovered.
func (m Metadata) HasCameraModel() bool { return m.CameraModel != "" }

// HasDimensions reports whether both width and height are known.
func (m Metadata) HasDimensions() bool { return m.Width > 0 && m.Height > 0 }

// PixelCount returns width*height, or 0 if dimensions are unknown.
func (m Metadata) PixelCount() int64 {
	if !m.HasDimensions() {
		return 0
	}
	return int64(m.Width) * int64(m.Height)
}

// FileInfo is the full record the cache layer stores per file: its
// path, stat/content-hash pair, extracted metadata, and media
// fingerprint. FileInfo values are immutable once constructed.
type FileInfo struct {
	Path      string
	FileStats FileStats
	Metadata  Metadata
	Media     MediaInfo
}

// FileError records a per-file failure during the gather stage
// (spec.md §7's errorFiles list).
type FileError struct {
	Path string
	Err  error
}

// SimilarityConfig holds every tunable named in spec.md §3. A stable
// serialization of this record is the cache's config fingerprint.
type SimilarityConfig struct {
	ImageSimilarityThreshold      float64
	ImageVideoSimilarityThreshold float64
	VideoSimilarityThreshold      float64
	StepSize                      float64
	WindowSize                    float64
	HashResolution                int
	SceneChangeThreshold          float64
	TargetFPS                     float64
	MinFrames                     int
	MaxSceneFrames                int
}

// DefaultSimilarityConfig returns reasonable defaults, mirroring the
// teacher CLI's default SSIM threshold of 0.8 (main.go's
// handleSearchCommand) generalized across the three adaptive
// thresholds.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		ImageSimilarityThreshold:      0.9,
		ImageVideoSimilarityThreshold: 0.85,
		VideoSimilarityThreshold:      0.8,
		StepSize:                      1.0,
		WindowSize:                    0, // derived from the shorter media's duration at comparison time
		HashResolution:                16,
		SceneChangeThreshold:          0.3,
		TargetFPS:                     1.0,
		MinFrames:                     3,
		MaxSceneFrames:                30,
	}
}

// MinThreshold returns the smallest of the three similarity
// thresholds — the basis for the DBSCAN epsilon per spec.md §4.3/§4.5.
func (c SimilarityConfig) MinThreshold() float64 {
	m := c.ImageSimilarityThreshold
	if c.ImageVideoSimilarityThreshold < m {
		m = c.ImageVideoSimilarityThreshold
	}
	if c.VideoSimilarityThreshold < m {
		m = c.VideoSimilarityThreshold
	}
	return m
}

// AdaptiveThreshold picks the per-pair acceptance threshold based on
// whether the pair is image/image, image/video, or video/video
// (spec.md §4.3).
func (c SimilarityConfig) AdaptiveThreshold(aIsImage, bIsImage bool) float64 {
	switch {
	case aIsImage && bIsImage:
		return c.ImageSimilarityThreshold
	case aIsImage != bIsImage:
		return c.ImageVideoSimilarityThreshold
	default:
		return c.VideoSimilarityThreshold
	}
}

// Fingerprint returns a canonical, order-independent-of-serializer
// fingerprint of the config: every numeric field is written in a
// fixed order (the float64 fields in declaration order, then the int
// fields in declaration order) into a byte buffer via
// encoding/binary, then MD5'd. This resolves spec.md §9's open question about
// canonical config encoding by never relying on a map or struct-tag
// ordering that a serializer library might reorder between runs.
func (c SimilarityConfig) Fingerprint() string {
	buf := new(bytes.Buffer)
	for _, f := range []float64{
		c.ImageSimilarityThreshold,
		c.ImageVideoSimilarityThreshold,
		c.VideoSimilarityThreshold,
		c.StepSize,
		c.WindowSize,
		c.SceneChangeThreshold,
		c.TargetFPS,
	} {
		_ = binary.Write(buf, binary.BigEndian, f)
	}
	for _, n := range []int64{
		int64(c.HashResolution),
		int64(c.MinFrames),
		int64(c.MaxSceneFrames),
	} {
		_ = binary.Write(buf, binary.BigEndian, n)
	}
	sum := md5.Sum(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// Cluster is a non-empty set of file paths discovered by DBSCAN.
// Singleton clusters (len == 1) are unique files; clusters of size
// >= 2 are duplicate groups headed into RepresentativeSelector.
type Cluster struct {
	Paths []string
}

// Len returns the number of members in the cluster.
func (c Cluster) Len() int { return len(c.Paths) }

// IsSingleton reports whether the cluster has exactly one member.
func (c Cluster) IsSingleton() bool { return len(c.Paths) == 1 }

// DuplicateSet is one entry of a DeduplicationResult: the best file,
// the full representative set (which always contains BestFile), and
// everything else in the cluster.
type DuplicateSet struct {
	BestFile        string
	Representatives map[string]struct{}
	Duplicates      map[string]struct{}
}

// DeduplicationResult is the engine's final output, consumed by the
// transfer stage (spec.md §3/§6).
type DeduplicationResult struct {
	UniqueFiles   map[string]struct{}
	DuplicateSets []DuplicateSet
}

// RunStats aggregates counters for CLI reporting. It carries no
// testable invariants of its own — it is purely informative, the kind
// of thing the teacher's ScanStats (database.GetScanStats) reports.
type RunStats struct {
	FilesCounted      int
	FilesGathered     int
	ErrorFiles        []FileError
	UniqueCount       int
	DuplicateSetCount int
	Duration          time.Duration
}
