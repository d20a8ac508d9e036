// Package frames implements the FrameHasher (spec.md §4.2) — a pure
// function turning a decoded grayscale buffer into a BitHash — and
// the default frame supplier built on gocv, which decodes images and
// videos and applies the sampling policy spec.md §4.2 describes.
package frames

import (
	"fmt"

	"photodedupe/bitset"
)

// HashGrayscaleFrame computes a BitHash of resolution*resolution bits
// from an R*R grayscale buffer (row-major, one byte per pixel): bit i
// is 1 when sample i is at or above the mean brightness, 0 otherwise.
// This is a pure function with no I/O, matching spec.md §4.2 exactly.
func HashGrayscaleFrame(buf []byte, resolution int) (bitset.BitHash, error) {
	want := resolution * resolution
	if len(buf) != want {
		return bitset.BitHash{}, fmt.Errorf("frames: expected %d samples for resolution %d, got %d", want, resolution, len(buf))
	}
	if want == 0 {
		return bitset.BitHash{}, fmt.Errorf("frames: resolution must be positive")
	}

	var sum int
	for _, b := range buf {
		sum += int(b)
	}
	mean := float64(sum) / float64(want)

	bits := make([]bool, want)
	for i, b := range buf {
		bits[i] = float64(b) >= mean
	}
	return bitset.New(bits), nil
}
