package scanner

import (
	"io/fs"
	"path/filepath"

	"photodedupe/frames"
)

// WalkMediaFiles walks every root and returns the paths of all
// supported image/video files found (frames.IsSupportedMedia), in
// the order filepath.WalkDir visits them. Extension classification
// now lives in the frames package (SPEC_FULL.md §4.8); this replaces
// the teacher's duplicated IsImageFile/IsRawFormat/IsTiffFormat set in
// the original scanner/fileutils.go.
func WalkMediaFiles(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if frames.IsSupportedMedia(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
