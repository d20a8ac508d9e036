package frames

import (
	"path/filepath"
	"strings"
)

// Grounded on the teacher's imageprocessor/formats.go extension maps,
// extended with video extensions for this repository's image+video
// scope.

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
	".heic": true, ".heif": true, ".psd": true,
	".raw": true, ".cr2": true, ".cr3": true, ".nef": true,
	".arw": true, ".dng": true, ".raf": true, ".nrw": true,
	".srf": true, ".orf": true, ".rw2": true, ".pef": true,
}

var videoExtensions = map[string]bool{
	".mov": true, ".mp4": true, ".m4v": true, ".avi": true,
	".mkv": true, ".webm": true, ".3gp": true, ".mts": true,
}

// IsImageFile reports whether path's extension is a supported still
// image format.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsVideoFile reports whether path's extension is a supported video
// format.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupportedMedia reports whether the file is an image or a video
// this package can process.
func IsSupportedMedia(path string) bool {
	return IsImageFile(path) || IsVideoFile(path)
}
