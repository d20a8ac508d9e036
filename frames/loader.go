package frames

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"photodedupe/logging"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/webp"
)

// ImageLoader loads a still image as a grayscale gocv.Mat. Grounded
// on the teacher's imageprocessor.ImageLoader interface and its
// Default/Raw/Heic implementations; trimmed to the one registry this
// repository needs (the teacher carried two parallel, overlapping
// loader hierarchies — see DESIGN.md).
type ImageLoader interface {
	CanLoad(path string) bool
	LoadImage(path string) (gocv.Mat, error)
}

// DefaultImageLoader handles formats gocv decodes natively.
type DefaultImageLoader struct{}

func (l *DefaultImageLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp":
		return fileExists(path)
	default:
		return false
	}
}

func (l *DefaultImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if !img.Empty() {
		return img, nil
	}

	// Some OpenCV builds ship without WEBP support; golang.org/x/image's
	// decoder covers the formats gocv's build doesn't, via image.Decode
	// (registered for "webp" by the blank import above).
	if strings.ToLower(filepath.Ext(path)) == ".webp" {
		gray, err := decodeWithStdlib(path)
		if err == nil && !gray.Empty() {
			return gray, nil
		}
	}
	return img, fmt.Errorf("frames: failed to load image: %s", path)
}

// TiffImageLoader handles TIFF via gocv directly (gocv links libtiff
// through OpenCV's image codecs).
type TiffImageLoader struct{}

func (l *TiffImageLoader) CanLoad(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return (ext == ".tif" || ext == ".tiff") && fileExists(path)
}

func (l *TiffImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if img.Empty() {
		return img, fmt.Errorf("frames: failed to load tiff: %s", path)
	}
	return img, nil
}

// RawImageLoader handles RAW camera formats by converting to a
// temporary TIFF/JPEG via external tools, then loading the result.
// Grounded on the teacher's RawImageLoader.tryDcraw/tryLibRaw/tryCR3.
type RawImageLoader struct {
	TempDir string
}

func NewRawImageLoader() *RawImageLoader {
	return &RawImageLoader{TempDir: os.TempDir()}
}

var rawExtensions = map[string]bool{
	".dng": true, ".raf": true, ".arw": true, ".nef": true,
	".cr2": true, ".cr3": true, ".nrw": true, ".srf": true,
	".orf": true, ".rw2": true, ".pef": true, ".raw": true,
}

func (l *RawImageLoader) CanLoad(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return rawExtensions[ext] && fileExists(path)
}

func (l *RawImageLoader) LoadImage(path string) (gocv.Mat, error) {
	tempFilename := filepath.Join(l.TempDir, fmt.Sprintf("photodedupe_raw_%d.tiff", time.Now().UnixNano()))
	defer os.Remove(tempFilename)

	if strings.ToLower(filepath.Ext(path)) == ".cr3" {
		if ok, img := l.tryExiftoolPreview(path, tempFilename); ok {
			return img, nil
		}
	}
	if ok, img := l.tryDcraw(path, tempFilename); ok {
		return img, nil
	}
	if ok, img := l.tryRawtherapee(path, tempFilename); ok {
		return img, nil
	}

	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if img.Empty() {
		return img, fmt.Errorf("frames: failed to load RAW image %s: all conversion methods failed", path)
	}
	return img, nil
}

func (l *RawImageLoader) tryDcraw(path, tempFilename string) (bool, gocv.Mat) {
	if _, err := exec.LookPath("dcraw"); err != nil {
		return false, gocv.NewMat()
	}
	cmd := exec.Command("dcraw", "-T", "-c", "-w", "-q", "3", path)
	outFile, err := os.Create(tempFilename)
	if err != nil {
		logging.Warnf("frames: temp file for dcraw: %v", err)
		return false, gocv.NewMat()
	}
	defer outFile.Close()
	cmd.Stdout = outFile
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logging.Warnf("frames: dcraw conversion failed: %v (%s)", err, stderr.String())
		return false, gocv.NewMat()
	}
	img := gocv.IMRead(tempFilename, gocv.IMReadGrayScale)
	if img.Empty() {
		return false, gocv.NewMat()
	}
	return true, img
}

func (l *RawImageLoader) tryRawtherapee(path, tempFilename string) (bool, gocv.Mat) {
	if _, err := exec.LookPath("rawtherapee-cli"); err != nil {
		return false, gocv.NewMat()
	}
	cmd := exec.Command("rawtherapee-cli", "-o", tempFilename, "-c", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logging.Warnf("frames: rawtherapee conversion failed: %v (%s)", err, stderr.String())
		return false, gocv.NewMat()
	}
	img := gocv.IMRead(tempFilename, gocv.IMReadGrayScale)
	if img.Empty() {
		return false, gocv.NewMat()
	}
	return true, img
}

func (l *RawImageLoader) tryExiftoolPreview(path, tempFilename string) (bool, gocv.Mat) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		return false, gocv.NewMat()
	}
	for _, tag := range []string{"LargePreviewImage", "PreviewImage", "OtherImage", "ThumbnailImage", "FullPreviewImage"} {
		cmd := exec.Command("exiftool", "-b", "-"+tag, "-w", tempFilename, path)
		if err := cmd.Run(); err != nil {
			continue
		}
		if info, statErr := os.Stat(tempFilename); statErr == nil && info.Size() > 0 {
			img := gocv.IMRead(tempFilename, gocv.IMReadGrayScale)
			if !img.Empty() {
				return true, img
			}
		}
	}
	return false, gocv.NewMat()
}

// HeicImageLoader handles HEIC/HEIF stills. libheif support in the
// installed OpenCV build is assumed; when absent, LoadImage fails
// with UnreadableInput-worthy error and the caller excludes the file.
type HeicImageLoader struct{}

func (l *HeicImageLoader) CanLoad(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return (ext == ".heic" || ext == ".heif") && fileExists(path)
}

func (l *HeicImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if img.Empty() {
		return img, fmt.Errorf("frames: failed to load HEIC image: %s", path)
	}
	return img, nil
}

// LoaderRegistry dispatches to the first loader that claims a path.
type LoaderRegistry struct {
	loaders []ImageLoader
}

func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{
		loaders: []ImageLoader{
			&DefaultImageLoader{},
			&TiffImageLoader{},
			NewRawImageLoader(),
			&HeicImageLoader{},
		},
	}
}

func (r *LoaderRegistry) CanLoad(path string) bool {
	for _, l := range r.loaders {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

func (r *LoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	for _, l := range r.loaders {
		if l.CanLoad(path) {
			return l.LoadImage(path)
		}
	}
	return gocv.NewMat(), fmt.Errorf("frames: no loader registered for %s", path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// decodeWithStdlib is DefaultImageLoader's fallback for WEBP files
// when the installed gocv build lacks WEBP support: image.Decode,
// with the webp codec registered by this file's blank import of
// golang.org/x/image/webp. It converts the decoded image to a
// grayscale gocv.Mat.
func decodeWithStdlib(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	defer mat.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			mat.SetUCharAt3(y, x, 0, uint8(b>>8))
			mat.SetUCharAt3(y, x, 1, uint8(g>>8))
			mat.SetUCharAt3(y, x, 2, uint8(r>>8))
		}
	}
	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	return gray, nil
}
