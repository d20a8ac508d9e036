// Package metadata implements the metadata supplier external
// interface from spec.md §6: given a file path, recover the capture
// date, GPS coordinates, camera model, and pixel dimensions used by
// the RepresentativeSelector's scoring formula (spec.md §4.7).
// Grounded on tendant-photo-organizer's getExifDate (rwcarlsen/goexif
// exif.Decode + DateTime()) for JPEG/TIFF, generalized with
// exif.Exif's LatLong/Model accessors, and on the teacher's
// cr3_exiftool_loader.go (barasher/go-exiftool shellout) for formats
// goexif cannot parse (RAW, HEIC).
package metadata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"

	"photodedupe/logging"
	"photodedupe/types"
)

// exiftoolDateLayout is exiftool's default DateTimeOriginal/CreateDate
// rendering, "2006:01:02 15:04:05" in Go's reference-time notation.
const exiftoolDateLayout = "2006:01:02 15:04:05"

// parseExiftoolDate tries each of the given field names in order and
// returns the first that parses as a valid exiftool timestamp.
func parseExiftoolDate(fields exiftool.FileMetadata, names ...string) (time.Time, error) {
	for _, name := range names {
		if raw, err := fields.GetString(name); err == nil {
			if t, err := time.Parse(exiftoolDateLayout, raw); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("metadata: no usable date field among %v", names)
}

// Supplier is the metadata supplier external interface.
type Supplier interface {
	Read(path string) (types.Metadata, error)
}

// goexifExtensions lists the formats rwcarlsen/goexif can decode
// directly; anything else falls back to the exiftool shellout.
var goexifExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// CompositeSupplier tries goexif first for the formats it supports,
// then falls back to exiftool for everything else (RAW, HEIC, CR3).
// exiftool is started lazily and reused across Read calls, since
// barasher/go-exiftool shells out to a long-lived exiftool process.
type CompositeSupplier struct {
	et *exiftool.Exiftool
}

// NewCompositeSupplier constructs a CompositeSupplier. The exiftool
// process is not started until first needed.
func NewCompositeSupplier() *CompositeSupplier {
	return &CompositeSupplier{}
}

// Close terminates the lazily-started exiftool process, if any.
func (s *CompositeSupplier) Close() {
	if s.et != nil {
		s.et.Close()
	}
}

func (s *CompositeSupplier) Read(path string) (types.Metadata, error) {
	ext := strings.ToLower(extOf(path))
	if goexifExtensions[ext] {
		md, err := readWithGoexif(path)
		if err == nil {
			return md, nil
		}
		logging.Warnf("metadata: goexif failed for %s, falling back to exiftool: %v", path, err)
	}
	return s.readWithExiftool(path)
}

func extOf(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[i:]
}

// readWithGoexif implements the JPEG/TIFF path, grounded directly on
// tendant-photo-organizer's getExifDate plus goexif's LatLong/Model
// accessors.
func readWithGoexif(path string) (types.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Metadata{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return types.Metadata{}, err
	}

	var md types.Metadata
	if t, err := x.DateTime(); err == nil {
		md.ImageDate = &t
	}
	if lat, lon, err := x.LatLong(); err == nil {
		md.GPSLat = &lat
		md.GPSLon = &lon
	}
	if model, err := x.Get(exif.Model); err == nil {
		if s, err := model.StringVal(); err == nil {
			md.CameraModel = strings.TrimSpace(s)
		}
	}
	if w, err := x.Get(exif.PixelXDimension); err == nil {
		if v, err := w.Int(0); err == nil {
			md.Width = v
		}
	}
	if h, err := x.Get(exif.PixelYDimension); err == nil {
		if v, err := h.Int(0); err == nil {
			md.Height = v
		}
	}
	return md, nil
}

// readWithExiftool implements the RAW/HEIC/CR3 path via a shelled-out
// exiftool process, grounded on the teacher's cr3_exiftool_loader.go
// use of barasher/go-exiftool for formats outside goexif's reach.
func (s *CompositeSupplier) readWithExiftool(path string) (types.Metadata, error) {
	if s.et == nil {
		et, err := exiftool.NewExiftool()
		if err != nil {
			return types.Metadata{}, fmt.Errorf("metadata: start exiftool: %w", err)
		}
		s.et = et
	}

	results := s.et.ExtractMetadata(path)
	if len(results) == 0 {
		return types.Metadata{}, fmt.Errorf("metadata: no exiftool result for %s", path)
	}
	fields := results[0]
	if fields.Err != nil {
		return types.Metadata{}, fmt.Errorf("metadata: exiftool: %w", fields.Err)
	}

	var md types.Metadata
	if t, err := parseExiftoolDate(fields, "DateTimeOriginal", "CreateDate"); err == nil {
		md.ImageDate = &t
	}
	if lat, err := fields.GetFloat("GPSLatitude"); err == nil {
		if lon, err := fields.GetFloat("GPSLongitude"); err == nil {
			md.GPSLat = &lat
			md.GPSLon = &lon
		}
	}
	if model, err := fields.GetString("Model"); err == nil {
		md.CameraModel = strings.TrimSpace(model)
	}
	if w, err := fields.GetInt("ImageWidth"); err == nil {
		md.Width = int(w)
	}
	if h, err := fields.GetInt("ImageHeight"); err == nil {
		md.Height = int(h)
	}
	return md, nil
}
