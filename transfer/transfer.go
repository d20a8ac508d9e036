// Package transfer implements the final placement stage named in
// spec.md §6: render a destination path from a configurable
// template, then move (copying and removing the source when a rename
// fails, e.g. cross-device; moving nothing on dry-run) every unique
// file into the destination tree and every duplicate into the
// duplicates sink. Grounded on tendant-photo-organizer's
// getDestination/organizeFiles (template-driven destination path,
// os.Rename with a copyFile fallback for cross-device moves, numeric
// suffix on collision).
package transfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"photodedupe/types"
)

// Placement is one file's resolved destination, ready for Apply.
type Placement struct {
	Source      string
	Destination string
}

// RenderPath expands template's placeholders against file, mirroring
// the teacher's getDestination but generalized to the placeholder set
// SPEC_FULL.md §6 names: {year} {month} {day} {filename} {ext}
// {hasGPS} {camera} {mediaType} {rand}.
func RenderPath(template string, file types.FileInfo) string {
	date := captureDate(file)
	ext := strings.TrimPrefix(filepath.Ext(file.Path), ".")
	base := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))

	mediaType := "image"
	if !file.Media.IsImage() {
		mediaType = "video"
	}

	replacements := map[string]string{
		"{year}":      date.Format("2006"),
		"{month}":     date.Format("01"),
		"{day}":       date.Format("02"),
		"{filename}":  base,
		"{ext}":       ext,
		"{hasGPS}":    strconv.FormatBool(file.Metadata.HasGPS()),
		"{camera}":    sanitizeComponent(file.Metadata.CameraModel),
		"{mediaType}": mediaType,
		"{rand}":      uuid.New().String()[:8],
	}

	out := template
	for k, v := range replacements {
		out = strings.ReplaceAll(out, k, v)
	}
	if ext != "" && !strings.HasSuffix(out, "."+ext) {
		out += "." + ext
	}
	return filepath.FromSlash(out)
}

func captureDate(file types.FileInfo) time.Time {
	if file.Metadata.HasImageDate() {
		return *file.Metadata.ImageDate
	}
	return file.FileStats.ModTime
}

func sanitizeComponent(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// Plan is the transfer stage's settings: a destination root, the
// duplicates sink, an errors directory (carried but not used by
// Apply), the path template, and the dry-run switch.
type Plan struct {
	Destination   string
	DuplicatesDir string
	ErrorsDir     string
	PathTemplate  string
	DryRun        bool
}

// Apply moves every unique file into destination/<template path> and
// every duplicate into duplicatesDir, preserving the original
// basename there since duplicates don't need the template's
// organization. Files that failed during gather are not passed in and
// nothing is written to ErrorsDir.
func (p Plan) Apply(files map[string]types.FileInfo, result types.DeduplicationResult) ([]Placement, error) {
	var placements []Placement

	for path := range result.UniqueFiles {
		file, ok := files[path]
		if !ok {
			continue
		}
		dest := filepath.Join(p.Destination, RenderPath(p.PathTemplate, file))
		placement, err := p.place(path, dest)
		if err != nil {
			return placements, err
		}
		placements = append(placements, placement)
	}

	for _, set := range result.DuplicateSets {
		for path := range set.Representatives {
			file, ok := files[path]
			if !ok {
				continue
			}
			dest := filepath.Join(p.Destination, RenderPath(p.PathTemplate, file))
			placement, err := p.place(path, dest)
			if err != nil {
				return placements, err
			}
			placements = append(placements, placement)
		}
		for path := range set.Duplicates {
			dest := filepath.Join(p.DuplicatesDir, filepath.Base(path))
			placement, err := p.place(path, dest)
			if err != nil {
				return placements, err
			}
			placements = append(placements, placement)
		}
	}

	return placements, nil
}

// place resolves a collision by appending a numeric suffix (matching
// the teacher's organizeFiles loop), then moves the file unless
// DryRun is set.
func (p Plan) place(src, dest string) (Placement, error) {
	dest = resolveCollision(dest)
	if p.DryRun {
		return Placement{Source: src, Destination: dest}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Placement{}, fmt.Errorf("transfer: mkdir %s: %w", filepath.Dir(dest), err)
	}
	if err := moveFile(src, dest); err != nil {
		return Placement{}, fmt.Errorf("transfer: move %s -> %s: %w", src, dest, err)
	}
	return Placement{Source: src, Destination: dest}, nil
}

func resolveCollision(dest string) string {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile renames src to dst, falling back to copy+remove for
// cross-device moves, grounded on the teacher's organizeFiles
// os.Rename/copyFile fallback.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
