package scanner

import (
	"sync"
	"time"
)

// ScanOptions configures the gather stage: which roots to walk and how
// many files to process concurrently. DebugMode is carried for
// callers; Gather does not read it.
// Renamed from the teacher's single-folder ScanOptions to support the
// organize command's variadic <source>... (spec.md §6).
type ScanOptions struct {
	Roots       []string
	Concurrency int
	DebugMode   bool
}

// GatherResult holds one file's outcome: its path, whether it was
// gathered, and the error when it was not, mirroring the teacher's
// ProcessImageResult shape.
type GatherResult struct {
	Path    string
	Success bool
	Error   error
}

// ProgressTracker reports gather progress on a fixed ticker, adapted
// from the teacher's ProgressTracker (scanner/progress.go) to the new
// counters: files counted during the walk, files successfully
// gathered, and errors.
type ProgressTracker struct {
	counted   int
	gathered  int
	errors    int
	ticker    *time.Ticker
	done      chan bool
	mu        sync.Mutex
	totalHint int
}
