package scanner

import (
	"fmt"
	"time"

	"photodedupe/logging"
)

// NewProgressTracker initializes the progress tracker with a
// best-effort total file count (0 if unknown at walk start),
// grounded on the teacher's NewProgressTracker ticker setup.
func NewProgressTracker(totalHint int) *ProgressTracker {
	tracker := &ProgressTracker{
		ticker:    time.NewTicker(500 * time.Millisecond),
		done:      make(chan bool),
		totalHint: totalHint,
	}
	go tracker.displayProgress()
	return tracker
}

func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Printf("\rGathering: %d/%d counted, %d gathered (errors: %d)",
					p.counted, p.totalHint, p.gathered, p.errors)
			} else {
				fmt.Printf("\rGathering: %d/%d counted, %d gathered",
					p.counted, p.totalHint, p.gathered)
			}
			p.mu.Unlock()
		}
	}
}

// Observe records the outcome of one gathered file.
func (p *ProgressTracker) Observe(result GatherResult) {
	p.mu.Lock()
	p.counted++
	if result.Success {
		p.gathered++
	} else {
		p.errors++
		logging.Warnf("scanner: %s: %v", result.Path, result.Error)
	}
	p.mu.Unlock()
}

// Stop ends progress tracking and prints a final newline so the next
// output line doesn't collide with the in-place progress counter.
func (p *ProgressTracker) Stop() {
	p.ticker.Stop()
	p.done <- true
	fmt.Println()
}

// Snapshot returns the current counters.
func (p *ProgressTracker) Snapshot() (counted, gathered, errors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counted, p.gathered, p.errors
}
