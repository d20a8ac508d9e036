//go:build !unix

package filestat

import (
	"os"
	"time"
)

// changeTime has no portable equivalent outside unix; fall back to
// ModTime.
func changeTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
