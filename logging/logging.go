// Package logging provides a small leveled logger wrapping the
// standard library's log.Logger, colorized via fatih/color the way
// several of the example CLIs (ooyeku/issuemap, steveyegge/vc) style
// their terminal output. Grounded on the teacher's logging package
// (imagefinder/logging): a package-level logger, guarded by a mutex,
// set up once via Setup and torn down via Close.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu       sync.Mutex
	logger   *log.Logger
	logFile  *os.File
	debugOn  bool
	warnFmt  = color.New(color.FgYellow).SprintfFunc()
	errFmt   = color.New(color.FgRed, color.Bold).SprintfFunc()
	infoFmt  = color.New(color.FgCyan).SprintfFunc()
)

// Setup opens logFilePath for append and, when debug is true, also
// mirrors output to stdout — matching the teacher's main.go
// "debugMode ? MultiWriter(stdout, file) : file" behavior.
func Setup(logFilePath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return nil
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("logging: open log file: %w", err)
	}
	logFile = f
	debugOn = debug

	var out io.Writer = f
	if debug {
		out = io.MultiWriter(os.Stdout, f)
	}
	logger = log.New(out, "", log.LstdFlags)
	logger.Printf("--- photodedupe log started %s ---", time.Now().Format(time.RFC3339))
	return nil
}

// Close flushes and closes the log file, matching spec.md §5's
// cancellation contract ("the cache is flushed ... process exits").
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return
	}
	logger.Printf("--- photodedupe log closed %s ---", time.Now().Format(time.RFC3339))
	logFile.Close()
	logFile = nil
	logger = nil
}

func Debugf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil && debugOn {
		logger.Printf("DEBUG: "+format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.Printf("INFO: "+format, args...)
	}
	fmt.Println(infoFmt(format, args...))
}

func Warnf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.Printf("WARN: "+format, args...)
	}
	fmt.Fprintln(os.Stderr, warnFmt(format, args...))
}

func Errorf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.Printf("ERROR: "+format, args...)
	}
	fmt.Fprintln(os.Stderr, errFmt(format, args...))
}
