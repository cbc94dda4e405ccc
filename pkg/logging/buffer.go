package logging

import (
	"strings"
	"sync"
	"time"
)

// LogCaptureWriter is a thread-safe writer that stores the last written line.
type LogCaptureWriter struct {
	mu        sync.RWMutex
	lastLine  string
	updatedAt time.Time
}

// GlobalLogCapture holds the most recent warning or error.
var GlobalLogCapture = &LogCaptureWriter{}

// Write implements io.Writer. It updates the lastLine field.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastLine = strings.TrimSpace(string(p))
	w.updatedAt = time.Now()
	return len(p), nil
}

// GetLastLine returns the most recent log line and when it was written.
func (w *LogCaptureWriter) GetLastLine() (string, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastLine, w.updatedAt
}
