// Package watcher polls data files and reports when one of them changed.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Service tracks the modification time and size of a set of files.
type Service struct {
	mu    sync.Mutex
	paths []string
	seen  map[string]fileState
}

type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

// NewService records the current state of paths. Missing files are tracked and
// reported once they appear.
func NewService(paths []string) *Service {
	s := &Service{paths: paths, seen: make(map[string]fileState, len(paths))}
	for _, p := range paths {
		st := stat(p)
		if !st.exists {
			slog.Warn("Watcher: File does not exist yet", "path", p)
		}
		s.seen[p] = st
	}
	return s
}

// CheckChanged returns the paths whose state differs from the previous check.
func (s *Service) CheckChanged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for _, p := range s.paths {
		st := stat(p)
		if st != s.seen[p] {
			s.seen[p] = st
			changed = append(changed, p)
		}
	}
	return changed
}

// Run polls every interval and calls onChange once per round with changes, until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration, onChange func(paths []string)) {
	if interval <= 0 || len(s.paths) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if changed := s.CheckChanged(); len(changed) > 0 {
				slog.Info("Watcher: Data file changed", "paths", changed)
				onChange(changed)
			}
		}
	}
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), exists: true}
}
