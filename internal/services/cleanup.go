package services

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
)

// CleanupScope owns temporary files and directories created during one run.
// Release removes everything tracked, newest first, and only logs failures.
type CleanupScope struct {
	mu       sync.Mutex
	paths    []string
	released bool
	log      logger.Logger
	metrics  *metrics.Metrics
}

func NewCleanupScope(log logger.Logger, m *metrics.Metrics) *CleanupScope {
	return &CleanupScope{log: log, metrics: m}
}

// Track registers path for removal. Paths tracked after Release are removed
// immediately.
func (s *CleanupScope) Track(path string) {
	if path == "" {
		return
	}

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		s.remove(path)
		return
	}
	s.paths = append(s.paths, path)
	s.mu.Unlock()
}

// Release is safe to call more than once.
func (s *CleanupScope) Release() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.released = true
	s.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		s.remove(paths[i])
	}
}

func (s *CleanupScope) remove(path string) {
	err := os.RemoveAll(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}

	s.metrics.ObserveCleanupFailure()
	s.log.WithError(err).Warn("failed to remove temporary path", map[string]interface{}{
		"path": path,
	})
}
