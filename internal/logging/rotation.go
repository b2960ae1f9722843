package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// rotatingWriter is an io.Writer that rotates the underlying file when it
// grows past maxSize, keeping at most maxBackups timestamped backups.
type rotatingWriter struct {
	filename   string
	maxSize    int64
	maxBackups int

	mu          sync.Mutex
	file        *os.File
	currentSize int64
}

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 5
)

func newRotatingWriter(filename string, cfg *RotationConfig) (*rotatingWriter, error) {
	maxSizeMB := defaultMaxSizeMB
	maxBackups := defaultMaxBackups
	if cfg != nil {
		if cfg.MaxSizeMB > 0 {
			maxSizeMB = cfg.MaxSizeMB
		}
		if cfg.MaxBackups > 0 {
			maxBackups = cfg.MaxBackups
		}
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &rotatingWriter{
		filename:   filename,
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) open() error {
	file, err := os.OpenFile(w.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = file
	w.currentSize = info.Size()
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// rotate renames the current file to a timestamped backup and opens a fresh
// one. Callers must hold w.mu.
func (w *rotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	backup := fmt.Sprintf("%s.%s", w.filename, time.Now().Format("20060102-150405"))
	if err := os.Rename(w.filename, backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}

	w.pruneBackups()
	return nil
}

// pruneBackups removes the oldest backups beyond maxBackups. Errors are
// ignored; a failed prune never blocks logging.
func (w *rotatingWriter) pruneBackups() {
	matches, err := filepath.Glob(w.filename + ".*")
	if err != nil {
		return
	}

	var backups []string
	for _, m := range matches {
		suffix := strings.TrimPrefix(m, w.filename+".")
		if _, err := time.Parse("20060102-150405", suffix); err == nil {
			backups = append(backups, m)
		}
	}
	if len(backups) <= w.maxBackups {
		return
	}

	sort.Strings(backups)
	for _, old := range backups[:len(backups)-w.maxBackups] {
		os.Remove(old)
	}
}

// Close closes the underlying file.
func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
