// Package diagnostics keeps raw pages of failed extractions for later inspection.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// fileStampLayout names files <label>_<YYYYmmdd_HHMMSS>.html
const fileStampLayout = "20060102_150405"

var unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

// FileSink writes diagnostics blobs into a directory
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing into dir. The directory is created on first save.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Save writes data as <dir>/<label>_<timestamp>.html and returns the path
func (s *FileSink) Save(ctx context.Context, label string, at time.Time, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create diagnostics dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.html", safeLabel(label), at.Format(fileStampLayout))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write diagnostics file: %w", err)
	}
	return path, nil
}

// safeLabel keeps show names usable as file names
func safeLabel(label string) string {
	label = strings.Trim(unsafeNameRe.ReplaceAllString(strings.TrimSpace(label), "_"), "_")
	if label == "" {
		return "page"
	}
	return label
}
