package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"playlistcheck/internal/models"
)

// WriteFile creates the parent directories of path and atomically replaces
// path with whatever render writes.
func WriteFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("failed to create pending file for %s: %w", path, err)
	}
	// Cleanup is a no-op once the file has been committed.
	defer pendingFile.Cleanup()

	if err := render(pendingFile); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// WriteJSONFile writes the full report as JSON.
func WriteJSONFile(path string, rep *models.Report) error {
	return WriteFile(path, func(w io.Writer) error { return EncodeJSON(w, rep) })
}

// WriteTextFile writes the plain-text summary.
func WriteTextFile(path string, rep *models.Report) error {
	return WriteFile(path, func(w io.Writer) error { return WriteText(w, rep) })
}

// WriteBadgeFile writes the badge payload.
func WriteBadgeFile(path string, badge models.Badge) error {
	return WriteFile(path, func(w io.Writer) error { return EncodeJSON(w, badge) })
}
