// Package discovery walks a playlist directory and extracts the URLs
// embedded in every file it finds.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"playlistcheck/internal/models"
)

// ErrDirectoryNotFound is returned when the playlist root is missing or is not a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// Entry is one enumerated file. Err is set when the walk could not descend
// into or stat the entry.
type Entry struct {
	Path string
	Err  error
}

// Walk returns every non-hidden regular file under root, sorted
// lexicographically. Playlist extensions are not required: unknown
// extensions are scanned too.
func Walk(root string) ([]Entry, error) {
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if path != root && isHidden(d, path) {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err != nil {
			if path == root {
				return err
			}
			entries = append(entries, Entry{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			// Follow symlinks to regular files; skip sockets, devices and dangling links.
			info, statErr := os.Stat(path)
			if statErr != nil || !info.Mode().IsRegular() {
				return nil
			}
		}
		entries = append(entries, Entry{Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func isHidden(d fs.DirEntry, path string) bool {
	name := filepath.Base(path)
	if d != nil {
		name = d.Name()
	}
	return strings.HasPrefix(name, ".")
}

// Result is the outcome of scanning a playlist directory.
type Result struct {
	Files []models.FileScan
	// URLs is the global unique URL set, sorted lexicographically.
	URLs []string
}

// Scan walks root and extracts URLs from every file. Per-file failures are
// recorded in the corresponding FileScan and never abort the scan.
func Scan(root string, ex *Extractor) (*Result, error) {
	entries, err := Walk(root)
	if err != nil {
		return nil, err
	}

	res := &Result{Files: make([]models.FileScan, 0, len(entries))}
	seen := make(map[string]struct{})
	for _, e := range entries {
		scan := models.FileScan{
			PlaylistFile: relPath(root, e.Path),
			ScannedAt:    time.Now().UTC(),
		}
		readErr := e.Err
		if readErr == nil {
			scan.Extracted, readErr = ex.ExtractFile(e.Path)
		}
		if readErr != nil {
			msg := readErr.Error()
			scan.FileError = &msg
			scan.Extracted = nil
		}
		for _, u := range scan.Extracted {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			res.URLs = append(res.URLs, u)
		}
		res.Files = append(res.Files, scan)
	}
	sort.Strings(res.URLs)
	return res, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
