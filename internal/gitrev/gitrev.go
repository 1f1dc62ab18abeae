// Package gitrev looks up the source-control revision of the playlist tree.
package gitrev

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

const lookupTimeout = 5 * time.Second

// runGit is replaced in tests.
var runGit = func(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

// Lookup returns the commit hash checked out in dir, falling back to
// GITHUB_SHA. Failures are swallowed: nil means the revision is unknown.
func Lookup(ctx context.Context, dir string) *string {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	if out, err := runGit(ctx, dir, "rev-parse", "HEAD"); err == nil {
		if rev := strings.TrimSpace(out); rev != "" {
			return &rev
		}
	}
	if sha := strings.TrimSpace(os.Getenv("GITHUB_SHA")); sha != "" {
		return &sha
	}
	return nil
}
