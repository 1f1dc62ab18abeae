package gitrev

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubGit(t *testing.T, out string, err error) {
	t.Helper()
	orig := runGit
	runGit = func(ctx context.Context, dir string, args ...string) (string, error) {
		return out, err
	}
	t.Cleanup(func() { runGit = orig })
}

func TestLookup_FromGit(t *testing.T) {
	stubGit(t, "0123abcd\n", nil)
	t.Setenv("GITHUB_SHA", "ignored")

	rev := Lookup(context.Background(), t.TempDir())
	require.NotNil(t, rev)
	assert.Equal(t, "0123abcd", *rev)
}

func TestLookup_FallsBackToEnv(t *testing.T) {
	stubGit(t, "", errors.New("not a git repository"))
	t.Setenv("GITHUB_SHA", "feedface")

	rev := Lookup(context.Background(), t.TempDir())
	require.NotNil(t, rev)
	assert.Equal(t, "feedface", *rev)
}

func TestLookup_Unknown(t *testing.T) {
	stubGit(t, "", errors.New("git: executable file not found"))
	t.Setenv("GITHUB_SHA", "")

	assert.Nil(t, Lookup(context.Background(), t.TempDir()))
}
