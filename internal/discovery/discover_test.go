package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	ex, err := NewExtractor(DefaultExcludeChars)
	require.NoError(t, err)
	return ex
}

func TestExtractReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "comment lines contribute nothing",
			input: "#EXTM3U\n  #EXTINF:-1 tvg-logo=\"http://logo.test/a.png\",A\nhttp://x.test/1\n",
			want:  []string{"http://x.test/1"},
		},
		{
			name:  "duplicate within file appears once",
			input: "#comment\nhttp://x.test/1\nhttp://x.test/1\n",
			want:  []string{"http://x.test/1"},
		},
		{
			name:  "first-seen order is kept",
			input: "https://b.test/z\nhttp://a.test/y https://b.test/z\n",
			want:  []string{"https://b.test/z", "http://a.test/y"},
		},
		{
			name:  "stops at excluded delimiters",
			input: `<a href="http://q.test/x">link</a> (http://p.test/y) [http://r.test/z] 'http://s.test/w', http://t.test/v<br>`,
			want:  []string{"http://q.test/x", "http://p.test/y", "http://r.test/z", "http://s.test/w", "http://t.test/v"},
		},
		{
			name:  "case and trailing slash are not normalized",
			input: "http://x.test/a\nhttp://x.test/a/\nhttp://X.test/a\n",
			want:  []string{"http://x.test/a", "http://x.test/a/", "http://X.test/a"},
		},
		{
			name:  "scheme is case sensitive and must be http(s)",
			input: "HTTP://upper.test/a ftp://f.test/b rtmp://r.test/c\n",
			want:  nil,
		},
		{
			name:  "unicode whitespace ends a match",
			input: "http://x.test/a\u00a0http://x.test/b\nhttp://x.test/c\vtrailer\nhttp://x.test/d\u3000next\n",
			want:  []string{"http://x.test/a", "http://x.test/b", "http://x.test/c", "http://x.test/d"},
		},
		{
			name:  "last line without newline",
			input: "http://x.test/tail",
			want:  []string{"http://x.test/tail"},
		},
		{
			name:  "crlf line endings",
			input: "#EXTM3U\r\nhttp://x.test/1\r\n",
			want:  []string{"http://x.test/1"},
		},
		{
			name:  "bare scheme without host is not a url",
			input: "http:// nothing here\n",
			want:  nil,
		},
	}

	ex := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.ExtractReader(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractReader_InvalidBytesAreReplaced(t *testing.T) {
	ex := newTestExtractor(t)
	input := []byte("\x80\x81\xfd garbage\nhttp://x.test/ok\nhttp://x.test/a\x80b\n")

	got, err := ex.ExtractReader(strings.NewReader(string(input)))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "http://x.test/ok", got[0])
	assert.Equal(t, "http://x.test/a\uFFFDb", got[1])
}

func TestExtractReader_UTF16WithBOM(t *testing.T) {
	ex := newTestExtractor(t)
	// "http://x.test/1\n" in UTF-16LE with BOM.
	src := "http://x.test/1\n"
	buf := []byte{0xFF, 0xFE}
	for _, r := range src {
		buf = append(buf, byte(r), 0)
	}

	got, err := ex.ExtractReader(strings.NewReader(string(buf)))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.test/1"}, got)
}

func TestNewExtractor_CustomExcludeSet(t *testing.T) {
	// Historical variant that does not stop at '<' or ')'.
	ex, err := NewExtractor(`'",]`)
	require.NoError(t, err)

	got, err := ex.ExtractReader(strings.NewReader("http://x.test/a)b<c\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.test/a)b<c"}, got)

	// Regex metacharacters in the set are escaped.
	ex, err = NewExtractor(`-^\]`)
	require.NoError(t, err)
	got, err = ex.ExtractReader(strings.NewReader("http://x.test/a-b http://y.test/c^d\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.test/a", "http://y.test/c"}, got)
}

func TestWalk_HiddenAndRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.m3u", "")
	writeFile(t, dir, "a.txt", "")
	writeFile(t, dir, ".hidden.m3u", "")
	writeFile(t, filepath.Join(dir, "sub"), "c.m3u8", "")
	writeFile(t, filepath.Join(dir, ".git"), "config", "")

	entries, err := Walk(dir)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		require.NoError(t, e.Err)
		got = append(got, relPath(dir, e.Path))
	}
	assert.Equal(t, []string{"a.txt", "b.m3u", "sub/c.m3u8"}, got)
}

func TestWalk_DirectoryNotFound(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirectoryNotFound))

	file := writeFile(t, t.TempDir(), "plain.m3u", "")
	_, err = Walk(file)
	assert.ErrorIs(t, err, ErrDirectoryNotFound, "a regular file is not a playlist root")
}

func TestScan_DeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.m3u", "#comment\nhttp://x.test/1\nhttp://x.test/1\n")
	writeFile(t, dir, "b.m3u", "http://x.test/2\nhttp://x.test/1\n")
	writeFile(t, dir, "notes.txt", "no urls here\n")

	res, err := Scan(dir, newTestExtractor(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"http://x.test/1", "http://x.test/2"}, res.URLs)
	require.Len(t, res.Files, 3)
	assert.Equal(t, "a.m3u", res.Files[0].PlaylistFile)
	assert.Equal(t, []string{"http://x.test/1"}, res.Files[0].Extracted)
	assert.Equal(t, []string{"http://x.test/2", "http://x.test/1"}, res.Files[1].Extracted)
	assert.Empty(t, res.Files[2].Extracted)
	for _, f := range res.Files {
		assert.Nil(t, f.FileError)
		assert.False(t, f.ScannedAt.IsZero())
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	res, err := Scan(t.TempDir(), newTestExtractor(t))
	require.NoError(t, err)
	assert.Empty(t, res.URLs)
	assert.Empty(t, res.Files)
}

func TestScan_UnreadableFileIsRecorded(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good.m3u", "http://x.test/1\n")
	bad := writeFile(t, dir, "locked.m3u", "http://x.test/2\n")
	require.NoError(t, os.Chmod(bad, 0o000))

	res, err := Scan(dir, newTestExtractor(t))
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, []string{"http://x.test/1"}, res.URLs)
	require.NotNil(t, res.Files[1].FileError)
	assert.Empty(t, res.Files[1].Extracted)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
