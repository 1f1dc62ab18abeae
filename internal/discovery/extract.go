package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"playlistcheck/internal/urlutil"
)

// DefaultExcludeChars are the characters, besides whitespace, that end a URL match.
const DefaultExcludeChars = `'"<>,)]`

// Extractor finds http(s) URLs in playlist text.
type Extractor struct {
	pattern *regexp.Regexp
}

// unicodeSpace matches every character unicode.IsSpace reports, plus the
// ASCII separators 0x1c-0x1f. RE2's \s alone covers only [\t\n\f\r ].
const unicodeSpace = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

// NewExtractor compiles the URL pattern: "http://" or "https://" followed by
// one or more characters that are neither whitespace nor in excludeChars.
func NewExtractor(excludeChars string) (*Extractor, error) {
	var class strings.Builder
	class.WriteString(unicodeSpace)
	for _, r := range excludeChars {
		if strings.ContainsRune(`\]^-[`, r) {
			class.WriteByte('\\')
		}
		class.WriteRune(r)
	}
	re, err := regexp.Compile(`https?://[^` + class.String() + `]+`)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude characters %q: %w", excludeChars, err)
	}
	return &Extractor{pattern: re}, nil
}

// Pattern returns the compiled expression, mainly for diagnostics.
func (e *Extractor) Pattern() string { return e.pattern.String() }

// ExtractReader decodes r permissively and returns the unique URLs in
// first-seen order. Lines whose trimmed content starts with '#' are skipped.
func (e *Extractor) ExtractReader(r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReader(decoded)

	seen := make(map[string]struct{})
	var urls []string
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			urls = e.collectLine(line, seen, urls)
		}
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (e *Extractor) collectLine(line string, seen map[string]struct{}, urls []string) []string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return urls
	}
	for _, m := range e.pattern.FindAllString(line, -1) {
		if !urlutil.IsHTTP(m) {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// ExtractFile opens path and extracts its URLs.
func (e *Extractor) ExtractFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	urls, err := e.ExtractReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return urls, nil
}
