package urlutil

import (
	"net/url"
	"strings"
)

// Scheme returns the lowercased scheme of rawURL. Strings that net/url refuses
// to parse (bad escapes, broken IPv6 literals) still yield the text before the
// first "://"; such URLs are kept and later reported as request errors.
func Scheme(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return strings.ToLower(u.Scheme)
	}
	if i := strings.Index(rawURL, "://"); i > 0 {
		return strings.ToLower(rawURL[:i])
	}
	return ""
}

// IsHTTP reports whether rawURL has a scheme starting with "http".
func IsHTTP(rawURL string) bool {
	return strings.HasPrefix(Scheme(rawURL), "http")
}

// Hostname returns the host of rawURL without port, or "" if it cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
