package reelscrape

import (
	"strings"
)

// DefaultOrigin is the content site every relative href is joined against.
const DefaultOrigin Origin = "https://www.filmyzilla13.com"

// Path markers used by the content site.
const (
	categoryMarker    = "/category/"
	movieMarker       = "/movie/"
	moviePluralMarker = "/movies/"
)

// Origin is the scheme and host of the content site, without a trailing slash.
type Origin string

// NewOrigin normalizes s into an Origin. An empty s yields DefaultOrigin.
func NewOrigin(s string) Origin {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s == "" {
		return DefaultOrigin
	}
	return Origin(s)
}

// String returns the origin as a string.
func (o Origin) String() string { return string(o) }

// Absolute joins href against the origin. Hrefs that already carry a scheme
// are returned unchanged; protocol-relative hrefs get https. An empty href
// stays empty.
func (o Origin) Absolute(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case hasScheme(href):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return string(o) + href
	default:
		return string(o) + "/" + href
	}
}

// hasScheme reports whether s starts with an RFC 3986 scheme followed by ':'.
func hasScheme(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		case i > 0 && c == ':':
			return true
		default:
			return false
		}
	}
	return false
}

// CategoryAlternate returns the alternate form of a category URL: the path
// re-rooted under /category/. It returns false when rawURL already contains
// the category marker.
func (o Origin) CategoryAlternate(rawURL string) (string, bool) {
	if strings.Contains(rawURL, categoryMarker) {
		return "", false
	}
	rest := strings.TrimPrefix(rawURL, string(o))
	rest = strings.TrimLeft(rest, "/")
	return string(o) + categoryMarker + rest, true
}

// CategoryURL builds a category URL from a slug.
func (o Origin) CategoryURL(slug string) string {
	return string(o) + categoryMarker + strings.TrimLeft(slug, "/")
}

// MovieURLs builds both the singular and plural movie URL for a slug.
func (o Origin) MovieURLs(slug string) []string {
	slug = strings.TrimLeft(slug, "/")
	return []string{
		string(o) + movieMarker + slug,
		string(o) + moviePluralMarker + slug,
	}
}

// MovieAlternate swaps the /movies/ and /movie/ path segments of rawURL.
// It returns false when rawURL contains neither.
func MovieAlternate(rawURL string) (string, bool) {
	switch {
	case strings.Contains(rawURL, moviePluralMarker):
		return strings.Replace(rawURL, moviePluralMarker, movieMarker, 1), true
	case strings.Contains(rawURL, movieMarker):
		return strings.Replace(rawURL, movieMarker, moviePluralMarker, 1), true
	}
	return "", false
}
