package reelscrape

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultFetchTimeout is the per-request timeout used when FetchOptions
// does not set one.
const DefaultFetchTimeout = 15 * time.Second

// DefaultMaxRedirects is the redirect limit used when FetchOptions does not
// set one.
const DefaultMaxRedirects = 10

// FetchOptions controls a single Fetch call. The zero value follows up to
// DefaultMaxRedirects redirects and reads the whole body.
type FetchOptions struct {
	// Headers are sent in addition to the fetcher's browser-like defaults
	// and override them on conflict (e.g. Cookie, Referer).
	Headers map[string]string

	// NoRedirects returns the first response as-is, 3xx included.
	NoRedirects bool

	// MaxRedirects caps the redirect chain. Zero means DefaultMaxRedirects.
	MaxRedirects int

	// Timeout bounds the whole request. Zero means the fetcher's default.
	Timeout time.Duration

	// StreamOnly stops after the response headers arrive: the final URL,
	// status and headers are captured and the body is never read. Used to
	// learn where a redirect chain ends without downloading the media file.
	StreamOnly bool
}

// FetchResult is the outcome of a successful Fetch.
type FetchResult struct {
	// FinalURL is the request URL after all redirects were followed.
	FinalURL   string
	StatusCode int
	// Body is the decoded response body. Empty in StreamOnly mode.
	Body   string
	Header http.Header
	// Cookies holds the raw Set-Cookie header values of the final response.
	Cookies []string
}

// Fetcher performs HTTP GET requests against the content site.
//
// Errors carry application codes: ETIMEOUT when no response arrived in time,
// ENOTFOUND for 404, EUPSTREAM for any other status >= 400 and ENETWORK for
// connection-level failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// CookieHeader converts raw Set-Cookie values into a Cookie request header
// carrying only the name=value pairs.
func CookieHeader(setCookies []string) string {
	var pairs []string
	for _, raw := range setCookies {
		c, err := http.ParseSetCookie(raw)
		if err != nil {
			// Fall back to the leading pair of a malformed header.
			pair, _, _ := strings.Cut(raw, ";")
			if pair = strings.TrimSpace(pair); strings.Contains(pair, "=") {
				pairs = append(pairs, pair)
			}
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}
