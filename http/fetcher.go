// Package http implements reelscrape.Fetcher over net/http and serves the
// catalog as a JSON API.
package http

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/fwojciec/reelscrape"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is a desktop browser identity. The content site serves
// different or no markup to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultMaxBodySize caps a decoded response body.
const DefaultMaxBodySize = 10 << 20

// Ensure Fetcher implements reelscrape.Fetcher at compile time.
var _ reelscrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages with plain HTTP requests that look like they come
// from a browser.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	origin      reelscrape.Origin
	userAgent   string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the default per-request timeout.
// Defaults to reelscrape.DefaultFetchTimeout (15s).
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithOrigin sets the origin sent as the default Referer.
func WithOrigin(o reelscrape.Origin) Option {
	return func(f *Fetcher) {
		f.origin = o
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithClient sets the underlying client. Its CheckRedirect is replaced per
// request.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithMaxBodySize caps the decoded body. Defaults to DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     reelscrape.DefaultFetchTimeout,
		origin:      reelscrape.DefaultOrigin,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return f
}

// Fetch performs a GET request for url.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, reelscrape.Errorf(reelscrape.EINVALID, "invalid url %q: %v", url, err)
	}
	f.setHeaders(req, opts.Headers)

	client := *f.client
	client.CheckRedirect = checkRedirect(opts)

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		code := reelscrape.EUPSTREAM
		if resp.StatusCode == http.StatusNotFound {
			code = reelscrape.ENOTFOUND
		}
		return nil, reelscrape.Errorf(code, "HTTP %d for %s", resp.StatusCode, url)
	}

	result := &reelscrape.FetchResult{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Cookies:    resp.Header.Values("Set-Cookie"),
	}
	if opts.StreamOnly {
		return result, nil
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, classify(ctx, url, err)
	}
	result.Body = body
	return result, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func (f *Fetcher) setHeaders(req *http.Request, extra map[string]string) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if f.origin != "" {
		req.Header.Set("Referer", string(f.origin)+"/")
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
}

func checkRedirect(opts reelscrape.FetchOptions) func(*http.Request, []*http.Request) error {
	if opts.NoRedirects {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	limit := opts.MaxRedirects
	if limit <= 0 {
		limit = reelscrape.DefaultMaxRedirects
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		return nil
	}
}

// readBody undoes the content encoding and transcodes the body to UTF-8.
func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", reelscrape.Errorf(reelscrape.EUPSTREAM, "bad gzip body: %v", err)
		}
		defer gr.Close()
		r = gr
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return "", reelscrape.Errorf(reelscrape.EUPSTREAM, "bad deflate body: %v", err)
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(resp.Body)
	}

	r, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(r, f.maxBodySize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// classify maps transport failures to application error codes.
func classify(ctx context.Context, url string, err error) error {
	if reelscrape.ErrorCode(err) != reelscrape.EINTERNAL {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() == context.DeadlineExceeded:
		return reelscrape.Errorf(reelscrape.ETIMEOUT, "timed out fetching %s", url)
	case errors.As(err, &netErr) && netErr.Timeout():
		return reelscrape.Errorf(reelscrape.ETIMEOUT, "timed out fetching %s", url)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("fetch %s: %w", url, err)
	default:
		return reelscrape.Errorf(reelscrape.ENETWORK, "fetch %s: %v", url, err)
	}
}
