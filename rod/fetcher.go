package rod

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/fwojciec/reelscrape"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements reelscrape.Fetcher at compile time.
var _ reelscrape.Fetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds one page load when FetchOptions sets none.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher loads pages in headless Chrome, for listings served behind a
// JavaScript challenge. Fetcher is safe for concurrent use.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	userAgent string
	closed    atomic.Bool
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherConfig)

type fetcherConfig struct {
	timeout   time.Duration
	userAgent string
	manager   []ManagerOption
}

// WithFetchTimeout sets the default page load timeout.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) FetcherOption {
	return func(c *fetcherConfig) {
		c.userAgent = ua
	}
}

// WithManagerOptions passes options to the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) FetcherOption {
	return func(c *fetcherConfig) {
		c.manager = append(c.manager, opts...)
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.manager...)
	if err != nil {
		return nil, err
	}
	return &Fetcher{manager: manager, timeout: cfg.timeout, userAgent: cfg.userAgent}, nil
}

// Fetch navigates to url and returns the rendered HTML, the page URL after
// navigation and the browser's cookies as name=value pairs.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error) {
	if f.closed.Load() {
		return nil, reelscrape.Errorf(reelscrape.EINVALID, "fetcher is closed")
	}
	if opts.StreamOnly {
		return nil, reelscrape.Errorf(reelscrape.EINVALID, "browser fetcher cannot stream %s", url)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := f.load(ctx, url, opts.Headers)
	if err != nil {
		return nil, classify(ctx, url, err)
	}
	f.manager.PageServed()

	if res.StatusCode >= 400 {
		code := reelscrape.EUPSTREAM
		if res.StatusCode == 404 {
			code = reelscrape.ENOTFOUND
		}
		return nil, reelscrape.Errorf(code, "HTTP %d for %s", res.StatusCode, url)
	}
	return res, nil
}

func (f *Fetcher) load(ctx context.Context, url string, headers map[string]string) (*reelscrape.FetchResult, error) {
	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()
	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		var dict []string
		for _, k := range slices.Sorted(maps.Keys(headers)) {
			dict = append(dict, k, headers[k])
		}
		cleanup, err := page.SetExtraHeaders(dict)
		if err != nil {
			return nil, err
		}
		defer cleanup()
	}

	// Redirect hops are reported on request events, so the first document
	// response is the final one.
	var status atomic.Int64
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status.Store(int64(e.Response.Status))
		return true
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		wait()
	}()

	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	info, err := page.Info()
	if err != nil {
		return nil, err
	}
	cookies, err := page.Cookies(nil)
	if err != nil {
		return nil, err
	}

	res := &reelscrape.FetchResult{
		FinalURL:   info.URL,
		StatusCode: int(status.Load()),
		Body:       html,
	}
	if res.StatusCode == 0 {
		res.StatusCode = 200
	}
	for _, c := range cookies {
		res.Cookies = append(res.Cookies, c.Name+"="+c.Value)
	}
	return res, nil
}

func classify(ctx context.Context, url string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() == context.DeadlineExceeded:
		return reelscrape.Errorf(reelscrape.ETIMEOUT, "timed out loading %s", url)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("fetch %s: %w", url, err)
	default:
		return reelscrape.Errorf(reelscrape.ENETWORK, "load %s: %v", url, err)
	}
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
