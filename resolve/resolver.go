// Package resolve follows download/server links to directly playable media
// URLs.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/reelscrape"
)

var _ reelscrape.Resolver = (*Resolver)(nil)

// Defaults for Resolver fields left at their zero value.
const (
	DefaultTimeout   = 20 * time.Second
	DefaultWarnAfter = 8 * time.Second
)

// Candidate is one way of locating the link that leads to the media file.
// Hrefs of a Follow candidate are requested and judged by where their
// redirects end; the others are judged as found.
type Candidate struct {
	Name   string
	Follow bool
	Find   func(doc reelscrape.Node) []string
}

// DefaultCandidates returns the download-button, alternate and direct-scan
// strategies, in that order.
func DefaultCandidates(signals reelscrape.Signals) []Candidate {
	return []Candidate{
		{Name: "download-button", Follow: true, Find: firstOf("a.newdl")},
		{Name: "alternate", Follow: true, Find: firstOf(
			`a[href*="getfile"]`,
			`a[href*="downloadfile"]`,
			`a:contains("Start Download Now")`,
			`a:contains("Click to Download")`,
			`a:contains("Download Now")`,
		)},
		{Name: "direct-scan", Find: func(doc reelscrape.Node) []string {
			for _, a := range doc.Find("a[href]") {
				if href, _ := a.Attr("href"); signals.IsDirect(href) {
					return []string{href}
				}
			}
			return nil
		}},
	}
}

// firstOf yields the first href matched by each selector.
func firstOf(selectors ...string) func(reelscrape.Node) []string {
	return func(doc reelscrape.Node) []string {
		var hrefs []string
		for _, sel := range selectors {
			for _, a := range doc.Find(sel) {
				if href, ok := a.Attr("href"); ok && href != "" {
					hrefs = append(hrefs, href)
					break
				}
			}
		}
		return hrefs
	}
}

// Resolver resolves server pages of the content site.
type Resolver struct {
	Fetcher reelscrape.Fetcher
	Parser  reelscrape.HTMLParser

	// Signals classify direct links. Defaults to reelscrape.DefaultSignals().
	Signals reelscrape.Signals
	// Candidates defaults to DefaultCandidates(Signals).
	Candidates []Candidate
	// Origin relative candidate hrefs are joined against.
	Origin reelscrape.Origin

	// Timeout is the hard ceiling for one resolution.
	Timeout time.Duration
	// WarnAfter is when OnSlow fires if the resolution is still running.
	WarnAfter time.Duration
	OnSlow    func(url string, elapsed time.Duration)

	Logger *slog.Logger
}

// Resolve returns where url leads. Unresolvable, expired and timed-out links
// are results, not errors.
func (r *Resolver) Resolve(ctx context.Context, url string) (*reelscrape.ResolutionResult, error) {
	signals := r.signals()
	if signals.IsDirect(url) {
		return &reelscrape.ResolutionResult{
			OriginalURL: url,
			ResolvedURL: url,
			IsResolved:  true,
			Strategy:    reelscrape.StrategyFastPath,
		}, nil
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.OnSlow != nil {
		warnAfter := r.WarnAfter
		if warnAfter <= 0 {
			warnAfter = DefaultWarnAfter
		}
		begin := time.Now()
		t := time.AfterFunc(warnAfter, func() { r.OnSlow(url, time.Since(begin)) })
		defer t.Stop()
	}

	resolved, err := r.resolve(ctx, url, signals)
	switch {
	case err == nil && resolved != "":
		return &reelscrape.ResolutionResult{
			OriginalURL: url,
			ResolvedURL: resolved,
			IsResolved:  true,
			Strategy:    reelscrape.StrategyScraped,
		}, nil
	case err == nil:
		return unresolved(url, ""), nil
	case reelscrape.ErrorCode(err) == reelscrape.ENOTFOUND:
		return unresolved(url, reelscrape.MessageNotFound), nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded), reelscrape.ErrorCode(err) == reelscrape.ETIMEOUT:
		return unresolved(url, reelscrape.MessageTimeout), nil
	default:
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}
}

func unresolved(url, message string) *reelscrape.ResolutionResult {
	return &reelscrape.ResolutionResult{
		OriginalURL: url,
		ResolvedURL: url,
		IsResolved:  false,
		Strategy:    reelscrape.StrategyFallback,
		Message:     message,
	}
}

// resolve returns the direct URL, or "" when no candidate produced one.
func (r *Resolver) resolve(ctx context.Context, url string, signals reelscrape.Signals) (string, error) {
	page, err := r.Fetcher.Fetch(ctx, url, reelscrape.FetchOptions{})
	if err != nil {
		return "", err
	}
	doc, err := r.Parser.Parse(page.Body)
	if err != nil {
		return "", err
	}

	headers := map[string]string{"Referer": url}
	if cookie := reelscrape.CookieHeader(page.Cookies); cookie != "" {
		headers["Cookie"] = cookie
	}

	origin := r.Origin
	if origin == "" {
		origin = reelscrape.DefaultOrigin
	}

	candidates := r.Candidates
	if candidates == nil {
		candidates = DefaultCandidates(signals)
	}

	tried := make(map[string]bool)
	for _, c := range candidates {
		for _, href := range c.Find(doc) {
			href = origin.Absolute(href)
			if href == "" || tried[href] {
				continue
			}
			tried[href] = true

			if !c.Follow {
				if signals.IsDirect(href) {
					return href, nil
				}
				continue
			}

			res, err := r.Fetcher.Fetch(ctx, href, reelscrape.FetchOptions{Headers: headers, StreamOnly: true})
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				r.logger().Warn("candidate failed", "strategy", c.Name, "url", href, "err", err)
				continue
			}
			if signals.IsDirect(res.FinalURL) {
				return res.FinalURL, nil
			}
			r.logger().Debug("candidate not direct", "strategy", c.Name, "url", href, "final", res.FinalURL)
		}
	}
	return "", nil
}

func (r *Resolver) signals() reelscrape.Signals {
	if r.Signals == nil {
		return reelscrape.DefaultSignals()
	}
	return r.Signals
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
