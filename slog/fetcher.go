// Package slog provides logging decorators for reelscrape services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/reelscrape"
)

// Ensure LoggingFetcher implements reelscrape.Fetcher.
var _ reelscrape.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   reelscrape.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next reelscrape.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string, opts reelscrape.FetchOptions) (res *reelscrape.FetchResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", url, "stream", opts.StreamOnly, "duration", time.Since(begin)}
		if res != nil {
			attrs = append(attrs, "status", res.StatusCode, "bytes", len(res.Body))
			if res.FinalURL != url {
				attrs = append(attrs, "final", res.FinalURL)
			}
		}
		if err != nil {
			f.logger.Warn("fetch", append(attrs, "code", reelscrape.ErrorCode(err), "err", err)...)
			return
		}
		f.logger.Info("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url, opts)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
