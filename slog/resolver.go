package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/reelscrape"
)

// Ensure LoggingResolver implements reelscrape.Resolver.
var _ reelscrape.Resolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a Resolver with logging.
type LoggingResolver struct {
	next   reelscrape.Resolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next reelscrape.Resolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the outcome.
func (r *LoggingResolver) Resolve(ctx context.Context, url string) (res *reelscrape.ResolutionResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", url, "duration", time.Since(begin)}
		if res != nil {
			attrs = append(attrs,
				"strategy", res.Strategy,
				"resolved", res.IsResolved,
				"final", res.ResolvedURL,
			)
			if res.Message != "" {
				attrs = append(attrs, "message", res.Message)
			}
		}
		if err != nil {
			r.logger.Error("resolve", append(attrs, "err", err)...)
			return
		}
		r.logger.Info("resolve", attrs...)
	}(time.Now())
	return r.next.Resolve(ctx, url)
}
