package scrape

import (
	"context"

	"github.com/fwojciec/reelscrape"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*reelscrape.FetchResult, error)

// FetchFirst tries urls in order and returns the first successful fetch
// together with the URL that produced it. When every attempt fails the first
// error is returned: later URLs are alternate forms derived from the first,
// so its error is the meaningful one.
func FetchFirst(ctx context.Context, urls []string, fetch FetchFunc) (*reelscrape.FetchResult, string, error) {
	var firstErr error
	for _, u := range urls {
		res, err := fetch(ctx, u)
		if err == nil {
			return res, u, nil
		}
		if firstErr == nil {
			firstErr = err
		}

		// Don't try alternates once the caller gave up
		if ctx.Err() != nil {
			break
		}
	}
	if firstErr == nil {
		return nil, "", reelscrape.Errorf(reelscrape.EINVALID, "no url to fetch")
	}
	return nil, "", firstErr
}
