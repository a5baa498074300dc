package mock

import (
	"context"

	"github.com/fwojciec/reelscrape"
)

var _ reelscrape.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of reelscrape.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error) {
	return f.FetchFn(ctx, url, opts)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
