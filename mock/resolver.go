package mock

import (
	"context"

	"github.com/fwojciec/reelscrape"
)

var _ reelscrape.Resolver = (*Resolver)(nil)

// Resolver is a mock implementation of reelscrape.Resolver.
type Resolver struct {
	ResolveFn func(ctx context.Context, url string) (*reelscrape.ResolutionResult, error)
}

func (r *Resolver) Resolve(ctx context.Context, url string) (*reelscrape.ResolutionResult, error) {
	return r.ResolveFn(ctx, url)
}
