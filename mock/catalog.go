package mock

import (
	"context"

	"github.com/fwojciec/reelscrape"
)

var _ reelscrape.CatalogService = (*CatalogService)(nil)

// CatalogService is a mock implementation of reelscrape.CatalogService.
type CatalogService struct {
	FindCategoryFn    func(ctx context.Context, sourceURL string) (*reelscrape.Category, error)
	FindMovieFn       func(ctx context.Context, sourceURL string) (*reelscrape.MovieDetail, error)
	FindServersFn     func(ctx context.Context, sourceURL string) (*reelscrape.ServerListing, error)
	FindHomeFn        func(ctx context.Context) ([]reelscrape.Section, error)
	FindHomeSectionFn func(ctx context.Context, name string) (*reelscrape.Section, error)
}

func (s *CatalogService) FindCategory(ctx context.Context, sourceURL string) (*reelscrape.Category, error) {
	return s.FindCategoryFn(ctx, sourceURL)
}

func (s *CatalogService) FindMovie(ctx context.Context, sourceURL string) (*reelscrape.MovieDetail, error) {
	return s.FindMovieFn(ctx, sourceURL)
}

func (s *CatalogService) FindServers(ctx context.Context, sourceURL string) (*reelscrape.ServerListing, error) {
	return s.FindServersFn(ctx, sourceURL)
}

func (s *CatalogService) FindHome(ctx context.Context) ([]reelscrape.Section, error) {
	return s.FindHomeFn(ctx)
}

func (s *CatalogService) FindHomeSection(ctx context.Context, name string) (*reelscrape.Section, error) {
	return s.FindHomeSectionFn(ctx, name)
}
