// Package scrape composes fetching and extraction into catalog lookups.
package scrape

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/reelscrape"
	"golang.org/x/sync/errgroup"
)

var _ reelscrape.CatalogService = (*Service)(nil)

// Defaults for Service fields left at their zero value.
const (
	DefaultConcurrency     = 8
	DefaultCategoryTimeout = 5 * time.Second
)

// Service implements reelscrape.CatalogService against the live site.
type Service struct {
	Fetcher     reelscrape.Fetcher
	Extractor   reelscrape.Extractor
	Origin      reelscrape.Origin
	RateLimiter reelscrape.DomainLimiter

	// Concurrency bounds the category pages fetched at once by FindHome.
	Concurrency int
	// CategoryTimeout bounds each category page fetched by FindHome.
	CategoryTimeout time.Duration

	Logger *slog.Logger
}

// FindCategory fetches sourceURL, falling back to its /category/ form.
func (s *Service) FindCategory(ctx context.Context, sourceURL string) (*reelscrape.Category, error) {
	urls := []string{sourceURL}
	if alt, ok := s.origin().CategoryAlternate(sourceURL); ok {
		urls = append(urls, alt)
	}

	ents, err := s.fetchAndExtract(ctx, urls, reelscrape.PageCategory)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if ents.Category == nil {
		return nil, reelscrape.Errorf(reelscrape.EINTERNAL, "no category extracted from %s", sourceURL)
	}
	return ents.Category, nil
}

// FindMovie fetches sourceURL, falling back to the /movie/ ↔ /movies/ form.
func (s *Service) FindMovie(ctx context.Context, sourceURL string) (*reelscrape.MovieDetail, error) {
	urls := []string{sourceURL}
	if alt, ok := reelscrape.MovieAlternate(sourceURL); ok {
		urls = append(urls, alt)
	}

	ents, err := s.fetchAndExtract(ctx, urls, reelscrape.PageMovie)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	if ents.Movie == nil {
		return nil, reelscrape.Errorf(reelscrape.EINTERNAL, "no movie extracted from %s", sourceURL)
	}
	return ents.Movie, nil
}

// FindServers fetches a download page and lists its server links.
func (s *Service) FindServers(ctx context.Context, sourceURL string) (*reelscrape.ServerListing, error) {
	ents, err := s.fetchAndExtract(ctx, []string{sourceURL}, reelscrape.PageServers)
	if err != nil {
		return nil, fmt.Errorf("find servers: %w", err)
	}
	if ents.Servers == nil {
		return nil, reelscrape.Errorf(reelscrape.EINTERNAL, "no servers extracted from %s", sourceURL)
	}
	return ents.Servers, nil
}

// FindHome reads the homepage and replaces the inline listing of every
// latest-updates section with the movies of its category page. Sections
// whose page fails or lists no movies are dropped; other sections follow
// unchanged.
func (s *Service) FindHome(ctx context.Context) ([]reelscrape.Section, error) {
	sections, err := s.homeSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("find home: %w", err)
	}

	var updates, others []reelscrape.Section
	for _, sec := range sections {
		if sec.Update {
			updates = append(updates, sec)
		} else {
			others = append(others, sec)
		}
	}

	results := make([]*reelscrape.Section, len(updates))
	var g errgroup.Group
	g.SetLimit(cmp.Or(s.Concurrency, DefaultConcurrency))
	for i, sec := range updates {
		g.Go(func() error {
			movies, err := s.categoryMovies(ctx, sec.URL)
			if err != nil {
				s.logger().Warn("dropping home section", "section", sec.Title, "url", sec.URL, "err", err)
				return nil
			}
			if len(movies) == 0 {
				return nil
			}
			sec.Movies = movies
			results[i] = &sec
			return nil
		})
	}
	_ = g.Wait()

	out := make([]reelscrape.Section, 0, len(results)+len(others))
	for _, sec := range results {
		if sec != nil {
			out = append(out, *sec)
		}
	}
	return append(out, others...), nil
}

// FindHomeSection returns the first latest-updates section whose title
// contains name, case-insensitively, with its inline movies.
func (s *Service) FindHomeSection(ctx context.Context, name string) (*reelscrape.Section, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, reelscrape.Errorf(reelscrape.EINVALID, "section name required")
	}

	sections, err := s.homeSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("find home section: %w", err)
	}
	for _, sec := range sections {
		if sec.Update && strings.Contains(strings.ToLower(sec.Title), name) {
			return &sec, nil
		}
	}
	return nil, reelscrape.Errorf(reelscrape.ENOTFOUND, "section %q not found", name)
}

func (s *Service) homeSections(ctx context.Context) ([]reelscrape.Section, error) {
	ents, err := s.fetchAndExtract(ctx, []string{s.origin().String() + "/"}, reelscrape.PageHome)
	if err != nil {
		return nil, err
	}
	return ents.Sections, nil
}

// categoryMovies fetches one category page under its own timeout.
func (s *Service) categoryMovies(ctx context.Context, pageURL string) ([]reelscrape.MovieSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, cmp.Or(s.CategoryTimeout, DefaultCategoryTimeout))
	defer cancel()

	ents, err := s.fetchAndExtract(ctx, []string{pageURL}, reelscrape.PageCategory)
	if err != nil {
		return nil, err
	}
	if ents.Category == nil {
		return nil, nil
	}
	return ents.Category.Movies, nil
}

func (s *Service) fetchAndExtract(ctx context.Context, urls []string, kind reelscrape.PageKind) (*reelscrape.Entities, error) {
	res, fetched, err := FetchFirst(ctx, urls, s.fetch)
	if err != nil {
		return nil, err
	}
	return s.Extractor.Extract(res.Body, kind, fetched)
}

// fetch waits for the domain's rate limit, then fetches the page body.
func (s *Service) fetch(ctx context.Context, pageURL string) (*reelscrape.FetchResult, error) {
	if s.RateLimiter != nil {
		if err := s.RateLimiter.Wait(ctx, domain(pageURL)); err != nil {
			return nil, err
		}
	}

	res, err := s.Fetcher.Fetch(ctx, pageURL, reelscrape.FetchOptions{})
	if err != nil {
		s.logger().Debug("fetch failed", "url", pageURL, "err", err)
		return nil, err
	}
	return res, nil
}

func domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

func (s *Service) origin() reelscrape.Origin {
	if s.Origin == "" {
		return reelscrape.DefaultOrigin
	}
	return s.Origin
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
