package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/reelscrape"
)

// Ensure LoggingCatalogService implements reelscrape.CatalogService.
var _ reelscrape.CatalogService = (*LoggingCatalogService)(nil)

// LoggingCatalogService wraps a CatalogService with logging.
type LoggingCatalogService struct {
	next   reelscrape.CatalogService
	logger *slog.Logger
}

// NewLoggingCatalogService creates a new LoggingCatalogService.
func NewLoggingCatalogService(next reelscrape.CatalogService, logger *slog.Logger) *LoggingCatalogService {
	return &LoggingCatalogService{next: next, logger: logger}
}

// FindCategory delegates to the wrapped service and logs the operation.
func (s *LoggingCatalogService) FindCategory(ctx context.Context, sourceURL string) (c *reelscrape.Category, err error) {
	defer func(begin time.Time) {
		var movies, subs int
		if c != nil {
			movies, subs = len(c.Movies), len(c.SubCategories)
		}
		s.logger.Info("find category",
			"url", sourceURL,
			"movies", movies,
			"subcategories", subs,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindCategory(ctx, sourceURL)
}

// FindMovie delegates to the wrapped service and logs the operation.
func (s *LoggingCatalogService) FindMovie(ctx context.Context, sourceURL string) (m *reelscrape.MovieDetail, err error) {
	defer func(begin time.Time) {
		var links int
		if m != nil {
			links = len(m.DownloadLinks)
		}
		s.logger.Info("find movie",
			"url", sourceURL,
			"links", links,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindMovie(ctx, sourceURL)
}

// FindServers delegates to the wrapped service and logs the operation.
func (s *LoggingCatalogService) FindServers(ctx context.Context, sourceURL string) (l *reelscrape.ServerListing, err error) {
	defer func(begin time.Time) {
		var servers int
		if l != nil {
			servers = len(l.Servers)
		}
		s.logger.Info("find servers",
			"url", sourceURL,
			"servers", servers,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindServers(ctx, sourceURL)
}

// FindHome delegates to the wrapped service and logs the operation.
func (s *LoggingCatalogService) FindHome(ctx context.Context) (sections []reelscrape.Section, err error) {
	defer func(begin time.Time) {
		s.logger.Info("find home",
			"sections", len(sections),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindHome(ctx)
}

// FindHomeSection delegates to the wrapped service and logs the operation.
func (s *LoggingCatalogService) FindHomeSection(ctx context.Context, name string) (sec *reelscrape.Section, err error) {
	defer func(begin time.Time) {
		var movies int
		if sec != nil {
			movies = len(sec.Movies)
		}
		s.logger.Info("find home section",
			"name", name,
			"movies", movies,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindHomeSection(ctx, name)
}
