package reelscrape

import "context"

// CatalogService reads listings and details from the content site. Every
// call fetches fresh pages; nothing is cached or stored.
type CatalogService interface {
	// FindCategory returns the category at sourceURL. If the URL cannot be
	// fetched, its alternate category form is tried once before failing.
	FindCategory(ctx context.Context, sourceURL string) (*Category, error)

	// FindMovie returns the movie at sourceURL, retrying once with the
	// singular/plural alternate path segment.
	FindMovie(ctx context.Context, sourceURL string) (*MovieDetail, error)

	// FindServers returns the server links of a download page.
	FindServers(ctx context.Context, sourceURL string) (*ServerListing, error)

	// FindHome returns the homepage sections with movies read from each
	// section's category page. Sections whose page fails are dropped.
	FindHome(ctx context.Context) ([]Section, error)

	// FindHomeSection returns the homepage section whose title contains name.
	// Returns ENOTFOUND if no section matches.
	FindHomeSection(ctx context.Context, name string) (*Section, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
