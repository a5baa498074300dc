// Package extract turns pages of the content site into reelscrape entities.
//
// The site uses several incompatible layouts for the same kind of page, so
// every page kind is read by an ordered chain of independent strategies. The
// first strategy producing a non-empty result wins. Strategies return hrefs
// exactly as found; joining them against the origin and deduplicating by URL
// happens once, after a strategy has been chosen.
package extract

import (
	"regexp"

	"github.com/fwojciec/reelscrape"
)

var _ reelscrape.Extractor = (*Extractor)(nil)

// Strategy is one way of reading a value of type T out of a parsed page.
type Strategy[T any] struct {
	Name    string
	Extract func(doc reelscrape.Node) T
}

// firstNonEmpty runs chain in order and returns the first result that is not
// empty, together with the name of the strategy that produced it.
func firstNonEmpty[T any](doc reelscrape.Node, chain []Strategy[T], empty func(T) bool) (T, string) {
	for _, s := range chain {
		if v := s.Extract(doc); !empty(v) {
			return v, s.Name
		}
	}
	var zero T
	return zero, ""
}

func isEmpty[E any](s []E) bool {
	return len(s) == 0
}

// DefaultBrand is the site-branding token stripped from category titles.
const DefaultBrand = "filmyzilla"

// Extractor implements reelscrape.Extractor with strategy chains over a
// reelscrape.HTMLParser document.
type Extractor struct {
	parser   reelscrape.HTMLParser
	origin   reelscrape.Origin
	brand    string
	category []Strategy[Listing]
	fields   []Strategy[Fields]
	servers  []Strategy[[]reelscrape.ServerLink]

	titleNoise *regexp.Regexp
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOrigin sets the origin relative hrefs are joined against.
// Defaults to reelscrape.DefaultOrigin.
func WithOrigin(o reelscrape.Origin) Option {
	return func(e *Extractor) {
		e.origin = o
	}
}

// WithBrand sets the site-branding token removed from category titles.
// Defaults to DefaultBrand.
func WithBrand(brand string) Option {
	return func(e *Extractor) {
		e.brand = brand
	}
}

// WithCategoryStrategies replaces the category chain.
func WithCategoryStrategies(chain ...Strategy[Listing]) Option {
	return func(e *Extractor) {
		e.category = chain
	}
}

// WithServerStrategies replaces the download-page chain.
func WithServerStrategies(chain ...Strategy[[]reelscrape.ServerLink]) Option {
	return func(e *Extractor) {
		e.servers = chain
	}
}

// New creates an Extractor using parser and the default strategy chains.
func New(parser reelscrape.HTMLParser, opts ...Option) *Extractor {
	e := &Extractor{
		parser:   parser,
		origin:   reelscrape.DefaultOrigin,
		brand:    DefaultBrand,
		category: CategoryStrategies(),
		fields:   FieldStrategies(),
		servers:  ServerStrategies(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.titleNoise = titleNoise(e.brand)
	return e
}

// Extract parses html as a page of the given kind.
func (e *Extractor) Extract(html string, kind reelscrape.PageKind, pageURL string) (*reelscrape.Entities, error) {
	switch kind {
	case reelscrape.PageCategory, reelscrape.PageMovie, reelscrape.PageServers, reelscrape.PageHome:
	default:
		return nil, reelscrape.Errorf(reelscrape.EINVALID, "unknown page kind %q", kind)
	}

	doc, err := e.parser.Parse(html)
	if err != nil {
		return nil, err
	}

	switch kind {
	case reelscrape.PageCategory:
		return &reelscrape.Entities{Category: e.extractCategory(doc, pageURL)}, nil
	case reelscrape.PageMovie:
		return &reelscrape.Entities{Movie: e.extractMovie(doc)}, nil
	case reelscrape.PageServers:
		return &reelscrape.Entities{Servers: e.extractServers(doc)}, nil
	default:
		return &reelscrape.Entities{Sections: e.extractSections(doc)}, nil
	}
}

// absoluteMovies joins movie and thumbnail URLs against the origin and drops
// entries whose URL was already seen.
func (e *Extractor) absoluteMovies(movies []reelscrape.MovieSummary) []reelscrape.MovieSummary {
	seen := make(map[string]bool, len(movies))
	out := make([]reelscrape.MovieSummary, 0, len(movies))
	for _, m := range movies {
		m.URL = e.origin.Absolute(m.URL)
		if m.URL == "" || seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		m.Thumbnail = e.origin.Absolute(m.Thumbnail)
		out = append(out, m)
	}
	return out
}
