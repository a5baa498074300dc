package mock

import "github.com/fwojciec/reelscrape"

var _ reelscrape.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of reelscrape.Extractor.
type Extractor struct {
	ExtractFn func(html string, kind reelscrape.PageKind, pageURL string) (*reelscrape.Entities, error)
}

func (e *Extractor) Extract(html string, kind reelscrape.PageKind, pageURL string) (*reelscrape.Entities, error) {
	return e.ExtractFn(html, kind, pageURL)
}
