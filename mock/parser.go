package mock

import "github.com/fwojciec/reelscrape"

var _ reelscrape.HTMLParser = (*HTMLParser)(nil)

// HTMLParser is a mock implementation of reelscrape.HTMLParser.
type HTMLParser struct {
	ParseFn func(html string) (reelscrape.Node, error)
}

func (p *HTMLParser) Parse(html string) (reelscrape.Node, error) {
	return p.ParseFn(html)
}
