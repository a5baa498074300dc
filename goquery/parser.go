// Package goquery implements reelscrape.HTMLParser on top of
// github.com/PuerkitoBio/goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/reelscrape"
)

var _ reelscrape.HTMLParser = (*Parser)(nil)

// Parser parses HTML documents with goquery.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses html and returns the document root.
func (p *Parser) Parse(html string) (reelscrape.Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, reelscrape.Errorf(reelscrape.EINVALID, "failed to parse HTML: %v", err)
	}
	return &node{sel: doc.Selection}, nil
}

var _ reelscrape.Node = (*node)(nil)

// node wraps a goquery selection holding exactly one element
// (or the document itself).
type node struct {
	sel *goquery.Selection
}

func (n *node) Find(selector string) []reelscrape.Node {
	return wrap(n.sel.Find(selector))
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *node) Text() string {
	return n.sel.Text()
}

func (n *node) Children() []reelscrape.Node {
	return wrap(n.sel.Children())
}

func (n *node) Next() reelscrape.Node {
	next := n.sel.Next()
	if next.Length() == 0 {
		return nil
	}
	return &node{sel: next}
}

func (n *node) Is(selector string) bool {
	return n.sel.Is(selector)
}

func wrap(sel *goquery.Selection) []reelscrape.Node {
	if sel.Length() == 0 {
		return nil
	}
	nodes := make([]reelscrape.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &node{sel: s})
	})
	return nodes
}
