package reelscrape

// Node is a parsed HTML element. Extraction code talks to pages only through
// this interface so it stays independent of the parsing library.
type Node interface {
	// Find returns the descendants matching a CSS selector, in document order.
	Find(selector string) []Node

	// Attr returns the named attribute and whether it was present.
	Attr(name string) (string, bool)

	// Text returns the combined text of the node and its descendants.
	Text() string

	// Children returns the element children of the node.
	Children() []Node

	// Next returns the following element sibling, or nil.
	Next() Node

	// Is reports whether the node itself matches the selector.
	Is(selector string) bool
}

// HTMLParser parses raw HTML into a document root Node.
type HTMLParser interface {
	Parse(html string) (Node, error)
}
