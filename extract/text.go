package extract

import (
	"regexp"
	"strings"

	"github.com/fwojciec/reelscrape"
)

var (
	yearInParens   = regexp.MustCompile(`\((\d{4})\)`)
	yearSuffix     = regexp.MustCompile(`\s*\(\d{4}\)\s*`)
	titleWithYear  = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)`)
	trailingParens = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// Selectors shared by several page kinds.
const (
	greenValue = `font[color="green"]`
	redValue   = `font[color="red"]`
)

func first(nodes []reelscrape.Node) reelscrape.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func findFirst(n reelscrape.Node, selector string) reelscrape.Node {
	if n == nil {
		return nil
	}
	return first(n.Find(selector))
}

func attr(n reelscrape.Node, name string) string {
	if n == nil {
		return ""
	}
	v, _ := n.Attr(name)
	return strings.TrimSpace(v)
}

func text(n reelscrape.Node) string {
	if n == nil {
		return ""
	}
	return collapse(n.Text())
}

// textOf concatenates the text of all nodes, like reading a multi-element
// selection at once.
func textOf(nodes []reelscrape.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text())
	}
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitYear separates a trailing "(YYYY)" from a title.
func splitYear(s string) (title, year string) {
	if m := titleWithYear.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return strings.TrimSpace(trailingParens.ReplaceAllString(s, "")), ""
}

func stripParens(s string) string {
	return strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(s))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
