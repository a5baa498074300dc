package reelscrape

// PageKind identifies which layout family a page belongs to.
type PageKind string

// Supported page kinds.
const (
	PageCategory PageKind = "category"
	PageMovie    PageKind = "movie"
	PageServers  PageKind = "servers"
	PageHome     PageKind = "home"
)

// Entities holds what was extracted from a page. Exactly the field matching
// the requested PageKind is set.
type Entities struct {
	Category *Category
	Movie    *MovieDetail
	Servers  *ServerListing
	Sections []Section
}

// Empty reports whether nothing was extracted.
func (e *Entities) Empty() bool {
	if e == nil {
		return true
	}
	switch {
	case e.Category != nil && (len(e.Category.Movies) > 0 || len(e.Category.SubCategories) > 0):
		return false
	case e.Movie != nil:
		return false
	case e.Servers != nil && len(e.Servers.Servers) > 0:
		return false
	case len(e.Sections) > 0:
		return false
	}
	return true
}

// Extractor turns raw HTML into typed entities. Extraction is a pure
// function of its inputs: no network access and no shared state.
type Extractor interface {
	// Extract parses html as a page of the given kind. pageURL is the URL the
	// page was fetched from and is used only as a last-resort title source.
	// An empty result is not an error; EINVALID is returned for unknown
	// kinds or unparseable input.
	Extract(html string, kind PageKind, pageURL string) (*Entities, error)
}
