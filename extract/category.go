package extract

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/reelscrape"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Listing is what a category strategy reads from a page. Strategies fill
// either SubCategories or Movies.
type Listing struct {
	SubCategories []reelscrape.SubCategory
	Movies        []reelscrape.MovieSummary
}

func (l Listing) empty() bool {
	return len(l.SubCategories) == 0 && len(l.Movies) == 0
}

// CategoryStrategies returns the default category chain. Subcategory markers
// come first: a page listing subcategories is never read for movies.
func CategoryStrategies() []Strategy[Listing] {
	return []Strategy[Listing]{
		{Name: "subcategories", Extract: SubCategoryLinks},
		{Name: "grid", Extract: GridItems},
		{Name: "media-card", Extract: MediaCards},
		{Name: "anchors", Extract: MovieAnchors},
	}
}

// SubCategoryLinks reads category links inside .touch containers.
func SubCategoryLinks(doc reelscrape.Node) Listing {
	var l Listing
	for _, a := range doc.Find(`.touch a[href*="/category/"]`) {
		title, href := text(a), attr(a, "href")
		if title == "" || href == "" {
			continue
		}
		l.SubCategories = append(l.SubCategories, reelscrape.SubCategory{
			Title:     title,
			URL:       href,
			Thumbnail: attr(findFirst(a, "img"), "src"),
		})
	}
	return l
}

// GridItems reads generic listing containers holding a movie link.
func GridItems(doc reelscrape.Node) Listing {
	var l Listing
	for _, item := range doc.Find(".movie-item, .post-item, .entry-item") {
		link := findFirst(item, `a[href*="/movie"]`)
		href := attr(link, "href")
		if href == "" {
			continue
		}

		title := attr(link, "title")
		if title == "" {
			title = text(link)
		}
		title = collapse(yearSuffix.ReplaceAllString(title, " "))
		if title == "" {
			continue
		}

		var year string
		if m := yearInParens.FindStringSubmatch(item.Text()); m != nil {
			year = m[1]
		}

		img := findFirst(item, "img")
		thumb := attr(img, "src")
		if thumb == "" {
			thumb = attr(img, "data-src")
		}

		l.Movies = append(l.Movies, reelscrape.MovieSummary{
			Title:     title,
			Year:      year,
			Quality:   reelscrape.QualityHD,
			Starcast:  reelscrape.NotAvailable,
			Length:    reelscrape.NotAvailable,
			Thumbnail: thumb,
			URL:       href,
		})
	}
	return l
}

// MediaCards reads the site's .filmyvideo cards that link to a movie page.
func MediaCards(doc reelscrape.Node) Listing {
	var l Listing
	for _, card := range doc.Find(".filmyvideo") {
		m, ok := readMediaCard(card)
		if !ok || !strings.Contains(m.URL, "/movie") {
			continue
		}
		l.Movies = append(l.Movies, m)
	}
	return l
}

// MovieAnchors is the last resort: every anchor pointing at a movie page.
func MovieAnchors(doc reelscrape.Node) Listing {
	var l Listing
	seen := make(map[string]bool)
	for _, a := range doc.Find(`a[href*="/movie"]`) {
		href := attr(a, "href")
		title := text(a)
		if title == "" {
			title = attr(a, "title")
		}
		if href == "" || utf8.RuneCountInString(title) <= 3 || seen[href] {
			continue
		}
		seen[href] = true

		img := findFirst(a, "img")
		thumb := attr(img, "src")
		if thumb == "" {
			thumb = attr(img, "data-src")
		}

		l.Movies = append(l.Movies, reelscrape.MovieSummary{
			Title:     title,
			Quality:   reelscrape.QualityHD,
			Starcast:  reelscrape.NotAvailable,
			Length:    reelscrape.NotAvailable,
			Thumbnail: thumb,
			URL:       href,
		})
	}
	return l
}

// readMediaCard reads one .filmyvideo card. Category pages and the
// related-movies block of movie pages share this layout.
func readMediaCard(card reelscrape.Node) (reelscrape.MovieSummary, bool) {
	m := reelscrape.MovieSummary{
		Quality:  reelscrape.QualityUnknown,
		Starcast: reelscrape.NotAvailable,
		Length:   reelscrape.NotAvailable,
	}

	if card.Is("a") {
		m.URL = attr(card, "href")
	} else {
		m.URL = attr(findFirst(card, "a[href]"), "href")
	}
	m.Thumbnail = attr(findFirst(card, "img"), "src")

	var titleNode reelscrape.Node
	if info := findFirst(card, ".informationn"); info != nil {
		if ps := info.Find("p"); len(ps) > 1 {
			titleNode = ps[1]
		}
	}
	if titleNode == nil {
		titleNode = findFirst(card, `font[size="2"]`)
	}
	if titleNode != nil {
		raw := text(titleNode)
		if q := findFirst(titleNode, redValue+" small"); q != nil {
			if quality := text(q); quality != "" {
				m.Quality = orDefault(stripParens(quality), reelscrape.QualityUnknown)
				raw = collapse(strings.Replace(raw, quality, "", 1))
			}
		}
		m.Title, m.Year = splitYear(raw)
	}

	if v := textOf(card.Find(".artist " + greenValue)); v != "" {
		m.Starcast = v
	}
	if v := textOf(card.Find(".duration " + greenValue)); v != "" {
		m.Length = v
	}
	if m.Starcast == reelscrape.NotAvailable || m.Length == reelscrape.NotAvailable {
		f := readLabelled(card.Find("p.black"))
		if m.Starcast == reelscrape.NotAvailable && f.Starcast != "" {
			m.Starcast = f.Starcast
		}
		if m.Length == reelscrape.NotAvailable && f.Length != "" {
			m.Length = f.Length
		}
	}

	return m, m.Title != "" && m.URL != ""
}

func (e *Extractor) extractCategory(doc reelscrape.Node, pageURL string) *reelscrape.Category {
	listing, _ := firstNonEmpty(doc, e.category, Listing.empty)

	c := &reelscrape.Category{
		Title:         e.categoryTitle(doc, pageURL),
		SourceURL:     pageURL,
		Movies:        []reelscrape.MovieSummary{},
		SubCategories: []reelscrape.SubCategory{},
	}
	if len(listing.SubCategories) > 0 {
		c.SubCategories = e.absoluteSubCategories(listing.SubCategories)
		return c
	}
	c.Movies = e.absoluteMovies(listing.Movies)
	return c
}

func (e *Extractor) absoluteSubCategories(subs []reelscrape.SubCategory) []reelscrape.SubCategory {
	seen := make(map[string]bool, len(subs))
	out := make([]reelscrape.SubCategory, 0, len(subs))
	for _, s := range subs {
		s.URL = e.origin.Absolute(s.URL)
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		s.Thumbnail = e.origin.Absolute(s.Thumbnail)
		out = append(out, s)
	}
	return out
}

// placeholderTitle is what the site shows when a page has no real title.
const placeholderTitle = "Category"

// categoryTitle picks the first usable title candidate, strips branding and
// falls back to the URL's last path segment.
func (e *Extractor) categoryTitle(doc reelscrape.Node, pageURL string) string {
	candidates := []func() string{
		func() string { return text(findFirst(doc, ".head")) },
		func() string { return text(findFirst(doc, "h1")) },
		func() string { return textOf(doc.Find("title")) },
		func() string { return text(findFirst(doc, ".page-title")) },
		func() string { return text(findFirst(doc, ".category-title")) },
		func() string { return lastPathSegment(doc) },
	}

	var title string
	for _, candidate := range candidates {
		if c := candidate(); c != "" && c != placeholderTitle {
			title = c
			break
		}
	}

	title = e.cleanTitle(title)
	if title == "" || title == placeholderTitle {
		title = titleFromURL(pageURL)
	}
	if title == "" {
		return placeholderTitle
	}
	return title
}

func (e *Extractor) cleanTitle(title string) string {
	return collapse(e.titleNoise.ReplaceAllString(title, ""))
}

// titleNoise matches the branding and filler words removed from titles.
func titleNoise(brand string) *regexp.Regexp {
	if brand == "" {
		return regexp.MustCompile(`(?i)download|movies?`)
	}
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(brand) + `|download|movies?`)
}

// lastPathSegment returns the last "»"-separated part of the .path element.
func lastPathSegment(doc reelscrape.Node) string {
	parts := strings.Split(textOf(doc.Find(".path")), "»")
	return collapse(parts[len(parts)-1])
}

// titleFromURL derives a title from the last path segment of rawURL,
// e.g. ".../hollywood-hindi-dubbed.html" becomes "Hollywood Hindi Dubbed".
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	switch strings.ToLower(path.Ext(seg)) {
	case ".html", ".htm", ".php":
		seg = strings.TrimSuffix(seg, path.Ext(seg))
	}
	seg = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(seg)
	// Casers are stateful, so each call gets its own. NoLower keeps
	// acronyms such as HD intact.
	return cases.Title(language.English, cases.NoLower).String(collapse(seg))
}
