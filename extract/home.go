package extract

import (
	"strings"

	"github.com/fwojciec/reelscrape"
)

// siblingLookahead bounds how far past a movie link its quality tag may sit.
const siblingLookahead = 3

// Sections reads the homepage: every .update block with its inline movie
// links, then every .touch block as a section without movies.
func Sections(doc reelscrape.Node) []reelscrape.Section {
	var sections []reelscrape.Section
	for _, block := range doc.Find(".update") {
		link := findFirst(block, ".black a")
		title, href := text(link), attr(link, "href")
		if title == "" || href == "" {
			continue
		}

		s := reelscrape.Section{Title: title, URL: href, Movies: []reelscrape.MovieSummary{}, Update: true}
		for _, a := range block.Find("a[href]") {
			movieHref, movieTitle := attr(a, "href"), text(a)
			if movieTitle == "" || movieHref == href || !strings.Contains(movieHref, "/movie") {
				continue
			}
			s.Movies = append(s.Movies, reelscrape.MovieSummary{
				Title:    movieTitle,
				Quality:  adjacentQuality(a),
				Starcast: reelscrape.NotAvailable,
				Length:   reelscrape.NotAvailable,
				URL:      movieHref,
			})
		}
		sections = append(sections, s)
	}

	for _, block := range doc.Find(".touch") {
		link := findFirst(block, "a")
		title, href := text(link), attr(link, "href")
		if title == "" || href == "" {
			continue
		}
		sections = append(sections, reelscrape.Section{Title: title, URL: href, Movies: []reelscrape.MovieSummary{}})
	}
	return sections
}

// adjacentQuality reads a "[quality]" tag following a movie link.
func adjacentQuality(a reelscrape.Node) string {
	n := a.Next()
	for i := 0; i < siblingLookahead && n != nil; i++ {
		if n.Is(greenValue) {
			q := strings.TrimSpace(strings.NewReplacer("[", "", "]", "").Replace(text(n)))
			return orDefault(q, reelscrape.QualityUnknown)
		}
		n = n.Next()
	}
	return reelscrape.QualityUnknown
}

func (e *Extractor) extractSections(doc reelscrape.Node) []reelscrape.Section {
	sections := Sections(doc)
	for i := range sections {
		sections[i].URL = e.origin.Absolute(sections[i].URL)
		sections[i].Movies = e.absoluteMovies(sections[i].Movies)
	}
	return sections
}
