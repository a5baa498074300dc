package extract

import (
	"regexp"
	"strings"

	"github.com/fwojciec/reelscrape"
)

// Fields holds the labelled values of a movie page.
type Fields struct {
	Starcast    string
	Genres      string
	Quality     string
	Length      string
	ReleaseDate string
	Story       string
}

func (f Fields) empty() bool {
	return f == Fields{}
}

// detailLabels are matched in order; a paragraph feeds the first label it
// mentions.
var detailLabels = []string{"starcast", "genres", "quality", "length", "release date", "story"}

// FieldStrategies returns the default chain for labelled movie fields.
func FieldStrategies() []Strategy[Fields] {
	return []Strategy[Fields]{
		{Name: "labelled", Extract: LabelledFields},
		{Name: "paragraphs", Extract: ParagraphFields},
	}
}

// LabelledFields reads fields from the site's p.info and p.black paragraphs.
func LabelledFields(doc reelscrape.Node) Fields {
	return readLabelled(doc.Find("p.info, p.black"))
}

// ParagraphFields reads fields from any paragraph.
func ParagraphFields(doc reelscrape.Node) Fields {
	return readLabelled(doc.Find("p"))
}

// readLabelled assigns the green value of every paragraph to the first label
// found in the rest of the paragraph text. Fields keep their first value.
func readLabelled(paragraphs []reelscrape.Node) Fields {
	values := make(map[string]string, len(detailLabels))
	for _, p := range paragraphs {
		value := textOf(p.Find(greenValue))
		if value == "" {
			continue
		}
		label := strings.ToLower(strings.Replace(text(p), value, "", 1))
		for _, l := range detailLabels {
			if !strings.Contains(label, l) {
				continue
			}
			if _, ok := values[l]; !ok {
				values[l] = value
			}
			break
		}
	}
	return Fields{
		Starcast:    values["starcast"],
		Genres:      values["genres"],
		Quality:     values["quality"],
		Length:      values["length"],
		ReleaseDate: values["release date"],
		Story:       values["story"],
	}
}

// breadcrumbSeparator splits the text of the .path element.
const breadcrumbSeparator = "»"

// Breadcrumb reads the .path element's anchors, without "Home", followed by
// the page's own label when it is not already last.
func Breadcrumb(doc reelscrape.Node) []string {
	crumbs := []string{}
	for _, a := range doc.Find(".path a") {
		if t := text(a); t != "" && t != "Home" {
			crumbs = append(crumbs, t)
		}
	}

	var last string
	for _, part := range strings.Split(textOf(doc.Find(".path")), breadcrumbSeparator) {
		if part = collapse(part); part != "" && part != "Home" {
			last = part
		}
	}
	if last != "" && (len(crumbs) == 0 || crumbs[len(crumbs)-1] != last) {
		crumbs = append(crumbs, last)
	}
	return crumbs
}

var sizeInParens = regexp.MustCompile(`(?i)\(([^)]+(?:MB|GB|KB)[^)]*)\)`)

const sizeSpan = `span[style*="color:#339900"]`

// DownloadLinks reads one server link per .touch block.
func DownloadLinks(doc reelscrape.Node) []reelscrape.DownloadLink {
	var links []reelscrape.DownloadLink
	for _, block := range doc.Find(".touch") {
		link := findFirst(block, `a[href*="/server/"]`)
		if link == nil {
			link = findFirst(block, `a[href*="/servers/"]`)
		}
		if link == nil {
			continue
		}

		title := textOf(link.Find(redValue))
		if title == "" {
			title = text(link)
		}
		href := attr(link, "href")
		if title == "" || href == "" {
			continue
		}

		links = append(links, reelscrape.DownloadLink{
			Title: title,
			URL:   href,
			Size:  downloadSize(block),
		})
	}
	return links
}

func downloadSize(block reelscrape.Node) string {
	source := block
	if small := findFirst(block, "small"); small != nil {
		if span := findFirst(small, sizeSpan); span != nil {
			return text(span)
		}
		source = small
	}
	if m := sizeInParens.FindStringSubmatch(source.Text()); m != nil {
		return collapse(m[1])
	}
	return ""
}

// RelatedMovies reads the media cards of a movie page.
func RelatedMovies(doc reelscrape.Node) []reelscrape.MovieSummary {
	var movies []reelscrape.MovieSummary
	for _, card := range doc.Find(".filmyvideo") {
		if m, ok := readMediaCard(card); ok {
			movies = append(movies, m)
		}
	}
	return movies
}

func (e *Extractor) extractMovie(doc reelscrape.Node) *reelscrape.MovieDetail {
	d := &reelscrape.MovieDetail{
		Title:      text(findFirst(doc, ".head")),
		Breadcrumb: Breadcrumb(doc),
	}

	thumb := attr(findFirst(doc, ".imglarge img"), "src")
	if thumb == "" {
		thumb = attr(findFirst(doc, ".video img"), "src")
	}
	d.Thumbnail = e.origin.Absolute(thumb)

	f, _ := firstNonEmpty(doc, e.fields, Fields.empty)
	d.Starcast = f.Starcast
	d.Genres = f.Genres
	d.Quality = f.Quality
	d.Length = f.Length
	d.ReleaseDate = f.ReleaseDate
	d.Story = f.Story

	seen := make(map[string]bool)
	d.DownloadLinks = []reelscrape.DownloadLink{}
	for _, l := range DownloadLinks(doc) {
		l.URL = e.origin.Absolute(l.URL)
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		d.DownloadLinks = append(d.DownloadLinks, l)
	}

	d.RelatedMovies = e.absoluteMovies(RelatedMovies(doc))
	return d
}
