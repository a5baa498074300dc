package extract

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fwojciec/reelscrape"
)

var (
	serverInText = regexp.MustCompile(`(?i)server\s*(\d+)`)
	serverInURL  = regexp.MustCompile(`(?i)servers?_(\d+)`)
	callToAction = regexp.MustCompile(`(?i)^\s*(?:start\s+download\s+now|download\s+now|click\s+here)\s*-?\s*`)
	videoFile    = regexp.MustCompile(`(?i)\.(?:mp4|mkv|avi)(?:[?#]|$)`)
	fileSize     = regexp.MustCompile(`(?i)([\d.]+\s*(?:MB|GB|KB))`)
)

// ServerStrategies returns the default download-page chain.
func ServerStrategies() []Strategy[[]reelscrape.ServerLink] {
	return []Strategy[[]reelscrape.ServerLink]{
		{Name: "download-button", Extract: DownloadButtons},
		{Name: "fast", Extract: FastLinks},
		{Name: "links", Extract: ServerAnchors},
	}
}

// DownloadButtons reads the site's a.newdl buttons. A button without a
// server number in its text or URL is numbered by position.
func DownloadButtons(doc reelscrape.Node) []reelscrape.ServerLink {
	var servers []reelscrape.ServerLink
	for i, a := range doc.Find("a.newdl") {
		href, label := attr(a, "href"), text(a)
		if href == "" || label == "" {
			continue
		}
		num := serverNumber(label, href)
		if num == "" {
			num = strconv.Itoa(i + 1)
		}
		servers = append(servers, reelscrape.ServerLink{
			Title:        serverTitle(label, num, len(servers)+1),
			URL:          href,
			ServerNumber: num,
		})
	}
	return servers
}

// FastLinks reads .fast and .fastl elements, either anchors themselves or
// wrappers around one. Unnumbered entries take their position.
func FastLinks(doc reelscrape.Node) []reelscrape.ServerLink {
	var servers []reelscrape.ServerLink
	for _, n := range doc.Find(".fast, .fastl") {
		href := attr(n, "href")
		if href == "" {
			href = attr(findFirst(n, "a[href]"), "href")
		}
		if href == "" {
			continue
		}
		label := text(n)
		num := serverNumber(label, href)
		if num == "" {
			num = strconv.Itoa(len(servers) + 1)
		}
		servers = append(servers, reelscrape.ServerLink{
			Title:        serverTitle(label, num, len(servers)+1),
			URL:          href,
			ServerNumber: num,
		})
	}
	return servers
}

// ServerAnchors reads any anchor pointing at a download/server page or a raw
// video file. Unnumbered entries take their position.
func ServerAnchors(doc reelscrape.Node) []reelscrape.ServerLink {
	var servers []reelscrape.ServerLink
	for _, a := range doc.Find("a[href]") {
		href := attr(a, "href")
		if !isServerHref(href) {
			continue
		}
		label := text(a)
		num := serverNumber(label, href)
		if num == "" {
			num = strconv.Itoa(len(servers) + 1)
		}
		servers = append(servers, reelscrape.ServerLink{
			Title:        serverTitle(label, num, len(servers)+1),
			URL:          href,
			ServerNumber: num,
		})
	}
	return servers
}

func isServerHref(href string) bool {
	lower := strings.ToLower(href)
	return strings.Contains(lower, "/downloads/") ||
		strings.Contains(lower, "/download/") ||
		strings.Contains(lower, "/server") ||
		videoFile.MatchString(lower)
}

// serverNumber reads "Server N" from the label, else "servers_N" from the URL.
func serverNumber(label, href string) string {
	if m := serverInText.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	if m := serverInURL.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// serverTitle strips call-to-action prefixes from a button label and names
// unlabeled entries after their server number or position.
func serverTitle(label, num string, position int) string {
	title := strings.TrimSpace(callToAction.ReplaceAllString(label, ""))
	switch {
	case title != "":
		return title
	case num != "":
		return "Server " + num
	default:
		return "Download Link " + strconv.Itoa(position)
	}
}

func serverOrder(s reelscrape.ServerLink) int {
	n, err := strconv.Atoi(s.ServerNumber)
	if err != nil {
		return math.MaxInt
	}
	return n
}

func (e *Extractor) extractServers(doc reelscrape.Node) *reelscrape.ServerListing {
	found, _ := firstNonEmpty(doc, e.servers, isEmpty[reelscrape.ServerLink])

	seen := make(map[string]bool, len(found))
	servers := make([]reelscrape.ServerLink, 0, len(found))
	for _, s := range found {
		s.URL = e.origin.Absolute(s.URL)
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		servers = append(servers, s)
	}
	slices.SortStableFunc(servers, func(a, b reelscrape.ServerLink) int {
		return cmp.Compare(serverOrder(a), serverOrder(b))
	})

	listing := &reelscrape.ServerListing{Servers: servers}
	listing.FileName, listing.FileSize = fileInfo(doc)
	return listing
}

// fileInfo reads the file name and size shown on a download page.
func fileInfo(doc reelscrape.Node) (name, size string) {
	for _, n := range doc.Find(".whole, .bld") {
		t := text(n)
		if size == "" {
			if m := fileSize.FindStringSubmatch(t); m != nil {
				size = m[1]
			}
		}
		if name == "" {
			if _, after, ok := strings.Cut(t, "File:"); ok {
				name = strings.TrimSpace(after)
			}
		}
	}
	if name == "" {
		name = text(findFirst(doc, ".head"))
	}
	if name == "" {
		name = textOf(doc.Find("title"))
	}
	return name, size
}
