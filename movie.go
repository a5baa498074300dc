package reelscrape

// Category is a listing page of the content site. A category lists either
// movies or subcategories; when subcategories are present Movies is empty.
type Category struct {
	Title         string         `json:"categoryTitle"`
	SourceURL     string         `json:"sourceUrl"`
	Movies        []MovieSummary `json:"movies"`
	SubCategories []SubCategory  `json:"subCategories"`
}

// HasSubCategories reports whether the category is a subcategory listing.
func (c *Category) HasSubCategories() bool {
	return len(c.SubCategories) > 0
}

// SubCategory links to a nested category page.
type SubCategory struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Default field values for movie summaries.
const (
	QualityHD      = "HD"
	QualityUnknown = "Unknown"
	NotAvailable   = "N/A"
)

// MovieSummary is a movie as it appears in listings and related-movie blocks.
type MovieSummary struct {
	Title     string `json:"title"`
	Year      string `json:"year"`
	Quality   string `json:"quality"`
	Starcast  string `json:"starcast"`
	Length    string `json:"length"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

// MovieDetail is the content of a movie page.
type MovieDetail struct {
	Title         string         `json:"title"`
	Starcast      string         `json:"starcast"`
	Genres        string         `json:"genres"`
	Quality       string         `json:"quality"`
	Length        string         `json:"length"`
	ReleaseDate   string         `json:"releaseDate"`
	Story         string         `json:"story"`
	Thumbnail     string         `json:"thumbnail"`
	Breadcrumb    []string       `json:"breadcrumb"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
	RelatedMovies []MovieSummary `json:"relatedMovies"`
}

// DownloadLink points from a movie page to a download/server page.
type DownloadLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	// Size is formatted like "1.2 GB" and may be empty.
	Size string `json:"size"`
}

// ServerLink is one server entry of a download page.
type ServerLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	// ServerNumber is a numeric string; empty entries sort last.
	ServerNumber string `json:"serverNumber,omitempty"`
}

// ServerListing is the content of a download/server page.
type ServerListing struct {
	Servers  []ServerLink `json:"servers"`
	FileName string       `json:"fileName"`
	FileSize string       `json:"fileSize"`
}

// Section is one category block of the site homepage.
type Section struct {
	Title  string         `json:"category"`
	URL    string         `json:"categoryUrl"`
	Movies []MovieSummary `json:"movies"`

	// Update is set for "latest updates" blocks, whose movies are listed
	// inline. Other blocks only link to their category.
	Update bool `json:"-"`
}
