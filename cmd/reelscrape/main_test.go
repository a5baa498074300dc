package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/reelscrape"
	main "github.com/fwojciec/reelscrape/cmd/reelscrape"
	"github.com/fwojciec/reelscrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeHTML = `<html><body>
<div class="update">
	<div class="black"><a href="/category/2/bollywood.html">Bollywood Latest</a></div>
	<a href="/movie/2464/jawan-2023.html">Jawan</a><br>
</div>
<div class="touch"><a href="/category/3/punjabi.html">Punjabi</a></div>
</body></html>`

const categoryHTML = `<html><head><title>Bollywood</title></head><body>
<h1>Bollywood Movies Download</h1>
<div class="movie-item">
	<a href="/movie/2464/jawan-2023.html" title="Jawan (2023)"><img src="/thumbs/jawan.jpg"></a>
	<span>Jawan (2023)</span>
</div>
<div class="movie-item">
	<a href="/movie/2100/pathaan-2023.html" title="Pathaan (2023)"><img src="/thumbs/pathaan.jpg"></a>
</div>
</body></html>`

const movieHTML = `<html><body>
<div class="head">Jawan (2023)</div>
<p class="info">Starcast: <font color="green">Shah Rukh Khan</font></p>
<div class="touch"><a href="/server/2464/jawan-480p.html">Jawan 480p</a><small>(450 MB)</small></div>
</body></html>`

const serverHTML = `<html><body>
<div class="head">Jawan (2023) 480p.mkv</div>
<a class="newdl" href="/go/1">Download Server 1</a>
</body></html>`

// newSite serves a small copy of the content site.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/":                              homeHTML,
		"/category/2/bollywood.html":     categoryHTML,
		"/movie/2464/jawan-2023.html":    movieHTML,
		"/server/2464/jawan-480p.html":   serverHTML,
		"/media/jawan-480p.mp4":          "not really a video",
		"/server/2464/expired-link.html": "",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/go/1" {
			http.Redirect(w, r, "/media/jawan-480p.mp4", http.StatusFound)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok || body == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, m *main.Main, args ...string) (stdout, stderr *bytes.Buffer, err error) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	err = m.Run(context.Background(), args, stdout, stderr)
	return stdout, stderr, err
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, main.NewMain(), "--help")

	require.NoError(t, err)
	helpOutput := stdout.String()
	for _, cmd := range []string{"category", "movie", "servers", "resolve", "home", "serve"} {
		assert.Contains(t, helpOutput, cmd)
	}
	assert.Contains(t, helpOutput, "Usage:")
	assert.Contains(t, helpOutput, "Flags:")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, main.NewMain())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestMain_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	origin := []string{"--origin", site.URL, "--rps", "0"}

	t.Run("category by url", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), append(origin, "category", site.URL+"/category/2/bollywood.html")...)
		require.NoError(t, err)

		var c reelscrape.Category
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &c))
		assert.Equal(t, "Bollywood", c.Title)
		require.Len(t, c.Movies, 2)
		assert.Equal(t, "Jawan", c.Movies[0].Title)
		assert.Equal(t, "2023", c.Movies[0].Year)
		assert.Equal(t, site.URL+"/movie/2464/jawan-2023.html", c.Movies[0].URL)
		assert.True(t, strings.HasPrefix(stdout.String(), "{\n  "), "expected indented JSON")
	})

	t.Run("category by slug", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), append(origin, "category", "2/bollywood.html")...)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), `"categoryTitle": "Bollywood"`)
	})

	t.Run("movie", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), append(origin, "movie", site.URL+"/movie/2464/jawan-2023.html")...)
		require.NoError(t, err)

		var m reelscrape.MovieDetail
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &m))
		assert.Equal(t, "Jawan (2023)", m.Title)
		assert.Equal(t, "Shah Rukh Khan", m.Starcast)
		require.Len(t, m.DownloadLinks, 1)
		assert.Equal(t, "450 MB", m.DownloadLinks[0].Size)
	})

	t.Run("resolve follows the download button", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), append(origin, "resolve", site.URL+"/server/2464/jawan-480p.html")...)
		require.NoError(t, err)

		var res reelscrape.ResolutionResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
		assert.True(t, res.IsResolved)
		assert.Equal(t, reelscrape.StrategyScraped, res.Strategy)
		assert.Equal(t, site.URL+"/media/jawan-480p.mp4", res.ResolvedURL)
	})

	t.Run("resolve reports expired links", func(t *testing.T) {
		t.Parallel()

		stdout, stderr, err := run(t, main.NewMain(), append(origin, "resolve", site.URL+"/server/2464/expired-link.html")...)
		require.NoError(t, err)

		var res reelscrape.ResolutionResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
		assert.False(t, res.IsResolved)
		assert.Equal(t, reelscrape.MessageNotFound, res.Message)
		assert.Contains(t, stderr.String(), "warning: "+reelscrape.MessageNotFound)
	})

	t.Run("home", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), append(origin, "home")...)
		require.NoError(t, err)

		var sections []reelscrape.Section
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &sections))
		require.Len(t, sections, 2)
		assert.Equal(t, "Bollywood Latest", sections[0].Title)
		assert.Len(t, sections[0].Movies, 2)
		assert.Equal(t, "Punjabi", sections[1].Title)
	})

	t.Run("missing page fails", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := run(t, main.NewMain(), append(origin, "movie", site.URL+"/movie/0/missing.html")...)
		require.Error(t, err)
		assert.Equal(t, reelscrape.ENOTFOUND, reelscrape.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: HTTP 404")
	})
}

func TestMain_Run_InjectedServices(t *testing.T) {
	t.Parallel()

	t.Run("home section", func(t *testing.T) {
		t.Parallel()

		var gotName string
		m := main.NewMain()
		m.Catalog = &mock.CatalogService{
			FindHomeSectionFn: func(ctx context.Context, name string) (*reelscrape.Section, error) {
				gotName = name
				return &reelscrape.Section{Title: "Punjabi Latest", Movies: []reelscrape.MovieSummary{{Title: "Jatt"}}}, nil
			},
		}
		m.Resolver = &mock.Resolver{}

		stdout, _, err := run(t, m, "home", "punjabi")

		require.NoError(t, err)
		assert.Equal(t, "punjabi", gotName)
		assert.Contains(t, stdout.String(), `"category": "Punjabi Latest"`)
	})

	t.Run("unknown section", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Catalog = &mock.CatalogService{
			FindHomeSectionFn: func(ctx context.Context, name string) (*reelscrape.Section, error) {
				return nil, reelscrape.Errorf(reelscrape.ENOTFOUND, "section %q not found", name)
			},
		}
		m.Resolver = &mock.Resolver{}

		_, stderr, err := run(t, m, "home", "klingon")

		require.Error(t, err)
		assert.Contains(t, stderr.String(), `error: section "klingon" not found`)
	})

	t.Run("servers joins relative url", func(t *testing.T) {
		t.Parallel()

		var gotURL string
		m := main.NewMain()
		m.Catalog = &mock.CatalogService{
			FindServersFn: func(ctx context.Context, sourceURL string) (*reelscrape.ServerListing, error) {
				gotURL = sourceURL
				return &reelscrape.ServerListing{
					Servers:  []reelscrape.ServerLink{{Title: "Server 1", URL: "https://films.example/dl/1", ServerNumber: "1"}},
					FileName: "Jawan.mkv",
				}, nil
			},
		}
		m.Resolver = &mock.Resolver{}

		stdout, _, err := run(t, m, "--origin", "https://films.example", "servers", "/server/2464/jawan.html")

		require.NoError(t, err)
		assert.Equal(t, "https://films.example/server/2464/jawan.html", gotURL)
		assert.Contains(t, stdout.String(), `"fileName": "Jawan.mkv"`)
	})

	t.Run("resolver error", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Catalog = &mock.CatalogService{}
		m.Resolver = &mock.Resolver{
			ResolveFn: func(ctx context.Context, url string) (*reelscrape.ResolutionResult, error) {
				return nil, reelscrape.Errorf(reelscrape.EUPSTREAM, "HTTP 503 for %s", url)
			},
		}

		_, stderr, err := run(t, m, "resolve", "https://films.example/server/1")

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: HTTP 503")
	})
}

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Catalog = &mock.CatalogService{}
	m.Resolver = &mock.Resolver{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	err := m.Run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, stdout, stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "listening on 127.0.0.1:")
}
