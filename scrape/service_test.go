package scrape_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/reelscrape"
	"github.com/fwojciec/reelscrape/extract"
	"github.com/fwojciec/reelscrape/goquery"
	"github.com/fwojciec/reelscrape/mock"
	"github.com/fwojciec/reelscrape/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = reelscrape.Origin("https://films.example")

// site serves fixed pages by URL and records every requested URL.
type site struct {
	mu        sync.Mutex
	requested []string

	pages map[string]string
	errs  map[string]error
	delay map[string]time.Duration
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error) {
			s.mu.Lock()
			s.requested = append(s.requested, url)
			s.mu.Unlock()

			if d, ok := s.delay[url]; ok {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return nil, reelscrape.Errorf(reelscrape.ETIMEOUT, "timed out fetching %s", url)
				}
			}
			if err, ok := s.errs[url]; ok {
				return nil, err
			}
			if body, ok := s.pages[url]; ok {
				return &reelscrape.FetchResult{FinalURL: url, StatusCode: 200, Body: body}, nil
			}
			return nil, reelscrape.Errorf(reelscrape.ENOTFOUND, "HTTP 404 for %s", url)
		},
	}
}

func (s *site) urls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requested...)
}

func newService(s *site) *scrape.Service {
	return &scrape.Service{
		Fetcher:   s.fetcher(),
		Extractor: extract.New(goquery.NewParser(), extract.WithOrigin(origin)),
		Origin:    origin,
	}
}

const listingPage = `<html><body><div class="head">Hollywood</div>
<a class="filmyvideo" href="/movie/1/oppenheimer.html">
	<div class="informationn"><p>New</p><p>Oppenheimer (2023)</p></div>
</a></body></html>`

func TestService_FindCategory(t *testing.T) {
	t.Parallel()

	t.Run("retries with the category form", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string]string{
			"https://films.example/category/hollywood.html": listingPage,
		}}

		c, err := newService(s).FindCategory(context.Background(), "https://films.example/hollywood.html")
		require.NoError(t, err)

		assert.Equal(t, []string{
			"https://films.example/hollywood.html",
			"https://films.example/category/hollywood.html",
		}, s.urls())
		assert.Equal(t, "https://films.example/category/hollywood.html", c.SourceURL)
		require.Len(t, c.Movies, 1)
		assert.Equal(t, "Oppenheimer", c.Movies[0].Title)
	})

	t.Run("reports the requested url after a redirect", func(t *testing.T) {
		t.Parallel()

		svc := newService(&site{})
		svc.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error) {
				return &reelscrape.FetchResult{
					FinalURL:   "https://films.example/category/hollywood-2024.html",
					StatusCode: 200,
					Body:       listingPage,
				}, nil
			},
		}

		c, err := svc.FindCategory(context.Background(), "https://films.example/category/hollywood.html")
		require.NoError(t, err)
		assert.Equal(t, "https://films.example/category/hollywood.html", c.SourceURL)
	})

	t.Run("returns the first error when both forms fail", func(t *testing.T) {
		t.Parallel()

		s := &site{errs: map[string]error{
			"https://films.example/category/broken.html": reelscrape.Errorf(reelscrape.EUPSTREAM, "HTTP 500"),
		}}

		_, err := newService(s).FindCategory(context.Background(), "https://films.example/broken.html")
		require.Error(t, err)
		assert.Equal(t, reelscrape.ENOTFOUND, reelscrape.ErrorCode(err))
		assert.Len(t, s.urls(), 2)
	})

	t.Run("category urls have no alternate", func(t *testing.T) {
		t.Parallel()

		s := &site{}

		_, err := newService(s).FindCategory(context.Background(), "https://films.example/category/gone.html")
		require.Error(t, err)
		assert.Len(t, s.urls(), 1)
	})

	t.Run("empty page is an empty category", func(t *testing.T) {
		t.Parallel()

		s := &site{pages: map[string]string{
			"https://films.example/category/empty.html": `<html><body></body></html>`,
		}}

		c, err := newService(s).FindCategory(context.Background(), "https://films.example/category/empty.html")
		require.NoError(t, err)
		assert.Empty(t, c.Movies)
		assert.Empty(t, c.SubCategories)
	})
}

func TestService_FindMovie(t *testing.T) {
	t.Parallel()

	s := &site{pages: map[string]string{
		"https://films.example/movies/1/oppenheimer.html": `<div class="head">Oppenheimer (2023)</div>`,
	}}

	m, err := newService(s).FindMovie(context.Background(), "https://films.example/movie/1/oppenheimer.html")
	require.NoError(t, err)

	assert.Equal(t, "Oppenheimer (2023)", m.Title)
	assert.Equal(t, []string{
		"https://films.example/movie/1/oppenheimer.html",
		"https://films.example/movies/1/oppenheimer.html",
	}, s.urls())
}

func TestService_FindServers(t *testing.T) {
	t.Parallel()

	var kinds []reelscrape.PageKind
	svc := &scrape.Service{
		Fetcher: (&site{pages: map[string]string{"https://films.example/server/1": "<html></html>"}}).fetcher(),
		Extractor: &mock.Extractor{
			ExtractFn: func(html string, kind reelscrape.PageKind, pageURL string) (*reelscrape.Entities, error) {
				kinds = append(kinds, kind)
				return &reelscrape.Entities{Servers: &reelscrape.ServerListing{
					Servers: []reelscrape.ServerLink{{Title: "Server 1", URL: "https://dl.example/1", ServerNumber: "1"}},
				}}, nil
			},
		},
	}

	l, err := svc.FindServers(context.Background(), "https://films.example/server/1")
	require.NoError(t, err)
	assert.Equal(t, []reelscrape.PageKind{reelscrape.PageServers}, kinds)
	assert.Len(t, l.Servers, 1)
}

func TestService_ExtractorError(t *testing.T) {
	t.Parallel()

	svc := &scrape.Service{
		Fetcher: (&site{pages: map[string]string{"https://films.example/server/1": "x"}}).fetcher(),
		Extractor: &mock.Extractor{
			ExtractFn: func(string, reelscrape.PageKind, string) (*reelscrape.Entities, error) {
				return nil, reelscrape.Errorf(reelscrape.EINVALID, "bad html")
			},
		},
	}

	_, err := svc.FindServers(context.Background(), "https://films.example/server/1")
	assert.Equal(t, reelscrape.EINVALID, reelscrape.ErrorCode(err))
}

const homePage = `<html><body>
<div class="update"><div class="black"><a href="/category/1/hollywood.html">Hollywood Movies</a></div>
	<a href="/movie/9/dune.html">Dune</a> <font color="green">[HDRip]</font></div>
<div class="update"><div class="black"><a href="/category/2/broken.html">Broken</a></div></div>
<div class="update"><div class="black"><a href="/category/3/empty.html">Empty</a></div></div>
<div class="update"><div class="black"><a href="/category/4/slow.html">Slow</a></div></div>
<div class="touch"><a href="/category/5/punjabi.html">Punjabi</a></div>
</body></html>`

func TestService_FindHome(t *testing.T) {
	t.Parallel()

	t.Run("keeps sections whose category page lists movies", func(t *testing.T) {
		t.Parallel()

		s := &site{
			pages: map[string]string{
				"https://films.example/":                          homePage,
				"https://films.example/category/1/hollywood.html": listingPage,
				"https://films.example/category/3/empty.html":     `<html><body></body></html>`,
				"https://films.example/category/4/slow.html":      listingPage,
			},
			errs: map[string]error{
				"https://films.example/category/2/broken.html": reelscrape.Errorf(reelscrape.EUPSTREAM, "HTTP 500"),
			},
			delay: map[string]time.Duration{
				"https://films.example/category/4/slow.html": 10 * time.Second,
			},
		}
		svc := newService(s)
		svc.CategoryTimeout = 50 * time.Millisecond

		begin := time.Now()
		sections, err := svc.FindHome(context.Background())
		require.NoError(t, err)
		assert.Less(t, time.Since(begin), 5*time.Second)

		require.Len(t, sections, 2)
		assert.Equal(t, "Hollywood Movies", sections[0].Title)
		require.Len(t, sections[0].Movies, 1)
		assert.Equal(t, "Oppenheimer", sections[0].Movies[0].Title)
		assert.Equal(t, "Punjabi", sections[1].Title)
		assert.Empty(t, sections[1].Movies)
	})

	t.Run("bounds concurrent category fetches", func(t *testing.T) {
		t.Parallel()

		var inFlight, peak atomic.Int32
		inner := (&site{pages: map[string]string{
			"https://films.example/":                          homePage,
			"https://films.example/category/1/hollywood.html": listingPage,
			"https://films.example/category/2/broken.html":    listingPage,
			"https://films.example/category/3/empty.html":     listingPage,
			"https://films.example/category/4/slow.html":      listingPage,
		}}).fetcher()

		svc := &scrape.Service{
			Fetcher: &mock.Fetcher{
				FetchFn: func(ctx context.Context, url string, opts reelscrape.FetchOptions) (*reelscrape.FetchResult, error) {
					n := inFlight.Add(1)
					defer inFlight.Add(-1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(20 * time.Millisecond)
					return inner.Fetch(ctx, url, opts)
				},
			},
			Extractor:   extract.New(goquery.NewParser(), extract.WithOrigin(origin)),
			Origin:      origin,
			Concurrency: 2,
		}

		sections, err := svc.FindHome(context.Background())
		require.NoError(t, err)
		assert.Len(t, sections, 5)
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("waits on the rate limiter per domain", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var domains []string
		s := &site{pages: map[string]string{"https://films.example/": `<html><body></body></html>`}}
		svc := newService(s)
		svc.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(ctx context.Context, domain string) error {
				mu.Lock()
				defer mu.Unlock()
				domains = append(domains, domain)
				return nil
			},
		}

		sections, err := svc.FindHome(context.Background())
		require.NoError(t, err)
		assert.Empty(t, sections)
		assert.Equal(t, []string{"films.example"}, domains)
	})

	t.Run("fails when the homepage fails", func(t *testing.T) {
		t.Parallel()

		_, err := newService(&site{}).FindHome(context.Background())
		require.Error(t, err)
		assert.Equal(t, reelscrape.ENOTFOUND, reelscrape.ErrorCode(err))
	})
}

func TestService_FindHomeSection(t *testing.T) {
	t.Parallel()

	s := &site{pages: map[string]string{"https://films.example/": homePage}}
	svc := newService(s)

	t.Run("matches titles case-insensitively", func(t *testing.T) {
		t.Parallel()

		sec, err := svc.FindHomeSection(context.Background(), "HOLLY")
		require.NoError(t, err)
		assert.Equal(t, "Hollywood Movies", sec.Title)
		require.Len(t, sec.Movies, 1)
		assert.Equal(t, "Dune", sec.Movies[0].Title)
		assert.Equal(t, "HDRip", sec.Movies[0].Quality)
	})

	t.Run("only latest-updates sections match", func(t *testing.T) {
		t.Parallel()

		_, err := svc.FindHomeSection(context.Background(), "punjabi")
		assert.Equal(t, reelscrape.ENOTFOUND, reelscrape.ErrorCode(err))
	})

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()

		_, err := svc.FindHomeSection(context.Background(), " ")
		assert.Equal(t, reelscrape.EINVALID, reelscrape.ErrorCode(err))
	})
}

func TestFetchFirst(t *testing.T) {
	t.Parallel()

	t.Run("stops at the first success", func(t *testing.T) {
		t.Parallel()

		var tried []string
		res, fetched, err := scrape.FetchFirst(context.Background(), []string{"a", "b", "c"}, func(ctx context.Context, url string) (*reelscrape.FetchResult, error) {
			tried = append(tried, url)
			if url == "b" {
				return &reelscrape.FetchResult{FinalURL: "b/final"}, nil
			}
			return nil, errors.New("fail " + url)
		})

		require.NoError(t, err)
		assert.Equal(t, "b", fetched)
		assert.Equal(t, "b/final", res.FinalURL)
		assert.Equal(t, []string{"a", "b"}, tried)
	})

	t.Run("stops when the context is done", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var tried int
		_, _, err := scrape.FetchFirst(ctx, []string{"a", "b"}, func(ctx context.Context, url string) (*reelscrape.FetchResult, error) {
			tried++
			cancel()
			return nil, ctx.Err()
		})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, tried)
	})

	t.Run("no urls", func(t *testing.T) {
		t.Parallel()

		_, _, err := scrape.FetchFirst(context.Background(), nil, nil)
		assert.Equal(t, reelscrape.EINVALID, reelscrape.ErrorCode(err))
	})
}
