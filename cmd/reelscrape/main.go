package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/reelscrape"
	"github.com/fwojciec/reelscrape/extract"
	"github.com/fwojciec/reelscrape/goquery"
	reelhttp "github.com/fwojciec/reelscrape/http"
	"github.com/fwojciec/reelscrape/resolve"
	"github.com/fwojciec/reelscrape/rod"
	"github.com/fwojciec/reelscrape/scrape"
	reelslog "github.com/fwojciec/reelscrape/slog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Services for end-to-end testing. Wired from flags when nil.
	Catalog  reelscrape.CatalogService
	Resolver reelscrape.Resolver

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close releases the fetchers opened by Run.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("reelscrape"),
		kong.Description("Scrape listings, movie pages and download links from a movie site"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'reelscrape --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.Verbose, kongCtx.Command() == "serve")
	deps.Origin = reelscrape.NewOrigin(cli.Origin)

	if m.Catalog == nil || m.Resolver == nil {
		if err := m.wire(cli, deps); err != nil {
			return err
		}
		defer m.Close()
	}
	deps.Catalog = reelslog.NewLoggingCatalogService(m.Catalog, deps.Logger)
	deps.Resolver = reelslog.NewLoggingResolver(m.Resolver, deps.Logger)

	return kongCtx.Run(deps)
}

// wire builds the catalog and resolver from the global flags.
func (m *Main) wire(cli *CLI, deps *Dependencies) error {
	logger := deps.Logger

	httpFetcher := reelhttp.NewFetcher(
		reelhttp.WithTimeout(cli.Timeout),
		reelhttp.WithOrigin(deps.Origin),
	)
	m.closers = append(m.closers, httpFetcher.Close)

	var pageFetcher reelscrape.Fetcher = httpFetcher
	if cli.Browser {
		f, err := rod.NewFetcher(
			rod.WithFetchTimeout(cli.Timeout),
			rod.WithUserAgent(reelhttp.DefaultUserAgent),
			rod.WithManagerOptions(rod.WithManagerLogger(logger)),
		)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed for --browser")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		m.closers = append(m.closers, f.Close)
		pageFetcher = f
	}

	signals := reelscrape.DefaultSignals()
	if len(cli.Signal) > 0 {
		signals = reelscrape.ParseSignals(cli.Signal)
	}

	parser := goquery.NewParser()

	if m.Catalog == nil {
		m.Catalog = &scrape.Service{
			Fetcher:         reelslog.NewLoggingFetcher(pageFetcher, logger),
			Extractor:       extract.New(parser, extract.WithOrigin(deps.Origin), extract.WithBrand(cli.Brand)),
			Origin:          deps.Origin,
			RateLimiter:     scrape.NewDomainLimiter(cli.RPS, max(int(cli.RPS), 1)),
			Concurrency:     cli.Concurrency,
			CategoryTimeout: cli.CategoryTimeout,
			Logger:          logger,
		}
	}

	// Resolution watches redirect chains, which only the HTTP fetcher can
	// stop at the headers.
	if m.Resolver == nil {
		m.Resolver = &resolve.Resolver{
			Fetcher:   reelslog.NewLoggingFetcher(httpFetcher, logger),
			Parser:    parser,
			Signals:   signals,
			Origin:    deps.Origin,
			Timeout:   cli.ResolveTimeout,
			WarnAfter: cli.WarnAfter,
			OnSlow: func(url string, elapsed time.Duration) {
				logger.Warn("resolution is slow", "url", url, "elapsed", elapsed.Round(time.Millisecond))
			},
			Logger: logger,
		}
	}
	return nil
}

// newLogger writes text logs to w. One-shot commands only surface warnings
// so stdout stays the JSON result; serve logs each request.
func newLogger(w io.Writer, verbose, serve bool) *slog.Logger {
	level := slog.LevelWarn
	if serve {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
