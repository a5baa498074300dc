package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/reelscrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Origin   reelscrape.Origin
	Catalog  reelscrape.CatalogService
	Resolver reelscrape.Resolver
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Origin          string            `env:"REELSCRAPE_ORIGIN" default:"https://www.filmyzilla13.com" help:"Origin of the content site"`
	Brand           string            `default:"filmyzilla" help:"Site branding stripped from category titles"`
	Timeout         time.Duration     `default:"15s" help:"Timeout for each page request"`
	ResolveTimeout  time.Duration     `default:"20s" help:"Hard ceiling for resolving one link"`
	WarnAfter       time.Duration     `default:"8s" help:"Log a warning when a resolution runs this long"`
	CategoryTimeout time.Duration     `default:"5s" help:"Timeout for each category page read by home"`
	Concurrency     int               `short:"c" default:"8" help:"Category pages fetched at once by home"`
	RPS             float64           `name:"rps" default:"10" help:"Requests per second per domain (0 disables limiting)"`
	Signal          map[string]string `help:"Direct-link signal as pattern=meaning, replaces the defaults (repeatable)"`
	Browser         bool              `help:"Load pages in headless Chrome"`
	Verbose         bool              `short:"v" env:"REELSCRAPE_VERBOSE" help:"Enable debug logging"`

	Category CategoryCmd `cmd:"" help:"Scrape a category listing"`
	Movie    MovieCmd    `cmd:"" help:"Scrape a movie page"`
	Servers  ServersCmd  `cmd:"" help:"List the servers of a download page"`
	Resolve  ResolveCmd  `cmd:"" help:"Resolve a download link to a direct media URL"`
	Home     HomeCmd     `cmd:"" help:"Scrape the homepage sections"`
	Serve    ServeCmd    `cmd:"" help:"Serve the JSON API"`
}

// CategoryCmd is the "category" subcommand.
type CategoryCmd struct {
	URL string `arg:"" help:"Category URL or slug"`
}

// MovieCmd is the "movie" subcommand.
type MovieCmd struct {
	URL string `arg:"" help:"Movie URL or slug"`
}

// ServersCmd is the "servers" subcommand.
type ServersCmd struct {
	URL string `arg:"" help:"Download page URL"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	URL string `arg:"" help:"Download or server URL"`
}

// HomeCmd is the "home" subcommand.
type HomeCmd struct {
	Section string `arg:"" optional:"" help:"Only print the section whose title contains this"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `env:"REELSCRAPE_ADDR" default:":8080" help:"Listen address"`
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
