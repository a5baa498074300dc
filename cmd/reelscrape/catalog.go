package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/reelscrape"
)

// Run executes the category command.
func (c *CategoryCmd) Run(deps *Dependencies) error {
	target := c.URL
	if !isURL(target) {
		target = deps.Origin.CategoryURL(target)
	}

	category, err := deps.Catalog.FindCategory(deps.Ctx, target)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", reelscrape.ErrorMessage(err))
		return err
	}
	return printJSON(deps.Stdout, category)
}

// Run executes the movie command.
func (c *MovieCmd) Run(deps *Dependencies) error {
	target := c.URL
	if !isURL(target) {
		target = deps.Origin.MovieURLs(target)[0]
	}

	movie, err := deps.Catalog.FindMovie(deps.Ctx, target)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", reelscrape.ErrorMessage(err))
		return err
	}
	return printJSON(deps.Stdout, movie)
}

// Run executes the servers command.
func (c *ServersCmd) Run(deps *Dependencies) error {
	listing, err := deps.Catalog.FindServers(deps.Ctx, deps.Origin.Absolute(c.URL))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", reelscrape.ErrorMessage(err))
		return err
	}
	return printJSON(deps.Stdout, listing)
}

// Run executes the home command.
func (c *HomeCmd) Run(deps *Dependencies) error {
	if c.Section != "" {
		section, err := deps.Catalog.FindHomeSection(deps.Ctx, c.Section)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", reelscrape.ErrorMessage(err))
			return err
		}
		return printJSON(deps.Stdout, section)
	}

	sections, err := deps.Catalog.FindHome(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", reelscrape.ErrorMessage(err))
		return err
	}
	if len(sections) == 0 {
		fmt.Fprintln(deps.Stderr, "No sections found.")
		sections = []reelscrape.Section{}
	}
	return printJSON(deps.Stdout, sections)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
