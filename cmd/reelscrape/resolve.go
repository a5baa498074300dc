package main

import (
	"fmt"

	"github.com/fwojciec/reelscrape"
)

// Run executes the resolve command. Unresolved links still print their
// result; only unexpected failures are errors.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	res, err := deps.Resolver.Resolve(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", reelscrape.ErrorMessage(err))
		return err
	}
	if !res.IsResolved && res.Message != "" {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", res.Message)
	}
	return printJSON(deps.Stdout, res)
}
