package main

import (
	"context"
	"fmt"
	"time"

	reelhttp "github.com/fwojciec/reelscrape/http"
)

// shutdownTimeout bounds in-flight requests once the context is done.
const shutdownTimeout = 10 * time.Second

// Run executes the serve command. It blocks until the context is done.
func (c *ServeCmd) Run(deps *Dependencies) error {
	srv := reelhttp.NewServer(deps.Catalog, deps.Resolver,
		reelhttp.WithAddr(c.Addr),
		reelhttp.WithServerOrigin(deps.Origin),
		reelhttp.WithLogger(deps.Logger),
	)
	if err := srv.Open(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Addr, err)
	}
	fmt.Fprintf(deps.Stdout, "listening on %s\n", srv.Addr())

	<-deps.Ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Close(ctx)
}
