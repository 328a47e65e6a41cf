// Command linkctl manages short links directly against the store named by
// DATABASE_URL, without going through the HTTP management API.
package main

import (
	"context"
	"os"

	"github.com/sundayezeilo/shortlinks/internal/app"
	"github.com/sundayezeilo/shortlinks/internal/link"
)

func main() {
	cmd := newRootCmd(openService)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openService loads the environment and opens the configured store.
func openService(ctx context.Context, migrateOnly bool) (link.Service, func() error, error) {
	cfg, logger, err := app.Bootstrap()
	if err != nil {
		return nil, nil, err
	}

	if migrateOnly {
		return nil, func() error { return nil }, app.Migrate(ctx, cfg.Database, logger)
	}

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return link.NewService(store.Links, nil), store.Close, nil
}
