// Package cmd defines and implements the CLI commands for the catalogcrawler executable.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/app"
	"github.com/JakeFAU/catalog-crawler/internal/config"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
)

// Runner is the part of the application the crawl command drives.
// This allows us to inject a fake app during tests.
type Runner interface {
	Run(ctx context.Context) (app.Result, error)
	Close()
}

// newRunner is the application factory. It's a variable so we can
// replace it with a fake factory in our tests.
var newRunner = func(cfg config.Config, logger *zap.Logger) (Runner, error) {
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// newLogger builds the process logger from the loaded config.
var newLogger = logging.New

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogcrawler",
		Short: "Crawls a paginated product catalog into CSV, JSON or SQL tables.",
		Long: `catalogcrawler walks a paginated catalog from a seed page, following the
"next" link page by page, extracts one record per listing (title, price,
availability, rating) and writes the collected records to every configured
destination once the crawl ends.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (YAML); CATALOG_* environment variables override it")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI with ctx and returns the first command error.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
