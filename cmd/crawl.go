package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/config"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the catalog and write the extracted records",
		Long: `Fetches the seed page and every following page one at a time, then hands
all records to the output destinations. The command fails when the seed page
cannot be fetched or when any destination could not be written; a crawl that
stops midway still writes what it collected.`,
		Example: `  catalogcrawler crawl
  catalogcrawler crawl --url https://books.toscrape.com/ --max-pages 5 -o books.csv -o sqlite://books.db`,
		Args: cobra.NoArgs,
		RunE: runCrawlCommand,
	}

	flags := cmd.Flags()
	flags.String("url", config.DefaultSeedURL, "seed catalog page")
	flags.Int("max-pages", 0, "stop after this many page transitions (0 means no limit)")
	flags.StringSliceP("output", "o", []string{"books.csv", "books.json"},
		"output destination, repeatable: *.csv, *.json, *.db, sqlite://path or postgres://dsn")
	flags.Int("timeout", 10, "per-request timeout in seconds")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	runner, err := newRunner(cfg, logger)
	if err != nil {
		return fmt.Errorf("init crawler: %w", err)
	}
	defer runner.Close()

	res, err := runner.Run(cmd.Context())
	if res.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s\n", res.RunID, res.Outcome)
		if res.Outcome.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "crawl stopped early: %v\n", res.Outcome.Err)
		}
	}
	if err != nil {
		logger.Error("crawl command failed", zap.Error(err))
		return err
	}
	return nil
}
