package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Crawler.SeedURL != DefaultSeedURL {
		t.Fatalf("expected default seed %q, got %q", DefaultSeedURL, cfg.Crawler.SeedURL)
	}
	if cfg.Crawler.MaxPages != 0 {
		t.Fatalf("expected unbounded max pages, got %d", cfg.Crawler.MaxPages)
	}
	if got := strings.Join(cfg.Output.Destinations, ","); got != "books.csv,books.json" {
		t.Fatalf("unexpected default destinations %q", got)
	}
	if cfg.Crawler.Selectors.Item != "article.product_pod" || cfg.Crawler.Selectors.Next != "li.next a" {
		t.Fatalf("expected default selectors, got %+v", cfg.Crawler.Selectors)
	}
	if got := cfg.FetchTimeout(); got != 10*time.Second {
		t.Fatalf("expected 10s fetch timeout, got %v", got)
	}
	if cfg.DB.Table != "books" {
		t.Fatalf("expected books table, got %q", cfg.DB.Table)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
crawler:
  seed_url: https://catalog.example.com/start
  max_pages: 7
  user_agent: real-agent
  requests_per_second: 0.5
  selectors:
    item: div.card
    price: span.cost
http:
  timeout_seconds: 45
output:
  destinations:
    - out/books.csv
    - sqlite://out/books.db
db:
  table: catalog_books
  max_conns: 2
logging:
  development: false
metrics:
  textfile: out/crawl.prom
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Crawler.SeedURL != "https://catalog.example.com/start" || cfg.Crawler.MaxPages != 7 {
		t.Fatalf("expected crawler overrides to apply: %+v", cfg.Crawler)
	}
	if cfg.Crawler.RequestsPerSecond != 0.5 || cfg.Crawler.UserAgent != "real-agent" {
		t.Fatalf("expected politeness overrides to apply: %+v", cfg.Crawler)
	}
	if cfg.Crawler.Selectors.Item != "div.card" || cfg.Crawler.Selectors.Price != "span.cost" {
		t.Fatalf("expected selector overrides: %+v", cfg.Crawler.Selectors)
	}
	if cfg.Crawler.Selectors.Next != "li.next a" {
		t.Fatalf("expected untouched selectors to keep defaults, got %q", cfg.Crawler.Selectors.Next)
	}
	if len(cfg.Output.Destinations) != 2 || cfg.Output.Destinations[1] != "sqlite://out/books.db" {
		t.Fatalf("unexpected destinations %v", cfg.Output.Destinations)
	}
	if cfg.DB.Table != "catalog_books" || cfg.DB.MaxConns != 2 {
		t.Fatalf("expected db overrides: %+v", cfg.DB)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected production logging")
	}
	if cfg.Metrics.Textfile != "out/crawl.prom" {
		t.Fatalf("expected metrics textfile, got %q", cfg.Metrics.Textfile)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_CRAWLER_MAX_PAGES", "3")
	t.Setenv("CATALOG_HTTP_TIMEOUT_SECONDS", "20")
	t.Setenv("CATALOG_OUTPUT_DESTINATIONS", "a.csv,b.json")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawler.MaxPages != 3 {
		t.Fatalf("expected env max pages 3, got %d", cfg.Crawler.MaxPages)
	}
	if cfg.HTTP.TimeoutSeconds != 20 {
		t.Fatalf("expected env timeout 20, got %d", cfg.HTTP.TimeoutSeconds)
	}
	if got := strings.Join(cfg.Output.Destinations, "|"); got != "a.csv|b.json" {
		t.Fatalf("expected env destinations, got %q", got)
	}
}

func TestLoadFlagsWinOverEnv(t *testing.T) {
	t.Setenv("CATALOG_CRAWLER_MAX_PAGES", "3")

	flags := pflag.NewFlagSet("crawl", pflag.ContinueOnError)
	flags.String("url", "", "")
	flags.Int("max-pages", 0, "")
	flags.StringSliceP("output", "o", nil, "")
	flags.Int("timeout", 10, "")
	if err := flags.Parse([]string{"--url", "https://flags.example.com/", "--max-pages", "5", "-o", "x.csv", "-o", "y.json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawler.SeedURL != "https://flags.example.com/" {
		t.Fatalf("expected flag seed, got %q", cfg.Crawler.SeedURL)
	}
	if cfg.Crawler.MaxPages != 5 {
		t.Fatalf("expected flag max pages 5, got %d", cfg.Crawler.MaxPages)
	}
	if got := strings.Join(cfg.Output.Destinations, ","); got != "x.csv,y.json" {
		t.Fatalf("expected flag destinations, got %q", got)
	}
	if cfg.HTTP.TimeoutSeconds != 10 {
		t.Fatalf("expected unchanged timeout flag to leave default, got %d", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Crawler: CrawlerConfig{SeedURL: DefaultSeedURL},
		HTTP:    HTTPConfig{TimeoutSeconds: 10},
		Output:  OutputConfig{Destinations: []string{"books.csv"}},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing seed",
			cfg: func() Config {
				c := base
				c.Crawler.SeedURL = " "
				return c
			}(),
			want: "crawler.seed_url",
		},
		{
			name: "negative rate",
			cfg: func() Config {
				c := base
				c.Crawler.RequestsPerSecond = -1
				return c
			}(),
			want: "crawler.requests_per_second",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "no destinations",
			cfg: func() Config {
				c := base
				c.Output.Destinations = nil
				return c
			}(),
			want: "output.destinations",
		},
		{
			name: "blank destination",
			cfg: func() Config {
				c := base
				c.Output.Destinations = []string{"books.csv", ""}
				return c
			}(),
			want: "output.destinations",
		},
		{
			name: "negative pool size",
			cfg: func() Config {
				c := base
				c.DB.MaxConns = -1
				return c
			}(),
			want: "db.max_conns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
