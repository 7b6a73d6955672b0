// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/catalog-crawler/internal/extract"
)

// EnvPrefix is prepended to every environment override, e.g. CATALOG_CRAWLER_MAX_PAGES.
const EnvPrefix = "CATALOG"

// DefaultSeedURL is the catalog crawled when no seed is configured.
const DefaultSeedURL = "https://books.toscrape.com/"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CrawlerConfig governs the crawl loop.
type CrawlerConfig struct {
	SeedURL           string            `mapstructure:"seed_url"`
	MaxPages          int               `mapstructure:"max_pages"`
	UserAgent         string            `mapstructure:"user_agent"`
	RequestsPerSecond float64           `mapstructure:"requests_per_second"`
	Burst             int               `mapstructure:"burst"`
	Selectors         extract.Selectors `mapstructure:"selectors"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// OutputConfig lists where records are written.
type OutputConfig struct {
	Destinations []string `mapstructure:"destinations"`
}

// DBConfig controls relational sinks.
type DBConfig struct {
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MaxConnLifetimeSeconds int    `mapstructure:"max_conn_lifetime_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the end-of-run metrics dump.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in node exporter textfile format.
	Textfile string `mapstructure:"textfile"`
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"url":       "crawler.seed_url",
	"max-pages": "crawler.max_pages",
	"output":    "output.destinations",
	"timeout":   "http.timeout_seconds",
}

// Load builds a Config from defaults, an optional file, the environment and
// any flags present in flags. Flags win over environment, which wins over
// the file.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	sel := extract.DefaultSelectors()

	v.SetDefault("crawler.seed_url", DefaultSeedURL)
	v.SetDefault("crawler.max_pages", 0)
	v.SetDefault("crawler.user_agent", "catalog-crawler/0.1")
	v.SetDefault("crawler.requests_per_second", 2.0)
	v.SetDefault("crawler.burst", 1)
	v.SetDefault("crawler.selectors.item", sel.Item)
	v.SetDefault("crawler.selectors.title", sel.Title)
	v.SetDefault("crawler.selectors.title_attr", sel.TitleAttr)
	v.SetDefault("crawler.selectors.price", sel.Price)
	v.SetDefault("crawler.selectors.availability", sel.Availability)
	v.SetDefault("crawler.selectors.rating", sel.Rating)
	v.SetDefault("crawler.selectors.rating_class", sel.RatingClass)
	v.SetDefault("crawler.selectors.next", sel.Next)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("output.destinations", []string{"books.csv", "books.json"})
	v.SetDefault("db.table", "books")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.max_conn_lifetime_seconds", 300)
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.textfile", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Crawler.SeedURL) == "" {
		return fmt.Errorf("crawler.seed_url is required")
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return fmt.Errorf("crawler.requests_per_second must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if len(c.Output.Destinations) == 0 {
		return fmt.Errorf("output.destinations must list at least one destination")
	}
	for _, d := range c.Output.Destinations {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("output.destinations must not contain empty entries")
		}
	}
	if c.DB.MaxConns < 0 {
		return fmt.Errorf("db.max_conns must be >= 0")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ConnLifetime converts the pool lifetime into a duration.
func (c Config) ConnLifetime() time.Duration {
	return time.Duration(c.DB.MaxConnLifetimeSeconds) * time.Second
}
