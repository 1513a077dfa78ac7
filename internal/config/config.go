// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Site      SiteConfig      `mapstructure:"site"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SiteConfig identifies the listing site being harvested.
type SiteConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	SearchBaseURL string `mapstructure:"search_base_url"`
	UserAgent     string `mapstructure:"user_agent"`
}

// DiscoveryConfig drives the concurrent listing scrape.
type DiscoveryConfig struct {
	Keywords        []string `mapstructure:"keywords"`
	ExtraURLs       []string `mapstructure:"extra_urls"`
	MaxWorkers      int      `mapstructure:"max_workers"`
	ScrollWaitSec   int      `mapstructure:"scroll_wait_seconds"`
	StableScrolls   int      `mapstructure:"stable_scrolls"`
	TogglerSelector string   `mapstructure:"toggler_selector"`
	LinkSelector    string   `mapstructure:"link_selector"`
}

// CrawlConfig governs the sequential per-project crawl loop.
type CrawlConfig struct {
	LedgerPath       string `mapstructure:"ledger_path"`
	ProjectDelayMs   int    `mapstructure:"project_delay_ms"`
	ImageDelayMs     int    `mapstructure:"image_delay_ms"`
	Debug            bool   `mapstructure:"debug"`
	TextOnly         bool   `mapstructure:"text_only"`
	Redownload       bool   `mapstructure:"redownload"`
	ResetBeforeCrawl bool   `mapstructure:"reset_before_crawl"`
}

// BrowserConfig configures the headless browser sessions.
type BrowserConfig struct {
	NavTimeoutSec  int `mapstructure:"nav_timeout_seconds"`
	WaitTimeoutSec int `mapstructure:"wait_timeout_seconds"`
}

// HTTPConfig configures the plain HTTP fetcher.
type HTTPConfig struct {
	TimeoutSeconds         int `mapstructure:"timeout_seconds"`
	DownloadTimeoutSeconds int `mapstructure:"download_timeout_seconds"`
}

// StorageConfig sets the on-disk layout for harvested records.
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	CollectionDir string `mapstructure:"collection_dir"`
}

// EnrichConfig controls the language-model enrichment step.
type EnrichConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig exposes the optional prometheus listener.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARCHHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
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
	v.SetDefault("site.base_url", "https://www.archdaily.com")
	v.SetDefault("site.search_base_url", "https://www.archdaily.com/search/projects/categories/museum")
	v.SetDefault("site.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("discovery.keywords", []string{
		"Technology", "Biology", "Zoology", "Geology",
		"Paleontology", "Observatory", "Exploratorium",
	})
	v.SetDefault("discovery.extra_urls", []string{
		"https://www.archdaily.com/search/projects/categories/planetarium",
	})
	v.SetDefault("discovery.max_workers", 10)
	v.SetDefault("discovery.scroll_wait_seconds", 3)
	v.SetDefault("discovery.stable_scrolls", 3)
	v.SetDefault("discovery.toggler_selector", `div[data-insights-category="search-layout-toggler"]`)
	v.SetDefault("discovery.link_selector", "a.afd-title--black-link")
	v.SetDefault("crawl.ledger_path", "archdaily_projects.csv")
	v.SetDefault("crawl.project_delay_ms", 1000)
	v.SetDefault("crawl.image_delay_ms", 500)
	v.SetDefault("browser.nav_timeout_seconds", 45)
	v.SetDefault("browser.wait_timeout_seconds", 20)
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("http.download_timeout_seconds", 30)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.collection_dir", "jsons")
	v.SetDefault("enrich.endpoint", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("enrich.model", "gemini-2.5-flash")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.Discovery.MaxWorkers <= 0 {
		return fmt.Errorf("discovery.max_workers must be > 0")
	}
	if c.Discovery.StableScrolls <= 0 {
		return fmt.Errorf("discovery.stable_scrolls must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Browser.NavTimeoutSec <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Crawl.LedgerPath == "" {
		return fmt.Errorf("crawl.ledger_path must be set")
	}
	if c.Crawl.Debug && c.Crawl.ResetBeforeCrawl {
		return fmt.Errorf("crawl.debug and crawl.reset_before_crawl are mutually exclusive")
	}
	return nil
}

// SearchURLs expands the configured keywords and extra URLs into the fixed
// query set discovery runs against.
func (c Config) SearchURLs() []string {
	urls := make([]string, 0, len(c.Discovery.Keywords)+len(c.Discovery.ExtraURLs))
	for _, kw := range c.Discovery.Keywords {
		urls = append(urls, fmt.Sprintf("%s?q=%s", c.Site.SearchBaseURL, kw))
	}
	urls = append(urls, c.Discovery.ExtraURLs...)
	return urls
}

// ScrollWait returns the pause between discovery scroll attempts.
func (c Config) ScrollWait() time.Duration {
	return time.Duration(c.Discovery.ScrollWaitSec) * time.Second
}

// ProjectDelay returns the fixed pause between crawled projects.
func (c Config) ProjectDelay() time.Duration {
	return time.Duration(c.Crawl.ProjectDelayMs) * time.Millisecond
}

// ImageDelay returns the fixed pause between gallery image downloads.
func (c Config) ImageDelay() time.Duration {
	return time.Duration(c.Crawl.ImageDelayMs) * time.Millisecond
}

// HTTPTimeout returns the plain-HTTP fetch timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// DownloadTimeout returns the image download timeout.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.HTTP.DownloadTimeoutSeconds) * time.Second
}

// NavTimeout returns the browser navigation timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSec) * time.Second
}

// WaitTimeout returns the bounded selector-wait timeout as a duration.
func (c Config) WaitTimeout() time.Duration {
	return time.Duration(c.Browser.WaitTimeoutSec) * time.Second
}
