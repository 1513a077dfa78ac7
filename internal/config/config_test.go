package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://www.archdaily.com", cfg.Site.BaseURL)
	assert.Equal(t, 10, cfg.Discovery.MaxWorkers)
	assert.Equal(t, 3, cfg.Discovery.StableScrolls)
	assert.Equal(t, "archdaily_projects.csv", cfg.Crawl.LedgerPath)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, "jsons", cfg.Storage.CollectionDir)
	assert.NotEmpty(t, cfg.Discovery.Keywords)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  base_url: https://staging.example.com
discovery:
  max_workers: 2
  keywords:
    - Astronomy
crawl:
  ledger_path: staging.csv
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.Site.BaseURL)
	assert.Equal(t, 2, cfg.Discovery.MaxWorkers)
	assert.Equal(t, []string{"Astronomy"}, cfg.Discovery.Keywords)
	assert.Equal(t, "staging.csv", cfg.Crawl.LedgerPath)
	// Unset keys keep their defaults.
	assert.Equal(t, 3, cfg.Discovery.StableScrolls)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("DebugAndResetExclusive", func(t *testing.T) {
		cfg := valid()
		cfg.Crawl.Debug = true
		cfg.Crawl.ResetBeforeCrawl = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("MissingBaseURL", func(t *testing.T) {
		cfg := valid()
		cfg.Site.BaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("ZeroWorkers", func(t *testing.T) {
		cfg := valid()
		cfg.Discovery.MaxWorkers = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("MissingLedgerPath", func(t *testing.T) {
		cfg := valid()
		cfg.Crawl.LedgerPath = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestSearchURLs(t *testing.T) {
	cfg := Config{
		Site: SiteConfig{SearchBaseURL: "https://example.com/search/projects/categories/museum"},
		Discovery: DiscoveryConfig{
			Keywords:  []string{"Technology", "Biology"},
			ExtraURLs: []string{"https://example.com/search/projects/categories/planetarium"},
		},
	}
	urls := cfg.SearchURLs()
	require.Len(t, urls, 3)
	assert.Equal(t, "https://example.com/search/projects/categories/museum?q=Technology", urls[0])
	assert.Equal(t, "https://example.com/search/projects/categories/museum?q=Biology", urls[1])
	assert.Equal(t, "https://example.com/search/projects/categories/planetarium", urls[2])
}

func TestDurationHelpers(t *testing.T) {
	cfg := Config{
		Discovery: DiscoveryConfig{ScrollWaitSec: 3},
		Crawl:     CrawlConfig{ProjectDelayMs: 1000, ImageDelayMs: 500},
		Browser:   BrowserConfig{NavTimeoutSec: 45, WaitTimeoutSec: 20},
		HTTP:      HTTPConfig{TimeoutSeconds: 20, DownloadTimeoutSeconds: 30},
	}
	assert.Equal(t, 3*time.Second, cfg.ScrollWait())
	assert.Equal(t, time.Second, cfg.ProjectDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.ImageDelay())
	assert.Equal(t, 45*time.Second, cfg.NavTimeout())
	assert.Equal(t, 20*time.Second, cfg.WaitTimeout())
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 30*time.Second, cfg.DownloadTimeout())
}
