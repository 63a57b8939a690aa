package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsfeeder.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, `
feed:
  lang: fr
  country: FR
  timeout: 10s
query:
  mode: search
  query: "élection présidentielle"
  when: 7d
transport:
  proxies:
    http: http://proxy.local:3128
    https: http://proxy.local:3128
extraction:
  timeout: 20s
  min_text_length: 100
  max_workers: 4
  limit: 10
storage:
  type: bucket
  bucket: news-archive
  project: my-project
  retries: 5
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "fr", cfg.Feed.Lang)
		assert.Equal(t, "FR", cfg.Feed.Country)
		assert.Equal(t, 10*time.Second, cfg.Feed.Timeout)
		assert.Equal(t, "https://news.google.com/rss", cfg.Feed.BaseURL)

		assert.Equal(t, ModeSearch, cfg.Query.Mode)
		assert.Equal(t, "élection présidentielle", cfg.Query.Query)
		assert.Equal(t, "7d", cfg.Query.When)

		assert.Equal(t, map[string]string{"http": "http://proxy.local:3128", "https": "http://proxy.local:3128"}, cfg.Transport.Proxies)
		assert.Empty(t, cfg.Transport.RelayKey)

		assert.Equal(t, 20*time.Second, cfg.Extraction.Timeout)
		assert.Equal(t, 100, cfg.Extraction.MinTextLength)
		assert.Equal(t, 4, cfg.Extraction.MaxWorkers)
		assert.Equal(t, 10, cfg.Extraction.Limit)

		assert.Equal(t, StorageBucket, cfg.Storage.Type)
		assert.Equal(t, "news-archive", cfg.Storage.Bucket)
		assert.Equal(t, "my-project", cfg.Storage.Project)
		assert.Equal(t, 5, cfg.Storage.Retries)
	})

	t.Run("defaults", func(t *testing.T) {
		path := writeConfig(t, `
query:
  query: golang
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "en", cfg.Feed.Lang)
		assert.Equal(t, "US", cfg.Feed.Country)
		assert.Equal(t, 30*time.Second, cfg.Feed.Timeout)
		assert.Equal(t, ModeSearch, cfg.Query.Mode)
		assert.Equal(t, "https://app.scrapingbee.com/api/v1/", cfg.Transport.RelayURL)
		assert.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
		assert.Equal(t, 1, cfg.Extraction.MaxWorkers)
		assert.Equal(t, 0, cfg.Extraction.Limit)
		assert.Equal(t, StorageLocal, cfg.Storage.Type)
		assert.Equal(t, "output", cfg.Storage.Dir)
		assert.Equal(t, 3, cfg.Storage.Retries)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_RELAY_KEY", "secret-key-123")
		path := writeConfig(t, `
query:
  mode: top
transport:
  relay_key: ${TEST_RELAY_KEY}
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "secret-key-123", cfg.Transport.RelayKey)
	})

	t.Run("overrides", func(t *testing.T) {
		path := writeConfig(t, "feed:\n  lang: de\n")
		cfg, err := Load(path, func(c *Config) {
			c.Query.Mode = ModeGeo
			c.Query.Geo = "Hamburg"
		})
		require.NoError(t, err)
		assert.Equal(t, "de", cfg.Feed.Lang)
		assert.Equal(t, ModeGeo, cfg.Query.Mode)
		assert.Equal(t, "Hamburg", cfg.Query.Geo)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "query: [unclosed"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "query:\n  mode: topic\n"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "validate config")
		assert.Contains(t, err.Error(), "query.topic is required")
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "en", cfg.Feed.Lang)
	assert.Equal(t, ModeSearch, cfg.Query.Mode)
	assert.Equal(t, StorageLocal, cfg.Storage.Type)

	// search mode without a query is the only thing missing
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query.query is required")

	cfg.Query.Query = "news"
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{name: "valid search", modify: func(c *Config) {}},
		{name: "valid top", modify: func(c *Config) { c.Query.Mode, c.Query.Query = ModeTop, "" }},
		{name: "valid topic", modify: func(c *Config) { c.Query.Mode, c.Query.Topic = ModeTopic, "SPORTS" }},
		{name: "valid geo", modify: func(c *Config) { c.Query.Mode, c.Query.Geo = ModeGeo, "Berlin" }},
		{name: "blank query", modify: func(c *Config) { c.Query.Query = "   " }, errMsg: "query.query is required"},
		{name: "geo without location", modify: func(c *Config) { c.Query.Mode = ModeGeo }, errMsg: "query.geo is required"},
		{name: "unknown mode", modify: func(c *Config) { c.Query.Mode = "weird" }, errMsg: `unknown query.mode "weird"`},
		{
			name: "proxies and relay",
			modify: func(c *Config) {
				c.Transport.Proxies = map[string]string{"http": "http://p:1"}
				c.Transport.RelayKey = "key"
			},
			errMsg: "pick either relay or proxies",
		},
		{
			name:   "bad proxy scheme",
			modify: func(c *Config) { c.Transport.Proxies = map[string]string{"socks5": "socks5://p:1"} },
			errMsg: `unsupported scheme "socks5"`,
		},
		{name: "short feed timeout", modify: func(c *Config) { c.Feed.Timeout = time.Millisecond }, errMsg: "feed timeout"},
		{name: "short extraction timeout", modify: func(c *Config) { c.Extraction.Timeout = time.Millisecond }, errMsg: "extraction timeout"},
		{name: "negative min length", modify: func(c *Config) { c.Extraction.MinTextLength = -1 }, errMsg: "min_text_length"},
		{name: "no workers", modify: func(c *Config) { c.Extraction.MaxWorkers = 0 }, errMsg: "max_workers"},
		{name: "negative limit", modify: func(c *Config) { c.Extraction.Limit = -5 }, errMsg: "limit must be non-negative"},
		{name: "bucket without name", modify: func(c *Config) { c.Storage.Type = StorageBucket }, errMsg: "storage.bucket is required"},
		{name: "local without dir", modify: func(c *Config) { c.Storage.Dir = "" }, errMsg: "storage.dir is required"},
		{name: "unknown storage", modify: func(c *Config) { c.Storage.Type = "s3" }, errMsg: `unknown storage.type "s3"`},
		{name: "no retries", modify: func(c *Config) { c.Storage.Retries = 0 }, errMsg: "retries must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Query.Query = "golang"
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
