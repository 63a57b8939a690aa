package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// query modes
const (
	ModeTop    = "top"
	ModeTopic  = "topic"
	ModeGeo    = "geo"
	ModeSearch = "search"
)

// storage types
const (
	StorageLocal  = "local"
	StorageBucket = "bucket"
)

// Config holds the application configuration
type Config struct {
	Feed       FeedConfig       `yaml:"feed" json:"feed" jsonschema:"description=Feed source configuration"`
	Query      QueryConfig      `yaml:"query" json:"query" jsonschema:"description=What to read from the feed source"`
	Transport  TransportConfig  `yaml:"transport" json:"transport" jsonschema:"description=Proxy or scraping relay for feed requests"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Article content extraction configuration"`
	Storage    StorageConfig    `yaml:"storage" json:"storage" jsonschema:"description=Where article records are written"`
}

// FeedConfig holds feed source settings
type FeedConfig struct {
	Lang      string        `yaml:"lang" json:"lang" jsonschema:"default=en,description=Feed language"`
	Country   string        `yaml:"country" json:"country" jsonschema:"default=US,description=Feed country edition"`
	BaseURL   string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://news.google.com/rss,description=Feed service root URL"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Feed request timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for feed requests"`
}

// QueryConfig selects the feed to read
type QueryConfig struct {
	Mode     string `yaml:"mode" json:"mode" jsonschema:"enum=top,enum=topic,enum=geo,enum=search,default=search,description=Feed mode"`
	Query    string `yaml:"query" json:"query" jsonschema:"description=Full-text query for search mode"`
	Topic    string `yaml:"topic" json:"topic" jsonschema:"description=Canonical section or topic id for topic mode"`
	Geo      string `yaml:"geo" json:"geo" jsonschema:"description=Location for geo mode"`
	When     string `yaml:"when" json:"when" jsonschema:"description=Recency qualifier for search mode (e.g. 7d or 12h)"`
	From     string `yaml:"from" json:"from" jsonschema:"description=Search for articles published after this date"`
	To       string `yaml:"to" json:"to" jsonschema:"description=Search for articles published before this date"`
	NoEscape bool   `yaml:"no_escape" json:"no_escape" jsonschema:"default=false,description=Don't percent-encode the search query"`
}

// TransportConfig holds proxy and relay settings, only one of them can be used
type TransportConfig struct {
	Proxies  map[string]string `yaml:"proxies" json:"proxies,omitempty" jsonschema:"description=Proxy URL per scheme (http/https)"`
	RelayKey string            `yaml:"relay_key" json:"relay_key" jsonschema:"description=Scraping relay API key"`
	RelayURL string            `yaml:"relay_url" json:"relay_url" jsonschema:"default=https://app.scrapingbee.com/api/v1/,description=Scraping relay API endpoint"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per article"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for article requests"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=0,minimum=0,description=Minimum text length to consider valid"`
	MaxWorkers    int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=1,minimum=1,description=Articles processed concurrently"`
	Limit         int           `yaml:"limit" json:"limit" jsonschema:"default=0,minimum=0,description=Maximum number of articles to process (0 - all)"`
}

// StorageConfig holds output settings
type StorageConfig struct {
	Type     string `yaml:"type" json:"type" jsonschema:"enum=local,enum=bucket,default=local,description=Output sink"`
	Dir      string `yaml:"dir" json:"dir" jsonschema:"default=output,description=Output folder for local storage"`
	Bucket   string `yaml:"bucket" json:"bucket" jsonschema:"description=Bucket name for bucket storage"`
	Project  string `yaml:"project" json:"project" jsonschema:"description=Cloud project used for quota and billing"`
	Endpoint string `yaml:"endpoint" json:"endpoint" jsonschema:"description=Custom storage endpoint (emulator)"`
	TempDir  string `yaml:"temp_dir" json:"temp_dir" jsonschema:"description=Folder for files waiting for upload"`
	Retries  int    `yaml:"retries" json:"retries" jsonschema:"default=3,minimum=1,description=Upload attempts"`
}

// Default returns configuration with all defaults set
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file. Overrides are applied after defaults and before validation.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	setDefaults(&cfg)
	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// feed
	if cfg.Feed.Lang == "" {
		cfg.Feed.Lang = "en"
	}
	if cfg.Feed.Country == "" {
		cfg.Feed.Country = "US"
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "https://news.google.com/rss"
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 30 * time.Second
	}

	// query
	if cfg.Query.Mode == "" {
		cfg.Query.Mode = ModeSearch
	}

	// transport
	if cfg.Transport.RelayURL == "" {
		cfg.Transport.RelayURL = "https://app.scrapingbee.com/api/v1/"
	}

	// extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 30 * time.Second
	}
	if cfg.Extraction.MaxWorkers == 0 {
		cfg.Extraction.MaxWorkers = 1
	}

	// storage
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageLocal
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "output"
	}
	if cfg.Storage.Retries == 0 {
		cfg.Storage.Retries = 3
	}
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	switch c.Query.Mode {
	case ModeTop:
	case ModeTopic:
		if c.Query.Topic == "" {
			return fmt.Errorf("query.topic is required for topic mode")
		}
	case ModeGeo:
		if c.Query.Geo == "" {
			return fmt.Errorf("query.geo is required for geo mode")
		}
	case ModeSearch:
		if strings.TrimSpace(c.Query.Query) == "" {
			return fmt.Errorf("query.query is required for search mode")
		}
	default:
		return fmt.Errorf("unknown query.mode %q", c.Query.Mode)
	}

	if len(c.Transport.Proxies) > 0 && c.Transport.RelayKey != "" {
		return fmt.Errorf("transport: pick either relay or proxies, not both")
	}
	for scheme := range c.Transport.Proxies {
		if !slices.Contains([]string{"http", "https"}, strings.ToLower(scheme)) {
			return fmt.Errorf("transport.proxies: unsupported scheme %q", scheme)
		}
	}

	if c.Feed.Timeout < time.Second {
		return fmt.Errorf("feed timeout must be at least 1 second")
	}
	if c.Extraction.Timeout < time.Second {
		return fmt.Errorf("extraction timeout must be at least 1 second")
	}
	if c.Extraction.MinTextLength < 0 {
		return fmt.Errorf("extraction min_text_length must be non-negative")
	}
	if c.Extraction.MaxWorkers < 1 {
		return fmt.Errorf("extraction max_workers must be at least 1")
	}
	if c.Extraction.Limit < 0 {
		return fmt.Errorf("extraction limit must be non-negative")
	}

	switch c.Storage.Type {
	case StorageLocal:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for local storage")
		}
	case StorageBucket:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for bucket storage")
		}
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	if c.Storage.Retries < 1 {
		return fmt.Errorf("storage retries must be at least 1")
	}

	return nil
}
