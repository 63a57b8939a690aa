package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/newsfeeder/pkg/config"
	"github.com/umputun/newsfeeder/pkg/content"
	"github.com/umputun/newsfeeder/pkg/domain"
	"github.com/umputun/newsfeeder/pkg/feed"
	"github.com/umputun/newsfeeder/pkg/pipeline"
	"github.com/umputun/newsfeeder/pkg/storage"
)

// Opts with all CLI options. Options set here override values from the config file.
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"config file (yaml)"`

	Mode     string `short:"m" long:"mode" env:"MODE" choice:"top" choice:"topic" choice:"geo" choice:"search" description:"feed mode"`
	Query    string `short:"q" long:"query" env:"QUERY" description:"search query"`
	Topic    string `long:"topic" env:"TOPIC" description:"topic or section id"`
	Geo      string `long:"geo" env:"GEO" description:"location for geo headlines"`
	When     string `long:"when" env:"WHEN" description:"search recency, i.e. 7d or 12h"`
	From     string `long:"from" env:"FROM" description:"search articles published after this date"`
	To       string `long:"to" env:"TO" description:"search articles published before this date"`
	NoEscape bool   `long:"no-escape" env:"NO_ESCAPE" description:"don't encode the search query"`
	Lang     string `long:"lang" env:"LANG_CODE" description:"feed language"`
	Country  string `long:"country" env:"COUNTRY" description:"feed country edition"`

	ProxyHTTP  string `long:"proxy-http" env:"PROXY_HTTP" description:"proxy for http requests"`
	ProxyHTTPS string `long:"proxy-https" env:"PROXY_HTTPS" description:"proxy for https requests"`
	RelayKey   string `long:"relay-key" env:"RELAY_KEY" description:"scraping relay api key"`

	Output  string `short:"o" long:"output" env:"OUTPUT" description:"output folder"`
	Bucket  string `short:"b" long:"bucket" env:"BUCKET" description:"store records in this bucket"`
	Project string `long:"project" env:"PROJECT" description:"cloud project for bucket storage"`
	Limit   int    `short:"n" long:"limit" env:"LIMIT" description:"max articles to process"`
	Workers int    `short:"w" long:"workers" env:"WORKERS" description:"articles processed concurrently"`
	Fetch   string `long:"fetch" env:"FETCH" description:"download the object from bucket to output folder and exit"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	color.NoColor = color.NoColor || opts.NoColor
	setupLog(opts.Debug, opts.RelayKey)
	log.Printf("[INFO] starting newsfeeder version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	// relay key may come from the config file, mask it as well
	setupLog(opts.Debug, logSecrets(opts, cfg)...)

	if opts.Fetch != "" {
		return fetchObject(ctx, cfg, opts.Fetch)
	}

	reader := feed.NewReader(feed.ReaderParams{
		Timeout:   cfg.Feed.Timeout,
		UserAgent: cfg.Feed.UserAgent,
		RelayURL:  cfg.Transport.RelayURL,
	})
	gnews := feed.NewGoogleNews(reader, feed.WithLocale(cfg.Feed.Lang, cfg.Feed.Country), feed.WithBaseURL(cfg.Feed.BaseURL))

	f, err := readFeed(ctx, gnews, cfg)
	if err != nil {
		return fmt.Errorf("failed to read feed: %w", err)
	}
	log.Printf("[INFO] feed %q, %d entries", f.Title, len(f.Entries))

	writer, closeWriter, err := makeWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	ingester := pipeline.NewIngester(pipeline.Config{
		Extractor: content.NewHTTPExtractor(content.Params{
			Timeout:       cfg.Extraction.Timeout,
			UserAgent:     cfg.Extraction.UserAgent,
			MinTextLength: cfg.Extraction.MinTextLength,
		}),
		Writer:     writer,
		MaxWorkers: cfg.Extraction.MaxWorkers,
		Limit:      cfg.Extraction.Limit,
	})
	stats, err := ingester.Ingest(ctx, f)
	log.Printf("[INFO] done, entries: %d, written: %d, failed: %d, not stored: %d",
		stats.Total, stats.Written, stats.Failed, stats.WriteFailed)
	if err != nil {
		return fmt.Errorf("ingest interrupted: %w", err)
	}
	return nil
}

// loadConfig reads the config file if set, cli options override file values
func loadConfig(opts Opts) (*config.Config, error) {
	override := func(c *config.Config) { applyOpts(c, opts) }
	if opts.Config != "" {
		cfg, err := config.Load(opts.Config, override)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg := config.Default()
	override(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyOpts(cfg *config.Config, opts Opts) {
	set := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	set(&cfg.Query.Mode, opts.Mode)
	set(&cfg.Query.Query, opts.Query)
	set(&cfg.Query.Topic, opts.Topic)
	set(&cfg.Query.Geo, opts.Geo)
	set(&cfg.Query.When, opts.When)
	set(&cfg.Query.From, opts.From)
	set(&cfg.Query.To, opts.To)
	if opts.NoEscape {
		cfg.Query.NoEscape = true
	}
	set(&cfg.Feed.Lang, opts.Lang)
	set(&cfg.Feed.Country, opts.Country)

	if opts.ProxyHTTP != "" || opts.ProxyHTTPS != "" {
		if cfg.Transport.Proxies == nil {
			cfg.Transport.Proxies = map[string]string{}
		}
		if opts.ProxyHTTP != "" {
			cfg.Transport.Proxies["http"] = opts.ProxyHTTP
		}
		if opts.ProxyHTTPS != "" {
			cfg.Transport.Proxies["https"] = opts.ProxyHTTPS
		}
	}
	set(&cfg.Transport.RelayKey, opts.RelayKey)

	set(&cfg.Storage.Dir, opts.Output)
	if opts.Bucket != "" {
		cfg.Storage.Type = config.StorageBucket
		cfg.Storage.Bucket = opts.Bucket
	}
	set(&cfg.Storage.Project, opts.Project)
	if opts.Limit > 0 {
		cfg.Extraction.Limit = opts.Limit
	}
	if opts.Workers > 0 {
		cfg.Extraction.MaxWorkers = opts.Workers
	}
}

func readFeed(ctx context.Context, gnews *feed.GoogleNews, cfg *config.Config) (*domain.Feed, error) {
	tr := feed.Transport{Proxies: cfg.Transport.Proxies, RelayKey: cfg.Transport.RelayKey}
	switch cfg.Query.Mode {
	case config.ModeTop:
		return gnews.TopNews(ctx, tr)
	case config.ModeTopic:
		return gnews.TopicHeadlines(ctx, cfg.Query.Topic, tr)
	case config.ModeGeo:
		return gnews.GeoHeadlines(ctx, cfg.Query.Geo, tr)
	case config.ModeSearch:
		return gnews.Search(ctx, feed.SearchParams{
			Query:    cfg.Query.Query,
			When:     cfg.Query.When,
			From:     cfg.Query.From,
			To:       cfg.Query.To,
			NoEscape: cfg.Query.NoEscape,
		}, tr)
	}
	return nil, fmt.Errorf("unknown mode %q", cfg.Query.Mode)
}

// makeWriter returns the record writer for configured storage and a func releasing it
func makeWriter(ctx context.Context, cfg *config.Config) (pipeline.Writer, func(), error) {
	if cfg.Storage.Type != config.StorageBucket {
		log.Printf("[INFO] writing records to %s", cfg.Storage.Dir)
		return &storage.LocalWriter{Dir: cfg.Storage.Dir}, func() {}, nil
	}

	uploader, err := storage.NewGCSUploader(ctx, storage.GCSParams{Project: cfg.Storage.Project, Endpoint: cfg.Storage.Endpoint})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init bucket storage: %w", err)
	}
	log.Printf("[INFO] writing records to bucket %s", cfg.Storage.Bucket)
	closer := func() {
		if err := uploader.Close(); err != nil {
			log.Printf("[WARN] failed to close storage client: %v", err)
		}
	}
	return &storage.BucketWriter{
		Bucket:   cfg.Storage.Bucket,
		TempDir:  cfg.Storage.TempDir,
		Uploader: uploader,
		Retries:  cfg.Storage.Retries,
	}, closer, nil
}

// fetchObject downloads a stored record from the bucket into the output folder
func fetchObject(ctx context.Context, cfg *config.Config, key string) error {
	if cfg.Storage.Type != config.StorageBucket {
		return errors.New("fetch requires bucket storage")
	}
	uploader, err := storage.NewGCSUploader(ctx, storage.GCSParams{Project: cfg.Storage.Project, Endpoint: cfg.Storage.Endpoint})
	if err != nil {
		return fmt.Errorf("failed to init bucket storage: %w", err)
	}
	defer uploader.Close()

	dest := filepath.Join(cfg.Storage.Dir, filepath.Base(key))
	if err := uploader.Download(ctx, cfg.Storage.Bucket, key, dest); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	log.Printf("[INFO] fetched gs://%s/%s to %s", cfg.Storage.Bucket, key, dest)
	return nil
}

// logSecrets returns values masked in logs
func logSecrets(opts Opts, cfg *config.Config) []string {
	res := []string{}
	for _, s := range []string{opts.RelayKey, cfg.Transport.RelayKey} {
		if s != "" && !slices.Contains(res, s) {
			res = append(res, s)
		}
	}
	return res
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
