package pipeline

import (
	"context"
	"sync"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsfeeder/pkg/domain"
)

//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/writer.go -pkg mocks -skip-ensure -fmt goimports . Writer

// Extractor gets the readable text of an article
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Writer persists an article record and returns its location
type Writer interface {
	Write(ctx context.Context, rec domain.ArticleRecord) (string, error)
}

// Stats summarizes one ingestion run
type Stats struct {
	Total       int // entries considered
	Written     int // records stored
	Failed      int // entries skipped because content extraction failed
	WriteFailed int // records which could not be stored
}

// Config holds Ingester dependencies and settings
type Config struct {
	Extractor  Extractor
	Writer     Writer
	MaxWorkers int // 1 if zero, entries are processed one by one
	Limit      int // max entries to process, all if zero
	NewID      func() string
	Logger     lgr.L // lgr.Default() if nil
}

// Ingester turns feed entries into stored article records.
// Every entry's article is fetched and written as a separate record, failures of a single
// entry are logged and don't stop the run.
type Ingester struct {
	extractor  Extractor
	writer     Writer
	maxWorkers int
	limit      int
	newID      func() string
	log        lgr.L
}

// NewIngester makes an Ingester, ids default to random uuids
func NewIngester(cfg Config) *Ingester {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = lgr.Default()
	}
	return &Ingester{
		extractor:  cfg.Extractor,
		writer:     cfg.Writer,
		maxWorkers: cfg.MaxWorkers,
		limit:      cfg.Limit,
		newID:      cfg.NewID,
		log:        cfg.Logger,
	}
}

// Ingest processes feed entries in order and returns run stats.
// Returns ctx error if canceled, stats include everything done before that.
func (in *Ingester) Ingest(ctx context.Context, feed *domain.Feed) (Stats, error) {
	entries := feed.Entries
	if in.limit > 0 && len(entries) > in.limit {
		entries = entries[:in.limit]
	}
	in.log.Logf("[INFO] ingesting %d entries from %q", len(entries), feed.Title)

	var mu sync.Mutex
	stats := Stats{}
	count := func(fn func(s *Stats)) {
		mu.Lock()
		fn(&stats)
		mu.Unlock()
	}

	g := errgroup.Group{}
	g.SetLimit(in.maxWorkers)
	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		entry := entries[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			count(func(s *Stats) { s.Total++ })
			in.ingestEntry(ctx, entry, count)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	in.log.Logf("[INFO] ingestion done, total: %d, written: %d, failed: %d, write failed: %d",
		stats.Total, stats.Written, stats.Failed, stats.WriteFailed)
	return stats, ctx.Err()
}

// ingestEntry fetches article content for one entry and writes its record
func (in *Ingester) ingestEntry(ctx context.Context, entry domain.Entry, count func(func(s *Stats))) {
	in.log.Logf("[DEBUG] processing entry: %s", entryIdentifier(entry))

	content, err := in.extractor.Extract(ctx, entry.Link)
	if err != nil {
		in.log.Logf("[WARN] failed to get content for %s: %v", entry.Link, err)
		count(func(s *Stats) { s.Failed++ })
		return
	}

	rec := domain.NewArticleRecord(entry, content, in.newID)
	loc, err := in.writer.Write(ctx, rec)
	if err != nil {
		in.log.Logf("[WARN] failed to store record %s for %s: %v", rec.ID, entry.Link, err)
		count(func(s *Stats) { s.WriteFailed++ })
		return
	}

	count(func(s *Stats) { s.Written++ })
	in.log.Logf("[DEBUG] stored %s as %s", entryIdentifier(entry), loc)
}

// entryIdentifier returns a human-readable identifier for an entry
func entryIdentifier(e domain.Entry) string {
	if e.Title != "" {
		return e.Title
	}
	return e.Link
}
