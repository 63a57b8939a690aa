package feed

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/umputun/newsfeeder/pkg/domain"
)

// DefaultBaseURL is the google news rss root
const DefaultBaseURL = "https://news.google.com/rss"

// Topics are the canonical google news sections
var Topics = []string{"WORLD", "NATION", "BUSINESS", "TECHNOLOGY", "ENTERTAINMENT", "SCIENCE", "SPORTS", "HEALTH"}

// FeedParser parses a feed from url with the given transport
type FeedParser interface {
	Parse(ctx context.Context, feedURL string, tr Transport) (*domain.Feed, error)
}

// GoogleNews builds google news rss urls for a language and country and reads them
type GoogleNews struct {
	parser  FeedParser
	lang    string
	country string
	baseURL string
}

// Option configures GoogleNews
type Option func(*GoogleNews)

// WithLocale sets language and country, empty values keep defaults
func WithLocale(lang, country string) Option {
	return func(g *GoogleNews) {
		if lang != "" {
			g.lang = strings.ToLower(lang)
		}
		if country != "" {
			g.country = strings.ToUpper(country)
		}
	}
}

// WithBaseURL overrides the rss root url
func WithBaseURL(base string) Option {
	return func(g *GoogleNews) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewGoogleNews makes GoogleNews with english/US locale by default
func NewGoogleNews(parser FeedParser, opts ...Option) *GoogleNews {
	g := &GoogleNews{parser: parser, lang: "en", country: "US", baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SearchParams defines a full-text search
type SearchParams struct {
	Query    string
	When     string // recency qualifier, i.e. "7d" or "1h"; takes precedence over From and To
	From     string // human date, becomes after:YYYY-MM-DD
	To       string // human date, becomes before:YYYY-MM-DD
	NoEscape bool   // don't percent-encode the query
}

// TopNews reads the main page feed
func (g *GoogleNews) TopNews(ctx context.Context, tr Transport) (*domain.Feed, error) {
	return g.parser.Parse(ctx, g.TopNewsURL(), tr)
}

// TopicHeadlines reads a topic feed, fails with UnsupportedTopicError if it has no entries
func (g *GoogleNews) TopicHeadlines(ctx context.Context, topic string, tr Transport) (*domain.Feed, error) {
	f, err := g.parser.Parse(ctx, g.TopicURL(topic), tr)
	if err != nil {
		return nil, err
	}
	if len(f.Entries) == 0 {
		return nil, &UnsupportedTopicError{Topic: topic}
	}
	return f, nil
}

// GeoHeadlines reads headlines about a location
func (g *GoogleNews) GeoHeadlines(ctx context.Context, geo string, tr Transport) (*domain.Feed, error) {
	return g.parser.Parse(ctx, g.GeoURL(geo), tr)
}

// Search reads the feed of a full-text search
func (g *GoogleNews) Search(ctx context.Context, params SearchParams, tr Transport) (*domain.Feed, error) {
	searchURL, err := g.SearchURL(params)
	if err != nil {
		return nil, err
	}
	return g.parser.Parse(ctx, searchURL, tr)
}

// TopNewsURL returns the main page feed url
func (g *GoogleNews) TopNewsURL() string {
	return g.baseURL + g.ceid()
}

// TopicURL returns section url for canonical topics and topics/{id} url for anything else
func (g *GoogleNews) TopicURL(topic string) string {
	if upper := strings.ToUpper(topic); slices.Contains(Topics, upper) {
		return g.baseURL + "/headlines/section/topic/" + upper + g.ceid()
	}
	return g.baseURL + "/topics/" + topic + g.ceid()
}

// GeoURL returns the geo headlines url
func (g *GoogleNews) GeoURL(geo string) string {
	return g.baseURL + "/headlines/section/geo/" + geo + g.ceid()
}

// SearchURL returns the search url with recency or date range qualifiers added to the query
func (g *GoogleNews) SearchURL(params SearchParams) (string, error) {
	query := params.Query

	if params.When != "" {
		query += " when:" + params.When
	}

	if params.From != "" && params.When == "" {
		from, err := normalizeDate(params.From)
		if err != nil {
			return "", fmt.Errorf("from date: %w", err)
		}
		query += " after:" + from
	}

	if params.To != "" && params.When == "" {
		to, err := normalizeDate(params.To)
		if err != nil {
			return "", fmt.Errorf("to date: %w", err)
		}
		query += " before:" + to
	}

	if !params.NoEscape {
		query = url.QueryEscape(query)
	}

	return g.baseURL + "/search?q=" + query + strings.Replace(g.ceid(), "?", "&", 1), nil
}

// ceid makes the locale suffix selecting edition, language and geography
func (g *GoogleNews) ceid() string {
	return fmt.Sprintf("?ceid=%s:%s&hl=%s&gl=%s", g.country, g.lang, g.lang, g.country)
}
