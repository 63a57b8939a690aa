package feed

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/newsfeeder/pkg/domain"
)

// DefaultRelayURL is the scraping relay api endpoint
const DefaultRelayURL = "https://app.scrapingbee.com/api/v1/"

// unsupportedMarker is the path google news redirects to for feeds it doesn't serve
const unsupportedMarker = "/rss/unsupported"

// maxErrBody limits how much of a failed relay response is kept in the error
const maxErrBody = 4096

// Transport overrides how a feed is fetched. Proxies and RelayKey are mutually exclusive.
type Transport struct {
	Proxies  map[string]string // url scheme -> proxy url, i.e. "https" -> "http://proxy:3128"
	RelayKey string            // scraping relay api key
}

func (t Transport) direct() bool { return len(t.Proxies) == 0 && t.RelayKey == "" }

// ReaderParams defines parameters for NewReader
type ReaderParams struct {
	Timeout   time.Duration
	UserAgent string
	RelayURL  string
}

// Reader fetches and parses RSS/Atom feeds
type Reader struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	relayURL  string
}

// NewReader creates a feed reader. Direct requests skip tls verification.
func NewReader(params ReaderParams) *Reader {
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	if params.UserAgent == "" {
		params.UserAgent = "Mozilla/5.0 (compatible; Newsfeeder/1.0)"
	}
	if params.RelayURL == "" {
		params.RelayURL = DefaultRelayURL
	}
	return &Reader{
		client: &http.Client{
			Timeout: params.Timeout,
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // feeds are fetched unverified
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   params.Timeout,
		userAgent: params.UserAgent,
		relayURL:  params.RelayURL,
	}
}

// Parse fetches the feed with the given transport and parses it.
// Direct fetches which fail or give no entries are retried once with gofeed's own url fetch,
// the first error is returned if the retry fails too.
func (r *Reader) Parse(ctx context.Context, feedURL string, tr Transport) (*domain.Feed, error) {
	if len(tr.Proxies) > 0 && tr.RelayKey != "" {
		return nil, &TransportError{Msg: "pick either relay or proxies, not both"}
	}

	body, err := r.fetch(ctx, feedURL, tr)
	var unavailable *UnavailableFeedError
	if err != nil && (!tr.direct() || errors.As(err, &unavailable)) {
		return nil, err
	}

	var parsed *gofeed.Feed
	parseErr := err
	if err == nil {
		parsed, parseErr = gofeed.NewParser().Parse(bytes.NewReader(body))
	}

	if tr.direct() && (parseErr != nil || len(parsed.Items) == 0) {
		lgr.Printf("[DEBUG] no entries in %s, retry with parser fetch", feedURL)
		retried, err := r.parseURL(ctx, feedURL)
		if err == nil {
			return toDomainFeed(retried), nil
		}
		lgr.Printf("[DEBUG] retry for %s failed: %v", feedURL, err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, parseErr)
	}

	return toDomainFeed(parsed), nil
}

// fetch retrieves the feed body either directly, via proxies or via the relay
func (r *Reader) fetch(ctx context.Context, feedURL string, tr Transport) (body []byte, err error) {
	if tr.RelayKey != "" {
		return r.fetchRelay(ctx, feedURL, tr.RelayKey)
	}

	client := r.client
	if len(tr.Proxies) > 0 {
		client, err = proxyClient(tr.Proxies, r.timeout)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	addBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Request.URL.String(), unsupportedMarker) {
		return nil, &UnavailableFeedError{URL: feedURL}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if body, err = io.ReadAll(resp.Body); err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return body, nil
}

// fetchRelay asks the scraping relay to fetch the feed on our behalf
func (r *Reader) fetchRelay(ctx context.Context, feedURL, apiKey string) (body []byte, err error) {
	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("url", feedURL)
	params.Set("render_js", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.relayURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create relay request: %w", err)
	}

	client := &http.Client{Timeout: r.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, &RelayError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	if body, err = io.ReadAll(resp.Body); err != nil {
		return nil, fmt.Errorf("read relay body: %w", err)
	}
	return body, nil
}

// parseURL lets gofeed fetch and parse the feed by itself
func (r *Reader) parseURL(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.UserAgent = r.userAgent
	parser.Client = r.client
	return parser.ParseURLWithContext(feedURL, ctx)
}

// proxyClient makes a client sending requests through the proxy matching the request scheme
func proxyClient(proxies map[string]string, timeout time.Duration) (*http.Client, error) {
	parsed := make(map[string]*url.URL, len(proxies))
	for scheme, p := range proxies {
		u, err := url.Parse(p)
		if err != nil {
			return nil, &TransportError{Msg: fmt.Sprintf("invalid %s proxy %q: %v", scheme, p, err)}
		}
		parsed[strings.ToLower(scheme)] = u
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: func(req *http.Request) (*url.URL, error) {
				return parsed[req.URL.Scheme], nil
			},
		},
	}, nil
}

func toDomainFeed(f *gofeed.Feed) *domain.Feed {
	res := &domain.Feed{
		Title:       f.Title,
		Link:        f.Link,
		Description: f.Description,
		Entries:     make([]domain.Entry, 0, len(f.Items)),
	}

	for _, item := range f.Items {
		entry := domain.Entry{
			ID:        item.GUID,
			Title:     item.Title,
			Link:      item.Link,
			Published: item.Published,
			Summary:   item.Description,
		}

		if entry.Published == "" {
			entry.Published = item.Updated
		}
		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = *item.UpdatedParsed
		}

		if entry.Summary != "" {
			subs, err := ExtractSubArticles(entry.Summary)
			if err != nil {
				lgr.Printf("[WARN] failed to extract sub-articles for %s: %v", entry.Link, err)
			}
			entry.SubArticles = subs
		}

		res.Entries = append(res.Entries, entry)
	}
	return res
}
