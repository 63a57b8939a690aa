package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/publicsuffix"
)

// FetchError is returned when an article can't be downloaded or its text extracted
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch article %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Params defines parameters for NewHTTPExtractor
type Params struct {
	Timeout       time.Duration
	UserAgent     string
	MinTextLength int // shorter text is treated as failed extraction
}

// HTTPExtractor extracts article content from URLs using trafilatura
type HTTPExtractor struct {
	client        *http.Client
	userAgent     string
	minTextLength int
}

// NewHTTPExtractor creates a new content extractor. The client keeps cookies, so consent
// and redirect pages setting them are followed like in a browser.
func NewHTTPExtractor(params Params) *HTTPExtractor {
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	if params.UserAgent == "" {
		params.UserAgent = "Mozilla/5.0 (compatible; Newsfeeder/1.0)"
	}
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) // never fails
	return &HTTPExtractor{
		client:        &http.Client{Timeout: params.Timeout, Jar: jar},
		userAgent:     params.UserAgent,
		minTextLength: params.MinTextLength,
	}
}

// Extract retrieves the page and returns its main readable text.
// All failures are returned as *FetchError.
func (e *HTTPExtractor) Extract(ctx context.Context, urlStr string) (string, error) {
	text, err := e.extract(ctx, urlStr)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	return text, nil
}

func (e *HTTPExtractor) extract(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", urlStr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	addBrowserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	// redirects change the page url, trafilatura uses it to resolve relative links
	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		ExcludeTables:   false,
		IncludeImages:   false,
		IncludeLinks:    false,
		Deduplicate:     true,
		OriginalURL:     resp.Request.URL,
	}

	result, err := trafilatura.Extract(resp.Body, opts)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("no content extracted")
	}

	content := strings.TrimSpace(result.ContentText)
	if content == "" {
		return "", fmt.Errorf("no text content extracted")
	}
	if len([]rune(content)) < e.minTextLength {
		return "", fmt.Errorf("extracted text too short, %d chars", len([]rune(content)))
	}
	return content, nil
}
