package domain

import "time"

// Feed represents a parsed RSS/Atom document with its entries
type Feed struct {
	Title       string
	Link        string
	Description string
	Entries     []Entry
}

// Entry represents one article reference within a feed
type Entry struct {
	ID          string // feed-supplied guid, may be empty
	Title       string
	Link        string
	Published   string    // published date as provided by the feed
	PublishedAt time.Time // parsed published date, zero if unknown
	Summary     string    // raw html summary
	SubArticles []SubArticle
}

// SubArticle represents a related-article reference embedded in an entry summary
type SubArticle struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
}
