package domain

// ArticleRecord is the unit persisted to storage, one json document per article
type ArticleRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
}

// NewArticleRecord makes a record from a feed entry and its extracted content.
// The entry's own id is kept, newID is called only when the entry has none.
func NewArticleRecord(e Entry, content string, newID func() string) ArticleRecord {
	id := e.ID
	if id == "" {
		id = newID()
	}
	return ArticleRecord{
		ID:        id,
		Title:     e.Title,
		Link:      e.Link,
		Published: e.Published,
		Summary:   e.Summary,
		Content:   content,
	}
}
