package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewArticleRecord(t *testing.T) {
	entry := Entry{
		ID:        "guid-1",
		Title:     "Title",
		Link:      "https://example.com/a",
		Published: "Mon, 02 Jan 2006 15:04:05 GMT",
		Summary:   "<p>summary</p>",
	}
	newID := func() string { return "generated" }

	t.Run("keeps feed id", func(t *testing.T) {
		rec := NewArticleRecord(entry, "body", newID)
		assert.Equal(t, ArticleRecord{ID: "guid-1", Title: "Title", Link: "https://example.com/a",
			Published: "Mon, 02 Jan 2006 15:04:05 GMT", Summary: "<p>summary</p>", Content: "body"}, rec)
	})

	t.Run("generates id when missing", func(t *testing.T) {
		e := entry
		e.ID = ""
		rec := NewArticleRecord(e, "", newID)
		assert.Equal(t, "generated", rec.ID)
		assert.Empty(t, rec.Content)
	})
}
