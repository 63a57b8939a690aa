package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsfeeder/pkg/domain"
)

func TestExtractSubArticles(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    []domain.SubArticle
	}{
		{
			name:    "empty summary",
			summary: "",
			want:    nil,
		},
		{
			name: "two related articles",
			summary: `<ol><li><a href="https://a.example/1" target="_blank">First</a>&nbsp;&nbsp;<font color="#6f6f6f">Reuters</font></li>` +
				`<li><a href="https://a.example/2">Second</a> <font>AP News</font></li></ol>`,
			want: []domain.SubArticle{
				{URL: "https://a.example/1", Title: "First", Publisher: "Reuters"},
				{URL: "https://a.example/2", Title: "Second", Publisher: "AP News"},
			},
		},
		{
			name:    "plain text summary",
			summary: "just some text without markup",
			want:    []domain.SubArticle{},
		},
		{
			name:    "no well-formed list items",
			summary: `<ul><li>no link</li><li><a>no href</a><font>Pub</font></li><li><a href="https://a.example">no publisher</a></li></ul>`,
			want:    []domain.SubArticle{},
		},
		{
			name:    "unicode",
			summary: `<li><a href="https://a.example/ü">Привет мир</a><font>Лента</font></li>`,
			want:    []domain.SubArticle{{URL: "https://a.example/ü", Title: "Привет мир", Publisher: "Лента"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSubArticles(tt.summary)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
