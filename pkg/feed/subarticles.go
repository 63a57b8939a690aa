package feed

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/umputun/newsfeeder/pkg/domain"
)

// ExtractSubArticles returns related articles embedded in an entry summary.
// Each li element should carry an anchor with href and a font element with the publisher,
// items missing any of these are skipped. Empty summary gives nil.
func ExtractSubArticles(summary string) ([]domain.SubArticle, error) {
	if summary == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(summary))
	if err != nil {
		return []domain.SubArticle{}, fmt.Errorf("parse summary html: %w", err)
	}

	res := []domain.SubArticle{}
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		font := li.Find("font").First()
		if font.Length() == 0 {
			return
		}
		res = append(res, domain.SubArticle{URL: href, Title: a.Text(), Publisher: font.Text()})
	})
	return res, nil
}
