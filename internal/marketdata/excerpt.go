package marketdata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

// ExcerptLength is the rune budget of a news body
const ExcerptLength = 200

// Excerpt strips markup and truncates to limit runes
func Excerpt(body string, limit int) string {
	text := body
	if strings.ContainsAny(body, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")

	if limit > 0 {
		runes := []rune(text)
		if len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	return text
}

// CleanNews normalizes a stored news row for the scorer
func CleanNews(item contracts.NewsItem) contracts.NewsItem {
	item.Title = strings.TrimSpace(item.Title)
	item.Content = Excerpt(item.Content, ExcerptLength)
	if strings.TrimSpace(item.Source) == "" {
		item.Source = contracts.DefaultNewsSource
	}
	return item
}
