package profile

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// summarizeBody turns an upstream error body into readable text. Gateway error pages
// arrive as HTML; for those the page title, first heading or flattened body text is used.
func summarizeBody(body []byte, contentType string) string {
	text := strings.TrimSpace(string(body))
	if !looksLikeHTML(contentType, text) {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return text
	}

	for _, selector := range []string{"title", "h1"} {
		if found := collapseSpaces(doc.Find(selector).First().Text()); found != "" {
			return found
		}
	}

	if found := collapseSpaces(doc.Find("body").Text()); found != "" {
		return found
	}
	return text
}

func looksLikeHTML(contentType, text string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
