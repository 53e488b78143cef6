package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// CompactHTML strips elements that carry no product information and collapses
// whitespace so the markup fits in a model prompt. maxBytes caps the result;
// zero or negative means no cap.
func CompactHTML(html string, maxBytes int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncate(strings.TrimSpace(html), maxBytes)
	}

	doc.Find("script, style, noscript, svg, iframe, link, meta, template").Remove()

	body, err := doc.Find("body").Html()
	if err != nil || body == "" {
		body = html
	}

	body = whitespaceRE.ReplaceAllString(body, " ")
	return truncate(strings.TrimSpace(body), maxBytes)
}

func truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	return s[:maxBytes]
}
