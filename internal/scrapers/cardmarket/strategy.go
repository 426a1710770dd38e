package cardmarket

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// firstOf tries strategies in order and returns the first value found, or
// fallback when none of them find anything. A strategy is one way of locating
// a value in a page, ok is false when the page doesn't have what the strategy
// looks for.
func firstOf[T any](doc *goquery.Document, fallback T, strategies ...func(doc *goquery.Document) (value T, ok bool)) T {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v
		}
	}
	return fallback
}

// parseDocument never fails: html that can't be read yields an empty document
// so every strategy falls through to its default.
func parseDocument(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return doc
}

// withClass selects every element under sel whose class attribute matches
// pattern.
func withClass(sel *goquery.Selection, pattern *regexp.Regexp) *goquery.Selection {
	return sel.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return pattern.MatchString(s.AttrOr("class", ""))
	})
}
