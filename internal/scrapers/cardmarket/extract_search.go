package cardmarket

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"cardmarket-monitor/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var productRowID = regexp.MustCompile(`^productRow\d+$`)

// singlesPatterns match product links of the given game first, then of any
// game (search pages sometimes link across catalogues).
func singlesPatterns(game Game) []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`/en/` + regexp.QuoteMeta(string(game)) + `/Products/Singles/`),
		regexp.MustCompile(`/en/[^/]+/Products/Singles/`),
	}
}

// productLinkPattern matches a direct link to a product page:
// /en/<game>/Products/Singles/<set>/<card>
func productLinkPattern(game Game) *regexp.Regexp {
	return regexp.MustCompile(`/en/` + regexp.QuoteMeta(string(game)) + `/Products/Singles/[^/]+/[^/]+$`)
}

// ParseSearchResults reads the product rows of a search page in document
// order, at most maxResults of them. baseURL turns relative links into full
// urls.
func ParseSearchResults(ctx context.Context, html, baseURL string, game Game, maxResults int) []SearchResult {
	if maxResults <= 0 {
		return []SearchResult{}
	}
	doc := parseDocument(html)
	urls := newEndpoints(baseURL, game)

	results := searchFromProductRows(doc, urls, maxResults)
	if len(results) == 0 {
		results = searchFromProductLinks(ctx, doc, urls, maxResults)
	}
	return results
}

func full(results []SearchResult, maxResults int) bool {
	return len(results) >= maxResults
}

func searchFromProductRows(doc *goquery.Document, urls endpoints, maxResults int) []SearchResult {
	results := []SearchResult{}
	patterns := singlesPatterns(urls.game)

	doc.Find("div[id^='productRow']").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !productRowID.MatchString(row.AttrOr("id", "")) {
			return true
		}
		result, ok := parseSearchRow(row, urls, patterns)
		if ok {
			results = append(results, result)
		}
		return !full(results, maxResults)
	})
	return results
}

func parseSearchRow(row *goquery.Selection, urls endpoints, patterns []*regexp.Regexp) (SearchResult, bool) {
	var link *goquery.Selection
	for _, pattern := range patterns {
		link = row.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return pattern.MatchString(a.AttrOr("href", ""))
		}).First()
		if link.Length() > 0 {
			break
		}
	}
	if link == nil || link.Length() == 0 {
		return SearchResult{}, false
	}

	href := strings.TrimSpace(link.AttrOr("href", ""))
	name := htmlutil.Text(link)
	if name == "" {
		return SearchResult{}, false
	}

	result := SearchResult{
		Name:      name,
		Set:       setFromPath(href),
		URL:       urls.absolute(href),
		ProductID: href,
	}
	if price, ok := ParseCurrency(htmlutil.Text(row.Find(".price-container").First())); ok {
		result.PriceFrom = amount(price)
	}
	return result, true
}

func searchFromProductLinks(ctx context.Context, doc *goquery.Document, urls endpoints, maxResults int) []SearchResult {
	results := []SearchResult{}
	pattern := productLinkPattern(urls.game)
	seen := map[string]bool{}

	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		path := anchor.Href
		if parsed, err := url.Parse(anchor.Href); err == nil {
			path = parsed.Path
		}
		if !pattern.MatchString(path) || seen[anchor.Href] || anchor.Name == "" {
			continue
		}
		seen[anchor.Href] = true

		results = append(results, SearchResult{
			Name:      anchor.Name,
			Set:       setFromPath(anchor.Href),
			URL:       urls.absolute(anchor.Href),
			ProductID: anchor.Href,
		})
		if full(results, maxResults) {
			break
		}
	}
	return results
}
