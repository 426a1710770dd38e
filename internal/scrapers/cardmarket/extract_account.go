package cardmarket

import (
	"regexp"
	"strings"

	"cardmarket-monitor/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	positiveAmountClass = regexp.MustCompile(`(?i)text-success`)
	envelopeClass       = regexp.MustCompile(`(?i)envelope`)
	unreadClass         = regexp.MustCompile(`(?i)unread`)
)

// ParseBalance reads the account balance shown in the page header, 0 when
// the page doesn't show one.
func ParseBalance(html string) float64 {
	return firstOf(parseDocument(html), 0,
		balanceFromHeader,
		balanceFromPositiveAmount,
	)
}

func balanceFromHeader(doc *goquery.Document) (float64, bool) {
	return ParseCurrency(htmlutil.Text(doc.Find("#totalCreditMainNav").First()))
}

func balanceFromPositiveAmount(doc *goquery.Document) (float64, bool) {
	var value float64
	found := false
	withClass(doc.Selection, positiveAmountClass).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value, found = ParseCurrency(htmlutil.Text(s))
		return !found
	})
	return value, found
}

type orderStatus struct {
	pathFragment string
	label        *regexp.Regexp
	count        func(*OrderCounts) *int
}

var orderStatuses = []orderStatus{
	{
		pathFragment: "/Paid",
		label:        regexp.MustCompile(`(?i)paid\s*(` + integerPattern + `)`),
		count:        func(c *OrderCounts) *int { return &c.Paid },
	},
	{
		pathFragment: "/Sent",
		label:        regexp.MustCompile(`(?i)sent\s*(` + integerPattern + `)`),
		count:        func(c *OrderCounts) *int { return &c.Sent },
	},
	{
		pathFragment: "/Arrived",
		label:        regexp.MustCompile(`(?i)arrived\s*(` + integerPattern + `)`),
		count:        func(c *OrderCounts) *int { return &c.Arrived },
	},
}

// ParseOrderCounts reads the paid/sent/arrived counters of an orders page.
// Sales and purchases pages share the same layout.
func ParseOrderCounts(html string) OrderCounts {
	doc := parseDocument(html)
	var counts OrderCounts

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		for _, status := range orderStatuses {
			if !strings.Contains(href, status.pathFragment) {
				continue
			}
			if n, ok := anchorCount(a, status.label); ok {
				*status.count(&counts) = n
			}
			break
		}
	})
	return counts
}

// anchorCount reads "Paid 3" style text first, then a nested badge.
func anchorCount(a *goquery.Selection, label *regexp.Regexp) (int, bool) {
	if groups := label.FindStringSubmatch(htmlutil.Text(a)); groups != nil {
		return parseInt(groups[1])
	}
	badge := a.Find(".badge").First()
	if badge.Length() == 0 {
		return 0, false
	}
	return parseInt(htmlutil.Text(badge))
}

// ParseUnreadMessages reads the unread message counter, 0 when there is none.
func ParseUnreadMessages(html string) int {
	return firstOf(parseDocument(html), 0,
		messagesFromEnvelopeBadge,
		messagesFromUnreadRows,
	)
}

func messagesFromEnvelopeBadge(doc *goquery.Document) (int, bool) {
	envelope := withClass(doc.Selection, envelopeClass).First()
	if envelope.Length() == 0 {
		return 0, false
	}
	badge := envelope.Parent().Find(".badge").First()
	if badge.Length() == 0 {
		return 0, false
	}
	return parseInt(htmlutil.Text(badge))
}

func messagesFromUnreadRows(doc *goquery.Document) (int, bool) {
	n := withClass(doc.Selection, unreadClass).Length()
	return n, n > 0
}

var (
	// "1 to 30 from 245", "1 bis 30 von 1.245"
	paginationRegex = regexp.MustCompile(`(?i)\d+\s*(?:to|bis|-)\s*\d+\s*(?:from|of|von)\s*(` + integerPattern + `)`)
	looseTotalRegex = regexp.MustCompile(`(?i)(?:from|of|von)\s*(` + integerPattern + `)`)
	stockValueRegex = regexp.MustCompile(`(?i)(?:total|gesamt)[:\s\x{00A0}]*(` + currencyPattern + `)`)
)

// ParseStockSummary reads the article count and total value of the stock
// offers page. The count is the larger of the pagination total and the
// number of rows in the offers table.
func ParseStockSummary(html string) StockSummary {
	doc := parseDocument(html)

	paginated := firstOf(doc, 0, stockFromPagination, stockFromLooseTotal)
	rows, _ := stockFromTableRows(doc)

	return StockSummary{
		Count: max(paginated, rows),
		Value: firstOf(doc, 0, stockValueFromTotal),
	}
}

func stockFromPagination(doc *goquery.Document) (int, bool) {
	groups := paginationRegex.FindStringSubmatch(doc.Text())
	if groups == nil {
		return 0, false
	}
	return parseInt(groups[1])
}

func stockFromLooseTotal(doc *goquery.Document) (int, bool) {
	groups := looseTotalRegex.FindStringSubmatch(doc.Text())
	if groups == nil {
		return 0, false
	}
	return parseInt(groups[1])
}

func stockFromTableRows(doc *goquery.Document) (int, bool) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return 0, false
	}
	// minus the header row
	n := table.Find("tr").Length() - 1
	return max(n, 0), n > 0
}

func stockValueFromTotal(doc *goquery.Document) (float64, bool) {
	groups := stockValueRegex.FindStringSubmatch(doc.Text())
	if groups == nil {
		return 0, false
	}
	return ParseCurrency(groups[1])
}

// ParseLoginToken returns the hidden login token of a page, "" when absent.
func ParseLoginToken(html string) string {
	doc := parseDocument(html)
	return strings.TrimSpace(doc.Find("input[name='" + loginTokenField + "']").AttrOr("value", ""))
}
