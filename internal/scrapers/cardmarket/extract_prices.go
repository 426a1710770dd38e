package cardmarket

import (
	"strings"

	"cardmarket-monitor/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type priceField int

const (
	fieldUnknown priceField = iota
	fieldFrom
	fieldTrend
	fieldAvg30
	fieldAvg7
	fieldAvg1
	fieldAvailable
	fieldSet
)

// Checked in order, most specific first: "available" contains "ab" and would
// otherwise be read as the "from" (German "ab") price.
var labelFragments = []struct {
	field     priceField
	fragments []string
}{
	{fieldAvailable, []string{"available", "verfügbar"}},
	{fieldSet, []string{"printed", "gedruckt"}},
	{fieldAvg30, []string{"30-day", "30 day", "30-tage"}},
	{fieldAvg7, []string{"7-day", "7 day", "7-tage"}},
	{fieldAvg1, []string{"1-day", "1 day", "1-tage"}},
	{fieldTrend, []string{"trend"}},
	{fieldFrom, []string{"from", "ab"}},
}

func classifyLabel(label string) priceField {
	label = strings.ToLower(label)
	for _, entry := range labelFragments {
		for _, fragment := range entry.fragments {
			if strings.Contains(label, fragment) {
				return entry.field
			}
		}
	}
	return fieldUnknown
}

func (d *CardPriceDetail) price(field priceField) **float64 {
	switch field {
	case fieldFrom:
		return &d.PriceFrom
	case fieldTrend:
		return &d.PriceTrend
	case fieldAvg30:
		return &d.Price30DayAvg
	case fieldAvg7:
		return &d.Price7DayAvg
	case fieldAvg1:
		return &d.Price1DayAvg
	}
	return nil
}

func (d *CardPriceDetail) hasPrice() bool {
	return d.PriceFrom != nil || d.PriceTrend != nil || d.Price30DayAvg != nil ||
		d.Price7DayAvg != nil || d.Price1DayAvg != nil
}

// ParseCardPrices reads the name, expansion and price panel of a card page.
// cardURL is the page's url, it is recorded as is and used to derive the
// expansion when the page doesn't name it.
func ParseCardPrices(html, cardURL string) CardPriceDetail {
	doc := parseDocument(html)
	detail := CardPriceDetail{
		Name: cardName(doc),
		URL:  cardURL,
	}

	pricesFromInfoPanel(doc, &detail)
	if !detail.hasPrice() {
		pricesFromCurrencyValues(doc, &detail)
	}
	if detail.Set == "" {
		detail.Set = setFromPath(cardURL)
	}
	return detail
}

// cardName reads the heading, "Black Lotus - Alpha - Singles" gives "Black
// Lotus". Text nested in child elements (the expansion subtitle) is ignored
// when the heading has text of its own.
func cardName(doc *goquery.Document) string {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return ""
	}
	text := htmlutil.OwnText(h1.Get(0))
	if text == "" {
		text = htmlutil.CleanText(htmlutil.GetText(h1.Get(0)))
	}
	name, _, _ := strings.Cut(text, " - ")
	return strings.TrimSpace(name)
}

// pricesFromInfoPanel pairs the nth label with the nth value of the info list
// and routes each value by what its label says.
func pricesFromInfoPanel(doc *goquery.Document, detail *CardPriceDetail) {
	panel := doc.Find(".info-list-container").First()
	if panel.Length() == 0 {
		return
	}
	labels := panel.Find("dt")
	values := panel.Find("dd")

	for i, n := 0, min(labels.Length(), values.Length()); i < n; i++ {
		field := classifyLabel(htmlutil.Text(labels.Eq(i)))
		value := htmlutil.Text(values.Eq(i))

		switch field {
		case fieldUnknown:
		case fieldAvailable:
			if n, ok := parseInt(value); ok {
				detail.AvailableItems = n
			}
		case fieldSet:
			if value != "" && detail.Set == "" {
				detail.Set = value
			}
		default:
			target := detail.price(field)
			if *target != nil {
				continue
			}
			if v, ok := ParseCurrency(value); ok {
				*target = amount(v)
			}
		}
	}
}

// pricesFromCurrencyValues is used when the info panel yielded no price: the
// first three "€" values of the page become from, trend and 30-day average.
func pricesFromCurrencyValues(doc *goquery.Document, detail *CardPriceDetail) {
	order := []priceField{fieldFrom, fieldTrend, fieldAvg30}

	doc.Find("dd").EachWithBreak(func(_ int, dd *goquery.Selection) bool {
		text := htmlutil.Text(dd)
		if !strings.Contains(text, "€") {
			return true
		}
		v, ok := ParseCurrency(text)
		if !ok {
			return true
		}
		for _, field := range order {
			target := detail.price(field)
			if *target == nil {
				*target = amount(v)
				return true
			}
		}
		return false
	})
}
