package cardmarket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBalance(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected float64
	}{
		{
			name:     "header credit",
			html:     `<nav><span id="totalCreditMainNav">15,43&nbsp;€</span></nav>`,
			expected: 15.43,
		},
		{
			name:     "positive amount",
			html:     `<div><span class="fw-bold text-success">2,00 €</span></div>`,
			expected: 2,
		},
		{
			name:     "header wins",
			html:     `<span id="totalCreditMainNav">1.000,00 €</span><span class="text-success">2,00 €</span>`,
			expected: 1000,
		},
		{
			name:     "nothing",
			html:     `<div>Welcome</div>`,
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expected, ParseBalance(tc.html), 0.0001)
		})
	}
}

func TestParseOrderCounts(t *testing.T) {
	html := `
<ul>
	<li><a href="/en/Magic/Orders/Sales/Paid">Paid0</a></li>
	<li><a href="/en/Magic/Orders/Sales/Sent"><span class="badge">7</span></a></li>
	<li><a href="/en/Magic/Orders/Sales/Arrived">Arrived <span class="badge">12</span></a></li>
	<li><a href="/en/Magic/Orders/Sales/Cancelled">Cancelled 4</a></li>
</ul>`
	require.Equal(t, OrderCounts{Paid: 0, Sent: 7, Arrived: 12}, ParseOrderCounts(html))

	require.Equal(t, OrderCounts{}, ParseOrderCounts(`<a href="/en/Magic">Home</a>`))

	busy := `<a href="/en/Magic/Orders/Purchases/Arrived">Arrived 1.502</a>`
	require.Equal(t, OrderCounts{Arrived: 1502}, ParseOrderCounts(busy))
}

func TestParseUnreadMessages(t *testing.T) {
	envelope := `<a href="/en/Magic/Account/Messages"><i class="fa fa-envelope"></i><span class="badge">4</span></a>`
	require.Equal(t, 4, ParseUnreadMessages(envelope))

	rows := `<table><tr class="message unread"><td>a</td></tr><tr class="message unread"><td>b</td></tr><tr class="message"><td>c</td></tr></table>`
	require.Equal(t, 2, ParseUnreadMessages(rows))

	require.Equal(t, 0, ParseUnreadMessages(`<div>Inbox</div>`))
}

func TestParseStockSummary(t *testing.T) {
	html := `
<div class="pagination">1 to 30 from 245</div>
<table>
	<tr><th>Card</th></tr>
	<tr><td>Black Lotus</td></tr>
</table>
<div class="summary">Total: 1.234,56 €</div>`
	require.Equal(t, StockSummary{Count: 245, Value: 1234.56}, ParseStockSummary(html))

	rowsOnly := `
<table>
	<tr><th>Card</th></tr>
	<tr><td>Black Lotus</td></tr>
	<tr><td>Mox Pearl</td></tr>
	<tr><td>Time Walk</td></tr>
</table>`
	require.Equal(t, StockSummary{Count: 3}, ParseStockSummary(rowsOnly))

	german := `<div>1 bis 20 von 42</div><div>Gesamt: 99,90 €</div>`
	require.Equal(t, StockSummary{Count: 42, Value: 99.9}, ParseStockSummary(german))

	thousands := `<div>1 to 30 from 1.234</div><div>Total: 2.345,67 €</div>`
	require.Equal(t, StockSummary{Count: 1234, Value: 2345.67}, ParseStockSummary(thousands))

	looseThousands := `<div>Showing articles of 12,345</div>`
	require.Equal(t, StockSummary{Count: 12345}, ParseStockSummary(looseThousands))

	require.Equal(t, StockSummary{}, ParseStockSummary(`<div>Your stock is empty</div>`))
}

func TestParseLoginToken(t *testing.T) {
	html := `<form><input type="hidden" name="__cmtkn" value=" abc123 "><input name="username"></form>`
	require.Equal(t, "abc123", ParseLoginToken(html))
	require.Equal(t, "", ParseLoginToken(`<form><input name="username"></form>`))
}

const searchPage = `
<div class="table-body">
	<div id="productRowHeader">Name</div>
	<div id="productRow101">
		<a href="/en/Magic/Products/Singles/Alpha/Black-Lotus">Black Lotus</a>
		<div class="price-container">15.000,00 €</div>
	</div>
	<div id="productRow102">
		<a href="/en/Magic/Products/Singles/Beta/Black-Lotus">Black Lotus</a>
		<div class="price-container">9.500,00 €</div>
	</div>
	<div id="productRow103">
		<a href="/en/Magic/Products/Singles/Unlimited/Black-Lotus">Black Lotus</a>
	</div>
</div>`

func TestParseSearchResults(t *testing.T) {
	results := ParseSearchResults(context.Background(), searchPage, "https://cardmarket.test", "Magic", 2)
	require.Len(t, results, 2)

	require.Equal(t, "Black Lotus", results[0].Name)
	require.Equal(t, "Alpha", results[0].Set)
	require.Equal(t, "https://cardmarket.test/en/Magic/Products/Singles/Alpha/Black-Lotus", results[0].URL)
	require.Equal(t, "/en/Magic/Products/Singles/Alpha/Black-Lotus", results[0].ProductID)
	require.NotNil(t, results[0].PriceFrom)
	require.InDelta(t, 15000.0, *results[0].PriceFrom, 0.0001)

	require.Equal(t, "Beta", results[1].Set)

	all := ParseSearchResults(context.Background(), searchPage, "https://cardmarket.test", "Magic", 50)
	require.Len(t, all, 3)
	require.Nil(t, all[2].PriceFrom)

	require.Empty(t, ParseSearchResults(context.Background(), searchPage, "https://cardmarket.test", "Magic", 0))
}

func TestParseSearchResultsFromLinks(t *testing.T) {
	html := `
<div>
	<a href="/en/Magic/Products/Singles/Alpha">Alpha</a>
	<a href="/en/Magic/Products/Singles/Alpha/Mox-Pearl"><img src="mox.png"></a>
	<a href="/en/Magic/Products/Singles/Alpha/Mox-Pearl">Mox Pearl</a>
	<a href="/en/Magic/Products/Singles/Alpha/Mox-Pearl">Mox Pearl</a>
	<a href="/en/Magic/Products/Singles/Collectors-Edition/Mox-Pearl?language=1">Mox Pearl</a>
	<a href="/en/Pokemon/Products/Singles/Base-Set/Pikachu">Pikachu</a>
</div>`
	results := ParseSearchResults(context.Background(), html, "https://cardmarket.test", "Magic", 10)
	require.Len(t, results, 2)
	require.Equal(t, "Mox Pearl", results[0].Name)
	require.Equal(t, "Alpha", results[0].Set)
	require.Equal(t, "Collectors Edition", results[1].Set)

	require.Empty(t, ParseSearchResults(context.Background(), `<div>No results</div>`, "https://cardmarket.test", "Magic", 10))
}

func TestClassifyLabel(t *testing.T) {
	testCases := map[string]priceField{
		"Available items":       fieldAvailable,
		"Verfügbare Artikel":    fieldAvailable,
		"Printed in":            fieldSet,
		"From":                  fieldFrom,
		"ab":                    fieldFrom,
		"Price Trend":           fieldTrend,
		"30-days average price": fieldAvg30,
		"7-days average price":  fieldAvg7,
		"1-day average price":   fieldAvg1,
		"Rarity":                fieldUnknown,
	}
	for label, expected := range testCases {
		require.Equal(t, expected, classifyLabel(label), label)
	}
}

func TestParseCardPrices(t *testing.T) {
	html := `
<h1>Black Lotus<span class="h4">Alpha - Singles</span></h1>
<div class="info-list-container">
	<dl>
		<dt>Rarity</dt><dd>Rare</dd>
		<dt>Printed in</dt><dd>Alpha</dd>
		<dt>Available items</dt><dd>1.234</dd>
		<dt>From</dt><dd>3,50 €</dd>
		<dt>30-days average price</dt><dd>4,00 €</dd>
		<dt>7-days average price</dt><dd>n/a</dd>
	</dl>
</div>`
	cardURL := "https://cardmarket.test/en/Magic/Products/Singles/Alpha/Black-Lotus"
	detail := ParseCardPrices(html, cardURL)

	require.Equal(t, "Black Lotus", detail.Name)
	require.Equal(t, "Alpha", detail.Set)
	require.Equal(t, cardURL, detail.URL)
	require.Equal(t, 1234, detail.AvailableItems)
	require.NotNil(t, detail.PriceFrom)
	require.InDelta(t, 3.5, *detail.PriceFrom, 0.0001)
	require.NotNil(t, detail.Price30DayAvg)
	require.InDelta(t, 4.0, *detail.Price30DayAvg, 0.0001)
	require.Nil(t, detail.PriceTrend)
	require.Nil(t, detail.Price7DayAvg)
	require.Nil(t, detail.Price1DayAvg)
}

func TestParseCardPricesFallback(t *testing.T) {
	html := `
<h1>Black Lotus - Beta - Singles</h1>
<dl>
	<dt>Offers</dt>
	<dd>2,00 €</dd>
	<dd>not a price</dd>
	<dd>2,50 €</dd>
	<dd>3,00 €</dd>
	<dd>9,99 €</dd>
</dl>`
	detail := ParseCardPrices(html, "https://cardmarket.test/en/Magic/Products/Singles/Beta-Edition/Black-Lotus")

	require.Equal(t, "Black Lotus", detail.Name)
	require.Equal(t, "Beta Edition", detail.Set)
	require.InDelta(t, 2.0, *detail.PriceFrom, 0.0001)
	require.InDelta(t, 2.5, *detail.PriceTrend, 0.0001)
	require.InDelta(t, 3.0, *detail.Price30DayAvg, 0.0001)
	require.Nil(t, detail.Price7DayAvg)
}

func TestParseCardPricesEmpty(t *testing.T) {
	detail := ParseCardPrices("", "https://cardmarket.test/en/Magic/Products/Singles/Alpha/Black-Lotus")
	require.Equal(t, "", detail.Name)
	require.Equal(t, "Alpha", detail.Set)
	require.False(t, detail.hasPrice())
}

func TestParseCardPricesNestedHeading(t *testing.T) {
	detail := ParseCardPrices(`<h1><span>Mox Pearl - Alpha - Singles</span></h1>`, "https://cardmarket.test/en/Magic/Products/Singles/Alpha/Mox-Pearl")
	require.Equal(t, "Mox Pearl", detail.Name)
}
