package cardmarket

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type AccountSnapshot struct {
	Username string  `json:"username"`
	Game     Game    `json:"game"`
	GameName string  `json:"game_name"`
	Balance  float64 `json:"balance"`
}

type StockSummary struct {
	Count int     `json:"stock_count"`
	Value float64 `json:"stock_value"`
}

// OrderCounts is the same shape for the seller (sales) and buyer (purchases)
// order pages.
type OrderCounts struct {
	Paid    int `json:"paid"`
	Sent    int `json:"sent"`
	Arrived int `json:"arrived"`
}

type SearchResult struct {
	Name string `json:"name"`
	Set  string `json:"set"`
	URL  string `json:"url"`
	// ProductID is the href of the product as it appears on the page.
	ProductID string   `json:"product_id"`
	PriceFrom *float64 `json:"price_from,omitempty"`
}

// CardPriceDetail is the price panel of one card page. Prices are nil when the
// page doesn't show them.
type CardPriceDetail struct {
	Name           string   `json:"name"`
	Set            string   `json:"set"`
	URL            string   `json:"url"`
	FilterURL      string   `json:"filter_url,omitempty"`
	PriceFrom      *float64 `json:"price_from"`
	PriceTrend     *float64 `json:"price_trend"`
	Price30DayAvg  *float64 `json:"price_30_day_avg"`
	Price7DayAvg   *float64 `json:"price_7_day_avg"`
	Price1DayAvg   *float64 `json:"price_1_day_avg"`
	AvailableItems int      `json:"available_items"`
}

// CardFilters narrow the offers a card page prices, an empty field means no
// filter. See Languages, Conditions and FoilOptions for the vocabularies.
type CardFilters struct {
	Language  string `json:"language,omitempty"`
	Condition string `json:"condition,omitempty"`
	Foil      string `json:"foil,omitempty"`
}

func (f CardFilters) Empty() bool {
	return f.Language == "" && f.Condition == "" && f.Foil == ""
}

// Validate checks every set filter against its vocabulary.
func (f CardFilters) Validate() error {
	if !IsOption(Languages, f.Language) {
		return fmt.Errorf("unknown language filter %q", f.Language)
	}
	if !IsOption(Conditions, f.Condition) {
		return fmt.Errorf("unknown condition filter %q", f.Condition)
	}
	if !IsOption(FoilOptions, f.Foil) {
		return fmt.Errorf("unknown foil filter %q", f.Foil)
	}
	return nil
}

// TrackedCardKey identifies a (card, filters) pairing. It is the card url when
// no filter is set so that unfiltered entries stay readable.
func TrackedCardKey(url string, f CardFilters) string {
	if f.Empty() {
		return url
	}
	return fmt.Sprintf("%s?lang=%s&cond=%s&foil=%s", url, f.Language, f.Condition, f.Foil)
}

type TrackedCardSpec struct {
	URL       string `json:"url"`
	UniqueKey string `json:"unique_key,omitempty"`
	Name      string `json:"name,omitempty"`
	Set       string `json:"set,omitempty"`
	CardFilters
}

// Key returns UniqueKey, falling back to the url.
func (s TrackedCardSpec) Key() string {
	if s.UniqueKey != "" {
		return s.UniqueKey
	}
	return s.URL
}

// TrackedPrice is either a priced card (Detail set) or an error record (Err
// set) for one tracked card.
type TrackedPrice struct {
	Detail  *CardPriceDetail
	Filters CardFilters
	Err     string
}

func (p TrackedPrice) Failed() bool {
	return p.Err != ""
}

// Attributes renders the record the way the host stores it: the error record
// is {"error": message}, a priced card is its detail plus its filters.
func (p TrackedPrice) Attributes() map[string]any {
	if p.Failed() || p.Detail == nil {
		return map[string]any{"error": p.Err}
	}
	d := p.Detail
	out := map[string]any{
		"name":             d.Name,
		"set":              d.Set,
		"url":              d.URL,
		"price_from":       floatOrNil(d.PriceFrom),
		"price_trend":      floatOrNil(d.PriceTrend),
		"price_30_day_avg": floatOrNil(d.Price30DayAvg),
		"price_7_day_avg":  floatOrNil(d.Price7DayAvg),
		"price_1_day_avg":  floatOrNil(d.Price1DayAvg),
		"available_items":  d.AvailableItems,
		"language":         p.Filters.Language,
		"condition":        p.Filters.Condition,
		"foil":             p.Filters.Foil,
	}
	if d.FilterURL != "" {
		out["filter_url"] = d.FilterURL
	}
	return out
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

type FullSnapshot struct {
	Account        AccountSnapshot         `json:"account"`
	Stock          StockSummary            `json:"stock"`
	SellerOrders   OrderCounts             `json:"seller_orders"`
	BuyerOrders    OrderCounts             `json:"buyer_orders"`
	UnreadMessages int                     `json:"unread_messages"`
	TrackedCards   map[string]TrackedPrice `json:"-"`
	FetchedAt      time.Time               `json:"fetched_at"`
}

// MarshalJSON adds TrackedCards under "tracked_cards", each record rendered
// by TrackedPrice.Attributes.
func (s FullSnapshot) MarshalJSON() ([]byte, error) {
	type plain FullSnapshot
	cards := make(map[string]map[string]any, len(s.TrackedCards))
	for key, price := range s.TrackedCards {
		cards[key] = price.Attributes()
	}
	return json.Marshal(struct {
		plain
		TrackedCards map[string]map[string]any `json:"tracked_cards"`
	}{plain: plain(s), TrackedCards: cards})
}

// Flatten returns the scalar values of the snapshot under their host keys.
func (s FullSnapshot) Flatten() map[string]any {
	return map[string]any{
		"account_balance":       s.Account.Balance,
		"stock_count":           s.Stock.Count,
		"stock_value":           round2(s.Stock.Value),
		"seller_orders_paid":    s.SellerOrders.Paid,
		"seller_orders_sent":    s.SellerOrders.Sent,
		"seller_orders_arrived": s.SellerOrders.Arrived,
		"buyer_orders_paid":     s.BuyerOrders.Paid,
		"buyer_orders_sent":     s.BuyerOrders.Sent,
		"buyer_orders_arrived":  s.BuyerOrders.Arrived,
		"unread_messages":       s.UnreadMessages,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func amount(v float64) *float64 {
	return &v
}
