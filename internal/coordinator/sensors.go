package coordinator

import (
	"fmt"
	"strings"

	"cardmarket-monitor/internal/scrapers/cardmarket"
)

// Sensor is one value the host displays.
type Sensor struct {
	Key        string         `json:"key"`
	Name       string         `json:"name"`
	Unit       string         `json:"unit"`
	Icon       string         `json:"icon,omitempty"`
	Value      any            `json:"value"`
	Available  bool           `json:"available"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type accountSensor struct {
	key  string
	name string
	unit string
	icon string
}

var accountSensors = []accountSensor{
	{key: "account_balance", name: "Account Balance", unit: "€", icon: "mdi:cash"},
	{key: "stock_count", name: "Stock Articles", unit: "articles", icon: "mdi:cards"},
	{key: "stock_value", name: "Stock Value", unit: "€", icon: "mdi:cash-multiple"},
	{key: "seller_orders_paid", name: "Seller Orders (Paid)", unit: "orders", icon: "mdi:package-variant"},
	{key: "seller_orders_sent", name: "Seller Orders (Sent)", unit: "orders", icon: "mdi:package-variant-closed"},
	{key: "seller_orders_arrived", name: "Seller Orders (Arrived)", unit: "orders", icon: "mdi:package-check"},
	{key: "buyer_orders_paid", name: "Buyer Orders (Paid)", unit: "orders", icon: "mdi:cart"},
	{key: "buyer_orders_sent", name: "Buyer Orders (Sent)", unit: "orders", icon: "mdi:truck-delivery"},
	{key: "buyer_orders_arrived", name: "Buyer Orders (Arrived)", unit: "orders", icon: "mdi:package-check"},
	{key: "unread_messages", name: "Unread Messages", unit: "messages", icon: "mdi:message-badge"},
}

// Sensors renders the account sensors followed by one sensor per tracked
// card, in tracking order.
func Sensors(state State) []Sensor {
	flat := state.Snapshot.Flatten()

	out := make([]Sensor, 0, len(accountSensors)+len(state.Tracked))
	for _, desc := range accountSensors {
		sensor := Sensor{
			Key:       desc.key,
			Name:      desc.name,
			Unit:      desc.unit,
			Icon:      desc.icon,
			Value:     flat[desc.key],
			Available: state.HasData,
		}
		if desc.key == "account_balance" && state.Snapshot.Account.Username != "" {
			sensor.Attributes = map[string]any{"username": state.Snapshot.Account.Username}
		}
		out = append(out, sensor)
	}

	for _, spec := range state.Tracked {
		out = append(out, cardSensor(spec, state))
	}
	return out
}

var unsafeKeyChars = strings.NewReplacer(
	"/", "_",
	":", "",
	".", "_",
	"?", "_",
	"&", "_",
	"=", "_",
)

// CardSensorKey turns a tracked card key into an identifier without url
// punctuation.
func CardSensorKey(uniqueKey string) string {
	return "card_" + unsafeKeyChars.Replace(uniqueKey)
}

// CardDisplayName renders "Name (Set) [Language, Condition, Foil]", leaving
// out the parts that are not set.
func CardDisplayName(name, set string, f cardmarket.CardFilters) string {
	if name == "" {
		name = "Unknown Card"
	}
	if set != "" {
		name = fmt.Sprintf("%s (%s)", name, set)
	}

	filters := []string{}
	if f.Language != "" {
		filters = append(filters, cardmarket.LabelOf(cardmarket.Languages, f.Language))
	}
	if f.Condition != "" {
		filters = append(filters, cardmarket.LabelOf(cardmarket.Conditions, f.Condition))
	}
	if f.Foil != "" {
		filters = append(filters, cardmarket.LabelOf(cardmarket.FoilOptions, f.Foil))
	}
	if len(filters) == 0 {
		return name
	}
	return fmt.Sprintf("%s [%s]", name, strings.Join(filters, ", "))
}

func cardSensor(spec cardmarket.TrackedCardSpec, state State) Sensor {
	key := spec.Key()
	record, priced := state.Snapshot.TrackedCards[key]

	name, set := spec.Name, spec.Set
	if record.Detail != nil {
		if name == "" {
			name = record.Detail.Name
		}
		if set == "" {
			set = record.Detail.Set
		}
	}

	sensor := Sensor{
		Key:       CardSensorKey(key),
		Name:      CardDisplayName(name, set, spec.CardFilters),
		Unit:      "€",
		Icon:      "mdi:cards",
		Available: state.HasData && !record.Failed(),
		Attributes: map[string]any{
			"card_name": name,
			"expansion": set,
			"url":       spec.URL,
		},
	}
	if spec.Language != "" {
		sensor.Attributes["language"] = cardmarket.LabelOf(cardmarket.Languages, spec.Language)
	}
	if spec.Condition != "" {
		sensor.Attributes["condition"] = cardmarket.LabelOf(cardmarket.Conditions, spec.Condition)
	}
	if spec.Foil != "" {
		sensor.Attributes["foil"] = cardmarket.LabelOf(cardmarket.FoilOptions, spec.Foil)
	}

	if record.Failed() {
		sensor.Attributes["error"] = record.Err
	}
	if !priced || record.Detail == nil {
		return sensor
	}

	d := record.Detail
	if d.PriceFrom != nil {
		sensor.Value = *d.PriceFrom
	}
	prices := []struct {
		attr  string
		value *float64
	}{
		{"price_from", d.PriceFrom},
		{"price_trend", d.PriceTrend},
		{"price_30_day_avg", d.Price30DayAvg},
		{"price_7_day_avg", d.Price7DayAvg},
		{"price_1_day_avg", d.Price1DayAvg},
	}
	for _, p := range prices {
		if p.value != nil && *p.value != 0 {
			sensor.Attributes[p.attr] = *p.value
		}
	}
	if d.AvailableItems != 0 {
		sensor.Attributes["available_items"] = d.AvailableItems
	}
	if d.FilterURL != "" {
		sensor.Attributes["filter_url"] = d.FilterURL
	}
	return sensor
}

// Sensors renders the current state.
func (c *Coordinator) Sensors() []Sensor {
	return Sensors(c.State())
}
