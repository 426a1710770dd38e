package metrics

import (
	"time"

	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics bundles the collectors of the monitor on a dedicated registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Account         *prometheus.GaugeVec
	CardPrice       *prometheus.GaugeVec
	CardAvailable   *prometheus.GaugeVec
	RefreshTotal    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	LastRefresh     prometheus.Gauge
	Degraded        prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	account := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cardmarket_account_value",
			Help: "Latest account value by sensor key (balance, stock, orders, messages).",
		},
		[]string{"key"},
	)
	cardPrice := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cardmarket_card_price_euros",
			Help: "Latest price of a tracked card by price kind.",
		},
		[]string{"card", "kind"},
	)
	cardAvailable := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cardmarket_card_available_items",
			Help: "Number of offers listed for a tracked card.",
		},
		[]string{"card"},
	)
	refreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardmarket_refresh_total",
			Help: "Refreshes by result and error kind.",
		},
		[]string{"result", "kind"},
	)
	refreshDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardmarket_refresh_duration_seconds",
			Help:    "Time taken by a full refresh.",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
	lastRefresh := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardmarket_last_successful_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh.",
		},
	)
	degraded := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardmarket_degraded",
			Help: "1 when the last refresh failed and stale data is being served.",
		},
	)

	registry.MustRegister(account, cardPrice, cardAvailable, refreshTotal, refreshDuration, lastRefresh, degraded)

	return &Metrics{
		Registry:        registry,
		Account:         account,
		CardPrice:       cardPrice,
		CardAvailable:   cardAvailable,
		RefreshTotal:    refreshTotal,
		RefreshDuration: refreshDuration,
		LastRefresh:     lastRefresh,
		Degraded:        degraded,
	}
}

// ObserveSnapshot replaces the account and card gauges with snap. Cards that
// are no longer tracked disappear, failed cards keep no price.
func (m *Metrics) ObserveSnapshot(snap cardmarket.FullSnapshot) {
	if m == nil {
		return
	}
	for key, value := range snap.Flatten() {
		switch v := value.(type) {
		case int:
			m.Account.WithLabelValues(key).Set(float64(v))
		case float64:
			m.Account.WithLabelValues(key).Set(v)
		}
	}

	m.CardPrice.Reset()
	m.CardAvailable.Reset()
	for key, price := range snap.TrackedCards {
		if price.Failed() || price.Detail == nil {
			continue
		}
		d := price.Detail
		prices := map[string]*float64{
			"from":    d.PriceFrom,
			"trend":   d.PriceTrend,
			"avg_30d": d.Price30DayAvg,
			"avg_7d":  d.Price7DayAvg,
			"avg_1d":  d.Price1DayAvg,
		}
		for kind, v := range prices {
			if v != nil {
				m.CardPrice.WithLabelValues(key, kind).Set(*v)
			}
		}
		m.CardAvailable.WithLabelValues(key).Set(float64(d.AvailableItems))
	}
}

// ObserveRefresh counts one refresh, a failed one is labelled with its error
// kind.
func (m *Metrics) ObserveRefresh(err error, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(took.Seconds())
	if err != nil {
		m.RefreshTotal.WithLabelValues(ResultFailure, cardmarket.ErrorKind(err)).Inc()
		m.Degraded.Set(1)
		return
	}
	m.RefreshTotal.WithLabelValues(ResultSuccess, "").Inc()
	m.LastRefresh.Set(float64(at.Unix()))
	m.Degraded.Set(0)
}
