package metrics

import (
	"errors"
	"testing"
	"time"

	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveSnapshot(t *testing.T) {
	m := New()

	from := 3.5
	m.ObserveSnapshot(cardmarket.FullSnapshot{
		Account: cardmarket.AccountSnapshot{Balance: 15.43},
		Stock:   cardmarket.StockSummary{Count: 245},
		TrackedCards: map[string]cardmarket.TrackedPrice{
			"lotus": {Detail: &cardmarket.CardPriceDetail{PriceFrom: &from, AvailableItems: 12}},
			"mox":   {Err: "boom"},
		},
	})

	require.Equal(t, 15.43, testutil.ToFloat64(m.Account.WithLabelValues("account_balance")))
	require.Equal(t, 245.0, testutil.ToFloat64(m.Account.WithLabelValues("stock_count")))
	require.Equal(t, 3.5, testutil.ToFloat64(m.CardPrice.WithLabelValues("lotus", "from")))
	require.Equal(t, 1, testutil.CollectAndCount(m.CardPrice))
	require.Equal(t, 12.0, testutil.ToFloat64(m.CardAvailable.WithLabelValues("lotus")))

	// untracked cards are dropped on the next snapshot
	m.ObserveSnapshot(cardmarket.FullSnapshot{})
	require.Equal(t, 0, testutil.CollectAndCount(m.CardPrice))
}

func TestObserveRefresh(t *testing.T) {
	m := New()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	m.ObserveRefresh(&cardmarket.AuthError{Message: "nope"}, time.Second, at)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(ResultFailure, cardmarket.KindInvalidAuth)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Degraded))

	m.ObserveRefresh(errors.New("other"), time.Second, at)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(ResultFailure, cardmarket.KindUnknown)))

	m.ObserveRefresh(nil, time.Second, at)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(ResultSuccess, "")))
	require.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastRefresh))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Degraded))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveSnapshot(cardmarket.FullSnapshot{})
	m.ObserveRefresh(nil, time.Second, time.Now())
}
