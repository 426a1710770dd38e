package cardmarket

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWithFilters(t *testing.T) {
	card := "https://cardmarket.test/en/Magic/Products/Singles/Alpha/Black-Lotus"

	filtered, ok := withFilters(card, CardFilters{})
	require.False(t, ok)
	require.Equal(t, card, filtered)

	filtered, ok = withFilters(card, CardFilters{Language: "1", Condition: "NM", Foil: "N"})
	require.True(t, ok)
	require.Equal(t, card+"?language=1&minCondition=NM&isFoil=N", filtered)

	filtered, ok = withFilters(card+"?sellerCountry=7", CardFilters{Condition: "EX"})
	require.True(t, ok)
	require.Equal(t, card+"?sellerCountry=7&minCondition=EX", filtered)
}

func TestEndpoints(t *testing.T) {
	urls := newEndpoints("https://cardmarket.test/", "Pokemon")

	require.Equal(t, "https://cardmarket.test/en/Pokemon", urls.landing())
	require.Equal(t, "/en/Pokemon", urls.referalPage())
	require.Equal(t, "https://cardmarket.test/en/Pokemon/PostGetAction/User_Login", urls.login())
	require.Equal(t, "https://cardmarket.test/en/Pokemon/Stock/Offers", urls.stockOffers())
	require.Equal(t, "https://cardmarket.test/en/Pokemon/Products/Singles?searchString=black+lotus", urls.search("black lotus"))

	require.Equal(t, "https://cardmarket.test/en/Pokemon/x", urls.absolute("/en/Pokemon/x"))
	require.Equal(t, "https://cardmarket.test/en/Pokemon/x", urls.absolute("en/Pokemon/x"))
	require.Equal(t, "https://elsewhere.test/a", urls.absolute(" https://elsewhere.test/a "))
}

func TestSetFromPath(t *testing.T) {
	require.Equal(t, "Alpha", setFromPath("/en/Magic/Products/Singles/Alpha/Black-Lotus"))
	require.Equal(t, "Modern Horizons 3", setFromPath("https://cardmarket.test/en/Magic/Products/Singles/Modern-Horizons-3/Flare?language=1"))
	require.Equal(t, "", setFromPath("Black-Lotus"))
}

func TestTrackedCardKey(t *testing.T) {
	url := "https://cardmarket.test/en/Magic/Products/Singles/Alpha/Black-Lotus"

	require.Equal(t, url, TrackedCardKey(url, CardFilters{}))
	require.Equal(t, url+"?lang=1&cond=NM&foil=", TrackedCardKey(url, CardFilters{Language: "1", Condition: "NM"}))
	require.NotEqual(t,
		TrackedCardKey(url, CardFilters{Foil: "Y"}),
		TrackedCardKey(url, CardFilters{Foil: "N"}),
	)

	spec := TrackedCardSpec{URL: url}
	require.Equal(t, url, spec.Key())
	spec.UniqueKey = "custom"
	require.Equal(t, "custom", spec.Key())
}

func TestCardFiltersValidate(t *testing.T) {
	require.NoError(t, CardFilters{}.Validate())
	require.NoError(t, CardFilters{Language: "3", Condition: "GD", Foil: "Y"}.Validate())
	require.Error(t, CardFilters{Language: "99"}.Validate())
	require.Error(t, CardFilters{Condition: "Mint"}.Validate())
	require.Error(t, CardFilters{Foil: "yes"}.Validate())
}

func TestFlatten(t *testing.T) {
	snap := FullSnapshot{
		Account:        AccountSnapshot{Balance: 15.43},
		Stock:          StockSummary{Count: 245, Value: 1234.5649},
		SellerOrders:   OrderCounts{Paid: 1, Sent: 2, Arrived: 3},
		BuyerOrders:    OrderCounts{Paid: 4},
		UnreadMessages: 5,
	}

	expected := map[string]any{
		"account_balance":       15.43,
		"stock_count":           245,
		"stock_value":           1234.56,
		"seller_orders_paid":    1,
		"seller_orders_sent":    2,
		"seller_orders_arrived": 3,
		"buyer_orders_paid":     4,
		"buyer_orders_sent":     0,
		"buyer_orders_arrived":  0,
		"unread_messages":       5,
	}
	if diff := cmp.Diff(expected, snap.Flatten()); diff != "" {
		t.Fatalf("unexpected flatten (-want +got):\n%s", diff)
	}
}

func TestTrackedPriceAttributes(t *testing.T) {
	failed := TrackedPrice{Err: "cardmarket: connection: failed to load page: 500"}
	require.True(t, failed.Failed())
	require.Equal(t, map[string]any{"error": failed.Err}, failed.Attributes())

	from := 3.5
	priced := TrackedPrice{
		Detail: &CardPriceDetail{
			Name:           "Black Lotus",
			Set:            "Alpha",
			URL:            "https://cardmarket.test/x",
			FilterURL:      "https://cardmarket.test/x?language=1",
			PriceFrom:      &from,
			AvailableItems: 3,
		},
		Filters: CardFilters{Language: "1"},
	}
	attrs := priced.Attributes()
	require.False(t, priced.Failed())
	require.Equal(t, 3.5, attrs["price_from"])
	require.Nil(t, attrs["price_trend"])
	require.Equal(t, 3, attrs["available_items"])
	require.Equal(t, "1", attrs["language"])
	require.Equal(t, "", attrs["foil"])
	require.Equal(t, "https://cardmarket.test/x?language=1", attrs["filter_url"])
}

func TestParseGame(t *testing.T) {
	game, ok := ParseGame("YuGiOh")
	require.True(t, ok)
	require.Equal(t, Game("YuGiOh"), game)
	require.Equal(t, "Yu-Gi-Oh!", game.DisplayName())

	game, ok = ParseGame("Chess")
	require.False(t, ok)
	require.Equal(t, DefaultGame, game)

	require.Len(t, SupportedGames(), 13)
}

func TestErrorKind(t *testing.T) {
	require.Equal(t, KindInvalidAuth, ErrorKind(&AuthError{Message: "nope"}))
	require.Equal(t, KindCannotConnect, ErrorKind(&ConnectionError{Message: "down", StatusCode: 500}))
	require.Equal(t, KindUnknown, ErrorKind(ErrScraperClosed))
	require.Equal(t, "", ErrorKind(nil))

	challenge := &ConnectionError{Message: "blocked", StatusCode: 403, Err: ErrChallenge}
	require.ErrorIs(t, challenge, ErrChallenge)
}
