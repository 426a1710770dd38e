package tracking

import (
	"context"
	"testing"

	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/stretchr/testify/require"
)

const (
	lotus = "https://www.cardmarket.com/en/Magic/Products/Singles/Alpha/Black-Lotus"
	mox   = "https://www.cardmarket.com/en/Magic/Products/Singles/Alpha/Mox-Pearl"
)

func setup(t testing.TB) (*Store, *telemetry.Recorder) {
	rec := &telemetry.Recorder{}
	store, err := Open(context.Background(), ":memory:", rec)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, rec
}

func TestStoreAdd(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	spec, added, err := store.Add(ctx, cardmarket.TrackedCardSpec{URL: " " + lotus + " ", Name: "Black Lotus", Set: "Alpha"})
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, lotus, spec.URL)
	require.Equal(t, lotus, spec.UniqueKey)

	_, added, err = store.Add(ctx, cardmarket.TrackedCardSpec{URL: lotus, Name: "renamed"})
	require.NoError(t, err)
	require.False(t, added)

	stored, ok, err := store.Get(ctx, lotus)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Black Lotus", stored.Name)

	nearMint := cardmarket.CardFilters{Language: "1", Condition: "NM"}
	spec, added, err = store.Add(ctx, cardmarket.TrackedCardSpec{URL: lotus, CardFilters: nearMint})
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, cardmarket.TrackedCardKey(lotus, nearMint), spec.UniqueKey)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestStoreAddInvalid(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	_, _, err := store.Add(ctx, cardmarket.TrackedCardSpec{})
	require.ErrorIs(t, err, ErrInvalidCard)

	_, _, err = store.Add(ctx, cardmarket.TrackedCardSpec{URL: lotus, CardFilters: cardmarket.CardFilters{Condition: "Shiny"}})
	require.ErrorIs(t, err, ErrInvalidCard)

	_, ok, err := store.Get(ctx, lotus)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreListOrder(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	for _, spec := range []cardmarket.TrackedCardSpec{
		{URL: mox},
		{URL: lotus},
		{URL: lotus, CardFilters: cardmarket.CardFilters{Foil: "Y"}},
	} {
		_, _, err := store.Add(ctx, spec)
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, mox, list[0].UniqueKey)
	require.Equal(t, lotus, list[1].UniqueKey)
	require.Equal(t, "Y", list[2].Foil)

	// a card removed then added again goes to the end
	removed, err := store.Remove(ctx, mox)
	require.NoError(t, err)
	require.True(t, removed)
	_, _, err = store.Add(ctx, cardmarket.TrackedCardSpec{URL: mox})
	require.NoError(t, err)

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, mox, list[2].UniqueKey)
}

func TestStoreRemove(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	for _, spec := range []cardmarket.TrackedCardSpec{
		{URL: lotus},
		{URL: lotus, CardFilters: cardmarket.CardFilters{Foil: "Y"}},
		{URL: lotus, CardFilters: cardmarket.CardFilters{Language: "3"}},
		{URL: mox},
	} {
		_, _, err := store.Add(ctx, spec)
		require.NoError(t, err)
	}

	removed, err := store.Remove(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, removed)

	n, err := store.RemoveByURL(ctx, lotus)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, mox, list[0].URL)
}

func TestStoreSeed(t *testing.T) {
	store, rec := setup(t)
	ctx := context.Background()

	_, _, err := store.Add(ctx, cardmarket.TrackedCardSpec{URL: mox})
	require.NoError(t, err)

	added, err := store.Seed(ctx, []cardmarket.TrackedCardSpec{
		{URL: mox},
		{URL: lotus},
		{URL: ""},
		{URL: lotus, CardFilters: cardmarket.CardFilters{Foil: "maybe"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, added)
	require.Len(t, rec.Reports("warning", report_store_seed), 2)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
