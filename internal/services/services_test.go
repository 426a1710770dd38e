package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/internal/tracking"

	"github.com/stretchr/testify/require"
)

const lotus = "https://www.cardmarket.com/en/Magic/Products/Singles/Alpha/Black-Lotus"

type fakeSearcher struct {
	mu      sync.Mutex
	calls   int
	lastMax int
	err     error
}

func (f *fakeSearcher) SearchCards(_ context.Context, term string, maxResults int) ([]cardmarket.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMax = maxResults
	if f.err != nil {
		return nil, f.err
	}
	return []cardmarket.SearchResult{{Name: term, Set: "Alpha", URL: lotus}}, nil
}

type fakeRefresher struct {
	refreshed chan struct{}
}

func (f fakeRefresher) Refresh(context.Context) (coordinator.State, error) {
	f.refreshed <- struct{}{}
	return coordinator.State{}, nil
}

func (f fakeRefresher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh was never triggered")
	}
}

func (f fakeRefresher) none(t *testing.T) {
	t.Helper()
	select {
	case <-f.refreshed:
		t.Fatal("unexpected refresh")
	case <-time.After(50 * time.Millisecond):
	}
}

func setup(t *testing.T) (*Service, *fakeSearcher, fakeRefresher, *telemetry.Recorder) {
	t.Helper()
	rec := &telemetry.Recorder{}
	store, err := tracking.Open(context.Background(), ":memory:", rec)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	searcher := &fakeSearcher{}
	refresher := fakeRefresher{refreshed: make(chan struct{}, 8)}
	svc := NewService(searcher, store, refresher, Options{}, rec)
	return svc, searcher, refresher, rec
}

func TestSearchCardArguments(t *testing.T) {
	svc, searcher, _, _ := setup(t)
	ctx := context.Background()

	for _, req := range []SearchCardRequest{
		{SearchTerm: "   "},
		{SearchTerm: "lotus", MaxResults: -1},
		{SearchTerm: "lotus", MaxResults: 51},
	} {
		_, err := svc.SearchCard(ctx, req)
		require.ErrorIs(t, err, ErrInvalidArgument, req)
	}
	require.Zero(t, searcher.calls)

	res, err := svc.SearchCard(ctx, SearchCardRequest{SearchTerm: " Black Lotus "})
	require.NoError(t, err)
	require.Equal(t, "Black Lotus", res.SearchTerm)
	require.Len(t, res.Results, 1)
	require.Equal(t, DefaultMaxResults, searcher.lastMax)
}

func TestSearchCardCache(t *testing.T) {
	svc, searcher, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.SearchCard(ctx, SearchCardRequest{SearchTerm: "Black Lotus", MaxResults: 5})
	require.NoError(t, err)
	_, err = svc.SearchCard(ctx, SearchCardRequest{SearchTerm: "black lotus", MaxResults: 5})
	require.NoError(t, err)
	require.Equal(t, 1, searcher.calls)

	_, err = svc.SearchCard(ctx, SearchCardRequest{SearchTerm: "black lotus", MaxResults: 6})
	require.NoError(t, err)
	require.Equal(t, 2, searcher.calls)
}

func TestSearchCardFailureIsNotCached(t *testing.T) {
	svc, searcher, _, rec := setup(t)
	ctx := context.Background()

	searcher.err = &cardmarket.ConnectionError{Message: "failed to load page", StatusCode: 503}
	_, err := svc.SearchCard(ctx, SearchCardRequest{SearchTerm: "lotus"})
	require.True(t, cardmarket.IsConnectionError(err))
	require.NotEmpty(t, rec.Reports("warning", report_services_search))

	searcher.err = nil
	_, err = svc.SearchCard(ctx, SearchCardRequest{SearchTerm: "lotus"})
	require.NoError(t, err)
	require.Equal(t, 2, searcher.calls)
}

func TestAddTrackedCard(t *testing.T) {
	svc, _, refresher, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddTrackedCard(ctx, AddTrackedCardRequest{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.AddTrackedCard(ctx, AddTrackedCardRequest{CardURL: lotus, Language: "99"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	res, err := svc.AddTrackedCard(ctx, AddTrackedCardRequest{
		CardURL:  "/en/Magic/Products/Singles/Alpha/Black-Lotus",
		CardName: "Black Lotus",
	})
	require.NoError(t, err)
	require.True(t, res.Added)
	require.Equal(t, lotus, res.Card.URL)
	require.Equal(t, "Alpha", res.Card.Set)
	refresher.wait(t)

	res, err = svc.AddTrackedCard(ctx, AddTrackedCardRequest{CardURL: lotus})
	require.NoError(t, err)
	require.False(t, res.Added)
	refresher.none(t)

	res, err = svc.AddTrackedCard(ctx, AddTrackedCardRequest{CardURL: lotus, Language: "3", Condition: "NM"})
	require.NoError(t, err)
	require.True(t, res.Added)
	require.NotEqual(t, lotus, res.Card.UniqueKey)
	refresher.wait(t)

	cards, err := svc.ListTrackedCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
}

func TestAddTrackedCardRefreshOutlivesRequest(t *testing.T) {
	svc, _, refresher, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := svc.AddTrackedCard(ctx, AddTrackedCardRequest{CardURL: lotus})
	require.NoError(t, err)
	cancel()
	refresher.wait(t)
}

func TestRemoveTrackedCard(t *testing.T) {
	svc, _, refresher, rec := setup(t)
	ctx := context.Background()

	_, err := svc.RemoveTrackedCard(ctx, RemoveTrackedCardRequest{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	for _, lang := range []string{"", "1", "3"} {
		_, err := svc.AddTrackedCard(ctx, AddTrackedCardRequest{CardURL: lotus, Language: lang})
		require.NoError(t, err)
		refresher.wait(t)
	}

	german := cardmarket.TrackedCardKey(lotus, cardmarket.CardFilters{Language: "3"})
	res, err := svc.RemoveTrackedCard(ctx, RemoveTrackedCardRequest{UniqueKey: german, CardURL: "ignored"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed)
	refresher.wait(t)

	res, err = svc.RemoveTrackedCard(ctx, RemoveTrackedCardRequest{CardURL: lotus})
	require.NoError(t, err)
	require.Equal(t, 2, res.Removed)
	refresher.wait(t)

	res, err = svc.RemoveTrackedCard(ctx, RemoveTrackedCardRequest{CardURL: lotus})
	require.NoError(t, err)
	require.Zero(t, res.Removed)
	require.NotEmpty(t, rec.Reports("warning", report_services_untrack))
	refresher.none(t)

	cards, err := svc.ListTrackedCards(ctx)
	require.NoError(t, err)
	require.Empty(t, cards)
}

func TestRefreshFailureIsReported(t *testing.T) {
	rec := &telemetry.Recorder{}
	store, err := tracking.Open(context.Background(), ":memory:", rec)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	done := make(chan struct{})
	svc := NewService(&fakeSearcher{}, store, failingRefresher{done}, Options{}, rec)
	_, err = svc.AddTrackedCard(context.Background(), AddTrackedCardRequest{CardURL: lotus})
	require.NoError(t, err)

	<-done
	require.Eventually(t, func() bool {
		return len(rec.Reports("warning", report_services_refresh)) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

type failingRefresher struct {
	done chan struct{}
}

func (f failingRefresher) Refresh(context.Context) (coordinator.State, error) {
	close(f.done)
	return coordinator.State{}, errors.New("marketplace down")
}
