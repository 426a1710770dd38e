package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardmarket-monitor/internal/components/assert"
	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	report_services_search  = "services.search-card"
	report_services_track   = "services.add-tracked-card"
	report_services_untrack = "services.remove-tracked-card"
	report_services_refresh = "services.refresh"
)

const (
	DefaultMaxResults = 10
	MaxMaxResults     = 50
	DefaultSearchTTL  = 15 * time.Minute
	searchCacheSize   = 256
)

// ErrInvalidArgument marks a request that was rejected before doing anything.
var ErrInvalidArgument = errors.New("invalid argument")

type Searcher interface {
	SearchCards(ctx context.Context, term string, maxResults int) ([]cardmarket.SearchResult, error)
}

type TrackedStore interface {
	Add(ctx context.Context, spec cardmarket.TrackedCardSpec) (cardmarket.TrackedCardSpec, bool, error)
	Remove(ctx context.Context, key string) (bool, error)
	RemoveByURL(ctx context.Context, url string) (int, error)
	List(ctx context.Context) ([]cardmarket.TrackedCardSpec, error)
}

type Refresher interface {
	Refresh(ctx context.Context) (coordinator.State, error)
}

type Options struct {
	// BaseURL resolves site-relative card urls, defaults to cardmarket.DefaultBaseURL.
	BaseURL   string
	SearchTTL time.Duration
}

// Service holds the operations a user triggers by hand. Every dependency is
// handed in explicitly, nothing is looked up at call time.
type Service struct {
	searcher  Searcher
	store     TrackedStore
	refresher Refresher
	baseURL   string
	cache     *expirable.LRU[string, []cardmarket.SearchResult]
	tel       telemetry.API
}

func NewService(searcher Searcher, store TrackedStore, refresher Refresher, opts Options, tel telemetry.API) *Service {
	assert.NotNil(searcher)
	assert.NotNil(store)
	assert.NotNil(refresher)
	assert.NotNil(tel)

	if opts.BaseURL == "" {
		opts.BaseURL = cardmarket.DefaultBaseURL
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = DefaultSearchTTL
	}

	return &Service{
		searcher:  searcher,
		store:     store,
		refresher: refresher,
		baseURL:   opts.BaseURL,
		cache:     expirable.NewLRU[string, []cardmarket.SearchResult](searchCacheSize, nil, opts.SearchTTL),
		tel:       telemetry.NewScopedAPI("services", tel),
	}
}

type SearchCardRequest struct {
	SearchTerm string `json:"search_term"`
	// MaxResults defaults to 10 and must be within [1, 50].
	MaxResults int `json:"max_results,omitempty"`
}

type SearchCardResponse struct {
	SearchTerm string                    `json:"search_term"`
	Results    []cardmarket.SearchResult `json:"results"`
}

func (s *Service) SearchCard(ctx context.Context, req SearchCardRequest) (SearchCardResponse, error) {
	term := strings.TrimSpace(req.SearchTerm)
	if term == "" {
		return SearchCardResponse{}, fmt.Errorf("%w: search_term is required", ErrInvalidArgument)
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxMaxResults {
		return SearchCardResponse{}, fmt.Errorf(
			"%w: max_results must be within [1, %d], got %d",
			ErrInvalidArgument, MaxMaxResults, maxResults,
		)
	}

	key := fmt.Sprintf("%d:%s", maxResults, strings.ToLower(term))
	if cached, hit := s.cache.Get(key); hit {
		return SearchCardResponse{SearchTerm: term, Results: cached}, nil
	}

	results, err := s.searcher.SearchCards(ctx, term, maxResults)
	if err != nil {
		s.tel.ReportWarning(report_services_search, err, term)
		return SearchCardResponse{}, err
	}
	s.cache.Add(key, results)
	s.tel.ReportDebug("card search", term, len(results))

	return SearchCardResponse{SearchTerm: term, Results: results}, nil
}

type AddTrackedCardRequest struct {
	CardURL   string `json:"card_url"`
	CardName  string `json:"card_name,omitempty"`
	CardSet   string `json:"card_set,omitempty"`
	Language  string `json:"language,omitempty"`
	Condition string `json:"condition,omitempty"`
	Foil      string `json:"foil,omitempty"`
}

type AddTrackedCardResponse struct {
	Card  cardmarket.TrackedCardSpec `json:"card"`
	Added bool                       `json:"added"`
}

// AddTrackedCard stores the card and refreshes in the background so that its
// price shows up without waiting for the next scheduled refresh. Tracking a
// card that is already tracked is not an error, Added is false.
func (s *Service) AddTrackedCard(ctx context.Context, req AddTrackedCardRequest) (AddTrackedCardResponse, error) {
	if strings.TrimSpace(req.CardURL) == "" {
		return AddTrackedCardResponse{}, fmt.Errorf("%w: card_url is required", ErrInvalidArgument)
	}
	filters := cardmarket.CardFilters{
		Language:  req.Language,
		Condition: req.Condition,
		Foil:      req.Foil,
	}
	if err := filters.Validate(); err != nil {
		return AddTrackedCardResponse{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	spec := cardmarket.TrackedCardSpec{
		URL:         cardmarket.AbsoluteURL(s.baseURL, req.CardURL),
		Name:        strings.TrimSpace(req.CardName),
		Set:         strings.TrimSpace(req.CardSet),
		CardFilters: filters,
	}
	if spec.Set == "" {
		spec.Set = cardmarket.SetFromURL(spec.URL)
	}

	stored, added, err := s.store.Add(ctx, spec)
	if err != nil {
		s.tel.ReportBroken(report_services_track, err, spec.URL)
		return AddTrackedCardResponse{}, err
	}
	if !added {
		s.tel.ReportDebug("card already tracked", stored.UniqueKey)
		return AddTrackedCardResponse{Card: stored, Added: false}, nil
	}

	s.tel.ReportDebug("tracking card", stored.UniqueKey)
	s.refreshInBackground(ctx)
	return AddTrackedCardResponse{Card: stored, Added: true}, nil
}

type RemoveTrackedCardRequest struct {
	// CardURL removes every filter variant tracked for the card.
	CardURL string `json:"card_url,omitempty"`
	// UniqueKey removes one variant only, it takes precedence over CardURL.
	UniqueKey string `json:"unique_key,omitempty"`
}

type RemoveTrackedCardResponse struct {
	Removed int `json:"removed"`
}

func (s *Service) RemoveTrackedCard(ctx context.Context, req RemoveTrackedCardRequest) (RemoveTrackedCardResponse, error) {
	var removed int
	switch {
	case req.UniqueKey != "":
		ok, err := s.store.Remove(ctx, req.UniqueKey)
		if err != nil {
			s.tel.ReportBroken(report_services_untrack, err, req.UniqueKey)
			return RemoveTrackedCardResponse{}, err
		}
		if ok {
			removed = 1
		}
	case strings.TrimSpace(req.CardURL) != "":
		n, err := s.store.RemoveByURL(ctx, cardmarket.AbsoluteURL(s.baseURL, req.CardURL))
		if err != nil {
			s.tel.ReportBroken(report_services_untrack, err, req.CardURL)
			return RemoveTrackedCardResponse{}, err
		}
		removed = n
	default:
		return RemoveTrackedCardResponse{}, fmt.Errorf("%w: card_url or unique_key is required", ErrInvalidArgument)
	}

	if removed == 0 {
		s.tel.ReportWarning(report_services_untrack, "card not found in tracked cards", req.UniqueKey, req.CardURL)
		return RemoveTrackedCardResponse{}, nil
	}
	s.refreshInBackground(ctx)
	return RemoveTrackedCardResponse{Removed: removed}, nil
}

func (s *Service) ListTrackedCards(ctx context.Context) ([]cardmarket.TrackedCardSpec, error) {
	return s.store.List(ctx)
}

// refreshInBackground outlives the request that triggered it, the coordinator
// bounds it with its own deadline.
func (s *Service) refreshInBackground(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		_, err := s.refresher.Refresh(ctx)
		if err != nil {
			s.tel.ReportWarning(report_services_refresh, err)
		}
	}()
}
