package cardmarket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardmarket-monitor/internal/components/assert"
	"cardmarket-monitor/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cardmarket.scrapers.cardmarket")

const (
	report_scraper_tracked_card_prices = "scraper.tracked-card-prices"
	report_scraper_session             = "scraper.session"
)

type Options struct {
	Credentials Credentials
	Client      ClientOptions
}

// Scraper is the public face of the marketplace. Every operation runs on a
// single worker goroutine that owns the http session and the login state, so
// concurrent callers queue instead of sharing cookies.
type Scraper struct {
	creds      Credentials
	urls       endpoints
	clientOpts ClientOptions
	tel        telemetry.API

	auth *authenticator
	// session is created lazily by the worker and only ever touched by it.
	session *sessionClient

	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type job struct {
	ctx    context.Context
	run    func(ctx context.Context) error
	result chan error
}

// NewScraper validates the credentials and starts the worker. An unknown game
// falls back to DefaultGame.
func NewScraper(opts Options, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("cardmarket_scraper", tel)

	if opts.Credentials.Username == "" || opts.Credentials.Password == "" {
		return nil, fmt.Errorf("cardmarket: username and password are required")
	}
	game, ok := ParseGame(string(opts.Credentials.Game))
	if !ok && opts.Credentials.Game != "" {
		tel.ReportWarning("scraper.new", fmt.Errorf("unknown game %q, using %s", opts.Credentials.Game, DefaultGame))
	}
	opts.Credentials.Game = game
	opts.Client = opts.Client.withDefaults()

	urls := newEndpoints(opts.Client.BaseURL, game)
	s := &Scraper{
		creds:      opts.Credentials,
		urls:       urls,
		clientOpts: opts.Client,
		tel:        tel,
		auth:       newAuthenticator(opts.Credentials, urls, tel),
		jobs:       make(chan job),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go s.work()
	return s, nil
}

func (s *Scraper) Game() Game {
	return s.creds.Game
}

func (s *Scraper) Username() string {
	return s.creds.Username
}

// LoggedIn reports the current login state, it may change right after.
func (s *Scraper) LoggedIn() bool {
	return s.auth.State() == stateLoggedIn
}

func (s *Scraper) work() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			s.teardown()
			return
		case j := <-s.jobs:
			if err := j.ctx.Err(); err != nil {
				j.result <- err
				continue
			}
			j.result <- j.run(j.ctx)
		}
	}
}

func (s *Scraper) teardown() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	s.auth.Reset()
}

// do hands run to the worker and waits for it. A caller whose context ends
// while queued never reaches the session.
func (s *Scraper) do(ctx context.Context, name string, run func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	j := job{ctx: ctx, run: run, result: make(chan error, 1)}
	select {
	case s.jobs <- j:
	case <-s.quit:
		return ErrScraperClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	err := <-j.result
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
	}
	return err
}

// ready returns the session, creating it on first use, and makes sure it is
// logged in. Worker only.
func (s *Scraper) ready(ctx context.Context) (*sessionClient, error) {
	session, err := s.ensureSession()
	if err != nil {
		return nil, err
	}
	err = s.auth.EnsureLoggedIn(ctx, session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Scraper) ensureSession() (*sessionClient, error) {
	if s.session != nil {
		return s.session, nil
	}
	session, err := newSessionClient(s.clientOpts, s.tel)
	if err != nil {
		s.tel.ReportBroken(report_scraper_session, err)
		return nil, err
	}
	s.session = session
	return session, nil
}

// Login always runs the login handshake, even when already logged in.
func (s *Scraper) Login(ctx context.Context) (bool, error) {
	var ok bool
	err := s.do(ctx, "Scraper.Login", func(ctx context.Context) error {
		session, err := s.ensureSession()
		if err != nil {
			return err
		}
		ok, err = s.auth.Login(ctx, session)
		return err
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Scraper) EnsureLoggedIn(ctx context.Context) error {
	return s.do(ctx, "Scraper.EnsureLoggedIn", func(ctx context.Context) error {
		_, err := s.ready(ctx)
		return err
	})
}

// TestConnection logs in and reports whether it worked. Rejected credentials
// and connection failures are a plain false, any other failure is returned.
func (s *Scraper) TestConnection(ctx context.Context) (bool, error) {
	ok, err := s.Login(ctx)
	if IsAuthError(err) || IsConnectionError(err) {
		s.tel.ReportDebug("test connection failed", ErrorKind(err), err)
		return false, nil
	}
	return ok, err
}

func (s *Scraper) accountData(ctx context.Context, session *sessionClient) (AccountSnapshot, error) {
	html, err := session.Fetch(ctx, s.urls.stock())
	if err != nil {
		return AccountSnapshot{}, err
	}
	return AccountSnapshot{
		Username: s.creds.Username,
		Game:     s.creds.Game,
		GameName: s.creds.Game.DisplayName(),
		Balance:  ParseBalance(html),
	}, nil
}

func (s *Scraper) stockData(ctx context.Context, session *sessionClient) (StockSummary, error) {
	html, err := session.Fetch(ctx, s.urls.stockOffers())
	if err != nil {
		return StockSummary{}, err
	}
	return ParseStockSummary(html), nil
}

func (s *Scraper) orders(ctx context.Context, session *sessionClient, pageURL string) (OrderCounts, error) {
	html, err := session.Fetch(ctx, pageURL)
	if err != nil {
		return OrderCounts{}, err
	}
	return ParseOrderCounts(html), nil
}

func (s *Scraper) unreadMessages(ctx context.Context, session *sessionClient) (int, error) {
	html, err := session.Fetch(ctx, s.urls.messages())
	if err != nil {
		return 0, err
	}
	return ParseUnreadMessages(html), nil
}

// fetchOne runs a single logged in page operation on the worker.
func fetchOne[T any](ctx context.Context, s *Scraper, name string, op func(context.Context, *sessionClient) (T, error)) (T, error) {
	var out T
	err := s.do(ctx, name, func(ctx context.Context) error {
		session, err := s.ready(ctx)
		if err != nil {
			return err
		}
		out, err = op(ctx, session)
		return err
	})
	return out, err
}

func (s *Scraper) AccountData(ctx context.Context) (AccountSnapshot, error) {
	return fetchOne(ctx, s, "Scraper.AccountData", s.accountData)
}

func (s *Scraper) StockData(ctx context.Context) (StockSummary, error) {
	return fetchOne(ctx, s, "Scraper.StockData", s.stockData)
}

func (s *Scraper) SellerOrders(ctx context.Context) (OrderCounts, error) {
	return fetchOne(ctx, s, "Scraper.SellerOrders", func(ctx context.Context, session *sessionClient) (OrderCounts, error) {
		return s.orders(ctx, session, s.urls.sales())
	})
}

func (s *Scraper) BuyerOrders(ctx context.Context) (OrderCounts, error) {
	return fetchOne(ctx, s, "Scraper.BuyerOrders", func(ctx context.Context, session *sessionClient) (OrderCounts, error) {
		return s.orders(ctx, session, s.urls.purchases())
	})
}

func (s *Scraper) UnreadMessages(ctx context.Context) (int, error) {
	return fetchOne(ctx, s, "Scraper.UnreadMessages", s.unreadMessages)
}

// AllData reads account, stock, both order pages and messages as one job.
// The first failure aborts the whole snapshot. TrackedCards is left empty.
func (s *Scraper) AllData(ctx context.Context) (FullSnapshot, error) {
	return fetchOne(ctx, s, "Scraper.AllData", func(ctx context.Context, session *sessionClient) (FullSnapshot, error) {
		var snap FullSnapshot
		var err error

		snap.Account, err = s.accountData(ctx, session)
		if err != nil {
			return FullSnapshot{}, fmt.Errorf("account: %w", err)
		}
		snap.Stock, err = s.stockData(ctx, session)
		if err != nil {
			return FullSnapshot{}, fmt.Errorf("stock: %w", err)
		}
		snap.SellerOrders, err = s.orders(ctx, session, s.urls.sales())
		if err != nil {
			return FullSnapshot{}, fmt.Errorf("seller orders: %w", err)
		}
		snap.BuyerOrders, err = s.orders(ctx, session, s.urls.purchases())
		if err != nil {
			return FullSnapshot{}, fmt.Errorf("buyer orders: %w", err)
		}
		snap.UnreadMessages, err = s.unreadMessages(ctx, session)
		if err != nil {
			return FullSnapshot{}, fmt.Errorf("messages: %w", err)
		}
		snap.FetchedAt = time.Now()
		return snap, nil
	})
}

// SearchCards returns at most maxResults singles matching term, in the order
// the site lists them. A maxResults <= 0 returns no results without a request.
func (s *Scraper) SearchCards(ctx context.Context, term string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		return []SearchResult{}, nil
	}
	return fetchOne(ctx, s, "Scraper.SearchCards", func(ctx context.Context, session *sessionClient) ([]SearchResult, error) {
		html, err := session.Fetch(ctx, s.urls.search(term))
		if err != nil {
			return nil, err
		}
		return ParseSearchResults(ctx, html, s.urls.base, s.creds.Game, maxResults), nil
	})
}

func (s *Scraper) cardPrices(ctx context.Context, session *sessionClient, urlOrPath string, filters CardFilters) (CardPriceDetail, error) {
	cardURL := s.urls.absolute(urlOrPath)
	fetchURL, filtered := withFilters(cardURL, filters)

	html, err := session.Fetch(ctx, fetchURL)
	if err != nil {
		return CardPriceDetail{}, err
	}
	detail := ParseCardPrices(html, cardURL)
	if filtered {
		detail.FilterURL = fetchURL
	}
	return detail, nil
}

// CardPrices reads the price panel of one card page. urlOrPath may be site
// relative, only the filters that are set end up in the query.
func (s *Scraper) CardPrices(ctx context.Context, urlOrPath string, filters CardFilters) (CardPriceDetail, error) {
	return fetchOne(ctx, s, "Scraper.CardPrices", func(ctx context.Context, session *sessionClient) (CardPriceDetail, error) {
		return s.cardPrices(ctx, session, urlOrPath, filters)
	})
}

// TrackedCardPrices prices every spec in order. A card that fails becomes an
// error record under its key and the batch carries on, only a failed login or
// an ended context fails the call itself.
func (s *Scraper) TrackedCardPrices(ctx context.Context, specs []TrackedCardSpec) (map[string]TrackedPrice, error) {
	return fetchOne(ctx, s, "Scraper.TrackedCardPrices", func(ctx context.Context, session *sessionClient) (map[string]TrackedPrice, error) {
		out := make(map[string]TrackedPrice, len(specs))

		for _, spec := range specs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			key := spec.Key()
			if key == "" {
				s.tel.ReportWarning(report_scraper_tracked_card_prices, "skipping tracked card without url")
				continue
			}
			if spec.URL == "" {
				out[key] = TrackedPrice{Filters: spec.CardFilters, Err: "tracked card has no url"}
				continue
			}

			detail, err := s.cardPrices(ctx, session, spec.URL, spec.CardFilters)
			if err != nil {
				s.tel.ReportWarning(report_scraper_tracked_card_prices, fmt.Errorf("%s: %w", key, err))
				out[key] = TrackedPrice{Filters: spec.CardFilters, Err: err.Error()}
				continue
			}
			out[key] = TrackedPrice{Detail: &detail, Filters: spec.CardFilters}
		}

		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("cards.priced", len(out)))
		return out, nil
	})
}

// Close stops the worker after the job in flight (if any), releases the
// session and forgets the login. It is safe to call more than once, every
// call after the first is a no-op.
func (s *Scraper) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	return nil
}
