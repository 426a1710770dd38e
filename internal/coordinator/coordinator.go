package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardmarket-monitor/internal/components/assert"
	"cardmarket-monitor/internal/components/chrono"
	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/metrics"
	"cardmarket-monitor/internal/scrapers/cardmarket"
)

const (
	report_coordinator_refresh = "coordinator.refresh"
	report_coordinator_start   = "coordinator.start"
)

const (
	DefaultScanInterval     = time.Hour
	MinScanInterval         = 5 * time.Minute
	MaxScanInterval         = 24 * time.Hour
	DefaultOperationTimeout = 5 * time.Minute
)

// Scraper is the part of the marketplace facade a refresh needs.
type Scraper interface {
	AllData(ctx context.Context) (cardmarket.FullSnapshot, error)
	TrackedCardPrices(ctx context.Context, specs []cardmarket.TrackedCardSpec) (map[string]cardmarket.TrackedPrice, error)
}

// TrackedCards is the configured list of cards to price on every refresh.
type TrackedCards interface {
	List(ctx context.Context) ([]cardmarket.TrackedCardSpec, error)
}

type Options struct {
	// ScanInterval must be within [MinScanInterval, MaxScanInterval].
	ScanInterval time.Duration
	// OperationTimeout bounds a whole refresh, queueing included.
	OperationTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.ScanInterval == 0 {
		o.ScanInterval = DefaultScanInterval
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = DefaultOperationTimeout
	}
	return o
}

// State is what the host renders. Snapshot is the last snapshot that was
// fetched successfully, it is kept as is while refreshes fail.
type State struct {
	Snapshot cardmarket.FullSnapshot      `json:"snapshot"`
	Tracked  []cardmarket.TrackedCardSpec `json:"tracked"`
	HasData  bool                         `json:"has_data"`

	Degraded  bool   `json:"degraded"`
	LastError string `json:"last_error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`

	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success"`
}

type Coordinator struct {
	scraper Scraper
	cards   TrackedCards
	cron    chrono.CronAPI
	time    chrono.API
	metrics *metrics.Metrics
	opts    Options
	tel     telemetry.API

	// serializes refreshes, the scraper would queue them anyway but the
	// state must move from one refresh to the next in order
	refreshing sync.Mutex

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func New(
	scraper Scraper,
	cards TrackedCards,
	cron chrono.CronAPI,
	time chrono.API,
	m *metrics.Metrics,
	opts Options,
	tel telemetry.API,
) (*Coordinator, error) {
	assert.NotNil(scraper)
	assert.NotNil(cards)
	assert.NotNil(cron)
	assert.NotNil(time)
	assert.NotNil(tel)

	opts = opts.withDefaults()
	if opts.ScanInterval < MinScanInterval || opts.ScanInterval > MaxScanInterval {
		return nil, fmt.Errorf(
			"scan interval %s is out of range [%s, %s]",
			opts.ScanInterval, MinScanInterval, MaxScanInterval,
		)
	}

	return &Coordinator{
		scraper:   scraper,
		cards:     cards,
		cron:      cron,
		time:      time,
		metrics:   m,
		opts:      opts,
		tel:       telemetry.NewScopedAPI("coordinator", tel),
		listeners: map[int]func(State){},
	}, nil
}

// Start runs the first refresh, then schedules one every scan interval. The
// first refresh failing does not prevent scheduling, it leaves the state
// degraded. Scheduled refreshes run under ctx.
func (c *Coordinator) Start(ctx context.Context) error {
	_, err := c.Refresh(ctx)
	if err != nil {
		c.tel.ReportWarning(report_coordinator_start, fmt.Errorf("first refresh: %w", err))
	}

	err = c.cron.Cron(chrono.Every(c.opts.ScanInterval), func() {
		if ctx.Err() != nil {
			return
		}
		c.Refresh(ctx)
	})
	if err != nil {
		c.tel.ReportBroken(report_coordinator_start, err)
		return err
	}
	return nil
}

// Refresh fetches a full snapshot and prices every tracked card. On failure
// the last good snapshot is kept and the state is marked degraded.
func (c *Coordinator) Refresh(ctx context.Context) (State, error) {
	c.refreshing.Lock()
	defer c.refreshing.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.OperationTimeout)
	defer cancel()

	start := c.time.Now()
	snap, specs, err := c.fetch(ctx)
	took := c.time.Now().Sub(start)
	c.metrics.ObserveRefresh(err, took, start)

	c.mu.Lock()
	c.state.LastAttempt = start
	if err != nil {
		c.state.Degraded = true
		c.state.LastError = err.Error()
		c.state.ErrorKind = cardmarket.ErrorKind(err)
	} else {
		c.state.Snapshot = snap
		c.state.Tracked = specs
		c.state.HasData = true
		c.state.Degraded = false
		c.state.LastError = ""
		c.state.ErrorKind = ""
		c.state.LastSuccess = start
	}
	state := c.state
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	if err != nil {
		c.tel.ReportWarning(report_coordinator_refresh, err, cardmarket.ErrorKind(err))
	} else {
		c.metrics.ObserveSnapshot(snap)
		c.tel.ReportDebug("refreshed", took.String(), len(snap.TrackedCards))
	}

	for _, fn := range listeners {
		fn(state)
	}
	return state, err
}

func (c *Coordinator) fetch(ctx context.Context) (cardmarket.FullSnapshot, []cardmarket.TrackedCardSpec, error) {
	snap, err := c.scraper.AllData(ctx)
	if err != nil {
		return cardmarket.FullSnapshot{}, nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	specs, err := c.cards.List(ctx)
	if err != nil {
		return cardmarket.FullSnapshot{}, nil, fmt.Errorf("list tracked cards: %w", err)
	}

	snap.TrackedCards = map[string]cardmarket.TrackedPrice{}
	if len(specs) == 0 {
		return snap, specs, nil
	}
	prices, err := c.scraper.TrackedCardPrices(ctx, specs)
	if err != nil {
		return cardmarket.FullSnapshot{}, nil, fmt.Errorf("price tracked cards: %w", err)
	}
	snap.TrackedCards = prices
	return snap, specs, nil
}

// State returns the current state, safe to call at any time.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe registers fn to be called with the state after every refresh,
// successful or not. The returned function unregisters it.
func (c *Coordinator) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}
