package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardmarket-monitor/internal/components/assert"
	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/db"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/pkg/migrations"
)

const (
	report_store_seed = "store.seed"
)

var ErrInvalidCard = errors.New("invalid tracked card")

// Store keeps the tracked card list. Entries are unique on their key, the
// list comes back in the order the cards were added.
type Store struct {
	database *sql.DB
	qry      *db.Queries
	makeTx   db.MakeTx
	tel      telemetry.API
}

// Open opens (creating it if needed) the database at target, a sqlite path or
// a libsql url, and brings its schema up to date.
func Open(ctx context.Context, target string, tel telemetry.API) (*Store, error) {
	database, err := migrations.OpenAndMigrateDB(ctx, db.Schema, target)
	if err != nil {
		return nil, err
	}
	return NewStore(database, tel), nil
}

func NewStore(database *sql.DB, tel telemetry.API) *Store {
	assert.NotNil(database)
	assert.NotNil(tel)

	return &Store{
		database: database,
		qry:      db.New(database),
		makeTx:   db.NewMakeTx(database),
		tel:      telemetry.NewScopedAPI("tracking_store", tel),
	}
}

func (s *Store) Close() error {
	return s.database.Close()
}

// normalize fills in the unique key and checks the entry can be stored.
func normalize(spec cardmarket.TrackedCardSpec) (cardmarket.TrackedCardSpec, error) {
	spec.URL = strings.TrimSpace(spec.URL)
	if spec.URL == "" {
		return spec, fmt.Errorf("%w: url is required", ErrInvalidCard)
	}
	if err := spec.CardFilters.Validate(); err != nil {
		return spec, fmt.Errorf("%w: %w", ErrInvalidCard, err)
	}
	if spec.UniqueKey == "" {
		spec.UniqueKey = cardmarket.TrackedCardKey(spec.URL, spec.CardFilters)
	}
	return spec, nil
}

func toRow(spec cardmarket.TrackedCardSpec, at time.Time) db.AddTrackedCardParams {
	return db.AddTrackedCardParams{
		UniqueKey:     spec.UniqueKey,
		Url:           spec.URL,
		Name:          spec.Name,
		SetName:       spec.Set,
		Language:      spec.Language,
		CardCondition: spec.Condition,
		Foil:          spec.Foil,
		CreatedAt:     at.UnixMilli(),
	}
}

func fromRow(row db.TrackedCard) cardmarket.TrackedCardSpec {
	return cardmarket.TrackedCardSpec{
		URL:       row.Url,
		UniqueKey: row.UniqueKey,
		Name:      row.Name,
		Set:       row.SetName,
		CardFilters: cardmarket.CardFilters{
			Language:  row.Language,
			Condition: row.CardCondition,
			Foil:      row.Foil,
		},
	}
}

// Add stores spec under its unique key (computed when empty). Adding a key
// that is already tracked changes nothing and reports added=false.
func (s *Store) Add(ctx context.Context, spec cardmarket.TrackedCardSpec) (stored cardmarket.TrackedCardSpec, added bool, err error) {
	spec, err = normalize(spec)
	if err != nil {
		return spec, false, err
	}
	n, err := s.qry.AddTrackedCard(ctx, toRow(spec, time.Now()))
	if err != nil {
		return spec, false, fmt.Errorf("add tracked card: %w", err)
	}
	return spec, n > 0, nil
}

// Get returns the entry stored under key, ok is false when there is none.
func (s *Store) Get(ctx context.Context, key string) (cardmarket.TrackedCardSpec, bool, error) {
	row, err := s.qry.GetTrackedCard(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return cardmarket.TrackedCardSpec{}, false, nil
	}
	if err != nil {
		return cardmarket.TrackedCardSpec{}, false, fmt.Errorf("get tracked card: %w", err)
	}
	return fromRow(row), true, nil
}

// Remove deletes the entry with the given unique key.
func (s *Store) Remove(ctx context.Context, key string) (bool, error) {
	n, err := s.qry.RemoveTrackedCard(ctx, key)
	if err != nil {
		return false, fmt.Errorf("remove tracked card: %w", err)
	}
	return n > 0, nil
}

// RemoveByURL deletes every filter variant tracked for url.
func (s *Store) RemoveByURL(ctx context.Context, url string) (int, error) {
	n, err := s.qry.RemoveTrackedCardsByURL(ctx, strings.TrimSpace(url))
	if err != nil {
		return 0, fmt.Errorf("remove tracked cards by url: %w", err)
	}
	return int(n), nil
}

// List returns every tracked card in insertion order.
func (s *Store) List(ctx context.Context) ([]cardmarket.TrackedCardSpec, error) {
	rows, err := s.qry.ListTrackedCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked cards: %w", err)
	}
	out := make([]cardmarket.TrackedCardSpec, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.qry.CountTrackedCards(ctx)
	return int(n), err
}

// Seed adds every spec in one transaction. Invalid entries are reported and
// skipped, entries already tracked are left alone.
func (s *Store) Seed(ctx context.Context, specs []cardmarket.TrackedCardSpec) (added int, err error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return 0, err
	}
	defer discard()

	now := time.Now()
	for i, spec := range specs {
		spec, err := normalize(spec)
		if err != nil {
			s.tel.ReportWarning(report_store_seed, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		n, err := tx.AddTrackedCard(ctx, toRow(spec, now))
		if err != nil {
			return 0, fmt.Errorf("seed tracked card %s: %w", spec.UniqueKey, err)
		}
		added += int(n)
	}

	err = commit()
	if err != nil {
		return 0, err
	}
	return added, nil
}
