// Package memstore is an in-memory repositories.Store used by service and handler tests.
// Transactions are serialised and roll back to a snapshot on error. Conditional
// updates (MarkUsed, DecrementCredit, Activate) keep their compare-and-swap semantics.
package memstore

import (
	"context"
	"sync"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories"
)

type state struct {
	nextID       uint
	users        map[uint]models.User
	properties   map[uint]models.Property
	otps         map[uint]models.OTPCode
	keywords     map[uint]models.BlockedKeyword
	flags        []models.ComplianceFlag
	transactions []models.Transaction
	creditPkgs   map[uint]models.CreditPackage
	extraPkgs    map[uint]models.ExtraPackage
	adPkgs       map[uint]models.AdPackage
	ads          map[uint]models.Ad
	settings     models.PlatformSettings
}

func newState() *state {
	return &state{
		users:      map[uint]models.User{},
		properties: map[uint]models.Property{},
		otps:       map[uint]models.OTPCode{},
		keywords:   map[uint]models.BlockedKeyword{},
		creditPkgs: map[uint]models.CreditPackage{},
		extraPkgs:  map[uint]models.ExtraPackage{},
		adPkgs:     map[uint]models.AdPackage{},
		ads:        map[uint]models.Ad{},
		settings:   models.PlatformSettings{ID: models.PlatformSettingsID},
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:       s.nextID,
		users:        copyMap(s.users),
		properties:   copyMap(s.properties),
		otps:         copyMap(s.otps),
		keywords:     copyMap(s.keywords),
		flags:        append([]models.ComplianceFlag(nil), s.flags...),
		transactions: append([]models.Transaction(nil), s.transactions...),
		creditPkgs:   copyMap(s.creditPkgs),
		extraPkgs:    copyMap(s.extraPkgs),
		adPkgs:       copyMap(s.adPkgs),
		ads:          copyMap(s.ads),
		settings:     s.settings,
	}
	return c
}

func copyMap[T any](m map[uint]T) map[uint]T {
	out := make(map[uint]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type db struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	st    *state
	fails map[string]error
}

// Store implements repositories.Store in memory.
type Store struct {
	db   *db
	inTx bool
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &db{st: newState(), fails: map[string]error{}}}
}

// Fail makes the next call of op (for example "users.DecrementCredit") return err.
func (s *Store) Fail(op string, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.fails[op] = err
}

func (s *Store) Users() repositories.UserRepository         { return &users{s.db} }
func (s *Store) Properties() repositories.PropertyRepository { return &properties{s.db} }
func (s *Store) OTPCodes() repositories.OTPRepository        { return &otps{s.db} }
func (s *Store) Keywords() repositories.KeywordRepository    { return &keywords{s.db} }
func (s *Store) ComplianceFlags() repositories.ComplianceFlagRepository {
	return &flags{s.db}
}
func (s *Store) Transactions() repositories.TransactionRepository { return &transactions{s.db} }
func (s *Store) Catalog() repositories.CatalogRepository          { return &catalog{s.db} }
func (s *Store) Ads() repositories.AdRepository                   { return &ads{s.db} }
func (s *Store) Settings() repositories.SettingsRepository        { return &settings{s.db} }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return appErrors.Unavailable(err)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.Lock()
	snapshot := s.db.st.clone()
	s.db.mu.Unlock()

	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.st = snapshot
		s.db.mu.Unlock()
		return err
	}
	return nil
}

// lock acquires the data mutex after checking ctx and pending failures for op.
// The caller must call the returned unlock.
func (d *db) lock(ctx context.Context, op string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Unavailable(err)
	}
	d.mu.Lock()
	if err, ok := d.fails[op]; ok {
		delete(d.fails, op)
		d.mu.Unlock()
		return nil, err
	}
	return d.mu.Unlock, nil
}

func (d *db) id() uint {
	d.st.nextID++
	return d.st.nextID
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
