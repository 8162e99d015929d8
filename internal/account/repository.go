package account

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yolodolo42/erdwallet/internal/logging"
	"github.com/yolodolo42/erdwallet/internal/storage"
	"go.uber.org/zap"
)

// StorageKey holds the JSON array of every account record.
const StorageKey = "wallets"

// Order selects the CreatedAt ordering returned by List.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Repository is the durable collection of account records, unique by
// address. Every mutation rewrites the whole collection.
//
// The mutex only serializes callers sharing this Repository. Two processes
// writing the same store still race and the last write wins.
type Repository struct {
	mu     sync.Mutex
	store  storage.Store
	logger *zap.Logger
}

func NewRepository(store storage.Store, logger *zap.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logging.OrNop(logger),
	}
}

// List returns all records sorted by CreatedAt. Records with equal
// CreatedAt keep their stored order. A corrupt payload yields an empty list.
func (r *Repository) List(ctx context.Context, order Order) ([]Record, error) {
	records, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		if order == Descending {
			return cmp.Compare(b.CreatedAt, a.CreatedAt)
		}
		return cmp.Compare(a.CreatedAt, b.CreatedAt)
	})
	return records, nil
}

// FindByAddress returns the record for address, if stored.
func (r *Repository) FindByAddress(ctx context.Context, address string) (Record, bool, error) {
	records, err := r.load(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range records {
		if rec.Address == address {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// Add stores rec unless a record with the same address already exists, in
// which case the stored record is returned and added is false. Missing ID,
// Name and CreatedAt are filled in.
func (r *Repository) Add(ctx context.Context, rec Record) (stored Record, added bool, err error) {
	if err := rec.Validate(); err != nil {
		return Record{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, existing := range records {
		if existing.Address == rec.Address {
			return existing, false, nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Name == "" {
		rec.Name = fmt.Sprintf("Wallet %d", len(records)+1)
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}

	if err := r.save(ctx, append(records, rec)); err != nil {
		return Record{}, false, err
	}
	r.logger.Debug("account added", zap.Object("account", rec))
	return rec, true, nil
}

// Remove deletes the record for address. Removing an absent address is a no-op.
func (r *Repository) Remove(ctx context.Context, address string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if !containsAddress(records, address) {
		return false, nil
	}
	kept := slices.DeleteFunc(records, func(rec Record) bool {
		return rec.Address == address
	})

	if err := r.save(ctx, kept); err != nil {
		return false, err
	}
	r.logger.Debug("account removed", zap.String("address", address))
	return true, nil
}

// Rename changes the display name of a stored record.
func (r *Repository) Rename(ctx context.Context, address, name string) (Record, error) {
	if name == "" {
		return Record{}, fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return Record{}, err
	}
	idx := slices.IndexFunc(records, func(rec Record) bool { return rec.Address == address })
	if idx < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	records[idx].Name = name
	if err := r.save(ctx, records); err != nil {
		return Record{}, err
	}
	return records[idx], nil
}

// Clear empties the collection.
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, []Record{}); err != nil {
		return err
	}
	r.logger.Debug("accounts cleared")
	return nil
}

func (r *Repository) load(ctx context.Context) ([]Record, error) {
	raw, ok, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.logger.Warn("stored accounts are unreadable, treating as empty",
			zap.Error(err),
			zap.String("payload", logging.RedactJSON(raw)),
		)
		return []Record{}, nil
	}
	valid := make([]Record, 0, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			r.logger.Warn("skipping incomplete stored account",
				zap.Int("index", i),
				zap.String("address", rec.Address),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, rec)
	}
	return valid, nil
}

func (r *Repository) save(ctx context.Context, records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}
	return r.store.Set(ctx, StorageKey, string(raw))
}

func containsAddress(records []Record, address string) bool {
	return slices.ContainsFunc(records, func(rec Record) bool { return rec.Address == address })
}
