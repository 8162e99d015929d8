package wallet

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/yolodolo42/erdwallet/internal/account"
	"github.com/yolodolo42/erdwallet/internal/gateway"
	"github.com/yolodolo42/erdwallet/internal/logging"
	"github.com/yolodolo42/erdwallet/internal/network"
	"github.com/yolodolo42/erdwallet/internal/securestore"
	"github.com/yolodolo42/erdwallet/internal/signer"
	"github.com/yolodolo42/erdwallet/internal/storage"
	"github.com/yolodolo42/erdwallet/internal/tx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ActiveKey stores the active address so separate CLI runs share a session.
const ActiveKey = "activeAddress"

var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrNoActive       = errors.New("no active account")
)

// State is the session's position in its lifecycle.
type State int

const (
	NoAccount State = iota
	AccountActive
)

func (s State) String() string {
	if s == AccountActive {
		return "active"
	}
	return "no account"
}

// Deps are the collaborators a Session is built from.
type Deps struct {
	Store   storage.Store
	Gateway gateway.Gateway
	Crypto  signer.Crypto
	Network *network.Network
	Logger  *zap.Logger
}

// Session owns the active-account pointer and the read caches. Account
// records live in the repository; the session only references them by
// address.
type Session struct {
	mu sync.RWMutex

	store   storage.Store
	repo    *account.Repository
	vault   *securestore.Vault
	gw      gateway.Gateway
	crypto  signer.Crypto
	network *network.Network
	flow    *tx.Flow
	logger  *zap.Logger
	flights singleflight.Group

	active   string
	balances map[string]string
	tokens   map[string][]gateway.TokenBalance
	history  map[string][]HistoryEntry
}

// NewSession wires a session. Call Load before using it.
func NewSession(deps Deps) *Session {
	logger := logging.OrNop(deps.Logger)
	return &Session{
		store:    deps.Store,
		repo:     account.NewRepository(deps.Store, logger.Named("accounts")),
		vault:    securestore.NewVault(deps.Store),
		gw:       deps.Gateway,
		crypto:   deps.Crypto,
		network:  deps.Network,
		flow:     tx.NewFlow(deps.Gateway, deps.Crypto, deps.Network, logger.Named("tx")),
		logger:   logger,
		balances: make(map[string]string),
		tokens:   make(map[string][]gateway.TokenBalance),
		history:  make(map[string][]HistoryEntry),
	}
}

// Repository exposes the underlying account collection.
func (s *Session) Repository() *account.Repository { return s.repo }

// Network returns the profile the session transacts on.
func (s *Session) Network() *network.Network { return s.network }

// Load restores the persisted active address. An explicit logout is
// remembered as an empty pointer. When no pointer was ever stored, or it
// names an account that no longer exists, the earliest account becomes active.
func (s *Session) Load(ctx context.Context) error {
	records, err := s.repo.List(ctx, account.Ascending)
	if err != nil {
		return err
	}
	stored, ok, err := s.store.Get(ctx, ActiveKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok && stored == "" {
		s.active = ""
		return nil
	}
	for _, r := range records {
		if r.Address == stored {
			s.active = stored
			return nil
		}
	}

	if len(records) == 0 {
		s.active = ""
		return nil
	}
	return s.setActiveLocked(ctx, records[0].Address)
}

// State reports whether an account is active.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return NoAccount
	}
	return AccountActive
}

// Active returns the active address, if any.
func (s *Session) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}

// ActiveRecord returns the full record of the active account.
func (s *Session) ActiveRecord(ctx context.Context) (account.Record, error) {
	addr, ok := s.Active()
	if !ok {
		return account.Record{}, ErrNoActive
	}
	return s.lookup(ctx, addr)
}

// Accounts lists stored accounts.
func (s *Session) Accounts(ctx context.Context, order account.Order) ([]account.Record, error) {
	return s.repo.List(ctx, order)
}

// Generate creates an account from a fresh recovery phrase and activates it.
func (s *Session) Generate(ctx context.Context, name string) (account.Record, error) {
	phrase, err := s.crypto.GenerateRecoveryPhrase()
	if err != nil {
		return account.Record{}, fmt.Errorf("generate recovery phrase: %w", err)
	}
	return s.importPhrase(ctx, phrase, name)
}

// ImportPhrase derives an account from a recovery phrase and activates it.
// Importing a phrase whose address is already stored activates the
// existing record.
func (s *Session) ImportPhrase(ctx context.Context, phrase, name string) (account.Record, error) {
	return s.importPhrase(ctx, phrase, name)
}

func (s *Session) importPhrase(ctx context.Context, phrase, name string) (account.Record, error) {
	key, err := s.crypto.DeriveKeyFromPhrase(phrase)
	if err != nil {
		return account.Record{}, err
	}
	return s.addAndActivate(ctx, key, phrase, name)
}

// ImportKey imports a raw private key and activates the account.
func (s *Session) ImportKey(ctx context.Context, secretKey, name string) (account.Record, error) {
	return s.addAndActivate(ctx, secretKey, "", name)
}

func (s *Session) addAndActivate(ctx context.Context, key, phrase, name string) (account.Record, error) {
	addr, err := s.crypto.DeriveAddress(key)
	if err != nil {
		return account.Record{}, err
	}

	rec := account.NewRecord(name, addr, key, phrase)
	stored, added, err := s.repo.Add(ctx, rec)
	if err != nil {
		return account.Record{}, err
	}
	if !added {
		s.logger.Info("account already stored, activating existing record", zap.String("address", addr))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setActiveLocked(ctx, stored.Address); err != nil {
		return account.Record{}, err
	}
	return stored, nil
}

// Switch activates a stored account.
func (s *Session) Switch(ctx context.Context, address string) error {
	if _, err := s.lookup(ctx, address); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActiveLocked(ctx, address)
}

// Logout clears the active pointer and every cache. Stored accounts are kept.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setActiveLocked(ctx, ""); err != nil {
		return err
	}
	s.resetCachesLocked()
	return nil
}

// Delete removes a stored account. When it was active, the earliest
// remaining account becomes active, or the session drops to NoAccount.
func (s *Session) Delete(ctx context.Context, address string) error {
	removed, err := s.repo.Remove(ctx, address)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.balances, address)
	delete(s.tokens, address)
	delete(s.history, address)

	if s.active != address {
		return nil
	}
	remaining, err := s.repo.List(ctx, account.Ascending)
	if err != nil {
		return err
	}
	next := ""
	if len(remaining) > 0 {
		next = remaining[0].Address
	}
	return s.setActiveLocked(ctx, next)
}

// Clear removes every stored account and resets the session.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetCachesLocked()
	return s.setActiveLocked(ctx, "")
}

// Rename changes an account's display name.
func (s *Session) Rename(ctx context.Context, address, name string) (account.Record, error) {
	rec, err := s.repo.Rename(ctx, address, name)
	if errors.Is(err, account.ErrNotFound) {
		return account.Record{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	return rec, err
}

// Balance returns the cached balance in smallest units.
func (s *Session) Balance(address string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[address]
	return b, ok
}

// Balances returns a copy of the balance cache.
func (s *Session) Balances() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.balances)
}

// Tokens returns the cached token holdings.
func (s *Session) Tokens(address string) ([]gateway.TokenBalance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[address]
	return t, ok
}

// History returns the cached history, newest first.
func (s *Session) History(address string) ([]HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[address]
	return h, ok
}

// Send transfers a human amount from the active account.
func (s *Session) Send(ctx context.Context, to, amount string) (tx.Result, error) {
	addr, ok := s.Active()
	if !ok {
		return tx.Result{}, tx.Invalid("sender", "no active account")
	}
	return s.SendFrom(ctx, addr, to, amount)
}

// SendFrom transfers a human amount from any stored account. Session state
// is left untouched whatever the outcome.
func (s *Session) SendFrom(ctx context.Context, from, to, amount string) (tx.Result, error) {
	rec, err := s.lookup(ctx, from)
	if err != nil {
		return tx.Result{}, err
	}
	return s.flow.Send(ctx, rec, to, amount)
}

func (s *Session) lookup(ctx context.Context, address string) (account.Record, error) {
	rec, ok, err := s.repo.FindByAddress(ctx, address)
	if err != nil {
		return account.Record{}, err
	}
	if !ok {
		return account.Record{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	return rec, nil
}

// setActiveLocked persists then applies the active pointer. mu must be held.
func (s *Session) setActiveLocked(ctx context.Context, address string) error {
	if err := s.store.Set(ctx, ActiveKey, address); err != nil {
		return fmt.Errorf("persist active account: %w", err)
	}
	if s.active != address {
		s.logger.Debug("active account changed", zap.String("from", s.active), zap.String("to", address))
	}
	s.active = address
	return nil
}

func (s *Session) resetCachesLocked() {
	s.balances = make(map[string]string)
	s.tokens = make(map[string][]gateway.TokenBalance)
	s.history = make(map[string][]HistoryEntry)
}
