package wallet

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/yolodolo42/erdwallet/internal/account"
	"github.com/yolodolo42/erdwallet/internal/gateway"
	"go.uber.org/zap"
)

// Direction of a history entry relative to the account it was fetched for.
type Direction string

const (
	Incoming Direction = "in"
	Outgoing Direction = "out"
	Self     Direction = "self"
)

// HistoryEntry is a transaction summary seen from one account.
type HistoryEntry struct {
	Hash         string
	Counterparty string
	Direction    Direction
	Value        string // smallest units
	Fee          string
	Status       string
	Timestamp    time.Time
}

// RefreshResult is the outcome of one account in RefreshAll.
type RefreshResult struct {
	Address string
	Balance string
	Err     error
}

// RefreshBalance fetches the balance of a stored account into the cache.
// A failed fetch leaves any cached value in place. Concurrent refreshes of
// the same address share one gateway call.
func (s *Session) RefreshBalance(ctx context.Context, address string) (string, error) {
	if _, err := s.lookup(ctx, address); err != nil {
		return "", err
	}

	v, err, shared := s.flights.Do("balance:"+address, func() (any, error) {
		state, err := s.gw.GetAccount(ctx, address)
		if errors.Is(err, gateway.ErrNotFound) {
			state, err = gateway.AccountState{Address: address, Balance: "0"}, nil
		}
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		s.balances[address] = state.Balance
		s.mu.Unlock()
		return state.Balance, nil
	})
	if err != nil {
		s.logger.Warn("balance refresh failed", zap.String("address", address), zap.Error(err))
		return "", err
	}
	if shared {
		s.logger.Debug("balance refresh joined in-flight request", zap.String("address", address))
	}
	return v.(string), nil
}

// RefreshAll refreshes every stored account one after another. Each
// account's failure is reported in its own result and does not stop the rest.
func (s *Session) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	records, err := s.repo.List(ctx, account.Ascending)
	if err != nil {
		return nil, err
	}

	results := make([]RefreshResult, 0, len(records))
	for _, r := range records {
		bal, err := s.RefreshBalance(ctx, r.Address)
		results = append(results, RefreshResult{Address: r.Address, Balance: bal, Err: err})
	}
	return results, nil
}

// RefreshTokens fetches fungible token holdings into the cache.
func (s *Session) RefreshTokens(ctx context.Context, address string) ([]gateway.TokenBalance, error) {
	if _, err := s.lookup(ctx, address); err != nil {
		return nil, err
	}

	v, err, _ := s.flights.Do("tokens:"+address, func() (any, error) {
		tokens, err := s.gw.GetTokenBalances(ctx, address)
		if errors.Is(err, gateway.ErrNotFound) {
			tokens, err = []gateway.TokenBalance{}, nil
		}
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.tokens[address] = tokens
		s.mu.Unlock()
		return tokens, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]gateway.TokenBalance), nil
}

// RefreshHistory fetches recent transactions into the cache, newest first.
func (s *Session) RefreshHistory(ctx context.Context, address string) ([]HistoryEntry, error) {
	if _, err := s.lookup(ctx, address); err != nil {
		return nil, err
	}

	v, err, _ := s.flights.Do("history:"+address, func() (any, error) {
		txs, err := s.gw.GetTransactions(ctx, address)
		if errors.Is(err, gateway.ErrNotFound) {
			txs, err = nil, nil
		}
		if err != nil {
			return nil, err
		}

		entries := summarize(address, txs)
		s.mu.Lock()
		s.history[address] = entries
		s.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]HistoryEntry), nil
}

func summarize(address string, txs []gateway.Transaction) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(txs))
	for _, t := range txs {
		e := HistoryEntry{
			Hash:      t.Hash,
			Value:     t.Value,
			Fee:       t.Fee,
			Status:    t.Status,
			Timestamp: time.Unix(t.Timestamp, 0),
		}
		switch {
		case t.Sender == address && t.Receiver == address:
			e.Direction, e.Counterparty = Self, address
		case t.Sender == address:
			e.Direction, e.Counterparty = Outgoing, t.Receiver
		default:
			e.Direction, e.Counterparty = Incoming, t.Sender
		}
		entries = append(entries, e)
	}
	// Gateways may ignore the requested order.
	slices.SortStableFunc(entries, func(a, b HistoryEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return entries
}
