// Package gatewaytest provides an in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/yolodolo42/erdwallet/internal/gateway"
)

// Fake is a scriptable gateway.Gateway. Unknown accounts get the zero state.
type Fake struct {
	mu sync.Mutex

	Accounts     map[string]gateway.AccountState
	Tokens       map[string][]gateway.TokenBalance
	History      map[string][]gateway.Transaction
	AccountErr   map[string]error
	TokensErr    error
	HistoryErr   error
	SubmitErr    error
	SubmitHash   string
	Submitted    []gateway.SignedTransaction
	AccountCalls map[string]int

	// BeforeGetAccount, when set, runs before each GetAccount lookup.
	BeforeGetAccount func(address string)
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Accounts:     make(map[string]gateway.AccountState),
		Tokens:       make(map[string][]gateway.TokenBalance),
		History:      make(map[string][]gateway.Transaction),
		AccountErr:   make(map[string]error),
		AccountCalls: make(map[string]int),
		SubmitHash:   "f00d",
	}
}

// SetBalance records an account state.
func (f *Fake) SetBalance(address, balance string, nonce uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Accounts[address] = gateway.AccountState{Address: address, Balance: balance, Nonce: nonce}
}

// FailAccount makes GetAccount for address return err.
func (f *Fake) FailAccount(address string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AccountErr[address] = err
}

// Calls returns how many times GetAccount was called for address.
func (f *Fake) Calls(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AccountCalls[address]
}

// SubmittedTxs returns a copy of every submitted transaction.
func (f *Fake) SubmittedTxs() []gateway.SignedTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.SignedTransaction(nil), f.Submitted...)
}

func (f *Fake) GetAccount(ctx context.Context, address string) (gateway.AccountState, error) {
	if hook := f.BeforeGetAccount; hook != nil {
		hook(address)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.AccountCalls[address]++
	if err := ctx.Err(); err != nil {
		return gateway.AccountState{}, err
	}
	if err, ok := f.AccountErr[address]; ok {
		return gateway.AccountState{}, err
	}
	if st, ok := f.Accounts[address]; ok {
		return st, nil
	}
	return gateway.AccountState{Address: address, Balance: "0"}, nil
}

func (f *Fake) GetTokenBalances(_ context.Context, address string) ([]gateway.TokenBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.TokensErr != nil {
		return nil, f.TokensErr
	}
	return append([]gateway.TokenBalance{}, f.Tokens[address]...), nil
}

func (f *Fake) GetTransactions(_ context.Context, address string) ([]gateway.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.HistoryErr != nil {
		return nil, f.HistoryErr
	}
	return append([]gateway.Transaction{}, f.History[address]...), nil
}

func (f *Fake) SubmitTransaction(_ context.Context, tx gateway.SignedTransaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	f.Submitted = append(f.Submitted, tx)
	return fmt.Sprintf("%s%d", f.SubmitHash, len(f.Submitted)), nil
}

// StatusError builds the error a real gateway returns for an HTTP status.
func StatusError(op string, status int, msg string) error {
	return &gateway.Error{Op: op, StatusCode: status, Message: msg}
}
